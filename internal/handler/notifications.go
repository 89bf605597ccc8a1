package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/web3-frozen/fib-monitor/internal/store"
)

// NotificationLister reads the alert history.
type NotificationLister interface {
	ListNotifications(ctx context.Context, label string, limit int) ([]store.Notification, error)
}

// ListNotifications serves the alert history, optionally filtered by
// ?label=. A nil lister means no history is kept.
func ListNotifications(s NotificationLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s == nil {
			writeError(w, http.StatusNotImplemented, "notification history requires DATABASE_URL")
			return
		}

		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			if l, err := strconv.Atoi(v); err == nil && l > 0 && l <= 100 {
				limit = l
			}
		}

		logs, err := s.ListNotifications(r.Context(), r.URL.Query().Get("label"), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list notifications")
			return
		}
		if logs == nil {
			logs = []store.Notification{}
		}
		writeJSON(w, http.StatusOK, logs)
	}
}
