package handler

import (
	"net/http"

	"github.com/web3-frozen/fib-monitor/internal/monitor"
)

// Stats reports the monitoring loop's latest observations.
func Stats(engine *monitor.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, engine.GetStatus())
	}
}
