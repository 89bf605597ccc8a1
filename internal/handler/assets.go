package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/web3-frozen/fib-monitor/internal/fib"
	"github.com/web3-frozen/fib-monitor/internal/marketcap"
	"github.com/web3-frozen/fib-monitor/internal/store"
)

// Registry is the watch-list surface the HTTP API operates on.
type Registry interface {
	List(ctx context.Context) ([]store.Asset, error)
	Get(ctx context.Context, label string) (*store.Asset, error)
	Add(ctx context.Context, a store.Asset) (bool, error)
	Delete(ctx context.Context, label string) (bool, error)
	UpdateRange(ctx context.Context, label string, high, low float64) (bool, error)
}

// capValue accepts either a JSON number or a market-cap string like "1.5M".
type capValue struct {
	v   float64
	set bool
}

func (c *capValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := marketcap.Parse(s)
		if err != nil {
			return err
		}
		c.v, c.set = v, true
		return nil
	}
	if err := json.Unmarshal(b, &c.v); err != nil {
		return fmt.Errorf("price must be a number or a string like 1.5M")
	}
	c.set = true
	return nil
}

type createAssetRequest struct {
	Address string   `json:"token_address"`
	Label   string   `json:"custom_name"`
	High    capValue `json:"high_price"`
	Low     capValue `json:"low_price"`
}

type updateRangeRequest struct {
	High capValue `json:"high_price"`
	Low  capValue `json:"low_price"`
}

type levelsResponse struct {
	Label     string      `json:"custom_name"`
	HighPrice float64     `json:"high_price"`
	LowPrice  float64     `json:"low_price"`
	Levels    []fib.Price `json:"levels"`
}

func ListAssets(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assets, err := reg.List(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to list assets")
			return
		}
		if assets == nil {
			assets = []store.Asset{}
		}
		writeJSON(w, http.StatusOK, assets)
	}
}

func CreateAsset(reg Registry, defaultLow float64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createAssetRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if !req.High.set {
			writeError(w, http.StatusBadRequest, "high_price is required")
			return
		}
		low := defaultLow
		if req.Low.set {
			low = req.Low.v
		}

		a := store.Asset{
			Address:   strings.TrimSpace(req.Address),
			Label:     strings.TrimSpace(req.Label),
			HighPrice: req.High.v,
			LowPrice:  low,
		}
		if err := a.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ok, err := reg.Add(r.Context(), a)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to add asset")
			return
		}
		if !ok {
			writeError(w, http.StatusConflict, "label or address already watched")
			return
		}
		writeJSON(w, http.StatusCreated, a)
	}
}

func UpdateAsset(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		label := chi.URLParam(r, "label")
		var req updateRangeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
			return
		}
		if !req.High.set || !req.Low.set {
			writeError(w, http.StatusBadRequest, "high_price and low_price are required")
			return
		}
		if err := store.ValidateRange(req.High.v, req.Low.v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		ok, err := reg.UpdateRange(r.Context(), label, req.High.v, req.Low.v)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to update asset")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func DeleteAsset(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := reg.Delete(r.Context(), chi.URLParam(r, "label"))
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to delete asset")
			return
		}
		if !ok {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func AssetLevels(reg Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		a, err := reg.Get(r.Context(), chi.URLParam(r, "label"))
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "asset not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to get asset")
			return
		}

		levels := fib.Ordered(a.HighPrice, a.LowPrice)
		if levels == nil {
			levels = []fib.Price{}
		}
		writeJSON(w, http.StatusOK, levelsResponse{
			Label:     a.Label,
			HighPrice: a.HighPrice,
			LowPrice:  a.LowPrice,
			Levels:    levels,
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
