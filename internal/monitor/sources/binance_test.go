package sources

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/adshao/go-binance/v2"
)

func newTestBinance(srv *httptest.Server) *Binance {
	b := NewBinance(slog.New(slog.NewTextHandler(io.Discard, nil)))
	b.client.BaseURL = srv.URL
	b.client.HTTPClient = srv.Client()
	return b
}

var fakeTicker = map[string]string{
	"PEPEUSDT": "0.00000812",
	"BTCUSDT":  "95432.10",
}

func tickerHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/ticker/price" {
			t.Errorf("path = %q", r.URL.Path)
		}
		writeInvalid := func() {
			w.WriteHeader(http.StatusBadRequest)
			w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
		}

		if s := r.URL.Query().Get("symbol"); s != "" {
			p, ok := fakeTicker[s]
			if !ok {
				writeInvalid()
				return
			}
			json.NewEncoder(w).Encode(binance.SymbolPrice{Symbol: s, Price: p})
			return
		}

		var symbols []string
		if err := json.Unmarshal([]byte(r.URL.Query().Get("symbols")), &symbols); err != nil {
			t.Errorf("symbols param: %v", err)
		}
		var out []binance.SymbolPrice
		for _, s := range symbols {
			p, ok := fakeTicker[s]
			if !ok {
				writeInvalid()
				return
			}
			out = append(out, binance.SymbolPrice{Symbol: s, Price: p})
		}
		json.NewEncoder(w).Encode(out)
	}
}

func TestBinanceFetchPrices(t *testing.T) {
	srv := httptest.NewServer(tickerHandler(t))
	defer srv.Close()

	prices, err := newTestBinance(srv).FetchPrices(context.Background(), []string{"pepeusdt", "BTCUSDT"})
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}
	if prices["pepeusdt"] != 0.00000812 {
		t.Errorf("pepeusdt = %v, want 0.00000812", prices["pepeusdt"])
	}
	if prices["BTCUSDT"] != 95432.10 {
		t.Errorf("BTCUSDT = %v, want 95432.10", prices["BTCUSDT"])
	}
}

func TestBinanceUnknownSymbolFallsBack(t *testing.T) {
	srv := httptest.NewServer(tickerHandler(t))
	defer srv.Close()

	prices, err := newTestBinance(srv).FetchPrices(context.Background(), []string{"BTCUSDT", "NOPEUSDT"})
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}
	if len(prices) != 1 || prices["BTCUSDT"] != 95432.10 {
		t.Errorf("prices = %v, want only BTCUSDT", prices)
	}
}

func TestBinanceSingleUnknownSymbolErrors(t *testing.T) {
	srv := httptest.NewServer(tickerHandler(t))
	defer srv.Close()

	if _, err := newTestBinance(srv).FetchPrices(context.Background(), []string{"NOPEUSDT"}); err == nil {
		t.Error("expected error for a lone unknown symbol")
	}
}

func TestBinanceServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := newTestBinance(srv).FetchPrices(context.Background(), []string{"BTCUSDT"}); err == nil {
		t.Error("expected error")
	}
}

func TestBinanceEmptyInput(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty input should not hit the network")
	}))
	defer srv.Close()

	prices, err := newTestBinance(srv).FetchPrices(context.Background(), nil)
	if err != nil || len(prices) != 0 {
		t.Errorf("FetchPrices(nil) = %v, %v", prices, err)
	}
}
