package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNewPriceAPIRequiresPlaceholder(t *testing.T) {
	if _, err := NewPriceAPI("https://example.com/prices"); err == nil {
		t.Error("expected error for template without {tokens}")
	}
}

func TestPriceAPIFetchPrices(t *testing.T) {
	var gotTokens string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTokens = r.URL.Query().Get("tokens")
		w.Write([]byte(`{"prices":{"0xaaa":0.00000809,"0xbbb":"1.5","0xccc":null}}`))
	}))
	defer srv.Close()

	p, err := NewPriceAPI(srv.URL + "/v1/prices?tokens={tokens}")
	if err != nil {
		t.Fatalf("NewPriceAPI: %v", err)
	}
	p.client = srv.Client()

	prices, err := p.FetchPrices(context.Background(), []string{"0xaaa", "0xbbb", "0xccc"})
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}
	if gotTokens != "0xaaa,0xbbb,0xccc" {
		t.Errorf("tokens query = %q", gotTokens)
	}
	if prices["0xaaa"] != 0.00000809 {
		t.Errorf("0xaaa = %v, want 0.00000809", prices["0xaaa"])
	}
	if prices["0xbbb"] != 1.5 {
		t.Errorf("0xbbb = %v, want 1.5", prices["0xbbb"])
	}
	if _, ok := prices["0xccc"]; ok {
		t.Error("null price should be omitted")
	}
}

func TestPriceAPIEmptyInputNoRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	p, _ := NewPriceAPI(srv.URL + "?t={tokens}")
	prices, err := p.FetchPrices(context.Background(), nil)
	if err != nil || len(prices) != 0 {
		t.Errorf("FetchPrices(nil) = %v, %v", prices, err)
	}
	if called {
		t.Error("empty input should not hit the network")
	}
}

func TestPriceAPIErrors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"bad status", func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "rate limited", http.StatusTooManyRequests)
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"prices":`))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p, _ := NewPriceAPI(srv.URL + "?t={tokens}")
			if _, err := p.FetchPrices(context.Background(), []string{"0x1"}); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPriceAPIMissingPricesKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	p, _ := NewPriceAPI(srv.URL + "?t={tokens}")
	prices, err := p.FetchPrices(context.Background(), []string{"0x1"})
	if err != nil {
		t.Fatalf("FetchPrices: %v", err)
	}
	if len(prices) != 0 {
		t.Errorf("prices = %v, want empty", prices)
	}
}
