package sources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PriceAPI queries a batch quote endpoint. The URL template contains the
// placeholder {tokens}, replaced with the comma-joined addresses. The
// response looks like {"prices": {"<address>": 0.123}}; quoted numbers are
// accepted too.
type PriceAPI struct {
	client   *http.Client
	template string
}

type priceAPIResp struct {
	Prices map[string]decimal.NullDecimal `json:"prices"`
}

func NewPriceAPI(template string) (*PriceAPI, error) {
	if !strings.Contains(template, "{tokens}") {
		return nil, errors.New("price API URL must contain {tokens}")
	}
	return &PriceAPI{
		client:   &http.Client{Timeout: 15 * time.Second},
		template: template,
	}, nil
}

func (p *PriceAPI) Name() string { return "api" }

func (p *PriceAPI) FetchPrices(ctx context.Context, addresses []string) (map[string]float64, error) {
	if len(addresses) == 0 {
		return map[string]float64{}, nil
	}

	escaped := make([]string, len(addresses))
	for i, a := range addresses {
		escaped[i] = url.QueryEscape(a)
	}
	u := strings.ReplaceAll(p.template, "{tokens}", strings.Join(escaped, ","))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build price request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("price API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("price API status: %d", resp.StatusCode)
	}

	var body priceAPIResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode price API: %w", err)
	}

	out := make(map[string]float64, len(body.Prices))
	for addr, d := range body.Prices {
		if !d.Valid {
			continue
		}
		out[addr] = d.Decimal.InexactFloat64()
	}
	return out, nil
}
