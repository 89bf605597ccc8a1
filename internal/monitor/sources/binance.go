package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// Binance error code for an unknown trading pair.
const binanceInvalidSymbol = -1121

// Binance quotes spot tickers. Watch list addresses are exchange symbols
// such as "PEPEUSDT"; they are matched case-insensitively.
type Binance struct {
	client *binance.Client
	logger *slog.Logger
}

func NewBinance(logger *slog.Logger) *Binance {
	return &Binance{
		client: binance.NewClient("", ""),
		logger: logger,
	}
}

func (b *Binance) Name() string { return "binance" }

// FetchPrices asks for all symbols in one request. Binance rejects the whole
// batch if any symbol is unknown, in which case each symbol is retried on
// its own and unknown ones are dropped.
func (b *Binance) FetchPrices(ctx context.Context, addresses []string) (map[string]float64, error) {
	if len(addresses) == 0 {
		return map[string]float64{}, nil
	}

	// symbol -> original address spellings
	bySymbol := lo.GroupBy(addresses, strings.ToUpper)
	symbols := lo.Keys(bySymbol)

	list, err := b.client.NewListPricesService().Symbols(symbols).Do(ctx)
	if err != nil {
		var apiErr *common.APIError
		if !errors.As(err, &apiErr) || apiErr.Code != binanceInvalidSymbol || len(symbols) == 1 {
			return nil, fmt.Errorf("binance ticker: %w", err)
		}
		list = b.fetchEach(ctx, symbols)
	}

	out := make(map[string]float64, len(addresses))
	for _, sp := range list {
		price, err := decimal.NewFromString(sp.Price)
		if err != nil {
			b.logger.Warn("unparseable binance price", "symbol", sp.Symbol, "price", sp.Price, "error", err)
			continue
		}
		for _, addr := range bySymbol[sp.Symbol] {
			out[addr] = price.InexactFloat64()
		}
	}
	return out, nil
}

func (b *Binance) fetchEach(ctx context.Context, symbols []string) []*binance.SymbolPrice {
	var out []*binance.SymbolPrice
	for _, s := range symbols {
		list, err := b.client.NewListPricesService().Symbol(s).Do(ctx)
		if err != nil {
			b.logger.Warn("binance symbol lookup failed", "symbol", s, "error", err)
			continue
		}
		out = append(out, list...)
	}
	return out
}
