package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/chromedp/chromedp"
	"github.com/shopspring/decimal"
)

// Scraper reads quotes from rendered web pages with headless Chrome. The
// page URL template contains {address}; the selector points at the element
// whose text is the price.
type Scraper struct {
	template string
	selector string
	settle   time.Duration
	logger   *slog.Logger
}

func NewScraper(template, selector string, logger *slog.Logger) (*Scraper, error) {
	if !strings.Contains(template, "{address}") {
		return nil, errors.New("scrape URL must contain {address}")
	}
	if selector == "" {
		return nil, errors.New("scrape selector is required")
	}
	return &Scraper{
		template: template,
		selector: selector,
		settle:   time.Second,
		logger:   logger,
	}, nil
}

func (s *Scraper) Name() string { return "scrape" }

// FetchPrices visits one page per address in a single browser session.
// Pages that fail to load or parse are skipped; an error is returned only
// if no page yielded a price.
func (s *Scraper) FetchPrices(ctx context.Context, addresses []string) (map[string]float64, error) {
	if len(addresses) == 0 {
		return map[string]float64{}, nil
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-crash-reporter", true),
		chromedp.Flag("crash-dumps-dir", "/tmp"),
		chromedp.UserDataDir("/tmp/chromedp-profile"),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	bctx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	out := make(map[string]float64, len(addresses))
	var lastErr error
	for _, addr := range addresses {
		page := strings.ReplaceAll(s.template, "{address}", url.PathEscape(addr))

		var text string
		if err := chromedp.Run(bctx,
			chromedp.Navigate(page),
			chromedp.WaitVisible(s.selector, chromedp.ByQuery),
			chromedp.Sleep(s.settle),
			chromedp.Text(s.selector, &text, chromedp.ByQuery),
		); err != nil {
			lastErr = fmt.Errorf("scrape %s: %w", addr, err)
			s.logger.Warn("scrape page failed", "address", addr, "error", err)
			if ctx.Err() != nil {
				break
			}
			continue
		}

		price, err := parsePriceText(text)
		if err != nil {
			lastErr = fmt.Errorf("parse %s: %w", addr, err)
			s.logger.Warn("scraped price unparseable", "address", addr, "text", text, "error", err)
			continue
		}
		out[addr] = price
	}

	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

// parsePriceText turns display strings like "$0.0₅812" or "1,234.56 USD"
// into a number. A subscript digit n after "0.0" stands for n zeros in total.
func parsePriceText(text string) (float64, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(text) {
		switch {
		case r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r >= '₀' && r <= '₉':
			// "0.0₅" already wrote one zero
			if n := int(r - '₀'); n > 1 {
				b.WriteString(strings.Repeat("0", n-1))
			}
		case r == ',', r == '$', unicode.IsSpace(r), unicode.IsLetter(r):
		default:
			return 0, fmt.Errorf("unexpected character %q", r)
		}
	}
	if b.Len() == 0 {
		return 0, errors.New("no digits")
	}
	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return 0, err
	}
	return d.InexactFloat64(), nil
}
