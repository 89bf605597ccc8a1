// Package marketcap parses and formats market-cap style numbers such as
// "450.5K", "1.23M" and "2B".
package marketcap

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
)

var capPattern = regexp.MustCompile(`^(\d+(?:\.\d*)?)\s*([KMB]?)$`)

// Parse converts "100K", "1.5M", "2B" or a bare number into a float.
// Suffixes are case-insensitive.
func Parse(s string) (float64, error) {
	in := strings.ToUpper(strings.TrimSpace(s))
	m := capPattern.FindStringSubmatch(in)
	if m == nil {
		return 0, fmt.Errorf("invalid market cap %q: use a format like 100K, 1.5M or 2B", s)
	}

	v, err := decimal.NewFromString(strings.TrimSuffix(m[1], "."))
	if err != nil {
		return 0, fmt.Errorf("invalid market cap %q: %w", s, err)
	}
	switch m[2] {
	case "K":
		v = v.Mul(thousand)
	case "M":
		v = v.Mul(million)
	case "B":
		v = v.Mul(billion)
	}
	f, _ := v.Float64()
	return f, nil
}

// Format renders v with a K/M/B suffix and two decimals: 1234567 -> "1.23M".
func Format(v float64) string {
	d := decimal.NewFromFloat(v)
	switch {
	case v >= 1_000_000_000:
		return d.Div(billion).StringFixed(2) + "B"
	case v >= 1_000_000:
		return d.Div(million).StringFixed(2) + "M"
	case v >= 1_000:
		return d.Div(thousand).StringFixed(2) + "K"
	default:
		return d.StringFixed(2)
	}
}
