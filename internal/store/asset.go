package store

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ErrNotFound is returned by Get when no asset has the requested label.
var ErrNotFound = errors.New("asset not found")

// Asset is one entry of the watch list. Address and Label are both unique.
type Asset struct {
	Address   string    `json:"token_address"`
	Label     string    `json:"custom_name"`
	HighPrice float64   `json:"high_price"`
	LowPrice  float64   `json:"low_price"`
	CreatedAt time.Time `json:"created_at,omitzero"`
	UpdatedAt time.Time `json:"updated_at,omitzero"`
}

// Validate checks the fields a caller controls.
func (a Asset) Validate() error {
	if strings.TrimSpace(a.Address) == "" {
		return errors.New("address is required")
	}
	if strings.TrimSpace(a.Label) == "" {
		return errors.New("label is required")
	}
	return ValidateRange(a.HighPrice, a.LowPrice)
}

// ValidateRange rejects negative or non-finite prices. high < low is allowed
// (the asset simply produces no levels) so a range can be fixed later.
func ValidateRange(high, low float64) error {
	for _, v := range []float64{high, low} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("price %v is not finite", v)
		}
		if v < 0 {
			return fmt.Errorf("price %v is negative", v)
		}
	}
	return nil
}
