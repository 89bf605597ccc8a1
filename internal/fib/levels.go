package fib

import (
	"math"
	"strconv"
	"strings"
)

// Category groups levels into retracements (inside the range) and
// extensions (beyond the high).
type Category string

const (
	Retracement Category = "retracement"
	Extension   Category = "extension"
)

// LevelName identifies a level as "<category>_<int>_<frac>", e.g.
// "retracement_61_8" for the 61.8% retracement.
type LevelName string

const (
	Retracement100 LevelName = "retracement_100_0"
	Retracement786 LevelName = "retracement_78_6"
	Retracement618 LevelName = "retracement_61_8"
	Retracement500 LevelName = "retracement_50_0"
	Retracement382 LevelName = "retracement_38_2"
	Retracement236 LevelName = "retracement_23_6"
	Retracement0   LevelName = "retracement_0_0"

	Extension1618 LevelName = "extension_161_8"
	Extension2618 LevelName = "extension_261_8"
	Extension3618 LevelName = "extension_361_8"
)

// Category returns the token before the first underscore.
func (n LevelName) Category() Category {
	cat, _, _ := strings.Cut(string(n), "_")
	return Category(cat)
}

// Percent joins the two numeric segments after the category with a decimal
// point: "retracement_61_8" -> 61.8. Malformed names return 0.
func (n LevelName) Percent() float64 {
	parts := strings.Split(string(n), "_")
	if len(parts) != 3 {
		return 0
	}
	v, err := strconv.ParseFloat(parts[1]+"."+parts[2], 64)
	if err != nil {
		return 0
	}
	return v
}

// Level is a named Fibonacci ratio.
type Level struct {
	Name  LevelName
	Ratio float64
}

// Retracements lists the retracement levels from the high down to the low.
// Alert evaluation walks them in this order.
var Retracements = []Level{
	{Retracement100, 1.0},
	{Retracement786, 0.786},
	{Retracement618, 0.618},
	{Retracement500, 0.5},
	{Retracement382, 0.382},
	{Retracement236, 0.236},
	{Retracement0, 0.0},
}

// Extensions lists the levels projected beyond the high.
var Extensions = []Level{
	{Extension1618, 1.618},
	{Extension2618, 2.618},
	{Extension3618, 3.618},
}

// Price is a level resolved against a concrete range.
type Price struct {
	Name     LevelName `json:"name"`
	Category Category  `json:"category"`
	Percent  float64   `json:"percent"`
	Ratio    float64   `json:"ratio"`
	Price    float64   `json:"price"`
}

// Compute returns the price of every retracement and extension level for the
// range [low, high]. An invalid range (high <= low, negative or non-finite
// inputs) yields an empty map: no levels, so nothing can alert.
func Compute(high, low float64) map[LevelName]float64 {
	if !validRange(high, low) {
		return map[LevelName]float64{}
	}
	span := high - low
	out := make(map[LevelName]float64, len(Retracements)+len(Extensions))
	for _, l := range Retracements {
		out[l.Name] = low + span*l.Ratio
	}
	for _, l := range Extensions {
		out[l.Name] = low + span*l.Ratio
	}
	return out
}

// Ordered is Compute in declaration order (retracements, then extensions),
// for display. Returns nil for an invalid range.
func Ordered(high, low float64) []Price {
	if !validRange(high, low) {
		return nil
	}
	span := high - low
	out := make([]Price, 0, len(Retracements)+len(Extensions))
	for _, set := range [][]Level{Retracements, Extensions} {
		for _, l := range set {
			out = append(out, Price{
				Name:     l.Name,
				Category: l.Name.Category(),
				Percent:  l.Name.Percent(),
				Ratio:    l.Ratio,
				Price:    low + span*l.Ratio,
			})
		}
	}
	return out
}

// WithinTolerance reports whether value lies within tol (fractional) of
// level. A zero level never matches.
func WithinTolerance(value, level, tol float64) bool {
	if level == 0 {
		return false
	}
	return math.Abs(value-level)/level <= tol
}

func validRange(high, low float64) bool {
	if math.IsNaN(high) || math.IsNaN(low) || math.IsInf(high, 0) || math.IsInf(low, 0) {
		return false
	}
	if low < 0 {
		return false
	}
	return high > low
}
