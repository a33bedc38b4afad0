package core

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Value is a float64 that may be undefined, e.g. inside a rolling warm-up.
type Value struct {
	Float float64
	Valid bool
}

// Some returns a defined Value.
func Some(f float64) Value {
	return Value{Float: f, Valid: true}
}

// Undefined is the zero Value.
var Undefined = Value{}

// MarshalJSON encodes undefined values as null.
func (v Value) MarshalJSON() ([]byte, error) {
	if !v.Valid || math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(v.Float)
}

// UnmarshalJSON decodes null as undefined.
func (v *Value) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = Undefined
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*v = Some(f)
	return nil
}

// PricePoint is one daily close. Valid is false for a missing trading day.
type PricePoint struct {
	Date  time.Time `json:"date"`
	Close float64   `json:"close"`
	Valid bool      `json:"valid"`
}

// PriceSeries holds the history of one ticker ordered by date
type PriceSeries struct {
	Symbol string       `json:"symbol"`
	Points []PricePoint `json:"points"`
}

// Len returns the number of points, missing ones included.
func (s PriceSeries) Len() int {
	return len(s.Points)
}

// AlignedPair holds two price columns sharing one strictly increasing date index.
type AlignedPair struct {
	Symbol1 string
	Symbol2 string
	Dates   []time.Time
	Price1  []float64
	Price2  []float64
}

// Len returns the number of aligned dates.
func (p AlignedPair) Len() int {
	return len(p.Dates)
}

// DerivedSeries is a named series on an AlignedPair's date index.
type DerivedSeries struct {
	Name   string
	Dates  []time.Time
	Values []Value
}

// Len returns the number of entries.
func (s DerivedSeries) Len() int {
	return len(s.Values)
}

// Floats returns the defined values and reports whether every entry was defined.
func (s DerivedSeries) Floats() ([]float64, bool) {
	out := make([]float64, 0, len(s.Values))
	for _, v := range s.Values {
		if !v.Valid {
			return out, false
		}
		out = append(out, v.Float)
	}
	return out, true
}

// NewDerivedSeries wraps fully defined values.
func NewDerivedSeries(name string, dates []time.Time, values []float64) DerivedSeries {
	vals := make([]Value, len(values))
	for i, f := range values {
		vals[i] = Some(f)
	}
	return DerivedSeries{Name: name, Dates: dates, Values: vals}
}

// CriticalValues holds test critical values at the conventional levels.
type CriticalValues struct {
	OnePct  float64 `json:"1%"`
	FivePct float64 `json:"5%"`
	TenPct  float64 `json:"10%"`
}

// TestResult is the outcome of a unit-root or cointegration test.
type TestResult struct {
	Statistic      float64        `json:"statistic"`
	PValue         float64        `json:"p_value"`
	Lags           int            `json:"lags"`
	NObs           int            `json:"nobs"`
	CriticalValues CriticalValues `json:"critical_values"`
}

// Position is the spread-strategy stance on a date.
type Position int

const (
	Flat Position = iota
	LongSpread
	ShortSpread
)

// String returns the wire name of the position.
func (p Position) String() string {
	switch p {
	case Flat:
		return "flat"
	case LongSpread:
		return "long_spread"
	case ShortSpread:
		return "short_spread"
	default:
		return fmt.Sprintf("position(%d)", int(p))
	}
}

// Exposure is the signed spread exposure: +1 long, -1 short, 0 flat.
func (p Position) Exposure() float64 {
	switch p {
	case LongSpread:
		return 1
	case ShortSpread:
		return -1
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (p Position) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Position) UnmarshalText(text []byte) error {
	switch string(text) {
	case "flat":
		*p = Flat
	case "long_spread":
		*p = LongSpread
	case "short_spread":
		*p = ShortSpread
	default:
		return fmt.Errorf("unknown position %q", text)
	}
	return nil
}

// Day truncates t to its calendar date at UTC midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
