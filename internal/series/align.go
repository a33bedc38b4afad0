// Package series merges per-ticker price histories onto a common date index.
package series

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/newthinker/pairscope/internal/core"
)

// DefaultMinSamples is the fixed floor on the aligned length.
const DefaultMinSamples = 20

// FillPolicy controls how dates missing from one series are handled.
type FillPolicy string

const (
	// FillDrop keeps only dates with a valid price in both series.
	FillDrop FillPolicy = "drop"
	// FillForward carries a ticker's last valid price across its gaps.
	FillForward FillPolicy = "forward"
)

// ParseFillPolicy converts a config string to a FillPolicy.
func ParseFillPolicy(s string) (FillPolicy, error) {
	switch FillPolicy(s) {
	case "", FillDrop:
		return FillDrop, nil
	case FillForward:
		return FillForward, nil
	default:
		return "", fmt.Errorf("unknown fill policy %q", s)
	}
}

// Options configures Align.
type Options struct {
	Start      time.Time // inclusive, zero means unbounded
	End        time.Time // inclusive, zero means unbounded
	Window     int
	MinSamples int
	Fill       FillPolicy
}

// Align restricts both series to the requested window and merges them onto a
// strictly increasing date index. The aligned length must exceed both the
// window and MinSamples.
func Align(s1, s2 core.PriceSeries, opts Options) (core.AlignedPair, error) {
	if !opts.Start.IsZero() && !opts.End.IsZero() && !opts.Start.Before(opts.End) {
		return core.AlignedPair{}, core.Errorf(core.ErrInvalidParameter,
			"start date %s must be before end date %s",
			opts.Start.Format(time.DateOnly), opts.End.Format(time.DateOnly))
	}

	m1 := index(s1, opts)
	m2 := index(s2, opts)

	var pair core.AlignedPair
	switch opts.Fill {
	case FillForward:
		pair = forwardFill(m1, m2)
	default:
		pair = intersect(m1, m2)
	}
	pair.Symbol1 = s1.Symbol
	pair.Symbol2 = s2.Symbol

	minLen := opts.MinSamples
	if minLen <= 0 {
		minLen = DefaultMinSamples
	}
	if opts.Window > minLen {
		minLen = opts.Window
	}
	if pair.Len() <= minLen {
		return core.AlignedPair{}, core.Errorf(core.ErrInsufficientData,
			"%d aligned dates for %s/%s, need more than %d",
			pair.Len(), s1.Symbol, s2.Symbol, minLen)
	}

	return pair, nil
}

// observation is one date of a ticker after window restriction.
type observation struct {
	price float64
	valid bool
}

func index(s core.PriceSeries, opts Options) map[time.Time]observation {
	start := core.Day(opts.Start)
	end := core.Day(opts.End)

	m := make(map[time.Time]observation, len(s.Points))
	for _, p := range s.Points {
		day := core.Day(p.Date)
		if !opts.Start.IsZero() && day.Before(start) {
			continue
		}
		if !opts.End.IsZero() && day.After(end) {
			continue
		}
		valid := p.Valid && !math.IsNaN(p.Close) && !math.IsInf(p.Close, 0)
		// Last observation for a day wins.
		m[day] = observation{price: p.Close, valid: valid}
	}
	return m
}

func intersect(m1, m2 map[time.Time]observation) core.AlignedPair {
	dates := make([]time.Time, 0, len(m1))
	for d, o1 := range m1 {
		if !o1.valid {
			continue
		}
		if o2, ok := m2[d]; ok && o2.valid {
			dates = append(dates, d)
		}
	}
	sortDates(dates)

	pair := core.AlignedPair{
		Dates:  dates,
		Price1: make([]float64, len(dates)),
		Price2: make([]float64, len(dates)),
	}
	for i, d := range dates {
		pair.Price1[i] = m1[d].price
		pair.Price2[i] = m2[d].price
	}
	return pair
}

func forwardFill(m1, m2 map[time.Time]observation) core.AlignedPair {
	seen := make(map[time.Time]struct{}, len(m1)+len(m2))
	all := make([]time.Time, 0, len(m1)+len(m2))
	for _, m := range []map[time.Time]observation{m1, m2} {
		for d := range m {
			if _, ok := seen[d]; !ok {
				seen[d] = struct{}{}
				all = append(all, d)
			}
		}
	}
	sortDates(all)

	var pair core.AlignedPair
	var last1, last2 float64
	var have1, have2 bool
	for _, d := range all {
		if o, ok := m1[d]; ok && o.valid {
			last1, have1 = o.price, true
		}
		if o, ok := m2[d]; ok && o.valid {
			last2, have2 = o.price, true
		}
		// Nothing is emitted until both tickers have traded once.
		if !have1 || !have2 {
			continue
		}
		pair.Dates = append(pair.Dates, d)
		pair.Price1 = append(pair.Price1, last1)
		pair.Price2 = append(pair.Price2, last2)
	}
	return pair
}

func sortDates(dates []time.Time) {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
}
