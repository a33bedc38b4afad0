// Package indicator computes rolling statistics over derived series.
package indicator

import (
	"math"

	"github.com/newthinker/pairscope/internal/core"
)

// BandSet holds rolling statistics aligned to the input series' dates.
// Entries without a full trailing window are undefined.
type BandSet struct {
	Mean   core.DerivedSeries
	Std    core.DerivedSeries
	Upper  core.DerivedSeries
	Lower  core.DerivedSeries
	ZScore core.DerivedSeries
	Window int
	K      float64
}

// Defined reports whether the bands at index i are usable for signals.
func (b BandSet) Defined(i int) bool {
	return b.Mean.Values[i].Valid && b.Upper.Values[i].Valid && b.Lower.Values[i].Valid
}

// Bands computes the rolling mean, sample std, mean ± k·std bands and z-score
// over a trailing window. An undefined input value restarts the window.
func Bands(s core.DerivedSeries, window int, k float64) (BandSet, error) {
	if window < 2 {
		return BandSet{}, core.Errorf(core.ErrInvalidParameter, "window must be >= 2, got %d", window)
	}
	if !(k > 0) || math.IsInf(k, 0) {
		return BandSet{}, core.Errorf(core.ErrInvalidParameter, "std multiplier must be positive, got %v", k)
	}

	n := s.Len()
	mean := make([]core.Value, n)
	std := make([]core.Value, n)
	upper := make([]core.Value, n)
	lower := make([]core.Value, n)
	z := make([]core.Value, n)

	acc := NewRolling(window)
	for i, v := range s.Values {
		if !v.Valid {
			acc.Reset()
			continue
		}
		acc.Push(v.Float)
		if !acc.Full() {
			continue
		}

		m, sd := acc.Mean(), acc.Std()
		mean[i] = core.Some(m)
		std[i] = core.Some(sd)
		upper[i] = core.Some(m + k*sd)
		lower[i] = core.Some(m - k*sd)
		if sd > 0 {
			z[i] = core.Some((v.Float - m) / sd)
		}
	}

	return BandSet{
		Mean:   core.DerivedSeries{Name: "rolling_mean", Dates: s.Dates, Values: mean},
		Std:    core.DerivedSeries{Name: "rolling_std", Dates: s.Dates, Values: std},
		Upper:  core.DerivedSeries{Name: "upper_band", Dates: s.Dates, Values: upper},
		Lower:  core.DerivedSeries{Name: "lower_band", Dates: s.Dates, Values: lower},
		ZScore: core.DerivedSeries{Name: "zscore", Dates: s.Dates, Values: z},
		Window: window,
		K:      k,
	}, nil
}
