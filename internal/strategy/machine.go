// Package strategy turns a relationship series and its rolling bands into a
// spread position per date.
package strategy

import (
	"fmt"
	"time"

	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/indicator"
)

// BandSource selects which band values a rule compares against.
type BandSource string

const (
	// Snapshot freezes the bands at the bar where the machine entered its
	// current state.
	Snapshot BandSource = "snapshot"
	// Live uses the bands of the bar being evaluated and of the bar before.
	Live BandSource = "live"
)

// ParseBandSource converts a config string to a BandSource.
func ParseBandSource(s string) (BandSource, error) {
	switch BandSource(s) {
	case "", Live:
		return Live, nil
	case Snapshot:
		return Snapshot, nil
	default:
		return "", fmt.Errorf("unknown band source %q", s)
	}
}

// Machine describes one strategy variant: where its entry and exit rules read
// their thresholds from.
type Machine struct {
	Name  string
	Entry BandSource
	Exit  BandSource
}

// Static is the static-threshold strategy: every decision compares against
// bands frozen when the current state began.
func Static() Machine {
	return Machine{Name: "static", Entry: Snapshot, Exit: Snapshot}
}

// Dynamic is the dynamic-band strategy: exits follow the live bands; entry
// reads from the given source.
func Dynamic(entry BandSource) Machine {
	return Machine{Name: "bands", Entry: entry, Exit: Live}
}

// Describe returns a short human readable label.
func (m Machine) Describe() string {
	return fmt.Sprintf("%s (entry=%s, exit=%s)", m.Name, m.Entry, m.Exit)
}

// PositionSeries is the per-date output of a Machine.
type PositionSeries struct {
	Name      string
	Dates     []time.Time
	Positions []core.Position
	// First is the index of the first date with defined bands, -1 if none.
	First int
}

// Transitions counts state changes after First.
func (p PositionSeries) Transitions() int {
	var n int
	for i := 1; i < len(p.Positions); i++ {
		if p.Positions[i] != p.Positions[i-1] {
			n++
		}
	}
	return n
}

// levels is one bar's band triple.
type levels struct {
	mean, upper, lower float64
}

func levelsAt(b indicator.BandSet, i int) levels {
	return levels{
		mean:  b.Mean.Values[i].Float,
		upper: b.Upper.Values[i].Float,
		lower: b.Lower.Values[i].Float,
	}
}

// Generate runs m over values in chronological order, one transition per bar.
//
// From FLAT the machine goes LONG_SPREAD when the value crosses below the
// lower band and SHORT_SPREAD when it crosses above the upper band; from
// either it returns to FLAT when the value crosses back through the mean. A
// cross needs the previous value on the other side of the threshold. Bars with
// undefined bands are FLAT and make no decisions.
func Generate(values core.DerivedSeries, bands indicator.BandSet, m Machine) (PositionSeries, error) {
	n := values.Len()
	if bands.Mean.Len() != n || bands.Upper.Len() != n || bands.Lower.Len() != n {
		return PositionSeries{}, core.Errorf(core.ErrInvalidParameter,
			"bands cover %d dates, series has %d", bands.Mean.Len(), n)
	}

	out := PositionSeries{
		Name:      m.Name,
		Dates:     values.Dates,
		Positions: make([]core.Position, n),
		First:     -1,
	}

	state := core.Flat
	var snap levels
	armed := false

	for i := 0; i < n; i++ {
		if !values.Values[i].Valid || !bands.Defined(i) {
			state, armed = core.Flat, false
			out.Positions[i] = core.Flat
			continue
		}

		cur := levelsAt(bands, i)
		if !armed {
			if out.First < 0 {
				out.First = i
			}
			state, snap, armed = core.Flat, cur, true
			out.Positions[i] = core.Flat
			continue
		}

		// armed implies bar i-1 was defined.
		prev := levelsAt(bands, i-1)
		x, px := values.Values[i].Float, values.Values[i-1].Float

		next := state
		switch state {
		case core.Flat:
			p, c := pick(m.Entry, snap, prev, cur)
			switch {
			case px >= p.lower && x < c.lower:
				next = core.LongSpread
			case px <= p.upper && x > c.upper:
				next = core.ShortSpread
			}
		case core.LongSpread:
			p, c := pick(m.Exit, snap, prev, cur)
			if px < p.mean && x >= c.mean {
				next = core.Flat
			}
		case core.ShortSpread:
			p, c := pick(m.Exit, snap, prev, cur)
			if px > p.mean && x <= c.mean {
				next = core.Flat
			}
		}

		if next != state {
			state, snap = next, cur
		}
		out.Positions[i] = state
	}

	return out, nil
}

// pick returns the previous and current thresholds for a rule.
func pick(src BandSource, snap, prev, cur levels) (levels, levels) {
	if src == Snapshot {
		return snap, snap
	}
	return prev, cur
}
