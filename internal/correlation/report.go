package correlation

import (
	"time"

	"github.com/newthinker/pairscope/internal/core"
)

// Report is the serialisable view of a Matrix.
type Report struct {
	Start          string         `json:"start,omitempty"`
	End            string         `json:"end,omitempty"`
	Basis          Basis          `json:"basis"`
	Symbols        []string       `json:"symbols"`
	Values         [][]core.Value `json:"values"`
	MostCorrelated *Pair          `json:"most_correlated"`
	Pairs          []Pair         `json:"pairs"`
}

// Report ranks the pairs and attaches the request window.
func (m *Matrix) Report(start, end time.Time) Report {
	r := Report{
		Basis:   m.Basis,
		Symbols: m.Symbols,
		Values:  m.Values,
		Pairs:   m.Pairs(),
	}
	if r.Pairs == nil {
		r.Pairs = []Pair{}
	}
	if len(r.Pairs) > 0 {
		top := r.Pairs[0]
		r.MostCorrelated = &top
	}
	if !start.IsZero() {
		r.Start = start.Format(time.DateOnly)
	}
	if !end.IsZero() {
		r.End = end.Format(time.DateOnly)
	}
	return r
}
