package core

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

func TestValue_MarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"defined", Some(1.5), "1.5"},
		{"zero is defined", Some(0), "0"},
		{"undefined", Undefined, "null"},
		{"nan", Some(math.NaN()), "null"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.v)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestValue_UnmarshalJSON(t *testing.T) {
	var vals []Value
	if err := json.Unmarshal([]byte(`[null, 2.5]`), &vals); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if vals[0].Valid {
		t.Error("expected null to decode as undefined")
	}
	if !vals[1].Valid || vals[1].Float != 2.5 {
		t.Errorf("unexpected value: %+v", vals[1])
	}
}

func TestPosition_Exposure(t *testing.T) {
	tests := []struct {
		pos  Position
		want float64
	}{
		{Flat, 0},
		{LongSpread, 1},
		{ShortSpread, -1},
	}
	for _, tt := range tests {
		if got := tt.pos.Exposure(); got != tt.want {
			t.Errorf("%s.Exposure() = %v, want %v", tt.pos, got, tt.want)
		}
	}
}

func TestPosition_TextRoundTrip(t *testing.T) {
	data, err := json.Marshal([]Position{Flat, LongSpread, ShortSpread})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `["flat","long_spread","short_spread"]` {
		t.Errorf("unexpected encoding: %s", data)
	}

	var p Position
	if err := p.UnmarshalText([]byte("sideways")); err == nil {
		t.Error("expected error for unknown position")
	}
}

func TestDerivedSeries_Floats(t *testing.T) {
	s := DerivedSeries{Values: []Value{Some(1), Some(2)}}
	got, ok := s.Floats()
	if !ok || len(got) != 2 {
		t.Errorf("expected two defined floats, got %v (%v)", got, ok)
	}

	s.Values = append(s.Values, Undefined)
	if _, ok := s.Floats(); ok {
		t.Error("expected ok=false with an undefined entry")
	}
}

func TestDay(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	ts := time.Date(2024, 3, 15, 9, 30, 0, 0, loc)
	got := Day(ts)
	want := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("Day() = %v, want %v", got, want)
	}
}
