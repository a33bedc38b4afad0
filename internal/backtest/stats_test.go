package backtest

import (
	"math"
	"testing"
)

func TestCalculateStats_Empty(t *testing.T) {
	stats := CalculateStats([]Trade{}, nil)
	if stats.TotalTrades != 0 {
		t.Error("expected 0 trades for empty input")
	}
	if stats.TotalReturn != 0 || stats.SharpeRatio != 0 {
		t.Errorf("expected zero stats, got %+v", stats)
	}
}

func TestCalculateStats_WinRate(t *testing.T) {
	trades := []Trade{
		{Return: 0.10},  // win
		{Return: 0.05},  // win
		{Return: -0.03}, // loss
		{Return: 0.02},  // win
	}

	stats := CalculateStats(trades, nil)

	if stats.TotalTrades != 4 {
		t.Errorf("TotalTrades = %d, want 4", stats.TotalTrades)
	}
	if stats.WinningTrades != 3 {
		t.Errorf("WinningTrades = %d, want 3", stats.WinningTrades)
	}
	if stats.WinRate != 75 {
		t.Errorf("WinRate = %f, want 75", stats.WinRate)
	}
}

func TestCalculateStats_TotalReturnCompounds(t *testing.T) {
	stats := CalculateStats(nil, []float64{0.10, -0.05})

	expected := 4.5 // (1.10 * 0.95 - 1) * 100
	if math.Abs(stats.TotalReturn-expected) > 0.001 {
		t.Errorf("TotalReturn = %f, want %f", stats.TotalReturn, expected)
	}
}

func TestCalculateMaxDrawdown(t *testing.T) {
	// Simulate: +10%, +5%, -20%, +10%
	// Peak at 1.155, trough at 0.924, DD = 20%
	returns := []float64{0.10, 0.05, -0.20, 0.10}
	dd := calculateMaxDrawdown(returns)

	if dd < 0.19 || dd > 0.21 {
		t.Errorf("MaxDrawdown = %f, expected ~0.20", dd)
	}
}

func TestCalculateSharpeRatio(t *testing.T) {
	if got := calculateSharpeRatio([]float64{0.01, 0.01, 0.01}); got != 0 {
		t.Errorf("zero variance Sharpe = %f, want 0", got)
	}
	if got := calculateSharpeRatio([]float64{0.02, -0.01, 0.03, 0.00}); got <= 0 {
		t.Errorf("positive mean Sharpe = %f, want > 0", got)
	}
}

func TestCalculateStats_IgnoresOpenTrades(t *testing.T) {
	trades := []Trade{
		{Return: 0.10},             // closed
		{Return: 0.05, Open: true}, // open - should be ignored
	}

	stats := CalculateStats(trades, nil)

	if stats.WinningTrades != 1 {
		t.Errorf("should only count closed trades, got %d", stats.WinningTrades)
	}
	if stats.TotalTrades != 2 {
		t.Errorf("TotalTrades = %d, want 2", stats.TotalTrades)
	}
}
