package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/newthinker/pairscope/internal/app"
	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/logger"
	"github.com/newthinker/pairscope/internal/pipeline"
)

var (
	analyzeTicker1 string
	analyzeTicker2 string
	analyzeFrom    string
	analyzeTo      string
	analyzeStd     float64
	analyzeWindow  int
	analyzeJSON    bool
	analyzeSeries  bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a ticker pair",
	Long:  "Fetch two price histories, test the pair for cointegration and compare the static and dynamic band strategies",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeTicker1, "ticker1", "", "First ticker (required)")
	analyzeCmd.Flags().StringVar(&analyzeTicker2, "ticker2", "", "Second ticker (required)")
	analyzeCmd.Flags().StringVar(&analyzeFrom, "from", "", "Start date YYYY-MM-DD (default from config)")
	analyzeCmd.Flags().StringVar(&analyzeTo, "to", "", "End date YYYY-MM-DD (default today)")
	analyzeCmd.Flags().Float64Var(&analyzeStd, "std", 0, "Band width in standard deviations (default from config)")
	analyzeCmd.Flags().IntVar(&analyzeWindow, "window", 0, "Moving average window (default from config)")
	analyzeCmd.Flags().BoolVar(&analyzeJSON, "json", false, "Print the report as JSON")
	analyzeCmd.Flags().BoolVar(&analyzeSeries, "series", false, "Include every series in the JSON report")

	analyzeCmd.MarkFlagRequired("ticker1")
	analyzeCmd.MarkFlagRequired("ticker2")

	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	level := "warn"
	if debug {
		level = "debug"
	}
	log := logger.Must(logger.Options{Development: debug, Level: level, Stderr: true})
	defer log.Sync()

	cfg, err := loadConfig(log)
	if err != nil {
		return err
	}

	req, err := buildRequest(analyzeTicker1, analyzeTicker2, analyzeFrom, analyzeTo, analyzeStd, analyzeWindow)
	if err != nil {
		return err
	}

	service, cleanup, err := app.Build(cmd.Context(), cfg, log, nil)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}
	defer cleanup()

	bundle, err := service.Analyze(cmd.Context(), req)
	if err != nil {
		return err
	}

	report := bundle.Report(analyzeJSON && analyzeSeries)
	if analyzeJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

func buildRequest(ticker1, ticker2, from, to string, std float64, window int) (pipeline.Request, error) {
	req := pipeline.Request{
		Ticker1:       ticker1,
		Ticker2:       ticker2,
		StdMultiplier: std,
		Window:        window,
	}

	// Parse from date
	if from != "" {
		t, err := time.Parse(time.DateOnly, from)
		if err != nil {
			return req, fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
		}
		req.Start = t
	}

	// Parse to date
	if to != "" {
		t, err := time.Parse(time.DateOnly, to)
		if err != nil {
			return req, fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
		}
		req.End = t
	}

	// Validate date range
	if !req.Start.IsZero() && !req.End.IsZero() && !req.Start.Before(req.End) {
		return req, fmt.Errorf("end date must be after start date")
	}
	return req, nil
}

func printReport(w io.Writer, r pipeline.Report) {
	fmt.Fprintln(w, "=== pairscope analysis ===")
	fmt.Fprintf(w, "Pair:     %s / %s\n", r.Ticker1, r.Ticker2)
	fmt.Fprintf(w, "Period:   %s to %s (%d observations)\n", r.Start, r.End, r.Observations)
	fmt.Fprintf(w, "Bands:    %s, window %d, %.2f std\n", r.Basis, r.Window, r.StdMultiplier)
	fmt.Fprintln(w)

	verdict := "not cointegrated"
	if r.Cointegrated {
		verdict = "cointegrated"
	}
	fmt.Fprintf(w, "Cointegration p-value: %.4f (%s, hedge ratio %.4f)\n",
		r.Cointegration.PValue, verdict, r.Cointegration.HedgeRatio)
	fmt.Fprintf(w, "ADF p-value:           %.4f (statistic %.3f, %d lags)\n",
		r.ADF.PValue, r.ADF.Statistic, r.ADF.Lags)
	fmt.Fprintf(w, "Correlation:           prices %s, returns %s\n",
		formatValue(r.Correlation.Prices), formatValue(r.Correlation.Returns))
	fmt.Fprintln(w)

	for _, name := range []string{"static", "bands"} {
		s, ok := r.Strategies[name]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "[%s]\n", name)
		fmt.Fprintf(w, "  Final cumulative: %s\n", formatValue(s.Final))
		fmt.Fprintf(w, "  Trades:           %d (%d won, %d lost, win rate %.1f%%)\n",
			s.Stats.TotalTrades, s.Stats.WinningTrades, s.Stats.LosingTrades, s.Stats.WinRate)
		fmt.Fprintf(w, "  Total return:     %.2f%%\n", s.Stats.TotalReturn)
		fmt.Fprintf(w, "  Max drawdown:     %.2f%%\n", s.Stats.MaxDrawdown)
		fmt.Fprintf(w, "  Sharpe ratio:     %.2f\n", s.Stats.SharpeRatio)
	}
}

func formatValue(v core.Value) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v.Float)
}
