package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/newthinker/pairscope/internal/app"
	"github.com/newthinker/pairscope/internal/correlation"
	"github.com/newthinker/pairscope/internal/logger"
)

var (
	correlateTickers []string
	correlateFrom    string
	correlateTo      string
	correlateBasis   string
	correlateTop     int
	correlateJSON    bool
)

var correlateCmd = &cobra.Command{
	Use:   "correlate",
	Short: "Rank the most correlated pairs of a ticker universe",
	Long:  "Fetch every ticker, build the pairwise correlation matrix and list the most correlated pairs as candidates for analyze",
	RunE:  runCorrelate,
}

func init() {
	correlateCmd.Flags().StringSliceVar(&correlateTickers, "tickers", nil, "Comma-separated tickers (default: configured universe)")
	correlateCmd.Flags().StringVar(&correlateFrom, "from", "", "Start date YYYY-MM-DD (default from config)")
	correlateCmd.Flags().StringVar(&correlateTo, "to", "", "End date YYYY-MM-DD (default today)")
	correlateCmd.Flags().StringVar(&correlateBasis, "basis", "prices", "Correlate prices or returns")
	correlateCmd.Flags().IntVar(&correlateTop, "top", 10, "Number of pairs to print")
	correlateCmd.Flags().BoolVar(&correlateJSON, "json", false, "Print the full matrix as JSON")

	rootCmd.AddCommand(correlateCmd)
}

func runCorrelate(cmd *cobra.Command, args []string) error {
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

	req, err := buildCorrelationRequest(correlateTickers, correlateFrom, correlateTo, correlateBasis)
	if err != nil {
		return err
	}

	service, cleanup, err := app.Build(cmd.Context(), cfg, log, nil)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}
	defer cleanup()

	report, err := service.Correlate(cmd.Context(), req)
	if err != nil {
		return err
	}

	if correlateJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	printCorrelation(cmd.OutOrStdout(), *report, correlateTop)
	return nil
}

func buildCorrelationRequest(tickers []string, from, to, basis string) (correlation.Request, error) {
	var req correlation.Request
	for _, t := range tickers {
		if t = strings.TrimSpace(t); t != "" {
			req.Tickers = append(req.Tickers, t)
		}
	}

	var err error
	if req.Basis, err = correlation.ParseBasis(basis); err != nil {
		return req, err
	}
	if from != "" {
		if req.Start, err = time.Parse(time.DateOnly, from); err != nil {
			return req, fmt.Errorf("invalid from date format (expected YYYY-MM-DD): %w", err)
		}
	}
	if to != "" {
		if req.End, err = time.Parse(time.DateOnly, to); err != nil {
			return req, fmt.Errorf("invalid to date format (expected YYYY-MM-DD): %w", err)
		}
	}
	return req, nil
}

func printCorrelation(w io.Writer, r correlation.Report, top int) {
	fmt.Fprintln(w, "=== pairscope correlation ===")
	fmt.Fprintf(w, "Universe: %d tickers, %s\n", len(r.Symbols), r.Basis)
	fmt.Fprintf(w, "Period:   %s to %s\n", r.Start, r.End)
	fmt.Fprintln(w)

	if len(r.Pairs) == 0 {
		fmt.Fprintln(w, "No pair shares enough dates to correlate.")
		return
	}
	pairs := r.Pairs
	if top > 0 && top < len(pairs) {
		pairs = pairs[:top]
	}
	for i, p := range pairs {
		fmt.Fprintf(w, "%3d. %-10s %-10s %.4f\n", i+1, p.Symbol1, p.Symbol2, p.Correlation)
	}
}
