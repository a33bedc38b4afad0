package eastmoney

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/newthinker/pairscope/internal/collector"
	"github.com/newthinker/pairscope/internal/core"
)

const (
	defaultHistoryURL = "https://push2his.eastmoney.com/api/qt/stock/kline/get"
)

// Suffixes are the exchange suffixes this collector serves.
var Suffixes = []string{".SH", ".SZ"}

// Eastmoney implements the Eastmoney collector for A-shares
type Eastmoney struct {
	client     *http.Client
	historyURL string
}

// New creates a new Eastmoney collector
func New(cfg collector.Config) *Eastmoney {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	u := cfg.BaseURL
	if u == "" {
		u = defaultHistoryURL
	}
	return &Eastmoney{
		client:     &http.Client{Timeout: timeout},
		historyURL: u,
	}
}

func (e *Eastmoney) Name() string {
	return "eastmoney"
}

// parseSymbol converts 600519.SH to (600519, 1) for Eastmoney API
// Shanghai = 1, Shenzhen = 0
func (e *Eastmoney) parseSymbol(symbol string) (code, market string) {
	parts := strings.Split(symbol, ".")
	if len(parts) != 2 {
		return symbol, "1"
	}

	code = parts[0]
	switch strings.ToUpper(parts[1]) {
	case "SH":
		market = "1"
	case "SZ":
		market = "0"
	default:
		market = "1"
	}
	return
}

// FetchHistory fetches forward-adjusted daily closes
func (e *Eastmoney) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	code, market := e.parseSymbol(symbol)

	q := url.Values{}
	q.Set("secid", market+"."+code)
	q.Set("klt", "101") // daily
	q.Set("fqt", "1")   // forward adjusted
	q.Set("beg", start.Format("20060102"))
	q.Set("end", end.Format("20060102"))
	q.Set("fields1", "f1,f2,f3")
	q.Set("fields2", "f51,f53")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.historyURL+"?"+q.Encode(), nil)
	if err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed, err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return core.PriceSeries{}, core.WrapError(core.ErrCollectorTimeout, err)
		}
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching history: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return core.PriceSeries{}, core.Errorf(core.ErrCollectorFailed, "unexpected status: %d", resp.StatusCode)
	}

	var result historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", err))
	}

	if result.Data == nil || len(result.Data.Klines) == 0 {
		return core.PriceSeries{}, core.Errorf(core.ErrSymbolNotFound, "no history for symbol: %s", symbol)
	}

	series := core.PriceSeries{Symbol: symbol, Points: make([]core.PricePoint, 0, len(result.Data.Klines))}
	for _, line := range result.Data.Klines {
		p, ok := parseKline(line)
		if !ok {
			continue
		}
		series.Points = append(series.Points, p)
	}
	return series, nil
}

// parseKline reads "2024-01-02,1685.01" (date, close).
func parseKline(line string) (core.PricePoint, bool) {
	fields := strings.Split(line, ",")
	if len(fields) < 2 {
		return core.PricePoint{}, false
	}
	t, err := time.Parse(time.DateOnly, fields[0])
	if err != nil {
		return core.PricePoint{}, false
	}
	p := core.PricePoint{Date: t}
	if c, err := strconv.ParseFloat(fields[1], 64); err == nil && c > 0 {
		p.Close, p.Valid = c, true
	}
	return p, true
}

type historyResponse struct {
	Data *historyData `json:"data"`
}

type historyData struct {
	Code   string   `json:"code"`
	Name   string   `json:"name"`
	Klines []string `json:"klines"`
}
