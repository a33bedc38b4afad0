package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/newthinker/pairscope/internal/collector"
	"github.com/newthinker/pairscope/internal/core"
)

const (
	defaultBaseURL = "https://query1.finance.yahoo.com/v8/finance/chart"
)

// validSymbol matches stock symbols like AAPL, MSFT, 600519.SH, 0700.HK, BRK-B, ^GSPC
var validSymbol = regexp.MustCompile(`^\^?[A-Za-z0-9-]{1,10}(\.[A-Za-z]{1,4})?$`)

// validateSymbol checks if a symbol has valid format
func validateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Yahoo implements the Yahoo Finance chart collector
type Yahoo struct {
	client  *http.Client
	baseURL string
}

// New creates a new Yahoo collector
func New(cfg collector.Config) *Yahoo {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Yahoo{
		client:  &http.Client{Timeout: timeout},
		baseURL: base,
	}
}

func (y *Yahoo) Name() string {
	return "yahoo"
}

// toYahooSymbol converts internal symbol format to Yahoo format
func (y *Yahoo) toYahooSymbol(symbol string) string {
	// Shanghai stocks: 600519.SH -> 600519.SS
	if strings.HasSuffix(symbol, ".SH") {
		return strings.TrimSuffix(symbol, ".SH") + ".SS"
	}
	return symbol
}

// FetchHistory fetches daily dividend-adjusted closes, falling back to the
// raw close when the adjusted series is absent.
func (y *Yahoo) FetchHistory(ctx context.Context, symbol string, start, end time.Time) (core.PriceSeries, error) {
	if err := validateSymbol(symbol); err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrInvalidParameter, err)
	}

	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("events", "history")
	q.Set("includeAdjustedClose", "true")
	q.Set("period1", fmt.Sprint(core.Day(start).Unix()))
	// period2 is exclusive
	q.Set("period2", fmt.Sprint(core.Day(end).AddDate(0, 0, 1).Unix()))
	endpoint := fmt.Sprintf("%s/%s?%s", y.baseURL, url.PathEscape(y.toYahooSymbol(symbol)), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed, err)
	}
	req.Header.Set("User-Agent", "pairscope/1.0")

	resp, err := y.client.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return core.PriceSeries{}, core.WrapError(core.ErrCollectorTimeout, err)
		}
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("fetching history: %w", err))
	}
	defer resp.Body.Close()

	var result chartResponse
	decodeErr := json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode == http.StatusNotFound {
		return core.PriceSeries{}, core.Errorf(core.ErrSymbolNotFound, "yahoo: %s", symbol)
	}
	if resp.StatusCode != http.StatusOK {
		return core.PriceSeries{}, core.Errorf(core.ErrCollectorFailed, "unexpected status: %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return core.PriceSeries{}, core.WrapError(core.ErrCollectorFailed, fmt.Errorf("decoding response: %w", decodeErr))
	}

	if e := result.Chart.Error; e != nil {
		if strings.EqualFold(e.Code, "Not Found") {
			return core.PriceSeries{}, core.Errorf(core.ErrSymbolNotFound, "yahoo: %s", e.Description)
		}
		return core.PriceSeries{}, core.Errorf(core.ErrCollectorFailed, "yahoo error: %s", e.Description)
	}

	if len(result.Chart.Result) == 0 || len(result.Chart.Result[0].Timestamp) == 0 {
		return core.PriceSeries{}, core.Errorf(core.ErrSymbolNotFound, "no data for symbol: %s", symbol)
	}

	return toSeries(symbol, result.Chart.Result[0]), nil
}

func toSeries(symbol string, r chartResult) core.PriceSeries {
	var closes []*float64
	if len(r.Indicators.AdjClose) > 0 && len(r.Indicators.AdjClose[0].AdjClose) == len(r.Timestamp) {
		closes = r.Indicators.AdjClose[0].AdjClose
	} else if len(r.Indicators.Quote) > 0 {
		closes = r.Indicators.Quote[0].Close
	}

	loc := time.UTC
	if r.Meta.ExchangeTimezoneName != "" {
		if l, err := time.LoadLocation(r.Meta.ExchangeTimezoneName); err == nil {
			loc = l
		}
	}

	series := core.PriceSeries{Symbol: symbol, Points: make([]core.PricePoint, 0, len(r.Timestamp))}
	for i, ts := range r.Timestamp {
		// Trading day in the exchange's own calendar.
		date := core.Day(time.Unix(ts, 0).In(loc))
		p := core.PricePoint{Date: date}
		if i < len(closes) && closes[i] != nil && *closes[i] > 0 && !math.IsInf(*closes[i], 0) {
			p.Close, p.Valid = *closes[i], true
		}
		series.Points = append(series.Points, p)
	}
	return series
}

// Yahoo API response types
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta       chartMeta  `json:"meta"`
	Timestamp  []int64    `json:"timestamp"`
	Indicators indicators `json:"indicators"`
}

type chartMeta struct {
	Symbol               string `json:"symbol"`
	Currency             string `json:"currency"`
	ExchangeTimezoneName string `json:"exchangeTimezoneName"`
}

type indicators struct {
	Quote    []quoteIndicator `json:"quote"`
	AdjClose []adjClose       `json:"adjclose"`
}

type quoteIndicator struct {
	Close []*float64 `json:"close"`
}

type adjClose struct {
	AdjClose []*float64 `json:"adjclose"`
}
