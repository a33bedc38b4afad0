package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/pipeline"
)

const reportsRoot = "reports"

// Reports stores analysis reports as JSON documents, one per pair and
// parameter set. Re-running the same analysis overwrites its document.
type Reports struct {
	store Storage
}

// NewReports wraps a Storage.
func NewReports(store Storage) *Reports {
	return &Reports{store: store}
}

// PairPrefix is the key prefix shared by every report for a pair.
func PairPrefix(ticker1, ticker2 string) string {
	return strings.ToUpper(ticker1) + "_" + strings.ToUpper(ticker2)
}

// Key names the document for a report: T1_T2/<start>_<end>_w<window>_k<std>.json.
// Keys are relative to the reports directory of the store.
func Key(r pipeline.Report) string {
	std := strconv.FormatFloat(r.StdMultiplier, 'f', -1, 64)
	return fmt.Sprintf("%s/%s_%s_w%d_k%s.json",
		PairPrefix(r.Ticker1, r.Ticker2), r.Start, r.End, r.Window, std)
}

// Save writes the report and returns its key.
func (a *Reports) Save(ctx context.Context, r pipeline.Report) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}
	key := Key(r)
	if err := a.store.Write(ctx, reportsRoot+"/"+key, data); err != nil {
		return "", fmt.Errorf("writing %s: %w", key, err)
	}
	return key, nil
}

// Load reads a report back by key.
func (a *Reports) Load(ctx context.Context, key string) (pipeline.Report, error) {
	var r pipeline.Report
	if err := checkKey(key); err != nil {
		return r, err
	}
	data, err := a.store.Read(ctx, reportsRoot+"/"+key)
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("decoding %s: %w", key, err)
	}
	return r, nil
}

// Has reports whether a report exists under key.
func (a *Reports) Has(ctx context.Context, key string) (bool, error) {
	if err := checkKey(key); err != nil {
		return false, err
	}
	return a.store.Exists(ctx, reportsRoot+"/"+key)
}

// List returns the report keys for a pair, or every key when both tickers
// are empty.
func (a *Reports) List(ctx context.Context, ticker1, ticker2 string) ([]string, error) {
	prefix := reportsRoot + "/"
	switch {
	case ticker1 == "" && ticker2 == "":
	case ticker1 == "" || ticker2 == "":
		return nil, core.Errorf(core.ErrInvalidParameter, "both tickers are required to filter reports")
	default:
		for _, t := range []string{ticker1, ticker2} {
			if !validTicker.MatchString(t) {
				return nil, core.Errorf(core.ErrInvalidParameter, "invalid ticker %q", t)
			}
		}
		prefix = reportsRoot + "/" + PairPrefix(ticker1, ticker2) + "/"
	}
	paths, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(paths))
	for _, p := range paths {
		keys = append(keys, strings.TrimPrefix(p, reportsRoot+"/"))
	}
	return keys, nil
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") || strings.Contains(key, "..") {
		return core.Errorf(core.ErrInvalidParameter, "invalid report key %q", key)
	}
	return nil
}

// validTicker matches the symbols the collectors accept, so no path
// separator or dot-dot reaches the store.
var validTicker = regexp.MustCompile(`^\^?[A-Za-z0-9-]{1,10}(\.[A-Za-z]{1,4})?$`)
