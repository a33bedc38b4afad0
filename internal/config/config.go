package config

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/newthinker/pairscope/internal/backtest"
	"github.com/newthinker/pairscope/internal/core"
	"github.com/newthinker/pairscope/internal/correlation"
	"github.com/newthinker/pairscope/internal/pipeline"
	"github.com/newthinker/pairscope/internal/series"
	"github.com/newthinker/pairscope/internal/spread"
	"github.com/newthinker/pairscope/internal/stattest"
	"github.com/newthinker/pairscope/internal/storage/archive"
	"github.com/newthinker/pairscope/internal/strategy"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Collector CollectorConfig `mapstructure:"collector"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Analysis  AnalysisConfig  `mapstructure:"analysis"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CollectorConfig selects and configures the market-data providers.
type CollectorConfig struct {
	// Default serves every symbol without a routed exchange suffix.
	Default      string        `mapstructure:"default"`
	YahooURL     string        `mapstructure:"yahoo_url"`
	EastmoneyURL string        `mapstructure:"eastmoney_url"`
	Timeout      time.Duration `mapstructure:"timeout"`
}

// CacheConfig holds the Redis price cache settings.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// AnalysisConfig holds request defaults and analysis conventions.
type AnalysisConfig struct {
	MinSamples    int           `mapstructure:"min_samples"`
	StdMultiplier float64       `mapstructure:"std_multiplier"`
	Window        int           `mapstructure:"window"`
	SpreadScale   float64       `mapstructure:"spread_scale"`
	BandBasis     string        `mapstructure:"band_basis"`
	FillPolicy    string        `mapstructure:"fill_policy"`
	Compounding   string        `mapstructure:"compounding"`
	Accounting    string        `mapstructure:"accounting"`
	DynamicEntry  string        `mapstructure:"dynamic_entry"`
	ADFLagRule    string        `mapstructure:"adf_lag_rule"`
	ADFMaxLag     int           `mapstructure:"adf_max_lag"`
	Significance  float64       `mapstructure:"significance"`
	Timeout       time.Duration `mapstructure:"timeout"`
	DefaultStart  string        `mapstructure:"default_start"`
	Universe      []string      `mapstructure:"universe"`
}

// ArchiveConfig controls where completed reports are stored.
type ArchiveConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Backend   string `mapstructure:"backend"` // local or s3
	Path      string `mapstructure:"path"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	Region    string `mapstructure:"region"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Prefix    string `mapstructure:"prefix"`
}

// MetricsConfig holds metrics configuration.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load reads configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v, Defaults())

	// Support environment variable overrides
	v.SetEnvPrefix("PAIRSCOPE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Expand environment variables in string values
	for _, key := range v.AllKeys() {
		val := v.GetString(key)
		if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
			envKey := strings.TrimSuffix(strings.TrimPrefix(val, "${"), "}")
			v.Set(key, os.Getenv(envKey))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)

	v.SetDefault("collector.default", d.Collector.Default)
	v.SetDefault("collector.yahoo_url", d.Collector.YahooURL)
	v.SetDefault("collector.eastmoney_url", d.Collector.EastmoneyURL)
	v.SetDefault("collector.timeout", d.Collector.Timeout)

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.addr", d.Cache.Addr)
	v.SetDefault("cache.db", d.Cache.DB)
	v.SetDefault("cache.ttl", d.Cache.TTL)

	a := d.Analysis
	v.SetDefault("analysis.min_samples", a.MinSamples)
	v.SetDefault("analysis.std_multiplier", a.StdMultiplier)
	v.SetDefault("analysis.window", a.Window)
	v.SetDefault("analysis.spread_scale", a.SpreadScale)
	v.SetDefault("analysis.band_basis", a.BandBasis)
	v.SetDefault("analysis.fill_policy", a.FillPolicy)
	v.SetDefault("analysis.compounding", a.Compounding)
	v.SetDefault("analysis.accounting", a.Accounting)
	v.SetDefault("analysis.dynamic_entry", a.DynamicEntry)
	v.SetDefault("analysis.adf_lag_rule", a.ADFLagRule)
	v.SetDefault("analysis.adf_max_lag", a.ADFMaxLag)
	v.SetDefault("analysis.significance", a.Significance)
	v.SetDefault("analysis.timeout", a.Timeout)
	v.SetDefault("analysis.default_start", a.DefaultStart)
	v.SetDefault("analysis.universe", a.Universe)

	v.SetDefault("archive.enabled", d.Archive.Enabled)
	v.SetDefault("archive.backend", d.Archive.Backend)
	v.SetDefault("archive.path", d.Archive.Path)
	v.SetDefault("archive.region", d.Archive.Region)
	v.SetDefault("archive.prefix", d.Archive.Prefix)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.path", d.Metrics.Path)
}

// DefaultUniverse is the large-cap universe correlated when a request names
// no tickers.
func DefaultUniverse() []string {
	return []string{
		"AAPL", "MSFT", "AMZN", "NVDA", "GOOGL", "META", "TSLA", "BRK-B",
		"AVGO", "UNH", "JPM", "LLY", "V", "XOM", "JNJ", "HD",
		"MA", "PG", "COST", "ABBV", "MRK", "ADBE", "CVX", "CRM",
	}
}

// Defaults returns a config with sensible defaults
func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
		},
		Collector: CollectorConfig{
			Default: "yahoo",
			Timeout: 10 * time.Second,
		},
		Cache: CacheConfig{
			Enabled: false,
			Addr:    "localhost:6379",
			TTL:     6 * time.Hour,
		},
		Analysis: AnalysisConfig{
			MinSamples:    series.DefaultMinSamples,
			StdMultiplier: 1.75,
			Window:        20,
			SpreadScale:   1.0,
			BandBasis:     string(spread.BasisSpread),
			FillPolicy:    string(series.FillDrop),
			Compounding:   string(backtest.CompoundSimple),
			Accounting:    string(backtest.AccountLegs),
			DynamicEntry:  string(strategy.Live),
			ADFLagRule:    string(stattest.LagAIC),
			Significance:  0.05,
			Timeout:       30 * time.Second,
			DefaultStart:  "2022-01-08",
			Universe:      DefaultUniverse(),
		},
		Archive: ArchiveConfig{
			Enabled: false,
			Backend: "local",
			Path:    "./data/archive",
			Region:  "us-east-1",
			Prefix:  "pairscope",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("port must be between 1 and 65535, got %d", c.Server.Port))
	}

	switch c.Collector.Default {
	case "yahoo", "eastmoney":
	default:
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("collector.default must be yahoo or eastmoney, got %q", c.Collector.Default))
	}

	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			return core.WrapError(core.ErrConfigMissing,
				fmt.Errorf("cache.addr required when cache is enabled"))
		}
		if c.Cache.TTL <= 0 {
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("cache.ttl must be positive, got %s", c.Cache.TTL))
		}
	}

	if c.Archive.Enabled {
		switch c.Archive.Backend {
		case "local":
			if c.Archive.Path == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive.path required for the local backend"))
			}
		case "s3":
			if c.Archive.Bucket == "" {
				return core.WrapError(core.ErrConfigMissing,
					fmt.Errorf("archive.bucket required for the s3 backend"))
			}
		default:
			return core.WrapError(core.ErrConfigInvalid,
				fmt.Errorf("archive.backend must be local or s3, got %q", c.Archive.Backend))
		}
	}

	a := c.Analysis
	if a.Window < 2 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("analysis.window must be >= 2, got %d", a.Window))
	}
	if !(a.StdMultiplier > 0) || math.IsInf(a.StdMultiplier, 0) {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("analysis.std_multiplier must be positive, got %f", a.StdMultiplier))
	}
	if a.Significance <= 0 || a.Significance >= 1 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("analysis.significance must be between 0 and 1, got %f", a.Significance))
	}
	if a.ADFMaxLag < 0 {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("analysis.adf_max_lag cannot be negative, got %d", a.ADFMaxLag))
	}
	if len(a.Universe) > correlation.MaxTickers {
		return core.WrapError(core.ErrConfigInvalid,
			fmt.Errorf("analysis.universe holds at most %d tickers, got %d", correlation.MaxTickers, len(a.Universe)))
	}
	if _, err := a.Start(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}
	if _, err := a.PipelineConfig(); err != nil {
		return core.WrapError(core.ErrConfigInvalid, err)
	}

	return nil
}

// StorageConfig converts the archive section for archive.New.
func (a ArchiveConfig) StorageConfig() archive.Config {
	return archive.Config{
		Backend: a.Backend,
		Path:    a.Path,
		S3: archive.S3Config{
			Bucket:    a.Bucket,
			Endpoint:  a.Endpoint,
			Region:    a.Region,
			AccessKey: a.AccessKey,
			SecretKey: a.SecretKey,
			Prefix:    a.Prefix,
		},
	}
}

// Start parses DefaultStart.
func (a AnalysisConfig) Start() (time.Time, error) {
	t, err := time.Parse(time.DateOnly, a.DefaultStart)
	if err != nil {
		return time.Time{}, fmt.Errorf("analysis.default_start: %w", err)
	}
	return t, nil
}

// PipelineConfig converts the analysis section into the orchestrator's
// explicit configuration.
func (a AnalysisConfig) PipelineConfig() (pipeline.Config, error) {
	cfg := pipeline.Config{
		MinSamples:   a.MinSamples,
		SpreadScale:  a.SpreadScale,
		Significance: a.Significance,
		ADF:          stattest.Options{MaxLag: a.ADFMaxLag},
	}
	var err error
	if cfg.Basis, err = spread.ParseBasis(a.BandBasis); err != nil {
		return cfg, err
	}
	if cfg.Fill, err = series.ParseFillPolicy(a.FillPolicy); err != nil {
		return cfg, err
	}
	if cfg.Compounding, err = backtest.ParseCompounding(a.Compounding); err != nil {
		return cfg, err
	}
	if cfg.Accounting, err = backtest.ParseAccounting(a.Accounting); err != nil {
		return cfg, err
	}
	if cfg.DynamicEntry, err = strategy.ParseBandSource(a.DynamicEntry); err != nil {
		return cfg, err
	}
	if cfg.ADF.Rule, err = stattest.ParseLagRule(a.ADFLagRule); err != nil {
		return cfg, err
	}
	return cfg, nil
}
