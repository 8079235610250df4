// Package config loads engine configuration from a YAML file with
// environment-variable overrides.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/siteops/metrics-sentinel/internal/analyze"
	"github.com/siteops/metrics-sentinel/internal/domain"
)

// Config is the full engine configuration. It is passed explicitly into the
// engine at construction; nothing here lives in package-level globals.
type Config struct {
	SitesToMonitor   []string `mapstructure:"sites_to_monitor"`
	ThresholdPercent float64  `mapstructure:"threshold_percent"`
	Environment      string   `mapstructure:"environment"`

	SlackWebhookURL  string `mapstructure:"slack_webhook_url"`
	DashboardBaseURL string `mapstructure:"dashboard_base_url"`

	// DedupDSN selects the Postgres dedup store when set; DedupPath is the
	// JSON document used otherwise.
	DedupPath string `mapstructure:"dedup_path"`
	DedupDSN  string `mapstructure:"dedup_dsn"`

	// CacheAlertThreshold of 0 means "use the per-granularity default".
	CacheAlertThreshold float64 `mapstructure:"cache_alert_threshold"`
	CacheGoodMin        float64 `mapstructure:"cache_good_min"`
	CacheTrendWindow    int     `mapstructure:"cache_trend_window"`

	HTTP4xxThreshold int64 `mapstructure:"http_4xx_threshold"`
	HTTP5xxThreshold int64 `mapstructure:"http_5xx_threshold"`

	TerminusCommand string `mapstructure:"terminus_command"`
	LogLevel        string `mapstructure:"log_level"`
}

// Load reads configuration from the given file path, or from sentinel.yaml
// in the working directory / /etc/metrics-sentinel when path is empty.
// SENTINEL_* environment variables override file values.
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("sentinel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/metrics-sentinel/")
	}

	// Defaults
	v.SetDefault("threshold_percent", analyze.DefaultThresholdPercent)
	v.SetDefault("environment", "live")
	v.SetDefault("dedup_path", "alert-log.json")
	v.SetDefault("cache_good_min", analyze.DefaultCacheGoodMin)
	v.SetDefault("cache_trend_window", analyze.DefaultTrendWindow)
	v.SetDefault("http_4xx_threshold", analyze.DefaultHTTP4xxThreshold)
	v.SetDefault("http_5xx_threshold", analyze.DefaultHTTP5xxThreshold)
	v.SetDefault("log_level", "info")

	v.SetEnvPrefix("SENTINEL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
		// No config file: defaults and env vars only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// CacheThresholdFor resolves the cache alert threshold for a granularity,
// applying the per-granularity default when none is configured.
func (c *Config) CacheThresholdFor(g domain.Granularity) float64 {
	if c.CacheAlertThreshold > 0 {
		return c.CacheAlertThreshold
	}
	if g == domain.GranularityDay {
		return analyze.DefaultCacheThresholdDay
	}
	return analyze.DefaultCacheThresholdWeek
}
