package domain

import (
	"fmt"
	"time"
)

// Granularity selects the observation interval of a metrics collection.
type Granularity string

const (
	GranularityDay  Granularity = "day"
	GranularityWeek Granularity = "week"
)

// AlertType identifies one class of alert for dedup keying.
type AlertType string

const (
	AlertTrafficSpike    AlertType = "traffic_spike"
	AlertCacheEfficiency AlertType = "cache_efficiency"
	AlertErrorRate       AlertType = "error_rate"
	AlertEngineFailure   AlertType = "engine_failure"
)

// Site is one hosted site under management.
type Site struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// DashboardURL builds the deep link to the site's dashboard for an environment.
func (s Site) DashboardURL(baseURL, env string) string {
	return fmt.Sprintf("%s/sites/%s#%s/code", baseURL, s.ID, env)
}

// MetricRecord is one observation period for one site.
type MetricRecord struct {
	Period        time.Time `json:"period"`
	RawPeriod     string    `json:"raw_period"`
	Visits        int64     `json:"visits"`
	PagesServed   int64     `json:"pages_served"`
	CacheHits     int64     `json:"cache_hits"`
	CacheMisses   int64     `json:"cache_misses"`
	CacheHitRatio float64   `json:"cache_hit_ratio"`
	HTTP4xx       *int64    `json:"http_4xx,omitempty"`
	HTTP5xx       *int64    `json:"http_5xx,omitempty"`
}

// HasDate reports whether the record's period parsed as a calendar date.
func (r MetricRecord) HasDate() bool {
	return !r.Period.IsZero()
}

// PeriodString returns the period as YYYY-MM-DD, or the raw source string
// when date parsing failed upstream.
func (r MetricRecord) PeriodString() string {
	if !r.HasDate() {
		return r.RawPeriod
	}
	return r.Period.Format("2006-01-02")
}

// WeekdayName returns the English weekday name of the period, or "" without a date.
func (r MetricRecord) WeekdayName() string {
	if !r.HasDate() {
		return ""
	}
	return r.Period.Weekday().String()
}

// BaselineSample is one prior period that contributed to a baseline.
type BaselineSample struct {
	Period  string `json:"period"`
	Weekday string `json:"weekday"`
	Visits  int64  `json:"visits"`
}

// Baseline is the comparison value for the most recent record plus the
// history it was derived from.
type Baseline struct {
	Value   float64          `json:"value"`
	Samples []BaselineSample `json:"samples"`
}

// Valid reports whether the baseline can be used for anomaly math.
// A zero or negative baseline is never compared against (division by zero).
func (b Baseline) Valid() bool {
	return b.Value > 0
}

// TrafficAnomaly is a traffic-spike signal for one site.
type TrafficAnomaly struct {
	Site             Site             `json:"site"`
	Environment      string           `json:"environment"`
	Date             string           `json:"date"`
	Weekday          string           `json:"weekday"`
	RecentVisits     int64            `json:"recent_visits"`
	Baseline         float64          `json:"baseline"`
	PercentIncrease  float64          `json:"percent_increase"`
	ThresholdPercent float64          `json:"threshold_percent"`
	Samples          []BaselineSample `json:"samples"`
}

// CacheSeverity buckets how bad a site's cache efficiency is.
type CacheSeverity string

const (
	CacheSeverityGood     CacheSeverity = "good"
	CacheSeverityWarning  CacheSeverity = "warning"
	CacheSeverityCritical CacheSeverity = "critical"
)

// CacheTrendPoint is one period's cache-hit ratio for trend display.
type CacheTrendPoint struct {
	Period string  `json:"period"`
	Ratio  float64 `json:"ratio"`
}

// CacheAlert is a low-cache-efficiency signal for one site.
type CacheAlert struct {
	Site         Site              `json:"site"`
	Environment  string            `json:"environment"`
	AverageRatio float64           `json:"average_ratio"`
	Threshold    float64           `json:"threshold"`
	Severity     CacheSeverity     `json:"severity"`
	Trend        []CacheTrendPoint `json:"trend"`
	Worst        CacheTrendPoint   `json:"worst"`
	RecentMisses int64             `json:"recent_misses"`
}

// ErrorRateAlert is an elevated HTTP error-count signal for one site.
type ErrorRateAlert struct {
	Site         Site   `json:"site"`
	Environment  string `json:"environment"`
	Date         string `json:"date"`
	Count4xx     int64  `json:"count_4xx"`
	Count5xx     int64  `json:"count_5xx"`
	Breach4xx    bool   `json:"breach_4xx"`
	Breach5xx    bool   `json:"breach_5xx"`
	Threshold4xx int64  `json:"threshold_4xx"`
	Threshold5xx int64  `json:"threshold_5xx"`
}
