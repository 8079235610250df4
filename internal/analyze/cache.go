package analyze

import (
	"github.com/siteops/metrics-sentinel/internal/domain"
)

// Cache-efficiency defaults. The alert threshold differs by granularity
// because a weekly mean smooths over daily dips.
const (
	DefaultCacheThresholdDay  = 25
	DefaultCacheThresholdWeek = 50
	DefaultCacheGoodMin       = 80
	DefaultTrendWindow        = 5
)

// CacheAnalyzer flags sites whose mean cache-hit ratio has degraded below a
// threshold, with a short trend window for context.
type CacheAnalyzer struct {
	alertThreshold float64
	goodMin        float64
	trendWindow    int
}

// NewCacheAnalyzer creates an analyzer. alertThreshold is the mean ratio
// below which an alert fires; goodMin is the lower bound of the "good"
// severity bucket and is configurable independently of the trigger.
func NewCacheAnalyzer(alertThreshold, goodMin float64, trendWindow int) *CacheAnalyzer {
	if goodMin <= 0 {
		goodMin = DefaultCacheGoodMin
	}
	if trendWindow <= 0 {
		trendWindow = DefaultTrendWindow
	}
	return &CacheAnalyzer{alertThreshold: alertThreshold, goodMin: goodMin, trendWindow: trendWindow}
}

// Check computes the mean cache-hit ratio over all records and returns an
// alert when it falls below the threshold, or nil otherwise. The alert
// carries the trend window's per-period ratios, the worst period in that
// window (ties broken by first occurrence), and the latest period's miss
// count as an extra-origin-requests estimate.
func (a *CacheAnalyzer) Check(site domain.Site, env string, records []domain.MetricRecord) *domain.CacheAlert {
	if len(records) == 0 {
		return nil
	}

	var sum float64
	for _, r := range records {
		sum += r.CacheHitRatio
	}
	avg := sum / float64(len(records))
	if avg >= a.alertThreshold {
		return nil
	}

	start := len(records) - a.trendWindow
	if start < 0 {
		start = 0
	}
	window := records[start:]

	trend := make([]domain.CacheTrendPoint, 0, len(window))
	worst := domain.CacheTrendPoint{Period: window[0].PeriodString(), Ratio: window[0].CacheHitRatio}
	for _, r := range window {
		p := domain.CacheTrendPoint{Period: r.PeriodString(), Ratio: r.CacheHitRatio}
		trend = append(trend, p)
		if p.Ratio < worst.Ratio {
			worst = p
		}
	}

	return &domain.CacheAlert{
		Site:         site,
		Environment:  env,
		AverageRatio: avg,
		Threshold:    a.alertThreshold,
		Severity:     a.severity(avg),
		Trend:        trend,
		Worst:        worst,
		RecentMisses: records[len(records)-1].CacheMisses,
	}
}

func (a *CacheAnalyzer) severity(avg float64) domain.CacheSeverity {
	switch {
	case avg >= a.goodMin:
		return domain.CacheSeverityGood
	case avg >= a.alertThreshold:
		return domain.CacheSeverityWarning
	default:
		return domain.CacheSeverityCritical
	}
}
