package analyze

import (
	"github.com/siteops/metrics-sentinel/internal/domain"
)

// Error-count defaults, applied to the most recent period's absolute counts.
const (
	DefaultHTTP4xxThreshold = 100
	DefaultHTTP5xxThreshold = 10
)

// ErrorRateMonitor flags elevated client/server error counts in the most
// recent period. Metrics feeds that omit the HTTP 4xx/5xx columns silently
// disable this check.
type ErrorRateMonitor struct {
	threshold4xx int64
	threshold5xx int64
}

// NewErrorRateMonitor creates a monitor with the given absolute thresholds.
func NewErrorRateMonitor(threshold4xx, threshold5xx int64) *ErrorRateMonitor {
	if threshold4xx <= 0 {
		threshold4xx = DefaultHTTP4xxThreshold
	}
	if threshold5xx <= 0 {
		threshold5xx = DefaultHTTP5xxThreshold
	}
	return &ErrorRateMonitor{threshold4xx: threshold4xx, threshold5xx: threshold5xx}
}

// Check returns an alert when the latest record's 4xx or 5xx count exceeds
// its threshold, nil when neither does or when the columns are absent.
func (m *ErrorRateMonitor) Check(site domain.Site, env string, records []domain.MetricRecord) *domain.ErrorRateAlert {
	if len(records) == 0 {
		return nil
	}
	latest := records[len(records)-1]
	if latest.HTTP4xx == nil && latest.HTTP5xx == nil {
		return nil
	}

	var count4xx, count5xx int64
	if latest.HTTP4xx != nil {
		count4xx = *latest.HTTP4xx
	}
	if latest.HTTP5xx != nil {
		count5xx = *latest.HTTP5xx
	}

	breach4xx := count4xx > m.threshold4xx
	breach5xx := count5xx > m.threshold5xx
	if !breach4xx && !breach5xx {
		return nil
	}

	return &domain.ErrorRateAlert{
		Site:         site,
		Environment:  env,
		Date:         latest.PeriodString(),
		Count4xx:     count4xx,
		Count5xx:     count5xx,
		Breach4xx:    breach4xx,
		Breach5xx:    breach5xx,
		Threshold4xx: m.threshold4xx,
		Threshold5xx: m.threshold5xx,
	}
}
