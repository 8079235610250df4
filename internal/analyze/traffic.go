package analyze

import (
	"github.com/siteops/metrics-sentinel/internal/domain"
)

// DefaultThresholdPercent is the traffic-spike threshold used when the
// configuration omits one.
const DefaultThresholdPercent = 25

// TrafficDetector flags when the latest period's visits exceed the baseline
// by more than a percentage threshold.
type TrafficDetector struct {
	thresholdPercent float64
}

// NewTrafficDetector creates a detector with the given threshold percentage.
func NewTrafficDetector(thresholdPercent float64) *TrafficDetector {
	if thresholdPercent <= 0 {
		thresholdPercent = DefaultThresholdPercent
	}
	return &TrafficDetector{thresholdPercent: thresholdPercent}
}

// Check evaluates the latest record against its baseline. It returns nil when
// no baseline can be computed, when the baseline is not positive, or when the
// latest visits stay within threshold.
func (d *TrafficDetector) Check(site domain.Site, env string, records []domain.MetricRecord, g domain.Granularity) *domain.TrafficAnomaly {
	baseline, err := ComputeBaseline(records, g)
	if err != nil || !baseline.Valid() {
		return nil
	}

	latest := records[len(records)-1]
	recent := float64(latest.Visits)
	if recent <= baseline.Value*(1+d.thresholdPercent/100) {
		return nil
	}

	return &domain.TrafficAnomaly{
		Site:             site,
		Environment:      env,
		Date:             latest.PeriodString(),
		Weekday:          latest.WeekdayName(),
		RecentVisits:     latest.Visits,
		Baseline:         baseline.Value,
		PercentIncrease:  (recent - baseline.Value) / baseline.Value * 100,
		ThresholdPercent: d.thresholdPercent,
		Samples:          baseline.Samples,
	}
}
