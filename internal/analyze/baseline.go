// Package analyze computes baselines and applies the detection rules that
// decide whether a site's latest metrics period warrants an alert.
package analyze

import (
	"github.com/siteops/metrics-sentinel/internal/domain"
)

// Weekly collections compare against the same weekday in prior weeks; daily
// collections use a plain trailing window.
const (
	weekdayMatchesWanted = 3
	weekdayFallbackSpan  = 4
	trailingWindow       = 5
)

// ComputeBaseline derives the comparison baseline for the most recent record.
// The strategy is selected by granularity:
//
//	week → mean of the 3 most recent earlier records sharing the latest
//	       record's weekday, falling back to the 4 records immediately
//	       preceding the latest when fewer than 3 matches exist
//	day  → mean of the up-to-5 records immediately preceding the latest
//
// Gaps in the sequence degrade the baseline but never error; only a sequence
// too short to compare against does.
func ComputeBaseline(records []domain.MetricRecord, g domain.Granularity) (domain.Baseline, error) {
	n := len(records)
	if n < 2 {
		return domain.Baseline{}, domain.ErrInsufficientHistory
	}

	span := trailingWindow
	if g == domain.GranularityWeek {
		if matches := sameWeekdayMatches(records); len(matches) >= weekdayMatchesWanted {
			return baselineFrom(matches[len(matches)-weekdayMatchesWanted:]), nil
		}
		span = weekdayFallbackSpan
	}

	// Window over the records immediately preceding the latest.
	start := n - 1 - span
	if start < 0 {
		start = 0
	}
	return baselineFrom(records[start : n-1]), nil
}

// sameWeekdayMatches returns the earlier records sharing the latest record's
// day-of-week, in sequence order. Records without a parsed date never match.
func sameWeekdayMatches(records []domain.MetricRecord) []domain.MetricRecord {
	latest := records[len(records)-1]
	if !latest.HasDate() {
		return nil
	}
	weekday := latest.Period.Weekday()

	var matches []domain.MetricRecord
	for _, r := range records[:len(records)-1] {
		if r.HasDate() && r.Period.Weekday() == weekday {
			matches = append(matches, r)
		}
	}
	return matches
}

func baselineFrom(records []domain.MetricRecord) domain.Baseline {
	var sum int64
	samples := make([]domain.BaselineSample, 0, len(records))
	for _, r := range records {
		sum += r.Visits
		samples = append(samples, domain.BaselineSample{
			Period:  r.PeriodString(),
			Weekday: r.WeekdayName(),
			Visits:  r.Visits,
		})
	}
	if len(records) == 0 {
		return domain.Baseline{}
	}
	return domain.Baseline{
		Value:   float64(sum) / float64(len(records)),
		Samples: samples,
	}
}
