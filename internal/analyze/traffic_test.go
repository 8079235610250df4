package analyze

import (
	"testing"

	"github.com/siteops/metrics-sentinel/internal/domain"
)

var testSite = domain.Site{Name: "acme", ID: "site-uuid"}

func TestTrafficDetector_FiresAboveThreshold(t *testing.T) {
	// Same-weekday baseline = mean(1000, 1050, 980) is not used here: all
	// records are Mondays, so the 3 most recent matches are 1050, 980, 1100.
	records := weeklyRecords(1000, 1050, 980, 1100, 2000)
	d := NewTrafficDetector(25)

	anomaly := d.Check(testSite, "live", records, domain.GranularityWeek)
	if anomaly == nil {
		t.Fatal("expected anomaly signal")
	}

	// baseline = (1050 + 980 + 1100) / 3
	wantBaseline := (1050.0 + 980.0 + 1100.0) / 3
	if anomaly.Baseline != wantBaseline {
		t.Errorf("expected baseline %v, got %v", wantBaseline, anomaly.Baseline)
	}
	wantIncrease := (2000 - wantBaseline) / wantBaseline * 100
	if anomaly.PercentIncrease != wantIncrease {
		t.Errorf("expected increase %v, got %v", wantIncrease, anomaly.PercentIncrease)
	}
	if anomaly.ThresholdPercent != 25 {
		t.Errorf("expected threshold 25, got %v", anomaly.ThresholdPercent)
	}
	if anomaly.RecentVisits != 2000 {
		t.Errorf("expected recent 2000, got %d", anomaly.RecentVisits)
	}
	if anomaly.Weekday != "Monday" {
		t.Errorf("expected Monday, got %s", anomaly.Weekday)
	}
	if len(anomaly.Samples) != 3 {
		t.Errorf("expected 3 contributing samples, got %d", len(anomaly.Samples))
	}
}

func TestTrafficDetector_ExactThresholdBoundary(t *testing.T) {
	// baseline = mean(100, 100, 100) = 100; threshold 25% → cutoff 125.
	d := NewTrafficDetector(25)

	atBoundary := weeklyRecords(1, 100, 100, 100, 125)
	if got := d.Check(testSite, "live", atBoundary, domain.GranularityWeek); got != nil {
		t.Errorf("recent == cutoff must not fire, got %+v", got)
	}

	aboveBoundary := weeklyRecords(1, 100, 100, 100, 126)
	got := d.Check(testSite, "live", aboveBoundary, domain.GranularityWeek)
	if got == nil {
		t.Fatal("recent just above cutoff must fire")
	}
	if got.PercentIncrease != 26.0 {
		t.Errorf("expected exact 26%% increase, got %v", got.PercentIncrease)
	}
}

func TestTrafficDetector_ZeroBaselineNeverFires(t *testing.T) {
	// All-zero history yields baseline 0: no signal regardless of recent.
	records := weeklyRecords(0, 0, 0, 0, 1000000)
	d := NewTrafficDetector(25)

	if got := d.Check(testSite, "live", records, domain.GranularityWeek); got != nil {
		t.Errorf("zero baseline must suppress anomalies, got %+v", got)
	}
}

func TestTrafficDetector_TooFewRecords(t *testing.T) {
	d := NewTrafficDetector(25)
	if got := d.Check(testSite, "live", weeklyRecords(5000), domain.GranularityWeek); got != nil {
		t.Errorf("single record must not fire, got %+v", got)
	}
}

func TestNewTrafficDetector_DefaultThreshold(t *testing.T) {
	d := NewTrafficDetector(0)
	if d.thresholdPercent != DefaultThresholdPercent {
		t.Errorf("expected default threshold %d, got %v", DefaultThresholdPercent, d.thresholdPercent)
	}
}
