package notify

import (
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/siteops/metrics-sentinel/internal/domain"
)

// Message titles for the plain-text fallback of each alert class.
const (
	TrafficMessage       = "Anomalous Traffic Detected!"
	CacheMessage         = "Low Cache Efficiency Detected!"
	ErrorRateMessage     = "Elevated HTTP Errors Detected!"
	EngineFailureMessage = "Metrics Monitoring Engine Error!"
)

// num renders integers with thousands separators, matching the dashboards
// operators read alongside these alerts.
var num = message.NewPrinter(language.English)

// TrafficBlocks renders a traffic-spike anomaly as a Block Kit block list.
func TrafficBlocks(a *domain.TrafficAnomaly, dashboardURL string) []Block {
	contextLines := make([]string, 0, len(a.Samples))
	for _, s := range a.Samples {
		contextLines = append(contextLines, num.Sprintf("%s (%s): %d visits", s.Period, s.Weekday, s.Visits))
	}

	return []Block{
		{Type: "header", Text: ptr(plainText("🚨 " + TrafficMessage))},
		{Type: "section", Fields: []TextObject{
			mrkdwn(fmt.Sprintf("*Site:*\n%s (%s)", a.Site.Name, a.Environment)),
			mrkdwn(fmt.Sprintf("*Date:*\n%s (%s)", a.Date, a.Weekday)),
			mrkdwn(num.Sprintf("*Recent Visits:*\n%d", a.RecentVisits)),
			mrkdwn(num.Sprintf("*Average:*\n%.2f", a.Baseline)),
			mrkdwn(fmt.Sprintf("*Increase:*\n%.1f%%", a.PercentIncrease)),
			mrkdwn(fmt.Sprintf("*Threshold:*\n%.0f%%", a.ThresholdPercent)),
		}},
		{Type: "section", Text: ptr(mrkdwn("*Previous periods:*"))},
		{Type: "context", Elements: []TextObject{
			mrkdwn(strings.Join(contextLines, "\n")),
		}},
		dashboardLink(dashboardURL),
	}
}

// CacheBlocks renders a low-cache-efficiency alert as a Block Kit block list.
func CacheBlocks(a *domain.CacheAlert, dashboardURL string) []Block {
	trendLines := make([]string, 0, len(a.Trend))
	for _, p := range a.Trend {
		trendLines = append(trendLines, fmt.Sprintf("%s: %.0f%%", p.Period, p.Ratio))
	}
	worst := fmt.Sprintf("%.0f%% (%s)", a.Worst.Ratio, a.Worst.Period)
	impact := num.Sprintf("%d extra origin requests (last period)", a.RecentMisses)

	return []Block{
		{Type: "header", Text: ptr(plainText(severityIndicator(a.Severity) + " " + CacheMessage))},
		{Type: "section", Fields: []TextObject{
			mrkdwn(fmt.Sprintf("*Site:*\n%s (%s)", a.Site.Name, a.Environment)),
			mrkdwn(fmt.Sprintf("*Average Cache Hit Ratio:*\n%.2f%%", a.AverageRatio)),
			mrkdwn(fmt.Sprintf("*Threshold:*\n%.0f%%", a.Threshold)),
			mrkdwn(fmt.Sprintf("*Origin Requests:*\n%s", impact)),
		}},
		{Type: "section", Text: ptr(mrkdwn("*Recent Cache Hit Ratios:*\n" + strings.Join(trendLines, "\n")))},
		{Type: "section", Text: ptr(mrkdwn("*Lowest Ratio in Recent Periods:* " + worst))},
		{Type: "section", Text: ptr(mrkdwn(cacheAdvice))},
		dashboardLink(dashboardURL),
	}
}

// ErrorRateBlocks renders an elevated-error-count alert as a Block Kit block list.
func ErrorRateBlocks(a *domain.ErrorRateAlert, dashboardURL string) []Block {
	return []Block{
		{Type: "header", Text: ptr(plainText("⚠️ " + ErrorRateMessage))},
		{Type: "section", Fields: []TextObject{
			mrkdwn(fmt.Sprintf("*Site:*\n%s (%s)", a.Site.Name, a.Environment)),
			mrkdwn(fmt.Sprintf("*Date:*\n%s", a.Date)),
			mrkdwn(num.Sprintf("*HTTP 4xx:*\n%d%s", a.Count4xx, breachTag(a.Breach4xx))),
			mrkdwn(num.Sprintf("*HTTP 5xx:*\n%d%s", a.Count5xx, breachTag(a.Breach5xx))),
			mrkdwn(num.Sprintf("*4xx Threshold:*\n%d", a.Threshold4xx)),
			mrkdwn(num.Sprintf("*5xx Threshold:*\n%d", a.Threshold5xx)),
		}},
		dashboardLink(dashboardURL),
	}
}

// FailureMessage formats the single plain-text alert sent when the whole
// batch pass dies unexpectedly.
func FailureMessage(detail string) string {
	return fmt.Sprintf(":x: *%s*\n```\n%s\n```", EngineFailureMessage, detail)
}

func severityIndicator(s domain.CacheSeverity) string {
	switch s {
	case domain.CacheSeverityGood:
		return "🟢"
	case domain.CacheSeverityWarning:
		return "🟡"
	default:
		return "🔴"
	}
}

func breachTag(breached bool) string {
	if breached {
		return " (over threshold)"
	}
	return ""
}

func dashboardLink(url string) Block {
	return Block{Type: "section", Text: ptr(mrkdwn(fmt.Sprintf("<%s|View in Dashboard>", url)))}
}

func ptr(t TextObject) *TextObject { return &t }

const cacheAdvice = "*How to improve caching efficiency:*\n" +
	"• Ensure static assets (images, CSS, JS) are cacheable and have long cache lifetimes.\n" +
	"• Review HTTP headers (`Cache-Control`, `Expires`).\n" +
	"• Avoid unnecessary cache bypass for dynamic pages.\n" +
	"• Avoid uncacheable cookies or query parameters.\n" +
	"• Audit for personalized content and use `Vary` headers if needed."
