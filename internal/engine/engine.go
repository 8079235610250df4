// Package engine runs the batch pass: fetch metrics per site, apply the
// detectors, and dispatch deduplicated alerts.
package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"strings"

	"go.uber.org/zap"

	"github.com/siteops/metrics-sentinel/internal/analyze"
	"github.com/siteops/metrics-sentinel/internal/config"
	"github.com/siteops/metrics-sentinel/internal/dedup"
	"github.com/siteops/metrics-sentinel/internal/domain"
	"github.com/siteops/metrics-sentinel/internal/metrics"
	"github.com/siteops/metrics-sentinel/internal/notify"
	"github.com/siteops/metrics-sentinel/internal/terminus"
)

// minRecords is the shortest history the detectors are invoked on. Anything
// shorter cannot produce a meaningful baseline.
const minRecords = 5

// Engine evaluates every monitored site once per invocation. All
// collaborators are injected; the engine holds no ambient state.
type Engine struct {
	cfg      *config.Config
	lister   terminus.SiteLister
	fetcher  terminus.MetricsFetcher
	notifier notify.Notifier
	store    dedup.Store
	log      *zap.Logger

	traffic *analyze.TrafficDetector
	errors  *analyze.ErrorRateMonitor
}

// New wires an engine from its collaborators.
func New(cfg *config.Config, lister terminus.SiteLister, fetcher terminus.MetricsFetcher, notifier notify.Notifier, store dedup.Store, log *zap.Logger) *Engine {
	return &Engine{
		cfg:      cfg,
		lister:   lister,
		fetcher:  fetcher,
		notifier: notifier,
		store:    store,
		log:      log,
		traffic:  analyze.NewTrafficDetector(cfg.ThresholdPercent),
		errors:   analyze.NewErrorRateMonitor(cfg.HTTP4xxThreshold, cfg.HTTP5xxThreshold),
	}
}

// Run executes one batch pass at the given granularity. Per-site and
// per-detector failures are logged and skipped; a panic anywhere in the pass
// is recovered, logged with its stack, and reported through the notifier so
// operators learn of engine failure even when no per-site alert went out.
// Run itself never returns an error for per-site problems.
func (e *Engine) Run(ctx context.Context, g domain.Granularity) error {
	defer func() {
		if r := recover(); r != nil {
			detail := fmt.Sprintf("%v\n%s", r, debug.Stack())
			e.log.Error("unhandled failure in batch pass", zap.String("detail", detail))
			if err := e.notifier.Send(ctx, notify.FailureMessage(detail), nil); err != nil {
				e.log.Error("engine-failure alert could not be dispatched", zap.Error(err))
			}
		}
	}()

	e.log.Info("batch pass started", zap.String("granularity", string(g)))

	sites, err := e.lister.ListSites(ctx)
	if err != nil {
		e.log.Error("site listing failed", zap.Error(err))
		return nil
	}

	monitored := filterSites(sites, e.cfg.SitesToMonitor)
	if len(monitored) == 0 {
		e.log.Warn("no sites to monitor after filtering")
	}

	cache := analyze.NewCacheAnalyzer(e.cfg.CacheThresholdFor(g), e.cfg.CacheGoodMin, e.cfg.CacheTrendWindow)

	for _, site := range monitored {
		e.checkSite(ctx, site, g, cache)
	}

	e.log.Info("batch pass finished")
	return nil
}

// filterSites keeps the sites named in the monitor list, in lister order.
func filterSites(sites []domain.Site, names []string) []domain.Site {
	wanted := make(map[string]bool, len(names))
	for _, n := range names {
		wanted[n] = true
	}
	var out []domain.Site
	for _, s := range sites {
		if wanted[s.Name] {
			out = append(out, s)
		}
	}
	return out
}

func (e *Engine) checkSite(ctx context.Context, site domain.Site, g domain.Granularity, cache *analyze.CacheAnalyzer) {
	log := e.log.With(zap.String("site", site.Name))
	log.Info("checking site")

	raw, err := e.fetcher.FetchMetrics(ctx, site.Name, e.cfg.Environment, g)
	if err != nil || strings.TrimSpace(raw) == "" {
		log.Warn("metrics retrieval failed, skipping site", zap.Error(err))
		return
	}

	records, err := metrics.ParseTable(raw)
	if err != nil {
		log.Warn("could not parse metrics, skipping site", zap.Error(err))
		return
	}
	if len(records) < minRecords {
		log.Warn("not enough history, skipping site", zap.Int("records", len(records)))
		return
	}

	// The three detectors are independent; one firing or failing never
	// blocks the others.
	e.checkTraffic(ctx, site, records, g, log)
	e.checkCache(ctx, site, records, cache, log)
	e.checkErrorRate(ctx, site, records, log)
}

func (e *Engine) checkTraffic(ctx context.Context, site domain.Site, records []domain.MetricRecord, g domain.Granularity, log *zap.Logger) {
	anomaly := e.traffic.Check(site, e.cfg.Environment, records, g)
	if anomaly == nil {
		log.Info("no traffic anomaly")
		return
	}
	log.Info("traffic anomaly detected",
		zap.Float64("percent_increase", anomaly.PercentIncrease),
		zap.Int64("recent_visits", anomaly.RecentVisits),
		zap.Float64("baseline", anomaly.Baseline))

	blocks := notify.TrafficBlocks(anomaly, site.DashboardURL(e.cfg.DashboardBaseURL, e.cfg.Environment))
	e.dispatch(ctx, site, domain.AlertTrafficSpike, anomaly.Date, notify.TrafficMessage, blocks, log)
}

func (e *Engine) checkCache(ctx context.Context, site domain.Site, records []domain.MetricRecord, cache *analyze.CacheAnalyzer, log *zap.Logger) {
	alert := cache.Check(site, e.cfg.Environment, records)
	if alert == nil {
		return
	}
	log.Info("low cache efficiency detected",
		zap.Float64("average_ratio", alert.AverageRatio),
		zap.String("severity", string(alert.Severity)))

	date := records[len(records)-1].PeriodString()
	blocks := notify.CacheBlocks(alert, site.DashboardURL(e.cfg.DashboardBaseURL, e.cfg.Environment))
	e.dispatch(ctx, site, domain.AlertCacheEfficiency, date, notify.CacheMessage, blocks, log)
}

func (e *Engine) checkErrorRate(ctx context.Context, site domain.Site, records []domain.MetricRecord, log *zap.Logger) {
	alert := e.errors.Check(site, e.cfg.Environment, records)
	if alert == nil {
		return
	}
	log.Info("elevated error counts detected",
		zap.Int64("http_4xx", alert.Count4xx),
		zap.Int64("http_5xx", alert.Count5xx))

	blocks := notify.ErrorRateBlocks(alert, site.DashboardURL(e.cfg.DashboardBaseURL, e.cfg.Environment))
	e.dispatch(ctx, site, domain.AlertErrorRate, alert.Date, notify.ErrorRateMessage, blocks, log)
}

// dispatch gates an alert through the dedup store, sends it, and marks the
// dedup entry only after a successful send so a failed notification is
// retried on the next run. A dedup read failure fails open: a broken dedup
// log must not silence alerting, at worst it repeats a notification.
func (e *Engine) dispatch(ctx context.Context, site domain.Site, alertType domain.AlertType, date, message string, blocks []notify.Block, log *zap.Logger) {
	log = log.With(zap.String("alert_type", string(alertType)), zap.String("date", date))

	sent, err := e.store.AlreadyAlerted(site.Name, alertType, date)
	if err != nil {
		log.Error("dedup check failed, alerting anyway", zap.Error(err))
	} else if sent {
		log.Info("alert already sent, suppressing")
		return
	}

	if err := e.notifier.Send(ctx, message, blocks); err != nil {
		log.Error("alert dispatch failed", zap.Error(err))
		return
	}
	log.Info("alert dispatched")

	if err := e.store.MarkAlerted(site.Name, alertType, date); err != nil {
		log.Error("dedup mark failed", zap.Error(err))
	}
}
