// Command sentinel runs one batch pass of the site metrics monitor. It is
// intended to be invoked from cron; the process always exits 0 once startup
// succeeds, with failures observable through logs and dispatched alerts.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/siteops/metrics-sentinel/internal/config"
	"github.com/siteops/metrics-sentinel/internal/dedup"
	"github.com/siteops/metrics-sentinel/internal/domain"
	"github.com/siteops/metrics-sentinel/internal/engine"
	"github.com/siteops/metrics-sentinel/internal/notify"
	"github.com/siteops/metrics-sentinel/internal/terminus"
)

func main() {
	day := flag.Bool("day", false, "use daily metrics instead of weekly")
	configPath := flag.String("config", "", "path to config file (default: sentinel.yaml)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	granularity := domain.GranularityWeek
	if *day {
		granularity = domain.GranularityDay
	}

	// Collaborator availability is checked before any site processing:
	// a missing CLI or webhook is a startup failure, not a silent batch.
	command, err := terminus.ResolveCommand(cfg.TerminusCommand)
	if err != nil {
		log.Fatal("terminus command unavailable", zap.Error(err))
	}
	client := terminus.NewClient(command)

	notifier, err := notify.NewSlackNotifier(cfg.SlackWebhookURL)
	if err != nil {
		log.Fatal("slack webhook not usable", zap.Error(err))
	}

	var store dedup.Store
	if cfg.DedupDSN != "" {
		pg, err := dedup.NewPostgresStore(cfg.DedupDSN)
		if err != nil {
			log.Fatal("connect dedup store", zap.Error(err))
		}
		defer pg.Close()
		store = pg
		log.Info("using postgres dedup store")
	} else {
		store = dedup.NewFileStore(cfg.DedupPath)
		log.Info("using file dedup store", zap.String("path", cfg.DedupPath))
	}

	e := engine.New(cfg, client, client, notifier, store, log)
	if err := e.Run(context.Background(), granularity); err != nil {
		log.Error("batch pass failed", zap.Error(err))
	}
}

func newLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg.Build()
}
