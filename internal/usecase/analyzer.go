package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
	"Epoch/internal/engine"
	applogger "Epoch/pkg/logger"
)

// Analyzer runs the zone engine across the configured tickers on a fixed
// cadence, persisting and publishing each analysis.
type Analyzer struct {
	builder *SnapshotBuilder
	eng     *engine.Engine
	zones   drepo.ZoneStore
	pub     drepo.Publisher
	metrics drepo.Metrics
	l       *applogger.Logger

	tickers     []string
	interval    time.Duration
	maxParallel int

	stopCh chan struct{}
	once   sync.Once
}

func NewAnalyzer(
	builder *SnapshotBuilder,
	eng *engine.Engine,
	zones drepo.ZoneStore,
	pub drepo.Publisher,
	metrics drepo.Metrics,
	l *applogger.Logger,
	tickers []string,
	interval time.Duration,
	maxParallel int,
) *Analyzer {
	if interval <= 0 {
		interval = 15 * time.Minute
	}
	if maxParallel <= 0 {
		maxParallel = 4
	}
	return &Analyzer{
		builder:     builder,
		eng:         eng,
		zones:       zones,
		pub:         pub,
		metrics:     metrics,
		l:           l,
		tickers:     tickers,
		interval:    interval,
		maxParallel: maxParallel,
		stopCh:      make(chan struct{}),
	}
}

// AnalyzeTicker runs one full pass for a single ticker: snapshot, engine,
// warehouse, bus.
func (a *Analyzer) AnalyzeTicker(ctx context.Context, ticker string, asOf time.Time) (models.ZoneAnalysis, error) {
	start := time.Now()

	snap, ms, err := a.builder.Build(ctx, ticker, asOf)
	if err != nil {
		a.metrics.RecordError("snapshot")
		return models.ZoneAnalysis{}, fmt.Errorf("snapshot %s: %w", ticker, err)
	}

	analysis, err := a.eng.Analyze(snap, ms)
	if err != nil {
		a.metrics.RecordError("engine")
		return models.ZoneAnalysis{}, fmt.Errorf("analyze %s: %w", ticker, err)
	}

	if a.zones != nil {
		if err := a.zones.StoreAnalysis(ctx, analysis); err != nil {
			a.metrics.RecordError("store_analysis")
			a.l.Error("analysis store failed",
				applogger.String("ticker", ticker),
				applogger.Error(err),
			)
		}
	}
	if a.pub != nil {
		if err := a.pub.PublishAnalysis(ctx, analysis); err != nil {
			a.metrics.RecordError("publish_analysis")
			a.l.Error("analysis publish failed",
				applogger.String("ticker", ticker),
				applogger.Error(err),
			)
		}
	}

	a.metrics.RecordAnalysis(ticker, len(analysis.Zones))
	a.metrics.RecordLastPrice(ticker, analysis.Price)
	a.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	a.l.Info("analysis complete",
		applogger.String("ticker", ticker),
		applogger.Int("zones", len(analysis.Zones)),
		applogger.Int("setups", len(analysis.Setups)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return analysis, nil
}

// RunOnce analyzes every configured ticker with bounded parallelism.
// Per-ticker failures are logged and skipped; the pass continues.
func (a *Analyzer) RunOnce(ctx context.Context) {
	asOf := time.Now().UTC()
	sem := make(chan struct{}, a.maxParallel)
	var wg sync.WaitGroup
	for _, ticker := range a.tickers {
		select {
		case <-ctx.Done():
			wg.Wait()
			return
		case sem <- struct{}{}:
		}
		wg.Add(1)
		go func(t string) {
			defer wg.Done()
			defer func() { <-sem }()
			if _, err := a.AnalyzeTicker(ctx, t, asOf); err != nil {
				a.l.Error("ticker analysis failed",
					applogger.String("ticker", t),
					applogger.Error(err),
				)
			}
		}(ticker)
	}
	wg.Wait()
}

// Start runs an immediate pass, then repeats on the configured interval
// until ctx is cancelled or Stop is called.
func (a *Analyzer) Start(ctx context.Context) {
	go func() {
		a.RunOnce(ctx)
		t := time.NewTicker(a.interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-a.stopCh:
				return
			case <-t.C:
				a.RunOnce(ctx)
			}
		}
	}()
}

func (a *Analyzer) Stop() {
	a.once.Do(func() { close(a.stopCh) })
}
