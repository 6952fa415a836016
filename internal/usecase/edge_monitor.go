package usecase

import (
	"context"
	"math"
	"sync"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
	domsvc "Epoch/internal/domain/service"
	applogger "Epoch/pkg/logger"
)

// EdgeConfig carries the edge monitor tunables.
type EdgeConfig struct {
	Window         int
	MinTrades      int
	BaselineRate   float64
	DriftStdErrors float64
	Interval       time.Duration
}

// EdgeMonitor recomputes rolling win rates per ticker and tier from the
// warehouse outcomes and flags drift below the historical baseline.
type EdgeMonitor struct {
	zones   drepo.ZoneStore
	metrics drepo.Metrics
	l       *applogger.Logger
	cfg     EdgeConfig
	tickers []string

	mu    sync.RWMutex
	stats map[string][]models.EdgeStat // keyed by ticker
}

func NewEdgeMonitor(zones drepo.ZoneStore, metrics drepo.Metrics, l *applogger.Logger, cfg EdgeConfig, tickers []string) *EdgeMonitor {
	if cfg.Window <= 0 {
		cfg.Window = 50
	}
	if cfg.MinTrades <= 0 {
		cfg.MinTrades = 20
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &EdgeMonitor{
		zones:   zones,
		metrics: metrics,
		l:       l,
		cfg:     cfg,
		tickers: tickers,
		stats:   make(map[string][]models.EdgeStat),
	}
}

// Validate computes fresh edge statistics for one ticker across all
// tiers. Tiers with no terminal outcomes are omitted.
func (m *EdgeMonitor) Validate(ctx context.Context, ticker string, window int) ([]models.EdgeStat, error) {
	if window <= 0 {
		window = m.cfg.Window
	}
	now := time.Now().UTC()
	var out []models.EdgeStat
	for _, tier := range []models.Tier{models.TierT1, models.TierT2, models.TierT3} {
		outcomes, err := m.zones.RecentOutcomes(ctx, ticker, tier, window)
		if err != nil {
			return nil, err
		}

		var trades, wins int
		var rSum float64
		for _, o := range outcomes {
			if o.State != models.OutcomeWin && o.State != models.OutcomeLoss {
				continue
			}
			trades++
			rSum += o.RMultiple
			if o.State == models.OutcomeWin {
				wins++
			}
		}
		if trades == 0 {
			continue
		}

		stat := models.EdgeStat{
			Ticker:       ticker,
			Tier:         tier,
			Window:       window,
			Trades:       trades,
			Wins:         wins,
			WinRate:      float64(wins) / float64(trades),
			Expectancy:   rSum / float64(trades),
			BaselineRate: m.cfg.BaselineRate,
			ComputedAt:   now,
		}
		// drift only asserted with a meaningful sample; the margin is a
		// normal-approximation standard error of the baseline rate
		if trades >= m.cfg.MinTrades {
			se := math.Sqrt(m.cfg.BaselineRate * (1 - m.cfg.BaselineRate) / float64(trades))
			stat.Drift = stat.WinRate < m.cfg.BaselineRate-m.cfg.DriftStdErrors*se
		}
		out = append(out, stat)
	}
	return out, nil
}

// RunOnce refreshes the cached stats for every configured ticker.
func (m *EdgeMonitor) RunOnce(ctx context.Context) {
	for _, ticker := range m.tickers {
		stats, err := m.Validate(ctx, ticker, m.cfg.Window)
		if err != nil {
			m.metrics.RecordError("edge_validate")
			m.l.Error("edge validation failed",
				applogger.String("ticker", ticker),
				applogger.Error(err),
			)
			continue
		}
		for _, s := range stats {
			if s.Drift {
				m.l.Warn("edge drift detected",
					applogger.String("ticker", s.Ticker),
					applogger.String("tier", string(s.Tier)),
					applogger.Any("win_rate", s.WinRate),
					applogger.Any("baseline", s.BaselineRate),
					applogger.Int("trades", s.Trades),
				)
			}
		}
		m.mu.Lock()
		m.stats[ticker] = stats
		m.mu.Unlock()
	}
}

// Start refreshes on the configured interval until ctx is done.
func (m *EdgeMonitor) Start(ctx context.Context) {
	go func() {
		m.RunOnce(ctx)
		t := time.NewTicker(m.cfg.Interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.RunOnce(ctx)
			}
		}
	}()
}

// CachedStats returns the last computed stats for ticker, which may be
// empty before the first refresh.
func (m *EdgeMonitor) CachedStats(ticker string) []models.EdgeStat {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats[ticker]
}

var _ domsvc.EdgeValidator = (*EdgeMonitor)(nil)
