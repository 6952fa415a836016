package usecase

import (
	"context"
	"fmt"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
	"Epoch/internal/indicators"
	applogger "Epoch/pkg/logger"
)

const atrPeriod = 14

// SnapshotConfig carries the tunables of snapshot assembly.
type SnapshotConfig struct {
	HistoryDays int
	HVNBinWidth float64
	CacheTTL    time.Duration
}

// SnapshotBuilder assembles the per-ticker BarSnapshot and MarketStructure
// the zone engine consumes. Bars come from the REST feed through a
// read-through cache; fetched series are written through to the warehouse.
type SnapshotBuilder struct {
	data    drepo.MarketData
	store   drepo.BarStore
	cache   drepo.BarCache
	metrics drepo.Metrics
	cfg     SnapshotConfig
	l       *applogger.Logger
}

func NewSnapshotBuilder(data drepo.MarketData, store drepo.BarStore, cache drepo.BarCache, metrics drepo.Metrics, cfg SnapshotConfig, l *applogger.Logger) *SnapshotBuilder {
	if cfg.HistoryDays <= 0 {
		cfg.HistoryDays = 30
	}
	if cfg.HVNBinWidth <= 0 {
		cfg.HVNBinWidth = 0.25
	}
	return &SnapshotBuilder{data: data, store: store, cache: cache, metrics: metrics, cfg: cfg, l: l}
}

// tfWindow returns how far back to fetch for a timeframe, sized so the
// slowest consumer (ATR, swings, prior-period OHLC) has enough bars.
func tfWindow(tf drepo.Timeframe, historyDays int) time.Duration {
	day := 24 * time.Hour
	switch tf {
	case drepo.TF5m:
		return time.Duration(historyDays) * day
	case drepo.TF15m:
		return 7 * day
	case drepo.TF1h:
		return 15 * day
	case drepo.TF4h:
		return 30 * day
	case drepo.TF1d:
		return time.Duration(historyDays+atrPeriod*2) * day
	case drepo.TF1w:
		return 30 * day
	case drepo.TF1mo:
		return 95 * day
	default:
		return time.Duration(historyDays) * day
	}
}

// bucketFor truncates asOf to the cache bucket for a timeframe, so a new
// bar naturally invalidates the previous entry.
func bucketFor(tf drepo.Timeframe, asOf time.Time) time.Time {
	switch tf {
	case drepo.TF5m:
		return asOf.Truncate(5 * time.Minute)
	case drepo.TF15m:
		return asOf.Truncate(15 * time.Minute)
	case drepo.TF1h:
		return asOf.Truncate(time.Hour)
	case drepo.TF4h:
		return asOf.Truncate(4 * time.Hour)
	default:
		return asOf.Truncate(24 * time.Hour)
	}
}

func (b *SnapshotBuilder) fetch(ctx context.Context, ticker string, tf drepo.Timeframe, asOf time.Time) ([]models.Bar, error) {
	key := drepo.BarCacheKey{Ticker: ticker, TF: tf, Bucket: bucketFor(tf, asOf)}
	if b.cache != nil {
		if bars, ok := b.cache.Get(ctx, key); ok {
			return bars, nil
		}
	}

	start := time.Now()
	bars, err := b.data.FetchBars(ctx, ticker, tf, asOf.Add(-tfWindow(tf, b.cfg.HistoryDays)), asOf)
	if err != nil {
		b.metrics.RecordError("fetch_bars")
		return nil, err
	}
	b.metrics.RecordLatency("fetch_bars", time.Since(start).Seconds())

	if b.store != nil {
		// warehouse write-through is best effort; analysis proceeds on
		// the fetched series either way
		if err := b.store.StoreBars(ctx, tf, bars); err != nil {
			b.metrics.RecordError("store_bars")
			if b.l != nil {
				b.l.Warn("bar write-through failed",
					applogger.String("ticker", ticker),
					applogger.String("tf", string(tf)),
					applogger.Error(err),
				)
			}
		}
	}
	if b.cache != nil {
		b.cache.Put(ctx, key, bars, b.cfg.CacheTTL)
	}
	return bars, nil
}

// currentPrior returns the last and second-to-last periods as OHLC.
func currentPrior(bars []models.Bar) (cur, prior models.OHLC) {
	n := len(bars)
	if n >= 1 {
		cur = models.OHLC{Open: bars[n-1].Open, High: bars[n-1].High, Low: bars[n-1].Low, Close: bars[n-1].Close}
	}
	if n >= 2 {
		prior = models.OHLC{Open: bars[n-2].Open, High: bars[n-2].High, Low: bars[n-2].Low, Close: bars[n-2].Close}
	}
	return cur, prior
}

// overnightRange scans 15m bars for the most recent stretch outside the
// regular session (13:30-20:00 UTC) and returns its high and low. Zeroes
// mean no overnight bars were present.
func overnightRange(bars []models.Bar, asOf time.Time) (high, low float64) {
	cutoff := asOf.Add(-24 * time.Hour)
	for _, b := range bars {
		if b.Bucket.Before(cutoff) || b.Bucket.After(asOf) {
			continue
		}
		mins := b.Bucket.UTC().Hour()*60 + b.Bucket.UTC().Minute()
		if mins >= 13*60+30 && mins < 20*60 {
			continue
		}
		if high == 0 || b.High > high {
			high = b.High
		}
		if low == 0 || b.Low < low {
			low = b.Low
		}
	}
	return high, low
}

// Build assembles the snapshot and market structure for one ticker as of
// the given time.
func (b *SnapshotBuilder) Build(ctx context.Context, ticker string, asOf time.Time) (models.BarSnapshot, models.MarketStructure, error) {
	if ticker == "" {
		return models.BarSnapshot{}, models.MarketStructure{}, fmt.Errorf("ticker required")
	}

	bars5m, err := b.fetch(ctx, ticker, drepo.TF5m, asOf)
	if err != nil {
		return models.BarSnapshot{}, models.MarketStructure{}, fmt.Errorf("5m bars: %w", err)
	}
	bars15m, err := b.fetch(ctx, ticker, drepo.TF15m, asOf)
	if err != nil {
		return models.BarSnapshot{}, models.MarketStructure{}, fmt.Errorf("15m bars: %w", err)
	}
	bars1h, err := b.fetch(ctx, ticker, drepo.TF1h, asOf)
	if err != nil {
		return models.BarSnapshot{}, models.MarketStructure{}, fmt.Errorf("1h bars: %w", err)
	}
	bars4h, err := b.fetch(ctx, ticker, drepo.TF4h, asOf)
	if err != nil {
		return models.BarSnapshot{}, models.MarketStructure{}, fmt.Errorf("4h bars: %w", err)
	}
	bars1d, err := b.fetch(ctx, ticker, drepo.TF1d, asOf)
	if err != nil {
		return models.BarSnapshot{}, models.MarketStructure{}, fmt.Errorf("1d bars: %w", err)
	}
	bars1w, err := b.fetch(ctx, ticker, drepo.TF1w, asOf)
	if err != nil {
		return models.BarSnapshot{}, models.MarketStructure{}, fmt.Errorf("1w bars: %w", err)
	}
	bars1mo, err := b.fetch(ctx, ticker, drepo.TF1mo, asOf)
	if err != nil {
		return models.BarSnapshot{}, models.MarketStructure{}, fmt.Errorf("1mo bars: %w", err)
	}

	var price float64
	if len(bars5m) > 0 {
		price = bars5m[len(bars5m)-1].Close
	} else if len(bars1d) > 0 {
		price = bars1d[len(bars1d)-1].Close
	}

	snap := models.BarSnapshot{
		Ticker: ticker,
		Date:   asOf,
		Price:  price,
		M5ATR:  indicators.ATR(bars5m, atrPeriod),
		M15ATR: indicators.ATR(bars15m, atrPeriod),
		H1ATR:  indicators.ATR(bars1h, atrPeriod),
		D1ATR:  indicators.ATR(bars1d, atrPeriod),
	}

	snap.Daily, snap.PriorDaily = currentPrior(bars1d)
	snap.Weekly, snap.PriorWeekly = currentPrior(bars1w)
	snap.Monthly, snap.PriorMonthly = currentPrior(bars1mo)

	snap.DailyCam = indicators.CamarillaPivots(snap.PriorDaily)
	snap.WeeklyCam = indicators.CamarillaPivots(snap.PriorWeekly)
	snap.MonthlyCam = indicators.CamarillaPivots(snap.PriorMonthly)

	snap.OvernightHigh, snap.OvernightLow = overnightRange(bars15m, asOf)

	pocs := indicators.HVNProfile(bars5m, b.cfg.HVNBinWidth, len(snap.HVNPOCs))
	copy(snap.HVNPOCs[:], pocs)

	if b.data != nil && price > 0 {
		strikes, err := b.data.FetchOptionStrikes(ctx, ticker, price, len(snap.OptionStrikes))
		if err != nil {
			// strikes are one of many level sources; missing them only
			// thins the confluence
			b.metrics.RecordError("fetch_strikes")
			if b.l != nil {
				b.l.Warn("option strikes unavailable",
					applogger.String("ticker", ticker),
					applogger.Error(err),
				)
			}
		} else {
			copy(snap.OptionStrikes[:], strikes)
		}
	}

	var ms models.MarketStructure
	ms.DailyStrong, ms.DailyWeak = indicators.SwingLevels(bars1d, 2)
	ms.H4Strong, ms.H4Weak = indicators.SwingLevels(bars4h, 2)
	ms.H1Strong, ms.H1Weak = indicators.SwingLevels(bars1h, 2)
	ms.M15Strong, ms.M15Weak = indicators.SwingLevels(bars15m, 2)
	ms.Bias = indicators.StructureBias(price, ms.DailyStrong, ms.DailyWeak)

	return snap, ms, nil
}
