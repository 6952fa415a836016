package repository

import (
	"context"
	"time"

	"Epoch/internal/domain/models"
)

// MarketData fetches historical bars and options data over REST.
type MarketData interface {
	FetchBars(ctx context.Context, ticker string, tf Timeframe, from, to time.Time) ([]models.Bar, error)
	// FetchOptionStrikes returns up to limit strikes nearest the given
	// price, closest first.
	FetchOptionStrikes(ctx context.Context, ticker string, near float64, limit int) ([]float64, error)
}

// MarketStream delivers live minute bars over a websocket feed.
type MarketStream interface {
	Connect(ctx context.Context) error
	Subscribe(ctx context.Context) error
	Read(ctx context.Context) (<-chan *models.Bar, <-chan error)
	Reconnect(ctx context.Context) error
	Close() error
	IsConnected() bool
}

// BarStore persists and serves bar history from the warehouse.
type BarStore interface {
	StoreBars(ctx context.Context, tf Timeframe, bars []models.Bar) error
	GetBars(ctx context.Context, ticker string, tf Timeframe, from, to time.Time) ([]models.Bar, error)
	GetLatestNBars(ctx context.Context, ticker string, n int, tf Timeframe) ([]models.Bar, error)
	Health(ctx context.Context) error
	Close() error
}

// ZoneStore persists zone analyses, backtest outcomes and grades, and
// serves the aggregates the dashboard and edge monitor read.
type ZoneStore interface {
	StoreAnalysis(ctx context.Context, a models.ZoneAnalysis) error
	StoreOutcomes(ctx context.Context, outcomes []models.ZoneOutcome) error
	StoreGrades(ctx context.Context, grades []models.GradeResult) error
	LatestZones(ctx context.Context, ticker string, limit int) ([]models.FilteredZone, error)
	LatestSetups(ctx context.Context, ticker string) ([]models.TradeSetup, error)
	RecentOutcomes(ctx context.Context, ticker string, tier models.Tier, window int) ([]models.ZoneOutcome, error)
	Health(ctx context.Context) error
	Close() error
}

// Publisher pushes completed analyses onto the event bus for downstream
// consumers (grading, dashboards).
type Publisher interface {
	PublishAnalysis(ctx context.Context, a models.ZoneAnalysis) error
	Close() error
}

// Metrics records operational counters and timings.
type Metrics interface {
	RecordAnalysis(ticker string, zones int)
	RecordError(kind string)
	RecordLastPrice(ticker string, price float64)
	RecordLatency(op string, seconds float64)
}

// BarCacheKey addresses one cached bar series. Bucket is the series'
// last bar timestamp truncated to the timeframe, so a new bar naturally
// misses the old entry.
type BarCacheKey struct {
	Ticker string
	TF     Timeframe
	Bucket time.Time
}

// BarCache is the injected bar-series cache capability; implementations
// must be safe for concurrent use.
type BarCache interface {
	Get(ctx context.Context, key BarCacheKey) ([]models.Bar, bool)
	Put(ctx context.Context, key BarCacheKey, bars []models.Bar, ttl time.Duration)
}
