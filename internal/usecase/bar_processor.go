package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
)

// BarProcessor rolls live minute bars into 5m buckets and flushes each
// completed bucket to the warehouse. The in-progress bucket per ticker
// stays in memory until a bar from the next bucket arrives.
type BarProcessor struct {
	store   drepo.BarStore
	metrics drepo.Metrics

	mu      sync.Mutex
	current map[string]*models.Bar // keyed by ticker, bucket-aligned
}

func NewBarProcessor(store drepo.BarStore, metrics drepo.Metrics) *BarProcessor {
	return &BarProcessor{store: store, metrics: metrics, current: make(map[string]*models.Bar)}
}

// Process merges one minute bar into its ticker's 5m bucket, flushing the
// previous bucket when the boundary rolls over.
func (p *BarProcessor) Process(ctx context.Context, b *models.Bar) error {
	if b == nil {
		return fmt.Errorf("bar is nil")
	}
	bucket := b.Bucket.Truncate(5 * time.Minute)

	p.mu.Lock()
	cur, ok := p.current[b.Ticker]
	var completed *models.Bar
	if !ok || !cur.Bucket.Equal(bucket) {
		if ok {
			completed = cur
		}
		p.current[b.Ticker] = &models.Bar{
			Bucket: bucket,
			Ticker: b.Ticker,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	} else {
		if b.High > cur.High {
			cur.High = b.High
		}
		if b.Low < cur.Low {
			cur.Low = b.Low
		}
		cur.Close = b.Close
		cur.Volume += b.Volume
	}
	p.mu.Unlock()

	p.metrics.RecordLastPrice(b.Ticker, b.Close)

	if completed != nil {
		start := time.Now()
		if err := p.store.StoreBars(ctx, drepo.TF5m, []models.Bar{*completed}); err != nil {
			p.metrics.RecordError("bar_flush")
			return fmt.Errorf("flush 5m bar: %w", err)
		}
		p.metrics.RecordLatency("bar_flush", time.Since(start).Seconds())
	}
	return nil
}

// Flush writes out every in-progress bucket, for shutdown.
func (p *BarProcessor) Flush(ctx context.Context) error {
	p.mu.Lock()
	bars := make([]models.Bar, 0, len(p.current))
	for _, b := range p.current {
		bars = append(bars, *b)
	}
	p.current = make(map[string]*models.Bar)
	p.mu.Unlock()

	if len(bars) == 0 {
		return nil
	}
	return p.store.StoreBars(ctx, drepo.TF5m, bars)
}
