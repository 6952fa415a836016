package usecase

import (
	"context"
	"testing"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
)

func minuteBar(bucket time.Time, o, h, l, c, v float64) *models.Bar {
	return &models.Bar{Bucket: bucket, Ticker: "SPY", Open: o, High: h, Low: l, Close: c, Volume: v}
}

func TestBarProcessorMergesWithinBucket(t *testing.T) {
	store := newFakeBarStore()
	p := NewBarProcessor(store, newFakeMetrics())
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	if err := p.Process(ctx, minuteBar(base, 100, 101, 99.5, 100.5, 10)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Process(ctx, minuteBar(base.Add(time.Minute), 100.5, 102, 100, 101.8, 20)); err != nil {
		t.Fatalf("process: %v", err)
	}
	if err := p.Process(ctx, minuteBar(base.Add(2*time.Minute), 101.8, 101.9, 98.9, 99.2, 5)); err != nil {
		t.Fatalf("process: %v", err)
	}

	// bucket still in progress, nothing flushed
	if n := store.storedCount(drepo.TF5m); n != 0 {
		t.Fatalf("flushed %d bars before bucket rollover", n)
	}

	if err := p.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	stored := store.stored[drepo.TF5m]
	if len(stored) != 1 {
		t.Fatalf("stored = %d, want 1", len(stored))
	}
	b := stored[0]
	if b.Open != 100 || b.High != 102 || b.Low != 98.9 || b.Close != 99.2 {
		t.Fatalf("merged OHLC wrong: %+v", b)
	}
	if b.Volume != 35 {
		t.Fatalf("volume = %v, want 35", b.Volume)
	}
	if !b.Bucket.Equal(base) {
		t.Fatalf("bucket = %v, want %v", b.Bucket, base)
	}
}

func TestBarProcessorFlushesOnRollover(t *testing.T) {
	store := newFakeBarStore()
	p := NewBarProcessor(store, newFakeMetrics())
	ctx := context.Background()
	base := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)

	if err := p.Process(ctx, minuteBar(base.Add(4*time.Minute), 100, 101, 99, 100.5, 10)); err != nil {
		t.Fatalf("process: %v", err)
	}
	// next bar lands in the following 5m bucket
	if err := p.Process(ctx, minuteBar(base.Add(5*time.Minute), 100.5, 101, 100, 100.7, 8)); err != nil {
		t.Fatalf("process: %v", err)
	}

	stored := store.stored[drepo.TF5m]
	if len(stored) != 1 {
		t.Fatalf("stored = %d, want the completed bucket", len(stored))
	}
	if !stored[0].Bucket.Equal(base) {
		t.Fatalf("flushed bucket = %v, want %v", stored[0].Bucket, base)
	}
}

func TestBarProcessorFlushEmpty(t *testing.T) {
	p := NewBarProcessor(newFakeBarStore(), newFakeMetrics())
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("flush on empty state: %v", err)
	}
}

func TestBarProcessorNilBar(t *testing.T) {
	p := NewBarProcessor(newFakeBarStore(), newFakeMetrics())
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil bar")
	}
}
