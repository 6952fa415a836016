package usecase

import (
	"context"
	"testing"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
)

func TestBucketFor(t *testing.T) {
	asOf := time.Date(2026, 3, 2, 15, 37, 42, 0, time.UTC)
	cases := []struct {
		tf   drepo.Timeframe
		want time.Time
	}{
		{drepo.TF5m, time.Date(2026, 3, 2, 15, 35, 0, 0, time.UTC)},
		{drepo.TF15m, time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)},
		{drepo.TF1h, time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)},
		{drepo.TF4h, time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)},
		{drepo.TF1d, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
		{drepo.TF1w, time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)},
	}
	for _, c := range cases {
		if got := bucketFor(c.tf, asOf); !got.Equal(c.want) {
			t.Fatalf("bucketFor(%s) = %v, want %v", c.tf, got, c.want)
		}
	}
}

func TestCurrentPrior(t *testing.T) {
	bars := []models.Bar{
		{Open: 1, High: 2, Low: 0.5, Close: 1.5},
		{Open: 1.5, High: 3, Low: 1, Close: 2.5},
	}
	cur, prior := currentPrior(bars)
	if cur.Close != 2.5 || prior.Close != 1.5 {
		t.Fatalf("cur/prior = %v/%v", cur, prior)
	}

	cur, prior = currentPrior(bars[:1])
	if cur.Close != 1.5 {
		t.Fatalf("single-bar current = %v", cur)
	}
	if prior != (models.OHLC{}) {
		t.Fatalf("single-bar prior should be zero, got %v", prior)
	}
}

func TestOvernightRange(t *testing.T) {
	asOf := time.Date(2026, 3, 2, 14, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		// prior session close (inside 13:30-20:00 UTC, excluded)
		{Bucket: time.Date(2026, 3, 1, 19, 45, 0, 0, time.UTC), High: 120, Low: 119},
		// overnight bars
		{Bucket: time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC), High: 101.5, Low: 100.2},
		{Bucket: time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC), High: 102.3, Low: 99.8},
		// pre-open, still outside the session
		{Bucket: time.Date(2026, 3, 2, 13, 15, 0, 0, time.UTC), High: 101.9, Low: 101},
		// in-session bar, excluded
		{Bucket: time.Date(2026, 3, 2, 13, 45, 0, 0, time.UTC), High: 130, Low: 90},
	}
	high, low := overnightRange(bars, asOf)
	if high != 102.3 {
		t.Fatalf("overnight high = %v, want 102.3", high)
	}
	if low != 99.8 {
		t.Fatalf("overnight low = %v, want 99.8", low)
	}
}

func TestOvernightRangeEmpty(t *testing.T) {
	high, low := overnightRange(nil, time.Now().UTC())
	if high != 0 || low != 0 {
		t.Fatalf("empty input should yield zeroes, got %v/%v", high, low)
	}
}

func TestFetchUsesCache(t *testing.T) {
	data := newFakeMarketData()
	asOf := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
	cache := newFakeBarCache()
	cached := []models.Bar{{Ticker: "SPY", Bucket: asOf, Close: 100}}
	cache.Put(context.Background(), drepo.BarCacheKey{Ticker: "SPY", TF: drepo.TF1d, Bucket: bucketFor(drepo.TF1d, asOf)}, cached, time.Minute)

	b := NewSnapshotBuilder(data, newFakeBarStore(), cache, newFakeMetrics(), SnapshotConfig{}, newTestLogger())
	bars, err := b.fetch(context.Background(), "SPY", drepo.TF1d, asOf)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(bars) != 1 || bars[0].Close != 100 {
		t.Fatalf("cache hit returned %v", bars)
	}
	if data.callCount() != 0 {
		t.Fatalf("REST called on cache hit")
	}
}

func TestFetchWritesThrough(t *testing.T) {
	data := newFakeMarketData()
	data.bars[drepo.TF1d] = []models.Bar{{Ticker: "SPY", Close: 101}}
	store := newFakeBarStore()
	cache := newFakeBarCache()
	asOf := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)

	b := NewSnapshotBuilder(data, store, cache, newFakeMetrics(), SnapshotConfig{}, newTestLogger())
	if _, err := b.fetch(context.Background(), "SPY", drepo.TF1d, asOf); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if store.storedCount(drepo.TF1d) != 1 {
		t.Fatalf("write-through did not persist")
	}
	// second fetch within the same bucket must hit the cache
	if _, err := b.fetch(context.Background(), "SPY", drepo.TF1d, asOf.Add(time.Minute)); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if data.callCount() != 1 {
		t.Fatalf("REST calls = %d, want 1", data.callCount())
	}
}

func TestFetchToleratesStoreFailure(t *testing.T) {
	data := newFakeMarketData()
	data.bars[drepo.TF1d] = []models.Bar{{Ticker: "SPY", Close: 101}}
	store := newFakeBarStore()
	store.failPut = true
	metrics := newFakeMetrics()

	b := NewSnapshotBuilder(data, store, newFakeBarCache(), metrics, SnapshotConfig{}, newTestLogger())
	bars, err := b.fetch(context.Background(), "SPY", drepo.TF1d, time.Now().UTC())
	if err != nil {
		t.Fatalf("fetch must succeed despite store failure: %v", err)
	}
	if len(bars) != 1 {
		t.Fatalf("bars = %d, want 1", len(bars))
	}
	if metrics.errCount("store_bars") != 1 {
		t.Fatalf("store failure not recorded")
	}
}

func TestBuildRequiresTicker(t *testing.T) {
	b := NewSnapshotBuilder(newFakeMarketData(), newFakeBarStore(), newFakeBarCache(), newFakeMetrics(), SnapshotConfig{}, newTestLogger())
	if _, _, err := b.Build(context.Background(), "", time.Now().UTC()); err == nil {
		t.Fatalf("expected error for empty ticker")
	}
}

func TestBuildAssemblesSnapshot(t *testing.T) {
	asOf := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	data := newFakeMarketData()
	data.strikes = []float64{100, 101, 102}

	// enough 1d bars for ATR and prior-period OHLC
	var daily []models.Bar
	for i := 0; i < 30; i++ {
		px := 95 + float64(i)*0.2
		daily = append(daily, models.Bar{
			Bucket: asOf.AddDate(0, 0, i-30),
			Ticker: "SPY",
			Open:   px, High: px + 1, Low: px - 1, Close: px + 0.5,
			Volume: 1e6,
		})
	}
	data.bars[drepo.TF1d] = daily
	data.bars[drepo.TF5m] = []models.Bar{
		{Bucket: asOf.Add(-10 * time.Minute), Ticker: "SPY", Open: 100, High: 100.5, Low: 99.5, Close: 100.2, Volume: 5e4},
		{Bucket: asOf.Add(-5 * time.Minute), Ticker: "SPY", Open: 100.2, High: 100.8, Low: 100, Close: 100.6, Volume: 6e4},
	}

	b := NewSnapshotBuilder(data, newFakeBarStore(), newFakeBarCache(), newFakeMetrics(), SnapshotConfig{HistoryDays: 30}, newTestLogger())
	snap, ms, err := b.Build(context.Background(), "SPY", asOf)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if snap.Ticker != "SPY" {
		t.Fatalf("ticker = %q", snap.Ticker)
	}
	if snap.Price != 100.6 {
		t.Fatalf("price = %v, want last 5m close", snap.Price)
	}
	if snap.D1ATR <= 0 {
		t.Fatalf("daily ATR not computed")
	}
	if snap.PriorDaily == (models.OHLC{}) {
		t.Fatalf("prior daily OHLC missing")
	}
	if snap.OptionStrikes[0] == 0 {
		t.Fatalf("option strikes not copied")
	}
	if ms.Bias == "" {
		t.Fatalf("bias missing")
	}
}
