package usecase

import (
	"context"
	"testing"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
	"Epoch/internal/engine"
)

// seedMarketData loads the fake feed with enough bars across timeframes
// for a full snapshot: clustered 5m volume so the volume profile yields
// POCs near price, plus daily history for ATR and structure.
func seedMarketData(asOf time.Time) *fakeMarketData {
	data := newFakeMarketData()

	var m5 []models.Bar
	for i := 0; i < 200; i++ {
		px := 100 + float64(i%5)*0.1
		m5 = append(m5, models.Bar{
			Bucket: asOf.Add(time.Duration(i-200) * 5 * time.Minute),
			Ticker: "SPY",
			Open:   px, High: px + 0.2, Low: px - 0.2, Close: px + 0.1,
			Volume: 1e5,
		})
	}
	data.bars[drepo.TF5m] = m5

	var m15 []models.Bar
	for i := 0; i < 100; i++ {
		px := 100 + float64(i%7)*0.15
		m15 = append(m15, models.Bar{
			Bucket: asOf.Add(time.Duration(i-100) * 15 * time.Minute),
			Ticker: "SPY",
			Open:   px, High: px + 0.3, Low: px - 0.3, Close: px,
			Volume: 3e5,
		})
	}
	data.bars[drepo.TF15m] = m15

	var h1 []models.Bar
	for i := 0; i < 60; i++ {
		px := 99 + float64(i%9)*0.3
		h1 = append(h1, models.Bar{
			Bucket: asOf.Add(time.Duration(i-60) * time.Hour),
			Ticker: "SPY",
			Open:   px, High: px + 0.6, Low: px - 0.6, Close: px,
			Volume: 1e6,
		})
	}
	data.bars[drepo.TF1h] = h1
	data.bars[drepo.TF4h] = h1[:15]

	var d1 []models.Bar
	for i := 0; i < 40; i++ {
		px := 95 + float64(i%11)*0.8
		d1 = append(d1, models.Bar{
			Bucket: asOf.AddDate(0, 0, i-40),
			Ticker: "SPY",
			Open:   px, High: px + 1.5, Low: px - 1.5, Close: px + 0.4,
			Volume: 5e7,
		})
	}
	data.bars[drepo.TF1d] = d1
	data.bars[drepo.TF1w] = d1[:8]
	data.bars[drepo.TF1mo] = d1[:4]

	data.strikes = []float64{99, 100, 101, 102}
	return data
}

func TestAnalyzeTickerFullPass(t *testing.T) {
	asOf := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	data := seedMarketData(asOf)
	zones := newFakeZoneStore()
	pub := &fakePublisher{}

	eng, err := engine.New(engine.DefaultConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	builder := NewSnapshotBuilder(data, newFakeBarStore(), newFakeBarCache(), newFakeMetrics(), SnapshotConfig{HistoryDays: 30}, newTestLogger())
	a := NewAnalyzer(builder, eng, zones, pub, newFakeMetrics(), newTestLogger(), []string{"SPY"}, time.Minute, 1)

	analysis, err := a.AnalyzeTicker(context.Background(), "SPY", asOf)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if analysis.Ticker != "SPY" {
		t.Fatalf("ticker = %q", analysis.Ticker)
	}
	if analysis.Price <= 0 {
		t.Fatalf("price = %v", analysis.Price)
	}
	if len(zones.analyses) != 1 {
		t.Fatalf("stored analyses = %d, want 1", len(zones.analyses))
	}
	if len(pub.published) != 1 {
		t.Fatalf("published analyses = %d, want 1", len(pub.published))
	}
}

func TestAnalyzeTickerSnapshotFailure(t *testing.T) {
	asOf := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	data := seedMarketData(asOf)
	data.failTF = drepo.TF5m

	eng, err := engine.New(engine.DefaultConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	builder := NewSnapshotBuilder(data, newFakeBarStore(), newFakeBarCache(), newFakeMetrics(), SnapshotConfig{}, newTestLogger())
	a := NewAnalyzer(builder, eng, newFakeZoneStore(), &fakePublisher{}, newFakeMetrics(), newTestLogger(), []string{"SPY"}, time.Minute, 1)

	if _, err := a.AnalyzeTicker(context.Background(), "SPY", asOf); err == nil {
		t.Fatalf("expected snapshot failure to propagate")
	}
}

func TestAnalyzeTickerToleratesPublishFailure(t *testing.T) {
	asOf := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	pub := &fakePublisher{err: context.DeadlineExceeded}

	eng, err := engine.New(engine.DefaultConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	builder := NewSnapshotBuilder(seedMarketData(asOf), newFakeBarStore(), newFakeBarCache(), newFakeMetrics(), SnapshotConfig{}, newTestLogger())
	m := newFakeMetrics()
	a := NewAnalyzer(builder, eng, newFakeZoneStore(), pub, m, newTestLogger(), []string{"SPY"}, time.Minute, 1)

	if _, err := a.AnalyzeTicker(context.Background(), "SPY", asOf); err != nil {
		t.Fatalf("publish failure must not fail the analysis: %v", err)
	}
	if m.errCount("publish_analysis") != 1 {
		t.Fatalf("publish failure not recorded")
	}
}
