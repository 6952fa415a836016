package usecase

import (
	"context"
	"testing"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
)

func TestGetBarsServesRange(t *testing.T) {
	store := newFakeBarStore()
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		store.bars[drepo.TF1d] = append(store.bars[drepo.TF1d], models.Bar{
			Bucket: base.AddDate(0, 0, i),
			Ticker: "SPY",
			Close:  100 + float64(i),
		})
	}
	uc := NewBarsUseCase(store)

	res, err := uc.GetBars(context.Background(), GetBarsParams{
		Ticker:    "SPY",
		From:      base.Add(3 * time.Hour), // aligns down to base
		To:        base.AddDate(0, 0, 2).Add(5 * time.Hour),
		Timeframe: drepo.TF1d,
	})
	if err != nil {
		t.Fatalf("get bars: %v", err)
	}
	if res.Count != 3 {
		t.Fatalf("count = %d, want 3 after range alignment", res.Count)
	}
	if res.Timeframe != "1d" {
		t.Fatalf("timeframe = %q", res.Timeframe)
	}
}

func TestGetBarsValidation(t *testing.T) {
	uc := NewBarsUseCase(newFakeBarStore())
	ctx := context.Background()

	if _, err := uc.GetBars(ctx, GetBarsParams{Ticker: "", Timeframe: drepo.TF1d}); err == nil {
		t.Fatalf("expected error for empty ticker")
	}
	now := time.Now().UTC()
	if _, err := uc.GetBars(ctx, GetBarsParams{Ticker: "SPY", From: now, To: now.Add(-time.Hour), Timeframe: drepo.TF1d}); err == nil {
		t.Fatalf("expected error for inverted range")
	}
}

func TestGetBarsLimitCap(t *testing.T) {
	store := newFakeBarStore()
	base := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 10; i++ {
		store.bars[drepo.TF1d] = append(store.bars[drepo.TF1d], models.Bar{
			Bucket: base.AddDate(0, 0, i),
			Ticker: "SPY",
		})
	}
	uc := NewBarsUseCase(store)

	res, err := uc.GetBars(context.Background(), GetBarsParams{
		Ticker:    "SPY",
		From:      base,
		To:        base.AddDate(0, 0, 30),
		Timeframe: drepo.TF1d,
		Limit:     4,
	})
	if err != nil {
		t.Fatalf("get bars: %v", err)
	}
	if res.Count != 4 {
		t.Fatalf("count = %d, want limit 4", res.Count)
	}
}
