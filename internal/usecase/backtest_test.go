package usecase

import (
	"context"
	"testing"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
)

func longSetup() models.TradeSetup {
	s := models.TradeSetup{
		Ticker:      "SPY",
		Kind:        models.SetupPrimary,
		Direction:   models.DirectionLong,
		EntryPrice:  100,
		StopPrice:   98,
		TargetPrice: 104,
		RiskReward:  2,
	}
	s.Entry.POCID = "hvn_poc1"
	s.Entry.Tier = models.TierT1
	s.Entry.Rank = models.RankL4
	return s
}

func shortSetup() models.TradeSetup {
	s := models.TradeSetup{
		Ticker:      "SPY",
		Kind:        models.SetupSecondary,
		Direction:   models.DirectionShort,
		EntryPrice:  110,
		StopPrice:   112,
		TargetPrice: 106,
		RiskReward:  2,
	}
	s.Entry.POCID = "hvn_poc2"
	s.Entry.Tier = models.TierT2
	s.Entry.Rank = models.RankL3
	return s
}

func bar15(date time.Time, n int, o, h, l, c float64) models.Bar {
	return models.Bar{
		Bucket: date.Add(time.Duration(n) * 15 * time.Minute),
		Ticker: "SPY",
		Open:   o, High: h, Low: l, Close: c,
		Volume: 1000,
	}
}

func TestEvaluateSetupNoTouch(t *testing.T) {
	date := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		bar15(date, 1, 105, 106, 104.5, 105.5),
		bar15(date, 2, 105.5, 107, 105, 106),
	}
	out := EvaluateSetup(longSetup(), date, bars, 0)
	if out.State != models.OutcomeNoTouch {
		t.Fatalf("state = %s, want no_touch", out.State)
	}
	if out.BarsToEntry != 0 || out.RMultiple != 0 {
		t.Fatalf("no-touch outcome carries entry/R data: %+v", out)
	}
}

func TestEvaluateSetupLongWin(t *testing.T) {
	date := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		bar15(date, 1, 103, 103.5, 102, 102.5), // no touch
		bar15(date, 2, 102.5, 103, 99.8, 100.2), // entry touched
		bar15(date, 3, 100.2, 102, 100, 101.5),
		bar15(date, 4, 101.5, 104.2, 101, 104), // target hit
	}
	out := EvaluateSetup(longSetup(), date, bars, 0)
	if out.State != models.OutcomeWin {
		t.Fatalf("state = %s, want win", out.State)
	}
	if out.RMultiple != 2 {
		t.Fatalf("r multiple = %v, want 2", out.RMultiple)
	}
	if out.BarsToEntry != 2 {
		t.Fatalf("bars to entry = %d, want 2", out.BarsToEntry)
	}
	if out.BarsToResolve != 2 {
		t.Fatalf("bars to resolve = %d, want 2", out.BarsToResolve)
	}
}

func TestEvaluateSetupLongLoss(t *testing.T) {
	date := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		bar15(date, 1, 101, 101.5, 99.5, 100), // entry
		bar15(date, 2, 100, 100.5, 97.9, 98),  // stop
	}
	out := EvaluateSetup(longSetup(), date, bars, 0)
	if out.State != models.OutcomeLoss {
		t.Fatalf("state = %s, want loss", out.State)
	}
	if out.RMultiple != -1 {
		t.Fatalf("r multiple = %v, want -1", out.RMultiple)
	}
}

func TestEvaluateSetupStopAndTargetSameBarIsLoss(t *testing.T) {
	date := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	// one wide bar sweeps entry, stop, and target
	bars := []models.Bar{
		bar15(date, 1, 101, 105, 97, 103),
	}
	out := EvaluateSetup(longSetup(), date, bars, 0)
	if out.State != models.OutcomeLoss {
		t.Fatalf("state = %s, want loss on ambiguous bar", out.State)
	}
}

func TestEvaluateSetupShortWin(t *testing.T) {
	date := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		bar15(date, 1, 109, 110.5, 108.5, 109.5), // entry
		bar15(date, 2, 109.5, 110, 105.8, 106),   // target
	}
	out := EvaluateSetup(shortSetup(), date, bars, 0)
	if out.State != models.OutcomeWin {
		t.Fatalf("state = %s, want win", out.State)
	}
}

func TestEvaluateSetupOpen(t *testing.T) {
	date := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		bar15(date, 1, 101, 101.5, 99.5, 100.5), // entry, then drift
		bar15(date, 2, 100.5, 101, 100, 100.8),
	}
	out := EvaluateSetup(longSetup(), date, bars, 0)
	if out.State != models.OutcomeOpen {
		t.Fatalf("state = %s, want open", out.State)
	}
	if out.EntryAt.IsZero() {
		t.Fatalf("open outcome missing entry time")
	}
}

func TestEvaluateSetupIgnoresBarsAtOrBeforeDate(t *testing.T) {
	date := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		bar15(date, -1, 101, 105, 97, 100), // before the analysis
		bar15(date, 0, 101, 105, 97, 100),  // at the analysis date
		bar15(date, 1, 105, 106, 104.5, 105.5),
	}
	out := EvaluateSetup(longSetup(), date, bars, 0)
	if out.State != models.OutcomeNoTouch {
		t.Fatalf("state = %s, prior bars must not count", out.State)
	}
}

func TestEvaluateSetupHorizonCap(t *testing.T) {
	date := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	bars := []models.Bar{
		bar15(date, 1, 105, 106, 104.5, 105.5),
		bar15(date, 2, 105.5, 106, 105, 105.8),
		bar15(date, 3, 105.8, 106, 99, 100), // would enter, but beyond horizon
	}
	out := EvaluateSetup(longSetup(), date, bars, 2)
	if out.State != models.OutcomeNoTouch {
		t.Fatalf("state = %s, want no_touch past horizon", out.State)
	}
}

func TestBacktestAnalysisStoresOutcomes(t *testing.T) {
	date := time.Date(2026, 3, 2, 15, 0, 0, 0, time.UTC)
	barStore := newFakeBarStore()
	barStore.bars[drepo.TF15m] = []models.Bar{
		bar15(date, 1, 101, 101.5, 99.5, 100),
		bar15(date, 2, 100, 104.5, 100, 104.2),
	}
	zones := newFakeZoneStore()
	bt := NewBacktester(zones, barStore, newFakeMetrics(), newTestLogger())

	a := models.ZoneAnalysis{
		Ticker: "SPY",
		Date:   date,
		Setups: []models.TradeSetup{longSetup()},
	}
	outcomes, err := bt.BacktestAnalysis(context.Background(), a)
	if err != nil {
		t.Fatalf("backtest: %v", err)
	}
	if len(outcomes) != 1 {
		t.Fatalf("outcomes = %d, want 1", len(outcomes))
	}
	if outcomes[0].State != models.OutcomeWin {
		t.Fatalf("state = %s, want win", outcomes[0].State)
	}
	if len(zones.outcomes) != 1 {
		t.Fatalf("stored outcomes = %d, want 1", len(zones.outcomes))
	}
}

func TestBacktestAnalysisNoSetups(t *testing.T) {
	bt := NewBacktester(newFakeZoneStore(), newFakeBarStore(), newFakeMetrics(), newTestLogger())
	outcomes, err := bt.BacktestAnalysis(context.Background(), models.ZoneAnalysis{Ticker: "SPY"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcomes != nil {
		t.Fatalf("expected no outcomes, got %d", len(outcomes))
	}
}
