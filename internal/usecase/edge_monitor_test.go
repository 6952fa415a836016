package usecase

import (
	"context"
	"math"
	"testing"

	"Epoch/internal/domain/models"
)

func outcomesWithRate(wins, losses int) []models.ZoneOutcome {
	var out []models.ZoneOutcome
	for i := 0; i < wins; i++ {
		out = append(out, models.ZoneOutcome{State: models.OutcomeWin, RMultiple: 2})
	}
	for i := 0; i < losses; i++ {
		out = append(out, models.ZoneOutcome{State: models.OutcomeLoss, RMultiple: -1})
	}
	return out
}

func TestValidateAggregates(t *testing.T) {
	zones := newFakeZoneStore()
	zones.recent[models.TierT1] = outcomesWithRate(6, 4)
	m := NewEdgeMonitor(zones, newFakeMetrics(), newTestLogger(), EdgeConfig{
		Window:       50,
		MinTrades:    20,
		BaselineRate: 0.55,
	}, []string{"SPY"})

	stats, err := m.Validate(context.Background(), "SPY", 50)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stats = %d, want 1 tier", len(stats))
	}
	s := stats[0]
	if s.Trades != 10 || s.Wins != 6 {
		t.Fatalf("trades/wins = %d/%d, want 10/6", s.Trades, s.Wins)
	}
	if math.Abs(s.WinRate-0.6) > 1e-9 {
		t.Fatalf("win rate = %v, want 0.6", s.WinRate)
	}
	// expectancy: (6*2 + 4*-1) / 10 = 0.8
	if math.Abs(s.Expectancy-0.8) > 1e-9 {
		t.Fatalf("expectancy = %v, want 0.8", s.Expectancy)
	}
	if s.Drift {
		t.Fatalf("drift asserted under min trades")
	}
}

func TestValidateIgnoresNonTerminalOutcomes(t *testing.T) {
	zones := newFakeZoneStore()
	zones.recent[models.TierT2] = append(outcomesWithRate(3, 1),
		models.ZoneOutcome{State: models.OutcomeOpen},
		models.ZoneOutcome{State: models.OutcomeNoTouch},
	)
	m := NewEdgeMonitor(zones, newFakeMetrics(), newTestLogger(), EdgeConfig{BaselineRate: 0.55}, nil)

	stats, err := m.Validate(context.Background(), "SPY", 50)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if stats[0].Trades != 4 {
		t.Fatalf("trades = %d, open/no_touch must not count", stats[0].Trades)
	}
}

func TestValidateDriftDetection(t *testing.T) {
	// 10 wins of 50 trades = 0.20 win rate, far below 0.55 baseline
	zones := newFakeZoneStore()
	zones.recent[models.TierT1] = outcomesWithRate(10, 40)
	m := NewEdgeMonitor(zones, newFakeMetrics(), newTestLogger(), EdgeConfig{
		Window:         50,
		MinTrades:      20,
		BaselineRate:   0.55,
		DriftStdErrors: 2.0,
	}, []string{"SPY"})

	stats, err := m.Validate(context.Background(), "SPY", 50)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !stats[0].Drift {
		t.Fatalf("expected drift at win rate %v vs baseline %v", stats[0].WinRate, stats[0].BaselineRate)
	}
}

func TestValidateNoDriftNearBaseline(t *testing.T) {
	// 26 of 50 = 0.52, within two standard errors of 0.55
	zones := newFakeZoneStore()
	zones.recent[models.TierT1] = outcomesWithRate(26, 24)
	m := NewEdgeMonitor(zones, newFakeMetrics(), newTestLogger(), EdgeConfig{
		Window:         50,
		MinTrades:      20,
		BaselineRate:   0.55,
		DriftStdErrors: 2.0,
	}, []string{"SPY"})

	stats, err := m.Validate(context.Background(), "SPY", 50)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if stats[0].Drift {
		t.Fatalf("drift asserted at win rate %v, inside the margin", stats[0].WinRate)
	}
}

func TestValidateSkipsEmptyTiers(t *testing.T) {
	m := NewEdgeMonitor(newFakeZoneStore(), newFakeMetrics(), newTestLogger(), EdgeConfig{}, nil)
	stats, err := m.Validate(context.Background(), "SPY", 50)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("stats = %d, want none for empty warehouse", len(stats))
	}
}

func TestRunOnceCachesStats(t *testing.T) {
	zones := newFakeZoneStore()
	zones.recent[models.TierT1] = outcomesWithRate(5, 5)
	m := NewEdgeMonitor(zones, newFakeMetrics(), newTestLogger(), EdgeConfig{BaselineRate: 0.55}, []string{"SPY"})

	if got := m.CachedStats("SPY"); got != nil {
		t.Fatalf("expected empty cache before refresh")
	}
	m.RunOnce(context.Background())
	if got := m.CachedStats("SPY"); len(got) != 1 {
		t.Fatalf("cached stats = %d, want 1", len(got))
	}
}
