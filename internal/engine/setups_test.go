package engine

import (
	"testing"

	"Epoch/internal/domain/models"
)

func filteredAt(pocID string, price, half float64) *models.FilteredZone {
	return &models.FilteredZone{
		ScoredZone: models.ScoredZone{
			CandidateZone: models.CandidateZone{
				POCID:    pocID,
				POCPrice: price,
				ZoneHigh: price + half,
				ZoneLow:  price - half,
			},
		},
	}
}

func TestBuildSetupsRiskReward(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinRiskReward = 0 // keep both sides for inspection
	snap := models.BarSnapshot{Ticker: "TEST", M15ATR: 1.0}
	bear := filteredAt("hvn_poc2", 98, 0.5)
	bull := filteredAt("hvn_poc1", 103, 0.5)

	setups := BuildSetups(snap, models.BiasBull, bull, bear, cfg)
	if len(setups) != 2 {
		t.Fatalf("expected both setups, got %d", len(setups))
	}

	long := setups[0]
	if long.Kind != models.SetupPrimary || long.Direction != models.DirectionLong {
		t.Fatalf("bull bias must make the long primary, got %s %s", long.Kind, long.Direction)
	}
	// entry 98, stop 97.5 - 0.25 buffer = 97.25, target 103: rr = 5/0.75
	if long.StopPrice != 97.25 {
		t.Fatalf("stop should sit 0.25 ATR beyond the zone low, got %v", long.StopPrice)
	}
	want := 5.0 / 0.75
	if diff := long.RiskReward - want; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("long rr = %v, want %v", long.RiskReward, want)
	}

	short := setups[1]
	if short.Kind != models.SetupSecondary || short.Direction != models.DirectionShort {
		t.Fatalf("short should be secondary, got %s %s", short.Kind, short.Direction)
	}
	if short.EntryPrice != 103 || short.TargetPrice != 98 {
		t.Fatalf("short must enter at the bull POC and target the bear POC, got %+v", short)
	}
}

func TestBuildSetupsMinRiskRewardFilter(t *testing.T) {
	cfg := DefaultConfig() // min rr 1.5
	snap := models.BarSnapshot{Ticker: "TEST", M15ATR: 1.0}
	// Tight bracket: neither side clears 1.5R.
	bear := filteredAt("hvn_poc2", 99.5, 0.5)
	bull := filteredAt("hvn_poc1", 100.5, 0.5)

	if setups := BuildSetups(snap, models.BiasNeutral, bull, bear, cfg); len(setups) != 0 {
		t.Fatalf("sub-minimum R:R setups must be discarded, got %d", len(setups))
	}
}

func TestBuildSetupsRequiresBothSides(t *testing.T) {
	cfg := DefaultConfig()
	snap := models.BarSnapshot{Ticker: "TEST", M15ATR: 1.0}
	if setups := BuildSetups(snap, models.BiasBull, filteredAt("hvn_poc1", 103, 0.5), nil, cfg); setups != nil {
		t.Fatalf("one-sided markets produce no setups, got %v", setups)
	}
}

func TestBuildSetupsBearBiasPrimary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinRiskReward = 0
	snap := models.BarSnapshot{Ticker: "TEST", M15ATR: 1.0}
	setups := BuildSetups(snap, models.BiasBear, filteredAt("hvn_poc1", 103, 0.5), filteredAt("hvn_poc2", 98, 0.5), cfg)
	if len(setups) != 2 {
		t.Fatalf("expected two setups, got %d", len(setups))
	}
	if setups[0].Direction != models.DirectionShort || setups[0].Kind != models.SetupPrimary {
		t.Fatalf("bear bias must make the short primary, got %s %s", setups[0].Direction, setups[0].Kind)
	}
}
