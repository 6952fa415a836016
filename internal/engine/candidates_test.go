package engine

import (
	"testing"

	"Epoch/internal/domain/models"
)

func TestBuildCandidatesSkipsEmptySlots(t *testing.T) {
	cfg := DefaultConfig()
	snap := models.BarSnapshot{M15ATR: 1.0}
	snap.HVNPOCs = [10]float64{100, 0, 102, 0, 0, 0, 0, 0, 0, 95}

	cands := BuildCandidates(snap, cfg)
	if len(cands) != 3 {
		t.Fatalf("expected 3 candidates, got %d", len(cands))
	}
	if cands[0].POCID != "hvn_poc1" || cands[1].POCID != "hvn_poc3" || cands[2].POCID != "hvn_poc10" {
		t.Fatalf("unexpected ids: %s %s %s", cands[0].POCID, cands[1].POCID, cands[2].POCID)
	}
	// Base score follows the slot rank, not the output position.
	if cands[1].BaseScore != cfg.BaseScores[2] {
		t.Fatalf("hvn_poc3 base score should be %v, got %v", cfg.BaseScores[2], cands[1].BaseScore)
	}
	if cands[2].BaseScore != cfg.BaseScores[9] {
		t.Fatalf("hvn_poc10 base score should be %v, got %v", cfg.BaseScores[9], cands[2].BaseScore)
	}
}

func TestBuildCandidatesZoneWidth(t *testing.T) {
	cfg := DefaultConfig()
	snap := models.BarSnapshot{M15ATR: 1.0}
	snap.HVNPOCs[0] = 100

	c := BuildCandidates(snap, cfg)[0]
	if c.ZoneLow != 99.5 || c.ZoneHigh != 100.5 {
		t.Fatalf("zone should be poc +/- m15ATR/2, got [%v, %v]", c.ZoneLow, c.ZoneHigh)
	}

	// Missing m15 ATR walks the fallback chain instead of collapsing to
	// a zero-width zone.
	snap.M15ATR = 0
	snap.H1ATR = 2.0
	c = BuildCandidates(snap, cfg)[0]
	if c.ZoneLow != 99 || c.ZoneHigh != 101 {
		t.Fatalf("fallback width should use h1 ATR, got [%v, %v]", c.ZoneLow, c.ZoneHigh)
	}
}

func TestBaseScoresMonotone(t *testing.T) {
	cfg := DefaultConfig()
	for i := 1; i < len(cfg.BaseScores); i++ {
		if cfg.BaseScores[i] > cfg.BaseScores[i-1] {
			t.Fatalf("base scores must be non-increasing, rank %d > rank %d", i+1, i)
		}
	}
}
