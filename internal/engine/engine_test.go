package engine

import (
	"errors"
	"reflect"
	"testing"

	"Epoch/internal/domain/models"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return e
}

func TestAnalyzeInvalidPrice(t *testing.T) {
	e := newTestEngine(t)
	snap := fullSnapshot()
	snap.Price = 0

	_, err := e.Analyze(snap, fullStructure())
	if !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice, got %v", err)
	}

	snap.Price = -3
	if _, err := e.Analyze(snap, fullStructure()); !errors.Is(err, ErrInvalidPrice) {
		t.Fatalf("expected ErrInvalidPrice for negative price, got %v", err)
	}
}

func TestAnalyzeMissingTicker(t *testing.T) {
	e := newTestEngine(t)
	snap := fullSnapshot()
	snap.Ticker = ""
	if _, err := e.Analyze(snap, fullStructure()); !errors.Is(err, ErrNoTicker) {
		t.Fatalf("expected ErrNoTicker, got %v", err)
	}
}

// Running the pipeline twice on identical inputs must be bit-identical:
// no hidden randomness, no map-iteration tie-breaking.
func TestAnalyzeIdempotent(t *testing.T) {
	e := newTestEngine(t)
	snap := fullSnapshot()
	structure := fullStructure()

	first, err := e.Analyze(snap, structure)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	for i := 0; i < 20; i++ {
		again, err := e.Analyze(snap, structure)
		if err != nil {
			t.Fatalf("analyze run %d: %v", i, err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("run %d diverged from first run", i)
		}
	}
}

func TestAnalyzeEmptyPOCsIsNormal(t *testing.T) {
	e := newTestEngine(t)
	snap := fullSnapshot()
	snap.HVNPOCs = [10]float64{}

	out, err := e.Analyze(snap, fullStructure())
	if err != nil {
		t.Fatalf("no POCs must not error: %v", err)
	}
	if len(out.Zones) != 0 || out.BullPOC != nil || out.BearPOC != nil || len(out.Setups) != 0 {
		t.Fatalf("expected empty analysis, got %+v", out)
	}
}

func TestAnalyzeEndToEnd(t *testing.T) {
	e := newTestEngine(t)
	out, err := e.Analyze(fullSnapshot(), fullStructure())
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(out.Zones) == 0 {
		t.Fatalf("expected surviving zones from a full snapshot")
	}
	if len(out.Zones) > e.Config().MaxZones {
		t.Fatalf("zone count %d exceeds cap %d", len(out.Zones), e.Config().MaxZones)
	}
	for _, z := range out.Zones {
		if z.Tier == "" || z.Rank == "" {
			t.Errorf("zone %s missing tier or rank", z.POCID)
		}
		if z.ProximityGroup != 1 && z.ProximityGroup != 2 {
			t.Errorf("zone %s has invalid proximity group %d", z.POCID, z.ProximityGroup)
		}
	}
	if out.Bias != models.BiasBull {
		t.Errorf("bias must pass through, got %s", out.Bias)
	}
	// Directional POCs bracket the price when both exist.
	if out.BullPOC != nil && out.BullPOC.POCPrice <= out.Price {
		t.Errorf("bull POC %v not above price %v", out.BullPOC.POCPrice, out.Price)
	}
	if out.BearPOC != nil && out.BearPOC.POCPrice >= out.Price {
		t.Errorf("bear POC %v not below price %v", out.BearPOC.POCPrice, out.Price)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseScores = [10]float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10} // increasing
	if _, err := New(cfg); err == nil {
		t.Fatalf("increasing base scores must be rejected")
	}

	cfg = DefaultConfig()
	delete(cfg.CategoryWeights, CatOptionsLevel)
	if _, err := New(cfg); err == nil {
		t.Fatalf("missing category weight must be rejected")
	}

	cfg = DefaultConfig()
	cfg.Ranks = RankThresholds{L2: 10, L3: 9, L4: 12, L5: 14}
	if _, err := New(cfg); err == nil {
		t.Fatalf("non-increasing rank thresholds must be rejected")
	}
}

func TestNewNormalizesPartialConfig(t *testing.T) {
	e, err := New(Config{})
	if err != nil {
		t.Fatalf("zero config should normalize to defaults: %v", err)
	}
	if e.Config().MaxZones != 5 {
		t.Fatalf("expected default max zones 5, got %d", e.Config().MaxZones)
	}
	if e.Config().BaseScores[0] != 10 {
		t.Fatalf("expected default base scores, got %v", e.Config().BaseScores)
	}
}
