package usecase

import (
	"context"
	"testing"

	"Epoch/internal/domain/models"
)

func tieredZone(tier models.Tier) models.FilteredZone {
	z := models.FilteredZone{Tier: tier}
	z.POCID = "hvn_poc1"
	return z
}

func TestLatestZonesTierFilter(t *testing.T) {
	zones := newFakeZoneStore()
	zones.zoneList = []models.FilteredZone{
		tieredZone(models.TierT1),
		tieredZone(models.TierT2),
		tieredZone(models.TierT1),
	}
	uc := NewDashboardUseCase(zones, nil)

	all, err := uc.LatestZones(context.Background(), "SPY", "", 10)
	if err != nil {
		t.Fatalf("latest zones: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("zones = %d, want 3", len(all))
	}

	zones.zoneList = []models.FilteredZone{
		tieredZone(models.TierT1),
		tieredZone(models.TierT2),
		tieredZone(models.TierT1),
	}
	t1, err := uc.LatestZones(context.Background(), "SPY", "T1", 10)
	if err != nil {
		t.Fatalf("latest zones: %v", err)
	}
	if len(t1) != 2 {
		t.Fatalf("T1 zones = %d, want 2", len(t1))
	}
}

func TestLatestZonesRequiresTicker(t *testing.T) {
	uc := NewDashboardUseCase(newFakeZoneStore(), nil)
	if _, err := uc.LatestZones(context.Background(), "", "", 10); err == nil {
		t.Fatalf("expected error for empty ticker")
	}
}

func TestLatestSetupsKindFilter(t *testing.T) {
	zones := newFakeZoneStore()
	zones.setupList = []models.TradeSetup{
		{Kind: models.SetupPrimary},
		{Kind: models.SetupSecondary},
	}
	uc := NewDashboardUseCase(zones, nil)

	primary, err := uc.LatestSetups(context.Background(), "SPY", "Primary")
	if err != nil {
		t.Fatalf("latest setups: %v", err)
	}
	if len(primary) != 1 || primary[0].Kind != models.SetupPrimary {
		t.Fatalf("primary filter wrong: %v", primary)
	}
}

func TestEdgeDelegatesToValidator(t *testing.T) {
	zones := newFakeZoneStore()
	zones.recent[models.TierT1] = outcomesWithRate(3, 1)
	edge := NewEdgeMonitor(zones, newFakeMetrics(), newTestLogger(), EdgeConfig{BaselineRate: 0.55}, nil)
	uc := NewDashboardUseCase(zones, edge)

	stats, err := uc.Edge(context.Background(), "SPY", 20)
	if err != nil {
		t.Fatalf("edge: %v", err)
	}
	if len(stats) != 1 {
		t.Fatalf("stats = %d, want 1", len(stats))
	}
}
