package usecase

import (
	"context"
	"fmt"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
	domsvc "Epoch/internal/domain/service"
)

// DashboardUseCase serves the read side of the API: latest zones and
// setups from the warehouse, plus edge statistics.
type DashboardUseCase struct {
	zones drepo.ZoneStore
	edge  domsvc.EdgeValidator
}

func NewDashboardUseCase(zones drepo.ZoneStore, edge domsvc.EdgeValidator) *DashboardUseCase {
	return &DashboardUseCase{zones: zones, edge: edge}
}

// LatestZones returns the most recent zones for ticker, optionally
// filtered to one tier.
func (uc *DashboardUseCase) LatestZones(ctx context.Context, ticker, tier string, limit int) ([]models.FilteredZone, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	if limit <= 0 {
		limit = 10
	}
	zones, err := uc.zones.LatestZones(ctx, ticker, limit)
	if err != nil {
		return nil, fmt.Errorf("latest zones: %w", err)
	}
	if tier == "" {
		return zones, nil
	}
	filtered := zones[:0]
	for _, z := range zones {
		if string(z.Tier) == tier {
			filtered = append(filtered, z)
		}
	}
	return filtered, nil
}

// LatestSetups returns the most recent setups for ticker, optionally
// filtered to one kind.
func (uc *DashboardUseCase) LatestSetups(ctx context.Context, ticker, kind string) ([]models.TradeSetup, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	setups, err := uc.zones.LatestSetups(ctx, ticker)
	if err != nil {
		return nil, fmt.Errorf("latest setups: %w", err)
	}
	if kind == "" {
		return setups, nil
	}
	filtered := setups[:0]
	for _, s := range setups {
		if string(s.Kind) == kind {
			filtered = append(filtered, s)
		}
	}
	return filtered, nil
}

// Edge returns rolling edge statistics for ticker.
func (uc *DashboardUseCase) Edge(ctx context.Context, ticker string, window int) ([]models.EdgeStat, error) {
	if ticker == "" {
		return nil, fmt.Errorf("ticker required")
	}
	stats, err := uc.edge.Validate(ctx, ticker, window)
	if err != nil {
		return nil, fmt.Errorf("edge: %w", err)
	}
	return stats, nil
}
