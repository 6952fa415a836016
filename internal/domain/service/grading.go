package service

import (
	"context"

	"Epoch/internal/domain/models"
)

// SetupGrader grades a trade setup against its zone context. Backed by
// an LLM sidecar; the core never depends on it.
type SetupGrader interface {
	Grade(ctx context.Context, setup models.TradeSetup, analysis models.ZoneAnalysis) (models.GradeResult, error)
}

// EdgeValidator computes rolling edge statistics for a ticker's tiers
// and flags drift against the configured baseline.
type EdgeValidator interface {
	Validate(ctx context.Context, ticker string, window int) ([]models.EdgeStat, error)
}
