// Package engine implements the zone confluence core: it anchors a zone
// around each ranked HVN point of control, scores its overlap against
// every other technical level, ranks and tiers the result, filters by
// proximity to price, and eliminates overlapping zones keeping the
// highest-scoring survivors.
//
// The engine is pure, synchronous computation over immutable value
// objects. It performs no I/O and no logging, holds no mutable shared
// state, and is safe to call concurrently for different tickers.
package engine

import (
	"fmt"

	"Epoch/internal/domain/models"
)

// Engine runs the full zone pipeline with one fixed configuration. The
// config is read-only after New, so one Engine may be shared across
// goroutines.
type Engine struct {
	cfg Config
}

// New validates the configuration and returns a ready engine.
func New(cfg Config) (*Engine, error) {
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Analyze runs the whole pipeline for one ticker and analysis date:
// level set, POC candidates, confluence scoring, filtering, directional
// POC selection and setup assembly.
//
// Missing level fields, empty POC slots and degenerate ATRs all degrade
// gracefully; only a missing ticker or a non-positive price errors.
func (e *Engine) Analyze(snap models.BarSnapshot, structure models.MarketStructure) (models.ZoneAnalysis, error) {
	if snap.Ticker == "" {
		return models.ZoneAnalysis{}, ErrNoTicker
	}
	if snap.Price <= 0 {
		return models.ZoneAnalysis{}, fmt.Errorf("%w: ticker %s price %.4f", ErrInvalidPrice, snap.Ticker, snap.Price)
	}

	levels := BuildLevels(snap, structure, e.cfg)
	candidates := BuildCandidates(snap, e.cfg)

	scored := make([]models.ScoredZone, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, ScoreCandidate(c, levels, e.cfg))
	}

	zones := FilterAndRank(scored, snap.Price, snap.D1ATR, e.cfg)
	bull, bear := MarkDirectionalPOCs(zones, snap.Price)

	return models.ZoneAnalysis{
		Ticker:  snap.Ticker,
		Date:    snap.Date,
		Price:   snap.Price,
		Bias:    structure.Bias,
		Zones:   zones,
		BullPOC: bull,
		BearPOC: bear,
		Setups:  BuildSetups(snap, structure.Bias, bull, bear, e.cfg),
	}, nil
}
