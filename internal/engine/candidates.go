package engine

import (
	"fmt"

	"Epoch/internal/domain/models"
)

// BuildCandidates expands the snapshot's ranked HVN POCs into candidate
// zones of fixed half-width (15-minute ATR / 2, with the usual fallback).
// Empty POC slots are skipped, never zero-filled, so the result holds at
// most ten zones in rank order.
func BuildCandidates(snap models.BarSnapshot, cfg Config) []models.CandidateZone {
	half := resolveATR(atrM15, snap) / 2
	out := make([]models.CandidateZone, 0, len(snap.HVNPOCs))
	for i, price := range snap.HVNPOCs {
		if price <= 0 {
			continue
		}
		out = append(out, models.CandidateZone{
			POCID:     fmt.Sprintf("hvn_poc%d", i+1),
			POCRank:   i + 1,
			POCPrice:  price,
			ZoneHigh:  price + half,
			ZoneLow:   price - half,
			BaseScore: cfg.BaseScores[i],
		})
	}
	return out
}
