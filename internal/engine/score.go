package engine

import (
	"sort"

	"Epoch/internal/domain/models"
)

// ScoreCandidate scans the level set for interval overlap and aggregates
// the candidate's confluence score.
//
// Two rules are load-bearing and must not drift:
//   - overlap is strict: a zone touching a level exactly at an endpoint
//     does not count;
//   - weights never stack within a category: five overlapping daily
//     Camarilla levels contribute only the single highest weight.
func ScoreCandidate(c models.CandidateZone, levels []models.TechnicalLevel, cfg Config) models.ScoredZone {
	z := models.ScoredZone{
		CandidateZone: c,
		BucketScores:  make(map[string]float64),
	}
	for _, lvl := range levels {
		if !c.Overlaps(lvl.Low(), lvl.High()) {
			continue
		}
		z.OverlapCount++
		z.OverlappingLevels = append(z.OverlappingLevels, lvl.ID)
		if lvl.Weight > z.BucketScores[lvl.Category] {
			z.BucketScores[lvl.Category] = lvl.Weight
		}
	}
	// Sum buckets in sorted category order. Map iteration order is
	// randomized and float addition is not associative, so an unordered
	// sum gives bit-different totals across runs for the same inputs.
	cats := make([]string, 0, len(z.BucketScores))
	for cat := range z.BucketScores {
		cats = append(cats, cat)
	}
	sort.Strings(cats)
	z.TotalScore = c.BaseScore
	for _, cat := range cats {
		z.TotalScore += z.BucketScores[cat]
	}
	z.Rank = rankForScore(z.TotalScore, cfg.Ranks)
	return z
}

// rankForScore walks the descending threshold table and returns the
// first rank whose threshold is met, defaulting to L1. Total over all
// scores: every score maps to exactly one rank.
func rankForScore(score float64, t RankThresholds) models.Rank {
	switch {
	case score >= t.L5:
		return models.RankL5
	case score >= t.L4:
		return models.RankL4
	case score >= t.L3:
		return models.RankL3
	case score >= t.L2:
		return models.RankL2
	default:
		return models.RankL1
	}
}
