package engine

import (
	"math"
	"sort"

	"Epoch/internal/domain/models"
)

// TierForRank maps the five-level rank to the coarse display tier.
func TierForRank(r models.Rank) models.Tier {
	switch r {
	case models.RankL1, models.RankL2:
		return models.TierT1
	case models.RankL3:
		return models.TierT2
	default:
		return models.TierT3
	}
}

// FilterAndRank runs the per-ticker zone selection: tier attach,
// proximity filter, the load-bearing sort, then greedy overlap
// elimination up to cfg.MaxZones.
//
// A degenerate daily ATR (<= 0) makes every distance infinite, so all
// zones are excluded. An empty result is a normal outcome ("no setups
// today"), not an error.
func FilterAndRank(scored []models.ScoredZone, price, d1ATR float64, cfg Config) []models.FilteredZone {
	zones := make([]models.FilteredZone, 0, len(scored))
	for _, z := range scored {
		dist := math.Inf(1)
		if d1ATR > 0 {
			dist = math.Abs(z.Midpoint()-price) / d1ATR
		}
		var group int
		switch {
		case dist <= cfg.Proximity.Near:
			group = 1
		case dist <= cfg.Proximity.Far:
			group = 2
		default:
			// Beyond the far threshold: the only business-rule drop
			// before overlap elimination.
			continue
		}
		zones = append(zones, models.FilteredZone{
			ScoredZone:     z,
			Tier:           TierForRank(z.Rank),
			ATRDistance:    dist,
			ProximityGroup: group,
		})
	}

	// This ordering decides who wins the dedup pass below: group 1 beats
	// group 2 regardless of score, and score ties break by distance.
	sort.SliceStable(zones, func(i, j int) bool {
		if zones[i].ProximityGroup != zones[j].ProximityGroup {
			return zones[i].ProximityGroup < zones[j].ProximityGroup
		}
		if zones[i].TotalScore != zones[j].TotalScore {
			return zones[i].TotalScore > zones[j].TotalScore
		}
		return zones[i].ATRDistance < zones[j].ATRDistance
	})

	// Greedy elimination: walking in sorted order, a zone is kept only if
	// it overlaps nothing already kept. Once the cap is hit no later zone
	// can be appended, so scanning further cannot change the output and
	// the loop stops early.
	kept := make([]models.FilteredZone, 0, cfg.MaxZones)
	for _, z := range zones {
		if len(kept) >= cfg.MaxZones {
			break
		}
		if overlapsAny(z, kept) {
			continue
		}
		kept = append(kept, z)
	}
	return kept
}

func overlapsAny(z models.FilteredZone, kept []models.FilteredZone) bool {
	for _, k := range kept {
		if z.Overlaps(k.ZoneLow, k.ZoneHigh) {
			return true
		}
	}
	return false
}

// MarkDirectionalPOCs flags the nearest surviving zone strictly above
// price as the bull POC and the nearest strictly below as the bear POC,
// and returns copies of the flagged zones. At most one zone per side;
// price ties keep the first zone in list order.
func MarkDirectionalPOCs(zones []models.FilteredZone, price float64) (bull, bear *models.FilteredZone) {
	bullIdx, bearIdx := -1, -1
	for i, z := range zones {
		switch {
		case z.POCPrice > price:
			if bullIdx < 0 || z.POCPrice < zones[bullIdx].POCPrice {
				bullIdx = i
			}
		case z.POCPrice < price:
			if bearIdx < 0 || z.POCPrice > zones[bearIdx].POCPrice {
				bearIdx = i
			}
		}
	}
	if bullIdx >= 0 {
		zones[bullIdx].IsBullPOC = true
		b := zones[bullIdx]
		bull = &b
	}
	if bearIdx >= 0 {
		zones[bearIdx].IsBearPOC = true
		b := zones[bearIdx]
		bear = &b
	}
	return bull, bear
}
