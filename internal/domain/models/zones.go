package models

import "time"

// Rank is the five-level confluence bucket, L5 strongest.
type Rank string

const (
	RankL1 Rank = "L1"
	RankL2 Rank = "L2"
	RankL3 Rank = "L3"
	RankL4 Rank = "L4"
	RankL5 Rank = "L5"
)

// Ordinal returns the rank's position in L1..L5 (1..5), 0 for unknown.
func (r Rank) Ordinal() int {
	switch r {
	case RankL1:
		return 1
	case RankL2:
		return 2
	case RankL3:
		return 3
	case RankL4:
		return 4
	case RankL5:
		return 5
	default:
		return 0
	}
}

// Tier is the coarse three-level quality bucket used for display and
// filtering, derived from Rank.
type Tier string

const (
	TierT1 Tier = "T1"
	TierT2 Tier = "T2"
	TierT3 Tier = "T3"
)

// TechnicalLevel is one named technical reference price expanded into a
// priced interval. Built fresh per ticker and analysis date, immutable.
type TechnicalLevel struct {
	ID        string // stable key, e.g. "d1_s3", "op_04", "h1_s"
	Midpoint  float64
	HalfWidth float64 // always > 0; degenerate ATRs fall back, never to zero
	Category  string  // scoring bucket, e.g. "prior_daily", "options_level"
	Weight    float64
}

func (l TechnicalLevel) High() float64 { return l.Midpoint + l.HalfWidth }
func (l TechnicalLevel) Low() float64  { return l.Midpoint - l.HalfWidth }

// CandidateZone is one ranked HVN POC expanded into a candidate zone of
// fixed half-width.
type CandidateZone struct {
	POCID     string // "hvn_poc1".."hvn_poc10"
	POCRank   int    // 1 = highest volume
	POCPrice  float64
	ZoneHigh  float64
	ZoneLow   float64
	BaseScore float64
}

// Midpoint returns the zone's center price.
func (z CandidateZone) Midpoint() float64 { return (z.ZoneHigh + z.ZoneLow) / 2 }

// Overlaps reports strict interval overlap with [low, high]. Touching at
// an endpoint is not overlap; historical scores depend on this boundary.
func (z CandidateZone) Overlaps(low, high float64) bool {
	return z.ZoneLow < high && z.ZoneHigh > low
}

// ScoredZone is a CandidateZone plus its confluence result.
type ScoredZone struct {
	CandidateZone

	OverlapCount int
	// BucketScores maps category to the max weight touched in that
	// category; absent categories contributed nothing.
	BucketScores map[string]float64
	TotalScore   float64
	Rank         Rank
	// OverlappingLevels lists the ids of confluent levels in the order
	// they were tested, for human-readable descriptions.
	OverlappingLevels []string
}

// FilteredZone is a ScoredZone that survived proximity filtering and
// overlap elimination, with its ticker-relative placement attached.
type FilteredZone struct {
	ScoredZone

	Tier           Tier
	ATRDistance    float64 // |midpoint - price| / d1 ATR
	ProximityGroup int     // 1 = near, 2 = far
	IsBullPOC      bool
	IsBearPOC      bool
}

// ZoneAnalysis is the engine's terminal output for one ticker and date.
type ZoneAnalysis struct {
	Ticker string
	Date   time.Time
	Price  float64
	Bias   Bias

	Zones   []FilteredZone
	BullPOC *FilteredZone // nearest surviving zone above price, nil if none
	BearPOC *FilteredZone // nearest surviving zone below price, nil if none
	Setups  []TradeSetup
}
