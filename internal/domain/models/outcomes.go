package models

import "time"

// OutcomeState is the terminal (or still-open) state of a backtested zone.
type OutcomeState string

const (
	OutcomeWin     OutcomeState = "win"
	OutcomeLoss    OutcomeState = "loss"
	OutcomeOpen    OutcomeState = "open"    // entry touched, neither target nor stop yet
	OutcomeNoTouch OutcomeState = "no_touch" // price never reached the zone
)

// ZoneOutcome records how one filtered zone resolved against subsequent
// bars. Consumed by the warehouse, the grading pipeline and the edge
// monitor.
type ZoneOutcome struct {
	Ticker        string
	Date          time.Time
	POCID         string
	Tier          Tier
	Rank          Rank
	Direction     Direction
	State         OutcomeState
	EntryAt       time.Time
	ResolvedAt    time.Time
	BarsToEntry   int
	BarsToResolve int
	RMultiple     float64 // realized reward in risk units, negative on loss
}

// GradeResult is the LLM grader's verdict for one trade setup.
type GradeResult struct {
	Ticker     string
	Date       time.Time
	POCID      string
	Kind       SetupKind
	Grade      string // "A".."F"
	Confidence float64
	Commentary string
	Model      string
	GradedAt   time.Time
}

// EdgeStat is one rolling aggregate row for a tier, produced by the edge
// monitor from warehouse outcomes.
type EdgeStat struct {
	Ticker       string
	Tier         Tier
	Window       int // number of most recent outcomes aggregated
	Trades       int
	Wins         int
	WinRate      float64
	Expectancy   float64 // mean R multiple
	BaselineRate float64
	Drift        bool // recent win rate fell below baseline by the configured margin
	ComputedAt   time.Time
}
