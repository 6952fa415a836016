package models

// SetupKind distinguishes the bias-aligned setup from the counter side.
type SetupKind string

const (
	SetupPrimary   SetupKind = "Primary"
	SetupSecondary SetupKind = "Secondary"
)

// Direction is the trade side of a setup.
type Direction string

const (
	DirectionLong  Direction = "Long"
	DirectionShort Direction = "Short"
)

// TradeSetup pairs an entry zone with a target zone and the resulting
// risk:reward. Thin arithmetic over the engine output; no execution
// semantics attached.
type TradeSetup struct {
	Ticker    string
	Kind      SetupKind
	Direction Direction

	Entry  FilteredZone
	Target FilteredZone

	EntryPrice  float64
	StopPrice   float64
	TargetPrice float64
	RiskReward  float64
}
