package models

import "time"

// Bar represents one OHLCV record at any timeframe.
type Bar struct {
	Bucket time.Time
	Ticker string
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// OHLC holds one period's open/high/low/close. A zero field means the
// value is not available, never an actual zero price.
type OHLC struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// Camarilla holds the six Camarilla pivot levels derived from one prior
// period's OHLC.
type Camarilla struct {
	S6 float64
	S4 float64
	S3 float64
	R3 float64
	R4 float64
	R6 float64
}

// BarSnapshot is the per-ticker, per-analysis-date input record the zone
// engine consumes. It is assembled by the snapshot builder from already
// fetched bars; the engine never touches raw bar series.
//
// All price and ATR fields use zero as "not available".
type BarSnapshot struct {
	Ticker string
	Date   time.Time
	Price  float64

	// Current-period OHLC.
	Monthly OHLC
	Weekly  OHLC
	Daily   OHLC

	// Prior-period OHLC.
	PriorMonthly OHLC
	PriorWeekly  OHLC
	PriorDaily   OHLC

	OvernightHigh float64
	OvernightLow  float64

	// HVN points of control, rank-ordered by volume (index 0 = rank 1).
	HVNPOCs [10]float64

	// Nearest options strike levels.
	OptionStrikes [10]float64

	DailyCam   Camarilla
	WeeklyCam  Camarilla
	MonthlyCam Camarilla

	M5ATR  float64
	M15ATR float64
	H1ATR  float64
	D1ATR  float64
}

// Bias is the composite directional read from market structure. The zone
// engine passes it through untouched; setup assembly uses it to pick the
// primary side.
type Bias string

const (
	BiasBull    Bias = "Bull"
	BiasBear    Bias = "Bear"
	BiasNeutral Bias = "Neutral"
)

// MarketStructure carries the strong/weak structural levels per ticker.
// Zero fields mean the level is not available.
type MarketStructure struct {
	DailyStrong float64
	DailyWeak   float64
	H4Strong    float64
	H4Weak      float64
	H1Strong    float64
	H1Weak      float64
	M15Strong   float64
	M15Weak     float64
	Bias        Bias
}
