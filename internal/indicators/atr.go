// Package indicators holds the pure calculators the snapshot builder
// runs over raw bars: ATR, SMA/VWAP, Camarilla pivots, volume delta and
// CVD, HVN volume profile and market-structure levels. Everything here
// is arithmetic over in-memory series; no I/O, no state.
package indicators

import (
	"math"

	"Epoch/internal/domain/models"
)

// ATR computes the Wilder-smoothed average true range over the given
// period. Requires at least period+1 bars; returns 0 when data is
// insufficient (callers treat 0 as "not available").
func ATR(bars []models.Bar, period int) float64 {
	if period <= 0 || len(bars) < period+1 {
		return 0
	}

	trs := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		trs = append(trs, trueRange(bars[i], bars[i-1].Close))
	}

	// Seed with the simple mean of the first period, then Wilder-smooth.
	var atr float64
	for i := 0; i < period; i++ {
		atr += trs[i]
	}
	atr /= float64(period)
	for i := period; i < len(trs); i++ {
		atr = (atr*float64(period-1) + trs[i]) / float64(period)
	}
	return atr
}

func trueRange(b models.Bar, prevClose float64) float64 {
	hl := b.High - b.Low
	hc := math.Abs(b.High - prevClose)
	lc := math.Abs(b.Low - prevClose)
	return math.Max(hl, math.Max(hc, lc))
}
