package indicators

import "Epoch/internal/domain/models"

// SwingLevels scans for confirmed swing pivots with k bars on each side
// and returns the most recent swing low ("strong", defended demand) and
// swing high ("weak", rejected supply). Zero means no pivot confirmed
// in the series.
func SwingLevels(bars []models.Bar, k int) (strong, weak float64) {
	if k <= 0 || len(bars) < 2*k+1 {
		return 0, 0
	}
	for i := k; i < len(bars)-k; i++ {
		isLow, isHigh := true, true
		for j := i - k; j <= i+k; j++ {
			if j == i {
				continue
			}
			if bars[j].Low <= bars[i].Low {
				isLow = false
			}
			if bars[j].High >= bars[i].High {
				isHigh = false
			}
		}
		if isLow {
			strong = bars[i].Low
		}
		if isHigh {
			weak = bars[i].High
		}
	}
	return strong, weak
}

// StructureBias reads the composite direction off the daily structure:
// price above both daily levels is Bull, below both is Bear, otherwise
// Neutral. Missing levels push toward Neutral.
func StructureBias(price, dailyStrong, dailyWeak float64) models.Bias {
	if price <= 0 || dailyStrong <= 0 || dailyWeak <= 0 {
		return models.BiasNeutral
	}
	hi, lo := dailyWeak, dailyStrong
	if lo > hi {
		hi, lo = lo, hi
	}
	switch {
	case price > hi:
		return models.BiasBull
	case price < lo:
		return models.BiasBear
	default:
		return models.BiasNeutral
	}
}
