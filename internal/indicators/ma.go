package indicators

import "Epoch/internal/domain/models"

// SMA returns the simple moving average of the last period closes, 0
// when data is insufficient.
func SMA(bars []models.Bar, period int) float64 {
	if period <= 0 || len(bars) < period {
		return 0
	}
	var sum float64
	for _, b := range bars[len(bars)-period:] {
		sum += b.Close
	}
	return sum / float64(period)
}

// VWAP returns the volume-weighted average typical price over the whole
// slice (one session's bars), 0 when volume is absent.
func VWAP(bars []models.Bar) float64 {
	var sumPV, sumV float64
	for _, b := range bars {
		tp := (b.High + b.Low + b.Close) / 3
		sumPV += tp * b.Volume
		sumV += b.Volume
	}
	if sumV == 0 {
		return 0
	}
	return sumPV / sumV
}
