package indicators

// VolumeDelta estimates per-bar buy/sell imbalance from close position
// within the bar's range: a close at the high counts the full volume as
// buying, at the low as selling, in between proportionally.
func VolumeDelta(high, low, close, volume float64) float64 {
	r := high - low
	if r <= 0 || volume <= 0 {
		return 0
	}
	buyFrac := (close - low) / r
	return volume * (2*buyFrac - 1)
}

// CVD returns the cumulative volume delta series aligned to the input
// bars, using the close-position delta estimate above.
func CVD(highs, lows, closes, volumes []float64) []float64 {
	n := len(closes)
	if n == 0 || len(highs) != n || len(lows) != n || len(volumes) != n {
		return nil
	}
	out := make([]float64, n)
	var cum float64
	for i := 0; i < n; i++ {
		cum += VolumeDelta(highs[i], lows[i], closes[i], volumes[i])
		out[i] = cum
	}
	return out
}
