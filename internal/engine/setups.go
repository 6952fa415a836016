package engine

import (
	"Epoch/internal/domain/models"
)

// BuildSetups assembles directional trade setups from the bull/bear POC
// pair. A long enters at the bear POC (nearest zone below price) and
// targets the bull POC; a short mirrors it. The stop sits beyond the
// entry zone's far edge by a 15-minute-ATR buffer.
//
// Both sides must exist to form either setup; a side with R:R below the
// configured minimum is discarded. The setup whose direction matches the
// composite bias is Primary; with a neutral bias the higher-R:R side is.
func BuildSetups(snap models.BarSnapshot, bias models.Bias, bull, bear *models.FilteredZone, cfg Config) []models.TradeSetup {
	if bull == nil || bear == nil {
		return nil
	}
	buffer := resolveATR(atrM15, snap) * cfg.StopBufferATR

	long := models.TradeSetup{
		Ticker:      snap.Ticker,
		Direction:   models.DirectionLong,
		Entry:       *bear,
		Target:      *bull,
		EntryPrice:  bear.POCPrice,
		StopPrice:   bear.ZoneLow - buffer,
		TargetPrice: bull.POCPrice,
	}
	long.RiskReward = riskReward(long.EntryPrice, long.StopPrice, long.TargetPrice)

	short := models.TradeSetup{
		Ticker:      snap.Ticker,
		Direction:   models.DirectionShort,
		Entry:       *bull,
		Target:      *bear,
		EntryPrice:  bull.POCPrice,
		StopPrice:   bull.ZoneHigh + buffer,
		TargetPrice: bear.POCPrice,
	}
	short.RiskReward = riskReward(short.EntryPrice, short.StopPrice, short.TargetPrice)

	primaryLong := bias == models.BiasBull
	if bias == models.BiasNeutral {
		primaryLong = long.RiskReward >= short.RiskReward
	}
	if primaryLong {
		long.Kind = models.SetupPrimary
		short.Kind = models.SetupSecondary
	} else {
		short.Kind = models.SetupPrimary
		long.Kind = models.SetupSecondary
	}

	setups := make([]models.TradeSetup, 0, 2)
	for _, s := range []models.TradeSetup{long, short} {
		if s.RiskReward >= cfg.MinRiskReward {
			setups = append(setups, s)
		}
	}
	// Primary first when both survive.
	if len(setups) == 2 && setups[0].Kind != models.SetupPrimary {
		setups[0], setups[1] = setups[1], setups[0]
	}
	return setups
}

// riskReward returns reward/risk for the given entry, stop and target.
// Zero when the risk side is degenerate.
func riskReward(entry, stop, target float64) float64 {
	risk := entry - stop
	if risk < 0 {
		risk = -risk
	}
	if risk == 0 {
		return 0
	}
	reward := target - entry
	if reward < 0 {
		reward = -reward
	}
	return reward / risk
}
