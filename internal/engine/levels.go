package engine

import (
	"fmt"

	"Epoch/internal/domain/models"
)

// ATR timeframes used to size level half-widths.
const (
	atrM5  = "m5"
	atrM15 = "m15"
	atrH1  = "h1"
	atrD1  = "d1"
)

// atrFloor is the last-resort ATR when every fallback is exhausted. It
// guarantees a non-zero half-width; a zero-width level could never
// overlap anything and would silently drop out of confluence.
const atrFloor = 1.0

// levelSpec describes one technical level: its stable id, scoring
// category, the ATR timeframe sizing its half-width, and how to read its
// price off the inputs.
type levelSpec struct {
	id       string
	category string
	atrTF    string
	value    func(models.BarSnapshot, models.MarketStructure) float64
}

// levelSpecs is the full static level inventory. Order matters: it fixes
// the order levels are tested during scoring, which keeps the
// overlapping-level lists deterministic.
var levelSpecs = buildLevelSpecs()

func buildLevelSpecs() []levelSpec {
	specs := make([]levelSpec, 0, 64)

	ohlc := func(pick func(models.BarSnapshot) models.OHLC, prefix, category, tf string, ids [4]string) {
		fields := [4]func(models.OHLC) float64{
			func(o models.OHLC) float64 { return o.Open },
			func(o models.OHLC) float64 { return o.High },
			func(o models.OHLC) float64 { return o.Low },
			func(o models.OHLC) float64 { return o.Close },
		}
		for i := range fields {
			f := fields[i]
			specs = append(specs, levelSpec{
				id:       prefix + ids[i],
				category: category,
				atrTF:    tf,
				value:    func(s models.BarSnapshot, _ models.MarketStructure) float64 { return f(pick(s)) },
			})
		}
	}

	current := [4]string{"01", "02", "03", "04"}
	prior := [4]string{"po", "ph", "pl", "pc"}

	// Current-period OHLC.
	ohlc(func(s models.BarSnapshot) models.OHLC { return s.Monthly }, "m1_", CatMonthlyOHLC, atrD1, current)
	ohlc(func(s models.BarSnapshot) models.OHLC { return s.Weekly }, "w1_", CatWeeklyOHLC, atrD1, current)
	ohlc(func(s models.BarSnapshot) models.OHLC { return s.Daily }, "d1_", CatDailyOHLC, atrH1, current)

	// Prior-period OHLC.
	ohlc(func(s models.BarSnapshot) models.OHLC { return s.PriorMonthly }, "m1_", CatPriorMonthly, atrD1, prior)
	ohlc(func(s models.BarSnapshot) models.OHLC { return s.PriorWeekly }, "w1_", CatPriorWeekly, atrD1, prior)
	ohlc(func(s models.BarSnapshot) models.OHLC { return s.PriorDaily }, "d1_", CatPriorDaily, atrH1, prior)

	// Overnight range.
	specs = append(specs,
		levelSpec{"on_h", CatOvernight, atrM15, func(s models.BarSnapshot, _ models.MarketStructure) float64 { return s.OvernightHigh }},
		levelSpec{"on_l", CatOvernight, atrM15, func(s models.BarSnapshot, _ models.MarketStructure) float64 { return s.OvernightLow }},
	)

	// Options strike levels op_01..op_10.
	for i := 0; i < 10; i++ {
		idx := i
		specs = append(specs, levelSpec{
			id:       fmt.Sprintf("op_%02d", idx+1),
			category: CatOptionsLevel,
			atrTF:    atrM15,
			value:    func(s models.BarSnapshot, _ models.MarketStructure) float64 { return s.OptionStrikes[idx] },
		})
	}

	// Camarilla pivots, six per timeframe.
	cam := func(pick func(models.BarSnapshot) models.Camarilla, prefix, category, tf string) {
		names := []string{"s6", "s4", "s3", "r3", "r4", "r6"}
		fields := []func(models.Camarilla) float64{
			func(c models.Camarilla) float64 { return c.S6 },
			func(c models.Camarilla) float64 { return c.S4 },
			func(c models.Camarilla) float64 { return c.S3 },
			func(c models.Camarilla) float64 { return c.R3 },
			func(c models.Camarilla) float64 { return c.R4 },
			func(c models.Camarilla) float64 { return c.R6 },
		}
		for i := range names {
			f := fields[i]
			specs = append(specs, levelSpec{
				id:       prefix + names[i],
				category: category,
				atrTF:    tf,
				value:    func(s models.BarSnapshot, _ models.MarketStructure) float64 { return f(pick(s)) },
			})
		}
	}
	cam(func(s models.BarSnapshot) models.Camarilla { return s.DailyCam }, "d1_", CatDailyCam, atrH1)
	cam(func(s models.BarSnapshot) models.Camarilla { return s.WeeklyCam }, "w1_", CatWeeklyCam, atrD1)
	cam(func(s models.BarSnapshot) models.Camarilla { return s.MonthlyCam }, "m1_", CatMonthlyCam, atrD1)

	// Market-structure strong/weak levels.
	ms := func(id, category, tf string, f func(models.MarketStructure) float64) {
		specs = append(specs, levelSpec{
			id:       id,
			category: category,
			atrTF:    tf,
			value:    func(_ models.BarSnapshot, m models.MarketStructure) float64 { return f(m) },
		})
	}
	ms("d1_s", CatStructureD1, atrH1, func(m models.MarketStructure) float64 { return m.DailyStrong })
	ms("d1_w", CatStructureD1, atrH1, func(m models.MarketStructure) float64 { return m.DailyWeak })
	ms("h4_s", CatStructureH4, atrH1, func(m models.MarketStructure) float64 { return m.H4Strong })
	ms("h4_w", CatStructureH4, atrH1, func(m models.MarketStructure) float64 { return m.H4Weak })
	ms("h1_s", CatStructureH1, atrM15, func(m models.MarketStructure) float64 { return m.H1Strong })
	ms("h1_w", CatStructureH1, atrM15, func(m models.MarketStructure) float64 { return m.H1Weak })
	ms("m15_s", CatStructureM15, atrM5, func(m models.MarketStructure) float64 { return m.M15Strong })
	ms("m15_w", CatStructureM15, atrM5, func(m models.MarketStructure) float64 { return m.M15Weak })

	return specs
}

// resolveATR returns a positive ATR for the requested timeframe, walking
// the fallback chain when the configured value is missing or degenerate:
// m15 -> h1 -> d1/4 -> 1.0, and m5 -> m15/2.
func resolveATR(tf string, s models.BarSnapshot) float64 {
	switch tf {
	case atrM5:
		if s.M5ATR > 0 {
			return s.M5ATR
		}
		return resolveATR(atrM15, s) / 2
	case atrM15:
		if s.M15ATR > 0 {
			return s.M15ATR
		}
		if s.H1ATR > 0 {
			return s.H1ATR
		}
		if s.D1ATR > 0 {
			return s.D1ATR / 4
		}
		return atrFloor
	case atrH1:
		if s.H1ATR > 0 {
			return s.H1ATR
		}
		if s.D1ATR > 0 {
			return s.D1ATR / 4
		}
		return atrFloor
	case atrD1:
		if s.D1ATR > 0 {
			return s.D1ATR
		}
		return atrFloor
	default:
		return atrFloor
	}
}

// BuildLevels expands every present level field into a TechnicalLevel.
// Zero-valued source fields are skipped: a level that does not exist
// cannot contribute confluence. The returned slice preserves spec-table
// order so scoring stays deterministic.
func BuildLevels(snap models.BarSnapshot, structure models.MarketStructure, cfg Config) []models.TechnicalLevel {
	levels := make([]models.TechnicalLevel, 0, len(levelSpecs))
	for _, spec := range levelSpecs {
		price := spec.value(snap, structure)
		if price <= 0 {
			continue
		}
		levels = append(levels, models.TechnicalLevel{
			ID:        spec.id,
			Midpoint:  price,
			HalfWidth: resolveATR(spec.atrTF, snap) * cfg.LevelWidthFactor,
			Category:  spec.category,
			Weight:    cfg.CategoryWeights[spec.category],
		})
	}
	return levels
}
