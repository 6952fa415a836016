package engine

import (
	"fmt"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
)

// Level categories. Each technical level belongs to exactly one; weights
// never stack within a category.
const (
	CatMonthlyOHLC  = "monthly_ohlc"
	CatWeeklyOHLC   = "weekly_ohlc"
	CatDailyOHLC    = "daily_ohlc"
	CatPriorMonthly = "prior_monthly"
	CatPriorWeekly  = "prior_weekly"
	CatPriorDaily   = "prior_daily"
	CatOvernight    = "overnight"
	CatOptionsLevel = "options_level"
	CatDailyCam     = "daily_cam"
	CatWeeklyCam    = "weekly_cam"
	CatMonthlyCam   = "monthly_cam"
	CatStructureD1  = "market_structure_daily"
	CatStructureH4  = "market_structure_h4"
	CatStructureH1  = "market_structure_h1"
	CatStructureM15 = "market_structure_m15"
)

// RankThresholds are the minimum total scores for L2..L5. Scores below L2
// rank L1. Must be strictly increasing.
type RankThresholds struct {
	L2 float64 `yaml:"l2" default:"8" validate:"gt=0"`
	L3 float64 `yaml:"l3" default:"10" validate:"gtfield=L2"`
	L4 float64 `yaml:"l4" default:"12" validate:"gtfield=L3"`
	L5 float64 `yaml:"l5" default:"14" validate:"gtfield=L4"`
}

// Proximity holds the near/far cutoffs in daily-ATR units. Zones beyond
// Far are excluded outright.
type Proximity struct {
	Near float64 `yaml:"near" default:"2" validate:"gt=0"`
	Far  float64 `yaml:"far" default:"4" validate:"gtefield=Near"`
}

// Config is the engine's full tuning surface. Everything that shapes a
// score, rank or filter decision lives here so it can be changed without
// touching engine code.
type Config struct {
	// CategoryWeights maps level category to its confluence weight.
	CategoryWeights map[string]float64 `yaml:"category_weights" validate:"required,dive,gt=0"`

	// BaseScores indexes POC rank-1 to rank-10 base scores; must be
	// monotonically non-increasing.
	BaseScores [10]float64 `yaml:"base_scores"`

	Ranks     RankThresholds `yaml:"rank_thresholds"`
	Proximity Proximity      `yaml:"proximity_atr"`

	MaxZones int `yaml:"max_zones" default:"5" validate:"gte=1,lte=50"`

	// LevelWidthFactor scales a level's resolved ATR into its half-width.
	LevelWidthFactor float64 `yaml:"level_width_factor" default:"0.5" validate:"gt=0"`

	// Setup assembly tuning.
	StopBufferATR float64 `yaml:"stop_buffer_atr" default:"0.25" validate:"gte=0"`
	MinRiskReward float64 `yaml:"min_risk_reward" default:"1.5" validate:"gte=0"`
}

var validate = validator.New()

// DefaultConfig returns the production defaults. Scalar defaults come
// from struct tags; table defaults are filled here because the defaults
// library does not reach into maps and arrays.
func DefaultConfig() Config {
	var c Config
	_ = defaults.Set(&c)
	c.CategoryWeights = map[string]float64{
		CatMonthlyOHLC:  2.5,
		CatWeeklyOHLC:   2.0,
		CatDailyOHLC:    1.5,
		CatPriorMonthly: 2.0,
		CatPriorWeekly:  1.5,
		CatPriorDaily:   1.0,
		CatOvernight:    1.0,
		CatOptionsLevel: 2.0,
		CatDailyCam:     1.0,
		CatWeeklyCam:    1.5,
		CatMonthlyCam:   2.0,
		CatStructureD1:  3.0,
		CatStructureH4:  2.5,
		CatStructureH1:  2.0,
		CatStructureM15: 1.5,
	}
	c.BaseScores = [10]float64{10, 9, 8, 7, 6, 5, 4, 3, 2, 1}
	return c
}

// Normalize fills zero-valued tables and scalars from the defaults so a
// partially specified YAML section still yields a workable config.
func (c *Config) Normalize() {
	def := DefaultConfig()
	if err := defaults.Set(c); err != nil {
		// struct tags are static; Set only fails on non-pointer input
		panic(fmt.Sprintf("engine config defaults: %v", err))
	}
	if len(c.CategoryWeights) == 0 {
		c.CategoryWeights = def.CategoryWeights
	}
	var zero [10]float64
	if c.BaseScores == zero {
		c.BaseScores = def.BaseScores
	}
}

// Validate checks the config invariants the scoring pipeline relies on.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("engine config: %w", err)
	}
	for i := 1; i < len(c.BaseScores); i++ {
		if c.BaseScores[i] > c.BaseScores[i-1] {
			return fmt.Errorf("engine config: base_scores must be non-increasing, rank %d > rank %d", i+1, i)
		}
	}
	if c.BaseScores[0] <= 0 {
		return fmt.Errorf("engine config: base_scores[0] must be positive")
	}
	for _, spec := range levelSpecs {
		if _, ok := c.CategoryWeights[spec.category]; !ok {
			return fmt.Errorf("engine config: missing weight for category %q", spec.category)
		}
	}
	return nil
}
