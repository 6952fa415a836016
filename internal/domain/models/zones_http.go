package models

import "time"

// Requests for the zones API endpoints. Defined in domain for consistency and reuse.

type ZonesRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,alphanum,uppercase,max=10"`
	Tier   string `query:"tier" json:"tier" default:"" validate:"omitempty,oneof=T1 T2 T3"`
	Limit  int    `query:"limit" json:"limit" default:"10" validate:"gte=1,lte=50"`
}

type SetupsRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,alphanum,uppercase,max=10"`
	Kind   string `query:"kind" json:"kind" default:"" validate:"omitempty,oneof=Primary Secondary"`
}

type EdgeRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,alphanum,uppercase,max=10"`
	Window int    `query:"window" json:"window" default:"50" validate:"gte=10,lte=1000"`
}

type BarsRequest struct {
	Ticker string `param:"ticker" json:"ticker" validate:"required,alphanum,uppercase,max=10"`
	TF     string `query:"tf" json:"tf" default:"1d" validate:"omitempty,oneof=5m 15m 1h 4h 1d 1w 1mo"`
	From   string `query:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	To     string `query:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Limit  int    `query:"limit" json:"limit" default:"500" validate:"gte=1,lte=50000"`
}

// Response payloads mirror the domain shapes under stable wire names.
// The domain structs themselves carry no transport tags.

type ZonePayload struct {
	POCID          string             `json:"poc_id"`
	POCRank        int                `json:"poc_rank"`
	POCPrice       float64            `json:"poc_price"`
	ZoneHigh       float64            `json:"zone_high"`
	ZoneLow        float64            `json:"zone_low"`
	BaseScore      float64            `json:"base_score"`
	OverlapCount   int                `json:"overlap_count"`
	BucketScores   map[string]float64 `json:"bucket_scores,omitempty"`
	TotalScore     float64            `json:"total_score"`
	Rank           Rank               `json:"rank"`
	Confluence     []string           `json:"confluence,omitempty"`
	Tier           Tier               `json:"tier"`
	ATRDistance    float64            `json:"atr_distance"`
	ProximityGroup int                `json:"proximity_group"`
	IsBullPOC      bool               `json:"is_bull_poc"`
	IsBearPOC      bool               `json:"is_bear_poc"`
}

func NewZonePayload(z FilteredZone) ZonePayload {
	return ZonePayload{
		POCID:          z.POCID,
		POCRank:        z.POCRank,
		POCPrice:       z.POCPrice,
		ZoneHigh:       z.ZoneHigh,
		ZoneLow:        z.ZoneLow,
		BaseScore:      z.BaseScore,
		OverlapCount:   z.OverlapCount,
		BucketScores:   z.BucketScores,
		TotalScore:     z.TotalScore,
		Rank:           z.Rank,
		Confluence:     z.OverlappingLevels,
		Tier:           z.Tier,
		ATRDistance:    z.ATRDistance,
		ProximityGroup: z.ProximityGroup,
		IsBullPOC:      z.IsBullPOC,
		IsBearPOC:      z.IsBearPOC,
	}
}

func NewZonePayloads(zones []FilteredZone) []ZonePayload {
	out := make([]ZonePayload, len(zones))
	for i, z := range zones {
		out[i] = NewZonePayload(z)
	}
	return out
}

type SetupPayload struct {
	Ticker      string      `json:"ticker"`
	Kind        SetupKind   `json:"kind"`
	Direction   Direction   `json:"direction"`
	Entry       ZonePayload `json:"entry"`
	Target      ZonePayload `json:"target"`
	EntryPrice  float64     `json:"entry_price"`
	StopPrice   float64     `json:"stop_price"`
	TargetPrice float64     `json:"target_price"`
	RiskReward  float64     `json:"risk_reward"`
}

func NewSetupPayload(s TradeSetup) SetupPayload {
	return SetupPayload{
		Ticker:      s.Ticker,
		Kind:        s.Kind,
		Direction:   s.Direction,
		Entry:       NewZonePayload(s.Entry),
		Target:      NewZonePayload(s.Target),
		EntryPrice:  s.EntryPrice,
		StopPrice:   s.StopPrice,
		TargetPrice: s.TargetPrice,
		RiskReward:  s.RiskReward,
	}
}

func NewSetupPayloads(setups []TradeSetup) []SetupPayload {
	out := make([]SetupPayload, len(setups))
	for i, s := range setups {
		out[i] = NewSetupPayload(s)
	}
	return out
}

type EdgeStatPayload struct {
	Ticker       string    `json:"ticker"`
	Tier         Tier      `json:"tier"`
	Window       int       `json:"window"`
	Trades       int       `json:"trades"`
	Wins         int       `json:"wins"`
	WinRate      float64   `json:"win_rate"`
	Expectancy   float64   `json:"expectancy"`
	BaselineRate float64   `json:"baseline_rate"`
	Drift        bool      `json:"drift"`
	ComputedAt   time.Time `json:"computed_at"`
}

func NewEdgeStatPayloads(stats []EdgeStat) []EdgeStatPayload {
	out := make([]EdgeStatPayload, len(stats))
	for i, s := range stats {
		out[i] = EdgeStatPayload{
			Ticker:       s.Ticker,
			Tier:         s.Tier,
			Window:       s.Window,
			Trades:       s.Trades,
			Wins:         s.Wins,
			WinRate:      s.WinRate,
			Expectancy:   s.Expectancy,
			BaselineRate: s.BaselineRate,
			Drift:        s.Drift,
			ComputedAt:   s.ComputedAt,
		}
	}
	return out
}

type BarPayload struct {
	Bucket time.Time `json:"bucket"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

type BarsPayload struct {
	Ticker    string       `json:"ticker"`
	Timeframe string       `json:"timeframe"`
	From      time.Time    `json:"from"`
	To        time.Time    `json:"to"`
	Count     int          `json:"count"`
	Bars      []BarPayload `json:"bars"`
}

func NewBarsPayload(ticker, tf string, from, to time.Time, bars []Bar) BarsPayload {
	out := make([]BarPayload, len(bars))
	for i, b := range bars {
		out[i] = BarPayload{
			Bucket: b.Bucket,
			Open:   b.Open,
			High:   b.High,
			Low:    b.Low,
			Close:  b.Close,
			Volume: b.Volume,
		}
	}
	return BarsPayload{Ticker: ticker, Timeframe: tf, From: from, To: to, Count: len(bars), Bars: out}
}
