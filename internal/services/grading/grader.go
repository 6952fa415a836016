package grading

import (
	"context"
	"fmt"
	"time"

	"Epoch/internal/domain/models"
	domsvc "Epoch/internal/domain/service"
	"Epoch/pkg/config"
)

// HTTPSetupGrader implements SetupGrader over the LLM grading sidecar.
type HTTPSetupGrader struct {
	base  *HTTPServiceBase
	model string
}

func NewHTTPSetupGrader(cfg *config.Config) *HTTPSetupGrader {
	return &HTTPSetupGrader{base: NewHTTPServiceBase(cfg), model: cfg.Grading.Model}
}

type gradeReq struct {
	Ticker     string   `json:"ticker"`
	Kind       string   `json:"kind"`
	Direction  string   `json:"direction"`
	EntryPrice float64  `json:"entry_price"`
	StopPrice  float64  `json:"stop_price"`
	Target     float64  `json:"target_price"`
	RiskReward float64  `json:"risk_reward"`
	ZoneRank   string   `json:"zone_rank"`
	ZoneTier   string   `json:"zone_tier"`
	ZoneScore  float64  `json:"zone_score"`
	Confluence []string `json:"confluence"`
	Bias       string   `json:"bias"`
	Model      string   `json:"model"`
}

type gradeResp struct {
	Grade      string  `json:"grade"`
	Confidence float64 `json:"confidence"`
	Commentary string  `json:"commentary"`
	Model      string  `json:"model"`
}

// Grade posts the setup context to the sidecar and returns its verdict.
func (s *HTTPSetupGrader) Grade(ctx context.Context, setup models.TradeSetup, analysis models.ZoneAnalysis) (models.GradeResult, error) {
	var gr gradeResp
	req := gradeReq{
		Ticker:     setup.Ticker,
		Kind:       string(setup.Kind),
		Direction:  string(setup.Direction),
		EntryPrice: setup.EntryPrice,
		StopPrice:  setup.StopPrice,
		Target:     setup.TargetPrice,
		RiskReward: setup.RiskReward,
		ZoneRank:   string(setup.Entry.Rank),
		ZoneTier:   string(setup.Entry.Tier),
		ZoneScore:  setup.Entry.TotalScore,
		Confluence: setup.Entry.OverlappingLevels,
		Bias:       string(analysis.Bias),
		Model:      s.model,
	}
	if err := s.base.PostJSONWithRetry(ctx, "/grade/setup", req, &gr, 3); err != nil {
		return models.GradeResult{}, fmt.Errorf("grade setup: %w", err)
	}
	return models.GradeResult{
		Ticker:     setup.Ticker,
		Date:       analysis.Date,
		POCID:      setup.Entry.POCID,
		Kind:       setup.Kind,
		Grade:      gr.Grade,
		Confidence: gr.Confidence,
		Commentary: gr.Commentary,
		Model:      gr.Model,
		GradedAt:   time.Now().UTC(),
	}, nil
}

var _ domsvc.SetupGrader = (*HTTPSetupGrader)(nil)
