package usecase

import (
	"context"
	"fmt"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
	domsvc "Epoch/internal/domain/service"
	applogger "Epoch/pkg/logger"
	"Epoch/pkg/queue"
)

// GradeSetupMsgType is the queue message type for setup grading jobs.
const GradeSetupMsgType = "grade_setup"

// GradeJobPayload carries one setup plus the analysis it came from, so
// the grader can see bias and zone context.
type GradeJobPayload struct {
	Setup    models.TradeSetup   `json:"setup"`
	Analysis models.ZoneAnalysis `json:"analysis"`
}

// GradeSetupJob pulls grading jobs off the Redis queue, calls the LLM
// grading sidecar and persists the verdict.
type GradeSetupJob struct {
	grader  domsvc.SetupGrader
	zones   drepo.ZoneStore
	metrics drepo.Metrics
	l       *applogger.Logger
}

func NewGradeSetupJob(grader domsvc.SetupGrader, zones drepo.ZoneStore, metrics drepo.Metrics, l *applogger.Logger) *GradeSetupJob {
	return &GradeSetupJob{grader: grader, zones: zones, metrics: metrics, l: l}
}

func (j *GradeSetupJob) Name() string { return "grade-setup" }
func (j *GradeSetupJob) Type() string { return GradeSetupMsgType }

func (j *GradeSetupJob) Handle(ctx context.Context, payload interface{}) error {
	p, err := queue.ParsePayload[GradeJobPayload](payload)
	if err != nil {
		j.metrics.RecordError("grade_payload")
		return fmt.Errorf("grade payload: %w", err)
	}

	result, err := j.grader.Grade(ctx, p.Setup, p.Analysis)
	if err != nil {
		j.metrics.RecordError("grade_call")
		return fmt.Errorf("grade %s %s: %w", p.Setup.Ticker, p.Setup.Entry.POCID, err)
	}
	if err := j.zones.StoreGrades(ctx, []models.GradeResult{result}); err != nil {
		j.metrics.RecordError("grade_store")
		return fmt.Errorf("store grade: %w", err)
	}
	j.l.Info("setup graded",
		applogger.String("ticker", p.Setup.Ticker),
		applogger.String("poc", p.Setup.Entry.POCID),
		applogger.String("grade", result.Grade),
	)
	return nil
}

var _ queue.Job = (*GradeSetupJob)(nil)
