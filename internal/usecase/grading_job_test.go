package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"Epoch/internal/domain/models"
)

type fakeGrader struct {
	result models.GradeResult
	err    error
}

func (g *fakeGrader) Grade(_ context.Context, setup models.TradeSetup, analysis models.ZoneAnalysis) (models.GradeResult, error) {
	if g.err != nil {
		return models.GradeResult{}, g.err
	}
	r := g.result
	r.Ticker = setup.Ticker
	r.Date = analysis.Date
	return r, nil
}

func TestGradeSetupJobPersistsVerdict(t *testing.T) {
	zones := newFakeZoneStore()
	job := NewGradeSetupJob(&fakeGrader{result: models.GradeResult{Grade: "B", Confidence: 0.7}}, zones, newFakeMetrics(), newTestLogger())

	payload := GradeJobPayload{
		Setup:    longSetup(),
		Analysis: models.ZoneAnalysis{Ticker: "SPY", Date: time.Now().UTC()},
	}
	if err := job.Handle(context.Background(), payload); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(zones.grades) != 1 {
		t.Fatalf("grades stored = %d, want 1", len(zones.grades))
	}
	if zones.grades[0].Grade != "B" {
		t.Fatalf("grade = %q, want B", zones.grades[0].Grade)
	}
}

func TestGradeSetupJobAcceptsMapPayload(t *testing.T) {
	// payloads come back from Redis as generic maps
	b, err := json.Marshal(GradeJobPayload{Setup: longSetup(), Analysis: models.ZoneAnalysis{Ticker: "SPY"}})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(b, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	zones := newFakeZoneStore()
	job := NewGradeSetupJob(&fakeGrader{result: models.GradeResult{Grade: "A"}}, zones, newFakeMetrics(), newTestLogger())
	if err := job.Handle(context.Background(), generic); err != nil {
		t.Fatalf("handle map payload: %v", err)
	}
	if len(zones.grades) != 1 {
		t.Fatalf("grades stored = %d, want 1", len(zones.grades))
	}
}

func TestGradeSetupJobGraderFailure(t *testing.T) {
	m := newFakeMetrics()
	job := NewGradeSetupJob(&fakeGrader{err: fmt.Errorf("sidecar down")}, newFakeZoneStore(), m, newTestLogger())
	if err := job.Handle(context.Background(), GradeJobPayload{Setup: longSetup()}); err == nil {
		t.Fatalf("expected grader error to propagate for retry")
	}
	if m.errCount("grade_call") != 1 {
		t.Fatalf("grader failure not recorded")
	}
}

type fakeQueue struct {
	mu        sync.Mutex
	published []string
	err       error
}

func (q *fakeQueue) PublishMessage(_ context.Context, msgType string, _ interface{}) error {
	if q.err != nil {
		return q.err
	}
	q.mu.Lock()
	q.published = append(q.published, msgType)
	q.mu.Unlock()
	return nil
}

func TestKafkaAnalysesHandlerFansOut(t *testing.T) {
	q := &fakeQueue{}
	bt := NewBacktester(newFakeZoneStore(), newFakeBarStore(), newFakeMetrics(), newTestLogger())
	h := NewKafkaAnalysesHandler("epoch.zone_analyses", q, bt, newFakeMetrics())

	a := models.ZoneAnalysis{
		Ticker: "SPY",
		Date:   time.Now().UTC(),
		Setups: []models.TradeSetup{longSetup(), shortSetup()},
	}
	b, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if err := h.Handle(context.Background(), b); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(q.published) != 2 {
		t.Fatalf("grading jobs = %d, want one per setup", len(q.published))
	}
	bt.mu.Lock()
	pending := len(bt.pending)
	bt.mu.Unlock()
	if pending != 1 {
		t.Fatalf("pending backtests = %d, want 1", pending)
	}
}

func TestKafkaAnalysesHandlerBadPayload(t *testing.T) {
	m := newFakeMetrics()
	h := NewKafkaAnalysesHandler("epoch.zone_analyses", nil, nil, m)
	if err := h.Handle(context.Background(), []byte("{not json")); err == nil {
		t.Fatalf("expected unmarshal error")
	}
	if m.errCount("consumer_unmarshal") != 1 {
		t.Fatalf("unmarshal failure not recorded")
	}
}

func TestKafkaAnalysesHandlerGradingDisabled(t *testing.T) {
	h := NewKafkaAnalysesHandler("epoch.zone_analyses", nil, nil, newFakeMetrics())
	b, _ := json.Marshal(models.ZoneAnalysis{Ticker: "SPY", Setups: []models.TradeSetup{longSetup()}})
	if err := h.Handle(context.Background(), b); err != nil {
		t.Fatalf("handle with grading disabled: %v", err)
	}
}
