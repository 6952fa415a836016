package usecase

import (
	"context"
	"encoding/json"
	"time"

	"Epoch/internal/domain/models"
	drepo "Epoch/internal/domain/repository"
	pkgkafka "Epoch/pkg/kafka"
	"Epoch/pkg/queue"
)

// KafkaAnalysesHandler consumes published zone analyses and fans them out:
// each setup becomes a grading job, and the whole analysis is submitted
// for deferred backtesting.
type KafkaAnalysesHandler struct {
	topic     string
	grading   queue.QueueService // nil when grading is disabled
	backtests *Backtester
	metrics   drepo.Metrics
}

func NewKafkaAnalysesHandler(topic string, grading queue.QueueService, backtests *Backtester, metrics drepo.Metrics) *KafkaAnalysesHandler {
	return &KafkaAnalysesHandler{topic: topic, grading: grading, backtests: backtests, metrics: metrics}
}

func (h *KafkaAnalysesHandler) Topic() string { return h.topic }

func (h *KafkaAnalysesHandler) Handle(ctx context.Context, b []byte) error {
	var a models.ZoneAnalysis
	if err := json.Unmarshal(b, &a); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	h.metrics.RecordLatency("analysis_e2e_seconds", time.Since(a.Date).Seconds())

	if h.backtests != nil {
		h.backtests.Submit(a)
	}
	if h.grading != nil {
		for _, s := range a.Setups {
			if err := h.grading.PublishMessage(ctx, GradeSetupMsgType, GradeJobPayload{Setup: s, Analysis: a}); err != nil {
				h.metrics.RecordError("grade_enqueue")
				return err
			}
		}
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaAnalysesHandler)(nil)
