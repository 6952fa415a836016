package repository

import (
	"context"

	"Epoch/internal/domain/models"
	domrepo "Epoch/internal/domain/repository"
	pkgkafka "Epoch/pkg/kafka"
)

// KafkaPublisher pushes completed analyses onto the event bus, keyed by
// ticker so one ticker's analyses stay ordered within a partition.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) domrepo.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishAnalysis(ctx context.Context, a models.ZoneAnalysis) error {
	return p.producer.Publish(ctx, p.topic, []byte(a.Ticker), a)
}

func (p *KafkaPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
