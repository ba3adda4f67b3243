package repository

import (
	"context"

	"github.com/xllucky21/xllucky/internal/domain/models"
	"github.com/xllucky21/xllucky/internal/domain/repository"
	pkgkafka "github.com/xllucky21/xllucky/pkg/kafka"
)

// KafkaPublisher publishes score events keyed by job/subject.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) repository.Publisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (p *KafkaPublisher) PublishScores(ctx context.Context, events []models.ScoreEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(events))
	for i, e := range events {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(e.Job + "/" + e.Subject),
			Value: e,
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
