package repository

import (
	"context"

	"PokerAssist/internal/domain/models"
	domrepo "PokerAssist/internal/domain/repository"
	pkgkafka "PokerAssist/pkg/kafka"
)

// KafkaHistoryPublisher implements HistoryPublisher for Kafka, keyed by opponent id.
type KafkaHistoryPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaHistoryPublisher(producer *pkgkafka.Producer, topic string) *KafkaHistoryPublisher {
	return &KafkaHistoryPublisher{producer: producer, topic: topic}
}

func (p *KafkaHistoryPublisher) PublishBatch(ctx context.Context, recs []*models.HandRecord) error {
	msgs := historyMessages(recs)
	if len(msgs) == 0 {
		return nil
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func historyMessages(recs []*models.HandRecord) []pkgkafka.Message {
	msgs := make([]pkgkafka.Message, 0, len(recs))
	for _, r := range recs {
		if r == nil {
			continue
		}
		msgs = append(msgs, pkgkafka.Message{Key: []byte(r.OpponentID), Value: r})
	}
	return msgs
}

var _ domrepo.HistoryPublisher = (*KafkaHistoryPublisher)(nil)
