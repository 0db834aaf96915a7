package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"PokerAssist/internal/domain/models"
	xhttp "PokerAssist/pkg/http"
	pkgkafka "PokerAssist/pkg/kafka"
)

const ObservationSourceKafka = "kafka"

// KafkaObservationsHandler consumes observation messages and applies them to the profile store.
type KafkaObservationsHandler struct {
	topic    string
	recorder *ObservationRecorder
}

func NewKafkaObservationsHandler(topic string, recorder *ObservationRecorder) *KafkaObservationsHandler {
	return &KafkaObservationsHandler{topic: topic, recorder: recorder}
}

func (h *KafkaObservationsHandler) Topic() string { return h.topic }

// incoming message schema: {opponentId, playedHand, voluntarilyEntered, preflopRaise}
func (h *KafkaObservationsHandler) Handle(ctx context.Context, b []byte) error {
	var o models.Observation
	if err := json.Unmarshal(b, &o); err != nil {
		h.recorder.metrics.RecordError("consumer_unmarshal")
		return fmt.Errorf("decode observation: %w", err)
	}
	if verr := xhttp.Validate(&o); verr != nil {
		h.recorder.metrics.RecordError("observation_invalid")
		return fmt.Errorf("%w: %v", ErrInvalidObservation, verr)
	}
	if _, err := h.recorder.Record(ctx, ObservationSourceKafka, o); err != nil {
		return fmt.Errorf("record observation: %w", err)
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaObservationsHandler)(nil)
