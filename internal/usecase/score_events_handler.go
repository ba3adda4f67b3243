package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xllucky21/xllucky/internal/domain/models"
	domrepo "github.com/xllucky21/xllucky/internal/domain/repository"
	pkgkafka "github.com/xllucky21/xllucky/pkg/kafka"
)

// Broadcaster pushes a score event to live subscribers.
type Broadcaster interface {
	Broadcast(e models.ScoreEvent)
}

// ScoreEventsHandler consumes score events from Kafka, stores them and
// forwards them to live subscribers. Store and hub may be nil.
type ScoreEventsHandler struct {
	topic   string
	store   domrepo.ScoreSink
	hub     Broadcaster
	metrics domrepo.Metrics
}

func NewScoreEventsHandler(topic string, store domrepo.ScoreSink, hub Broadcaster, metrics domrepo.Metrics) *ScoreEventsHandler {
	return &ScoreEventsHandler{topic: topic, store: store, hub: hub, metrics: metrics}
}

func (h *ScoreEventsHandler) Topic() string { return h.topic }

// Handle decodes one message. Malformed payloads are dropped without error
// since retrying them cannot succeed.
func (h *ScoreEventsHandler) Handle(ctx context.Context, b []byte) error {
	var e models.ScoreEvent
	if err := json.Unmarshal(b, &e); err != nil || e.Job == "" || e.Subject == "" {
		h.dropped("consumer_decode")
		return nil
	}
	if h.store != nil {
		if err := h.store.WriteScores(ctx, []models.ScoreEvent{e}); err != nil {
			return fmt.Errorf("store score %s/%s: %w", e.Job, e.Subject, err)
		}
		if h.metrics != nil {
			h.metrics.RecordEventSent("clickhouse")
		}
	}
	if h.hub != nil {
		h.hub.Broadcast(e)
	}
	return nil
}

func (h *ScoreEventsHandler) dropped(reason string) {
	if h.metrics != nil {
		h.metrics.RecordEventDropped(reason)
	}
}

var _ pkgkafka.HandlerFunc = (*ScoreEventsHandler)(nil).Handle
