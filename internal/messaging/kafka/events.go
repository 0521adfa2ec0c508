package kafka

import (
	"encoding/json"
	"time"

	"github.com/vladislavdragonenkov/agromarket/internal/domain"
)

// Topics для событий рынка.
const (
	TopicMarketEvents    = "agromarket.market.events"
	TopicDeadLetterQueue = "agromarket.dlq"
)

// Заголовки Kafka-сообщений.
const (
	HeaderEventType     = "x-event-type"
	HeaderAggregateType = "x-aggregate-type"
	HeaderOriginalTopic = "x-original-topic"
	HeaderFailedAt      = "x-failed-at"
)

// MarketEvent — конверт, в котором событие outbox уходит в брокер.
type MarketEvent struct {
	ID            string          `json:"id"`
	AggregateType string          `json:"aggregateType"`
	AggregateID   string          `json:"aggregateId"`
	EventType     string          `json:"eventType"`
	Payload       json.RawMessage `json:"payload"`
	OccurredAt    time.Time       `json:"occurredAt"`
	PublishedAt   time.Time       `json:"publishedAt"`
}

// NewMarketEvent заворачивает сообщение outbox в конверт.
// Невалидный JSON в Payload передаётся строкой, чтобы конверт оставался сериализуемым.
func NewMarketEvent(msg domain.OutboxMessage, publishedAt time.Time) MarketEvent {
	payload := json.RawMessage(msg.Payload)
	if len(payload) == 0 {
		payload = json.RawMessage("null")
	} else if !json.Valid(payload) {
		quoted, _ := json.Marshal(string(msg.Payload))
		payload = quoted
	}

	return MarketEvent{
		ID:            msg.ID,
		AggregateType: msg.AggregateType,
		AggregateID:   msg.AggregateID,
		EventType:     msg.EventType,
		Payload:       payload,
		OccurredAt:    msg.CreatedAt.UTC(),
		PublishedAt:   publishedAt.UTC(),
	}
}

// Key возвращает ключ партиционирования: события одного агрегата идут по порядку.
func (e MarketEvent) Key() string {
	if e.AggregateID != "" {
		return e.AggregateID
	}
	return e.ID
}
