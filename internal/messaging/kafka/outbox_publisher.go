package kafka

import (
	"errors"
	"time"

	"github.com/vladislavdragonenkov/agromarket/internal/domain"
)

var errPublisherNotInitialized = errors.New("kafka outbox publisher is not initialized")

// OutboxTopicPublisher публикует outbox-сообщения в заданный topic.
type OutboxTopicPublisher struct {
	producer *Producer
	topic    string
	now      func() time.Time
}

// NewOutboxPublisher создаёт publisher событий рынка. Пустой topic означает TopicMarketEvents.
func NewOutboxPublisher(producer *Producer, topic string) *OutboxTopicPublisher {
	if topic == "" {
		topic = TopicMarketEvents
	}
	return &OutboxTopicPublisher{producer: producer, topic: topic, now: time.Now}
}

// NewDeadLetterPublisher создаёт publisher для событий, которые не удалось доставить в topic.
func NewDeadLetterPublisher(producer *Producer, originalTopic string) *DeadLetterPublisher {
	if originalTopic == "" {
		originalTopic = TopicMarketEvents
	}
	return &DeadLetterPublisher{producer: producer, originalTopic: originalTopic, now: time.Now}
}

func (p *OutboxTopicPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errPublisherNotInitialized
	}

	envelope := NewMarketEvent(event, p.now())
	return p.producer.PublishEvent(p.topic, envelope.Key(), envelope, map[string]string{
		HeaderEventType:     event.EventType,
		HeaderAggregateType: event.AggregateType,
	})
}

// DeadLetterPublisher отправляет payload как есть в TopicDeadLetterQueue.
type DeadLetterPublisher struct {
	producer      *Producer
	originalTopic string
	now           func() time.Time
}

func (p *DeadLetterPublisher) Publish(event domain.OutboxMessage) error {
	if p == nil || p.producer == nil {
		return errPublisherNotInitialized
	}

	envelope := NewMarketEvent(event, p.now())
	return p.producer.PublishEvent(TopicDeadLetterQueue, envelope.Key(), envelope, map[string]string{
		HeaderEventType:     event.EventType,
		HeaderOriginalTopic: p.originalTopic,
		HeaderFailedAt:      p.now().UTC().Format(time.RFC3339Nano),
	})
}

var (
	_ domain.OutboxPublisher = (*OutboxTopicPublisher)(nil)
	_ domain.OutboxPublisher = (*DeadLetterPublisher)(nil)
)
