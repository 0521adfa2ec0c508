package kafka

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"

	"github.com/vladislavdragonenkov/agromarket/internal/domain"
)

func TestProducer_PublishEvent(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerWithClient(mockProducer)

	mockProducer.ExpectSendMessageWithCheckerFunctionAndSucceed(func(val []byte) error {
		var decoded map[string]any
		if err := json.Unmarshal(val, &decoded); err != nil {
			return err
		}
		if decoded["productId"] != "prod-001" {
			return fmt.Errorf("unexpected body: %s", val)
		}
		return nil
	})

	err := producer.PublishEvent(TopicMarketEvents, "prod-001", map[string]string{"productId": "prod-001"}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_Error(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerWithClient(mockProducer)

	mockProducer.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	err := producer.PublishEvent(TopicMarketEvents, "prod-001", map[string]string{}, map[string]string{HeaderEventType: "x"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestProducer_PublishEvent_MarshalError(t *testing.T) {
	mockProducer := mocks.NewSyncProducer(t, nil)
	producer := NewProducerWithClient(mockProducer)

	if err := producer.PublishEvent(TopicMarketEvents, "k", make(chan int), nil); err == nil {
		t.Fatal("expected marshal error")
	}

	if err := mockProducer.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestNewMarketEvent(t *testing.T) {
	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	published := created.Add(time.Minute)

	event := NewMarketEvent(domain.OutboxMessage{
		ID:            "outbox-1",
		AggregateType: domain.AggregateOrder,
		AggregateID:   "order-1",
		EventType:     domain.EventOrderCreated,
		Payload:       []byte(`{"quantityOrdered":5}`),
		CreatedAt:     created,
	}, published)

	if event.Key() != "order-1" {
		t.Errorf("expected aggregate id as key, got %s", event.Key())
	}
	if !event.OccurredAt.Equal(created) || !event.PublishedAt.Equal(published) {
		t.Errorf("unexpected timestamps: %+v", event)
	}
	if string(event.Payload) != `{"quantityOrdered":5}` {
		t.Errorf("payload must pass through unchanged, got %s", event.Payload)
	}
}

func TestNewMarketEvent_NonJSONPayload(t *testing.T) {
	event := NewMarketEvent(domain.OutboxMessage{ID: "outbox-2", Payload: []byte("not json")}, time.Now())

	if event.Key() != "outbox-2" {
		t.Errorf("expected id as fallback key, got %s", event.Key())
	}
	if string(event.Payload) != `"not json"` {
		t.Errorf("expected quoted payload, got %s", event.Payload)
	}
	if _, err := json.Marshal(event); err != nil {
		t.Fatalf("envelope must stay serializable: %v", err)
	}

	empty := NewMarketEvent(domain.OutboxMessage{ID: "outbox-3"}, time.Now())
	if string(empty.Payload) != "null" {
		t.Errorf("expected null payload, got %s", empty.Payload)
	}
}
