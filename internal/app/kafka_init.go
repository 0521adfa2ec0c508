package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/agromarket/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/agromarket/internal/service/outbox"
)

// initKafkaProducer создаёт producer, если брокеры заданы.
// Возвращает nil, nil при пустом списке брокеров.
func initKafkaProducer(brokers []string, logger *log.Entry) (*kafka.Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	producer, err := kafka.NewProducer(brokers)
	if err != nil {
		logger.WithError(err).Warn("failed to create kafka producer, continuing without event relay")
		return nil, err
	}

	logger.WithField("brokers", brokers).Info("kafka producer initialized")
	return producer, nil
}

// newRelayWorker связывает outbox с topic событий и dead-letter topic.
func newRelayWorker(deps *Dependencies, cfg Config, producer *kafka.Producer) *outbox.Worker {
	return outbox.NewWorker(deps.Outbox,
		kafka.NewOutboxPublisher(producer, cfg.KafkaTopic),
		outbox.WithDeadLetter(kafka.NewDeadLetterPublisher(producer, cfg.KafkaTopic)),
		outbox.WithLogger(deps.Logger.WithField("component", "outbox-worker")),
		outbox.WithPollInterval(cfg.OutboxPollInterval),
		outbox.WithBatchSize(cfg.OutboxBatchSize),
		outbox.WithMaxAttempts(cfg.OutboxMaxAttempts),
		outbox.WithRetryBaseDelay(cfg.OutboxRetryDelay),
	)
}

// closeKafka закрывает Kafka producer если он не nil.
func closeKafka(producer *kafka.Producer, logger *log.Entry) {
	if producer == nil {
		return
	}

	if err := producer.Close(); err != nil {
		logger.WithError(err).Warn("failed to close kafka producer")
	} else {
		logger.Info("kafka producer closed")
	}
}
