package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	platformErrors "github.com/amiosamu/fulfillment-service/internal/platform/errors"
	"github.com/amiosamu/fulfillment-service/internal/platform/observability/logging"
	"github.com/amiosamu/fulfillment-service/internal/service"
)

// EventMetadata is the common envelope attached to every published
// stock event.
type EventMetadata struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	EventTime time.Time `json:"event_time"`
	Version   string    `json:"version"`
	Source    string    `json:"source"`
}

// StockEventMessage is the wire form of a stock event.
type StockEventMessage struct {
	service.StockEvent
	EventMetadata EventMetadata `json:"metadata"`
}

// Producer publishes stock events to a single Kafka topic.
type Producer struct {
	producer sarama.SyncProducer
	topic    string
	logger   logging.Logger
}

// NewProducer creates a synchronous Kafka producer for stock events.
func NewProducer(brokers []string, topic string, retries int, logger logging.Logger) (*Producer, error) {
	config := sarama.NewConfig()

	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Retry.Max = retries
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true

	config.Producer.Compression = sarama.CompressionSnappy
	config.Producer.Flush.Frequency = 500 * time.Millisecond
	config.Producer.Flush.Messages = 100

	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1 // required for idempotent producer

	// Partition by SKU so mutations for one SKU stay ordered.
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, platformErrors.Wrap(err, "failed to create Kafka producer")
	}

	logger.Info(context.Background(), "Kafka producer created", map[string]interface{}{
		"brokers": brokers,
		"topic":   topic,
		"retries": retries,
	})

	return &Producer{
		producer: producer,
		topic:    topic,
		logger:   logger,
	}, nil
}

// PublishStockEvent publishes one stock event, keyed by SKU.
func (p *Producer) PublishStockEvent(ctx context.Context, event service.StockEvent) error {
	message := StockEventMessage{
		StockEvent: event,
		EventMetadata: EventMetadata{
			EventID:   event.EventID,
			EventType: event.EventType,
			EventTime: event.OccurredAt,
			Version:   "1.0",
			Source:    "fulfillment-service",
		},
	}

	data, err := json.Marshal(message)
	if err != nil {
		return platformErrors.Wrap(err, "failed to marshal stock event")
	}

	kafkaMessage := &sarama.ProducerMessage{
		Topic:     p.topic,
		Key:       sarama.StringEncoder(event.SKU),
		Value:     sarama.ByteEncoder(data),
		Timestamp: message.EventMetadata.EventTime,
		Headers: []sarama.RecordHeader{
			{Key: []byte("event-type"), Value: []byte(event.EventType)},
			{Key: []byte("event-id"), Value: []byte(event.EventID)},
			{Key: []byte("event-version"), Value: []byte(message.EventMetadata.Version)},
			{Key: []byte("source-service"), Value: []byte(message.EventMetadata.Source)},
		},
	}

	partition, offset, err := p.producer.SendMessage(kafkaMessage)
	if err != nil {
		p.logger.Error(ctx, "Failed to publish stock event", err, map[string]interface{}{
			"event_type": event.EventType,
			"sku":        event.SKU,
			"topic":      p.topic,
		})
		return platformErrors.Wrap(err, "failed to publish stock event")
	}

	p.logger.Debug(ctx, "Stock event published", map[string]interface{}{
		"event_type": event.EventType,
		"sku":        event.SKU,
		"topic":      p.topic,
		"partition":  partition,
		"offset":     offset,
	})

	return nil
}

// Close shuts down the underlying producer.
func (p *Producer) Close() error {
	if err := p.producer.Close(); err != nil {
		return platformErrors.Wrap(err, "failed to close Kafka producer")
	}
	return nil
}
