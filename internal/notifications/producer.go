package notifications

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"autoclaim/pkg/logger"
)

// NotificationProducer publishes notifications onto the broker.
type NotificationProducer interface {
	PublishNotification(ctx context.Context, notification *EmailNotification) error
	PublishBatchNotifications(ctx context.Context, notifications []*EmailNotification) error
	Close() error
}

type KafkaProducerConfig struct {
	Brokers           []string
	NotificationTopic string
	RetryMax          int
	Timeout           time.Duration
	RequiredAcks      sarama.RequiredAcks
	CompressionType   sarama.CompressionCodec
	IdempotentWrites  bool
	MaxMessageBytes   int
}

func DefaultKafkaProducerConfig() *KafkaProducerConfig {
	return &KafkaProducerConfig{
		Brokers:           []string{"localhost:9092"},
		NotificationTopic: "claim-notifications",
		RetryMax:          3,
		Timeout:           10 * time.Second,
		RequiredAcks:      sarama.WaitForAll, // Wait for all in-sync replicas
		CompressionType:   sarama.CompressionSnappy,
		IdempotentWrites:  true,
		MaxMessageBytes:   1000000, // 1MB
	}
}

// SaramaConfig translates the producer settings into a sarama config.
func (c *KafkaProducerConfig) SaramaConfig() *sarama.Config {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Return.Errors = true
	saramaConfig.Producer.RequiredAcks = c.RequiredAcks
	saramaConfig.Producer.Compression = c.CompressionType
	saramaConfig.Producer.Retry.Max = c.RetryMax
	saramaConfig.Producer.Timeout = c.Timeout
	saramaConfig.Producer.Idempotent = c.IdempotentWrites
	saramaConfig.Producer.MaxMessageBytes = c.MaxMessageBytes

	// Idempotent producers require a single in-flight request
	if c.IdempotentWrites {
		saramaConfig.Net.MaxOpenRequests = 1
	}

	// Hash on the recipient so one passenger's emails stay ordered
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	return saramaConfig
}

type KafkaNotificationProducer struct {
	producer sarama.SyncProducer
	config   *KafkaProducerConfig
	logger   *logger.Logger
}

func NewKafkaNotificationProducer(config *KafkaProducerConfig, log *logger.Logger) (*KafkaNotificationProducer, error) {
	producer, err := sarama.NewSyncProducer(config.Brokers, config.SaramaConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}
	return NewKafkaNotificationProducerWithClient(producer, config, log), nil
}

// NewKafkaNotificationProducerWithClient wraps an existing sarama producer.
func NewKafkaNotificationProducerWithClient(producer sarama.SyncProducer, config *KafkaProducerConfig, log *logger.Logger) *KafkaNotificationProducer {
	if log == nil {
		log = logger.GetDefault()
	}
	return &KafkaNotificationProducer{
		producer: producer,
		config:   config,
		logger:   log,
	}
}

func (knp *KafkaNotificationProducer) PublishNotification(ctx context.Context, notification *EmailNotification) error {
	message, err := knp.buildMessage(notification)
	if err != nil {
		return err
	}

	partition, offset, err := knp.producer.SendMessage(message)
	if err != nil {
		notification.MarkFailed(err)
		return fmt.Errorf("failed to send notification to Kafka: %w", err)
	}

	knp.logger.DebugWithContext(ctx, "Notification published", map[string]interface{}{
		"topic":           knp.config.NotificationTopic,
		"partition":       partition,
		"offset":          offset,
		"type":            string(notification.Type),
		"notification_id": notification.ID.String(),
	})
	return nil
}

func (knp *KafkaNotificationProducer) PublishBatchNotifications(ctx context.Context, notifications []*EmailNotification) error {
	if len(notifications) == 0 {
		return nil
	}

	messages := make([]*sarama.ProducerMessage, 0, len(notifications))
	for _, notification := range notifications {
		message, err := knp.buildMessage(notification)
		if err != nil {
			knp.logger.ErrorWithContext(ctx, "Skipping notification that failed to marshal", err, map[string]interface{}{
				"notification_id": notification.ID.String(),
			})
			continue
		}
		messages = append(messages, message)
	}

	if err := knp.producer.SendMessages(messages); err != nil {
		for _, notification := range notifications {
			notification.MarkFailed(err)
		}
		return fmt.Errorf("failed to send batch notifications to Kafka: %w", err)
	}

	knp.logger.InfoWithContext(ctx, "Notification batch published", map[string]interface{}{
		"topic": knp.config.NotificationTopic,
		"count": len(messages),
	})
	return nil
}

func (knp *KafkaNotificationProducer) buildMessage(notification *EmailNotification) (*sarama.ProducerMessage, error) {
	notification.Status = NotificationStatusQueued
	notification.UpdatedAt = time.Now().UTC()

	messageBytes, err := notification.ToJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to marshal notification: %w", err)
	}

	return &sarama.ProducerMessage{
		Topic:     knp.config.NotificationTopic,
		Key:       sarama.StringEncoder(notification.GetPartitionKey()),
		Value:     sarama.ByteEncoder(messageBytes),
		Headers:   createHeaders(notification),
		Timestamp: notification.CreatedAt,
	}, nil
}

func createHeaders(notification *EmailNotification) []sarama.RecordHeader {
	headers := []sarama.RecordHeader{
		{Key: []byte("notification_id"), Value: []byte(notification.ID.String())},
		{Key: []byte("notification_type"), Value: []byte(notification.Type)},
		{Key: []byte("priority"), Value: []byte(notification.Priority)},
		{Key: []byte("recipient_id"), Value: []byte(notification.RecipientID.String())},
		{Key: []byte("producer"), Value: []byte("autoclaim-notifications")},
		{Key: []byte("created_at"), Value: []byte(notification.CreatedAt.Format(time.RFC3339))},
	}

	if notification.ClaimID != nil {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("claim_id"),
			Value: []byte(notification.ClaimID.String()),
		})
	}

	if notification.BookingID != nil {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("booking_id"),
			Value: []byte(notification.BookingID.String()),
		})
	}

	if notification.ExpiresAt != nil {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte("expires_at"),
			Value: []byte(notification.ExpiresAt.Format(time.RFC3339)),
		})
	}

	return headers
}

func (knp *KafkaNotificationProducer) Close() error {
	if knp.producer == nil {
		return nil
	}
	if err := knp.producer.Close(); err != nil {
		return fmt.Errorf("failed to close Kafka producer: %w", err)
	}
	return nil
}
