package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"autoclaim/pkg/logger"
)

var deliveries = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "autoclaim_notification_deliveries_total",
		Help: "Claim emails taken off the queue, by type and result.",
	},
	[]string{"type", "result"},
)

type ConsumerConfig struct {
	Brokers              []string
	GroupID              string
	Topics               []string
	SessionTimeout       time.Duration
	Heartbeat            time.Duration
	MaxProcessingTime    time.Duration
	OffsetOldest         bool
	MaxRetries           int
	RetryBackoffDuration time.Duration
}

func DefaultConsumerConfig() *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              []string{"localhost:9092"},
		GroupID:              "autoclaim-notification-workers",
		Topics:               []string{"claim-notifications"},
		SessionTimeout:       30 * time.Second,
		Heartbeat:            3 * time.Second,
		MaxProcessingTime:    5 * time.Minute,
		OffsetOldest:         true,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
	}
}

type KafkaNotificationConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	emailService  EmailService
	logger        *logger.Logger
	wg            sync.WaitGroup
}

func NewKafkaNotificationConsumer(config *ConsumerConfig, emailService EmailService, log *logger.Logger) (*KafkaNotificationConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = config.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = config.Heartbeat
	saramaConfig.Consumer.MaxProcessingTime = config.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second

	if config.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(config.Brokers, config.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	if log == nil {
		log = logger.GetDefault()
	}
	return &KafkaNotificationConsumer{
		consumerGroup: consumerGroup,
		config:        config,
		emailService:  emailService,
		logger:        log,
	}, nil
}

// StartConsumers launches numWorkers members of the consumer group. They run
// until ctx is cancelled.
func (knc *KafkaNotificationConsumer) StartConsumers(ctx context.Context, numWorkers int) {
	go knc.handleErrors(ctx)

	for i := 0; i < numWorkers; i++ {
		knc.wg.Add(1)
		go func(workerID int) {
			defer knc.wg.Done()
			knc.runWorker(ctx, workerID)
		}(i)
	}

	knc.logger.InfoWithContext(ctx, "Notification consumers started", map[string]interface{}{
		"workers": numWorkers,
		"topics":  knc.config.Topics,
	})
}

func (knc *KafkaNotificationConsumer) runWorker(ctx context.Context, workerID int) {
	handler := NewConsumerGroupHandler(workerID, knc.emailService, knc.config, knc.logger)

	for {
		if err := knc.consumerGroup.Consume(ctx, knc.config.Topics, handler); err != nil {
			knc.logger.ErrorWithContext(ctx, "Error consuming notifications", err, map[string]interface{}{
				"worker_id": workerID,
			})
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (knc *KafkaNotificationConsumer) handleErrors(ctx context.Context) {
	for err := range knc.consumerGroup.Errors() {
		knc.logger.ErrorWithContext(ctx, "Consumer group error", err, nil)
	}
}

// Stop waits for the workers to return and closes the group. The context
// passed to StartConsumers must already be cancelled.
func (knc *KafkaNotificationConsumer) Stop() error {
	knc.wg.Wait()
	if err := knc.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	return nil
}

// ConsumerGroupHandler delivers each message through the email service.
type ConsumerGroupHandler struct {
	workerID     int
	emailService EmailService
	config       *ConsumerConfig
	logger       *logger.Logger
}

func NewConsumerGroupHandler(workerID int, emailService EmailService, config *ConsumerConfig, log *logger.Logger) *ConsumerGroupHandler {
	if log == nil {
		log = logger.GetDefault()
	}
	return &ConsumerGroupHandler{
		workerID:     workerID,
		emailService: emailService,
		config:       config,
		logger:       log,
	}
}

func (h *ConsumerGroupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *ConsumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *ConsumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}

			// A message that cannot be delivered after retries is logged and
			// committed so it does not block the partition.
			if _, err := h.ProcessMessage(session.Context(), message); err != nil {
				h.logger.ErrorWithContext(session.Context(), "Dropping notification", err, map[string]interface{}{
					"worker_id": h.workerID,
					"partition": message.Partition,
					"offset":    message.Offset,
				})
			}
			session.MarkMessage(message, "")

		case <-session.Context().Done():
			return nil
		}
	}
}

// ProcessMessage decodes and delivers one notification. Expired
// notifications are skipped without error.
func (h *ConsumerGroupHandler) ProcessMessage(ctx context.Context, message *sarama.ConsumerMessage) (*EmailNotification, error) {
	var notification EmailNotification
	if err := json.Unmarshal(message.Value, &notification); err != nil {
		return nil, fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	if notification.IsExpired() {
		notification.Status = NotificationStatusExpired
		deliveries.WithLabelValues(string(notification.Type), "expired").Inc()
		return &notification, nil
	}

	notification.Status = NotificationStatusSending
	if err := h.executeWithRetry(ctx, &notification); err != nil {
		notification.MarkFailed(err)
		deliveries.WithLabelValues(string(notification.Type), "failed").Inc()
		return &notification, err
	}

	notification.MarkSent()
	deliveries.WithLabelValues(string(notification.Type), "sent").Inc()
	return &notification, nil
}

func (h *ConsumerGroupHandler) executeWithRetry(ctx context.Context, notification *EmailNotification) error {
	maxRetries := h.config.MaxRetries
	if notification.MaxRetries < maxRetries {
		maxRetries = notification.MaxRetries
	}
	backoff := h.config.RetryBackoffDuration

	for attempt := 0; ; attempt++ {
		err := h.emailService.SendNotification(ctx, notification)
		if err == nil {
			return nil
		}
		if attempt >= maxRetries {
			return err
		}

		notification.MarkFailed(err)
		notification.IncrementRetry()

		// Exponential backoff
		delay := backoff * time.Duration(1<<attempt)
		h.logger.DebugWithContext(ctx, "Retrying notification", map[string]interface{}{
			"worker_id":       h.workerID,
			"notification_id": notification.ID.String(),
			"attempt":         attempt + 1,
			"delay":           delay.String(),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
