package notifications

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"autoclaim/internal/shared/config"
	"autoclaim/pkg/logger"
)

// NotificationService owns the producer, the consumer group and the
// observer that feeds them.
type NotificationService interface {
	Notifier() *KafkaNotifier
	Start(ctx context.Context) error
	Stop() error
}

type EmailNotificationService struct {
	cfg      config.KafkaConfig
	producer NotificationProducer
	consumer *KafkaNotificationConsumer
	notifier *KafkaNotifier
	logger   *logger.Logger

	isRunning bool
	mu        sync.Mutex
	cancel    context.CancelFunc
}

// NewEmailNotificationService connects to Kafka. Email is delivered over
// SMTP when it is configured and logged otherwise.
func NewEmailNotificationService(cfg *config.Config, users RecipientDirectory, claimLookup ClaimLookup, log *logger.Logger) (*EmailNotificationService, error) {
	if log == nil {
		log = logger.GetDefault()
	}

	var emailService EmailService
	smtpConfig := NewSMTPConfig(cfg.Email)
	if smtpConfig.Host == "" {
		emailService = NewLogEmailService(log)
	} else {
		smtpService, err := NewSMTPEmailService(smtpConfig, log)
		if err != nil {
			return nil, err
		}
		emailService = smtpService
	}

	producerConfig := DefaultKafkaProducerConfig()
	producerConfig.Brokers = cfg.Kafka.Brokers
	producerConfig.NotificationTopic = cfg.Kafka.Topic

	producer, err := NewKafkaNotificationProducer(producerConfig, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification producer: %w", err)
	}

	consumerConfig := DefaultConsumerConfig()
	consumerConfig.Brokers = cfg.Kafka.Brokers
	consumerConfig.Topics = []string{cfg.Kafka.Topic}
	consumerConfig.GroupID = cfg.Kafka.ConsumerGroup

	consumer, err := NewKafkaNotificationConsumer(consumerConfig, emailService, log)
	if err != nil {
		_ = producer.Close()
		return nil, fmt.Errorf("failed to create notification consumer: %w", err)
	}

	return &EmailNotificationService{
		cfg:      cfg.Kafka,
		producer: producer,
		consumer: consumer,
		notifier: NewKafkaNotifier(producer, users, claimLookup, cfg.Pipeline.ClaimPortalURL, log),
		logger:   log,
	}, nil
}

func (ens *EmailNotificationService) Notifier() *KafkaNotifier {
	return ens.notifier
}

func (ens *EmailNotificationService) Start(ctx context.Context) error {
	ens.mu.Lock()
	defer ens.mu.Unlock()

	if ens.isRunning {
		return errors.New("notification service is already running")
	}

	workers := ens.cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	runCtx, cancel := context.WithCancel(ctx)
	ens.cancel = cancel
	ens.consumer.StartConsumers(runCtx, workers)
	ens.isRunning = true
	return nil
}

func (ens *EmailNotificationService) Stop() error {
	ens.mu.Lock()
	defer ens.mu.Unlock()

	if !ens.isRunning {
		return errors.New("notification service is not running")
	}

	ens.cancel()

	var errs []error
	if err := ens.consumer.Stop(); err != nil {
		errs = append(errs, err)
	}
	if err := ens.producer.Close(); err != nil {
		errs = append(errs, err)
	}

	ens.isRunning = false
	ens.logger.InfoWithContext(context.Background(), "Notification service stopped", nil)
	return errors.Join(errs...)
}
