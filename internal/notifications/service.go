package notifications

import (
	"context"
	"fmt"
	"sync"

	"eventix/internal/shared/config"
	"eventix/pkg/logger"
)

// Service owns the notification pipeline: the Kafka publisher used by the
// booking engine and the consumer workers that deliver email.
type Service struct {
	publisher *KafkaPublisher
	consumer  *KafkaConsumer
	workers   int
	log       *logger.Logger

	mu        sync.Mutex
	isRunning bool
	cancel    context.CancelFunc
}

// NewService returns nil without error when Kafka is disabled; callers then use NopPublisher
func NewService(cfg *config.Config) (*Service, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}

	emailService, err := newEmailService(cfg.Email)
	if err != nil {
		return nil, err
	}

	publisher, err := NewKafkaPublisher(ProducerConfigFrom(cfg.Kafka))
	if err != nil {
		return nil, fmt.Errorf("failed to create notification producer: %w", err)
	}

	consumer, err := NewKafkaConsumer(ConsumerConfigFrom(cfg.Kafka), emailService)
	if err != nil {
		_ = publisher.Close()
		return nil, fmt.Errorf("failed to create notification consumer: %w", err)
	}

	return &Service{
		publisher: publisher,
		consumer:  consumer,
		workers:   cfg.Kafka.NumWorkers,
		log:       logger.GetDefault(),
	}, nil
}

// newEmailService falls back to logging emails when no SMTP host is configured
func newEmailService(cfg config.EmailConfig) (EmailService, error) {
	if cfg.SMTPHost == "" {
		logger.GetDefault().Warn("SMTP_HOST not set, notification emails will only be logged")
		return NewLogEmailService(), nil
	}
	return NewSMTPEmailService(SMTPConfigFrom(cfg))
}

func (s *Service) Publisher() Publisher {
	return s.publisher
}

func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return fmt.Errorf("notification service is already running")
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.consumer.Start(ctx, s.workers)
	s.isRunning = true
	return nil
}

func (s *Service) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return nil
	}

	s.cancel()
	if err := s.consumer.Stop(); err != nil {
		s.log.Error("error stopping notification consumer", "error", err)
	}
	if err := s.publisher.Close(); err != nil {
		s.log.Error("error closing notification producer", "error", err)
	}

	s.isRunning = false
	return nil
}
