package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"eventix/internal/shared/config"
	"eventix/pkg/logger"

	"github.com/IBM/sarama"
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

func ConsumerConfigFrom(cfg config.KafkaConfig) *ConsumerConfig {
	return &ConsumerConfig{
		Brokers:              cfg.Brokers,
		GroupID:              cfg.ConsumerGroupID,
		Topics:               []string{cfg.NotificationTopic},
		SessionTimeout:       30 * time.Second,
		Heartbeat:            3 * time.Second,
		MaxProcessingTime:    5 * time.Minute,
		OffsetOldest:         true,
		MaxRetries:           3,
		RetryBackoffDuration: time.Second,
	}
}

// KafkaConsumer runs consumer group workers that turn topic messages into emails
type KafkaConsumer struct {
	consumerGroup sarama.ConsumerGroup
	config        *ConsumerConfig
	emailService  EmailService
	log           *logger.Logger
	wg            sync.WaitGroup
}

func NewKafkaConsumer(cfg *ConsumerConfig, emailService EmailService) (*KafkaConsumer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Consumer.Group.Session.Timeout = cfg.SessionTimeout
	saramaConfig.Consumer.Group.Heartbeat.Interval = cfg.Heartbeat
	saramaConfig.Consumer.MaxProcessingTime = cfg.MaxProcessingTime
	saramaConfig.Consumer.Return.Errors = true
	saramaConfig.Consumer.Offsets.AutoCommit.Enable = true
	saramaConfig.Consumer.Offsets.AutoCommit.Interval = time.Second
	if cfg.OffsetOldest {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetOldest
	} else {
		saramaConfig.Consumer.Offsets.Initial = sarama.OffsetNewest
	}

	consumerGroup, err := sarama.NewConsumerGroup(cfg.Brokers, cfg.GroupID, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer group: %w", err)
	}

	return &KafkaConsumer{
		consumerGroup: consumerGroup,
		config:        cfg,
		emailService:  emailService,
		log:           logger.GetDefault(),
	}, nil
}

// Start launches numWorkers consume loops; they exit when ctx is cancelled
func (c *KafkaConsumer) Start(ctx context.Context, numWorkers int) {
	if numWorkers < 1 {
		numWorkers = 1
	}

	go func() {
		for err := range c.consumerGroup.Errors() {
			c.log.Error("consumer group error", "error", err)
		}
	}()

	for i := 0; i < numWorkers; i++ {
		c.wg.Add(1)
		go func(workerID int) {
			defer c.wg.Done()
			c.runWorker(ctx, workerID)
		}(i)
	}

	c.log.Info("notification consumers started", "workers", numWorkers, "topics", c.config.Topics)
}

func (c *KafkaConsumer) runWorker(ctx context.Context, workerID int) {
	handler := &consumerGroupHandler{
		workerID:     workerID,
		emailService: c.emailService,
		maxRetries:   c.config.MaxRetries,
		backoff:      c.config.RetryBackoffDuration,
		log:          c.log,
		now:          time.Now,
	}

	for {
		if err := c.consumerGroup.Consume(ctx, c.config.Topics, handler); err != nil {
			c.log.Warn("consume failed", "worker", workerID, "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// Stop waits for the workers after their context is cancelled, then closes the group
func (c *KafkaConsumer) Stop() error {
	c.wg.Wait()
	if err := c.consumerGroup.Close(); err != nil {
		return fmt.Errorf("failed to close consumer group: %w", err)
	}
	c.log.Info("notification consumers stopped")
	return nil
}

type consumerGroupHandler struct {
	workerID     int
	emailService EmailService
	maxRetries   int
	backoff      time.Duration
	log          *logger.Logger
	now          func() time.Time
}

func (h *consumerGroupHandler) Setup(sarama.ConsumerGroupSession) error   { return nil }
func (h *consumerGroupHandler) Cleanup(sarama.ConsumerGroupSession) error { return nil }

func (h *consumerGroupHandler) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for {
		select {
		case message, ok := <-claim.Messages():
			if !ok {
				return nil
			}
			if err := h.processMessage(session.Context(), message); err != nil {
				h.log.Error("notification dropped",
					"worker", h.workerID,
					"partition", message.Partition,
					"offset", message.Offset,
					"error", err,
				)
			}
			// failed messages are logged and skipped so one bad message cannot stall the partition
			session.MarkMessage(message, "")
		case <-session.Context().Done():
			return nil
		}
	}
}

func (h *consumerGroupHandler) processMessage(ctx context.Context, message *sarama.ConsumerMessage) error {
	var notification EmailNotification
	if err := json.Unmarshal(message.Value, &notification); err != nil {
		return fmt.Errorf("failed to unmarshal notification: %w", err)
	}

	if notification.IsExpired(h.now()) {
		h.log.DebugContext(ctx, "notification expired", "notification_id", notification.ID.String())
		return nil
	}

	notification.Status = NotificationStatusSending
	if err := h.executeWithRetry(ctx, &notification); err != nil {
		notification.MarkFailed(err, h.now())
		return err
	}

	notification.MarkSent(h.now())
	return nil
}

func (h *consumerGroupHandler) executeWithRetry(ctx context.Context, notification *EmailNotification) error {
	for attempt := 0; ; attempt++ {
		err := h.emailService.SendNotification(ctx, notification)
		if err == nil {
			return nil
		}
		if attempt >= h.maxRetries {
			return fmt.Errorf("giving up after %d attempts: %w", attempt+1, err)
		}

		notification.RetryCount++
		notification.Status = NotificationStatusRetrying
		delay := h.backoff * time.Duration(1<<attempt)
		h.log.WarnContext(ctx, "email send failed, retrying",
			"notification_id", notification.ID.String(),
			"attempt", attempt+1,
			"delay", delay,
			"error", err,
		)

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
