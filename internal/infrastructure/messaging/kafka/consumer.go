package kafka

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/config"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

var ErrAlreadyRunning = errors.New(errors.ErrCodeConflict, "consumer already running")

// Handler processes one decoded event. A nil return commits the offset.
type Handler func(ctx context.Context, env *EventEnvelope) error

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer drains one topic within a consumer group. Offsets are committed
// explicitly after the handler finishes so a crash replays the in-flight
// message instead of losing it.
type Consumer struct {
	reader  ReaderInterface
	handler Handler
	logger  logging.Logger

	maxRetries   int
	retryBackoff time.Duration

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	processed atomic.Int64
	failed    atomic.Int64
}

func NewConsumer(cfg config.KafkaConfig, topic string, handler Handler, log logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	if cfg.GroupID == "" {
		return nil, errors.New(errors.ErrCodeValidation, "kafka group id required")
	}

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:           cfg.Brokers,
		GroupID:           cfg.GroupID,
		Topic:             cfg.TopicPrefix + topic,
		MinBytes:          1,
		MaxBytes:          10 * 1024 * 1024,
		StartOffset:       startOffset,
		SessionTimeout:    30 * time.Second,
		HeartbeatInterval: 3 * time.Second,
	})

	return newConsumer(reader, handler, log), nil
}

// NewConsumerWithReader wires a custom reader, used by tests.
func NewConsumerWithReader(r ReaderInterface, handler Handler, log logging.Logger) *Consumer {
	return newConsumer(r, handler, log)
}

func newConsumer(r ReaderInterface, handler Handler, log logging.Logger) *Consumer {
	return &Consumer{
		reader:       r,
		handler:      handler,
		logger:       log,
		maxRetries:   3,
		retryBackoff: time.Second,
	}
}

func (c *Consumer) Start(ctx context.Context) error {
	if c.running.Swap(true) {
		return ErrAlreadyRunning
	}

	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.wg.Add(1)
	go c.consumeLoop(ctx)

	c.logger.Info("kafka consumer started")
	return nil
}

func (c *Consumer) consumeLoop(ctx context.Context) {
	defer c.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}

		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Error("fetch message failed", logging.Err(err))
			time.Sleep(time.Second)
			continue
		}

		c.handleMessage(ctx, m)

		if err := c.reader.CommitMessages(ctx, m); err != nil && ctx.Err() == nil {
			c.logger.Error("commit failed",
				logging.String("topic", m.Topic),
				logging.Int64("offset", m.Offset),
				logging.Err(err))
		}
	}
}

// handleMessage retries transient handler failures with backoff. A message
// that still fails is logged and skipped so one poison message cannot stall
// the partition.
func (c *Consumer) handleMessage(ctx context.Context, m kafka.Message) {
	env, err := DecodeEnvelope(m.Value)
	if err != nil {
		c.failed.Add(1)
		c.logger.Warn("dropping undecodable message",
			logging.String("topic", m.Topic),
			logging.Int64("offset", m.Offset),
			logging.Err(err))
		return
	}

	backoff := c.retryBackoff
	for attempt := 0; ; attempt++ {
		err = c.handler(ctx, env)
		if err == nil {
			c.processed.Add(1)
			return
		}
		if attempt >= c.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff *= 2
	}

	c.failed.Add(1)
	c.logger.Error("handler failed, skipping message",
		logging.String("event_id", env.EventID),
		logging.String("event_type", env.EventType),
		logging.Err(err))
}

func (c *Consumer) Close() error {
	if !c.running.Swap(false) {
		return nil
	}
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	err := c.reader.Close()
	c.logger.Info("kafka consumer closed",
		logging.Int64("processed", c.processed.Load()),
		logging.Int64("failed", c.failed.Load()))
	return err
}
