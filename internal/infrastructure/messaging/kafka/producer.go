package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/config"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/intel"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/domain/poi"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

var ErrProducerClosed = errors.New(errors.ErrCodeInternal, "producer closed")

const sourceService = "intel-resolution"

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes resolution domain events. It satisfies the application
// layer's EventPublisher so the service never sees kafka types.
type Producer struct {
	writer      WriterInterface
	topicPrefix string
	logger      logging.Logger
	closed      atomic.Bool
	sent        atomic.Int64
}

func NewProducer(cfg config.KafkaConfig, log logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "kafka brokers required")
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  3,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireAll,
	}

	return &Producer{
		writer:      writer,
		topicPrefix: cfg.TopicPrefix,
		logger:      log,
	}, nil
}

// NewProducerWithWriter wires a custom writer, used by tests.
func NewProducerWithWriter(w WriterInterface, topicPrefix string, log logging.Logger) *Producer {
	return &Producer{writer: w, topicPrefix: topicPrefix, logger: log}
}

func (p *Producer) PublishPoiCreated(ctx context.Context, profile *poi.Profile) error {
	return p.publishProfile(ctx, TopicPoiCreated, profile)
}

func (p *Producer) PublishPoiUpdated(ctx context.Context, profile *poi.Profile) error {
	return p.publishProfile(ctx, TopicPoiUpdated, profile)
}

func (p *Producer) PublishLinkRegistered(ctx context.Context, l *intel.Link) error {
	payload := LinkRegisteredPayload{
		PoiID:            l.PoiID,
		SourceType:       l.SourceType,
		SourceID:         l.SourceID,
		ExtractionMethod: l.ExtractionMethod,
		ConfidenceScore:  l.ConfidenceScore,
	}
	return p.publish(ctx, TopicLinkRegistered, []byte(l.Key()), payload)
}

func (p *Producer) publishProfile(ctx context.Context, topic string, profile *poi.Profile) error {
	payload := PoiEventPayload{
		ProfileID:   string(profile.ID),
		PoiID:       profile.PoiID,
		NameEnglish: profile.NameEnglish,
		NameChinese: profile.NameChinese,
		Status:      profile.Status.String(),
		Version:     profile.Version,
	}
	return p.publish(ctx, topic, []byte(profile.PoiID), payload)
}

// publish keys messages so all events for one profile land on one partition
// and consumers observe them in order.
func (p *Producer) publish(ctx context.Context, topic string, key []byte, payload interface{}) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	env, err := NewEventEnvelope(topic, sourceService, payload)
	if err != nil {
		return err
	}
	value, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal envelope")
	}

	msg := kafka.Message{
		Topic: p.topicPrefix + topic,
		Key:   key,
		Value: value,
		Time:  env.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.EventType)},
			{Key: "schema_version", Value: []byte(env.SchemaVersion)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "publish failed").
			WithDetail(topic)
	}
	p.sent.Add(1)

	p.logger.Debug("event published",
		logging.String("topic", msg.Topic),
		logging.String("event_id", env.EventID),
	)
	return nil
}

func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}
