package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"finora/api/logger"
	"finora/api/models"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"go.uber.org/zap"
)

var (
	ProfileTopic string = "profile_updated"
	GroupID      string = "profile-event-consumer"
)

// Config selects the cluster. Without an API key the connection is
// plaintext, which is what a local broker expects.
type Config struct {
	BootstrapServers string
	APIKey           string
	APISecret        string
	GroupID          string
}

func (c Config) configMap() *kafka.ConfigMap {
	cm := &kafka.ConfigMap{
		"bootstrap.servers": c.BootstrapServers,
	}
	if c.APIKey != "" {
		cm.SetKey("security.protocol", "SASL_SSL")
		cm.SetKey("sasl.mechanisms", "PLAIN")
		cm.SetKey("sasl.username", c.APIKey)
		cm.SetKey("sasl.password", c.APISecret)
	}
	return cm
}

// Submitter receives consumed events keyed by user.
type Submitter interface {
	SubmitKey(key string, job []byte) error
}

type Producer struct {
	producer *kafka.Producer
	topic    string
	done     chan struct{}
}

func NewProducer(cfg Config) (*Producer, error) {
	p, err := kafka.NewProducer(cfg.configMap())
	if err != nil {
		logger.Get().Error("failed to initialize Kafka producer",
			zap.String("bootstrap_servers", cfg.BootstrapServers),
			zap.Error(err))
		return nil, err
	}

	producer := &Producer{producer: p, topic: ProfileTopic, done: make(chan struct{})}
	go producer.reportDeliveries()

	logger.Get().Info("Kafka producer initialized successfully",
		zap.String("bootstrap_servers", cfg.BootstrapServers))
	return producer, nil
}

func (p *Producer) reportDeliveries() {
	defer close(p.done)
	for e := range p.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				logger.Get().Error("failed to deliver message",
					zap.String("topic", p.topic),
					zap.ByteString("key", ev.Key),
					zap.Error(ev.TopicPartition.Error))
			}
		case kafka.Error:
			logger.Get().Error("producer error", zap.Error(ev))
		}
	}
}

// PublishProfileEvent produces the event keyed by user id so that all
// events of a user land in the same Kafka partition.
func (p *Producer) PublishProfileEvent(ctx context.Context, event models.ProfileEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg, err := encodeEvent(p.topic, event)
	if err != nil {
		return err
	}

	if err := p.producer.Produce(msg, nil); err != nil {
		logger.Get().Error("failed to produce message",
			zap.String("topic", p.topic),
			zap.String("user_id", event.UserID),
			zap.Error(err))
		return err
	}

	logger.Get().Debug("message produced successfully",
		zap.String("topic", p.topic),
		zap.String("user_id", event.UserID))
	return nil
}

// Close flushes outstanding messages for up to timeout.
func (p *Producer) Close(timeout time.Duration) {
	if left := p.producer.Flush(int(timeout.Milliseconds())); left > 0 {
		logger.Get().Warn("unflushed Kafka messages at shutdown", zap.Int("count", left))
	}
	p.producer.Close()
	<-p.done
}

type Consumer struct {
	consumer *kafka.Consumer
	sink     Submitter
}

func NewConsumer(cfg Config, sink Submitter) (*Consumer, error) {
	groupID := cfg.GroupID
	if groupID == "" {
		groupID = GroupID
	}
	cm := cfg.configMap()
	cm.SetKey("session.timeout.ms", "45000")
	cm.SetKey("client.id", "finora-api")
	cm.SetKey("group.id", groupID)
	cm.SetKey("auto.offset.reset", "latest")

	consumer, err := kafka.NewConsumer(cm)
	if err != nil {
		logger.Get().Error("failed to create consumer",
			zap.String("bootstrap_servers", cfg.BootstrapServers),
			zap.Error(err))
		return nil, err
	}

	if err := consumer.Subscribe(ProfileTopic, nil); err != nil {
		logger.Get().Error("failed to subscribe to topic",
			zap.String("topic", ProfileTopic),
			zap.Error(err))
		consumer.Close()
		return nil, err
	}

	logger.Get().Info("Kafka consumer started successfully",
		zap.String("topic", ProfileTopic),
		zap.String("group_id", groupID))
	return &Consumer{consumer: consumer, sink: sink}, nil
}

// Run reads until ctx is cancelled, then closes the consumer.
func (c *Consumer) Run(ctx context.Context) {
	defer func() {
		if err := c.consumer.Close(); err != nil {
			logger.Get().Error("failed to close consumer", zap.Error(err))
		}
	}()

	for ctx.Err() == nil {
		msg, err := c.consumer.ReadMessage(200 * time.Millisecond)
		if err != nil {
			var kerr kafka.Error
			if errors.As(err, &kerr) && kerr.Code() == kafka.ErrTimedOut {
				continue
			}
			logger.Get().Error("consumer error",
				zap.String("topic", ProfileTopic),
				zap.Error(err))
			continue
		}
		if err := dispatch(c.sink, msg); err != nil {
			logger.Get().Error("failed to dispatch message",
				zap.String("topic", ProfileTopic),
				zap.Error(err))
		}
	}
}

func encodeEvent(topic string, event models.ProfileEvent) (*kafka.Message, error) {
	value, err := json.Marshal(event)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile event: %w", err)
	}
	return &kafka.Message{
		TopicPartition: kafka.TopicPartition{Topic: &topic, Partition: kafka.PartitionAny},
		Key:            []byte(event.UserID),
		Value:          value,
	}, nil
}

func dispatch(sink Submitter, msg *kafka.Message) error {
	var event models.ProfileEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}
	if event.UserID == "" {
		return errors.New("profile event without user id")
	}
	logger.Get().Debug("received profile event",
		zap.String("user_id", event.UserID),
		zap.Uint64("version", event.Version))
	return sink.SubmitKey(event.UserID, msg.Value)
}
