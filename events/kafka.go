package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// Header keys
const (
	HeaderEventID   = "event-id"
	HeaderEventType = "event-type"
	HeaderSource    = "source"
)

const source = "restaurant-reservations"

var ErrPublisherClosed = errors.New("kafka publisher is closed")

type KafkaPublisher struct {
	writer *kafka.Writer
	topic  string
	closed bool
	mu     sync.RWMutex
}

func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}
	if topic == "" {
		return nil, fmt.Errorf("topic cannot be empty")
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{}, // same table, same partition
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchTimeout: 10 * time.Millisecond,
		Logger:       kafka.LoggerFunc(func(string, ...any) {}),
		ErrorLogger:  kafka.LoggerFunc(utils.ErrorLogger.Printf),
	}
	utils.InfoLogger.Infof("Kafka publisher ready for topic %s on %v", topic, brokers)
	return &KafkaPublisher{writer: writer, topic: topic}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, msg Message) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrPublisherClosed
	}

	kafkaMsg, err := toKafkaMessage(msg)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, kafkaMsg); err != nil {
		return fmt.Errorf("publish %s to %s: %w", msg.Event, p.topic, err)
	}
	return nil
}

func toKafkaMessage(msg Message) (kafka.Message, error) {
	value, err := json.Marshal(msg)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("encode %s: %w", msg.Event, err)
	}
	key := msg.Key
	if key == "" {
		key = msg.Event
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  msg.Time,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(msg.ID)},
			{Key: HeaderEventType, Value: []byte(msg.Event)},
			{Key: HeaderSource, Value: []byte(source)},
		},
	}, nil
}

func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.writer.Close()
}
