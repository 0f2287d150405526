// Package events публикует события вовлечённости клиентов во внешнюю шину.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

// Type — тип события вовлечённости.
type Type string

const (
	CustomerSignedUp  Type = "customer.signed_up"
	CustomerLoggedIn  Type = "customer.logged_in"
	OrderPlaced       Type = "order.placed"
	OrderRated        Type = "order.rated"
	FeedbackSubmitted Type = "feedback.submitted"
)

// ErrPublisherClosed возвращается при публикации в закрытый издатель.
var ErrPublisherClosed = errors.New("publisher is closed")

// batchTimeout ограничивает ожидание неполного пакета: события пишутся по одному
// из обработчиков запросов.
const batchTimeout = 10 * time.Millisecond

// Event описывает одно событие, связанное с клиентом.
type Event struct {
	Type       Type      `json:"type"`
	CustomerID string    `json:"customer_id"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload,omitempty"`
}

// NopPublisher отбрасывает события. Используется, если брокеры не настроены.
type NopPublisher struct{}

// Publish ничего не делает.
func (NopPublisher) Publish(context.Context, Event) error { return nil }

// Close ничего не делает.
func (NopPublisher) Close() error { return nil }

// KafkaPublisher пишет события в топик Kafka с ключом customer_id,
// чтобы события одного клиента попадали в одну партицию.
type KafkaPublisher struct {
	writer *kafka.Writer
	mu     sync.Mutex
	closed bool
}

// NewKafkaPublisher создаёт издателя для указанных брокеров и топика.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 {
		return nil, errors.New("no kafka brokers configured")
	}
	if topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			BatchTimeout:           batchTimeout,
			RequiredAcks:           kafka.RequireAll,
			AllowAutoTopicCreation: true,
		},
	}, nil
}

// Publish синхронно отправляет событие.
func (p *KafkaPublisher) Publish(ctx context.Context, e Event) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrPublisherClosed
	}
	p.mu.Unlock()

	msg, err := encode(e)
	if err != nil {
		return err
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	return nil
}

// Close закрывает издателя. Повторный вызов безопасен.
func (p *KafkaPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	return p.writer.Close()
}

func encode(e Event) (kafka.Message, error) {
	value, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("marshal event: %w", err)
	}

	return kafka.Message{
		Key:   []byte(e.CustomerID),
		Value: value,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}, nil
}
