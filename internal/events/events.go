package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	TopicCart  = "cart_events"
	TopicOrder = "order_events"
	TopicUser  = "user_events"

	TypeCartUpdated     = "cart_updated"
	TypeCartItemRemoved = "cart_item_removed"
	TypeCartCleared     = "cart_cleared"
	TypeOrderCreated    = "order_created"
	TypeOrderCompleted  = "order_completed"
	TypeUserLoggedIn    = "user_logged_in"
)

type Event struct {
	ID         string    `json:"event_id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

func New(typ string, data any) Event {
	return Event{ID: uuid.NewString(), Type: typ, OccurredAt: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, topic, key string, ev Event) error
	Close() error
}

type KafkaPublisher struct {
	w *kafka.Writer
}

// NewKafkaPublisher writes to any topic; messages with the same key land on the same partition.
func NewKafkaPublisher(brokers []string) *KafkaPublisher {
	return &KafkaPublisher{w: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
	}}
}

func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("kafka: marshal %s: %w", ev.Type, err)
	}
	if err := p.w.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  ev.OccurredAt,
	}); err != nil {
		return fmt.Errorf("kafka: write %s: %w", topic, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error { return p.w.Close() }

// LogPublisher stands in for a broker: events go to the log at debug level.
type LogPublisher struct {
	Logger *slog.Logger
}

func (p LogPublisher) Publish(ctx context.Context, topic, key string, ev Event) error {
	l := p.Logger
	if l == nil {
		l = slog.Default()
	}
	l.DebugContext(ctx, "event_published", "topic", topic, "key", key, "type", ev.Type, "event_id", ev.ID)
	return nil
}

func (LogPublisher) Close() error { return nil }

// MemoryPublisher keeps published events in order.
type MemoryPublisher struct {
	mu   sync.Mutex
	recs []Record
	Err  error
}

type Record struct {
	Topic string
	Key   string
	Event Event
}

func (p *MemoryPublisher) Publish(_ context.Context, topic, key string, ev Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.recs = append(p.recs, Record{Topic: topic, Key: key, Event: ev})
	return nil
}

func (p *MemoryPublisher) Close() error { return nil }

func (p *MemoryPublisher) Records() []Record {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]Record, len(p.recs))
	copy(out, p.recs)
	return out
}

// Types lists the event types published to topic, oldest first.
func (p *MemoryPublisher) Types(topic string) []string {
	var out []string
	for _, r := range p.Records() {
		if r.Topic == topic {
			out = append(out, r.Event.Type)
		}
	}
	return out
}
