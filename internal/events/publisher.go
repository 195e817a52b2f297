package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/config"
	"github.com/tm-acme-shop/acme-shop-orders-console/internal/middleware"
)

// EventType represents the type of console action.
type EventType string

const (
	EventTypeOrderCreated       EventType = "console.order.created"
	EventTypeOrderUpdated       EventType = "console.order.updated"
	EventTypeOrderDeleted       EventType = "console.order.deleted"
	EventTypeOrderStatusChanged EventType = "console.order.status_changed"
)

// ActionEvent records one successful mutating operator action.
type ActionEvent struct {
	ID            string            `json:"id"`
	Type          EventType         `json:"type"`
	OrderID       int64             `json:"order_id"`
	Data          json.RawMessage   `json:"data,omitempty"`
	Metadata      map[string]string `json:"metadata"`
	Timestamp     time.Time         `json:"timestamp"`
	CorrelationID string            `json:"correlation_id,omitempty"`
}

// Publisher publishes console action events.
type Publisher interface {
	Publish(ctx context.Context, eventType EventType, orderID int64, payload interface{}) error
	Close() error
}

// Ensure implementations satisfy Publisher
var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NoopPublisher{}
	_ Publisher = (*MockPublisher)(nil)
)

// messageWriter is the part of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes action events to Kafka.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	logger *slog.Logger
	now    func() time.Time
}

// NewKafkaPublisher creates a new Kafka-based event publisher.
func NewKafkaPublisher(cfg config.KafkaConfig, logger *slog.Logger) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.ActionsTopic,
		Balancer:     &kafka.Hash{},
		WriteTimeout: 10 * time.Second,
		RequiredAcks: kafka.RequireOne,
	}

	return newKafkaPublisher(writer, cfg.ActionsTopic, logger)
}

func newKafkaPublisher(w messageWriter, topic string, logger *slog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: w,
		topic:  topic,
		logger: logger,
		now:    time.Now,
	}
}

// Publish sends one event keyed by order id so events of an order stay ordered.
func (p *KafkaPublisher) Publish(ctx context.Context, eventType EventType, orderID int64, payload interface{}) error {
	p.logger.Debug("Publishing action event",
		"event_type", eventType,
		"order_id", orderID,
	)

	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}

	event := p.createEvent(ctx, eventType, orderID, data)
	return p.publish(ctx, event)
}

func (p *KafkaPublisher) createEvent(ctx context.Context, eventType EventType, orderID int64, data []byte) *ActionEvent {
	event := &ActionEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		OrderID:   orderID,
		Data:      data,
		Metadata:  map[string]string{"source": "orders-console"},
		Timestamp: p.now().UTC(),
	}

	if requestID := middleware.RequestIDFromContext(ctx); requestID != "" {
		event.CorrelationID = requestID
	}

	return event
}

func (p *KafkaPublisher) publish(ctx context.Context, event *ActionEvent) error {
	eventData, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(event.OrderID, 10)),
		Value: eventData,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish event",
			"event_id", event.ID,
			"event_type", event.Type,
			"order_id", event.OrderID,
			"error", err.Error(),
		)
		return err
	}

	p.logger.Info("Event published",
		"event_id", event.ID,
		"event_type", event.Type,
		"order_id", event.OrderID,
	)

	return nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	p.logger.Info("Closing Kafka publisher", "topic", p.topic)
	return p.writer.Close()
}

// NoopPublisher drops every event. It is used when action events are disabled.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, EventType, int64, interface{}) error { return nil }

func (NoopPublisher) Close() error { return nil }

// MockPublisher is a mock implementation for testing.
type MockPublisher struct {
	mu     sync.Mutex
	Events []*ActionEvent
	Err    error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{
		Events: make([]*ActionEvent, 0),
	}
}

func (m *MockPublisher) Publish(ctx context.Context, eventType EventType, orderID int64, payload interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.Err != nil {
		return m.Err
	}
	m.Events = append(m.Events, &ActionEvent{
		Type:          eventType,
		OrderID:       orderID,
		CorrelationID: middleware.RequestIDFromContext(ctx),
	})
	return nil
}

// Types returns the published event types in order.
func (m *MockPublisher) Types() []EventType {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]EventType, len(m.Events))
	for i, e := range m.Events {
		out[i] = e.Type
	}
	return out
}

func (m *MockPublisher) Close() error { return nil }
