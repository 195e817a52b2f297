package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tm-acme-shop/acme-shop-orders-console/internal/middleware"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func newTestPublisher(w *fakeWriter) *KafkaPublisher {
	p := newKafkaPublisher(w, "orders-console.actions", slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.now = func() time.Time { return time.Date(2024, 6, 14, 14, 30, 5, 0, time.UTC) }
	return p
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := newTestPublisher(w)

	ctx := middleware.WithRequestID(context.Background(), "req-1")
	require.NoError(t, p.Publish(ctx, EventTypeOrderStatusChanged, 12, map[string]string{"status": "COMPLETED"}))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "12", string(msg.Key))
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, string(EventTypeOrderStatusChanged), string(msg.Headers[0].Value))

	var event ActionEvent
	require.NoError(t, json.Unmarshal(msg.Value, &event))
	assert.Equal(t, EventTypeOrderStatusChanged, event.Type)
	assert.Equal(t, int64(12), event.OrderID)
	assert.Equal(t, "req-1", event.CorrelationID)
	assert.Equal(t, string(msg.Headers[1].Value), event.ID)
	assert.JSONEq(t, `{"status":"COMPLETED"}`, string(event.Data))
	assert.True(t, event.Timestamp.Equal(p.now()))
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker down")}
	p := newTestPublisher(w)

	err := p.Publish(context.Background(), EventTypeOrderDeleted, 3, nil)
	assert.EqualError(t, err, "broker down")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestMockPublisher(t *testing.T) {
	m := NewMockPublisher()
	require.NoError(t, m.Publish(context.Background(), EventTypeOrderCreated, 1, nil))
	require.NoError(t, m.Publish(context.Background(), EventTypeOrderDeleted, 1, nil))
	assert.Equal(t, []EventType{EventTypeOrderCreated, EventTypeOrderDeleted}, m.Types())

	assert.NoError(t, NoopPublisher{}.Publish(context.Background(), EventTypeOrderCreated, 1, nil))
}
