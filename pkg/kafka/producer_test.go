package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func header(msg kafka.Message, key string) string {
	return NewHeaderCarrier(&msg.Headers).Get(key)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "rainbow.review.created", Topic("review", "created"))
	assert.Equal(t, "rainbow.user.password_reset", Topic("user", "password_reset"))
}

func TestNewEvent(t *testing.T) {
	ev, err := NewEvent("review.created", "listing-1", "clinic", "rainbow", map[string]float64{"rating": 4})
	require.NoError(t, err)

	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, 1, ev.Version)
	assert.Equal(t, "clinic", ev.AggregateType)
	assert.JSONEq(t, `{"rating":4}`, string(ev.Data))
	assert.Equal(t, "corr", ev.WithCorrelationID("corr").CorrelationID)

	_, err = NewEvent("bad", "x", "y", "z", make(chan int))
	assert.Error(t, err)
}

func TestProducer_Publish(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	t.Cleanup(func() { otel.SetTextMapPropagator(prev) })

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID, SpanID: spanID, TraceFlags: trace.FlagsSampled,
	}))

	w := &fakeWriter{}
	metrics := NewProducerMetrics(prometheus.NewRegistry())
	p := NewProducerWithWriter(w, nil, metrics, discard())

	ev, err := NewEvent("review.created", "listing-1", "clinic", "rainbow", struct{}{})
	require.NoError(t, err)
	require.NoError(t, p.Publish(ctx, "rainbow.review.created", ev.WithCorrelationID("corr-1")))

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "rainbow.review.created", msg.Topic)
	assert.Equal(t, "listing-1", string(msg.Key))
	assert.Equal(t, "review.created", header(msg, "event_type"))
	assert.Equal(t, "corr-1", header(msg, "correlation_id"))
	assert.Contains(t, header(msg, "traceparent"), "4bf92f3577b34da6a3ce929d0e0e4736")

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, ev.EventID, decoded.EventID)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.published.WithLabelValues("rainbow.review.created")))
}

func TestProducer_PublishError(t *testing.T) {
	w := &fakeWriter{err: errors.New("leader not available")}
	metrics := NewProducerMetrics(prometheus.NewRegistry())
	p := NewProducerWithWriter(w, nil, metrics, discard())

	ev, _ := NewEvent("user.registered", "u1", "user", "rainbow", struct{}{})
	err := p.Publish(context.Background(), "rainbow.user.registered", ev)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "publish event to rainbow.user.registered")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.failed.WithLabelValues("rainbow.user.registered")))
}

func TestProducer_NilMetricsAndClose(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, nil, nil, discard())
	ev, _ := NewEvent("x", "a", "b", "c", 1)
	require.NoError(t, p.Publish(context.Background(), "t", ev))
	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestPingBrokers_NoBrokers(t *testing.T) {
	err := PingBrokers(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no brokers configured")
}

func TestHeaderCarrier(t *testing.T) {
	headers := []kafka.Header{{Key: "existing", Value: []byte("v1")}}
	c := NewHeaderCarrier(&headers)

	assert.Equal(t, "v1", c.Get("existing"))
	assert.Empty(t, c.Get("missing"))

	c.Set("existing", "v2")
	c.Set("new", "n")
	assert.Equal(t, "v2", c.Get("existing"))
	assert.ElementsMatch(t, []string{"existing", "new"}, c.Keys())
	assert.Len(t, headers, 2)
}
