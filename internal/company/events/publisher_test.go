package events

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"siret-api/internal/company/metrics"
	"siret-api/internal/company/models"
	"siret-api/pkg/platform/circuit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	var out kgo.ProduceResults
	for _, r := range rs {
		f.records = append(f.records, r)
		out = append(out, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return out
}

func header(r *kgo.Record, key string) string {
	for _, h := range r.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestPublishWritesKeyedRecord(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	producer := &fakeProducer{}
	p := NewKafkaPublisher(producer, "company.changes", WithClock(func() time.Time { return fixed }))

	err := p.Publish(context.Background(), models.ChangeEvent{
		Kind:       models.ChangeUpdated,
		Siret:      12345600789,
		Attributes: map[string]string{"etablissementSiege": "true"},
	})
	require.NoError(t, err)
	require.Len(t, producer.records, 1)

	rec := producer.records[0]
	assert.Equal(t, "company.changes", rec.Topic)
	assert.Equal(t, "12345600789", string(rec.Key))
	assert.Equal(t, "company.updated", header(rec, HeaderKind))

	var msg Message
	require.NoError(t, json.Unmarshal(rec.Value, &msg))
	assert.Equal(t, header(rec, HeaderEventID), msg.ID)
	assert.Equal(t, int64(12345600789), msg.Siret)
	assert.Equal(t, fixed, msg.OccurredAt)
	assert.Equal(t, "true", msg.Attributes["etablissementSiege"])
}

// blockingProducer never acknowledges; it returns once the context is done.
type blockingProducer struct {
	calls atomic.Int32
}

func (b *blockingProducer) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	b.calls.Add(1)
	<-ctx.Done()
	var out kgo.ProduceResults
	for _, r := range rs {
		out = append(out, kgo.ProduceResult{Record: r, Err: ctx.Err()})
	}
	return out
}

func TestPublishFailuresTripBreaker(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	breaker := circuit.New("test-events",
		circuit.WithFailureThreshold(3),
		circuit.WithSuccessThreshold(1),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	producer := &fakeProducer{err: errors.New("broker down")}
	p := NewKafkaPublisher(producer, "", WithMetrics(m), WithBreaker(breaker))

	for range 3 {
		err := p.Publish(context.Background(), models.ChangeEvent{Kind: models.ChangeDeleted, Siret: 1})
		require.Error(t, err)
	}
	assert.False(t, p.Healthy())
	assert.Error(t, p.Check(context.Background()))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.EventsPublished.WithLabelValues("error")))

	// The broker is back, but nothing is produced until the cooldown ends.
	producer.err = nil
	err := p.Publish(context.Background(), models.ChangeEvent{Kind: models.ChangeCreated, Siret: 1})
	require.ErrorIs(t, err, ErrStreamUnavailable)
	assert.Len(t, producer.records, 3)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.EventsPublished.WithLabelValues("dropped")))

	now = now.Add(time.Minute)
	require.NoError(t, p.Publish(context.Background(), models.ChangeEvent{Kind: models.ChangeCreated, Siret: 1}))
	assert.True(t, p.Healthy())
	assert.NoError(t, p.Check(context.Background()))
	assert.Len(t, producer.records, 4)
}

func TestOpenBreakerStopsProducing(t *testing.T) {
	producer := &blockingProducer{}
	p := NewKafkaPublisher(producer, "company.changes", WithPublishTimeout(20*time.Millisecond))

	for i := range 6 {
		start := time.Now()
		err := p.Publish(context.Background(), models.ChangeEvent{Kind: models.ChangeUpdated, Siret: int64(i)})
		require.Error(t, err)
		assert.Less(t, time.Since(start), 2*time.Second, "publish %d waited past its timeout", i)
	}

	assert.Equal(t, int32(3), producer.calls.Load(), "open breaker must not reach the producer")
	assert.False(t, p.Healthy())
}
