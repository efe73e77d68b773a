package kafka

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/config"
	pkgerrors "github.com/turtacn/recidivism-forecast/pkg/errors"
)

// mockKafkaWriter records written messages.
type mockKafkaWriter struct {
	mu        sync.Mutex
	written   []kafka.Message
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	closed    int
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		if err := m.writeFunc(ctx, msgs...); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.closed++
	return nil
}

func (m *mockKafkaWriter) Stats() kafka.WriterStats { return kafka.WriterStats{} }

func (m *mockKafkaWriter) messages() []kafka.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]kafka.Message(nil), m.written...)
}

func newTestProducer(w WriterInterface) *Producer {
	return newProducerWithWriter(w, ProducerConfig{Brokers: []string{"localhost:9092"}}, nil)
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b"}, MaxRetries: -1}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b"}, Acks: "most"}))
}

func TestProducerConfigFrom(t *testing.T) {
	pc := ProducerConfigFrom(config.KafkaConfig{
		Brokers: []string{"k1:9092", "k2:9092"}, TimeoutMS: 2500, ProducerRetries: 5, BatchSize: 10,
	})
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, pc.Brokers)
	assert.Equal(t, 2500*time.Millisecond, pc.WriteTimeout)
	assert.Equal(t, 5, pc.MaxRetries)
	assert.Equal(t, 10, pc.BatchSize)
	assert.Equal(t, "all", pc.Acks)
}

func TestPublish_Success(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{
		Topic:   "t",
		Key:     []byte("k"),
		Value:   []byte(`{"a":1}`),
		Headers: map[string]string{"event_type": "x"},
	})
	require.NoError(t, err)

	msgs := w.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "t", msgs[0].Topic)
	assert.Equal(t, []byte("k"), msgs[0].Key)
	assert.False(t, msgs[0].Time.IsZero())
	require.Len(t, msgs[0].Headers, 1)
	assert.Equal(t, "event_type", msgs[0].Headers[0].Key)
	assert.Equal(t, int64(1), p.Sent())
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	assert.Error(t, p.Publish(ctx, &ProducerMessage{Value: []byte("v")}))
	assert.Error(t, p.Publish(ctx, &ProducerMessage{Topic: "t"}))

	big := make([]byte, 2*1024*1024)
	err := p.Publish(ctx, &ProducerMessage{Topic: "t", Value: big})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodePayloadTooLarge))
}

func TestPublish_WriterError(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(ctx context.Context, msgs ...kafka.Message) error {
		return errors.New("broker down")
	}}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.ErrCodeEventPublishFailed))
	assert.Equal(t, int64(1), p.Failed())
}

func TestPublish_Closed(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closed)

	err := p.Publish(context.Background(), &ProducerMessage{Topic: "t", Value: []byte("v")})
	assert.Equal(t, ErrProducerClosed, err)
}

func TestPublishBatch(t *testing.T) {
	msgs := []*ProducerMessage{
		{Topic: "a", Value: []byte("1")},
		{Topic: "b", Value: []byte("2")},
		{Topic: "c", Value: []byte("3")},
	}

	t.Run("all succeed", func(t *testing.T) {
		p := newTestProducer(&mockKafkaWriter{})
		res, err := p.PublishBatch(context.Background(), msgs)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Succeeded)
		assert.Zero(t, res.Failed)
	})

	t.Run("partial failure", func(t *testing.T) {
		p := newTestProducer(&mockKafkaWriter{writeFunc: func(ctx context.Context, m ...kafka.Message) error {
			return kafka.WriteErrors{nil, errors.New("nope"), nil}
		}})
		res, err := p.PublishBatch(context.Background(), msgs)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Succeeded)
		assert.Equal(t, 1, res.Failed)
		require.Len(t, res.Errors, 1)
		assert.Equal(t, 1, res.Errors[0].Index)
		assert.Equal(t, "b", res.Errors[0].Topic)
	})

	t.Run("total failure", func(t *testing.T) {
		p := newTestProducer(&mockKafkaWriter{writeFunc: func(ctx context.Context, m ...kafka.Message) error {
			return errors.New("down")
		}})
		res, err := p.PublishBatch(context.Background(), msgs)
		require.NoError(t, err)
		assert.Equal(t, 3, res.Failed)
		assert.Equal(t, -1, res.Errors[0].Index)
	})

	t.Run("empty", func(t *testing.T) {
		p := newTestProducer(&mockKafkaWriter{})
		_, err := p.PublishBatch(context.Background(), nil)
		assert.Error(t, err)
	})
}

//Personal.AI order the ending
