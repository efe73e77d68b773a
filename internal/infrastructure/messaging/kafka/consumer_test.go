package kafka

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/recidivism-forecast/internal/config"
)

// mockKafkaReader serves queued messages and then blocks until cancelled.
type mockKafkaReader struct {
	queue     chan kafka.Message
	mu        sync.Mutex
	committed []kafka.Message
	closed    atomic.Bool
}

func newMockReader(msgs ...kafka.Message) *mockKafkaReader {
	r := &mockKafkaReader{queue: make(chan kafka.Message, len(msgs))}
	for _, m := range msgs {
		r.queue <- m
	}
	return r
}

func (m *mockKafkaReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case msg := <-m.queue:
		return msg, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (m *mockKafkaReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.committed = append(m.committed, msgs...)
	return nil
}

func (m *mockKafkaReader) Close() error {
	m.closed.Store(true)
	return nil
}

func (m *mockKafkaReader) Stats() kafka.ReaderStats { return kafka.ReaderStats{} }

func (m *mockKafkaReader) commitCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.committed)
}

// mockSink collects dead-lettered messages.
type mockSink struct {
	mu   sync.Mutex
	msgs []*ProducerMessage
}

func (s *mockSink) Publish(ctx context.Context, msg *ProducerMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, msg)
	return nil
}

func (s *mockSink) Close() error { return nil }

func (s *mockSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func testConsumerConfig() ConsumerConfig {
	return ConsumerConfig{
		Brokers: []string{"localhost:9092"},
		GroupID: "test-group",
		Topics:  []string{"in"},
		RetryConfig: RetryConfig{
			MaxRetries:      2,
			RetryBackoff:    time.Millisecond,
			MaxRetryBackoff: 2 * time.Millisecond,
			DeadLetterTopic: TopicDeadLetter,
		},
	}
}

func TestValidateConsumerConfig(t *testing.T) {
	assert.NoError(t, ValidateConsumerConfig(testConsumerConfig()))

	cfg := testConsumerConfig()
	cfg.Brokers = nil
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = testConsumerConfig()
	cfg.GroupID = ""
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = testConsumerConfig()
	cfg.Topics = nil
	assert.Error(t, ValidateConsumerConfig(cfg))

	cfg = testConsumerConfig()
	cfg.AutoOffsetReset = "middle"
	assert.Error(t, ValidateConsumerConfig(cfg))
}

func TestConsumerConfigFrom(t *testing.T) {
	cfg := ConsumerConfigFrom(
		config.KafkaConfig{Brokers: []string{"k:9092"}, GroupID: "risk-worker", ReassessTopic: "re"},
		config.WorkerConfig{MaxRetries: 4, RetryBackoff: time.Second},
	)
	assert.Equal(t, []string{"re"}, cfg.Topics)
	assert.Equal(t, "risk-worker", cfg.GroupID)
	assert.Equal(t, 4, cfg.RetryConfig.MaxRetries)
	assert.Equal(t, TopicDeadLetter, cfg.RetryConfig.DeadLetterTopic)
}

func TestConsumer_ProcessesAndCommits(t *testing.T) {
	reader := newMockReader(
		kafka.Message{Topic: "in", Offset: 0, Value: []byte("a"), Headers: []kafka.Header{{Key: "h", Value: []byte("v")}}},
		kafka.Message{Topic: "in", Offset: 1, Value: []byte("b")},
	)
	c := newConsumerWithReader(reader, testConsumerConfig(), nil, nil)

	var got []string
	var mu sync.Mutex
	c.Subscribe("in", func(ctx context.Context, msg *Message) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, string(msg.Value))
		if msg.Offset == 0 {
			assert.Equal(t, "v", msg.Headers["h"])
		}
		return nil
	})

	require.NoError(t, c.Start(context.Background()))
	assert.Equal(t, ErrAlreadyRunning, c.Start(context.Background()))

	assert.Eventually(t, func() bool { return reader.commitCount() == 2 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, int64(2), c.Processed())
	assert.True(t, reader.closed.Load())
}

func TestConsumer_RetriesThenSucceeds(t *testing.T) {
	reader := newMockReader(kafka.Message{Topic: "in", Value: []byte("x")})
	c := newConsumerWithReader(reader, testConsumerConfig(), &mockSink{}, nil)

	var attempts int32
	c.Subscribe("in", func(ctx context.Context, msg *Message) error {
		if atomic.AddInt32(&attempts, 1) < 2 {
			return errors.New("transient")
		}
		return nil
	})

	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool { return reader.commitCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, int32(2), atomic.LoadInt32(&attempts))
	assert.Zero(t, c.DeadLettered())
}

func TestConsumer_DeadLettersAfterRetries(t *testing.T) {
	reader := newMockReader(kafka.Message{Topic: "in", Key: []byte("p-1"), Value: []byte("poison")})
	sink := &mockSink{}
	c := newConsumerWithReader(reader, testConsumerConfig(), sink, nil)

	var attempts int32
	c.Subscribe("in", func(ctx context.Context, msg *Message) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("permanent")
	})

	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool { return reader.commitCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())

	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts), "first try plus two retries")
	require.Equal(t, 1, sink.count())
	dl := sink.msgs[0]
	assert.Equal(t, TopicDeadLetter, dl.Topic)
	assert.Equal(t, []byte("p-1"), dl.Key)
	assert.Equal(t, "in", dl.Headers["original_topic"])
	assert.Equal(t, "permanent", dl.Headers["error_message"])
	assert.Equal(t, int64(1), c.DeadLettered())
}

func TestConsumer_UnhandledTopicIsCommitted(t *testing.T) {
	reader := newMockReader(kafka.Message{Topic: "other", Value: []byte("x")})
	c := newConsumerWithReader(reader, testConsumerConfig(), nil, nil)

	require.NoError(t, c.Start(context.Background()))
	assert.Eventually(t, func() bool { return reader.commitCount() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, c.Close())
	assert.Zero(t, c.Processed())
}

func TestConsumer_CloseWithoutStart(t *testing.T) {
	reader := newMockReader()
	c := newConsumerWithReader(reader, testConsumerConfig(), nil, nil)
	assert.NoError(t, c.Close())
	assert.True(t, reader.closed.Load())
}

//Personal.AI order the ending
