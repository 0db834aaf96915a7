package kafka

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyHandler struct {
	topic    string
	failures int32
	calls    atomic.Int32
}

func (h *flakyHandler) Topic() string { return h.topic }

func (h *flakyHandler) Handle(context.Context, []byte) error {
	n := h.calls.Add(1)
	if n <= h.failures {
		return errors.New("transient")
	}
	return nil
}

type panicHandler struct{}

func (panicHandler) Topic() string                        { return "boom" }
func (panicHandler) Handle(context.Context, []byte) error { panic("bad payload") }

func newTestConsumer(t *testing.T, retryMax int) *Consumer {
	t.Helper()
	c, err := NewConsumer(nil,
		WithConsumerBrokers([]string{"localhost:9092"}),
		WithConsumerRetry(retryMax, time.Millisecond, 2*time.Millisecond),
	)
	require.NoError(t, err)
	return c
}

func TestNewConsumerRequiresBrokers(t *testing.T) {
	_, err := NewConsumer(nil)
	assert.Error(t, err)
}

func TestProcessRetriesUntilSuccess(t *testing.T) {
	c := newTestConsumer(t, 3)
	h := &flakyHandler{topic: "obs", failures: 2}
	c.RegisterHandler(h)

	var onErr atomic.Int32
	c.WithConsumerHook(HookFuncs{Err: func(context.Context, string, kafka.Message, error) { onErr.Add(1) }})

	err := c.process(&message{topic: "obs", data: []byte(`{}`)})
	assert.NoError(t, err)
	assert.Equal(t, int32(3), h.calls.Load())
	assert.Equal(t, int32(2), onErr.Load())
}

func TestProcessGivesUpAfterRetryMax(t *testing.T) {
	c := newTestConsumer(t, 2)
	h := &flakyHandler{topic: "obs", failures: 100}
	c.RegisterHandler(h)

	err := c.process(&message{topic: "obs"})
	assert.Error(t, err)
	assert.Equal(t, int32(3), h.calls.Load())
}

func TestProcessRecoversHandlerPanic(t *testing.T) {
	c := newTestConsumer(t, 0)
	c.RegisterHandler(panicHandler{})

	err := c.process(&message{topic: "boom"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad payload")
}

func TestBeforeHookErrorSkipsHandler(t *testing.T) {
	c := newTestConsumer(t, 0)
	h := &flakyHandler{topic: "obs"}
	c.RegisterHandler(h)
	c.WithConsumerHook(HookFuncs{Before: func(ctx context.Context, _ string, _ kafka.Message, data []byte) (context.Context, []byte, error) {
		return ctx, data, errors.New("rejected")
	}})

	assert.Error(t, c.process(&message{topic: "obs"}))
	assert.Zero(t, h.calls.Load())
}

func TestBackoffWithJitterBounds(t *testing.T) {
	for attempt := 1; attempt <= 40; attempt++ {
		d := backoffWithJitter(10*time.Millisecond, 200*time.Millisecond, attempt)
		assert.Greater(t, d, time.Duration(0))
		assert.LessOrEqual(t, d, 200*time.Millisecond)
	}
}

func TestEncodeValue(t *testing.T) {
	b, err := encodeValue(map[string]int{"n": 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"n":1}`, string(b))

	b, err = encodeValue("raw")
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	c, err := parseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, kafka.Zstd, c)

	c, err = parseCompression("")
	require.NoError(t, err)
	assert.Equal(t, kafka.Snappy, c)

	_, err = parseCompression("unknown")
	assert.Error(t, err)
}
