package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryQueueSendReceive(t *testing.T) {
	q := NewMemoryQueue(8)
	ctx := context.Background()

	require.NoError(t, q.Send(ctx, "first"))
	require.NoError(t, q.Send(ctx, "second"))
	assert.Equal(t, 2, q.Len())

	messages, err := q.Receive(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "first", messages[0].Body)
	assert.Equal(t, "second", messages[1].Body)
	assert.NotEmpty(t, messages[0].ReceiptHandle)
	assert.Equal(t, 0, q.Len())
}

func TestMemoryQueueReceiveRespectsBatchSize(t *testing.T) {
	q := NewMemoryQueue(8)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Send(ctx, "msg"))
	}

	messages, err := q.Receive(ctx, 3, 0)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
	assert.Equal(t, 2, q.Len())
}

func TestMemoryQueueReceiveTimesOut(t *testing.T) {
	q := NewMemoryQueue(8)

	start := time.Now()
	messages, err := q.Receive(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Nil(t, messages)
	assert.GreaterOrEqual(t, time.Since(start), time.Second)
}

func TestMemoryQueueReceiveHonorsContext(t *testing.T) {
	q := NewMemoryQueue(8)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := q.Receive(ctx, 1, 0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMemoryQueueDeleteIsNoop(t *testing.T) {
	q := NewMemoryQueue(8)
	assert.NoError(t, q.Delete(context.Background(), "any-handle"))
}
