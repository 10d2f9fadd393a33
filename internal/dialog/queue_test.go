package dialog

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zapagenda/zapagenda-backend/internal/delivery"
	"github.com/zapagenda/zapagenda-backend/internal/queue"
)

func TestPublisher_Enqueue(t *testing.T) {
	q := queue.NewMemoryQueue(8)
	publisher := NewPublisher(q)

	msg := delivery.InboundMessage{
		ProviderMessageID: "wamid.123",
		From:              testRecipient,
		Type:              delivery.TypeText,
		Content:           "oi",
	}
	require.NoError(t, publisher.Enqueue(context.Background(), "clinic-1", msg))
	require.Equal(t, 1, q.Len())

	received, err := q.Receive(context.Background(), 1, 0)
	require.NoError(t, err)
	require.Len(t, received, 1)

	var payload turnPayload
	require.NoError(t, json.Unmarshal([]byte(received[0].Body), &payload))
	assert.NotEmpty(t, payload.ID)
	assert.Equal(t, "clinic-1", payload.ClinicID)
	assert.Equal(t, msg, payload.Message)
}
