package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock, NewStore(mock)
}

func TestStoreAppendAssignsIDAndConversation(t *testing.T) {
	mock, store := newMockStore(t)
	now := time.Now().UTC()

	evt := &Event{
		ClinicID:  "clinic-1",
		Recipient: "5511999990000",
		MessageID: "msg-1",
		Direction: DirectionInbound,
		Type:      "text",
		Content:   "oi",
		Status:    StatusReceived,
	}

	mock.ExpectQuery("INSERT INTO conversation_events").
		WithArgs(pgxmock.AnyArg(), "clinic-1", "5511999990000", "clinic-1:5511999990000",
			"msg-1", "inbound", "text", "oi", "received", "", []byte("{}")).
		WillReturnRows(pgxmock.NewRows([]string{"seq", "created_at"}).AddRow(int64(42), now))

	require.NoError(t, store.Append(context.Background(), evt))
	assert.NotEqual(t, uuid.Nil, evt.ID)
	assert.Equal(t, "clinic-1:5511999990000", evt.ConversationID)
	assert.Equal(t, int64(42), evt.Seq)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStoreListConversation(t *testing.T) {
	mock, store := newMockStore(t)
	now := time.Now().UTC()

	rows := pgxmock.NewRows([]string{
		"id", "clinic_id", "recipient", "conversation_id", "message_id", "direction",
		"message_type", "content", "status", "provider_message_id", "metadata", "seq", "created_at",
	}).
		AddRow(uuid.New(), "clinic-1", "5511999990000", "clinic-1:5511999990000",
			"msg-1", "inbound", "text", "oi", "received", "wamid.1", []byte(`{}`), int64(1), now).
		AddRow(uuid.New(), "clinic-1", "5511999990000", "clinic-1:5511999990000",
			"msg-2", "outbound", "list", "menu", "sent", "wamid.2", []byte(`{"blocked":"true"}`), int64(2), now)

	mock.ExpectQuery("SELECT (.+) FROM \\(").
		WithArgs("clinic-1:5511999990000", 50).
		WillReturnRows(rows)

	events, err := store.ListConversation(context.Background(), "clinic-1", "5511999990000", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, int64(1), events[0].Seq)
	assert.Equal(t, DirectionOutbound, events[1].Direction)
	assert.Equal(t, "true", events[1].Metadata["blocked"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestConversationID(t *testing.T) {
	assert.Equal(t, "clinic-1:5511999990000", ConversationID("clinic-1", "5511999990000"))
}
