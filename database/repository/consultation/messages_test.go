package consultationRepo

import (
	"testing"
	"time"

	"medichat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupeByIDPreservesFirstSeenOrder(t *testing.T) {
	messages := []models.Message{
		{ID: "a", Content: "first"},
		{ID: "b", Content: "second"},
		{ID: "a", Content: "duplicate of first"},
		{ID: "c", Content: "third"},
		{ID: "b", Content: "duplicate of second"},
	}

	out := DedupeByID(messages)

	require.Len(t, out, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{out[0].ID, out[1].ID, out[2].ID})
	assert.Equal(t, "first", out[0].Content)
	assert.Equal(t, "second", out[1].Content)
}

func TestDedupeByIDKeepsFirstOnContentDivergence(t *testing.T) {
	// Same id, different content: the store-side set-add would keep both,
	// the in-memory projection keeps only the first occurrence.
	messages := []models.Message{
		{ID: "x", Content: "pending"},
		{ID: "x", Content: "approved"},
	}

	out := DedupeByID(messages)

	require.Len(t, out, 1)
	assert.Equal(t, "pending", out[0].Content)
}

func TestDedupeStoredRehydratesTimestamps(t *testing.T) {
	stored := []models.StoredMessage{
		{ID: "a", Role: models.RoleUser, Content: "hello", Timestamp: "2026-08-30T10:00:00Z"},
		{ID: "a", Role: models.RoleUser, Content: "hello", Timestamp: "2026-08-30T10:00:00Z"},
		{ID: "b", Role: models.RoleAssistant, Content: "hi", Timestamp: "not-a-time"},
	}

	out := DedupeStored(stored)

	require.Len(t, out, 2)
	expected, err := time.Parse(time.RFC3339, "2026-08-30T10:00:00Z")
	require.NoError(t, err)
	assert.True(t, out[0].Timestamp.Equal(expected))
	assert.True(t, out[1].Timestamp.IsZero(), "unparseable timestamps fall back to zero time")
}

func TestStoredMessageRoundTripKeepsBookingFields(t *testing.T) {
	msg := models.Message{
		ID:                  "m1",
		Role:                models.RoleAssistant,
		Content:             "Dr. Adams has approved your appointment for 2026-09-01 at 09:00.",
		Timestamp:           time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC),
		AppointmentID:       "appt-1",
		IsAppointmentUpdate: true,
		IsLoading:           true,
	}

	back := msg.ToStored().ToMessage()

	assert.Equal(t, "appt-1", back.AppointmentID)
	assert.True(t, back.IsAppointmentUpdate)
	assert.False(t, back.IsLoading, "loading flag is transient and never persisted")
}
