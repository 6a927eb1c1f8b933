package appointment

import (
	"testing"
	"time"

	"medichat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clock(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("15:04", value)
	require.NoError(t, err)
	return parsed
}

func TestSynthesizeSlotsEvenBounds(t *testing.T) {
	slots := SynthesizeSlots("2026-09-01", clock(t, "09:00"), clock(t, "15:00"))

	require.Len(t, slots, 3)
	assert.Equal(t, models.Slot{Date: "2026-09-01", StartTime: "09:00", EndTime: "11:00"}, slots[0])
	assert.Equal(t, models.Slot{Date: "2026-09-01", StartTime: "11:00", EndTime: "13:00"}, slots[1])
	assert.Equal(t, models.Slot{Date: "2026-09-01", StartTime: "13:00", EndTime: "15:00"}, slots[2])
}

func TestSynthesizeSlotsClipsLastInterval(t *testing.T) {
	slots := SynthesizeSlots("2026-09-01", clock(t, "09:00"), clock(t, "14:00"))

	require.Len(t, slots, 3)
	assert.Equal(t, "13:00", slots[2].StartTime)
	assert.Equal(t, "14:00", slots[2].EndTime)
}

func TestParseAvailabilityBareArray(t *testing.T) {
	body := []byte(`[
		{"date":"2026-09-01","startTime":"09:00","endTime":"10:00"},
		{"date":"2026-09-01","startTime":"10:00","endTime":"11:00"}
	]`)

	slots, err := parseAvailability(body)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, "09:00", slots[0].StartTime)
}

func TestParseAvailabilityDataWrapper(t *testing.T) {
	body := []byte(`{"data":[{"date":"2026-09-01","startTime":"09:00","endTime":"10:00"}]}`)

	slots, err := parseAvailability(body)
	require.NoError(t, err)
	require.Len(t, slots, 1)
	assert.Equal(t, "2026-09-01", slots[0].Date)
}

func TestParseAvailabilityBoundsPairIsSplit(t *testing.T) {
	body := []byte(`[{"date":"2026-09-01","startTime":"09:00","endTime":"15:00"}]`)

	slots, err := parseAvailability(body)
	require.NoError(t, err)
	require.Len(t, slots, 3)
	assert.Equal(t, "11:00", slots[1].StartTime)
	assert.Equal(t, "13:00", slots[1].EndTime)
}

func TestParseAvailabilityEmptyIsValid(t *testing.T) {
	slots, err := parseAvailability([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestNormalizeSlotUnparsableTimesPassThrough(t *testing.T) {
	slots := normalizeSlot(rawSlot{Date: "2026-09-01", StartTime: "morning", EndTime: "noon", DisplayText: "Morning"})

	require.Len(t, slots, 1)
	assert.Equal(t, "morning", slots[0].StartTime)
	assert.Equal(t, "Morning", slots[0].DisplayText)
}
