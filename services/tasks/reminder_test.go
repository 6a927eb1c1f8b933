package tasks

import (
	"encoding/json"
	"testing"
	"time"

	"medichat/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppointmentMoment(t *testing.T) {
	when, err := appointmentMoment("2026-09-01", "09:00")
	require.NoError(t, err)
	assert.Equal(t, 9, when.Hour())
	assert.Equal(t, time.September, when.Month())

	_, err = appointmentMoment("tomorrow", "morning")
	assert.Error(t, err)
}

func TestNewReminderTaskPayload(t *testing.T) {
	payload := models.ReminderPayload{
		UserID:        "u1",
		AppointmentID: "appt-1",
		DoctorName:    "Adams",
		Date:          "2026-09-01",
		Time:          "09:00",
	}
	fireAt := time.Now().Add(time.Hour)

	task, opts, err := NewReminderTask(payload, fireAt)
	require.NoError(t, err)
	assert.Equal(t, TypeSendReminder, task.Type())
	assert.Len(t, opts, 1)

	var decoded models.ReminderPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, "appt-1", decoded.AppointmentID)
}
