package tasks

import (
	"encoding/json"
	"fmt"
	"time"

	"medichat/config"
	"medichat/models"
	"medichat/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeSendReminder = "reminder:send"

// reminderLead is how far ahead of the appointment the reminder fires.
const reminderLead = time.Hour

func NewReminderTask(payload models.ReminderPayload, fireAt time.Time) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeSendReminder, b)
	opts := []asynq.Option{asynq.ProcessAt(fireAt)}

	return task, opts, nil
}

// ReminderScheduler enqueues appointment reminders on the async queue.
type ReminderScheduler struct {
	client *asynq.Client
	logger *zap.Logger
}

func NewReminderScheduler() *ReminderScheduler {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderDB,
	})
	return &ReminderScheduler{client: client, logger: utils.GetLogger()}
}

func (s *ReminderScheduler) Close() error {
	return s.client.Close()
}

// ScheduleForAppointment queues a reminder one hour before the approved
// appointment. Appointments whose reminder moment already passed are skipped.
func (s *ReminderScheduler) ScheduleForAppointment(userID string, appt models.Appointment) error {
	when, err := appointmentMoment(appt.Date, appt.Time)
	if err != nil {
		return fmt.Errorf("cannot schedule reminder: %w", err)
	}
	fireAt := when.Add(-reminderLead)
	if fireAt.Before(time.Now()) {
		s.logger.Debug("reminder moment already passed",
			zap.String("appointmentId", appt.AppointmentID))
		return nil
	}

	payload := models.ReminderPayload{
		UserID:        userID,
		AppointmentID: appt.AppointmentID,
		DoctorName:    appt.DoctorName,
		Date:          appt.Date,
		Time:          appt.Time,
		FireDate:      fireAt.Format(time.RFC3339),
	}
	task, opts, err := NewReminderTask(payload, fireAt)
	if err != nil {
		return fmt.Errorf("failed to build reminder task: %w", err)
	}
	if _, err := s.client.Enqueue(task, opts...); err != nil {
		return fmt.Errorf("failed to enqueue reminder: %w", err)
	}
	s.logger.Info("appointment reminder scheduled",
		zap.String("appointmentId", appt.AppointmentID),
		zap.Time("fireAt", fireAt))
	return nil
}

// appointmentMoment combines the appointment's date and start time into a
// local timestamp.
func appointmentMoment(date, clock string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02 15:04", "2006-01-02 3:04 PM"} {
		if t, err := time.ParseInLocation(layout, date+" "+clock, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized appointment time %q %q", date, clock)
}
