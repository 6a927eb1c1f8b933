// File: services/booking/poller.go
package booking

import (
	"context"
	"fmt"
	"sync"
	"time"

	consultationRepo "medichat/database/repository/consultation"
	"medichat/models"
	"medichat/services/appointment"
	"medichat/utils"

	"go.uber.org/zap"
)

// StatusPoller checks a submitted appointment's approval status on a fixed
// interval for a bounded window. Each appointment id is polled by a single
// goroutine, so no two ticks for the same id ever overlap, and the approval
// notification fires exactly once per id within a session.
type StatusPoller struct {
	gateway   appointment.Gateway
	repo      consultationRepo.ConsultationRepository
	cache     *AppointmentCache
	notifier  Notifier
	reminders ReminderScheduler
	logger    *zap.Logger

	interval time.Duration
	window   time.Duration

	mu     sync.Mutex
	active map[string]struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ReminderScheduler books a pre-appointment reminder once approval lands.
type ReminderScheduler interface {
	ScheduleForAppointment(userID string, appt models.Appointment) error
}

// NewStatusPoller returns a poller with the given check interval and total
// polling window.
func NewStatusPoller(gateway appointment.Gateway, repo consultationRepo.ConsultationRepository, cache *AppointmentCache, notifier Notifier, interval, window time.Duration) *StatusPoller {
	ctx, cancel := context.WithCancel(context.Background())
	return &StatusPoller{
		gateway:  gateway,
		repo:     repo,
		cache:    cache,
		notifier: notifier,
		logger:   utils.GetLogger(),
		interval: interval,
		window:   window,
		active:   make(map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetReminderScheduler enables pre-appointment reminders for approved
// appointments.
func (p *StatusPoller) SetReminderScheduler(r ReminderScheduler) {
	p.reminders = r
}

// Schedule starts polling the appointment's status: one immediate check,
// then one check per interval until approval is observed or the window
// elapses. Scheduling an id that is already being polled is a no-op.
func (p *StatusPoller) Schedule(userID, consultationID string, appt models.Appointment) {
	p.mu.Lock()
	if _, ok := p.active[appt.AppointmentID]; ok {
		p.mu.Unlock()
		return
	}
	p.active[appt.AppointmentID] = struct{}{}
	p.mu.Unlock()

	p.wg.Add(1)
	go p.run(userID, consultationID, appt)
}

// Stop cancels all polling loops and waits for them to finish.
func (p *StatusPoller) Stop() {
	p.cancel()
	p.wg.Wait()
}

func (p *StatusPoller) run(userID, consultationID string, appt models.Appointment) {
	defer p.wg.Done()
	defer func() {
		p.mu.Lock()
		delete(p.active, appt.AppointmentID)
		p.mu.Unlock()
	}()

	deadline := time.Now().Add(p.window)

	// Immediate first check, then fixed-interval ticks. The check runs
	// synchronously inside the loop, so the next tick cannot fire until the
	// previous check has resolved.
	if done := p.check(userID, consultationID, &appt); done {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case now := <-ticker.C:
			if now.After(deadline) {
				p.logger.Info("status polling window elapsed",
					zap.String("appointmentId", appt.AppointmentID))
				return
			}
			if done := p.check(userID, consultationID, &appt); done {
				return
			}
		}
	}
}

// check performs one status read. It returns true when polling should stop.
func (p *StatusPoller) check(userID, consultationID string, appt *models.Appointment) bool {
	ctx, cancelCtx := context.WithTimeout(p.ctx, p.interval)
	defer cancelCtx()

	status, err := p.gateway.CheckAppointmentStatus(ctx, userID, appt.AppointmentID)
	if err != nil {
		p.logger.Warn("status check failed",
			zap.String("appointmentId", appt.AppointmentID), zap.Error(err))
		return false
	}

	switch status.Status {
	case models.AppointmentApproved:
		p.onApproved(ctx, userID, consultationID, appt, status)
		return true
	case models.AppointmentCancelled:
		if err := p.cache.UpdateStatus(ctx, userID, appt.AppointmentID, models.AppointmentCancelled); err != nil {
			p.logger.Warn("failed to update cached appointment", zap.Error(err))
		}
		return true
	default:
		return false
	}
}

// onApproved delivers the approval exactly once: the notified marker is
// claimed atomically, the transcript append is idempotent by message id, and
// the UI push fires only for the marker's first claimant.
func (p *StatusPoller) onApproved(ctx context.Context, userID, consultationID string, appt *models.Appointment, status *models.AppointmentStatus) {
	if status.DoctorName != "" {
		appt.DoctorName = status.DoctorName
	}
	if status.Date != "" {
		appt.Date = status.Date
	}
	if status.Time != "" {
		appt.Time = status.Time
	}
	appt.Status = models.AppointmentApproved

	first, err := p.cache.MarkNotified(ctx, appt.AppointmentID)
	if err != nil {
		p.logger.Error("failed to claim notified marker",
			zap.String("appointmentId", appt.AppointmentID), zap.Error(err))
		return
	}
	if !first {
		return
	}

	update := models.Message{
		ID:                  ApprovalMessageID(appt.AppointmentID),
		Role:                models.RoleAssistant,
		Content:             fmt.Sprintf("Dr. %s has approved your appointment for %s at %s.", appt.DoctorName, appt.Date, appt.Time),
		Timestamp:           time.Now(),
		AppointmentID:       appt.AppointmentID,
		IsAppointmentUpdate: true,
	}
	if err := p.repo.AppendMessage(ctx, consultationID, update); err != nil {
		p.logger.Error("failed to append approval message", zap.Error(err))
	}

	if err := p.cache.UpdateStatus(ctx, userID, appt.AppointmentID, models.AppointmentApproved); err != nil {
		p.logger.Warn("failed to update cached appointment", zap.Error(err))
	}

	if err := p.notifier.NotifyApproval(ctx, userID, *appt); err != nil {
		p.logger.Warn("approval notification failed", zap.Error(err))
	}

	if p.reminders != nil {
		if err := p.reminders.ScheduleForAppointment(userID, *appt); err != nil {
			p.logger.Warn("failed to schedule reminder", zap.Error(err))
		}
	}

	p.logger.Info("appointment approved",
		zap.String("appointmentId", appt.AppointmentID),
		zap.String("doctor", appt.DoctorName))
}

// ApprovalMessageID derives the transcript message id used for an
// appointment's approval notification, keeping the append idempotent.
func ApprovalMessageID(appointmentID string) string {
	return "appt-approved-" + appointmentID
}
