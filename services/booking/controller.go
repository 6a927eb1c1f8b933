// File: services/booking/controller.go
package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	consultationRepo "medichat/database/repository/consultation"
	"medichat/models"
	"medichat/services/appointment"
	"medichat/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// bookingRequestMarker appears in the confirmation message written when a
// booking request is submitted; resuming a consultation re-arms the status
// poller for any appointment message that still carries it.
const bookingRequestMarker = "You'll be notified once"

// Controller drives the multi-step booking conversation as an explicit state
// machine layered on top of the chat transcript. Only one flow may be active
// per consultation; every error path returns the flow to an interactive
// state, never leaving it stuck mid-step.
type Controller struct {
	gateway appointment.Gateway
	repo    consultationRepo.ConsultationRepository
	flows   FlowStore
	cache   *AppointmentCache
	poller  *StatusPoller
	logger  *zap.Logger
}

// NewController wires a booking controller from its collaborators.
func NewController(gateway appointment.Gateway, repo consultationRepo.ConsultationRepository, flows FlowStore, cache *AppointmentCache, poller *StatusPoller) *Controller {
	return &Controller{
		gateway: gateway,
		repo:    repo,
		flows:   flows,
		cache:   cache,
		poller:  poller,
		logger:  utils.GetLogger(),
	}
}

// Guard rejects plain chat while a booking flow is active for the
// consultation.
func (c *Controller) Guard(ctx context.Context, consultationID string) error {
	state, err := c.flows.Get(ctx, consultationID)
	if err != nil {
		return err
	}
	if state.IsActive() {
		return ErrBookingInProgress
	}
	return nil
}

// Step returns the consultation's current booking step.
func (c *Controller) Step(ctx context.Context, consultationID string) (string, error) {
	state, err := c.flows.Get(ctx, consultationID)
	if err != nil {
		return "", err
	}
	if state.Step == "" {
		return models.StepIdle, nil
	}
	return state.Step, nil
}

// Start begins the booking flow: it verifies the user is authenticated
// against the appointment system, fetches the doctor list and moves the flow
// to selecting_doctor. Without a token the flow halts in idle and the reply
// surfaces the login requirement; there is no auto-retry.
func (c *Controller) Start(ctx context.Context, userID, consultationID, specialty string) (*models.ChatReply, error) {
	// Claiming the flow key is the active-flow check: only one Start can
	// create it, so concurrent starts cannot both proceed.
	state := models.NewBookingFlowState()
	state.Step = models.StepSelectingDoctor
	claimed, err := c.flows.Claim(ctx, consultationID, state)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return nil, ErrBookingInProgress
	}

	if !c.gateway.IsAuthenticated(ctx, userID) {
		if err := c.flows.Clear(ctx, consultationID); err != nil {
			c.logger.Error("failed to clear flow state", zap.Error(err))
		}
		reply := &models.ChatReply{
			ConsultationID: consultationID,
			Step:           models.StepIdle,
			LoginRequired:  true,
			Messages: []models.Message{assistantMessage(uuid.New().String(),
				"To book an appointment you need to sign in to the appointment system first.")},
		}
		return reply, nil
	}

	// The intent is recorded before any network call is issued.
	intent := userMessage("I'd like to book a doctor appointment.")
	if err := c.append(ctx, consultationID, intent); err != nil {
		return nil, err
	}

	loadingID := uuid.New().String()
	doctors, err := c.gateway.FetchDoctors(ctx, userID, specialty)
	if err != nil {
		c.logger.Warn("doctor fetch failed", zap.String("consultationId", consultationID), zap.Error(err))
		return c.failAndReset(ctx, consultationID, loadingID,
			"Sorry, I couldn't fetch the list of doctors right now. Please try again in a moment.")
	}
	if len(doctors) == 0 {
		return c.failAndReset(ctx, consultationID, loadingID,
			"No doctors are currently available for booking. Please try again later.")
	}

	state.Step = models.StepSelectingDoctor
	state.AvailableDoctors = doctors
	if err := c.flows.Set(ctx, consultationID, state); err != nil {
		return nil, err
	}

	prompt := assistantMessage(loadingID, "Here are the doctors you can book. Who would you like to see?")
	if err := c.append(ctx, consultationID, prompt); err != nil {
		c.logger.Error("transcript write failed", zap.Error(err))
	}

	reply := &models.ChatReply{
		ConsultationID: consultationID,
		Step:           state.Step,
		Messages:       []models.Message{intent, prompt},
	}
	for _, doctor := range doctors {
		reply.Actions = append(reply.Actions, models.ChatAction{
			Label:       doctor.DisplayName(),
			Type:        "select_doctor",
			DoctorID:    doctor.ID,
			Description: doctor.Specialization,
		})
	}
	return reply, nil
}

// SelectDoctor records the chosen doctor on the consultation and fetches the
// doctor's availability. An availability failure degrades one level back to
// selecting_doctor so the doctor list need not be re-fetched.
func (c *Controller) SelectDoctor(ctx context.Context, userID, consultationID, doctorID string) (*models.ChatReply, error) {
	state, err := c.flows.Get(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if state.Step != models.StepSelectingDoctor {
		return nil, &FlowStepError{Expected: models.StepSelectingDoctor, Actual: stepOrIdle(state)}
	}

	var doctor *models.Doctor
	for i := range state.AvailableDoctors {
		if state.AvailableDoctors[i].ID == doctorID {
			doctor = &state.AvailableDoctors[i]
			break
		}
	}
	if doctor == nil {
		reply := &models.ChatReply{
			ConsultationID: consultationID,
			Step:           state.Step,
			Messages: []models.Message{assistantMessage(uuid.New().String(),
				"Please choose one of the listed doctors.")},
		}
		return reply, nil
	}

	if err := c.repo.SetDoctor(ctx, consultationID, doctor.ID, doctor.DisplayName()); err != nil {
		c.logger.Error("failed to record doctor choice", zap.Error(err))
	}

	choice := userMessage(fmt.Sprintf("I'd like to see Dr. %s.", doctor.DisplayName()))
	if err := c.append(ctx, consultationID, choice); err != nil {
		return nil, err
	}

	loadingID := uuid.New().String()
	slots, err := c.gateway.FetchAvailability(ctx, userID, doctor.ID)
	if err != nil {
		c.logger.Warn("availability fetch failed", zap.String("doctorId", doctor.ID), zap.Error(err))
		// Keep the doctor list; only the slot fetch failed.
		failure := assistantMessage(loadingID,
			fmt.Sprintf("Sorry, I couldn't load Dr. %s's available times. Please pick a doctor again.", doctor.DisplayName()))
		if appendErr := c.append(ctx, consultationID, failure); appendErr != nil {
			c.logger.Error("transcript write failed", zap.Error(appendErr))
		}
		return &models.ChatReply{
			ConsultationID: consultationID,
			Step:           models.StepSelectingDoctor,
			Messages:       []models.Message{choice, failure},
		}, nil
	}
	if len(slots) == 0 {
		notice := assistantMessage(loadingID,
			fmt.Sprintf("Dr. %s has no open slots at the moment. Would you like to pick another doctor?", doctor.DisplayName()))
		if appendErr := c.append(ctx, consultationID, notice); appendErr != nil {
			c.logger.Error("transcript write failed", zap.Error(appendErr))
		}
		return &models.ChatReply{
			ConsultationID: consultationID,
			Step:           models.StepSelectingDoctor,
			Messages:       []models.Message{choice, notice},
		}, nil
	}

	state.Step = models.StepSelectingSlot
	state.SelectedDoctor = doctor
	state.AvailableSlots = slots
	if err := c.flows.Set(ctx, consultationID, state); err != nil {
		return nil, err
	}

	prompt := assistantMessage(loadingID,
		fmt.Sprintf("Dr. %s has the following times available. Which works for you?", doctor.DisplayName()))
	if err := c.append(ctx, consultationID, prompt); err != nil {
		c.logger.Error("transcript write failed", zap.Error(err))
	}

	reply := &models.ChatReply{
		ConsultationID: consultationID,
		Step:           state.Step,
		Messages:       []models.Message{choice, prompt},
	}
	for i := range slots {
		slot := slots[i]
		reply.Actions = append(reply.Actions, models.ChatAction{
			Label:       slot.Label(),
			Type:        "select_slot",
			Slot:        &slot,
			Description: slot.Date,
		})
	}
	return reply, nil
}

// SelectSlot records the chosen slot and submits the booking request. A
// submission failure aborts the flow to idle, preserving the conversation.
func (c *Controller) SelectSlot(ctx context.Context, userID, consultationID string, chosen models.Slot) (*models.ChatReply, error) {
	state, err := c.flows.Get(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	if state.Step != models.StepSelectingSlot || state.SelectedDoctor == nil {
		return nil, &FlowStepError{Expected: models.StepSelectingSlot, Actual: stepOrIdle(state)}
	}

	var slot *models.Slot
	for i := range state.AvailableSlots {
		if state.AvailableSlots[i].Date == chosen.Date && state.AvailableSlots[i].StartTime == chosen.StartTime {
			slot = &state.AvailableSlots[i]
			break
		}
	}
	if slot == nil {
		reply := &models.ChatReply{
			ConsultationID: consultationID,
			Step:           state.Step,
			Messages: []models.Message{assistantMessage(uuid.New().String(),
				"That time isn't available. Please choose one of the listed slots.")},
		}
		return reply, nil
	}

	doctor := *state.SelectedDoctor
	if err := c.repo.SetSlot(ctx, consultationID, slot.Date, slot.StartTime); err != nil {
		c.logger.Error("failed to record slot choice", zap.Error(err))
	}

	choice := userMessage(fmt.Sprintf("Book %s from %s to %s, please.", slot.Date, slot.StartTime, slot.EndTime))
	if err := c.append(ctx, consultationID, choice); err != nil {
		return nil, err
	}

	state.Step = models.StepConfirming
	state.SelectedSlot = slot
	if err := c.flows.Set(ctx, consultationID, state); err != nil {
		return nil, err
	}

	reason := ""
	if consultation, getErr := c.repo.GetByID(ctx, consultationID); getErr == nil {
		reason = consultation.Symptoms
	}

	loadingID := uuid.New().String()
	confirmation, err := c.gateway.RequestAppointment(ctx, userID, models.AppointmentRequest{
		DoctorID:          doctor.ID,
		PatientExternalID: userID,
		Date:              slot.Date,
		Time:              slot.StartTime,
		Reason:            reason,
	})
	if err != nil {
		c.logger.Warn("booking submission failed", zap.String("doctorId", doctor.ID), zap.Error(err))
		return c.failAndReset(ctx, consultationID, loadingID,
			"Sorry, the appointment request could not be submitted. Your conversation is unchanged; you can try booking again.")
	}

	confirmed := assistantMessage(loadingID, fmt.Sprintf(
		"Your appointment request has been sent. %s Dr. %s confirms for %s at %s.",
		bookingRequestMarker, doctor.DisplayName(), slot.Date, slot.StartTime))
	confirmed.AppointmentID = confirmation.AppointmentID
	if err := c.append(ctx, consultationID, confirmed); err != nil {
		c.logger.Error("transcript write failed", zap.Error(err))
	}

	appt := models.Appointment{
		AppointmentID: confirmation.AppointmentID,
		DoctorID:      doctor.ID,
		DoctorName:    doctor.DisplayName(),
		Date:          slot.Date,
		Time:          slot.StartTime,
		Status:        models.AppointmentPending,
		Reason:        reason,
		CreatedAt:     time.Now(),
	}
	if err := c.cache.Put(ctx, userID, appt); err != nil {
		c.logger.Error("failed to cache appointment", zap.Error(err))
	}

	c.poller.Schedule(userID, consultationID, appt)

	// The flow is complete; its transient state is destroyed.
	if err := c.flows.Clear(ctx, consultationID); err != nil {
		c.logger.Error("failed to clear flow state", zap.Error(err))
	}

	return &models.ChatReply{
		ConsultationID: consultationID,
		Step:           models.StepIdle,
		Messages:       []models.Message{choice, confirmed},
	}, nil
}

// Cancel abandons the booking flow. An appointment that was already
// submitted is unaffected; cancelling the flow is distinct from cancelling
// an appointment.
func (c *Controller) Cancel(ctx context.Context, consultationID string) (*models.ChatReply, error) {
	if err := c.flows.Clear(ctx, consultationID); err != nil {
		return nil, err
	}
	notice := assistantMessage(uuid.New().String(), "Booking cancelled. How else can I help you?")
	if err := c.append(ctx, consultationID, notice); err != nil {
		c.logger.Error("transcript write failed", zap.Error(err))
	}
	return &models.ChatReply{
		ConsultationID: consultationID,
		Step:           models.StepIdle,
		Messages:       []models.Message{notice},
	}, nil
}

// Resume re-arms the status poller for any appointment in the consultation
// that was submitted but whose approval has not been observed yet, so an
// approval is not missed across page reloads.
func (c *Controller) Resume(ctx context.Context, userID string, consultation *models.Consultation) {
	messages := consultationRepo.DedupeStored(consultation.Messages)

	approved := make(map[string]bool)
	for _, msg := range messages {
		if msg.IsAppointmentUpdate && msg.AppointmentID != "" {
			approved[msg.AppointmentID] = true
		}
	}

	for _, msg := range messages {
		if msg.AppointmentID == "" || approved[msg.AppointmentID] {
			continue
		}
		if !strings.Contains(msg.Content, bookingRequestMarker) {
			continue
		}
		appt := models.Appointment{
			AppointmentID: msg.AppointmentID,
			DoctorID:      consultation.DoctorID,
			DoctorName:    consultation.DoctorName,
			Date:          consultation.AppointmentDate,
			Time:          consultation.AppointmentTime,
			Status:        models.AppointmentPending,
		}
		c.poller.Schedule(userID, consultation.ID, appt)
	}
}

// failAndReset appends a failure message, resets the flow to idle and
// returns a reply carrying the failure. The conversation itself is kept.
func (c *Controller) failAndReset(ctx context.Context, consultationID, messageID, content string) (*models.ChatReply, error) {
	failure := assistantMessage(messageID, content)
	if err := c.append(ctx, consultationID, failure); err != nil {
		c.logger.Error("transcript write failed", zap.Error(err))
	}
	if err := c.flows.Clear(ctx, consultationID); err != nil {
		return nil, err
	}
	return &models.ChatReply{
		ConsultationID: consultationID,
		Step:           models.StepIdle,
		Messages:       []models.Message{failure},
	}, nil
}

// append writes a message to the transcript, retrying once on failure so a
// transient write error does not silently drop history.
func (c *Controller) append(ctx context.Context, consultationID string, msg models.Message) error {
	err := c.repo.AppendMessage(ctx, consultationID, msg)
	if err == nil {
		return nil
	}
	c.logger.Warn("transcript append failed, retrying", zap.String("consultationId", consultationID), zap.Error(err))
	return c.repo.AppendMessage(ctx, consultationID, msg)
}

func stepOrIdle(state *models.BookingFlowState) string {
	if state == nil || state.Step == "" {
		return models.StepIdle
	}
	return state.Step
}

func userMessage(content string) models.Message {
	return models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   content,
		Timestamp: time.Now(),
	}
}

func assistantMessage(id, content string) models.Message {
	return models.Message{
		ID:        id,
		Role:      models.RoleAssistant,
		Content:   content,
		Timestamp: time.Now(),
	}
}
