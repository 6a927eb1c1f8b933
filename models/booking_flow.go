package models

// Booking flow steps. The flow is a per-consultation state machine owned by
// the booking controller; it always returns to StepIdle on completion,
// cancellation or unrecoverable error.
const (
	StepIdle            = "idle"
	StepSelectingDoctor = "selecting_doctor"
	StepSelectingSlot   = "selecting_slot"
	StepConfirming      = "confirming"
	StepDone            = "done"
)

// BookingFlowState holds the transient per-consultation booking context
// between chat turns.
type BookingFlowState struct {
	Step             string   `json:"step"`
	SelectedDoctor   *Doctor  `json:"selectedDoctor,omitempty"`
	SelectedSlot     *Slot    `json:"selectedSlot,omitempty"`
	AvailableDoctors []Doctor `json:"availableDoctors,omitempty"`
	AvailableSlots   []Slot   `json:"availableSlots,omitempty"`
}

// NewBookingFlowState returns a fresh idle state.
func NewBookingFlowState() *BookingFlowState {
	return &BookingFlowState{Step: StepIdle}
}

// IsActive reports whether a booking conversation is in progress.
func (s *BookingFlowState) IsActive() bool {
	return s != nil && s.Step != StepIdle && s.Step != ""
}
