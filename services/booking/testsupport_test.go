package booking

import (
	"context"
	"errors"
	"sync"

	consultationRepo "medichat/database/repository/consultation"
	"medichat/models"
	"medichat/services/appointment"

	"github.com/google/uuid"
)

// fakeGateway scripts the external appointment system per test.
type fakeGateway struct {
	authenticated bool
	doctors       []models.Doctor
	doctorsErr    error
	slots         []models.Slot
	slotsErr      error
	confirmation  *appointment.Confirmation
	requestErr    error

	mu           sync.Mutex
	statusQueue  []models.AppointmentStatus
	statusChecks int
}

func (f *fakeGateway) IsAuthenticated(ctx context.Context, userID string) bool {
	return f.authenticated
}

func (f *fakeGateway) FetchDoctors(ctx context.Context, userID, specialty string) ([]models.Doctor, error) {
	return f.doctors, f.doctorsErr
}

func (f *fakeGateway) FetchAvailability(ctx context.Context, userID, doctorID string) ([]models.Slot, error) {
	return f.slots, f.slotsErr
}

func (f *fakeGateway) RequestAppointment(ctx context.Context, userID string, req models.AppointmentRequest) (*appointment.Confirmation, error) {
	if f.requestErr != nil {
		return nil, f.requestErr
	}
	return f.confirmation, nil
}

// CheckAppointmentStatus pops the scripted status queue, repeating the last
// entry once drained.
func (f *fakeGateway) CheckAppointmentStatus(ctx context.Context, userID, appointmentID string) (*models.AppointmentStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusChecks++
	if len(f.statusQueue) == 0 {
		return &models.AppointmentStatus{Status: models.AppointmentPending}, nil
	}
	status := f.statusQueue[0]
	if len(f.statusQueue) > 1 {
		f.statusQueue = f.statusQueue[1:]
	}
	return &status, nil
}

func (f *fakeGateway) checks() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.statusChecks
}

func (f *fakeGateway) FindPatientByExternalID(ctx context.Context, userID, externalID string) (*appointment.Patient, error) {
	return nil, nil
}

func (f *fakeGateway) CreatePatient(ctx context.Context, userID string, patient appointment.Patient) (*appointment.Patient, error) {
	return &patient, nil
}

// memoryRepo is an in-memory ConsultationRepository with the same idempotent
// append semantics as the Mongo implementation.
type memoryRepo struct {
	mu            sync.Mutex
	consultations map[string]*models.Consultation
	appendFails   int
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{consultations: make(map[string]*models.Consultation)}
}

func (r *memoryRepo) Create(ctx context.Context, userID string, firstMessage *models.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	consultation := &models.Consultation{
		ID:       uuid.New().String(),
		UserID:   userID,
		Status:   models.ConsultationNew,
		Messages: []models.StoredMessage{},
	}
	if firstMessage != nil {
		consultation.Status = models.ConsultationActive
		consultation.Messages = append(consultation.Messages, firstMessage.ToStored())
		consultation.Symptoms = firstMessage.Content
	}
	r.consultations[consultation.ID] = consultation
	return consultation.ID, nil
}

func (r *memoryRepo) GetByID(ctx context.Context, id string) (*models.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	consultation, ok := r.consultations[id]
	if !ok {
		return nil, consultationRepo.ErrNotFound
	}
	clone := *consultation
	return &clone, nil
}

func (r *memoryRepo) GetByUser(ctx context.Context, userID string) ([]models.Consultation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Consultation
	for _, consultation := range r.consultations {
		if consultation.UserID == userID {
			out = append(out, *consultation)
		}
	}
	return out, nil
}

func (r *memoryRepo) AppendMessage(ctx context.Context, consultationID string, msg models.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.appendFails > 0 {
		r.appendFails--
		return errors.New("transient write failure")
	}
	consultation, ok := r.consultations[consultationID]
	if !ok {
		return consultationRepo.ErrNotFound
	}
	for _, existing := range consultation.Messages {
		if existing.ID == msg.ID {
			return nil
		}
	}
	consultation.Messages = append(consultation.Messages, msg.ToStored())
	consultation.Status = models.ConsultationActive
	return nil
}

func (r *memoryRepo) LoadMessages(ctx context.Context, consultationID string) ([]models.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	consultation, ok := r.consultations[consultationID]
	if !ok {
		return nil, consultationRepo.ErrNotFound
	}
	return consultationRepo.DedupeStored(consultation.Messages), nil
}

func (r *memoryRepo) SetDoctor(ctx context.Context, consultationID, doctorID, doctorName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if consultation, ok := r.consultations[consultationID]; ok {
		consultation.DoctorID = doctorID
		consultation.DoctorName = doctorName
	}
	return nil
}

func (r *memoryRepo) SetSlot(ctx context.Context, consultationID, date, timeOfDay string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if consultation, ok := r.consultations[consultationID]; ok {
		consultation.AppointmentDate = date
		consultation.AppointmentTime = timeOfDay
	}
	return nil
}

func (r *memoryRepo) Finalize(ctx context.Context, consultationID string, messages []models.Message, diagnosis, recommendations string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if consultation, ok := r.consultations[consultationID]; ok {
		consultation.Status = models.ConsultationCompleted
		consultation.Diagnosis = diagnosis
		consultation.Recommendations = recommendations
	}
	return nil
}

func (r *memoryRepo) UpdateInsights(ctx context.Context, consultationID, diagnosis, recommendations string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if consultation, ok := r.consultations[consultationID]; ok {
		consultation.Diagnosis = diagnosis
		consultation.Recommendations = recommendations
	}
	return nil
}

func (r *memoryRepo) messageContents(consultationID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	if consultation, ok := r.consultations[consultationID]; ok {
		for _, msg := range consultation.Messages {
			out = append(out, msg.Content)
		}
	}
	return out
}

// countingNotifier records approval notifications.
type countingNotifier struct {
	mu        sync.Mutex
	approvals []string
}

func (n *countingNotifier) NotifyApproval(ctx context.Context, userID string, appt models.Appointment) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.approvals = append(n.approvals, appt.AppointmentID)
	return nil
}

func (n *countingNotifier) Push(ctx context.Context, userID, title, body string, data map[string]string) error {
	return nil
}

func (n *countingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.approvals)
}
