package models

import "time"

// Consultation statuses.
const (
	ConsultationNew       = "new"
	ConsultationActive    = "active"
	ConsultationCompleted = "completed"
)

// Consultation is a persisted conversation between a patient and the
// assistant, optionally linked to a booked appointment. Messages are
// append-only from the client's perspective.
type Consultation struct {
	ID              string          `json:"id" bson:"id"`
	UserID          string          `json:"userId" bson:"userId"`
	Title           string          `json:"title" bson:"title"`
	Status          string          `json:"status" bson:"status"`
	Messages        []StoredMessage `json:"messages" bson:"messages"`
	Symptoms        string          `json:"symptoms,omitempty" bson:"symptoms,omitempty"`
	Diagnosis       string          `json:"diagnosis,omitempty" bson:"diagnosis,omitempty"`
	Recommendations string          `json:"recommendations,omitempty" bson:"recommendations,omitempty"`

	// Set once the booking flow chooses a doctor and a slot.
	DoctorID        string `json:"doctorId,omitempty" bson:"doctorId,omitempty"`
	DoctorName      string `json:"doctorName,omitempty" bson:"doctorName,omitempty"`
	AppointmentDate string `json:"appointmentDate,omitempty" bson:"appointmentDate,omitempty"`
	AppointmentTime string `json:"appointmentTime,omitempty" bson:"appointmentTime,omitempty"`

	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated" bson:"lastUpdated"`
}
