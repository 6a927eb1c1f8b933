package models

import "time"

// Appointment statuses as reported by the external appointment system.
const (
	AppointmentPending   = "pending"
	AppointmentApproved  = "approved"
	AppointmentCancelled = "cancelled"
)

// Doctor is an external entity; opaque beyond display and identifier use.
type Doctor struct {
	ID             string `json:"id"`
	Name           string `json:"name,omitempty"`
	FirstName      string `json:"firstName,omitempty"`
	LastName       string `json:"lastName,omitempty"`
	Specialization string `json:"specialization,omitempty"`
}

// DisplayName returns the doctor's name, assembling it from the first/last
// name pair when no single display name was provided.
func (d Doctor) DisplayName() string {
	if d.Name != "" {
		return d.Name
	}
	if d.FirstName != "" || d.LastName != "" {
		if d.FirstName == "" {
			return d.LastName
		}
		if d.LastName == "" {
			return d.FirstName
		}
		return d.FirstName + " " + d.LastName
	}
	return d.ID
}

// Slot is a discrete bookable time window for a doctor.
type Slot struct {
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	DisplayText string `json:"displayText,omitempty"`
}

// Label returns the slot's display text, synthesizing one when absent.
func (s Slot) Label() string {
	if s.DisplayText != "" {
		return s.DisplayText
	}
	return s.Date + " " + s.StartTime + " - " + s.EndTime
}

// Appointment is the booking record mirrored into the local cache for
// display outside the chat. Status mutates only via polling.
type Appointment struct {
	AppointmentID string    `json:"appointmentId"`
	DoctorID      string    `json:"doctorId"`
	DoctorName    string    `json:"doctorName"`
	Date          string    `json:"date"`
	Time          string    `json:"time"`
	Status        string    `json:"status"`
	Reason        string    `json:"reason,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AppointmentRequest is the payload submitted to the external system.
type AppointmentRequest struct {
	DoctorID          string `json:"doctorId"`
	PatientExternalID string `json:"patientExternalId,omitempty"`
	Date              string `json:"date,omitempty"`
	DateTime          string `json:"dateTime,omitempty"`
	Time              string `json:"time,omitempty"`
	Reason            string `json:"reason,omitempty"`
}

// AppointmentStatus is the status endpoint's response.
type AppointmentStatus struct {
	Status     string `json:"status"`
	DoctorName string `json:"doctorName,omitempty"`
	Date       string `json:"date,omitempty"`
	Time       string `json:"time,omitempty"`
}
