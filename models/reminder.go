package models

// ReminderPayload is the queued task body for an appointment reminder.
type ReminderPayload struct {
	UserID        string `json:"userId"`
	AppointmentID string `json:"appointmentId"`
	DoctorName    string `json:"doctorName"`
	Date          string `json:"date"`
	Time          string `json:"time"`
	FireDate      string `json:"fireDate"`
}
