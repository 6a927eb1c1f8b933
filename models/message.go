package models

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat turn within a consultation.
// IDs are caller-generated and unique within a consultation; appending a
// message with an id that is already present must be a no-op.
type Message struct {
	ID        string    `json:"id" bson:"id"`
	Role      string    `json:"role" bson:"role"`
	Content   string    `json:"content" bson:"content"`
	Timestamp time.Time `json:"timestamp" bson:"-"`

	// Image analysis fields.
	Image       string `json:"image,omitempty" bson:"image,omitempty"`
	ImagePrompt string `json:"imagePrompt,omitempty" bson:"imagePrompt,omitempty"`

	// Transient UI flag; never persisted as true.
	IsLoading bool `json:"isLoading,omitempty" bson:"-"`

	// Booking-related fields.
	SuggestsBooking     bool   `json:"suggestsBooking,omitempty" bson:"suggestsBooking,omitempty"`
	AppointmentID       string `json:"appointmentId,omitempty" bson:"appointmentId,omitempty"`
	IsAppointmentUpdate bool   `json:"isAppointmentUpdate,omitempty" bson:"isAppointmentUpdate,omitempty"`
}

// StoredMessage is the wire/at-rest representation of a Message. Timestamps
// are persisted as ISO 8601 strings and re-hydrated to time.Time on load.
type StoredMessage struct {
	ID                  string `json:"id" bson:"id"`
	Role                string `json:"role" bson:"role"`
	Content             string `json:"content" bson:"content"`
	Timestamp           string `json:"timestamp" bson:"timestamp"`
	Image               string `json:"image,omitempty" bson:"image,omitempty"`
	ImagePrompt         string `json:"imagePrompt,omitempty" bson:"imagePrompt,omitempty"`
	SuggestsBooking     bool   `json:"suggestsBooking,omitempty" bson:"suggestsBooking,omitempty"`
	AppointmentID       string `json:"appointmentId,omitempty" bson:"appointmentId,omitempty"`
	IsAppointmentUpdate bool   `json:"isAppointmentUpdate,omitempty" bson:"isAppointmentUpdate,omitempty"`
}

// ToStored converts a Message into its persisted form.
func (m Message) ToStored() StoredMessage {
	ts := m.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	return StoredMessage{
		ID:                  m.ID,
		Role:                m.Role,
		Content:             m.Content,
		Timestamp:           ts.UTC().Format(time.RFC3339),
		Image:               m.Image,
		ImagePrompt:         m.ImagePrompt,
		SuggestsBooking:     m.SuggestsBooking,
		AppointmentID:       m.AppointmentID,
		IsAppointmentUpdate: m.IsAppointmentUpdate,
	}
}

// ToMessage re-hydrates a stored message. Unparseable timestamps fall back to
// the zero time rather than failing the whole load.
func (s StoredMessage) ToMessage() Message {
	ts, _ := time.Parse(time.RFC3339, s.Timestamp)
	return Message{
		ID:                  s.ID,
		Role:                s.Role,
		Content:             s.Content,
		Timestamp:           ts,
		Image:               s.Image,
		ImagePrompt:         s.ImagePrompt,
		SuggestsBooking:     s.SuggestsBooking,
		AppointmentID:       s.AppointmentID,
		IsAppointmentUpdate: s.IsAppointmentUpdate,
	}
}
