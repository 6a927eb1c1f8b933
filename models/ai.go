package models

// ChatRequest is the payload coming from the frontend into /api/chat/message.
type ChatRequest struct {
	ConsultationID string `json:"consultationId,omitempty"`
	Text           string `json:"text"`
	Image          string `json:"image,omitempty"`       // public URL of an uploaded medical image
	ImagePrompt    string `json:"imagePrompt,omitempty"` // the question asked about the image
}

// ChatAction is a single button/card action offered during booking steps.
type ChatAction struct {
	Label       string `json:"label"`
	Type        string `json:"type"` // e.g. "start_booking", "select_doctor", "select_slot", "cancel_booking"
	DoctorID    string `json:"doctorId,omitempty"`
	Description string `json:"description,omitempty"`
	Slot        *Slot  `json:"slot,omitempty"`
}

// ChatReply is what the chat and booking handlers return to the frontend.
type ChatReply struct {
	ConsultationID string       `json:"consultationId"`
	Messages       []Message    `json:"messages"`
	Actions        []ChatAction `json:"actions,omitempty"`
	Step           string       `json:"step,omitempty"`
	LoginRequired  bool         `json:"loginRequired,omitempty"`
}
