package models

import "time"

// SymptomLog is one dated entry in a patient's symptom diary, independent of
// any consultation.
type SymptomLog struct {
	ID        string    `json:"id" bson:"id"`
	UserID    string    `json:"userId" bson:"userId"`
	Symptom   string    `json:"symptom" bson:"symptom"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
}
