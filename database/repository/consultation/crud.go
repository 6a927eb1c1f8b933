package consultationRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medichat/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// PersistenceError marks a transcript write failure. Callers treat it as
// non-fatal for in-memory state but must not swallow it silently.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("consultation %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ErrNotFound is returned when a consultation id does not exist.
var ErrNotFound = errors.New("consultation not found")

// Create inserts a new consultation and returns its ID. A consultation
// created with a first message starts active; otherwise it starts new.
func (r *mongoConsultationRepo) Create(ctx context.Context, userID string, firstMessage *models.Message) (string, error) {
	now := time.Now()
	consultation := models.Consultation{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       "Chat " + now.Format("2006-01-02"),
		Status:      models.ConsultationNew,
		Messages:    []models.StoredMessage{},
		CreatedAt:   now,
		LastUpdated: now,
	}
	if firstMessage != nil {
		consultation.Status = models.ConsultationActive
		consultation.Messages = []models.StoredMessage{firstMessage.ToStored()}
		consultation.Symptoms = firstMessage.Content
	}

	if _, err := r.coll.InsertOne(ctx, consultation); err != nil {
		return "", &PersistenceError{Op: "create", Err: err}
	}
	return consultation.ID, nil
}

// GetByID returns a consultation by its ID.
func (r *mongoConsultationRepo) GetByID(ctx context.Context, id string) (*models.Consultation, error) {
	var consultation models.Consultation
	err := r.coll.FindOne(ctx, bson.M{"id": id}).Decode(&consultation)
	if err == mongo.ErrNoDocuments {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &consultation, nil
}

// GetByUser fetches all consultations owned by a user, most recent first.
func (r *mongoConsultationRepo) GetByUser(ctx context.Context, userID string) ([]models.Consultation, error) {
	opts := optionsFindByLastUpdated()
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var consultations []models.Consultation
	if err := cursor.All(ctx, &consultations); err != nil {
		return nil, err
	}
	return consultations, nil
}

// AppendMessage persists a message under a consultation. The write uses
// $addToSet, so retrying the same message is a no-op at the store; id-level
// duplicate suppression for redisplay happens in LoadMessages.
func (r *mongoConsultationRepo) AppendMessage(ctx context.Context, consultationID string, msg models.Message) error {
	if consultationID == "" {
		return &PersistenceError{Op: "append", Err: errors.New("missing consultation id")}
	}

	stored := msg.ToStored()
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": consultationID}, bson.M{
		"$addToSet": bson.M{"messages": stored},
		"$set": bson.M{
			"status":      models.ConsultationActive,
			"lastUpdated": time.Now(),
		},
	})
	if err != nil {
		return &PersistenceError{Op: "append", Err: err}
	}
	if res.MatchedCount == 0 {
		return &PersistenceError{Op: "append", Err: ErrNotFound}
	}
	return nil
}

// LoadMessages returns the consultation's messages deduplicated by id,
// preserving first-seen order, re-hydrated to in-memory form.
func (r *mongoConsultationRepo) LoadMessages(ctx context.Context, consultationID string) ([]models.Message, error) {
	consultation, err := r.GetByID(ctx, consultationID)
	if err != nil {
		return nil, err
	}
	return DedupeStored(consultation.Messages), nil
}

// SetDoctor records the chosen doctor on the consultation.
func (r *mongoConsultationRepo) SetDoctor(ctx context.Context, consultationID, doctorID, doctorName string) error {
	return r.setFields(ctx, consultationID, bson.M{
		"doctorId":   doctorID,
		"doctorName": doctorName,
	})
}

// SetSlot records the chosen appointment date and time.
func (r *mongoConsultationRepo) SetSlot(ctx context.Context, consultationID, date, timeOfDay string) error {
	return r.setFields(ctx, consultationID, bson.M{
		"appointmentDate": date,
		"appointmentTime": timeOfDay,
	})
}

// UpdateInsights records extracted diagnosis/recommendations without
// completing the consultation.
func (r *mongoConsultationRepo) UpdateInsights(ctx context.Context, consultationID, diagnosis, recommendations string) error {
	fields := bson.M{}
	if diagnosis != "" {
		fields["diagnosis"] = diagnosis
	}
	if recommendations != "" {
		fields["recommendations"] = recommendations
	}
	if len(fields) == 0 {
		return nil
	}
	return r.setFields(ctx, consultationID, fields)
}

// Finalize marks the consultation completed and writes the final message
// list; used when the user starts a new chat with unsaved history.
func (r *mongoConsultationRepo) Finalize(ctx context.Context, consultationID string, messages []models.Message, diagnosis, recommendations string) error {
	stored := make([]models.StoredMessage, 0, len(messages))
	for _, msg := range DedupeByID(messages) {
		stored = append(stored, msg.ToStored())
	}

	fields := bson.M{
		"status":      models.ConsultationCompleted,
		"messages":    stored,
		"lastUpdated": time.Now(),
	}
	if diagnosis != "" {
		fields["diagnosis"] = diagnosis
	}
	if recommendations != "" {
		fields["recommendations"] = recommendations
	}
	return r.setFields(ctx, consultationID, fields)
}

func (r *mongoConsultationRepo) setFields(ctx context.Context, consultationID string, fields bson.M) error {
	fields["lastUpdated"] = time.Now()
	res, err := r.coll.UpdateOne(ctx, bson.M{"id": consultationID}, bson.M{"$set": fields})
	if err != nil {
		return &PersistenceError{Op: "update", Err: err}
	}
	if res.MatchedCount == 0 {
		return &PersistenceError{Op: "update", Err: ErrNotFound}
	}
	return nil
}
