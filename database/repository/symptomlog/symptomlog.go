package symptomLogRepo

import (
	"context"
	"fmt"
	"time"

	"medichat/database"
	"medichat/models"
	"medichat/utils"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// SymptomLogRepository persists the per-user symptom diary. Entries are
// append-only; the diary is read newest first.
type SymptomLogRepository interface {
	Log(ctx context.Context, userID, symptom string) (*models.SymptomLog, error)
	ListByUser(ctx context.Context, userID string) ([]models.SymptomLog, error)
}

type mongoSymptomLogRepo struct {
	coll *mongo.Collection
}

// NewMongoSymptomLogRepo returns a SymptomLogRepository backed by MongoDB.
func NewMongoSymptomLogRepo() SymptomLogRepository {
	db := database.MongoClient.Database("medichat")
	repo := &mongoSymptomLogRepo{
		coll: db.Collection("symptomLogs"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		utils.GetLogger().Warn("symptom log indexes", zap.Error(err))
	}
	return repo
}

// Log appends a diary entry for the user and returns the stored record.
func (r *mongoSymptomLogRepo) Log(ctx context.Context, userID, symptom string) (*models.SymptomLog, error) {
	entry := models.SymptomLog{
		ID:        uuid.New().String(),
		UserID:    userID,
		Symptom:   symptom,
		Timestamp: time.Now(),
	}
	if _, err := r.coll.InsertOne(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to log symptom: %w", err)
	}
	return &entry, nil
}

// ListByUser returns the user's diary entries, newest first.
func (r *mongoSymptomLogRepo) ListByUser(ctx context.Context, userID string) ([]models.SymptomLog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{"userId": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list symptom logs: %w", err)
	}
	defer cursor.Close(ctx)

	logs := []models.SymptomLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("failed to decode symptom logs: %w", err)
	}
	return logs, nil
}

// EnsureIndexes creates the diary's owner listing index.
func (r *mongoSymptomLogRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Diary reads are always by owner, newest first
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("user_timestamp_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create symptom log indexes: %w", err)
	}
	return nil
}
