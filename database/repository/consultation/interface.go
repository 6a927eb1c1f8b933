package consultationRepo

import (
	"context"

	"medichat/database"
	"medichat/models"
	"medichat/utils"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ConsultationRepository persists chat transcripts. Message appends are
// idempotent: re-adding a message with an id already present in the
// consultation produces no second transcript entry.
type ConsultationRepository interface {
	Create(ctx context.Context, userID string, firstMessage *models.Message) (string, error)
	GetByID(ctx context.Context, id string) (*models.Consultation, error)
	GetByUser(ctx context.Context, userID string) ([]models.Consultation, error)
	AppendMessage(ctx context.Context, consultationID string, msg models.Message) error
	LoadMessages(ctx context.Context, consultationID string) ([]models.Message, error)
	SetDoctor(ctx context.Context, consultationID, doctorID, doctorName string) error
	SetSlot(ctx context.Context, consultationID, date, timeOfDay string) error
	Finalize(ctx context.Context, consultationID string, messages []models.Message, diagnosis, recommendations string) error
	UpdateInsights(ctx context.Context, consultationID, diagnosis, recommendations string) error
}

type mongoConsultationRepo struct {
	coll *mongo.Collection
}

// NewMongoConsultationRepo returns a ConsultationRepository backed by MongoDB.
func NewMongoConsultationRepo() ConsultationRepository {
	db := database.MongoClient.Database("medichat")
	repo := &mongoConsultationRepo{
		coll: db.Collection("consultations"),
	}
	if err := repo.EnsureIndexes(); err != nil {
		utils.GetLogger().Warn("consultation indexes", zap.Error(err))
	}
	return repo
}
