// FILE: database/repository/consultation/indexes.go
package consultationRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureIndexes creates the necessary indexes on the consultations collection.
func (r *mongoConsultationRepo) EnsureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	indexModels := []mongo.IndexModel{
		// Unique index on consultation ID
		{
			Keys:    bson.D{{Key: "id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("unique_id"),
		},
		// Compound index for the owner listing query, newest first
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "lastUpdated", Value: -1}},
			Options: options.Index().SetName("user_last_updated_idx"),
		},
		// Messages carrying an appointment id are scanned on resume
		{
			Keys:    bson.D{{Key: "messages.appointmentId", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("messages_appointment_idx"),
		},
	}

	_, err := r.coll.Indexes().CreateMany(ctx, indexModels)
	if err != nil {
		return fmt.Errorf("failed to create consultation indexes: %w", err)
	}
	return nil
}
