package consultationRepo

import (
	"medichat/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DedupeByID removes messages whose id was already seen, preserving
// first-seen order. The store-side $addToSet dedupes by full value; this is
// the stricter in-memory projection keyed by id alone, which catches
// same-id/different-content duplicates produced by status-check callbacks.
func DedupeByID(messages []models.Message) []models.Message {
	seen := make(map[string]struct{}, len(messages))
	out := make([]models.Message, 0, len(messages))
	for _, msg := range messages {
		if _, ok := seen[msg.ID]; ok {
			continue
		}
		seen[msg.ID] = struct{}{}
		out = append(out, msg)
	}
	return out
}

// DedupeStored re-hydrates stored messages and dedupes them by id.
func DedupeStored(stored []models.StoredMessage) []models.Message {
	messages := make([]models.Message, 0, len(stored))
	for _, s := range stored {
		messages = append(messages, s.ToMessage())
	}
	return DedupeByID(messages)
}

func optionsFindByLastUpdated() *options.FindOptions {
	return options.Find().SetSort(bson.D{{Key: "lastUpdated", Value: -1}})
}
