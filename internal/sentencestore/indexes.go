package sentencestore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nlucraft/sentencehub/internal/sentence"
)

// indexModels returns the composite indexes backing the search and mutation
// paths. ttlDays >= 0 adds an expiry index restricted to inbox sentences;
// -1 means no expiry.
func indexModels(ttlDays int) []mongo.IndexModel {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "text", Value: 1}, {Key: "language", Value: 1}, {Key: "applicationId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "language", Value: 1}, {Key: "applicationId", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "updateDate", Value: 1}}},
		{Keys: bson.D{{Key: "applicationId", Value: 1}, {Key: "language", Value: 1}, {Key: "updateDate", Value: -1}}},
		{Keys: bson.D{{Key: "language", Value: 1}, {Key: "applicationId", Value: 1}, {Key: "usageCount", Value: 1}}},
		{Keys: bson.D{{Key: "language", Value: 1}, {Key: "applicationId", Value: 1}, {Key: "unknownCount", Value: 1}}},
		{Keys: bson.D{{Key: "language", Value: 1}, {Key: "status", Value: 1}, {Key: "classification.intentId", Value: 1}}},
		{Keys: bson.D{{Key: "applicationId", Value: 1}, {Key: "classification.intentId", Value: 1}, {Key: "language", Value: 1}, {Key: "updateDate", Value: 1}}},
		{Keys: bson.D{{Key: "forReview", Value: 1}}},
	}
	if ttlDays >= 0 {
		models = append(models, mongo.IndexModel{
			Keys: bson.D{{Key: "updateDate", Value: 1}},
			Options: options.Index().
				SetName("updateDate_ttl_inbox").
				SetExpireAfterSeconds(int32(ttlDays) * 86400).
				SetPartialFilterExpression(bson.D{{Key: "status", Value: sentence.StatusInbox}}),
		})
	}
	return models
}

func (s *MongoStore) ensureIndexes(ctx context.Context, ttlDays int) error {
	if _, err := s.coll.Indexes().CreateMany(ctx, indexModels(ttlDays)); err != nil {
		return fmt.Errorf("ensuring indexes on %s: %w", CollectionName, err)
	}
	return nil
}
