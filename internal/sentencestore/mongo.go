package sentencestore

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/nlucraft/sentencehub/internal/sentence"
)

// CollectionName is the sentence collection.
const CollectionName = "classified_sentence"

// MongoStore is the MongoDB-backed Store.
type MongoStore struct {
	coll *mongo.Collection
	// secondary reads the same collection with a secondary-preferred read
	// preference. Exact-match lookups stay on the primary for freshness;
	// regex scans and report-style searches tolerate staleness and move
	// their load off it.
	secondary     *mongo.Collection
	defaultLocale string
	logger        zerolog.Logger
}

// NewMongo creates the store and ensures its indexes. Index creation failures
// are logged and swallowed: the collection stays usable, just slower.
// ttlDays >= 0 additionally installs an expiry index on inbox sentences;
// -1 disables expiry.
func NewMongo(ctx context.Context, db *mongo.Database, defaultLocale string, ttlDays int, logger zerolog.Logger) *MongoStore {
	s := &MongoStore{
		coll:          db.Collection(CollectionName),
		secondary:     db.Collection(CollectionName, options.Collection().SetReadPreference(readpref.SecondaryPreferred())),
		defaultLocale: defaultLocale,
		logger:        logger,
	}
	if err := s.ensureIndexes(ctx, ttlDays); err != nil {
		s.logger.Error().Err(err).Msg("creating classified_sentence indexes")
	}
	return s
}

// GetSentences returns all sentences matching the filters, unpaginated.
func (s *MongoStore) GetSentences(ctx context.Context, intents []string, language string, status sentence.Status) ([]sentence.Sentence, error) {
	if len(intents) == 0 && language == "" && status == "" {
		return nil, ErrNoFilter
	}
	filter := bson.M{}
	if len(intents) > 0 {
		filter["classification.intentId"] = bson.M{"$in": intents}
	}
	if language != "" {
		filter["language"] = language
	}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("getting sentences: %w", err)
	}
	var result []sentence.Sentence
	if err := cur.All(ctx, &result); err != nil {
		return nil, fmt.Errorf("decoding sentences: %w", err)
	}
	return result, nil
}

// Search runs the composite query: count first, then fetch the requested
// window unless the offset is already past the end. Negative pagination
// values are treated as zero; the server would reject them as a skip.
func (s *MongoStore) Search(ctx context.Context, query sentence.SearchQuery) (sentence.SearchResult, error) {
	if query.Start < 0 {
		query.Start = 0
	}
	if query.Size < 0 {
		query.Size = 0
	}
	filter := buildSearchFilter(query)
	s.logger.Debug().Interface("filter", filter).Msg("sentence search")

	coll := s.coll
	if !query.ExactMatch {
		coll = s.secondary
	}

	count, err := coll.CountDocuments(ctx, filter)
	if err != nil {
		return sentence.SearchResult{}, fmt.Errorf("counting sentences for application %s: %w", query.ApplicationID, err)
	}
	if count <= query.Start {
		return sentence.SearchResult{Total: count, Sentences: []sentence.Sentence{}}, nil
	}

	opts := options.Find().SetSkip(query.Start).SetSort(buildSort(query))
	if query.Size > 0 {
		opts.SetLimit(query.Size)
	}
	if collation := buildCollation(query, s.defaultLocale); collation != nil {
		opts.SetCollation(collation)
	}

	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return sentence.SearchResult{}, fmt.Errorf("searching sentences for application %s: %w", query.ApplicationID, err)
	}
	page := []sentence.Sentence{}
	if err := cur.All(ctx, &page); err != nil {
		return sentence.SearchResult{}, fmt.Errorf("decoding sentence page: %w", err)
	}
	return sentence.SearchResult{Total: count, Sentences: page}, nil
}

// Save upserts the sentence by its (text, language, application) key and
// stamps the update date. The whole document is replaced.
func (s *MongoStore) Save(ctx context.Context, doc sentence.Sentence) error {
	now := time.Now().UTC()
	if doc.FullText == "" {
		doc.FullText = doc.Text
	}
	doc.Text = sentence.TextKey(doc.FullText)
	if doc.CreationDate.IsZero() {
		doc.CreationDate = now
	}
	doc.UpdateDate = now

	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"text": doc.Text, "language": doc.Language, "applicationId": doc.ApplicationID},
		doc,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("saving sentence %q (%s/%s): %w", doc.Text, doc.Language, doc.ApplicationID, err)
	}
	return nil
}

// SwitchStatus saves each sentence with the new status. Best-effort: a
// failure stops the loop, leaving earlier sentences switched.
func (s *MongoStore) SwitchStatus(ctx context.Context, sentences []sentence.Sentence, newStatus sentence.Status) error {
	for _, it := range sentences {
		it.Status = newStatus
		if err := s.Save(ctx, it); err != nil {
			return fmt.Errorf("switching status to %s: %w", newStatus, err)
		}
	}
	return nil
}

// DeleteByStatus removes every sentence with the given status.
func (s *MongoStore) DeleteByStatus(ctx context.Context, status sentence.Status) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{"status": status}); err != nil {
		return fmt.Errorf("deleting sentences with status %s: %w", status, err)
	}
	return nil
}

// DeleteByApplication removes every sentence of the application.
func (s *MongoStore) DeleteByApplication(ctx context.Context, applicationID string) error {
	if _, err := s.coll.DeleteMany(ctx, bson.M{"applicationId": applicationID}); err != nil {
		return fmt.Errorf("deleting sentences of application %s: %w", applicationID, err)
	}
	return nil
}

// SwitchIntent bulk-reassigns the intent across the application. An intent
// change invalidates prior entity labeling, so entities are cleared and the
// sentences return to the inbox for re-review. Single bulk update, atomic at
// the store level.
func (s *MongoStore) SwitchIntent(ctx context.Context, applicationID, oldIntentID, newIntentID string) error {
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"applicationId": applicationID, "classification.intentId": oldIntentID},
		bson.M{"$set": bson.M{
			"classification.intentId": newIntentID,
			"classification.entities": []sentence.Entity{},
			"status":                  sentence.StatusInbox,
			"updateDate":              time.Now().UTC(),
		}},
	)
	if err != nil {
		return fmt.Errorf("switching intent %s to %s for application %s: %w", oldIntentID, newIntentID, applicationID, err)
	}
	return nil
}

// SwitchSentencesIntent reassigns the given sentences one by one. Moving to
// the reserved unknown intent clears entity spans; any other target keeps
// them. Best-effort, not transactional.
func (s *MongoStore) SwitchSentencesIntent(ctx context.Context, sentences []sentence.Sentence, newIntentID string) error {
	for _, it := range sentences {
		it.Classification.IntentID = newIntentID
		if newIntentID == sentence.UnknownIntentName {
			it.Classification.Entities = []sentence.Entity{}
		}
		if err := s.Save(ctx, it); err != nil {
			return fmt.Errorf("switching intent to %s: %w", newIntentID, err)
		}
	}
	return nil
}

// SwitchEntity relabels root spans matching oldEntity on each sentence,
// leaving other spans untouched. Best-effort, not transactional.
func (s *MongoStore) SwitchEntity(ctx context.Context, sentences []sentence.Sentence, oldEntity, newEntity sentence.EntityDefinition) error {
	for _, it := range sentences {
		entities := make([]sentence.Entity, len(it.Classification.Entities))
		for i, e := range it.Classification.Entities {
			if e.Type == oldEntity.Type && e.Role == oldEntity.Role {
				e.Type = newEntity.Type
				e.Role = newEntity.Role
			}
			entities[i] = e
		}
		it.Classification.Entities = entities
		if err := s.Save(ctx, it); err != nil {
			return fmt.Errorf("switching entity %s:%s to %s:%s: %w", oldEntity.Type, oldEntity.Role, newEntity.Type, newEntity.Role, err)
		}
	}
	return nil
}

// RemoveEntity pulls root spans with the given role from every sentence of
// the (application, intent) scope, in one bulk update.
func (s *MongoStore) RemoveEntity(ctx context.Context, applicationID, intentID, entityType, role string) error {
	_, err := s.coll.UpdateMany(ctx,
		bson.M{"applicationId": applicationID, "classification.intentId": intentID},
		bson.M{
			"$pull": bson.M{"classification.entities": bson.M{"role": role}},
			"$set":  bson.M{"updateDate": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("removing entity %s:%s from application %s: %w", entityType, role, applicationID, err)
	}
	return nil
}

// RemoveSubEntity pulls sub-entity spans with the given role nested under
// spans of entityType. The update language cannot target a variadic depth in
// one operation, so one bulk update is issued per nesting level.
func (s *MongoStore) RemoveSubEntity(ctx context.Context, applicationID, entityType, role string) error {
	for level := 1; level <= sentence.MaxEntityDepth; level++ {
		if err := s.removeSubEntityAtLevel(ctx, applicationID, entityType, role, level); err != nil {
			return err
		}
	}
	return nil
}

// removeSubEntityAtLevel removes matching sub-spans from every parent span of
// the right type sitting at the given level. The filter anchors on such a
// parent; the update crosses intermediate arrays with all-positional
// wildcards and selects the parents themselves with a filtered positional
// operator, so every matching parent at that exact depth is cleaned in one
// bulk update.
func (s *MongoStore) removeSubEntityAtLevel(ctx context.Context, applicationID, entityType, role string, level int) error {
	base := entityPath(level)
	filter := bson.M{
		"applicationId": applicationID,
		base: bson.M{"$elemMatch": bson.M{
			"type":        entityType,
			"subEntities": bson.M{"$elemMatch": bson.M{"role": role}},
		}},
	}
	pullPath := strings.ReplaceAll(base, ".subEntities", ".$[].subEntities") + ".$[parent].subEntities"
	update := bson.M{
		"$pull": bson.M{pullPath: bson.M{"role": role}},
		"$set":  bson.M{"updateDate": time.Now().UTC()},
	}
	opts := options.Update().SetArrayFilters(options.ArrayFilters{
		Filters: []interface{}{bson.M{"parent.type": entityType}},
	})
	s.logger.Debug().Int("level", level).Str("path", pullPath).Msg("sub-entity removal")
	if _, err := s.coll.UpdateMany(ctx, filter, update, opts); err != nil {
		return fmt.Errorf("removing sub-entity %s:%s at level %d: %w", entityType, role, level, err)
	}
	return nil
}

// UpdateState applies parse statistics to one sentence. Probabilities are set
// only when reported. The update date is left alone so usage traffic does not
// keep inbox sentences past their expiry window.
func (s *MongoStore) UpdateState(ctx context.Context, stat sentence.Stat) error {
	set := bson.M{
		"lastUsage":  stat.LastUsage,
		"usageCount": stat.Count,
	}
	if stat.IntentProbability != nil {
		set["lastIntentProbability"] = *stat.IntentProbability
	}
	if stat.EntityProbability != nil {
		set["lastEntityProbability"] = *stat.EntityProbability
	}
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"language": stat.Language, "applicationId": stat.ApplicationID, "text": sentence.TextKey(stat.Text)},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("updating state of sentence %q (%s/%s): %w", stat.Text, stat.Language, stat.ApplicationID, err)
	}
	return nil
}

// IncrementUnknown atomically bumps the unknown counter by one.
func (s *MongoStore) IncrementUnknown(ctx context.Context, applicationID, language, text string) error {
	_, err := s.coll.UpdateOne(ctx,
		bson.M{"language": language, "applicationId": applicationID, "text": sentence.TextKey(text)},
		bson.M{"$inc": bson.M{"unknownCount": 1}},
	)
	if err != nil {
		return fmt.Errorf("incrementing unknown stat for %q (%s/%s): %w", text, language, applicationID, err)
	}
	return nil
}
