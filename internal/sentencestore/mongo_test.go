package sentencestore

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/nlucraft/sentencehub/internal/sentence"
)

// setupMongoStore connects to the MongoDB named by SENTENCEHUB_TEST_MONGO_URI
// and returns a store over a throwaway database. Tests are skipped when the
// variable is unset so the suite runs without a mongod.
func setupMongoStore(t *testing.T) *MongoStore {
	t.Helper()
	uri := os.Getenv("SENTENCEHUB_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("SENTENCEHUB_TEST_MONGO_URI not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("connecting to mongodb: %v", err)
	}
	db := client.Database("sentencehub_test_" + uuid.NewString()[:8])
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		db.Drop(ctx)
		client.Disconnect(ctx)
	})

	return NewMongo(ctx, db, "en", -1, zerolog.Nop())
}

func TestMongoSaveAndSearch(t *testing.T) {
	store := setupMongoStore(t)
	ctx := context.Background()

	saveAll(t, store,
		sentence.Sentence{FullText: "Book a Flight to Paris", Language: "en", ApplicationID: "app",
			Classification: sentence.Classification{IntentID: "book", Entities: []sentence.Entity{
				{Type: "location", Role: "destination"},
			}}},
		sentence.Sentence{FullText: "book a flight to paris", Language: "en", ApplicationID: "app",
			Classification: sentence.Classification{IntentID: "book"}},
		sentence.Sentence{FullText: "weather tomorrow", Language: "en", ApplicationID: "app",
			Classification: sentence.Classification{IntentID: "weather"}},
	)

	// The first two saves share a key: two documents total.
	result, err := store.Search(ctx, sentence.SearchQuery{ApplicationID: "app"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.Total != 2 {
		t.Fatalf("got %d documents, want 2", result.Total)
	}

	result, err = store.Search(ctx, sentence.SearchQuery{ApplicationID: "app", Search: "FLIGHT"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result.Total != 1 {
		t.Errorf("substring search: got %d, want 1", result.Total)
	}
}

func TestMongoRemoveSubEntity(t *testing.T) {
	store := setupMongoStore(t)
	ctx := context.Background()

	saveAll(t, store, sentence.Sentence{FullText: "nested", Language: "en", ApplicationID: "app",
		Classification: sentence.Classification{IntentID: "book", Entities: []sentence.Entity{
			{Type: "trip", Role: "trip", SubEntities: []sentence.Entity{
				{Type: "segment", Role: "leg", SubEntities: []sentence.Entity{
					{Type: "duration", Role: "stay"},
					{Type: "duration", Role: "total"},
				}},
			}},
		}}})

	if err := store.RemoveSubEntity(ctx, "app", "segment", "stay"); err != nil {
		t.Fatalf("RemoveSubEntity: %v", err)
	}

	result, err := store.Search(ctx, sentence.SearchQuery{ApplicationID: "app"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	segment := result.Sentences[0].Classification.Entities[0].SubEntities[0]
	if len(segment.SubEntities) != 1 || segment.SubEntities[0].Role != "total" {
		t.Errorf("got segment children %v, want only total", segment.SubEntities)
	}
}

func TestMongoSortWithCollation(t *testing.T) {
	store := setupMongoStore(t)
	ctx := context.Background()

	saveAll(t, store,
		sentence.Sentence{FullText: "banana", Language: "en", ApplicationID: "app"},
		sentence.Sentence{FullText: "Apple", Language: "en", ApplicationID: "app"},
	)

	result, err := store.Search(ctx, sentence.SearchQuery{
		ApplicationID: "app",
		Sort:          []sentence.SortField{{Field: "text", Ascending: true}},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(result.Sentences) != 2 || result.Sentences[0].Text != "apple" {
		t.Errorf("collated sort: got %v", result.Sentences)
	}
}
