// Package application is the registry of bot applications. Deleting an
// application cascades to its classified sentences at the API layer.
package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when no application matches the given ID.
var ErrNotFound = errors.New("application not found")

// Store is the persistence contract for applications.
type Store interface {
	Save(ctx context.Context, app *Application) error
	Get(ctx context.Context, id string) (*Application, error)
	List(ctx context.Context) ([]Application, error)
	Delete(ctx context.Context, id string) error
}

// MongoStore is the MongoDB-backed Store.
type MongoStore struct {
	coll *mongo.Collection
}

// NewMongo creates the store over the application_definition collection and
// ensures its unique name index. Index failures are returned to the caller,
// who typically logs and continues.
func NewMongo(ctx context.Context, db *mongo.Database) (*MongoStore, error) {
	s := &MongoStore{coll: db.Collection("application_definition")}
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return s, fmt.Errorf("ensuring application indexes: %w", err)
	}
	return s, nil
}

// Save upserts the application, assigning an ID on first save.
func (s *MongoStore) Save(ctx context.Context, app *Application) error {
	now := time.Now().UTC()
	if app.ID == "" {
		app.ID = uuid.NewString()
		app.CreationDate = now
	}
	app.UpdateDate = now
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": app.ID}, app, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("saving application %s: %w", app.Name, err)
	}
	return nil
}

// Get retrieves an application by ID.
func (s *MongoStore) Get(ctx context.Context, id string) (*Application, error) {
	var app Application
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&app)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting application %s: %w", id, err)
	}
	return &app, nil
}

// List returns all applications sorted by name.
func (s *MongoStore) List(ctx context.Context) ([]Application, error) {
	cur, err := s.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("listing applications: %w", err)
	}
	var apps []Application
	if err := cur.All(ctx, &apps); err != nil {
		return nil, fmt.Errorf("decoding applications: %w", err)
	}
	return apps, nil
}

// Delete removes the application by ID.
func (s *MongoStore) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting application %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// MemoryStore is an in-memory Store for tests.
type MemoryStore struct {
	mu   sync.RWMutex
	apps map[string]Application
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{apps: map[string]Application{}}
}

func (s *MemoryStore) Save(ctx context.Context, app *Application) error {
	now := time.Now().UTC()
	if app.ID == "" {
		app.ID = uuid.NewString()
		app.CreationDate = now
	}
	app.UpdateDate = now
	s.mu.Lock()
	s.apps[app.ID] = *app
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &app, nil
}

func (s *MemoryStore) List(ctx context.Context) ([]Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	apps := make([]Application, 0, len(s.apps))
	for _, app := range s.apps {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool { return apps[i].Name < apps[j].Name })
	return apps, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.apps[id]; !ok {
		return ErrNotFound
	}
	delete(s.apps, id)
	return nil
}
