// Package entitycache holds the entity-type definitions available to
// classifications in process memory, so entity mutations can be validated
// without a store round-trip.
package entitycache

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/nlucraft/sentencehub/internal/sentence"
)

// Loader fetches the full set of entity-type definitions.
type Loader func(ctx context.Context) ([]sentence.EntityTypeDefinition, error)

// Cache is an explicit cache over entity-type definitions. A lookup miss
// triggers at most one reload; Invalidate forces the next read to reload,
// and Reload refreshes eagerly. Load it once at startup.
type Cache struct {
	mu     sync.RWMutex
	loader Loader
	types  map[string]sentence.EntityTypeDefinition
	loaded bool
}

// New creates a cache backed by the loader. It is empty until Load is called
// or the first lookup misses.
func New(loader Loader) *Cache {
	return &Cache{loader: loader, types: map[string]sentence.EntityTypeDefinition{}}
}

// Load performs the initial load. Alias of Reload, named for startup call
// sites.
func (c *Cache) Load(ctx context.Context) error { return c.Reload(ctx) }

// Reload replaces the cached definitions with a fresh load.
func (c *Cache) Reload(ctx context.Context) error {
	defs, err := c.loader(ctx)
	if err != nil {
		return fmt.Errorf("loading entity types: %w", err)
	}
	types := make(map[string]sentence.EntityTypeDefinition, len(defs))
	for _, def := range defs {
		types[def.Name] = def
	}
	c.mu.Lock()
	c.types = types
	c.loaded = true
	c.mu.Unlock()
	return nil
}

// Invalidate drops the cached state; the next read reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}

// Get returns the definition for the given type name. On a miss against an
// unloaded or invalidated cache it reloads once; a miss after that simply
// reports the type as unknown.
func (c *Cache) Get(ctx context.Context, name string) (sentence.EntityTypeDefinition, bool, error) {
	c.mu.RLock()
	def, ok := c.types[name]
	loaded := c.loaded
	c.mu.RUnlock()
	if ok {
		return def, true, nil
	}
	if loaded {
		return sentence.EntityTypeDefinition{}, false, nil
	}
	if err := c.Reload(ctx); err != nil {
		return sentence.EntityTypeDefinition{}, false, err
	}
	c.mu.RLock()
	def, ok = c.types[name]
	c.mu.RUnlock()
	return def, ok, nil
}

// All returns the cached definitions sorted by name, reloading first if the
// cache is unloaded or invalidated.
func (c *Cache) All(ctx context.Context) ([]sentence.EntityTypeDefinition, error) {
	c.mu.RLock()
	loaded := c.loaded
	c.mu.RUnlock()
	if !loaded {
		if err := c.Reload(ctx); err != nil {
			return nil, err
		}
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	defs := make([]sentence.EntityTypeDefinition, 0, len(c.types))
	for _, def := range c.types {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs, nil
}

// MongoLoader reads entity-type definitions from the entity_type collection.
func MongoLoader(db *mongo.Database) Loader {
	coll := db.Collection("entity_type")
	return func(ctx context.Context) ([]sentence.EntityTypeDefinition, error) {
		cur, err := coll.Find(ctx, bson.M{})
		if err != nil {
			return nil, fmt.Errorf("finding entity types: %w", err)
		}
		var defs []sentence.EntityTypeDefinition
		if err := cur.All(ctx, &defs); err != nil {
			return nil, fmt.Errorf("decoding entity types: %w", err)
		}
		return defs, nil
	}
}
