// Package api exposes the sentence administration operations over REST.
package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nlucraft/sentencehub/internal/entitycache"
	"github.com/nlucraft/sentencehub/internal/sentence"
	"github.com/nlucraft/sentencehub/internal/sentencestore"
)

// RegisterRoutes mounts the sentence and entity-type endpoints on the given
// router.
func RegisterRoutes(r chi.Router, store sentencestore.Store, cache *entitycache.Cache) {
	r.Get("/api/sentences", getSentencesHandler(store))
	r.Post("/api/sentences", saveSentenceHandler(store))
	r.Post("/api/sentences/search", searchHandler(store))
	r.Post("/api/sentences/status", switchStatusHandler(store))
	r.Delete("/api/sentences/status/{status}", deleteByStatusHandler(store))
	r.Post("/api/sentences/intent/bulk", switchIntentBulkHandler(store))
	r.Post("/api/sentences/intent", switchIntentHandler(store))
	r.Post("/api/sentences/entity/switch", switchEntityHandler(store))
	r.Post("/api/sentences/entity/remove", removeEntityHandler(store, cache))
	r.Post("/api/sentences/subentity/remove", removeSubEntityHandler(store, cache))
	r.Post("/api/sentences/state", updateStateHandler(store))
	r.Post("/api/sentences/unknown", incrementUnknownHandler(store))

	r.Get("/api/entity-types", listEntityTypesHandler(cache))
	r.Post("/api/entity-types/reload", reloadEntityTypesHandler(cache))
}

func getSentencesHandler(store sentencestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		status := sentence.Status(q.Get("status"))
		if status != "" && !status.Valid() {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
		sentences, err := store.GetSentences(r.Context(), q["intent"], q.Get("language"), status)
		if errors.Is(err, sentencestore.ErrNoFilter) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if sentences == nil {
			sentences = []sentence.Sentence{}
		}
		writeJSON(w, http.StatusOK, sentences)
	}
}

func saveSentenceHandler(store sentencestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var s sentence.Sentence
		if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if s.Text == "" && s.FullText == "" {
			http.Error(w, "text is required", http.StatusBadRequest)
			return
		}
		if s.ApplicationID == "" || s.Language == "" {
			http.Error(w, "applicationId and language are required", http.StatusBadRequest)
			return
		}
		if s.Status != "" && !s.Status.Valid() {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
		if err := store.Save(r.Context(), s); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func searchHandler(store sentencestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var q sentence.SearchQuery
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if q.ApplicationID == "" {
			http.Error(w, "applicationId is required", http.StatusBadRequest)
			return
		}
		result, err := store.Search(r.Context(), q)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, result)
	}
}

type switchStatusRequest struct {
	Sentences []sentence.Sentence `json:"sentences"`
	NewStatus sentence.Status     `json:"newStatus"`
}

func switchStatusHandler(store sentencestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req switchStatusRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if !req.NewStatus.Valid() {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
		if err := store.SwitchStatus(r.Context(), req.Sentences, req.NewStatus); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func deleteByStatusHandler(store sentencestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		status := sentence.Status(chi.URLParam(r, "status"))
		if !status.Valid() {
			http.Error(w, "unknown status", http.StatusBadRequest)
			return
		}
		if err := store.DeleteByStatus(r.Context(), status); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type switchIntentBulkRequest struct {
	ApplicationID string `json:"applicationId"`
	OldIntentID   string `json:"oldIntentId"`
	NewIntentID   string `json:"newIntentId"`
}

func switchIntentBulkHandler(store sentencestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req switchIntentBulkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.ApplicationID == "" || req.OldIntentID == "" || req.NewIntentID == "" {
			http.Error(w, "applicationId, oldIntentId and newIntentId are required", http.StatusBadRequest)
			return
		}
		if err := store.SwitchIntent(r.Context(), req.ApplicationID, req.OldIntentID, req.NewIntentID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type switchIntentRequest struct {
	Sentences   []sentence.Sentence `json:"sentences"`
	NewIntentID string              `json:"newIntentId"`
}

func switchIntentHandler(store sentencestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req switchIntentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.NewIntentID == "" {
			http.Error(w, "newIntentId is required", http.StatusBadRequest)
			return
		}
		if err := store.SwitchSentencesIntent(r.Context(), req.Sentences, req.NewIntentID); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type switchEntityRequest struct {
	Sentences []sentence.Sentence       `json:"sentences"`
	OldEntity sentence.EntityDefinition `json:"oldEntity"`
	NewEntity sentence.EntityDefinition `json:"newEntity"`
}

func switchEntityHandler(store sentencestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req switchEntityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.OldEntity.Type == "" || req.NewEntity.Type == "" {
			http.Error(w, "oldEntity and newEntity are required", http.StatusBadRequest)
			return
		}
		if err := store.SwitchEntity(r.Context(), req.Sentences, req.OldEntity, req.NewEntity); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type removeEntityRequest struct {
	ApplicationID string `json:"applicationId"`
	IntentID      string `json:"intentId"`
	EntityType    string `json:"entityType"`
	Role          string `json:"role"`
}

func removeEntityHandler(store sentencestore.Store, cache *entitycache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req removeEntityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.ApplicationID == "" || req.IntentID == "" || req.EntityType == "" || req.Role == "" {
			http.Error(w, "applicationId, intentId, entityType and role are required", http.StatusBadRequest)
			return
		}
		if !checkEntityType(w, r, cache, req.EntityType) {
			return
		}
		if err := store.RemoveEntity(r.Context(), req.ApplicationID, req.IntentID, req.EntityType, req.Role); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type removeSubEntityRequest struct {
	ApplicationID string `json:"applicationId"`
	EntityType    string `json:"entityType"`
	Role          string `json:"role"`
}

func removeSubEntityHandler(store sentencestore.Store, cache *entitycache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req removeSubEntityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.ApplicationID == "" || req.EntityType == "" || req.Role == "" {
			http.Error(w, "applicationId, entityType and role are required", http.StatusBadRequest)
			return
		}
		if !checkEntityType(w, r, cache, req.EntityType) {
			return
		}
		if err := store.RemoveSubEntity(r.Context(), req.ApplicationID, req.EntityType, req.Role); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// checkEntityType rejects mutations referencing entity types the platform
// does not know. A cache load failure does not block the mutation; the
// check is a guard, not a gate on store availability.
func checkEntityType(w http.ResponseWriter, r *http.Request, cache *entitycache.Cache, entityType string) bool {
	_, ok, err := cache.Get(r.Context(), entityType)
	if err != nil {
		return true
	}
	if !ok {
		http.Error(w, "unknown entity type", http.StatusBadRequest)
		return false
	}
	return true
}

func updateStateHandler(store sentencestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var stat sentence.Stat
		if err := json.NewDecoder(r.Body).Decode(&stat); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if stat.Text == "" || stat.Language == "" || stat.ApplicationID == "" {
			http.Error(w, "text, language and applicationId are required", http.StatusBadRequest)
			return
		}
		if err := store.UpdateState(r.Context(), stat); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type incrementUnknownRequest struct {
	ApplicationID string `json:"applicationId"`
	Language      string `json:"language"`
	Text          string `json:"text"`
}

func incrementUnknownHandler(store sentencestore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req incrementUnknownRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.ApplicationID == "" || req.Language == "" || req.Text == "" {
			http.Error(w, "applicationId, language and text are required", http.StatusBadRequest)
			return
		}
		if err := store.IncrementUnknown(r.Context(), req.ApplicationID, req.Language, req.Text); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func listEntityTypesHandler(cache *entitycache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defs, err := cache.All(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if defs == nil {
			defs = []sentence.EntityTypeDefinition{}
		}
		writeJSON(w, http.StatusOK, defs)
	}
}

func reloadEntityTypesHandler(cache *entitycache.Cache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := cache.Reload(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
