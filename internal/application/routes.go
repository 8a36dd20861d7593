package application

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// SentencePurger removes all sentences belonging to an application. It is
// the cascade hook used when an application is deleted.
type SentencePurger interface {
	DeleteByApplication(ctx context.Context, applicationID string) error
}

// RegisterRoutes mounts the application CRUD endpoints.
func RegisterRoutes(r chi.Router, store Store, purger SentencePurger) {
	r.Post("/api/applications", saveHandler(store))
	r.Get("/api/applications", listHandler(store))
	r.Get("/api/applications/{id}", getHandler(store))
	r.Delete("/api/applications/{id}", deleteHandler(store, purger))
}

func saveHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var app Application
		if err := json.NewDecoder(r.Body).Decode(&app); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if app.Name == "" {
			http.Error(w, "name is required", http.StatusBadRequest)
			return
		}
		if err := store.Save(r.Context(), &app); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, app)
	}
}

func listHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		apps, err := store.List(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if apps == nil {
			apps = []Application{}
		}
		writeJSON(w, http.StatusOK, apps)
	}
}

func getHandler(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		app, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, app)
	}
}

func deleteHandler(store Store, purger SentencePurger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		err := store.Delete(r.Context(), id)
		if errors.Is(err, ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		// Cascade: an application's sentences are meaningless without it.
		if err := purger.DeleteByApplication(r.Context(), id); err != nil {
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
