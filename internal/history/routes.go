package history

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts history endpoints under /api/ocr/history.
func RegisterRoutes(r chi.Router, store *Store) {
	r.Route("/api/ocr/history", func(r chi.Router) {
		r.Get("/{userID}", handleListByUser(store))
		r.Get("/record/{id}", handleGetByID(store))
	})
}

func handleListByUser(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := chi.URLParam(r, "userID")
		q := r.URL.Query()

		filter := ListFilter{UserID: userID, Limit: 50}
		if v := q.Get("kind"); v != "" {
			filter.Kind = Kind(v)
		}
		if v := q.Get("success"); v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				filter.Success = &b
			}
		}
		if v := q.Get("since"); v != "" {
			if t, err := time.Parse(time.RFC3339, v); err == nil {
				filter.Since = t
			}
		}
		if v := q.Get("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Limit = n
			}
		}
		if v := q.Get("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				filter.Offset = n
			}
		}

		records, err := store.List(r.Context(), filter)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if records == nil {
			records = []Record{}
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"userId":  userID,
			"total":   len(records),
			"records": records,
		})
	}
}

func handleGetByID(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		rec, err := store.GetByID(r.Context(), id)
		if err != nil {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}

		writeJSON(w, http.StatusOK, rec)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
