package jobs

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The API is served to mobile apps from arbitrary origins; chi's
	// cors middleware handles the plain endpoints.
	CheckOrigin: func(*http.Request) bool { return true },
}

// RegisterRoutes mounts job status endpoints under /api/jobs.
func RegisterRoutes(r chi.Router, store *Store, log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	r.Route("/api/jobs", func(r chi.Router) {
		r.Get("/{id}", handleGet(store))
		r.Get("/{id}/ws", handleStream(store, log))
	})
}

func handleGet(store *Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := store.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				http.Error(w, "job not found", http.StatusNotFound)
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, job)
	}
}

// handleStream pushes the job state over a websocket until it reaches
// a terminal status. The current state is sent immediately, then on
// every change.
func handleStream(store *Store, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()

		var lastStatus Status
		var lastUpdated time.Time
		for {
			job, err := store.Get(r.Context(), id)
			if err != nil {
				conn.WriteJSON(map[string]string{"error": err.Error()})
				return
			}
			if job.Status != lastStatus || job.UpdatedAt != lastUpdated {
				if err := conn.WriteJSON(job); err != nil {
					return
				}
				lastStatus = job.Status
				lastUpdated = job.UpdatedAt
			}
			if job.Status.Terminal() {
				return
			}

			select {
			case <-ticker.C:
			case <-r.Context().Done():
				return
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
