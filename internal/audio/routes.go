// Package audio exposes the audio-processing HTTP endpoints: spoken
// survey answers are transcribed and run through the same
// reconcile-and-submit flow as photos.
package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/survey-scan/internal/history"
	"github.com/ziadkadry99/survey-scan/internal/jobs"
	"github.com/ziadkadry99/survey-scan/internal/pipeline"
	"github.com/ziadkadry99/survey-scan/internal/push"
	"github.com/ziadkadry99/survey-scan/internal/transcribe"
)

const backgroundTimeout = 5 * time.Minute

// Processor is the slice of the pipeline runner the audio endpoints
// use.
type Processor interface {
	ProcessAudio(ctx context.Context, entryID string, audio []byte, filename string) *pipeline.Result
}

// Uploader stores the original recording and returns its public URL.
type Uploader interface {
	PutAudio(ctx context.Context, userID, filename string, data []byte) (string, error)
}

// Handler wires the audio endpoints to their collaborators.
type Handler struct {
	processor Processor
	uploader  Uploader
	history   *history.Store
	jobs      *jobs.Store
	notifier  *push.Notifier
	maxBytes  int64
	log       *zap.Logger
}

// NewHandler builds a Handler. maxMB caps uploads; non-positive means
// the Whisper limit of 25 MB.
func NewHandler(processor Processor, uploader Uploader, hist *history.Store, jobStore *jobs.Store, notifier *push.Notifier, maxMB int, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = push.New("", log)
	}
	if maxMB <= 0 {
		maxMB = 25
	}
	return &Handler{
		processor: processor,
		uploader:  uploader,
		history:   hist,
		jobs:      jobStore,
		notifier:  notifier,
		maxBytes:  int64(maxMB) << 20,
		log:       log,
	}
}

// RegisterRoutes mounts the audio endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/audio", func(r chi.Router) {
		r.Post("/process", h.handleProcessAsync)
		r.Post("/process-sync", h.handleProcessSync)
		r.Get("/formats", h.handleFormats)
		r.Get("/health", h.handleHealth)
	})
}

func (h *Handler) handleProcessAsync(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		http.Error(w, "background processing not configured", http.StatusServiceUnavailable)
		return
	}

	up, entryID, userID, err := h.readRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fcmToken := r.FormValue("fcm_token")

	job, err := h.jobs.Create(r.Context(), userID, string(history.KindAudio))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	go h.runBackground(job.ID, userID, fcmToken, entryID, up)

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "processing",
		"job_id": job.ID,
	})
}

func (h *Handler) runBackground(jobID, userID, fcmToken, entryID string, up *upload) {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	h.notifier.Processing(ctx, fcmToken, userID, jobID)

	fileURL := ""
	if h.uploader != nil {
		url, err := h.uploader.PutAudio(ctx, userID, up.filename, up.data)
		if err != nil {
			h.log.Warn("storing upload failed", zap.Error(err))
		} else {
			fileURL = url
		}
	}

	res := h.processor.ProcessAudio(ctx, entryID, up.data, up.filename)
	h.recordHistory(ctx, userID, res, fileURL)

	if res.Success {
		if err := h.jobs.Complete(ctx, jobID, res); err != nil {
			h.log.Warn("updating job failed", zap.String("job_id", jobID), zap.Error(err))
		}
		h.notifier.Success(ctx, fcmToken, userID, res.EntryID, len(res.ResponsesSent))
		return
	}

	if err := h.jobs.Fail(ctx, jobID, res.Err, res); err != nil {
		h.log.Warn("updating job failed", zap.String("job_id", jobID), zap.Error(err))
	}
	h.notifier.Failure(ctx, fcmToken, userID, res.Step, res.Err)
}

func (h *Handler) handleProcessSync(w http.ResponseWriter, r *http.Request) {
	up, entryID, userID, err := h.readRequest(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	res := h.processor.ProcessAudio(r.Context(), entryID, up.data, up.filename)
	if userID != "" {
		h.recordHistory(r.Context(), userID, res, "")
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleFormats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"formats":     transcribe.Formats(),
		"maxFileSize": h.maxBytes,
		"language":    "es",
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"transcribe": h.processor != nil,
	})
}

type upload struct {
	data     []byte
	filename string
}

// readRequest parses the multipart form. entrega_id and user_id are
// required: audio carries no QR to recover the delivery from.
func (h *Handler) readRequest(r *http.Request) (*upload, string, string, error) {
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		return nil, "", "", fmt.Errorf("parsing multipart form: %w", err)
	}

	entryID := r.FormValue("entrega_id")
	if entryID == "" {
		return nil, "", "", fmt.Errorf("entrega_id is required")
	}
	userID := r.FormValue("user_id")
	if userID == "" {
		return nil, "", "", fmt.Errorf("user_id is required")
	}

	file, header, err := r.FormFile("audio_file")
	if err != nil {
		return nil, "", "", fmt.Errorf("missing audio_file field: %w", err)
	}
	defer file.Close()

	if !transcribe.SupportedFormat(header.Filename) {
		return nil, "", "", fmt.Errorf("unsupported audio format %q", header.Filename)
	}

	data, err := io.ReadAll(io.LimitReader(file, h.maxBytes+1))
	if err != nil {
		return nil, "", "", fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, "", "", fmt.Errorf("empty upload")
	}
	if int64(len(data)) > h.maxBytes {
		return nil, "", "", fmt.Errorf("upload exceeds %d bytes", h.maxBytes)
	}

	return &upload{data: data, filename: header.Filename}, entryID, userID, nil
}

func (h *Handler) recordHistory(ctx context.Context, userID string, res *pipeline.Result, fileURL string) {
	if h.history == nil {
		return
	}
	detail, err := json.Marshal(res)
	if err != nil {
		detail = []byte("{}")
	}
	_, err = h.history.Create(ctx, history.Record{
		UserID:        userID,
		Kind:          history.KindAudio,
		EntryID:       res.EntryID,
		Success:       res.Success,
		Step:          res.Step,
		ResponsesSent: len(res.ResponsesSent),
		Detail:        string(detail),
		FileURL:       fileURL,
	})
	if err != nil {
		h.log.Warn("recording history failed", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
