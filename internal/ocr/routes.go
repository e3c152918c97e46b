// Package ocr exposes the image-processing HTTP endpoints: the full
// survey pipeline (sync and background), plain text extraction, form
// structure analysis, and handwriting extraction.
package ocr

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ziadkadry99/survey-scan/internal/encuestas"
	"github.com/ziadkadry99/survey-scan/internal/extract"
	"github.com/ziadkadry99/survey-scan/internal/history"
	"github.com/ziadkadry99/survey-scan/internal/jobs"
	"github.com/ziadkadry99/survey-scan/internal/llm"
	"github.com/ziadkadry99/survey-scan/internal/pipeline"
	"github.com/ziadkadry99/survey-scan/internal/push"
)

// backgroundTimeout bounds one detached pipeline run.
const backgroundTimeout = 5 * time.Minute

// Processor is the slice of the pipeline runner these endpoints use.
type Processor interface {
	ProcessImage(ctx context.Context, imageData []byte, mime string) *pipeline.Result
	ProcessImageWithEntryID(ctx context.Context, entryID string, imageData []byte, mime string) *pipeline.Result
	Preview(ctx context.Context, entryID string) (*encuestas.Template, error)
}

// VisionExtractor covers the template-free image operations.
type VisionExtractor interface {
	Text(ctx context.Context, img llm.Image) (string, error)
	Handwriting(ctx context.Context, img llm.Image) (string, error)
	Structure(ctx context.Context, img llm.Image) (*extract.FormStructure, error)
}

// Uploader stores the original upload and returns its public URL.
type Uploader interface {
	PutImage(ctx context.Context, userID string, data []byte, mime string) (string, error)
}

// Handler wires the image endpoints to their collaborators. Uploader
// and jobs/push/history may be nil when the deployment runs without
// object storage, Redis, or FCM; the endpoints degrade accordingly.
type Handler struct {
	processor Processor
	vision    VisionExtractor
	uploader  Uploader
	history   *history.Store
	jobs      *jobs.Store
	notifier  *push.Notifier
	log       *zap.Logger
}

// NewHandler builds a Handler. A nil logger is replaced with a no-op
// one.
func NewHandler(processor Processor, vision VisionExtractor, uploader Uploader, hist *history.Store, jobStore *jobs.Store, notifier *push.Notifier, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	if notifier == nil {
		notifier = push.New("", log)
	}
	return &Handler{
		processor: processor,
		vision:    vision,
		uploader:  uploader,
		history:   hist,
		jobs:      jobStore,
		notifier:  notifier,
		log:       log,
	}
}

// RegisterRoutes mounts the image endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api/ocr", func(r chi.Router) {
		r.Post("/process", h.handleProcessAsync)
		r.Post("/survey", h.handleProcessSync)
		r.Post("/text", h.handleText)
		r.Post("/structure", h.handleStructure)
		r.Post("/handwriting", h.handleHandwriting)
	})
	r.Get("/api/entregas/{id}/preview", h.handlePreview)
}

// handleProcessAsync accepts the upload, registers a job, and answers
// immediately; the pipeline runs detached from the request.
func (h *Handler) handleProcessAsync(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		http.Error(w, "background processing not configured", http.StatusServiceUnavailable)
		return
	}

	up, err := readImageUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	userID := r.FormValue("user_id")
	if userID == "" {
		http.Error(w, "user_id is required", http.StatusBadRequest)
		return
	}
	fcmToken := r.FormValue("fcm_token")

	job, err := h.jobs.Create(r.Context(), userID, string(history.KindImage))
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	go h.runBackground(job.ID, userID, fcmToken, up)

	writeJSON(w, http.StatusOK, map[string]string{
		"status": "processing",
		"job_id": job.ID,
	})
}

// runBackground executes one detached pipeline run and reports its
// outcome through the job store, history, and push notifications.
func (h *Handler) runBackground(jobID, userID, fcmToken string, up *upload) {
	ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
	defer cancel()

	h.notifier.Processing(ctx, fcmToken, userID, jobID)

	fileURL := ""
	if h.uploader != nil {
		url, err := h.uploader.PutImage(ctx, userID, up.data, up.mime)
		if err != nil {
			h.log.Warn("storing upload failed", zap.Error(err))
		} else {
			fileURL = url
		}
	}

	res := h.processor.ProcessImage(ctx, up.data, up.mime)
	h.recordHistory(ctx, userID, history.KindImage, res, fileURL)

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

// handleProcessSync runs the pipeline inside the request. An
// entrega_id form field skips the QR scan.
func (h *Handler) handleProcessSync(w http.ResponseWriter, r *http.Request) {
	up, err := readImageUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var res *pipeline.Result
	if entryID := r.FormValue("entrega_id"); entryID != "" {
		res = h.processor.ProcessImageWithEntryID(r.Context(), entryID, up.data, up.mime)
	} else {
		res = h.processor.ProcessImage(r.Context(), up.data, up.mime)
	}

	if userID := r.FormValue("user_id"); userID != "" {
		h.recordHistory(r.Context(), userID, history.KindImage, res, "")
	}

	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) handleText(w http.ResponseWriter, r *http.Request) {
	h.visionOp(w, r, func(ctx context.Context, img llm.Image) (any, error) {
		text, err := h.vision.Text(ctx, img)
		if err != nil {
			return nil, err
		}
		return map[string]string{"text": text}, nil
	})
}

func (h *Handler) handleHandwriting(w http.ResponseWriter, r *http.Request) {
	h.visionOp(w, r, func(ctx context.Context, img llm.Image) (any, error) {
		text, err := h.vision.Handwriting(ctx, img)
		if err != nil {
			return nil, err
		}
		return map[string]string{"handwrittenText": text}, nil
	})
}

func (h *Handler) handleStructure(w http.ResponseWriter, r *http.Request) {
	h.visionOp(w, r, func(ctx context.Context, img llm.Image) (any, error) {
		return h.vision.Structure(ctx, img)
	})
}

func (h *Handler) visionOp(w http.ResponseWriter, r *http.Request, op func(context.Context, llm.Image) (any, error)) {
	if h.vision == nil {
		http.Error(w, "vision extraction not configured", http.StatusServiceUnavailable)
		return
	}
	up, err := readImageUpload(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	out, err := op(r.Context(), llm.Image{MIME: up.mime, Data: up.data})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	entryID := chi.URLParam(r, "id")

	tpl, err := h.processor.Preview(r.Context(), entryID)
	if err != nil {
		if errors.Is(err, encuestas.ErrNotFound) {
			http.Error(w, "entrega not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, tpl)
}

func (h *Handler) recordHistory(ctx context.Context, userID string, kind history.Kind, res *pipeline.Result, fileURL string) {
	if h.history == nil {
		return
	}
	detail, err := json.Marshal(res)
	if err != nil {
		detail = []byte("{}")
	}
	_, err = h.history.Create(ctx, history.Record{
		UserID:        userID,
		Kind:          kind,
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
