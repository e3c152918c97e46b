package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/ziadkadry99/survey-scan/internal/db"
	"github.com/ziadkadry99/survey-scan/internal/encuestas"
	"github.com/ziadkadry99/survey-scan/internal/extract"
	"github.com/ziadkadry99/survey-scan/internal/history"
	"github.com/ziadkadry99/survey-scan/internal/jobs"
	"github.com/ziadkadry99/survey-scan/internal/llm"
	"github.com/ziadkadry99/survey-scan/internal/pipeline"
)

type fakeProcessor struct {
	result      *pipeline.Result
	previewTpl  *encuestas.Template
	previewErr  error
	lastEntryID string
	usedKnownID bool
}

func (f *fakeProcessor) ProcessImage(_ context.Context, _ []byte, _ string) *pipeline.Result {
	return f.result
}

func (f *fakeProcessor) ProcessImageWithEntryID(_ context.Context, entryID string, _ []byte, _ string) *pipeline.Result {
	f.usedKnownID = true
	f.lastEntryID = entryID
	return f.result
}

func (f *fakeProcessor) Preview(_ context.Context, entryID string) (*encuestas.Template, error) {
	f.lastEntryID = entryID
	return f.previewTpl, f.previewErr
}

type fakeVision struct{}

func (fakeVision) Text(context.Context, llm.Image) (string, error) {
	return "texto extraído", nil
}

func (fakeVision) Handwriting(context.Context, llm.Image) (string, error) {
	return "manuscrito", nil
}

func (fakeVision) Structure(context.Context, llm.Image) (*extract.FormStructure, error) {
	return &extract.FormStructure{Titulo: "Encuesta"}, nil
}

type fakeUploader struct {
	url string
}

func (f *fakeUploader) PutImage(context.Context, string, []byte, string) (string, error) {
	return f.url, nil
}

type fakeRedis struct {
	m map[string]string
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	if b, ok := value.([]byte); ok {
		f.m[key] = string(b)
	}
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	v, ok := f.m[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func testHistory(t *testing.T) *history.Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return history.NewStore(database)
}

func multipartRequest(t *testing.T, target string, fields map[string]string) *http.Request {
	t.Helper()
	var img bytes.Buffer
	if err := png.Encode(&img, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("encoding test image: %v", err)
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "scan.png")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	fw.Write(img.Bytes())
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func successResult() *pipeline.Result {
	return &pipeline.Result{
		Success: true,
		Step:    pipeline.StepSubmit,
		EntryID: "e1",
		ResponsesSent: []encuestas.Answer{
			{PreguntaID: "q1", Texto: "hola"},
		},
	}
}

func newTestRouter(h *Handler) chi.Router {
	router := chi.NewRouter()
	h.RegisterRoutes(router)
	return router
}

func TestProcessSync(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	hist := testHistory(t)
	h := NewHandler(proc, fakeVision{}, nil, hist, nil, nil, nil)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/ocr/survey", map[string]string{
		"entrega_id": "e1",
		"user_id":    "u1",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	if !proc.usedKnownID || proc.lastEntryID != "e1" {
		t.Error("entrega_id field should skip QR scanning")
	}

	var res pipeline.Result
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil || !res.Success {
		t.Fatalf("body: %s", rec.Body.String())
	}

	records, err := hist.ListByUser(context.Background(), "u1", 0)
	if err != nil || len(records) != 1 {
		t.Fatalf("history: %v, %d records", err, len(records))
	}
	if records[0].Kind != history.KindImage || records[0].ResponsesSent != 1 {
		t.Errorf("record: %+v", records[0])
	}
}

func TestProcessSyncRejectsBadUpload(t *testing.T) {
	h := NewHandler(&fakeProcessor{result: successResult()}, nil, nil, nil, nil, nil, nil)
	router := newTestRouter(h)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, _ := mw.CreateFormFile("file", "notes.txt")
	fw.Write([]byte("plain text, not an image"))
	mw.Close()
	req := httptest.NewRequest(http.MethodPost, "/api/ocr/survey", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d", rec.Code)
	}
}

func TestProcessAsync(t *testing.T) {
	proc := &fakeProcessor{result: successResult()}
	hist := testHistory(t)
	jobStore := jobs.NewStore(&fakeRedis{m: make(map[string]string)}, time.Minute)
	up := &fakeUploader{url: "https://files.example.com/survscan/scans/u1/a.png"}
	h := NewHandler(proc, nil, up, hist, jobStore, nil, nil)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/ocr/process", map[string]string{
		"user_id":   "u1",
		"fcm_token": "tok",
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp["status"] != "processing" || resp["job_id"] == "" {
		t.Fatalf("got %+v", resp)
	}

	deadline := time.Now().Add(3 * time.Second)
	var job *jobs.Job
	for time.Now().Before(deadline) {
		j, err := jobStore.Get(context.Background(), resp["job_id"])
		if err == nil && j.Status.Terminal() {
			job = j
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if job == nil || job.Status != jobs.StatusCompleted {
		t.Fatalf("job never completed: %+v", job)
	}

	records, _ := hist.ListByUser(context.Background(), "u1", 0)
	if len(records) != 1 || records[0].FileURL != up.url {
		t.Errorf("history records: %+v", records)
	}
}

func TestProcessAsyncRequiresUserID(t *testing.T) {
	jobStore := jobs.NewStore(&fakeRedis{m: make(map[string]string)}, time.Minute)
	h := NewHandler(&fakeProcessor{}, nil, nil, nil, jobStore, nil, nil)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/ocr/process", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status %d", rec.Code)
	}
}

func TestVisionEndpoints(t *testing.T) {
	h := NewHandler(&fakeProcessor{}, fakeVision{}, nil, nil, nil, nil, nil)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/ocr/text", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("text: status %d", rec.Code)
	}
	var textResp map[string]string
	json.Unmarshal(rec.Body.Bytes(), &textResp)
	if textResp["text"] != "texto extraído" {
		t.Errorf("got %+v", textResp)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/ocr/structure", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("structure: status %d", rec.Code)
	}
	var st extract.FormStructure
	json.Unmarshal(rec.Body.Bytes(), &st)
	if st.Titulo != "Encuesta" {
		t.Errorf("got %+v", st)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, multipartRequest(t, "/api/ocr/handwriting", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("handwriting: status %d", rec.Code)
	}
}

func TestPreview(t *testing.T) {
	proc := &fakeProcessor{previewTpl: &encuestas.Template{EntryID: "e1"}}
	h := NewHandler(proc, nil, nil, nil, nil, nil, nil)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entregas/e1/preview", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}

	proc.previewErr = encuestas.ErrNotFound
	proc.previewTpl = nil
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/entregas/gone/preview", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing entrega: status %d", rec.Code)
	}
}
