package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

type fakeRedis struct {
	m map[string]string
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{m: make(map[string]string)}
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, _ time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		f.m[key] = string(v)
	case string:
		f.m[key] = v
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

func TestJobLifecycle(t *testing.T) {
	store := NewStore(newFakeRedis(), time.Minute)
	ctx := context.Background()

	job, err := store.Create(ctx, "u1", "image")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if job.Status != StatusProcessing || job.ID == "" {
		t.Fatalf("got %+v", job)
	}

	got, err := store.Get(ctx, job.ID)
	if err != nil || got.UserID != "u1" || got.Kind != "image" {
		t.Fatalf("Get: %+v, %v", got, err)
	}

	if err := store.Complete(ctx, job.ID, map[string]any{"success": true}); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	got, _ = store.Get(ctx, job.ID)
	if got.Status != StatusCompleted || !got.Status.Terminal() {
		t.Errorf("status = %q", got.Status)
	}
	var result map[string]any
	if err := json.Unmarshal(got.Result, &result); err != nil || result["success"] != true {
		t.Errorf("result = %s", got.Result)
	}
}

func TestJobFail(t *testing.T) {
	store := NewStore(newFakeRedis(), time.Minute)
	ctx := context.Background()

	job, _ := store.Create(ctx, "u1", "audio")
	if err := store.Fail(ctx, job.ID, "no delivery QR found", nil); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	got, _ := store.Get(ctx, job.ID)
	if got.Status != StatusFailed || got.Error != "no delivery QR found" {
		t.Errorf("got %+v", got)
	}
}

func TestGetUnknownJob(t *testing.T) {
	store := NewStore(newFakeRedis(), time.Minute)
	if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestJobRoutes(t *testing.T) {
	store := NewStore(newFakeRedis(), time.Minute)
	job, _ := store.Create(context.Background(), "u1", "image")

	router := chi.NewRouter()
	RegisterRoutes(router, store, nil)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/"+job.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	var got Job
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil || got.ID != job.ID {
		t.Errorf("got %+v, %v", got, err)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing job: status %d", rec.Code)
	}
}

func TestJobStream(t *testing.T) {
	store := NewStore(newFakeRedis(), time.Minute)
	job, _ := store.Create(context.Background(), "u1", "image")

	router := chi.NewRouter()
	RegisterRoutes(router, store, nil)
	srv := httptest.NewServer(router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/jobs/" + job.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dialing websocket: %v", err)
	}
	defer conn.Close()

	var first Job
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("reading first update: %v", err)
	}
	if first.Status != StatusProcessing {
		t.Errorf("first update status = %q", first.Status)
	}

	if err := store.Complete(context.Background(), job.ID, nil); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	var last Job
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	if err := conn.ReadJSON(&last); err != nil {
		t.Fatalf("reading terminal update: %v", err)
	}
	if last.Status != StatusCompleted {
		t.Errorf("terminal update status = %q", last.Status)
	}
}
