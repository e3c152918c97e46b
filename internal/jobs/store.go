// Package jobs tracks the status of background scan processing in
// Redis so clients can poll or stream it while the pipeline runs.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for unknown or expired job IDs.
var ErrNotFound = errors.New("jobs: job not found")

// Status is the lifecycle state of a background job.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Terminal reports whether the status can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Job is one background processing run.
type Job struct {
	ID        string          `json:"jobId"`
	UserID    string          `json:"userId"`
	Kind      string          `json:"kind"` // "image" or "audio"
	Status    Status          `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// redisCmdable is the slice of the redis client the store uses.
// Narrowed for tests.
type redisCmdable interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// Store keeps jobs in Redis under job:{id} with a TTL, so finished
// entries clean themselves up.
type Store struct {
	rdb redisCmdable
	ttl time.Duration
}

// NewStore creates a Store. A non-positive TTL defaults to an hour.
func NewStore(rdb redisCmdable, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &Store{rdb: rdb, ttl: ttl}
}

// Create registers a new processing job and returns it.
func (s *Store) Create(ctx context.Context, userID, kind string) (*Job, error) {
	now := time.Now().UTC()
	job := &Job{
		ID:        uuid.New().String(),
		UserID:    userID,
		Kind:      kind,
		Status:    StatusProcessing,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.save(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

// Get fetches a job by ID.
func (s *Store) Get(ctx context.Context, id string) (*Job, error) {
	raw, err := s.rdb.Get(ctx, key(id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching job %s: %w", id, err)
	}
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return nil, fmt.Errorf("decoding job %s: %w", id, err)
	}
	return &job, nil
}

// Complete marks a job done and attaches the pipeline result.
func (s *Store) Complete(ctx context.Context, id string, result any) error {
	return s.transition(ctx, id, StatusCompleted, result, "")
}

// Fail marks a job failed with the given reason. A result may still be
// attached for the failure details.
func (s *Store) Fail(ctx context.Context, id, reason string, result any) error {
	return s.transition(ctx, id, StatusFailed, result, reason)
}

func (s *Store) transition(ctx context.Context, id string, status Status, result any, reason string) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	job.Status = status
	job.Error = reason
	job.UpdatedAt = time.Now().UTC()
	if result != nil {
		raw, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("encoding job result: %w", err)
		}
		job.Result = raw
	}
	return s.save(ctx, job)
}

func (s *Store) save(ctx context.Context, job *Job) error {
	raw, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encoding job: %w", err)
	}
	if err := s.rdb.Set(ctx, key(job.ID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("storing job %s: %w", job.ID, err)
	}
	return nil
}

func key(id string) string {
	return "job:" + id
}
