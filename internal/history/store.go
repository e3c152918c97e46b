package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/survey-scan/internal/db"
)

// ListFilter controls which records are returned by List.
type ListFilter struct {
	UserID  string
	Kind    Kind
	EntryID string
	Success *bool
	Since   time.Time
	Limit   int
	Offset  int
}

// Store provides CRUD operations for scan records.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Create inserts a new record. If r.ID is empty a UUID is generated.
func (s *Store) Create(ctx context.Context, r Record) (string, error) {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.Detail == "" {
		r.Detail = "{}"
	}

	success := 0
	if r.Success {
		success = 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scan_records (id, user_id, kind, entry_id, success, step, responses_sent, detail, file_url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.UserID, string(r.Kind), r.EntryID, success, r.Step,
		r.ResponsesSent, r.Detail, r.FileURL,
	)
	if err != nil {
		return "", fmt.Errorf("inserting scan record: %w", err)
	}
	return r.ID, nil
}

// GetByID retrieves a single record.
func (s *Store) GetByID(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, kind, entry_id, success, step, responses_sent, detail, file_url, created_at
		FROM scan_records WHERE id = ?`, id)
	return scanRecord(row)
}

// List returns records matching the filter, newest first.
func (s *Store) List(ctx context.Context, filter ListFilter) ([]Record, error) {
	var (
		clauses []string
		args    []any
	)

	if filter.UserID != "" {
		clauses = append(clauses, "user_id = ?")
		args = append(args, filter.UserID)
	}
	if filter.Kind != "" {
		clauses = append(clauses, "kind = ?")
		args = append(args, string(filter.Kind))
	}
	if filter.EntryID != "" {
		clauses = append(clauses, "entry_id = ?")
		args = append(args, filter.EntryID)
	}
	if filter.Success != nil {
		v := 0
		if *filter.Success {
			v = 1
		}
		clauses = append(clauses, "success = ?")
		args = append(args, v)
	}
	if !filter.Since.IsZero() {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, filter.Since.UTC().Format(time.DateTime))
	}

	query := "SELECT id, user_id, kind, entry_id, success, step, responses_sent, detail, file_url, created_at FROM scan_records"
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}
	if filter.Offset > 0 {
		query += fmt.Sprintf(" OFFSET %d", filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying scan records: %w", err)
	}
	defer rows.Close()

	var result []Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *r)
	}
	return result, rows.Err()
}

// ListByUser returns a user's records, newest first.
func (s *Store) ListByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	return s.List(ctx, ListFilter{UserID: userID, Limit: limit})
}

// CountByStep aggregates record counts per pipeline step for records
// created after since. Used by the reports endpoints.
func (s *Store) CountByStep(ctx context.Context, since time.Time) (map[string]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT step, COUNT(*) FROM scan_records
		WHERE created_at >= ? GROUP BY step`,
		since.UTC().Format(time.DateTime))
	if err != nil {
		return nil, fmt.Errorf("aggregating scan records: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var step string
		var n int
		if err := rows.Scan(&step, &n); err != nil {
			return nil, fmt.Errorf("scanning aggregate row: %w", err)
		}
		counts[step] = n
	}
	return counts, rows.Err()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*Record, error) {
	var (
		r       Record
		kind    string
		success int
		ts      string
	)

	err := sc.Scan(&r.ID, &r.UserID, &kind, &r.EntryID, &success, &r.Step,
		&r.ResponsesSent, &r.Detail, &r.FileURL, &ts)
	if err != nil {
		return nil, err
	}

	r.Kind = Kind(kind)
	r.Success = success != 0

	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		r.CreatedAt = t
	} else if t, parseErr := time.Parse("2006-01-02T15:04:05Z", ts); parseErr == nil {
		r.CreatedAt = t
	}

	return &r, nil
}
