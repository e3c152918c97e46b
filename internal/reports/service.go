// Package reports aggregates processing history into usage summaries,
// enriched with user names from the main application's directory and
// an optional model-written commentary.
package reports

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ziadkadry99/survey-scan/internal/history"
	"github.com/ziadkadry99/survey-scan/internal/llm"
)

// UserActivity is one user's slice of a summary.
type UserActivity struct {
	UserID string `json:"userId"`
	Name   string `json:"name,omitempty"`
	Scans  int    `json:"scans"`
	OK     int    `json:"ok"`
}

// Summary is the aggregate view over a reporting window.
type Summary struct {
	Since      time.Time      `json:"since"`
	Total      int            `json:"total"`
	Succeeded  int            `json:"succeeded"`
	ByKind     map[string]int `json:"byKind"`
	ByStep     map[string]int `json:"byStep"`
	TopUsers   []UserActivity `json:"topUsers"`
	Commentary string         `json:"commentary,omitempty"`
}

// UserReport is one user's history with resolved name and counters.
type UserReport struct {
	UserID    string           `json:"userId"`
	Name      string           `json:"name,omitempty"`
	Total     int              `json:"total"`
	Succeeded int              `json:"succeeded"`
	Records   []history.Record `json:"records"`
}

// Service builds reports. Users and provider are optional: without a
// directory names stay empty, without a provider the commentary is
// skipped.
type Service struct {
	history  *history.Store
	users    UserDirectory
	provider llm.Provider
	model    string
	log      *zap.Logger
}

// NewService builds a Service. A nil logger is replaced with a no-op
// one.
func NewService(hist *history.Store, users UserDirectory, provider llm.Provider, model string, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{history: hist, users: users, provider: provider, model: model, log: log}
}

// Summary aggregates all records since the given time.
func (s *Service) Summary(ctx context.Context, since time.Time) (*Summary, error) {
	records, err := s.history.List(ctx, history.ListFilter{Since: since})
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}

	sum := &Summary{
		Since:  since,
		Total:  len(records),
		ByKind: map[string]int{},
		ByStep: map[string]int{},
	}

	perUser := map[string]*UserActivity{}
	for _, r := range records {
		sum.ByKind[string(r.Kind)]++
		if r.Step != "" {
			sum.ByStep[r.Step]++
		}
		if r.Success {
			sum.Succeeded++
		}
		ua, ok := perUser[r.UserID]
		if !ok {
			ua = &UserActivity{UserID: r.UserID}
			perUser[r.UserID] = ua
		}
		ua.Scans++
		if r.Success {
			ua.OK++
		}
	}

	for _, ua := range perUser {
		sum.TopUsers = append(sum.TopUsers, *ua)
	}
	sort.Slice(sum.TopUsers, func(i, j int) bool {
		if sum.TopUsers[i].Scans != sum.TopUsers[j].Scans {
			return sum.TopUsers[i].Scans > sum.TopUsers[j].Scans
		}
		return sum.TopUsers[i].UserID < sum.TopUsers[j].UserID
	})
	if len(sum.TopUsers) > 10 {
		sum.TopUsers = sum.TopUsers[:10]
	}

	s.resolveNames(ctx, sum.TopUsers)
	sum.Commentary = s.commentary(ctx, sum)

	return sum, nil
}

// UserReport builds one user's report.
func (s *Service) UserReport(ctx context.Context, userID string, limit int) (*UserReport, error) {
	records, err := s.history.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("loading user history: %w", err)
	}
	if records == nil {
		records = []history.Record{}
	}

	rep := &UserReport{UserID: userID, Total: len(records), Records: records}
	for _, r := range records {
		if r.Success {
			rep.Succeeded++
		}
	}

	if s.users != nil {
		names, err := s.users.Names(ctx, []string{userID})
		if err != nil {
			s.log.Warn("resolving user name", zap.Error(err))
		} else {
			rep.Name = names[userID]
		}
	}
	return rep, nil
}

func (s *Service) resolveNames(ctx context.Context, users []UserActivity) {
	if s.users == nil || len(users) == 0 {
		return
	}
	ids := make([]string, len(users))
	for i, u := range users {
		ids[i] = u.UserID
	}
	names, err := s.users.Names(ctx, ids)
	if err != nil {
		s.log.Warn("resolving user names", zap.Error(err))
		return
	}
	for i := range users {
		users[i].Name = names[users[i].UserID]
	}
}

// commentary asks the model for a short natural-language read of the
// numbers. Failures degrade to an empty commentary.
func (s *Service) commentary(ctx context.Context, sum *Summary) string {
	if s.provider == nil || sum.Total == 0 {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Resume en 2-3 frases la actividad de procesamiento de encuestas desde %s:\n", sum.Since.Format("2006-01-02"))
	fmt.Fprintf(&b, "- Total de escaneos: %d (exitosos: %d)\n", sum.Total, sum.Succeeded)
	for kind, n := range sum.ByKind {
		fmt.Fprintf(&b, "- Por tipo %s: %d\n", kind, n)
	}
	for step, n := range sum.ByStep {
		fmt.Fprintf(&b, "- Terminaron en etapa %s: %d\n", step, n)
	}
	b.WriteString("Responde en español, sin listas, destacando tendencias o problemas.")

	resp, err := s.provider.Complete(ctx, llm.CompletionRequest{
		Model:       s.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: b.String()}},
		MaxTokens:   512,
		Temperature: 0.4,
	})
	if err != nil {
		s.log.Warn("report commentary failed", zap.Error(err))
		return ""
	}
	return strings.TrimSpace(resp.Content)
}
