package encuestas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is an HTTP client for the survey-data service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the given API base URL
// (e.g. "https://encuestas.sw2ficct.lat/api").
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchTemplate retrieves the question set for an entry.
// GET {base}/entrega/{id}/preguntas
func (c *Client) FetchTemplate(ctx context.Context, entryID string) (*FetchResult, error) {
	url := fmt.Sprintf("%s/entrega/%s/preguntas", c.baseURL, entryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating fetch request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching template for %s: %w", entryID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading fetch response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var result FetchResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("decoding template payload: %w", err)
		}
		result.Success = true
		if result.EntryID == "" {
			result.EntryID = entryID
		}
		return &result, nil

	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("entrega %s: %w", entryID, ErrNotFound)

	default:
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 512)}
	}
}

// submitRequest is the POST body envelope.
type submitRequest struct {
	Respuestas []Answer `json:"respuestas"`
}

// SubmitAnswers posts reconciled answers for an entry.
// POST {base}/entrega/{id}/respuestas
func (c *Client) SubmitAnswers(ctx context.Context, entryID string, answers []Answer) (*SubmitResult, error) {
	payload, err := json.Marshal(submitRequest{Respuestas: answers})
	if err != nil {
		return nil, fmt.Errorf("marshalling answers: %w", err)
	}

	url := fmt.Sprintf("%s/entrega/%s/respuestas", c.baseURL, entryID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating submit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting answers for %s: %w", entryID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading submit response: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		var result SubmitResult
		if err := json.Unmarshal(body, &result); err != nil {
			return nil, fmt.Errorf("decoding submit response: %w", err)
		}
		result.Success = true
		return &result, nil

	case http.StatusBadRequest:
		var errBody struct {
			Message string `json:"message"`
		}
		if err := json.Unmarshal(body, &errBody); err != nil || errBody.Message == "" {
			errBody.Message = "validation error"
		}
		return nil, &ValidationError{Message: errBody.Message}

	case http.StatusNotFound:
		return nil, fmt.Errorf("entrega %s: %w", entryID, ErrNotFound)

	default:
		return nil, &StatusError{Code: resp.StatusCode, Body: truncate(string(body), 512)}
	}
}

// Validation reports whether an entry id resolves on the service.
type Validation struct {
	Valid  bool `json:"valid"`
	Exists bool `json:"exists"`
}

// ValidateEntryID probes the service with a template fetch. A definite
// answer comes back with a nil error; transport and server failures are
// returned as-is rather than guessed at.
func (c *Client) ValidateEntryID(ctx context.Context, entryID string) (Validation, error) {
	_, err := c.FetchTemplate(ctx, entryID)
	if err == nil {
		return Validation{Valid: true, Exists: true}, nil
	}
	if errors.Is(err, ErrNotFound) {
		return Validation{}, nil
	}
	return Validation{}, err
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
