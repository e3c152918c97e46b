package llm

import (
	"context"
	"sync"
	"testing"
	"time"
)

// MockProvider is a test provider that records calls and returns canned responses.
type MockProvider struct {
	mu       sync.Mutex
	Calls    []CompletionRequest
	Response *CompletionResponse
	Err      error
	ProvName string
}

func NewMockProvider(name string) *MockProvider {
	return &MockProvider{
		ProvName: name,
		Response: &CompletionResponse{
			Content:      "mock response",
			InputTokens:  10,
			OutputTokens: 20,
			Model:        "mock-model",
			FinishReason: "stop",
		},
	}
}

func (m *MockProvider) Name() string {
	return m.ProvName
}

func (m *MockProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, req)
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Response, nil
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}

// --- Tests ---

func TestMockProviderRecordsCalls(t *testing.T) {
	mock := NewMockProvider("test")
	ctx := context.Background()

	req := CompletionRequest{
		Model:    "test-model",
		Messages: []Message{{Role: RoleUser, Content: "hello"}},
		Images:   []Image{{MIME: "image/jpeg", Data: []byte{0xff, 0xd8}}},
	}

	resp, err := mock.Complete(ctx, req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if resp.Content != "mock response" {
		t.Errorf("expected 'mock response', got %q", resp.Content)
	}

	if mock.CallCount() != 1 {
		t.Errorf("expected 1 call, got %d", mock.CallCount())
	}

	if len(mock.Calls[0].Images) != 1 {
		t.Errorf("expected image to be carried through, got %d", len(mock.Calls[0].Images))
	}
}

func TestFactoryReturnsErrorForMissingAPIKey(t *testing.T) {
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	providers := []string{"anthropic", "openai", "google"}
	for _, p := range providers {
		_, err := NewProvider(p, "some-model")
		if err == nil {
			t.Errorf("expected error for provider %q with missing API key", p)
		}
	}
}

func TestFactoryReturnsErrorForUnknownProvider(t *testing.T) {
	_, err := NewProvider("unknown", "some-model")
	if err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestRateLimiterPassthrough(t *testing.T) {
	mock := NewMockProvider("mock")
	limited := NewRateLimitedProvider(mock, 600)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		if _, err := limited.Complete(ctx, CompletionRequest{}); err != nil {
			t.Fatalf("Complete %d: %v", i, err)
		}
	}
	if mock.CallCount() != 3 {
		t.Errorf("expected 3 calls, got %d", mock.CallCount())
	}
	if limited.Name() != "mock" {
		t.Errorf("Name() = %q, want mock", limited.Name())
	}
}

func TestRateLimiterZeroRPMUnwrapped(t *testing.T) {
	mock := NewMockProvider("mock")
	if got := NewRateLimitedProvider(mock, 0); got != Provider(mock) {
		t.Error("rpm<=0 should return the provider unwrapped")
	}
}

func TestRateLimiterRespectsContext(t *testing.T) {
	mock := NewMockProvider("mock")
	limited := NewRateLimitedProvider(mock, 1)

	ctx := context.Background()
	if _, err := limited.Complete(ctx, CompletionRequest{}); err != nil {
		t.Fatalf("first call: %v", err)
	}

	// Bucket exhausted; a cancelled context must abort the wait.
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if _, err := limited.Complete(cancelled, CompletionRequest{}); err == nil {
		t.Error("expected context error when bucket is empty")
	}
}

func TestEstimateCost(t *testing.T) {
	cost := EstimateCost("gpt-4o-mini", 1_000_000, 1_000_000)
	want := 0.15 + 0.60
	if cost != want {
		t.Errorf("EstimateCost = %v, want %v", cost, want)
	}

	if got := EstimateCost("unknown-model", 100, 100); got != 0 {
		t.Errorf("unknown model cost = %v, want 0", got)
	}
}
