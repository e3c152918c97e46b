package mcp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/survey-scan/internal/encuestas"
	"github.com/ziadkadry99/survey-scan/internal/pipeline"
)

// fakeProcessor implements Processor for testing.
type fakeProcessor struct {
	template    *encuestas.Template
	previewErr  error
	result      *pipeline.Result
	lastEntryID string
	lastMime    string
}

func (f *fakeProcessor) Preview(_ context.Context, entryID string) (*encuestas.Template, error) {
	f.lastEntryID = entryID
	if f.previewErr != nil {
		return nil, f.previewErr
	}
	return f.template, nil
}

func (f *fakeProcessor) ProcessImage(_ context.Context, _ []byte, mime string) *pipeline.Result {
	f.lastMime = mime
	return f.result
}

func (f *fakeProcessor) ProcessImageWithEntryID(_ context.Context, entryID string, _ []byte, mime string) *pipeline.Result {
	f.lastEntryID = entryID
	f.lastMime = mime
	return f.result
}

func testTemplate() *encuestas.Template {
	return &encuestas.Template{
		EntryID: "entrega-123",
		Survey:  encuestas.Survey{ID: "s1", Name: "Satisfacción", Description: "Encuesta mensual"},
		Questions: []encuestas.Question{
			{ID: "q1", Text: "¿Comentarios?", Order: 1, Required: true, Type: "abierta"},
			{ID: "q2", Text: "¿Color favorito?", Order: 2, Type: "seleccion", Options: []encuestas.Option{
				{ID: "o1", Text: "Rojo"},
				{ID: "o2", Text: "Azul"},
			}},
		},
	}
}

func pngFile(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 2, 2))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "scan.png")
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestToolDefinitions(t *testing.T) {
	tests := []struct {
		name     string
		tool     mcp.Tool
		wantName string
	}{
		{"preview_survey", previewSurveyTool, "preview_survey"},
		{"process_survey_image", processSurveyImageTool, "process_survey_image"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.tool.Name != tt.wantName {
				t.Errorf("tool name = %q, want %q", tt.tool.Name, tt.wantName)
			}
			if tt.tool.Description == "" {
				t.Error("tool description should not be empty")
			}
		})
	}
}

func TestNewServer(t *testing.T) {
	proc := &fakeProcessor{}
	srv := NewServer(proc)

	if srv == nil {
		t.Fatal("NewServer returned nil")
	}
	if srv.mcp == nil {
		t.Fatal("MCP server not initialized")
	}
	if srv.processor != proc {
		t.Error("processor not set correctly")
	}
}

func TestHandlePreviewSurvey(t *testing.T) {
	ctx := context.Background()

	t.Run("existing entry", func(t *testing.T) {
		proc := &fakeProcessor{template: testTemplate()}
		srv := NewServer(proc)
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"entrega_id": "entrega-123",
		}

		result, err := srv.handlePreviewSurvey(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if proc.lastEntryID != "entrega-123" {
			t.Errorf("entryID = %q, want %q", proc.lastEntryID, "entrega-123")
		}
	})

	t.Run("missing entrega_id", func(t *testing.T) {
		srv := NewServer(&fakeProcessor{template: testTemplate()})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handlePreviewSurvey(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing entrega_id")
		}
	})

	t.Run("unknown entry", func(t *testing.T) {
		proc := &fakeProcessor{previewErr: fmt.Errorf("entrega nope: %w", encuestas.ErrNotFound)}
		srv := NewServer(proc)
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"entrega_id": "nope",
		}

		result, err := srv.handlePreviewSurvey(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for unknown entry")
		}
	})

	t.Run("upstream failure", func(t *testing.T) {
		proc := &fakeProcessor{previewErr: errors.New("connection refused")}
		srv := NewServer(proc)
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"entrega_id": "entrega-123",
		}

		result, err := srv.handlePreviewSurvey(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for upstream failure")
		}
	})
}

func TestHandleProcessSurveyImage(t *testing.T) {
	ctx := context.Background()
	okResult := &pipeline.Result{Success: true, Step: "submit", EntryID: "entrega-123"}

	t.Run("scan from image", func(t *testing.T) {
		proc := &fakeProcessor{result: okResult}
		srv := NewServer(proc)
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"file_path": pngFile(t),
		}

		result, err := srv.handleProcessSurveyImage(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if proc.lastMime != "image/png" {
			t.Errorf("mime = %q, want image/png", proc.lastMime)
		}
	})

	t.Run("explicit entrega_id", func(t *testing.T) {
		proc := &fakeProcessor{result: okResult}
		srv := NewServer(proc)
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"file_path":  pngFile(t),
			"entrega_id": "entrega-456",
		}

		result, err := srv.handleProcessSurveyImage(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.IsError {
			t.Fatalf("unexpected tool error: %v", result.Content)
		}
		if proc.lastEntryID != "entrega-456" {
			t.Errorf("entryID = %q, want %q", proc.lastEntryID, "entrega-456")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		srv := NewServer(&fakeProcessor{result: okResult})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"file_path": filepath.Join(t.TempDir(), "nope.png"),
		}

		result, err := srv.handleProcessSurveyImage(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing file")
		}
	})

	t.Run("unsupported type", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "notes.txt")
		if err := os.WriteFile(path, []byte("plain text"), 0644); err != nil {
			t.Fatal(err)
		}
		srv := NewServer(&fakeProcessor{result: okResult})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{
			"file_path": path,
		}

		result, err := srv.handleProcessSurveyImage(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for unsupported type")
		}
	})

	t.Run("missing file_path param", func(t *testing.T) {
		srv := NewServer(&fakeProcessor{result: okResult})
		req := mcp.CallToolRequest{}
		req.Params.Arguments = map[string]any{}

		result, err := srv.handleProcessSurveyImage(ctx, req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !result.IsError {
			t.Error("expected error for missing file_path")
		}
	})
}

func TestFormatTemplate(t *testing.T) {
	out := formatTemplate(testTemplate())
	for _, want := range []string{"Satisfacción", "entrega-123", "¿Comentarios?", "(required)", "[o2] Azul", "abierta"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
