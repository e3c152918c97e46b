package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/survey-scan/internal/encuestas"
)

// handlePreviewSurvey fetches and normalizes the template for a delivery id.
func (s *Server) handlePreviewSurvey(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entryID, err := request.RequireString("entrega_id")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: entrega_id"), nil
	}

	tpl, err := s.processor.Preview(ctx, entryID)
	if err != nil {
		if errors.Is(err, encuestas.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("no survey entry found for %q", entryID)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("preview failed: %v", err)), nil
	}

	return mcp.NewToolResultText(formatTemplate(tpl)), nil
}

// handleProcessSurveyImage runs the full pipeline on an image file.
func (s *Server) handleProcessSurveyImage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filePath, err := request.RequireString("file_path")
	if err != nil {
		return mcp.NewToolResultError("missing required parameter: file_path"), nil
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return mcp.NewToolResultError(fmt.Sprintf("file not found: %s", filePath)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("failed to read image: %v", err)), nil
	}

	mime := http.DetectContentType(data)
	if mime != "image/jpeg" && mime != "image/png" {
		return mcp.NewToolResultError(fmt.Sprintf("unsupported image type %s, expected JPEG or PNG", mime)), nil
	}

	var res any
	if entryID := request.GetString("entrega_id", ""); entryID != "" {
		res = s.processor.ProcessImageWithEntryID(ctx, entryID, data, mime)
	} else {
		res = s.processor.ProcessImage(ctx, data, mime)
	}

	out, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}

	return mcp.NewToolResultText(string(out)), nil
}

// formatTemplate converts a normalized template into a rich text format
// optimized for AI agent consumption.
func formatTemplate(tpl *encuestas.Template) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Survey: %s\n", tpl.Survey.Name))
	if tpl.Survey.Description != "" {
		sb.WriteString(fmt.Sprintf("Description: %s\n", tpl.Survey.Description))
	}
	sb.WriteString(fmt.Sprintf("Entry: %s\n", tpl.EntryID))
	sb.WriteString(fmt.Sprintf("Questions: %d\n", len(tpl.Questions)))

	for _, q := range tpl.Questions {
		sb.WriteString(fmt.Sprintf("\n%d. %s", q.Order, q.Text))
		if q.Required {
			sb.WriteString(" (required)")
		}
		sb.WriteString(fmt.Sprintf("\n   type: %s, id: %s\n", q.Type, q.ID))
		for _, opt := range q.Options {
			sb.WriteString(fmt.Sprintf("   - [%s] %s\n", opt.ID, opt.Text))
		}
	}

	return sb.String()
}
