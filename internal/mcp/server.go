package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/survey-scan/internal/encuestas"
	"github.com/ziadkadry99/survey-scan/internal/pipeline"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Processor is the subset of the pipeline the MCP tools need.
type Processor interface {
	Preview(ctx context.Context, entryID string) (*encuestas.Template, error)
	ProcessImage(ctx context.Context, imageData []byte, mime string) *pipeline.Result
	ProcessImageWithEntryID(ctx context.Context, entryID string, imageData []byte, mime string) *pipeline.Result
}

// Server wraps an MCP server that exposes survey processing tools.
type Server struct {
	processor Processor
	mcp       *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(processor Processor) *Server {
	s := &Server{
		processor: processor,
	}

	s.mcp = server.NewMCPServer(
		"survscan",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(previewSurveyTool, s.handlePreviewSurvey)
	s.mcp.AddTool(processSurveyImageTool, s.handleProcessSurveyImage)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}
