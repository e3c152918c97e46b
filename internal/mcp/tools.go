package mcp

import "github.com/mark3labs/mcp-go/mcp"

// previewSurveyTool defines the preview_survey MCP tool.
var previewSurveyTool = mcp.NewTool("preview_survey",
	mcp.WithDescription("Fetch and normalize the survey template for a delivery id. Returns the survey name, questions, and options without submitting anything."),
	mcp.WithString("entrega_id",
		mcp.Required(),
		mcp.Description("Delivery identifier of the survey entry"),
	),
)

// processSurveyImageTool defines the process_survey_image MCP tool.
var processSurveyImageTool = mcp.NewTool("process_survey_image",
	mcp.WithDescription("Run the full survey pipeline on an image file: QR scan, template fetch, AI answer extraction, reconciliation, and submission. Returns the stage-tagged result as JSON."),
	mcp.WithString("file_path",
		mcp.Required(),
		mcp.Description("Path to the survey image (JPEG or PNG)"),
	),
	mcp.WithString("entrega_id",
		mcp.Description("Delivery identifier to use instead of scanning the image for a QR code"),
	),
)
