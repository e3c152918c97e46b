package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// Image is an inline image attached to a completion request.
type Image struct {
	MIME string // e.g. "image/jpeg"
	Data []byte // raw bytes; providers base64-encode as needed
}

// CompletionRequest contains the parameters for an LLM completion request.
// Images, when present, are attached to the last user message for providers
// that support multimodal input.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	Images      []Image
	MaxTokens   int
	Temperature float64
	JSONMode    bool
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	Content      string
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
