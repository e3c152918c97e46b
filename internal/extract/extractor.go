// Package extract turns survey photos and audio transcripts into
// loosely-typed answers using a vision-capable language model.
package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ziadkadry99/survey-scan/internal/encuestas"
	"github.com/ziadkadry99/survey-scan/internal/llm"
	"github.com/ziadkadry99/survey-scan/internal/reconcile"
)

// Extractor runs extraction prompts against an LLM provider.
type Extractor struct {
	provider llm.Provider
	model    string
	log      *zap.Logger
}

// New builds an Extractor. A nil logger is replaced with a no-op one.
func New(provider llm.Provider, model string, log *zap.Logger) *Extractor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Extractor{provider: provider, model: model, log: log}
}

// FromImage reads a filled survey photo and returns the answers the
// model found, keyed by the questions' visual order.
func (e *Extractor) FromImage(ctx context.Context, img llm.Image, tpl *encuestas.Template) ([]reconcile.ExtractedAnswer, error) {
	resp, err := e.complete(ctx, "image_survey", buildImagePrompt(tpl), []llm.Image{img}, true)
	if err != nil {
		return nil, err
	}
	answers, err := parseAnswers(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("image extraction: %w", err)
	}
	return answers, nil
}

// FromTranscript maps a spoken-answer transcript onto the survey
// questions, keyed by question ID.
func (e *Extractor) FromTranscript(ctx context.Context, transcript string, tpl *encuestas.Template) ([]reconcile.ExtractedAnswer, error) {
	resp, err := e.complete(ctx, "transcript_survey", buildTranscriptPrompt(transcript, tpl), nil, true)
	if err != nil {
		return nil, err
	}
	answers, err := parseAnswers(resp.Content)
	if err != nil {
		return nil, fmt.Errorf("transcript extraction: %w", err)
	}
	return answers, nil
}

// Text extracts all readable text from an image.
func (e *Extractor) Text(ctx context.Context, img llm.Image) (string, error) {
	resp, err := e.complete(ctx, "text", textPrompt, []llm.Image{img}, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// Handwriting extracts only the handwritten text from an image.
func (e *Extractor) Handwriting(ctx context.Context, img llm.Image) (string, error) {
	resp, err := e.complete(ctx, "handwriting", handwritingPrompt, []llm.Image{img}, false)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(resp.Content), nil
}

// StructureQuestion is one detected field of an unscanned form.
type StructureQuestion struct {
	Numero             int    `json:"numero"`
	Texto              string `json:"texto"`
	Tipo               string `json:"tipo"`
	RespuestaDetectada string `json:"respuesta_detectada"`
}

// FormStructure describes a form's layout as seen by the model.
type FormStructure struct {
	Titulo    string              `json:"titulo"`
	Preguntas []StructureQuestion `json:"preguntas"`
}

// Structure analyzes the layout of a form image.
func (e *Extractor) Structure(ctx context.Context, img llm.Image) (*FormStructure, error) {
	resp, err := e.complete(ctx, "structure", structurePrompt, []llm.Image{img}, true)
	if err != nil {
		return nil, err
	}
	raw := sliceJSON(stripFences(resp.Content), '{', '}')
	if raw == "" {
		return nil, fmt.Errorf("structure analysis: no JSON in model reply")
	}
	var st FormStructure
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("structure analysis: %w", err)
	}
	return &st, nil
}

func (e *Extractor) complete(ctx context.Context, op, prompt string, images []llm.Image, jsonMode bool) (*llm.CompletionResponse, error) {
	resp, err := e.provider.Complete(ctx, llm.CompletionRequest{
		Model:       e.model,
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		Images:      images,
		MaxTokens:   4096,
		Temperature: 0.1,
		JSONMode:    jsonMode,
	})
	if err != nil {
		return nil, fmt.Errorf("%s completion: %w", op, err)
	}
	e.log.Info("extraction completed",
		zap.String("operation", op),
		zap.String("model", resp.Model),
		zap.Int("input_tokens", resp.InputTokens),
		zap.Int("output_tokens", resp.OutputTokens),
		zap.Float64("estimated_cost_usd", llm.EstimateCost(resp.Model, resp.InputTokens, resp.OutputTokens)),
	)
	return resp, nil
}
