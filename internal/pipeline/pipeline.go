// Package pipeline runs the end-to-end survey ingestion flow: find the
// delivery QR, fetch the survey template, extract answers with the
// model, reconcile them against the template, and submit.
package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"

	"go.uber.org/zap"

	"github.com/ziadkadry99/survey-scan/internal/encuestas"
	"github.com/ziadkadry99/survey-scan/internal/llm"
	"github.com/ziadkadry99/survey-scan/internal/qr"
	"github.com/ziadkadry99/survey-scan/internal/reconcile"
)

// Step names identify where a run stopped. They appear in API
// responses and job records.
const (
	StepQRScan        = "qr_scan"
	StepTemplateFetch = "template_fetch"
	StepAIExtraction  = "ai_extraction"
	StepSubmit        = "submit"
)

// SurveyService is the slice of the encuestas client the pipeline
// needs.
type SurveyService interface {
	FetchTemplate(ctx context.Context, entryID string) (*encuestas.FetchResult, error)
	SubmitAnswers(ctx context.Context, entryID string, answers []encuestas.Answer) (*encuestas.SubmitResult, error)
}

// AnswerExtractor produces raw answers from an image or a transcript.
type AnswerExtractor interface {
	FromImage(ctx context.Context, img llm.Image, tpl *encuestas.Template) ([]reconcile.ExtractedAnswer, error)
	FromTranscript(ctx context.Context, transcript string, tpl *encuestas.Template) ([]reconcile.ExtractedAnswer, error)
}

// Transcriber converts audio to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, filename string) (string, error)
}

// Result is the outcome of one pipeline run. Step names the stage that
// produced the failure when Success is false; on success it is always
// the submit stage. A submit that went through but was rejected by the
// survey service still counts as a completed run, with the rejection
// captured in Submit.
type Result struct {
	Success       bool                    `json:"success"`
	Step          string                  `json:"step"`
	EntryID       string                  `json:"entregaId,omitempty"`
	QR            *qr.Detection           `json:"qr,omitempty"`
	Survey        *encuestas.Survey       `json:"encuesta,omitempty"`
	Transcript    string                  `json:"transcript,omitempty"`
	ResponsesSent []encuestas.Answer      `json:"respuestasEnviadas,omitempty"`
	Dropped       []reconcile.Decision    `json:"descartadas,omitempty"`
	Submit        *encuestas.SubmitResult `json:"envio,omitempty"`
	Err           string                  `json:"error,omitempty"`
}

func failure(step string, err error) *Result {
	return &Result{Step: step, Err: err.Error()}
}

// Runner wires the pipeline stages together.
type Runner struct {
	decoder     qr.Decoder
	service     SurveyService
	extractor   AnswerExtractor
	transcriber Transcriber
	log         *zap.Logger
}

// NewRunner builds a Runner. The transcriber may be nil when audio
// processing is not configured; a nil logger is replaced with a no-op
// one.
func NewRunner(decoder qr.Decoder, service SurveyService, extractor AnswerExtractor, transcriber Transcriber, log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{
		decoder:     decoder,
		service:     service,
		extractor:   extractor,
		transcriber: transcriber,
		log:         log,
	}
}

// ProcessImage runs the full flow on a survey photo: the delivery ID
// comes from a QR in the image itself.
func (r *Runner) ProcessImage(ctx context.Context, imageData []byte, mime string) *Result {
	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return failure(StepQRScan, fmt.Errorf("decoding image: %w", err))
	}

	det, err := qr.Scan(r.decoder, img)
	if err != nil {
		if errors.Is(err, qr.ErrNoEntryID) {
			return failure(StepQRScan, errors.New("no delivery QR found in image"))
		}
		return failure(StepQRScan, err)
	}
	r.log.Info("delivery qr detected",
		zap.String("entrega_id", det.EntryID),
		zap.String("confidence", det.Confidence))

	res := r.processImageFrom(ctx, det.EntryID, imageData, mime)
	res.QR = det
	return res
}

// ProcessImageWithEntryID skips QR scanning and trusts the caller's
// delivery ID, for clients that already scanned the QR on-device.
func (r *Runner) ProcessImageWithEntryID(ctx context.Context, entryID string, imageData []byte, mime string) *Result {
	return r.processImageFrom(ctx, entryID, imageData, mime)
}

func (r *Runner) processImageFrom(ctx context.Context, entryID string, imageData []byte, mime string) *Result {
	tpl, res := r.fetchTemplate(ctx, entryID)
	if res != nil {
		return res
	}

	answers, err := r.extractor.FromImage(ctx, llm.Image{MIME: mime, Data: imageData}, tpl)
	if err != nil {
		return r.fail(entryID, StepAIExtraction, err)
	}

	return r.reconcileAndSubmit(ctx, tpl, answers, "")
}

// ProcessAudio transcribes spoken answers and runs them through the
// same reconcile-and-submit flow. Audio carries no QR, so the delivery
// ID always comes from the caller.
func (r *Runner) ProcessAudio(ctx context.Context, entryID string, audio []byte, filename string) *Result {
	if r.transcriber == nil {
		return r.fail(entryID, StepAIExtraction, errors.New("audio processing not configured"))
	}

	tpl, res := r.fetchTemplate(ctx, entryID)
	if res != nil {
		return res
	}

	transcript, err := r.transcriber.Transcribe(ctx, audio, filename)
	if err != nil {
		return r.fail(entryID, StepAIExtraction, err)
	}
	r.log.Info("audio transcribed",
		zap.String("entrega_id", entryID),
		zap.Int("transcript_chars", len(transcript)))

	answers, err := r.extractor.FromTranscript(ctx, transcript, tpl)
	if err != nil {
		return r.fail(entryID, StepAIExtraction, err)
	}

	return r.reconcileAndSubmit(ctx, tpl, answers, transcript)
}

// Preview fetches and normalizes a template without touching the model
// or submitting anything.
func (r *Runner) Preview(ctx context.Context, entryID string) (*encuestas.Template, error) {
	raw, err := r.service.FetchTemplate(ctx, entryID)
	if err != nil {
		return nil, err
	}
	tpl := encuestas.Normalize(raw)
	if tpl == nil {
		return nil, fmt.Errorf("survey service returned no usable template for %s", entryID)
	}
	return tpl, nil
}

func (r *Runner) fetchTemplate(ctx context.Context, entryID string) (*encuestas.Template, *Result) {
	raw, err := r.service.FetchTemplate(ctx, entryID)
	if err != nil {
		return nil, r.fail(entryID, StepTemplateFetch, err)
	}
	tpl := encuestas.Normalize(raw)
	if tpl == nil {
		return nil, r.fail(entryID, StepTemplateFetch,
			fmt.Errorf("survey service returned no usable template for %s", entryID))
	}
	return tpl, nil
}

func (r *Runner) reconcileAndSubmit(ctx context.Context, tpl *encuestas.Template, answers []reconcile.ExtractedAnswer, transcript string) *Result {
	// Reconciliation never fails; an empty payload is submitted as-is
	// and the service's verdict comes back in the submit stage.
	payload, declog := reconcile.Reconcile(answers, tpl)

	res := &Result{
		Step:          StepSubmit,
		EntryID:       tpl.EntryID,
		Survey:        &tpl.Survey,
		Transcript:    transcript,
		ResponsesSent: payload,
		Dropped:       declog.Dropped(),
	}

	submit, err := r.service.SubmitAnswers(ctx, tpl.EntryID, payload)
	if err != nil {
		// Everything up to the submit stands; only this stage is marked
		// failed.
		res.Err = err.Error()
		r.log.Warn("submission rejected",
			zap.String("entrega_id", tpl.EntryID),
			zap.Error(err))
		return res
	}

	res.Success = true
	res.Submit = submit
	r.log.Info("survey submitted",
		zap.String("entrega_id", tpl.EntryID),
		zap.Int("respuestas", len(payload)),
		zap.Int("descartadas", len(res.Dropped)))
	return res
}

func (r *Runner) fail(entryID, step string, err error) *Result {
	r.log.Warn("pipeline step failed",
		zap.String("entrega_id", entryID),
		zap.String("step", step),
		zap.Error(err))
	res := failure(step, err)
	res.EntryID = entryID
	return res
}
