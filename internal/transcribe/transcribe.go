// Package transcribe converts spoken survey answers to text with the
// Whisper API.
package transcribe

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// supportedExtensions are the formats Whisper accepts.
var supportedExtensions = []string{
	".mp3", ".mp4", ".mpeg", ".mpga", ".m4a", ".wav", ".webm", ".flac", ".ogg",
}

// whisperAPI is the slice of the OpenAI client the transcriber needs.
// Narrowed for tests.
type whisperAPI interface {
	CreateTranscription(ctx context.Context, req openai.AudioRequest) (openai.AudioResponse, error)
}

// Transcriber sends audio to Whisper and returns Spanish transcripts.
type Transcriber struct {
	client   whisperAPI
	maxBytes int64
	language string
}

// New builds a Transcriber from an API key. maxMB caps the accepted
// upload size; the Whisper service itself rejects files over 25 MB.
func New(apiKey string, maxMB int) *Transcriber {
	return newWithClient(openai.NewClient(apiKey), maxMB)
}

func newWithClient(client whisperAPI, maxMB int) *Transcriber {
	if maxMB <= 0 {
		maxMB = 25
	}
	return &Transcriber{
		client:   client,
		maxBytes: int64(maxMB) * 1024 * 1024,
		language: "es",
	}
}

// SupportedFormat reports whether the filename has an accepted audio
// extension.
func SupportedFormat(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range supportedExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// Formats returns the accepted extensions, without the leading dot.
func Formats() []string {
	out := make([]string, len(supportedExtensions))
	for i, e := range supportedExtensions {
		out[i] = strings.TrimPrefix(e, ".")
	}
	return out
}

// MaxBytes returns the configured upload cap.
func (t *Transcriber) MaxBytes() int64 { return t.maxBytes }

// Transcribe converts audio bytes to text. The filename matters: the
// API infers the container format from its extension.
func (t *Transcriber) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	if !SupportedFormat(filename) {
		return "", fmt.Errorf("unsupported audio format %q (accepted: %s)",
			filepath.Ext(filename), strings.Join(Formats(), ", "))
	}
	if int64(len(audio)) > t.maxBytes {
		return "", fmt.Errorf("audio file too large: %d bytes (limit %d)", len(audio), t.maxBytes)
	}
	if len(audio) == 0 {
		return "", fmt.Errorf("empty audio file")
	}

	resp, err := t.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    openai.Whisper1,
		Reader:   bytes.NewReader(audio),
		FilePath: filename,
		Language: t.language,
	})
	if err != nil {
		return "", fmt.Errorf("transcribing audio: %w", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
