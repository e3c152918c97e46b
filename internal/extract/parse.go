package extract

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ziadkadry99/survey-scan/internal/reconcile"
)

type answersEnvelope struct {
	Respuestas json.RawMessage `json:"respuestas"`
}

// parseAnswers reads a model reply into extracted answers. Models wrap
// JSON in markdown fences or prose often enough that we slice out the
// outermost JSON value before decoding. Both the documented envelope
// and a bare array are accepted. The envelope branch only applies when
// the object actually carries a respuestas key: a bare array of answer
// objects would otherwise decode as an empty envelope and lose every
// answer.
func parseAnswers(content string) ([]reconcile.ExtractedAnswer, error) {
	cleaned := stripFences(content)

	if s := sliceJSON(cleaned, '{', '}'); s != "" {
		var env answersEnvelope
		if err := json.Unmarshal([]byte(s), &env); err == nil && env.Respuestas != nil {
			var answers []reconcile.ExtractedAnswer
			if err := json.Unmarshal(env.Respuestas, &answers); err == nil {
				return answers, nil
			}
		}
	}
	if s := sliceJSON(cleaned, '[', ']'); s != "" {
		var answers []reconcile.ExtractedAnswer
		if err := json.Unmarshal([]byte(s), &answers); err == nil {
			return answers, nil
		}
	}
	return nil, fmt.Errorf("no parseable answer JSON in model reply (%d bytes)", len(content))
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```json"); i >= 0 {
		s = s[i+len("```json"):]
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	} else {
		s = strings.ReplaceAll(s, "```", "")
	}
	return strings.TrimSpace(s)
}

func sliceJSON(s string, opening, closing byte) string {
	i := strings.IndexByte(s, opening)
	j := strings.LastIndexByte(s, closing)
	if i < 0 || j <= i {
		return ""
	}
	return s[i : j+1]
}
