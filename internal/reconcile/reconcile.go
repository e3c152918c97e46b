package reconcile

import (
	"strings"

	"github.com/ziadkadry99/survey-scan/internal/encuestas"
)

// ExtractedAnswer is one answer as reported by an extraction model.
// Image extraction keys answers by visual order (orden); transcript
// extraction keys them by question ID. Either key may be present.
type ExtractedAnswer struct {
	QuestionID string `json:"pregunta_id,omitempty"`
	Order      *int   `json:"orden,omitempty"`
	Answer     Value  `json:"respuesta"`
}

// Decision records what happened to a single extracted answer item so
// callers can log or surface why something was dropped.
type Decision struct {
	QuestionID string `json:"questionId,omitempty"`
	Order      int    `json:"orden,omitempty"`
	MatchedBy  string `json:"matchedBy,omitempty"` // "pregunta_id" or "orden"
	Item       string `json:"item,omitempty"`
	Outcome    string `json:"outcome"` // "texto", "opcion", "skipped", "dropped"
	OptionID   string `json:"opcionId,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

// Log collects the per-item decisions of one Reconcile call.
type Log struct {
	Decisions []Decision
}

// Dropped returns the decisions that produced no payload entry.
func (l *Log) Dropped() []Decision {
	var out []Decision
	for _, d := range l.Decisions {
		if d.Outcome == "dropped" || d.Outcome == "skipped" {
			out = append(out, d)
		}
	}
	return out
}

func (l *Log) add(d Decision) {
	l.Decisions = append(l.Decisions, d)
}

// Reconcile maps extracted answers onto template questions and builds
// the answers to submit. Emission order follows the iteration order of
// the input, not the template. One extracted answer never aborts the
// others: unmatched questions and unmatched choice items are dropped
// and recorded in the log.
func Reconcile(answers []ExtractedAnswer, tpl *encuestas.Template) ([]encuestas.Answer, *Log) {
	out := make([]encuestas.Answer, 0, len(answers))
	log := &Log{}

	for _, ans := range answers {
		if ans.Answer.Empty() {
			log.add(Decision{
				QuestionID: ans.QuestionID,
				Order:      orderOf(ans),
				Outcome:    "skipped",
				Reason:     "empty answer",
			})
			continue
		}

		q, matchedBy := matchQuestion(ans, tpl)
		if q == nil {
			log.add(Decision{
				QuestionID: ans.QuestionID,
				Order:      orderOf(ans),
				Outcome:    "dropped",
				Reason:     "no matching question",
			})
			continue
		}

		if q.IsOpen() {
			out = append(out, encuestas.Answer{
				PreguntaID: q.ID,
				Texto:      ans.Answer.String(),
			})
			log.add(Decision{
				QuestionID: q.ID,
				MatchedBy:  matchedBy,
				Outcome:    "texto",
			})
			continue
		}

		for _, item := range ans.Answer.Items() {
			opt := matchOption(item, q.Options)
			if opt == nil {
				log.add(Decision{
					QuestionID: q.ID,
					MatchedBy:  matchedBy,
					Item:       item,
					Outcome:    "dropped",
					Reason:     "no matching option",
				})
				continue
			}
			out = append(out, encuestas.Answer{
				PreguntaID: q.ID,
				OpcionID:   opt.ID,
			})
			log.add(Decision{
				QuestionID: q.ID,
				MatchedBy:  matchedBy,
				Item:       item,
				Outcome:    "opcion",
				OptionID:   opt.ID,
			})
		}
	}

	return out, log
}

// matchQuestion resolves the template question for an extracted answer.
// A question ID that resolves always wins; an ID with no match in the
// template falls back to the visual-order key when one is present, the
// same way an answer without any ID does.
func matchQuestion(ans ExtractedAnswer, tpl *encuestas.Template) (*encuestas.Question, string) {
	if ans.QuestionID != "" {
		if q := tpl.QuestionByID(ans.QuestionID); q != nil {
			return q, "pregunta_id"
		}
	}
	if ans.Order != nil {
		if q := tpl.QuestionByOrder(*ans.Order); q != nil {
			return q, "orden"
		}
	}
	return nil, ""
}

// matchOption resolves one answer item against a question's options.
// Tried in order: exact option ID, all-digits 1-based position, and
// option text contained in the item. The first option that matches
// wins.
func matchOption(item string, options []encuestas.Option) *encuestas.Option {
	lowered := strings.ToLower(strings.TrimSpace(item))
	if lowered == "" {
		return nil
	}

	for i := range options {
		if strings.ToLower(options[i].ID) == lowered {
			return &options[i]
		}
	}

	if isDigits(lowered) {
		idx := 0
		for _, r := range lowered {
			idx = idx*10 + int(r-'0')
			if idx > len(options) {
				break
			}
		}
		if idx >= 1 && idx <= len(options) {
			return &options[idx-1]
		}
	}

	for i := range options {
		optText := strings.ToLower(strings.TrimSpace(options[i].Text))
		if optText != "" && strings.Contains(lowered, optText) {
			return &options[i]
		}
	}

	return nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func orderOf(ans ExtractedAnswer) int {
	if ans.Order != nil {
		return *ans.Order
	}
	return 0
}
