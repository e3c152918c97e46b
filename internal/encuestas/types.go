// Package encuestas talks to the remote survey-data service and turns its
// raw payloads into normalized templates. The wire format keeps the
// service's Spanish field names; everything above this package works with
// the normalized types.
package encuestas

import "strings"

// RawSurvey is the survey metadata block as returned by the service.
type RawSurvey struct {
	ID          string `json:"id"`
	Nombre      string `json:"nombre"`
	Descripcion string `json:"descripcion"`
}

// RawType wraps the question type name.
type RawType struct {
	Nombre string `json:"nombre"`
}

// RawOption is one answer option as returned by the service.
type RawOption struct {
	ID    string `json:"id"`
	Texto string `json:"texto"`
	Valor string `json:"valor"`
}

// RawQuestion is one question as returned by the service. Tipo and
// Obligatorio are optional on the wire.
type RawQuestion struct {
	ID          string      `json:"id"`
	Texto       string      `json:"texto"`
	Orden       int         `json:"orden"`
	Obligatorio bool        `json:"obligatorio"`
	Tipo        *RawType    `json:"tipo"`
	Opciones    []RawOption `json:"opciones"`
}

// FetchResult is the raw template-fetch payload plus the success flag the
// normalizer keys off.
type FetchResult struct {
	Success   bool          `json:"success"`
	EntryID   string        `json:"entregaId"`
	Survey    RawSurvey     `json:"encuesta"`
	Questions []RawQuestion `json:"preguntas"`
}

// Survey is normalized survey metadata.
type Survey struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Option is a normalized answer option. IDs are unique within a question.
type Option struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Value string `json:"value"`
}

// Question is a normalized question. Order values are unique within a
// template and define the natural sequence; Options keep the service's
// ordering verbatim.
type Question struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Order    int      `json:"order"`
	Required bool     `json:"required"`
	Type     string   `json:"type"`
	Options  []Option `json:"options"`
}

// IsOpen reports whether the question takes free text instead of an
// option pick. The service uses "abierta" and "completar" for these.
func (q Question) IsOpen() bool {
	switch strings.ToLower(q.Type) {
	case "abierta", "completar":
		return true
	}
	return false
}

// Template is the normalized question/option structure for one entry,
// immutable once built.
type Template struct {
	EntryID   string     `json:"entry_id"`
	Survey    Survey     `json:"survey"`
	Questions []Question `json:"questions"`
}

// QuestionByID returns the question with the given id, or nil.
func (t *Template) QuestionByID(id string) *Question {
	for i := range t.Questions {
		if t.Questions[i].ID == id {
			return &t.Questions[i]
		}
	}
	return nil
}

// QuestionByOrder returns the question with the given order value, or nil.
func (t *Template) QuestionByOrder(order int) *Question {
	for i := range t.Questions {
		if t.Questions[i].Order == order {
			return &t.Questions[i]
		}
	}
	return nil
}

// Answer is one entry of the submission payload. Open questions carry
// Texto, choice questions carry OpcionID; never both.
type Answer struct {
	PreguntaID string `json:"preguntaId"`
	OpcionID   string `json:"opcionId,omitempty"`
	Texto      string `json:"texto,omitempty"`
}

// SubmitResult is the service's acknowledgement of a submission.
type SubmitResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	EntryID         string `json:"entregaId"`
	TotalRespuestas int    `json:"totalRespuestas"`
}
