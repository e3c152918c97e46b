package extract

import (
	"context"
	"strings"
	"testing"

	"github.com/ziadkadry99/survey-scan/internal/encuestas"
	"github.com/ziadkadry99/survey-scan/internal/llm"
)

type fakeProvider struct {
	reply    string
	err      error
	lastReq  llm.CompletionRequest
	numCalls int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.lastReq = req
	f.numCalls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.CompletionResponse{Content: f.reply, Model: req.Model}, nil
}

func sampleTemplate() *encuestas.Template {
	return &encuestas.Template{
		EntryID: "e-1",
		Questions: []encuestas.Question{
			{ID: "q1", Text: "Comentarios", Order: 1, Type: "abierta"},
			{ID: "q2", Text: "Color", Order: 2, Type: "seleccion", Options: []encuestas.Option{
				{ID: "o1", Text: "Rojo"},
				{ID: "o2", Text: "Azul"},
			}},
		},
	}
}

func TestFromImage(t *testing.T) {
	fake := &fakeProvider{reply: "```json\n" +
		`{"respuestas":[{"orden":1,"respuesta":"hola"},{"orden":2,"respuesta":"Azul"}]}` +
		"\n```"}
	ex := New(fake, "test-model", nil)

	img := llm.Image{MIME: "image/jpeg", Data: []byte{0xff, 0xd8}}
	answers, err := ex.FromImage(context.Background(), img, sampleTemplate())
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %+v", answers)
	}
	if answers[0].Order == nil || *answers[0].Order != 1 || answers[0].Answer.String() != "hola" {
		t.Errorf("first answer wrong: %+v", answers[0])
	}

	if len(fake.lastReq.Images) != 1 {
		t.Errorf("image should be attached to the request")
	}
	if !fake.lastReq.JSONMode {
		t.Errorf("survey extraction should request JSON mode")
	}
	if !strings.Contains(fake.lastReq.Messages[0].Content, "Comentarios") {
		t.Errorf("prompt should list the questions")
	}
}

func TestFromTranscript(t *testing.T) {
	fake := &fakeProvider{reply: `{"respuestas":[{"pregunta_id":"q2","respuesta":"rojo"},{"pregunta_id":"q1","respuesta":null}]}`}
	ex := New(fake, "test-model", nil)

	answers, err := ex.FromTranscript(context.Background(), "me gusta el rojo", sampleTemplate())
	if err != nil {
		t.Fatalf("FromTranscript: %v", err)
	}
	if len(answers) != 2 {
		t.Fatalf("expected 2 answers, got %+v", answers)
	}
	if answers[0].QuestionID != "q2" || answers[0].Answer.String() != "rojo" {
		t.Errorf("first answer wrong: %+v", answers[0])
	}
	if !answers[1].Answer.Empty() {
		t.Errorf("null answer should be empty")
	}
	if strings.Contains(fake.lastReq.Messages[0].Content, "me gusta el rojo") == false {
		t.Errorf("prompt should include the transcript")
	}
	if len(fake.lastReq.Images) != 0 {
		t.Errorf("transcript extraction sends no images")
	}
}

func TestTextAndHandwriting(t *testing.T) {
	fake := &fakeProvider{reply: "  lo escrito  "}
	ex := New(fake, "test-model", nil)
	img := llm.Image{MIME: "image/png", Data: []byte{1}}

	got, err := ex.Text(context.Background(), img)
	if err != nil || got != "lo escrito" {
		t.Fatalf("Text: %q, %v", got, err)
	}
	got, err = ex.Handwriting(context.Background(), img)
	if err != nil || got != "lo escrito" {
		t.Fatalf("Handwriting: %q, %v", got, err)
	}
	if fake.lastReq.JSONMode {
		t.Errorf("plain text extraction should not request JSON mode")
	}
}

func TestStructure(t *testing.T) {
	fake := &fakeProvider{reply: "Aquí está:\n```json\n" +
		`{"titulo":"Encuesta","preguntas":[{"numero":1,"texto":"Color","tipo":"opcion_multiple","respuesta_detectada":"Azul"}]}` +
		"\n```"}
	ex := New(fake, "test-model", nil)

	st, err := ex.Structure(context.Background(), llm.Image{MIME: "image/jpeg", Data: []byte{1}})
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if st.Titulo != "Encuesta" || len(st.Preguntas) != 1 || st.Preguntas[0].Tipo != "opcion_multiple" {
		t.Errorf("got %+v", st)
	}
}

func TestParseAnswers(t *testing.T) {
	cases := []struct {
		name    string
		in      string
		wantN   int
		wantErr bool
	}{
		{"envelope", `{"respuestas":[{"orden":1,"respuesta":"a"}]}`, 1, false},
		{"bare array", `[{"pregunta_id":"q","respuesta":"a"}]`, 1, false},
		{"bare array of objects keeps every answer", `[{"orden":1,"respuesta":"a"},{"orden":2,"respuesta":"b"}]`, 2, false},
		{"fenced", "```json\n{\"respuestas\":[]}\n```", 0, false},
		{"fenced bare array", "```json\n[{\"pregunta_id\":\"q\",\"respuesta\":\"a\"}]\n```", 1, false},
		{"prose around json", `Claro: {"respuestas":[{"orden":2,"respuesta":3}]} espero que sirva`, 1, false},
		{"object without respuestas", `{"resultado":"ok"}`, 0, true},
		{"garbage", "no pude leer la imagen", 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseAnswers(tc.in)
			if tc.wantErr != (err != nil) {
				t.Fatalf("err = %v, wantErr %v", err, tc.wantErr)
			}
			if !tc.wantErr && len(got) != tc.wantN {
				t.Errorf("got %d answers, want %d", len(got), tc.wantN)
			}
		})
	}
}
