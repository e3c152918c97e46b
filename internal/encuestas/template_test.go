package encuestas

import "testing"

func sampleFetchResult() *FetchResult {
	return &FetchResult{
		Success: true,
		EntryID: "ent-1",
		Survey:  RawSurvey{ID: "s1", Nombre: "Clima laboral", Descripcion: "2026"},
		Questions: []RawQuestion{
			{
				ID: "q2", Texto: "Color favorito", Orden: 2, Obligatorio: true,
				Tipo: &RawType{Nombre: "opcion_multiple"},
				Opciones: []RawOption{
					{ID: "o1", Texto: "Rojo", Valor: "1"},
					{ID: "o2", Texto: "Azul", Valor: "2"},
				},
			},
			{ID: "q1", Texto: "Comentarios", Orden: 1, Tipo: &RawType{Nombre: "abierta"}},
		},
	}
}

func TestNormalize(t *testing.T) {
	tpl := Normalize(sampleFetchResult())
	if tpl == nil {
		t.Fatal("Normalize returned nil for successful result")
	}
	if tpl.EntryID != "ent-1" || tpl.Survey.Name != "Clima laboral" {
		t.Errorf("header = %+v", tpl)
	}
	if len(tpl.Questions) != 2 {
		t.Fatalf("got %d questions", len(tpl.Questions))
	}

	// Service ordering is preserved verbatim: q2 arrives first, stays first.
	if tpl.Questions[0].ID != "q2" || tpl.Questions[1].ID != "q1" {
		t.Errorf("question order changed: %s, %s", tpl.Questions[0].ID, tpl.Questions[1].ID)
	}
	if !tpl.Questions[0].Required {
		t.Error("q2 should be required")
	}
	if got := tpl.Questions[0].Options; len(got) != 2 || got[0].Text != "Rojo" || got[1].Text != "Azul" {
		t.Errorf("options = %+v", got)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	raw := &FetchResult{
		Success:   true,
		EntryID:   "ent-2",
		Questions: []RawQuestion{{ID: "q1", Texto: "¿?", Orden: 1}},
	}
	tpl := Normalize(raw)
	if tpl.Questions[0].Type != "" {
		t.Errorf("missing tipo should default to empty, got %q", tpl.Questions[0].Type)
	}
	if tpl.Questions[0].Required {
		t.Error("missing obligatorio should default to false")
	}
	if tpl.Questions[0].Options == nil || len(tpl.Questions[0].Options) != 0 {
		t.Errorf("options = %v", tpl.Questions[0].Options)
	}
}

func TestNormalizeFailedFetch(t *testing.T) {
	if Normalize(&FetchResult{Success: false}) != nil {
		t.Error("Normalize should return nil when success is false")
	}
	if Normalize(nil) != nil {
		t.Error("Normalize should return nil for nil input")
	}
}

func TestQuestionIsOpen(t *testing.T) {
	cases := map[string]bool{
		"abierta":         true,
		"Abierta":         true,
		"COMPLETAR":       true,
		"opcion_multiple": false,
		"numerica":        false,
		"":                false,
	}
	for typ, want := range cases {
		q := Question{Type: typ}
		if q.IsOpen() != want {
			t.Errorf("IsOpen(%q) = %v, want %v", typ, !want, want)
		}
	}
}

func TestTemplateLookups(t *testing.T) {
	tpl := Normalize(sampleFetchResult())

	if q := tpl.QuestionByID("q1"); q == nil || q.Text != "Comentarios" {
		t.Errorf("QuestionByID(q1) = %+v", q)
	}
	if q := tpl.QuestionByID("nope"); q != nil {
		t.Errorf("QuestionByID(nope) = %+v", q)
	}
	if q := tpl.QuestionByOrder(2); q == nil || q.ID != "q2" {
		t.Errorf("QuestionByOrder(2) = %+v", q)
	}
	if q := tpl.QuestionByOrder(99); q != nil {
		t.Errorf("QuestionByOrder(99) = %+v", q)
	}
}
