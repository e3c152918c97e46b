package encuestas

// Normalize converts a raw fetch result into a Template. Field mapping is
// one-to-one; a missing tipo becomes the empty string and a missing
// obligatorio defaults to false. Options keep the service's order, with no
// deduplication or reordering; callers that want questions
// sorted by Order must sort explicitly. Returns nil when the fetch did
// not succeed.
func Normalize(raw *FetchResult) *Template {
	if raw == nil || !raw.Success {
		return nil
	}

	tpl := &Template{
		EntryID: raw.EntryID,
		Survey: Survey{
			ID:          raw.Survey.ID,
			Name:        raw.Survey.Nombre,
			Description: raw.Survey.Descripcion,
		},
		Questions: make([]Question, 0, len(raw.Questions)),
	}

	for _, rq := range raw.Questions {
		q := Question{
			ID:       rq.ID,
			Text:     rq.Texto,
			Order:    rq.Orden,
			Required: rq.Obligatorio,
			Options:  make([]Option, 0, len(rq.Opciones)),
		}
		if rq.Tipo != nil {
			q.Type = rq.Tipo.Nombre
		}
		for _, ro := range rq.Opciones {
			q.Options = append(q.Options, Option{
				ID:    ro.ID,
				Text:  ro.Texto,
				Value: ro.Valor,
			})
		}
		tpl.Questions = append(tpl.Questions, q)
	}

	return tpl
}
