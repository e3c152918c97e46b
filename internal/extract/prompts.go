package extract

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/survey-scan/internal/encuestas"
)

const textPrompt = `Extrae todo el texto visible de esta imagen.
Ignora cualquier código QR. Responde solo con el texto extraído, sin comentarios.`

const handwritingPrompt = `Identifica y extrae SOLAMENTE el texto manuscrito de esta imagen.
Ignora el texto impreso.
Si hay múltiples campos de texto manuscrito, sepáralos claramente.
Responde solo con el texto manuscrito extraído.`

const structurePrompt = `Analiza esta imagen de formulario y identifica:
1. Título o encabezado principal
2. Preguntas, enumeradas
3. Tipo de respuesta de cada pregunta (texto libre, opción múltiple, checkbox)
4. Campos de respuesta escritos a mano

Responde en formato JSON:
{
  "titulo": "...",
  "preguntas": [
    {
      "numero": 1,
      "texto": "...",
      "tipo": "texto_abierto|opcion_multiple|checkbox",
      "respuesta_detectada": "..."
    }
  ]
}`

// buildImagePrompt asks the model to read a filled survey sheet and
// report one answer per question, keyed by the question's visual order.
func buildImagePrompt(tpl *encuestas.Template) string {
	var b strings.Builder
	b.WriteString("Lee esta foto de una encuesta llenada a mano. IGNORA cualquier código QR.\n\n")
	b.WriteString("PREGUNTAS DE LA ENCUESTA:\n")
	writeQuestions(&b, tpl.Questions)
	b.WriteString(`
INSTRUCCIONES:
1. Para cada pregunta, identifica la respuesta marcada o escrita en la imagen
2. Para preguntas con opciones: busca checkboxes marcados, círculos rellenos o texto subrayado, y reporta el texto de la opción elegida
3. Para preguntas abiertas: extrae el texto escrito a mano
4. Si una pregunta no tiene respuesta visible, usa null
5. NO incluyas información de códigos QR

Responde SOLO con JSON en este formato:
{"respuestas": [{"orden": 1, "respuesta": "..."}]}
`)
	return b.String()
}

// buildTranscriptPrompt maps a spoken-answer transcript onto the survey
// questions, keyed by exact question ID.
func buildTranscriptPrompt(transcript string, tpl *encuestas.Template) string {
	var b strings.Builder
	b.WriteString("Analiza el siguiente texto transcrito de un audio y mapéalo contra las preguntas de la encuesta.\n\n")
	fmt.Fprintf(&b, "TEXTO TRANSCRITO:\n%q\n\n", transcript)
	b.WriteString("PREGUNTAS DE LA ENCUESTA:\n")
	writeQuestions(&b, tpl.Questions)
	b.WriteString(`
INSTRUCCIONES:
1. Identifica en el texto la respuesta que corresponde a cada pregunta
2. Para preguntas con opciones, usa el texto de la opción mencionada
3. Para preguntas abiertas, extrae la respuesta textual relevante
4. Si no encuentras respuesta para una pregunta, usa null
5. IMPORTANTE: usa "pregunta_id" con el ID exacto de la pregunta

Responde SOLO con JSON en este formato:
{"respuestas": [{"pregunta_id": "...", "respuesta": "..."}]}
`)
	return b.String()
}

func writeQuestions(b *strings.Builder, questions []encuestas.Question) {
	for _, q := range questions {
		fmt.Fprintf(b, "%d. [id=%s] %s (%s", q.Order, q.ID, q.Text, q.Type)
		if q.Required {
			b.WriteString(", obligatoria")
		}
		b.WriteString(")\n")
		for _, opt := range q.Options {
			fmt.Fprintf(b, "   - %s\n", opt.Text)
		}
	}
}
