package repository

import "fmt"

// SentimentSystemInstruction frames every classification call.
const SentimentSystemInstruction = "Eres un analista de sentimientos de noticias sobre finanzas y en base al sentimiento que predomina en la noticia, decir si esa noticia, puede o no afectar a las finanzas de un usuario"

const sentimentPromptTemplate = `Analiza el sentimiento de las siguientes noticias y devuelve la respuesta como una lista JSON.
Cada elemento debe tener el título, un resumen corto (si es posible),
y un campo 'sentimiento' que indique si es positivo o negativo. Absolutamente todo es en finanzas, pero solo dame el JSON,
no me devuelvas nada más de texto, solo el JSON con tu predicción, el cual debe contener titulo, resumen y el sentimiento que le determines (se preciso por favor).
Formato: [{"titulo": "...", "resumen": "...", "sentimiento": "positivo | negativo"}]
Titulo: %s
Resumen: %s`

// BuildSentimentPrompt embeds one news item into the classification prompt.
func BuildSentimentPrompt(title, description string) string {
	return fmt.Sprintf(sentimentPromptTemplate, title, description)
}
