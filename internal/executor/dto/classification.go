package dto

// ClassificationPayload is one element of the JSON array the classifier answers with.
// The prompt asks for Spanish keys; English keys are accepted as well since the
// model occasionally translates them.
type ClassificationPayload struct {
	Titulo      string `json:"titulo"`
	Resumen     string `json:"resumen"`
	Sentimiento string `json:"sentimiento"`

	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Sentiment string `json:"sentiment"`
}

// TitleValue returns whichever title key was populated.
func (p ClassificationPayload) TitleValue() string {
	if p.Titulo != "" {
		return p.Titulo
	}
	return p.Title
}

// SummaryValue returns whichever summary key was populated.
func (p ClassificationPayload) SummaryValue() string {
	if p.Resumen != "" {
		return p.Resumen
	}
	return p.Summary
}

// SentimentValue returns whichever sentiment key was populated.
func (p ClassificationPayload) SentimentValue() string {
	if p.Sentimiento != "" {
		return p.Sentimiento
	}
	return p.Sentiment
}
