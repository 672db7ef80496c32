package entity

import (
	"strings"
	"time"
)

// Sentiment is the label the classifier assigns to a news item.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
)

// ParseSentiment maps a classifier or stored label onto a Sentiment.
// Spanish labels are accepted because the classifier prompt is in Spanish.
func ParseSentiment(label string) (Sentiment, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "positive", "positivo", "positiva":
		return SentimentPositive, true
	case "negative", "negativo", "negativa":
		return SentimentNegative, true
	default:
		return "", false
	}
}

// NewsSentiment is a classified news item. Title is the deduplication key:
// at most one row per distinct title ever exists.
type NewsSentiment struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Title       string     `gorm:"type:text;uniqueIndex;not null" json:"title"`
	Summary     string     `gorm:"type:text" json:"summary"`
	URL         string     `gorm:"type:text" json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	SourceName  string     `gorm:"type:varchar(255)" json:"source_name"`
	Sentiment   Sentiment  `gorm:"type:varchar(16);not null" json:"sentiment"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for the NewsSentiment model.
func (NewsSentiment) TableName() string {
	return "news_sentiments"
}
