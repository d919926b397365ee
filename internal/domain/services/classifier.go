package services

import "context"

// LabelScore is a single label/probability pair returned by a sentiment
// classifier.
type LabelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// SentimentClassifier scores text sentiment via an external model. The text
// analyzer blends the negative-sentiment probability into its risk score
// when a classifier is available and falls back to the keyword method on any
// error.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) ([]LabelScore, error)
}
