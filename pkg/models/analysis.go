package models

import "context"

// SentimentModel is the core interface the analysis engine depends on. The
// underlying pipeline is treated as opaque: given text, return a raw label and
// confidence. Never call a concrete model client directly; always inject this.
type SentimentModel interface {
	// Classify scores a single piece of text. Implementations may block while
	// the pipeline initializes on first use.
	Classify(ctx context.Context, text string) (RawSentiment, error)
	// Load forces pipeline initialization ahead of the first Classify call.
	Load(ctx context.Context) error
	// Name returns the model identifier used as the analysis provenance tag.
	Name() string
}

// RawSentiment is the model's unnormalized output.
type RawSentiment struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Sentiment is the engine's canonical output: Score is in [-1, 1], positive
// labels map to +raw score, negative to -raw score, anything else to 0.
type Sentiment struct {
	Score float64      `json:"score"`
	Label string       `json:"label"`
	Raw   RawSentiment `json:"raw"`
}

// Topic is a ranked keyphrase extracted from a text.
type Topic struct {
	Tag   string  `json:"tag"`
	Score float64 `json:"score"`
}
