// Package engine is the sentiment analysis engine: a rate limiter and a
// bounded content cache in front of the opaque NLP model, plus label
// normalization. One Engine is constructed at startup and shared by the
// worker and the synchronous API handlers.
package engine

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shreyasbhat/talentlens/internal/config"
	"github.com/shreyasbhat/talentlens/pkg/models"
)

// ErrEmptyText is returned for empty or whitespace-only input. Validation
// errors are rejected synchronously and never reach the model.
var ErrEmptyText = errors.New("text is empty")

// Engine mediates all access to the sentiment model.
type Engine struct {
	model   models.SentimentModel
	limiter *callLimiter
	cache   *lruCache

	loadMu sync.Mutex
	loaded bool
}

// New builds an Engine around a model. The pipeline is not initialized here;
// it loads lazily on first use, or eagerly via Warmup.
func New(model models.SentimentModel, cfg config.EngineConfig) *Engine {
	return &Engine{
		model:   model,
		limiter: newCallLimiter(cfg.MinCallInterval),
		cache:   newLRUCache(cfg.CacheSize),
	}
}

// ModelName returns the provenance tag written onto analyzed records.
func (e *Engine) ModelName() string {
	return e.model.Name()
}

// AnalyzeSentiment scores a text. Identical text never re-invokes the model
// while its result is cached; a cache hit returns the identical result.
func (e *Engine) AnalyzeSentiment(ctx context.Context, text string) (models.Sentiment, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return models.Sentiment{}, ErrEmptyText
	}

	key := contentKey(trimmed)
	if s, ok := e.cache.get(key); ok {
		return s, nil
	}

	if err := e.ensureLoaded(ctx); err != nil {
		return models.Sentiment{}, err
	}

	if err := e.limiter.wait(ctx); err != nil {
		return models.Sentiment{}, err
	}

	raw, err := e.model.Classify(ctx, trimmed)
	if err != nil {
		return models.Sentiment{}, fmt.Errorf("classify: %w", err)
	}

	s := Normalize(raw)
	e.cache.put(key, s)
	return s, nil
}

// ensureLoaded initializes the pipeline once for the process lifetime. A
// failed load is not latched, so the next caller retries.
func (e *Engine) ensureLoaded(ctx context.Context) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	if e.loaded {
		return nil
	}
	if err := e.model.Load(ctx); err != nil {
		return fmt.Errorf("load model pipeline: %w", err)
	}
	e.loaded = true
	return nil
}

// Normalize canonicalizes a raw model output. Labels containing "positive"
// keep the raw confidence as a positive score, "negative" negates it, and
// anything else scores zero with the label preserved in lowercase.
func Normalize(raw models.RawSentiment) models.Sentiment {
	label := strings.ToLower(raw.Label)
	score := 0.0
	switch {
	case strings.Contains(label, "positive"):
		score = clamp(raw.Score)
	case strings.Contains(label, "negative"):
		score = -clamp(raw.Score)
	}
	return models.Sentiment{Score: score, Label: label, Raw: raw}
}

// FallbackFromRating maps a numeric rating on a 5-point scale to a sentiment.
// Used only when the model path is unavailable and the record carries a
// rating: 4 and above reads Positive, exactly 3 Neutral, below 3 Negative.
func FallbackFromRating(rating float64) models.Sentiment {
	switch {
	case rating >= 4:
		return models.Sentiment{Score: 0.5, Label: "Positive"}
	case rating == 3:
		return models.Sentiment{Score: 0, Label: "Neutral"}
	default:
		return models.Sentiment{Score: -0.5, Label: "Negative"}
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// contentKey computes the content-addressed cache key for a text.
func contentKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%x", sum)
}
