package mock

import (
	"context"
	"strings"
	"sync/atomic"

	"github.com/shreyasbhat/talentlens/pkg/models"
)

// Model satisfies models.SentimentModel for testing. Call counts are tracked
// atomically so tests can assert on cache behavior.
type Model struct {
	Name_        string
	ClassifyFunc func(ctx context.Context, text string) (models.RawSentiment, error)
	LoadFunc     func(ctx context.Context) error

	classifyCalls atomic.Int64
	loadCalls     atomic.Int64
}

func (m *Model) Name() string { return m.Name_ }

func (m *Model) Classify(ctx context.Context, text string) (models.RawSentiment, error) {
	m.classifyCalls.Add(1)
	if m.ClassifyFunc != nil {
		return m.ClassifyFunc(ctx, text)
	}
	return models.RawSentiment{}, nil
}

func (m *Model) Load(ctx context.Context) error {
	m.loadCalls.Add(1)
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return nil
}

// ClassifyCalls returns how many times Classify was invoked.
func (m *Model) ClassifyCalls() int { return int(m.classifyCalls.Load()) }

// LoadCalls returns how many times Load was invoked.
func (m *Model) LoadCalls() int { return int(m.loadCalls.Load()) }

// NewModel returns a Model with a keyword-based default response: texts
// containing obviously positive words classify POSITIVE, obviously negative
// words NEGATIVE, everything else NEUTRAL.
func NewModel() *Model {
	return &Model{
		Name_: "mock",
		ClassifyFunc: func(_ context.Context, text string) (models.RawSentiment, error) {
			lower := strings.ToLower(text)
			switch {
			case strings.Contains(lower, "great") || strings.Contains(lower, "excellent") ||
				strings.Contains(lower, "support") || strings.Contains(lower, "good"):
				return models.RawSentiment{Label: "POSITIVE", Score: 0.95}, nil
			case strings.Contains(lower, "bad") || strings.Contains(lower, "terrible") ||
				strings.Contains(lower, "unfair") || strings.Contains(lower, "poor"):
				return models.RawSentiment{Label: "NEGATIVE", Score: 0.9}, nil
			default:
				return models.RawSentiment{Label: "NEUTRAL", Score: 0.6}, nil
			}
		},
	}
}

// NewFailingModel returns a Model whose Classify and Load always return err.
func NewFailingModel(err error) *Model {
	return &Model{
		Name_: "mock-failing",
		ClassifyFunc: func(_ context.Context, _ string) (models.RawSentiment, error) {
			return models.RawSentiment{}, err
		},
		LoadFunc: func(_ context.Context) error {
			return err
		},
	}
}

// Compile-time check that Model implements SentimentModel.
var _ models.SentimentModel = (*Model)(nil)
