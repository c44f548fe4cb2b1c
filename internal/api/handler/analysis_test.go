package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyasbhat/talentlens/internal/api/handler"
	"github.com/shreyasbhat/talentlens/internal/engine"
	"github.com/shreyasbhat/talentlens/internal/nlp"
	"github.com/shreyasbhat/talentlens/pkg/models"
)

type fakeAnalyzer struct {
	analyzeFunc func(ctx context.Context, text string) (models.Sentiment, error)
	topicsFunc  func(text string, maxTopics int) []models.Topic
}

func (f *fakeAnalyzer) AnalyzeSentiment(ctx context.Context, text string) (models.Sentiment, error) {
	return f.analyzeFunc(ctx, text)
}

func (f *fakeAnalyzer) ExtractTopics(text string, maxTopics int) []models.Topic {
	return f.topicsFunc(text, maxTopics)
}

var _ handler.Analyzer = (*fakeAnalyzer)(nil)

func TestAnalyzeSentiment_OK(t *testing.T) {
	svc := &fakeAnalyzer{
		analyzeFunc: func(_ context.Context, text string) (models.Sentiment, error) {
			assert.Equal(t, "great work", text)
			return models.Sentiment{
				Score: 0.95,
				Label: "positive",
				Raw:   models.RawSentiment{Label: "POSITIVE", Score: 0.95},
			}, nil
		},
	}

	h := handler.NewAnalyzeSentimentHandler(svc)
	w := postJSON(t, h, "/api/v1/analysis/sentiment", `{"text":"great work"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "positive", data["label"])
	assert.Equal(t, 0.95, data["score"])
}

func TestAnalyzeSentiment_InvalidBody(t *testing.T) {
	h := handler.NewAnalyzeSentimentHandler(&fakeAnalyzer{})
	w := postJSON(t, h, "/api/v1/analysis/sentiment", `nope`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalyzeSentiment_EmptyText(t *testing.T) {
	svc := &fakeAnalyzer{
		analyzeFunc: func(context.Context, string) (models.Sentiment, error) {
			return models.Sentiment{}, engine.ErrEmptyText
		},
	}

	h := handler.NewAnalyzeSentimentHandler(svc)
	w := postJSON(t, h, "/api/v1/analysis/sentiment", `{"text":""}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeError(t, w)["code"])
}

func TestAnalyzeSentiment_ModelUnreachable(t *testing.T) {
	svc := &fakeAnalyzer{
		analyzeFunc: func(context.Context, string) (models.Sentiment, error) {
			return models.Sentiment{}, nlp.ErrModelUnreachable
		},
	}

	h := handler.NewAnalyzeSentimentHandler(svc)
	w := postJSON(t, h, "/api/v1/analysis/sentiment", `{"text":"hello"}`)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, "MODEL_UNAVAILABLE", decodeError(t, w)["code"])
}

func TestAnalyzeSentiment_ModelTimeout(t *testing.T) {
	svc := &fakeAnalyzer{
		analyzeFunc: func(context.Context, string) (models.Sentiment, error) {
			return models.Sentiment{}, nlp.ErrModelTimeout
		},
	}

	h := handler.NewAnalyzeSentimentHandler(svc)
	w := postJSON(t, h, "/api/v1/analysis/sentiment", `{"text":"hello"}`)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, "MODEL_TIMEOUT", decodeError(t, w)["code"])
}

func TestAnalyzeSentiment_RatingFallbackWhenModelDown(t *testing.T) {
	svc := &fakeAnalyzer{
		analyzeFunc: func(context.Context, string) (models.Sentiment, error) {
			return models.Sentiment{}, nlp.ErrModelUnreachable
		},
	}

	h := handler.NewAnalyzeSentimentHandler(svc)
	w := postJSON(t, h, "/api/v1/analysis/sentiment", `{"text":"hello","rating":4.5}`)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "Positive", data["label"])
	assert.Equal(t, 0.5, data["score"])
}

func TestAnalyzeSentiment_RatingFallbackOnTimeout(t *testing.T) {
	svc := &fakeAnalyzer{
		analyzeFunc: func(context.Context, string) (models.Sentiment, error) {
			return models.Sentiment{}, nlp.ErrModelTimeout
		},
	}

	h := handler.NewAnalyzeSentimentHandler(svc)
	w := postJSON(t, h, "/api/v1/analysis/sentiment", `{"text":"hello","rating":2}`)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "Negative", data["label"])
}

func TestAnalyzeSentiment_RatingIgnoredWhenModelHealthy(t *testing.T) {
	svc := &fakeAnalyzer{
		analyzeFunc: func(context.Context, string) (models.Sentiment, error) {
			return models.Sentiment{Score: -0.8, Label: "negative"}, nil
		},
	}

	// The model answered, so the rating must not override it.
	h := handler.NewAnalyzeSentimentHandler(svc)
	w := postJSON(t, h, "/api/v1/analysis/sentiment", `{"text":"hello","rating":5}`)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	assert.Equal(t, "negative", data["label"])
}

func TestExtractTopics_OK(t *testing.T) {
	svc := &fakeAnalyzer{
		topicsFunc: func(text string, maxTopics int) []models.Topic {
			assert.Equal(t, 3, maxTopics)
			return []models.Topic{{Tag: "shift planning", Score: 4}}
		},
	}

	h := handler.NewExtractTopicsHandler(svc)
	w := postJSON(t, h, "/api/v1/analysis/topics", `{"text":"shift planning issues","max_topics":3}`)

	assert.Equal(t, http.StatusOK, w.Code)
	data := decodeData(t, w)
	topics := data["topics"].([]any)
	require.Len(t, topics, 1)
	first := topics[0].(map[string]any)
	assert.Equal(t, "shift planning", first["tag"])
}

func TestExtractTopics_EmptyText(t *testing.T) {
	h := handler.NewExtractTopicsHandler(&fakeAnalyzer{})
	w := postJSON(t, h, "/api/v1/analysis/topics", `{"text":""}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExtractTopics_ClampsMaxTopics(t *testing.T) {
	var got int
	svc := &fakeAnalyzer{
		topicsFunc: func(_ string, maxTopics int) []models.Topic {
			got = maxTopics
			return nil
		},
	}

	h := handler.NewExtractTopicsHandler(svc)
	w := postJSON(t, h, "/api/v1/analysis/topics", `{"text":"abc","max_topics":500}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, got)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	data := body["data"].(map[string]any)
	topics := data["topics"].([]any)
	assert.Empty(t, topics)
}
