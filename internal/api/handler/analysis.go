package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shreyasbhat/talentlens/internal/api/response"
	"github.com/shreyasbhat/talentlens/internal/engine"
	"github.com/shreyasbhat/talentlens/internal/nlp"
	"github.com/shreyasbhat/talentlens/pkg/models"
)

const maxTopicsCeiling = 20

// Analyzer defines the interface the synchronous analysis handlers depend on.
type Analyzer interface {
	AnalyzeSentiment(ctx context.Context, text string) (models.Sentiment, error)
	ExtractTopics(text string, maxTopics int) []models.Topic
}

// NewAnalyzeSentimentHandler returns an http.HandlerFunc for
// POST /api/v1/analysis/sentiment. An optional numeric rating serves as a
// degraded answer when the model path is down; an unreachable model with no
// rating is still an error.
func NewAnalyzeSentimentHandler(svc Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text   string   `json:"text"`
			Rating *float64 `json:"rating,omitempty"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		result, err := svc.AnalyzeSentiment(r.Context(), req.Text)
		if err != nil {
			if modelUnavailable(err) && req.Rating != nil {
				response.JSON(w, engine.FallbackFromRating(*req.Rating))
				return
			}
			switch {
			case errors.Is(err, engine.ErrEmptyText):
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "text is required", nil)
			case errors.Is(err, nlp.ErrModelUnreachable), errors.Is(err, nlp.ErrModelNotLoaded):
				response.Error(w, http.StatusBadGateway, "MODEL_UNAVAILABLE",
					"The sentiment model is not available", nil)
			case errors.Is(err, nlp.ErrModelTimeout):
				response.Error(w, http.StatusGatewayTimeout, "MODEL_TIMEOUT",
					"Sentiment analysis took too long and was cancelled", nil)
			default:
				response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR",
					"An unexpected error occurred", nil)
			}
			return
		}

		response.JSON(w, result)
	}
}

func modelUnavailable(err error) bool {
	return errors.Is(err, nlp.ErrModelUnreachable) ||
		errors.Is(err, nlp.ErrModelNotLoaded) ||
		errors.Is(err, nlp.ErrModelTimeout)
}

// NewExtractTopicsHandler returns an http.HandlerFunc for
// POST /api/v1/analysis/topics.
func NewExtractTopicsHandler(svc Analyzer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text      string `json:"text"`
			MaxTopics int    `json:"max_topics"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Text == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "text is required", nil)
			return
		}
		if req.MaxTopics > maxTopicsCeiling {
			req.MaxTopics = maxTopicsCeiling
		}

		topics := svc.ExtractTopics(req.Text, req.MaxTopics)
		if topics == nil {
			topics = []models.Topic{}
		}

		response.JSON(w, map[string]any{"topics": topics})
	}
}
