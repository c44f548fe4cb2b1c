// Package nlp wraps the external sentiment model server. The model itself is
// opaque: given text it returns a label and a confidence score. Model serving,
// training and weights live outside this repository.
package nlp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/shreyasbhat/talentlens/internal/config"
	"github.com/shreyasbhat/talentlens/pkg/models"
)

// Sentinel errors for model client failures.
var (
	ErrModelUnreachable = errors.New("model server unreachable")
	ErrModelError       = errors.New("model server error")
	ErrModelTimeout     = errors.New("model request timeout")
	ErrModelNotLoaded   = errors.New("model pipeline not loaded")
)

// HTTPModel implements models.SentimentModel against a transformer-serving
// HTTP endpoint. The server loads the pipeline on its /load endpoint, which
// is slow the first time; Classify assumes a loaded pipeline.
type HTTPModel struct {
	baseURL string
	name    string
	client  *http.Client
}

// NewHTTPModel creates a model client from config.
func NewHTTPModel(cfg config.ModelConfig) *HTTPModel {
	return &HTTPModel{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		name:    cfg.Name,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

func (m *HTTPModel) Name() string { return m.name }

// Load asks the server to download and initialize the pipeline. Idempotent on
// the server side; a second call on a loaded pipeline returns fast.
func (m *HTTPModel) Load(ctx context.Context) error {
	body, err := json.Marshal(map[string]string{"model": m.name})
	if err != nil {
		return fmt.Errorf("encoding load request: %w", err)
	}

	resp, err := m.post(ctx, "/v1/models/load", body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: load status %d", ErrModelError, resp.StatusCode)
	}
	return nil
}

func (m *HTTPModel) Classify(ctx context.Context, text string) (models.RawSentiment, error) {
	body, err := json.Marshal(map[string]string{"model": m.name, "text": text})
	if err != nil {
		return models.RawSentiment{}, fmt.Errorf("encoding classify request: %w", err)
	}

	resp, err := m.post(ctx, "/v1/sentiment", body)
	if err != nil {
		return models.RawSentiment{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return models.RawSentiment{}, ErrModelNotLoaded
	}
	if resp.StatusCode != http.StatusOK {
		return models.RawSentiment{}, fmt.Errorf("%w: status %d", ErrModelError, resp.StatusCode)
	}

	var raw models.RawSentiment
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return models.RawSentiment{}, fmt.Errorf("decoding model response: %w", err)
	}
	return raw, nil
}

func (m *HTTPModel) post(ctx context.Context, path string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+path, strings.NewReader(string(body)))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	return resp, nil
}

// classifyError maps transport errors onto the package sentinels.
func classifyError(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrModelTimeout, err)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrModelTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrModelUnreachable, err)
}

var _ models.SentimentModel = (*HTTPModel)(nil)
