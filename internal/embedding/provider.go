package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/tieup-bill-verifier/internal/domain"
)

// Provider calls the embedding inference server over HTTP. Requests are
// rate limited and bounded by the client timeout.
type Provider struct {
	baseURL    string
	model      string
	httpClient *http.Client
	rateLimit  *rate.Limiter
}

// ProviderConfig configures the embedding provider client.
type ProviderConfig struct {
	BaseURL   string        `json:"base_url"`
	Model     string        `json:"model"`
	Timeout   time.Duration `json:"timeout"`
	RateLimit int           `json:"rate_limit"` // requests per second
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// NewProvider creates an embedding provider client.
func NewProvider(config ProviderConfig) *Provider {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8090"
	}
	if config.Model == "" {
		config.Model = "bge-base-en-v1.5"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.RateLimit == 0 {
		config.RateLimit = 20
	}

	return &Provider{
		baseURL: config.BaseURL,
		model:   config.Model,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}
}

// Embed returns one vector per input text, in input order. Transport and
// server failures surface as UnavailableError so callers can distinguish
// a degraded provider from malformed output.
func (p *Provider) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, domain.ErrEmptyInput
	}

	if err := p.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait failed: %w", err)
	}

	payload, err := json.Marshal(embedRequest{Model: p.model, Input: texts})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/embed", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, domain.NewUnavailable("embedding", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, domain.NewUnavailable("embedding",
			fmt.Errorf("embedding server returned status %d: %s", resp.StatusCode, string(body)))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, domain.NewUnavailable("embedding", err)
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, domain.NewParseError("embedding", err.Error())
	}
	if len(parsed.Embeddings) != len(texts) {
		return nil, domain.NewParseError("embedding",
			fmt.Sprintf("requested %d embeddings, got %d", len(texts), len(parsed.Embeddings)))
	}

	return parsed.Embeddings, nil
}
