package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultHFURL is the Hugging Face inference router base URL.
	DefaultHFURL = "https://router.huggingface.co/hf-inference/models"

	// DefaultHFModel is the remote counterpart of the local all-minilm model.
	DefaultHFModel = "sentence-transformers/all-MiniLM-L6-v2"

	// HFRateLimit caps requests per second against the inference API.
	HFRateLimit = 5.0

	hfPipelinePath = "/pipeline/feature-extraction"
)

// HFTokenFromEnv returns the inference token from HF_API_TOKEN or HUGGINGFACE_TOKEN.
func HFTokenFromEnv() string {
	if t := os.Getenv("HF_API_TOKEN"); t != "" {
		return t
	}
	return os.Getenv("HUGGINGFACE_TOKEN")
}

// HFProvider generates embeddings with the remote Hugging Face inference API.
type HFProvider struct {
	baseURL    string
	model      string
	token      string
	dimensions int
	client     *http.Client
	limiter    *rate.Limiter
}

// HFOption configures an HFProvider.
type HFOption func(*HFProvider)

// WithHFBaseURL sets a custom base URL (for testing).
func WithHFBaseURL(url string) HFOption {
	return func(p *HFProvider) {
		p.baseURL = url
	}
}

// WithHFModel sets the remote model id.
func WithHFModel(model string) HFOption {
	return func(p *HFProvider) {
		p.model = model
	}
}

// WithHFDimensions sets the expected vector dimensions.
func WithHFDimensions(dims int) HFOption {
	return func(p *HFProvider) {
		p.dimensions = dims
	}
}

// WithHFRateLimit overrides the request rate.
func WithHFRateLimit(perSecond float64) HFOption {
	return func(p *HFProvider) {
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
	}
}

// NewHFProvider creates a remote provider authenticated by token.
func NewHFProvider(token string, opts ...HFOption) *HFProvider {
	p := &HFProvider{
		baseURL:    DefaultHFURL,
		model:      DefaultHFModel,
		token:      token,
		dimensions: DefaultDimensions,
		client:     &http.Client{Timeout: 2 * time.Minute},
		limiter:    rate.NewLimiter(rate.Limit(HFRateLimit), 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Embed sends all texts in one feature-extraction call. Any failure fails the
// whole call; retries are left to the caller.
func (p *HFProvider) Embed(ctx context.Context, texts []string) ([]Embedding, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if p.token == "" {
		return nil, &APIError{Backend: "huggingface", StatusCode: http.StatusUnauthorized, Message: "no API token configured"}
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(hfRequest{Inputs: texts})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := p.baseURL + "/" + p.model + hfPipelinePath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{Backend: "huggingface", StatusCode: resp.StatusCode, Message: formatErrorBody(resp.Body)}
	}

	var vectors [][]float32
	if err := json.NewDecoder(resp.Body).Decode(&vectors); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	return toEmbeddings(vectors, len(texts), p.dimensions)
}

// ModelName returns the remote model id.
func (p *HFProvider) ModelName() string {
	return p.model
}

// Dimensions returns the expected vector dimensions.
func (p *HFProvider) Dimensions() int {
	return p.dimensions
}

// hfRequest is the request body for the feature-extraction pipeline.
type hfRequest struct {
	Inputs []string `json:"inputs"`
}
