package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestNewOllamaProvider_Defaults(t *testing.T) {
	provider := NewOllamaProvider()

	if provider.baseURL != DefaultOllamaURL {
		t.Errorf("baseURL = %s, want %s", provider.baseURL, DefaultOllamaURL)
	}
	if provider.model != DefaultModel {
		t.Errorf("model = %s, want %s", provider.model, DefaultModel)
	}
	if provider.dimensions != DefaultDimensions {
		t.Errorf("dimensions = %d, want %d", provider.dimensions, DefaultDimensions)
	}
	if provider.client == nil {
		t.Error("client should not be nil")
	}
}

func TestNewOllamaProvider_WithOptions(t *testing.T) {
	customURL := "http://custom:8080"
	customModel := "custom-model"
	customDimensions := 768
	customTimeout := 60 * time.Second

	provider := NewOllamaProvider(
		WithBaseURL(customURL),
		WithModel(customModel),
		WithDimensions(customDimensions),
		WithTimeout(customTimeout),
	)

	if provider.baseURL != customURL {
		t.Errorf("baseURL = %s, want %s", provider.baseURL, customURL)
	}
	if provider.model != customModel {
		t.Errorf("model = %s, want %s", provider.model, customModel)
	}
	if provider.dimensions != customDimensions {
		t.Errorf("dimensions = %d, want %d", provider.dimensions, customDimensions)
	}
	if provider.client.Timeout != customTimeout {
		t.Errorf("timeout = %v, want %v", provider.client.Timeout, customTimeout)
	}
}

func TestOllamaProvider_ModelName(t *testing.T) {
	provider := NewOllamaProvider()
	if provider.ModelName() != DefaultModel {
		t.Errorf("ModelName() = %s, want %s", provider.ModelName(), DefaultModel)
	}

	customModel := "custom-model"
	provider2 := NewOllamaProvider(WithModel(customModel))
	if provider2.ModelName() != customModel {
		t.Errorf("ModelName() = %s, want %s", provider2.ModelName(), customModel)
	}
}

func TestOllamaProvider_Dimensions(t *testing.T) {
	provider := NewOllamaProvider()
	if provider.Dimensions() != DefaultDimensions {
		t.Errorf("Dimensions() = %d, want %d", provider.Dimensions(), DefaultDimensions)
	}

	customDimensions := 768
	provider2 := NewOllamaProvider(WithDimensions(customDimensions))
	if provider2.Dimensions() != customDimensions {
		t.Errorf("Dimensions() = %d, want %d", provider2.Dimensions(), customDimensions)
	}
}

func TestFormatErrorBody(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple error message",
			input:    "error occurred",
			expected: "error occurred",
		},
		{
			name:     "empty body",
			input:    "",
			expected: "",
		},
		{
			name:     "json error",
			input:    `{"error": "not found"}`,
			expected: `{"error": "not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatErrorBody(strings.NewReader(tt.input))
			if result != tt.expected {
				t.Errorf("formatErrorBody() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestOllamaProvider_ImplementsProvider(t *testing.T) {
	// Compile-time check that OllamaProvider implements Provider interface
	var _ Provider = (*OllamaProvider)(nil)
}

func newOllamaServer(t *testing.T, models []string, dims int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case apiPathTags:
			resp := ollamaTagsResponse{}
			for _, m := range models {
				resp.Models = append(resp.Models, ollamaModel{Name: m})
			}
			json.NewEncoder(w).Encode(resp)
		case apiPathEmbed:
			var req ollamaEmbedRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			resp := ollamaEmbedResponse{}
			for i := range req.Input {
				v := make([]float32, dims)
				v[i%dims] = float32(i + 2)
				v[(i+1)%dims] = 1
				resp.Embeddings = append(resp.Embeddings, v)
			}
			json.NewEncoder(w).Encode(resp)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestOllamaProvider_EmbedNormalizes(t *testing.T) {
	srv := newOllamaServer(t, []string{DefaultModel}, 4)
	provider := NewOllamaProvider(WithBaseURL(srv.URL), WithDimensions(4))

	embs, err := provider.Embed(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(embs) != 3 {
		t.Fatalf("got %d embeddings, want 3", len(embs))
	}
	for i, e := range embs {
		if n := Norm(e.Vector); math.Abs(n-1) > 1e-4 {
			t.Errorf("embedding %d norm = %v, want 1", i, n)
		}
	}
}

func TestOllamaProvider_EmbedDimensionMismatch(t *testing.T) {
	srv := newOllamaServer(t, []string{DefaultModel}, 3)
	provider := NewOllamaProvider(WithBaseURL(srv.URL), WithDimensions(4))

	_, err := provider.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("error = %v, want ErrDimensionMismatch", err)
	}
}

func TestOllamaProvider_EmbedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	provider := NewOllamaProvider(WithBaseURL(srv.URL))
	_, err := provider.Embed(context.Background(), []string{"a"})
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("error = %v, want ErrUnavailable", err)
	}
	if !strings.Contains(err.Error(), "model crashed") {
		t.Errorf("error should carry body, got %v", err)
	}
}

func TestOllamaProvider_Validate(t *testing.T) {
	t.Run("model present", func(t *testing.T) {
		srv := newOllamaServer(t, []string{"other", DefaultModel}, 4)
		if err := NewOllamaProvider(WithBaseURL(srv.URL)).Validate(context.Background()); err != nil {
			t.Errorf("Validate failed: %v", err)
		}
	})

	t.Run("model missing", func(t *testing.T) {
		srv := newOllamaServer(t, []string{"other"}, 4)
		err := NewOllamaProvider(WithBaseURL(srv.URL)).Validate(context.Background())
		if !errors.Is(err, ErrModelNotFound) {
			t.Errorf("error = %v, want ErrModelNotFound", err)
		}
	})

	t.Run("not running", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()
		err := NewOllamaProvider(WithBaseURL(url)).Validate(context.Background())
		if !errors.Is(err, ErrUnavailable) {
			t.Errorf("error = %v, want ErrUnavailable", err)
		}
	})
}
