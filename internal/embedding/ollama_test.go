package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
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
	if provider.batchSize != DefaultBatchSize {
		t.Errorf("batchSize = %d, want %d", provider.batchSize, DefaultBatchSize)
	}
	if provider.client == nil {
		t.Error("client should not be nil")
	}
	if provider.limiter == nil {
		t.Error("limiter should not be nil")
	}
}

func TestNewOllamaProvider_WithOptions(t *testing.T) {
	customURL := "http://custom:8080"
	customModel := "custom-model"
	customDimensions := 300
	customTimeout := 60 * time.Second

	provider := NewOllamaProvider(
		WithBaseURL(customURL),
		WithModel(customModel),
		WithDimensions(customDimensions),
		WithTimeout(customTimeout),
		WithBatchSize(8),
		WithMaxRetries(1),
	)

	if provider.baseURL != customURL {
		t.Errorf("baseURL = %s, want %s", provider.baseURL, customURL)
	}
	if provider.ModelName() != customModel {
		t.Errorf("ModelName() = %s, want %s", provider.ModelName(), customModel)
	}
	if provider.Dimensions() != customDimensions {
		t.Errorf("Dimensions() = %d, want %d", provider.Dimensions(), customDimensions)
	}
	if provider.client.Timeout != customTimeout {
		t.Errorf("timeout = %v, want %v", provider.client.Timeout, customTimeout)
	}
	if provider.batchSize != 8 {
		t.Errorf("batchSize = %d, want 8", provider.batchSize)
	}
	if provider.maxRetries != 1 {
		t.Errorf("maxRetries = %d, want 1", provider.maxRetries)
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

func newTestOllama(t *testing.T, handler http.HandlerFunc, opts ...OllamaOption) *OllamaProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	base := []OllamaOption{WithBaseURL(srv.URL), WithDimensions(3), WithRateLimit(0)}
	return NewOllamaProvider(append(base, opts...)...)
}

func TestOllamaProvider_Embed(t *testing.T) {
	provider := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != apiPathEmbeddings {
			t.Errorf("path = %s, want %s", r.URL.Path, apiPathEmbeddings)
		}
		var req ollamaEmbedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
			return
		}
		if req.Prompt != "Projekt" {
			t.Errorf("prompt = %q, want %q", req.Prompt, "Projekt")
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1, 0.2, 0.3}})
	})

	emb, err := provider.Embed(context.Background(), "Projekt")
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if emb.Dimensions() != 3 || emb.Vector[2] != 0.3 {
		t.Errorf("Embed() = %v, want [0.1 0.2 0.3]", emb.Vector)
	}
}

func TestOllamaProvider_EmbedDimensionMismatch(t *testing.T) {
	provider := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{0.1}})
	})

	if _, err := provider.Embed(context.Background(), "x"); err == nil {
		t.Error("Embed() expected dimension error, got nil")
	}
}

func TestOllamaProvider_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	provider := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "loading model", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(ollamaEmbedResponse{Embedding: []float32{1, 2, 3}})
	}, WithMaxRetries(2))

	if _, err := provider.Embed(context.Background(), "x"); err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("server called %d times, want 2", calls.Load())
	}
}

func TestOllamaProvider_DoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	provider := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "model not found", http.StatusNotFound)
	}, WithMaxRetries(3))

	_, err := provider.Embed(context.Background(), "x")
	if err == nil {
		t.Fatal("Embed() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "model not found") {
		t.Errorf("error = %v, want body in message", err)
	}
	if calls.Load() != 1 {
		t.Errorf("server called %d times, want 1", calls.Load())
	}
}

func TestOllamaProvider_EmbedBatch(t *testing.T) {
	var requests atomic.Int32
	provider := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.URL.Path != apiPathEmbed {
			t.Errorf("path = %s, want %s", r.URL.Path, apiPathEmbed)
		}
		var req ollamaBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
			return
		}
		resp := ollamaBatchResponse{}
		for _, in := range req.Input {
			resp.Embeddings = append(resp.Embeddings, []float32{float32(len(in)), 0, 0})
		}
		json.NewEncoder(w).Encode(resp)
	}, WithBatchSize(2))

	got, err := provider.EmbedBatch(context.Background(), []string{"a", "bb", "ccc"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("EmbedBatch() returned %d embeddings, want 3", len(got))
	}
	for i, want := range []float32{1, 2, 3} {
		if got[i].Vector[0] != want {
			t.Errorf("EmbedBatch()[%d][0] = %v, want %v", i, got[i].Vector[0], want)
		}
	}
	if requests.Load() != 2 {
		t.Errorf("requests = %d, want 2 (batch size 2)", requests.Load())
	}
}

func TestOllamaProvider_HasModel(t *testing.T) {
	provider := newTestOllama(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(ollamaTagsResponse{Models: []ollamaModel{{Name: DefaultModel + ":latest"}}})
	})

	ok, err := provider.HasModel(context.Background())
	if err != nil {
		t.Fatalf("HasModel() error = %v", err)
	}
	if !ok {
		t.Error("HasModel() = false, want true for :latest tag")
	}
	if err := provider.IsAvailable(context.Background()); err != nil {
		t.Errorf("IsAvailable() error = %v", err)
	}
}

func TestOllamaProvider_ImplementsBatchProvider(t *testing.T) {
	var _ BatchProvider = (*OllamaProvider)(nil)
}
