package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestOpenAI(t *testing.T, handler http.HandlerFunc, batch int) *OpenAIProvider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewOpenAIProvider(OpenAIConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL + "/v1",
		Model:      "text-embedding-3-small",
		Dimensions: 2,
		BatchSize:  batch,
	})
}

func TestOpenAIProvider_EmbedBatchOrdersByIndex(t *testing.T) {
	provider := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
			return
		}
		// Respond in reverse order; the provider must restore input order.
		data := make([]map[string]interface{}, 0, len(req.Input))
		for i := len(req.Input) - 1; i >= 0; i-- {
			data = append(data, map[string]interface{}{
				"object":    "embedding",
				"index":     i,
				"embedding": []float32{float32(len(req.Input[i])), 1},
			})
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object": "list",
			"data":   data,
			"model":  "text-embedding-3-small",
		})
	}, 2)

	got, err := provider.EmbedBatch(context.Background(), []string{"a", "bbb", "cc"})
	if err != nil {
		t.Fatalf("EmbedBatch() error = %v", err)
	}
	for i, want := range []float32{1, 3, 2} {
		if got[i].Vector[0] != want {
			t.Errorf("EmbedBatch()[%d][0] = %v, want %v", i, got[i].Vector[0], want)
		}
	}
}

func TestOpenAIProvider_ErrorWrapsErrProvider(t *testing.T) {
	provider := newTestOpenAI(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"detail": "model not supported"}`))
	}, 0)

	_, err := provider.Embed(context.Background(), "x")
	if err == nil {
		t.Fatal("Embed() expected error, got nil")
	}
	if !errors.Is(err, ErrProvider) {
		t.Errorf("Embed() error = %v, want wrapped ErrProvider", err)
	}
}

func TestExtractDetail(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"detail field", `{"detail": "bad input"}`, "bad input"},
		{"no detail", `{"error": "x"}`, ""},
		{"not json", `oops`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractDetail([]byte(tt.body)); got != tt.want {
				t.Errorf("extractDetail() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOpenAIProvider_ImplementsBatchProvider(t *testing.T) {
	var _ BatchProvider = (*OpenAIProvider)(nil)
}
