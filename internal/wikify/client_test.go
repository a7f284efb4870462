package wikify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
)

// annotations maps words to article ids; the fake service links every word
// it knows.
var annotations = map[string]int64{
	"Klimawandel": 100,
	"Hitzewelle":  200,
	"Fußball":     300,
}

func fakeService(t *testing.T, tokenField string, scoreField string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
			return
		}
		if r.Form.Get(tokenField) != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.Form.Get("lang") != "de" {
			t.Errorf("lang = %q", r.Form.Get("lang"))
		}
		var anns []map[string]any
		for _, word := range strings.Fields(r.Form.Get("text")) {
			word = strings.Trim(word, ".,")
			if id, ok := annotations[word]; ok {
				anns = append(anns, map[string]any{
					"id":       id,
					"title":    word,
					"spot":     word,
					scoreField: 0.5,
				})
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"annotations": anns})
	}))
}

func TestNewClientErrors(t *testing.T) {
	if _, err := NewClient("wikidata", "x"); !errors.Is(err, ErrUnknownService) {
		t.Errorf("unknown service error = %v", err)
	}
	_, err := NewClient(TagMe, "")
	if !errors.Is(err, ErrMissingToken) || !IsAuthError(err) {
		t.Errorf("missing token error = %v", err)
	}
}

func TestAnnotate(t *testing.T) {
	tests := []struct {
		service    Service
		tokenField string
		scoreField string
	}{
		{TagMe, "gcube-token", "rho"},
		{Dandelion, "token", "confidence"},
	}
	for _, tt := range tests {
		t.Run(string(tt.service), func(t *testing.T) {
			srv := fakeService(t, tt.tokenField, tt.scoreField)
			defer srv.Close()

			c, err := NewClient(tt.service, "secret", WithBaseURL(srv.URL), WithRateLimit(0))
			if err != nil {
				t.Fatalf("NewClient() error = %v", err)
			}
			anns, err := c.Annotate(context.Background(), "Der Klimawandel bringt jede Hitzewelle.")
			if err != nil {
				t.Fatalf("Annotate() error = %v", err)
			}
			if len(anns) != 2 {
				t.Fatalf("got %d annotations, want 2", len(anns))
			}
			if anns[0].ID != 100 || anns[0].Score != 0.5 || anns[1].Title != "Hitzewelle" {
				t.Errorf("annotations = %+v", anns)
			}
		})
	}
}

func TestAnnotateMinScore(t *testing.T) {
	srv := fakeService(t, "gcube-token", "rho")
	defer srv.Close()

	c, err := NewClient(TagMe, "secret", WithBaseURL(srv.URL), WithRateLimit(0), WithMinScore(0.6))
	if err != nil {
		t.Fatal(err)
	}
	anns, err := c.Annotate(context.Background(), "Klimawandel")
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}
	if len(anns) != 0 {
		t.Errorf("annotations below min score kept: %+v", anns)
	}
}

func TestAnnotateEmptyTextSkipsRequest(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c, _ := NewClient(TagMe, "secret", WithBaseURL(srv.URL), WithRateLimit(0))
	anns, err := c.Annotate(context.Background(), "   ")
	if err != nil || anns != nil {
		t.Errorf("Annotate(blank) = %v, %v", anns, err)
	}
	if calls.Load() != 0 {
		t.Errorf("server called %d times", calls.Load())
	}
}

func TestAnnotateAuthError(t *testing.T) {
	srv := fakeService(t, "gcube-token", "rho")
	defer srv.Close()

	c, _ := NewClient(TagMe, "wrong", WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := c.Annotate(context.Background(), "Klimawandel")
	if !IsAuthError(err) {
		t.Errorf("error = %v, want auth error", err)
	}
}

func TestAnnotateRetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"annotations":[{"id":7,"title":"X","rho":0.9}]}`))
	}))
	defer srv.Close()

	c, _ := NewClient(TagMe, "secret", WithBaseURL(srv.URL), WithRateLimit(0), WithMaxRetries(2))
	anns, err := c.Annotate(context.Background(), "Text")
	if err != nil {
		t.Fatalf("Annotate() error = %v", err)
	}
	if len(anns) != 1 || anns[0].ID != 7 {
		t.Errorf("annotations = %+v", anns)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestAnnotateServerErrorGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "broken", http.StatusBadRequest)
	}))
	defer srv.Close()

	c, _ := NewClient(Dandelion, "secret", WithBaseURL(srv.URL), WithRateLimit(0))
	_, err := c.Annotate(context.Background(), "Text")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest || apiErr.Message != "broken" {
		t.Errorf("error = %v, want APIError 400", err)
	}
	if calls.Load() != 1 {
		t.Errorf("client errors must not be retried, calls = %d", calls.Load())
	}
}

func TestScoreAndArticleScorer(t *testing.T) {
	srv := fakeService(t, "gcube-token", "rho")
	defer srv.Close()
	c, _ := NewClient(TagMe, "secret", WithBaseURL(srv.URL), WithRateLimit(0))
	ctx := context.Background()

	ids, err := c.ArticleIDs(ctx, "Klimawandel und Hitzewelle")
	if err != nil {
		t.Fatalf("ArticleIDs() error = %v", err)
	}
	if !reflect.DeepEqual(ids, map[int64]bool{100: true, 200: true}) {
		t.Errorf("ArticleIDs() = %v", ids)
	}

	n, err := c.Score(ctx, "Die Hitzewelle und der Fußball.", ids)
	if err != nil || n != 1 {
		t.Errorf("Score() = %d, %v, want 1", n, err)
	}

	scorer, err := NewArticleScorer(ctx, c, "Klimawandel und Hitzewelle")
	if err != nil {
		t.Fatalf("NewArticleScorer() error = %v", err)
	}
	if scorer.Articles() != 2 {
		t.Errorf("Articles() = %d", scorer.Articles())
	}
	scores, err := scorer.Score(ctx, []string{"Klimawandel und Hitzewelle.", "Nur Fußball.", "Nichts."})
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if !reflect.DeepEqual(scores, []float64{2, 0, 0}) {
		t.Errorf("scores = %v", scores)
	}
}
