package claims

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

const (
	// DefaultClaimLabel is the label sequence classifiers assign to class 1.
	DefaultClaimLabel = "LABEL_1"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit is the default request rate per second.
	DefaultRateLimit = 10.0

	// DefaultMaxRetries bounds retries of transient failures.
	DefaultMaxRetries = 3

	retryBase = 500 * time.Millisecond
)

var (
	// ErrNotConfigured indicates no classifier endpoint was configured.
	ErrNotConfigured = errors.New("claim classifier URL not configured")

	// ErrInvalidResponse indicates an unexpected classifier response.
	ErrInvalidResponse = errors.New("invalid response from claim classifier")
)

// APIError represents an error status from the classifier endpoint.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("claim classifier error (status %d): %s", e.StatusCode, e.Message)
}

// IsModelLoading reports whether the endpoint is still loading its model.
// Inference servers answer 503 while warming up.
func IsModelLoading(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable
}

// HTTPDetector calls a text-classification inference endpoint that accepts
// {"inputs": text} and answers with label scores.
type HTTPDetector struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	url        string
	token      string
	claimLabel string
	maxRetries uint64
}

// Option configures an HTTPDetector.
type Option func(*HTTPDetector)

// WithToken sets the bearer token sent with each request.
func WithToken(token string) Option {
	return func(d *HTTPDetector) {
		d.token = token
	}
}

// WithClaimLabel sets the label that denotes the claim class.
func WithClaimLabel(label string) Option {
	return func(d *HTTPDetector) {
		d.claimLabel = label
	}
}

// WithTimeout sets the HTTP request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(d *HTTPDetector) {
		d.httpClient.Timeout = timeout
	}
}

// WithRateLimit sets requests per second. Zero or less disables limiting.
func WithRateLimit(rps float64) Option {
	return func(d *HTTPDetector) {
		if rps <= 0 {
			d.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		d.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMaxRetries sets how often transient failures are retried.
func WithMaxRetries(n uint64) Option {
	return func(d *HTTPDetector) {
		d.maxRetries = n
	}
}

// NewHTTPDetector creates a detector for the endpoint at url.
func NewHTTPDetector(url string, opts ...Option) (*HTTPDetector, error) {
	if url == "" {
		return nil, ErrNotConfigured
	}
	d := &HTTPDetector{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		url:        url,
		claimLabel: DefaultClaimLabel,
		maxRetries: DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

type labelScore struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

// Classify implements Detector. The non-claim probability is the sum of all
// other labels' scores.
func (d *HTTPDetector) Classify(ctx context.Context, text string) (Prediction, error) {
	body, err := json.Marshal(map[string]string{"inputs": text})
	if err != nil {
		return Prediction{}, fmt.Errorf("marshaling request: %w", err)
	}

	var scores []labelScore
	backoff := retry.WithMaxRetries(d.maxRetries, retry.NewExponential(retryBase))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := d.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if d.token != "" {
			req.Header.Set("Authorization", "Bearer "+d.token)
		}

		resp, err := d.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("sending request: %w", err))
		}
		defer resp.Body.Close()

		raw, err := io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("reading response: %w", err))
		}
		if resp.StatusCode >= 400 {
			apiErr := &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(raw))}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				return retry.RetryableError(apiErr)
			}
			return apiErr
		}

		scores, err = decodeScores(raw)
		return err
	})
	if err != nil {
		return Prediction{}, err
	}

	var p Prediction
	for _, s := range scores {
		if s.Label == d.claimLabel {
			p.Claim += s.Score
		} else {
			p.NonClaim += s.Score
		}
	}
	return p, nil
}

// decodeScores accepts both the flat [{label, score}] and the batched
// [[{label, score}]] response shapes.
func decodeScores(raw []byte) ([]labelScore, error) {
	var nested [][]labelScore
	if err := json.Unmarshal(raw, &nested); err == nil && len(nested) > 0 {
		return nested[0], nil
	}
	var flat []labelScore
	if err := json.Unmarshal(raw, &flat); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if len(flat) == 0 {
		return nil, fmt.Errorf("%w: no label scores", ErrInvalidResponse)
	}
	return flat, nil
}
