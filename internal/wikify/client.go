// Package wikify links text to Wikipedia articles through the TagMe or
// Dandelion entity annotation APIs.
package wikify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/time/rate"
)

// Service names a supported annotation API.
type Service string

const (
	TagMe     Service = "tagme"
	Dandelion Service = "dandelion"
)

const (
	// TagMeURL is the TagMe annotation endpoint.
	TagMeURL = "https://tagme.d4science.org/tagme/tag"

	// DandelionURL is the Dandelion entity extraction endpoint.
	DandelionURL = "https://api.dandelion.eu/datatxt/nex/v1/"

	// DefaultTimeout is the default HTTP request timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultRateLimit keeps well below the free tier quotas.
	DefaultRateLimit = 5.0

	// DefaultLanguage is the language of press briefing transcripts.
	DefaultLanguage = "de"

	// DefaultMaxRetries bounds retries of transient failures.
	DefaultMaxRetries = 3

	retryBase = 500 * time.Millisecond
)

// Annotation is a text span linked to a Wikipedia article.
type Annotation struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Spot  string  `json:"spot"`
	Start int     `json:"start"`
	End   int     `json:"end"`
	Score float64 `json:"score"`
}

// Client is a rate-limited HTTP client for an annotation API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	service    Service
	token      string
	baseURL    string
	language   string
	minScore   float64
	maxRetries uint64
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithBaseURL sets a custom endpoint (for testing).
func WithBaseURL(url string) ClientOption {
	return func(c *Client) {
		c.baseURL = url
	}
}

// WithLanguage sets the text language passed to the service.
func WithLanguage(lang string) ClientOption {
	return func(c *Client) {
		c.language = lang
	}
}

// WithRateLimit sets requests per second. Zero or less disables limiting.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithMinScore drops annotations scoring below min (rho for TagMe,
// confidence for Dandelion).
func WithMinScore(min float64) ClientOption {
	return func(c *Client) {
		c.minScore = min
	}
}

// WithMaxRetries sets how often transient failures are retried.
func WithMaxRetries(n uint64) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// NewClient creates a client for the given service.
func NewClient(service Service, token string, opts ...ClientOption) (*Client, error) {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		limiter:    rate.NewLimiter(rate.Limit(DefaultRateLimit), 1),
		service:    service,
		token:      token,
		language:   DefaultLanguage,
		maxRetries: DefaultMaxRetries,
	}
	switch service {
	case TagMe:
		c.baseURL = TagMeURL
	case Dandelion:
		c.baseURL = DandelionURL
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownService, service)
	}
	if token == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingToken, service)
	}

	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Service returns the annotation service the client talks to.
func (c *Client) Service() Service {
	return c.service
}

// rawAnnotation covers the fields of both services' responses.
type rawAnnotation struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Spot       string  `json:"spot"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Rho        float64 `json:"rho"`
	Confidence float64 `json:"confidence"`
}

type annotateResponse struct {
	Annotations []rawAnnotation `json:"annotations"`
}

// Annotate returns the Wikipedia annotations of text.
func (c *Client) Annotate(ctx context.Context, text string) ([]Annotation, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	form := url.Values{}
	form.Set("text", text)
	form.Set("lang", c.language)
	switch c.service {
	case TagMe:
		form.Set("gcube-token", c.token)
	case Dandelion:
		form.Set("token", c.token)
		form.Set("include", "types")
	}

	var resp annotateResponse
	if err := c.post(ctx, form, &resp); err != nil {
		return nil, err
	}

	out := make([]Annotation, 0, len(resp.Annotations))
	for _, a := range resp.Annotations {
		score := a.Rho
		if c.service == Dandelion {
			score = a.Confidence
		}
		if score < c.minScore || a.ID == 0 {
			continue
		}
		out = append(out, Annotation{
			ID:    a.ID,
			Title: a.Title,
			Spot:  a.Spot,
			Start: a.Start,
			End:   a.End,
			Score: score,
		})
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, form url.Values, out any) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(retryBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(form.Encode()))
		if err != nil {
			return fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("%w: %v", ErrNetworkError, err))
		}
		defer resp.Body.Close()

		if err := c.checkHTTPErrors(resp); err != nil {
			if IsRateLimited(err) || resp.StatusCode >= 500 {
				return retry.RetryableError(err)
			}
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		return nil
	})
}

// checkHTTPErrors returns an error if the HTTP response indicates a problem.
func (c *Client) checkHTTPErrors(resp *http.Response) error {
	if resp.StatusCode == 401 || resp.StatusCode == 403 {
		return fmt.Errorf("%w: status %d", ErrAuthError, resp.StatusCode)
	}
	if resp.StatusCode == 429 {
		return fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{
			StatusCode: resp.StatusCode,
			Service:    c.service,
			Message:    strings.TrimSpace(string(msg)),
		}
	}
	return nil
}
