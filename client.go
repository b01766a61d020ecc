// Package specstory is a Go client for the SpecStory Cloud API. See doc.go
// for an overview.
package specstory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/specstoryai/specstory-go/cache"
	"github.com/specstoryai/specstory-go/internal/config"
)

// Version is the SDK release, carried in request headers.
const Version = "0.1.0"

// DefaultBaseURL is the production API endpoint.
const DefaultBaseURL = "https://cloud.specstory.com"

const (
	defaultMaxRetries = 3
	retryBaseDelay    = 200 * time.Millisecond
	retryJitterMax    = 100 * time.Millisecond
	retryWaitCap      = 10 * time.Second

	defaultCacheSize = 100
	defaultCacheTTL  = time.Minute
)

// retryStatusCodes are retried for every method.
var retryStatusCodes = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// idempotentMethods may be retried after a transport error, where we cannot
// know whether the request reached the server.
var idempotentMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPut:    true,
	http.MethodDelete: true,
	http.MethodHead:   true,
}

// Client talks to the SpecStory Cloud API. A Client is safe for concurrent
// use; share one per API key rather than constructing per call.
type Client struct {
	apiKey    string
	baseURL   *url.URL
	userAgent string
	logger    zerolog.Logger

	retry *retryablehttp.Client
	cache cache.Cache

	Projects *ProjectsService
	Sessions *SessionsService
	GraphQL  *GraphQLService

	// construction knobs, resolved by New
	rawBaseURL string
	timeout    time.Duration
	httpClient *http.Client
	maxRetries int
	cacheSize  int
	cacheTTL   time.Duration
}

// Option configures a Client during New.
type Option func(*Client)

// WithBaseURL points the client at a different API host, e.g. a test server.
func WithBaseURL(raw string) Option {
	return func(c *Client) { c.rawBaseURL = raw }
}

// WithTimeout sets the per-request timeout. Contexts passed to calls still
// apply on top of it.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithHTTPClient substitutes the underlying HTTP client. The client's own
// Timeout is respected as-is.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.httpClient = h }
}

// WithMaxRetries sets how many times a failed request is retried.
func WithMaxRetries(n int) Option {
	return func(c *Client) { c.maxRetries = n }
}

// WithCache sizes the response cache: at most maxSize entries, fresh for
// ttl. The zero values of New are 100 entries for one minute.
func WithCache(maxSize int, ttl time.Duration) Option {
	return func(c *Client) { c.cacheSize, c.cacheTTL = maxSize, ttl }
}

// WithoutCache disables response caching entirely.
func WithoutCache() Option {
	return func(c *Client) { c.cacheSize = 0 }
}

// WithLogger attaches a logger; the default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New builds a Client. An empty apiKey falls back to the SPECSTORY_API_KEY
// environment variable; base URL and timeout likewise default from the
// environment before options apply.
func New(apiKey string, opts ...Option) (*Client, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("specstory: %w", err)
	}
	if apiKey == "" {
		apiKey = cfg.APIKey
	}

	c := &Client{
		apiKey:     apiKey,
		userAgent:  "specstory-sdk-go/" + Version,
		logger:     zerolog.Nop(),
		rawBaseURL: cfg.BaseURL,
		timeout:    cfg.Timeout,
		maxRetries: defaultMaxRetries,
		cacheSize:  defaultCacheSize,
		cacheTTL:   defaultCacheTTL,
	}
	for _, o := range opts {
		o(c)
	}

	if c.apiKey == "" {
		return nil, errors.New("specstory: API key is required; pass it to New or set SPECSTORY_API_KEY")
	}
	u, err := url.Parse(c.rawBaseURL)
	if err != nil {
		return nil, fmt.Errorf("specstory: invalid base URL %q: %w", c.rawBaseURL, err)
	}
	c.baseURL = u

	store, err := cache.New(c.cacheSize, c.cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("specstory: %w", err)
	}
	c.cache = store

	rc := retryablehttp.NewClient()
	if c.httpClient != nil {
		rc.HTTPClient = c.httpClient
	} else {
		rc.HTTPClient = &http.Client{Timeout: c.timeout}
	}
	rc.RetryMax = c.maxRetries
	rc.RetryWaitMin = retryBaseDelay
	rc.RetryWaitMax = retryWaitCap
	rc.CheckRetry = checkRetry
	rc.Backoff = backoff
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	rc.Logger = retryLogger{c.logger}
	c.retry = rc

	c.Projects = &ProjectsService{client: c}
	c.Sessions = &SessionsService{client: c}
	c.GraphQL = &GraphQLService{client: c}
	return c, nil
}

// Close clears the response cache and releases idle connections. The client
// must not be used afterwards.
func (c *Client) Close() {
	c.cache.Clear()
	c.retry.HTTPClient.CloseIdleConnections()
}

// requestOptions carries per-call extras into do.
type requestOptions struct {
	headers        map[string]string
	query          map[string]string
	idempotencyKey string
}

// retryPolicy rides the request context so checkRetry can apply the
// method- and idempotency-aware rules without reaching into the request.
type retryPolicy struct {
	method         string
	idempotencyKey string
}

type policyKey struct{}

// checkRetry encodes the retry rules: retryable statuses for every method,
// 5xx on POST only when an idempotency key makes the replay safe, and
// transport errors only for idempotent methods.
func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if ctx.Err() != nil {
		return false, ctx.Err()
	}
	pol, _ := ctx.Value(policyKey{}).(retryPolicy)
	if err != nil {
		return idempotentMethods[pol.method], nil
	}
	if resp == nil {
		return false, nil
	}
	if retryStatusCodes[resp.StatusCode] {
		return true, nil
	}
	if pol.method == http.MethodPost && pol.idempotencyKey != "" && resp.StatusCode >= 500 {
		return true, nil
	}
	return false, nil
}

// backoff waits base * 2^attempt plus up to 100ms of jitter, capped at max.
func backoff(_, max time.Duration, attemptNum int, _ *http.Response) time.Duration {
	d := retryBaseDelay*(1<<attemptNum) + rand.N(retryJitterMax)
	if d > max {
		return max
	}
	return d
}

// do runs one API request. GET responses are served from and stored into
// the response cache by fingerprint; the cache is never held across the
// network call.
func (c *Client) do(ctx context.Context, method, path string, body any, opt *requestOptions) ([]byte, error) {
	if opt == nil {
		opt = &requestOptions{}
	}

	var cacheKey string
	if method == http.MethodGet {
		cacheKey = cache.KeyFor(method, path, opt.query)
		if ent, ok := c.cache.Get(cacheKey); ok {
			c.logger.Debug().Str("method", method).Str("path", path).Msg("cache hit")
			return ent.Body, nil
		}
	}

	u := *c.baseURL
	u.Path = strings.TrimSuffix(u.Path, "/") + path
	if len(opt.query) > 0 {
		q := u.Query()
		for k, v := range opt.query {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("specstory: encode request body: %w", err)
		}
	}

	ctx = context.WithValue(ctx, policyKey{}, retryPolicy{
		method:         method,
		idempotencyKey: opt.idempotencyKey,
	})
	req, err := retryablehttp.NewRequestWithContext(ctx, method, u.String(), payload)
	if err != nil {
		return nil, fmt.Errorf("specstory: build request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-SDK-Version", Version)
	req.Header.Set("X-SDK-Language", "go")
	if opt.idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", opt.idempotencyKey)
	}
	for k, v := range opt.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.retry.Do(req)
	if err != nil {
		return nil, &Error{
			Message: fmt.Sprintf("Request failed: %v", err),
			Code:    ErrorCodeNetwork,
			Details: map[string]any{"original_error": err.Error()},
			err:     err,
		}
	}
	defer resp.Body.Close()

	requestID := resp.Header.Get("x-request-id")
	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Msg("request complete")

	switch {
	case resp.StatusCode == http.StatusNotModified:
		return nil, ErrNotModified
	case resp.StatusCode >= 400:
		return nil, errorFromStatus(resp.StatusCode, requestID)
	case resp.StatusCode == http.StatusNoContent:
		return nil, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("specstory: read response body: %w", err)
	}

	if cacheKey != "" {
		c.cache.Put(cacheKey, data, resp.Header.Get("ETag"), 0)
	}
	return data, nil
}

// retryLogger adapts zerolog to retryablehttp's LeveledLogger.
type retryLogger struct {
	l zerolog.Logger
}

func (r retryLogger) Error(msg string, kv ...interface{}) { r.emit(r.l.Error(), msg, kv) }
func (r retryLogger) Warn(msg string, kv ...interface{})  { r.emit(r.l.Warn(), msg, kv) }
func (r retryLogger) Info(msg string, kv ...interface{})  { r.emit(r.l.Info(), msg, kv) }
func (r retryLogger) Debug(msg string, kv ...interface{}) { r.emit(r.l.Debug(), msg, kv) }

func (r retryLogger) emit(e *zerolog.Event, msg string, kv []interface{}) {
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			e = e.Interface(k, kv[i+1])
		}
	}
	e.Msg(msg)
}
