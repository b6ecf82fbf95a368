package api

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"
)

// Client executes requests with manual redirect following and rate-limit
// replay. It holds no per-call state and is safe for concurrent use.
type Client struct {
	httpClient *http.Client
	logger     hclog.Logger
	limiter    *rate.Limiter
	metrics    *Metrics
	rateLimit  RateLimitPolicy
	redirect   RedirectPolicy
	userAgent  string
	storeDir   string
}

// Option configures the API client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. Its redirect policy is
// replaced; redirects are always handled by Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			clone := *hc
			c.httpClient = &clone
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l hclog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLimiter throttles outgoing exchanges, replays and redirects included.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithRateLimitPolicy sets the X-Retry-After replay policy.
func WithRateLimitPolicy(p RateLimitPolicy) Option {
	return func(c *Client) {
		c.rateLimit = p
	}
}

// WithRedirectPolicy sets the redirect policy.
func WithRedirectPolicy(p RedirectPolicy) Option {
	return func(c *Client) {
		c.redirect = p
	}
}

// WithUserAgent sets the User-Agent header sent when the request has none.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// WithBodyStoreDir sets the directory for temporary PUT body files.
func WithBodyStoreDir(dir string) Option {
	return func(c *Client) {
		c.storeDir = dir
	}
}

// New creates a new API client.
func New(opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     hclog.NewNullLogger(),
		rateLimit:  DefaultRateLimitPolicy(),
		redirect:   DefaultRedirectPolicy(),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.httpClient.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	return c
}

// Do runs req to completion. Rate-limited responses are replayed with the same
// request after the requested pause, and 301/302 responses are followed with
// a GET when redirect following is enabled.
//
// The final response is returned together with a nil error whatever its
// status. When the replay budget is spent the last rate-limited response is
// returned alongside a *RateLimitError.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	log := c.logger.With("request_id", uuid.NewString(), "method", req.Method)

	current := req
	replays := 0
	redirects := 0

	for {
		resp, err := c.exchange(ctx, log, current)
		if err != nil {
			return nil, err
		}

		if wait, ok := c.rateLimit.RetryAfter(resp); ok {
			if !c.rateLimit.ShouldRetry(replays, wait) {
				log.Warn("rate limit replay budget exhausted", "url", current.URL, "replays", replays, "retry_after", wait)
				return resp, &RateLimitError{
					Attempts:   replays,
					RetryAfter: wait,
					Method:     current.Method,
					URL:        current.URL,
				}
			}
			replays++
			c.metrics.rateLimitRetry()
			log.Warn("rate limited, waiting before replay", "url", current.URL, "attempt", replays, "wait", wait)
			if err := c.rateLimit.Wait(ctx, wait); err != nil {
				return nil, &RateLimitError{
					Attempts:   replays,
					RetryAfter: wait,
					Method:     current.Method,
					URL:        current.URL,
					Err:        err,
				}
			}
			continue
		}

		if c.redirect.Follow && IsRedirect(resp.StatusCode) {
			redirects++
			if !c.redirect.allows(redirects) {
				return nil, &NetworkError{
					Code:   CodeTooManyRedirects,
					Method: current.Method,
					URL:    current.URL,
					Err:    ErrTooManyRedirects,
				}
			}
			location, _ := resp.Get("Location")
			target, err := ResolveLocation(resp.URL, location)
			if err != nil {
				return nil, &NetworkError{Code: CodeMalformedURL, Method: current.Method, URL: location, Err: err}
			}
			c.metrics.redirect()
			log.Debug("following redirect", "from", current.URL, "to", target, "status", resp.StatusCode)
			current = current.redirectTo(target)
			continue
		}

		return resp, nil
	}
}

// exchange performs a single HTTP round trip.
func (c *Client) exchange(ctx context.Context, log hclog.Logger, req *Request) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, &NetworkError{Code: classify(err), Method: req.Method, URL: req.URL, Err: err}
		}
	}

	httpReq, release, err := req.build(ctx, c.storeDir)
	if err != nil {
		return nil, err
	}
	defer release()

	if c.userAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.metrics.observe(req.Method, 0, time.Since(start))
		log.Debug("request failed", "url", httpReq.URL.String(), "error", err)
		return nil, &NetworkError{Code: classify(err), Method: req.Method, URL: httpReq.URL.String(), Err: err}
	}

	resp, err := readResponse(httpResp)
	elapsed := time.Since(start)
	if err != nil {
		c.metrics.observe(req.Method, 0, elapsed)
		return nil, &NetworkError{Code: classify(err), Method: req.Method, URL: httpReq.URL.String(), Err: err}
	}

	c.metrics.observe(req.Method, resp.StatusCode, elapsed)
	log.Debug("request completed", "url", httpReq.URL.String(), "status", resp.StatusCode, "duration", elapsed)
	return resp, nil
}
