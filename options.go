package bigcommerce

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bigcommerce/bigcommerce-api-go/internal/api"
)

const (
	defaultTimeout      = 60 * time.Second
	defaultMaxRedirects = api.DefaultMaxRedirects
	defaultUserAgent    = "bigcommerce-api-go"
)

const (
	mediaJSON = "application/json"
	mediaXML  = "application/xml"
)

// connConfig holds construction-time configuration for a Connection.
type connConfig struct {
	timeout        time.Duration
	httpClient     *http.Client
	followLocation bool
	maxRedirects   int
	rateLimit      api.RateLimitPolicy
	userAgent      string
	useXML         bool
	failOnError    bool
	bodyStoreDir   string

	// Throttle
	requestRate  float64
	requestBurst int

	logger     hclog.Logger
	registerer prometheus.Registerer
}

func defaultConfig() *connConfig {
	return &connConfig{
		timeout:        defaultTimeout,
		followLocation: true,
		maxRedirects:   defaultMaxRedirects,
		rateLimit:      api.DefaultRateLimitPolicy(),
		userAgent:      defaultUserAgent,
		logger:         hclog.NewNullLogger(),
	}
}

// Option configures a Connection.
type Option func(*connConfig)

// WithTimeout sets the connect and total request timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *connConfig) {
		c.timeout = timeout
	}
}

// WithHTTPClient sets a custom HTTP client. Its transport is used as-is, so
// UseProxy and VerifyPeer have no effect on it. Redirect following is always
// handled by the Connection.
func WithHTTPClient(client *http.Client) Option {
	return func(c *connConfig) {
		c.httpClient = client
	}
}

// WithFollowLocation enables or disables following 301 and 302 responses.
// When disabled, redirect responses are returned to the caller as-is.
func WithFollowLocation(follow bool) Option {
	return func(c *connConfig) {
		c.followLocation = follow
	}
}

// WithMaxRedirects sets the redirect chain limit. A chain that reaches the
// limit fails with a NetworkError.
func WithMaxRedirects(n int) Option {
	return func(c *connConfig) {
		c.maxRedirects = n
	}
}

// WithRateLimitRetry bounds the replay of rate-limited requests. A negative
// maxRetries allows unlimited replays; a zero maxWait allows any wait.
func WithRateLimitRetry(maxRetries int, maxWait time.Duration) Option {
	return func(c *connConfig) {
		c.rateLimit.MaxRetries = maxRetries
		c.rateLimit.MaxWait = maxWait
	}
}

// WithRequestRate limits outgoing requests to rps per second with the given
// burst. Replays and redirects count against the limit.
func WithRequestRate(rps float64, burst int) Option {
	return func(c *connConfig) {
		c.requestRate = rps
		c.requestBurst = burst
	}
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(c *connConfig) {
		c.logger = logger
	}
}

// WithMetrics registers request metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *connConfig) {
		c.registerer = reg
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *connConfig) {
		c.userAgent = ua
	}
}

// WithXML starts the connection in XML mode.
func WithXML(useXML bool) Option {
	return func(c *connConfig) {
		c.useXML = useXML
	}
}

// WithFailOnError starts the connection in fail-on-error mode.
func WithFailOnError(fail bool) Option {
	return func(c *connConfig) {
		c.failOnError = fail
	}
}

// WithBodyStoreDir sets the directory for temporary PUT body files.
// Defaults to os.TempDir.
func WithBodyStoreDir(dir string) Option {
	return func(c *connConfig) {
		c.bodyStoreDir = dir
	}
}
