package bigcommerce

import (
	"context"
	"fmt"
	"net/http"
	"net/textproto"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/time/rate"

	"github.com/bigcommerce/bigcommerce-api-go/internal/api"
)

// Connection is an HTTP session against the BigCommerce API. It keeps the
// request configuration and the last response, and runs one request at a
// time. Calls on one Connection are serialized.
type Connection struct {
	mu sync.Mutex

	cfg     *connConfig
	logger  hclog.Logger
	limiter *rate.Limiter
	metrics *api.Metrics

	// Request configuration
	headers     map[string]string
	useXML      bool
	failOnError bool
	basicAuth   *api.BasicAuth
	clientID    string
	authToken   string
	timeout     time.Duration
	proxy       string
	verifyPeer  bool

	transport *http.Transport
	engine    *api.Client
	stale     bool

	// Last response
	last    *api.Response
	lastErr error

	closed bool
}

// New creates a new Connection.
func New(opts ...Option) (*Connection, error) {
	cfg := defaultConfig()

	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.maxRedirects < 0 {
		return nil, fmt.Errorf("max redirects must not be negative: %d", cfg.maxRedirects)
	}
	if cfg.logger == nil {
		cfg.logger = hclog.NewNullLogger()
	}

	c := &Connection{
		cfg:         cfg,
		logger:      cfg.logger.Named("bigcommerce"),
		headers:     make(map[string]string),
		useXML:      cfg.useXML,
		failOnError: cfg.failOnError,
		timeout:     cfg.timeout,
	}

	if cfg.requestRate > 0 {
		burst := cfg.requestBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.requestRate), burst)
	}

	if cfg.registerer != nil {
		m, err := api.NewMetrics(cfg.registerer)
		if err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
		c.metrics = m
	}

	if err := c.rebuild(); err != nil {
		return nil, err
	}

	return c, nil
}

// rebuild replaces the transport and engine after a transport setting
// changed. Must be called with mu held.
func (c *Connection) rebuild() error {
	var hc *http.Client
	var transport *http.Transport

	if c.cfg.httpClient != nil {
		clone := *c.cfg.httpClient
		clone.Timeout = c.timeout
		hc = &clone
	} else {
		t, err := api.NewTransport(api.TransportConfig{
			Timeout:    c.timeout,
			Proxy:      c.proxy,
			VerifyPeer: c.verifyPeer,
		})
		if err != nil {
			return err
		}
		transport = t
		hc = &http.Client{Transport: t, Timeout: c.timeout}
	}

	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}
	c.transport = transport

	c.engine = api.New(
		api.WithHTTPClient(hc),
		api.WithLogger(c.logger),
		api.WithLimiter(c.limiter),
		api.WithMetrics(c.metrics),
		api.WithRateLimitPolicy(c.cfg.rateLimit),
		api.WithRedirectPolicy(api.RedirectPolicy{
			Follow:       c.cfg.followLocation,
			MaxRedirects: c.cfg.maxRedirects,
		}),
		api.WithUserAgent(c.cfg.userAgent),
		api.WithBodyStoreDir(c.cfg.bodyStoreDir),
	)
	c.stale = false
	return nil
}

// UseXML switches between XML and JSON mode. In XML mode requests are sent
// with application/xml and response bodies are returned as raw strings.
func (c *Connection) UseXML(useXML bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.useXML = useXML
}

// FailOnError selects how 4xx and 5xx responses are reported. When enabled
// they are returned as *ClientError or *ServerError. When disabled the call
// returns a nil body and a nil error, and the error is available from
// LastError.
func (c *Connection) FailOnError(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failOnError = fail
}

// AuthenticateBasic sets HTTP basic credentials.
func (c *Connection) AuthenticateBasic(username, password string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.basicAuth = &api.BasicAuth{Username: username, Password: password}
}

// AuthenticateOAuth sets the OAuth client ID and access token, sent as the
// X-Auth-Client and X-Auth-Token headers when both are set.
func (c *Connection) AuthenticateOAuth(clientID, token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clientID = clientID
	c.authToken = token
}

// SetTimeout sets the connect and total request timeout. Zero disables it.
func (c *Connection) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
	c.stale = true
}

// UseProxy routes requests through a proxy. A host without a scheme is an
// HTTP proxy; socks5:// hosts use a SOCKS5 dialer. A port of 0 keeps the
// port given in host, if any. It fails with ErrConnectionClosed after Close.
func (c *Connection) UseProxy(host string, port int) error {
	u, err := api.ProxyURL(host, port)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrConnectionClosed
	}

	prev := c.proxy
	c.proxy = u
	if err := c.rebuild(); err != nil {
		c.proxy = prev
		return err
	}
	return nil
}

// VerifyPeer toggles TLS certificate verification.
//
// Verification is OFF by default. Production callers must enable it.
func (c *Connection) VerifyPeer(verify bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verifyPeer = verify
	c.stale = true
}

// AddHeader sets a header sent with every subsequent request. Names are
// case-insensitive: setting the same name again, in any case, replaces the
// value.
func (c *Connection) AddHeader(name, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[textproto.CanonicalMIMEHeaderKey(name)] = value
}

// Get sends a GET request. A non-nil query is encoded and appended to url.
// Any map with string keys is accepted, nested maps and slices use the
// bracket form (filter[name]=x, ids[]=1). Structs are encoded by their
// `url` tags.
func (c *Connection) Get(ctx context.Context, url string, query any) (any, error) {
	return c.do(ctx, http.MethodGet, url, query)
}

// Post sends a POST request. Strings and byte slices are sent as-is, other
// bodies are encoded as JSON.
func (c *Connection) Post(ctx context.Context, url string, body any) (any, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

// Put sends a PUT request. Strings and byte slices are sent as-is, other
// bodies are encoded as JSON.
func (c *Connection) Put(ctx context.Context, url string, body any) (any, error) {
	return c.do(ctx, http.MethodPut, url, body)
}

// Delete sends a DELETE request.
func (c *Connection) Delete(ctx context.Context, url string) (any, error) {
	return c.do(ctx, http.MethodDelete, url, nil)
}

// Head sends a HEAD request. The response headers are available through
// Header and Headers.
func (c *Connection) Head(ctx context.Context, url string) (any, error) {
	return c.do(ctx, http.MethodHead, url, nil)
}

func (c *Connection) do(ctx context.Context, method, url string, arg any) (any, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, &RequestError{Method: method, URL: url, Err: ErrConnectionClosed}
	}

	c.last = nil
	c.lastErr = nil

	if c.stale {
		if err := c.rebuild(); err != nil {
			return nil, &RequestError{Method: method, URL: url, Err: err}
		}
	}

	resp, err := c.engine.Do(ctx, c.request(method, url, arg))
	if resp != nil {
		c.last = resp
	}
	if err != nil {
		return nil, wrapRequestError(method, url, err)
	}

	body := resp.Decode(c.useXML)

	if err := classifyStatus(resp, body); err != nil {
		if c.failOnError {
			return nil, err
		}
		c.lastErr = err
		return nil, nil
	}

	return body, nil
}

// request snapshots the current configuration into a request value.
func (c *Connection) request(method, url string, arg any) *api.Request {
	mediaType := mediaJSON
	if c.useXML {
		mediaType = mediaXML
	}

	header := make(http.Header, len(c.headers)+3)
	for name, value := range c.headers {
		header.Set(name, value)
	}
	header.Set("Accept", mediaType)
	if c.clientID != "" && c.authToken != "" {
		header.Set("X-Auth-Client", c.clientID)
		header.Set("X-Auth-Token", c.authToken)
	}

	req := &api.Request{
		Method: method,
		URL:    url,
		Header: header,
	}
	if c.basicAuth != nil {
		auth := *c.basicAuth
		req.BasicAuth = &auth
	}

	switch method {
	case http.MethodGet:
		req.Query = arg
	case http.MethodPost, http.MethodPut:
		req.Payload = arg
		req.ContentType = mediaType
	}
	return req
}

// Status returns the status code of the last response, or 0.
func (c *Connection) Status() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return 0
	}
	return c.last.StatusCode
}

// StatusMessage returns the status line of the last response, for example
// "HTTP/1.1 404 Not Found".
func (c *Connection) StatusMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return ""
	}
	return c.last.StatusLine
}

// Body returns the raw body of the last response.
func (c *Connection) Body() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return nil
	}
	return c.last.Body
}

// Header returns a header of the last response.
func (c *Connection) Header(name string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return "", false
	}
	return c.last.Get(name)
}

// Headers returns a copy of the headers of the last response, keyed by
// canonical name.
func (c *Connection) Headers() map[string]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	headers := make(map[string]string)
	if c.last == nil {
		return headers
	}
	for name, value := range c.last.Header {
		headers[name] = value
	}
	return headers
}

// LastError returns the *ClientError or *ServerError stored by the last call
// when fail-on-error is off, or nil.
func (c *Connection) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Decode decodes the last response body into v with the codec of the current
// mode.
func (c *Connection) Decode(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return ErrNoResponse
	}
	return c.last.DecodeInto(c.useXML, v)
}

// Close releases the connection's transport. Requests on a closed
// connection fail with ErrConnectionClosed.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}

	c.closed = true
	if c.transport != nil {
		c.transport.CloseIdleConnections()
	}

	return nil
}
