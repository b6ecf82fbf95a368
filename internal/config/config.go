package config

import (
	"errors"
	"fmt"
	"time"

	bigcommerce "github.com/bigcommerce/bigcommerce-api-go"
)

// Config holds the settings of one connection.
type Config struct {
	Timeout        time.Duration     `koanf:"timeout"`
	UseXML         bool              `koanf:"use_xml"`
	FailOnError    bool              `koanf:"fail_on_error"`
	VerifyPeer     bool              `koanf:"verify_peer"`
	FollowLocation bool              `koanf:"follow_location"`
	MaxRedirects   int               `koanf:"max_redirects"`
	UserAgent      string            `koanf:"user_agent"`
	Headers        map[string]string `koanf:"headers"`

	Proxy     ProxyConfig     `koanf:"proxy"`
	Auth      AuthConfig      `koanf:"auth"`
	RateLimit RateLimitConfig `koanf:"rate_limit"`
	Throttle  ThrottleConfig  `koanf:"throttle"`
}

// ProxyConfig configures an outbound proxy.
type ProxyConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`
}

// AuthConfig holds credentials. Basic and OAuth credentials may be combined.
type AuthConfig struct {
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	ClientID string `koanf:"client_id"`
	Token    string `koanf:"token"`
}

// RateLimitConfig bounds X-Retry-After replays.
type RateLimitConfig struct {
	MaxRetries int           `koanf:"max_retries"`
	MaxWait    time.Duration `koanf:"max_wait"`
}

// ThrottleConfig limits the outgoing request rate. A zero RPS disables it.
type ThrottleConfig struct {
	RPS   float64 `koanf:"rps"`
	Burst int     `koanf:"burst"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Timeout:        60 * time.Second,
		FollowLocation: true,
		MaxRedirects:   20,
		RateLimit: RateLimitConfig{
			MaxRetries: 5,
			MaxWait:    5 * time.Minute,
		},
	}
}

// Load reads the configuration file at path (skipped when empty), the
// environment and overrides, on top of the defaults, and validates the
// result. Override keys are dotted, e.g. "auth.token".
func Load(path string, overrides map[string]any) (*Config, error) {
	l := NewLoader(WithConfigFile(path), WithOverrides(overrides))

	cfg := Default()
	if err := l.Load(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every invalid setting.
func (c *Config) Validate() error {
	var errs []error

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative: %v", c.Timeout))
	}
	if c.MaxRedirects < 0 {
		errs = append(errs, fmt.Errorf("max_redirects must not be negative: %d", c.MaxRedirects))
	}
	if c.Proxy.Port < 0 || c.Proxy.Port > 65535 {
		errs = append(errs, fmt.Errorf("proxy.port out of range: %d", c.Proxy.Port))
	}
	if c.Proxy.Port != 0 && c.Proxy.Host == "" {
		errs = append(errs, errors.New("proxy.port set without proxy.host"))
	}
	if (c.Auth.Username == "") != (c.Auth.Password == "") {
		errs = append(errs, errors.New("auth.username and auth.password must be set together"))
	}
	if (c.Auth.ClientID == "") != (c.Auth.Token == "") {
		errs = append(errs, errors.New("auth.client_id and auth.token must be set together"))
	}
	if c.RateLimit.MaxWait < 0 {
		errs = append(errs, fmt.Errorf("rate_limit.max_wait must not be negative: %v", c.RateLimit.MaxWait))
	}
	if c.Throttle.RPS < 0 {
		errs = append(errs, fmt.Errorf("throttle.rps must not be negative: %v", c.Throttle.RPS))
	}
	if c.Throttle.Burst < 0 {
		errs = append(errs, fmt.Errorf("throttle.burst must not be negative: %d", c.Throttle.Burst))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Connect creates a Connection from the configuration. Extra options are
// applied after the configured ones.
func (c *Config) Connect(extra ...bigcommerce.Option) (*bigcommerce.Connection, error) {
	opts := []bigcommerce.Option{
		bigcommerce.WithTimeout(c.Timeout),
		bigcommerce.WithXML(c.UseXML),
		bigcommerce.WithFailOnError(c.FailOnError),
		bigcommerce.WithFollowLocation(c.FollowLocation),
		bigcommerce.WithMaxRedirects(c.MaxRedirects),
		bigcommerce.WithRateLimitRetry(c.RateLimit.MaxRetries, c.RateLimit.MaxWait),
	}
	if c.UserAgent != "" {
		opts = append(opts, bigcommerce.WithUserAgent(c.UserAgent))
	}
	if c.Throttle.RPS > 0 {
		opts = append(opts, bigcommerce.WithRequestRate(c.Throttle.RPS, c.Throttle.Burst))
	}
	opts = append(opts, extra...)

	conn, err := bigcommerce.New(opts...)
	if err != nil {
		return nil, err
	}

	conn.VerifyPeer(c.VerifyPeer)
	for name, value := range c.Headers {
		conn.AddHeader(name, value)
	}
	if c.Auth.Username != "" {
		conn.AuthenticateBasic(c.Auth.Username, c.Auth.Password)
	}
	if c.Auth.ClientID != "" {
		conn.AuthenticateOAuth(c.Auth.ClientID, c.Auth.Token)
	}
	if c.Proxy.Host != "" {
		if err := conn.UseProxy(c.Proxy.Host, c.Proxy.Port); err != nil {
			conn.Close()
			return nil, fmt.Errorf("configure proxy: %w", err)
		}
	}

	return conn, nil
}
