package api

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/proxy"
)

// TransportConfig configures the HTTP transport owned by a connection.
type TransportConfig struct {
	// Timeout bounds connection establishment and the TLS handshake.
	Timeout time.Duration
	// Proxy is the proxy URL. Empty means the environment proxy settings.
	Proxy string
	// VerifyPeer enables TLS certificate verification.
	VerifyPeer bool
}

// NewTransport builds an HTTP/1.1 transport from cfg.
func NewTransport(cfg TransportConfig) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout:   cfg.Timeout,
		KeepAlive: 30 * time.Second,
	}

	t := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: cfg.Timeout,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: !cfg.VerifyPeer, //nolint:gosec // opt-in verification, see Connection.VerifyPeer
		},
		// A non-nil empty map disables HTTP/2.
		TLSNextProto:        map[string]func(string, *tls.Conn) http.RoundTripper{},
		MaxIdleConnsPerHost: 1,
		IdleConnTimeout:     90 * time.Second,
	}

	if cfg.Proxy == "" {
		return t, nil
	}

	u, err := url.Parse(cfg.Proxy)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy URL: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		t.Proxy = http.ProxyURL(u)
	case "socks5", "socks5h":
		d, err := proxy.FromURL(u, dialer)
		if err != nil {
			return nil, fmt.Errorf("socks proxy: %w", err)
		}
		t.Proxy = nil
		if cd, ok := d.(proxy.ContextDialer); ok {
			t.DialContext = cd.DialContext
		} else {
			t.DialContext = func(_ context.Context, network, addr string) (net.Conn, error) {
				return d.Dial(network, addr)
			}
		}
	default:
		return nil, fmt.Errorf("unsupported proxy scheme: %q", u.Scheme)
	}
	return t, nil
}

// ProxyURL builds a proxy URL from a host and an optional port. Hosts
// without a scheme are HTTP proxies. A port of 0 keeps the port in host, if any.
func ProxyURL(host string, port int) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", fmt.Errorf("proxy host is required")
	}
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("invalid proxy host: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("invalid proxy host: %q", host)
	}
	if port > 0 {
		u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	}
	return u.String(), nil
}
