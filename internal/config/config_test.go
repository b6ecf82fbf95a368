package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bigcommerce.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want 60s", cfg.Timeout)
	}
	if !cfg.FollowLocation {
		t.Error("FollowLocation = false, want true")
	}
	if cfg.MaxRedirects != 20 {
		t.Errorf("MaxRedirects = %d, want 20", cfg.MaxRedirects)
	}
	if cfg.VerifyPeer {
		t.Error("VerifyPeer = true, want false")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
timeout: 15s
use_xml: true
fail_on_error: true
verify_peer: true
max_redirects: 5
user_agent: store-sync/1.0
headers:
  X-Store-Hash: abc123
proxy:
  host: proxy.local
  port: 3128
auth:
  client_id: my-client
  token: my-token
rate_limit:
  max_retries: 2
  max_wait: 30s
throttle:
  rps: 4
  burst: 2
`)

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Timeout != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout)
	}
	if !cfg.UseXML || !cfg.FailOnError || !cfg.VerifyPeer {
		t.Errorf("flags = %v/%v/%v, want all true", cfg.UseXML, cfg.FailOnError, cfg.VerifyPeer)
	}
	if !cfg.FollowLocation {
		t.Error("FollowLocation lost its default")
	}
	if cfg.MaxRedirects != 5 {
		t.Errorf("MaxRedirects = %d, want 5", cfg.MaxRedirects)
	}
	if cfg.UserAgent != "store-sync/1.0" {
		t.Errorf("UserAgent = %q", cfg.UserAgent)
	}
	if cfg.Headers["X-Store-Hash"] != "abc123" {
		t.Errorf("Headers = %v", cfg.Headers)
	}
	if cfg.Proxy.Host != "proxy.local" || cfg.Proxy.Port != 3128 {
		t.Errorf("Proxy = %+v", cfg.Proxy)
	}
	if cfg.Auth.ClientID != "my-client" || cfg.Auth.Token != "my-token" {
		t.Errorf("Auth = %+v", cfg.Auth)
	}
	if cfg.RateLimit.MaxRetries != 2 || cfg.RateLimit.MaxWait != 30*time.Second {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Throttle.RPS != 4 || cfg.Throttle.Burst != 2 {
		t.Errorf("Throttle = %+v", cfg.Throttle)
	}
}

func TestLoad_Priority(t *testing.T) {
	path := writeConfig(t, `
timeout: 15s
auth:
  client_id: from-file
  token: file-token
`)
	t.Setenv("BIGCOMMERCE_AUTH__CLIENT_ID", "from-env")
	t.Setenv("BIGCOMMERCE_TIMEOUT", "20s")
	t.Setenv("BIGCOMMERCE_RATE_LIMIT__MAX_RETRIES", "1")

	cfg, err := Load(path, map[string]any{"timeout": "25s"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Auth.ClientID != "from-env" {
		t.Errorf("ClientID = %q, want from-env (env should override file)", cfg.Auth.ClientID)
	}
	if cfg.Auth.Token != "file-token" {
		t.Errorf("Token = %q, want file-token", cfg.Auth.Token)
	}
	if cfg.Timeout != 25*time.Second {
		t.Errorf("Timeout = %v, want 25s (overrides should win)", cfg.Timeout)
	}
	if cfg.RateLimit.MaxRetries != 1 {
		t.Errorf("MaxRetries = %d, want 1", cfg.RateLimit.MaxRetries)
	}
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Timeout != 60*time.Second {
		t.Errorf("Timeout = %v, want default", cfg.Timeout)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/bigcommerce.yaml", nil); err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoad_Invalid(t *testing.T) {
	path := writeConfig(t, `
max_redirects: -1
auth:
  username: admin
`)

	_, err := Load(path, nil)
	if err == nil {
		t.Fatal("Load() should return a validation error")
	}
	for _, want := range []string{"max_redirects", "auth.username"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, true},
		{"port out of range", func(c *Config) { c.Proxy = ProxyConfig{Host: "p", Port: 70000} }, true},
		{"port without host", func(c *Config) { c.Proxy.Port = 8080 }, true},
		{"half oauth", func(c *Config) { c.Auth.Token = "t" }, true},
		{"half basic", func(c *Config) { c.Auth.Password = "p" }, true},
		{"full credentials", func(c *Config) {
			c.Auth = AuthConfig{Username: "u", Password: "p", ClientID: "c", Token: "t"}
		}, false},
		{"negative max wait", func(c *Config) { c.RateLimit.MaxWait = -1 }, true},
		{"unlimited replays", func(c *Config) { c.RateLimit.MaxRetries = -1 }, false},
		{"negative rps", func(c *Config) { c.Throttle.RPS = -1 }, true},
		{"negative burst", func(c *Config) { c.Throttle.Burst = -1 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Connect(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Auth-Client"); got != "client" {
			t.Errorf("X-Auth-Client = %q, want client", got)
		}
		if got := r.Header.Get("X-Store-Hash"); got != "abc" {
			t.Errorf("X-Store-Hash = %q, want abc", got)
		}
		if got := r.Header.Get("User-Agent"); got != "store-sync/1.0" {
			t.Errorf("User-Agent = %q", got)
		}
		if got := r.Header.Get("Accept"); got != "application/xml" {
			t.Errorf("Accept = %q, want application/xml", got)
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := Default()
	cfg.UseXML = true
	cfg.FailOnError = true
	cfg.UserAgent = "store-sync/1.0"
	cfg.Headers = map[string]string{"X-Store-Hash": "abc"}
	cfg.Auth = AuthConfig{ClientID: "client", Token: "token"}

	conn, err := cfg.Connect()
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer conn.Close()

	if _, err := conn.Get(context.Background(), server.URL, nil); err == nil {
		t.Error("expected fail-on-error to return the 404")
	}
	if conn.Status() != http.StatusNotFound {
		t.Errorf("Status() = %d, want 404", conn.Status())
	}
}

func TestConfig_ConnectBadProxy(t *testing.T) {
	cfg := Default()
	cfg.Proxy = ProxyConfig{Host: "ftp://proxy.local", Port: 21}

	if _, err := cfg.Connect(); err == nil {
		t.Error("Connect() should fail for an unsupported proxy scheme")
	}
}
