package command

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	bigcommerce "github.com/bigcommerce/bigcommerce-api-go"
)

func TestApp(t *testing.T) {
	app := App()

	if app.Name != "bcapi" {
		t.Errorf("Name = %q, want bcapi", app.Name)
	}

	want := []string{"get", "post", "put", "delete", "head"}
	if len(app.Commands) != len(want) {
		t.Fatalf("len(Commands) = %d, want %d", len(app.Commands), len(want))
	}
	for i, name := range want {
		if app.Commands[i].Name != name {
			t.Errorf("Commands[%d] = %q, want %q", i, app.Commands[i].Name, name)
		}
	}
}

func TestGlobalFlags(t *testing.T) {
	names := make(map[string]bool)
	for _, f := range globalFlags() {
		for _, n := range f.Names() {
			names[n] = true
		}
	}

	for _, want := range []string{
		"config", "c", "env-file", "xml", "fail-on-error", "timeout",
		"proxy", "proxy-port", "verify-peer", "user", "password",
		"client-id", "token", "header", "H", "verbose", "V",
	} {
		if !names[want] {
			t.Errorf("missing global flag %q", want)
		}
	}
}

// runApp runs the CLI and returns its standard output.
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(append([]string{"bcapi"}, args...))
	return stdout.String(), err
}

func TestGet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("Method = %s, want GET", r.Method)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("limit = %q, want 5", got)
		}
		if got := r.Header.Get("X-Store"); got != "abc" {
			t.Errorf("X-Store = %q, want abc", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":1,"name":"Widget"}`))
	}))
	defer server.Close()

	out, err := runApp(t, "-H", "X-Store: abc", "get", "-q", "limit=5", server.URL+"/products")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if got["name"] != "Widget" {
		t.Errorf("name = %v, want Widget", got["name"])
	}
}

func TestGet_Verbose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-Id", "42")
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	out, err := runApp(t, "--verbose", "get", server.URL)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.HasPrefix(out, "HTTP/1.1 200 OK\n") {
		t.Errorf("output should start with the status line, got:\n%s", out)
	}
	if !strings.Contains(out, "X-Request-Id: 42\n") {
		t.Errorf("output should list headers, got:\n%s", out)
	}
}

func TestPost_BodyFromFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"name":"Widget"}` {
			t.Errorf("body = %q", body)
		}
		if got := r.Header.Get("Content-Type"); got != "application/json" {
			t.Errorf("Content-Type = %q, want application/json", got)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7}`))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "body.json")
	if err := os.WriteFile(path, []byte(`{"name":"Widget"}`), 0644); err != nil {
		t.Fatalf("Failed to write body: %v", err)
	}

	out, err := runApp(t, "post", server.URL, "@"+path)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(out, `"id": 7`) {
		t.Errorf("output = %q", out)
	}
}

func TestPut_XML(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			t.Errorf("Method = %s, want PUT", r.Method)
		}
		if got := r.Header.Get("Accept"); got != "application/xml" {
			t.Errorf("Accept = %q, want application/xml", got)
		}
		w.Write([]byte(`<product><id>7</id></product>`))
	}))
	defer server.Close()

	out, err := runApp(t, "--xml", "put", server.URL, "<product/>")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if out != "<product><id>7</id></product>\n" {
		t.Errorf("output = %q", out)
	}
}

func TestDeleteAndHead(t *testing.T) {
	var methods []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		methods = append(methods, r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	for _, cmd := range []string{"delete", "head"} {
		out, err := runApp(t, cmd, server.URL)
		if err != nil {
			t.Fatalf("%s: Run() error = %v", cmd, err)
		}
		if out != "" {
			t.Errorf("%s: output = %q, want empty", cmd, out)
		}
	}

	if strings.Join(methods, ",") != "DELETE,HEAD" {
		t.Errorf("methods = %v", methods)
	}
}

func TestOAuthFromEnvFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Auth-Client"); got != "env-client" {
			t.Errorf("X-Auth-Client = %q, want env-client", got)
		}
		if got := r.Header.Get("X-Auth-Token"); got != "env-token" {
			t.Errorf("X-Auth-Token = %q, want env-token", got)
		}
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	// godotenv does not override variables that already exist.
	t.Setenv(envClientID, "")
	t.Setenv(envToken, "")
	os.Unsetenv(envClientID)
	os.Unsetenv(envToken)

	path := filepath.Join(t.TempDir(), ".env")
	content := envClientID + "=env-client\n" + envToken + "=env-token\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write env file: %v", err)
	}

	if _, err := runApp(t, "--env-file", path, "get", server.URL); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
}

func TestErrorResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"title":"Product not found"}`))
	}))
	defer server.Close()

	for _, args := range [][]string{
		{"get", server.URL},
		{"--fail-on-error", "get", server.URL},
	} {
		out, err := runApp(t, args...)
		if !errors.Is(err, bigcommerce.ErrNotFound) {
			t.Errorf("%v: error = %v, want ErrNotFound", args, err)
		}
		if args[0] == "get" && !strings.Contains(out, "Product not found") {
			t.Errorf("%v: output should carry the error body, got %q", args, out)
		}
	}
}

func TestArgumentErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"get without url", []string{"get"}},
		{"post without body", []string{"post", "http://localhost"}},
		{"bad header", []string{"-H", "no-colon", "get", "http://localhost"}},
		{"bad query", []string{"get", "-q", "novalue", "http://localhost"}},
		{"missing body file", []string{"post", "http://localhost", "@/nonexistent/body.json"}},
		{"missing config", []string{"-c", "/nonexistent/bigcommerce.yaml", "get", "http://localhost"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := runApp(t, tt.args...); err == nil {
				t.Error("Run() should fail")
			}
		})
	}
}

func TestParseQuery(t *testing.T) {
	q, err := parseQuery([]string{"limit=5", "include=images", "include=variants"})
	if err != nil {
		t.Fatalf("parseQuery() error = %v", err)
	}
	if q.Get("limit") != "5" {
		t.Errorf("limit = %q, want 5", q.Get("limit"))
	}
	if len(q["include"]) != 2 {
		t.Errorf("include = %v, want 2 values", q["include"])
	}

	if q, err := parseQuery(nil); err != nil || q != nil {
		t.Errorf("parseQuery(nil) = %v, %v, want nil, nil", q, err)
	}
}

func TestReadBody(t *testing.T) {
	got, err := readBody(strings.NewReader(`{"from":"stdin"}`), "-")
	if err != nil {
		t.Fatalf("readBody(-) error = %v", err)
	}
	if got != `{"from":"stdin"}` {
		t.Errorf("readBody(-) = %q", got)
	}

	got, err = readBody(nil, `{"inline":true}`)
	if err != nil || got != `{"inline":true}` {
		t.Errorf("readBody(inline) = %q, %v", got, err)
	}
}
