package api

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strings"
)

// Response is the captured result of one exchange.
type Response struct {
	StatusCode int
	// StatusLine is the first line of the response, e.g. "HTTP/1.1 200 OK".
	StatusLine string
	// Header holds one value per header name; the last occurrence wins.
	Header map[string]string
	Body   []byte
	// URL is the URL the response was received from.
	URL *url.URL
}

// readResponse drains and closes resp and captures its status, headers and body.
func readResponse(resp *http.Response) (*Response, error) {
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	r := &Response{
		StatusCode: resp.StatusCode,
		Body:       body,
	}
	if resp.Request != nil {
		r.URL = resp.Request.URL
	}
	r.StatusLine, r.Header = ParseHeaderLines(headerLines(resp))
	return r, nil
}

// headerLines renders the status line and header block of resp, one line per
// header value.
func headerLines(resp *http.Response) []string {
	proto := resp.Proto
	if proto == "" {
		proto = "HTTP/1.1"
	}
	status := resp.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	}

	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names)+1)
	lines = append(lines, proto+" "+status+"\r\n")
	for _, name := range names {
		for _, v := range resp.Header[name] {
			lines = append(lines, name+": "+v+"\r\n")
		}
	}
	return lines
}

// ParseHeaderLines parses a raw response header block. The first line that
// starts with "HTTP/" is the status line. Lines of the form "Name: Value"
// populate the header map, the last occurrence of a name winning. Any other
// line is ignored.
func ParseHeaderLines(lines []string) (statusLine string, header map[string]string) {
	header = make(map[string]string)
	for _, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		if statusLine == "" && strings.HasPrefix(line, "HTTP/") {
			statusLine = line
			continue
		}
		name, value, ok := strings.Cut(line, ": ")
		if !ok {
			continue
		}
		header[name] = strings.TrimSpace(value)
	}
	return statusLine, header
}

// Get returns the value of a response header. The exact name is tried first,
// then its canonical form.
func (r *Response) Get(name string) (string, bool) {
	if v, ok := r.Header[name]; ok {
		return v, true
	}
	v, ok := r.Header[textproto.CanonicalMIMEHeaderKey(name)]
	return v, ok
}

// Decode returns the body in its decoded form. In XML mode the raw text is
// returned. In JSON mode the body is parsed into a generic value with
// integers as int64 and other numbers as float64; an empty or unparsable body
// yields nil.
func (r *Response) Decode(useXML bool) any {
	if useXML {
		return string(r.Body)
	}
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	dec := json.NewDecoder(bytes.NewReader(r.Body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil
	}
	return normalizeNumbers(v)
}

// normalizeNumbers replaces json.Number values in a decoded document with
// int64 when the literal is an integer that fits, float64 otherwise.
func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
	case []any:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	}
	return v
}

// DecodeInto decodes the body into v with the codec for the current mode.
// An empty body leaves v untouched.
func (r *Response) DecodeInto(useXML bool, v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if useXML {
		if err := xml.Unmarshal(r.Body, v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
