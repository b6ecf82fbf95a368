package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"reflect"
	"strings"

	querystring "github.com/google/go-querystring/query"
)

// BasicAuth holds transport-level basic credentials.
type BasicAuth struct {
	Username string
	Password string
}

// Request is one logical call. It is built from the session configuration
// when the call starts and is not modified afterwards, so a rate-limited call
// can be replayed exactly.
type Request struct {
	Method string
	URL    string
	// Query is appended to URL for GET requests. Supported types are
	// url.Values, map[string]string, map[string][]string and map[string]any.
	Query any
	// Payload is sent as the body of POST and PUT requests. Strings and byte
	// slices are sent as-is, anything else is encoded as JSON.
	Payload     any
	Header      http.Header
	ContentType string
	BasicAuth   *BasicAuth
}

// redirectTo derives the GET request that follows a 301/302 response.
// Payload, query and content type are dropped. Basic credentials are only
// forwarded to the same host.
func (r *Request) redirectTo(target string) *Request {
	next := &Request{
		Method: http.MethodGet,
		URL:    target,
		Header: r.Header,
	}
	if r.BasicAuth != nil && sameHost(r.URL, target) {
		next.BasicAuth = r.BasicAuth
	}
	return next
}

func sameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Host, ub.Host)
}

// target returns the request URL with the query appended.
func (r *Request) target() (string, error) {
	if r.Method != http.MethodGet || r.Query == nil {
		return r.URL, nil
	}
	encoded, err := EncodeQuery(r.Query)
	if err != nil {
		return "", err
	}
	if encoded == "" {
		return r.URL, nil
	}
	sep := "?"
	if strings.Contains(r.URL, "?") {
		sep = "&"
	}
	return r.URL + sep + encoded, nil
}

// build creates the outbound request. The returned release func frees the
// body store and must be called once the exchange is finished.
func (r *Request) build(ctx context.Context, storeDir string) (*http.Request, func(), error) {
	noop := func() {}

	target, err := r.target()
	if err != nil {
		return nil, noop, err
	}

	var (
		body   io.Reader
		length int64
	)
	release := noop

	if r.Method == http.MethodPost || r.Method == http.MethodPut {
		payload, err := EncodePayload(r.Payload)
		if err != nil {
			return nil, noop, err
		}
		if r.Method == http.MethodPut {
			store, err := newBodyStore(storeDir, payload)
			if err != nil {
				return nil, noop, fmt.Errorf("create body store: %w", err)
			}
			release = func() { _ = store.Release() }
			body, length = store, store.Size()
		} else if len(payload) > 0 {
			body, length = bytes.NewReader(payload), int64(len(payload))
		}
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		release()
		return nil, noop, &NetworkError{Code: CodeMalformedURL, Method: r.Method, URL: target, Err: err}
	}
	if length == 0 && body != nil {
		req.Body = http.NoBody
	}
	req.ContentLength = length

	for name, values := range r.Header {
		for _, v := range values {
			req.Header.Add(name, v)
		}
	}
	if r.ContentType != "" {
		req.Header.Set("Content-Type", r.ContentType)
	}
	if r.BasicAuth != nil {
		req.SetBasicAuth(r.BasicAuth.Username, r.BasicAuth.Password)
	}

	return req, release, nil
}

// EncodePayload serializes a request payload.
func EncodePayload(payload any) ([]byte, error) {
	switch p := payload.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(p), nil
	case []byte:
		return p, nil
	default:
		data, err := json.Marshal(p)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		return data, nil
	}
}

// EncodeQuery encodes a query as a URL query string.
//
// url.Values and map[string][]string repeat the key for every value. Structs
// are encoded by their `url` tags. Any other map with string keys is walked
// recursively: nested maps become key[sub]=v and slices key[]=v. Nil values
// are omitted.
func EncodeQuery(query any) (string, error) {
	switch q := query.(type) {
	case nil:
		return "", nil
	case url.Values:
		return q.Encode(), nil
	case map[string][]string:
		return url.Values(q).Encode(), nil
	}

	v := reflect.ValueOf(query)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return "", nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		values, err := querystring.Values(v.Interface())
		if err != nil {
			return "", fmt.Errorf("encode query: %w", err)
		}
		return values.Encode(), nil
	case reflect.Map:
		values := make(url.Values)
		if err := addQueryMap(values, "", v); err != nil {
			return "", err
		}
		return values.Encode(), nil
	}
	return "", fmt.Errorf("unsupported query type %T", query)
}

func addQueryMap(values url.Values, prefix string, m reflect.Value) error {
	if m.Type().Key().Kind() != reflect.String {
		return fmt.Errorf("unsupported query key type %s", m.Type().Key())
	}
	iter := m.MapRange()
	for iter.Next() {
		key := iter.Key().String()
		if prefix != "" {
			key = prefix + "[" + key + "]"
		}
		if err := addQueryValue(values, key, iter.Value()); err != nil {
			return err
		}
	}
	return nil
}

func addQueryValue(values url.Values, key string, v reflect.Value) error {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map:
		return addQueryMap(values, key, v)
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			values.Add(key, string(v.Bytes()))
			return nil
		}
		for i := 0; i < v.Len(); i++ {
			if err := addQueryValue(values, key+"[]", v.Index(i)); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return fmt.Errorf("unsupported query value type %s for %q", v.Type(), key)
	}

	values.Add(key, fmt.Sprint(v.Interface()))
	return nil
}
