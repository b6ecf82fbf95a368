package api

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
)

// DefaultMaxRedirects is the default length limit of a redirect chain.
const DefaultMaxRedirects = 20

// RedirectPolicy configures manual redirect following.
type RedirectPolicy struct {
	Follow       bool
	MaxRedirects int
}

// DefaultRedirectPolicy returns the default redirect policy.
func DefaultRedirectPolicy() RedirectPolicy {
	return RedirectPolicy{Follow: true, MaxRedirects: DefaultMaxRedirects}
}

// IsRedirect reports whether code is a status the client follows.
// Only 301 and 302 are handled.
func IsRedirect(code int) bool {
	return code == http.StatusMovedPermanently || code == http.StatusFound
}

// allows reports whether the n-th redirect of a chain may be followed.
// A chain reaching MaxRedirects fails, so at most MaxRedirects-1 hops are made.
func (p RedirectPolicy) allows(n int) bool {
	return n < p.MaxRedirects
}

// ResolveLocation resolves a Location header value against the URL of the
// request that produced it. Absolute locations are returned unchanged. An
// empty location points at the root of the original host.
func ResolveLocation(base *url.URL, location string) (string, error) {
	location = strings.TrimSpace(location)
	loc, err := url.Parse(location)
	if err != nil {
		return "", err
	}
	if loc.Scheme != "" && loc.Host != "" {
		return loc.String(), nil
	}
	if base == nil {
		return "", &url.Error{Op: "resolve", URL: location, Err: errNoBaseURL}
	}
	if location == "" {
		loc = &url.URL{Path: "/"}
	}
	return base.ResolveReference(loc).String(), nil
}

var errNoBaseURL = errors.New("relative location without a request URL")
