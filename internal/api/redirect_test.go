package api

import (
	"net/url"
	"testing"
)

func TestIsRedirect(t *testing.T) {
	tests := []struct {
		code int
		want bool
	}{
		{301, true},
		{302, true},
		{200, false},
		{303, false},
		{304, false},
		{307, false},
		{308, false},
	}

	for _, tt := range tests {
		if got := IsRedirect(tt.code); got != tt.want {
			t.Errorf("IsRedirect(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestRedirectPolicy_Allows(t *testing.T) {
	p := DefaultRedirectPolicy()

	if !p.allows(19) {
		t.Error("allows(19) = false, want true")
	}
	if p.allows(20) {
		t.Error("allows(20) = true, want false")
	}
}

func TestResolveLocation(t *testing.T) {
	base, _ := url.Parse("https://store.example.com:8443/api/v2/products?page=2")

	tests := []struct {
		name     string
		location string
		want     string
	}{
		{"absolute", "https://other.example.com/x", "https://other.example.com/x"},
		{"root relative", "/api/v3/products", "https://store.example.com:8443/api/v3/products"},
		{"path relative", "categories", "https://store.example.com:8443/api/v2/categories"},
		{"empty", "", "https://store.example.com:8443/"},
		{"with query", "/search?q=hat", "https://store.example.com:8443/search?q=hat"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveLocation(base, tt.location)
			if err != nil {
				t.Fatalf("ResolveLocation() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveLocation(%q) = %q, want %q", tt.location, got, tt.want)
			}
		})
	}
}

func TestResolveLocation_Errors(t *testing.T) {
	if _, err := ResolveLocation(nil, "/relative"); err == nil {
		t.Error("expected error for relative location without base")
	}

	base, _ := url.Parse("https://store.example.com/")
	if _, err := ResolveLocation(base, "http://[::1"); err == nil {
		t.Error("expected error for malformed location")
	}
}
