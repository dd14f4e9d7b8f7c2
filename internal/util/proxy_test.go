package util

import (
	"net/http"
	"net/url"
	"testing"
)

func clearProxyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HTTP_PROXY", "http_proxy", "HTTPS_PROXY", "https_proxy", "NO_PROXY", "no_proxy", "REQUEST_METHOD"} {
		t.Setenv(key, "")
	}
}

func proxyFor(t *testing.T, fn func(*http.Request) (*url.URL, error), rawURL string) string {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	u, err := fn(req)
	if err != nil {
		t.Fatalf("proxy func failed: %v", err)
	}
	if u == nil {
		return ""
	}
	return u.String()
}

func TestNewProxyFunc(t *testing.T) {
	clearProxyEnv(t)

	tests := []struct {
		name                string
		httpProxy, httpsPrx string
		noProxy             string
		url                 string
		want                string
	}{
		{"no proxy configured", "", "", "", "https://api.coingecko.com/api/v3/ping", ""},
		{"http proxy", "http://proxy:8080", "", "", "http://api.subnet90.com/statements/1", "http://proxy:8080"},
		{"http proxy serves https", "http://proxy:8080", "", "", "https://api.coingecko.com/api/v3/ping", "http://proxy:8080"},
		{"https proxy", "http://proxy:8080", "http://secure:8443", "", "https://api.coingecko.com/api/v3/ping", "http://secure:8443"},
		{"no_proxy bypass", "http://proxy:8080", "", "coingecko.com", "https://api.coingecko.com/api/v3/ping", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := NewProxyFunc(tt.httpProxy, tt.httpsPrx, tt.noProxy)
			if got := proxyFor(t, fn, tt.url); got != tt.want {
				t.Errorf("Expected proxy %q, got %q", tt.want, got)
			}
		})
	}
}

func TestNewProxyFunc_Environment(t *testing.T) {
	clearProxyEnv(t)
	t.Setenv("HTTPS_PROXY", "http://env-proxy:3128")

	fn := NewProxyFunc("", "", "")
	if got := proxyFor(t, fn, "https://api.openai.com/v1/chat/completions"); got != "http://env-proxy:3128" {
		t.Errorf("Expected environment proxy, got %q", got)
	}
}
