package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"
)

func TestConfigured(t *testing.T) {
	if NewClient("", "gemini-1.5-flash", time.Second).Configured() {
		t.Error("client without api key must report unconfigured")
	}
	if !NewClient("test-key", "gemini-1.5-flash", time.Second).Configured() {
		t.Error("client with api key must report configured")
	}
}

func TestGenerateContentWithoutKey(t *testing.T) {
	c := NewClient("", "gemini-1.5-flash", time.Second)
	if _, err := c.GenerateContent(context.Background(), "hello"); !errors.Is(err, ErrNoAPIKey) {
		t.Errorf("Expected ErrNoAPIKey, got %v", err)
	}
}

func TestIsTransient(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"5xx", &TransientError{StatusCode: 503, Body: "overloaded"}, true},
		{"wrapped 5xx", fmt.Errorf("HTTP请求失败: %w", &TransientError{StatusCode: 500}), true},
		{"network error", &url.Error{Op: "Post", URL: "https://example.com", Err: errors.New("connection refused")}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"4xx is permanent", fmt.Errorf("gemini HTTP 400: bad request"), false},
		{"validation error", errors.New("llm returned zero sections"), false},
	}
	for _, c := range cases {
		if got := IsTransient(c.err); got != c.want {
			t.Errorf("IsTransient(%s) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate([]byte("short"), 10); got != "short" {
		t.Errorf("truncate short = %q", got)
	}
	if got := truncate([]byte("0123456789abc"), 10); got != "0123456789..." {
		t.Errorf("truncate long = %q", got)
	}
}
