package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
)

const testToken = "53616c7465645f5f0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcd"

// TestSecureHandler_SanitizesSensitiveKeys tests that sensitive keys are sanitized.
func TestSecureHandler_SanitizesSensitiveKeys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		key      string
		value    string
		wantMask bool
	}{
		{name: "credential key is sanitized", key: "credential", value: "abc123", wantMask: true},
		{name: "Cookie key (uppercase) is sanitized", key: "Cookie", value: "session=abc123", wantMask: true},
		{name: "session key is sanitized", key: "session", value: "abc123", wantMask: true},
		{name: "token key is sanitized", key: "token", value: "xyz789", wantMask: true},
		{name: "key containing session is sanitized", key: "session_cookie", value: "abc123", wantMask: true},
		{name: "authorization key is sanitized", key: "authorization", value: "Bearer abc", wantMask: true},
		{name: "identity key is NOT sanitized", key: "identity", value: "1234567", wantMask: false},
		{name: "path key is NOT sanitized", key: "path", value: "2015/day/1/input", wantMask: false},
		{name: "stem key is NOT sanitized", key: "stem", value: "ba7816bf8f01cfea", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)
			logger.Info("test message", tt.key, tt.value)

			output := buf.String()
			if tt.wantMask {
				if strings.Contains(output, tt.value) {
					t.Errorf("expected value %q to be masked: %s", tt.value, output)
				}
				if !strings.Contains(output, MaskValue) {
					t.Errorf("expected mask value in output: %s", output)
				}
			} else if !strings.Contains(output, tt.value) {
				t.Errorf("expected value %q in output: %s", tt.value, output)
			}
		})
	}
}

// TestSecureHandler_SanitizesSensitiveValues tests value pattern matching.
func TestSecureHandler_SanitizesSensitiveValues(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		value    string
		wantMask bool
	}{
		{name: "long hex token", value: testToken, wantMask: true},
		{name: "bearer token", value: "Bearer abcdef", wantMask: true},
		{name: "cookie pair", value: "session=deadbeef", wantMask: true},
		{name: "short hex stem", value: "ba7816bf8f01cfea", wantMask: false},
		{name: "plain text", value: "downloading", wantMask: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger := NewSecureLogger(&buf, true)
			logger.Info("test", "value", tt.value)

			output := buf.String()
			if got := strings.Contains(output, tt.value); got == tt.wantMask {
				t.Errorf("masked = %v, want %v: %s", !got, tt.wantMask, output)
			}
		})
	}
}

func TestSecureHandler_MasksEmbeddedCookies(t *testing.T) {
	t.Parallel()

	t.Run("in string values", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)
		logger.Info("request", "header", "Cookie: session=feedface; other=1")

		output := buf.String()
		if strings.Contains(output, "feedface") {
			t.Errorf("cookie leaked: %s", output)
		}
		if !strings.Contains(output, "other=1") {
			t.Errorf("unrelated text removed: %s", output)
		}
	})

	t.Run("in errors", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)
		err := fmt.Errorf("wrapped: %w", errors.New("bad header session=feedface"))
		logger.Warn("fetch failed", "err", err)

		if strings.Contains(buf.String(), "feedface") {
			t.Errorf("cookie leaked: %s", buf.String())
		}
	})

	t.Run("in the message", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, true)
		logger.Info("sent session=feedface")

		if strings.Contains(buf.String(), "feedface") {
			t.Errorf("cookie leaked: %s", buf.String())
		}
	})
}

// TestSecureHandler_Groups tests nested attribute groups.
func TestSecureHandler_Groups(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true)
	logger.Info("registry", slog.Group("entry", slog.String("identity", "42"), slog.String("credential", "abc123")))

	output := buf.String()
	if strings.Contains(output, "abc123") {
		t.Errorf("credential leaked in group: %s", output)
	}
	if !strings.Contains(output, "entry.identity=42") {
		t.Errorf("identity missing: %s", output)
	}
}

// TestSecureHandler_WithAttrs tests attributes bound to a derived logger.
func TestSecureHandler_WithAttrs(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewSecureLogger(&buf, true).With("cookie", "session=abc123", "identity", "42")
	logger.WithGroup("crawl").Info("start", "year", 2015)

	output := buf.String()
	if strings.Contains(output, "abc123") {
		t.Errorf("cookie leaked: %s", output)
	}
	if !strings.Contains(output, "identity=42") || !strings.Contains(output, "crawl.year=2015") {
		t.Errorf("unexpected output: %s", output)
	}
}

// TestNewSecureLogger_Levels tests level selection.
func TestNewSecureLogger_Levels(t *testing.T) {
	t.Parallel()

	t.Run("non-verbose hides debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := NewSecureLogger(&buf, false)
		logger.Debug("hidden")
		logger.Info("shown")

		output := buf.String()
		if strings.Contains(output, "hidden") || !strings.Contains(output, "shown") {
			t.Errorf("unexpected output: %s", output)
		}
	})

	t.Run("verbose shows debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		NewSecureLogger(&buf, true).Debug("visible")
		if !strings.Contains(buf.String(), "visible") {
			t.Errorf("debug message missing: %s", buf.String())
		}
	})
}

// TestNewSecureJSONLogger tests JSON output.
func TestNewSecureJSONLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewSecureJSONLogger(&buf, false).Info("registered", "identity", "42", "credential", testToken)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if entry["credential"] != MaskValue {
		t.Errorf("credential = %v, want mask", entry["credential"])
	}
	if entry["identity"] != "42" {
		t.Errorf("identity = %v", entry["identity"])
	}
}

func TestNewSecureHandler_NilUsesDefault(t *testing.T) {
	t.Parallel()

	h := NewSecureHandler(nil)
	if h.handler == nil {
		t.Error("expected default handler")
	}
}
