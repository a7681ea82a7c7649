// Package security keeps provider credentials out of log output.
package security

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces anything that looks like a secret.
const RedactedPlaceholder = "[REDACTED]"

// secretPatterns match credential shapes that may leak into log text.
var secretPatterns = []*regexp.Regexp{
	// OpenAI and Anthropic keys: sk-..., sk-proj-..., sk-svcacct-..., sk-ant-...
	regexp.MustCompile(`sk-[A-Za-z0-9_-]{16,}`),
	// Authorization header values
	regexp.MustCompile(`(?i)bearer\s+[A-Za-z0-9._~+/=-]{16,}`),
	// apiKey: ... / "apiKey":"..." as written by the credential stores
	regexp.MustCompile(`(?i)("?api_?key"?\s*[:=]\s*"?)[^\s",}]{8,}`),
}

// opaqueToken matches long unbroken runs that are almost certainly tokens.
var opaqueToken = regexp.MustCompile(`[A-Za-z0-9_-]{48,}`)

// sensitiveKeys are attribute names whose values are never logged.
var sensitiveKeys = []string{
	"authorization",
	"api_key",
	"apikey",
	"api-key",
	"secret",
	"password",
	"bearer",
	"credential",
}

// Redact replaces secrets in s with RedactedPlaceholder.
func Redact(s string) string {
	if s == "" {
		return s
	}
	for _, p := range secretPatterns {
		if p.NumSubexp() > 0 {
			s = p.ReplaceAllString(s, "${1}"+RedactedPlaceholder)
			continue
		}
		s = p.ReplaceAllString(s, RedactedPlaceholder)
	}
	return opaqueToken.ReplaceAllString(s, RedactedPlaceholder)
}

// IsSensitiveKey reports whether an attribute name is known to carry secrets.
func IsSensitiveKey(key string) bool {
	key = strings.ToLower(key)
	for _, k := range sensitiveKeys {
		if strings.Contains(key, k) {
			return true
		}
	}
	return false
}

// RedactedHandler wraps an slog.Handler and scrubs secrets from every record.
type RedactedHandler struct {
	inner slog.Handler
}

// NewRedactedHandler wraps inner.
func NewRedactedHandler(inner slog.Handler) *RedactedHandler {
	return &RedactedHandler{inner: inner}
}

func (h *RedactedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *RedactedHandler) Handle(ctx context.Context, r slog.Record) error {
	clean := slog.NewRecord(r.Time, r.Level, Redact(r.Message), r.PC)
	r.Attrs(func(a slog.Attr) bool {
		clean.AddAttrs(redactAttr(a))
		return true
	})
	return h.inner.Handle(ctx, clean)
}

func (h *RedactedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	redacted := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		redacted[i] = redactAttr(a)
	}
	return &RedactedHandler{inner: h.inner.WithAttrs(redacted)}
}

func (h *RedactedHandler) WithGroup(name string) slog.Handler {
	return &RedactedHandler{inner: h.inner.WithGroup(name)}
}

func redactAttr(a slog.Attr) slog.Attr {
	if IsSensitiveKey(a.Key) {
		return slog.String(a.Key, RedactedPlaceholder)
	}

	v := a.Value.Resolve()
	switch v.Kind() {
	case slog.KindString:
		return slog.String(a.Key, Redact(v.String()))
	case slog.KindGroup:
		group := v.Group()
		out := make([]any, len(group))
		for i, ga := range group {
			out[i] = redactAttr(ga)
		}
		return slog.Group(a.Key, out...)
	case slog.KindAny:
		switch x := v.Any().(type) {
		case error:
			return slog.String(a.Key, Redact(x.Error()))
		case []string:
			redacted := make([]string, len(x))
			for i, s := range x {
				redacted[i] = Redact(s)
			}
			return slog.Any(a.Key, redacted)
		}
	}
	return slog.Attr{Key: a.Key, Value: v}
}
