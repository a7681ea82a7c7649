package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
)

func init() {
	color.NoColor = true
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	PrintResult(&buf, domain.EnhancementResult{
		EnhancedPrompt: "Write a haiku about autumn leaves.",
		Improvements:   []string{"Added subject", "Specified form"},
	})

	out := buf.String()
	for _, want := range []string{"ENHANCED", "Write a haiku about autumn leaves.", "Improvements:", "• Added subject", "• Specified form"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintCredentials_MasksKey(t *testing.T) {
	var buf bytes.Buffer
	PrintCredentials(&buf, domain.Credentials{
		APIKey:   "sk-proj-1234567890abcdef",
		Provider: "openai",
		Model:    "gpt-4o-mini",
	}, "/tmp/credentials.yaml")

	out := buf.String()
	if strings.Contains(out, "1234567890") {
		t.Errorf("output leaks key:\n%s", out)
	}
	if !strings.Contains(out, "sk-proj-...cdef") {
		t.Errorf("output missing masked key:\n%s", out)
	}

	buf.Reset()
	PrintCredentials(&buf, domain.Credentials{}, "memory")
	if !strings.Contains(buf.String(), "not configured") {
		t.Errorf("output = %q, want not configured", buf.String())
	}
}

func TestWrap(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  []string
	}{
		{"fits", "one two", 10, []string{"one two"}},
		{"breaks on space", "one two three", 8, []string{"one two", "three"}},
		{"keeps newlines", "a\n\nb", 10, []string{"a", "", "b"}},
		{"splits long word", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"multibyte", "héllo wörld", 5, []string{"héllo", "wörld"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrap(tt.in, tt.width)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("wrap(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestPrintStartupInfo(t *testing.T) {
	var buf bytes.Buffer
	PrintStartupInfo(&buf, "127.0.0.1:8787", "file", []string{"openai"})

	out := buf.String()
	for _, want := range []string{"http://127.0.0.1:8787", "file", "openai", "/v1/messages", "/health"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}
