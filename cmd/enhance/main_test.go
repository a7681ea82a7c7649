package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/fatih/color"
	"github.com/hpn/hpn-prompt-enhancer/internal/adapter"
	"github.com/hpn/hpn-prompt-enhancer/internal/config"
	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	color.NoColor = true
}

// writeConfig writes a config.yaml pointing the store into a temp dir and
// the provider at providerURL.
func writeConfig(t *testing.T, providerURL, serverURL string) string {
	t.Helper()
	config.ResetConfig()
	t.Cleanup(config.ResetConfig)

	dir := t.TempDir()
	if providerURL == "" {
		providerURL = "http://127.0.0.1:1"
	}
	if serverURL == "" {
		serverURL = "http://127.0.0.1:1"
	}

	body := fmt.Sprintf(`gateway:
  server_url: %q
  timeout_ms: 2000
provider:
  base_url: %q
store:
  driver: file
  path: %q
logging:
  level: error
`, serverURL, providerURL, filepath.Join(dir, "credentials.yaml"))

	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func execute(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	config.ResetConfig()

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// fakeOpenAI answers every chat completion with content.
func fakeOpenAI(t *testing.T, content string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(adapter.OpenAIResponse{
			Choices: []adapter.OpenAIChoice{{Message: adapter.OpenAIMessage{Role: "assistant", Content: content}}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestRootHelp(t *testing.T) {
	out, _, err := execute(t, "", "--help")
	require.NoError(t, err)
	assert.Contains(t, out, "run")
	assert.Contains(t, out, "config")
}

func TestConfigSetShowClear(t *testing.T) {
	cfgPath := writeConfig(t, "", "")

	out, _, err := execute(t, "", "--config", cfgPath, "config", "set", "--api-key", "sk-proj-1234567890abcdef", "--model", "gpt-4o")
	require.NoError(t, err)
	assert.Contains(t, out, "Credentials saved")

	out, _, err = execute(t, "", "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "sk-proj-...cdef")
	assert.Contains(t, out, "gpt-4o")
	assert.Contains(t, out, "openai")
	assert.NotContains(t, out, "1234567890")

	_, _, err = execute(t, "", "--config", cfgPath, "config", "clear")
	require.NoError(t, err)

	out, _, err = execute(t, "", "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "not configured")
	assert.Contains(t, out, "gpt-4o", "clear keeps the model")
}

func TestConfigSet_Rejects(t *testing.T) {
	cfgPath := writeConfig(t, "", "")

	_, _, err := execute(t, "", "--config", cfgPath, "config", "set", "--provider", "cohere")
	require.Error(t, err)
	assert.True(t, config.IsInvalidValueError(err), "err = %v", err)

	_, _, err = execute(t, "", "--config", cfgPath, "config", "set")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to set")

	out, _, err := execute(t, "", "--config", cfgPath, "config", "set", "--api-key", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nothing to set")
	assert.NotContains(t, out, "Credentials saved")
}

func TestConfigSet_TrimsKey(t *testing.T) {
	cfgPath := writeConfig(t, "", "")

	_, _, err := execute(t, "", "--config", cfgPath, "config", "set", "--api-key", "  sk-proj-1234567890abcdef\n")
	require.NoError(t, err)

	out, _, err := execute(t, "", "--config", cfgPath, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "sk-proj-...cdef")
}

func TestRun_Local(t *testing.T) {
	provider, calls := fakeOpenAI(t, `{"enhancedPrompt":"Write a sonnet about the sea.","improvements":["Named the form"]}`)
	cfgPath := writeConfig(t, provider.URL, "")

	_, _, err := execute(t, "", "--config", cfgPath, "config", "set", "--api-key", "sk-test-abcdefghijkl")
	require.NoError(t, err)

	out, _, err := execute(t, "", "--config", cfgPath, "run", "--local", "write", "a", "poem")
	require.NoError(t, err)
	assert.Contains(t, out, "Write a sonnet about the sea.")
	assert.Contains(t, out, "Named the form")
	assert.Equal(t, int32(1), calls.Load())
}

func TestRun_LocalJSONFromStdin(t *testing.T) {
	provider, _ := fakeOpenAI(t, "```json\n{\"enhancedPrompt\":\"Better\",\"improvements\":[]}\n```")
	cfgPath := writeConfig(t, provider.URL, "")

	_, _, err := execute(t, "", "--config", cfgPath, "config", "set", "--api-key", "sk-test-abcdefghijkl")
	require.NoError(t, err)

	out, _, err := execute(t, "make it better\n", "--config", cfgPath, "run", "--local", "--json")
	require.NoError(t, err)

	var res domain.EnhancementResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "Better", res.EnhancedPrompt)
	assert.Empty(t, res.Improvements)
}

func TestRun_LocalWithoutKey(t *testing.T) {
	provider, calls := fakeOpenAI(t, "unused")
	cfgPath := writeConfig(t, provider.URL, "")

	out, _, err := execute(t, "", "--config", cfgPath, "run", "--local", "hello")
	require.NoError(t, err)
	assert.Contains(t, out, "API key not configured")
	assert.Zero(t, calls.Load())
}

func TestRun_ServerUnavailable(t *testing.T) {
	down := httptest.NewServer(http.NotFoundHandler())
	url := down.URL
	down.Close()

	cfgPath := writeConfig(t, "", url)

	out, stderr, err := execute(t, "", "--config", cfgPath, "run", "hello")
	require.Error(t, err)

	var ece *exitCodeError
	require.True(t, errors.As(err, &ece))
	assert.Equal(t, ExitFailure, ece.code)
	assert.Empty(t, out)
	assert.Contains(t, stderr, "Failed to enhance prompt. Enhancement service unavailable.")
}

func TestReadPrompt(t *testing.T) {
	got, err := readPrompt([]string{"a", "b"}, strings.NewReader("ignored"))
	require.NoError(t, err)
	assert.Equal(t, "a b", got)

	got, err = readPrompt(nil, strings.NewReader("from stdin\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", got)
}
