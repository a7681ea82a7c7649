// End-to-end tests for the enhancement server.
// They drive the full path: Gateway → HTTP channel → Server → Service →
// OpenAI adapter → mock provider.
package main

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hpn/hpn-prompt-enhancer/internal/adapter"
	"github.com/hpn/hpn-prompt-enhancer/internal/channel"
	"github.com/hpn/hpn-prompt-enhancer/internal/config"
	"github.com/hpn/hpn-prompt-enhancer/internal/credstore"
	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
	"github.com/hpn/hpn-prompt-enhancer/internal/gateway"
	"github.com/hpn/hpn-prompt-enhancer/internal/logging"
	"github.com/hpn/hpn-prompt-enhancer/internal/metrics"
	"github.com/hpn/hpn-prompt-enhancer/internal/recovery"
)

const testAPIKey = "sk-test-0123456789abcdef"

func init() {
	gin.SetMode(gin.TestMode)
}

// ============================================================================
// SETUP HELPERS
// ============================================================================

// mockProvider simulates the OpenAI chat completions endpoint. reply decides
// the response for each call; calls counts every request received.
type mockProvider struct {
	t     *testing.T
	calls atomic.Int32
	reply func(w http.ResponseWriter, r *http.Request, call int)

	mu      sync.Mutex
	lastReq adapter.OpenAIRequest
	lastKey string
}

func (p *mockProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	call := int(p.calls.Add(1))

	if r.URL.Path != "/chat/completions" {
		p.t.Errorf("provider path = %s, want /chat/completions", r.URL.Path)
	}

	var req adapter.OpenAIRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		p.t.Errorf("decode provider request: %v", err)
	}
	p.mu.Lock()
	p.lastReq = req
	p.lastKey = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	p.mu.Unlock()

	p.reply(w, r, call)
}

func (p *mockProvider) Calls() int {
	return int(p.calls.Load())
}

// completion writes a successful chat completion carrying content.
func completion(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(adapter.OpenAIResponse{
		ID:     "chatcmpl-test",
		Object: "chat.completion",
		Model:  domain.DefaultModel,
		Choices: []adapter.OpenAIChoice{{
			Index:        0,
			Message:      adapter.OpenAIMessage{Role: "assistant", Content: content},
			FinishReason: "stop",
		}},
	})
}

func replyWith(content string) func(http.ResponseWriter, *http.Request, int) {
	return func(w http.ResponseWriter, _ *http.Request, _ int) {
		completion(w, content)
	}
}

type testEnv struct {
	provider *mockProvider
	store    *credstore.MemoryStore
	server   *httptest.Server
	metrics  *metrics.Metrics
}

// setupEnv starts a mock provider and the enhancement server in front of it.
func setupEnv(t *testing.T, creds domain.Credentials, reply func(http.ResponseWriter, *http.Request, int)) *testEnv {
	t.Helper()

	provider := &mockProvider{t: t, reply: reply}
	providerSrv := httptest.NewServer(provider)
	t.Cleanup(providerSrv.Close)

	cfg := &config.Configuration{
		Provider: config.ProviderConfig{
			BaseURL:               providerSrv.URL,
			RequestTimeoutSeconds: 5,
		},
	}

	store := credstore.NewMemoryStore(creds)
	m := metrics.New()
	router, _ := newRouter(cfg, store, m, logging.Discard())

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testEnv{provider: provider, store: store, server: srv, metrics: m}
}

func (e *testEnv) gateway(opts ...gateway.Option) *gateway.Gateway {
	opts = append([]gateway.Option{gateway.WithLogger(logging.Discard())}, opts...)
	return gateway.New(channel.NewHTTPSender(e.server.URL, nil), opts...)
}

func enhance(t *testing.T, gw *gateway.Gateway, prompt string) domain.EnhancementResult {
	t.Helper()
	res, err := gw.Enhance(context.Background(), prompt)
	if err != nil {
		t.Fatalf("Enhance(%q) error = %v", prompt, err)
	}
	if res == nil {
		t.Fatalf("Enhance(%q) was dropped", prompt)
	}
	return *res
}

func assertImprovements(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("Improvements = %q, want %q", got, want)
	}
}

// ============================================================================
// HAPPY PATHS
// ============================================================================

func TestE2E_CanonicalReply(t *testing.T) {
	env := setupEnv(t, domain.Credentials{APIKey: testAPIKey},
		replyWith(`{"enhancedPrompt":"Write a 300-word blog post about Go generics for intermediate developers.","improvements":["Added length","Added audience"]}`))

	res := enhance(t, env.gateway(), "write about go generics")

	if res.EnhancedPrompt != "Write a 300-word blog post about Go generics for intermediate developers." {
		t.Errorf("EnhancedPrompt = %q", res.EnhancedPrompt)
	}
	assertImprovements(t, res.Improvements, []string{"Added length", "Added audience"})

	env.provider.mu.Lock()
	req, key := env.provider.lastReq, env.provider.lastKey
	env.provider.mu.Unlock()

	if key != testAPIKey {
		t.Errorf("provider saw key %q, want %q", key, testAPIKey)
	}
	if req.Model != domain.DefaultModel {
		t.Errorf("model = %q, want %q", req.Model, domain.DefaultModel)
	}
	if req.Temperature == nil || *req.Temperature != 0.3 {
		t.Errorf("temperature = %v, want 0.3", req.Temperature)
	}
	if req.MaxTokens == nil || *req.MaxTokens != 1500 {
		t.Errorf("max_tokens = %v, want 1500", req.MaxTokens)
	}
	if len(req.Messages) != 2 || req.Messages[0].Role != "system" || req.Messages[1].Content != "write about go generics" {
		t.Errorf("messages = %+v, want system rubric then user prompt", req.Messages)
	}
}

func TestE2E_FencedReply(t *testing.T) {
	env := setupEnv(t, domain.Credentials{APIKey: testAPIKey},
		replyWith("Here you go:\n```json\n{\"enhancedPrompt\":\"Better\",\"improvements\":[\"Clearer\"]}\n```\nEnjoy!"))

	res := enhance(t, env.gateway(), "make it better")

	if res.EnhancedPrompt != "Better" {
		t.Errorf("EnhancedPrompt = %q, want %q", res.EnhancedPrompt, "Better")
	}
	assertImprovements(t, res.Improvements, []string{"Clearer"})
}

func TestE2E_UnparseableReplyFallsBack(t *testing.T) {
	env := setupEnv(t, domain.Credentials{APIKey: testAPIKey}, replyWith("Sorry, I cannot help with that"))

	res := enhance(t, env.gateway(), "do the thing")

	if res.EnhancedPrompt != "do the thing" {
		t.Errorf("EnhancedPrompt = %q, want original prompt", res.EnhancedPrompt)
	}
	assertImprovements(t, res.Improvements, []string{recovery.TerminalUnparsed, recovery.TerminalAdvice})
}

// ============================================================================
// FALLBACK RESULTS
// ============================================================================

func TestE2E_FallbackResults(t *testing.T) {
	tests := []struct {
		name      string
		creds     domain.Credentials
		prompt    string
		status    int
		wantFirst string
		wantCalls int
	}{
		{
			name:      "empty prompt never leaves the gateway",
			creds:     domain.Credentials{APIKey: testAPIKey},
			prompt:    "",
			wantFirst: domain.MsgNoPrompt,
		},
		{
			name:      "missing key",
			prompt:    "hello",
			wantFirst: domain.MsgMissingAPIKey,
		},
		{
			name:      "malformed key is rejected before the network",
			creds:     domain.Credentials{APIKey: "not-a-key"},
			prompt:    "hello",
			wantFirst: `Error: Invalid OpenAI API key format. Key should start with "sk-"`,
		},
		{
			name:      "unsupported provider",
			creds:     domain.Credentials{APIKey: testAPIKey, Provider: "anthropic"},
			prompt:    "hello",
			wantFirst: "Unsupported provider: anthropic. Please select OpenAI.",
		},
		{
			name:      "provider rejects the key",
			creds:     domain.Credentials{APIKey: testAPIKey},
			prompt:    "hello",
			status:    http.StatusUnauthorized,
			wantFirst: "Error: OpenAI API error: 401 Unauthorized",
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := setupEnv(t, tt.creds, func(w http.ResponseWriter, _ *http.Request, _ int) {
				if tt.status != 0 {
					w.WriteHeader(tt.status)
					w.Write([]byte(`{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`))
					return
				}
				completion(w, `{"enhancedPrompt":"unused","improvements":[]}`)
			})

			res := enhance(t, env.gateway(), tt.prompt)

			if res.EnhancedPrompt != tt.prompt {
				t.Errorf("EnhancedPrompt = %q, want original %q", res.EnhancedPrompt, tt.prompt)
			}
			if len(res.Improvements) != 1 || !strings.HasPrefix(res.Improvements[0], tt.wantFirst) {
				t.Errorf("Improvements = %q, want single entry starting with %q", res.Improvements, tt.wantFirst)
			}
			if got := env.provider.Calls(); got != tt.wantCalls {
				t.Errorf("provider calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestE2E_CredentialsReadPerRequest(t *testing.T) {
	env := setupEnv(t, domain.Credentials{}, replyWith(`{"enhancedPrompt":"done","improvements":[]}`))
	gw := env.gateway()

	first := enhance(t, gw, "hello")
	assertImprovements(t, first.Improvements, []string{domain.MsgMissingAPIKey})

	if err := env.store.Save(context.Background(), domain.Credentials{APIKey: testAPIKey}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	second := enhance(t, gw, "hello")
	if second.EnhancedPrompt != "done" {
		t.Errorf("EnhancedPrompt = %q, want %q after saving a key", second.EnhancedPrompt, "done")
	}
}

// ============================================================================
// GATEWAY BEHAVIOR OVER THE WIRE
// ============================================================================

func TestE2E_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	env := setupEnv(t, domain.Credentials{APIKey: testAPIKey}, func(w http.ResponseWriter, _ *http.Request, _ int) {
		<-release
		completion(w, `{"enhancedPrompt":"first","improvements":[]}`)
	})
	gw := env.gateway()

	var wg sync.WaitGroup
	var first *domain.EnhancementResult
	var firstErr error
	wg.Add(1)
	go func() {
		defer wg.Done()
		first, firstErr = gw.Enhance(context.Background(), "one")
	}()

	deadline := time.Now().Add(2 * time.Second)
	for env.provider.Calls() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if !gw.InFlight() {
		close(release)
		t.Fatal("first call is not in flight")
	}

	second, err := gw.Enhance(context.Background(), "two")
	if err != nil || second != nil {
		t.Errorf("overlapping Enhance() = (%v, %v), want (nil, nil)", second, err)
	}

	close(release)
	wg.Wait()

	if firstErr != nil || first == nil || first.EnhancedPrompt != "first" {
		t.Errorf("first Enhance() = (%v, %v), want result %q", first, firstErr, "first")
	}
	if got := env.provider.Calls(); got != 1 {
		t.Errorf("provider calls = %d, want 1", got)
	}
}

func TestE2E_TimeoutCancelsProviderCall(t *testing.T) {
	providerCancelled := make(chan struct{})
	env := setupEnv(t, domain.Credentials{APIKey: testAPIKey}, func(w http.ResponseWriter, r *http.Request, call int) {
		if call == 1 {
			<-r.Context().Done()
			close(providerCancelled)
			return
		}
		completion(w, `{"enhancedPrompt":"recovered","improvements":["ok"]}`)
	})
	gw := env.gateway(gateway.WithTimeout(150 * time.Millisecond))

	res, err := gw.Enhance(context.Background(), "slow")
	if res != nil || !gateway.IsKind(err, gateway.KindTimeout) {
		t.Fatalf("Enhance() = (%v, %v), want timeout failure", res, err)
	}
	if !strings.HasPrefix(gateway.Notice(err), gateway.NoticePrefix) {
		t.Errorf("Notice() = %q, want prefix %q", gateway.Notice(err), gateway.NoticePrefix)
	}

	select {
	case <-providerCancelled:
	case <-time.After(3 * time.Second):
		t.Fatal("provider request was not cancelled after the gateway timed out")
	}

	// A second call right after the timeout is not dropped.
	fast := enhance(t, gw, "fast")
	if fast.EnhancedPrompt != "recovered" {
		t.Errorf("EnhancedPrompt = %q, want %q", fast.EnhancedPrompt, "recovered")
	}
}

func TestE2E_ServerUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	gw := gateway.New(channel.NewHTTPSender(url, nil), gateway.WithLogger(logging.Discard()))

	res, err := gw.Enhance(context.Background(), "hello")
	if res != nil || !gateway.IsKind(err, gateway.KindUnavailable) {
		t.Fatalf("Enhance() = (%v, %v), want unavailable failure", res, err)
	}
	want := "Failed to enhance prompt. Enhancement service unavailable."
	if !strings.HasPrefix(gateway.Notice(err), want) {
		t.Errorf("Notice() = %q, want prefix %q", gateway.Notice(err), want)
	}
}

func TestE2E_MetricsRecorded(t *testing.T) {
	env := setupEnv(t, domain.Credentials{APIKey: testAPIKey},
		replyWith(`{"enhancedPrompt":"X","improvements":[]}`))

	enhance(t, env.gateway(), "hello")

	resp, err := http.Get(env.server.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read /metrics: %v", err)
	}

	for _, want := range []string{
		`enhancer_enhancements_total{outcome="ok"} 1`,
		`enhancer_recovery_strategy_total{strategy="whole_text"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestE2E_ForeignOriginCannotSpendKey(t *testing.T) {
	env := setupEnv(t, domain.Credentials{APIKey: testAPIKey},
		replyWith(`{"enhancedPrompt":"free completion","improvements":[]}`))

	req, err := http.NewRequest(http.MethodPost, env.server.URL+channel.MessagesPath,
		strings.NewReader(`{"name":"enhance","body":{"prompt":"hello"}}`))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://evil.example")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("POST error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusForbidden)
	}
	if got := env.provider.Calls(); got != 0 {
		t.Errorf("provider calls = %d, want 0", got)
	}
}
