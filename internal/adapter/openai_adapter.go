// Package adapter provides implementations for external AI provider integrations.
package adapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hpn/hpn-prompt-enhancer/internal/domain"
)

const (
	// DefaultOpenAIBaseURL is the default OpenAI API endpoint.
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 60 * time.Second

	// OpenAIKeyPrefix is the prefix every OpenAI secret key carries.
	OpenAIKeyPrefix = "sk-"

	// Fixed sampling parameters for enhancement requests.
	enhanceTemperature = 0.3
	enhanceMaxTokens   = 1500

	// maxErrorBodyLen caps how much of an error body is kept.
	maxErrorBodyLen = 500

	openAIDisplayName = "OpenAI"
)

const invalidKeyFormatMsg = `Invalid OpenAI API key format. Key should start with "sk-"`

// EnhancementRubric is the system instruction sent with every request.
const EnhancementRubric = `You are a prompt enhancement specialist. Your job is to improve user prompts to make them more effective for AI interactions.

Analyze the given prompt and enhance it by:
1. Making instructions clearer and more specific
2. Identifying and addressing hidden assumptions
3. Adding relevant context that might be missing
4. Structuring the request for better AI understanding
5. Ensuring the tone and format are appropriate

Return your response as JSON with this exact structure:
{
  "enhancedPrompt": "the improved version of the prompt",
  "improvements": ["list of specific improvements made"]
}

Do not include any text outside the JSON response.`

// OpenAIAdapter implements Provider for the OpenAI chat completions API.
// The API key is supplied per call so credentials are never held between requests.
type OpenAIAdapter struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// OpenAIAdapterOption is a functional option for configuring OpenAIAdapter.
type OpenAIAdapterOption func(*OpenAIAdapter)

// WithBaseURL sets a custom base URL for the OpenAI API.
func WithBaseURL(url string) OpenAIAdapterOption {
	return func(a *OpenAIAdapter) {
		a.baseURL = strings.TrimSuffix(url, "/")
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) OpenAIAdapterOption {
	return func(a *OpenAIAdapter) {
		a.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) OpenAIAdapterOption {
	return func(a *OpenAIAdapter) {
		a.httpClient.Timeout = timeout
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) OpenAIAdapterOption {
	return func(a *OpenAIAdapter) {
		a.logger = logger
	}
}

// NewOpenAIAdapter creates a new OpenAIAdapter.
func NewOpenAIAdapter(opts ...OpenAIAdapterOption) *OpenAIAdapter {
	a := &OpenAIAdapter{
		baseURL: DefaultOpenAIBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Name returns the provider identifier.
func (a *OpenAIAdapter) Name() string {
	return string(domain.ProviderOpenAI)
}

// Complete performs one chat completion and returns the first choice's content.
// A key without the "sk-" prefix is rejected before any network call.
func (a *OpenAIAdapter) Complete(ctx context.Context, prompt string, creds domain.Credentials) (string, error) {
	a.logger.Debug("openai key check",
		slog.Bool("has_key", creds.APIKey != ""),
		slog.Int("key_length", len(creds.APIKey)),
		slog.Bool("format_valid", strings.HasPrefix(creds.APIKey, OpenAIKeyPrefix)),
	)

	if !strings.HasPrefix(creds.APIKey, OpenAIKeyPrefix) {
		return "", &domain.FormatError{Provider: openAIDisplayName, Msg: invalidKeyFormatMsg}
	}

	model := creds.Model
	if model == "" {
		model = domain.DefaultModel
	}

	body, err := json.Marshal(buildEnhanceRequest(model, prompt))
	if err != nil {
		return "", fmt.Errorf("failed to marshal openai request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+creds.APIKey)

	start := time.Now()
	resp, err := a.httpClient.Do(httpReq)
	if err != nil {
		return "", &domain.TransportError{Provider: openAIDisplayName, Err: err}
	}
	defer resp.Body.Close()

	a.logger.Debug("openai response received",
		slog.Int("status", resp.StatusCode),
		slog.String("model", model),
		slog.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLen))
		var apiErr OpenAIError
		if json.Unmarshal(errBody, &apiErr) == nil && apiErr.Error.Message != "" {
			a.logger.Warn("openai api error",
				slog.Int("status", resp.StatusCode),
				slog.String("type", apiErr.Error.Type),
				slog.String("message", apiErr.Error.Message),
			)
		}
		return "", &domain.TransportError{
			Provider:   openAIDisplayName,
			StatusCode: resp.StatusCode,
			Status:     http.StatusText(resp.StatusCode),
			Body:       strings.TrimSpace(string(errBody)),
		}
	}

	var completion OpenAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&completion); err != nil {
		return "", &domain.ContentError{Provider: openAIDisplayName, Err: fmt.Errorf("decode completion: %w", err)}
	}

	if len(completion.Choices) == 0 || completion.Choices[0].Message.Content == "" {
		return "", &domain.ContentError{Provider: openAIDisplayName}
	}

	return completion.Choices[0].Message.Content, nil
}

// buildEnhanceRequest assembles the fixed request shape: rubric, user turn,
// temperature 0.3 and a 1500 token cap.
func buildEnhanceRequest(model, prompt string) OpenAIRequest {
	temperature := enhanceTemperature
	maxTokens := enhanceMaxTokens

	return OpenAIRequest{
		Model: model,
		Messages: []OpenAIMessage{
			{Role: "system", Content: EnhancementRubric},
			{Role: "user", Content: prompt},
		},
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}
}
