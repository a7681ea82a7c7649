package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Improvement texts used by the fallback results.
const (
	MsgNoPrompt            = "No prompt provided"
	MsgMissingAPIKey       = "API key not configured. Please set up your API key with `enhance config set`."
	msgUnsupportedProvider = "Unsupported provider: %s. Please select OpenAI."
)

// EnhancementRequest is the input to one enhancement.
type EnhancementRequest struct {
	Prompt string `json:"prompt"`
}

// Blank reports whether the prompt is empty or whitespace only.
func (r EnhancementRequest) Blank() bool {
	return strings.TrimSpace(r.Prompt) == ""
}

// EnhancementResult is the structured output of an enhancement.
// On every fallback path EnhancedPrompt echoes the input and Improvements
// carries at least one explanatory entry.
type EnhancementResult struct {
	EnhancedPrompt string   `json:"enhancedPrompt"`
	Improvements   []string `json:"improvements"`
}

// NoPromptResult is returned for blank prompts.
func NoPromptResult(prompt string) EnhancementResult {
	return ErrorResult(prompt, &ValidationError{Msg: MsgNoPrompt})
}

// MissingKeyResult is returned when no API key is stored.
func MissingKeyResult(prompt string) EnhancementResult {
	return ErrorResult(prompt, &ConfigurationError{Key: KeyAPIKey, Msg: MsgMissingAPIKey})
}

// UnsupportedProviderResult names the provider that has no adapter.
func UnsupportedProviderResult(prompt, provider string) EnhancementResult {
	return ErrorResult(prompt, &ConfigurationError{Key: KeyProvider, Msg: fmt.Sprintf(msgUnsupportedProvider, provider)})
}

// ErrorResult converts any failure below the service boundary into a result.
// Validation and configuration errors carry user-facing text and are shown
// as is; anything else is prefixed with "Error: ".
func ErrorResult(prompt string, err error) EnhancementResult {
	var (
		validationErr *ValidationError
		configErr     *ConfigurationError
	)

	switch {
	case err == nil:
		return fallback(prompt, "Error: unknown error")
	case errors.As(err, &validationErr):
		return fallback(prompt, validationErr.Msg)
	case errors.As(err, &configErr):
		return fallback(prompt, configErr.Msg)
	default:
		return fallback(prompt, "Error: "+err.Error())
	}
}

func fallback(prompt string, improvements ...string) EnhancementResult {
	return EnhancementResult{
		EnhancedPrompt: prompt,
		Improvements:   improvements,
	}
}
