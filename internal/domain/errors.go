package domain

import (
	"errors"
	"fmt"
)

// ErrorClass groups failures that can occur while enhancing a prompt.
type ErrorClass string

const (
	ClassValidation    ErrorClass = "validation"
	ClassConfiguration ErrorClass = "configuration"
	ClassFormat        ErrorClass = "format"
	ClassTransport     ErrorClass = "transport"
	ClassContent       ErrorClass = "content"
	// ClassParse is never raised: the recovery parser always resolves to a result.
	ClassParse ErrorClass = "parse"
	// ClassUnknown covers errors outside the taxonomy.
	ClassUnknown ErrorClass = "unknown"
)

// ValidationError reports an unusable request.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Credential fields named by ConfigurationError.Key.
const (
	KeyAPIKey   = "apiKey"
	KeyProvider = "provider"
)

// ConfigurationError reports missing or unsupported credentials.
type ConfigurationError struct {
	Key string // credential field at fault
	Msg string
}

func (e *ConfigurationError) Error() string {
	return e.Msg
}

// FormatError reports a credential that fails its shape check.
type FormatError struct {
	Provider string
	Msg      string
}

func (e *FormatError) Error() string {
	return e.Msg
}

// TransportError reports a non-success HTTP status or a network failure.
// StatusCode is zero when no response was received.
type TransportError struct {
	Provider   string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s network error: %v", e.Provider, e.Err)
	}
	msg := fmt.Sprintf("%s API error: %d %s", e.Provider, e.StatusCode, e.Status)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ContentError reports a completion with nothing usable in it.
type ContentError struct {
	Provider string
	Err      error
}

func (e *ContentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("No response content from %s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("No response content from %s", e.Provider)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// Classify maps an error chain onto the error taxonomy.
func Classify(err error) ErrorClass {
	var (
		validationErr *ValidationError
		configErr     *ConfigurationError
		formatErr     *FormatError
		transportErr  *TransportError
		contentErr    *ContentError
	)

	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return ClassValidation
	case errors.As(err, &configErr):
		return ClassConfiguration
	case errors.As(err, &formatErr):
		return ClassFormat
	case errors.As(err, &transportErr):
		return ClassTransport
	case errors.As(err, &contentErr):
		return ClassContent
	default:
		return ClassUnknown
	}
}
