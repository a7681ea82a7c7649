package gateway

import (
	"errors"
	"fmt"
)

// FailureKind classifies why no result reached the caller.
type FailureKind string

const (
	KindUnavailable     FailureKind = "unavailable"
	KindNoResponse      FailureKind = "no_response"
	KindTimeout         FailureKind = "timeout"
	KindInvalidResponse FailureKind = "invalid_response"
	KindGeneric         FailureKind = "generic"
)

// NoticePrefix starts every user-facing failure notice.
const NoticePrefix = "Failed to enhance prompt. "

var (
	// ErrTimeout is the cause of KindTimeout failures.
	ErrTimeout = errors.New("enhancement service response timeout")

	// ErrEmptyEnhancement is the cause of KindInvalidResponse failures.
	ErrEmptyEnhancement = errors.New("invalid response: no enhanced prompt received")
)

// Failure is a channel-level failure: no result object exists to show.
type Failure struct {
	Kind FailureKind
	Err  error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("gateway %s: %v", f.Kind, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Notice returns the text shown to the user.
func (f *Failure) Notice() string {
	switch f.Kind {
	case KindUnavailable:
		return NoticePrefix + "Enhancement service unavailable. Please make sure the server is running and try again."
	case KindNoResponse:
		return NoticePrefix + "Enhancement service not responding. Please restart the server."
	case KindTimeout:
		return NoticePrefix + "The enhancement service did not respond in time. Please try again."
	default:
		return NoticePrefix + "Error: " + causeMessage(f.Err)
	}
}

// Notice renders any error returned by Enhance as user-facing text.
func Notice(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.Notice()
	}
	return NoticePrefix + "Error: " + causeMessage(err)
}

// IsKind reports whether err is a Failure of the given kind.
func IsKind(err error, kind FailureKind) bool {
	var f *Failure
	return errors.As(err, &f) && f.Kind == kind
}

func causeMessage(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}
