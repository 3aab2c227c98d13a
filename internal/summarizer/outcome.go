package summarizer

import (
	"errors"
	"time"
)

// Kind classifies why a summarization attempt failed.
type Kind string

const (
	KindInvalidInput      Kind = "InvalidInput"
	KindMissingCredential Kind = "MissingCredential"
	KindNetworkError      Kind = "NetworkError"
	KindAuthError         Kind = "AuthError"
	KindRateLimited       Kind = "RateLimited"
	KindModelLoading      Kind = "ModelLoading"
	KindEndpointNotFound  Kind = "EndpointNotFound"
	KindEndpointGone      Kind = "EndpointGone"
	KindUpstreamError     Kind = "UpstreamError"
	KindHTTPError         Kind = "HttpError"
	KindMalformedResponse Kind = "MalformedResponse"
)

// Local reports whether the kind is decided before any network call.
func (k Kind) Local() bool {
	return k == KindInvalidInput || k == KindMissingCredential
}

// Transient reports whether a later attempt may succeed without any change
// on the caller side.
func (k Kind) Transient() bool {
	switch k {
	case KindModelLoading, KindRateLimited, KindNetworkError:
		return true
	default:
		return false
	}
}

// Error is the failure variant of an Outcome.
type Error struct {
	Kind    Kind
	Message string
	// StatusCode is zero for local and transport failures.
	StatusCode int
	// RetryAfter is the upstream hint (HF estimated_time or Retry-After), if any.
	RetryAfter time.Duration
	// Err is the underlying transport error, if any.
	Err error
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind carried by err, or "" when err is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Outcome is the result of one summarization: either Summary or Failure.
type Outcome struct {
	Summary string
	Failure *Error
}

func success(summary string) Outcome {
	return Outcome{Summary: summary}
}

func failure(kind Kind, message string) Outcome {
	return Outcome{Failure: &Error{Kind: kind, Message: message}}
}

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool {
	return o.Failure == nil
}

// Kind returns the failure kind, or "" on success.
func (o Outcome) Kind() Kind {
	if o.Failure == nil {
		return ""
	}
	return o.Failure.Kind
}

// Result converts the outcome into Go's (value, error) form.
func (o Outcome) Result() (string, error) {
	if o.Failure != nil {
		return "", o.Failure
	}
	return o.Summary, nil
}
