package summarizer

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

const (
	messageNetworkError = "Network error: unable to connect to the inference API. " +
		"This might be due to network connectivity issues or the API service being temporarily unavailable. " +
		"Please check your internet connection and try again."
	messageModelLoading      = "Model is loading. Please wait a moment and try again."
	messageAuthError         = "Invalid API key. Please check your HUGGING_FACE_TOKEN."
	messageRateLimited       = "Rate limit exceeded. Please try again later."
	messageEndpointGone      = "API endpoint is no longer available (410 Gone). The endpoint may have been deprecated or moved. Please check Hugging Face documentation for the current API format."
	messageMalformedResponse = "API did not return a valid summary format."

	maxRetryAfter = 10 * time.Minute
)

// Response is a received HTTP response with its body fully read.
type Response struct {
	StatusCode int
	// Status is the status line, e.g. "503 Service Unavailable".
	Status string
	Header http.Header
	// URL is the URL the request was sent to.
	URL  string
	Body []byte
}

// Interpreter turns raw network results into Outcomes.
type Interpreter struct {
	// ModelID is quoted in EndpointNotFound messages.
	ModelID string
}

// Transport classifies a failure that happened before a response was received
// (or while its body was being read). Mode does not affect the result.
func (i Interpreter) Transport(err error) Outcome {
	return Outcome{Failure: &Error{
		Kind:    KindNetworkError,
		Message: messageNetworkError,
		Err:     err,
	}}
}

// Response classifies a received response.
func (i Interpreter) Response(resp Response) Outcome {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		if summary, ok := extractSummary(resp.Body); ok {
			return success(summary)
		}

		out := failure(KindMalformedResponse, messageMalformedResponse)
		out.Failure.StatusCode = resp.StatusCode
		return out
	}

	return Outcome{Failure: i.statusFailure(resp)}
}

func (i Interpreter) statusFailure(resp Response) *Error {
	var body gjson.Result
	if gjson.ValidBytes(resp.Body) {
		body = gjson.ParseBytes(resp.Body)
	}

	upstream := upstreamError(body)

	e := &Error{StatusCode: resp.StatusCode}

	switch {
	// 503 and 404 keep their kind even when the body carries an error field.
	case resp.StatusCode == http.StatusServiceUnavailable:
		e.Kind = KindModelLoading
		e.Message = modelLoadingMessage(body, upstream)
		e.RetryAfter = estimatedTime(body)
	case resp.StatusCode == http.StatusNotFound:
		e.Kind = KindEndpointNotFound
		e.Message = i.notFoundMessage(resp.URL, upstream)
	case upstream != "":
		e.Kind = KindUpstreamError
		e.Message = upstream
		if resp.StatusCode == http.StatusTooManyRequests {
			e.RetryAfter = retryAfterHeader(resp.Header)
		}
	case resp.StatusCode == http.StatusUnauthorized:
		e.Kind = KindAuthError
		e.Message = messageAuthError
	case resp.StatusCode == http.StatusTooManyRequests:
		e.Kind = KindRateLimited
		e.Message = messageRateLimited
		e.RetryAfter = retryAfterHeader(resp.Header)
	case resp.StatusCode == http.StatusGone:
		e.Kind = KindEndpointGone
		e.Message = messageEndpointGone
	default:
		e.Kind = KindHTTPError
		e.Message = fmt.Sprintf("HTTP %d: %s", resp.StatusCode, reasonPhrase(resp.StatusCode, resp.Status))
	}

	return e
}

func (i Interpreter) notFoundMessage(url, upstream string) string {
	if url == "" {
		url = "unknown"
	}

	msg := fmt.Sprintf(
		"API endpoint not found (404). The model '%s' may not be available or the endpoint URL is incorrect. URL: %s",
		i.ModelID,
		url,
	)
	if i.ModelID != "" {
		msg += fmt.Sprintf(". Try checking the model page: https://huggingface.co/%s", i.ModelID)
	}
	if upstream != "" {
		msg += ". Upstream said: " + upstream
	}

	return msg
}

func modelLoadingMessage(body gjson.Result, upstream string) string {
	msg := messageModelLoading
	if wait := estimatedTime(body); wait > 0 {
		msg += fmt.Sprintf(" Estimated wait: ~%s.", wait.Round(time.Second))
	}
	if upstream != "" {
		msg += " Upstream said: " + upstream
	}
	return msg
}

// upstreamError returns the body's "error" field, rendered as text.
func upstreamError(body gjson.Result) string {
	if !body.IsObject() {
		return ""
	}

	field := body.Get("error")
	if !field.Exists() || strings.TrimSpace(field.String()) == "" {
		return ""
	}

	return field.String()
}

// estimatedTime reads HF's "estimated_time" (seconds) from a loading response.
func estimatedTime(body gjson.Result) time.Duration {
	if !body.IsObject() {
		return 0
	}

	return clampRetryAfter(body.Get("estimated_time").Float())
}

func retryAfterHeader(h http.Header) time.Duration {
	v := strings.TrimSpace(h.Get("Retry-After"))
	if v == "" {
		return 0
	}

	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		return clampRetryAfter(secs)
	}

	if at, err := http.ParseTime(v); err == nil {
		return clampRetryAfter(time.Until(at).Seconds())
	}

	return 0
}

func clampRetryAfter(secs float64) time.Duration {
	if secs <= 0 || math.IsNaN(secs) || math.IsInf(secs, 0) {
		return 0
	}

	if secs >= maxRetryAfter.Seconds() {
		return maxRetryAfter
	}

	return time.Duration(secs * float64(time.Second))
}

func reasonPhrase(code int, status string) string {
	reason := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(status), strconv.Itoa(code)))
	if reason == "" {
		reason = http.StatusText(code)
	}
	return reason
}
