package summarizer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	defaultRequestTimeout = 60 * time.Second
	maxResponseBodyBytes  = 4 << 20
)

// Options configures a Client.
type Options struct {
	Mode       Mode
	Endpoints  Endpoints
	Credential string
	Timeout    time.Duration
	Retry      RetryPolicy
	// HTTPClient overrides the default client; Timeout is ignored when set.
	HTTPClient *http.Client
}

// Client sends summarization requests to the resolved inference endpoint.
// It holds no per-call state and is safe for concurrent use.
type Client struct {
	mode        Mode
	endpoint    string
	credential  string
	http        *http.Client
	interpreter Interpreter
	retry       RetryPolicy
	log         *slog.Logger
}

var _ Summarizer = (*Client)(nil)

// New resolves the endpoint for opts.Mode once; the target does not change
// for the lifetime of the Client.
func New(opts Options, log *slog.Logger) (*Client, error) {
	endpoint, err := ResolveEndpoint(opts.Mode, opts.Endpoints)
	if err != nil {
		return nil, fmt.Errorf("resolve endpoint: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultRequestTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	if log == nil {
		log = slog.Default()
	}

	return &Client{
		mode:        opts.Mode,
		endpoint:    endpoint,
		credential:  strings.TrimSpace(opts.Credential),
		http:        httpClient,
		interpreter: Interpreter{ModelID: strings.Trim(strings.TrimSpace(opts.Endpoints.ModelID), "/")},
		retry:       opts.Retry,
		log:         log,
	}, nil
}

// Endpoint returns the URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Summarize implements Summarizer. A non-nil error is always *Error.
func (c *Client) Summarize(ctx context.Context, input Input) (string, error) {
	return c.Run(ctx, input.Text).Result()
}

// Run performs one summarization, retrying transient failures as allowed by
// the retry policy. It always returns an Outcome; it never panics on
// upstream misbehaviour.
func (c *Client) Run(ctx context.Context, inputText string) Outcome {
	req, buildErr := Build(c.endpoint, inputText, c.credential)
	if buildErr != nil {
		c.log.WarnContext(ctx, "Summarization request is rejected locally",
			"kind", buildErr.Kind,
			"inputChars", len(inputText),
			"credentialPresent", c.credential != "")

		return Outcome{Failure: buildErr}
	}

	var out Outcome
	for attempt := 1; ; attempt++ {
		out = c.send(ctx, req, attempt)

		if !c.retry.shouldRetry(attempt, out) {
			return out
		}

		wait := c.retry.delay(attempt, out)
		c.log.InfoContext(ctx, "Retrying summarization request",
			"kind", out.Failure.Kind,
			"attempt", attempt,
			"maxAttempts", c.retry.attempts(),
			"wait", wait)

		if !sleep(ctx, wait) {
			return out
		}
	}
}

func (c *Client) send(ctx context.Context, req *Request, attempt int) Outcome {
	start := time.Now()

	c.log.DebugContext(ctx, "Sending summarization request",
		"endpoint", c.endpoint,
		"mode", c.mode,
		"attempt", attempt,
		"bodyBytes", len(req.Body),
		"credentialPresent", true)

	httpReq, err := req.HTTPRequest(ctx)
	if err != nil {
		return c.interpreter.Transport(err)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		out := c.interpreter.Transport(err)
		c.logOutcome(ctx, out, 0, start)
		return out
	}
	defer func() {
		if err = resp.Body.Close(); err != nil {
			c.log.ErrorContext(ctx, "Failed to close response body",
				"error", err,
				"endpoint", c.endpoint,
				"operation", "send")
		}
	}()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if err != nil && !errors.Is(err, io.EOF) {
		out := c.interpreter.Transport(fmt.Errorf("read response body: %w", err))
		c.logOutcome(ctx, out, resp.StatusCode, start)
		return out
	}

	out := c.interpreter.Response(Response{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Header:     resp.Header,
		URL:        c.endpoint,
		Body:       body,
	})
	c.logOutcome(ctx, out, resp.StatusCode, start)

	return out
}

func (c *Client) logOutcome(ctx context.Context, out Outcome, status int, start time.Time) {
	if out.OK() {
		c.log.InfoContext(ctx, "Summary is received",
			"status", status,
			"summaryChars", len(out.Summary),
			"durationMs", time.Since(start).Milliseconds())

		return
	}

	c.log.WarnContext(ctx, "Summarization request failed",
		"error", out.Failure.Err,
		"kind", out.Failure.Kind,
		"status", status,
		"endpoint", c.endpoint,
		"durationMs", time.Since(start).Milliseconds())
}
