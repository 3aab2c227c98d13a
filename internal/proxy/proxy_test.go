package proxy

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"textsummarizer/internal/summarizer"
)

var discard = slog.New(slog.DiscardHandler)

type fakeRunner struct {
	inputs  []string
	outcome summarizer.Outcome
}

func (r *fakeRunner) Run(_ context.Context, inputText string) summarizer.Outcome {
	r.inputs = append(r.inputs, inputText)
	return r.outcome
}

func newTestServer(t *testing.T, inferenceURL string, client runner) *httptest.Server {
	t.Helper()

	s, err := New("127.0.0.1:0", "huggingface", inferenceURL, client, discard)
	if err != nil {
		t.Fatalf("new proxy: %v", err)
	}

	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	return ts
}

func TestNewRejectsBadArguments(t *testing.T) {
	tests := []struct {
		name         string
		prefix       string
		inferenceURL string
	}{
		{"empty prefix", " / ", "https://router.huggingface.co/hf-inference"},
		{"relative URL", "huggingface", "hf-inference"},
		{"bad URL", "huggingface", "http://[::1"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := New(":0", test.prefix, test.inferenceURL, nil, discard); err == nil {
				t.Fatal("Expected error, got nil")
			}
		})
	}
}

func TestForwardStripsPrefix(t *testing.T) {
	var gotPath, gotAuth, gotBody string

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"summary_text":"ok"}]`)
	}))
	defer upstream.Close()

	ts := newTestServer(t, upstream.URL+"/hf-inference", nil)

	req, err := http.NewRequest(http.MethodPost,
		ts.URL+"/api/huggingface/models/facebook/bart-large-cnn",
		strings.NewReader(`{"inputs":"text"}`))
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Authorization", "Bearer test-token")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if want := "/hf-inference/models/facebook/bart-large-cnn"; gotPath != want {
		t.Fatalf("Expected upstream path %q, got %q", want, gotPath)
	}
	if gotAuth != "Bearer test-token" {
		t.Fatalf("Expected Authorization to pass through, got %q", gotAuth)
	}
	if gotBody != `{"inputs":"text"}` {
		t.Fatalf("Expected body to pass through, got %q", gotBody)
	}
	if resp.Header.Get(requestIDHeader) == "" {
		t.Fatal("Expected X-Request-Id on response")
	}
}

func TestForwardUpstreamUnreachable(t *testing.T) {
	upstream := httptest.NewServer(http.NotFoundHandler())
	upstreamURL := upstream.URL
	upstream.Close()

	ts := newTestServer(t, upstreamURL, nil)

	resp, err := http.Post(ts.URL+"/api/huggingface/models/m", "application/json", strings.NewReader("{}"))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("Expected 502, got %d", resp.StatusCode)
	}

	var body map[string]string
	if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["error"] == "" {
		t.Fatalf("Expected error field, got %v", body)
	}
}

func TestDevelopmentClientThroughProxy(t *testing.T) {
	var calls atomic.Int32

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		if r.URL.Path != "/models/facebook/bart-large-cnn" {
			t.Errorf("unexpected upstream path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected Authorization header %q", got)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"summary_text":"Through the proxy."}]`)
	}))
	defer upstream.Close()

	ts := newTestServer(t, upstream.URL, nil)

	client, err := summarizer.New(summarizer.Options{
		Mode: summarizer.ModeDevelopment,
		Endpoints: summarizer.Endpoints{
			InferenceURL: "https://router.huggingface.co/hf-inference",
			ProxyBaseURL: ts.URL,
			ProxyPrefix:  "huggingface",
			ModelID:      "facebook/bart-large-cnn",
		},
		Credential: "test-token",
		Timeout:    5 * time.Second,
	}, discard)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}

	summary, err := client.Summarize(t.Context(), summarizer.Input{Text: "Some long text."})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if summary != "Through the proxy." {
		t.Fatalf("Expected summary through proxy, got %q", summary)
	}
	if calls.Load() != 1 {
		t.Fatalf("Expected one upstream call, got %d", calls.Load())
	}
}

func TestSummarizeAPI(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		outcome    summarizer.Outcome
		wantStatus int
		wantKind   summarizer.Kind
		wantRun    bool
	}{
		{
			name:       "success",
			body:       `{"text":"hello"}`,
			outcome:    summarizer.Outcome{Summary: "hi"},
			wantStatus: http.StatusOK,
			wantRun:    true,
		},
		{
			name:       "bad JSON",
			body:       `not json`,
			wantStatus: http.StatusBadRequest,
			wantKind:   summarizer.KindInvalidInput,
		},
		{
			name:       "invalid input",
			body:       `{"text":"  "}`,
			outcome:    failed(summarizer.KindInvalidInput),
			wantStatus: http.StatusBadRequest,
			wantKind:   summarizer.KindInvalidInput,
			wantRun:    true,
		},
		{
			name:       "missing credential",
			body:       `{"text":"x"}`,
			outcome:    failed(summarizer.KindMissingCredential),
			wantStatus: http.StatusInternalServerError,
			wantKind:   summarizer.KindMissingCredential,
			wantRun:    true,
		},
		{
			name:       "model loading",
			body:       `{"text":"x"}`,
			outcome:    failed(summarizer.KindModelLoading),
			wantStatus: http.StatusServiceUnavailable,
			wantKind:   summarizer.KindModelLoading,
			wantRun:    true,
		},
		{
			name:       "rate limited",
			body:       `{"text":"x"}`,
			outcome:    failed(summarizer.KindRateLimited),
			wantStatus: http.StatusTooManyRequests,
			wantKind:   summarizer.KindRateLimited,
			wantRun:    true,
		},
		{
			name:       "auth error",
			body:       `{"text":"x"}`,
			outcome:    failed(summarizer.KindAuthError),
			wantStatus: http.StatusBadGateway,
			wantKind:   summarizer.KindAuthError,
			wantRun:    true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			runner := &fakeRunner{outcome: test.outcome}
			ts := newTestServer(t, "https://router.huggingface.co/hf-inference", runner)

			resp, err := http.Post(ts.URL+"/summarize", "application/json", strings.NewReader(test.body))
			if err != nil {
				t.Fatalf("post: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != test.wantStatus {
				t.Fatalf("Expected status %d, got %d", test.wantStatus, resp.StatusCode)
			}
			if got := len(runner.inputs) == 1; got != test.wantRun {
				t.Fatalf("Expected run %v, got inputs %q", test.wantRun, runner.inputs)
			}

			var body summarizeResponse
			if err = json.NewDecoder(resp.Body).Decode(&body); err != nil {
				t.Fatalf("decode body: %v", err)
			}

			if test.wantKind == "" {
				if body.Error != nil || body.Summary != test.outcome.Summary {
					t.Fatalf("Unexpected success body %+v", body)
				}
				return
			}

			if body.Error == nil || body.Error.Kind != test.wantKind || body.Error.Message == "" {
				t.Fatalf("Expected %s error, got %+v", test.wantKind, body)
			}
		})
	}
}

func TestSummarizeRequiresPost(t *testing.T) {
	ts := newTestServer(t, "https://router.huggingface.co/hf-inference", &fakeRunner{})

	resp, err := http.Get(ts.URL + "/summarize")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("Expected 405, got %d", resp.StatusCode)
	}
}

func TestHealthzAndRequestID(t *testing.T) {
	ts := newTestServer(t, "https://router.huggingface.co/hf-inference", nil)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set(requestIDHeader, "req-123")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(raw) != "ok" {
		t.Fatalf("Expected 200 ok, got %d %q", resp.StatusCode, raw)
	}
	if got := resp.Header.Get(requestIDHeader); got != "req-123" {
		t.Fatalf("Expected incoming request id to be kept, got %q", got)
	}
}

func failed(kind summarizer.Kind) summarizer.Outcome {
	return summarizer.Outcome{Failure: &summarizer.Error{Kind: kind, Message: string(kind) + " message"}}
}
