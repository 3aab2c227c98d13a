// Package proxy serves the development same-origin proxy in front of the
// inference host, plus a small JSON API over the summarizer.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"textsummarizer/internal/summarizer"
)

const (
	readHeaderTimeout = 10 * time.Second
	maxRequestBytes   = 1 << 20
)

type runner interface {
	Run(ctx context.Context, inputText string) summarizer.Outcome
}

type Server struct {
	srv     *http.Server
	handler http.Handler
	log     *slog.Logger
}

// New builds a server that forwards /api/<prefix>/... to inferenceURL and
// answers POST /summarize with client. client may be nil, in which case
// only the forwarding routes are served.
func New(addr, prefix, inferenceURL string, client runner, log *slog.Logger) (*Server, error) {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		return nil, errors.New("proxy prefix is empty")
	}

	target, err := url.Parse(strings.TrimSpace(inferenceURL))
	if err != nil {
		return nil, fmt.Errorf("parse inference URL: %w", err)
	}
	if !target.IsAbs() || target.Host == "" {
		return nil, fmt.Errorf("inference URL %q is not absolute", inferenceURL)
	}

	route := summarizer.ProxyRoute(prefix)

	mux := http.NewServeMux()
	mux.Handle(route, newForwarder(target, strings.TrimSuffix(route, "/"), log))
	mux.HandleFunc("GET /healthz", handleHealthz)
	if client != nil {
		mux.Handle("POST /summarize", &summarizeHandler{client: client, log: log})
	}

	handler := withRequestID(withRequestLog(log, mux))

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: readHeaderTimeout,
		},
		handler: handler,
		log:     log,
	}, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe blocks until the server fails or is shut down.
func (s *Server) ListenAndServe() error {
	s.log.Info("Proxy is started", "addr", s.srv.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	s.log.InfoContext(ctx, "Proxy is stopped")

	return nil
}

func handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
