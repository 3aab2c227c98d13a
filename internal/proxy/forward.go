package proxy

import (
	"log/slog"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
)

// newForwarder strips stripPrefix from the request path and sends the rest
// to target. Method, body and headers, Authorization included, pass through.
func newForwarder(target *url.URL, stripPrefix string, log *slog.Logger) http.Handler {
	return &httputil.ReverseProxy{
		Rewrite: func(pr *httputil.ProxyRequest) {
			path := strings.TrimPrefix(pr.In.URL.Path, stripPrefix)
			if path == "" {
				path = "/"
			}

			pr.Out.URL.Path = path
			pr.Out.URL.RawPath = ""
			pr.SetURL(target)
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.ErrorContext(r.Context(), "Failed to forward request",
				"error", err,
				"path", r.URL.Path,
				"target", target.Host,
				"requestID", requestIDFromContext(r.Context()))

			writeJSON(w, http.StatusBadGateway, map[string]string{
				"error": "upstream is unreachable",
			})
		},
	}
}
