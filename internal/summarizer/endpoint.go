package summarizer

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Mode selects how the inference endpoint is reached.
type Mode string

const (
	// ModeDevelopment routes requests through the same-origin proxy.
	ModeDevelopment Mode = "development"
	// ModeProduction calls the inference host directly.
	ModeProduction Mode = "production"
)

// ParseMode accepts development/dev and production/prod, case-insensitively.
func ParseMode(raw string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "development", "dev":
		return ModeDevelopment, nil
	case "production", "prod":
		return ModeProduction, nil
	default:
		return "", fmt.Errorf("unknown mode %q", raw)
	}
}

// Endpoints holds everything needed to resolve the target URL in either mode.
type Endpoints struct {
	// InferenceURL is the upstream base, e.g. https://router.huggingface.co/hf-inference.
	InferenceURL string
	// ProxyBaseURL is the origin serving the proxy, e.g. http://localhost:5173.
	ProxyBaseURL string
	// ProxyPrefix is the path segment after /api/, e.g. huggingface.
	ProxyPrefix string
	// ModelID is the model path, e.g. facebook/bart-large-cnn.
	ModelID string
}

// ProxyRoute returns the path the proxy serves, e.g. /api/huggingface/.
func ProxyRoute(prefix string) string {
	return "/api/" + strings.Trim(prefix, "/") + "/"
}

// ResolveEndpoint maps a mode to the URL to POST to. It never mixes the two
// targets: development always yields the proxy path, production the upstream.
func ResolveEndpoint(mode Mode, ep Endpoints) (string, error) {
	modelID := strings.Trim(strings.TrimSpace(ep.ModelID), "/")
	if modelID == "" {
		return "", errors.New("model ID is empty")
	}

	switch mode {
	case ModeDevelopment:
		base := strings.TrimSpace(ep.ProxyBaseURL)
		if base == "" {
			return "", errors.New("proxy base URL is empty")
		}
		prefix := strings.Trim(strings.TrimSpace(ep.ProxyPrefix), "/")
		if prefix == "" {
			return "", errors.New("proxy prefix is empty")
		}

		return joinURL(base, "api", prefix, "models", modelID)

	case ModeProduction:
		base := strings.TrimSpace(ep.InferenceURL)
		if base == "" {
			return "", errors.New("inference URL is empty")
		}

		return joinURL(base, "models", modelID)

	default:
		return "", fmt.Errorf("unknown mode %q", mode)
	}
}

func joinURL(base string, elem ...string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", base)
	}

	return u.JoinPath(elem...).String(), nil
}
