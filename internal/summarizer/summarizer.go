package summarizer

import (
	"context"
)

// Input describes the payload for a summary request.
type Input struct {
	// Text contains the original plain text to summarise.
	Text string
}

// Summarizer produces a single summary for a given input text.
//
// Failures are always reported as *Error so callers can branch on Kind.
type Summarizer interface {
	Summarize(ctx context.Context, input Input) (string, error)
}
