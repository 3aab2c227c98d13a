package summarizer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

const (
	messageInvalidInput      = "Please enter some text to summarize."
	messageMissingCredential = "API key is missing. Please set HUGGING_FACE_TOKEN in your environment or .env file."
)

type requestBody struct {
	Inputs string `json:"inputs"`
}

// Request is a fully built inference call, not yet bound to a context.
type Request struct {
	URL    string
	Method string
	Header http.Header
	Body   []byte
}

// Build validates the input and credential and serializes the call.
// Validation failures are returned as *Error and never reach the network.
func Build(endpoint, inputText, credential string) (*Request, *Error) {
	if strings.TrimSpace(inputText) == "" {
		return nil, &Error{Kind: KindInvalidInput, Message: messageInvalidInput}
	}

	credential = strings.TrimSpace(credential)
	if credential == "" {
		return nil, &Error{Kind: KindMissingCredential, Message: messageMissingCredential}
	}

	body, err := json.Marshal(requestBody{Inputs: inputText})
	if err != nil {
		return nil, &Error{Kind: KindInvalidInput, Message: messageInvalidInput, Err: err}
	}

	header := make(http.Header)
	header.Set("Authorization", "Bearer "+credential)
	header.Set("Content-Type", "application/json")

	return &Request{
		URL:    endpoint,
		Method: http.MethodPost,
		Header: header,
		Body:   body,
	}, nil
}

// HTTPRequest binds the request to ctx. A fresh body reader is created on
// every call so the same Request can be sent again.
func (r *Request) HTTPRequest(ctx context.Context) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, r.Method, r.URL, bytes.NewReader(r.Body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header = r.Header.Clone()

	return req, nil
}
