// Package ai contains the LLM provider clients and the routing layer that
// distributes requests between them.
package ai

import (
	"context"
	"errors"
	"fmt"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single generation request. Messages carry the full prompt
// including system prompt and conversation history.
type Request struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Response is the result of a non-streaming generation call.
type Response struct {
	Content      string
	Model        string
	InputTokens  int
	OutputTokens int
}

// StreamChunk is one element of a streaming generation. Accumulated always
// holds the full text received so far, so consumers never have to
// re-assemble deltas. SourceURLs carries provider-reported citations and is
// only populated on the final chunk. A chunk with Err set terminates the
// stream.
type StreamChunk struct {
	Delta       string
	Accumulated string
	Final       bool
	SourceURLs  []string
	Err         error
}

// Provider is a hosted LLM API. GenerateStream returns an error for
// failures establishing the stream; mid-stream failures arrive as a chunk
// with Err set and the channel is always closed afterwards.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Response, error)
	GenerateStream(ctx context.Context, req Request) (<-chan StreamChunk, error)
}

var (
	ErrNoProviders  = errors.New("no providers available")
	ErrAllProviders = errors.New("all providers failed")
)

// ProviderError wraps a provider API failure with enough context to log and
// to decide whether a fallback provider should be tried.
type ProviderError struct {
	Provider   string
	Model      string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Model != "" {
		return fmt.Sprintf("%s (%s): %s", e.Provider, e.Model, msg)
	}
	return fmt.Sprintf("%s: %s", e.Provider, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
