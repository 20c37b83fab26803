// Package llm defines the narrow contract for the language-model collaborator.
//
// Every generation stage sends exactly one completion request and consumes the
// first choice's text. Retries, if ever wanted, belong to callers.
package llm

import "context"

// Request is one completion round-trip: a system and a user message plus
// fixed sampling parameters.
type Request struct {
	System      string
	User        string
	Temperature float64
	TopP        float64
	MaxTokens   int
}

// Client abstracts the completion service so stages can be tested with fakes.
type Client interface {
	// Complete performs one completion call and returns the generated text.
	Complete(ctx context.Context, req Request) (string, error)
}
