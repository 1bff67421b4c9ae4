package ai

import "context"

// Interpreter resolves a free-text scheduling command against a rendered
// candidate-slot list. Implementations return an error on any failure
// (transport, timeout, unparsable reply); callers treat every error as
// "no suggestion" and fall back to local parsing — an interpreter failure
// is never a user-facing error.
type Interpreter interface {
	Interpret(ctx context.Context, command string, candidates []string) (*Suggestion, error)
}
