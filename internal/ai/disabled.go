package ai

import (
	"context"
	"fmt"
)

// Disabled is the always-fail interpreter selected when no API key is
// configured. Resolution then runs the deterministic local parser, which is
// also how tests exercise the fallback path without network access.
type Disabled struct{}

func (Disabled) Interpret(ctx context.Context, command string, candidates []string) (*Suggestion, error) {
	return nil, fmt.Errorf("text interpreter disabled")
}
