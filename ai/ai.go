// Package ai turns a text prompt into a drum pattern using a hosted model.
package ai

import (
	"context"
	"errors"
)

var (
	// ErrNoPattern means the service answered but gave nothing usable.
	ErrNoPattern = errors.New("no usable pattern returned")
	// ErrUnavailable means the service could not be reached.
	ErrUnavailable = errors.New("pattern service unavailable")
)

// User-facing messages for the two failure classes
const (
	MsgNoPattern   = "AI couldn't catch the rhythm. Try describing it differently."
	MsgUnavailable = "AI is currently offline. Please try again."
)

// Result is a generated pattern: instrument id to step indices.
type Result struct {
	Patterns map[string][]int `json:"patterns"`
	Genre    string           `json:"genre"`
}

// Generator produces patterns from prompts.
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Result, error)
}

// Message maps an error from Generate to the text shown to the user.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoPattern):
		return MsgNoPattern
	default:
		return MsgUnavailable
	}
}
