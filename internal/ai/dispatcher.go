// Package ai detects assistant mentions in chat messages and invokes the
// generation backend.
package ai

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// MentionTrigger is the literal marker that routes a message to the AI
// generation path. Matching is case-insensitive.
const MentionTrigger = "@ai "

var triggerPattern = regexp.MustCompile(`(?i)@ai `)

// ErrEmptyPrompt is returned when a message mentions the assistant but
// carries no prompt text once the trigger is stripped.
var ErrEmptyPrompt = errors.New("empty prompt after stripping mention trigger")

// Result is the outcome of a generation call.
type Result struct {
	Success bool   `json:"success"`
	Result  string `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Generator is the generation backend: it accepts a prompt and returns the
// raw reply text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// HasMention reports whether the message text contains the mention trigger
// in any case combination.
func HasMention(text string) bool {
	return strings.Contains(strings.ToLower(text), MentionTrigger)
}

// ExtractPrompt strips all occurrences of the mention trigger and trims the
// remainder. It returns ErrEmptyPrompt when nothing remains.
func ExtractPrompt(text string) (string, error) {
	prompt := strings.TrimSpace(triggerPattern.ReplaceAllString(text, ""))
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	return prompt, nil
}

// Dispatcher routes mention-carrying messages to the generation backend.
type Dispatcher struct {
	generator Generator
}

// NewDispatcher creates a dispatcher over the given backend.
func NewDispatcher(generator Generator) *Dispatcher {
	return &Dispatcher{generator: generator}
}

// Dispatch inspects the message text for a mention. When one is present it
// invokes the backend and returns its outcome as a Result; mention-free
// messages return dispatched=false. Backend failures are reported in the
// Result, never as a panic or a room-fatal error.
func (d *Dispatcher) Dispatch(ctx context.Context, text string) (Result, bool) {
	if !HasMention(text) {
		return Result{}, false
	}

	prompt, err := ExtractPrompt(text)
	if err != nil {
		return Result{Error: err.Error()}, true
	}

	raw, err := d.generator.Generate(ctx, prompt)
	if err != nil {
		return Result{Error: err.Error()}, true
	}
	return Result{Success: true, Result: raw}, true
}
