package mocks

import (
	"context"
	"sync"

	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// UI is a scripted ports.UserInterface that records everything shown.
type UI struct {
	mu          sync.Mutex
	interactive bool
	answers     map[string]bool
	prompts     []ports.Prompt
	messages    []string
	warnings    []string
	errors      []string
}

// NewUI creates a UI. Unscripted prompts take their default answer.
func NewUI(interactive bool) *UI {
	return &UI{interactive: interactive, answers: make(map[string]bool)}
}

// Answer scripts the reply to the prompt with key.
func (u *UI) Answer(key string, yes bool) *UI {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.answers[key] = yes
	return u
}

func (u *UI) Confirm(_ context.Context, prompt ports.Prompt) (bool, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.prompts = append(u.prompts, prompt)
	if answer, ok := u.answers[prompt.Key]; ok {
		return answer, nil
	}
	return prompt.Default, nil
}

func (u *UI) Message(text string) { u.record(&u.messages, text) }
func (u *UI) Warning(text string) { u.record(&u.warnings, text) }
func (u *UI) Error(text string)   { u.record(&u.errors, text) }

func (u *UI) IsInteractive() bool { return u.interactive }

func (u *UI) record(into *[]string, text string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	*into = append(*into, text)
}

// Prompts returns every prompt shown, in order.
func (u *UI) Prompts() []ports.Prompt {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]ports.Prompt(nil), u.prompts...)
}

// PromptKeys returns the keys of every prompt shown.
func (u *UI) PromptKeys() []string {
	prompts := u.Prompts()
	keys := make([]string, len(prompts))
	for i, p := range prompts {
		keys[i] = p.Key
	}
	return keys
}

func (u *UI) Messages() []string { return u.snapshot(u.messages) }
func (u *UI) Warnings() []string { return u.snapshot(u.warnings) }
func (u *UI) Errors() []string   { return u.snapshot(u.errors) }

func (u *UI) snapshot(list []string) []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), list...)
}

var _ ports.UserInterface = (*UI)(nil)
