// Package terminal is the interactive surface of bivvy: yes/no prompts,
// status messages and streamed step output.
package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// ErrInterrupted is returned by Confirm when the user presses ctrl+c. It
// wraps context.Canceled so callers treat it like any other cancellation.
var ErrInterrupted = fmt.Errorf("prompt interrupted: %w", context.Canceled)

// Terminal implements ports.UserInterface on a terminal.
type Terminal struct {
	mu          sync.Mutex
	in          io.Reader
	out         io.Writer
	errOut      io.Writer
	styles      Styles
	interactive bool
	assumeYes   bool
	keepDefault []string
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithInput sets the prompt input. Defaults to stdin.
func WithInput(r io.Reader) Option {
	return func(t *Terminal) { t.in = r }
}

// WithOutput sets the writers for normal and error output.
func WithOutput(out, errOut io.Writer) Option {
	return func(t *Terminal) {
		t.out = out
		t.errOut = errOut
	}
}

// WithStyles replaces the colour styles.
func WithStyles(styles Styles) Option {
	return func(t *Terminal) { t.styles = styles }
}

// WithInteractive overrides terminal detection. Passing false forces every
// prompt to its default answer.
func WithInteractive(interactive bool) Option {
	return func(t *Terminal) { t.interactive = interactive }
}

// WithAssumeYes answers yes to every prompt without asking, except prompts
// whose key starts with one of keepDefault, which get their default.
func WithAssumeYes(keepDefault ...string) Option {
	return func(t *Terminal) {
		t.assumeYes = true
		t.keepDefault = keepDefault
	}
}

// New creates a Terminal on stdin, stdout and stderr. It is interactive
// when both stdin and stdout are terminals, and styled when stdout is one
// and NO_COLOR is unset.
func New(opts ...Option) *Terminal {
	tty := isTerminal(os.Stdin) && isTerminal(os.Stdout)
	t := &Terminal{
		in:          os.Stdin,
		out:         os.Stdout,
		errOut:      os.Stderr,
		styles:      PlainStyles(),
		interactive: tty,
	}
	if _, noColor := os.LookupEnv("NO_COLOR"); !noColor && isTerminal(os.Stdout) {
		t.styles = DefaultStyles()
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Confirm asks a yes/no question. Without a terminal the prompt's default
// is returned and nothing is read.
func (t *Terminal) Confirm(ctx context.Context, prompt ports.Prompt) (bool, error) {
	if t.assumeYes {
		answer := t.autoAnswer(prompt)
		t.printf(t.out, "%s %s\n", t.styles.Prompt.Render("? "+prompt.Question), t.styles.Muted.Render(yesNo(answer)))
		return answer, nil
	}
	if !t.interactive {
		return prompt.Default, nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	program := tea.NewProgram(
		newConfirmModel(prompt, t.styles),
		tea.WithContext(ctx),
		tea.WithInput(t.in),
		tea.WithOutput(t.out),
	)
	final, err := program.Run()
	if err != nil {
		return false, fmt.Errorf("prompt %s: %w", prompt.Key, err)
	}
	model, ok := final.(confirmModel)
	if !ok {
		return false, fmt.Errorf("prompt %s: unexpected model %T", prompt.Key, final)
	}
	answer, interrupted := model.Answer()
	if interrupted {
		return false, ErrInterrupted
	}
	return answer, nil
}

func (t *Terminal) autoAnswer(prompt ports.Prompt) bool {
	for _, prefix := range t.keepDefault {
		if strings.HasPrefix(prompt.Key, prefix) {
			return prompt.Default
		}
	}
	return true
}

func (t *Terminal) Message(text string) {
	t.printf(t.out, "%s\n", text)
}

func (t *Terminal) Warning(text string) {
	t.printf(t.errOut, "%s\n", t.styles.Warning.Render("! "+text))
}

func (t *Terminal) Error(text string) {
	t.printf(t.errOut, "%s\n", t.styles.Error.Render("✗ "+text))
}

func (t *Terminal) IsInteractive() bool {
	return t.interactive
}

// Styles returns the styles in use, so reports render consistently.
func (t *Terminal) Styles() Styles {
	return t.styles
}

// Out returns the normal output writer.
func (t *Terminal) Out() io.Writer {
	return t.out
}

func (t *Terminal) printf(w io.Writer, format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintf(w, format, args...)
}

func yesNo(answer bool) string {
	if answer {
		return "Yes"
	}
	return "No"
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

var _ ports.UserInterface = (*Terminal)(nil)
