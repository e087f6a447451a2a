// Package logging implements ports.Logger for the terminal, as aligned
// text or one JSON object per line.
package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// Format selects how entries are rendered.
type Format string

const (
	// FormatText renders "15:04:05 INFO msg key=value".
	FormatText Format = "text"
	// FormatJSON renders one JSON object per entry.
	FormatJSON Format = "json"
)

// ParseFormat validates a --log-format value.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON:
		return FormatJSON, nil
	default:
		return FormatText, fmt.Errorf("unknown log format %q (want text or json)", name)
	}
}

var levelStyles = map[ports.Level]lipgloss.Style{
	ports.LevelDebug: lipgloss.NewStyle().Faint(true),
	ports.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	ports.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	ports.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
}

// Console writes log entries to a single writer. Children created by With
// share the writer and its lock.
type Console struct {
	mu     *sync.Mutex
	out    io.Writer
	level  ports.Level
	format Format
	color  bool
	clock  func() time.Time
	fields []ports.Field
}

// Option configures a Console.
type Option func(*Console)

// WithOutput sets the destination writer. Defaults to stderr.
func WithOutput(w io.Writer) Option { return func(c *Console) { c.out = w } }

// WithLevel sets the minimum level written. Defaults to Info.
func WithLevel(level ports.Level) Option { return func(c *Console) { c.level = level } }

// WithFormat selects text or JSON rendering.
func WithFormat(format Format) Option { return func(c *Console) { c.format = format } }

// WithColor forces level colouring on or off in text mode.
func WithColor(enabled bool) Option { return func(c *Console) { c.color = enabled } }

// WithClock replaces time.Now. A nil clock omits timestamps.
func WithClock(clock func() time.Time) Option { return func(c *Console) { c.clock = clock } }

// NewConsole creates a Console. Colour is enabled when the output is a
// terminal and NO_COLOR is unset, unless WithColor says otherwise.
func NewConsole(opts ...Option) *Console {
	c := &Console{
		mu:     &sync.Mutex{},
		out:    os.Stderr,
		level:  ports.LevelInfo,
		format: FormatText,
		clock:  time.Now,
	}
	c.color = isTerminal(c.out)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// New builds a Console from command-line flag values.
func New(level, format string, out io.Writer) (*Console, error) {
	lvl, err := ports.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	f, err := ParseFormat(format)
	if err != nil {
		return nil, err
	}
	return NewConsole(WithOutput(out), WithLevel(lvl), WithFormat(f), WithColor(isTerminal(out))), nil
}

// Discard returns a logger that writes nothing.
func Discard() *Console {
	return NewConsole(WithOutput(io.Discard), WithLevel(ports.LevelError+1), WithColor(false))
}

func (c *Console) Debug(ctx context.Context, msg string, fields ...ports.Field) {
	c.write(ctx, ports.LevelDebug, msg, fields)
}

func (c *Console) Info(ctx context.Context, msg string, fields ...ports.Field) {
	c.write(ctx, ports.LevelInfo, msg, fields)
}

func (c *Console) Warn(ctx context.Context, msg string, fields ...ports.Field) {
	c.write(ctx, ports.LevelWarn, msg, fields)
}

func (c *Console) Error(ctx context.Context, msg string, fields ...ports.Field) {
	c.write(ctx, ports.LevelError, msg, fields)
}

// With returns a child that prepends fields to every entry.
func (c *Console) With(fields ...ports.Field) ports.Logger {
	c.mu.Lock()
	defer c.mu.Unlock()

	child := *c
	child.fields = append(append([]ports.Field(nil), c.fields...), fields...)
	return &child
}

func (c *Console) Level() ports.Level {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

func (c *Console) SetLevel(level ports.Level) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.level = level
}

func (c *Console) write(_ context.Context, level ports.Level, msg string, fields []ports.Field) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if level < c.level {
		return
	}
	all := append(append([]ports.Field(nil), c.fields...), fields...)

	var line string
	if c.format == FormatJSON {
		line = c.renderJSON(level, msg, all)
	} else {
		line = c.renderText(level, msg, all)
	}
	_, _ = io.WriteString(c.out, line+"\n")
}

func (c *Console) renderJSON(level ports.Level, msg string, fields []ports.Field) string {
	entry := make(map[string]any, len(fields)+3)
	for _, f := range fields {
		entry[f.Key] = jsonValue(f.Value)
	}
	if c.clock != nil {
		entry["time"] = c.clock().UTC().Format(time.RFC3339)
	}
	entry["level"] = level.String()
	entry["msg"] = msg

	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Sprintf(`{"level":%q,"msg":%q,"log_error":%q}`, level.String(), msg, err.Error())
	}
	return string(data)
}

func (c *Console) renderText(level ports.Level, msg string, fields []ports.Field) string {
	var b strings.Builder
	if c.clock != nil {
		b.WriteString(c.clock().Format("15:04:05"))
		b.WriteByte(' ')
	}
	label := fmt.Sprintf("%-5s", level.String())
	if style, ok := levelStyles[level]; ok && c.color {
		label = style.Render(label)
	}
	b.WriteString(label)
	b.WriteByte(' ')
	b.WriteString(msg)
	for _, f := range fields {
		b.WriteByte(' ')
		b.WriteString(f.Key)
		b.WriteByte('=')
		b.WriteString(textValue(f.Value))
	}
	return b.String()
}

func textValue(v any) string {
	var s string
	switch val := v.(type) {
	case error:
		s = val.Error()
	case fmt.Stringer:
		s = val.String()
	case []string:
		s = strings.Join(val, ",")
	default:
		s = fmt.Sprint(val)
	}
	if s == "" || strings.ContainsAny(s, " \t\n\"=") {
		return strconv.Quote(s)
	}
	return s
}

// jsonValue keeps errors and durations readable; encoding/json would turn
// an error into {} and a duration into nanoseconds.
func jsonValue(v any) any {
	switch val := v.(type) {
	case error:
		return val.Error()
	case time.Duration:
		return val.String()
	default:
		return val
	}
}

func isTerminal(w io.Writer) bool {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()))
}

var _ ports.Logger = (*Console)(nil)
