package logging_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/bivvy/internal/adapters/logging"
	"github.com/felixgeelhaar/bivvy/internal/ports"
)

var fixedTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestConsole(buf *bytes.Buffer, opts ...logging.Option) *logging.Console {
	base := []logging.Option{
		logging.WithOutput(buf),
		logging.WithLevel(ports.LevelDebug),
		logging.WithColor(false),
		logging.WithClock(func() time.Time { return fixedTime }),
	}
	return logging.NewConsole(append(base, opts...)...)
}

func TestConsole_Text(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestConsole(&buf)

	logger.Info(context.Background(), "step finished",
		ports.F("step", "deps"),
		ports.F("attempts", 2),
		ports.F("detail", "took a while"),
		ports.F("err", errors.New("boom")),
		ports.F("path", []string{"/a", "/b"}),
	)

	assert.Equal(t, `09:26:53 INFO  step finished step=deps attempts=2 detail="took a while" err=boom path=/a,/b`+"\n", buf.String())
}

func TestConsole_TextWithoutClock(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestConsole(&buf, logging.WithClock(nil))

	logger.Warn(context.Background(), "careful", ports.F("empty", ""))

	assert.Equal(t, `WARN  careful empty=""`+"\n", buf.String())
}

func TestConsole_JSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestConsole(&buf, logging.WithFormat(logging.FormatJSON))

	logger.Error(context.Background(), "step failed",
		ports.F("step", "db"),
		ports.F("err", errors.New("exit 1")),
		ports.F("duration", 1500*time.Millisecond),
	)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, map[string]any{
		"time":     "2026-03-14T09:26:53Z",
		"level":    "ERROR",
		"msg":      "step failed",
		"step":     "db",
		"err":      "exit 1",
		"duration": "1.5s",
	}, entry)
}

func TestConsole_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestConsole(&buf, logging.WithLevel(ports.LevelWarn), logging.WithClock(nil))
	ctx := context.Background()

	logger.Debug(ctx, "hidden")
	logger.Info(ctx, "hidden")
	assert.Empty(t, buf.String())

	logger.Warn(ctx, "shown")
	logger.SetLevel(ports.LevelDebug)
	logger.Debug(ctx, "now shown")

	assert.Equal(t, "WARN  shown\nDEBUG now shown\n", buf.String())
	assert.Equal(t, ports.LevelDebug, logger.Level())
}

func TestConsole_With(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTestConsole(&buf, logging.WithClock(nil))
	child := logger.With(ports.F("run", "abc"))
	grandchild := child.With(ports.F("step", "deps"))
	ctx := context.Background()

	grandchild.Info(ctx, "one")
	child.Info(ctx, "two")
	logger.Info(ctx, "three")

	assert.Equal(t, "INFO  one run=abc step=deps\nINFO  two run=abc\nINFO  three\n", buf.String())
}

func TestDiscard(t *testing.T) {
	t.Parallel()

	logger := logging.Discard()
	logger.Error(context.Background(), "nothing")
	assert.Greater(t, logger.Level(), ports.LevelError)
}

func TestNew(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		level   string
		format  string
		wantErr string
	}{
		{name: "defaults", level: "info", format: ""},
		{name: "json debug", level: "DEBUG", format: "json"},
		{name: "warning alias", level: "warning", format: "text"},
		{name: "bad level", level: "loud", format: "text", wantErr: `unknown log level "loud"`},
		{name: "bad format", level: "info", format: "xml", wantErr: `unknown log format "xml"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			logger, err := logging.New(tt.level, tt.format, &buf)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			logger.Error(context.Background(), "visible")
			assert.Contains(t, buf.String(), "visible")
		})
	}
}
