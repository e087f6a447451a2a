package system_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/bivvy/internal/adapters/system"
	"github.com/felixgeelhaar/bivvy/internal/domain/probe"
	"github.com/felixgeelhaar/bivvy/internal/ports"
	"github.com/felixgeelhaar/bivvy/internal/testutil/mocks"
)

func TestEffects_RunCommand(t *testing.T) {
	t.Parallel()

	shell := mocks.NewShell().
		AddResult("brew install redis", ports.ShellResult{ExitCode: 0, Stdout: "==> Pouring redis\n"}).
		Fail("brew install ghost", 1, "No available formula").
		AddError("broken", errors.New("exec: not found"))

	var lines []string
	effects := system.NewEffects(shell, "/project", probe.NewSearchPath(),
		system.WithOutput(func(line ports.OutputLine) { lines = append(lines, line.Text) }),
	)
	ctx := context.Background()

	assert.True(t, effects.RunCommand(ctx, "brew install redis", []string{"/opt/homebrew/bin", "/usr/bin"}))
	assert.False(t, effects.RunCommand(ctx, "brew install ghost", nil))
	assert.False(t, effects.RunCommand(ctx, "broken", nil))

	calls := shell.Calls()
	require.Len(t, calls, 3)
	assert.Equal(t, "/project", calls[0].Options.Dir)
	assert.Equal(t, []string{"/opt/homebrew/bin", "/usr/bin"}, calls[0].Options.SearchPath)
	assert.Equal(t, []string{"==> Pouring redis", "No available formula"}, lines)
}

func TestEffects_PrependPath(t *testing.T) {
	t.Parallel()

	search := probe.NewSearchPath()
	effects := system.NewEffects(mocks.NewShell(), "/project", search)

	effects.PrependPath("/opt/rubies/3.3/bin")
	effects.PrependPath("/home/me/.volta/bin")
	effects.PrependPath("/opt/rubies/3.3/bin")

	assert.Equal(t, []string{"/home/me/.volta/bin", "/opt/rubies/3.3/bin"}, search.Entries())
}

type recordingDialer struct {
	mu        sync.Mutex
	reachable map[string]bool
	dialled   []string
}

func (d *recordingDialer) dial(_ context.Context, network, address string) (net.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dialled = append(d.dialled, network+"://"+address)
	if !d.reachable[address] {
		return nil, errors.New("connection refused")
	}
	client, server := net.Pipe()
	_ = server.Close()
	return client, nil
}

func TestEffects_NetworkAvailable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		reachable map[string]bool
		want      bool
		dialled   []string
	}{
		{
			name:      "first host answers",
			reachable: map[string]bool{"1.1.1.1:443": true},
			want:      true,
			dialled:   []string{"tcp://1.1.1.1:443"},
		},
		{
			name:      "falls through to last host",
			reachable: map[string]bool{"9.9.9.9:443": true},
			want:      true,
			dialled:   []string{"tcp://1.1.1.1:443", "tcp://8.8.8.8:443", "tcp://9.9.9.9:443"},
		},
		{
			name:    "offline",
			want:    false,
			dialled: []string{"tcp://1.1.1.1:443", "tcp://8.8.8.8:443", "tcp://9.9.9.9:443"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			dialer := &recordingDialer{reachable: tt.reachable}
			effects := system.NewEffects(mocks.NewShell(), "/project", probe.NewSearchPath(),
				system.WithDialer(dialer.dial),
				system.WithDialTimeout(50*time.Millisecond),
			)

			assert.Equal(t, tt.want, effects.NetworkAvailable(context.Background()))
			assert.Equal(t, tt.dialled, dialer.dialled)
		})
	}
}

func TestEffects_NetworkAvailable_CancelledContext(t *testing.T) {
	t.Parallel()

	dialer := &recordingDialer{}
	effects := system.NewEffects(mocks.NewShell(), "/project", probe.NewSearchPath(),
		system.WithDialer(dialer.dial),
		system.WithProbeHosts("10.0.0.1:443", "10.0.0.2:443"),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, effects.NetworkAvailable(ctx))
	assert.Equal(t, []string{"tcp://10.0.0.1:443"}, dialer.dialled)
}

func TestEffects_DialsRealListener(t *testing.T) {
	t.Parallel()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = listener.Close() })
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	effects := system.NewEffects(mocks.NewShell(), "/project", probe.NewSearchPath(),
		system.WithProbeHosts(listener.Addr().String()),
	)

	assert.True(t, effects.NetworkAvailable(context.Background()))
}
