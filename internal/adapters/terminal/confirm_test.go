package terminal

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/bivvy/internal/ports"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m confirmModel, msgs ...tea.Msg) (confirmModel, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	var next tea.Model = m
	for _, msg := range msgs {
		next, cmd = next.Update(msg)
	}
	model, ok := next.(confirmModel)
	require.True(t, ok)
	return model, cmd
}

func TestConfirmModel_Keys(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		def         bool
		keys        []tea.Msg
		answered    bool
		yes         bool
		interrupted bool
	}{
		{name: "starts on default yes", def: true, yes: true},
		{name: "starts on default no", def: false, yes: false},
		{name: "enter takes default", def: true, keys: []tea.Msg{tea.KeyMsg{Type: tea.KeyEnter}}, answered: true, yes: true},
		{name: "y answers yes", def: false, keys: []tea.Msg{runes("y")}, answered: true, yes: true},
		{name: "n answers no", def: true, keys: []tea.Msg{runes("n")}, answered: true, yes: false},
		{name: "esc answers no", def: true, keys: []tea.Msg{tea.KeyMsg{Type: tea.KeyEsc}}, answered: true, yes: false},
		{name: "right then enter", def: true, keys: []tea.Msg{tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyEnter}}, answered: true, yes: false},
		{name: "vim left then enter", def: false, keys: []tea.Msg{runes("h"), tea.KeyMsg{Type: tea.KeyEnter}}, answered: true, yes: true},
		{name: "ctrl+c interrupts", def: true, keys: []tea.Msg{tea.KeyMsg{Type: tea.KeyCtrlC}}, answered: true, yes: false, interrupted: true},
		{name: "keys after answer ignored", def: false, keys: []tea.Msg{runes("y"), runes("n")}, answered: true, yes: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m := newConfirmModel(ports.Prompt{Key: "k", Question: "Continue?", Default: tt.def}, PlainStyles())
			m, _ = press(t, m, tt.keys...)

			yes, interrupted := m.Answer()
			assert.Equal(t, tt.answered, m.answered)
			assert.Equal(t, tt.yes, yes)
			assert.Equal(t, tt.interrupted, interrupted)
		})
	}
}

func TestConfirmModel_QuitsOnAnswer(t *testing.T) {
	t.Parallel()

	m := newConfirmModel(ports.Prompt{Question: "Install ruby?"}, PlainStyles())

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Nil(t, cmd)

	_, cmd = press(t, m, runes("y"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestConfirmModel_View(t *testing.T) {
	t.Parallel()

	m := newConfirmModel(ports.Prompt{Question: "Install ruby?", Default: true}, PlainStyles())
	assert.Equal(t, "? Install ruby? Yes / No  (y/n)", m.View())

	m, _ = press(t, m, runes("n"))
	assert.Equal(t, "? Install ruby? No\n", m.View())
}
