package terminal

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/felixgeelhaar/bivvy/internal/ports"
)

// confirmModel is a one-line yes/no question. The highlighted choice
// starts on the prompt's default.
type confirmModel struct {
	prompt      ports.Prompt
	yes         bool
	answered    bool
	interrupted bool
	keys        keyMap
	styles      Styles
}

func newConfirmModel(prompt ports.Prompt, styles Styles) confirmModel {
	return confirmModel{
		prompt: prompt,
		yes:    prompt.Default,
		keys:   defaultKeys(),
		styles: styles,
	}
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || m.answered {
		return m, nil
	}

	switch {
	case key.Matches(keyMsg, m.keys.Interrupt):
		m.interrupted = true
		m.answered = true
		m.yes = false
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Yes):
		return m.choose(true)
	case key.Matches(keyMsg, m.keys.No):
		return m.choose(false)
	case key.Matches(keyMsg, m.keys.Select):
		return m.choose(m.yes)
	case key.Matches(keyMsg, m.keys.Left):
		m.yes = true
	case key.Matches(keyMsg, m.keys.Right):
		m.yes = false
	}
	return m, nil
}

func (m confirmModel) choose(yes bool) (tea.Model, tea.Cmd) {
	m.yes = yes
	m.answered = true
	return m, tea.Quit
}

func (m confirmModel) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Prompt.Render("? " + m.prompt.Question))
	b.WriteByte(' ')

	if m.answered {
		b.WriteString(m.styles.Muted.Render(yesNo(m.yes)))
		b.WriteByte('\n')
		return b.String()
	}

	yes, no := m.styles.Choice, m.styles.ChoiceActive
	if m.yes {
		yes, no = m.styles.ChoiceActive, m.styles.Choice
	}
	b.WriteString(yes.Render("Yes"))
	b.WriteString(" / ")
	b.WriteString(no.Render("No"))
	b.WriteString(m.styles.Muted.Render("  (y/n)"))
	return b.String()
}

// Answer reports the chosen value and whether the prompt was interrupted.
func (m confirmModel) Answer() (bool, bool) {
	return m.yes, m.interrupted
}
