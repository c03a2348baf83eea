package shell

import (
	"bytes"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/wippyai/tysh/errors"
)

// TUIOptions configures the interactive program.
type TUIOptions struct {
	Prompt string
	// HistorySize bounds the number of remembered lines; 0 disables history.
	HistorySize int
}

type tuiModel struct {
	session  *Session
	prompt   string
	draft    string
	history  []string
	input    textinput.Model
	limit    int
	pos      int
	quitting bool
}

func newTUIModel(s *Session, opts TUIOptions) *tuiModel {
	ti := textinput.New()
	ti.Prompt = s.theme.Prompt(opts.Prompt)
	ti.Focus()
	return &tuiModel{
		session: s,
		prompt:  opts.Prompt,
		input:   ti,
		limit:   opts.HistorySize,
	}
}

func (m *tuiModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m *tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			return m, m.submit()

		case tea.KeyCtrlC:
			line := m.input.Value()
			m.input.Reset()
			m.pos = len(m.history)
			return m, tea.Println(m.input.Prompt + line + "^C")

		case tea.KeyCtrlD:
			if m.input.Value() == "" {
				m.quitting = true
				return m, tea.Quit
			}

		case tea.KeyUp:
			m.older()
			return m, nil

		case tea.KeyDown:
			m.newer()
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *tuiModel) View() string {
	if m.quitting {
		return ""
	}
	return m.input.View()
}

// submit runs the current line and prints it, with its output, above the
// input.
func (m *tuiModel) submit() tea.Cmd {
	line := m.input.Value()
	m.input.Reset()
	m.remember(line)

	var out bytes.Buffer
	m.session.SetOutput(&out)
	quit := m.session.Exec(line)

	cmds := []tea.Cmd{tea.Println(m.input.Prompt + line)}
	if out.Len() > 0 {
		cmds = append(cmds, tea.Println(strings.TrimSuffix(out.String(), "\n")))
	}
	if quit {
		m.quitting = true
		cmds = append(cmds, tea.Quit)
	}
	return tea.Sequence(cmds...)
}

func (m *tuiModel) remember(line string) {
	defer func() {
		m.pos = len(m.history)
		m.draft = ""
	}()
	if m.limit <= 0 || strings.TrimSpace(line) == "" {
		return
	}
	if n := len(m.history); n > 0 && m.history[n-1] == line {
		return
	}
	m.history = append(m.history, line)
	if over := len(m.history) - m.limit; over > 0 {
		m.history = append(m.history[:0], m.history[over:]...)
	}
}

func (m *tuiModel) older() {
	if m.pos == 0 {
		return
	}
	if m.pos == len(m.history) {
		m.draft = m.input.Value()
	}
	m.pos--
	m.show(m.history[m.pos])
}

func (m *tuiModel) newer() {
	if m.pos >= len(m.history) {
		return
	}
	m.pos++
	if m.pos == len(m.history) {
		m.show(m.draft)
		return
	}
	m.show(m.history[m.pos])
}

func (m *tuiModel) show(line string) {
	m.input.SetValue(line)
	m.input.CursorEnd()
}

// RunTUI runs the interactive program until exit, ^D or end of input.
func RunTUI(s *Session, opts TUIOptions) error {
	p := tea.NewProgram(newTUIModel(s, opts))
	if _, err := p.Run(); err != nil {
		return errors.Wrap(errors.PhaseParse, errors.KindInvalidInput, err, "run interactive shell")
	}
	Logger().Debug("interactive shell closed", zap.Int("history", opts.HistorySize))
	return nil
}
