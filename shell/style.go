package shell

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/fatih/color"

	"github.com/wippyai/tysh/render"
)

// Theme decorates shell output. It extends render.Style so entry
// references in summaries use the same colors as the shell's own lines.
type Theme interface {
	render.Style
	Prompt(s string) string
	Error(s string) string
	Note(s string) string
}

// PlainTheme adds no decoration.
type PlainTheme struct {
	render.Plain
}

func (PlainTheme) Prompt(s string) string { return s }
func (PlainTheme) Error(s string) string { return s }
func (PlainTheme) Note(s string) string { return s }

// ColorTheme styles line-mode output with ANSI colors.
type ColorTheme struct {
	name   *color.Color
	addr   *color.Color
	prompt *color.Color
	err    *color.Color
	note   *color.Color
}

// NewColorTheme returns a theme that always emits color; callers decide
// whether the terminal wants it.
func NewColorTheme() *ColorTheme {
	t := &ColorTheme{
		name:   color.New(color.Bold),
		addr:   color.New(color.Faint),
		prompt: color.New(color.FgGreen),
		err:    color.New(color.FgRed),
		note:   color.New(color.FgYellow),
	}
	for _, c := range []*color.Color{t.name, t.addr, t.prompt, t.err, t.note} {
		c.EnableColor()
	}
	return t
}

func (t *ColorTheme) Name(s string) string { return t.name.Sprint(s) }
func (t *ColorTheme) Addr(s string) string { return t.addr.Sprint(s) }
func (t *ColorTheme) Prompt(s string) string { return t.prompt.Sprint(s) }
func (t *ColorTheme) Error(s string) string { return t.err.Sprint(s) }
func (t *ColorTheme) Note(s string) string { return t.note.Sprint(s) }

var (
	tuiNameStyle = lipgloss.NewStyle().
			Bold(true)

	tuiAddrStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	tuiPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	tuiErrorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	tuiNoteStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD75F"))
)

// TUITheme styles output with lipgloss for the interactive program.
type TUITheme struct{}

func (TUITheme) Name(s string) string { return tuiNameStyle.Render(s) }
func (TUITheme) Addr(s string) string { return tuiAddrStyle.Render(s) }
func (TUITheme) Prompt(s string) string { return tuiPromptStyle.Render(s) }
func (TUITheme) Error(s string) string { return tuiErrorStyle.Render(s) }
func (TUITheme) Note(s string) string { return tuiNoteStyle.Render(s) }
