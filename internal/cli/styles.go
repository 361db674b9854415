package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	accent      = lipgloss.Color("#8BC34A")
	destructive = lipgloss.Color("#e53935")
	muted       = lipgloss.Color("#7a8699")
)

type styles struct {
	Header  lipgloss.Style
	Prompt  lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

// newStyles binds the styles to out so colour is dropped when out is not a
// terminal.
func newStyles(out io.Writer) styles {
	r := lipgloss.NewRenderer(out)
	return styles{
		Header: r.NewStyle().
			Foreground(accent).
			Bold(true),
		Prompt: r.NewStyle().
			Bold(true),
		Success: r.NewStyle().
			Foreground(accent),
		Error: r.NewStyle().
			Foreground(destructive),
		Muted: r.NewStyle().
			Foreground(muted).
			Italic(true),
	}
}
