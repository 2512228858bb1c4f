package theme

import (
	"github.com/charmbracelet/lipgloss"
)

type Theme struct {
	Title      lipgloss.Style
	ModePill   lipgloss.Style
	ActiveLine lipgloss.Style
	MetaLabel  lipgloss.Style
	MetaValue  lipgloss.Style
	StateIdle  lipgloss.Style
	StateWarn  lipgloss.Style
	StateLoad  lipgloss.Style

	Author      lipgloss.Style
	NoteTitle   lipgloss.Style
	ThreadBadge lipgloss.Style
	Timestamp   lipgloss.Style
}

func Default() Theme {
	colText := lipgloss.Color("#cdd6f4")
	colSubtext := lipgloss.Color("#a6adc8")
	colOverlay := lipgloss.Color("#7f849c")
	colSurface := lipgloss.Color("#313244")
	colMauve := lipgloss.Color("#cba6f7")
	colRed := lipgloss.Color("#f38ba8")
	colPeach := lipgloss.Color("#fab387")
	colYellow := lipgloss.Color("#f9e2af")
	colGreen := lipgloss.Color("#a6e3a1")
	colLavender := lipgloss.Color("#b4befe")

	return Theme{
		Title:      lipgloss.NewStyle().Bold(true).Foreground(colMauve),
		ModePill:   lipgloss.NewStyle().Foreground(colLavender).Background(colSurface).Padding(0, 1),
		ActiveLine: lipgloss.NewStyle().Background(colSurface).Foreground(colText),
		MetaLabel:  lipgloss.NewStyle().Foreground(colOverlay),
		MetaValue:  lipgloss.NewStyle().Foreground(colSubtext),
		StateIdle:  lipgloss.NewStyle().Foreground(colGreen),
		StateWarn:  lipgloss.NewStyle().Foreground(colRed),
		StateLoad:  lipgloss.NewStyle().Foreground(colPeach),

		Author:      lipgloss.NewStyle().Foreground(colLavender),
		NoteTitle:   lipgloss.NewStyle().Foreground(colText),
		ThreadBadge: lipgloss.NewStyle().Foreground(colYellow).Bold(true),
		Timestamp:   lipgloss.NewStyle().Foreground(colOverlay),
	}
}

// RenderActiveLine highlights the cursor row; inactive rows pass through.
func (t Theme) RenderActiveLine(active bool, line string) string {
	if !active {
		return line
	}
	return t.ActiveLine.Render(line)
}
