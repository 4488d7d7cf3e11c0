package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderInputLine renders "label: <input>" as one visual line of exactly width cells.
func renderInputLine(width int, label, inputView string) string {
	if width < 10 {
		width = 10
	}
	// A newline in the view would wrap and look like inserted lines while typing.
	inputView = strings.ReplaceAll(inputView, "\n", " ")
	inputView = strings.ReplaceAll(inputView, "\r", " ")

	line := lipgloss.PlaceHorizontal(
		width,
		lipgloss.Left,
		" "+styleHeader().Render(label+":")+" "+inputView+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
	if xansi.StringWidth(line) > width {
		// Terminate styling so a cut sequence does not bleed.
		line = xansi.Cut(line, 0, width) + "\x1b[0m"
	}
	return line
}
