package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"catalog-editor/internal/focus"
	"catalog-editor/internal/model"
)

var columnWidths = map[string]int{
	focus.ColName:          22,
	focus.ColLabelID:       16,
	focus.ColSocietyID:     14,
	focus.ColCediID:        14,
	focus.ColCollection:    12,
	focus.ColSection:       12,
	focus.ColSequence:      5,
	focus.ColIndex:         16,
	focus.ColImage:         10,
	focus.ColRoute:         10,
	focus.ColDescription:   24,
	focus.ColValue:         20,
	focus.ColValueID:       16,
	focus.ColParentValueID: 18,
	focus.ColAlias:         10,
}

// chromeLines is everything but the grid: title, header, input/status and help.
const chromeLines = 5

func (m *appModel) gridHeight() int {
	if m.height <= 0 {
		return 0
	}
	return max(1, m.height-chromeLines)
}

// fit truncates or pads s to exactly w cells.
func fit(s string, w int) string {
	s = xansi.Truncate(s, w, "…")
	if pad := w - xansi.StringWidth(s); pad > 0 {
		s += strings.Repeat(" ", pad)
	}
	return s
}

func (m *appModel) View() string {
	if m.mode == modeOps {
		return m.viewOps()
	}
	lines := []string{m.viewTitle(), m.viewHeader()}
	lines = append(lines, m.viewGrid()...)
	lines = append(lines, m.viewBottom(), m.viewHelp())
	return strings.Join(lines, "\n")
}

func (m *appModel) viewTitle() string {
	title := styleHeader().Render("catalog")
	parts := []string{title, fmt.Sprintf("%d rows", len(m.rows))}
	if n := m.queue.Len(); n > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(colorModified).Render(fmt.Sprintf("%d pending", n)))
	}
	if m.search != "" {
		parts = append(parts, styleMuted().Render("/"+m.search))
	}
	switch {
	case m.saving:
		parts = append(parts, styleMuted().Render("saving…"))
	case m.loading:
		parts = append(parts, styleMuted().Render("loading…"))
	}
	return m.clip(strings.Join(parts, "  "))
}

// viewHeader names the columns of the row kind under the cursor.
func (m *appModel) viewHeader() string {
	kind := model.RowKindLabel
	if r, ok := m.current(); ok {
		kind = r.row.Kind
	}
	cells := []string{"   "}
	if kind == model.RowKindValue {
		cells[0] = "     "
	}
	for _, col := range focus.NavigationOrder(kind) {
		cells = append(cells, fit(strings.ToUpper(col), columnWidths[col]))
	}
	return m.clip(styleMuted().Render(strings.Join(cells, " ")))
}

func (m *appModel) viewGrid() []string {
	if len(m.rows) == 0 {
		msg := "no labels"
		if m.search != "" {
			msg = "no labels match /" + m.search
		}
		return []string{styleMuted().Render("  " + msg)}
	}
	start, end := 0, len(m.rows)
	if h := m.gridHeight(); h > 0 {
		start = min(m.offset, len(m.rows))
		end = min(start+h, len(m.rows))
	}
	labels := m.queue.Labels()
	out := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, m.viewRow(labels, i))
	}
	return out
}

func (m *appModel) viewRow(labels []model.Label, i int) string {
	r := m.rows[i]
	selected := i == m.cursor
	status := r.row.Status()

	var lead string
	if r.row.Kind == model.RowKindLabel {
		glyph := "▸"
		if m.expanded[r.row.ID()] {
			glyph = "▾"
		}
		if r.values == 0 {
			glyph = " "
		}
		lead = statusMarker(status) + glyph + " "
	} else {
		lead = statusMarker(status) + "  └ "
	}

	cellStyle := statusRowStyle(status)
	if selected {
		cellStyle = cellStyle.Inherit(styleSelectedRow())
	}
	cells := make([]string, 0, len(focus.NavigationOrder(r.row.Kind)))
	for c, col := range focus.NavigationOrder(r.row.Kind) {
		text := fit(displayCell(labels, r.row, col), columnWidths[col])
		switch {
		case m.coord.IsActive(r.row.Key(), col):
			cells = append(cells, styleActiveCell().Render(text))
		case selected && c == m.col && m.mode == modeGrid:
			cells = append(cells, styleActiveCell().Faint(true).Render(text))
		default:
			cells = append(cells, cellStyle.Render(text))
		}
	}
	return m.clip(lead + strings.Join(cells, " "))
}

func (m *appModel) viewBottom() string {
	w := m.width
	if w <= 0 {
		w = 80
	}
	switch m.mode {
	case modeEdit:
		return renderInputLine(w, "edit "+m.editor.Column(), m.input.View())
	case modeSearch:
		return renderInputLine(w, "search", m.input.View())
	case modeForm:
		return renderInputLine(w, m.form.prompt(), m.input.View())
	case modeConfirmQuit:
		return styleError().Render(fmt.Sprintf("Discard %d pending changes and quit? (y/N)", m.queue.Len()))
	}
	if m.status == "" {
		return ""
	}
	if m.failed {
		return m.clip(styleError().Render(m.status))
	}
	return m.clip(styleMuted().Render(m.status))
}

func (m *appModel) viewHelp() string {
	var help string
	switch m.mode {
	case modeEdit:
		help = "enter: save cell   tab: save + next   esc: revert"
	case modeSearch:
		help = "enter: keep filter   esc: clear"
	case modeForm:
		help = "enter/tab: next field   esc: cancel"
	default:
		help = "j/k h/l: move   enter: edit   space: expand   /: search   n/N: new label/value   d: delete   o: pending   s: save   r: reload   q: quit"
	}
	return m.clip(styleMuted().Render(help))
}

// clip keeps a line inside the terminal width.
func (m *appModel) clip(line string) string {
	if m.width <= 0 || xansi.StringWidth(line) <= m.width {
		return line
	}
	return xansi.Truncate(line, m.width, "")
}
