package tui

import (
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"

	"catalog-editor/internal/model"
)

func (m *appModel) updateOps(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ops := m.queue.Operations()
	switch msg.String() {
	case "esc", "o", "q":
		m.mode = modeGrid
	case "j", "down":
		if m.opsCursor < len(ops)-1 {
			m.opsCursor++
		}
	case "k", "up":
		if m.opsCursor > 0 {
			m.opsCursor--
		}
	case "x":
		if m.saving {
			m.setError(errSaving)
			return m, nil
		}
		if m.opsCursor < len(ops) {
			op := ops[m.opsCursor]
			if m.queue.RemoveOperation(op.ID) {
				m.setStatus("undid %s %s %s", op.Action, op.Collection, op.TargetID())
			}
		}
		if n := m.queue.Len(); m.opsCursor >= n {
			m.opsCursor = max(0, n-1)
		}
	case "s":
		m.mode = modeGrid
		return m, m.save()
	}
	return m, nil
}

// describeOperation is a one-line summary of a queued operation.
func describeOperation(op model.Operation) string {
	target := op.TargetID()
	if owner := op.OwnerLabelID(); owner != "" {
		target = owner + "/" + target
	}
	var detail string
	switch op.Action {
	case model.ActionCreate:
		detail = describeFields(op.Payload.Fields, model.FieldName, model.FieldValue)
	case model.ActionUpdate:
		detail = describeFields(op.Payload.Updates)
	}
	line := fmt.Sprintf("%-6s %-6s %s", op.Action, op.Collection, target)
	if detail != "" {
		line += "  " + detail
	}
	return line
}

// describeFields renders k=v pairs; with keys given, only those are shown.
func describeFields(f model.Fields, keys ...string) string {
	if len(keys) == 0 {
		for k := range f {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		if v, ok := f[k]; ok {
			parts = append(parts, k+"="+model.FieldString(v))
		}
	}
	return strings.Join(parts, " ")
}

func (m *appModel) viewOps() string {
	ops := m.queue.Operations()
	var b strings.Builder
	b.WriteString(styleHeader().Render(fmt.Sprintf("Pending operations (%d)", len(ops))))
	b.WriteString("\n\n")
	if len(ops) == 0 {
		b.WriteString(styleMuted().Render("nothing queued"))
		b.WriteString("\n")
	}
	w := m.width
	for i, op := range ops {
		line := describeOperation(op)
		if w > 4 {
			line = xansi.Truncate(line, w-4, "…")
		}
		if i == m.opsCursor {
			line = styleSelectedRow().Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(styleMuted().Render("j/k: move   x: undo operation   s: save   esc/o: close"))
	return lipgloss.NewStyle().Padding(0, 1).Render(b.String())
}
