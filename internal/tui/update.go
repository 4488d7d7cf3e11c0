package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"catalog-editor/internal/focus"
	"catalog-editor/internal/model"
	"catalog-editor/internal/validate"
)

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(10, msg.Width-24)
		m.ensureVisible()
		return m, nil

	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			// The catalog stays as it was.
			m.log.Error().Err(msg.err).Msg("fetch catalog failed")
			m.setError(msg.err)
			return m, nil
		}
		m.queue.SetLabels(msg.labels)
		if m.restoreKey != "" {
			m.moveTo(m.restoreKey)
			m.restoreKey = ""
		}
		if msg.note != "" {
			m.setStatus("%s", msg.note)
		} else {
			m.setStatus("%d labels loaded", len(msg.labels))
		}
		return m, nil

	case savedMsg:
		m.saving = false
		m.svc.Complete(msg.batch, msg.res)
		if err := msg.res.Err(); err != nil {
			m.log.Warn().Err(err).Int("operations", len(msg.batch.Operations)).Msg("save rejected")
			m.setError(err)
			return m, nil
		}
		m.loading = true
		return m, m.loadCmd(msg.res.Message)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.saveState()
			return m, tea.Quit
		}
		switch m.mode {
		case modeEdit:
			return m.updateEdit(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeOps:
			return m.updateOps(msg)
		case modeConfirmQuit:
			return m.updateConfirmQuit(msg)
		default:
			return m.updateGrid(msg)
		}
	}
	return m, nil
}

// mutating reports whether a key would change the queue or the catalog.
func mutating(key string) bool {
	switch key {
	case "enter", "n", "N", "d", "s", "r":
		return true
	}
	return false
}

func (m *appModel) updateGrid(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if m.saving && mutating(key) {
		m.setError(errSaving)
		return m, nil
	}
	switch key {
	case "q":
		if m.queue.Len() > 0 {
			m.mode = modeConfirmQuit
			return m, nil
		}
		m.saveState()
		return m, tea.Quit
	case "j", "down":
		m.cursor++
		m.clampCursor()
	case "k", "up":
		m.cursor--
		m.clampCursor()
	case "g", "home":
		m.cursor = 0
		m.clampCursor()
	case "G", "end":
		m.cursor = len(m.rows) - 1
		m.clampCursor()
	case "h", "left":
		m.col--
		m.clampCursor()
	case "l", "right":
		m.col++
		m.clampCursor()
	case " ", "space":
		m.toggleExpand()
	case "enter":
		m.beginEdit()
		return m, textinput.Blink
	case "/":
		m.mode = modeSearch
		m.input.SetValue(m.search)
		m.input.CursorEnd()
		m.input.Focus()
		return m, textinput.Blink
	case "n":
		m.openLabelForm()
		return m, textinput.Blink
	case "N":
		m.openValueForm()
		return m, textinput.Blink
	case "d":
		m.deleteCurrent()
	case "o":
		m.mode = modeOps
		m.opsCursor = 0
	case "s":
		return m, m.save()
	case "r":
		return m, m.reload()
	}
	return m, nil
}

func (m *appModel) toggleExpand() {
	r, ok := m.current()
	if !ok {
		return
	}
	id := r.row.ID()
	if r.row.Kind == model.RowKindValue {
		id = r.row.OwnerID()
	}
	m.expanded[id] = !m.expanded[id]
	if !m.expanded[id] {
		delete(m.expanded, id)
	}
	m.rebuild()
	// Collapsing from a value row lands on its label.
	if r.row.Kind == model.RowKindValue && !m.expanded[id] {
		m.moveTo(model.RowKey(model.RowKindLabel, id))
	}
}

func (m *appModel) beginEdit() {
	r, ok := m.current()
	if !ok {
		return
	}
	if r.row.Status() == model.StatusMarkedDeleted {
		m.setStatus("row is marked for deletion; undo it from the operations panel (o)")
		return
	}
	m.startEditing(r.row, m.currentColumn())
}

func (m *appModel) startEditing(row model.Row, col string) {
	m.editor.Begin(row, col)
	m.coord.Set(&focus.Cell{RowKey: row.Key(), Column: col})
	m.input.SetValue(m.editor.Value())
	m.input.CursorEnd()
	m.input.Focus()
	m.mode = modeEdit
	m.status = ""
}

func (m *appModel) endEdit() {
	m.input.Blur()
	m.mode = modeGrid
}

func (m *appModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.editor.Escape()
		m.coord.Clear()
		m.endEdit()
		return m, nil
	case "enter":
		m.commitEdit(false)
		return m, nil
	case "tab":
		m.commitEdit(true)
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.editor.SetValue(m.input.Value())
	return m, cmd
}

// commitEdit validates and commits the open cell. With advance it moves on to the
// next column the way Tab does; a failed commit keeps the editor open.
func (m *appModel) commitEdit(advance bool) {
	row, col := m.editor.Row(), m.editor.Column()
	value, err := m.resolveCellValue(row, col, m.input.Value())
	if err != nil {
		m.setError(err)
		return
	}
	if op, ok := focus.CellUpdate(row, col, value); ok {
		if err := validate.Update(m.queue.Labels(), row, op.Payload.Updates); err != nil {
			m.setError(err)
			return
		}
	}
	m.editor.SetValue(value)

	if !advance {
		key, err := m.editor.Commit()
		if err != nil {
			m.setError(err)
			return
		}
		m.coord.Clear()
		m.endEdit()
		m.moveTo(key)
		return
	}

	cell, ok, err := m.editor.Tab()
	if err != nil {
		m.setError(err)
		return
	}
	if !ok {
		m.endEdit()
		return
	}
	i := indexOfKey(m.rows, cell.RowKey)
	if i < 0 {
		// The row left the view (e.g. the search no longer matches it).
		m.coord.Clear()
		m.endEdit()
		return
	}
	m.startEditing(m.rows[i].row, cell.Column)
}

func (m *appModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.search = ""
		m.input.Blur()
		m.mode = modeGrid
		m.rebuild()
		return m, nil
	case "enter":
		m.input.Blur()
		m.mode = modeGrid
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	// Filter as you type.
	m.search = m.input.Value()
	m.rebuild()
	return m, cmd
}

func (m *appModel) updateConfirmQuit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.saveState()
		return m, tea.Quit
	default:
		m.mode = modeGrid
		return m, nil
	}
}

func (m *appModel) deleteCurrent() {
	r, ok := m.current()
	if !ok {
		return
	}
	if r.row.Status() == model.StatusMarkedDeleted {
		m.setStatus("already marked for deletion")
		return
	}
	m.queue.AddOperation(model.NewDelete(r.row.Kind.Collection(), r.row.ID(), r.row.OwnerID()))
	m.setStatus("%s %s marked for deletion", r.row.Kind, r.row.ID())
}

func (m *appModel) save() tea.Cmd {
	if m.queue.Len() == 0 {
		m.setStatus("no changes to save")
		return nil
	}
	b := m.svc.PrepareBatch()
	m.saving = true
	m.setStatus("saving %d changes…", len(b.Operations))
	return m.saveCmd(b)
}

func (m *appModel) reload() tea.Cmd {
	if m.queue.Len() > 0 {
		m.setStatus("save (s) or undo (o) pending changes before reloading")
		return nil
	}
	m.loading = true
	m.setStatus("loading catalog…")
	return m.loadCmd("")
}
