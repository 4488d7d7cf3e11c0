package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"catalog-editor/internal/catalogsync"
	"catalog-editor/internal/focus"
	"catalog-editor/internal/lookup"
	"catalog-editor/internal/model"
	"catalog-editor/internal/opqueue"
	"catalog-editor/internal/store"
)

type mode int

const (
	modeGrid mode = iota
	modeEdit
	modeSearch
	modeForm
	modeOps
	modeConfirmQuit
)

const backendTimeout = 30 * time.Second

type loadedMsg struct {
	labels []model.Label
	err    error
	// note replaces the "labels loaded" status, e.g. after a save.
	note string
}

type savedMsg struct {
	batch catalogsync.Batch
	res   catalogsync.Result
}

type appModel struct {
	svc   Syncer
	queue *opqueue.Store
	state store.StateDir
	log   zerolog.Logger

	coord  *focus.Coordinator
	editor *focus.CellEditor
	input  textinput.Model

	mode     mode
	rows     []gridRow
	cursor   int
	col      int
	offset   int
	expanded map[string]bool
	search   string

	form      *newRowForm
	opsCursor int

	loading bool
	saving  bool
	status  string
	failed  bool

	// restoreKey is the row to put the cursor on after the first load.
	restoreKey string

	width  int
	height int
}

func newAppModel(opts Options) *appModel {
	queue := opts.Queue
	if queue == nil {
		queue = opqueue.New(opqueue.WithLogger(opts.Log))
	}
	m := &appModel{
		svc:      opts.Service,
		queue:    queue,
		state:    opts.State,
		log:      opts.Log,
		coord:    focus.NewCoordinator(),
		expanded: map[string]bool{},
		loading:  true,
		status:   "loading catalog…",
	}
	m.editor = focus.NewCellEditor(m.coord, m.queue)

	m.input = textinput.New()
	m.input.CharLimit = 500
	m.input.Width = 60
	m.input.Prompt = ""

	if st, err := m.state.LoadTUIState(); err == nil {
		m.search = st.Search
		for _, id := range st.Expanded {
			m.expanded[id] = true
		}
		m.restoreKey = st.Cursor
	} else {
		m.log.Warn().Err(err).Msg("load tui state")
	}

	// The grid follows the queue's catalog and the coordinator's active cell.
	m.queue.Subscribe(m.rebuild)
	m.coord.Subscribe(m.followFocus)
	m.rebuild()
	return m
}

func (m *appModel) Init() tea.Cmd { return m.loadCmd("") }

func (m *appModel) loadCmd(note string) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
		defer cancel()
		labels, err := svc.Load(ctx)
		return loadedMsg{labels: labels, err: err, note: note}
	}
}

func (m *appModel) saveCmd(b catalogsync.Batch) tea.Cmd {
	svc := m.svc
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), backendTimeout)
		defer cancel()
		return savedMsg{batch: b, res: svc.Send(ctx, b)}
	}
}

// rebuild recomputes the visible rows, keeping the cursor on the same row when it
// still exists.
func (m *appModel) rebuild() {
	key := m.currentKey()
	m.rows = flatten(lookup.Filter(m.queue.Labels(), m.search), m.expanded)
	if i := indexOfKey(m.rows, key); i >= 0 {
		m.cursor = i
	}
	m.clampCursor()
}

// followFocus moves the cursor onto the coordinator's active cell.
func (m *appModel) followFocus() {
	cell, ok := m.coord.Active()
	if !ok {
		return
	}
	if i := indexOfKey(m.rows, cell.RowKey); i >= 0 {
		m.cursor = i
		if c := columnIndex(m.rows[i].row.Kind, cell.Column); c >= 0 {
			m.col = c
		}
	}
	m.clampCursor()
}

func (m *appModel) clampCursor() {
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	if r, ok := m.current(); ok {
		if n := len(focus.NavigationOrder(r.row.Kind)); m.col >= n {
			m.col = n - 1
		}
	}
	if m.col < 0 {
		m.col = 0
	}
	m.ensureVisible()
}

func (m *appModel) ensureVisible() {
	h := m.gridHeight()
	if h <= 0 {
		m.offset = 0
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
}

func (m *appModel) current() (gridRow, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return gridRow{}, false
	}
	return m.rows[m.cursor], true
}

func (m *appModel) currentKey() string {
	if r, ok := m.current(); ok {
		return r.row.Key()
	}
	return ""
}

func (m *appModel) currentColumn() string {
	r, ok := m.current()
	if !ok {
		return ""
	}
	order := focus.NavigationOrder(r.row.Kind)
	if m.col < 0 || m.col >= len(order) {
		return order[0]
	}
	return order[m.col]
}

func (m *appModel) moveTo(key string) {
	if i := indexOfKey(m.rows, key); i >= 0 {
		m.cursor = i
	}
	m.clampCursor()
}

func (m *appModel) setStatus(format string, args ...any) {
	m.status = fmt.Sprintf(format, args...)
	m.failed = false
}

func (m *appModel) setError(err error) {
	m.status = err.Error()
	m.failed = true
}

func (m *appModel) saveState() {
	st := &store.TUIState{Search: m.search, Cursor: m.currentKey()}
	for id, open := range m.expanded {
		if open {
			st.Expanded = append(st.Expanded, id)
		}
	}
	if err := m.state.SaveTUIState(st); err != nil {
		m.log.Warn().Err(err).Msg("save tui state")
	}
}

var errSaving = errors.New("a save is in progress")

// resolveCellValue maps typed text to the stored value of a cell: reference columns
// accept an option name or id.
func (m *appModel) resolveCellValue(row model.Row, col, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	labels := m.queue.Labels()
	var opts []lookup.Option
	var what string
	switch col {
	case focus.ColSocietyID:
		opts, what = lookup.SocietyOptions(labels), "society"
	case focus.ColCediID:
		opts, what = lookup.CediOptions(labels, focus.CellText(row, focus.ColSocietyID)), "distribution center"
	case focus.ColParentValueID:
		if raw == "" {
			return "", nil
		}
		opts, what = lookup.ParentValueOptions(labels, row.ID()), "value"
	default:
		return raw, nil
	}
	if id, ok := lookup.Resolve(opts, raw); ok {
		return id, nil
	}
	if col != focus.ColParentValueID {
		if _, err := strconv.Atoi(raw); err == nil {
			return raw, nil
		}
	}
	return "", fmt.Errorf("unknown %s %q", what, raw)
}
