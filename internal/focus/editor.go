package focus

import (
	"errors"
	"strconv"
	"strings"

	"catalog-editor/internal/model"
)

var (
	ErrNotEditing = errors.New("no cell is being edited")
	ErrNotNumber  = errors.New("value must be a number")
)

// Committer receives the operations a cell commit produces. *opqueue.Store satisfies it.
type Committer interface {
	AddOperation(op model.Operation) string
}

// CellEditor is the inline editor of a single cell.
type CellEditor struct {
	coord *Coordinator
	queue Committer

	editing  bool
	row      model.Row
	col      string
	original string
	value    string
}

func NewCellEditor(coord *Coordinator, queue Committer) *CellEditor {
	return &CellEditor{coord: coord, queue: queue}
}

// Begin opens the editor on (row, col) with the cell's current text.
func (e *CellEditor) Begin(row model.Row, col string) {
	e.editing = true
	e.row = row.Clone()
	e.col = col
	e.original = CellText(row, col)
	e.value = e.original
}

func (e *CellEditor) Editing() bool  { return e.editing }
func (e *CellEditor) Column() string { return e.col }
func (e *CellEditor) Value() string  { return e.value }
func (e *CellEditor) Row() model.Row { return e.row }

func (e *CellEditor) SetValue(v string) {
	if e.editing {
		e.value = v
	}
}

// Escape drops the pending value. The coordinator keeps its pointer.
func (e *CellEditor) Escape() {
	e.value = e.original
	e.editing = false
}

// Commit queues the pending value (if it changed) and closes the editor. The returned
// key is the row's key after the commit, which differs from the old one when the id
// column itself was edited.
func (e *CellEditor) Commit() (string, error) {
	if !e.editing {
		return "", ErrNotEditing
	}
	if e.col == ColSequence && strings.TrimSpace(e.value) != "" {
		if _, err := strconv.Atoi(strings.TrimSpace(e.value)); err != nil {
			return e.row.Key(), ErrNotNumber
		}
	}
	key := e.row.Key()
	if op, ok := CellUpdate(e.row, e.col, e.value); ok {
		e.queue.AddOperation(op)
		if e.col == IDColumn(e.row.Kind) {
			key = model.RowKey(e.row.Kind, strings.TrimSpace(e.value))
		}
	}
	e.editing = false
	return key, nil
}

// Tab commits the cell and moves the coordinator to the next column of the row kind's
// order, or clears it after the last column. A failed commit leaves everything as is.
func (e *CellEditor) Tab() (Cell, bool, error) {
	kind, col := e.row.Kind, e.col
	key, err := e.Commit()
	if err != nil {
		return Cell{}, false, err
	}
	next, ok := NextColumn(kind, col)
	if !ok {
		e.coord.Clear()
		return Cell{}, false, nil
	}
	cell := Cell{RowKey: key, Column: next}
	e.coord.Set(&cell)
	return cell, true, nil
}
