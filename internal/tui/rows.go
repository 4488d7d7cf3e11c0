package tui

import (
	"strings"

	"catalog-editor/internal/focus"
	"catalog-editor/internal/lookup"
	"catalog-editor/internal/model"
)

// gridRow is one visible line of the nested grid.
type gridRow struct {
	row model.Row
	// values is the number of values of a label row, shown next to the expand glyph.
	values int
}

// flatten lays labels out as grid rows, each expanded label followed by its values.
func flatten(labels []model.Label, expanded map[string]bool) []gridRow {
	out := make([]gridRow, 0, len(labels))
	for _, l := range labels {
		out = append(out, gridRow{row: model.LabelRow(l), values: len(l.Values)})
		if !expanded[l.LabelID] {
			continue
		}
		for _, v := range l.Values {
			out = append(out, gridRow{row: model.ValueRow(v)})
		}
	}
	return out
}

func indexOfKey(rows []gridRow, key string) int {
	if key == "" {
		return -1
	}
	for i, r := range rows {
		if r.row.Key() == key {
			return i
		}
	}
	return -1
}

func columnIndex(kind model.RowKind, col string) int {
	for i, c := range focus.NavigationOrder(kind) {
		if c == col {
			return i
		}
	}
	return -1
}

// displayCell is the read-only rendering of a cell: reference columns show names.
func displayCell(labels []model.Label, row model.Row, col string) string {
	text := focus.CellText(row, col)
	switch col {
	case focus.ColSocietyID:
		return lookup.DisplayName(lookup.SocietyOptions(labels), text)
	case focus.ColCediID:
		society := focus.CellText(row, focus.ColSocietyID)
		return lookup.DisplayName(lookup.CediOptions(labels, society), text)
	case focus.ColParentValueID:
		return lookup.ParentValueName(labels, text)
	}
	return strings.ReplaceAll(text, "\n", " ")
}
