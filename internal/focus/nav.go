package focus

import (
	"strconv"
	"strings"

	"catalog-editor/internal/model"
)

// Column ids as shown in the grid.
const (
	ColName          = "etiqueta"
	ColLabelID       = "idetiqueta"
	ColSocietyID     = "idsociedad"
	ColCediID        = "idcedi"
	ColCollection    = "coleccion"
	ColSection       = "seccion"
	ColSequence      = "secuencia"
	ColIndex         = "indice"
	ColImage         = "imagen"
	ColRoute         = "ruta"
	ColDescription   = "descripcion"
	ColValue         = "valor"
	ColValueID       = "idvalor"
	ColParentValueID = "idvalorpa"
	ColAlias         = "alias"
)

var (
	labelOrder = []string{
		ColName, ColLabelID, ColSocietyID, ColCediID, ColCollection, ColSection,
		ColSequence, ColIndex, ColImage, ColRoute, ColDescription,
	}
	valueOrder = []string{
		ColValue, ColValueID, ColSocietyID, ColCediID, ColParentValueID, ColAlias,
		ColSequence, ColImage, ColRoute, ColDescription,
	}
)

var columnFields = map[string]string{
	ColName:          model.FieldName,
	ColLabelID:       model.FieldLabelID,
	ColSocietyID:     model.FieldSocietyID,
	ColCediID:        model.FieldCediID,
	ColCollection:    model.FieldCollection,
	ColSection:       model.FieldSection,
	ColSequence:      model.FieldSequence,
	ColIndex:         model.FieldIndex,
	ColImage:         model.FieldImage,
	ColRoute:         model.FieldRoute,
	ColDescription:   model.FieldDescription,
	ColValue:         model.FieldValue,
	ColValueID:       model.FieldValueID,
	ColParentValueID: model.FieldParentValueID,
	ColAlias:         model.FieldAlias,
}

// NavigationOrder returns the fixed Tab order for a row kind.
func NavigationOrder(kind model.RowKind) []string {
	switch kind {
	case model.RowKindValue:
		return append([]string(nil), valueOrder...)
	default:
		return append([]string(nil), labelOrder...)
	}
}

// NextColumn returns the column after col in kind's order. ok is false when col is the
// last column or not part of the order.
func NextColumn(kind model.RowKind, col string) (string, bool) {
	order := labelOrder
	if kind == model.RowKindValue {
		order = valueOrder
	}
	for i, c := range order {
		if c != col {
			continue
		}
		if i+1 < len(order) {
			return order[i+1], true
		}
		return "", false
	}
	return "", false
}

// FieldFor maps a column id to its wire field.
func FieldFor(col string) (string, bool) {
	f, ok := columnFields[col]
	return f, ok
}

// IDColumn is the column holding the row's own business key.
func IDColumn(kind model.RowKind) string {
	if kind == model.RowKindValue {
		return ColValueID
	}
	return ColLabelID
}

// CellText is the editable text of a cell.
func CellText(row model.Row, col string) string {
	field, ok := FieldFor(col)
	if !ok {
		return ""
	}
	return row.Fields().String(field)
}

// CellUpdate builds the UPDATE a committed cell queues. ok is false when the value is
// unchanged, the column does not belong to the row kind, or a number column does not
// hold a number.
func CellUpdate(row model.Row, col, value string) (model.Operation, bool) {
	field, ok := FieldFor(col)
	if !ok || !inOrder(row.Kind, col) {
		return model.Operation{}, false
	}
	value = strings.TrimSpace(value)
	if col == ColIndex {
		value = model.JoinIndex(model.SplitIndex(value))
	}
	if value == CellText(row, col) {
		return model.Operation{}, false
	}

	var wire any = value
	switch col {
	case ColSequence:
		n, err := strconv.Atoi(value)
		if err != nil {
			return model.Operation{}, false
		}
		wire = n
	case ColSocietyID, ColCediID:
		wire = model.WireScope(value)
	case ColParentValueID:
		if value == "" {
			wire = nil
		}
	}
	return model.NewUpdate(row.Kind.Collection(), row.ID(), row.OwnerID(), model.Fields{field: wire}), true
}

func inOrder(kind model.RowKind, col string) bool {
	order := labelOrder
	if kind == model.RowKindValue {
		order = valueOrder
	}
	for _, c := range order {
		if c == col {
			return true
		}
	}
	return false
}
