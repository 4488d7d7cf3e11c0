// Package validate checks catalog edits before they are queued.
package validate

import (
	"fmt"
	"strings"

	"catalog-editor/internal/model"
)

// ValidationError is a field-level problem with a pending edit.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Errors is every problem found in one edit.
type Errors []ValidationError

func (e Errors) Error() string {
	parts := make([]string, 0, len(e))
	for _, ve := range e {
		parts = append(parts, ve.Error())
	}
	return "invalid edit: " + strings.Join(parts, "; ")
}

// Has reports whether field has a problem.
func (e Errors) Has(field string) bool {
	for _, ve := range e {
		if ve.Field == field {
			return true
		}
	}
	return false
}

func (e *Errors) add(field, format string, args ...any) {
	*e = append(*e, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
}

func (e Errors) err() error {
	if len(e) == 0 {
		return nil
	}
	return e
}

var (
	labelRequired = []string{model.FieldLabelID, model.FieldName, model.FieldIndex, model.FieldCollection, model.FieldSection}
	valueRequired = []string{model.FieldValueID, model.FieldValue}
	numericFields = []string{model.FieldSequence, model.FieldSocietyID, model.FieldCediID}
)

// NewLabel validates the fields of a label CREATE.
func NewLabel(labels []model.Label, f model.Fields) error {
	var errs Errors
	required(&errs, f, labelRequired)
	numeric(&errs, f)
	if id := strings.TrimSpace(f.String(model.FieldLabelID)); id != "" && labelExists(labels, id, "") {
		errs.add(model.FieldLabelID, "id %q already exists", id)
	}
	return errs.err()
}

// NewValue validates the fields of a value CREATE.
func NewValue(labels []model.Label, f model.Fields) error {
	var errs Errors
	required(&errs, f, valueRequired)
	numeric(&errs, f)
	owner := strings.TrimSpace(f.String(model.FieldLabelID))
	if owner == "" {
		errs.add(model.FieldLabelID, "is required")
	} else if !labelExists(labels, owner, "") {
		errs.add(model.FieldLabelID, "label %q does not exist", owner)
	}
	if id := strings.TrimSpace(f.String(model.FieldValueID)); id != "" && valueExists(labels, id, "") {
		errs.add(model.FieldValueID, "id %q already exists", id)
	}
	parentValue(&errs, labels, f, "")
	return errs.err()
}

// Update validates an UPDATE of row: required fields may not be cleared, numbers must
// stay numbers, and id changes must keep ids unique.
func Update(labels []model.Label, row model.Row, updates model.Fields) error {
	var errs Errors
	req := labelRequired
	if row.Kind == model.RowKindValue {
		req = valueRequired
	}
	for _, field := range req {
		if updates.Has(field) && strings.TrimSpace(updates.String(field)) == "" {
			errs.add(field, "is required")
		}
	}
	numeric(&errs, updates)

	idField := model.FieldLabelID
	if row.Kind == model.RowKindValue {
		idField = model.FieldValueID
	}
	if updates.Has(idField) {
		if err := ValidateIDChange(labels, row.Kind, row.ID(), updates.String(idField)); err != nil {
			errs = append(errs, err.(Errors)...)
		}
	}
	if row.Kind == model.RowKindValue {
		if owner := strings.TrimSpace(updates.String(model.FieldLabelID)); updates.Has(model.FieldLabelID) && !labelExists(labels, owner, "") {
			errs.add(model.FieldLabelID, "label %q does not exist", owner)
		}
		parentValue(&errs, labels, updates, row.ID())
	}
	return errs.err()
}

// ValidateIDChange checks renaming a row from currentID to newID. Label ids are unique
// among labels; value ids are unique across the whole catalog.
func ValidateIDChange(labels []model.Label, kind model.RowKind, currentID, newID string) error {
	var errs Errors
	newID = strings.TrimSpace(newID)
	field := model.FieldLabelID
	if kind == model.RowKindValue {
		field = model.FieldValueID
	}
	switch {
	case newID == "":
		errs.add(field, "is required")
	case newID == currentID:
	case kind == model.RowKindLabel && labelExists(labels, newID, currentID):
		errs.add(field, "id %q already exists", newID)
	case kind == model.RowKindValue && valueExists(labels, newID, currentID):
		errs.add(field, "id %q already exists", newID)
	}
	return errs.err()
}

func required(errs *Errors, f model.Fields, fields []string) {
	for _, field := range fields {
		if strings.TrimSpace(f.String(field)) == "" {
			errs.add(field, "is required")
		}
	}
}

func numeric(errs *Errors, f model.Fields) {
	for _, field := range numericFields {
		v, ok := f[field]
		if !ok {
			continue
		}
		if _, ok := model.FieldInt(v); !ok {
			errs.add(field, "must be a number")
		}
	}
}

func parentValue(errs *Errors, labels []model.Label, f model.Fields, selfID string) {
	parent := strings.TrimSpace(f.String(model.FieldParentValueID))
	if parent == "" {
		return
	}
	if parent == selfID {
		errs.add(model.FieldParentValueID, "a value cannot be its own parent")
		return
	}
	if !valueExists(labels, parent, "") {
		errs.add(model.FieldParentValueID, "value %q does not exist", parent)
	}
}

func labelExists(labels []model.Label, id, except string) bool {
	for _, l := range labels {
		if l.LabelID == id && l.LabelID != except {
			return true
		}
	}
	return false
}

func valueExists(labels []model.Label, id, except string) bool {
	for _, l := range labels {
		for _, v := range l.Values {
			if v.ValueID == id && v.ValueID != except {
				return true
			}
		}
	}
	return false
}
