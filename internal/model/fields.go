package model

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Wire field names. The backend uses the same uppercase names in CREATE payloads and
// in UPDATE "updates" maps.
const (
	FieldSocietyID     = "IDSOCIEDAD"
	FieldCediID        = "IDCEDI"
	FieldLabelID       = "IDETIQUETA"
	FieldName          = "ETIQUETA"
	FieldIndex         = "INDICE"
	FieldCollection    = "COLECCION"
	FieldSection       = "SECCION"
	FieldSequence      = "SECUENCIA"
	FieldImage         = "IMAGEN"
	FieldRoute         = "ROUTE"
	FieldDescription   = "DESCRIPCION"
	FieldValueID       = "IDVALOR"
	FieldParentValueID = "IDVALORPA"
	FieldValue         = "VALOR"
	FieldAlias         = "ALIAS"
)

// Fields is a set of wire field values keyed by uppercase field name.
type Fields map[string]any

func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Merge copies src into f; values in src win.
func (f Fields) Merge(src Fields) {
	for k, v := range src {
		f[k] = v
	}
}

// String returns the field as a string ("" when absent or null).
func (f Fields) String(name string) string {
	v, ok := f[name]
	if !ok {
		return ""
	}
	return FieldString(v)
}

func (f Fields) Has(name string) bool {
	_, ok := f[name]
	return ok
}

// FieldString coerces a wire value to its string form. Numbers lose any trailing ".0".
func FieldString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// FieldInt coerces a wire value to an int. Empty strings and null are 0.
func FieldInt(v any) (int, bool) {
	switch t := v.(type) {
	case nil:
		return 0, true
	case int:
		return t, true
	case int64:
		return int(t), true
	case float64:
		return int(t), true
	case json.Number:
		n, err := t.Float64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return 0, true
		}
		n, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

// WireScope renders a society/cedi id the way the backend expects it: a number when
// the id is numeric, the raw string otherwise.
func WireScope(id string) any {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0
	}
	if n, err := strconv.Atoi(id); err == nil {
		return n
	}
	return id
}

// NormalizeScope applies the society rule: selecting the "all" society resets the
// distribution center, since a narrower cedi no longer applies.
func NormalizeScope(f Fields) {
	v, ok := f[FieldSocietyID]
	if !ok {
		return
	}
	if strings.TrimSpace(FieldString(v)) == AllScope {
		f[FieldCediID] = 0
	}
}

func LabelFields(l Label) Fields {
	return Fields{
		FieldSocietyID:   WireScope(l.SocietyID),
		FieldCediID:      WireScope(l.CediID),
		FieldLabelID:     l.LabelID,
		FieldName:        l.Name,
		FieldIndex:       l.Index,
		FieldCollection:  l.Collection,
		FieldSection:     l.Section,
		FieldSequence:    l.Sequence,
		FieldImage:       l.Image,
		FieldRoute:       l.Route,
		FieldDescription: l.Description,
	}
}

func ValueFields(v Value) Fields {
	var parent any
	if v.ParentValueID != "" {
		parent = v.ParentValueID
	}
	return Fields{
		FieldSocietyID:     WireScope(v.SocietyID),
		FieldCediID:        WireScope(v.CediID),
		FieldLabelID:       v.LabelID,
		FieldValueID:       v.ValueID,
		FieldParentValueID: parent,
		FieldValue:         v.Value,
		FieldAlias:         v.Alias,
		FieldSequence:      v.Sequence,
		FieldImage:         v.Image,
		FieldRoute:         v.Route,
		FieldDescription:   v.Description,
	}
}

// ApplyLabelFields shallow-merges f into l. Unknown fields are ignored.
func ApplyLabelFields(l *Label, f Fields) {
	for k, v := range f {
		switch k {
		case FieldSocietyID:
			l.SocietyID = FieldString(v)
		case FieldCediID:
			l.CediID = FieldString(v)
		case FieldLabelID:
			l.LabelID = FieldString(v)
		case FieldName:
			l.Name = FieldString(v)
		case FieldIndex:
			l.Index = FieldString(v)
		case FieldCollection:
			l.Collection = FieldString(v)
		case FieldSection:
			l.Section = FieldString(v)
		case FieldSequence:
			if n, ok := FieldInt(v); ok {
				l.Sequence = n
			}
		case FieldImage:
			l.Image = FieldString(v)
		case FieldRoute:
			l.Route = FieldString(v)
		case FieldDescription:
			l.Description = FieldString(v)
		}
	}
}

// ApplyValueFields shallow-merges f into v. Unknown fields are ignored.
func ApplyValueFields(v *Value, f Fields) {
	for k, x := range f {
		switch k {
		case FieldSocietyID:
			v.SocietyID = FieldString(x)
		case FieldCediID:
			v.CediID = FieldString(x)
		case FieldLabelID:
			v.LabelID = FieldString(x)
		case FieldValueID:
			v.ValueID = FieldString(x)
		case FieldParentValueID:
			v.ParentValueID = FieldString(x)
		case FieldValue:
			v.Value = FieldString(x)
		case FieldAlias:
			v.Alias = FieldString(x)
		case FieldSequence:
			if n, ok := FieldInt(x); ok {
				v.Sequence = n
			}
		case FieldImage:
			v.Image = FieldString(x)
		case FieldRoute:
			v.Route = FieldString(x)
		case FieldDescription:
			v.Description = FieldString(x)
		}
	}
}

// NewLabel builds a label from CREATE fields.
func NewLabel(f Fields) Label {
	var l Label
	ApplyLabelFields(&l, f)
	if l.SocietyID == "" {
		l.SocietyID = AllScope
	}
	if l.CediID == "" {
		l.CediID = AllScope
	}
	l.Values = []Value{}
	return l
}

// NewValue builds a value from CREATE fields.
func NewValue(f Fields) Value {
	var v Value
	ApplyValueFields(&v, f)
	if v.SocietyID == "" {
		v.SocietyID = AllScope
	}
	if v.CediID == "" {
		v.CediID = AllScope
	}
	return v
}
