package model

import "fmt"

type RowKind int

const (
	RowKindLabel RowKind = iota
	RowKindValue
)

func (k RowKind) String() string {
	switch k {
	case RowKindLabel:
		return "label"
	case RowKindValue:
		return "value"
	default:
		return fmt.Sprintf("RowKind(%d)", int(k))
	}
}

// Collection returns the operation collection rows of this kind belong to.
func (k RowKind) Collection() Collection {
	if k == RowKindValue {
		return CollectionValues
	}
	return CollectionLabels
}

// Row is a grid row: exactly one of Label or Value is set, as selected by Kind.
type Row struct {
	Kind  RowKind `json:"kind"`
	Label *Label  `json:"label,omitempty"`
	Value *Value  `json:"value,omitempty"`
}

func LabelRow(l Label) Row {
	return Row{Kind: RowKindLabel, Label: &l}
}

func ValueRow(v Value) Row {
	return Row{Kind: RowKindValue, Value: &v}
}

// ID is the row's business key (label id or value id).
func (r Row) ID() string {
	switch r.Kind {
	case RowKindLabel:
		if r.Label != nil {
			return r.Label.LabelID
		}
	case RowKindValue:
		if r.Value != nil {
			return r.Value.ValueID
		}
	}
	return ""
}

// OwnerID is the owning label id for value rows and "" for label rows.
func (r Row) OwnerID() string {
	if r.Kind == RowKindValue && r.Value != nil {
		return r.Value.LabelID
	}
	return ""
}

// Key identifies the row in the grid. Labels and values live in separate id spaces,
// so the kind is part of the key.
func (r Row) Key() string {
	return RowKey(r.Kind, r.ID())
}

func RowKey(kind RowKind, id string) string {
	return kind.String() + ":" + id
}

func (r Row) Status() EditStatus {
	switch r.Kind {
	case RowKindLabel:
		if r.Label != nil {
			return r.Label.Status
		}
	case RowKindValue:
		if r.Value != nil {
			return r.Value.Status
		}
	}
	return StatusNone
}

// Fields returns the row's wire fields.
func (r Row) Fields() Fields {
	switch r.Kind {
	case RowKindLabel:
		if r.Label != nil {
			return LabelFields(*r.Label)
		}
	case RowKindValue:
		if r.Value != nil {
			return ValueFields(*r.Value)
		}
	}
	return Fields{}
}

// Clone returns a deep copy so snapshots never alias live model rows.
func (r Row) Clone() Row {
	out := Row{Kind: r.Kind}
	if r.Label != nil {
		l := r.Label.Clone()
		out.Label = &l
	}
	if r.Value != nil {
		v := *r.Value
		out.Value = &v
	}
	return out
}
