package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

type Collection string

const (
	CollectionLabels Collection = "labels"
	CollectionValues Collection = "values"
)

func (c Collection) Kind() RowKind {
	if c == CollectionValues {
		return RowKindValue
	}
	return RowKindLabel
}

type Action string

const (
	ActionCreate Action = "CREATE"
	ActionUpdate Action = "UPDATE"
	ActionDelete Action = "DELETE"
)

func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToUpper(strings.TrimSpace(s))); a {
	case ActionCreate, ActionUpdate, ActionDelete:
		return a, nil
	default:
		return "", fmt.Errorf("invalid action: %q", s)
	}
}

func ParseCollection(s string) (Collection, error) {
	switch c := Collection(strings.ToLower(strings.TrimSpace(s))); c {
	case CollectionLabels, CollectionValues:
		return c, nil
	default:
		return "", fmt.Errorf("invalid collection: %q", s)
	}
}

// Operation is a queued CREATE/UPDATE/DELETE intent that has not reached the backend.
type Operation struct {
	// ID is a local token; it is never sent to the backend.
	ID         string     `json:"id,omitempty"`
	Collection Collection `json:"collection"`
	Action     Action     `json:"action"`
	Payload    Payload    `json:"payload"`

	// Original is the row as it was before this operation first touched it.
	// Only UPDATE and DELETE carry one; it backs undo and is never sent.
	Original *Row `json:"originalSnapshot,omitempty"`
}

func (op Operation) Clone() Operation {
	out := op
	out.Payload = op.Payload.Clone()
	if op.Original != nil {
		r := op.Original.Clone()
		out.Original = &r
	}
	return out
}

// Payload carries the operation body.
//
// CREATE uses Fields (the full new row). UPDATE uses ID, LabelID and Updates.
// DELETE uses ID and LabelID. LabelID is only meaningful for values.
type Payload struct {
	ID      string
	LabelID string
	Fields  Fields
	Updates Fields
}

func (p Payload) Clone() Payload {
	return Payload{
		ID:      p.ID,
		LabelID: p.LabelID,
		Fields:  p.Fields.Clone(),
		Updates: p.Updates.Clone(),
	}
}

// MarshalJSON renders the backend wire shape: CREATE payloads are the flat field map,
// UPDATE is {id, IDETIQUETA?, updates} and DELETE is {id, IDETIQUETA?}.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p.Fields != nil {
		return json.Marshal(map[string]any(p.Fields))
	}
	out := map[string]any{"id": p.ID}
	if p.LabelID != "" {
		out[FieldLabelID] = p.LabelID
	}
	if p.Updates != nil {
		out["updates"] = map[string]any(p.Updates)
	}
	return json.Marshal(out)
}

func (p *Payload) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*p = Payload{}
	id, hasID := raw["id"]
	updates, hasUpdates := raw["updates"]
	if !hasID && !hasUpdates {
		p.Fields = Fields(raw)
		return nil
	}
	p.ID = FieldString(id)
	if v, ok := raw[FieldLabelID]; ok {
		p.LabelID = FieldString(v)
	}
	if hasUpdates {
		m, ok := updates.(map[string]any)
		if !ok {
			return fmt.Errorf("payload updates: expected object, got %T", updates)
		}
		p.Updates = Fields(m)
	}
	return nil
}

// NewCreate builds a CREATE operation for the given row fields.
func NewCreate(c Collection, fields Fields) Operation {
	return Operation{Collection: c, Action: ActionCreate, Payload: Payload{Fields: fields}}
}

// NewUpdate builds an UPDATE operation. labelID is the owning label for values.
func NewUpdate(c Collection, id, labelID string, updates Fields) Operation {
	return Operation{Collection: c, Action: ActionUpdate, Payload: Payload{ID: id, LabelID: labelID, Updates: updates}}
}

// NewDelete builds a DELETE operation. labelID is the owning label for values.
func NewDelete(c Collection, id, labelID string) Operation {
	return Operation{Collection: c, Action: ActionDelete, Payload: Payload{ID: id, LabelID: labelID}}
}

// NaturalKey is the id a CREATE introduces (label id or value id).
func (op Operation) NaturalKey() string {
	if op.Collection == CollectionValues {
		return op.Payload.Fields.String(FieldValueID)
	}
	return op.Payload.Fields.String(FieldLabelID)
}

// TargetID is payload.id when present, else the natural key of the created row.
func (op Operation) TargetID() string {
	if op.Payload.ID != "" {
		return op.Payload.ID
	}
	return op.NaturalKey()
}

// OwnerLabelID is the owning label for value operations.
func (op Operation) OwnerLabelID() string {
	if op.Collection != CollectionValues {
		return ""
	}
	if op.Payload.LabelID != "" {
		return op.Payload.LabelID
	}
	return op.Payload.Fields.String(FieldLabelID)
}
