package opqueue

import (
	"catalog-editor/internal/model"
)

// AddOperation resolves op against the queue, applies it to the catalog and
// recomputes every row's status.
//
// Resolution, in order:
//   - DELETE: a second DELETE for the same row is ignored; a DELETE of a row created in
//     this session cancels the CREATE and removes the row instead of queueing anything;
//     a pending UPDATE is superseded; deleting a label drops the queued operations on its values.
//   - UPDATE: a pending DELETE is withdrawn (the row is restored); the fields then merge
//     into a pending UPDATE or CREATE for the row when there is one.
//   - CREATE: always appended.
//
// The returned id names the queue entry that now carries the change, or "" when
// nothing is queued (duplicate DELETE, cancelled CREATE).
func (s *Store) AddOperation(op model.Operation) string {
	op = op.Clone()
	op.Original = nil
	if op.ID == "" {
		op.ID = s.newID()
	}
	switch op.Action {
	case model.ActionCreate:
		if op.Payload.Fields == nil {
			op.Payload.Fields = model.Fields{}
		}
		model.NormalizeScope(op.Payload.Fields)
	case model.ActionUpdate:
		if op.Payload.Updates == nil {
			op.Payload.Updates = model.Fields{}
		}
		model.NormalizeScope(op.Payload.Updates)
	case model.ActionDelete:
	default:
		s.log.Warn().Str("action", string(op.Action)).Msg("ignoring operation with unknown action")
		return ""
	}

	target := op.TargetID()
	coll := op.Collection
	if coll == model.CollectionValues && op.Payload.LabelID == "" && op.Action != model.ActionCreate {
		if li, _ := s.valueIndex("", target); li >= 0 {
			op.Payload.LabelID = s.labels[li].LabelID
		}
	}

	e := entry{op: op, rowID: target}
	resultID := op.ID
	merged := false

	switch op.Action {
	case model.ActionDelete:
		if i := s.find(model.ActionDelete, coll, target); i >= 0 {
			s.log.Debug().Str("collection", string(coll)).Str("id", target).Msg("delete already queued")
			return ""
		}
		if i := s.find(model.ActionCreate, coll, target); i >= 0 {
			created := s.ops[i]
			s.ops = removeEntry(s.ops, i)
			s.log.Debug().Str("collection", string(coll)).Str("id", target).Msg("delete cancels pending create")
			s.removeRow(coll, created.op.OwnerLabelID(), target)
			if coll == model.CollectionLabels {
				s.cascadeLabel(target)
			}
			s.refreshStatuses()
			s.notify()
			return ""
		}
		if i := s.find(model.ActionUpdate, coll, target); i >= 0 {
			prev := s.ops[i].op
			s.ops = removeEntry(s.ops, i)
			s.log.Debug().Str("collection", string(coll)).Str("id", target).Msg("delete supersedes pending update")
			e.carry = prev.Payload.Updates
			e.op.Payload.ID = prev.Payload.ID
			e.op.Original = prev.Original
			if e.op.Payload.LabelID == "" {
				e.op.Payload.LabelID = prev.Payload.LabelID
			}
		}
		if coll == model.CollectionLabels {
			s.cascadeLabel(target, e.op.Payload.ID)
		}

	case model.ActionUpdate:
		if i := s.find(model.ActionDelete, coll, target); i >= 0 {
			prev := s.ops[i]
			s.ops = removeEntry(s.ops, i)
			s.log.Debug().Str("collection", string(coll)).Str("id", target).Msg("update restores deleted row")
			if prev.carry != nil {
				updates := prev.carry.Clone()
				updates.Merge(e.op.Payload.Updates)
				e.op.Payload.Updates = updates
			}
			e.op.Payload.ID = prev.op.Payload.ID
			e.op.Original = prev.op.Original
			if e.op.Payload.LabelID == "" {
				e.op.Payload.LabelID = prev.op.Payload.LabelID
			}
		}
		if i := s.find(model.ActionUpdate, coll, target); i >= 0 {
			prevID := s.ops[i].rowID
			s.ops[i].op.Payload.Updates.Merge(op.Payload.Updates)
			s.ops[i].rowID = renamedID(s.ops[i].op, s.ops[i].rowID)
			if coll == model.CollectionLabels {
				s.relabelValues(i+1, prevID, s.ops[i].rowID)
			}
			resultID = s.ops[i].op.ID
			merged = true
		} else if i := s.find(model.ActionCreate, coll, target); i >= 0 {
			prevID := s.ops[i].rowID
			s.ops[i].op.Payload.Fields.Merge(op.Payload.Updates)
			s.ops[i].rowID = s.ops[i].op.NaturalKey()
			if coll == model.CollectionLabels {
				s.relabelValues(i+1, prevID, s.ops[i].rowID)
			}
			resultID = s.ops[i].op.ID
			merged = true
		}
	}

	if !merged {
		if op.Action != model.ActionCreate && e.op.Original == nil {
			if row, ok := s.Row(coll, e.op.Payload.LabelID, target); ok {
				snap := row.Clone()
				e.op.Original = &snap
			}
		}
		if op.Action == model.ActionUpdate {
			e.rowID = renamedID(e.op, target)
		}
		s.ops = append(s.ops, e)
	}

	s.apply(op, target)
	s.refreshStatuses()
	s.notify()
	return resultID
}

// RemoveOperation undoes a single queued operation. A CREATE takes its row with it;
// an UPDATE or DELETE puts the row back as it was before the operation first touched it.
// Unknown ids are ignored.
func (s *Store) RemoveOperation(opID string) bool {
	i := -1
	for j := range s.ops {
		if s.ops[j].op.ID == opID {
			i = j
			break
		}
	}
	if i < 0 {
		return false
	}
	e := s.ops[i]
	s.ops = removeEntry(s.ops, i)
	s.log.Debug().Str("op", opID).Str("action", string(e.op.Action)).Msg("undo operation")

	switch e.op.Action {
	case model.ActionCreate:
		s.removeRow(e.op.Collection, e.op.OwnerLabelID(), e.rowID)
		if e.op.Collection == model.CollectionLabels {
			s.cascadeLabel(e.rowID)
		}
	case model.ActionUpdate, model.ActionDelete:
		if e.op.Original != nil {
			s.restore(e.op.Collection, e.rowID, *e.op.Original)
			if snap := e.op.Original.Label; snap != nil {
				s.relabelValues(i, e.rowID, snap.LabelID)
			}
		}
	}

	s.refreshStatuses()
	s.notify()
	return true
}

// find returns the index of the queued (action, collection) entry whose row is id.
func (s *Store) find(action model.Action, c model.Collection, id string) int {
	if id == "" {
		return -1
	}
	for i := range s.ops {
		if s.ops[i].op.Action == action && s.ops[i].op.Collection == c && s.ops[i].rowID == id {
			return i
		}
	}
	return -1
}

// cascadeLabel drops every queued value operation owned by one of labelIDs and reverts
// what those operations did to the catalog, since the label they belong to is going away.
func (s *Store) cascadeLabel(labelIDs ...string) {
	owners := map[string]bool{}
	for _, id := range labelIDs {
		if id != "" {
			owners[id] = true
		}
	}
	kept := s.ops[:0:0]
	for _, e := range s.ops {
		if e.op.Collection != model.CollectionValues || !s.ownedBy(e, owners) {
			kept = append(kept, e)
			continue
		}
		s.log.Debug().Str("op", e.op.ID).Str("label", e.op.OwnerLabelID()).Msg("label delete drops value operation")
		switch e.op.Action {
		case model.ActionCreate:
			s.removeRow(model.CollectionValues, e.op.OwnerLabelID(), e.rowID)
		default:
			if e.op.Original != nil {
				s.restore(model.CollectionValues, e.rowID, *e.op.Original)
			}
		}
	}
	s.ops = kept
}

// ownedBy reports whether a value entry belongs to one of owners, either by the label
// its operation names or by the label the row sits under in the catalog.
func (s *Store) ownedBy(e entry, owners map[string]bool) bool {
	if owners[e.op.OwnerLabelID()] {
		return true
	}
	if li, _ := s.valueIndex(e.op.OwnerLabelID(), e.rowID); li >= 0 {
		return owners[s.labels[li].LabelID]
	}
	return false
}

// relabelValues points the value operations queued from position from onwards at a
// label's new id. Those run after the rename in the batch; earlier ones still see the
// old id and are left alone.
func (s *Store) relabelValues(from int, oldID, newID string) {
	if oldID == "" || newID == "" || oldID == newID {
		return
	}
	for i := from; i < len(s.ops); i++ {
		op := &s.ops[i].op
		if op.Collection != model.CollectionValues {
			continue
		}
		changed := false
		if op.Payload.LabelID == oldID {
			op.Payload.LabelID = newID
			changed = true
		}
		for _, f := range []model.Fields{op.Payload.Fields, op.Payload.Updates} {
			if f.Has(model.FieldLabelID) && f.String(model.FieldLabelID) == oldID {
				f[model.FieldLabelID] = newID
				changed = true
			}
		}
		if changed {
			s.log.Debug().Str("op", op.ID).Str("from", oldID).Str("to", newID).Msg("value operation follows renamed label")
		}
	}
}

// renamedID is the row id after an UPDATE that may edit the id field itself.
func renamedID(op model.Operation, current string) string {
	field := model.FieldLabelID
	if op.Collection == model.CollectionValues {
		field = model.FieldValueID
	}
	if id := op.Payload.Updates.String(field); id != "" {
		return id
	}
	return current
}

func removeEntry(in []entry, i int) []entry {
	out := make([]entry, 0, len(in)-1)
	out = append(out, in[:i]...)
	return append(out, in[i+1:]...)
}
