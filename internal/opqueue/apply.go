package opqueue

import (
	"catalog-editor/internal/model"
)

// apply mutates the catalog the way op would once saved. Rows are replaced, never
// edited through shared slices, so copies handed out earlier stay untouched.
func (s *Store) apply(op model.Operation, target string) {
	switch op.Collection {
	case model.CollectionLabels:
		s.applyLabel(op, target)
	case model.CollectionValues:
		s.applyValue(op, target)
	}
}

func (s *Store) applyLabel(op model.Operation, target string) {
	switch op.Action {
	case model.ActionCreate:
		l := model.NewLabel(op.Payload.Fields)
		l.Status = model.StatusCreated
		s.labels = append(s.labels[:len(s.labels):len(s.labels)], l)

	case model.ActionUpdate:
		i := s.labelIndex(target)
		if i < 0 {
			s.log.Warn().Str("label", target).Msg("update for unknown label")
			return
		}
		l := s.labels[i].Clone()
		prevID := l.LabelID
		model.ApplyLabelFields(&l, op.Payload.Updates)
		if l.LabelID != prevID {
			// Values follow their renamed label.
			for j := range l.Values {
				l.Values[j].LabelID = l.LabelID
			}
		}
		if l.Status != model.StatusCreated {
			l.Status = model.StatusModified
		}
		s.labels[i] = l

	case model.ActionDelete:
		i := s.labelIndex(target)
		if i < 0 {
			s.log.Warn().Str("label", target).Msg("delete for unknown label")
			return
		}
		l := s.labels[i].Clone()
		l.Status = model.StatusMarkedDeleted
		s.labels[i] = l
	}
}

func (s *Store) applyValue(op model.Operation, target string) {
	switch op.Action {
	case model.ActionCreate:
		owner := op.OwnerLabelID()
		i := s.labelIndex(owner)
		if i < 0 {
			s.log.Warn().Str("label", owner).Str("value", target).Msg("create for value of unknown label")
			return
		}
		v := model.NewValue(op.Payload.Fields)
		v.LabelID = owner
		v.Status = model.StatusCreated
		l := s.labels[i].Clone()
		l.Values = append(l.Values, v)
		s.labels[i] = l

	case model.ActionUpdate:
		li, vi := s.valueIndex(op.OwnerLabelID(), target)
		if li < 0 {
			s.log.Warn().Str("value", target).Msg("update for unknown value")
			return
		}
		v := s.labels[li].Values[vi]
		model.ApplyValueFields(&v, op.Payload.Updates)
		if v.Status != model.StatusCreated {
			v.Status = model.StatusModified
		}
		s.putValue(li, vi, v)

	case model.ActionDelete:
		li, vi := s.valueIndex(op.OwnerLabelID(), target)
		if li < 0 {
			s.log.Warn().Str("value", target).Msg("delete for unknown value")
			return
		}
		v := s.labels[li].Values[vi]
		v.Status = model.StatusMarkedDeleted
		s.putValue(li, vi, v)
	}
}

// putValue stores v at (li, vi), moving it to another label when its LabelID now
// names a different, existing label.
func (s *Store) putValue(li, vi int, v model.Value) {
	l := s.labels[li].Clone()
	if v.LabelID == l.LabelID || v.LabelID == "" {
		v.LabelID = l.LabelID
		l.Values[vi] = v
		s.labels[li] = l
		return
	}
	dst := s.labelIndex(v.LabelID)
	if dst < 0 {
		s.log.Warn().Str("label", v.LabelID).Str("value", v.ValueID).Msg("value moved to unknown label; keeping current owner")
		v.LabelID = l.LabelID
		l.Values[vi] = v
		s.labels[li] = l
		return
	}
	l.Values = append(l.Values[:vi:vi], l.Values[vi+1:]...)
	s.labels[li] = l
	d := s.labels[dst].Clone()
	d.Values = append(d.Values, v)
	s.labels[dst] = d
}

// removeRow drops a row from the catalog entirely.
func (s *Store) removeRow(c model.Collection, labelID, id string) {
	if c == model.CollectionLabels {
		i := s.labelIndex(id)
		if i < 0 {
			return
		}
		out := make([]model.Label, 0, len(s.labels)-1)
		out = append(out, s.labels[:i]...)
		s.labels = append(out, s.labels[i+1:]...)
		return
	}
	li, vi := s.valueIndex(labelID, id)
	if li < 0 {
		return
	}
	l := s.labels[li].Clone()
	l.Values = append(l.Values[:vi:vi], l.Values[vi+1:]...)
	s.labels[li] = l
}

// restore puts a row back to its snapshot. A label keeps its current values (they
// have their own queue entries); only its own fields are rolled back.
func (s *Store) restore(c model.Collection, currentID string, snap model.Row) {
	switch c {
	case model.CollectionLabels:
		if snap.Label == nil {
			return
		}
		i := s.labelIndex(currentID)
		if i < 0 {
			i = s.labelIndex(snap.Label.LabelID)
		}
		if i < 0 {
			s.log.Warn().Str("label", currentID).Msg("restore for unknown label")
			return
		}
		cur := s.labels[i].Clone()
		l := snap.Label.Clone()
		l.Values = cur.Values
		for j := range l.Values {
			l.Values[j].LabelID = l.LabelID
		}
		l.Status = model.StatusNone
		s.labels[i] = l

	case model.CollectionValues:
		if snap.Value == nil {
			return
		}
		li, vi := s.valueIndex(snap.Value.LabelID, currentID)
		if li < 0 {
			li, vi = s.valueIndex(snap.Value.LabelID, snap.Value.ValueID)
		}
		if li < 0 {
			s.log.Warn().Str("value", currentID).Msg("restore for unknown value")
			return
		}
		v := *snap.Value
		v.Status = model.StatusNone
		if s.labelIndex(v.LabelID) < 0 {
			// The owner was renamed after the snapshot was taken.
			v.LabelID = s.labels[li].LabelID
		}
		s.putValue(li, vi, v)
	}
}
