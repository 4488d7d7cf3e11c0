package opqueue

import (
	"catalog-editor/internal/model"
)

func (s *Store) resetStatuses() {
	for i := range s.labels {
		l := s.labels[i].Clone()
		l.Status = model.StatusNone
		for j := range l.Values {
			l.Values[j].Status = model.StatusNone
		}
		s.labels[i] = l
	}
}

// refreshStatuses derives every row's status from the queue: all rows start at None,
// then each queued operation marks its row in order. Modified never replaces Created.
func (s *Store) refreshStatuses() {
	s.resetStatuses()
	for _, e := range s.ops {
		switch e.op.Collection {
		case model.CollectionLabels:
			i := s.labelIndex(e.rowID)
			if i < 0 {
				continue
			}
			s.labels[i].Status = nextStatus(s.labels[i].Status, e.op.Action)
		case model.CollectionValues:
			li, vi := s.valueIndex(e.op.OwnerLabelID(), e.rowID)
			if li < 0 {
				continue
			}
			v := &s.labels[li].Values[vi]
			v.Status = nextStatus(v.Status, e.op.Action)
		}
	}
}

func nextStatus(cur model.EditStatus, a model.Action) model.EditStatus {
	switch a {
	case model.ActionCreate:
		return model.StatusCreated
	case model.ActionUpdate:
		if cur == model.StatusCreated {
			return cur
		}
		return model.StatusModified
	case model.ActionDelete:
		return model.StatusMarkedDeleted
	}
	return cur
}
