// Package opqueue stages catalog edits between a user action and a save.
//
// A Store holds the last-fetched catalog plus the queue of pending operations, keeps
// the catalog optimistically up to date as operations are queued, and derives every
// row's edit status from the queue alone.
package opqueue

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"catalog-editor/internal/model"
)

type entry struct {
	op model.Operation
	// rowID is the id the targeted row carries in the model right now. It differs from
	// op.Payload.ID once an UPDATE has renamed a persisted row.
	rowID string
	// carry holds the updates of an UPDATE this DELETE superseded. They are still
	// visible in the catalog, so restoring the row re-queues them.
	carry model.Fields
}

type subscriber struct {
	id int
	fn func()
}

// Store is the operation queue and the catalog it mutates.
//
// A Store is not safe for concurrent use. Subscribers are called synchronously, in
// subscription order, after every mutating call.
type Store struct {
	ops    []entry
	labels []model.Label

	subs    []subscriber
	nextSub int

	log   zerolog.Logger
	newID func() string
}

type Option func(*Store)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithIDGenerator overrides how local operation ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		log:   zerolog.Nop(),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe registers fn and returns a function that removes it again.
func (s *Store) Subscribe(fn func()) func() {
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	return func() {
		for i, sub := range s.subs {
			if sub.id == id {
				s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
				return
			}
		}
	}
}

func (s *Store) notify() {
	subs := append([]subscriber(nil), s.subs...)
	for _, sub := range subs {
		sub.fn()
	}
}

// Labels returns a deep copy of the current catalog.
func (s *Store) Labels() []model.Label {
	return model.CloneLabels(s.labels)
}

// SetLabels replaces the catalog wholesale (after a fetch).
func (s *Store) SetLabels(labels []model.Label) {
	s.labels = model.CloneLabels(labels)
	s.refreshStatuses()
	s.notify()
}

// Reset drops the cached catalog. The queue is left alone.
func (s *Store) Reset() {
	s.labels = nil
	s.notify()
}

// Operations returns a copy of the queue in order.
func (s *Store) Operations() []model.Operation {
	out := make([]model.Operation, 0, len(s.ops))
	for _, e := range s.ops {
		out = append(out, e.op.Clone())
	}
	return out
}

func (s *Store) Len() int { return len(s.ops) }

// ClearOperations empties the queue without touching the catalog.
func (s *Store) ClearOperations() {
	s.ops = nil
}

// ClearStatuses resets every row to StatusNone.
func (s *Store) ClearStatuses() {
	s.resetStatuses()
	s.notify()
}

func (s *Store) FindLabel(labelID string) (model.Label, bool) {
	i := s.labelIndex(labelID)
	if i < 0 {
		return model.Label{}, false
	}
	return s.labels[i].Clone(), true
}

// FindValue looks a value up by id, preferring the given owning label.
func (s *Store) FindValue(labelID, valueID string) (model.Value, bool) {
	li, vi := s.valueIndex(labelID, valueID)
	if li < 0 {
		return model.Value{}, false
	}
	return s.labels[li].Values[vi], true
}

// Row returns the current row for (collection, id).
func (s *Store) Row(c model.Collection, labelID, id string) (model.Row, bool) {
	if c == model.CollectionLabels {
		l, ok := s.FindLabel(id)
		if !ok {
			return model.Row{}, false
		}
		return model.LabelRow(l), true
	}
	v, ok := s.FindValue(labelID, id)
	if !ok {
		return model.Row{}, false
	}
	return model.ValueRow(v), true
}

func (s *Store) labelIndex(labelID string) int {
	for i := range s.labels {
		if s.labels[i].LabelID == labelID {
			return i
		}
	}
	return -1
}

// valueIndex locates a value. Value ids are unique across the catalog, so when the
// owning label does not hold it (it was renamed, or the hint is empty) every label is searched.
func (s *Store) valueIndex(labelID, valueID string) (int, int) {
	if li := s.labelIndex(labelID); li >= 0 {
		if vi := s.labels[li].FindValue(valueID); vi >= 0 {
			return li, vi
		}
	}
	for li := range s.labels {
		if vi := s.labels[li].FindValue(valueID); vi >= 0 {
			return li, vi
		}
	}
	return -1, -1
}
