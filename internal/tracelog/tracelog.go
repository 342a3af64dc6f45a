// Package tracelog is the append-only, case-scoped audit trail of the Gate.
package tracelog

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"jurisgate/internal/model"
)

var (
	ErrMissingCase = errors.New("trace event has no case id")
	ErrMissingID   = errors.New("trace event has no event id")
	ErrDuplicateID = errors.New("trace event id already appended")
)

// Filter narrows a Query. Zero fields match everything.
type Filter struct {
	EventType model.TraceEventType
	ObjectID  model.ID
	Actor     string
	From      time.Time
}

func (f Filter) match(ev *model.TraceEvent) bool {
	if f.EventType != "" && ev.EventType != f.EventType {
		return false
	}
	if f.ObjectID != "" && !ev.Touches(f.ObjectID) {
		return false
	}
	if f.Actor != "" && ev.Actor != f.Actor {
		return false
	}
	if !f.From.IsZero() && ev.Timestamp.Before(f.From) {
		return false
	}
	return true
}

// Log keeps every case's events in insertion order. Events are never edited
// or removed.
type Log struct {
	mu     sync.RWMutex
	events map[model.ID][]model.TraceEvent
	ids    map[model.ID]struct{}
}

func New() *Log {
	return &Log{
		events: make(map[model.ID][]model.TraceEvent),
		ids:    make(map[model.ID]struct{}),
	}
}

// Append adds ev to the end of its case's sequence and returns its id.
func (l *Log) Append(ctx context.Context, ev model.TraceEvent) (model.ID, error) {
	if ev.CaseID == "" {
		return "", ErrMissingCase
	}
	if ev.EventID == "" {
		return "", ErrMissingID
	}
	ev.Objects = slices.Clone(ev.Objects)

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, dup := l.ids[ev.EventID]; dup {
		return "", ErrDuplicateID
	}
	l.ids[ev.EventID] = struct{}{}
	l.events[ev.CaseID] = append(l.events[ev.CaseID], ev)
	return ev.EventID, nil
}

// Query returns copies of the case's events matching f, oldest first.
func (l *Log) Query(ctx context.Context, caseID model.ID, f Filter) []model.TraceEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var out []model.TraceEvent
	for i := range l.events[caseID] {
		ev := &l.events[caseID][i]
		if f.match(ev) {
			cp := *ev
			cp.Objects = slices.Clone(ev.Objects)
			out = append(out, cp)
		}
	}
	return out
}

// Events returns the case's sequence without copying. The slice is shared
// with the log: callers must not modify it, and it only covers events
// appended before the call.
func (l *Log) Events(caseID model.ID) []model.TraceEvent {
	l.mu.RLock()
	defer l.mu.RUnlock()
	evs := l.events[caseID]
	return evs[:len(evs):len(evs)]
}

// Len returns the number of events recorded for the case.
func (l *Log) Len(caseID model.ID) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events[caseID])
}

// Restore replaces the log's content with events, which must already be in
// insertion order. It is meant for hydration before serving.
func (l *Log) Restore(events []model.TraceEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = make(map[model.ID][]model.TraceEvent)
	l.ids = make(map[model.ID]struct{}, len(events))
	for _, ev := range events {
		if ev.CaseID == "" {
			return ErrMissingCase
		}
		if _, dup := l.ids[ev.EventID]; dup {
			return ErrDuplicateID
		}
		l.ids[ev.EventID] = struct{}{}
		l.events[ev.CaseID] = append(l.events[ev.CaseID], ev)
	}
	return nil
}
