// Package casestore holds the mutable state of every case. Each case is
// guarded by its own lock; all changes go through a Tx that publishes a new
// immutable snapshot on Commit.
package casestore

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"jurisgate/internal/model"
	"jurisgate/internal/repository"
	"jurisgate/internal/tracelog"
)

var (
	ErrNotFound = errors.New("not found")
	ErrTxDone   = errors.New("transaction already committed or rolled back")
)

// entry serializes access to one case. sem is a one-slot semaphore so that
// waiting for the lock can honour a context.
type entry struct {
	sem  chan struct{}
	snap atomic.Pointer[model.Case]
}

func newEntry(c *model.Case) *entry {
	e := &entry{sem: make(chan struct{}, 1)}
	if c != nil {
		e.snap.Store(c)
	}
	return e
}

func (e *entry) lock(ctx context.Context) error {
	select {
	case e.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *entry) unlock() { <-e.sem }

type outcomeKey struct {
	scope model.ID
	rid   string
}

// Store is the Case Store. Published snapshots are never modified, so reads
// need no case lock.
type Store struct {
	repo  repository.CaseRepository
	trace *tracelog.Log

	mu      sync.RWMutex
	entries map[model.ID]*entry
	index   map[model.ID]model.ID
	// system serializes case creation and requests addressing unknown cases.
	system *entry

	outMu    sync.RWMutex
	outcomes map[outcomeKey]model.RequestRecord
}

// New returns an empty store appending to trace. repo may be nil, in which
// case nothing outlives the process.
func New(trace *tracelog.Log, repo repository.CaseRepository) *Store {
	return &Store{
		repo:     repo,
		trace:    trace,
		entries:  make(map[model.ID]*entry),
		index:    make(map[model.ID]model.ID),
		system:   newEntry(nil),
		outcomes: make(map[outcomeKey]model.RequestRecord),
	}
}

// Trace returns the log the store appends to.
func (s *Store) Trace() *tracelog.Log { return s.trace }

// Hydrate loads the repository's snapshot. It must run before serving.
func (s *Store) Hydrate(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	snap, err := s.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load snapshot: %w", err)
	}
	return s.Restore(snap)
}

// Restore replaces the store's content with snap.
func (s *Store) Restore(snap *repository.Snapshot) error {
	if err := s.trace.Restore(snap.Events); err != nil {
		return fmt.Errorf("restore trace: %w", err)
	}

	s.mu.Lock()
	s.entries = make(map[model.ID]*entry, len(snap.Cases))
	s.index = make(map[model.ID]model.ID)
	for _, c := range snap.Cases {
		s.entries[c.CaseID] = newEntry(c)
		s.indexLocked(c)
	}
	s.mu.Unlock()

	s.outMu.Lock()
	s.outcomes = make(map[outcomeKey]model.RequestRecord, len(snap.Requests))
	for _, r := range snap.Requests {
		s.outcomes[outcomeKey{r.Scope, r.RequestID}] = r
	}
	s.outMu.Unlock()
	return nil
}

func (s *Store) indexLocked(c *model.Case) {
	for _, id := range c.ObjectIDs() {
		s.index[id] = c.CaseID
	}
}

// GetCase returns a private deep copy of the case.
func (s *Store) GetCase(caseID model.ID) (*model.Case, error) {
	c := s.snapshot(caseID)
	if c == nil {
		return nil, fmt.Errorf("case %s: %w", caseID, ErrNotFound)
	}
	return c.Clone(), nil
}

// GetDocument returns a private deep copy of the document.
func (s *Store) GetDocument(caseID, docID model.ID) (*model.Document, error) {
	c := s.snapshot(caseID)
	if c == nil {
		return nil, fmt.Errorf("case %s: %w", caseID, ErrNotFound)
	}
	d := c.Document(docID)
	if d == nil {
		return nil, fmt.Errorf("document %s: %w", docID, ErrNotFound)
	}
	return d.Clone(), nil
}

func (s *Store) snapshot(caseID model.ID) *model.Case {
	s.mu.RLock()
	e := s.entries[caseID]
	s.mu.RUnlock()
	if e == nil {
		return nil
	}
	return e.snap.Load()
}

// OwnerOf reports which case holds the object id. Case ids own themselves.
func (s *Store) OwnerOf(id model.ID) (model.ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.index[id]
	return owner, ok
}

// Outcome returns the recorded response of a request, if any.
func (s *Store) Outcome(scope model.ID, rid string) (model.RequestRecord, bool) {
	s.outMu.RLock()
	defer s.outMu.RUnlock()
	r, ok := s.outcomes[outcomeKey{scope, rid}]
	return r, ok
}

// Begin locks the case addressed by scope and opens a transaction on it.
// Requests for unknown cases, case creation included, share the system lock.
func (s *Store) Begin(ctx context.Context, scope model.ID) (*Tx, error) {
	for {
		s.mu.RLock()
		e := s.entries[scope]
		s.mu.RUnlock()
		if e == nil {
			e = s.system
		}

		if err := e.lock(ctx); err != nil {
			return nil, err
		}

		if e == s.system {
			// The case may have been created while we waited.
			s.mu.RLock()
			created := s.entries[scope]
			s.mu.RUnlock()
			if created != nil {
				e.unlock()
				continue
			}
		}

		return &Tx{store: s, entry: e, scope: scope, base: e.snap.Load()}, nil
	}
}
