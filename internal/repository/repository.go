// Package repository contains the durable persistence abstractions of the Gate.
// Implementations live in subpackages (sqldb) inside this directory.
package repository

import (
	"context"

	"jurisgate/internal/model"
)

// CaseRepository persists what the Case Store holds in memory: one snapshot
// per case, the trace events in insertion order, and the idempotency table.
// No business logic here: strictly persistence operations.
type CaseRepository interface {
	// Load returns everything needed to hydrate the store on start.
	Load(ctx context.Context) (*Snapshot, error)

	// Commit writes one Gate transaction atomically. Nil parts are skipped.
	Commit(ctx context.Context, c Commit) error
}

// Snapshot is the full persisted state.
type Snapshot struct {
	Cases    []*model.Case
	Events   []model.TraceEvent
	Requests []model.RequestRecord
}

// Commit is the unit the Gate persists per request.
type Commit struct {
	// Case is the complete post-mutation case, nil when no case changed.
	Case *model.Case
	// Event is the trace record of the request.
	Event *model.TraceEvent
	// Request is the idempotency entry, nil when the request carried no usable id.
	Request *model.RequestRecord
}
