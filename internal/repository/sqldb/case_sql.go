// Package sqldb implements repository.CaseRepository on database/sql for the
// Postgres (pgx) and SQLite (modernc) drivers.
package sqldb

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"jurisgate/internal/database"
	"jurisgate/internal/model"
	"jurisgate/internal/repository"
)

const (
	qUpsertCase = `
		INSERT INTO cases (case_id, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (case_id) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`
	qInsertEvent = `
		INSERT INTO trace_events (event_id, case_id, event_type, actor, occurred_at, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	qInsertRequest = `
		INSERT INTO gate_requests (scope, request_id, tool_name, response, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (scope, request_id) DO NOTHING
	`
	qSelectCases    = `SELECT payload FROM cases ORDER BY case_id`
	qSelectEvents   = `SELECT payload FROM trace_events ORDER BY seq`
	qSelectRequests = `SELECT scope, request_id, tool_name, response FROM gate_requests ORDER BY created_at, request_id`
)

// CaseSQL stores cases as JSON documents next to an ordered trace table and
// the idempotency table.
type CaseSQL struct {
	db      *sql.DB
	dialect database.Dialect
}

func NewCaseSQL(db *sql.DB, dialect database.Dialect) *CaseSQL {
	return &CaseSQL{db: db, dialect: dialect}
}

var _ repository.CaseRepository = (*CaseSQL)(nil)

// Commit writes the case snapshot, trace event and request outcome in one transaction.
func (r *CaseSQL) Commit(ctx context.Context, c repository.Commit) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if c.Case != nil {
		payload, err := json.Marshal(c.Case)
		if err != nil {
			return fmt.Errorf("encode case %s: %w", c.Case.CaseID, err)
		}
		if _, err := tx.ExecContext(ctx, r.dialect.Rebind(qUpsertCase),
			c.Case.CaseID, string(payload), time.Now().UTC()); err != nil {
			return fmt.Errorf("upsert case %s: %w", c.Case.CaseID, err)
		}
	}

	if c.Event != nil {
		payload, err := json.Marshal(c.Event)
		if err != nil {
			return fmt.Errorf("encode event %s: %w", c.Event.EventID, err)
		}
		if _, err := tx.ExecContext(ctx, r.dialect.Rebind(qInsertEvent),
			c.Event.EventID,
			c.Event.CaseID,
			string(c.Event.EventType),
			c.Event.Actor,
			c.Event.Timestamp.UTC(),
			string(payload),
		); err != nil {
			return fmt.Errorf("insert event %s: %w", c.Event.EventID, err)
		}
	}

	if c.Request != nil {
		if _, err := tx.ExecContext(ctx, r.dialect.Rebind(qInsertRequest),
			c.Request.Scope,
			c.Request.RequestID,
			string(c.Request.ToolName),
			string(c.Request.Response),
			c.Request.CreatedAt.UTC(),
		); err != nil {
			return fmt.Errorf("insert request %s: %w", c.Request.RequestID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Load reads every case, every event in insertion order and every request outcome.
func (r *CaseSQL) Load(ctx context.Context) (*repository.Snapshot, error) {
	var snap repository.Snapshot

	err := r.scanPayloads(ctx, qSelectCases, func(payload []byte) error {
		var c model.Case
		if err := json.Unmarshal(payload, &c); err != nil {
			return fmt.Errorf("decode case: %w", err)
		}
		snap.Cases = append(snap.Cases, &c)
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = r.scanPayloads(ctx, qSelectEvents, func(payload []byte) error {
		var ev model.TraceEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return fmt.Errorf("decode event: %w", err)
		}
		snap.Events = append(snap.Events, ev)
		return nil
	})
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, qSelectRequests)
	if err != nil {
		return nil, fmt.Errorf("select requests: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			rec      model.RequestRecord
			tool     string
			response string
		)
		if err := rows.Scan(&rec.Scope, &rec.RequestID, &tool, &response); err != nil {
			return nil, fmt.Errorf("scan request: %w", err)
		}
		rec.ToolName = model.ToolName(tool)
		rec.Response = []byte(response)
		snap.Requests = append(snap.Requests, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("select requests: %w", err)
	}

	return &snap, nil
}

func (r *CaseSQL) scanPayloads(ctx context.Context, q string, fn func([]byte) error) error {
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return fmt.Errorf("query: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		if err := fn([]byte(payload)); err != nil {
			return err
		}
	}
	return rows.Err()
}
