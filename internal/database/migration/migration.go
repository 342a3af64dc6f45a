package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"jurisgate/internal/database"
)

type migrationStep struct {
	Name string
	SQL  string
}

var postgresSteps = []migrationStep{
	{
		Name: "create_table_cases",
		SQL: `CREATE TABLE IF NOT EXISTS cases (
  case_id    TEXT        PRIMARY KEY,
  payload    JSONB       NOT NULL,
  updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_table_trace_events",
		SQL: `CREATE TABLE IF NOT EXISTS trace_events (
  seq         BIGSERIAL   PRIMARY KEY,
  event_id    TEXT        NOT NULL UNIQUE,
  case_id     TEXT        NOT NULL,
  event_type  TEXT        NOT NULL,
  actor       TEXT        NOT NULL,
  occurred_at TIMESTAMPTZ NOT NULL,
  payload     JSONB       NOT NULL
);`,
	},
	{
		Name: "create_index_trace_events_case_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_trace_events_case_id ON trace_events (case_id, seq);`,
	},
	{
		Name: "create_table_gate_requests",
		SQL: `CREATE TABLE IF NOT EXISTS gate_requests (
  scope      TEXT        NOT NULL,
  request_id TEXT        NOT NULL,
  tool_name  TEXT        NOT NULL,
  response   TEXT        NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  PRIMARY KEY (scope, request_id)
);`,
	},
}

var sqliteSteps = []migrationStep{
	{
		Name: "create_table_cases",
		SQL: `CREATE TABLE IF NOT EXISTS cases (
  case_id    TEXT     PRIMARY KEY,
  payload    TEXT     NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);`,
	},
	{
		Name: "create_table_trace_events",
		SQL: `CREATE TABLE IF NOT EXISTS trace_events (
  seq         INTEGER  PRIMARY KEY AUTOINCREMENT,
  event_id    TEXT     NOT NULL UNIQUE,
  case_id     TEXT     NOT NULL,
  event_type  TEXT     NOT NULL,
  actor       TEXT     NOT NULL,
  occurred_at DATETIME NOT NULL,
  payload     TEXT     NOT NULL
);`,
	},
	{
		Name: "create_index_trace_events_case_id",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_trace_events_case_id ON trace_events (case_id, seq);`,
	},
	{
		Name: "create_table_gate_requests",
		SQL: `CREATE TABLE IF NOT EXISTS gate_requests (
  scope      TEXT     NOT NULL,
  request_id TEXT     NOT NULL,
  tool_name  TEXT     NOT NULL,
  response   TEXT     NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
  PRIMARY KEY (scope, request_id)
);`,
	},
}

// sentinel reports whether the last table of the schema exists.
func sentinel(d database.Dialect) string {
	if d == database.SQLite {
		return "SELECT EXISTS (SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'gate_requests')"
	}
	return "SELECT to_regclass('public.gate_requests') IS NOT NULL"
}

func stepsFor(d database.Dialect) []migrationStep {
	if d == database.SQLite {
		return sqliteSteps
	}
	return postgresSteps
}

// EnsureMigrated checks if the 'gate_requests' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, d database.Dialect, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"dialect":   string(d),
		"db_host":   dbHost,
	})

	var exists bool
	if err := db.QueryRowContext(ctx, sentinel(d)).Scan(&exists); err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	for _, step := range stepsFor(d) {
		stepStart := time.Now()
		if _, err := db.ExecContext(ctx, step.SQL); err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
