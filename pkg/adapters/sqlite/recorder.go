// Package sqlite records run lifecycle events in a SQLite database, one
// row per event, for offline analysis of an experiment session.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/cadence/pkg/domain"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schema string

// Recorder implements ports.Recorder.
type Recorder struct {
	sqlDB *sql.DB
}

// Row is one recorded event.
type Row struct {
	RunID          string
	Type           domain.EventType
	At             time.Time
	TaskTime       time.Duration
	TaskIndex      int
	TaskName       string
	ConditionIndex *int
	ConditionKind  domain.ConditionKind
	Target         *int
	Paused         time.Duration
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*Recorder, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("recorder path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Recorder{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (r *Recorder) Close() error {
	if r == nil || r.sqlDB == nil {
		return nil
	}
	return r.sqlDB.Close()
}

func (r *Recorder) RecordTask(ctx context.Context, e *domain.TaskEvent) error {
	return r.insert(ctx, e.EventBase, e.TaskIndex, e.TaskName, nil, nil, nil, nil)
}

func (r *Recorder) RecordCondition(ctx context.Context, e *domain.ConditionEvent) error {
	return r.insert(ctx, e.EventBase, e.TaskIndex, "", e.ConditionIndex, string(e.Kind), e.Target, nil)
}

func (r *Recorder) RecordRun(ctx context.Context, e *domain.RunEvent) error {
	var paused any
	if e.Paused > 0 {
		paused = e.Paused.Milliseconds()
	}
	return r.insert(ctx, e.EventBase, e.TaskIndex, "", nil, nil, nil, paused)
}

func (r *Recorder) insert(ctx context.Context, base domain.EventBase, taskIndex int, taskName string, condIndex, kind, target, paused any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if r == nil || r.sqlDB == nil {
		return fmt.Errorf("recorder is not configured")
	}
	at := base.Timestamp
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.sqlDB.ExecContext(
		ctx,
		`INSERT INTO events (
		   run_id, type, at, task_time_ms, task_index, task_name,
		   condition_index, condition_kind, target, paused_ms
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		base.RunID,
		string(base.Type),
		toMillis(at),
		base.TaskTime.Milliseconds(),
		taskIndex,
		taskName,
		condIndex,
		kind,
		target,
		paused,
	)
	if err != nil {
		return fmt.Errorf("record %s event: %w", base.Type, err)
	}
	return nil
}

// Events returns the events of a run in recording order.
func (r *Recorder) Events(ctx context.Context, runID string) ([]Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rows, err := r.sqlDB.QueryContext(
		ctx,
		`SELECT run_id, type, at, task_time_ms, task_index, task_name,
		        condition_index, condition_kind, target, paused_ms
		   FROM events
		  WHERE run_id = ?
		  ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var (
			row       Row
			typ       string
			at        int64
			taskTime  int64
			condIndex sql.NullInt64
			kind      sql.NullString
			target    sql.NullInt64
			paused    sql.NullInt64
		)
		if err := rows.Scan(&row.RunID, &typ, &at, &taskTime, &row.TaskIndex, &row.TaskName,
			&condIndex, &kind, &target, &paused); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		row.Type = domain.EventType(typ)
		row.At = fromMillis(at)
		row.TaskTime = time.Duration(taskTime) * time.Millisecond
		if condIndex.Valid {
			v := int(condIndex.Int64)
			row.ConditionIndex = &v
		}
		row.ConditionKind = domain.ConditionKind(kind.String)
		if target.Valid {
			v := int(target.Int64)
			row.Target = &v
		}
		row.Paused = time.Duration(paused.Int64) * time.Millisecond
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return out, nil
}
