// Package sqlite persists run reports in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/conveyorci/conveyor/internal/event"
	"github.com/conveyorci/conveyor/internal/runner"
	"github.com/conveyorci/conveyor/internal/storage"
)

const defaultListLimit = 50

// Store is a SQLite implementation of RunStore.
type Store struct {
	db *sqlx.DB
}

var _ storage.RunStore = (*Store)(nil)

// New opens (or creates) the database at dbPath and initializes the schema.
func New(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL; PRAGMA synchronous=NORMAL; PRAGMA foreign_keys=ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set pragmas: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			pipeline TEXT NOT NULL,
			status TEXT NOT NULL,
			event_kind TEXT NOT NULL,
			event_repo TEXT,
			event_branch TEXT,
			event_tag TEXT,
			event_ref TEXT,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS step_results (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL,
			exit_code INTEGER,
			output TEXT,
			error TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at DESC)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

type runRow struct {
	ID          string    `db:"id"`
	Pipeline    string    `db:"pipeline"`
	Status      string    `db:"status"`
	EventKind   string    `db:"event_kind"`
	EventRepo   string    `db:"event_repo"`
	EventBranch string    `db:"event_branch"`
	EventTag    string    `db:"event_tag"`
	EventRef    string    `db:"event_ref"`
	StartedAt   time.Time `db:"started_at"`
	FinishedAt  time.Time `db:"finished_at"`
}

type stepRow struct {
	RunID    string        `db:"run_id"`
	Position int           `db:"position"`
	Name     string        `db:"name"`
	Status   string        `db:"status"`
	ExitCode sql.NullInt64 `db:"exit_code"`
	Output   string        `db:"output"`
	Error    string        `db:"error"`
}

func (s *Store) SaveRun(ctx context.Context, report *runner.RunReport) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.NamedExecContext(ctx, `
		INSERT INTO runs (id, pipeline, status, event_kind, event_repo, event_branch, event_tag, event_ref, started_at, finished_at)
		VALUES (:id, :pipeline, :status, :event_kind, :event_repo, :event_branch, :event_tag, :event_ref, :started_at, :finished_at)`,
		runRow{
			ID:          report.ID,
			Pipeline:    report.Pipeline,
			Status:      string(report.Status),
			EventKind:   string(report.Event.Kind),
			EventRepo:   report.Event.Repo,
			EventBranch: report.Event.Branch,
			EventTag:    report.Event.Tag,
			EventRef:    report.Event.Ref,
			StartedAt:   report.StartedAt,
			FinishedAt:  report.FinishedAt,
		})
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	for i, step := range report.Steps {
		row := stepRow{
			RunID:    report.ID,
			Position: i,
			Name:     step.Name,
			Status:   string(step.Status),
			Output:   step.Output,
			Error:    step.Error,
		}
		if step.ExitCode != nil {
			row.ExitCode = sql.NullInt64{Int64: int64(*step.ExitCode), Valid: true}
		}
		if _, err := tx.NamedExecContext(ctx, `
			INSERT INTO step_results (run_id, position, name, status, exit_code, output, error)
			VALUES (:run_id, :position, :name, :status, :exit_code, :output, :error)`, row); err != nil {
			return fmt.Errorf("insert step result: %w", err)
		}
	}

	return tx.Commit()
}

func (s *Store) GetRun(ctx context.Context, id string) (*runner.RunReport, error) {
	var row runRow
	err := s.db.GetContext(ctx, &row, `SELECT * FROM runs WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select run: %w", err)
	}

	report := rowToReport(row)

	var steps []stepRow
	if err := s.db.SelectContext(ctx, &steps,
		`SELECT * FROM step_results WHERE run_id = ? ORDER BY position`, id); err != nil {
		return nil, fmt.Errorf("select step results: %w", err)
	}
	for _, sr := range steps {
		report.Steps = append(report.Steps, rowToStep(sr))
	}
	return report, nil
}

func (s *Store) ListRuns(ctx context.Context, limit int) ([]*runner.RunReport, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}

	var rows []runRow
	if err := s.db.SelectContext(ctx, &rows,
		`SELECT * FROM runs ORDER BY started_at DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}

	out := make([]*runner.RunReport, 0, len(rows))
	for _, row := range rows {
		report := rowToReport(row)

		var steps []stepRow
		if err := s.db.SelectContext(ctx, &steps,
			`SELECT * FROM step_results WHERE run_id = ? ORDER BY position`, row.ID); err != nil {
			return nil, fmt.Errorf("select step results: %w", err)
		}
		for _, sr := range steps {
			report.Steps = append(report.Steps, rowToStep(sr))
		}
		out = append(out, report)
	}
	return out, nil
}

func (s *Store) Close() error { return s.db.Close() }

func rowToReport(row runRow) *runner.RunReport {
	return &runner.RunReport{
		ID:       row.ID,
		Pipeline: row.Pipeline,
		Status:   runner.Status(row.Status),
		Event: event.Event{
			Kind:   event.Kind(row.EventKind),
			Repo:   row.EventRepo,
			Branch: row.EventBranch,
			Tag:    row.EventTag,
			Ref:    row.EventRef,
		},
		StartedAt:  row.StartedAt,
		FinishedAt: row.FinishedAt,
	}
}

func rowToStep(row stepRow) runner.StepResult {
	step := runner.StepResult{
		Name:   row.Name,
		Status: runner.Status(row.Status),
		Output: row.Output,
		Error:  row.Error,
	}
	if row.ExitCode.Valid {
		code := int(row.ExitCode.Int64)
		step.ExitCode = &code
	}
	return step
}
