package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// CreateRun starts a run for the named command.
func (s *SQLiteStore) CreateRun(ctx context.Context, command string) (*Run, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	run := &Run{
		ID:        generateID(),
		Command:   command,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run", slog.String("id", run.ID), slog.String("command", command))

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Command, string(run.Status), formatTime(run.StartedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	var (
		run         Run
		status      string
		startedAt   string
		completedAt sql.NullString
		errMsg      sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, command, status, started_at, completed_at, error FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.Command, &status, &startedAt, &completedAt, &errMsg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	run.Status = RunStatus(status)
	run.Error = errMsg.String
	if run.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		run.CompletedAt = &t
	}

	return &run, nil
}

// CompleteRun marks a run as finished with the given status.
func (s *SQLiteStore) CompleteRun(ctx context.Context, id string, status RunStatus, errMsg string) error {
	if err := s.ready(); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(status), formatTime(time.Now()), nullString(errMsg), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, ErrNotFound)
	}

	s.logger.Debug("completed run", slog.String("id", id), slog.String("status", string(status)))
	return nil
}
