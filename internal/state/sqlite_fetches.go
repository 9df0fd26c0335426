package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const fetchColumns = `id, run_id, dataset, url, status, attempts, lines, error, fetched_at`

// RecordFetch stores f and fills in its ID. A zero FetchedAt is set to now.
func (s *SQLiteStore) RecordFetch(ctx context.Context, f *Fetch) error {
	if err := s.ready(); err != nil {
		return err
	}
	if f.FetchedAt.IsZero() {
		f.FetchedAt = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO fetches (run_id, dataset, url, status, attempts, lines, error, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		f.RunID, f.Dataset, f.URL, f.Status, f.Attempts, f.Lines, nullString(f.Error), formatTime(f.FetchedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to record fetch of %s: %w", f.Dataset, err)
	}
	if f.ID, err = res.LastInsertId(); err != nil {
		return fmt.Errorf("failed to record fetch of %s: %w", f.Dataset, err)
	}

	s.logger.Debug("recorded fetch",
		slog.String("dataset", f.Dataset),
		slog.String("status", f.Status),
		slog.Int("attempts", f.Attempts))
	return nil
}

// ListFetches returns up to limit fetches, newest first. An empty dataset
// lists every dataset; a limit of zero or less means no limit.
func (s *SQLiteStore) ListFetches(ctx context.Context, dataset string, limit int) ([]*Fetch, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+fetchColumns+` FROM fetches
		 WHERE (? = '' OR dataset = ?)
		 ORDER BY fetched_at DESC, id DESC
		 LIMIT ?`,
		dataset, dataset, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list fetches: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fetches []*Fetch
	for rows.Next() {
		f, err := scanFetch(rows)
		if err != nil {
			return nil, err
		}
		fetches = append(fetches, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list fetches: %w", err)
	}
	return fetches, nil
}

// LatestFetch returns the most recent fetch of dataset.
func (s *SQLiteStore) LatestFetch(ctx context.Context, dataset string) (*Fetch, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+fetchColumns+` FROM fetches WHERE dataset = ? ORDER BY fetched_at DESC, id DESC LIMIT 1`,
		dataset,
	)
	f, err := scanFetch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("fetch of %s: %w", dataset, ErrNotFound)
	}
	return f, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFetch(sc scanner) (*Fetch, error) {
	var (
		f         Fetch
		errMsg    sql.NullString
		fetchedAt string
	)
	if err := sc.Scan(&f.ID, &f.RunID, &f.Dataset, &f.URL, &f.Status, &f.Attempts, &f.Lines, &errMsg, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan fetch: %w", err)
	}
	f.Error = errMsg.String

	t, err := parseTime(fetchedAt)
	if err != nil {
		return nil, err
	}
	f.FetchedAt = t
	return &f, nil
}
