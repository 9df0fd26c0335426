// Package state records COVIDer runs and dataset fetches in SQLite.
package state

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a run or fetch does not exist.
var ErrNotFound = errors.New("not found")

// RunStatus is the lifecycle state of a run.
type RunStatus string

// Run statuses.
const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one invocation of a pipeline command such as fetch or build.
type Run struct {
	ID          string     `json:"id"`
	Command     string     `json:"command"`
	Status      RunStatus  `json:"status"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Error       string     `json:"error,omitempty"`
}

// Fetch is the outcome of refreshing one dataset within a run.
type Fetch struct {
	ID        int64     `json:"id"`
	RunID     string    `json:"run_id"`
	Dataset   string    `json:"dataset"`
	URL       string    `json:"url"`
	Status    string    `json:"status"`
	Attempts  int       `json:"attempts"`
	Lines     int       `json:"lines"`
	Error     string    `json:"error,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Store persists runs and fetch outcomes.
type Store interface {
	CreateRun(ctx context.Context, command string) (*Run, error)
	CompleteRun(ctx context.Context, id string, status RunStatus, errMsg string) error
	GetRun(ctx context.Context, id string) (*Run, error)

	RecordFetch(ctx context.Context, f *Fetch) error
	// ListFetches returns fetches newest first. An empty dataset lists all.
	ListFetches(ctx context.Context, dataset string, limit int) ([]*Fetch, error)
	LatestFetch(ctx context.Context, dataset string) (*Fetch, error)

	Close() error
}

var _ Store = (*SQLiteStore)(nil)
