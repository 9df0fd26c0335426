// Package refresh downloads the configured COVID datasets and stores a
// comma-delimited and a tab-delimited copy of each one.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dgrafuwsp/COVIDer/internal/fetch"
	"github.com/dgrafuwsp/COVIDer/internal/state"
	"github.com/dgrafuwsp/COVIDer/internal/table"
)

// Status is the per-dataset result of a refresh.
type Status string

// Refresh statuses.
const (
	// StatusUpdated means the remote copy was downloaded.
	StatusUpdated Status = "updated"
	// StatusLocal means the download failed and the stored CSV was reused.
	StatusLocal Status = "local"
	// StatusFailed means neither a download nor a stored CSV was available.
	StatusFailed Status = "failed"
)

// ErrEmptyResponse is recorded when a dataset URL answers with no lines.
var ErrEmptyResponse = errors.New("empty response")

// Dataset is one entry of the download manifest with its URL resolved.
type Dataset struct {
	Name     string
	URL      string
	Encoding fetch.Encoding
	Quoted   bool
}

// Outcome describes what happened to one dataset.
type Outcome struct {
	Dataset  string `json:"dataset"`
	URL      string `json:"url"`
	Status   Status `json:"status"`
	Attempts int    `json:"attempts"`
	Lines    int    `json:"lines"`
	Err      error  `json:"-"`
	Error    string `json:"error,omitempty"`
}

// Report collects the outcomes of a run.
type Report struct {
	RunID    string     `json:"run_id,omitempty"`
	Outcomes []*Outcome `json:"outcomes"`
}

// Count returns how many outcomes have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == s {
			n++
		}
	}
	return n
}

// Config holds the output directories.
type Config struct {
	// CSVDir receives <name>.csv, the body as downloaded.
	CSVDir string
	// DataDir receives <name>.txt, the tab-delimited copy.
	DataDir string
}

// Runner refreshes datasets one after another.
type Runner struct {
	client *fetch.Client
	cfg    Config
	store  state.Store
	logger *slog.Logger
}

// New creates a Runner. store may be nil, in which case nothing is recorded.
func New(client *fetch.Client, cfg Config, store state.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{client: client, cfg: cfg, store: store, logger: logger}
}

// Run refreshes every dataset. A dataset that cannot be refreshed does not
// stop the others; its outcome carries the cause. The returned error is
// reserved for cancellation and state store failures.
func (r *Runner) Run(ctx context.Context, datasets []Dataset) (*Report, error) {
	report := &Report{}

	var run *state.Run
	if r.store != nil {
		var err error
		if run, err = r.store.CreateRun(ctx, "fetch"); err != nil {
			return nil, err
		}
		report.RunID = run.ID
	}

	var runErr error
	for _, ds := range datasets {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		out := r.refresh(ctx, ds)
		report.Outcomes = append(report.Outcomes, out)

		if run != nil {
			rec := &state.Fetch{
				RunID:    run.ID,
				Dataset:  out.Dataset,
				URL:      out.URL,
				Status:   string(out.Status),
				Attempts: out.Attempts,
				Lines:    out.Lines,
				Error:    out.Error,
			}
			if err := r.store.RecordFetch(ctx, rec); err != nil {
				runErr = err
				break
			}
		}
	}

	if run != nil {
		status, msg := state.RunStatusCompleted, ""
		if runErr != nil {
			status, msg = state.RunStatusFailed, runErr.Error()
		} else if n := report.Count(StatusFailed); n > 0 {
			status, msg = state.RunStatusFailed, fmt.Sprintf("%d of %d datasets failed", n, len(report.Outcomes))
		}
		// A cancelled ctx must not prevent the run from being closed.
		if err := r.store.CompleteRun(context.WithoutCancel(ctx), run.ID, status, msg); err != nil && runErr == nil {
			runErr = err
		}
	}

	return report, runErr
}

func (r *Runner) refresh(ctx context.Context, ds Dataset) *Outcome {
	out := &Outcome{Dataset: ds.Name, URL: ds.URL}
	logger := r.logger.With(slog.String("dataset", ds.Name))
	csvPath := filepath.Join(r.cfg.CSVDir, ds.Name+".csv")

	res := r.client.FetchEncoded(ctx, ds.URL, ds.Encoding)
	out.Attempts = res.Attempts

	lines := res.Lines
	switch {
	case res.OK():
		if err := table.WriteLines(csvPath, lines); err != nil {
			return out.fail(err)
		}
		out.Status = StatusUpdated
		logger.Info("downloaded", slog.Int("lines", len(lines)), slog.Int("attempts", res.Attempts))
	default:
		cause := res.Err
		if res.Status == fetch.StatusEmpty {
			cause = ErrEmptyResponse
		}
		logger.Warn("no update obtained", slog.Any("error", cause))

		local, err := table.ReadLines(csvPath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return out.fail(fmt.Errorf("%w; no local copy at %s", cause, csvPath))
			}
			return out.fail(err)
		}
		lines = local
		out.Status = StatusLocal
		out.Err = cause
		out.Error = cause.Error()
		logger.Info("using local copy", slog.String("path", csvPath))
	}

	tabbed, err := toTab(lines, ds.Quoted)
	if err != nil {
		return out.fail(err)
	}
	if err := table.WriteLines(filepath.Join(r.cfg.DataDir, ds.Name+".txt"), tabbed); err != nil {
		return out.fail(err)
	}
	out.Lines = len(tabbed)
	return out
}

func (o *Outcome) fail(err error) *Outcome {
	o.Status = StatusFailed
	o.Err = err
	o.Error = err.Error()
	return o
}

// toTab converts comma-delimited lines to tab-delimited ones and drops empty
// lines.
func toTab(lines []string, quoted bool) ([]string, error) {
	var converted []string
	if quoted {
		var err error
		if converted, err = table.ConvertQuoted(lines, table.Comma, table.Tab); err != nil {
			return nil, err
		}
	} else {
		converted = table.Convert(lines, table.Comma, table.Tab)
	}

	kept := converted[:0]
	for _, l := range converted {
		if l != "" {
			kept = append(kept, l)
		}
	}
	return kept, nil
}
