// Package build turns the stored tab-delimited datasets into the three
// summary tables.
package build

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dgrafuwsp/COVIDer/internal/dataset"
	"github.com/dgrafuwsp/COVIDer/internal/state"
	"github.com/dgrafuwsp/COVIDer/internal/summary"
	"github.com/dgrafuwsp/COVIDer/internal/table"
)

// Output file names.
const (
	CountyCasesFile      = "county_cases_and_deaths.txt"
	CountyPopulationFile = "county_census_population.txt"
	StateMetricsFile     = "state_cases_and_deaths.txt"
)

// Inputs lists the dataset names read from the data directory, each as
// <name>.txt.
var Inputs = []string{
	dataset.NYTCountiesSchema.Name,
	dataset.CensusCountiesSchema.Name,
	dataset.TrackingNationalSchema.Name,
	dataset.TrackingStatesSchema.Name,
}

// Config holds the directories and the selection criteria.
type Config struct {
	DataDir   string
	OutputDir string
	// Criteria select counties. The state table uses only their states.
	Criteria []table.Criterion
}

// Output is one written summary table.
type Output struct {
	Name  string `json:"name"`
	Path  string `json:"path"`
	Lines int    `json:"lines"`
}

// Report lists the tables written by a run.
type Report struct {
	RunID   string   `json:"run_id,omitempty"`
	Outputs []Output `json:"outputs"`
}

// Runner builds the summary tables.
type Runner struct {
	cfg     Config
	builder *summary.Builder
	store   state.Store
	logger  *slog.Logger
}

// New creates a Runner. store may be nil.
func New(cfg Config, store state.Store, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{
		cfg:     cfg,
		builder: summary.NewBuilder(logger),
		store:   store,
		logger:  logger,
	}
}

// Run reads the inputs and writes every table. A missing or malformed input
// fails the run; nothing is written in that case.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	report := &Report{}

	var run *state.Run
	if r.store != nil {
		var err error
		if run, err = r.store.CreateRun(ctx, "build"); err != nil {
			return nil, err
		}
		report.RunID = run.ID
	}

	err := r.build(ctx, report)

	if run != nil {
		status, msg := state.RunStatusCompleted, ""
		if err != nil {
			status, msg = state.RunStatusFailed, err.Error()
		}
		if cerr := r.store.CompleteRun(context.WithoutCancel(ctx), run.ID, status, msg); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Runner) build(ctx context.Context, report *Report) error {
	inputs := make(map[string]*table.Dataset, len(Inputs))
	for _, name := range Inputs {
		ds, err := table.ReadFile(filepath.Join(r.cfg.DataDir, name+".txt"), table.Tab, true)
		if err != nil {
			return fmt.Errorf("input %s: %w", name, err)
		}
		r.logger.Debug("read input", slog.String("dataset", name), slog.Int("rows", ds.Len()))
		inputs[name] = ds
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	counties := inputs[dataset.NYTCountiesSchema.Name]
	census := inputs[dataset.CensusCountiesSchema.Name]
	national := inputs[dataset.TrackingNationalSchema.Name]
	states := inputs[dataset.TrackingStatesSchema.Name]

	cases, err := r.builder.CountyCasesAndDeaths(counties, r.cfg.Criteria)
	if err != nil {
		return fmt.Errorf("%s: %w", CountyCasesFile, err)
	}
	population, err := r.builder.CountyPopulation(census, r.cfg.Criteria)
	if err != nil {
		return fmt.Errorf("%s: %w", CountyPopulationFile, err)
	}
	metrics, err := r.builder.StateMetrics(national, states, summary.StateCriteria(r.cfg.Criteria))
	if err != nil {
		return fmt.Errorf("%s: %w", StateMetricsFile, err)
	}

	for _, t := range []struct {
		name  string
		lines []string
	}{
		{CountyCasesFile, cases},
		{CountyPopulationFile, population},
		{StateMetricsFile, metrics},
	} {
		path := filepath.Join(r.cfg.OutputDir, t.name)
		if err := table.WriteLines(path, t.lines); err != nil {
			return err
		}
		r.logger.Info("wrote table", slog.String("path", path), slog.Int("lines", len(t.lines)))
		report.Outputs = append(report.Outputs, Output{Name: t.name, Path: path, Lines: len(t.lines)})
	}
	return nil
}
