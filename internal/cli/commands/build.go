package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dgrafuwsp/COVIDer/internal/build"
	"github.com/dgrafuwsp/COVIDer/internal/cli/config"
	"github.com/dgrafuwsp/COVIDer/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewBuildCommand creates the build command.
func NewBuildCommand() *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the summary tables",
		Long: `Build the three summary tables from the tab-delimited datasets in data_dir:

  county_cases_and_deaths.txt   CASES and DEATHS per selected county
  county_census_population.txt  2019 population of each selected county
  state_cases_and_deaths.txt    COVID Tracking metrics for the USA and each selected state

Counties are selected by the criteria list in the configuration. With --watch
the tables are rebuilt whenever an input file changes.`,
		Example: `  # Build once
  covider build

  # Rebuild after every fetch
  covider build --watch`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBuild(cmd, watch)
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Rebuild when input files change")

	return cmd
}

func runBuild(cmd *cobra.Command, watch bool) error {
	cfg := getConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := cfg.ValidateDirectories(); err != nil {
		return err
	}
	logger := config.GetLogger(cmd.Context())
	r := newRenderer(cmd, cfg)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	runner := build.New(build.Config{
		DataDir:   cfg.DataDir,
		OutputDir: cfg.OutputDir,
		Criteria:  cfg.Criteria,
	}, storeOrNil(store), logger)

	report, err := runner.Run(cmd.Context())
	if err != nil {
		return err
	}
	if err := renderBuild(r, report); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.Muted(fmt.Sprintf("Watching %s for changes (Ctrl+C to stop)", cfg.DataDir))
	return runner.Watch(ctx, cfg.DataDir, func(report *build.Report, err error) {
		if err != nil {
			r.Error(err.Error())
			return
		}
		_ = renderBuild(r, report)
	})
}

func renderBuild(r *output.Renderer, report *build.Report) error {
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(report)
	}
	r.Header(1, "Build")
	for _, o := range report.Outputs {
		r.StatusLine(o.Name, "success", fmt.Sprintf("%d lines", o.Lines))
	}
	return nil
}
