package commands

import (
	"fmt"
	"strings"

	"github.com/dgrafuwsp/COVIDer/internal/cli/config"
	"github.com/dgrafuwsp/COVIDer/internal/cli/output"
	"github.com/dgrafuwsp/COVIDer/internal/fetch"
	"github.com/dgrafuwsp/COVIDer/internal/refresh"
	"github.com/spf13/cobra"
)

// NewFetchCommand creates the fetch command.
func NewFetchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch [dataset...]",
		Short: "Download the COVID datasets",
		Long: `Download the configured datasets and store each one twice: the CSV as
downloaded in csv_dir and a tab-delimited copy in data_dir.

Every download is attempted up to fetch.max_attempts times. When a dataset
cannot be downloaded, the CSV from a previous fetch is converted instead.
One failing dataset does not stop the others.

Output adapts to environment:
  - Terminal: Styled, colored output
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # Fetch every dataset in the manifest
  covider fetch

  # Fetch two datasets with a smaller retry budget
  covider fetch nyt_us_counties atl_historic_states --max-attempts 3`,
		ValidArgsFunction: completeDatasetNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFetch(cmd, args)
		},
	}

	cmd.Flags().Int("max-attempts", fetch.DefaultMaxAttempts, "Attempts per dataset before giving up")
	cmd.Flags().Duration("timeout", fetch.DefaultTimeout, "Timeout of a single attempt")
	cmd.Flags().String("user-agent", fetch.DefaultUserAgent, "User-Agent header sent with each request")

	return cmd
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg := getConfig()
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := config.GetLogger(cmd.Context())
	r := newRenderer(cmd, cfg)

	datasets, err := selectDatasets(cfg, args)
	if err != nil {
		return err
	}

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	client := fetch.New(cfg.Fetch.ClientConfig(), logger)
	runner := refresh.New(client, refresh.Config{CSVDir: cfg.CSVDir, DataDir: cfg.DataDir}, storeOrNil(store), logger)

	report, err := runner.Run(cmd.Context(), datasets)
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		if err := r.JSON(report); err != nil {
			return err
		}
	} else {
		r.Header(1, "Fetch")
		for _, o := range report.Outcomes {
			r.StatusLine(o.Dataset, string(o.Status), outcomeDetail(o))
		}
		r.Println("")
		r.Muted(fmt.Sprintf("%d updated, %d local, %d failed", report.Count(refresh.StatusUpdated),
			report.Count(refresh.StatusLocal), report.Count(refresh.StatusFailed)))
	}

	if n := report.Count(refresh.StatusFailed); n > 0 {
		return fmt.Errorf("%d of %d datasets failed", n, len(report.Outcomes))
	}
	return nil
}

func outcomeDetail(o *refresh.Outcome) string {
	var parts []string
	if o.Status != refresh.StatusFailed {
		parts = append(parts, fmt.Sprintf("%d lines", o.Lines))
	}
	parts = append(parts, fmt.Sprintf("%d attempts", o.Attempts))
	if o.Error != "" {
		parts = append(parts, o.Error)
	}
	return strings.Join(parts, ", ")
}

// selectDatasets resolves the named datasets, or the whole manifest when no
// names are given.
func selectDatasets(cfg *config.Config, names []string) ([]refresh.Dataset, error) {
	entries := cfg.Datasets
	if len(names) > 0 {
		entries = make([]config.DatasetConfig, 0, len(names))
		for _, name := range names {
			d, ok := cfg.Dataset(name)
			if !ok {
				return nil, fmt.Errorf("unknown dataset %q (known: %s)", name, strings.Join(cfg.DatasetNames(), ", "))
			}
			entries = append(entries, d)
		}
	}

	datasets := make([]refresh.Dataset, 0, len(entries))
	for _, d := range entries {
		url, err := d.URL(cfg.Sources)
		if err != nil {
			return nil, err
		}
		enc, err := fetch.ParseEncoding(d.Encoding)
		if err != nil {
			return nil, fmt.Errorf("dataset %s: %w", d.Name, err)
		}
		datasets = append(datasets, refresh.Dataset{Name: d.Name, URL: url, Encoding: enc, Quoted: d.Quoted})
	}
	return datasets, nil
}

func completeDatasetNames(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return getConfig().DatasetNames(), cobra.ShellCompDirectiveNoFileComp
}
