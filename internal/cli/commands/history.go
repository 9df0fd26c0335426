package commands

import (
	"fmt"
	"strconv"

	"github.com/dgrafuwsp/COVIDer/internal/cli/config"
	"github.com/dgrafuwsp/COVIDer/internal/cli/output"
	"github.com/dgrafuwsp/COVIDer/internal/state"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [dataset]",
		Short: "Show recent fetches",
		Long: `Show the fetches recorded in the state database, newest first.
Pass a dataset name to show only that dataset.`,
		Example: `  # Last 20 fetches
  covider history

  # Every recorded fetch of the county series
  covider history nyt_us_counties --limit 0`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeDatasetNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataset := ""
			if len(args) > 0 {
				dataset = args[0]
			}
			return runHistory(cmd, dataset, limit)
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of fetches to show (0 for all)")

	return cmd
}

func runHistory(cmd *cobra.Command, dataset string, limit int) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := newRenderer(cmd, cfg)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("no state database configured (set state_path or --state)")
	}
	defer func() { _ = store.Close() }()

	fetches, err := store.ListFetches(cmd.Context(), dataset, limit)
	if err != nil {
		return err
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		if fetches == nil {
			fetches = []*state.Fetch{}
		}
		return r.JSON(fetches)
	default:
		r.Header(1, "Fetch History")
		if len(fetches) == 0 {
			r.Muted("No fetches recorded yet. Run 'covider fetch' first.")
			return nil
		}
		rows := make([][]string, len(fetches))
		for i, f := range fetches {
			rows[i] = []string{
				f.FetchedAt.Local().Format("2006-01-02 15:04:05"),
				f.Dataset,
				f.Status,
				strconv.Itoa(f.Attempts),
				strconv.Itoa(f.Lines),
				f.Error,
			}
		}
		r.Table([]string{"fetched", "dataset", "status", "attempts", "lines", "error"}, rows)
		return nil
	}
}
