package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgrafuwsp/COVIDer/internal/cli/config"
	"github.com/dgrafuwsp/COVIDer/internal/cli/output"
	"github.com/dgrafuwsp/COVIDer/internal/table"
	"github.com/spf13/cobra"
)

// ShowOutput is the JSON form of a table preview.
type ShowOutput struct {
	Path   string     `json:"path"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	Total  int        `json:"total_rows"`
}

// NewShowCommand creates the show command.
func NewShowCommand() *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "show <file|dataset>",
		Short: "Preview a tab-delimited table",
		Long: `Preview the first rows of a tab-delimited file. The argument is a path, a
dataset name (read from data_dir as <name>.txt), or the name of a summary
table in output_dir.`,
		Example: `  # Preview a stored dataset
  covider show nyt_us_counties

  # Preview a summary table
  covider show county_census_population.txt --rows 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, args[0], rows)
		},
	}

	cmd.Flags().IntVarP(&rows, "rows", "n", 10, "Number of rows to show (0 for all)")

	return cmd
}

func runShow(cmd *cobra.Command, arg string, limit int) error {
	cfg := getConfig()
	r := newRenderer(cmd, cfg)

	path, err := resolveTablePath(cfg, arg)
	if err != nil {
		return err
	}
	ds, err := table.ReadFile(path, table.Tab, true)
	if err != nil {
		return err
	}

	shown := ds.Rows
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	body := make([][]string, len(shown))
	for i, row := range shown {
		body[i] = []string(row)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(ShowOutput{Path: path, Header: []string(ds.Header), Rows: body, Total: ds.Len()})
	}

	r.Header(1, filepath.Base(path))
	r.Table([]string(ds.Header), body)
	r.Println("")
	r.Muted(fmt.Sprintf("%d of %d rows", len(body), ds.Len()))
	return nil
}

// resolveTablePath finds the file named by arg.
func resolveTablePath(cfg *config.Config, arg string) (string, error) {
	candidates := []string{
		arg,
		filepath.Join(cfg.DataDir, arg+".txt"),
		filepath.Join(cfg.OutputDir, arg),
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("no table named %q: %w", arg, os.ErrNotExist)
}
