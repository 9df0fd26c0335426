package commands

import (
	"errors"
	"strconv"

	"github.com/dgrafuwsp/COVIDer/internal/cli/config"
	"github.com/dgrafuwsp/COVIDer/internal/cli/output"
	"github.com/dgrafuwsp/COVIDer/internal/state"
	"github.com/spf13/cobra"
)

// DatasetInfo describes one manifest entry.
type DatasetInfo struct {
	Name        string `json:"name"`
	Source      string `json:"source"`
	URL         string `json:"url"`
	Encoding    string `json:"encoding"`
	Quoted      bool   `json:"quoted"`
	LastStatus  string `json:"last_status,omitempty"`
	LastFetched string `json:"last_fetched,omitempty"`
}

// NewDatasetsCommand creates the datasets command.
func NewDatasetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List the configured datasets",
		Long: `List every dataset in the manifest with the URL it is fetched from.
When a state database is configured the outcome of the last fetch is shown too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDatasets(cmd)
		},
	}
}

func runDatasets(cmd *cobra.Command) error {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	r := newRenderer(cmd, cfg)

	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	if store != nil {
		defer func() { _ = store.Close() }()
	}

	infos := make([]DatasetInfo, 0, len(cfg.Datasets))
	for _, d := range cfg.Datasets {
		url, err := d.URL(cfg.Sources)
		if err != nil {
			return err
		}
		info := DatasetInfo{
			Name:     d.Name,
			Source:   d.Source,
			URL:      url,
			Encoding: d.Encoding,
			Quoted:   d.Quoted,
		}
		if info.Encoding == "" {
			info.Encoding = "utf-8"
		}
		if store != nil {
			last, err := store.LatestFetch(cmd.Context(), d.Name)
			switch {
			case err == nil:
				info.LastStatus = last.Status
				info.LastFetched = last.FetchedAt.Local().Format("2006-01-02 15:04:05")
			case !errors.Is(err, state.ErrNotFound):
				return err
			}
		}
		infos = append(infos, info)
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(infos)
	}

	r.Header(1, "Datasets")
	rows := make([][]string, len(infos))
	for i, info := range infos {
		rows[i] = []string{info.Name, info.URL, info.Encoding, strconv.FormatBool(info.Quoted), info.LastStatus, info.LastFetched}
	}
	r.Table([]string{"name", "url", "encoding", "quoted", "last status", "last fetched"}, rows)
	return nil
}
