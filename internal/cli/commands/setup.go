package commands

import (
	"fmt"
	"log/slog"

	"github.com/dgrafuwsp/COVIDer/internal/cli/config"
	"github.com/dgrafuwsp/COVIDer/internal/cli/output"
	"github.com/dgrafuwsp/COVIDer/internal/state"
	"github.com/spf13/cobra"
)

// getConfig returns the loaded configuration, or the built-in defaults when
// no configuration has been loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}

// newRenderer creates the renderer for cmd's output streams.
func newRenderer(cmd *cobra.Command, cfg *config.Config) *output.Renderer {
	return output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))
}

// openStore opens and migrates the state database. It returns nil, nil when
// no state path is configured.
func openStore(cfg *config.Config, logger *slog.Logger) (*state.SQLiteStore, error) {
	if cfg.StatePath == "" {
		return nil, nil
	}

	store := state.NewSQLiteStore(logger)
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate state database: %w", err)
	}
	return store, nil
}

// storeOrNil converts a nil *SQLiteStore into a nil interface.
func storeOrNil(s *state.SQLiteStore) state.Store {
	if s == nil {
		return nil
	}
	return s
}
