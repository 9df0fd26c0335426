package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dgrafuwsp/COVIDer/internal/cli/config"
	"github.com/dgrafuwsp/COVIDer/internal/cli/output"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const configHeader = `# COVIDer configuration.
# Relative paths resolve against the directory holding this file.
# Every key can be overridden with a COVIDER_ environment variable
# (COVIDER_FETCH__MAX_ATTEMPTS=3) or a command-line flag.
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default covider.yaml",
		Long: `Write covider.yaml with the built-in defaults: directories, retry policy,
dataset manifest and county criteria. Edit the file to change what is fetched
and which counties the summary tables cover.`,
		Example: `  # Initialize in current directory
  covider init

  # Initialize in a new directory
  covider init covid

  # Force overwrite existing config
  covider init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			r := newRenderer(cmd, getConfig())
			return runInit(r, dir, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")

	return cmd
}

func runInit(r *output.Renderer, dir string, force bool) error {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	configPath := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("%s already exists. Use --force to overwrite", configPath)
	}

	body, err := defaultConfigYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(configPath, body, 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}

	r.StatusLine(configPath, "success", "")
	r.Println("")
	r.Success("COVIDer initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Adjust the criteria list in " + config.ConfigFileNames[0])
	r.Println("  2. Run 'covider fetch' to download the datasets")
	r.Println("  3. Run 'covider build' to write the summary tables")

	return nil
}

func defaultConfigYAML() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(configHeader)
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(config.Default()); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return buf.Bytes(), nil
}
