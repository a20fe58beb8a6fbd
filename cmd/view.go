package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/luaqa/internal/config"
	"github.com/fakeyudi/luaqa/internal/output"
	"github.com/fakeyudi/luaqa/internal/tui"
)

var plainOutput bool

var viewCmd = &cobra.Command{
	Use:   "view [file]",
	Short: "View a saved results file",
	Long: "View a results file written by \"luaqa run --results-file\". Without an argument the\n" +
		"results file configured for --dir is opened.",
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resultsPath(args)
		if err != nil {
			return err
		}

		r, err := output.Load(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}

		if plainOutput || !interactive() {
			fmt.Fprint(cmd.OutOrStdout(), output.Summary(r))
			return nil
		}
		return tui.Run(r, path)
	},
}

// resultsPath is the explicit argument, or the configured results file.
func resultsPath(args []string) (string, error) {
	if len(args) == 1 {
		return args[0], nil
	}
	cfg, err := config.Load(workDir, nil)
	if err != nil {
		return "", err
	}
	if cfg.ResultsFile == "" {
		return "", fmt.Errorf("no results file given and none configured")
	}
	if filepath.IsAbs(cfg.ResultsFile) {
		return cfg.ResultsFile, nil
	}
	return filepath.Join(cfg.WorkDir, cfg.ResultsFile), nil
}

func init() {
	viewCmd.Flags().BoolVar(&plainOutput, "plain", false, "print the Markdown summary instead of the TUI")
	rootCmd.AddCommand(viewCmd)
}
