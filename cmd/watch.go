package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/luaqa/internal/check"
	"github.com/fakeyudi/luaqa/internal/config"
	"github.com/fakeyudi/luaqa/internal/ghcontext"
	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/run"
)

var watchDebounce time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Re-run the enabled tools whenever a checked file changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}
		// Local loop: no live report, no step outputs.
		cfg.Slack = false
		cfg.IgnoreSetOutput = true
		if err := cfg.Validate(); err != nil {
			return err
		}

		gh, _, err := ghcontext.Load(cfg.WorkDir, os.LookupEnv, nil)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		once := func(changed []string) {
			if len(changed) > 0 {
				logger.Infof("Changed: %s", strings.Join(changed, ", "))
			}
			c := run.New(cfg, gh, nil, toolRunner, logger)
			c.Lookup = func(string) (string, bool) { return "", false }
			err := c.Execute(ctx)
			switch {
			case err == nil:
				logger.Info("All checks passed")
			case errors.Is(err, run.ErrChecksFailed):
				logger.Warn("Checks failed")
			case errors.Is(err, context.Canceled):
			default:
				logger.Error(err)
			}
			logger.Info("Watching for changes...")
		}

		once(nil)
		// Versions were checked on the first run.
		cfg.IgnoreCheckVersions = true
		match := check.Matcher(check.Options{Dir: cfg.WorkDir}, cfg.EnabledTools())
		return check.Watch(ctx, cfg.WorkDir, match, watchDebounce, once)
	},
}

func init() {
	for _, name := range lint.Tools {
		watchCmd.Flags().Bool(name, true, "run "+lint.Title(name))
	}
	watchCmd.Flags().Bool("ignore-check-versions", false, "skip the tool version check")
	watchCmd.Flags().String("results-file", "", "write the results to this file after every run")
	watchCmd.Flags().String("results-format", config.ResultsJSON, "results file format: json or markdown")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 300*time.Millisecond, "wait this long for more changes before re-running")
	rootCmd.AddCommand(watchCmd)
}
