package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/fakeyudi/luaqa/internal/config"
	"github.com/fakeyudi/luaqa/internal/ghcontext"
	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/report"
	"github.com/fakeyudi/luaqa/internal/run"
	"github.com/fakeyudi/luaqa/internal/slack"
)

// slackOptions lets tests point the Slack client at a fake server.
var slackOptions []slack.Option

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the enabled tools and report the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Flags())
		if err != nil {
			return err
		}

		gh, warnings, err := ghcontext.Load(cfg.WorkDir, os.LookupEnv, nil)
		if err != nil {
			return err
		}
		for _, w := range warnings {
			logger.Warn(w)
		}

		var poster report.Poster
		if cfg.Slack {
			poster = slack.NewClient(cfg.SlackToken, cfg.SlackChannel, logger, slackOptions...)
		}

		return run.New(cfg, gh, poster, toolRunner, logger).Execute(cmd.Context())
	},
}

// loadConfig merges every configuration source, the flags of fs taking
// precedence over the rest.
func loadConfig(fs *pflag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(workDir, os.LookupEnv)
	if err != nil {
		return cfg, err
	}

	bools := map[string]*bool{
		lint.Busted:             &cfg.Busted,
		lint.LDoc:               &cfg.LDoc,
		lint.Luacheck:           &cfg.Luacheck,
		lint.Prettier:           &cfg.Prettier,
		lint.StyLua:             &cfg.StyLua,
		"slack":                 &cfg.Slack,
		"ignore-check-versions": &cfg.IgnoreCheckVersions,
		"ignore-failure":        &cfg.IgnoreFailure,
		"ignore-set-output":     &cfg.IgnoreSetOutput,
	}
	for name, dst := range bools {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			continue
		}
		v, err := fs.GetBool(name)
		if err != nil {
			return cfg, err
		}
		*dst = v
	}

	strs := map[string]*string{
		"force-status":   &cfg.ForceStatus,
		"results-file":   &cfg.ResultsFile,
		"results-format": &cfg.ResultsFormat,
	}
	for name, dst := range strs {
		if fs.Lookup(name) == nil || !fs.Changed(name) {
			continue
		}
		v, err := fs.GetString(name)
		if err != nil {
			return cfg, err
		}
		*dst = v
	}
	return cfg, nil
}

func init() {
	for _, name := range lint.Tools {
		runCmd.Flags().Bool(name, true, "run "+lint.Title(name))
	}
	runCmd.Flags().Bool("slack", false, "post a live report to Slack (needs SLACK_TOKEN and SLACK_CHANNEL)")
	runCmd.Flags().Bool("ignore-check-versions", false, "skip the tool version check")
	runCmd.Flags().Bool("ignore-failure", false, "report failures without failing the run")
	runCmd.Flags().Bool("ignore-set-output", false, "do not write step outputs")
	runCmd.Flags().String("force-status", "", "report this status regardless of the results: "+
		config.ForceSuccess+", "+config.ForceFailure+", "+config.ForceCancelled+" or "+config.ForceSkipped)
	runCmd.Flags().String("results-file", "", "write the results to this file, relative to --dir")
	runCmd.Flags().String("results-format", config.ResultsJSON, "results file format: json or markdown")
	rootCmd.AddCommand(runCmd)
}
