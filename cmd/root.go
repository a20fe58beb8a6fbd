package cmd

import (
	"os"

	"github.com/charmbracelet/x/term"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	lqerrors "github.com/fakeyudi/luaqa/internal/errors"
	"github.com/fakeyudi/luaqa/internal/log"
	"github.com/fakeyudi/luaqa/internal/tool"
)

var (
	debug   bool
	workDir string

	// logger is built in PersistentPreRunE once the flags are known.
	logger *logrus.Logger

	// toolRunner starts the external tools. Tests swap it for a fake.
	toolRunner tool.Runner = tool.Exec{}
)

var rootCmd = &cobra.Command{
	Use:           "luaqa",
	Short:         "Run Lua quality tools and report the results",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		opts := log.OptionsFromEnv(cmd.OutOrStdout())
		opts.Debug = opts.Debug || debug
		logger = log.New(opts)

		if workDir == "" {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			workDir = wd
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVarP(&workDir, "dir", "C", "", "directory to check (default: current directory)")
}

// Execute runs the root command. Exits with code 1 on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		l := logger
		if l == nil {
			l = log.New(log.OptionsFromEnv(os.Stdout))
		}
		l.Error(err)
		l.Debug(lqerrors.ErrorStack(err))
		os.Exit(1)
	}
}

// interactive reports whether stdout is a terminal.
func interactive() bool {
	return term.IsTerminal(os.Stdout.Fd())
}
