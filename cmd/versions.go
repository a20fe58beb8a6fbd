package cmd

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/fakeyudi/luaqa/internal/tool"
)

var versionsCmd = &cobra.Command{
	Use:   "versions [tool...]",
	Short: "Print the versions of Lua and the quality tools",
	RunE: func(cmd *cobra.Command, args []string) error {
		v, err := tool.DetectVersions(cmd.Context(), toolRunner, workDir, args...)
		if err != nil {
			return err
		}

		m := v.Map()
		out := cmd.OutOrStdout()
		for _, name := range []string{"lua", "busted", "ldoc", "luacheck", "prettier", "stylua"} {
			if len(args) > 0 && !slices.Contains(args, name) {
				continue
			}
			version := m[name]
			if version == "" {
				version = "(not found)"
			}
			fmt.Fprintf(out, "%-9s %s\n", name, version)
		}
		for _, msg := range v.Outdated() {
			logger.Warn(msg)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionsCmd)
}
