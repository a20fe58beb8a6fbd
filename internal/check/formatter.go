package check

import (
	"context"
	"fmt"

	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/tool"
)

// Formatter is the FileStrategy of a diff-based formatter. A failing file is
// re-formatted to stdout and the difference to the file on disk becomes the
// annotations.
type Formatter struct {
	// CheckCommand builds the command whose exit code says whether file is
	// already formatted.
	CheckCommand func(o Options, file string) tool.Command
	// FormatCommand builds the command that prints the formatted content of
	// file. original is the current content.
	FormatCommand func(o Options, file, original string) tool.Command
}

// Check implements FileStrategy.
func (f Formatter) Check(ctx context.Context, o Options, file string) (tool.Output, error) {
	return o.runner().Run(ctx, f.CheckCommand(o, file))
}

// Annotate implements FileStrategy.
func (f Formatter) Annotate(ctx context.Context, o Options, file string, _ tool.Output) ([]lint.Annotation, error) {
	original, err := o.readFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	out, err := o.runner().Run(ctx, f.FormatCommand(o, file, original))
	if err != nil {
		return nil, err
	}
	if out.Stdout == "" {
		o.logger().Debugf("%s: formatter produced no output, exit code %d", file, out.ExitCode)
		return nil, nil
	}
	return lint.Compare(file, original, out.Stdout), nil
}

// NewPrettier returns the Prettier checker for Markdown, XML and YAML files.
func NewPrettier(o Options) *Linter {
	return &Linter{
		Name:   lint.Prettier,
		Finder: Finder{Dir: o.Dir, Extensions: "md,xml,yml", IgnoreFile: ".prettierignore"},
		Strategy: Formatter{
			CheckCommand: func(o Options, file string) tool.Command {
				return tool.Command{Name: "prettier", Args: withArgs(o.Args, "--check", "--no-color", file), Dir: o.Dir}
			},
			FormatCommand: func(o Options, file, _ string) tool.Command {
				return tool.Command{Name: "prettier", Args: withArgs(o.Args, file), Dir: o.Dir}
			},
		},
		Options: o,
	}
}

// NewStyLua returns the StyLua checker for Lua files.
func NewStyLua(o Options) *Linter {
	return &Linter{
		Name:   lint.StyLua,
		Finder: Finder{Dir: o.Dir, Extensions: "lua", IgnoreFile: ".styluaignore"},
		Strategy: Formatter{
			CheckCommand: func(o Options, file string) tool.Command {
				return tool.Command{Name: "stylua", Args: withArgs(o.Args, "--check", file), Dir: o.Dir}
			},
			FormatCommand: func(o Options, file, original string) tool.Command {
				return tool.Command{
					Name:  "stylua",
					Args:  withArgs(o.Args, "--stdin-filepath", file, "-"),
					Dir:   o.Dir,
					Stdin: original,
				}
			},
		},
		Options: o,
	}
}

// withArgs puts the user's extra arguments ahead of the fixed ones.
func withArgs(extra []string, args ...string) []string {
	out := make([]string, 0, len(extra)+len(args))
	out = append(out, extra...)
	return append(out, args...)
}
