package check

import (
	"context"

	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/tool"
)

// reporter is the FileStrategy of a linter that reports positions itself in
// the plain "path:line:column: message" format.
type reporter struct {
	name string
	args []string
}

func (r reporter) Check(ctx context.Context, o Options, file string) (tool.Output, error) {
	args := append(withArgs(o.Args, r.args...), file)
	return o.runner().Run(ctx, tool.Command{Name: r.name, Args: args, Dir: o.Dir})
}

func (r reporter) Annotate(_ context.Context, _ Options, _ string, checked tool.Output) ([]lint.Annotation, error) {
	return lint.ParsePlain(checked.Stdout), nil
}

// NewLuacheck returns the Luacheck checker for Lua files.
func NewLuacheck(o Options) *Linter {
	return &Linter{
		Name:     lint.Luacheck,
		Finder:   Finder{Dir: o.Dir, Extensions: "lua", IgnoreFile: ".luacheckignore"},
		Strategy: reporter{name: "luacheck", args: []string{"--formatter=plain", "--codes", "--no-color"}},
		Options:  o,
	}
}
