package check

import (
	"context"
	"strings"

	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/tool"
)

// LDoc generates the documentation; only the exit code matters.
type LDoc struct {
	Options Options
}

// NewLDoc returns the LDoc checker.
func NewLDoc(o Options) *LDoc { return &LDoc{Options: o} }

// Tool implements Checker.
func (d *LDoc) Tool() string { return lint.LDoc }

// Check implements Checker.
func (d *LDoc) Check(ctx context.Context) (lint.Result, error) {
	out, err := d.Options.runner().Run(ctx, tool.Command{
		Name: "ldoc",
		Args: withArgs(d.Options.Args, "."),
		Dir:  d.Options.Dir,
	})
	if err != nil {
		return nil, err
	}
	res := &lint.Doc{
		ExitCode: out.ExitCode,
		Output:   strings.TrimSpace(strings.TrimSpace(out.Stdout) + "\n" + strings.TrimSpace(out.Stderr)),
	}
	if res.IsFailed() {
		d.Options.logger().Errorf("LDoc exited with code %d", res.ExitCode)
	} else {
		d.Options.logger().Info("Documentation generated")
	}
	return res, nil
}
