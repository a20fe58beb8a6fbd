// Package check runs one quality tool over the source tree and turns its
// results into a lint.Result. Tools are run one at a time and files are
// checked sequentially.
package check

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/tool"
)

// Checker runs a single tool and summarises the outcome.
type Checker interface {
	// Tool returns the tool identifier, one of lint.Tools.
	Tool() string
	// Check runs the tool. Failing checks are reported in the result; only a
	// tool that could not be started yields an error.
	Check(ctx context.Context) (lint.Result, error)
}

// Options carries what every checker needs.
type Options struct {
	Runner tool.Runner
	Dir    string
	Args   []string // extra arguments passed to the tool
	Logger logrus.FieldLogger
}

func (o Options) runner() tool.Runner {
	if o.Runner == nil {
		return tool.Exec{}
	}
	return o.Runner
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		return l
	}
	return o.Logger
}

func (o Options) readFile(rel string) (string, error) {
	data, err := os.ReadFile(filepath.Join(o.Dir, rel))
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// New returns the checker for tool, or nil for an unknown tool.
func New(name string, o Options) Checker {
	switch name {
	case lint.Busted:
		return NewBusted(o)
	case lint.LDoc:
		return NewLDoc(o)
	case lint.Luacheck:
		return NewLuacheck(o)
	case lint.Prettier:
		return NewPrettier(o)
	case lint.StyLua:
		return NewStyLua(o)
	}
	return nil
}

// FileStrategy checks a single file for a lint-style tool.
type FileStrategy interface {
	// Check runs the tool's check mode on file.
	Check(ctx context.Context, o Options, file string) (tool.Output, error)
	// Annotate explains a failed check as annotations.
	Annotate(ctx context.Context, o Options, file string, checked tool.Output) ([]lint.Annotation, error)
}

// Linter is a Checker that runs a FileStrategy over every file a Finder lists.
type Linter struct {
	Name     string
	Finder   Finder
	Strategy FileStrategy
	Options  Options
}

// Tool implements Checker.
func (l *Linter) Tool() string { return l.Name }

// Check implements Checker. It lists candidate files and runs them through Run.
func (l *Linter) Check(ctx context.Context) (lint.Result, error) {
	files, err := l.Finder.Files()
	if err != nil {
		return nil, err
	}
	res, err := l.Run(ctx, files)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Run checks files one at a time. An empty file list yields an empty summary.
func (l *Linter) Run(ctx context.Context, files []string) (*lint.Lint, error) {
	log := l.Options.logger()
	res := &lint.Lint{}
	if len(files) == 0 {
		log.Info("No files found")
		return res, nil
	}

	if len(files) == 1 {
		log.Info("Checking 1 file...")
	} else {
		log.Infof("Checking %d files...", len(files))
	}

	for _, file := range files {
		out, err := l.Strategy.Check(ctx, l.Options, file)
		if err != nil {
			return nil, err
		}
		log.Debugf("%s, exit code %d", file, out.ExitCode)

		f := lint.File{Path: file, ExitCode: out.ExitCode}
		if out.ExitCode != 0 {
			anns, err := l.Strategy.Annotate(ctx, l.Options, file, out)
			if err != nil {
				return nil, err
			}
			f.Annotations = anns
		}
		res.Add(f)
	}
	return res, nil
}
