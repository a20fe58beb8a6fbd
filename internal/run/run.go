// Package run sequences one luaqa run: version checks, the live report, each
// enabled tool in display order and the outputs left behind.
package run

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/luaqa/internal/check"
	"github.com/fakeyudi/luaqa/internal/config"
	"github.com/fakeyudi/luaqa/internal/ghcontext"
	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/log"
	"github.com/fakeyudi/luaqa/internal/output"
	"github.com/fakeyudi/luaqa/internal/report"
	"github.com/fakeyudi/luaqa/internal/status"
	"github.com/fakeyudi/luaqa/internal/tool"
)

// ErrChecksFailed is returned when a check failed and failures are not
// ignored.
var ErrChecksFailed = errors.New("checks failed")

// Context is everything one run needs. It is built once and passed down
// explicitly.
type Context struct {
	ID      uuid.UUID
	Config  config.Config
	GitHub  ghcontext.Context
	Engine  *status.Engine
	Session *report.Session // nil without a chat endpoint
	Runner  tool.Runner
	Logger  *logrus.Logger
	Lookup  func(key string) (string, bool)

	Versions *tool.Versions
	Outputs  output.Outputs
	Results  *output.Results
}

// New builds a run context. poster may be nil to run without a live report.
func New(cfg config.Config, gh ghcontext.Context, poster report.Poster, runner tool.Runner, logger *logrus.Logger) *Context {
	if runner == nil {
		runner = tool.Exec{}
	}
	engine := status.NewEngine(cfg, gh.Text(), gh.RefField())
	c := &Context{
		ID:     uuid.New(),
		Config: cfg,
		GitHub: gh,
		Engine: engine,
		Runner: runner,
		Logger: logger,
		Lookup: os.LookupEnv,
	}
	if poster != nil {
		c.Session = report.NewSession(poster, engine, logger)
	}
	return c
}

// Execute runs every enabled tool. Failing checks are reported and yield
// ErrChecksFailed unless ignored; any other error stops the run and is
// reflected in the live report before being returned.
func (c *Context) Execute(ctx context.Context) error {
	if err := c.Config.Validate(); err != nil {
		return err
	}

	if !c.Config.IgnoreCheckVersions {
		if err := c.checkVersions(ctx); err != nil {
			return err
		}
	}

	if c.Session != nil {
		if err := c.startReport(ctx); err != nil {
			return c.abort(ctx, err)
		}
	}

	for _, name := range c.Config.EnabledTools() {
		if err := c.runTool(ctx, name); err != nil {
			return c.abort(ctx, err)
		}
	}

	if err := c.finalize(ctx); err != nil {
		return err
	}
	if err := c.writeOutputs(); err != nil {
		return err
	}

	if c.Engine.Failed() && !c.Config.IgnoreFailure {
		return ErrChecksFailed
	}
	return nil
}

func (c *Context) checkVersions(ctx context.Context) error {
	log.StartGroup(c.Logger, "Check versions")
	defer log.EndGroup(c.Logger)

	names := c.versionNames()
	v, err := tool.DetectVersions(ctx, c.Runner, c.Config.WorkDir, names...)
	if err != nil {
		return err
	}
	c.Versions = &v

	m := v.Map()
	for _, name := range names {
		title := lint.Title(name)
		if name == "lua" {
			title = "Lua"
		}
		c.Logger.Infof("%s: %s", title, m[name])
	}
	for _, msg := range v.Outdated() {
		c.Logger.Warn(msg)
	}
	return nil
}

// versionNames lists the tools whose version is checked: Lua and every
// enabled tool.
func (c *Context) versionNames() []string {
	return append([]string{"lua"}, c.Config.EnabledTools()...)
}

func (c *Context) startReport(ctx context.Context) error {
	log.StartGroup(c.Logger, "Post report")
	defer log.EndGroup(c.Logger)

	if err := c.Session.Start(); err != nil {
		return err
	}
	_, err := c.Session.Post(ctx)
	return err
}

func (c *Context) runTool(ctx context.Context, name string) error {
	title := lint.Title(name)
	log.StartGroup(c.Logger, "Run "+title)
	defer log.EndGroup(c.Logger)

	checker := check.New(name, check.Options{
		Runner: c.Runner,
		Dir:    c.Config.WorkDir,
		Args:   c.Config.Args[name],
		Logger: c.Logger,
	})
	res, err := checker.Check(ctx)
	if err != nil {
		return err
	}
	c.Engine.Set(name, res)
	c.print(title, res)

	if c.Session != nil {
		if _, err := c.Session.Update(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) print(title string, res lint.Result) {
	failed := c.Logger.Error
	if c.Config.IgnoreFailure {
		failed = c.Logger.Warn
	}

	switch v := res.(type) {
	case *lint.Lint:
		lint.PrintResult(c.Logger, v, title, c.Config.IgnoreFailure)
	case *lint.Test:
		for _, f := range v.Failures {
			c.Logger.WithFields(logrus.Fields{
				log.FieldFile:  f.File,
				log.FieldLine:  f.StartLine,
				log.FieldTitle: title,
			}).Warn(f.Message)
		}
		if v.Total == 0 && v.Output != "" {
			failed(v.Output)
		}
	case *lint.Doc:
		if v.IsFailed() {
			failed(v.Output)
		}
	}
}

func (c *Context) finalize(ctx context.Context) error {
	if c.Session == nil {
		c.Engine.Finalize()
		return nil
	}
	log.StartGroup(c.Logger, "Finalize report")
	defer log.EndGroup(c.Logger)
	return c.Session.Finalize(ctx)
}

func (c *Context) abort(ctx context.Context, err error) error {
	if c.Session != nil {
		return c.Session.Abort(ctx, err)
	}
	c.Engine.Abort()
	return err
}

// BuildResults collects the state of the run into a results record.
func (c *Context) BuildResults() *output.Results {
	r := &output.Results{
		RunID:     c.ID.String(),
		CreatedAt: time.Now().UTC(),
		WorkDir:   c.Config.WorkDir,
		Status:    c.Engine.Status(),
		Text:      c.Engine.Text(),
		Fields:    c.Engine.Fields(),
		Context:   c.GitHub,
		Versions:  c.Versions,
		Tools:     c.Config.EnabledTools(),
	}
	for _, name := range r.Tools {
		if res, ok := c.Engine.Result(name); ok {
			r.Set(name, res)
		}
	}
	return r
}

func (c *Context) writeOutputs() error {
	c.Results = c.BuildResults()

	if !c.Config.IgnoreSetOutput {
		if c.Versions != nil {
			c.Outputs.SetVersions(*c.Versions, c.versionNames())
		}
		for _, name := range c.Results.Tools {
			if res, ok := c.Engine.Result(name); ok {
				c.Outputs.SetResult(name, res)
			}
		}
		if path := c.env("GITHUB_OUTPUT"); path != "" {
			if err := c.Outputs.AppendFile(path); err != nil {
				return err
			}
		} else {
			for _, name := range c.Outputs.Names() {
				v, _ := c.Outputs.Get(name)
				c.Logger.WithField("value", v).Debugf("Output %s", name)
			}
		}
	}

	if c.Config.ResultsFile != "" {
		path := c.Config.ResultsFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(c.Config.WorkDir, path)
		}
		if err := output.Save(path, c.Config.ResultsFormat, c.Results); err != nil {
			return err
		}
		c.Logger.Infof("Saved results to %s", path)
	}

	if path := c.env("GITHUB_STEP_SUMMARY"); path != "" {
		if err := output.AppendStepSummary(path, c.Results); err != nil {
			return err
		}
	}
	return nil
}

func (c *Context) env(key string) string {
	if c.Lookup == nil {
		return ""
	}
	v, _ := c.Lookup(key)
	return v
}
