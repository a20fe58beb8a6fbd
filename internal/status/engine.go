package status

import (
	"fmt"
	"strconv"

	"github.com/fakeyudi/luaqa/internal/config"
	"github.com/fakeyudi/luaqa/internal/lint"
)

// Field is one titled value of the rendered report.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
}

// Engine accumulates per-tool results for one run and renders the report
// fields. It starts in progress; Finalize ends it.
type Engine struct {
	cfg        config.Config
	text       string
	ref        Field
	inProgress bool
	aborted    bool
	results    map[string]lint.Result
}

// NewEngine returns an in-progress engine. text and ref describe where the
// run comes from and are rendered unchanged.
func NewEngine(cfg config.Config, text string, ref Field) *Engine {
	return &Engine{
		cfg:        cfg,
		text:       text,
		ref:        ref,
		inProgress: true,
		results:    map[string]lint.Result{},
	}
}

// Set records the result of tool, replacing any previous one.
func (e *Engine) Set(tool string, r lint.Result) {
	e.results[tool] = r
}

// Result returns the recorded result of tool.
func (e *Engine) Result(tool string) (lint.Result, bool) {
	r, ok := e.results[tool]
	return r, ok
}

// Finalize ends the in-progress phase. Calling it again has no effect.
func (e *Engine) Finalize() { e.inProgress = false }

// Abort ends the run as failed after an error outside the checks. The
// failure is not softened by IgnoreFailure and no force status applies.
func (e *Engine) Abort() {
	e.inProgress = false
	e.aborted = true
}

// InProgress reports whether Finalize has not been called yet.
func (e *Engine) InProgress() bool { return e.inProgress }

// Failed reports whether any enabled tool failed.
func (e *Engine) Failed() bool {
	for _, tool := range e.cfg.EnabledTools() {
		if r, ok := e.results[tool]; ok && r.IsFailed() {
			return true
		}
	}
	return false
}

// Status is the current status of the run.
func (e *Engine) Status() Status {
	if e.aborted {
		return Failure
	}
	return Compute(e.inProgress, e.cfg.ForceStatus, e.Failed())
}

// Presentation is the current title and color.
func (e *Engine) Presentation() Presentation {
	return Present(e.Status(), e.cfg.Colors, e.cfg.IgnoreFailure && !e.aborted)
}

// Color is the current report color.
func (e *Engine) Color() string { return e.Presentation().Color }

// Text is the report headline.
func (e *Engine) Text() string { return e.text }

// Fields renders the status and ref fields followed by one field per enabled
// tool in display order.
func (e *Engine) Fields() []Field {
	fields := []Field{{Title: "Status", Value: e.Presentation().Title}}
	if e.ref.Title != "" {
		fields = append(fields, e.ref)
	}
	for _, tool := range e.cfg.EnabledTools() {
		fields = append(fields, e.toolField(tool))
	}
	return fields
}

func (e *Engine) toolField(tool string) Field {
	title := lint.Title(tool)
	if tool == lint.LDoc {
		return Field{Title: title, Value: e.docValue()}
	}
	format := e.cfg.FormatOf(tool)
	f := Field{Title: title + " " + string(format)}
	r, ok := e.results[tool]
	switch {
	case e.inProgress:
		f.Value = "Checking..."
	case !ok:
		f.Value = "Not run"
	default:
		f.Value = renderResult(r, format)
	}
	return f
}

func (e *Engine) docValue() string {
	if e.inProgress {
		return "Generating..."
	}
	r, ok := e.results[lint.LDoc]
	switch {
	case !ok:
		return "Not run"
	case r.IsFailed():
		return "Failure"
	}
	return "Success"
}

func renderResult(r lint.Result, format config.Format) string {
	switch v := r.(type) {
	case *lint.Test:
		if v.Total == 0 {
			return "No tests"
		}
		switch format {
		case config.FormatPasses:
			return fmt.Sprintf("%d / %d tests", v.Passed, v.Total)
		case config.FormatFailures:
			return fmt.Sprintf("%d / %d tests", v.Failed, v.Total)
		}
		return strconv.Itoa(v.Failed)
	case *lint.Lint:
		switch format {
		case config.FormatPasses:
			if v.Total() == 0 {
				return "No files"
			}
			return fmt.Sprintf("%d / %d files", v.Passed, v.Total())
		case config.FormatFailures:
			if v.Total() == 0 {
				return "No files"
			}
			return fmt.Sprintf("%d / %d files", v.Failed, v.Total())
		}
		return strconv.Itoa(v.Issues)
	}
	if r.IsFailed() {
		return "Failure"
	}
	return "Success"
}
