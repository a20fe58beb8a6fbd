package check

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/tool"
)

// Busted runs the test suite once with the JSON output handler.
type Busted struct {
	Options Options
}

// NewBusted returns the Busted checker.
func NewBusted(o Options) *Busted { return &Busted{Options: o} }

// Tool implements Checker.
func (b *Busted) Tool() string { return lint.Busted }

// Check implements Checker.
func (b *Busted) Check(ctx context.Context) (lint.Result, error) {
	out, err := b.Options.runner().Run(ctx, tool.Command{
		Name: "busted",
		Args: withArgs(b.Options.Args, "--output=json"),
		Dir:  b.Options.Dir,
	})
	if err != nil {
		return nil, err
	}
	res := ParseBusted(out.Stdout)
	res.ExitCode = out.ExitCode
	if res.Total == 0 && out.ExitCode != 0 {
		res.Output = strings.TrimSpace(out.Stderr + "\n" + out.Stdout)
	}

	log := b.Options.logger()
	if res.Total == 0 {
		log.Info("No tests found")
	} else {
		log.Infof("Ran %d test%s in %.3fs: %d passed, %d failed", res.Total, pluralS(res.Total), res.Time, res.Passed, res.Failed)
	}
	return &res, nil
}

type bustedElement struct {
	Name    string       `json:"name"`
	Message string       `json:"message"`
	Trace   *bustedTrace `json:"trace"`
	Element struct {
		Trace *bustedTrace `json:"trace"`
	} `json:"element"`
}

type bustedTrace struct {
	ShortSrc    string `json:"short_src"`
	CurrentLine int    `json:"currentline"`
}

type bustedReport struct {
	Successes []bustedElement `json:"successes"`
	Failures  []bustedElement `json:"failures"`
	Errors    []bustedElement `json:"errors"`
	Duration  float64         `json:"duration"`
}

// ParseBusted reads the report printed by busted's JSON output handler.
// Anything before the first "{" is ignored. Errors count as failures and
// pending tests are not counted. Unparseable input yields an empty Test.
func ParseBusted(stdout string) lint.Test {
	i := strings.Index(stdout, "{")
	if i < 0 {
		return lint.Test{}
	}
	var rep bustedReport
	if err := json.NewDecoder(strings.NewReader(stdout[i:])).Decode(&rep); err != nil {
		return lint.Test{}
	}

	failed := append(append([]bustedElement{}, rep.Failures...), rep.Errors...)
	res := lint.NewTest(len(rep.Successes)+len(failed), len(rep.Successes))
	res.Time = rep.Duration

	var output []string
	for _, f := range failed {
		output = append(output, strings.TrimSpace(fmt.Sprintf("%s: %s", f.Name, firstLine(f.Message))))
		trace := f.Trace
		if trace == nil || trace.ShortSrc == "" {
			trace = f.Element.Trace
		}
		if trace == nil || trace.ShortSrc == "" || trace.CurrentLine <= 0 {
			continue
		}
		res.Failures = append(res.Failures, lint.Annotation{
			Message:   strings.TrimSpace(f.Message),
			File:      trace.ShortSrc,
			StartLine: trace.CurrentLine,
		})
	}
	res.Output = strings.Join(output, "\n")
	return res
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

func pluralS(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
