// Package tool runs the external quality tools as subprocesses.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	lqerrors "github.com/fakeyudi/luaqa/internal/errors"
)

// ErrToolUnavailable is returned when a tool process could not be started.
var ErrToolUnavailable = errors.New("tool unavailable")

// Command describes one tool invocation.
type Command struct {
	Name  string
	Args  []string
	Dir   string
	Stdin string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

// Output is what a finished process produced. A non-zero ExitCode is a normal
// result, not an error.
type Output struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Runner executes a Command.
type Runner interface {
	Run(ctx context.Context, c Command) (Output, error)
}

// RunnerFunc adapts a function to the Runner interface.
// This allows mocking in tests.
type RunnerFunc func(ctx context.Context, c Command) (Output, error)

// Run implements Runner.
func (f RunnerFunc) Run(ctx context.Context, c Command) (Output, error) { return f(ctx, c) }

// Exec runs commands as real subprocesses.
type Exec struct{}

// Run implements Runner. Only a failure to start the process (or to wait for
// it) is reported as an error, wrapped around ErrToolUnavailable.
func (Exec) Run(ctx context.Context, c Command) (Output, error) {
	cmd := exec.CommandContext(ctx, c.Name, c.Args...)
	cmd.Dir = c.Dir
	if c.Stdin != "" {
		cmd.Stdin = strings.NewReader(c.Stdin)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err == nil {
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}
	return out, lqerrors.WithStackTrace(fmt.Errorf("%w: %s: %v", ErrToolUnavailable, c.Name, err))
}
