// Package output writes what a run leaves behind: step outputs, the results
// file and the job step summary.
package output

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"

	lqerrors "github.com/fakeyudi/luaqa/internal/errors"
	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/tool"
)

// Outputs is an ordered set of step outputs.
type Outputs struct {
	names  []string
	values map[string]string

	// Delimiter returns the heredoc delimiter for one value. A random one is
	// used when nil.
	Delimiter func() string
}

// Set records value under name, keeping the position of an earlier value.
func (o *Outputs) Set(name, value string) {
	if o.values == nil {
		o.values = map[string]string{}
	}
	if _, ok := o.values[name]; !ok {
		o.names = append(o.names, name)
	}
	o.values[name] = value
}

// Get returns the value recorded under name.
func (o *Outputs) Get(name string) (string, bool) {
	v, ok := o.values[name]
	return v, ok
}

// Names lists the recorded outputs in insertion order.
func (o *Outputs) Names() []string { return append([]string(nil), o.names...) }

// SetVersions records "<name>-version" for each of names, the tools whose
// version was probed.
func (o *Outputs) SetVersions(v tool.Versions, names []string) {
	m := v.Map()
	for _, name := range names {
		if _, ok := m[name]; ok {
			o.Set(name+"-version", m[name])
		}
	}
}

// SetResult records the outputs of one tool result.
func (o *Outputs) SetResult(name string, r lint.Result) {
	switch v := r.(type) {
	case *lint.Test:
		o.Set(name+"-total", strconv.Itoa(v.Total))
		o.Set(name+"-passed", strconv.Itoa(v.Passed))
		o.Set(name+"-failed", strconv.Itoa(v.Failed))
		o.Set(name+"-time", strconv.FormatFloat(v.Time, 'f', -1, 64))
		o.Set(name+"-output", v.Output)
		o.Set(name+"-exit-code", strconv.Itoa(v.ExitCode))
	case *lint.Doc:
		o.Set(name+"-exit-code", strconv.Itoa(v.ExitCode))
		o.Set(name+"-output", v.Output)
	case *lint.Lint:
		o.Set(name+"-failed", strconv.Itoa(v.Failed))
		o.Set(name+"-passed", strconv.Itoa(v.Passed))
		o.Set(name+"-total", strconv.Itoa(v.Total()))
		o.Set(name+"-issues", strconv.Itoa(v.Issues))
		o.Set(name+"-output", v.Output)
	}
}

func (o *Outputs) delimiter() string {
	if o.Delimiter != nil {
		return o.Delimiter()
	}
	return "ghadelimiter_" + uuid.NewString()
}

// WriteTo writes every output in the GITHUB_OUTPUT heredoc format.
func (o *Outputs) WriteTo(w io.Writer) (int64, error) {
	var sb strings.Builder
	for _, name := range o.names {
		value := o.values[name]
		d := o.delimiter()
		if strings.Contains(name, d) || strings.Contains(value, d) {
			return 0, lqerrors.Errorf("output %s contains its delimiter %s", name, d)
		}
		fmt.Fprintf(&sb, "%s<<%s\n%s\n%s\n", name, d, value, d)
	}
	n, err := io.WriteString(w, sb.String())
	return int64(n), err
}

// AppendFile appends the outputs to the file at path, creating it if needed.
func (o *Outputs) AppendFile(path string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return lqerrors.WithStackTrace(err)
	}
	if _, err := o.WriteTo(f); err != nil {
		f.Close()
		return lqerrors.WithStackTrace(err)
	}
	return lqerrors.WithStackTrace(f.Close())
}
