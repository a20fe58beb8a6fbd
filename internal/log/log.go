// Package log configures the logrus logger used across luaqa. Inside GitHub
// Actions entries are rendered as workflow commands so that warnings and
// errors become inline annotations on the checked files.
package log

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// Field keys understood by ActionsFormatter as annotation properties.
const (
	FieldFile    = "file"
	FieldLine    = "line"
	FieldEndLine = "endLine"
	FieldCol     = "col"
	FieldTitle   = "title"
)

var annotationFields = []string{FieldFile, FieldLine, FieldEndLine, FieldCol, FieldTitle}

// Options controls how New builds the logger.
type Options struct {
	Out     io.Writer
	Debug   bool
	Actions bool // render workflow commands instead of plain text
}

// OptionsFromEnv derives logger options from the runner environment.
func OptionsFromEnv(out io.Writer) Options {
	return Options{
		Out:     out,
		Debug:   os.Getenv("RUNNER_DEBUG") == "1",
		Actions: os.Getenv("GITHUB_ACTIONS") == "true",
	}
}

// New returns a logger configured by opts.
func New(opts Options) *logrus.Logger {
	l := logrus.New()
	if opts.Out != nil {
		l.SetOutput(opts.Out)
	}
	if opts.Debug {
		l.SetLevel(logrus.DebugLevel)
	}
	if opts.Actions {
		l.SetFormatter(&ActionsFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	}
	return l
}

// ActionsFormatter renders entries as GitHub Actions workflow commands.
type ActionsFormatter struct{}

// Format implements logrus.Formatter.
func (f *ActionsFormatter) Format(e *logrus.Entry) ([]byte, error) {
	var command string
	switch e.Level {
	case logrus.TraceLevel, logrus.DebugLevel:
		command = "debug"
	case logrus.InfoLevel:
		return []byte(e.Message + "\n"), nil
	case logrus.WarnLevel:
		command = "warning"
	default:
		command = "error"
	}

	var sb strings.Builder
	sb.WriteString("::")
	sb.WriteString(command)
	if command != "debug" {
		if props := properties(e.Data); props != "" {
			sb.WriteString(" ")
			sb.WriteString(props)
		}
	}
	sb.WriteString("::")
	sb.WriteString(escapeData(e.Message))
	sb.WriteString("\n")
	return []byte(sb.String()), nil
}

func properties(data logrus.Fields) string {
	var parts []string
	for _, key := range annotationFields {
		v, ok := data[key]
		if !ok {
			continue
		}
		s := stringify(v)
		if s == "" || s == "0" {
			continue
		}
		parts = append(parts, key+"="+escapeProperty(s))
	}
	return strings.Join(parts, ",")
}

func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	default:
		return fmt.Sprint(t)
	}
}

func escapeData(s string) string {
	s = strings.ReplaceAll(s, "%", "%25")
	s = strings.ReplaceAll(s, "\r", "%0D")
	return strings.ReplaceAll(s, "\n", "%0A")
}

func escapeProperty(s string) string {
	s = escapeData(s)
	s = strings.ReplaceAll(s, ":", "%3A")
	return strings.ReplaceAll(s, ",", "%2C")
}

// StartGroup opens a collapsible log group.
func StartGroup(l *logrus.Logger, title string) {
	if _, ok := l.Formatter.(*ActionsFormatter); ok {
		fmt.Fprintf(l.Out, "::group::%s\n", title)
		return
	}
	l.Info(title)
}

// EndGroup closes the group opened by StartGroup.
func EndGroup(l *logrus.Logger) {
	if _, ok := l.Formatter.(*ActionsFormatter); ok {
		fmt.Fprintln(l.Out, "::endgroup::")
	}
}
