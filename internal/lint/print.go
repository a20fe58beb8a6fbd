package lint

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/fakeyudi/luaqa/internal/log"
)

// PrintWarnings logs one warning per annotation of every failing file. Each
// warning is titled "<title> / <path>#L<start>[-L<end>][ / <Action>]".
func PrintWarnings(l logrus.FieldLogger, files []File, title string) {
	for _, f := range files {
		if !f.Failed() || len(f.Annotations) == 0 {
			continue
		}
		l.Info("")
		l.Info(f.Path)
		for _, a := range f.Annotations {
			l.WithFields(logrus.Fields{
				log.FieldFile:    a.File,
				log.FieldLine:    a.StartLine,
				log.FieldEndLine: a.EndLine,
				log.FieldCol:     a.Col,
				log.FieldTitle:   WarningTitle(title, f.Path, a),
			}).Warn(a.Message)
		}
	}
}

// WarningTitle builds the title PrintWarnings attaches to a.
func WarningTitle(title, path string, a Annotation) string {
	ref := fmt.Sprintf("L%d", a.StartLine)
	if a.EndLine > 0 {
		ref += fmt.Sprintf("-L%d", a.EndLine)
	}
	s := fmt.Sprintf("%s / %s#%s", title, path, ref)
	if a.Action != "" {
		s += " / " + strings.ToUpper(a.Action[:1]) + a.Action[1:]
	}
	return s
}

// PrintResult logs the totals of res followed by the per-file warnings. When
// ignoreFailure is set the issue count is reported as a warning instead of an
// error. Nothing is printed for an empty run.
func PrintResult(l logrus.FieldLogger, res *Lint, title string, ignoreFailure bool) {
	if res.Total() == 0 {
		return
	}
	l.Infof("Checked %s: %d passed, %d failed", plural(res.Total(), "file"), res.Passed, res.Failed)
	if res.Failed == 0 {
		l.Info("No issues found")
		return
	}
	msg := "Found " + plural(res.Issues, "issue")
	if ignoreFailure {
		l.Warn(msg)
	} else {
		l.Error(msg)
	}
	PrintWarnings(l, res.Files, title)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
