package lint

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/fakeyudi/luaqa/internal/diff"
)

// plainLine matches "path:line:column: message", the plain report format.
var plainLine = regexp.MustCompile(`^(.+):(\d+):(\d+): (.*)$`)

// ToAnnotations converts classified diff entries for file into annotations.
// Entries without a positive start line or without text are dropped. The
// returned count is the number of annotations produced.
func ToAnnotations(entries []diff.Entry, file string) ([]Annotation, int) {
	var out []Annotation
	for _, e := range entries {
		if e.StartLine <= 0 || e.Text == "" {
			continue
		}
		out = append(out, Annotation{
			Message:   e.Text,
			Action:    e.Action.String(),
			File:      file,
			StartLine: e.StartLine,
			EndLine:   e.EndLine,
		})
	}
	return out, len(out)
}

// Compare classifies the change from original to changed and returns the
// resulting annotations for file. Lint.Add counts them as issues.
func Compare(file, original, changed string) []Annotation {
	anns, _ := ToAnnotations(diff.Classify(original, changed), file)
	return anns
}

// ParsePlain extracts one annotation per "path:line:column: message" line of
// report. Lines that do not match are ignored.
func ParsePlain(report string) []Annotation {
	var out []Annotation
	sc := bufio.NewScanner(strings.NewReader(report))
	for sc.Scan() {
		m := plainLine.FindStringSubmatch(strings.TrimRight(sc.Text(), "\r"))
		if m == nil {
			continue
		}
		line, err := strconv.Atoi(m[2])
		if err != nil || line <= 0 || m[4] == "" {
			continue
		}
		col, _ := strconv.Atoi(m[3])
		out = append(out, Annotation{
			Message:   m[4],
			File:      m[1],
			StartLine: line,
			Col:       col,
		})
	}
	return out
}
