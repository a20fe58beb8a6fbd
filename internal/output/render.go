package output

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/fakeyudi/luaqa/internal/lint"
)

const (
	versionSentinel = "<!-- luaqa-results-version: 1 -->"
	dataPrefix      = "<!-- luaqa-data: "
	dataSuffix      = " -->"
)

// Renderer serializes Results to bytes.
type Renderer interface {
	Render(r *Results) ([]byte, error)
}

// RendererFor returns the renderer of format, JSON for anything but
// "markdown".
func RendererFor(format string) Renderer {
	if format == "markdown" {
		return &MarkdownRenderer{}
	}
	return &JSONRenderer{}
}

// JSONRenderer renders Results as indented JSON.
type JSONRenderer struct{}

func (JSONRenderer) Render(r *Results) ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// MarkdownRenderer renders Results as a readable report with an embedded
// base64 JSON payload for lossless parsing.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Render(r *Results) ([]byte, error) {
	jsonBytes, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal results: %w", err)
	}

	var sb strings.Builder
	sb.WriteString(versionSentinel + "\n")
	fmt.Fprintf(&sb, "%s%s%s\n\n", dataPrefix, base64.StdEncoding.EncodeToString(jsonBytes), dataSuffix)
	sb.WriteString(Summary(r))
	return []byte(sb.String()), nil
}

// Summary renders the human-readable part of the report. It is also what
// goes to the job step summary.
func Summary(r *Results) string {
	var sb strings.Builder

	title := "luaqa"
	if r.Context.Owner != "" {
		title += ": " + r.Context.Owner + "/" + r.Context.Repo
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	if r.Text != "" {
		sb.WriteString(markdownLinks(r.Text) + "\n\n")
	}

	sb.WriteString("| | |\n|---|---|\n")
	for _, f := range r.Fields {
		fmt.Fprintf(&sb, "| %s | %s |\n", f.Title, cell(f.Value))
	}
	if !r.CreatedAt.IsZero() {
		fmt.Fprintf(&sb, "| Finished | %s |\n", r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	sb.WriteString("\n")

	for _, name := range r.Tools {
		res, ok := r.Get(name)
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "## %s\n\n", lint.Title(name))
		switch v := res.(type) {
		case *lint.Test:
			writeTest(&sb, v)
		case *lint.Doc:
			writeDoc(&sb, v)
		case *lint.Lint:
			writeLint(&sb, v)
		}
		sb.WriteString("\n")
	}

	if r.Versions != nil {
		sb.WriteString("## Versions\n\n")
		m := r.Versions.Map()
		for _, name := range []string{"busted", "ldoc", "lua", "luacheck", "prettier", "stylua"} {
			if m[name] != "" {
				fmt.Fprintf(&sb, "- %s: %s\n", name, m[name])
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func writeTest(sb *strings.Builder, t *lint.Test) {
	if t.Total == 0 {
		sb.WriteString("_No tests._\n")
	} else {
		fmt.Fprintf(sb, "%d / %d tests passed in %.3fs.\n", t.Passed, t.Total, t.Time)
	}
	for _, f := range t.Failures {
		fmt.Fprintf(sb, "- `%s:%d` %s\n", f.File, f.StartLine, firstLine(f.Message))
	}
	if t.Total == 0 && t.Output != "" {
		writeBlock(sb, t.Output)
	}
}

func writeDoc(sb *strings.Builder, d *lint.Doc) {
	if d.IsFailed() {
		fmt.Fprintf(sb, "Failed with exit code %d.\n", d.ExitCode)
		if d.Output != "" {
			writeBlock(sb, d.Output)
		}
		return
	}
	sb.WriteString("Success.\n")
}

func writeLint(sb *strings.Builder, l *lint.Lint) {
	if l.Total() == 0 {
		sb.WriteString("_No files._\n")
		return
	}
	fmt.Fprintf(sb, "Checked %d file(s): %d passed, %d failed, %d issue(s).\n", l.Total(), l.Passed, l.Failed, l.Issues)
	for _, f := range l.Files {
		if !f.Failed() {
			continue
		}
		fmt.Fprintf(sb, "\n### %s\n\n", f.Path)
		if len(f.Annotations) == 0 {
			sb.WriteString("_No details._\n")
		}
		for _, a := range f.Annotations {
			loc := fmt.Sprintf("L%d", a.StartLine)
			if a.EndLine > 0 {
				loc += fmt.Sprintf("-L%d", a.EndLine)
			}
			if a.Action != "" {
				loc += " " + a.Action
			}
			if a.Action == "" {
				fmt.Fprintf(sb, "- %s: %s\n", loc, firstLine(a.Message))
				continue
			}
			fmt.Fprintf(sb, "- %s\n", loc)
			writeBlock(sb, a.Message)
		}
	}
}

func writeBlock(sb *strings.Builder, text string) {
	fmt.Fprintf(sb, "\n```\n%s", text)
	if !strings.HasSuffix(text, "\n") {
		sb.WriteString("\n")
	}
	sb.WriteString("```\n")
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}

var mrkdwnLink = regexp.MustCompile(`<([^|>]+)\|([^>]+)>`)

func markdownLinks(s string) string {
	return mrkdwnLink.ReplaceAllString(s, "[$2]($1)")
}

// cell converts s for a Markdown table cell.
func cell(s string) string {
	s = markdownLinks(s)
	return strings.ReplaceAll(strings.ReplaceAll(s, "|", "\\|"), "\n", " ")
}
