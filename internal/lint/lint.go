// Package lint holds the result model shared by every quality tool: per-file
// annotations, lint-style summaries, the test summary and the docs result.
package lint

// Annotation is one file/line anchored issue.
type Annotation struct {
	Message   string `json:"message"`
	Action    string `json:"action,omitempty"`
	File      string `json:"file"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine,omitempty"`
	Col       int    `json:"col,omitempty"`
}

// File is the result of checking a single file.
type File struct {
	Path        string       `json:"path"`
	ExitCode    int          `json:"exitCode"`
	Annotations []Annotation `json:"annotations,omitempty"`
}

// Failed reports whether the check exited non-zero.
func (f File) Failed() bool { return f.ExitCode != 0 }

// Result is implemented by every tool summary.
type Result interface {
	IsFailed() bool
}

// Lint summarises a lint-style run over a set of files.
// Passed+Failed always equals len(Files); use Add to keep it that way.
type Lint struct {
	Passed int    `json:"passed"`
	Failed int    `json:"failed"`
	Issues int    `json:"issues"`
	Output string `json:"output"`
	Files  []File `json:"files"`
}

// Add appends f and updates the counters. Failing paths are collected in
// Output, newline separated.
func (l *Lint) Add(f File) {
	l.Files = append(l.Files, f)
	if !f.Failed() {
		l.Passed++
		return
	}
	l.Failed++
	l.Issues += len(f.Annotations)
	if l.Output == "" {
		l.Output = f.Path
	} else {
		l.Output += "\n" + f.Path
	}
}

// Total is the number of files examined.
func (l *Lint) Total() int { return len(l.Files) }

// IsFailed implements Result.
func (l *Lint) IsFailed() bool { return l.Failed > 0 }

// Test summarises a test-runner run.
type Test struct {
	Total    int          `json:"total"`
	Passed   int          `json:"passed"`
	Failed   int          `json:"failed"`
	Time     float64      `json:"time"`
	Output   string       `json:"output"`
	ExitCode int          `json:"exitCode"`
	Failures []Annotation `json:"failures,omitempty"`
}

// NewTest builds a Test from raw counts. Failed is derived from total and
// passed and never goes below zero.
func NewTest(total, passed int) Test {
	if passed > total {
		total = passed
	}
	return Test{Total: total, Passed: passed, Failed: max(total-passed, 0)}
}

// IsFailed implements Result. A run without tests fails only when the runner
// itself exited non-zero.
func (t *Test) IsFailed() bool {
	return t.Failed > 0 || (t.Total == 0 && t.ExitCode > 0)
}

// Doc is the documentation generator result.
type Doc struct {
	ExitCode int    `json:"exitCode"`
	Output   string `json:"output"`
}

// IsFailed implements Result.
func (d *Doc) IsFailed() bool { return d.ExitCode > 0 }
