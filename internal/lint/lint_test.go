package lint

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fakeyudi/luaqa/internal/diff"
	"github.com/fakeyudi/luaqa/internal/log"
)

// Feature: luaqa, Property 5: Lint summary counts match the files examined
func TestLintAddInvariantProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		var l Lint
		n := rapid.IntRange(0, 30).Draw(t, "n")
		wantIssues := 0
		for i := 0; i < n; i++ {
			exit := rapid.SampledFrom([]int{0, 0, 1, 2}).Draw(t, fmt.Sprintf("exit%d", i))
			var anns []Annotation
			if exit != 0 {
				k := rapid.IntRange(0, 3).Draw(t, fmt.Sprintf("anns%d", i))
				anns = make([]Annotation, k)
				wantIssues += k
			}
			l.Add(File{Path: fmt.Sprintf("f%d.lua", i), ExitCode: exit, Annotations: anns})
		}
		if l.Passed+l.Failed != l.Total() {
			t.Fatalf("passed %d + failed %d != total %d", l.Passed, l.Failed, l.Total())
		}
		if l.Failed < 0 {
			t.Fatalf("failed is negative: %d", l.Failed)
		}
		if l.Issues != wantIssues {
			t.Fatalf("issues = %d, want %d", l.Issues, wantIssues)
		}
	})
}

func TestLintScenarioTwoPassOneFails(t *testing.T) {
	var l Lint
	l.Add(File{Path: "a.lua"})
	l.Add(File{Path: "b.lua", ExitCode: 1, Annotations: []Annotation{{Message: "x"}, {Message: "y"}}})
	l.Add(File{Path: "c.lua"})

	assert.Equal(t, 2, l.Passed)
	assert.Equal(t, 1, l.Failed)
	assert.Equal(t, 2, l.Issues)
	assert.Len(t, l.Files, 3)
	assert.Equal(t, "b.lua", l.Output)
	assert.True(t, l.IsFailed())
}

func TestLintOutputJoinsFailingPaths(t *testing.T) {
	var l Lint
	l.Add(File{Path: "a.lua", ExitCode: 1})
	l.Add(File{Path: "b.lua"})
	l.Add(File{Path: "c.lua", ExitCode: 1})
	assert.Equal(t, "a.lua\nc.lua", l.Output)
}

func TestNewTestClampsFailed(t *testing.T) {
	tt := NewTest(3, 5)
	assert.Equal(t, 5, tt.Total)
	assert.Equal(t, 0, tt.Failed)
	assert.Equal(t, tt.Total, tt.Passed+tt.Failed)

	tt = NewTest(4, 1)
	assert.Equal(t, 3, tt.Failed)
}

func TestTestIsFailed(t *testing.T) {
	tests := []struct {
		name string
		test Test
		want bool
	}{
		{"all passed", Test{Total: 2, Passed: 2}, false},
		{"one failed", Test{Total: 2, Passed: 1, Failed: 1}, true},
		{"no tests, runner crashed", Test{ExitCode: 1}, true},
		{"no tests, clean exit", Test{}, false},
		{"tests ran, runner exit ignored", Test{Total: 1, Passed: 1, ExitCode: 1}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.test.IsFailed())
		})
	}
}

func TestDocIsFailed(t *testing.T) {
	assert.False(t, (&Doc{}).IsFailed())
	assert.True(t, (&Doc{ExitCode: 2}).IsFailed())
}

func TestToAnnotationsDropsDegenerateEntries(t *testing.T) {
	entries := []diff.Entry{
		{Action: diff.Replace, StartLine: 2, EndLine: 3, Text: "X\n", PreviousText: "2\n"},
		{Action: diff.Add, StartLine: 0, Text: "ignored\n"},
		{Action: diff.Remove, StartLine: 4, Text: ""},
		{Action: diff.Add, StartLine: 5, Text: "y\n"},
	}
	anns, n := ToAnnotations(entries, "src/a.lua")
	require.Equal(t, 2, n)
	assert.Equal(t, []Annotation{
		{Message: "X\n", Action: "replace", File: "src/a.lua", StartLine: 2, EndLine: 3},
		{Message: "y\n", Action: "add", File: "src/a.lua", StartLine: 5},
	}, anns)
}

func TestCompare(t *testing.T) {
	anns := Compare("a.lua", "local x=1\n", "local x = 1\n")
	require.Len(t, anns, 1)
	assert.Equal(t, "replace", anns[0].Action)
	assert.Equal(t, 1, anns[0].StartLine)
	assert.Equal(t, 2, anns[0].EndLine)
	assert.Equal(t, "local x = 1\n", anns[0].Message)
}

func TestParsePlain(t *testing.T) {
	report := "src/a.lua:3:7: (W211) unused variable 'x'\r\n" +
		"\n" +
		"Total: 1 warning / 0 errors in 1 file\n" +
		"src/b.lua:10:1: (E011) expected expression near 'end'\n"

	got := ParsePlain(report)
	assert.Equal(t, []Annotation{
		{Message: "(W211) unused variable 'x'", File: "src/a.lua", StartLine: 3, Col: 7},
		{Message: "(E011) expected expression near 'end'", File: "src/b.lua", StartLine: 10, Col: 1},
	}, got)
}

func TestWarningTitle(t *testing.T) {
	assert.Equal(t, "StyLua / a.lua#L3-L4 / Replace",
		WarningTitle("StyLua", "a.lua", Annotation{Action: "replace", StartLine: 3, EndLine: 4}))
	assert.Equal(t, "Luacheck / a.lua#L7",
		WarningTitle("Luacheck", "a.lua", Annotation{StartLine: 7}))
}

func TestPrintResult(t *testing.T) {
	var l Lint
	l.Add(File{Path: "ok.lua"})
	l.Add(File{Path: "bad.lua", ExitCode: 1, Annotations: []Annotation{
		{Message: "x", Action: "add", File: "bad.lua", StartLine: 2},
	}})

	var buf bytes.Buffer
	PrintResult(log.New(log.Options{Out: &buf, Actions: true}), &l, "StyLua", true)

	assert.Equal(t,
		"Checked 2 files: 1 passed, 1 failed\n"+
			"::warning::Found 1 issue\n"+
			"\n"+
			"bad.lua\n"+
			"::warning file=bad.lua,line=2,title=StyLua / bad.lua#L2 / Add::x\n",
		buf.String())
}

func TestPrintResultFailureIsError(t *testing.T) {
	var l Lint
	l.Add(File{Path: "bad.lua", ExitCode: 1})

	var buf bytes.Buffer
	PrintResult(log.New(log.Options{Out: &buf, Actions: true}), &l, "Prettier", false)

	assert.Equal(t, "Checked 1 file: 0 passed, 1 failed\n::error::Found 0 issues\n", buf.String())
}

func TestPrintResultNoFiles(t *testing.T) {
	var buf bytes.Buffer
	PrintResult(log.New(log.Options{Out: &buf, Actions: true}), &Lint{}, "StyLua", false)
	assert.Empty(t, buf.String())
}
