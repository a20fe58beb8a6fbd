package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/output"
	"github.com/fakeyudi/luaqa/internal/status"
)

func sample() *output.Results {
	var sty lint.Lint
	sty.Add(lint.File{Path: "a.lua"})
	sty.Add(lint.File{Path: "b.lua", ExitCode: 1, Annotations: []lint.Annotation{
		{Message: "local x = 1\n", Action: "replace", File: "b.lua", StartLine: 1, EndLine: 2},
	}})
	test := lint.NewTest(2, 1)
	test.Failures = []lint.Annotation{{Message: "expected 1", File: "spec/a_spec.lua", StartLine: 3}}

	r := &output.Results{
		RunID:  "run-1",
		Status: status.Failure,
		Fields: []status.Field{{Title: "Commit", Value: "<https://x/commit/abc|`abc`>"}},
		Tools:  []string{lint.Busted, lint.LDoc, lint.StyLua},
	}
	r.Set(lint.Busted, &test)
	r.Set(lint.StyLua, &sty)
	return r
}

func key(s string) tea.KeyMsg {
	switch s {
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msgs ...tea.Msg) Model {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestTabsSkipToolsWithoutResults(t *testing.T) {
	m := New(sample(), "/tmp/luaqa-results.json")
	var titles []string
	for _, tb := range m.tabs {
		titles = append(titles, tb.title)
	}
	want := []string{"Summary", "Busted", "StyLua"}
	if strings.Join(titles, ",") != strings.Join(want, ",") {
		t.Errorf("tabs = %v, want %v", titles, want)
	}
}

func TestViewBeforeSize(t *testing.T) {
	if got := New(sample(), "r.json").View(); got != "Loading…" {
		t.Errorf("View() = %q", got)
	}
}

func TestSummaryShowsFieldsAndStatus(t *testing.T) {
	m := send(New(sample(), "dir/r.json"), tea.WindowSizeMsg{Width: 100, Height: 30})
	v := m.View()
	for _, want := range []string{"r.json", "Failure", "run-1", "`abc`"} {
		if !strings.Contains(v, want) {
			t.Errorf("summary view missing %q", want)
		}
	}
	if strings.Contains(v, "https://x/commit/abc") {
		t.Error("link target should not be shown")
	}
}

func TestNavigateAndExpandLintFile(t *testing.T) {
	m := send(New(sample(), "r.json"), tea.WindowSizeMsg{Width: 100, Height: 40})
	m = send(m, key("3"))
	if m.activeTab != 2 {
		t.Fatalf("activeTab = %d, want 2", m.activeTab)
	}
	if strings.Contains(m.View(), "L1-L2 replace") {
		t.Fatal("annotations shown before expanding")
	}

	m = send(m, key("down"), key("enter"))
	if m.cursor[lint.StyLua] != 1 {
		t.Fatalf("cursor = %d, want 1", m.cursor[lint.StyLua])
	}
	v := m.View()
	if !strings.Contains(v, "L1-L2 replace") || !strings.Contains(v, "local x = 1") {
		t.Errorf("expanded view missing annotation:\n%s", v)
	}

	m = send(m, key("enter"))
	if strings.Contains(m.View(), "L1-L2 replace") {
		t.Error("second enter should collapse")
	}
}

func TestTabWrapsAround(t *testing.T) {
	m := send(New(sample(), "r.json"), tea.WindowSizeMsg{Width: 80, Height: 20})
	m = send(m, key("tab"), key("tab"), key("tab"))
	if m.activeTab != 0 {
		t.Errorf("activeTab = %d, want 0", m.activeTab)
	}
	m = send(m, key("9"))
	if m.activeTab != 0 {
		t.Errorf("out of range jump moved to %d", m.activeTab)
	}
}

func TestTestTabListsFailures(t *testing.T) {
	m := send(New(sample(), "r.json"), tea.WindowSizeMsg{Width: 100, Height: 40}, key("2"))
	v := m.View()
	for _, want := range []string{"1 / 2", "spec/a_spec.lua:3", "expected 1"} {
		if !strings.Contains(v, want) {
			t.Errorf("test view missing %q", want)
		}
	}
}

func TestQuit(t *testing.T) {
	_, cmd := New(sample(), "r.json").Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestPlainLinks(t *testing.T) {
	cases := map[string]string{
		"<https://a|b> job":     "b job",
		"no links":              "no links",
		"<https://x> and <y|z>": "https://x and z",
		"dangling <x":           "dangling <x",
	}
	for in, want := range cases {
		if got := plainLinks(in); got != want {
			t.Errorf("plainLinks(%q) = %q, want %q", in, got, want)
		}
	}
}
