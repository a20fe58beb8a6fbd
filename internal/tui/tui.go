// Package tui provides a Bubble Tea viewer for luaqa results files.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/output"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("245")).
				Background(lipgloss.Color("235")).
				Padding(0, 1)

	tabSepStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("238")).
			Background(lipgloss.Color("235"))

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	bulletStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205"))

	passStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	addStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	removeStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	replaceStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("237"))
)

// tab is one page of the viewer: the summary or a single tool.
type tab struct {
	name  string // tool name, empty for the summary
	title string
}

// Model is the root Bubble Tea model for the viewer.
type Model struct {
	results   *output.Results
	filename  string
	tabs      []tab
	activeTab int
	viewports []viewport.Model
	width     int
	height    int
	ready     bool

	// Lint tabs: selected file and expanded files, keyed by tool.
	cursor   map[string]int
	expanded map[string]map[int]bool
}

// New creates a viewer model for r loaded from filename.
func New(r *output.Results, filename string) Model {
	m := Model{
		results:  r,
		filename: filepath.Base(filename),
		tabs:     []tab{{title: "Summary"}},
		cursor:   make(map[string]int),
		expanded: make(map[string]map[int]bool),
	}
	for _, name := range r.Tools {
		if _, ok := r.Get(name); ok {
			m.tabs = append(m.tabs, tab{name: name, title: lint.Title(name)})
			m.expanded[name] = make(map[int]bool)
		}
	}
	m.viewports = make([]viewport.Model, len(m.tabs))
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		n := len(m.tabs)
		switch key := msg.String(); key {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "tab", "l", "right":
			m.activeTab = (m.activeTab + 1) % n
			return m, nil
		case "shift+tab", "h", "left":
			m.activeTab = (m.activeTab - 1 + n) % n
			return m, nil
		case "1", "2", "3", "4", "5", "6", "7", "8", "9":
			if i := int(key[0] - '1'); i < n {
				m.activeTab = i
			}
			return m, nil
		case "up", "k":
			if l := m.activeLint(); l != nil && m.cursor[m.tabs[m.activeTab].name] > 0 {
				m.cursor[m.tabs[m.activeTab].name]--
				m.rebuild(m.activeTab)
				return m, nil
			}
		case "down", "j":
			if l := m.activeLint(); l != nil && m.cursor[m.tabs[m.activeTab].name] < len(l.Files)-1 {
				m.cursor[m.tabs[m.activeTab].name]++
				m.rebuild(m.activeTab)
				return m, nil
			}
		case "enter", " ":
			if l := m.activeLint(); l != nil && len(l.Files) > 0 {
				name := m.tabs[m.activeTab].name
				i := m.cursor[name]
				if len(l.Files[i].Annotations) > 0 {
					if m.expanded[name][i] {
						delete(m.expanded[name], i)
					} else {
						m.expanded[name][i] = true
					}
					m.rebuild(m.activeTab)
				}
				return m, nil
			}
		}
		if !m.ready {
			return m, nil
		}
		var cmd tea.Cmd
		m.viewports[m.activeTab], cmd = m.viewports[m.activeTab].Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.initViewports()
		return m, nil
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	badge := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color(m.results.Status.Color())).
		Padding(0, 1).
		Render(m.results.Status.Title())
	title := titleStyle.Width(m.width - lipgloss.Width(badge)).Render("  luaqa  " + m.filename)
	header := lipgloss.JoinHorizontal(lipgloss.Top, title, badge)

	var tabParts []string
	for i, t := range m.tabs {
		label := fmt.Sprintf(" %d %s ", i+1, t.title)
		if i == m.activeTab {
			tabParts = append(tabParts, activeTabStyle.Render(label))
		} else {
			tabParts = append(tabParts, inactiveTabStyle.Render(label))
		}
		if i < len(m.tabs)-1 {
			tabParts = append(tabParts, tabSepStyle.Render("│"))
		}
	}
	tabRow := lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Width(m.width).
		Render(lipgloss.JoinHorizontal(lipgloss.Top, tabParts...))

	content := m.viewports[m.activeTab].View()

	hint := "  ←/→ tab  ↑/↓ scroll  1-9 jump  q quit"
	if m.activeLint() != nil {
		hint = "  ←/→ tab  ↑/↓ select  enter expand/collapse  q quit"
	}
	pct := fmt.Sprintf("%3.0f%%", m.viewports[m.activeTab].ScrollPercent()*100)
	pad := m.width - lipgloss.Width(hint) - len(pct) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(hint + strings.Repeat(" ", pad) + pct)

	return lipgloss.JoinVertical(lipgloss.Left, header, tabRow, content, statusBar)
}

func (m *Model) initViewports() {
	// header, tab row and status bar
	vpHeight := m.height - 3
	if vpHeight < 1 {
		vpHeight = 1
	}
	for i := range m.tabs {
		vp := viewport.New(m.width, vpHeight)
		vp.SetContent(m.renderTab(i))
		m.viewports[i] = vp
	}
}

func (m *Model) rebuild(i int) {
	if m.ready {
		m.viewports[i].SetContent(m.renderTab(i))
	}
}

func (m *Model) activeLint() *lint.Lint {
	name := m.tabs[m.activeTab].name
	if name == "" {
		return nil
	}
	res, _ := m.results.Get(name)
	l, _ := res.(*lint.Lint)
	return l
}

func (m *Model) renderTab(i int) string {
	t := m.tabs[i]
	if t.name == "" {
		return m.renderSummary()
	}
	res, _ := m.results.Get(t.name)
	switch v := res.(type) {
	case *lint.Test:
		return renderTest(t.title, v)
	case *lint.Doc:
		return renderDoc(t.title, v)
	case *lint.Lint:
		return m.renderLint(t, v)
	}
	return ""
}

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func bullet(text string) string {
	return bulletStyle.Render("  •") + "  " + text + "\n"
}

func row(sb *strings.Builder, label, value string) {
	sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-16s", label)) + "  " + value + "\n")
}

func (m *Model) renderSummary() string {
	r := m.results
	var sb strings.Builder
	sb.WriteString(heading("Run"))
	row(&sb, "Run:", r.RunID)
	if !r.CreatedAt.IsZero() {
		row(&sb, "Finished:", r.CreatedAt.Format("2006-01-02 15:04:05 MST"))
	}
	row(&sb, "Work Dir:", r.WorkDir)
	if r.Context.Owner != "" {
		row(&sb, "Repository:", r.Context.Owner+"/"+r.Context.Repo)
	}
	if sha := r.Context.ShortSHA(); sha != "" {
		row(&sb, "Commit:", sha)
	}
	if b := r.Context.BranchName(); b != "" {
		row(&sb, "Branch:", b)
	}

	sb.WriteString(heading("Fields"))
	for _, f := range r.Fields {
		row(&sb, f.Title+":", plainLinks(f.Value))
	}

	if r.Versions != nil {
		sb.WriteString(heading("Versions"))
		v := r.Versions.Map()
		for _, name := range []string{"lua", lint.Busted, lint.LDoc, lint.Luacheck, lint.Prettier, lint.StyLua} {
			if v[name] != "" {
				sb.WriteString(bullet(name + " " + v[name]))
			}
		}
	}
	return sb.String()
}

func renderTest(title string, t *lint.Test) string {
	var sb strings.Builder
	sb.WriteString(heading(title))
	if t.Total == 0 {
		sb.WriteString(dimStyle.Render("  (no tests)") + "\n")
	} else {
		row(&sb, "Passed:", passStyle.Render(fmt.Sprintf("%d / %d", t.Passed, t.Total)))
		row(&sb, "Failed:", failStyle.Render(fmt.Sprintf("%d", t.Failed)))
		row(&sb, "Time:", fmt.Sprintf("%.3fs", t.Time))
	}
	if len(t.Failures) > 0 {
		sb.WriteString(heading(fmt.Sprintf("Failures (%d)", len(t.Failures))))
		for _, f := range t.Failures {
			sb.WriteString(bullet(fmt.Sprintf("%s:%d", f.File, f.StartLine)))
			sb.WriteString(dimStyle.Render(indent(f.Message, "      ")) + "\n\n")
		}
	}
	if t.Total == 0 && t.Output != "" {
		sb.WriteString(heading("Output"))
		sb.WriteString(dimStyle.Render(indent(t.Output, "    ")) + "\n")
	}
	return sb.String()
}

func renderDoc(title string, d *lint.Doc) string {
	var sb strings.Builder
	sb.WriteString(heading(title))
	if d.IsFailed() {
		row(&sb, "Result:", failStyle.Render(fmt.Sprintf("failed (exit code %d)", d.ExitCode)))
	} else {
		row(&sb, "Result:", passStyle.Render("success"))
	}
	if d.Output != "" {
		sb.WriteString(heading("Output"))
		sb.WriteString(dimStyle.Render(indent(d.Output, "    ")) + "\n")
	}
	return sb.String()
}

func (m *Model) renderLint(t tab, l *lint.Lint) string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("%s (%d files)", t.title, l.Total())))
	if l.Total() == 0 {
		sb.WriteString(dimStyle.Render("  (no files)") + "\n")
		return sb.String()
	}
	row(&sb, "Passed:", passStyle.Render(fmt.Sprintf("%d", l.Passed)))
	row(&sb, "Failed:", failStyle.Render(fmt.Sprintf("%d", l.Failed)))
	row(&sb, "Issues:", fmt.Sprintf("%d", l.Issues))
	sb.WriteString("\n")

	for i, f := range l.Files {
		mark := passStyle.Render("✓ ")
		if f.Failed() {
			mark = failStyle.Render("✗ ")
		}
		toggle := "    "
		if len(f.Annotations) > 0 {
			toggle = dimStyle.Render("  ▶ ")
			if m.expanded[t.name][i] {
				toggle = dimStyle.Render("  ▼ ")
			}
		}
		line := toggle + mark + f.Path
		if n := len(f.Annotations); n > 0 {
			line += dimStyle.Render(fmt.Sprintf("  (%d)", n))
		}
		if i == m.cursor[t.name] {
			line = selectedRowStyle.Width(max(m.width-2, 1)).Render(line)
		}
		sb.WriteString(line + "\n")
		if m.expanded[t.name][i] {
			sb.WriteString(renderAnnotations(f.Annotations, m.width))
		}
	}
	return sb.String()
}

// renderAnnotations colors each annotation block by its action.
func renderAnnotations(as []lint.Annotation, width int) string {
	var sb strings.Builder
	border := dimStyle.Render("  " + strings.Repeat("─", max(width-4, 1)))
	sb.WriteString(border + "\n")
	for _, a := range as {
		loc := fmt.Sprintf("L%d", a.StartLine)
		if a.EndLine > 0 {
			loc += fmt.Sprintf("-L%d", a.EndLine)
		}
		style := dimStyle
		switch a.Action {
		case "add":
			style = addStyle
		case "remove":
			style = removeStyle
		case "replace":
			style = replaceStyle
		}
		head := loc
		if a.Action != "" {
			head += " " + a.Action
		}
		sb.WriteString(labelStyle.Render("    "+head) + "\n")
		if a.Message != "" {
			sb.WriteString(style.Render(indent(strings.TrimRight(a.Message, "\n"), "      ")) + "\n")
		}
	}
	sb.WriteString(border + "\n")
	return sb.String()
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// plainLinks turns Slack-style <url|text> links into "text".
func plainLinks(s string) string {
	var sb strings.Builder
	for {
		start := strings.Index(s, "<")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], ">")
		if end == -1 {
			break
		}
		link := s[start+1 : start+end]
		_, text, ok := strings.Cut(link, "|")
		if !ok {
			text = link
		}
		sb.WriteString(s[:start] + text)
		s = s[start+end+1:]
	}
	sb.WriteString(s)
	return sb.String()
}

// Run starts the viewer for r.
func Run(r *output.Results, filename string) error {
	p := tea.NewProgram(New(r, filename), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
