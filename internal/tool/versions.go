package tool

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	goversion "github.com/hashicorp/go-version"
)

// Versions holds the version string reported by each tool.
type Versions struct {
	Busted   string `json:"busted"`
	LDoc     string `json:"ldoc"`
	Lua      string `json:"lua"`
	Luacheck string `json:"luacheck"`
	Prettier string `json:"prettier"`
	StyLua   string `json:"stylua"`
}

// Map returns the versions keyed by tool name.
func (v Versions) Map() map[string]string {
	return map[string]string{
		"busted":   v.Busted,
		"ldoc":     v.LDoc,
		"lua":      v.Lua,
		"luacheck": v.Luacheck,
		"prettier": v.Prettier,
		"stylua":   v.StyLua,
	}
}

var (
	semverPattern  = regexp.MustCompile(`(?m)(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)(?:-[0-9A-Za-z.-]+)?(?:\+[0-9A-Za-z.-]+)?$`)
	copyrightTrail = regexp.MustCompile(`\s*Copyright.*`)
)

// minimum lists the oldest version of each tool whose flags luaqa relies on.
var minimum = map[string]string{
	"busted":   "2.0.0",  // --output=json
	"luacheck": "0.23.0", // --formatter=plain --codes
	"stylua":   "0.11.0", // --stdin-filepath
}

type probe struct {
	name      string
	args      []string
	anyExit   bool
	useStderr bool
	extract   func(string) string
}

var probes = []probe{
	{name: "busted", args: []string{"--version"}, extract: strings.TrimSpace},
	{name: "ldoc", anyExit: true, useStderr: true, extract: func(s string) string {
		return strings.TrimSpace(semverPattern.FindString(s))
	}},
	{name: "lua", args: []string{"-v"}, useStderr: true, extract: func(s string) string {
		s = strings.Replace(strings.TrimSpace(s), "Lua ", "", 1)
		return strings.TrimSpace(copyrightTrail.ReplaceAllString(s, ""))
	}},
	{name: "luacheck", args: []string{"--version"}, extract: func(s string) string {
		first, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
		return strings.TrimSpace(strings.Replace(first, "Luacheck: ", "", 1))
	}},
	{name: "prettier", args: []string{"--version"}, extract: strings.TrimSpace},
	{name: "stylua", args: []string{"--version"}, extract: func(s string) string {
		return strings.Replace(strings.TrimSpace(s), "stylua ", "", 1)
	}},
}

// DetectVersions asks every tool in names for its version, or every known
// tool when names is empty. A tool that cannot be started aborts detection
// with an ErrToolUnavailable error.
func DetectVersions(ctx context.Context, r Runner, dir string, names ...string) (Versions, error) {
	found := make(map[string]string, len(probes))
	for _, p := range probes {
		if len(names) > 0 && !slices.Contains(names, p.name) {
			continue
		}
		out, err := r.Run(ctx, Command{Name: p.name, Args: p.args, Dir: dir})
		if err != nil {
			return Versions{}, err
		}
		if out.ExitCode != 0 && !p.anyExit {
			return Versions{}, fmt.Errorf("%s version check exited with code %d", p.name, out.ExitCode)
		}
		text := out.Stdout
		if p.useStderr {
			text = out.Stderr
		}
		found[p.name] = p.extract(text)
	}
	return Versions{
		Busted:   found["busted"],
		LDoc:     found["ldoc"],
		Lua:      found["lua"],
		Luacheck: found["luacheck"],
		Prettier: found["prettier"],
		StyLua:   found["stylua"],
	}, nil
}

// Outdated returns a message for every tool that reports a version older
// than the one luaqa needs. Versions that do not parse are skipped.
func (v Versions) Outdated() []string {
	var msgs []string
	reported := v.Map()
	for _, name := range []string{"busted", "luacheck", "stylua"} {
		got, err := goversion.NewVersion(reported[name])
		if err != nil {
			continue
		}
		want := goversion.Must(goversion.NewVersion(minimum[name]))
		if got.LessThan(want) {
			msgs = append(msgs, fmt.Sprintf("%s %s is older than the supported minimum %s", name, got, want))
		}
	}
	return msgs
}
