package check

import (
	"bufio"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar"
	"github.com/gobwas/glob"
)

// Finder lists the candidate files of one tool: every file under Dir matching
// "**/*.{Extensions}" that is not excluded by IgnoreFile.
type Finder struct {
	Dir        string
	Extensions string // brace list without braces, e.g. "md,xml,yml"
	IgnoreFile string // relative to Dir; a missing file ignores nothing
}

// Files returns the matching paths relative to Dir, sorted.
func (f Finder) Files() ([]string, error) {
	dir := f.Dir
	if dir == "" {
		dir = "."
	}
	pattern := filepath.Join(dir, "**", "*."+braced(f.Extensions))
	matches, err := doublestar.Glob(pattern)
	if err != nil {
		return nil, err
	}

	rules, err := loadIgnoreRules(filepath.Join(dir, f.IgnoreFile), f.IgnoreFile != "")
	if err != nil {
		return nil, err
	}

	files := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		rel, err := filepath.Rel(dir, m)
		if err != nil {
			continue
		}
		rel = filepath.ToSlash(rel)
		if hidden(rel) || rules.ignored(rel) {
			continue
		}
		files = append(files, rel)
	}
	sort.Strings(files)
	return files, nil
}

// Matches reports whether a path relative to Dir would be listed by Files.
func (f Finder) Matches(rel string) bool {
	rel = filepath.ToSlash(rel)
	if hidden(rel) {
		return false
	}
	ok, err := doublestar.Match("**/*."+braced(f.Extensions), rel)
	if err != nil || !ok {
		return false
	}
	dir := f.Dir
	if dir == "" {
		dir = "."
	}
	rules, err := loadIgnoreRules(filepath.Join(dir, f.IgnoreFile), f.IgnoreFile != "")
	if err != nil {
		return false
	}
	return !rules.ignored(rel)
}

// hidden reports whether any segment of rel starts with a dot. Such files
// and directories are never listed.
func hidden(rel string) bool {
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return true
		}
	}
	return false
}

func braced(exts string) string {
	if strings.Contains(exts, ",") {
		return "{" + exts + "}"
	}
	return exts
}

type ignoreRule struct {
	matchers []glob.Glob
	negate   bool
	dirOnly  bool
}

type ignoreRules []ignoreRule

// loadIgnoreRules reads a gitignore-style file. Blank lines and comments are
// skipped, "!" negates, a trailing "/" restricts a rule to directories and a
// pattern without an inner "/" matches at any depth.
func loadIgnoreRules(path string, enabled bool) (ignoreRules, error) {
	if !enabled {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()

	var rules ignoreRules
	sc := bufio.NewScanner(file)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		var r ignoreRule
		if strings.HasPrefix(line, "!") {
			r.negate = true
			line = line[1:]
		}
		if strings.HasSuffix(line, "/") {
			r.dirOnly = true
			line = strings.TrimSuffix(line, "/")
		}
		anchored := strings.Contains(line, "/")
		line = strings.TrimPrefix(line, "/")
		if line == "" {
			continue
		}

		patterns := []string{line}
		if !anchored {
			patterns = append(patterns, "**/"+line)
		}
		for _, p := range patterns {
			g, err := glob.Compile(p, '/')
			if err != nil {
				return nil, err
			}
			r.matchers = append(r.matchers, g)
		}
		rules = append(rules, r)
	}
	return rules, sc.Err()
}

// ignored reports whether rel, or any directory containing it, is excluded.
// The last matching rule wins.
func (rules ignoreRules) ignored(rel string) bool {
	ignored := false
	for _, r := range rules {
		if r.matches(rel) {
			ignored = !r.negate
		}
	}
	return ignored
}

func (r ignoreRule) matches(rel string) bool {
	parts := strings.Split(rel, "/")
	for i := 1; i <= len(parts); i++ {
		candidate := strings.Join(parts[:i], "/")
		isDir := i < len(parts)
		if r.dirOnly && !isDir {
			continue
		}
		for _, g := range r.matchers {
			if g.Match(candidate) {
				return true
			}
		}
	}
	return false
}
