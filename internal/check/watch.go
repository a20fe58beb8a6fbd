package check

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watch starts a recursive fsnotify watcher on dir and calls onChange with
// the changed paths (relative to dir) accepted by match. Events arriving
// within debounce of each other are delivered together. Watch returns nil
// once ctx is cancelled.
func Watch(ctx context.Context, dir string, match func(rel string) bool, debounce time.Duration, onChange func(paths []string)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil // skip unreadable entries
		}
		if d.IsDir() {
			if path != dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		}
		return nil
	}); err != nil {
		return err
	}

	pending := make(map[string]struct{})
	timer := time.NewTimer(time.Hour)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Watch new directories too.
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = watcher.Add(event.Name)
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			rel, err := filepath.Rel(dir, event.Name)
			if err != nil || !match(filepath.ToSlash(rel)) {
				continue
			}
			pending[filepath.ToSlash(rel)] = struct{}{}
			timer.Reset(debounce)

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			paths := make([]string, 0, len(pending))
			for p := range pending {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			clear(pending)
			onChange(paths)

		case _, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			// Watcher errors are non-fatal; continue watching.
		}
	}
}

// Matcher returns a match function for Watch that accepts every file one of
// tools would examine. Busted and LDoc react to any Lua file.
func Matcher(o Options, tools []string) func(rel string) bool {
	var finders []Finder
	for _, name := range tools {
		switch c := New(name, o).(type) {
		case *Linter:
			finders = append(finders, c.Finder)
		case nil:
		default:
			finders = append(finders, Finder{Dir: o.Dir, Extensions: "lua"})
		}
	}
	return func(rel string) bool {
		for _, f := range finders {
			if f.Matches(rel) {
				return true
			}
		}
		return false
	}
}
