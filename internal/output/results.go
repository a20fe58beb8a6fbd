package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fakeyudi/luaqa/internal/ghcontext"
	"github.com/fakeyudi/luaqa/internal/lint"
	"github.com/fakeyudi/luaqa/internal/status"
	"github.com/fakeyudi/luaqa/internal/tool"
)

// ErrNoResults is returned by Load when the results file does not exist.
var ErrNoResults = errors.New("no results file")

// Results is the complete, renderable record of one run.
type Results struct {
	RunID     string            `json:"run_id"`
	CreatedAt time.Time         `json:"created_at"`
	WorkDir   string            `json:"work_dir"`
	Status    status.Status     `json:"status"`
	Text      string            `json:"text"`
	Fields    []status.Field    `json:"fields"`
	Context   ghcontext.Context `json:"context"`
	Versions  *tool.Versions    `json:"versions,omitempty"`
	Tools     []string          `json:"tools"`

	Busted   *lint.Test `json:"busted,omitempty"`
	LDoc     *lint.Doc  `json:"ldoc,omitempty"`
	Luacheck *lint.Lint `json:"luacheck,omitempty"`
	Prettier *lint.Lint `json:"prettier,omitempty"`
	StyLua   *lint.Lint `json:"stylua,omitempty"`
}

// Set stores the result of tool. Results of an unexpected type are ignored.
func (r *Results) Set(name string, res lint.Result) {
	switch v := res.(type) {
	case *lint.Test:
		if name == lint.Busted {
			r.Busted = v
		}
	case *lint.Doc:
		if name == lint.LDoc {
			r.LDoc = v
		}
	case *lint.Lint:
		switch name {
		case lint.Luacheck:
			r.Luacheck = v
		case lint.Prettier:
			r.Prettier = v
		case lint.StyLua:
			r.StyLua = v
		}
	}
}

// Get returns the stored result of tool.
func (r *Results) Get(name string) (lint.Result, bool) {
	switch name {
	case lint.Busted:
		return r.Busted, r.Busted != nil
	case lint.LDoc:
		return r.LDoc, r.LDoc != nil
	case lint.Luacheck:
		return r.Luacheck, r.Luacheck != nil
	case lint.Prettier:
		return r.Prettier, r.Prettier != nil
	case lint.StyLua:
		return r.StyLua, r.StyLua != nil
	}
	return nil, false
}

// Save renders r in format ("json" or "markdown") and writes it atomically
// via a temp file and os.Rename.
func Save(path, format string, r *Results) (err error) {
	data, err := RendererFor(format).Render(r)
	if err != nil {
		return fmt.Errorf("failed to render results: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".luaqa-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// Load reads a results file in either format.
func Load(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoResults, path)
		}
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return ParserFor(data).Parse(data)
}
