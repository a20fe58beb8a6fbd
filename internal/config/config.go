package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/google/shlex"
	"github.com/hashicorp/go-multierror"

	"github.com/fakeyudi/luaqa/internal/lint"
)

// ProjectFile is the per-repository config file name.
const ProjectFile = ".luaqa.json"

// Format selects how a tool's field is phrased in the status report.
type Format string

const (
	FormatIssues   Format = "issues"
	FormatFailures Format = "failures"
	FormatPasses   Format = "passes"
)

// Force status values.
const (
	ForceSuccess   = "success"
	ForceFailure   = "failure"
	ForceCancelled = "cancelled"
	ForceSkipped   = "skipped"
)

// Results file formats.
const (
	ResultsJSON     = "json"
	ResultsMarkdown = "markdown"
)

// Colors are the four report colors as "#RRGGBB".
type Colors struct {
	Default string `json:"default,omitempty"`
	Failure string `json:"failure,omitempty"`
	Success string `json:"success,omitempty"`
	Warning string `json:"warning,omitempty"`
}

// Config holds every luaqa setting after all sources have been merged.
type Config struct {
	Busted   bool
	LDoc     bool
	Luacheck bool
	Prettier bool
	StyLua   bool
	Slack    bool

	IgnoreCheckVersions bool
	IgnoreFailure       bool // failures still show, but do not fail the run
	IgnoreSetOutput     bool

	ForceStatus string // "" or one of the Force* values
	Formats     map[string]Format
	Colors      Colors
	Args        map[string][]string // extra arguments per tool

	SlackChannel string
	SlackToken   string

	ResultsFile   string // empty disables the results file
	ResultsFormat string // "json" | "markdown"
	WorkDir       string
}

// Defaults returns the default configuration: every tool enabled, Slack off.
func Defaults() Config {
	return Config{
		Busted:   true,
		LDoc:     true,
		Luacheck: true,
		Prettier: true,
		StyLua:   true,
		Formats: map[string]Format{
			lint.Busted:   FormatPasses,
			lint.Luacheck: FormatIssues,
			lint.Prettier: FormatIssues,
			lint.StyLua:   FormatIssues,
		},
		Colors: Colors{
			Default: "#1f242b",
			Failure: "#cc1f2d",
			Success: "#24a943",
			Warning: "#dcad04",
		},
		Args:          map[string][]string{},
		ResultsFormat: ResultsJSON,
		WorkDir:       ".",
	}
}

// Enabled reports whether tool should run.
func (c Config) Enabled(tool string) bool {
	switch tool {
	case lint.Busted:
		return c.Busted
	case lint.LDoc:
		return c.LDoc
	case lint.Luacheck:
		return c.Luacheck
	case lint.Prettier:
		return c.Prettier
	case lint.StyLua:
		return c.StyLua
	}
	return false
}

// EnabledTools returns the enabled tools in display order.
func (c Config) EnabledTools() []string {
	var out []string
	for _, t := range lint.Tools {
		if c.Enabled(t) {
			out = append(out, t)
		}
	}
	return out
}

// FormatOf returns the display format of tool, FormatIssues when unset.
func (c Config) FormatOf(tool string) Format {
	if f, ok := c.Formats[tool]; ok && f != "" {
		return f
	}
	return FormatIssues
}

// File is the JSON shape of a config file. Unset fields leave the lower
// layer untouched.
type File struct {
	Busted   *bool `json:"busted,omitempty"`
	LDoc     *bool `json:"ldoc,omitempty"`
	Luacheck *bool `json:"luacheck,omitempty"`
	Prettier *bool `json:"prettier,omitempty"`
	StyLua   *bool `json:"stylua,omitempty"`
	Slack    *bool `json:"slack,omitempty"`

	IgnoreCheckVersions *bool `json:"ignore_check_versions,omitempty"`
	IgnoreFailure       *bool `json:"ignore_failure,omitempty"`
	IgnoreSetOutput     *bool `json:"ignore_set_output,omitempty"`

	ForceStatus *string           `json:"force_status,omitempty"`
	Formats     map[string]Format `json:"formats,omitempty"`
	Colors      Colors            `json:"colors,omitempty"`
	Args        map[string]string `json:"args,omitempty"` // shell-quoted

	SlackChannel  string `json:"slack_channel,omitempty"`
	ResultsFile   string `json:"results_file,omitempty"`
	ResultsFormat string `json:"results_format,omitempty"`
}

// LoadGlobal reads ~/.config/luaqa/config.json.
// Returns nil (no error) if the file is absent.
func LoadGlobal() (*File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return loadFile(filepath.Join(home, ".config", "luaqa", "config.json"))
}

// LoadProject reads .luaqa.json in dir.
// Returns nil (no error) if the file is absent.
func LoadProject(dir string) (*File, error) {
	return loadFile(filepath.Join(dir, ProjectFile))
}

func loadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}
	return &f, nil
}

// Merge applies global then project over the defaults, project taking
// precedence.
func Merge(global, project *File) (Config, error) {
	result := Defaults()
	if err := result.Apply(global); err != nil {
		return result, err
	}
	if err := result.Apply(project); err != nil {
		return result, err
	}
	return result, nil
}

// Apply overlays the fields set in f. A nil f is a no-op.
func (c *Config) Apply(f *File) error {
	if f == nil {
		return nil
	}
	setBool(&c.Busted, f.Busted)
	setBool(&c.LDoc, f.LDoc)
	setBool(&c.Luacheck, f.Luacheck)
	setBool(&c.Prettier, f.Prettier)
	setBool(&c.StyLua, f.StyLua)
	setBool(&c.Slack, f.Slack)
	setBool(&c.IgnoreCheckVersions, f.IgnoreCheckVersions)
	setBool(&c.IgnoreFailure, f.IgnoreFailure)
	setBool(&c.IgnoreSetOutput, f.IgnoreSetOutput)
	if f.ForceStatus != nil {
		c.ForceStatus = *f.ForceStatus
	}
	for tool, format := range f.Formats {
		if format != "" {
			c.setFormat(tool, format)
		}
	}
	c.Colors.apply(f.Colors)
	for tool, raw := range f.Args {
		if err := c.SetArgs(tool, raw); err != nil {
			return err
		}
	}
	if f.SlackChannel != "" {
		c.SlackChannel = f.SlackChannel
	}
	if f.ResultsFile != "" {
		c.ResultsFile = f.ResultsFile
	}
	if f.ResultsFormat != "" {
		c.ResultsFormat = f.ResultsFormat
	}
	return nil
}

// SetArgs splits raw with shell quoting rules and stores it as the extra
// arguments of tool.
func (c *Config) SetArgs(tool, raw string) error {
	args, err := shlex.Split(raw)
	if err != nil {
		return fmt.Errorf("invalid %s arguments %q: %w", tool, raw, err)
	}
	if c.Args == nil {
		c.Args = map[string][]string{}
	}
	c.Args[tool] = args
	return nil
}

func (c *Config) setFormat(tool string, f Format) {
	if c.Formats == nil {
		c.Formats = map[string]Format{}
	}
	c.Formats[tool] = f
}

func (c *Colors) apply(o Colors) {
	if o.Default != "" {
		c.Default = o.Default
	}
	if o.Failure != "" {
		c.Failure = o.Failure
	}
	if o.Success != "" {
		c.Success = o.Success
	}
	if o.Warning != "" {
		c.Warning = o.Warning
	}
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

var hexColor = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var result *multierror.Error

	colors := []struct{ name, value string }{
		{"slack-color-default", c.Colors.Default},
		{"slack-color-failure", c.Colors.Failure},
		{"slack-color-success", c.Colors.Success},
		{"slack-color-warning", c.Colors.Warning},
	}
	for _, col := range colors {
		if !hexColor.MatchString(col.value) {
			result = multierror.Append(result, fmt.Errorf("invalid %s input value %q. Should be a valid HEX color", col.name, col.value))
		}
	}

	for _, tool := range []string{lint.Busted, lint.Luacheck, lint.Prettier, lint.StyLua} {
		switch f := c.FormatOf(tool); f {
		case FormatIssues, FormatFailures, FormatPasses:
		default:
			result = multierror.Append(result, fmt.Errorf("invalid slack-%s-format input value %q. Should be: issues|passes|failures", tool, f))
		}
	}
	for tool := range c.Formats {
		if !slices.Contains(lint.Tools, tool) || tool == lint.LDoc {
			result = multierror.Append(result, fmt.Errorf("unknown tool %q in formats", tool))
		}
	}
	for tool := range c.Args {
		if !slices.Contains(lint.Tools, tool) {
			result = multierror.Append(result, fmt.Errorf("unknown tool %q in args", tool))
		}
	}

	switch c.ForceStatus {
	case "", ForceSuccess, ForceFailure, ForceCancelled, ForceSkipped:
	default:
		result = multierror.Append(result, fmt.Errorf("invalid slack-force-status input value %q. Should be: success|failure|cancelled|skipped", c.ForceStatus))
	}

	switch c.ResultsFormat {
	case ResultsJSON, ResultsMarkdown:
	default:
		result = multierror.Append(result, fmt.Errorf("invalid results-format value %q. Should be: json|markdown", c.ResultsFormat))
	}

	if c.Slack {
		if strings.TrimSpace(c.SlackToken) == "" {
			result = multierror.Append(result, errors.New("slack is enabled but SLACK_TOKEN is not set"))
		}
		if strings.TrimSpace(c.SlackChannel) == "" {
			result = multierror.Append(result, errors.New("slack is enabled but SLACK_CHANNEL is not set"))
		}
	}

	return result.ErrorOrNil()
}

// ParseError is returned when a config file exists but cannot be parsed.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return "failed to parse config file " + e.Path + ": " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
