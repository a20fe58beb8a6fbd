package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/hashicorp/go-multierror"

	"github.com/fakeyudi/luaqa/internal/lint"
)

// LookupFunc returns the value of an environment variable, like os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// InputKey returns the environment variable GitHub Actions uses for an input.
func InputKey(name string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(name, " ", "_"))
}

func input(lookup LookupFunc, name string) string {
	v, _ := lookup(InputKey(name))
	return strings.TrimSpace(v)
}

// parseBool accepts the YAML 1.2 core schema booleans.
func parseBool(name, value string) (bool, error) {
	switch value {
	case "true", "True", "TRUE":
		return true, nil
	case "false", "False", "FALSE":
		return false, nil
	}
	return false, fmt.Errorf("input does not meet YAML 1.2 \"Core Schema\" specification: %s\n"+
		"Support boolean input list: `true | True | TRUE | false | False | FALSE`", name)
}

// ApplyInputs overlays the action inputs found through lookup. Empty inputs
// are ignored. Every malformed boolean or argument list is reported.
func (c *Config) ApplyInputs(lookup LookupFunc) error {
	var result *multierror.Error

	bools := []struct {
		name string
		dst  *bool
	}{
		{"busted", &c.Busted},
		{"ldoc", &c.LDoc},
		{"luacheck", &c.Luacheck},
		{"prettier", &c.Prettier},
		{"stylua", &c.StyLua},
		{"slack", &c.Slack},
		{"ignore-check-versions", &c.IgnoreCheckVersions},
		{"ignore-failure", &c.IgnoreFailure},
		{"ignore-set-output", &c.IgnoreSetOutput},
	}
	for _, b := range bools {
		v := input(lookup, b.name)
		if v == "" {
			continue
		}
		parsed, err := parseBool(b.name, v)
		if err != nil {
			result = multierror.Append(result, err)
			continue
		}
		*b.dst = parsed
	}

	strs := []struct {
		name string
		dst  *string
	}{
		{"slack-color-default", &c.Colors.Default},
		{"slack-color-failure", &c.Colors.Failure},
		{"slack-color-success", &c.Colors.Success},
		{"slack-color-warning", &c.Colors.Warning},
		{"slack-force-status", &c.ForceStatus},
		{"results-file", &c.ResultsFile},
		{"results-format", &c.ResultsFormat},
	}
	for _, s := range strs {
		if v := input(lookup, s.name); v != "" {
			*s.dst = v
		}
	}

	for _, tool := range lint.Tools {
		if tool != lint.LDoc {
			if v := input(lookup, "slack-"+tool+"-format"); v != "" {
				c.setFormat(tool, Format(v))
			}
		}
		if v := input(lookup, tool+"-args"); v != "" {
			if err := c.SetArgs(tool, v); err != nil {
				result = multierror.Append(result, err)
			}
		}
	}

	return result.ErrorOrNil()
}

// ApplyEnv reads the Slack credentials from SLACK_TOKEN and SLACK_CHANNEL.
// The channel only overrides a configured one when set.
func (c *Config) ApplyEnv(lookup LookupFunc) {
	if v, ok := lookup("SLACK_TOKEN"); ok {
		c.SlackToken = strings.TrimSpace(v)
	}
	if v, ok := lookup("SLACK_CHANNEL"); ok && strings.TrimSpace(v) != "" {
		c.SlackChannel = strings.TrimSpace(v)
	}
}

// Load builds the configuration for dir from, in increasing precedence, the
// defaults, the global file, the project file, the action inputs and the
// Slack environment variables. The result is not validated.
func Load(dir string, lookup LookupFunc) (Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	global, err := LoadGlobal()
	if err != nil {
		return Config{}, err
	}
	project, err := LoadProject(dir)
	if err != nil {
		return Config{}, err
	}
	cfg, err := Merge(global, project)
	if err != nil {
		return Config{}, err
	}
	cfg.WorkDir = dir
	if err := cfg.ApplyInputs(lookup); err != nil {
		return Config{}, err
	}
	cfg.ApplyEnv(lookup)
	return cfg, nil
}
