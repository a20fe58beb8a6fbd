// Package status computes the overall outcome of a run and renders it as the
// field list shown in the live report.
package status

import "github.com/fakeyudi/luaqa/internal/config"

// Status is the lifecycle state or outcome of a run.
type Status int

const (
	Unknown Status = iota
	InProgress
	Success
	Failure
	Cancelled
	Skipped
)

type info struct {
	name  string
	title string
	color string
}

var table = map[Status]info{
	Unknown:    {"unknown", "Unknown", "#1f242b"},
	InProgress: {"in-progress", "In Progress", "#dcad04"},
	Success:    {"success", "Success", "#24a943"},
	Failure:    {"failure", "Failure", "#cc1f2d"},
	Cancelled:  {"cancelled", "Cancelled", "#1f242b"},
	Skipped:    {"skipped", "Skipped", "#1f242b"},
}

func (s Status) String() string { return table[s].name }

// Title is the display title of s.
func (s Status) Title() string { return table[s].title }

// Color is the built-in color of s.
func (s Status) Color() string { return table[s].color }

// IsTerminal reports whether s is a final outcome.
func (s Status) IsTerminal() bool {
	switch s {
	case Success, Failure, Cancelled, Skipped:
		return true
	}
	return false
}

// MarshalText encodes s by name.
func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// UnmarshalText decodes a status name; unknown names decode to Unknown.
func (s *Status) UnmarshalText(b []byte) error {
	*s = Unknown
	for k, v := range table {
		if v.name == string(b) {
			*s = k
		}
	}
	return nil
}

// ParseForce maps a force-status value to its Status.
func ParseForce(v string) (Status, bool) {
	switch v {
	case config.ForceSuccess:
		return Success, true
	case config.ForceFailure:
		return Failure, true
	case config.ForceCancelled:
		return Cancelled, true
	case config.ForceSkipped:
		return Skipped, true
	}
	return Unknown, false
}

// Compute is the status transition function. While inProgress the status is
// always InProgress. Afterwards a valid force value wins; otherwise failed
// decides between Failure and Success.
func Compute(inProgress bool, force string, failed bool) Status {
	if inProgress {
		return InProgress
	}
	if force != "" {
		if s, ok := ParseForce(force); ok {
			return s
		}
		return InProgress
	}
	if failed {
		return Failure
	}
	return Success
}

// Presentation is how a status is displayed.
type Presentation struct {
	Title string
	Color string
}

// Present renders s with the configured colors. With ignoreFailure a
// Failure is shown as "Completed" in the warning color; the status itself is
// unchanged.
func Present(s Status, colors config.Colors, ignoreFailure bool) Presentation {
	p := Presentation{Title: s.Title(), Color: colors.Default}
	switch s {
	case Success:
		p.Color = colors.Success
	case Failure:
		p.Color = colors.Failure
		if ignoreFailure {
			p.Title = "Completed"
			p.Color = colors.Warning
		}
	}
	return p
}
