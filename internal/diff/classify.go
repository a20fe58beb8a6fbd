// Package diff turns before/after file contents into line-anchored change
// entries. Line numbers always refer to the original text so that entries can
// be attached to real source lines even though the comparison is made against
// a tool's proposed output.
package diff

import (
	"encoding/json"
	"fmt"
)

// Action classifies a change entry.
type Action int

const (
	Add Action = iota + 1
	Remove
	Replace
)

func (a Action) String() string {
	switch a {
	case Add:
		return "add"
	case Remove:
		return "remove"
	case Replace:
		return "replace"
	}
	return ""
}

// MarshalJSON encodes the action by name.
func (a Action) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON decodes an action name.
func (a *Action) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "add":
		*a = Add
	case "remove":
		*a = Remove
	case "replace":
		*a = Replace
	default:
		return fmt.Errorf("unknown diff action %q", s)
	}
	return nil
}

// Entry is one classified change. EndLine is zero unless Action is Replace,
// and PreviousText is only set for Replace.
type Entry struct {
	Action       Action `json:"action"`
	StartLine    int    `json:"startLine"`
	EndLine      int    `json:"endLine,omitempty"`
	Text         string `json:"text"`
	PreviousText string `json:"previousText,omitempty"`
}

// Classify compares original with changed using the default LineDiffer.
func Classify(original, changed string) []Entry {
	return ClassifyWith(LineDiffer{}, original, changed)
}

// ClassifyWith compares original with changed using d and returns entries in
// hunk order. A removal directly followed by an addition is reported as one
// Replace entry.
func ClassifyWith(d Differ, original, changed string) []Entry {
	if original == changed {
		return nil
	}

	hunks := d.Hunks(original, changed)
	skip := make(map[int]bool)
	line := 1

	var entries []Entry
	for i, h := range hunks {
		switch {
		case !h.Added && !h.Removed:
			line += h.Count

		case isPureRemove(h):
			if i+1 < len(hunks) && isPureAdd(hunks[i+1]) {
				start := line
				line += h.Count
				skip[i+1] = true
				entries = append(entries, Entry{
					Action:       Replace,
					StartLine:    start,
					EndLine:      line,
					Text:         hunks[i+1].Text,
					PreviousText: h.Text,
				})
				continue
			}
			entries = append(entries, Entry{Action: Remove, StartLine: line, Text: h.Text})
			line += h.Count

		case h.Added && !skip[i]:
			entries = append(entries, Entry{Action: Add, StartLine: line, Text: h.Text})
		}
	}
	return entries
}
