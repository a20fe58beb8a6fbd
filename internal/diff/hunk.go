package diff

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Hunk is a contiguous run of lines that is either unchanged, purely added or
// purely removed.
type Hunk struct {
	Added   bool
	Removed bool
	Count   int // number of lines in Text
	Text    string
}

// Differ computes line-granularity hunks between two texts.
type Differ interface {
	Hunks(original, changed string) []Hunk
}

// LineDiffer is the default Differ, backed by diff-match-patch in line mode.
// The timeout is disabled so the result is always a minimal edit script.
type LineDiffer struct{}

// Hunks implements Differ.
func (LineDiffer) Hunks(original, changed string) []Hunk {
	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	a, b, lines := dmp.DiffLinesToChars(original, changed)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	hunks := make([]Hunk, 0, len(diffs))
	for _, d := range diffs {
		if d.Text == "" {
			continue
		}
		h := Hunk{
			Added:   d.Type == diffmatchpatch.DiffInsert,
			Removed: d.Type == diffmatchpatch.DiffDelete,
			Count:   countLines(d.Text),
			Text:    d.Text,
		}
		if n := len(hunks); n > 0 && hunks[n-1].Added == h.Added && hunks[n-1].Removed == h.Removed {
			hunks[n-1].Text += h.Text
			hunks[n-1].Count += h.Count
			continue
		}
		hunks = append(hunks, h)
	}
	return normalizeOrder(hunks)
}

// normalizeOrder puts a removal ahead of an insertion it directly follows, so
// that a changed block always reads as remove→add.
func normalizeOrder(hunks []Hunk) []Hunk {
	for i := 0; i+1 < len(hunks); i++ {
		if isPureAdd(hunks[i]) && isPureRemove(hunks[i+1]) {
			hunks[i], hunks[i+1] = hunks[i+1], hunks[i]
			i++
		}
	}
	return hunks
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}

func isPureAdd(h Hunk) bool    { return h.Added && !h.Removed }
func isPureRemove(h Hunk) bool { return h.Removed && !h.Added }
