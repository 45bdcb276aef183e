// Package drift decides whether a persisted rendering still matches its
// source document.
package drift

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"github.com/kingrea/plansync/internal/plan"
	"github.com/kingrea/plansync/internal/render"
)

var (
	// ErrNeverRendered means no previous rendering exists.
	ErrNeverRendered = errors.New("drift: document was never rendered")
	// ErrOutOfSync means the previous rendering differs from a fresh one.
	ErrOutOfSync = errors.New("drift: rendering is out of sync with its source")
)

// Status is the outcome of a sync check.
type Status int

const (
	StatusInSync Status = iota
	StatusNeverRendered
	StatusOutOfSync
)

func (s Status) String() string {
	switch s {
	case StatusInSync:
		return "in-sync"
	case StatusNeverRendered:
		return "never-rendered"
	case StatusOutOfSync:
		return "out-of-sync"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result reports a sync check. FirstDiffLine is the 1-based line number of
// the first difference and is zero unless the status is StatusOutOfSync.
type Result struct {
	Status         Status
	Rendered       string
	RenderedDigest string
	PreviousDigest string
	FirstDiffLine  int
}

// InSync reports whether the previous rendering matches.
func (r Result) InSync() bool {
	return r.Status == StatusInSync
}

// Err maps the status to ErrNeverRendered or ErrOutOfSync, or nil when in sync.
func (r Result) Err() error {
	switch r.Status {
	case StatusNeverRendered:
		return ErrNeverRendered
	case StatusOutOfSync:
		return fmt.Errorf("%w (first difference at line %d)", ErrOutOfSync, r.FirstDiffLine)
	default:
		return nil
	}
}

// Check re-renders doc and compares it with previous after normalization.
// A nil previous means nothing was ever rendered.
func Check(doc *plan.Mapping, previous *string) Result {
	rendered := Normalize(render.Document(doc))
	result := Result{Rendered: rendered, RenderedDigest: Digest(rendered)}
	if previous == nil {
		result.Status = StatusNeverRendered
		return result
	}
	current := Normalize(*previous)
	result.PreviousDigest = Digest(current)
	if current != rendered {
		result.Status = StatusOutOfSync
		result.FirstDiffLine = firstDiffLine(rendered, current)
	}
	return result
}

// Normalize converts CRLF and CR line endings to LF and ensures the text
// ends with exactly one newline.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return strings.TrimRight(text, "\n") + "\n"
}

// Digest returns the hex BLAKE3-256 digest of text.
func Digest(text string) string {
	sum := blake3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

func firstDiffLine(a, b string) int {
	left := strings.Split(a, "\n")
	right := strings.Split(b, "\n")
	for i := 0; i < len(left) && i < len(right); i++ {
		if left[i] != right[i] {
			return i + 1
		}
	}
	return min(len(left), len(right)) + 1
}
