// Package integrity finds corruption markers in document strings. A failed
// text substitution typically leaves runs of question marks behind, so any
// string with two or more consecutive '?' is reported.
package integrity

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kingrea/plansync/internal/plan"
)

// PreviewLength is the maximum preview size in runes.
const PreviewLength = 80

var marker = regexp.MustCompile(`\?{2,}`)

// Finding locates one corrupted string.
type Finding struct {
	Path    plan.Path
	Preview string
}

func (f Finding) String() string {
	return fmt.Sprintf("string contains a corruption marker (repeated '?'): `%s`", f.Preview)
}

// Contains reports whether s holds a corruption marker.
func Contains(s string) bool {
	return marker.MatchString(s)
}

// Scan walks node depth first and returns a finding for every corrupted
// string leaf. Mapping children are visited in document order.
func Scan(node plan.Node, path plan.Path) []Finding {
	var findings []Finding
	scan(node, path, &findings)
	return findings
}

func scan(node plan.Node, path plan.Path, findings *[]Finding) {
	switch n := node.(type) {
	case *plan.Scalar:
		if s, ok := plan.AsString(n); ok && Contains(s) {
			*findings = append(*findings, Finding{Path: path, Preview: preview(s)})
		}
	case plan.Sequence:
		for i, item := range n {
			scan(item, path.Index(i), findings)
		}
	case *plan.Mapping:
		for _, key := range n.Keys() {
			value, _ := n.Get(key)
			scan(value, path.Key(key), findings)
		}
	}
}

func preview(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= PreviewLength {
		return s
	}
	runes := []rune(s)
	return string(runes[:PreviewLength])
}
