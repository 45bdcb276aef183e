package render

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestWrap(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		width      int
		initial    string
		subsequent string
		want       []string
	}{
		{
			name:       "fits",
			text:       "short text",
			width:      80,
			initial:    "- ",
			subsequent: "  ",
			want:       []string{"- short text"},
		},
		{
			name:       "empty",
			text:       "",
			width:      80,
			initial:    "- ",
			subsequent: "  ",
			want:       []string{"-"},
		},
		{
			name:       "blank",
			text:       "   ",
			width:      80,
			initial:    "> ",
			subsequent: "> ",
			want:       []string{">"},
		},
		{
			name:       "continuation-prefix",
			text:       "alpha beta gamma delta epsilon",
			width:      20,
			initial:    "- ",
			subsequent: "  ",
			want:       []string{"- alpha beta gamma", "  delta epsilon"},
		},
		{
			name:       "quote-prefix-every-line",
			text:       "alpha beta gamma delta epsilon",
			width:      20,
			initial:    "> ",
			subsequent: "> ",
			want:       []string{"> alpha beta gamma", "> delta epsilon"},
		},
		{
			name:  "no-break-at-hyphen",
			text:  "aaa bbb-ccc",
			width: 10,
			want:  []string{"aaa", "bbb-ccc"},
		},
		{
			name:       "long-word-alone",
			text:       "see " + strings.Repeat("x", 30) + " end",
			width:      20,
			initial:    "- ",
			subsequent: "  ",
			want:       []string{"- see", "  " + strings.Repeat("x", 30), "  end"},
		},
		{
			name:       "inner-spaces-kept",
			text:       "a  b",
			width:      80,
			initial:    "> ",
			subsequent: "> ",
			want:       []string{"> a  b"},
		},
		{
			name:  "newlines-become-spaces",
			text:  "one\ntwo",
			width: 80,
			want:  []string{"one two"},
		},
		{
			name:  "tabs-expand",
			text:  "a\tb",
			width: 80,
			want:  []string{"a       b"},
		},
		{
			name:       "leading-space-kept-on-first-line",
			text:       "  lead",
			width:      80,
			initial:    "- ",
			subsequent: "  ",
			want:       []string{"-   lead"},
		},
		{
			name:  "runes-not-bytes",
			text:  "ééééé ééééé",
			width: 11,
			want:  []string{"ééééé ééééé"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := Wrap(test.text, test.width, test.initial, test.subsequent)
			if diff := cmp.Diff(test.want, got); diff != "" {
				t.Fatalf("Wrap mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBuilderBlankLines(t *testing.T) {
	b := &Builder{}
	b.Heading("# A")
	b.Bullet("x")
	b.FinalizeBlock()
	b.FinalizeBlock()
	b.Line("")
	b.Heading("## B")
	b.Heading("## C")
	b.Row("a|b", "line\nbreak")
	b.FinalizeBlock()

	want := "# A\n\n- x\n\n## B\n\n## C\n\n| a\\|b | line break |\n"
	if got := b.String(); got != want {
		t.Fatalf("unexpected output:\n%q\nwant:\n%q", got, want)
	}
}
