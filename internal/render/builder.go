package render

import "strings"

// Builder accumulates output lines and owns the blank-line rules: a heading
// is always separated from the previous block by exactly one blank line, and
// every finished block ends with exactly one blank line.
type Builder struct {
	lines []string
}

// Heading starts a new block with text as its heading line.
func (b *Builder) Heading(text string) {
	b.trimTrailingBlank()
	if len(b.lines) > 0 {
		b.lines = append(b.lines, "")
	}
	b.lines = append(b.lines, text, "")
}

// Bullet appends text as a wrapped list item.
func (b *Builder) Bullet(text string) {
	b.lines = append(b.lines, Wrap(text, Width, "- ", "  ")...)
}

// Quote appends text as a wrapped block quote.
func (b *Builder) Quote(text string) {
	b.lines = append(b.lines, Wrap(text, Width, "> ", "> ")...)
}

// Row appends a table row. Cells are written as-is apart from pipe and
// newline escaping.
func (b *Builder) Row(cells ...string) {
	escaped := make([]string, len(cells))
	for i, cell := range cells {
		escaped[i] = cellReplacer.Replace(cell)
	}
	b.lines = append(b.lines, "| "+strings.Join(escaped, " | ")+" |")
}

// Line appends text verbatim.
func (b *Builder) Line(text string) {
	b.lines = append(b.lines, text)
}

// FinalizeBlock closes the current block with exactly one blank line.
func (b *Builder) FinalizeBlock() {
	b.trimTrailingBlank()
	b.lines = append(b.lines, "")
}

// String joins the lines with LF.
func (b *Builder) String() string {
	return strings.Join(b.lines, "\n")
}

func (b *Builder) trimTrailingBlank() {
	for len(b.lines) > 0 && b.lines[len(b.lines)-1] == "" {
		b.lines = b.lines[:len(b.lines)-1]
	}
}

var cellReplacer = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")
