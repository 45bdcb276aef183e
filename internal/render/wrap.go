package render

import (
	"strings"
	"unicode/utf8"
)

// Width is the maximum rendered line width in runes, prefix included.
const Width = 80

const tabSize = 8

// Wrap fills text into lines of at most width runes. The first line starts
// with initial and every following line with subsequent. Words are never
// split, even at hyphens; a word wider than the available space gets a line
// of its own. Whitespace runs inside a line are kept as-is, whitespace at
// line breaks is dropped. Empty input yields the trimmed initial prefix.
func Wrap(text string, width int, initial, subsequent string) []string {
	chunks := splitChunks(normalizeWhitespace(expandTabs(text)))

	// chunks is consumed from the end.
	for i, j := 0, len(chunks)-1; i < j; i, j = i+1, j-1 {
		chunks[i], chunks[j] = chunks[j], chunks[i]
	}

	var lines []string
	for len(chunks) > 0 {
		indent := initial
		if len(lines) > 0 {
			indent = subsequent
		}
		avail := width - utf8.RuneCountInString(indent)

		if len(lines) > 0 && isSpace(chunks[len(chunks)-1]) {
			chunks = chunks[:len(chunks)-1]
		}

		var line []string
		lineLen := 0
		for len(chunks) > 0 {
			n := utf8.RuneCountInString(chunks[len(chunks)-1])
			if lineLen+n > avail {
				break
			}
			line = append(line, chunks[len(chunks)-1])
			lineLen += n
			chunks = chunks[:len(chunks)-1]
		}

		if len(chunks) > 0 && utf8.RuneCountInString(chunks[len(chunks)-1]) > avail && len(line) == 0 {
			line = append(line, chunks[len(chunks)-1])
			chunks = chunks[:len(chunks)-1]
		}

		if len(line) > 0 && isSpace(line[len(line)-1]) {
			line = line[:len(line)-1]
		}
		if len(line) > 0 {
			lines = append(lines, indent+strings.Join(line, ""))
		}
	}

	if len(lines) == 0 {
		return []string{strings.TrimRight(initial, " \t")}
	}
	return lines
}

func expandTabs(s string) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	var b strings.Builder
	column := 0
	for _, r := range s {
		switch r {
		case '\t':
			spaces := tabSize - column%tabSize
			b.WriteString(strings.Repeat(" ", spaces))
			column += spaces
		case '\n', '\r':
			b.WriteRune(r)
			column = 0
		default:
			b.WriteRune(r)
			column++
		}
	}
	return b.String()
}

func normalizeWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '\n', '\r', '\v', '\f', '\t':
			return ' '
		}
		return r
	}, s)
}

// splitChunks splits s into alternating word and space-run chunks.
func splitChunks(s string) []string {
	if s == "" {
		return nil
	}
	var chunks []string
	start := 0
	for i := 1; i <= len(s); i++ {
		if i == len(s) || (s[i] == ' ') != (s[start] == ' ') {
			chunks = append(chunks, s[start:i])
			start = i
		}
	}
	return chunks
}

func isSpace(chunk string) bool {
	return strings.TrimLeft(chunk, " ") == ""
}
