package plan

import (
	"math"
	"strconv"
	"strings"
)

// Text formats node for human-readable output. Strings are returned
// verbatim; collections are written in a compact flow form with quoted
// strings. A nil node formats as "".
func Text(node Node) string {
	if s, ok := node.(*Scalar); ok && s != nil && s.Type == TypeString {
		return s.Str
	}
	if node == nil {
		return ""
	}
	var b strings.Builder
	writeFlow(&b, node)
	return b.String()
}

func writeFlow(b *strings.Builder, node Node) {
	switch n := node.(type) {
	case *Scalar:
		if n == nil {
			b.WriteString("null")
			return
		}
		switch n.Type {
		case TypeString:
			b.WriteString(strconv.Quote(n.Str))
		case TypeInt:
			if n.Digits != "" {
				b.WriteString(n.Digits)
			} else {
				b.WriteString(strconv.FormatInt(n.Int, 10))
			}
		case TypeFloat:
			b.WriteString(FormatFloat(n.Float))
		case TypeBool:
			b.WriteString(strconv.FormatBool(n.Bool))
		default:
			b.WriteString("null")
		}
	case Sequence:
		b.WriteByte('[')
		for i, item := range n {
			if i > 0 {
				b.WriteString(", ")
			}
			writeFlow(b, item)
		}
		b.WriteByte(']')
	case *Mapping:
		b.WriteByte('{')
		for i, key := range n.Keys() {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(key))
			b.WriteString(": ")
			value, _ := n.Get(key)
			writeFlow(b, value)
		}
		b.WriteByte('}')
	default:
		b.WriteString("null")
	}
}

// FormatFloat writes f in its shortest round-trip form. Integral values keep
// a trailing ".0" so they stay distinguishable from integers, and very large
// or very small magnitudes switch to exponent notation.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		return "nan"
	}
	abs := math.Abs(f)
	if abs != 0 && (abs < 1e-4 || abs >= 1e16) {
		return strconv.FormatFloat(f, 'e', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".") {
		s += ".0"
	}
	return s
}
