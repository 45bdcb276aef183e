package plan

import "strconv"

// AsString returns the value of a string scalar.
func AsString(node Node) (string, bool) {
	s, ok := node.(*Scalar)
	if !ok || s == nil || s.Type != TypeString {
		return "", false
	}
	return s.Str, true
}

// AsInt returns the value of an integer scalar. Floats and booleans are
// rejected even when they hold an integral value, and so are integers
// outside the int64 range (see AsBigInt).
func AsInt(node Node) (int64, bool) {
	s, ok := node.(*Scalar)
	if !ok || s == nil || s.Type != TypeInt || s.Digits != "" {
		return 0, false
	}
	return s.Int, true
}

// AsBigInt returns the decimal text of an integer too large for int64.
func AsBigInt(node Node) (string, bool) {
	s, ok := node.(*Scalar)
	if !ok || s == nil || s.Type != TypeInt || s.Digits == "" {
		return "", false
	}
	return s.Digits, true
}

// AsNumber returns the value of an integer or float scalar.
func AsNumber(node Node) (float64, bool) {
	s, ok := node.(*Scalar)
	if !ok || s == nil {
		return 0, false
	}
	switch s.Type {
	case TypeInt:
		if s.Digits != "" {
			f, _ := strconv.ParseFloat(s.Digits, 64)
			return f, true
		}
		return float64(s.Int), true
	case TypeFloat:
		return s.Float, true
	default:
		return 0, false
	}
}

// AsBool returns the value of a boolean scalar.
func AsBool(node Node) (bool, bool) {
	s, ok := node.(*Scalar)
	if !ok || s == nil || s.Type != TypeBool {
		return false, false
	}
	return s.Bool, true
}

// IsNull reports whether node is an explicit null.
func IsNull(node Node) bool {
	s, ok := node.(*Scalar)
	return ok && s != nil && s.Type == TypeNull
}

// AsSequence returns node as a sequence.
func AsSequence(node Node) (Sequence, bool) {
	seq, ok := node.(Sequence)
	return seq, ok
}

// AsMapping returns node as a mapping.
func AsMapping(node Node) (*Mapping, bool) {
	m, ok := node.(*Mapping)
	if !ok || m == nil {
		return nil, false
	}
	return m, true
}

// StringAt returns the string stored under key, or "" when absent or not a string.
func (m *Mapping) StringAt(key string) string {
	value, _ := m.Get(key)
	s, _ := AsString(value)
	return s
}

// SequenceAt returns the sequence stored under key, or nil.
func (m *Mapping) SequenceAt(key string) Sequence {
	value, _ := m.Get(key)
	seq, _ := AsSequence(value)
	return seq
}

// MappingAt returns the mapping stored under key, or nil.
func (m *Mapping) MappingAt(key string) *Mapping {
	value, _ := m.Get(key)
	out, _ := AsMapping(value)
	return out
}
