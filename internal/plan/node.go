// Package plan models the roadmap document as a small tree of scalars,
// sequences and ordered mappings. Every consumer (validator, integrity
// scanner, renderer) dispatches on the concrete node type instead of
// inspecting decoded interface{} values, so key order and the difference
// between ints, floats and booleans survive decoding.
package plan

// Node is one of *Scalar, Sequence or *Mapping.
type Node interface {
	node()
}

// ScalarType enumerates the leaf value kinds.
type ScalarType int

const (
	TypeNull ScalarType = iota
	TypeString
	TypeInt
	TypeFloat
	TypeBool
)

// String returns the structural name used in violation messages.
func (t ScalarType) String() string {
	switch t {
	case TypeNull:
		return "null"
	case TypeString:
		return "string"
	case TypeInt:
		return "integer"
	case TypeFloat:
		return "number"
	case TypeBool:
		return "boolean"
	default:
		return "unknown"
	}
}

// Scalar is a leaf value. Only the field matching Type is meaningful. An
// integer outside the int64 range keeps its decimal text in Digits and
// leaves Int zero.
type Scalar struct {
	Type   ScalarType
	Str    string
	Int    int64
	Digits string
	Float  float64
	Bool   bool
}

// Sequence is an ordered list of nodes.
type Sequence []Node

// Mapping is an object whose keys keep their document order.
type Mapping struct {
	keys   []string
	values map[string]Node
}

func (*Scalar) node()  {}
func (Sequence) node() {}
func (*Mapping) node() {}

// String builds a string scalar.
func String(value string) *Scalar { return &Scalar{Type: TypeString, Str: value} }

// Int builds an integer scalar.
func Int(value int64) *Scalar { return &Scalar{Type: TypeInt, Int: value} }

// BigInt builds an integer scalar from decimal digits that do not fit int64.
func BigInt(digits string) *Scalar { return &Scalar{Type: TypeInt, Digits: digits} }

// Float builds a floating point scalar.
func Float(value float64) *Scalar { return &Scalar{Type: TypeFloat, Float: value} }

// Bool builds a boolean scalar.
func Bool(value bool) *Scalar { return &Scalar{Type: TypeBool, Bool: value} }

// Null builds a null scalar.
func Null() *Scalar { return &Scalar{Type: TypeNull} }

// Strings builds a sequence of string scalars.
func Strings(values ...string) Sequence {
	seq := make(Sequence, 0, len(values))
	for _, value := range values {
		seq = append(seq, String(value))
	}
	return seq
}

// NewMapping returns an empty ordered mapping.
func NewMapping() *Mapping {
	return &Mapping{values: map[string]Node{}}
}

// Set stores value under key. A new key is appended to the key order; an
// existing key keeps its position and has its value replaced.
func (m *Mapping) Set(key string, value Node) *Mapping {
	if m.values == nil {
		m.values = map[string]Node{}
	}
	if _, exists := m.values[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
	return m
}

// Delete removes key if present.
func (m *Mapping) Delete(key string) {
	if m == nil {
		return
	}
	if _, exists := m.values[key]; !exists {
		return
	}
	delete(m.values, key)
	for i, existing := range m.keys {
		if existing == key {
			m.keys = append(m.keys[:i:i], m.keys[i+1:]...)
			break
		}
	}
}

// Get returns the value stored under key.
func (m *Mapping) Get(key string) (Node, bool) {
	if m == nil {
		return nil, false
	}
	value, ok := m.values[key]
	return value, ok
}

// Has reports whether key is present, even when its value is null.
func (m *Mapping) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Keys returns the keys in document order.
func (m *Mapping) Keys() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.keys...)
}

// Len returns the number of entries.
func (m *Mapping) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// TypeName names the structural type of node for messages.
func TypeName(node Node) string {
	switch n := node.(type) {
	case *Scalar:
		if n == nil {
			return "null"
		}
		return n.Type.String()
	case Sequence:
		return "array"
	case *Mapping:
		return "object"
	default:
		return "missing"
	}
}
