package plan

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKeepsKeyOrderAndScalarTypes(t *testing.T) {
	input := `{"b": 1, "a": 2.5, "c": true, "d": null, "e": "10", "f": [1, "x"], "g": {"z": 1, "y": 2}}`
	node, err := Parse([]byte(input))
	require.NoError(t, err)

	root, ok := AsMapping(node)
	require.True(t, ok)
	assert.Equal(t, []string{"b", "a", "c", "d", "e", "f", "g"}, root.Keys())

	b, _ := root.Get("b")
	i, ok := AsInt(b)
	require.True(t, ok)
	assert.Equal(t, int64(1), i)

	a, _ := root.Get("a")
	_, isInt := AsInt(a)
	assert.False(t, isInt, "2.5 must not decode as an integer")
	f, ok := AsNumber(a)
	require.True(t, ok)
	assert.Equal(t, 2.5, f)

	c, _ := root.Get("c")
	_, cIsNumber := AsNumber(c)
	assert.False(t, cIsNumber, "booleans are never numbers")

	d, _ := root.Get("d")
	assert.True(t, IsNull(d))

	e, _ := root.Get("e")
	s, ok := AsString(e)
	require.True(t, ok, "quoted digits stay strings")
	assert.Equal(t, "10", s)

	assert.Len(t, root.SequenceAt("f"), 2)
	assert.Equal(t, []string{"z", "y"}, root.MappingAt("g").Keys())
}

func TestParseStripsByteOrderMark(t *testing.T) {
	node, err := Parse(append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"k": "v"}`)...))
	require.NoError(t, err)
	root, ok := AsMapping(node)
	require.True(t, ok)
	assert.Equal(t, "v", root.StringAt("k"))
}

func TestParseAcceptsYAML(t *testing.T) {
	node, err := Parse([]byte("second: 2\nfirst:\n  - one\n  - two\n"))
	require.NoError(t, err)
	root, ok := AsMapping(node)
	require.True(t, ok)
	assert.Equal(t, []string{"second", "first"}, root.Keys())
	assert.Len(t, root.SequenceAt("first"), 2)
}

func TestParseRejectsUnreadableInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "whitespace", input: "  \n\t"},
		{name: "broken-json", input: `{"a": [1, 2}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnreadable), "got %v", err)
		})
	}
}

func TestParseNonObjectRoot(t *testing.T) {
	node, err := Parse([]byte(`[1, 2, 3]`))
	require.NoError(t, err)
	_, ok := AsMapping(node)
	assert.False(t, ok)
	assert.Equal(t, "array", TypeName(node))
}

func TestLoadWrapsPath(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	assert.Contains(t, err.Error(), "read plan file")

	path := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o644))
	_, err = Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnreadable))
	assert.False(t, errors.Is(err, os.ErrNotExist))
}

func TestParseJSONEncoderOutput(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  Node
	}{
		{name: "surrogate-pair", value: `"\ud83d\ude00 and \u00e9"`, want: String("\U0001F600 and \u00e9")},
		{name: "escaped-solidus", value: `"http:\/\/x"`, want: String("http://x")},
		{name: "nul", value: `"a\u0000b"`, want: String("a\x00b")},
		{name: "short-escapes", value: `"tab\tquote\"slash\\\b\f\r\n"`, want: String("tab\tquote\"slash\\\b\f\r\n")},
		{name: "lone-surrogate", value: `"\ud800"`, want: String("\uFFFD")},
		{name: "int", value: `7`, want: Int(7)},
		{name: "negative-zero", value: `-0`, want: Int(0)},
		{name: "int64-max", value: `9223372036854775807`, want: Int(9223372036854775807)},
		{name: "int64-min", value: `-9223372036854775808`, want: Int(-9223372036854775808)},
		{name: "beyond-int64", value: `9223372036854775808`, want: BigInt("9223372036854775808")},
		{name: "huge-negative", value: `-123456789012345678901234567890`, want: BigInt("-123456789012345678901234567890")},
		{name: "integral-float", value: `1.0`, want: Float(1)},
		{name: "exponent", value: `1e2`, want: Float(100)},
		{name: "float-overflow", value: `1e400`, want: Float(math.Inf(1))},
		{name: "empty-array", value: `[]`, want: Sequence{}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			node, err := Parse([]byte(`{"a": ` + test.value + `}`))
			require.NoError(t, err)
			root, ok := AsMapping(node)
			require.True(t, ok)
			got, _ := root.Get("a")
			assert.Equal(t, test.want, got)
		})
	}
}

func TestParseJSONDuplicateKeyKeepsFirstPosition(t *testing.T) {
	node, err := Parse([]byte(`{"a": 1, "b": 2, "a": 3}`))
	require.NoError(t, err)
	root, _ := AsMapping(node)
	assert.Equal(t, []string{"a", "b"}, root.Keys())
	value, _ := root.Get("a")
	got, _ := AsInt(value)
	assert.Equal(t, int64(3), got)
}

func TestParseJSONRejectsWhatYAMLWouldAccept(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "trailing-comma", input: `{"a": 1,}`},
		{name: "unquoted-key", input: `{a: 1}`},
		{name: "trailing-data", input: `{"a": 1} {"b": 2}`},
		{name: "truncated", input: `{"a": [1, 2`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrUnreadable), "got %v", err)
		})
	}
}

func TestBigIntAccessors(t *testing.T) {
	node := BigInt("123456789012345678901234567890")
	_, ok := AsInt(node)
	assert.False(t, ok)
	digits, ok := AsBigInt(node)
	require.True(t, ok)
	assert.Equal(t, "123456789012345678901234567890", digits)
	f, ok := AsNumber(node)
	require.True(t, ok)
	assert.InDelta(t, 1.2345678901234568e29, f, 1e15)
	assert.Equal(t, "integer", TypeName(node))
	assert.Equal(t, "[123456789012345678901234567890]", Text(Sequence{node}))

	_, ok = AsBigInt(Int(5))
	assert.False(t, ok)
}

func TestParseYAMLBeyondInt64(t *testing.T) {
	node, err := Parse([]byte("id: 123456789012345678901234567890\n"))
	require.NoError(t, err)
	root, _ := AsMapping(node)
	value, _ := root.Get("id")
	assert.Equal(t, BigInt("123456789012345678901234567890"), value)
}

func TestMappingSetKeepsFirstPosition(t *testing.T) {
	m := NewMapping().Set("a", Int(1)).Set("b", Int(2)).Set("a", Int(3))
	assert.Equal(t, []string{"a", "b"}, m.Keys())
	value, _ := m.Get("a")
	got, _ := AsInt(value)
	assert.Equal(t, int64(3), got)

	m.Delete("a")
	assert.Equal(t, []string{"b"}, m.Keys())
	assert.False(t, m.Has("a"))
}

func TestPath(t *testing.T) {
	p := Root.Key("3_Progress").Index(2).Key("checklist").Index(0).Key("step")
	assert.Equal(t, "$.3_Progress[2].checklist[0].step", p.String())
	assert.Equal(t, "top", Path("").Key("top").String())
}

func TestText(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want string
	}{
		{name: "string", node: String("plain text"), want: "plain text"},
		{name: "int", node: Int(42), want: "42"},
		{name: "integral-float", node: Float(10), want: "10.0"},
		{name: "fraction", node: Float(2.5), want: "2.5"},
		{name: "tiny", node: Float(0.00001), want: "1e-05"},
		{name: "bool", node: Bool(true), want: "true"},
		{name: "null", node: Null(), want: "null"},
		{name: "missing", node: nil, want: ""},
		{name: "sequence", node: Sequence{String("a"), Int(1)}, want: `["a", 1]`},
		{name: "mapping", node: NewMapping().Set("k", Bool(false)), want: `{"k": false}`},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, Text(test.node))
		})
	}
}
