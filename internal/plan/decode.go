package plan

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnreadable marks input that cannot be decoded into a document tree at all.
var ErrUnreadable = errors.New("plan: document unreadable")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// maxDepth bounds recursion through nested collections and aliases.
const maxDepth = 256

// Parse decodes a JSON or YAML document into a node tree. Input whose first
// non-blank byte is '{' or '[' is strict JSON; anything else goes through the
// YAML parser. Both keep mapping key order, and a repeated key keeps its first
// position with the last value. A leading UTF-8 byte-order mark is ignored.
func Parse(data []byte) (Node, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrUnreadable)
	}
	var (
		node Node
		err  error
	)
	if trimmed[0] == '{' || trimmed[0] == '[' {
		node, err = parseJSON(trimmed)
	} else {
		node, err = parseYAML(data)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return node, nil
}

// Load reads and parses the document stored at path. Read failures wrap the
// underlying *fs.PathError; content failures wrap ErrUnreadable.
func Load(path string) (Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}
	return Parse(data)
}

func parseJSON(data []byte) (Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	node, err := readJSON(dec, 0)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("unexpected data after the document at offset %d", dec.InputOffset())
	}
	return node, nil
}

func readJSON(dec *json.Decoder, depth int) (Node, error) {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		if depth > maxDepth {
			return nil, fmt.Errorf("nesting deeper than %d levels", maxDepth)
		}
		switch t {
		case '{':
			out := NewMapping()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("offset %d: object key must be a string", dec.InputOffset())
				}
				value, err := readJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				out.Set(key, value)
			}
			if err := closeJSON(dec); err != nil {
				return nil, err
			}
			return out, nil
		case '[':
			out := Sequence{}
			for dec.More() {
				value, err := readJSON(dec, depth+1)
				if err != nil {
					return nil, err
				}
				out = append(out, value)
			}
			if err := closeJSON(dec); err != nil {
				return nil, err
			}
			return out, nil
		default:
			return nil, fmt.Errorf("offset %d: unexpected %q", dec.InputOffset(), t)
		}
	case string:
		return String(t), nil
	case json.Number:
		return jsonNumber(t)
	case bool:
		return Bool(t), nil
	case nil:
		return Null(), nil
	default:
		return nil, fmt.Errorf("offset %d: unexpected token %v", dec.InputOffset(), tok)
	}
}

func closeJSON(dec *json.Decoder) error {
	_, err := dec.Token()
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// jsonNumber keeps the integer/float split of the literal. Integers beyond
// int64 become BigInt; floats beyond float64 become infinities.
func jsonNumber(n json.Number) (Node, error) {
	text := n.String()
	if strings.ContainsAny(text, ".eE") {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, fmt.Errorf("invalid number %q", text)
		}
		return Float(f), nil
	}
	i, err := strconv.ParseInt(text, 10, 64)
	switch {
	case err == nil:
		return Int(i), nil
	case errors.Is(err, strconv.ErrRange):
		return BigInt(text), nil
	default:
		return nil, fmt.Errorf("invalid number %q", text)
	}
}

func parseYAML(data []byte) (Node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return nil, errors.New("document is empty")
		}
		root = root.Content[0]
	}
	return convert(root, 0)
}

func convert(n *yaml.Node, depth int) (Node, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("nesting deeper than %d levels", maxDepth)
	}
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias == nil {
			return nil, fmt.Errorf("line %d: dangling alias", n.Line)
		}
		return convert(n.Alias, depth+1)
	case yaml.MappingNode:
		out := NewMapping()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i]
			if key.Kind == yaml.AliasNode && key.Alias != nil {
				key = key.Alias
			}
			if key.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
			}
			value, err := convert(n.Content[i+1], depth+1)
			if err != nil {
				return nil, err
			}
			out.Set(key.Value, value)
		}
		return out, nil
	case yaml.SequenceNode:
		out := make(Sequence, 0, len(n.Content))
		for _, item := range n.Content {
			value, err := convert(item, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, value)
		}
		return out, nil
	case yaml.ScalarNode:
		return convertScalar(n)
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return Null(), nil
		}
		return convert(n.Content[0], depth+1)
	default:
		return nil, fmt.Errorf("line %d: unsupported node kind %d", n.Line, n.Kind)
	}
}

func convertScalar(n *yaml.Node) (Node, error) {
	switch n.ShortTag() {
	case "!!null":
		return Null(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Bool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err == nil {
			return Int(i), nil
		}
		if digits, ok := decimalDigits(n.Value); ok {
			return BigInt(digits), nil
		}
		return nil, fmt.Errorf("line %d: invalid integer %q", n.Line, n.Value)
	case "!!float":
		// Plain integers past uint64 resolve as floats in YAML.
		if digits, ok := decimalDigits(n.Value); ok && n.Style == 0 {
			return BigInt(digits), nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return Float(f), nil
	default:
		return String(n.Value), nil
	}
}

// decimalDigits reports whether s is an optionally signed run of decimal
// digits, returning it without a leading '+'.
func decimalDigits(s string) (string, bool) {
	s = strings.TrimPrefix(s, "+")
	body := strings.TrimPrefix(s, "-")
	if body == "" {
		return "", false
	}
	for _, r := range body {
		if r < '0' || r > '9' {
			return "", false
		}
	}
	return s, true
}
