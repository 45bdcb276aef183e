package plan

import "strconv"

// Path addresses a node inside a document: `$` is the root, `.key` selects a
// mapping child and `[i]` a sequence item.
type Path string

// Root is the path of the document root.
const Root Path = "$"

// Key returns the path of the child stored under key.
func (p Path) Key(key string) Path {
	if p == "" {
		return Path(key)
	}
	return Path(string(p) + "." + key)
}

// Index returns the path of the i-th sequence item.
func (p Path) Index(i int) Path {
	return Path(string(p) + "[" + strconv.Itoa(i) + "]")
}

func (p Path) String() string {
	return string(p)
}
