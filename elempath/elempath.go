// Package elempath resolves element paths used by critiques, such as
// "sections[1].section_bullets[0]", to the draft text they point at.
//
// Resolution is best-effort annotation: a path that cannot be followed resolves to itself.
package elempath

import (
	"regexp"
	"strconv"

	"github.com/rickchristie/refine/node"
)

var segmentPattern = regexp.MustCompile(`(\w+)(?:\[(\d+)\])?`)

// Segment is one "key" or "key[index]" step of a path.
type Segment struct {
	Key string

	// Index is the array index, or -1 when the segment has none.
	Index int
}

// Parse splits path into segments. Text between segments (dots, spaces, stray punctuation) is
// ignored.
func Parse(path string) []Segment {
	matches := segmentPattern.FindAllStringSubmatch(path, -1)
	segments := make([]Segment, 0, len(matches))
	for _, m := range matches {
		seg := Segment{Key: m[1], Index: -1}
		if m[2] != "" {
			i, err := strconv.Atoi(m[2])
			if err != nil {
				// Index overflow; no node can be found at it.
				i = int(^uint(0) >> 1)
			}
			seg.Index = i
		}
		segments = append(segments, seg)
	}
	return segments
}

// Resolve returns the text at path inside tree.
//
// Keys are looked up in objects. An index is tried 0-based first and, when that fails, as
// 1-based, because producers are inconsistent about which convention they use. A string node
// resolves to its text; any other node to its compact JSON. If any step fails, path itself is
// returned.
func Resolve(tree *node.Node, path string) string {
	segments := Parse(path)
	if len(segments) == 0 {
		return path
	}

	cur := tree
	for _, seg := range segments {
		next, ok := cur.Get(seg.Key)
		if !ok {
			return path
		}
		if seg.Index >= 0 {
			next, ok = index(next, seg.Index)
			if !ok {
				return path
			}
		}
		cur = next
	}

	if cur.Kind() == node.String {
		return cur.Str()
	}
	return cur.JSON()
}

func index(n *node.Node, i int) (*node.Node, bool) {
	if v, ok := n.Index(i); ok {
		return v, true
	}
	return n.Index(i - 1)
}
