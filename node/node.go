// Package node provides a generic, order-preserving tree for structured data recovered from
// model output.
//
// A Node is one of six variants: null, bool, number, string, array or object. Traversal code
// switches on [Node.Kind] instead of type-asserting arbitrary values, and object keys keep the
// order in which they were parsed so that re-rendering a tree is stable.
//
// Trees are normally produced by [Parse] (strict JSON) or by the recovery package, which builds
// them from more permissive input.
package node

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// Kind identifies the variant held by a Node.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Number:
		return "number"
	case String:
		return "string"
	case Array:
		return "array"
	case Object:
		return "object"
	default:
		return "unknown"
	}
}

// Node is a tagged tree node.
//
// For scalar kinds, text holds the decoded string value (String), the number literal (Number)
// or "true"/"false" (Bool). Arrays use items; objects use keys and items as parallel slices.
type Node struct {
	kind  Kind
	text  string
	keys  []string
	items []*Node
}

// NewNull returns a null node.
func NewNull() *Node { return &Node{kind: Null} }

// NewBool returns a bool node.
func NewBool(b bool) *Node {
	return &Node{kind: Bool, text: strconv.FormatBool(b)}
}

// NewString returns a string node.
func NewString(s string) *Node { return &Node{kind: String, text: s} }

// NewInt returns a number node holding i.
func NewInt(i int) *Node {
	return &Node{kind: Number, text: strconv.Itoa(i)}
}

// NewNumber returns a number node holding the given literal. The literal is not validated;
// callers pass text that already parsed as a number.
func NewNumber(literal string) *Node { return &Node{kind: Number, text: literal} }

// NewArray returns an array node holding items.
func NewArray(items ...*Node) *Node {
	n := &Node{kind: Array, items: make([]*Node, 0, len(items))}
	n.items = append(n.items, items...)
	return n
}

// NewObject returns an empty object node.
func NewObject() *Node {
	return &Node{kind: Object}
}

// Kind returns the variant of n. A nil node reports Null.
func (n *Node) Kind() Kind {
	if n == nil {
		return Null
	}
	return n.kind
}

// IsContainer reports whether n is an array or an object.
func (n *Node) IsContainer() bool {
	k := n.Kind()
	return k == Array || k == Object
}

// Set stores v under key, replacing an existing value in place so key order is preserved.
// Returns n for chaining. Set on a non-object node is a no-op.
func (n *Node) Set(key string, v *Node) *Node {
	if n == nil || n.kind != Object {
		return n
	}
	if v == nil {
		v = NewNull()
	}
	for i, k := range n.keys {
		if k == key {
			n.items[i] = v
			return n
		}
	}
	n.keys = append(n.keys, key)
	n.items = append(n.items, v)
	return n
}

// Append adds v to the end of an array node. Returns n for chaining.
func (n *Node) Append(v *Node) *Node {
	if n == nil || n.kind != Array {
		return n
	}
	if v == nil {
		v = NewNull()
	}
	n.items = append(n.items, v)
	return n
}

// Get returns the value stored under key. It reports false when n is not an object or the key
// is absent.
func (n *Node) Get(key string) (*Node, bool) {
	if n.Kind() != Object {
		return nil, false
	}
	for i, k := range n.keys {
		if k == key {
			return n.items[i], true
		}
	}
	return nil, false
}

// Index returns the i-th element of an array node. It reports false when n is not an array or
// i is out of range. Negative indexes are out of range.
func (n *Node) Index(i int) (*Node, bool) {
	if n.Kind() != Array || i < 0 || i >= len(n.items) {
		return nil, false
	}
	return n.items[i], true
}

// Len returns the number of elements of an array or entries of an object, and 0 otherwise.
func (n *Node) Len() int {
	if !n.IsContainer() {
		return 0
	}
	return len(n.items)
}

// Keys returns the object keys in insertion order.
func (n *Node) Keys() []string {
	if n.Kind() != Object {
		return nil
	}
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

// Items returns the array elements, or the object values in key order.
func (n *Node) Items() []*Node {
	if !n.IsContainer() {
		return nil
	}
	out := make([]*Node, len(n.items))
	copy(out, n.items)
	return out
}

// Str returns the value of a string node, and the literal text of a number or bool node.
// It returns "" for null and container nodes.
func (n *Node) Str() string {
	if n == nil || n.IsContainer() {
		return ""
	}
	return n.text
}

// Int returns the integer value of a number node, or of a string node whose text is a number.
// Fractional values are truncated.
func (n *Node) Int() (int, bool) {
	switch n.Kind() {
	case Number, String:
		s := strings.TrimSpace(n.text)
		if i, err := strconv.Atoi(s); err == nil {
			return i, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int(f), true
		}
	}
	return 0, false
}

// Any converts the tree into plain Go values: map[string]any, []any, string, bool, nil and
// json.Number. The result is the form expected by JSON Schema validators.
func (n *Node) Any() any {
	switch n.Kind() {
	case Bool:
		return n.text == "true"
	case Number:
		return json.Number(n.text)
	case String:
		return n.text
	case Array:
		out := make([]any, len(n.items))
		for i, item := range n.items {
			out[i] = item.Any()
		}
		return out
	case Object:
		out := make(map[string]any, len(n.items))
		for i, k := range n.keys {
			out[k] = n.items[i].Any()
		}
		return out
	default:
		return nil
	}
}

// JSON renders n as compact JSON. Keys keep their insertion order.
func (n *Node) JSON() string {
	var sb strings.Builder
	n.write(&sb)
	return sb.String()
}

// Indent renders n as indented JSON.
func (n *Node) Indent() string {
	out := pretty.PrettyOptions([]byte(n.JSON()), &pretty.Options{
		Width:    80,
		Indent:   "  ",
		SortKeys: false,
	})
	return strings.TrimRight(string(out), "\n")
}

func (n *Node) write(sb *strings.Builder) {
	switch n.Kind() {
	case Null:
		sb.WriteString("null")
	case Bool, Number:
		sb.WriteString(n.text)
	case String:
		writeQuoted(sb, n.text)
	case Array:
		sb.WriteByte('[')
		for i, item := range n.items {
			if i > 0 {
				sb.WriteByte(',')
			}
			item.write(sb)
		}
		sb.WriteByte(']')
	case Object:
		sb.WriteByte('{')
		for i, k := range n.keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeQuoted(sb, k)
			sb.WriteByte(':')
			n.items[i].write(sb)
		}
		sb.WriteByte('}')
	}
}

const hexDigits = "0123456789abcdef"

// writeQuoted writes s as a JSON string literal. Non-ASCII text is written as-is.
func writeQuoted(sb *strings.Builder, s string) {
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\r':
			sb.WriteString(`\r`)
		case '\t':
			sb.WriteString(`\t`)
		default:
			if c < 0x20 {
				sb.WriteString(`\u00`)
				sb.WriteByte(hexDigits[c>>4])
				sb.WriteByte(hexDigits[c&0xf])
				continue
			}
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
}

// Parse strictly parses JSON text into a tree. It reports false when text is not valid JSON.
func Parse(text string) (*Node, bool) {
	if !gjson.Valid(text) {
		return nil, false
	}
	return FromResult(gjson.Parse(text)), true
}

// FromResult converts a gjson result into a tree, preserving object key order.
func FromResult(r gjson.Result) *Node {
	switch r.Type {
	case gjson.False:
		return NewBool(false)
	case gjson.True:
		return NewBool(true)
	case gjson.Number:
		return NewNumber(strings.TrimSpace(r.Raw))
	case gjson.String:
		return NewString(r.String())
	case gjson.JSON:
		if r.IsArray() {
			arr := NewArray()
			r.ForEach(func(_, v gjson.Result) bool {
				arr.Append(FromResult(v))
				return true
			})
			return arr
		}
		obj := NewObject()
		r.ForEach(func(k, v gjson.Result) bool {
			obj.Set(k.String(), FromResult(v))
			return true
		})
		return obj
	default:
		return NewNull()
	}
}
