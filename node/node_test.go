package node

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	type input struct {
		text string
	}

	type expected struct {
		ok   bool
		kind Kind
		json string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:  "object keeps key order",
			input: input{text: `{"b": 1, "a": [true, null, "x"]}`},
			expected: expected{
				ok:   true,
				kind: Object,
				json: `{"b":1,"a":[true,null,"x"]}`,
			},
		},
		{
			name:  "number literal is kept verbatim",
			input: input{text: `[1.50, -2e3]`},
			expected: expected{
				ok:   true,
				kind: Array,
				json: `[1.50,-2e3]`,
			},
		},
		{
			name:  "string escapes survive re-rendering",
			input: input{text: `{"t": "line\nnext \"quoted\" tab\t"}`},
			expected: expected{
				ok:   true,
				kind: Object,
				json: `{"t":"line\nnext \"quoted\" tab\t"}`,
			},
		},
		{
			name:  "duplicate key keeps first position with last value",
			input: input{text: `{"a": 1, "b": 2, "a": 3}`},
			expected: expected{
				ok:   true,
				kind: Object,
				json: `{"a":3,"b":2}`,
			},
		},
		{
			name:     "invalid json is rejected",
			input:    input{text: `{'a': 1}`},
			expected: expected{ok: false},
		},
		{
			name:     "empty text is rejected",
			input:    input{text: ""},
			expected: expected{ok: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, ok := Parse(tt.input.text)

			assert.Equal(t, tt.expected.ok, ok)
			if !tt.expected.ok {
				assert.Nil(t, n)
				return
			}
			assert.Equal(t, tt.expected.kind, n.Kind())
			assert.Equal(t, tt.expected.json, n.JSON())
		})
	}
}

func TestNode_Navigation(t *testing.T) {
	tree := NewObject().
		Set("title", NewString("T")).
		Set("items", NewArray(NewString("a"), NewInt(2)))

	title, ok := tree.Get("title")
	require.True(t, ok)
	assert.Equal(t, "T", title.Str())

	items, ok := tree.Get("items")
	require.True(t, ok)
	assert.Equal(t, 2, items.Len())

	second, ok := items.Index(1)
	require.True(t, ok)
	v, ok := second.Int()
	assert.True(t, ok)
	assert.Equal(t, 2, v)

	_, ok = items.Index(2)
	assert.False(t, ok)
	_, ok = items.Index(-1)
	assert.False(t, ok)
	_, ok = title.Get("x")
	assert.False(t, ok)
	_, ok = tree.Index(0)
	assert.False(t, ok)

	assert.Equal(t, []string{"title", "items"}, tree.Keys())
}

func TestNode_Int(t *testing.T) {
	tests := []struct {
		name     string
		input    *Node
		expected int
		ok       bool
	}{
		{name: "integer", input: NewNumber("4"), expected: 4, ok: true},
		{name: "float truncates", input: NewNumber("3.9"), expected: 3, ok: true},
		{name: "numeric string", input: NewString(" 5 "), expected: 5, ok: true},
		{name: "word string", input: NewString("five"), expected: 0, ok: false},
		{name: "bool", input: NewBool(true), expected: 0, ok: false},
		{name: "nil node", input: nil, expected: 0, ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := tt.input.Int()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, v)
		})
	}
}

func TestNode_Any(t *testing.T) {
	n, ok := Parse(`{"r": 4, "c": [{"e": "x"}], "f": false, "z": null}`)
	require.True(t, ok)

	assert.Equal(t, map[string]any{
		"r": json.Number("4"),
		"c": []any{map[string]any{"e": "x"}},
		"f": false,
		"z": nil,
	}, n.Any())
}

func TestNode_Indent(t *testing.T) {
	n := NewObject().Set("a", NewArray(NewInt(1)))

	out := n.Indent()

	assert.Contains(t, out, "\n")
	assert.NotContains(t, out[len(out)-1:], "\n")
	reparsed, ok := Parse(out)
	require.True(t, ok)
	assert.Equal(t, n.JSON(), reparsed.JSON())
}

func TestWriteQuoted_ControlCharacters(t *testing.T) {
	n := NewString("a\x01b")
	assert.Equal(t, `"a\u0001b"`, n.JSON())
}
