package recovery

import (
	"errors"
	"testing"

	"github.com/rickchristie/refine"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecoverStage(t *testing.T) {
	type input struct {
		text string
	}

	type expected struct {
		stage Stage
		json  string
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:  "valid json returns at strict stage",
			input: input{text: `{"title": "A", "sections": []}`},
			expected: expected{
				stage: StageStrict,
				json:  `{"title":"A","sections":[]}`,
			},
		},
		{
			name:  "prose and code fence around object",
			input: input{text: "Here is the slide:\n```json\n{\"title\": \"A\"}\n```\nThanks!"},
			expected: expected{
				stage: StageExtracted,
				json:  `{"title":"A"}`,
			},
		},
		{
			name:  "duplicated outer braces",
			input: input{text: `{{"title": "A", "nested": {"b": 1}}}`},
			expected: expected{
				stage: StageExtracted,
				json:  `{"title":"A","nested":{"b":1}}`,
			},
		},
		{
			name:  "fenced array without braces",
			input: input{text: "```json\n[1, 2]\n```"},
			expected: expected{
				stage: StageExtracted,
				json:  `[1,2]`,
			},
		},
		{
			name:  "single quotes with apostrophe inside a word",
			input: input{text: `{'title': 'Canada's Economy', 'subtitle': 'Growth', 'sections': []}`},
			expected: expected{
				stage: StageQuotes,
				json:  `{"title":"Canada's Economy","subtitle":"Growth","sections":[]}`,
			},
		},
		{
			name:  "escaped single quote and embedded double quote",
			input: input{text: `{'a': 'it\'s', 'b': 'say "hi"'}`},
			expected: expected{
				stage: StageQuotes,
				json:  `{"a":"it's","b":"say \"hi\""}`,
			},
		},
		{
			name:  "mixed quote styles keep double-quoted apostrophes",
			input: input{text: `{"t": "Canada's", 'u': 'x'}`},
			expected: expected{
				stage: StageQuotes,
				json:  `{"t":"Canada's","u":"x"}`,
			},
		},
		{
			name: "truncated streaming output",
			input: input{
				text: `{"title": "A", "sections": [{"section_title": "B", "section_bullets": ["C"`,
			},
			expected: expected{
				stage: StageAutoClose,
				json:  `{"title":"A","sections":[{"section_title":"B","section_bullets":["C"]}]}`,
			},
		},
		{
			name:  "truncated inside a string",
			input: input{text: `{"title": "Hel`},
			expected: expected{
				stage: StageAutoClose,
				json:  `{"title":"Hel"}`,
			},
		},
		{
			name:  "truncated after a dangling colon",
			input: input{text: `{"title": "A", "subtitle":`},
			expected: expected{
				stage: StageAutoClose,
				json:  `{"title":"A","subtitle":null}`,
			},
		},
		{
			name:  "truncated after a dangling key drops the key",
			input: input{text: `{"title": "A", "subtitle"`},
			expected: expected{
				stage: StageAutoClose,
				json:  `{"title":"A"}`,
			},
		},
		{
			name:  "truncated single-quoted output",
			input: input{text: `{'title': 'A', 'sections': [`},
			expected: expected{
				stage: StageAutoClose,
				json:  `{"title":"A","sections":[]}`,
			},
		},
		{
			name:  "python literals",
			input: input{text: `{'a': True, 'b': None, 'c': False}`},
			expected: expected{
				stage: StageLiteral,
				json:  `{"a":true,"b":null,"c":false}`,
			},
		},
		{
			name:  "unquoted keys",
			input: input{text: `{title: Hello, rating: 4, sections: []}`},
			expected: expected{
				stage: StageLiteral,
				json:  `{"title":"Hello","rating":4,"sections":[]}`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, stage, err := RecoverStage(tt.input.text)

			require.NoError(t, err)
			assert.Equal(t, tt.expected.stage, stage)
			assert.Equal(t, tt.expected.json, n.JSON())
		})
	}
}

func TestRecover_Failure(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "plain prose", input: "I could not produce a slide."},
		{name: "empty text", input: ""},
		{name: "scalar json", input: `"just a string"`},
		{name: "number", input: "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := Recover(tt.input)

			assert.Nil(t, n)
			var recErr *Error
			require.ErrorAs(t, err, &recErr)
			assert.Equal(t, tt.input, recErr.Text)
		})
	}
}

func TestDraft_Idempotent(t *testing.T) {
	drafts := []refine.Draft{
		{Sections: []refine.Section{}},
		{
			Title:    "Emerging markets drive 15% growth",
			Subtitle: `Asia leads with "double-digit" gains`,
			Sections: []refine.Section{
				{Title: "Demand", Bullets: []string{"Sales grew 20%", "Canada's share doubled"}},
				{Title: "Risks", Bullets: []string{}},
			},
		},
	}

	for _, d := range drafts {
		got, err := Draft(d.JSON())
		require.NoError(t, err)
		assert.Equal(t, d, got)

		_, stage, err := RecoverStage(d.JSON())
		require.NoError(t, err)
		assert.Equal(t, StageStrict, stage)
	}
}

func TestDraft(t *testing.T) {
	type expected struct {
		draft  refine.Draft
		hasErr bool
	}

	tests := []struct {
		name     string
		input    string
		expected expected
	}{
		{
			name:  "quote conversion example",
			input: `{'title': 'Canada's Economy', 'subtitle': 'Growth', 'sections': []}`,
			expected: expected{
				draft: refine.Draft{
					Title:    "Canada's Economy",
					Subtitle: "Growth",
					Sections: []refine.Section{},
				},
			},
		},
		{
			name:  "auto-closure example",
			input: `{"title": "A", "sections": [{"section_title": "B", "section_bullets": ["C"`,
			expected: expected{
				draft: refine.Draft{
					Title:    "A",
					Sections: []refine.Section{{Title: "B", Bullets: []string{"C"}}},
				},
			},
		},
		{
			name: "bullets are normalized and non-strings kept as text",
			input: `{"title": "T", "sections": [` +
				`{"section_title": "S", "section_bullets": ["- **One**", 2, null]}]}`,
			expected: expected{
				draft: refine.Draft{
					Title:    "T",
					Sections: []refine.Section{{Title: "S", Bullets: []string{"One", "2"}}},
				},
			},
		},
		{
			name:     "array is not a draft",
			input:    `[{"title": "T"}]`,
			expected: expected{hasErr: true},
		},
		{
			name:     "sections must be an array",
			input:    `{"title": "T", "sections": "none"}`,
			expected: expected{hasErr: true},
		},
		{
			name:     "object without draft fields",
			input:    `{"foo": "bar"}`,
			expected: expected{hasErr: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := Draft(tt.input)

			if tt.expected.hasErr {
				var recErr *Error
				require.ErrorAs(t, err, &recErr)
				assert.Equal(t, tt.input, recErr.Text)
				var valErr *ValidationError
				assert.True(t, errors.As(err, &valErr), "expected *ValidationError, got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected.draft, d)
		})
	}
}

func TestCritique(t *testing.T) {
	type expected struct {
		critique refine.Critique
		hasErr   bool
	}

	tests := []struct {
		name     string
		input    string
		expected expected
	}{
		{
			name: "complete critique",
			input: `{"rating": 4, "comments": [{"element": "sections[0].section_bullets[1]", ` +
				`"comment": "Quantify"}], "summary": "Close"}`,
			expected: expected{
				critique: refine.Critique{
					Rating: 4,
					Comments: []refine.Comment{
						{Element: "sections[0].section_bullets[1]", Comment: "Quantify"},
					},
					Summary: "Close",
				},
			},
		},
		{
			name:  "missing rating is zero",
			input: `{"comments": [], "summary": "No rating"}`,
			expected: expected{
				critique: refine.Critique{Rating: 0, Comments: []refine.Comment{}, Summary: "No rating"},
			},
		},
		{
			name:  "string rating and bare string comment",
			input: `{'rating': '3', 'comments': ['Too long'], 'summary': ''}`,
			expected: expected{
				critique: refine.Critique{
					Rating:   3,
					Comments: []refine.Comment{{Comment: "Too long"}},
				},
			},
		},
		{
			name:  "rating is clamped",
			input: `{"rating": 9}`,
			expected: expected{
				critique: refine.Critique{Rating: 5, Comments: []refine.Comment{}},
			},
		},
		{
			name:     "rating of wrong type fails validation",
			input:    `{"rating": [4]}`,
			expected: expected{hasErr: true},
		},
		{
			name:     "unrecoverable text",
			input:    "Looks good to me.",
			expected: expected{hasErr: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Critique(tt.input)

			if tt.expected.hasErr {
				var recErr *Error
				require.ErrorAs(t, err, &recErr)
				assert.Equal(t, tt.input, recErr.Text)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected.critique, c)
		})
	}
}

func TestConvertQuotes(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "no quotes", input: `{a: 1}`, expected: `{a: 1}`},
		{name: "simple", input: `{'a': 'b'}`, expected: `{"a": "b"}`},
		{name: "apostrophe", input: `'don't'`, expected: `"don't"`},
		{name: "newline inside string", input: "'a\nb'", expected: `"a\nb"`},
		{name: "double-quoted string untouched", input: `"it's" 'x'`, expected: `"it's" "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ConvertQuotes(tt.input))
		})
	}
}

func TestAutoClose(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "balanced", input: `{"a": 1}`, expected: `{"a": 1}`},
		{name: "nested open", input: `{"a": [{"b": [1`, expected: `{"a": [{"b": [1]}]}`},
		{name: "brackets inside strings ignored", input: `{"a": "[{"`, expected: `{"a": "[{"}`},
		{name: "dangling comma", input: `[1, 2, `, expected: `[1, 2]`},
		{name: "dangling escape", input: `{"a": "x\`, expected: `{"a": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, AutoClose(tt.input))
		})
	}
}
