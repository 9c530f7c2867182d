package refine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeBullet(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "plain text unchanged", input: "Sales grew 20%", expected: "Sales grew 20%"},
		{name: "dash marker", input: "- Sales grew", expected: "Sales grew"},
		{name: "star marker with bold", input: "* **Sales** grew", expected: "Sales grew"},
		{name: "bullet glyph", input: "•\tExports rose", expected: "Exports rose"},
		{name: "nested markers", input: "  - * item", expected: "item"},
		{name: "negative number keeps sign", input: "-5% margin", expected: "-5% margin"},
		{name: "underline emphasis", input: "__Key__ point", expected: "Key point"},
		{name: "marker only", input: " - ", expected: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeBullet(tt.input))
		})
	}
}

func TestDraft_Normalize(t *testing.T) {
	type input struct {
		draft Draft
	}

	type expected struct {
		draft Draft
	}

	tests := []struct {
		name     string
		input    input
		expected expected
	}{
		{
			name:  "zero draft gets empty sections",
			input: input{draft: Draft{}},
			expected: expected{
				draft: Draft{Sections: []Section{}},
			},
		},
		{
			name: "nil bullets become empty and markup is stripped",
			input: input{draft: Draft{
				Title: " Title ",
				Sections: []Section{
					{Title: "A"},
					{Title: "B", Bullets: []string{"- one", "", "**two**"}},
				},
			}},
			expected: expected{
				draft: Draft{
					Title: "Title",
					Sections: []Section{
						{Title: "A", Bullets: []string{}},
						{Title: "B", Bullets: []string{"one", "two"}},
					},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected.draft, tt.input.draft.Normalize())
		})
	}
}

func TestDraft_JSON(t *testing.T) {
	d := Draft{
		Title:    `Canada's "Economy"`,
		Subtitle: "Growth",
		Sections: []Section{{Title: "X", Bullets: []string{"a", "b"}}},
	}

	assert.Equal(t,
		`{"title":"Canada's \"Economy\"","subtitle":"Growth",`+
			`"sections":[{"section_title":"X","section_bullets":["a","b"]}]}`,
		d.JSON(),
	)
}

func TestDraft_CloneIsDeep(t *testing.T) {
	d := Draft{Sections: []Section{{Title: "X", Bullets: []string{"a"}}}}

	c := d.Clone()
	c.Sections[0].Bullets[0] = "changed"
	c.Sections[0].Title = "Y"

	assert.Equal(t, "a", d.Sections[0].Bullets[0])
	assert.Equal(t, "X", d.Sections[0].Title)
}

func TestDraft_IsZero(t *testing.T) {
	assert.True(t, Draft{}.IsZero())
	assert.True(t, Draft{Sections: []Section{}}.IsZero())
	assert.False(t, Draft{Title: "t"}.IsZero())
}

func TestFormatFeedback(t *testing.T) {
	tests := []struct {
		name     string
		input    []Comment
		expected string
	}{
		{name: "no comments", input: nil, expected: ""},
		{
			name: "one line per comment",
			input: []Comment{
				{Element: "Sales grew", Comment: "Quantify"},
				{Element: "sections[9]", Comment: "Unclear"},
			},
			expected: "Sales grew: Quantify\nsections[9]: Unclear",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatFeedback(tt.input))
		})
	}
}

func TestCritique_JSON(t *testing.T) {
	c := Critique{
		Rating:   4,
		Comments: []Comment{{Element: "e", Comment: "c"}},
		Summary:  "ok",
	}

	assert.Equal(t, `{"rating":4,"comments":[{"element":"e","comment":"c"}],"summary":"ok"}`, c.JSON())
}
