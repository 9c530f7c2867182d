package recovery

import (
	"github.com/rickchristie/refine"
	"github.com/rickchristie/refine/node"
)

// Draft recovers a draft from model output. Failures are returned as *Error and carry text.
func Draft(text string) (refine.Draft, error) {
	tree, err := Recover(text)
	if err != nil {
		return refine.Draft{}, err
	}
	d, err := DecodeDraft(tree)
	if err != nil {
		return refine.Draft{}, &Error{Text: text, Err: err}
	}
	return d, nil
}

// Critique recovers a critique from model output. Failures are returned as *Error and carry
// text.
func Critique(text string) (refine.Critique, error) {
	tree, err := Recover(text)
	if err != nil {
		return refine.Critique{}, err
	}
	c, err := DecodeCritique(tree)
	if err != nil {
		return refine.Critique{}, &Error{Text: text, Err: err}
	}
	return c, nil
}

// DecodeDraft validates tree against the draft schema and decodes it. The result is normalized:
// sections and bullets are never nil and bullets carry no list markup. Non-string bullets are
// kept as their compact JSON text.
func DecodeDraft(tree *node.Node) (refine.Draft, error) {
	if err := validate(draftSchema, "draft", tree); err != nil {
		return refine.Draft{}, err
	}

	d := refine.Draft{
		Title:    field(tree, "title"),
		Subtitle: field(tree, "subtitle"),
	}
	sections, _ := tree.Get("sections")
	for _, s := range sections.Items() {
		section := refine.Section{Title: field(s, "section_title")}
		bullets, _ := s.Get("section_bullets")
		for _, b := range bullets.Items() {
			section.Bullets = append(section.Bullets, text(b))
		}
		d.Sections = append(d.Sections, section)
	}
	return d.Normalize(), nil
}

// DecodeCritique validates tree against the critique schema and decodes it. A missing or
// unreadable rating decodes as 0; ratings are clamped to 0..5. A bare string comment becomes a
// comment without an element.
func DecodeCritique(tree *node.Node) (refine.Critique, error) {
	if err := validate(critiqueSchema, "critique", tree); err != nil {
		return refine.Critique{}, err
	}

	c := refine.Critique{
		Comments: []refine.Comment{},
		Summary:  field(tree, "summary"),
	}
	if r, ok := tree.Get("rating"); ok {
		c.Rating, _ = r.Int()
	}
	c.Rating = min(max(c.Rating, 0), refine.MaxRating)

	comments, _ := tree.Get("comments")
	for _, item := range comments.Items() {
		if item.Kind() != node.Object {
			c.Comments = append(c.Comments, refine.Comment{Comment: text(item)})
			continue
		}
		c.Comments = append(c.Comments, refine.Comment{
			Element: field(item, "element"),
			Comment: field(item, "comment"),
		})
	}
	return c, nil
}

func field(n *node.Node, key string) string {
	v, ok := n.Get(key)
	if !ok {
		return ""
	}
	return text(v)
}

// text renders a node as plain text: strings as-is, null as empty, containers as compact JSON.
func text(n *node.Node) string {
	switch n.Kind() {
	case node.Null:
		return ""
	case node.Array, node.Object:
		return n.JSON()
	default:
		return n.Str()
	}
}
