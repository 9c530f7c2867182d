package refine

import (
	"strings"

	"github.com/rickchristie/refine/node"
)

// MinRating and MaxRating bound a critique rating. A rating of 0 means "no usable rating" and
// never satisfies a threshold.
const (
	MinRating = 1
	MaxRating = 5
)

// Critique is the structured review of a Draft produced by the critic role.
type Critique struct {
	Rating   int       `json:"rating" yaml:"rating"`
	Comments []Comment `json:"comments" yaml:"comments"`
	Summary  string    `json:"summary" yaml:"summary"`
}

// Comment is one remark about a draft element. Element is either a path such as
// "sections[0].section_bullets[1]" or, once resolved, the text the path points at.
type Comment struct {
	Element string `json:"element" yaml:"element"`
	Comment string `json:"comment" yaml:"comment"`
}

// Tree returns c as a generic tree using the wire field names.
func (c Critique) Tree() *node.Node {
	comments := node.NewArray()
	for _, cm := range c.Comments {
		comments.Append(node.NewObject().
			Set("element", node.NewString(cm.Element)).
			Set("comment", node.NewString(cm.Comment)))
	}
	return node.NewObject().
		Set("rating", node.NewInt(c.Rating)).
		Set("comments", comments).
		Set("summary", node.NewString(c.Summary))
}

// JSON returns the compact JSON text of c.
func (c Critique) JSON() string {
	return c.Tree().JSON()
}

// FormatFeedback flattens comments into the feedback string carried into the next round: one
// "element: comment" line per comment.
func FormatFeedback(comments []Comment) string {
	lines := make([]string, 0, len(comments))
	for _, c := range comments {
		lines = append(lines, c.Element+": "+c.Comment)
	}
	return strings.Join(lines, "\n")
}
