// Package render turns drafts and critiques into human-readable documents.
package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/rickchristie/refine"
	"github.com/yuin/goldmark"
)

// Markdown renders d as a Markdown document: the title as a heading, the subtitle in italics
// and one second-level heading per section followed by its bullets.
func Markdown(d refine.Draft) string {
	var sb strings.Builder
	if d.Title != "" {
		fmt.Fprintf(&sb, "# %s\n\n", d.Title)
	}
	if d.Subtitle != "" {
		fmt.Fprintf(&sb, "_%s_\n\n", d.Subtitle)
	}
	for _, s := range d.Sections {
		fmt.Fprintf(&sb, "## %s\n\n", s.Title)
		for _, b := range s.Bullets {
			fmt.Fprintf(&sb, "- %s\n", b)
		}
		if len(s.Bullets) > 0 {
			sb.WriteString("\n")
		}
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}

// HTML renders d as an HTML fragment by converting its Markdown rendering.
func HTML(d refine.Draft) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(Markdown(d)), &buf); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return buf.String(), nil
}

// Critique renders c as Markdown: the rating, one bullet per comment and the summary.
func Critique(c refine.Critique) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Rating:** %d/%d\n", c.Rating, refine.MaxRating)
	if len(c.Comments) > 0 {
		sb.WriteString("\n")
		for _, cm := range c.Comments {
			if cm.Element == "" {
				fmt.Fprintf(&sb, "- %s\n", cm.Comment)
				continue
			}
			fmt.Fprintf(&sb, "- %s: %s\n", cm.Element, cm.Comment)
		}
	}
	if c.Summary != "" {
		fmt.Fprintf(&sb, "\n%s\n", c.Summary)
	}
	return sb.String()
}

// Diff returns a unified diff between the Markdown renderings of two drafts. It returns "" when
// they render identically.
func Diff(previous, current refine.Draft) (string, error) {
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(Markdown(previous)),
		B:        difflib.SplitLines(Markdown(current)),
		FromFile: "previous",
		ToFile:   "current",
		Context:  2,
	}
	out, err := difflib.GetUnifiedDiffString(diff)
	if err != nil {
		return "", fmt.Errorf("render diff: %w", err)
	}
	return out, nil
}
