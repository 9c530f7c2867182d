package refine

import (
	"strings"

	"github.com/rickchristie/refine/node"
)

// Draft is the structured record being refined: a titled document made of sections of bullets.
//
// A Draft is a value. Each round produces a new Draft that replaces the previous one wholesale,
// so a malformed round can never leave a half-updated draft behind.
type Draft struct {
	Title    string    `json:"title" yaml:"title"`
	Subtitle string    `json:"subtitle" yaml:"subtitle"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// Section is one titled group of bullets inside a Draft.
type Section struct {
	Title   string   `json:"section_title" yaml:"section_title"`
	Bullets []string `json:"section_bullets" yaml:"section_bullets"`
}

// IsZero reports whether d carries no content.
func (d Draft) IsZero() bool {
	return d.Title == "" && d.Subtitle == "" && len(d.Sections) == 0
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	out := Draft{
		Title:    d.Title,
		Subtitle: d.Subtitle,
		Sections: make([]Section, len(d.Sections)),
	}
	for i, s := range d.Sections {
		out.Sections[i] = Section{
			Title:   s.Title,
			Bullets: append([]string(nil), s.Bullets...),
		}
	}
	return out
}

// Normalize returns a copy of d where Sections and every Bullets slice are non-nil, list and
// emphasis markup is stripped from bullets, and empty bullets are dropped.
func (d Draft) Normalize() Draft {
	out := Draft{
		Title:    strings.TrimSpace(d.Title),
		Subtitle: strings.TrimSpace(d.Subtitle),
		Sections: make([]Section, 0, len(d.Sections)),
	}
	for _, s := range d.Sections {
		bullets := make([]string, 0, len(s.Bullets))
		for _, b := range s.Bullets {
			if b = NormalizeBullet(b); b != "" {
				bullets = append(bullets, b)
			}
		}
		out.Sections = append(out.Sections, Section{
			Title:   strings.TrimSpace(s.Title),
			Bullets: bullets,
		})
	}
	return out
}

// NormalizeBullet strips leading list markers ("*", "-", "+", "•") and bold/underline emphasis
// markers from a bullet, and trims surrounding whitespace. A marker is only stripped when it is
// followed by whitespace, so "-5% margin" keeps its sign.
func NormalizeBullet(b string) string {
	b = strings.ReplaceAll(b, "**", "")
	b = strings.ReplaceAll(b, "__", "")
	for {
		b = strings.TrimSpace(b)
		rest, ok := cutListMarker(b)
		if !ok {
			return b
		}
		b = rest
	}
}

func cutListMarker(b string) (string, bool) {
	for _, marker := range []string{"*", "-", "+", "•"} {
		rest, found := strings.CutPrefix(b, marker)
		if !found {
			continue
		}
		if rest == "" {
			return "", true
		}
		if rest[0] == ' ' || rest[0] == '\t' {
			return rest, true
		}
	}
	return b, false
}

// Tree returns d as a generic tree using the wire field names.
func (d Draft) Tree() *node.Node {
	sections := node.NewArray()
	for _, s := range d.Sections {
		bullets := node.NewArray()
		for _, b := range s.Bullets {
			bullets.Append(node.NewString(b))
		}
		sections.Append(node.NewObject().
			Set("section_title", node.NewString(s.Title)).
			Set("section_bullets", bullets))
	}
	return node.NewObject().
		Set("title", node.NewString(d.Title)).
		Set("subtitle", node.NewString(d.Subtitle)).
		Set("sections", sections)
}

// JSON returns the compact JSON text of d. The text recovers to an equal Draft.
func (d Draft) JSON() string {
	return d.Tree().JSON()
}
