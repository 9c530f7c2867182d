package models

import (
	"context"
	"sync"
	"time"
	"unicode"

	"github.com/rickchristie/refine"
)

// Scripted is an offline refine.Model that replays canned responses in order, streaming each
// one word by word. After the last response it starts over. It is safe for concurrent use.
type Scripted struct {
	mu        sync.Mutex
	responses []string
	next      int
	delay     time.Duration
}

// NewScripted creates a Scripted model replaying responses.
func NewScripted(responses ...string) *Scripted {
	return &Scripted{responses: responses}
}

// WithDelay sets a pause between streamed chunks. Returns the model for chaining.
func (s *Scripted) WithDelay(d time.Duration) *Scripted {
	s.delay = d
	return s
}

// GenerateStream implements refine.Model.
func (s *Scripted) GenerateStream(
	ctx context.Context,
	_ refine.Prompt,
	onChunk func(chunk string) error,
) (*refine.Completion, error) {
	s.mu.Lock()
	var text string
	if len(s.responses) > 0 {
		text = s.responses[s.next%len(s.responses)]
		s.next++
	}
	s.mu.Unlock()

	startTime := time.Now()
	chunks := splitWords(text)
	for _, chunk := range chunks {
		if s.delay > 0 {
			select {
			case <-time.After(s.delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return nil, err
		}
		if onChunk != nil {
			if err := onChunk(chunk); err != nil {
				return nil, err
			}
		}
	}
	return &refine.Completion{
		Content: text,
		Info: &refine.GenerationInfo{
			OutputTokens: len(chunks),
			TotalTokens:  len(chunks),
			Duration:     time.Since(startTime),
		},
	}, nil
}

// splitWords cuts s after each run of whitespace, so the chunks concatenate back to s.
func splitWords(s string) []string {
	var out []string
	start := 0
	inSpace := false
	for i, r := range s {
		space := unicode.IsSpace(r)
		if inSpace && !space {
			out = append(out, s[start:i])
			start = i
		}
		inSpace = space
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

// NewDemo returns a Scripted model that plays both roles of a two-round session: a first
// draft rated 3, then a revision rated 5. Use the same instance as producer and critic.
func NewDemo() *Scripted {
	first := refine.Draft{
		Title:    "Exports drive growth",
		Subtitle: "Energy leads the rebound",
		Sections: []refine.Section{
			{Title: "Demand", Bullets: []string{"Oil exports rose", "Gas was flat"}},
			{Title: "Risks", Bullets: []string{"Prices are volatile"}},
		},
	}
	second := refine.Draft{
		Title:    "Energy exports drive 60% of growth",
		Subtitle: "Oil volumes offset flat gas demand",
		Sections: []refine.Section{
			{Title: "Demand", Bullets: []string{"Oil exports rose 12% year on year", "Gas volumes held flat at 4 bcf/d"}},
			{Title: "Risks", Bullets: []string{"A $10 oil price drop cuts growth by a third"}},
		},
	}
	review := refine.Critique{
		Rating: 3,
		Comments: []refine.Comment{
			{Element: "title", Comment: "Quantify the growth claim."},
			{Element: "sections[0].section_bullets[0]", Comment: "Give the growth rate."},
		},
		Summary: "Solid structure, but the claims need numbers.",
	}
	approval := refine.Critique{
		Rating:   5,
		Comments: []refine.Comment{},
		Summary:  "Client-ready.",
	}

	return NewScripted(
		"```json\n"+first.Tree().Indent()+"\n```",
		review.JSON(),
		second.JSON(),
		approval.JSON(),
	)
}

var _ refine.Model = (*Scripted)(nil)

