package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rickchristie/refine"
	"github.com/rickchristie/refine/bridge"
	"github.com/rickchristie/refine/internal/server"
	"github.com/rickchristie/refine/recovery"
	"github.com/rickchristie/refine/render"
)

var (
	producerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF"))
	criticStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#E5C07B"))
	draftStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#98C379"))
	controlStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Italic(true)
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	headerStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#C678DD"))
	boxStyle      = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

// printer writes stream events to a terminal. Fragments are printed as they arrive; a header
// is printed whenever the source changes.
type printer struct {
	w     io.Writer
	lines bool
	last  refine.Source
	round int
}

func newPrinter(w io.Writer, lines bool) *printer {
	return &printer{w: w, lines: lines}
}

// drain prints every event of stream until it ends.
func (p *printer) drain(ctx context.Context, stream *bridge.Stream) error {
	for ev, err := range stream.All(ctx) {
		if err != nil {
			return err
		}
		p.print(ev)
	}
	p.endBlock()
	return nil
}

func (p *printer) print(ev refine.StreamEvent) {
	if p.lines {
		fmt.Fprintln(p.w, server.EncodeLine(ev))
		return
	}

	switch ev.Source {
	case refine.SourceControl:
		p.endBlock()
		fmt.Fprintln(p.w, controlStyle.Render(ev.Payload))
		p.last = ""
		return
	case refine.SourceError:
		p.endBlock()
		fmt.Fprintln(p.w, errorStyle.Render("Session failed: "+ev.Payload))
		p.last = ""
		return
	case refine.SourceDraftUpdate:
		p.endBlock()
		p.printDraft(ev)
		p.last = ""
		return
	}

	if ev.Source != p.last || ev.Round != p.round {
		p.endBlock()
		fmt.Fprintln(p.w, headerStyle.Render(fmt.Sprintf("[round %d] %s", ev.Round, ev.Source)))
		p.last, p.round = ev.Source, ev.Round
	}
	style := producerStyle
	if ev.Source == refine.SourceCritic {
		style = criticStyle
	}
	fmt.Fprint(p.w, style.Render(ev.Payload))
}

// printDraft shows a recovered draft as a Markdown box.
func (p *printer) printDraft(ev refine.StreamEvent) {
	d, err := recovery.Draft(ev.Payload)
	if err != nil {
		fmt.Fprintln(p.w, draftStyle.Render(ev.Payload))
		return
	}
	title := headerStyle.Render(fmt.Sprintf("[round %d] draft", ev.Round))
	fmt.Fprintln(p.w, title)
	fmt.Fprintln(p.w, boxStyle.Render(draftStyle.Render(strings.TrimRight(render.Markdown(d), "\n"))))
}

func (p *printer) endBlock() {
	if p.last != "" {
		fmt.Fprintln(p.w)
	}
}
