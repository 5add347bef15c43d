package main

import (
	"context"
	"io"
	"sync"

	fcolor "github.com/fatih/color"

	"github.com/kazz187/npcgate/internal/interaction"
	"github.com/kazz187/npcgate/pkg/color"
)

// terminalPresenter prints dialogue lines prefixed with the partner name.
// URLs are printed instead of opened.
type terminalPresenter struct {
	mu  sync.Mutex
	w   io.Writer
	url *fcolor.Color
	sep *fcolor.Color
}

func newTerminalPresenter(w io.Writer) *terminalPresenter {
	return &terminalPresenter{
		w:   w,
		url: fcolor.New(fcolor.FgHiBlue, fcolor.Underline),
		sep: fcolor.New(fcolor.Faint),
	}
}

func (p *terminalPresenter) Present(_ context.Context, partner string, out interaction.Output) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if out.Clear {
		_, _ = p.sep.Fprintln(p.w, "--")
	}
	for _, line := range out.Lines {
		color.Fprintln(p.w, partner, line)
	}
	if out.OpenURL != "" {
		color.Fprintln(p.w, partner, "Open: "+p.url.Sprint(out.OpenURL))
	}
}
