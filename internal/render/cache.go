package render

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

// rendererPools keeps one sync.Pool of glamour renderers per Options.
// A TermRenderer must not be shared by concurrent Render calls, so each
// reply borrows one and hands it back. The TUI redraws every bubble on each
// frame, and bubble widths only change on resize, so the set of keys stays
// small.
type rendererPools struct {
	mu    sync.Mutex
	pools map[Options]*sync.Pool
}

func newRendererPools() *rendererPools {
	return &rendererPools{pools: make(map[Options]*sync.Pool)}
}

var replyRenderers = newRendererPools()

func (p *rendererPools) pool(opts Options) *sync.Pool {
	p.mu.Lock()
	defer p.mu.Unlock()

	pool, ok := p.pools[opts]
	if !ok {
		pool = &sync.Pool{}
		p.pools[opts] = pool
	}
	return pool
}

// borrow returns a renderer for opts, building one when the pool is empty.
func (p *rendererPools) borrow(opts Options) (*glamour.TermRenderer, error) {
	if r, ok := p.pool(opts).Get().(*glamour.TermRenderer); ok {
		return r, nil
	}
	return newRenderer(opts)
}

func (p *rendererPools) release(opts Options, r *glamour.TermRenderer) {
	p.pool(opts).Put(r)
}

// size reports how many distinct option sets have a pool.
func (p *rendererPools) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.pools)
}

func newRenderer(opts Options) (*glamour.TermRenderer, error) {
	rendererOpts := []glamour.TermRendererOption{
		glamour.WithStylePath(opts.Style),
		glamour.WithWordWrap(opts.Width),
	}
	if opts.EnableEmoji {
		rendererOpts = append(rendererOpts, glamour.WithEmoji())
	}
	if opts.PreserveNewLines {
		rendererOpts = append(rendererOpts, glamour.WithPreservedNewLines())
	}
	return glamour.NewTermRenderer(rendererOpts...)
}
