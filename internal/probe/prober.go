package probe

import (
	"context"
	"os"
	"path/filepath"

	"github.com/backmassage/vidconvert/internal/naming"
	"github.com/backmassage/vidconvert/internal/runner"
)

// Prober runs the external prober with caching.
type Prober struct {
	Binary string
	Runner runner.Runner
	Cache  *Cache
}

// New returns a Prober for binary backed by r and a wall-clock cache.
func New(binary string, r runner.Runner) *Prober {
	return &Prober{Binary: binary, Runner: r, Cache: NewCache(nil)}
}

// Probe returns metadata for path. Non-MP4 or missing files return the
// empty Result without running the prober. Prober failures are cached as
// the empty Result.
func (p *Prober) Probe(ctx context.Context, path string) Result {
	if !naming.IsMP4(path) {
		return Empty()
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Empty()
	}
	fi, err := os.Stat(abs)
	if err != nil || !fi.Mode().IsRegular() {
		return Empty()
	}

	if r, ok := p.Cache.Lookup(abs, fi.ModTime()); ok {
		return r
	}

	res := p.Runner.Run(ctx, runner.Command{Name: p.Binary, Args: []string{abs}}, nil)
	r := Empty()
	if res.Success() && !cannotOpen(res.Output) {
		r = Parse(res.Output)
	}
	// A cancelled run says nothing about the file; don't cache it.
	if ctx.Err() == nil {
		p.Cache.Store(abs, r)
	}
	return r
}

// Invalidate forgets the cached result for path.
func (p *Prober) Invalidate(path string) {
	if abs, err := filepath.Abs(path); err == nil {
		p.Cache.Invalidate(abs)
	}
}

// Clear forgets every cached result.
func (p *Prober) Clear() {
	p.Cache.Clear()
}

// Dimensions is shorthand for Probe(ctx, path).Dimensions.
func (p *Prober) Dimensions(ctx context.Context, path string) *Dimensions {
	return p.Probe(ctx, path).Dimensions
}

// AudioBitrate is shorthand for the probed audio bitrate in bits/s.
func (p *Prober) AudioBitrate(ctx context.Context, path string) float64 {
	return p.Probe(ctx, path).AudioBitrate.Bps
}

// VideoBitrate is shorthand for the probed video bitrate in bits/s.
func (p *Prober) VideoBitrate(ctx context.Context, path string) float64 {
	return p.Probe(ctx, path).VideoBitrate.Bps
}
