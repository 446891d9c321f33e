// Package detect locates card-shaped quadrilaterals in a photo. It feeds the
// rectification stage: nothing here fails when no cards are present, an empty
// result is a normal outcome.
package detect

import (
	"image"
	"sort"

	"github.com/wudi/cardkit/imaging"
	"github.com/wudi/cardkit/observability"
)

// GridSlots is the number of pockets on a standard binder page (3x3).
const GridSlots = 9

// Config tunes quad detection. Zero values select the defaults.
type Config struct {
	// MinAreaFrac rejects components smaller than this fraction of the
	// image area. Default 0.01.
	MinAreaFrac float64
	// MaxAreaFrac rejects quads covering almost the whole frame; those are
	// the frame itself, not a card in it. Default 0.95.
	MaxAreaFrac float64
	// AspectTolerance is the maximum allowed deviation from the card
	// width:height ratio. Default 0.25.
	AspectTolerance float64
	// ThresholdDelta is how much darker than the local mean a pixel must be
	// to count as foreground. Default 12.
	ThresholdDelta int
	// Window is the local-mean window size in pixels; 0 picks one from the
	// image dimensions.
	Window int
	// Solidity is the minimum ratio of component pixels to hull area, used
	// to reject concave blobs. Default 0.85.
	Solidity float64
}

func (c Config) withDefaults() Config {
	if c.MinAreaFrac == 0 {
		c.MinAreaFrac = 0.01
	}
	if c.MaxAreaFrac == 0 {
		c.MaxAreaFrac = 0.95
	}
	if c.AspectTolerance == 0 {
		c.AspectTolerance = 0.25
	}
	if c.ThresholdDelta == 0 {
		c.ThresholdDelta = 12
	}
	if c.Solidity == 0 {
		c.Solidity = 0.85
	}
	return c
}

// Locator finds card quads in photos. It is stateless and safe for
// concurrent use.
type Locator struct {
	cfg Config
	log observability.Logger
}

// NewLocator builds a Locator with the given configuration.
func NewLocator(cfg Config, log observability.Logger) *Locator {
	if log == nil {
		log = observability.NopLogger{}
	}
	return &Locator{cfg: cfg.withDefaults(), log: log}
}

// Quads returns every accepted card-shaped quad in img, largest first.
func (l *Locator) Quads(img image.Image) []Quad {
	g := imaging.Gray(img)
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 8 || h < 8 {
		return nil
	}
	minPixels := int(l.cfg.MinAreaFrac * float64(w) * float64(h))

	maxArea := l.cfg.MaxAreaFrac * float64(w) * float64(h)

	mask := cardMask(g, l.cfg.Window, l.cfg.ThresholdDelta)
	comps := findComponents(mask, w, h, minPixels)

	var quads []Quad
	for _, c := range comps {
		hull := convexHull(c.boundary)
		if hull == nil {
			continue
		}
		hullArea := polygonArea(hull)
		if hullArea <= 0 || float64(c.pixels)/hullArea < l.cfg.Solidity {
			continue
		}
		corners, ok := reduceToQuad(hull)
		if !ok {
			continue
		}
		q := orderCorners(corners)
		q.TL = q.TL.Add(b.Min)
		q.TR = q.TR.Add(b.Min)
		q.BR = q.BR.Add(b.Min)
		q.BL = q.BL.Add(b.Min)
		if q.AspectDev > l.cfg.AspectTolerance || q.Area > maxArea {
			continue
		}
		quads = append(quads, q)
	}
	sort.Slice(quads, func(i, j int) bool { return quads[i].Area > quads[j].Area })
	l.log.Debug("detect: quads located", observability.Int("count", len(quads)))
	return quads
}

// Single returns the most plausible card quad for a single-card photo. The
// second return value reports whether a quad was actually detected; when
// false the returned quad spans the full frame so downstream stages can make
// a best-effort attempt anyway.
func (l *Locator) Single(img image.Image) (Quad, bool) {
	quads := l.Quads(img)
	if len(quads) == 0 {
		return FullFrame(img.Bounds()), false
	}
	return quads[0], true
}

// Binder assigns detected quads to the nine pockets of a 3x3 binder page.
// Quads are banded by centroid: three row bands by y, three column bands by
// x. A pocket with no accepted quad stays nil. When two quads land in the
// same pocket the larger one wins.
func (l *Locator) Binder(img image.Image) [GridSlots]*Quad {
	var slots [GridSlots]*Quad
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return slots
	}
	for _, q := range l.Quads(img) {
		c := q.Center()
		row := min(2, (c.Y-b.Min.Y)*3/h)
		col := min(2, (c.X-b.Min.X)*3/w)
		idx := row*3 + col
		if slots[idx] == nil || slots[idx].Area < q.Area {
			quad := q
			slots[idx] = &quad
		}
	}
	return slots
}
