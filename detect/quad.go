package detect

import (
	"image"
	"math"
	"sort"
)

// CardRatio is the width:height ratio of a physical card face (63mm x 88mm).
const CardRatio = 63.0 / 88.0

// Quad is a detected card boundary: four ordered corners in source-image
// pixel coordinates plus its area and the deviation of its width:height
// ratio from CardRatio.
type Quad struct {
	TL, TR, BR, BL image.Point
	Area           float64
	AspectDev      float64
}

// Center returns the centroid of the four corners.
func (q Quad) Center() image.Point {
	return image.Point{
		X: (q.TL.X + q.TR.X + q.BR.X + q.BL.X) / 4,
		Y: (q.TL.Y + q.TR.Y + q.BR.Y + q.BL.Y) / 4,
	}
}

// FullFrame builds a quad spanning the entire bounds. Used as the single-mode
// fallback when no card boundary was detected.
func FullFrame(b image.Rectangle) Quad {
	q := Quad{
		TL: b.Min,
		TR: image.Point{X: b.Max.X - 1, Y: b.Min.Y},
		BR: image.Point{X: b.Max.X - 1, Y: b.Max.Y - 1},
		BL: image.Point{X: b.Min.X, Y: b.Max.Y - 1},
	}
	q.Area = float64(b.Dx()) * float64(b.Dy())
	q.AspectDev = aspectDeviation(q)
	return q
}

// orderCorners arranges four arbitrary corner points into TL/TR/BR/BL order.
// The corner with the smallest coordinate sum is top-left, the largest
// bottom-right; of the remaining two the smaller y-x difference is top-right.
func orderCorners(pts [4]image.Point) Quad {
	idx := []int{0, 1, 2, 3}
	sort.Slice(idx, func(a, b int) bool {
		sa := pts[idx[a]].X + pts[idx[a]].Y
		sb := pts[idx[b]].X + pts[idx[b]].Y
		return sa < sb
	})
	tl, br := pts[idx[0]], pts[idx[3]]
	a, b := pts[idx[1]], pts[idx[2]]
	tr, bl := a, b
	if a.Y-a.X > b.Y-b.X {
		tr, bl = b, a
	}
	q := Quad{TL: tl, TR: tr, BR: br, BL: bl}
	q.Area = quadArea(q)
	q.AspectDev = aspectDeviation(q)
	return q
}

func quadArea(q Quad) float64 {
	pts := []image.Point{q.TL, q.TR, q.BR, q.BL}
	var acc float64
	for i := range pts {
		j := (i + 1) % len(pts)
		acc += float64(pts[i].X)*float64(pts[j].Y) - float64(pts[j].X)*float64(pts[i].Y)
	}
	return math.Abs(acc) / 2
}

// aspectDeviation measures how far the quad's edge-length ratio strays from
// CardRatio, allowing a 90 degree rotated card as well.
func aspectDeviation(q Quad) float64 {
	w := (dist(q.TL, q.TR) + dist(q.BL, q.BR)) / 2
	h := (dist(q.TL, q.BL) + dist(q.TR, q.BR)) / 2
	if w == 0 || h == 0 {
		return math.Inf(1)
	}
	r := w / h
	upright := math.Abs(r/CardRatio - 1)
	rotated := math.Abs(r*CardRatio - 1)
	return math.Min(upright, rotated)
}

func dist(a, b image.Point) float64 {
	dx := float64(a.X - b.X)
	dy := float64(a.Y - b.Y)
	return math.Sqrt(dx*dx + dy*dy)
}
