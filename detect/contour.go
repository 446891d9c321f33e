package detect

import (
	"image"
	"math"
	"sort"

	"github.com/wudi/cardkit/imaging"
)

// cardMask binarizes a grayscale image into card-candidate foreground. A
// pixel counts as foreground when it is darker than the global Otsu split or
// darker than its local window mean by more than delta. Cards photograph
// darker than binder pages and table surfaces; the local term keeps card
// edges intact under uneven lighting.
func cardMask(g *image.Gray, window, delta int) []bool {
	mask := adaptiveMask(g, window, delta)
	b := g.Bounds()
	w := b.Dx()
	split := imaging.OtsuThreshold(g)
	if split == 0 {
		return mask
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if g.GrayAt(x, y).Y < split {
				mask[(y-b.Min.Y)*w+x-b.Min.X] = true
			}
		}
	}
	return mask
}

// adaptiveMask marks pixels darker than their local window mean by more
// than delta.
func adaptiveMask(g *image.Gray, window, delta int) []bool {
	b := g.Bounds()
	w, h := b.Dx(), b.Dy()
	if window <= 0 {
		window = max(15, min(w, h)/8)
	}
	if window%2 == 0 {
		window++
	}

	// Summed-area table, one row/column of zero padding.
	integral := make([]uint64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var rowSum uint64
		for x := 0; x < w; x++ {
			rowSum += uint64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			integral[(y+1)*(w+1)+x+1] = integral[y*(w+1)+x+1] + rowSum
		}
	}

	half := window / 2
	mask := make([]bool, w*h)
	for y := 0; y < h; y++ {
		y0, y1 := max(0, y-half), min(h-1, y+half)
		for x := 0; x < w; x++ {
			x0, x1 := max(0, x-half), min(w-1, x+half)
			count := uint64((x1 - x0 + 1) * (y1 - y0 + 1))
			sum := integral[(y1+1)*(w+1)+x1+1] - integral[y0*(w+1)+x1+1] -
				integral[(y1+1)*(w+1)+x0+1] + integral[y0*(w+1)+x0+1]
			mean := sum / count
			px := uint64(g.GrayAt(b.Min.X+x, b.Min.Y+y).Y)
			mask[y*w+x] = px+uint64(delta) < mean
		}
	}
	return mask
}

// component is one connected foreground region.
type component struct {
	pixels   int
	boundary []image.Point
}

// findComponents labels 4-connected foreground regions and collects, for
// each, the boundary pixels (foreground pixels adjacent to background or the
// image edge). Regions smaller than minPixels are dropped.
func findComponents(mask []bool, w, h, minPixels int) []component {
	labeled := make([]bool, len(mask))
	var comps []component
	queue := make([]int, 0, 1024)

	for start := range mask {
		if !mask[start] || labeled[start] {
			continue
		}
		queue = queue[:0]
		queue = append(queue, start)
		labeled[start] = true
		var c component
		for len(queue) > 0 {
			i := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			c.pixels++
			x, y := i%w, i/w
			edge := false
			for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || ny < 0 || nx >= w || ny >= h {
					edge = true
					continue
				}
				j := ny*w + nx
				if !mask[j] {
					edge = true
					continue
				}
				if !labeled[j] {
					labeled[j] = true
					queue = append(queue, j)
				}
			}
			if edge {
				c.boundary = append(c.boundary, image.Point{X: x, Y: y})
			}
		}
		if c.pixels >= minPixels {
			comps = append(comps, c)
		}
	}
	return comps
}

// convexHull computes the convex hull of pts with Andrew's monotone chain,
// dropping collinear points. Returns the hull in counter-clockwise order.
func convexHull(pts []image.Point) []image.Point {
	if len(pts) < 3 {
		return nil
	}
	sorted := make([]image.Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})

	cross := func(o, a, b image.Point) int64 {
		return int64(a.X-o.X)*int64(b.Y-o.Y) - int64(a.Y-o.Y)*int64(b.X-o.X)
	}

	hull := make([]image.Point, 0, len(sorted))
	for _, p := range sorted {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	lower := len(hull) + 1
	for i := len(sorted) - 2; i >= 0; i-- {
		p := sorted[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	return hull[:len(hull)-1]
}

// reduceToQuad collapses a convex polygon to its four dominant vertices by
// repeatedly removing the vertex whose removal loses the least area.
func reduceToQuad(hull []image.Point) ([4]image.Point, bool) {
	var quad [4]image.Point
	if len(hull) < 4 {
		return quad, false
	}
	poly := make([]image.Point, len(hull))
	copy(poly, hull)
	for len(poly) > 4 {
		bestIdx, bestLoss := -1, math.Inf(1)
		for i := range poly {
			prev := poly[(i+len(poly)-1)%len(poly)]
			next := poly[(i+1)%len(poly)]
			loss := triangleArea(prev, poly[i], next)
			if loss < bestLoss {
				bestLoss = loss
				bestIdx = i
			}
		}
		poly = append(poly[:bestIdx], poly[bestIdx+1:]...)
	}
	copy(quad[:], poly)
	return quad, true
}

func triangleArea(a, b, c image.Point) float64 {
	return math.Abs(float64(int64(b.X-a.X)*int64(c.Y-a.Y)-int64(b.Y-a.Y)*int64(c.X-a.X))) / 2
}

func polygonArea(poly []image.Point) float64 {
	var acc float64
	for i := range poly {
		j := (i + 1) % len(poly)
		acc += float64(poly[i].X)*float64(poly[j].Y) - float64(poly[j].X)*float64(poly[i].Y)
	}
	return math.Abs(acc) / 2
}
