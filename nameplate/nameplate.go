// Package nameplate crops the title band from a rectified card image. Cards
// share a fixed layout, so a static relative rectangle is sufficient once the
// card has been rectified to canonical proportions.
package nameplate

import "image"

// Band describes the title region as fractions of the rectified card's
// dimensions.
type Band struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// DefaultBand covers the printed title bar of a standard card frame, with a
// side margin that skips the border art.
var DefaultBand = Band{Top: 0.06, Bottom: 0.16, Left: 0.08, Right: 0.92}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

// Crop returns the title-band sub-image of card. Out-of-range fractions are
// clamped to the card bounds; an inverted or empty band yields a zero-size
// image rather than a panic.
func Crop(card image.Image, b Band) image.Image {
	bounds := card.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	rect := image.Rect(
		bounds.Min.X+int(b.Left*float64(w)),
		bounds.Min.Y+int(b.Top*float64(h)),
		bounds.Min.X+int(b.Right*float64(w)),
		bounds.Min.Y+int(b.Bottom*float64(h)),
	).Intersect(bounds)

	if si, ok := card.(subImager); ok {
		return si.SubImage(rect)
	}
	out := image.NewRGBA(rect)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			out.Set(x, y, card.At(x, y))
		}
	}
	return out
}
