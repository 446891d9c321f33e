// Package rectify warps a detected card quad into an upright, fixed-aspect
// card image. The warp is a pure function: identical inputs always produce
// identical output.
package rectify

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/wudi/cardkit/detect"
	"github.com/wudi/cardkit/imaging"
)

// Target dimensions of a rectified card, ten pixels per millimetre of a
// physical 63x88mm card face.
const (
	TargetWidth  = 630
	TargetHeight = 880
)

// Card warps the region of src bounded by q into a TargetWidth x TargetHeight
// image and orients it right-side-up.
func Card(src image.Image, q detect.Quad) (*image.RGBA, error) {
	h, err := homography(
		[4][2]float64{{0, 0}, {TargetWidth - 1, 0}, {TargetWidth - 1, TargetHeight - 1}, {0, TargetHeight - 1}},
		[4][2]float64{
			{float64(q.TL.X), float64(q.TL.Y)},
			{float64(q.TR.X), float64(q.TR.Y)},
			{float64(q.BR.X), float64(q.BR.Y)},
			{float64(q.BL.X), float64(q.BL.Y)},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("rectify: %w", err)
	}

	dst := image.NewRGBA(image.Rect(0, 0, TargetWidth, TargetHeight))
	for y := 0; y < TargetHeight; y++ {
		for x := 0; x < TargetWidth; x++ {
			sx, sy := apply(h, float64(x), float64(y))
			dst.SetRGBA(x, y, sample(src, sx, sy))
		}
	}
	return orient(dst), nil
}

// homography solves the 8-DOF projective transform mapping the four src
// points onto the four dst points. Returned as a row-major 3x3 matrix with
// h33 fixed to 1.
func homography(src, dst [4][2]float64) ([9]float64, error) {
	// Eight equations in eight unknowns, Gaussian elimination with partial
	// pivoting.
	var m [8][9]float64
	for i := 0; i < 4; i++ {
		sx, sy := src[i][0], src[i][1]
		dx, dy := dst[i][0], dst[i][1]
		m[2*i] = [9]float64{sx, sy, 1, 0, 0, 0, -sx * dx, -sy * dx, dx}
		m[2*i+1] = [9]float64{0, 0, 0, sx, sy, 1, -sx * dy, -sy * dy, dy}
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(m[pivot][col]) < 1e-12 {
			return [9]float64{}, fmt.Errorf("degenerate corner geometry")
		}
		m[col], m[pivot] = m[pivot], m[col]
		for r := 0; r < 8; r++ {
			if r == col {
				continue
			}
			f := m[r][col] / m[col][col]
			for c := col; c < 9; c++ {
				m[r][c] -= f * m[col][c]
			}
		}
	}

	var h [9]float64
	for i := 0; i < 8; i++ {
		h[i] = m[i][8] / m[i][i]
	}
	h[8] = 1
	return h, nil
}

func apply(h [9]float64, x, y float64) (float64, float64) {
	w := h[6]*x + h[7]*y + h[8]
	if w == 0 {
		return 0, 0
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w
}

// sample reads src at a fractional coordinate with bilinear interpolation,
// clamping to the image bounds.
func sample(src image.Image, fx, fy float64) color.RGBA {
	b := src.Bounds()
	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	tx := fx - float64(x0)
	ty := fy - float64(y0)

	clamp := func(x, y int) (r, g, bl, a float64) {
		if x < b.Min.X {
			x = b.Min.X
		}
		if x >= b.Max.X {
			x = b.Max.X - 1
		}
		if y < b.Min.Y {
			y = b.Min.Y
		}
		if y >= b.Max.Y {
			y = b.Max.Y - 1
		}
		cr, cg, cb, ca := src.At(x, y).RGBA()
		return float64(cr >> 8), float64(cg >> 8), float64(cb >> 8), float64(ca >> 8)
	}

	r00, g00, b00, a00 := clamp(x0, y0)
	r10, g10, b10, a10 := clamp(x0+1, y0)
	r01, g01, b01, a01 := clamp(x0, y0+1)
	r11, g11, b11, a11 := clamp(x0+1, y0+1)

	lerp2 := func(v00, v10, v01, v11 float64) uint8 {
		top := v00 + (v10-v00)*tx
		bot := v01 + (v11-v01)*tx
		return uint8(math.Round(top + (bot-top)*ty))
	}
	return color.RGBA{
		R: lerp2(r00, r10, r01, r11),
		G: lerp2(g00, g10, g01, g11),
		B: lerp2(b00, b10, b01, b11),
		A: lerp2(a00, a10, a01, a11),
	}
}

// orientEpsilon is the minimum top/bottom luminance difference for the
// upside-down heuristic to act. Below it the contour orientation stands.
const orientEpsilon = 8.0

// orient flips the card 180 degrees when it appears upside down. Card title
// bands print dark text on the top edge, so a markedly darker bottom sixth
// suggests the contour was traced from a rotated card.
func orient(card *image.RGBA) *image.RGBA {
	b := card.Bounds()
	band := b.Dy() / 6
	top := imaging.MeanLuma(card, image.Rect(b.Min.X, b.Min.Y, b.Max.X, b.Min.Y+band))
	bottom := imaging.MeanLuma(card, image.Rect(b.Min.X, b.Max.Y-band, b.Max.X, b.Max.Y))
	if bottom+orientEpsilon >= top {
		return card
	}
	flipped := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			flipped.SetRGBA(b.Max.X-1-x+b.Min.X, b.Max.Y-1-y+b.Min.Y, card.RGBAAt(x, y))
		}
	}
	return flipped
}
