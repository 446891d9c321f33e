package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"

	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"
)

// ErrUndecodable reports that input bytes could not be decoded as a raster
// image in any registered format.
var ErrUndecodable = errors.New("imaging: undecodable image data")

// Raw is a decoded input photo plus its acquisition metadata. It is owned by
// a single scan request and never persisted.
type Raw struct {
	Bitmap      image.Image
	Format      string
	SourceBytes int
}

// Decode turns encoded image bytes into a Raw. PNG, JPEG and GIF are
// registered; callers may register additional codecs via image.RegisterFormat.
func Decode(data []byte) (Raw, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Raw{}, fmt.Errorf("%w: %v", ErrUndecodable, err)
	}
	return Raw{Bitmap: img, Format: format, SourceBytes: len(data)}, nil
}

// Gray converts any image to 8-bit grayscale.
func Gray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	out := image.NewGray(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

// Downscale shrinks img so that neither dimension exceeds maxDim, preserving
// aspect ratio. Images already within bounds are returned unchanged.
func Downscale(img image.Image, maxDim int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxDim <= 0 || (w <= maxDim && h <= maxDim) {
		return img
	}
	scale := float64(maxDim) / float64(w)
	if h > w {
		scale = float64(maxDim) / float64(h)
	}
	dst := image.NewRGBA(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Upscale enlarges img by an integer factor using Catmull-Rom resampling.
// OCR engines resolve small title text far better after a 3x enlargement.
func Upscale(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// StretchContrast linearly remaps the grayscale range of g to the full
// [0,255] interval. Flat images are returned unchanged.
func StretchContrast(g *image.Gray) *image.Gray {
	lo, hi := uint8(255), uint8(0)
	for _, px := range g.Pix {
		if px < lo {
			lo = px
		}
		if px > hi {
			hi = px
		}
	}
	if hi <= lo {
		return g
	}
	out := image.NewGray(g.Bounds())
	span := float64(hi - lo)
	for i, px := range g.Pix {
		out.Pix[i] = uint8(float64(px-lo) / span * 255)
	}
	return out
}

// OtsuThreshold computes the global binarization threshold that minimizes
// intra-class variance of the grayscale histogram.
func OtsuThreshold(g *image.Gray) uint8 {
	var hist [256]int
	for _, px := range g.Pix {
		hist[px]++
	}
	total := len(g.Pix)
	if total == 0 {
		return 128
	}
	var sum float64
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}
	var sumB, wB float64
	var best float64
	threshold := uint8(128)
	for t := 0; t < 256; t++ {
		wB += float64(hist[t])
		if wB == 0 {
			continue
		}
		wF := float64(total) - wB
		if wF == 0 {
			break
		}
		sumB += float64(t) * float64(hist[t])
		mB := sumB / wB
		mF := (sum - sumB) / wF
		between := wB * wF * (mB - mF) * (mB - mF)
		if between > best {
			best = between
			threshold = uint8(t)
		}
	}
	return threshold
}

// Binarize maps pixels at or above the threshold to white and the rest to
// black.
func Binarize(g *image.Gray, threshold uint8) *image.Gray {
	out := image.NewGray(g.Bounds())
	for i, px := range g.Pix {
		if px >= threshold {
			out.Pix[i] = 255
		}
	}
	return out
}

// Variance returns the luminance variance of g. Uniform regions (empty
// binder pockets, blank frames) sit near zero.
func Variance(g *image.Gray) float64 {
	n := len(g.Pix)
	if n == 0 {
		return 0
	}
	var sum float64
	for _, px := range g.Pix {
		sum += float64(px)
	}
	mean := sum / float64(n)
	var acc float64
	for _, px := range g.Pix {
		d := float64(px) - mean
		acc += d * d
	}
	return acc / float64(n)
}

// MeanLuma returns the mean grayscale value of img restricted to rect.
func MeanLuma(img image.Image, rect image.Rectangle) float64 {
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return 0
	}
	var sum float64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			sum += float64(color.GrayModel.Convert(img.At(x, y)).(color.Gray).Y)
		}
	}
	return sum / float64(rect.Dx()*rect.Dy())
}

// EncodePNG serializes img as PNG, the interchange format handed to OCR
// engines.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
