package ocr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func TestPrepare(t *testing.T) {
	plate := image.NewGray(image.Rect(0, 0, 100, 20))
	for i := range plate.Pix {
		plate.Pix[i] = 180
	}
	// Dark glyph band in the middle of the crop.
	for y := 5; y < 15; y++ {
		for x := 10; x < 60; x++ {
			plate.SetGray(x, y, color.Gray{Y: 30})
		}
	}

	in, err := Prepare(plate, []string{"eng"})
	if err != nil {
		t.Fatalf("Prepare() error = %v", err)
	}
	if in.Format != ImageFormatPNG {
		t.Fatalf("format = %s", in.Format)
	}
	if !in.SingleLine {
		t.Fatalf("title crops are single-line inputs")
	}
	if in.Whitelist != TitleWhitelist {
		t.Fatalf("whitelist = %q", in.Whitelist)
	}
	if len(in.Languages) != 1 || in.Languages[0] != "eng" {
		t.Fatalf("languages = %v", in.Languages)
	}

	decoded, err := png.Decode(bytes.NewReader(in.Image))
	if err != nil {
		t.Fatalf("decode prepared image: %v", err)
	}
	b := decoded.Bounds()
	if b.Dx() != 300 || b.Dy() != 60 {
		t.Fatalf("prepared size = %dx%d, want 3x upscale", b.Dx(), b.Dy())
	}

	// Binarization drives the glyph to black and the background to white
	// (edges blur slightly from the cubic upscale).
	glyph := color.GrayModel.Convert(decoded.At(105, 30)).(color.Gray).Y
	if glyph > 30 {
		t.Fatalf("glyph center = %d, want near black", glyph)
	}
	background := color.GrayModel.Convert(decoded.At(250, 8)).(color.Gray).Y
	if background < 225 {
		t.Fatalf("background = %d, want near white", background)
	}
}
