// Package ocr defines the capability interface for plugging text-recognition
// engines into the scan pipeline. The contract is small (one bitmap in, text
// plus confidence out) so engines can be backed by native libraries or remote
// APIs without leaking provider concerns into callers.
package ocr

import (
	"context"
	"image"

	"github.com/wudi/cardkit/imaging"
)

// ImageFormat identifies the content type of an input image.
type ImageFormat string

const (
	ImageFormatPNG  ImageFormat = "image/png"
	ImageFormatJPEG ImageFormat = "image/jpeg"
)

// Input is a single image submitted for recognition.
type Input struct {
	// Image is the encoded payload in the format declared by Format.
	Image []byte
	// Format declares the image content type.
	Format ImageFormat
	// Languages lists trained-data hints (e.g. "eng"); empty means the
	// engine default.
	Languages []string
	// Whitelist restricts recognition to these characters when the engine
	// supports it. Card titles never contain digits or symbols beyond
	// apostrophe, hyphen and comma.
	Whitelist string
	// SingleLine hints that the input holds exactly one line of text.
	SingleLine bool
}

// Result is the recognition outcome for one input.
type Result struct {
	// Text is the recognized string, possibly empty.
	Text string
	// Confidence is the engine's mean word confidence in [0,1].
	Confidence float64
}

// Engine is the recognition provider contract.
type Engine interface {
	Name() string
	Recognize(ctx context.Context, in Input) (Result, error)
}

// upscaleFactor enlarges name-plate crops before recognition; engines
// resolve 30px title text poorly at native resolution.
const upscaleFactor = 3

// Prepare converts a name-plate crop into an engine input: grayscale,
// contrast stretch, Otsu binarization, 3x cubic upscale, PNG encoding.
func Prepare(plate image.Image, langs []string) (Input, error) {
	g := imaging.StretchContrast(imaging.Gray(plate))
	bin := imaging.Binarize(g, imaging.OtsuThreshold(g))
	scaled := imaging.Upscale(bin, upscaleFactor)
	data, err := imaging.EncodePNG(scaled)
	if err != nil {
		return Input{}, err
	}
	return Input{
		Image:      data,
		Format:     ImageFormatPNG,
		Languages:  langs,
		Whitelist:  TitleWhitelist,
		SingleLine: true,
	}, nil
}

// TitleWhitelist is the character set card titles are printed with.
const TitleWhitelist = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz ,'-"
