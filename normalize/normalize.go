// Package normalize turns raw OCR output into a catalog lookup candidate.
// The transform is deterministic and idempotent: normalizing an already
// normalized string returns it unchanged.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

const (
	// minLetters is the minimum number of letters for a candidate to be
	// worth a catalog lookup. Shorter fragments are OCR noise.
	minLetters = 3
	// maxLen caps candidate length; the longest printed card title is
	// around 35 characters.
	maxLen = 50
)

var (
	// manaBraces matches mana-cost symbols that bleed into the title crop,
	// e.g. {2}{W/U}.
	manaBraces = regexp.MustCompile(`\{[WUBRGCX0-9/]+\}`)
	// spaces collapses whitespace runs.
	spaces = regexp.MustCompile(`\s+`)
)

// artifacts maps glyphs Tesseract commonly mistakes for title characters.
var artifacts = strings.NewReplacer(
	"|", "l",
	"0", "O",
	"1", "l",
	"’", "'",
	"‘", "'",
	"`", "'",
	"—", "-",
	"–", "-",
)

// Candidate cleans raw OCR text into a lookup string. An empty result means
// the text is unusable for matching.
func Candidate(raw string) string {
	s := norm.NFKC.String(raw)

	// The title is the first line; later lines are type-line or mana
	// fragments the crop picked up.
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}

	s = manaBraces.ReplaceAllString(s, "")
	s = artifacts.Replace(s)

	// Card names contain letters, spaces, hyphens, apostrophes and commas.
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r):
			return r
		case r == ' ' || r == '-' || r == '\'' || r == ',':
			return r
		}
		return -1
	}, s)

	s = spaces.ReplaceAllString(s, " ")
	s = strings.Trim(s, " -',")

	if r := []rune(s); len(r) > maxLen {
		s = strings.Trim(string(r[:maxLen]), " -',")
	}

	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if letters < minLetters {
		return ""
	}
	return s
}
