// Package scan composes detection, rectification, recognition and catalog
// matching into the two scan flows: single card and 3x3 binder page. Per-slot
// failures are data, never errors; only undecodable input and cancellation
// cross the package boundary as errors.
package scan

import (
	"github.com/wudi/cardkit/catalog"
	"github.com/wudi/cardkit/detect"
)

// Status tags the outcome of one slot's processing.
type Status string

const (
	// StatusMatched means the slot resolved to a catalog record.
	StatusMatched Status = "matched"
	// StatusLowConfidence means OCR ran but produced no usable text. The
	// raw text is kept for diagnostics.
	StatusLowConfidence Status = "low_confidence"
	// StatusNoQuad means no card boundary was found for the slot.
	StatusNoQuad Status = "no_quad_found"
	// StatusNoMatch means recognized text had no catalog hit.
	StatusNoMatch Status = "no_match"
	// StatusManualPending marks a slot awaiting a user-supplied choice.
	StatusManualPending Status = "manual_pending"
)

// Slot is the per-position unit of work in a scan result. Position 0 for a
// single-card scan, 0..8 row-major for a binder page.
type Slot struct {
	Position   int           `json:"position"`
	Quad       *detect.Quad  `json:"quad,omitempty"`
	OCRText    string        `json:"ocr_text,omitempty"`
	Confidence float64       `json:"confidence,omitempty"`
	Card       *catalog.Card `json:"card,omitempty"`
	Status     Status        `json:"status"`
}

// setStatus applies a status transition. A matched slot never moves backward
// through automatic stages; only ApplyOverride replaces a match.
func (s *Slot) setStatus(st Status) {
	if s.Status == StatusMatched {
		return
	}
	s.Status = st
}
