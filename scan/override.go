package scan

import (
	"context"

	"github.com/wudi/cardkit/catalog"
)

// SearchForOverride runs a direct catalog name search so a user can pick a
// replacement for a failed slot. It shares the automatic pipeline's rate
// limit.
func (o *Orchestrator) SearchForOverride(ctx context.Context, query string) ([]catalog.Card, error) {
	return o.matcher.Search(ctx, query, o.searchLimit)
}

// ApplyOverride installs a user-chosen record on a slot and forces the
// status to matched. This is the only path that replaces an existing match.
func ApplyOverride(slot Slot, record catalog.Card) Slot {
	slot.Card = &record
	slot.Status = StatusMatched
	return slot
}

// MarkManual flags a slot as awaiting user input. Matched slots are left
// alone; an explicit ApplyOverride is required to replace a match.
func MarkManual(slot Slot) Slot {
	if slot.Status != StatusMatched {
		slot.Status = StatusManualPending
	}
	return slot
}
