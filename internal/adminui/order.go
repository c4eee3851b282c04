// Package adminui holds the admin reorder workflow without any UI toolkit: pure order
// computation, an explicit client-side store rebuilt from server responses, and a
// session that submits whole orders and reloads on failure.
package adminui

import (
	"fmt"

	"shopguide/internal/apiclient"
)

// ComputeOrder maps product ids in visual order to sequential 1-based ranks.
func ComputeOrder(ids []string) []apiclient.OrderEntry {
	order := make([]apiclient.OrderEntry, 0, len(ids))
	for i, id := range ids {
		order = append(order, apiclient.OrderEntry{ProductID: id, Rank: i + 1})
	}
	return order
}

// Move returns a copy of ids with the element at from relocated to index to, which is
// what a drop event does to the visual list.
func Move(ids []string, from, to int) ([]string, error) {
	if from < 0 || from >= len(ids) {
		return nil, fmt.Errorf("position %d out of range (1-%d)", from+1, len(ids))
	}
	if to < 0 || to >= len(ids) {
		return nil, fmt.Errorf("position %d out of range (1-%d)", to+1, len(ids))
	}

	out := make([]string, 0, len(ids))
	out = append(out, ids[:from]...)
	out = append(out, ids[from+1:]...)

	moved := ids[from]
	out = append(out[:to], append([]string{moved}, out[to:]...)...)
	return out, nil
}
