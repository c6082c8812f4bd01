// Package history keeps linear undo/redo stacks of diagram snapshots.
//
// Snapshots are immutable values, so the stacks hold them without copying.
// History is not safe for concurrent use; the editor serializes access.
package history

import "flowpad/internal/domain"

// DefaultLimit bounds the undo stack when no limit is configured
const DefaultLimit = 100

// History is a pair of past/future snapshot stacks
type History struct {
	past   []domain.Graph
	future []domain.Graph
	limit  int
}

// New creates a history holding at most limit undo entries. A limit of zero
// or less means unbounded.
func New(limit int) *History {
	return &History{limit: limit}
}

// Push records the snapshot that was current before a mutation and discards
// the redo stack
func (h *History) Push(before domain.Graph) {
	h.past = append(h.past, before)
	h.future = nil
	if h.limit > 0 && len(h.past) > h.limit {
		drop := len(h.past) - h.limit
		h.past = append([]domain.Graph(nil), h.past[drop:]...)
	}
}

// Undo pops the latest past snapshot and pushes current onto the redo stack.
// It reports false, returning current unchanged, when there is nothing to undo.
func (h *History) Undo(current domain.Graph) (domain.Graph, bool) {
	if len(h.past) == 0 {
		return current, false
	}
	prev := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, current)
	return prev, true
}

// Redo is the inverse of Undo
func (h *History) Redo(current domain.Graph) (domain.Graph, bool) {
	if len(h.future) == 0 {
		return current, false
	}
	next := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, current)
	return next, true
}

// Clear empties both stacks
func (h *History) Clear() {
	h.past = nil
	h.future = nil
}

// CanUndo reports whether Undo would change anything
func (h *History) CanUndo() bool {
	return len(h.past) > 0
}

// CanRedo reports whether Redo would change anything
func (h *History) CanRedo() bool {
	return len(h.future) > 0
}

// Depth returns the sizes of the undo and redo stacks
func (h *History) Depth() (past, future int) {
	return len(h.past), len(h.future)
}
