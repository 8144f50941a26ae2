// Package anim realizes position diffs and item changes as visual transitions.
//
// The Scheduler never draws anything itself; it drives a Renderer through the
// handful of capabilities below and tracks which element stands where.
package anim

import (
	"time"

	"termboard/items"
)

// Handle identifies one visual element of a Renderer. The zero Handle is never issued.
type Handle uint64

// Renderer paints, moves and removes visual elements.
//
// Completions returned by a Renderer must fire on the same goroutine that
// drives the board (the UI event loop), and must fire immediately for a zero
// duration. After StopElement a renderer may drop the completion of the
// stopped transition.
type Renderer interface {
	// CreateElement creates a hidden element for it at p.
	CreateElement(it items.Item, p items.Placement) (Handle, error)

	// ShowElement fades or pops an element in.
	ShowElement(h Handle, d time.Duration) *Completion

	// MoveElement translates an element to p.
	MoveElement(h Handle, p items.Placement, d time.Duration) *Completion

	// RemoveElement fades an element out and detaches it.
	RemoveElement(h Handle, d time.Duration) *Completion

	// SetElementCoord places an element at p without a transition.
	SetElementCoord(h Handle, p items.Placement)

	// StopElement cancels any transition running on the element, leaving it where it is.
	StopElement(h Handle)
}
