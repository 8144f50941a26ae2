// Package animtest provides a manually clocked anim.Renderer for tests.
package animtest

import (
	"fmt"
	"sort"
	"time"

	"termboard/anim"
	"termboard/items"
	"termboard/types"
)

// Call records one renderer invocation.
type Call struct {
	Op        string
	Handle    anim.Handle
	Placement items.Placement
	Duration  time.Duration
}

// Element is the fake's view of one visual element.
type Element struct {
	Item      items.Item
	Placement items.Placement
	Visible   bool
	Removed   bool
}

type transition struct {
	done  *anim.Completion
	apply func()
}

// Renderer records calls and holds every transition with a non-zero duration
// until Finish or FinishAll is called.
type Renderer struct {
	Calls []Call

	// Fail makes CreateElement fail for matching items.
	Fail func(items.Item) bool

	// Overlaps counts transitions started on an element that still had one pending.
	Overlaps int

	elements map[anim.Handle]*Element
	pending  map[anim.Handle]*transition
	next     anim.Handle
}

// New returns an empty fake renderer.
func New() *Renderer {
	return &Renderer{
		elements: make(map[anim.Handle]*Element),
		pending:  make(map[anim.Handle]*transition),
	}
}

var _ anim.Renderer = (*Renderer)(nil)

func (r *Renderer) record(op string, h anim.Handle, p items.Placement, d time.Duration) {
	r.Calls = append(r.Calls, Call{Op: op, Handle: h, Placement: p, Duration: d})
}

func (r *Renderer) start(h anim.Handle, d time.Duration, apply func()) *anim.Completion {
	if _, busy := r.pending[h]; busy {
		r.Overlaps++
	}
	if d == 0 {
		delete(r.pending, h)
		apply()
		return anim.Completed()
	}
	t := &transition{done: anim.NewCompletion(), apply: apply}
	r.pending[h] = t
	return t.done
}

// CreateElement implements anim.Renderer.
func (r *Renderer) CreateElement(it items.Item, p items.Placement) (anim.Handle, error) {
	if r.Fail != nil && r.Fail(it) {
		r.record("create-failed", 0, p, 0)
		return 0, fmt.Errorf("create %s: %w", it.ID, types.ErrRendererMissing)
	}
	r.next++
	r.elements[r.next] = &Element{Item: it, Placement: p}
	r.record("create", r.next, p, 0)
	return r.next, nil
}

// ShowElement implements anim.Renderer.
func (r *Renderer) ShowElement(h anim.Handle, d time.Duration) *anim.Completion {
	r.record("show", h, items.Placement{}, d)
	return r.start(h, d, func() {
		if el, ok := r.elements[h]; ok {
			el.Visible = true
		}
	})
}

// MoveElement implements anim.Renderer.
func (r *Renderer) MoveElement(h anim.Handle, p items.Placement, d time.Duration) *anim.Completion {
	r.record("move", h, p, d)
	return r.start(h, d, func() {
		if el, ok := r.elements[h]; ok {
			el.Placement = p
		}
	})
}

// RemoveElement implements anim.Renderer.
func (r *Renderer) RemoveElement(h anim.Handle, d time.Duration) *anim.Completion {
	r.record("remove", h, items.Placement{}, d)
	return r.start(h, d, func() {
		if el, ok := r.elements[h]; ok {
			el.Removed = true
			el.Visible = false
		}
	})
}

// SetElementCoord implements anim.Renderer.
func (r *Renderer) SetElementCoord(h anim.Handle, p items.Placement) {
	r.record("set", h, p, 0)
	if el, ok := r.elements[h]; ok {
		el.Placement = p
	}
}

// StopElement implements anim.Renderer. The stopped transition's completion is dropped.
func (r *Renderer) StopElement(h anim.Handle) {
	r.record("stop", h, items.Placement{}, 0)
	delete(r.pending, h)
}

// Pending returns the number of transitions waiting for Finish.
func (r *Renderer) Pending() int {
	return len(r.pending)
}

// Finish completes the pending transition of h. It returns false if there is none.
func (r *Renderer) Finish(h anim.Handle) bool {
	t, ok := r.pending[h]
	if !ok {
		return false
	}
	delete(r.pending, h)
	t.apply()
	t.done.Fire()
	return true
}

// FinishAll completes pending transitions in handle order until none are left.
func (r *Renderer) FinishAll() {
	for len(r.pending) > 0 {
		handles := make([]anim.Handle, 0, len(r.pending))
		for h := range r.pending {
			handles = append(handles, h)
		}
		sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })
		for _, h := range handles {
			r.Finish(h)
		}
	}
}

// Element returns the fake's state for h.
func (r *Renderer) Element(h anim.Handle) (Element, bool) {
	el, ok := r.elements[h]
	if !ok {
		return Element{}, false
	}
	return *el, true
}

// Visible returns the handles of visible, attached elements of kind k.
func (r *Renderer) Visible(k items.Kind) []anim.Handle {
	var out []anim.Handle
	for h, el := range r.elements {
		if el.Item.Kind == k && el.Visible && !el.Removed {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Count returns the number of calls with the given op.
func (r *Renderer) Count(op string) int {
	n := 0
	for _, c := range r.Calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls and the overlap counter, keeping elements.
func (r *Renderer) Reset() {
	r.Calls = nil
	r.Overlaps = 0
}
