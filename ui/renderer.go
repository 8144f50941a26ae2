package ui

import (
	"context"
	"sort"
	"sync"
	"time"

	"termboard/anim"
	"termboard/items"
	"termboard/types"
)

type transitionKind uint8

const (
	transNone transitionKind = iota
	transMove
	transShow
	transRemove
)

type sprite struct {
	handle  anim.Handle
	item    items.Item
	at      items.Placement
	visible bool

	kind  transitionKind
	from  items.Placement
	to    items.Placement
	start time.Time
	dur   time.Duration
	done  *anim.Completion
}

// Sprite is a snapshot of one element as it should be drawn now.
type Sprite struct {
	Handle anim.Handle
	Item   items.Item
	At     items.Placement
	// Fading is set while the element is being shown or removed.
	Fading bool
	Moving bool
}

// TermRenderer keeps visual elements for a terminal board and advances their
// transitions on Tick. Completions fire from Tick, so Tick must run on the
// goroutine that drives the board.
type TermRenderer struct {
	mu      sync.Mutex
	sprites map[anim.Handle]*sprite
	next    anim.Handle
	now     func() time.Time
}

var _ anim.Renderer = (*TermRenderer)(nil)

// NewTermRenderer returns an empty renderer using the wall clock.
func NewTermRenderer() *TermRenderer {
	return &TermRenderer{
		sprites: make(map[anim.Handle]*sprite),
		now:     time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (r *TermRenderer) SetClock(now func() time.Time) {
	r.mu.Lock()
	r.now = now
	r.mu.Unlock()
}

// CreateElement implements anim.Renderer.
func (r *TermRenderer) CreateElement(it items.Item, p items.Placement) (anim.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.sprites[r.next] = &sprite{handle: r.next, item: it, at: p}
	return r.next, nil
}

// begin replaces the transition running on s. A superseded completion is
// returned so the caller can fire it outside the lock.
func (r *TermRenderer) begin(s *sprite, kind transitionKind, to items.Placement, d time.Duration) (done, superseded *anim.Completion) {
	superseded = s.done
	s.kind, s.from, s.to = kind, s.at, to
	s.start, s.dur = r.now(), d
	s.done = anim.NewCompletion()
	return s.done, superseded
}

func fire(cs ...*anim.Completion) {
	for _, c := range cs {
		if c != nil {
			c.Fire()
		}
	}
}

// ShowElement implements anim.Renderer.
func (r *TermRenderer) ShowElement(h anim.Handle, d time.Duration) *anim.Completion {
	r.mu.Lock()
	s, ok := r.sprites[h]
	if !ok {
		r.mu.Unlock()
		return anim.Completed()
	}
	s.visible = true
	if d <= 0 {
		old := s.clear()
		r.mu.Unlock()
		fire(old)
		return anim.Completed()
	}
	done, old := r.begin(s, transShow, s.at, d)
	r.mu.Unlock()
	fire(old)
	return done
}

// MoveElement implements anim.Renderer.
func (r *TermRenderer) MoveElement(h anim.Handle, p items.Placement, d time.Duration) *anim.Completion {
	r.mu.Lock()
	s, ok := r.sprites[h]
	if !ok {
		r.mu.Unlock()
		return anim.Completed()
	}
	if d <= 0 {
		s.at = p
		old := s.clear()
		r.mu.Unlock()
		fire(old)
		return anim.Completed()
	}
	done, old := r.begin(s, transMove, p, d)
	r.mu.Unlock()
	fire(old)
	return done
}

// RemoveElement implements anim.Renderer. The element is forgotten once the
// fade ends.
func (r *TermRenderer) RemoveElement(h anim.Handle, d time.Duration) *anim.Completion {
	r.mu.Lock()
	s, ok := r.sprites[h]
	if !ok {
		r.mu.Unlock()
		return anim.Completed()
	}
	if d <= 0 {
		old := s.clear()
		delete(r.sprites, h)
		r.mu.Unlock()
		fire(old)
		return anim.Completed()
	}
	done, old := r.begin(s, transRemove, s.at, d)
	r.mu.Unlock()
	fire(old)
	return done
}

// SetElementCoord implements anim.Renderer.
func (r *TermRenderer) SetElementCoord(h anim.Handle, p items.Placement) {
	r.mu.Lock()
	s, ok := r.sprites[h]
	if !ok {
		r.mu.Unlock()
		return
	}
	s.at = p
	var old *anim.Completion
	if s.kind == transMove {
		old = s.clear()
	}
	r.mu.Unlock()
	fire(old)
}

// StopElement implements anim.Renderer. The element keeps its interpolated
// placement and the stopped transition never completes.
func (r *TermRenderer) StopElement(h anim.Handle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sprites[h]
	if !ok || s.kind == transNone {
		return
	}
	s.at = s.placementAt(r.now())
	s.clear()
}

// clear drops the running transition and returns its completion.
func (s *sprite) clear() *anim.Completion {
	done := s.done
	s.kind, s.done = transNone, nil
	return done
}

func (s *sprite) progress(now time.Time) float64 {
	if s.dur <= 0 {
		return 1
	}
	t := float64(now.Sub(s.start)) / float64(s.dur)
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// smoothstep eases a linear progress value in and out.
func smoothstep(t float64) float64 {
	return t * t * (3 - 2*t)
}

func lerp(a, b int, t float64) int {
	v := float64(a) + float64(b-a)*t
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

func lerpCoord(a, b types.Coord, t float64) types.Coord {
	return types.Coord{X: lerp(a.X, b.X, t), Y: lerp(a.Y, b.Y, t)}
}

func (s *sprite) placementAt(now time.Time) items.Placement {
	if s.kind != transMove {
		return s.at
	}
	t := smoothstep(s.progress(now))
	return items.Placement{At: lerpCoord(s.from.At, s.to.At, t), To: lerpCoord(s.from.To, s.to.To, t)}
}

// Tick advances every transition to now and fires the completions of those
// that ended. It reports whether any transition is still running.
func (r *TermRenderer) Tick(now time.Time) bool {
	r.mu.Lock()
	var finished []*anim.Completion
	running := false
	for h, s := range r.sprites {
		if s.kind == transNone {
			continue
		}
		if s.progress(now) < 1 {
			s.at = s.placementAt(now)
			running = true
			continue
		}
		if s.kind == transMove {
			s.at = s.to
		}
		if s.kind == transRemove {
			delete(r.sprites, h)
		}
		finished = append(finished, s.clear())
	}
	r.mu.Unlock()

	fire(finished...)
	return running
}

// Animating reports whether any transition is running.
func (r *TermRenderer) Animating() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sprites {
		if s.kind != transNone {
			return true
		}
	}
	return false
}

// Len returns the number of live elements, hidden ones included.
func (r *TermRenderer) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sprites)
}

// Sprites returns the visible elements in drawing order: lower Z first,
// moving elements above resting ones.
func (r *TermRenderer) Sprites() []Sprite {
	r.mu.Lock()
	out := make([]Sprite, 0, len(r.sprites))
	for _, s := range r.sprites {
		if !s.visible {
			continue
		}
		out = append(out, Sprite{
			Handle: s.handle,
			Item:   s.item,
			At:     s.at,
			Fading: s.kind == transShow || s.kind == transRemove,
			Moving: s.kind == transMove,
		})
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Item.Z != b.Item.Z {
			return a.Item.Z < b.Item.Z
		}
		if a.Moving != b.Moving {
			return b.Moving
		}
		return a.Handle < b.Handle
	})
	return out
}

// Run ticks the renderer every interval while something is animating until
// ctx is done. queue must run its function on the UI goroutine and redraw,
// as tview.Application.QueueUpdateDraw does.
func (r *TermRenderer) Run(ctx context.Context, interval time.Duration, queue func(func())) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if !r.Animating() {
				continue
			}
			queue(func() {
				r.mu.Lock()
				now := r.now()
				r.mu.Unlock()
				r.Tick(now)
			})
		}
	}
}
