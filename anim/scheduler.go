package anim

import (
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"termboard/diff"
	"termboard/items"
	"termboard/types"
)

// DefaultMaxDuration caps configured animation durations.
const DefaultMaxDuration = 2 * time.Second

// State is the lifecycle of one visual action.
type State uint8

const (
	Pending State = iota
	Running
	Finished
	Cancelled
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Running:
		return "running"
	case Finished:
		return "finished"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

type action uint8

const (
	actMove action = iota
	actShow
	actRemove
)

// Animation is one in-flight visual action on one element.
type Animation struct {
	handle     Handle
	state      State
	squares    []types.Square
	snap       func()
	cancelling bool
	batch      *batch
}

// Handle returns the element the animation drives.
func (a *Animation) Handle() Handle { return a.handle }

// State returns the animation's current state.
func (a *Animation) State() State { return a.state }

type batch struct {
	pending int
	done    *Completion
}

func newBatch(n int) *batch {
	b := &batch{pending: n, done: NewCompletion()}
	if n == 0 {
		b.done.Fire()
	}
	return b
}

func (b *batch) settle() {
	b.pending--
	if b.pending == 0 {
		b.done.Fire()
	}
}

type element struct {
	handle Handle
	item   items.Item
}

func (e *element) piece() types.Piece {
	p, _ := e.item.Payload.(types.Piece)
	return p
}

// Scheduler owns the elements that render a position and every running
// animation. It is not safe for concurrent use; call it from the loop that
// receives renderer completions.
type Scheduler struct {
	r           Renderer
	log         zerolog.Logger
	geom        types.Geometry
	maxDuration time.Duration

	pieces   map[types.Square]*element
	lifted   map[Handle]*element
	live     map[Handle]*Animation
	bySquare map[types.Square][]*Animation
	last     []*Animation
	nextID   uint64
}

// NewScheduler creates a scheduler drawing through r.
func NewScheduler(r Renderer, g types.Geometry, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		r:           r,
		log:         log,
		geom:        g,
		maxDuration: DefaultMaxDuration,
		pieces:      make(map[types.Square]*element),
		lifted:      make(map[Handle]*element),
		live:        make(map[Handle]*Animation),
		bySquare:    make(map[types.Square][]*Animation),
	}
}

// SetMaxDuration changes the cap applied to every duration. Zero or negative disables the cap.
func (s *Scheduler) SetMaxDuration(d time.Duration) {
	s.maxDuration = d
}

func (s *Scheduler) clamp(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	if s.maxDuration > 0 && d > s.maxDuration {
		return s.maxDuration
	}
	return d
}

// Geometry returns the geometry pieces are laid out with.
func (s *Scheduler) Geometry() types.Geometry {
	return s.geom
}

// Live returns the number of running animations.
func (s *Scheduler) Live() int {
	return len(s.live)
}

// Last returns the animations started by the most recent call that started any.
func (s *Scheduler) Last() []*Animation {
	return append([]*Animation(nil), s.last...)
}

// Position returns the position the piece elements currently represent.
func (s *Scheduler) Position() types.Position {
	pos := make(types.Position, len(s.pieces))
	for sq, el := range s.pieces {
		pos[sq] = el.piece()
	}
	return pos
}

// ElementAt returns the handle of the piece element on sq.
func (s *Scheduler) ElementAt(sq types.Square) (Handle, bool) {
	el, ok := s.pieces[sq]
	if !ok {
		return 0, false
	}
	return el.handle, true
}

func (s *Scheduler) pieceItem(sq types.Square, p types.Piece) items.Item {
	s.nextID++
	return items.Item{
		ID:      "piece-" + strconv.FormatUint(s.nextID, 10),
		Kind:    items.KindPiece,
		Anchors: []types.Square{sq},
		Payload: p,
	}
}

func (s *Scheduler) cancel(a *Animation) {
	if a.state != Running || a.cancelling {
		return
	}
	// The renderer may fire the stopped transition's completion while snapping.
	a.cancelling = true
	a.snap()
	s.finish(a, Cancelled)
}

func (s *Scheduler) finish(a *Animation, st State) {
	if a.state != Running {
		return
	}
	a.state = st
	if s.live[a.handle] == a {
		delete(s.live, a.handle)
	}
	for _, sq := range a.squares {
		list := s.bySquare[sq]
		for i, other := range list {
			if other == a {
				list = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(list) == 0 {
			delete(s.bySquare, sq)
		} else {
			s.bySquare[sq] = list
		}
	}
	a.batch.settle()
}

// preemptSquare snaps every animation still working on sq.
func (s *Scheduler) preemptSquare(sq types.Square) {
	if !sq.Valid() {
		return
	}
	for _, a := range append([]*Animation(nil), s.bySquare[sq]...) {
		s.cancel(a)
	}
}

// preemptElement snaps the animation running on h, if any.
func (s *Scheduler) preemptElement(h Handle) {
	if a, ok := s.live[h]; ok {
		s.cancel(a)
	}
}

// Settle snaps every running animation to its final state.
func (s *Scheduler) Settle() {
	for _, a := range s.liveList() {
		s.cancel(a)
	}
}

func (s *Scheduler) liveList() []*Animation {
	out := make([]*Animation, 0, len(s.live))
	for _, a := range s.live {
		out = append(out, a)
	}
	return out
}

// run starts one visual action and registers it as the element's live action.
func (s *Scheduler) run(h Handle, act action, p items.Placement, d time.Duration, b *batch, squares ...types.Square) *Animation {
	a := &Animation{handle: h, state: Pending, batch: b, squares: squares}
	s.last = append(s.last, a)

	if d == 0 {
		switch act {
		case actMove:
			s.r.SetElementCoord(h, p)
		case actShow:
			s.r.ShowElement(h, 0)
		case actRemove:
			s.r.RemoveElement(h, 0)
		}
		a.state = Finished
		b.settle()
		return a
	}

	a.state = Running
	s.live[h] = a
	for _, sq := range squares {
		if sq.Valid() {
			s.bySquare[sq] = append(s.bySquare[sq], a)
		}
	}

	var c *Completion
	switch act {
	case actMove:
		c = s.r.MoveElement(h, p, d)
		a.snap = func() {
			s.r.StopElement(h)
			s.r.SetElementCoord(h, p)
		}
	case actShow:
		c = s.r.ShowElement(h, d)
		a.snap = func() {
			s.r.StopElement(h)
			s.r.ShowElement(h, 0)
		}
	case actRemove:
		c = s.r.RemoveElement(h, d)
		a.snap = func() {
			s.r.StopElement(h)
			s.r.RemoveElement(h, 0)
		}
	}
	if c == nil {
		c = Completed()
	}
	c.OnDone(func() {
		if !a.cancelling {
			s.finish(a, Finished)
		}
	})
	return a
}

func (s *Scheduler) skip(op string, err error, b *batch) {
	s.log.Warn().Str("op", op).Err(err).Msg("skipping visual update")
	b.settle()
}

// evict removes the element standing on sq, if any, outside of any batch.
func (s *Scheduler) evict(sq types.Square) {
	el, ok := s.pieces[sq]
	if !ok {
		return
	}
	delete(s.pieces, sq)
	s.preemptElement(el.handle)
	s.r.RemoveElement(el.handle, 0)
}

// Animate realizes ops concurrently and returns a completion that fires once
// every operation has finished, was cancelled or was skipped. An empty ops
// fires immediately without touching the renderer.
//
// Any running animation on a square or element touched by ops is snapped to
// its final state first, so an element never has two live actions.
func (s *Scheduler) Animate(ops []diff.Operation, d time.Duration) *Completion {
	if len(ops) == 0 {
		return Completed()
	}
	d = s.clamp(d)
	s.last = nil
	b := newBatch(len(ops))

	for _, op := range ops {
		s.preemptSquare(op.From)
		s.preemptSquare(op.To)
	}

	// Resolve elements against the occupancy before this batch, then vacate
	// every source so moves may land on squares vacated in the same batch.
	els := make([]*element, len(ops))
	for i, op := range ops {
		if op.Kind == diff.Add {
			continue
		}
		if el, ok := s.pieces[op.From]; ok && el.piece() == op.Piece {
			els[i] = el
		}
	}
	for i, op := range ops {
		if els[i] != nil {
			delete(s.pieces, op.From)
		}
	}

	for i, op := range ops {
		el := els[i]
		switch op.Kind {
		case diff.Move:
			if el == nil {
				s.skip(op.String(), fmt.Errorf("no element on %s: %w", op.From, types.ErrRendererMissing), b)
				continue
			}
			s.evict(op.To)
			el.item.Anchors = []types.Square{op.To}
			s.pieces[op.To] = el
			s.run(el.handle, actMove, items.PlacementOf(el.item, s.geom), d, b, op.To)

		case diff.Remove:
			if el == nil {
				s.skip(op.String(), fmt.Errorf("no element on %s: %w", op.From, types.ErrRendererMissing), b)
				continue
			}
			s.run(el.handle, actRemove, items.Placement{}, d, b, op.From)

		case diff.Add:
			it := s.pieceItem(op.To, op.Piece)
			h, err := s.r.CreateElement(it, items.PlacementOf(it, s.geom))
			if err != nil {
				s.skip(op.String(), err, b)
				continue
			}
			s.evict(op.To)
			s.pieces[op.To] = &element{handle: h, item: it}
			s.run(h, actShow, items.Placement{}, d, b, op.To)
		}
	}
	return b.done
}

// Relayout snaps running animations and moves every piece element to its
// place under g. Element identity is unchanged.
func (s *Scheduler) Relayout(g types.Geometry) {
	s.Settle()
	s.geom = g
	for _, sq := range s.Position().Squares() {
		el := s.pieces[sq]
		s.r.SetElementCoord(el.handle, items.PlacementOf(el.item, g))
	}
}

// Reset removes every piece and lifted element instantly.
func (s *Scheduler) Reset() {
	s.Settle()
	for sq, el := range s.pieces {
		s.r.RemoveElement(el.handle, 0)
		delete(s.pieces, sq)
	}
	for h := range s.lifted {
		s.r.RemoveElement(h, 0)
		delete(s.lifted, h)
	}
}

// Sync rebuilds the piece elements for pos without animation.
func (s *Scheduler) Sync(pos types.Position) {
	s.Reset()
	s.Animate(diff.Diff(nil, pos), 0)
}

// Lift detaches the piece element on sq from the board so it can follow the
// pointer. The square counts as empty until the element lands again.
func (s *Scheduler) Lift(sq types.Square) (Handle, bool) {
	s.preemptSquare(sq)
	el, ok := s.pieces[sq]
	if !ok {
		return 0, false
	}
	delete(s.pieces, sq)
	s.lifted[el.handle] = el
	return el.handle, true
}

// Spawn creates a lifted element for a piece that is not on the board yet,
// such as a spare piece, at cell c.
func (s *Scheduler) Spawn(p types.Piece, c types.Coord) (Handle, error) {
	it := s.pieceItem(types.NoSquare, p)
	it.Anchors = nil
	h, err := s.r.CreateElement(it, items.Placement{At: c, To: c})
	if err != nil {
		return 0, err
	}
	s.r.ShowElement(h, 0)
	s.lifted[h] = &element{handle: h, item: it}
	return h, nil
}

// Follow places a lifted element at cell c.
func (s *Scheduler) Follow(h Handle, c types.Coord) {
	if _, ok := s.lifted[h]; !ok {
		return
	}
	s.r.SetElementCoord(h, items.Placement{At: c, To: c})
}

// Land attaches a lifted element to sq and animates it into place. A piece
// already on sq is removed over the same duration.
func (s *Scheduler) Land(h Handle, sq types.Square, d time.Duration) *Completion {
	el, ok := s.lifted[h]
	if !ok {
		s.log.Warn().Uint64("handle", uint64(h)).Str("square", sq.String()).Msg("land: element not lifted")
		return Completed()
	}
	delete(s.lifted, h)
	d = s.clamp(d)
	s.last = nil
	s.preemptSquare(sq)

	b := newBatch(1)
	if occ, ok := s.pieces[sq]; ok {
		b.pending++
		delete(s.pieces, sq)
		s.run(occ.handle, actRemove, items.Placement{}, d, b, sq)
	}
	el.item.Anchors = []types.Square{sq}
	s.pieces[sq] = el
	s.run(h, actMove, items.PlacementOf(el.item, s.geom), d, b, sq)
	return b.done
}

// Discard removes a lifted element.
func (s *Scheduler) Discard(h Handle, d time.Duration) *Completion {
	if _, ok := s.lifted[h]; !ok {
		return Completed()
	}
	delete(s.lifted, h)
	s.last = nil
	b := newBatch(1)
	s.run(h, actRemove, items.Placement{}, s.clamp(d), b)
	return b.done
}

// Place creates and shows the element of a layer item.
func (s *Scheduler) Place(it items.Item, p items.Placement, d time.Duration) (Handle, *Completion, error) {
	h, err := s.r.CreateElement(it, p)
	if err != nil {
		s.log.Warn().Str("item", it.ID).Err(err).Msg("skipping item element")
		return 0, Completed(), err
	}
	s.last = nil
	b := newBatch(1)
	s.run(h, actShow, p, s.clamp(d), b)
	return h, b.done, nil
}

// MoveItem animates an item element to p, replacing any running action on it.
func (s *Scheduler) MoveItem(h Handle, p items.Placement, d time.Duration) *Completion {
	s.preemptElement(h)
	s.last = nil
	b := newBatch(1)
	s.run(h, actMove, p, s.clamp(d), b)
	return b.done
}

// Unplace removes an item element, replacing any running action on it.
func (s *Scheduler) Unplace(h Handle, d time.Duration) *Completion {
	s.preemptElement(h)
	s.last = nil
	b := newBatch(1)
	s.run(h, actRemove, items.Placement{}, s.clamp(d), b)
	return b.done
}

// Reposition places an item element at p without a transition.
func (s *Scheduler) Reposition(h Handle, p items.Placement) {
	s.preemptElement(h)
	s.r.SetElementCoord(h, p)
}
