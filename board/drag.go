package board

import (
	"fmt"

	"termboard/diff"
	"termboard/interact"
	"termboard/types"
)

// PointerDown arms a drag on the piece under c. It returns false when a drag
// is already active or the piece may not be dragged.
func (b *Board) PointerDown(c types.Coord) bool {
	return b.machine.PointerDown(c)
}

// PointerDownSpare starts dragging a spare piece from c, which is usually off the board.
func (b *Board) PointerDownSpare(p types.Piece, c types.Coord) bool {
	return b.machine.PointerDownSpare(p, c)
}

// PointerMove moves the pointer, starting the drag once it passes the threshold.
func (b *Board) PointerMove(c types.Coord) interact.State {
	return b.machine.PointerMove(c)
}

// PointerUp releases the pointer and reports how the gesture ended.
func (b *Board) PointerUp(c types.Coord) interact.Outcome {
	return b.machine.PointerUp(c)
}

// CancelDrag abandons an active drag, returning the piece to its square.
func (b *Board) CancelDrag() bool {
	return b.machine.Cancel()
}

// DragState returns Idle, Armed or Dragging.
func (b *Board) DragState() interact.State {
	return b.machine.State()
}

// Dragging returns the gesture in progress.
func (b *Board) Dragging() (interact.Drag, bool) {
	return b.machine.Drag()
}

// Hovered returns the square under a dragged piece.
func (b *Board) Hovered() (types.Square, bool) {
	return b.hover, b.hover.Valid()
}

func dragEvent(d *interact.Drag) DragEvent {
	return DragEvent{From: d.From, Piece: d.Piece, Spare: d.Spare, Over: d.Over, At: d.At}
}

// host adapts a Board to interact.Host.
type host struct {
	b *Board
}

func (h host) SquareAt(c types.Coord) (types.Square, bool) {
	return h.b.geom.SquareAt(c)
}

func (h host) PieceAt(sq types.Square) (types.Piece, bool) {
	p, ok := h.b.pos[sq]
	return p, ok
}

func (h host) CanDrag(sq types.Square, p types.Piece) bool {
	cfg := h.b.cfg
	if !cfg.Draggable || (sq == types.NoSquare && !cfg.SparePieces) {
		return false
	}
	ev := DragEvent{From: sq, Piece: p, Spare: sq == types.NoSquare, Over: sq}
	for _, fn := range h.b.on.dragStart {
		if !fn(ev) {
			return false
		}
	}
	return true
}

func (h host) Begin(d *interact.Drag) error {
	if d.Spare {
		el, err := h.b.sched.Spawn(d.Piece, d.At)
		if err != nil {
			return err
		}
		d.Element = el
		return nil
	}
	el, ok := h.b.sched.Lift(d.From)
	if !ok {
		return fmt.Errorf("no element on %s: %w", d.From, types.ErrRendererMissing)
	}
	d.Element = el
	h.b.log.Debug().Str("from", d.From.String()).Str("piece", d.Piece.String()).Msg("drag started")
	return nil
}

func (h host) Follow(d *interact.Drag) {
	h.b.sched.Follow(d.Element, d.At)
}

func (h host) Hover(d *interact.Drag) {
	h.b.hover = d.Over
	ev := dragEvent(d)
	for _, fn := range h.b.on.dragMove {
		fn(ev)
	}
}

func (h host) Drop(d *interact.Drag, to types.Square) bool {
	b := h.b
	after := b.pos.Clone()
	if !d.Spare {
		delete(after, d.From)
	}
	after[to] = d.Piece

	if b.validator != nil && !b.validator.ValidateMove(d.From, to, d.Piece) {
		b.log.Debug().Str("from", d.From.String()).Str("to", to.String()).Msg("drop rejected by validator")
		return false
	}
	ev := DropEvent{DragEvent: dragEvent(d), To: to, Before: b.pos.Clone(), After: after.Clone()}
	for _, fn := range b.on.drop {
		if !fn(ev) {
			return false
		}
	}

	before := b.pos
	b.pos = after
	b.hover = types.NoSquare
	done := b.sched.Land(d.Element, to, b.cfg.Snapback())
	b.emitChange(before, after, diff.Diff(before, after), SourceDrop)
	b.watch(done)
	return true
}

func (h host) SnapBack(d *interact.Drag) {
	b := h.b
	b.hover = types.NoSquare
	if d.Spare {
		b.sched.Discard(d.Element, 0)
	} else {
		b.sched.Land(d.Element, d.From, b.cfg.Snapback())
	}
	ev := dragEvent(d)
	for _, fn := range b.on.snapback {
		fn(ev)
	}
}

func (h host) Discard(d *interact.Drag, fade bool) {
	b := h.b
	b.hover = types.NoSquare
	dur := b.cfg.Animation()
	if !fade {
		dur = 0
	}
	done := b.sched.Discard(d.Element, dur)
	ev := dragEvent(d)
	for _, fn := range b.on.dragEnd {
		fn(ev)
	}
	if d.Spare {
		return
	}
	before := b.pos
	after := before.Clone()
	delete(after, d.From)
	b.pos = after
	b.emitChange(before, after, diff.Diff(before, after), SourceDrop)
	b.watch(done)
}

func (h host) Abort(d *interact.Drag) {
	b := h.b
	b.hover = types.NoSquare
	if d.Spare {
		b.sched.Discard(d.Element, 0)
	} else {
		b.sched.Land(d.Element, d.From, 0)
	}
	ev := dragEvent(d)
	for _, fn := range b.on.dragEnd {
		fn(ev)
	}
}
