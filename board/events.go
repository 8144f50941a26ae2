package board

import (
	"termboard/diff"
	"termboard/items"
	"termboard/types"
)

// Source tells what caused a position change.
type Source uint8

const (
	SourceAPI Source = iota
	SourceDrop
)

func (s Source) String() string {
	if s == SourceDrop {
		return "drop"
	}
	return "api"
}

// ChangeEvent is emitted synchronously whenever the position changes.
// Before and After are snapshots the subscriber may keep.
type ChangeEvent struct {
	Before, After types.Position
	Ops           []diff.Operation
	Source        Source
}

// DragEvent describes the gesture in progress. Over is NoSquare off the board.
type DragEvent struct {
	From  types.Square
	Piece types.Piece
	Spare bool
	Over  types.Square
	At    types.Coord
}

// DropEvent is a proposed position change from a drop. A handler returning
// false vetoes it and the piece snaps back.
type DropEvent struct {
	DragEvent
	To            types.Square
	Before, After types.Position
}

// ItemsEvent lists the items an operation touched.
type ItemsEvent struct {
	Added   []items.Item
	Removed []items.Item
	Moved   []items.Item
}

type handlers struct {
	change    []func(ChangeEvent)
	dragStart []func(DragEvent) bool
	dragMove  []func(DragEvent)
	dragEnd   []func(DragEvent)
	drop      []func(DropEvent) bool
	snapback  []func(DragEvent)
	items     []func(ItemsEvent)
	settled   []func(types.Position)
}

// OnChange subscribes to position changes.
func (b *Board) OnChange(fn func(ChangeEvent)) { b.on.change = append(b.on.change, fn) }

// OnDragStart is called when a press arms a drag, before the pointer has
// moved. Returning false refuses the drag. A press released without moving
// ends as a click and fires no further drag events.
func (b *Board) OnDragStart(fn func(DragEvent) bool) { b.on.dragStart = append(b.on.dragStart, fn) }

// OnDragMove is called when the pointer enters a new square or leaves the board.
func (b *Board) OnDragMove(fn func(DragEvent)) { b.on.dragMove = append(b.on.dragMove, fn) }

// OnDragCancel is called when a drag ends without landing: the piece was
// dropped off the board under the remove or trash policy, or the drag was
// abandoned programmatically.
func (b *Board) OnDragCancel(fn func(DragEvent)) { b.on.dragEnd = append(b.on.dragEnd, fn) }

// OnDrop subscribes to drops on a square. Returning false vetoes the drop.
func (b *Board) OnDrop(fn func(DropEvent) bool) { b.on.drop = append(b.on.drop, fn) }

// OnSnapback is called when a dragged piece returns to its origin square.
func (b *Board) OnSnapback(fn func(DragEvent)) { b.on.snapback = append(b.on.snapback, fn) }

// OnItemsChange subscribes to item additions, removals and moves.
func (b *Board) OnItemsChange(fn func(ItemsEvent)) { b.on.items = append(b.on.items, fn) }

// OnAnimationComplete is called with the position once the animation of a
// position change has settled.
func (b *Board) OnAnimationComplete(fn func(types.Position)) {
	b.on.settled = append(b.on.settled, fn)
}

func (b *Board) emitChange(before, after types.Position, ops []diff.Operation, src Source) {
	if len(ops) == 0 {
		return
	}
	b.log.Debug().Str("source", src.String()).Int("ops", len(ops)).Msg("position changed")
	for _, fn := range b.on.change {
		fn(ChangeEvent{Before: before.Clone(), After: after.Clone(), Ops: append([]diff.Operation(nil), ops...), Source: src})
	}
}

func (b *Board) emitItems(ev ItemsEvent) {
	for _, fn := range b.on.items {
		fn(ev)
	}
}
