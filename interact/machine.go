// Package interact turns pointer gestures into drag lifecycles and position
// change requests.
package interact

import (
	"fmt"

	"termboard/anim"
	"termboard/types"
)

// State of a gesture. Dropped, SnappedBack and Cancelled are terminal: they are
// reported by PointerUp and the machine is back in Idle when it returns.
type State uint8

const (
	Idle State = iota
	Armed
	Dragging
	Dropped
	SnappedBack
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Armed:
		return "armed"
	case Dragging:
		return "dragging"
	case Dropped:
		return "dropped"
	case SnappedBack:
		return "snapped-back"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// DropPolicy decides what happens to a piece released outside the board.
type DropPolicy uint8

const (
	// Snapback returns the piece to its origin square.
	Snapback DropPolicy = iota
	// Remove takes the piece off the position and fades it out where it was released.
	Remove
	// Trash takes the piece off the position instantly.
	Trash
)

func (p DropPolicy) String() string {
	switch p {
	case Snapback:
		return "snapback"
	case Remove:
		return "remove"
	case Trash:
		return "trash"
	default:
		return "unknown"
	}
}

// ParseDropPolicy parses "snapback", "remove" or "trash".
func ParseDropPolicy(s string) (DropPolicy, error) {
	switch s {
	case "snapback":
		return Snapback, nil
	case "remove":
		return Remove, nil
	case "trash":
		return Trash, nil
	}
	return 0, fmt.Errorf("unknown drop policy %q", s)
}

// Drag is the gesture in progress.
type Drag struct {
	From  types.Square // NoSquare for spare pieces
	Piece types.Piece
	Spare bool
	Start types.Coord
	At    types.Coord
	Over  types.Square // square under the pointer, NoSquare off the board

	// Element is the lifted visual element, set by Host.Begin.
	Element anim.Handle
}

// Outcome reports how a gesture ended.
type Outcome struct {
	State State
	From  types.Square
	To    types.Square
	Piece types.Piece
	Spare bool
}

// Host is the board side of a gesture. Every method runs on the loop that
// delivers pointer events.
type Host interface {
	SquareAt(c types.Coord) (types.Square, bool)
	PieceAt(sq types.Square) (types.Piece, bool)

	// CanDrag reports whether a drag of p from sq may start. sq is NoSquare for spares.
	CanDrag(sq types.Square, p types.Piece) bool

	// Begin detaches the dragged piece's element so it can follow the pointer.
	Begin(d *Drag) error
	Follow(d *Drag)
	Hover(d *Drag)

	// Drop asks for the position change d.From -> to. False vetoes it.
	Drop(d *Drag, to types.Square) bool
	SnapBack(d *Drag)
	// Discard takes the piece off the position. fade selects a visible removal.
	Discard(d *Drag, fade bool)
	// Abort restores the dragged element without changing the position.
	Abort(d *Drag)
}

// Options tune the machine. They are read on every gesture.
type Options struct {
	// Threshold is the pointer travel, in cells, that turns an armed press into a drag.
	// Zero or less starts dragging on pointer down.
	Threshold int
	OffBoard  DropPolicy
}

// DefaultOptions drag after one cell and snap back off-board drops.
var DefaultOptions = Options{Threshold: 1, OffBoard: Snapback}

// Machine tracks at most one gesture at a time.
type Machine struct {
	host  Host
	opts  Options
	state State
	drag  *Drag
}

// New returns an idle machine.
func New(h Host, opts Options) *Machine {
	return &Machine{host: h, opts: opts}
}

// SetOptions takes effect from the next pointer event.
func (m *Machine) SetOptions(opts Options) {
	m.opts = opts
}

// Options returns the current options.
func (m *Machine) Options() Options {
	return m.opts
}

// State returns Idle, Armed or Dragging.
func (m *Machine) State() State {
	return m.state
}

// Drag returns a copy of the gesture in progress.
func (m *Machine) Drag() (Drag, bool) {
	if m.drag == nil {
		return Drag{}, false
	}
	return *m.drag, true
}

// PointerDown arms a drag on the piece under c. It returns false and changes
// nothing if a gesture is already active, there is no piece under c, or the
// host refuses the drag.
func (m *Machine) PointerDown(c types.Coord) bool {
	if m.state != Idle {
		return false
	}
	sq, ok := m.host.SquareAt(c)
	if !ok {
		return false
	}
	p, ok := m.host.PieceAt(sq)
	if !ok || !m.host.CanDrag(sq, p) {
		return false
	}
	m.drag = &Drag{From: sq, Piece: p, Start: c, At: c, Over: sq}
	m.state = Armed
	if m.opts.Threshold <= 0 {
		return m.begin()
	}
	return true
}

// PointerDownSpare starts dragging a spare piece at c. Spares skip the armed
// state since they have no square to click.
func (m *Machine) PointerDownSpare(p types.Piece, c types.Coord) bool {
	if m.state != Idle || !m.host.CanDrag(types.NoSquare, p) {
		return false
	}
	over, ok := m.host.SquareAt(c)
	if !ok {
		over = types.NoSquare
	}
	m.drag = &Drag{From: types.NoSquare, Piece: p, Spare: true, Start: c, At: c, Over: over}
	m.state = Armed
	return m.begin()
}

func (m *Machine) begin() bool {
	if err := m.host.Begin(m.drag); err != nil {
		m.reset()
		return false
	}
	m.state = Dragging
	m.host.Follow(m.drag)
	return true
}

func (m *Machine) reset() {
	m.state = Idle
	m.drag = nil
}

func travel(a, b types.Coord) int {
	dx, dy := a.X-b.X, a.Y-b.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx > dy {
		return dx
	}
	return dy
}

// PointerMove tracks the pointer and returns the resulting state.
func (m *Machine) PointerMove(c types.Coord) State {
	switch m.state {
	case Armed:
		m.drag.At = c
		if travel(c, m.drag.Start) < m.opts.Threshold {
			return m.state
		}
		if !m.begin() {
			return m.state
		}
		m.hover(c)
	case Dragging:
		m.drag.At = c
		m.host.Follow(m.drag)
		m.hover(c)
	}
	return m.state
}

func (m *Machine) hover(c types.Coord) {
	over, ok := m.host.SquareAt(c)
	if !ok {
		over = types.NoSquare
	}
	if over != m.drag.Over {
		m.drag.Over = over
		m.host.Hover(m.drag)
	}
}

// PointerUp ends the gesture. Releasing an armed press that never moved is a
// click and reports Idle.
func (m *Machine) PointerUp(c types.Coord) Outcome {
	d := m.drag
	switch m.state {
	case Idle:
		return Outcome{State: Idle, From: types.NoSquare, To: types.NoSquare}
	case Armed:
		m.reset()
		return Outcome{State: Idle, From: d.From, To: types.NoSquare, Piece: d.Piece, Spare: d.Spare}
	}

	d.At = c
	out := Outcome{From: d.From, To: types.NoSquare, Piece: d.Piece, Spare: d.Spare}
	to, onBoard := m.host.SquareAt(c)
	switch {
	case onBoard && !d.Spare && to == d.From:
		m.host.SnapBack(d)
		out.State = SnappedBack
	case onBoard:
		out.To = to
		if m.host.Drop(d, to) {
			out.State = Dropped
		} else {
			m.host.SnapBack(d)
			out.State = SnappedBack
		}
	case d.Spare:
		m.host.Discard(d, false)
		out.State = Cancelled
	default:
		switch m.opts.OffBoard {
		case Remove:
			m.host.Discard(d, true)
			out.State = Cancelled
		case Trash:
			m.host.Discard(d, false)
			out.State = Cancelled
		default:
			m.host.SnapBack(d)
			out.State = SnappedBack
		}
	}
	m.reset()
	return out
}

// Cancel abandons the active gesture, restoring any lifted element. It
// returns false when the machine was idle.
func (m *Machine) Cancel() bool {
	switch m.state {
	case Idle:
		return false
	case Dragging:
		m.host.Abort(m.drag)
	}
	m.reset()
	return true
}
