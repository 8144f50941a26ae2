// Package items stores everything placed on the board besides the position's
// own pieces: arrows, circles, custom markers and decorative pieces.
package items

import (
	"fmt"
	"sort"
	"strconv"

	"termboard/types"
)

// Kind tags an Item.
type Kind uint8

const (
	KindPiece Kind = iota
	KindArrow
	KindCircle
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindPiece:
		return "piece"
	case KindArrow:
		return "arrow"
	case KindCircle:
		return "circle"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// anchors returns how many squares an item of this kind is anchored to.
func (k Kind) anchors() int {
	if k == KindArrow {
		return 2
	}
	return 1
}

// Item is the shared envelope of every placed object. Payload is opaque to the
// board and handed to the renderer untouched.
type Item struct {
	ID      string
	Kind    Kind
	Anchors []types.Square
	Z       int
	Payload any
}

// Placement is where an item currently sits on screen. To is only meaningful
// for arrows.
type Placement struct {
	At types.Coord
	To types.Coord
}

// Degenerate reports a zero-length arrow placement.
func (p Placement) Degenerate() bool {
	return p.At == p.To
}

// PlacementOf computes the placement of an item's anchors under a geometry.
func PlacementOf(it Item, g types.Geometry) Placement {
	var p Placement
	if len(it.Anchors) > 0 {
		p.At = g.Coord(it.Anchors[0])
		p.To = p.At
	}
	if len(it.Anchors) > 1 {
		p.To = g.Coord(it.Anchors[1])
	}
	return p
}

func (it Item) clone() Item {
	it.Anchors = append([]types.Square(nil), it.Anchors...)
	return it
}

func validate(it Item) error {
	if it.Kind > KindCustom {
		return &types.ItemError{ID: it.ID, Reason: fmt.Sprintf("unknown kind %d", it.Kind)}
	}
	if want := it.Kind.anchors(); len(it.Anchors) != want {
		return &types.ItemError{ID: it.ID, Reason: fmt.Sprintf("%s needs %d anchor(s), got %d", it.Kind, want, len(it.Anchors))}
	}
	for _, sq := range it.Anchors {
		if !sq.Valid() {
			return &types.ItemError{ID: it.ID, Reason: fmt.Sprintf("anchor %d out of range", int(sq))}
		}
	}
	return nil
}

type entry struct {
	item      Item
	seq       uint64
	placement Placement
}

// Layer is an arena of items keyed by id.
type Layer struct {
	entries map[string]*entry
	nextID  uint64
	seq     uint64
	geom    types.Geometry
}

// NewLayer creates an empty layer laid out with g.
func NewLayer(g types.Geometry) *Layer {
	return &Layer{
		entries: make(map[string]*entry),
		geom:    g,
	}
}

func (l *Layer) generateID() string {
	for {
		l.nextID++
		id := "item-" + strconv.FormatUint(l.nextID, 10)
		if _, taken := l.entries[id]; !taken {
			return id
		}
	}
}

// Add stores a copy of it and returns its id. An empty ID is replaced with a
// generated one. Malformed anchors and ids already on the board are rejected.
func (l *Layer) Add(it Item) (string, error) {
	if err := validate(it); err != nil {
		return "", err
	}
	if it.ID == "" {
		it.ID = l.generateID()
	} else if _, taken := l.entries[it.ID]; taken {
		return "", &types.ItemError{ID: it.ID, Reason: "id already in use"}
	}
	l.seq++
	it = it.clone()
	l.entries[it.ID] = &entry{
		item:      it,
		seq:       l.seq,
		placement: PlacementOf(it, l.geom),
	}
	return it.ID, nil
}

// Remove deletes an item. It returns false if the id is absent.
func (l *Layer) Remove(id string) bool {
	if _, ok := l.entries[id]; !ok {
		return false
	}
	delete(l.entries, id)
	return true
}

// Get returns a copy of the item with the given id.
func (l *Layer) Get(id string) (Item, bool) {
	e, ok := l.entries[id]
	if !ok {
		return Item{}, false
	}
	return e.item.clone(), true
}

// Placement returns the current on-screen placement of an item.
func (l *Layer) Placement(id string) (Placement, bool) {
	e, ok := l.entries[id]
	if !ok {
		return Placement{}, false
	}
	return e.placement, true
}

// Move re-anchors an item, keeping its id, z-order and payload.
func (l *Layer) Move(id string, anchors ...types.Square) (Placement, error) {
	e, ok := l.entries[id]
	if !ok {
		return Placement{}, &types.ItemError{ID: id, Reason: "no such item"}
	}
	moved := e.item
	moved.Anchors = anchors
	if err := validate(moved); err != nil {
		return Placement{}, err
	}
	e.item = moved.clone()
	e.placement = PlacementOf(e.item, l.geom)
	return e.placement, nil
}

func (l *Layer) sorted() []*entry {
	out := make([]*entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].item.Z != out[j].item.Z {
			return out[i].item.Z < out[j].item.Z
		}
		return out[i].seq < out[j].seq
	})
	return out
}

// List returns copies of all items ordered by z-order, then insertion.
func (l *Layer) List() []Item {
	entries := l.sorted()
	out := make([]Item, len(entries))
	for i, e := range entries {
		out[i] = e.item.clone()
	}
	return out
}

// Clear removes every item matching pred (all items when pred is nil) and
// returns the removed items in list order.
func (l *Layer) Clear(pred func(Item) bool) []Item {
	var removed []Item
	for _, e := range l.sorted() {
		if pred != nil && !pred(e.item.clone()) {
			continue
		}
		delete(l.entries, e.item.ID)
		removed = append(removed, e.item.clone())
	}
	return removed
}

// Len returns the number of items.
func (l *Layer) Len() int {
	return len(l.entries)
}

// Geometry returns the geometry items are currently laid out with.
func (l *Layer) Geometry() types.Geometry {
	return l.geom
}

// Relayout recomputes the placement of every item for a new geometry. Ids,
// anchors, z-order and payloads are untouched. fn, if not nil, is called with
// each item and its new placement in list order.
func (l *Layer) Relayout(g types.Geometry, fn func(Item, Placement)) {
	l.geom = g
	for _, e := range l.sorted() {
		e.placement = PlacementOf(e.item, g)
		if fn != nil {
			fn(e.item.clone(), e.placement)
		}
	}
}
