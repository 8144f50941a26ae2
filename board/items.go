package board

import (
	"termboard/items"
	"termboard/types"
)

// AddItem places it on the board and returns its id. Malformed anchors and
// duplicate ids fail with an error wrapping types.ErrInvalidItem. If the
// renderer cannot draw the item it is still added.
func (b *Board) AddItem(it items.Item) (string, error) {
	id, err := b.layer.Add(it)
	if err != nil {
		return "", err
	}
	stored, _ := b.layer.Get(id)
	p, _ := b.layer.Placement(id)
	if h, _, err := b.sched.Place(stored, p, b.cfg.Animation()); err == nil {
		b.elems[id] = h
	}
	b.emitItems(ItemsEvent{Added: []items.Item{stored}})
	return id, nil
}

// AddArrow draws an arrow between two squares.
func (b *Board) AddArrow(from, to types.Square, payload any) (string, error) {
	return b.AddItem(items.Item{Kind: items.KindArrow, Anchors: []types.Square{from, to}, Payload: payload})
}

// AddCircle marks a square.
func (b *Board) AddCircle(sq types.Square, payload any) (string, error) {
	return b.AddItem(items.Item{Kind: items.KindCircle, Anchors: []types.Square{sq}, Payload: payload})
}

func (b *Board) unplace(id string) {
	if h, ok := b.elems[id]; ok {
		b.sched.Unplace(h, b.cfg.Animation())
		delete(b.elems, id)
	}
}

// RemoveItem removes an item. It returns false if the id is absent.
func (b *Board) RemoveItem(id string) bool {
	it, ok := b.layer.Get(id)
	if !ok {
		return false
	}
	b.layer.Remove(id)
	b.unplace(id)
	b.emitItems(ItemsEvent{Removed: []items.Item{it}})
	return true
}

// MoveItem re-anchors an item and animates it to its new place.
func (b *Board) MoveItem(id string, anchors ...types.Square) error {
	p, err := b.layer.Move(id, anchors...)
	if err != nil {
		return err
	}
	if h, ok := b.elems[id]; ok {
		b.sched.MoveItem(h, p, b.cfg.Animation())
	}
	it, _ := b.layer.Get(id)
	b.emitItems(ItemsEvent{Moved: []items.Item{it}})
	return nil
}

// Item returns a copy of the item with the given id.
func (b *Board) Item(id string) (items.Item, bool) {
	return b.layer.Get(id)
}

// ItemPlacement returns where an item currently sits on screen.
func (b *Board) ItemPlacement(id string) (items.Placement, bool) {
	return b.layer.Placement(id)
}

// Items lists every item by z-order, then insertion.
func (b *Board) Items() []items.Item {
	return b.layer.List()
}

// ClearItems removes the items matching pred, or all of them when pred is nil.
func (b *Board) ClearItems(pred func(items.Item) bool) []items.Item {
	removed := b.layer.Clear(pred)
	if len(removed) == 0 {
		return nil
	}
	for _, it := range removed {
		b.unplace(it.ID)
	}
	b.emitItems(ItemsEvent{Removed: removed})
	return removed
}
