package items

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"termboard/types"
)

func sq(s string) types.Square { return types.MustSquare(s) }

func TestAddGeneratesUniqueIDs(t *testing.T) {
	l := NewLayer(types.DefaultGeometry)
	seen := map[string]bool{}
	for i := 0; i < 5; i++ {
		id, err := l.Add(Item{Kind: KindCircle, Anchors: []types.Square{sq("e4")}})
		if err != nil {
			t.Fatalf("Add: %v", err)
		}
		if seen[id] {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = true
	}

	// A caller id that looks generated must not collide with later generated ids.
	if _, err := l.Add(Item{ID: "item-6", Kind: KindCircle, Anchors: []types.Square{sq("a1")}}); err != nil {
		t.Fatalf("Add(item-6): %v", err)
	}
	id, err := l.Add(Item{Kind: KindCircle, Anchors: []types.Square{sq("a2")}})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if id == "item-6" {
		t.Error("generated id collided with caller id")
	}
}

func TestAddRejectsMalformedAnchors(t *testing.T) {
	l := NewLayer(types.DefaultGeometry)
	bad := []Item{
		{Kind: KindArrow, Anchors: []types.Square{sq("e2")}},
		{Kind: KindCircle},
		{Kind: KindCircle, Anchors: []types.Square{64}},
		{Kind: KindPiece, Anchors: []types.Square{types.NoSquare}},
		{Kind: Kind(9), Anchors: []types.Square{sq("e2")}},
	}
	for _, it := range bad {
		if _, err := l.Add(it); !errors.Is(err, types.ErrInvalidItem) {
			t.Errorf("Add(%+v) err = %v, want ErrInvalidItem", it, err)
		}
	}
	if l.Len() != 0 {
		t.Errorf("Len = %d after rejected adds, want 0", l.Len())
	}
}

func TestAddDuplicateIDRejected(t *testing.T) {
	l := NewLayer(types.DefaultGeometry)
	it := Item{ID: "hint", Kind: KindArrow, Anchors: []types.Square{sq("e2"), sq("e4")}}
	if _, err := l.Add(it); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := l.Add(it); !errors.Is(err, types.ErrInvalidItem) {
		t.Errorf("second Add err = %v, want ErrInvalidItem", err)
	}
	if !l.Remove("hint") {
		t.Fatal("Remove(hint) = false")
	}
	if _, err := l.Add(it); err != nil {
		t.Errorf("re-add after remove: %v", err)
	}
}

func TestAddThenRemoveRestoresContent(t *testing.T) {
	l := NewLayer(types.DefaultGeometry)
	l.Add(Item{Kind: KindCircle, Anchors: []types.Square{sq("d4")}, Payload: "red"})
	l.Add(Item{Kind: KindArrow, Anchors: []types.Square{sq("g1"), sq("f3")}})
	before := l.List()

	id, err := l.Add(Item{Kind: KindCustom, Anchors: []types.Square{sq("h8")}, Z: -1})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !l.Remove(id) {
		t.Fatal("Remove = false")
	}
	if diff := cmp.Diff(before, l.List()); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
	if l.Remove(id) {
		t.Error("Remove of absent id should be false")
	}
}

func TestListOrder(t *testing.T) {
	l := NewLayer(types.DefaultGeometry)
	l.Add(Item{ID: "b", Kind: KindCircle, Anchors: []types.Square{sq("a1")}, Z: 2})
	l.Add(Item{ID: "a", Kind: KindCircle, Anchors: []types.Square{sq("a1")}, Z: 1})
	l.Add(Item{ID: "c", Kind: KindCircle, Anchors: []types.Square{sq("a1")}, Z: 1})

	var ids []string
	for _, it := range l.List() {
		ids = append(ids, it.ID)
	}
	if diff := cmp.Diff([]string{"a", "c", "b"}, ids); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestGetReturnsCopy(t *testing.T) {
	l := NewLayer(types.DefaultGeometry)
	id, _ := l.Add(Item{Kind: KindArrow, Anchors: []types.Square{sq("a1"), sq("a8")}})
	it, ok := l.Get(id)
	if !ok {
		t.Fatal("Get = false")
	}
	it.Anchors[0] = sq("h1")
	again, _ := l.Get(id)
	if again.Anchors[0] != sq("a1") {
		t.Error("mutating a returned item changed the layer")
	}
	if _, ok := l.Get("missing"); ok {
		t.Error("Get(missing) = true")
	}
}

func TestClearWithPredicate(t *testing.T) {
	l := NewLayer(types.DefaultGeometry)
	l.Add(Item{Kind: KindArrow, Anchors: []types.Square{sq("a1"), sq("a2")}})
	l.Add(Item{Kind: KindCircle, Anchors: []types.Square{sq("b1")}})
	l.Add(Item{Kind: KindArrow, Anchors: []types.Square{sq("c1"), sq("c2")}})

	removed := l.Clear(func(it Item) bool { return it.Kind == KindArrow })
	if len(removed) != 2 {
		t.Errorf("removed %d, want 2", len(removed))
	}
	if l.Len() != 1 {
		t.Errorf("Len = %d, want 1", l.Len())
	}
	l.Clear(nil)
	if l.Len() != 0 {
		t.Errorf("Len = %d after Clear(nil), want 0", l.Len())
	}
}

func TestRelayoutKeepsIdentity(t *testing.T) {
	l := NewLayer(types.DefaultGeometry)
	for _, a := range [][2]string{{"e2", "e4"}, {"g1", "f3"}, {"d7", "d7"}} {
		if _, err := l.Add(Item{Kind: KindArrow, Anchors: []types.Square{sq(a[0]), sq(a[1])}, Payload: a[0]}); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	before := l.List()
	oldPlacement := map[string]Placement{}
	for _, it := range before {
		oldPlacement[it.ID], _ = l.Placement(it.ID)
	}

	flipped := types.DefaultGeometry
	flipped.Orientation = types.OrientBlack
	calls := 0
	l.Relayout(flipped, func(Item, Placement) { calls++ })

	if calls != 3 {
		t.Errorf("relayout callback calls = %d, want 3", calls)
	}
	if diff := cmp.Diff(before, l.List()); diff != "" {
		t.Errorf("items changed on relayout (-want +got):\n%s", diff)
	}
	for _, it := range before {
		p, _ := l.Placement(it.ID)
		if p == oldPlacement[it.ID] {
			t.Errorf("placement of %s unchanged after flip", it.ID)
		}
	}
}

func TestDegenerateArrow(t *testing.T) {
	l := NewLayer(types.DefaultGeometry)
	id, err := l.Add(Item{Kind: KindArrow, Anchors: []types.Square{sq("d4"), sq("d4")}})
	if err != nil {
		t.Fatalf("degenerate arrow rejected: %v", err)
	}
	p, _ := l.Placement(id)
	if !p.Degenerate() {
		t.Error("Degenerate() = false for same start and end")
	}
}

func TestMove(t *testing.T) {
	l := NewLayer(types.DefaultGeometry)
	id, _ := l.Add(Item{Kind: KindCustom, Anchors: []types.Square{sq("a1")}, Z: 3, Payload: 7})
	p, err := l.Move(id, sq("h8"))
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if p.At != types.DefaultGeometry.Coord(sq("h8")) {
		t.Errorf("placement = %v", p)
	}
	it, _ := l.Get(id)
	if it.Z != 3 || it.Payload != 7 {
		t.Errorf("Move changed z or payload: %+v", it)
	}
	if _, err := l.Move(id, sq("a1"), sq("a2")); !errors.Is(err, types.ErrInvalidItem) {
		t.Errorf("Move with wrong arity err = %v", err)
	}
	if _, err := l.Move("nope", sq("a1")); !errors.Is(err, types.ErrInvalidItem) {
		t.Errorf("Move of missing item err = %v", err)
	}
}
