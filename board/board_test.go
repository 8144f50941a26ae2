package board

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"termboard/anim/animtest"
	"termboard/config"
	"termboard/diff"
	"termboard/engine/rules"
	"termboard/interact"
	"termboard/items"
	"termboard/notation"
	"termboard/types"
)

const endgame = "4k3/8/8/8/8/8/4P3/4K3"

var (
	wP = types.Piece{Color: types.White, Kind: types.Pawn}
	bQ = types.Piece{Color: types.Black, Kind: types.Queen}
)

func sq(s string) types.Square { return types.MustSquare(s) }

func newBoard(t *testing.T, mod func(*config.BoardConfig), opts ...Option) (*Board, *animtest.Renderer) {
	t.Helper()
	cfg := config.DefaultBoard
	if mod != nil {
		mod(&cfg)
	}
	r := animtest.New()
	b, err := New(r, append([]Option{WithConfig(cfg), WithRegistry(NewRegistry())}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	r.Reset()
	return b, r
}

func (b *Board) at(s string) types.Coord {
	return b.Geometry().Coord(sq(s))
}

var offBoard = types.Coord{X: 40, Y: 3}

func drag(b *Board, from string, to types.Coord) interact.Outcome {
	b.PointerDown(b.at(from))
	b.PointerMove(to)
	return b.PointerUp(to)
}

func TestNewStartsFromConfig(t *testing.T) {
	b, r := newBoard(t, nil)
	if d := cmp.Diff(notation.Start(), b.Position()); d != "" {
		t.Errorf("position mismatch (-want +got):\n%s", d)
	}
	if len(r.Visible(items.KindPiece)) != 32 {
		t.Errorf("visible pieces = %d, want 32", len(r.Visible(items.KindPiece)))
	}
	if b.FEN() != notation.StartFEN {
		t.Errorf("FEN() = %q", b.FEN())
	}
}

func TestNewRejects(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, types.ErrRendererMissing) {
		t.Errorf("nil renderer: err = %v", err)
	}
	cfg := config.DefaultBoard
	cfg.Position = "rnbqkbnr/ppp"
	if _, err := New(animtest.New(), WithConfig(cfg), WithRegistry(NewRegistry())); err == nil {
		t.Error("malformed initial position accepted")
	}
}

func TestStartToEndgame(t *testing.T) {
	b, r := newBoard(t, nil)
	var events []ChangeEvent
	b.OnChange(func(ev ChangeEvent) { events = append(events, ev) })

	done, err := b.SetFEN(endgame, true)
	if err != nil {
		t.Fatalf("SetFEN: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("change events = %d, want 1", len(events))
	}
	_, removes, adds := diff.Count(events[0].Ops)
	if removes < 29 || adds != 0 {
		t.Errorf("removes = %d adds = %d, want >= 29 and 0", removes, adds)
	}
	if done.Fired() {
		t.Fatal("animated change fired before the renderer finished")
	}

	r.FinishAll()
	if !done.Fired() {
		t.Fatal("completion did not fire")
	}
	if got := len(r.Visible(items.KindPiece)); got != 3 {
		t.Errorf("visible pieces = %d, want 3", got)
	}
	if got := len(b.Position()); got != 3 {
		t.Errorf("pieces = %d, want 3", got)
	}
}

func TestDragE2E4(t *testing.T) {
	b, r := newBoard(t, nil)
	var events []ChangeEvent
	b.OnChange(func(ev ChangeEvent) { events = append(events, ev) })
	b.OnDrop(func(DropEvent) bool { return true })

	out := drag(b, "e2", b.at("e4"))
	if out.State != interact.Dropped {
		t.Fatalf("outcome = %v, want dropped", out.State)
	}
	pos := b.Position()
	if pos[sq("e4")] != wP {
		t.Errorf("e4 = %v, want wP", pos[sq("e4")])
	}
	if _, ok := pos[sq("e2")]; ok {
		t.Error("e2 still occupied")
	}
	if len(events) != 1 {
		t.Fatalf("change events = %d, want 1", len(events))
	}
	want := []diff.Operation{{Kind: diff.Move, From: sq("e2"), To: sq("e4"), Piece: wP}}
	if d := cmp.Diff(want, events[0].Ops); d != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", d)
	}
	if events[0].Source != SourceDrop {
		t.Errorf("source = %v, want drop", events[0].Source)
	}

	r.FinishAll()
	if r.Overlaps != 0 {
		t.Errorf("overlaps = %d", r.Overlaps)
	}
	if b.DragState() != interact.Idle {
		t.Errorf("drag state = %v", b.DragState())
	}
}

func TestDragHoverEvents(t *testing.T) {
	b, _ := newBoard(t, nil)
	var over []types.Square
	b.OnDragMove(func(ev DragEvent) { over = append(over, ev.Over) })

	b.PointerDown(b.at("e2"))
	b.PointerMove(b.at("e3"))
	if h, ok := b.Hovered(); !ok || h != sq("e3") {
		t.Errorf("Hovered() = %v, %v", h, ok)
	}
	b.PointerMove(offBoard)
	b.PointerUp(offBoard)

	want := []types.Square{sq("e3"), types.NoSquare}
	if d := cmp.Diff(want, over); d != "" {
		t.Errorf("hover mismatch (-want +got):\n%s", d)
	}
	if _, ok := b.Hovered(); ok {
		t.Error("hover survived the drop")
	}
}

func TestTrashDrop(t *testing.T) {
	b, r := newBoard(t, func(c *config.BoardConfig) { c.DropOffBoard = "trash" })
	snapbacks := 0
	b.OnSnapback(func(DragEvent) { snapbacks++ })

	b.PointerDown(b.at("e2"))
	b.PointerMove(offBoard)
	d, ok := b.Dragging()
	if !ok {
		t.Fatal("no drag in progress")
	}
	r.Reset()

	out := b.PointerUp(offBoard)
	if out.State != interact.Cancelled {
		t.Fatalf("outcome = %v, want cancelled", out.State)
	}
	if _, ok := b.Position()[sq("e2")]; ok {
		t.Error("trashed piece still on e2")
	}
	if snapbacks != 0 {
		t.Errorf("snapbacks = %d, want 0", snapbacks)
	}
	if n := r.Count("move"); n != 0 {
		t.Errorf("move transitions = %d, want none", n)
	}
	if el, _ := r.Element(d.Element); !el.Removed {
		t.Error("trashed element not removed instantly")
	}
}

func TestRemoveDropFades(t *testing.T) {
	b, r := newBoard(t, func(c *config.BoardConfig) { c.DropOffBoard = "remove" })
	b.PointerDown(b.at("g1"))
	b.PointerMove(offBoard)
	d, _ := b.Dragging()
	out := b.PointerUp(offBoard)

	if out.State != interact.Cancelled {
		t.Fatalf("outcome = %v, want cancelled", out.State)
	}
	if el, _ := r.Element(d.Element); el.Removed {
		t.Fatal("removed element should fade out, not vanish")
	}
	r.FinishAll()
	if el, _ := r.Element(d.Element); !el.Removed {
		t.Error("element not removed after the fade")
	}
	if len(b.Position()) != 31 {
		t.Errorf("pieces = %d, want 31", len(b.Position()))
	}
}

func TestOffBoardDropNotifiesCancel(t *testing.T) {
	for _, policy := range []string{"trash", "remove"} {
		t.Run(policy, func(t *testing.T) {
			b, _ := newBoard(t, func(c *config.BoardConfig) { c.DropOffBoard = policy })
			var cancelled []DragEvent
			snapbacks := 0
			b.OnDragCancel(func(ev DragEvent) { cancelled = append(cancelled, ev) })
			b.OnSnapback(func(DragEvent) { snapbacks++ })

			if out := drag(b, "e2", offBoard); out.State != interact.Cancelled {
				t.Fatalf("outcome = %v, want cancelled", out.State)
			}
			if len(cancelled) != 1 {
				t.Fatalf("cancel events = %d, want 1", len(cancelled))
			}
			if cancelled[0].From != sq("e2") || cancelled[0].Piece != wP {
				t.Errorf("cancel event = %+v, want wP from e2", cancelled[0])
			}
			if snapbacks != 0 {
				t.Errorf("snapbacks = %d, want 0", snapbacks)
			}
		})
	}
}

func TestClickFiresOnlyDragStart(t *testing.T) {
	b, _ := newBoard(t, nil)
	starts, cancels, snapbacks := 0, 0, 0
	b.OnDragStart(func(DragEvent) bool { starts++; return true })
	b.OnDragCancel(func(DragEvent) { cancels++ })
	b.OnSnapback(func(DragEvent) { snapbacks++ })

	b.PointerDown(b.at("e2"))
	if out := b.PointerUp(b.at("e2")); out.State != interact.Idle {
		t.Fatalf("outcome = %v, want idle", out.State)
	}
	if starts != 1 || cancels != 0 || snapbacks != 0 {
		t.Errorf("starts = %d cancels = %d snapbacks = %d, want 1 0 0", starts, cancels, snapbacks)
	}
}

func TestSnapbackPolicy(t *testing.T) {
	b, r := newBoard(t, nil)
	snapbacks := 0
	b.OnSnapback(func(DragEvent) { snapbacks++ })
	b.PointerDown(b.at("b1"))
	b.PointerMove(offBoard)
	d, _ := b.Dragging()

	if out := b.PointerUp(offBoard); out.State != interact.SnappedBack {
		t.Fatalf("outcome = %v, want snapped-back", out.State)
	}
	r.FinishAll()
	if snapbacks != 1 {
		t.Errorf("snapbacks = %d, want 1", snapbacks)
	}
	el, _ := r.Element(d.Element)
	if el.Placement.At != b.at("b1") {
		t.Errorf("element at %v, want b1 %v", el.Placement.At, b.at("b1"))
	}
	if d := cmp.Diff(notation.Start(), b.Position()); d != "" {
		t.Errorf("position changed:\n%s", d)
	}
}

func TestVetoedDrop(t *testing.T) {
	b, r := newBoard(t, nil)
	changes, snapbacks := 0, 0
	b.OnChange(func(ChangeEvent) { changes++ })
	b.OnSnapback(func(DragEvent) { snapbacks++ })
	b.OnDrop(func(ev DropEvent) bool {
		if ev.To != sq("e4") || ev.After[sq("e4")] != wP {
			t.Errorf("drop event = %+v", ev)
		}
		return false
	})

	out := drag(b, "e2", b.at("e4"))
	if out.State != interact.SnappedBack {
		t.Fatalf("outcome = %v, want snapped-back", out.State)
	}
	r.FinishAll()
	if changes != 0 || snapbacks != 1 {
		t.Errorf("changes = %d snapbacks = %d, want 0 and 1", changes, snapbacks)
	}
	if d := cmp.Diff(notation.Start(), b.Position()); d != "" {
		t.Errorf("position changed:\n%s", d)
	}
	h, _ := b.sched.ElementAt(sq("e2"))
	if el, _ := r.Element(h); el.Placement.At != b.at("e2") {
		t.Errorf("e2 element at %v", el.Placement.At)
	}
}

func TestValidatorHook(t *testing.T) {
	b, _ := newBoard(t, nil, WithValidator(rules.New()))
	if out := drag(b, "e2", b.at("e5")); out.State != interact.SnappedBack {
		t.Errorf("illegal drop: %v, want snapped-back", out.State)
	}
	if out := drag(b, "e2", b.at("e4")); out.State != interact.Dropped {
		t.Errorf("legal drop: %v, want dropped", out.State)
	}
}

func TestConcurrentDragRejected(t *testing.T) {
	b, _ := newBoard(t, nil)
	b.PointerDown(b.at("e2"))
	b.PointerMove(b.at("e4"))
	if b.PointerDown(b.at("d2")) {
		t.Fatal("second drag accepted")
	}
	d, ok := b.Dragging()
	if !ok || d.From != sq("e2") || b.DragState() != interact.Dragging {
		t.Errorf("active drag disturbed: %+v %v", d, b.DragState())
	}
}

func TestDragDisabled(t *testing.T) {
	b, _ := newBoard(t, func(c *config.BoardConfig) { c.Draggable = false })
	if b.PointerDown(b.at("e2")) {
		t.Error("drag started on a board that is not draggable")
	}
	b2, _ := newBoard(t, nil)
	b2.OnDragStart(func(ev DragEvent) bool { return ev.Piece.Color == types.Black })
	if b2.PointerDown(b2.at("e2")) {
		t.Error("drag start handler was ignored")
	}
	if !b2.PointerDown(b2.at("e7")) {
		t.Error("black pawn should be draggable")
	}
}

func TestSetPositionDuringDrag(t *testing.T) {
	b, r := newBoard(t, nil)
	cancels := 0
	b.OnDragCancel(func(DragEvent) { cancels++ })
	b.PointerDown(b.at("e2"))
	b.PointerMove(b.at("e4"))

	done, err := b.SetFEN(endgame, true)
	if err != nil {
		t.Fatal(err)
	}
	if b.DragState() != interact.Idle || cancels != 1 {
		t.Errorf("drag state = %v cancels = %d", b.DragState(), cancels)
	}
	r.FinishAll()
	if !done.Fired() {
		t.Fatal("completion did not fire")
	}
	if got := len(r.Visible(items.KindPiece)); got != 3 {
		t.Errorf("visible pieces = %d, want 3", got)
	}
	h, ok := b.sched.ElementAt(sq("e2"))
	if !ok {
		t.Fatal("no element on e2")
	}
	if el, _ := r.Element(h); el.Placement.At != b.at("e2") {
		t.Errorf("e2 element at %v", el.Placement.At)
	}
}

func TestSetFENInvalidLeavesState(t *testing.T) {
	b, r := newBoard(t, nil)
	changes := 0
	b.OnChange(func(ChangeEvent) { changes++ })

	_, err := b.SetFEN("rnbqkbnr/pppppppp/9/8", true)
	if !errors.Is(err, types.ErrInvalidNotation) {
		t.Fatalf("err = %v, want ErrInvalidNotation", err)
	}
	if changes != 0 || len(r.Calls) != 0 {
		t.Errorf("changes = %d renderer calls = %d, want none", changes, len(r.Calls))
	}
	if d := cmp.Diff(notation.Start(), b.Position()); d != "" {
		t.Errorf("position changed:\n%s", d)
	}
}

func TestSetPositionSnapshot(t *testing.T) {
	b, _ := newBoard(t, nil)
	pos := types.Position{sq("e1"): {Color: types.White, Kind: types.King}}
	b.SetPosition(pos, false)
	pos[sq("e8")] = types.Piece{Color: types.Black, Kind: types.King}
	if len(b.Position()) != 1 {
		t.Error("caller mutation leaked into the board")
	}
	snap := b.Position()
	delete(snap, sq("e1"))
	if len(b.Position()) != 1 {
		t.Error("snapshot mutation leaked into the board")
	}
}

func TestSetSamePositionIsQuiet(t *testing.T) {
	b, r := newBoard(t, nil)
	changes := 0
	b.OnChange(func(ChangeEvent) { changes++ })
	done := b.Start(true)
	if !done.Fired() || changes != 0 || len(r.Calls) != 0 {
		t.Errorf("fired = %v changes = %d calls = %d", done.Fired(), changes, len(r.Calls))
	}
}

func TestAnimationCompleteEvent(t *testing.T) {
	b, r := newBoard(t, nil)
	var settled []types.Position
	b.OnAnimationComplete(func(pos types.Position) { settled = append(settled, pos) })
	b.Clear(true)
	if len(settled) != 0 {
		t.Fatal("settled before the renderer finished")
	}
	r.FinishAll()
	if len(settled) != 1 || len(settled[0]) != 0 {
		t.Errorf("settled = %v", settled)
	}
}

func TestMove(t *testing.T) {
	b, _ := newBoard(t, nil)
	if _, err := b.Move(false, "e2-e4", "e7-e5, g1-f3"); err != nil {
		t.Fatalf("Move: %v", err)
	}
	want := "rnbqkbnr/pppp1ppp/8/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R"
	if b.FEN() != want {
		t.Errorf("FEN() = %q, want %q", b.FEN(), want)
	}
	if _, err := b.Move(false, "e3-e5"); !errors.Is(err, types.ErrInvalidNotation) {
		t.Errorf("move from empty square: err = %v", err)
	}
	if b.FEN() != want {
		t.Error("failed Move changed the position")
	}
}

func TestSpareDrop(t *testing.T) {
	b, r := newBoard(t, func(c *config.BoardConfig) { c.SparePieces = true })
	var events []ChangeEvent
	b.OnChange(func(ev ChangeEvent) { events = append(events, ev) })

	spare := types.Coord{X: 20, Y: 2}
	if !b.PointerDownSpare(bQ, spare) {
		t.Fatal("PointerDownSpare = false")
	}
	b.PointerMove(b.at("d5"))
	out := b.PointerUp(b.at("d5"))
	if out.State != interact.Dropped || !out.Spare {
		t.Fatalf("outcome = %+v", out)
	}
	r.FinishAll()
	if b.Position()[sq("d5")] != bQ {
		t.Errorf("d5 = %v, want bQ", b.Position()[sq("d5")])
	}
	want := []diff.Operation{{Kind: diff.Add, From: types.NoSquare, To: sq("d5"), Piece: bQ}}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if d := cmp.Diff(want, events[0].Ops); d != "" {
		t.Errorf("ops mismatch (-want +got):\n%s", d)
	}

	b2, _ := newBoard(t, nil)
	if b2.PointerDownSpare(bQ, spare) {
		t.Error("spare drag allowed with spare pieces disabled")
	}
}

func TestFlipKeepsItems(t *testing.T) {
	b, r := newBoard(t, nil)
	for _, a := range [][2]string{{"e2", "e4"}, {"g1", "f3"}, {"a1", "a1"}} {
		if _, err := b.AddArrow(sq(a[0]), sq(a[1]), nil); err != nil {
			t.Fatalf("AddArrow(%v): %v", a, err)
		}
	}
	r.FinishAll()
	before := b.Items()
	placements := make(map[string]items.Placement)
	for _, it := range before {
		placements[it.ID], _ = b.ItemPlacement(it.ID)
	}

	b.Flip()
	if b.Orientation() != types.OrientBlack {
		t.Fatalf("orientation = %v", b.Orientation())
	}
	if d := cmp.Diff(before, b.Items()); d != "" {
		t.Errorf("items changed on flip (-before +after):\n%s", d)
	}
	handles := r.Visible(items.KindArrow)
	if len(handles) != 3 {
		t.Fatalf("visible arrows = %d, want 3", len(handles))
	}
	for _, h := range handles {
		el, _ := r.Element(h)
		p, _ := b.ItemPlacement(el.Item.ID)
		if p == placements[el.Item.ID] {
			t.Errorf("%s placement unchanged by flip", el.Item.ID)
		}
		if el.Placement != p {
			t.Errorf("%s element at %v, want %v", el.Item.ID, el.Placement, p)
		}
	}
	if d := cmp.Diff(notation.Start(), b.Position()); d != "" {
		t.Errorf("position changed on flip:\n%s", d)
	}
}

func TestResizeRelaysPieces(t *testing.T) {
	b, r := newBoard(t, nil)
	b.Resize(32, 16)
	if g := b.Geometry(); g.SquareW != 4 || g.SquareH != 2 {
		t.Fatalf("geometry = %+v", g)
	}
	h, _ := b.sched.ElementAt(sq("e1"))
	if el, _ := r.Element(h); el.Placement.At != b.at("e1") {
		t.Errorf("e1 element at %v, want %v", el.Placement.At, b.at("e1"))
	}
}

func TestItems(t *testing.T) {
	b, r := newBoard(t, nil)
	var evs []ItemsEvent
	b.OnItemsChange(func(ev ItemsEvent) { evs = append(evs, ev) })

	id, err := b.AddCircle(sq("d4"), "hint")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.AddItem(items.Item{ID: id, Kind: items.KindCircle, Anchors: []types.Square{sq("e4")}}); !errors.Is(err, types.ErrInvalidItem) {
		t.Errorf("duplicate id: err = %v", err)
	}
	if _, err := b.AddItem(items.Item{Kind: items.KindArrow, Anchors: []types.Square{sq("e4")}}); !errors.Is(err, types.ErrInvalidItem) {
		t.Errorf("one-anchor arrow: err = %v", err)
	}
	if err := b.MoveItem(id, sq("d5")); err != nil {
		t.Fatalf("MoveItem: %v", err)
	}
	if it, _ := b.Item(id); it.Anchors[0] != sq("d5") || it.Payload != "hint" {
		t.Errorf("item = %+v", it)
	}
	if !b.RemoveItem(id) || b.RemoveItem(id) {
		t.Error("RemoveItem should succeed once")
	}
	r.FinishAll()
	if len(b.Items()) != 0 || len(r.Visible(items.KindCircle)) != 0 {
		t.Errorf("items left: %v", b.Items())
	}
	if len(evs) != 3 || len(evs[0].Added) != 1 || len(evs[1].Moved) != 1 || len(evs[2].Removed) != 1 {
		t.Errorf("events = %+v", evs)
	}
}

func TestItemRendererFailureIsTolerated(t *testing.T) {
	b, r := newBoard(t, nil)
	r.Fail = func(it items.Item) bool { return it.Kind == items.KindCircle }
	id, err := b.AddCircle(sq("c3"), nil)
	if err != nil {
		t.Fatalf("AddCircle: %v", err)
	}
	if _, ok := b.Item(id); !ok {
		t.Error("item dropped after a renderer failure")
	}
	if err := b.MoveItem(id, sq("c4")); err != nil {
		t.Errorf("MoveItem: %v", err)
	}
	if !b.RemoveItem(id) {
		t.Error("RemoveItem = false")
	}
}

func TestClearItems(t *testing.T) {
	b, _ := newBoard(t, nil)
	b.AddArrow(sq("e2"), sq("e4"), nil)
	b.AddCircle(sq("e4"), nil)
	b.AddCircle(sq("d4"), nil)
	removed := b.ClearItems(func(it items.Item) bool { return it.Kind == items.KindCircle })
	if len(removed) != 2 || len(b.Items()) != 1 {
		t.Errorf("removed = %d left = %d", len(removed), len(b.Items()))
	}
	if b.ClearItems(nil); len(b.Items()) != 0 {
		t.Error("ClearItems(nil) left items")
	}
}

func TestSetConfig(t *testing.T) {
	b, _ := newBoard(t, nil)
	cfg := b.Config()
	cfg.DropOffBoard = "sideways"
	if err := b.SetConfig(cfg); err == nil {
		t.Fatal("invalid config accepted")
	}
	cfg.DropOffBoard = "trash"
	if err := b.SetConfig(cfg); err != nil {
		t.Fatal(err)
	}
	if out := drag(b, "a2", offBoard); out.State != interact.Cancelled {
		t.Errorf("outcome = %v, want cancelled", out.State)
	}
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	r1, r2 := animtest.New(), animtest.New()
	b1, err := New(r1, WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}
	b2, err := New(r2, WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}
	if b1.ID() == b2.ID() || reg.Len() != 2 {
		t.Errorf("ids %q %q, live %d", b1.ID(), b2.ID(), reg.Len())
	}

	b1.Destroy()
	b1.Destroy()
	if reg.Len() != 1 {
		t.Errorf("live = %d after Destroy, want 1", reg.Len())
	}
	if got := len(r1.Visible(items.KindPiece)); got != 0 {
		t.Errorf("visible pieces after Destroy = %d", got)
	}
	if got := len(r2.Visible(items.KindPiece)); got != 32 {
		t.Errorf("second board disturbed: %d pieces", got)
	}
}

func TestDefaultRegistryIsShared(t *testing.T) {
	if Default() != Default() {
		t.Error("Default() returned different registries")
	}
}
