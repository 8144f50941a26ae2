package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"termboard/engine"
	"termboard/notation"
	"termboard/types"
)

func sq(s string) types.Square { return types.MustSquare(s) }

var wP = types.Piece{Color: types.White, Kind: types.Pawn}

func TestNewGamePosition(t *testing.T) {
	g := New()
	if d := cmp.Diff(notation.Start(), g.Position()); d != "" {
		t.Errorf("start position mismatch (-want +got):\n%s", d)
	}
	if g.Turn() != types.White {
		t.Errorf("Turn() = %v, want white", g.Turn())
	}
}

func TestValidateMove(t *testing.T) {
	g := New()
	tests := []struct {
		from, to string
		piece    types.Piece
		want     bool
	}{
		{"e2", "e4", wP, true},
		{"e2", "e5", wP, false},
		{"g1", "f3", types.Piece{Color: types.White, Kind: types.Knight}, true},
		{"g1", "f3", wP, false},
		{"e7", "e5", types.Piece{Color: types.Black, Kind: types.Pawn}, false},
	}
	for _, tt := range tests {
		if got := g.ValidateMove(sq(tt.from), sq(tt.to), tt.piece); got != tt.want {
			t.Errorf("ValidateMove(%s, %s, %v) = %v, want %v", tt.from, tt.to, tt.piece, got, tt.want)
		}
	}
	if g.ValidateMove(types.NoSquare, sq("e4"), wP) {
		t.Error("spare drop validated")
	}
}

func TestPlayMove(t *testing.T) {
	g := New()
	var events []engine.MoveEvent
	g.OnMove(func(ev engine.MoveEvent) { events = append(events, ev) })

	if err := g.PlayMove(sq("e2"), sq("e4")); err != nil {
		t.Fatalf("PlayMove: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	ev := events[0]
	if ev.Notation != "e2e4" || ev.Piece != wP {
		t.Errorf("event = %+v", ev)
	}
	if ev.Position[sq("e4")] != wP {
		t.Error("event position lacks the pawn on e4")
	}
	if _, ok := ev.Position[sq("e2")]; ok {
		t.Error("event position still has e2")
	}

	err := g.PlayMove(sq("e4"), sq("e6"))
	if !errors.Is(err, ErrIllegalMove) {
		t.Errorf("PlayMove(e4, e6) error = %v, want ErrIllegalMove", err)
	}
	if got := g.History(); len(got) != 1 || got[0] != "e4" {
		t.Errorf("History() = %v, want [e4]", got)
	}
}

func TestCastlingMovesRook(t *testing.T) {
	g, err := FromFEN("r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if err := g.PlayMove(sq("e1"), sq("g1")); err != nil {
		t.Fatalf("castle: %v", err)
	}
	pos := g.Position()
	if pos[sq("f1")] != (types.Piece{Color: types.White, Kind: types.Rook}) {
		t.Errorf("f1 = %v, want wR", pos[sq("f1")])
	}
	if _, ok := pos[sq("h1")]; ok {
		t.Error("h1 rook did not move")
	}
}

func TestPromotionDefaultsToQueen(t *testing.T) {
	g, err := FromFEN("8/4P3/8/8/8/8/8/k6K w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if err := g.PlayMove(sq("e7"), sq("e8")); err != nil {
		t.Fatalf("promote: %v", err)
	}
	if got := g.Position()[sq("e8")]; got.Kind != types.Queen {
		t.Errorf("e8 = %v, want a queen", got)
	}
}

func TestFromFEN(t *testing.T) {
	g, err := FromFEN("4k3/8/8/8/8/8/4P3/4K3")
	if err != nil {
		t.Fatalf("bare board field: %v", err)
	}
	if len(g.Position()) != 3 {
		t.Errorf("pieces = %d, want 3", len(g.Position()))
	}
	if _, err := FromFEN("not a fen at all"); !errors.Is(err, types.ErrInvalidNotation) {
		t.Errorf("err = %v, want ErrInvalidNotation", err)
	}
}

func TestReplay(t *testing.T) {
	g, err := FromPGN(strings.NewReader("1. f3 e5 2. g4 Qh4# 0-1"))
	if err != nil {
		t.Fatalf("FromPGN: %v", err)
	}
	if g.Len() != 4 || g.Index() != 0 {
		t.Fatalf("Len = %d Index = %d, want 4 and 0", g.Len(), g.Index())
	}
	if d := cmp.Diff(notation.Start(), g.Position()); d != "" {
		t.Errorf("replay does not start at the first position:\n%s", d)
	}
	if err := g.PlayMove(sq("e2"), sq("e4")); !errors.Is(err, ErrReplaying) {
		t.Errorf("PlayMove while replaying = %v, want ErrReplaying", err)
	}

	pos, ok := g.Next()
	if !ok || pos[sq("f3")] != wP {
		t.Errorf("Next() = %v, %v", notation.Describe(pos), ok)
	}
	if _, ok := g.Prev(); !ok || g.Index() != 0 {
		t.Errorf("Prev() index = %d", g.Index())
	}
	if _, ok := g.Prev(); ok {
		t.Error("Prev() at the start should fail")
	}
	pos, ok = g.Seek(4)
	if !ok || pos[sq("h4")] != (types.Piece{Color: types.Black, Kind: types.Queen}) {
		t.Errorf("Seek(4) = %v, %v", notation.Describe(pos), ok)
	}
	if g.Outcome() != "0-1" {
		t.Errorf("Outcome() = %q, want 0-1", g.Outcome())
	}
}

func TestGameEnd(t *testing.T) {
	g := New()
	var outcome string
	g.OnGameEnd(func(o, _ string) { outcome = o })
	for _, mv := range [][2]string{{"f2", "f3"}, {"e7", "e5"}, {"g2", "g4"}, {"d8", "h4"}} {
		if err := g.PlayMove(sq(mv[0]), sq(mv[1])); err != nil {
			t.Fatalf("%v: %v", mv, err)
		}
	}
	if outcome != "0-1" {
		t.Errorf("outcome = %q, want 0-1", outcome)
	}
}

func TestPositionAt(t *testing.T) {
	g, err := FromPGN(strings.NewReader("1. e4 e5 *"))
	if err != nil {
		t.Fatalf("FromPGN: %v", err)
	}
	pos, ok := g.PositionAt(1)
	if !ok || pos[sq("e4")] != wP {
		t.Errorf("PositionAt(1) = %v, %v", notation.Describe(pos), ok)
	}
	if _, ok := pos[sq("e2")]; ok {
		t.Error("e2 occupied after 1. e4")
	}
	if g.Index() != 0 {
		t.Errorf("PositionAt moved the cursor to %d", g.Index())
	}
	for _, n := range []int{-1, 3} {
		if _, ok := g.PositionAt(n); ok {
			t.Errorf("PositionAt(%d) succeeded", n)
		}
	}
}
