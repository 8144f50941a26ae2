// Package rules implements engine.GameEngine and engine.Replayer with
// github.com/notnil/chess.
package rules

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/notnil/chess"

	"termboard/engine"
	"termboard/notation"
	"termboard/types"
)

// ErrIllegalMove is returned by PlayMove for moves the rules reject.
var ErrIllegalMove = errors.New("illegal move")

// ErrReplaying is returned by PlayMove while the replay cursor is not at the last position.
var ErrReplaying = errors.New("not at the latest position")

// Game is a chess game with a replay cursor.
type Game struct {
	g     *chess.Game
	index int

	onMove []func(engine.MoveEvent)
	onEnd  []func(outcome, method string)
}

var (
	_ engine.GameEngine = (*Game)(nil)
	_ engine.Replayer   = (*Game)(nil)
)

// New starts a game from the standard position.
func New() *Game {
	return &Game{g: chess.NewGame()}
}

// FromFEN starts a game from fen. A bare board field is completed as white to
// move with no castling rights.
func FromFEN(fen string) (*Game, error) {
	fen = strings.TrimSpace(fen)
	if fen == "" || fen == "start" {
		return New(), nil
	}
	if !strings.Contains(fen, " ") {
		fen += " w - - 0 1"
	}
	opt, err := chess.FEN(fen)
	if err != nil {
		return nil, &types.NotationError{Text: fen, Reason: err.Error()}
	}
	return &Game{g: chess.NewGame(opt)}, nil
}

// FromPGN loads a recorded game. The replay cursor starts at the first position.
func FromPGN(r io.Reader) (*Game, error) {
	opt, err := chess.PGN(r)
	if err != nil {
		return nil, fmt.Errorf("read pgn: %w", err)
	}
	return &Game{g: chess.NewGame(opt)}, nil
}

// FromConfig builds a game from cfg, opening cfg.PGNPath through open.
func FromConfig(cfg engine.GameConfig, open func(string) (io.ReadCloser, error)) (*Game, error) {
	if cfg.PGNPath == "" {
		return FromFEN(cfg.FEN)
	}
	f, err := open(cfg.PGNPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return FromPGN(f)
}

// Square converts a chess library square.
func Square(sq chess.Square) types.Square {
	s, _ := types.NewSquare(int(sq.File()), int(sq.Rank()))
	return s
}

func toChess(sq types.Square) chess.Square {
	return chess.Square(sq.Rank()*8 + sq.File())
}

var kinds = map[chess.PieceType]types.Kind{
	chess.King:   types.King,
	chess.Queen:  types.Queen,
	chess.Rook:   types.Rook,
	chess.Bishop: types.Bishop,
	chess.Knight: types.Knight,
	chess.Pawn:   types.Pawn,
}

// Piece converts a chess library piece. It returns false for chess.NoPiece.
func Piece(p chess.Piece) (types.Piece, bool) {
	k, ok := kinds[p.Type()]
	if !ok {
		return types.Piece{}, false
	}
	c := types.White
	if p.Color() == chess.Black {
		c = types.Black
	}
	return types.Piece{Color: c, Kind: k}, true
}

// Position converts a chess library board.
func Position(b *chess.Board) types.Position {
	pos := make(types.Position)
	for sq, p := range b.SquareMap() {
		if tp, ok := Piece(p); ok {
			pos[Square(sq)] = tp
		}
	}
	return pos
}

func (g *Game) current() *chess.Position {
	return g.g.Positions()[g.index]
}

func (g *Game) atEnd() bool {
	return g.index == len(g.g.Moves())
}

// Position returns the position at the replay cursor.
func (g *Game) Position() types.Position {
	return Position(g.current().Board())
}

// FEN returns the full FEN record at the replay cursor.
func (g *Game) FEN() string {
	return g.current().String()
}

// Turn returns the side to move at the replay cursor.
func (g *Game) Turn() types.Color {
	if g.current().Turn() == chess.Black {
		return types.Black
	}
	return types.White
}

func (g *Game) find(from, to types.Square) *chess.Move {
	if !g.atEnd() || !from.Valid() || !to.Valid() {
		return nil
	}
	s1, s2 := toChess(from), toChess(to)
	var found *chess.Move
	for _, m := range g.g.ValidMoves() {
		if m.S1() != s1 || m.S2() != s2 {
			continue
		}
		// Drags carry no promotion choice; always queen.
		if m.Promo() == chess.NoPieceType || m.Promo() == chess.Queen {
			return m
		}
		found = m
	}
	return found
}

// ValidateMove implements engine.GameEngine.
func (g *Game) ValidateMove(from, to types.Square, p types.Piece) bool {
	m := g.find(from, to)
	if m == nil {
		return false
	}
	got, ok := Piece(g.current().Board().Piece(m.S1()))
	return ok && got == p
}

// PlayMove implements engine.GameEngine.
func (g *Game) PlayMove(from, to types.Square) error {
	if !g.atEnd() {
		return ErrReplaying
	}
	m := g.find(from, to)
	if m == nil {
		return fmt.Errorf("%s-%s: %w", from, to, ErrIllegalMove)
	}
	before := g.g.Position()
	piece, _ := Piece(before.Board().Piece(m.S1()))
	uci := chess.UCINotation{}.Encode(before, m)
	if err := g.g.Move(m); err != nil {
		return fmt.Errorf("%s: %w", uci, err)
	}
	g.index++

	ev := engine.MoveEvent{From: from, To: to, Piece: piece, Notation: uci, Position: g.Position()}
	for _, fn := range g.onMove {
		fn(ev)
	}
	if out := g.g.Outcome(); out != chess.NoOutcome {
		for _, fn := range g.onEnd {
			fn(string(out), g.g.Method().String())
		}
	}
	return nil
}

// OnMove implements engine.GameEngine.
func (g *Game) OnMove(fn func(engine.MoveEvent)) {
	g.onMove = append(g.onMove, fn)
}

// OnGameEnd implements engine.GameEngine.
func (g *Game) OnGameEnd(fn func(outcome, method string)) {
	g.onEnd = append(g.onEnd, fn)
}

// History returns the moves played so far in algebraic notation.
func (g *Game) History() []string {
	moves := g.g.Moves()
	positions := g.g.Positions()
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = chess.AlgebraicNotation{}.Encode(positions[i], m)
	}
	return out
}

// Outcome returns "*" while the game is in progress.
func (g *Game) Outcome() string {
	return string(g.g.Outcome())
}

// Next implements engine.Replayer.
func (g *Game) Next() (types.Position, bool) {
	return g.Seek(g.index + 1)
}

// Prev implements engine.Replayer.
func (g *Game) Prev() (types.Position, bool) {
	return g.Seek(g.index - 1)
}

// Seek implements engine.Replayer.
func (g *Game) Seek(n int) (types.Position, bool) {
	if n < 0 || n > len(g.g.Moves()) {
		return g.Position(), false
	}
	g.index = n
	return g.Position(), true
}

// PositionAt returns the position after n plies without moving the cursor.
func (g *Game) PositionAt(n int) (types.Position, bool) {
	positions := g.g.Positions()
	if n < 0 || n >= len(positions) {
		return nil, false
	}
	return Position(positions[n].Board()), true
}

// Index implements engine.Replayer.
func (g *Game) Index() int {
	return g.index
}

// Len implements engine.Replayer. It counts plies.
func (g *Game) Len() int {
	return len(g.g.Moves())
}

// Describe renders the position at the cursor for logs.
func (g *Game) Describe() string {
	return notation.Describe(g.Position())
}
