// Package types contains shared data structures for termboard.
package types

import (
	"encoding/json"
	"fmt"
	"sort"
)

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Kind is the type of a chess piece.
type Kind uint8

const (
	King Kind = iota
	Queen
	Rook
	Bishop
	Knight
	Pawn
)

var kindLetters = [...]byte{'K', 'Q', 'R', 'B', 'N', 'P'}

// Letter returns the upper case FEN letter for the kind.
func (k Kind) Letter() byte {
	if int(k) < len(kindLetters) {
		return kindLetters[k]
	}
	return '?'
}

func kindFromLetter(b byte) (Kind, bool) {
	for i, l := range kindLetters {
		if l == b {
			return Kind(i), true
		}
	}
	return 0, false
}

// Piece is a colored chess piece. It is a plain value with no identity.
type Piece struct {
	Color Color
	Kind  Kind
}

// String returns the position-object code of the piece, e.g. "wP" or "bK".
func (p Piece) String() string {
	c := byte('w')
	if p.Color == Black {
		c = 'b'
	}
	return string([]byte{c, p.Kind.Letter()})
}

// FENRune returns the FEN letter for the piece: upper case for white, lower case for black.
func (p Piece) FENRune() rune {
	r := rune(p.Kind.Letter())
	if p.Color == Black {
		r += 'a' - 'A'
	}
	return r
}

// ParsePiece parses a position-object piece code such as "wQ".
func ParsePiece(code string) (Piece, error) {
	if len(code) != 2 {
		return Piece{}, fmt.Errorf("piece %q: %w", code, ErrInvalidPiece)
	}
	var p Piece
	switch code[0] {
	case 'w':
		p.Color = White
	case 'b':
		p.Color = Black
	default:
		return Piece{}, fmt.Errorf("piece %q: %w", code, ErrInvalidPiece)
	}
	k, ok := kindFromLetter(code[1])
	if !ok {
		return Piece{}, fmt.Errorf("piece %q: %w", code, ErrInvalidPiece)
	}
	p.Kind = k
	return p, nil
}

// PieceFromFEN converts a FEN piece letter to a Piece.
func PieceFromFEN(r rune) (Piece, bool) {
	if r > 127 {
		return Piece{}, false
	}
	b := byte(r)
	color := White
	if b >= 'a' && b <= 'z' {
		color = Black
		b -= 'a' - 'A'
	}
	k, ok := kindFromLetter(b)
	if !ok {
		return Piece{}, false
	}
	return Piece{Color: color, Kind: k}, true
}

// Square identifies one of the 64 board squares. The index is file*8 + rank, so
// integer order is file-major: a1, a2, ... a8, b1, ...
type Square int8

// NoSquare is the zero-information square, e.g. the origin of a spare piece.
const NoSquare Square = -1

// NewSquare returns the square for a 0-based file and rank.
func NewSquare(file, rank int) (Square, bool) {
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, false
	}
	return Square(file*8 + rank), true
}

// ParseSquare parses algebraic square names like "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("square %q: %w", s, ErrInvalidSquare)
	}
	sq, ok := NewSquare(int(s[0])-'a', int(s[1])-'1')
	if !ok {
		return NoSquare, fmt.Errorf("square %q: %w", s, ErrInvalidSquare)
	}
	return sq, nil
}

// MustSquare is ParseSquare for literals known to be valid.
func MustSquare(s string) Square {
	sq, err := ParseSquare(s)
	if err != nil {
		panic(err)
	}
	return sq
}

func (s Square) Valid() bool { return s >= 0 && s < 64 }
func (s Square) File() int   { return int(s) / 8 }
func (s Square) Rank() int   { return int(s) % 8 }

func (s Square) String() string {
	if !s.Valid() {
		return "-"
	}
	return string([]byte{byte('a' + s.File()), byte('1' + s.Rank())})
}

// AllSquares returns the 64 squares in iteration order.
func AllSquares() []Square {
	out := make([]Square, 64)
	for i := range out {
		out[i] = Square(i)
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

// Distance is the board-cell (Chebyshev) distance between two squares.
func Distance(a, b Square) int {
	df, dr := abs(a.File()-b.File()), abs(a.Rank()-b.Rank())
	if df > dr {
		return df
	}
	return dr
}

// Manhattan is the file plus rank distance between two squares.
func Manhattan(a, b Square) int {
	return abs(a.File()-b.File()) + abs(a.Rank()-b.Rank())
}

// Position maps squares to the pieces standing on them.
type Position map[Square]Piece

// Clone returns an independent copy of the position.
func (p Position) Clone() Position {
	out := make(Position, len(p))
	for sq, pc := range p {
		out[sq] = pc
	}
	return out
}

// Equal reports whether both positions hold the same pieces on the same squares.
func (p Position) Equal(o Position) bool {
	if len(p) != len(o) {
		return false
	}
	for sq, pc := range p {
		if other, ok := o[sq]; !ok || other != pc {
			return false
		}
	}
	return true
}

// Squares returns the occupied squares in iteration order.
func (p Position) Squares() []Square {
	out := make([]Square, 0, len(p))
	for sq := range p {
		out = append(out, sq)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Orientation is the side displayed at the bottom of the board.
type Orientation uint8

const (
	OrientWhite Orientation = iota
	OrientBlack
)

// Flip returns the opposite orientation.
func (o Orientation) Flip() Orientation {
	if o == OrientBlack {
		return OrientWhite
	}
	return OrientBlack
}

func (o Orientation) String() string {
	if o == OrientBlack {
		return "black"
	}
	return "white"
}

// ParseOrientation accepts "white", "black", "w" and "b".
func ParseOrientation(s string) (Orientation, error) {
	switch s {
	case "white", "w", "":
		return OrientWhite, nil
	case "black", "b":
		return OrientBlack, nil
	}
	return OrientWhite, fmt.Errorf("unknown orientation %q", s)
}

// Coord is a board-relative cell coordinate, origin at the top left of the board.
type Coord struct {
	X int
	Y int
}

// MarshalJSON writes a Coord as a JSON array [x, y].
func (c Coord) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{c.X, c.Y})
}

// UnmarshalJSON allows Coord to be unmarshaled from a JSON array [x, y].
func (c *Coord) UnmarshalJSON(data []byte) error {
	var v []float64
	err := json.Unmarshal(data, &v)
	if err != nil {
		return err
	}
	if len(v) != 2 {
		return fmt.Errorf("coord: want 2 values, got %d", len(v))
	}
	c.X = int(v[0])
	c.Y = int(v[1])
	return nil
}
