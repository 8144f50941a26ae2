// Package notation converts board positions to and from text: the board field
// of FEN and the position-object map form ({"e4": "wP"}).
package notation

import (
	"fmt"
	"strings"

	"termboard/types"
)

// StartFEN is the board field of the standard starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

// FEN is the default notation codec.
type FEN struct{}

// Parse reads a FEN board field, a full FEN record or the keyword "start".
func (FEN) Parse(text string) (types.Position, error) {
	return Parse(text)
}

// Serialize writes the FEN board field of a position.
func (FEN) Serialize(pos types.Position) string {
	return Serialize(pos)
}

// Start returns a fresh copy of the starting position.
func Start() types.Position {
	pos, err := Parse(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// Parse reads a FEN board field. Only the first space separated field of a
// full FEN record is used; side to move and castling rights are ignored.
func Parse(text string) (types.Position, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "start" {
		trimmed = StartFEN
	}
	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return nil, &types.NotationError{Text: text, Reason: "empty"}
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return nil, &types.NotationError{Text: text, Reason: fmt.Sprintf("want 8 ranks, got %d", len(ranks))}
	}

	pos := make(types.Position)
	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for _, r := range row {
			if r >= '1' && r <= '8' {
				file += int(r - '0')
				continue
			}
			p, ok := types.PieceFromFEN(r)
			if !ok {
				return nil, &types.NotationError{Text: text, Reason: fmt.Sprintf("unknown piece %q", r)}
			}
			sq, ok := types.NewSquare(file, rank)
			if !ok {
				return nil, &types.NotationError{Text: text, Reason: fmt.Sprintf("rank %d overflows", rank+1)}
			}
			pos[sq] = p
			file++
		}
		if file != 8 {
			return nil, &types.NotationError{Text: text, Reason: fmt.Sprintf("rank %d has %d files", rank+1, file)}
		}
	}
	return pos, nil
}

// Serialize writes the FEN board field of a position.
func Serialize(pos types.Position) string {
	var sb strings.Builder
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			sq, _ := types.NewSquare(file, rank)
			p, ok := pos[sq]
			if !ok {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteRune(p.FENRune())
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}
	return sb.String()
}

// ParseMap converts a position object such as {"e4": "wP"} to a Position.
func ParseMap(m map[string]string) (types.Position, error) {
	pos := make(types.Position, len(m))
	for k, v := range m {
		sq, err := types.ParseSquare(k)
		if err != nil {
			return nil, &types.NotationError{Text: k, Reason: err.Error()}
		}
		p, err := types.ParsePiece(v)
		if err != nil {
			return nil, &types.NotationError{Text: v, Reason: err.Error()}
		}
		pos[sq] = p
	}
	return pos, nil
}

// ToMap converts a Position to its position-object form.
func ToMap(pos types.Position) map[string]string {
	out := make(map[string]string, len(pos))
	for sq, p := range pos {
		out[sq.String()] = p.String()
	}
	return out
}

// MoveString is one "from-to" move of the Move API.
type MoveString struct {
	From types.Square
	To   types.Square
}

func (m MoveString) String() string {
	return m.From.String() + "-" + m.To.String()
}

// ParseMoves reads space or comma separated moves like "e2-e4 g8-f6".
// Moves are returned in input order.
func ParseMoves(text string) ([]MoveString, error) {
	fields := strings.FieldsFunc(text, func(r rune) bool { return r == ' ' || r == ',' })
	out := make([]MoveString, 0, len(fields))
	for _, f := range fields {
		parts := strings.Split(f, "-")
		if len(parts) != 2 {
			return nil, &types.NotationError{Text: f, Reason: "want from-to"}
		}
		from, err := types.ParseSquare(parts[0])
		if err != nil {
			return nil, &types.NotationError{Text: f, Reason: err.Error()}
		}
		to, err := types.ParseSquare(parts[1])
		if err != nil {
			return nil, &types.NotationError{Text: f, Reason: err.Error()}
		}
		out = append(out, MoveString{From: from, To: to})
	}
	return out, nil
}

// Describe returns a stable, human readable listing of a position, one
// "square=piece" pair per occupied square in square order.
func Describe(pos types.Position) string {
	keys := make([]string, 0, len(pos))
	for _, sq := range pos.Squares() {
		keys = append(keys, sq.String()+"="+pos[sq].String())
	}
	return strings.Join(keys, ",")
}
