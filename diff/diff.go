// Package diff computes the operations that turn one board position into another.
package diff

import (
	"fmt"
	"sort"

	"termboard/types"
)

// Kind tags an Operation.
type Kind uint8

const (
	Move Kind = iota
	Remove
	Add
)

func (k Kind) String() string {
	switch k {
	case Move:
		return "move"
	case Remove:
		return "remove"
	case Add:
		return "add"
	default:
		return "unknown"
	}
}

// Operation is one atomic step of a transition. From is NoSquare for Add,
// To is NoSquare for Remove.
type Operation struct {
	Kind  Kind
	From  types.Square
	To    types.Square
	Piece types.Piece
}

func (op Operation) String() string {
	switch op.Kind {
	case Move:
		return fmt.Sprintf("move %s %s-%s", op.Piece, op.From, op.To)
	case Remove:
		return fmt.Sprintf("remove %s %s", op.Piece, op.From)
	default:
		return fmt.Sprintf("add %s %s", op.Piece, op.To)
	}
}

type pair struct {
	from, to types.Square
	dist     int
	manh     int
}

// Diff returns the operations that transform before into after: Moves first,
// then Removes, then Adds.
//
// Sources are squares whose before piece does not survive, destinations are
// squares whose after piece is new. A square whose piece changes is both, so a
// capture shows as a Move onto the square plus a Remove of the captured piece.
// Sources and destinations holding the same piece are paired greedily by
// board-cell distance; ties go to the lower Manhattan distance, then the lower
// source square, then the lower destination square.
func Diff(before, after types.Position) []Operation {
	var sources, dests []types.Square
	for _, sq := range before.Squares() {
		if p, ok := after[sq]; !ok || p != before[sq] {
			sources = append(sources, sq)
		}
	}
	for _, sq := range after.Squares() {
		if p, ok := before[sq]; !ok || p != after[sq] {
			dests = append(dests, sq)
		}
	}
	if len(sources) == 0 && len(dests) == 0 {
		return nil
	}

	var pairs []pair
	for _, from := range sources {
		for _, to := range dests {
			if before[from] != after[to] {
				continue
			}
			pairs = append(pairs, pair{
				from: from,
				to:   to,
				dist: types.Distance(from, to),
				manh: types.Manhattan(from, to),
			})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		a, b := pairs[i], pairs[j]
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		if a.manh != b.manh {
			return a.manh < b.manh
		}
		if a.from != b.from {
			return a.from < b.from
		}
		return a.to < b.to
	})

	usedFrom := make(map[types.Square]bool, len(sources))
	usedTo := make(map[types.Square]bool, len(dests))
	var moves []Operation
	for _, p := range pairs {
		if usedFrom[p.from] || usedTo[p.to] {
			continue
		}
		usedFrom[p.from] = true
		usedTo[p.to] = true
		moves = append(moves, Operation{Kind: Move, From: p.from, To: p.to, Piece: before[p.from]})
	}
	sort.Slice(moves, func(i, j int) bool { return moves[i].From < moves[j].From })

	ops := make([]Operation, 0, len(sources)+len(dests)-len(moves))
	ops = append(ops, moves...)
	for _, from := range sources {
		if !usedFrom[from] {
			ops = append(ops, Operation{Kind: Remove, From: from, To: types.NoSquare, Piece: before[from]})
		}
	}
	for _, to := range dests {
		if !usedTo[to] {
			ops = append(ops, Operation{Kind: Add, From: types.NoSquare, To: to, Piece: after[to]})
		}
	}
	return ops
}

// Apply returns a new position with ops applied to pos. All sources are vacated
// before any destination is filled, so a piece may land on a square vacated by
// another operation of the same batch.
func Apply(pos types.Position, ops []Operation) types.Position {
	out := pos.Clone()
	for _, op := range ops {
		if op.Kind == Move || op.Kind == Remove {
			delete(out, op.From)
		}
	}
	for _, op := range ops {
		if op.Kind == Move || op.Kind == Add {
			out[op.To] = op.Piece
		}
	}
	return out
}

// Count returns the number of moves, removes and adds in ops.
func Count(ops []Operation) (moves, removes, adds int) {
	for _, op := range ops {
		switch op.Kind {
		case Move:
			moves++
		case Remove:
			removes++
		case Add:
			adds++
		}
	}
	return
}
