// Package engine defines the interface for game logic that drives a board.
//
// The board itself never knows chess rules; an engine is consulted through a
// veto hook on drops and pushes positions back when a move has side effects
// the drag did not show (castling, en passant, promotion).
package engine

import "termboard/types"

// MoveEvent describes a move the engine accepted.
type MoveEvent struct {
	From, To types.Square
	Piece    types.Piece
	// Notation is the move in UCI form, e.g. "e2e4" or "e7e8q".
	Notation string
	// Position is the position after the move.
	Position types.Position
}

// GameEngine is a source of legal positions.
type GameEngine interface {
	// Position returns the current position.
	Position() types.Position

	// ValidateMove reports whether moving p from one square to another is legal.
	ValidateMove(from, to types.Square, p types.Piece) bool

	// PlayMove plays a move. Returns an error if the move is illegal.
	PlayMove(from, to types.Square) error

	// OnMove registers a callback for every accepted move.
	OnMove(func(MoveEvent))

	// OnGameEnd registers a callback for when the game ends.
	// outcome is "1-0", "0-1" or "1/2-1/2".
	OnGameEnd(func(outcome, method string))
}

// Replayer steps through a recorded game.
type Replayer interface {
	Next() (types.Position, bool)
	Prev() (types.Position, bool)
	// Seek jumps to the position after n plies.
	Seek(n int) (types.Position, bool)
	Index() int
	Len() int
}

// GameConfig holds configuration for starting a new game.
type GameConfig struct {
	FEN         string // Starting position, empty for the standard start
	PGNPath     string // Recorded game to replay, overrides FEN
	Orientation string // "white" or "black"
	Free        bool   // Place pieces without checking legality
}
