package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the board's failure taxonomy. Use them with errors.Is.
var (
	// ErrInvalidNotation indicates malformed position text.
	ErrInvalidNotation = errors.New("invalid notation")

	// ErrInvalidItem indicates an item with malformed anchors or a clashing id.
	ErrInvalidItem = errors.New("invalid item")

	// ErrRendererMissing indicates a visual element could not be created or found.
	ErrRendererMissing = errors.New("renderer element missing")

	// ErrInvalidSquare indicates a square name or index outside a1-h8.
	ErrInvalidSquare = errors.New("invalid square")

	// ErrInvalidPiece indicates an unknown piece code.
	ErrInvalidPiece = errors.New("invalid piece")
)

// NotationError describes why a piece of position text could not be parsed.
type NotationError struct {
	Text   string
	Reason string
}

func (e *NotationError) Error() string {
	return fmt.Sprintf("%v %q: %s", ErrInvalidNotation, e.Text, e.Reason)
}

func (e *NotationError) Unwrap() error {
	return ErrInvalidNotation
}

// ItemError describes a rejected item.
type ItemError struct {
	ID     string
	Reason string
}

func (e *ItemError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%v: %s", ErrInvalidItem, e.Reason)
	}
	return fmt.Sprintf("%v %q: %s", ErrInvalidItem, e.ID, e.Reason)
}

func (e *ItemError) Unwrap() error {
	return ErrInvalidItem
}
