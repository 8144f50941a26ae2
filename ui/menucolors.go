package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// MenuColors defines the Nord-inspired color palette for the screens around the board.
var MenuColors = struct {
	Border      tcell.Color // Muted blue-gray for borders
	BorderFocus tcell.Color // Brighter blue for focused borders
	Title       tcell.Color // Bright white for titles
	Hint        tcell.Color // Dim gray for hints
	Selected    tcell.Color // Bright blue for selected items
}{
	Border:      tcell.PaletteColor(60),  // Muted blue-gray
	BorderFocus: tcell.PaletteColor(109), // Brighter blue
	Title:       tcell.PaletteColor(255), // Bright white
	Hint:        tcell.PaletteColor(245), // Dim gray
	Selected:    tcell.PaletteColor(109), // Bright blue
}

// NewHint returns the text view used for the key hints under the board.
func NewHint() *tview.TextView {
	hint := tview.NewTextView()
	hint.SetTextColor(MenuColors.Hint)
	return hint
}
