package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"termboard/types"
)

// GameInfoPanel displays game information and move history alongside the board.
type GameInfoPanel struct {
	box     *tview.TextView
	fen     string
	turn    types.Color
	history []string
	index   int
	outcome string
	status  string
}

// NewGameInfoPanel creates a new game info panel.
func NewGameInfoPanel() *GameInfoPanel {
	panel := &GameInfoPanel{
		box:     tview.NewTextView(),
		outcome: "*",
	}

	panel.box.SetDynamicColors(true)
	panel.box.SetBorder(false)
	panel.box.SetTextAlign(tview.AlignLeft)

	return panel
}

// Box returns the underlying tview component.
func (p *GameInfoPanel) Box() *tview.TextView {
	return p.box
}

// SetFEN sets the board field shown under the history.
func (p *GameInfoPanel) SetFEN(fen string) {
	p.fen = fen
	p.refresh()
}

// SetStatus sets a one-line message such as the last drop or an error.
func (p *GameInfoPanel) SetStatus(s string) {
	p.status = s
	p.refresh()
}

// SetGame updates the move list. index is the number of plies shown on the
// board, which is less than len(history) while replaying.
func (p *GameInfoPanel) SetGame(history []string, index int, turn types.Color, outcome string) {
	p.history = history
	p.index = index
	p.turn = turn
	p.outcome = outcome
	p.refresh()
}

// Text returns the panel contents without color tags.
func (p *GameInfoPanel) Text() string {
	return p.box.GetText(true)
}

// refresh updates the panel text.
func (p *GameInfoPanel) refresh() {
	var text strings.Builder

	// Game Info section
	text.WriteString("[white::b]Game Info[-:-:-]\n")
	text.WriteString("[dimgray]──────────────────────[-:-:-]\n")

	if p.outcome != "" && p.outcome != "*" {
		fmt.Fprintf(&text, "[white]Result:[-:-:-] %s\n", p.outcome)
	} else {
		fmt.Fprintf(&text, "[white]Turn:[-:-:-] %s\n", p.turn)
	}
	fmt.Fprintf(&text, "[white]Ply:[-:-:-] %d/%d\n", p.index, len(p.history))

	if len(p.history) > 0 {
		text.WriteString("\n[white::b]Moves[-:-:-]\n")
		text.WriteString("[dimgray]──────────────────────[-:-:-]\n")

		// Show the last rows that fit, one full move per row.
		rows := (len(p.history) + 1) / 2
		maxVisible := 12
		start := 0
		if rows > maxVisible {
			start = rows - maxVisible
		}
		for row := start; row < rows; row++ {
			marker := " "
			if p.index > 0 && (p.index-1)/2 == row {
				marker = "[white]>[-]"
			}
			white := p.history[row*2]
			black := ""
			if row*2+1 < len(p.history) {
				black = p.history[row*2+1]
			}
			fmt.Fprintf(&text, "%s[dimgray]%3d.[-] %-7s %s\n", marker, row+1, white, black)
		}
		if start > 0 {
			fmt.Fprintf(&text, "[dimgray]  ··· %d earlier[-]\n", start)
		}
	}

	if p.fen != "" {
		fmt.Fprintf(&text, "\n[dimgray]%s[-]\n", p.fen)
	}
	if p.status != "" {
		fmt.Fprintf(&text, "\n%s\n", tview.Escape(p.status))
	}

	p.box.SetText(text.String())
}

// CreateGameLayout creates the main game layout with board and side panel.
func CreateGameLayout(board *ChessBoardUI, hint *tview.TextView) *tview.Flex {
	mainFlex := tview.NewFlex()
	RebuildNormalLayout(mainFlex, board, hint)
	return mainFlex
}

// RebuildNormalLayout restores the normal game layout with board, info panel, and hint.
func RebuildNormalLayout(gameFrame *tview.Flex, board *ChessBoardUI, hint *tview.TextView) {
	gameFrame.Clear()

	if board.infoPanel == nil {
		board.infoPanel = NewGameInfoPanel()
	}
	board.refreshHint()

	// Create horizontal flex: board | info panel
	boardRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	boardRow.AddItem(board.Box, 0, 1, true)               // Board (flexible, takes remaining space)
	boardRow.AddItem(board.infoPanel.Box(), 30, 0, false) // Info panel (fixed width)

	// Main vertical flex: board area on top, compact status bar at bottom
	gameFrame.SetDirection(tview.FlexRow)
	gameFrame.AddItem(boardRow, 0, 1, true)
	gameFrame.AddItem(hint, 2, 0, false) // Compact: just 2 rows
}

// BuildFocusLayout builds the focus mode layout with just the centered board.
func BuildFocusLayout(gameFrame *tview.Flex, board *ChessBoardUI) {
	gameFrame.Clear()

	// 8 squares plus the rank column and file row
	boardWidth, boardHeight := board.Board.Geometry().Size()
	boardWidth += boardMargin
	boardHeight++

	// Center board with flex spacers
	gameFrame.SetDirection(tview.FlexRow)
	gameFrame.AddItem(nil, 0, 1, false) // top spacer

	centerRow := tview.NewFlex().SetDirection(tview.FlexColumn)
	centerRow.AddItem(nil, 0, 1, false)               // left spacer
	centerRow.AddItem(board.Box, boardWidth, 0, true) // board (fixed width)
	centerRow.AddItem(nil, 0, 1, false)               // right spacer

	gameFrame.AddItem(centerRow, boardHeight, 0, true) // center row (fixed height)
	gameFrame.AddItem(nil, 0, 1, false)                // bottom spacer
}

// InfoPanel returns the panel attached by the layout, or nil.
func (g *ChessBoardUI) InfoPanel() *GameInfoPanel {
	return g.infoPanel
}
