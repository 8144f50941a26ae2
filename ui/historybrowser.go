package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termboard/config"
	"termboard/types"
)

// GameHistory is the recorded game the browser lists.
type GameHistory interface {
	History() []string
	PositionAt(ply int) (types.Position, bool)
	Index() int
}

// HistoryBrowserUI provides a screen for browsing the plies of a game with a
// preview of each position.
type HistoryBrowserUI struct {
	flex     *tview.Flex
	plyList  *tview.List
	preview  *tview.Box
	hint     *tview.TextView
	game     GameHistory
	cfg      *config.Config
	selected int
	onSeek   func(ply int)
	onDone   func()
}

// NewHistoryBrowser creates a new history browser screen. onSeek is called
// with the chosen ply count.
func NewHistoryBrowser(cfg *config.Config, game GameHistory, onSeek func(ply int), onDone func()) *HistoryBrowserUI {
	hb := &HistoryBrowserUI{
		cfg:    cfg,
		game:   game,
		onSeek: onSeek,
		onDone: onDone,
	}

	// Ply list (left panel)
	hb.plyList = tview.NewList()
	hb.plyList.SetBorder(true)
	hb.plyList.SetTitle(" Moves ")
	hb.plyList.SetBorderColor(MenuColors.BorderFocus)
	hb.plyList.ShowSecondaryText(false)
	hb.plyList.SetHighlightFullLine(true)
	hb.plyList.SetSelectedStyle(tcell.StyleDefault.
		Foreground(MenuColors.Title).
		Background(MenuColors.Selected))

	// Preview box (right panel)
	hb.preview = tview.NewBox()
	hb.preview.SetBorder(true)
	hb.preview.SetTitle(" Preview ")
	hb.preview.SetBorderColor(MenuColors.Border)
	hb.preview.SetDrawFunc(hb.drawPreview)

	// Hint bar
	hb.hint = tview.NewTextView()
	hb.hint.SetDynamicColors(true)
	hb.hint.SetBorder(false)
	hb.hint.SetText("  [dimgray]⏎[-] show on board  [dimgray]q[-] back")

	// Handle list selection changes
	hb.plyList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		hb.selected = index
	})
	hb.plyList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		if hb.onSeek != nil {
			hb.onSeek(index)
		}
	})

	// Input handling
	hb.plyList.SetInputCapture(hb.handleInput)

	// Layout: list left, preview right, hint bottom
	topRow := tview.NewFlex().SetDirection(tview.FlexColumn).
		AddItem(hb.plyList, 24, 0, true).
		AddItem(hb.preview, 0, 1, false)

	hb.flex = tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(topRow, 0, 1, true).
		AddItem(hb.hint, 1, 0, false)

	hb.Refresh()
	return hb
}

// Flex returns the flex container for this UI.
func (hb *HistoryBrowserUI) Flex() *tview.Flex {
	return hb.flex
}

// Selected returns the highlighted ply count.
func (hb *HistoryBrowserUI) Selected() int {
	return hb.selected
}

// Refresh reloads the ply list from the game. Entry n is the position after n plies.
func (hb *HistoryBrowserUI) Refresh() {
	hb.plyList.Clear()
	hb.plyList.AddItem("    start", "", 0, nil)
	for i, san := range hb.game.History() {
		label := fmt.Sprintf("%3d.    %s", i/2+1, san)
		if i%2 == 0 {
			label = fmt.Sprintf("%3d. %s", i/2+1, san)
		}
		hb.plyList.AddItem(label, "", 0, nil)
	}
	hb.plyList.SetCurrentItem(hb.game.Index())
	hb.selected = hb.plyList.GetCurrentItem()
}

// handleInput processes keyboard input for the history browser.
func (hb *HistoryBrowserUI) handleInput(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyEscape:
		if hb.onDone != nil {
			hb.onDone()
		}
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q':
			if hb.onDone != nil {
				hb.onDone()
			}
			return nil
		case 'j':
			return tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModNone)
		case 'k':
			return tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone)
		}
	}
	return event
}

// drawPreview renders a mini board of the highlighted position.
func (hb *HistoryBrowserUI) drawPreview(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	pos, ok := hb.game.PositionAt(hb.selected)
	if !ok {
		return x, y, width, height
	}

	startX := x + 2
	startY := y + 1
	// One cell per square, with a rank column and file row
	if width < 14 || height < 12 {
		return x, y, width, height
	}

	light := tcell.PaletteColor(hb.cfg.Theme.Colors.LightSquare)
	dark := tcell.PaletteColor(hb.cfg.Theme.Colors.DarkSquare)
	geom := types.Geometry{Orientation: types.OrientWhite, SquareW: 1, SquareH: 1}
	for _, sq := range types.AllSquares() {
		c := geom.Coord(sq)
		bg := dark
		if (sq.File()+sq.Rank())%2 == 1 {
			bg = light
		}
		style := tcell.StyleDefault.Background(bg)
		ch := ' '
		if p, ok := pos[sq]; ok {
			ch = p.FENRune()
			if p.Color == types.White {
				style = style.Foreground(tcell.PaletteColor(hb.cfg.Theme.Colors.WhitePiece)).Bold(true)
			} else {
				style = style.Foreground(tcell.PaletteColor(hb.cfg.Theme.Colors.BlackPiece))
			}
		}
		screen.SetContent(startX+c.X, startY+c.Y, ch, nil, style)
	}

	// Metadata below the board
	infoY := startY + 9
	infoStyle := tcell.StyleDefault.Foreground(tcell.PaletteColor(250))
	dimStyle := tcell.StyleDefault.Foreground(MenuColors.Hint)
	drawText(screen, startX, infoY, fmt.Sprintf("ply %d", hb.selected), infoStyle)
	drawText(screen, startX, infoY+1, fmt.Sprintf("%d pieces", len(pos)), dimStyle)

	return x, y, width, height
}

// drawText writes a string to the screen at the given position.
func drawText(screen tcell.Screen, x, y int, text string, style tcell.Style) {
	for i, ch := range text {
		screen.SetContent(x+i, y, ch, nil, style)
	}
}
