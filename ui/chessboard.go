// Package ui specifies custom controls for tview to show and drive a chessboard in the terminal.
package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termboard/board"
	"termboard/config"
	"termboard/diff"
	"termboard/interact"
	"termboard/items"
	"termboard/types"
)

// boardMargin is the width of the rank column left of the board.
const boardMargin = 2

// Style slots, indexed by SetConfig.
const (
	styleLight = iota
	styleDark
	styleWhitePiece
	styleBlackPiece
	styleCoords
	styleHover
	styleCursor
	styleSelected
	styleArrow
	styleCircle
	styleLastMove
)

type ChessBoardUI struct {
	Box       *tview.Box
	Board     *board.Board
	rend      *TermRenderer
	hint      *tview.TextView
	cfg       *config.Config
	styles    []tcell.Color
	infoPanel *GameInfoPanel
	focusMode bool

	cursor   types.Square
	picked   bool
	lastFrom types.Square
	lastTo   types.Square

	// Screen cell of the board's top left corner, recorded on draw.
	left, top int
}

// NewChessBoard creates the widget together with its renderer and board.
func NewChessBoard(c *config.Config, hint *tview.TextView, opts ...board.Option) (*ChessBoardUI, error) {
	rend := NewTermRenderer()
	opts = append([]board.Option{board.WithConfig(c.Board)}, opts...)
	b, err := board.New(rend, opts...)
	if err != nil {
		return nil, err
	}
	g := &ChessBoardUI{
		Box:      tview.NewBox(),
		Board:    b,
		rend:     rend,
		hint:     hint,
		cursor:   types.NoSquare,
		lastFrom: types.NoSquare,
		lastTo:   types.NoSquare,
		left:     boardMargin,
	}
	g.SetConfig(c)
	b.OnChange(func(ev board.ChangeEvent) {
		for _, op := range ev.Ops {
			if op.Kind == diff.Move {
				g.lastFrom, g.lastTo = op.From, op.To
				break
			}
		}
		g.refreshHint()
	})
	g.Box.SetDrawFunc(g.draw)
	return g, nil
}

// Renderer returns the renderer the board draws through.
func (g *ChessBoardUI) Renderer() *TermRenderer {
	return g.rend
}

func (g *ChessBoardUI) SetConfig(c *config.Config) {
	g.styles = []tcell.Color{
		tcell.PaletteColor(c.Theme.Colors.LightSquare), // 0
		tcell.PaletteColor(c.Theme.Colors.DarkSquare),  // 1
		tcell.PaletteColor(c.Theme.Colors.WhitePiece),  // 2
		tcell.PaletteColor(c.Theme.Colors.BlackPiece),  // 3
		tcell.PaletteColor(c.Theme.Colors.Coordinates), // 4
		tcell.PaletteColor(c.Theme.Colors.HoverBG),     // 5
		tcell.PaletteColor(c.Theme.Colors.CursorBG),    // 6
		tcell.PaletteColor(c.Theme.Colors.SelectedBG),  // 7
		tcell.PaletteColor(c.Theme.Colors.Arrow),       // 8
		tcell.PaletteColor(c.Theme.Colors.Circle),      // 9
		tcell.PaletteColor(c.Theme.Colors.LastMoveBG),  // 10
	}
	g.cfg = c
	if g.Board != nil {
		if err := g.Board.SetConfig(c.Board); err != nil {
			g.setStatus(err.Error())
		}
	}
}

// SetLastMove highlights a move, for instance one played by an engine.
func (g *ChessBoardUI) SetLastMove(from, to types.Square) {
	g.lastFrom, g.lastTo = from, to
}

// ToggleFocusMode toggles focus mode and returns the new state.
func (g *ChessBoardUI) ToggleFocusMode() bool {
	g.focusMode = !g.focusMode
	g.refreshHint()
	return g.focusMode
}

func (g *ChessBoardUI) IsFocusMode() bool {
	return g.focusMode
}

// Cursor returns the keyboard cursor square, or false when it is hidden.
func (g *ChessBoardUI) Cursor() (types.Square, bool) {
	return g.cursor, g.cursor.Valid()
}

// MoveCursor moves the keyboard cursor by whole squares as seen on screen.
// The first call only shows the cursor.
func (g *ChessBoardUI) MoveCursor(h, v int) {
	if !g.cursor.Valid() {
		g.cursor = types.MustSquare("e2")
		if g.lastTo.Valid() {
			g.cursor = g.lastTo
		}
		return
	}
	geom := g.Board.Geometry()
	c := geom.Coord(g.cursor)
	c.X += h * geom.SquareW
	c.Y += v * geom.SquareH
	sq, ok := geom.SquareAt(c)
	if !ok {
		return
	}
	g.cursor = sq
	if g.picked {
		g.Board.PointerMove(geom.Coord(sq))
	}
}

// ResetSelection hides the cursor and drops a piece picked with the keyboard.
func (g *ChessBoardUI) ResetSelection() {
	if g.picked {
		g.Board.CancelDrag()
		g.picked = false
	}
	g.cursor = types.NoSquare
}

// Select picks up the piece under the cursor, or drops the picked piece there.
func (g *ChessBoardUI) Select() {
	if !g.cursor.Valid() {
		g.MoveCursor(0, 0)
		return
	}
	c := g.Board.Geometry().Coord(g.cursor)
	if !g.picked {
		g.picked = g.Board.PointerDown(c)
		return
	}
	g.picked = false
	g.report(g.Board.PointerUp(c))
}

// HandleKey handles board keys and returns nil for consumed events.
func (g *ChessBoardUI) HandleKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyUp:
		g.MoveCursor(0, -1)
	case tcell.KeyDown:
		g.MoveCursor(0, 1)
	case tcell.KeyLeft:
		g.MoveCursor(-1, 0)
	case tcell.KeyRight:
		g.MoveCursor(1, 0)
	case tcell.KeyEnter:
		g.Select()
	case tcell.KeyEsc:
		if g.Board.DragState() == interact.Idle && !g.picked {
			return event
		}
		g.ResetSelection()
	case tcell.KeyRune:
		switch event.Rune() {
		case 'k':
			g.MoveCursor(0, -1)
		case 'j':
			g.MoveCursor(0, 1)
		case 'h':
			g.MoveCursor(-1, 0)
		case 'l':
			g.MoveCursor(1, 0)
		case ' ':
			g.Select()
		case 'f':
			g.picked = false
			g.Board.Flip()
		default:
			return event
		}
	default:
		return event
	}
	g.refreshHint()
	return nil
}

// inBoard reports whether the screen cell lies on the squares.
func (g *ChessBoardUI) inBoard(x, y int) bool {
	w, h := g.Board.Geometry().Size()
	return x >= g.left && y >= g.top && x < g.left+w && y < g.top+h
}

// HandleMouse routes a mouse action at screen cell x, y to the board. It
// returns false when the action does not concern the board. Moves and
// releases are taken anywhere while a gesture is active so pieces can be
// dropped off the board.
func (g *ChessBoardUI) HandleMouse(action tview.MouseAction, x, y int) bool {
	c := types.Coord{X: x - g.left, Y: y - g.top}
	active := g.Board.DragState() != interact.Idle
	switch action {
	case tview.MouseLeftDown:
		if !g.inBoard(x, y) {
			return false
		}
		if g.picked {
			g.Board.CancelDrag()
			g.picked = false
		}
		g.Board.PointerDown(c)
		return true
	case tview.MouseMove:
		if !active || g.picked {
			return false
		}
		g.Board.PointerMove(c)
		return true
	case tview.MouseLeftUp:
		if !active || g.picked {
			return false
		}
		g.report(g.Board.PointerUp(c))
		g.refreshHint()
		return true
	}
	return false
}

func (g *ChessBoardUI) report(out interact.Outcome) {
	switch out.State {
	case interact.Dropped:
		g.setStatus(fmt.Sprintf("%s %s", out.Piece, out.To))
	case interact.Cancelled:
		g.setStatus(fmt.Sprintf("%s off the board", out.Piece))
	case interact.SnappedBack:
		g.setStatus("")
	}
}

func (g *ChessBoardUI) setStatus(s string) {
	if g.infoPanel != nil {
		g.infoPanel.SetStatus(s)
	}
}

func (g *ChessBoardUI) refreshHint() {
	if g.infoPanel != nil {
		g.infoPanel.SetFEN(g.Board.FEN())
	}
	if g.hint == nil {
		return
	}
	if g.focusMode {
		g.hint.SetText("  f to toggle")
		return
	}
	state := "  "
	if g.picked {
		state = "  ● piece in hand  "
	}
	g.hint.SetText(state + `hjkl/↑↓←→ move   ⏎ pick/drop   esc cancel
  f flip   [ ] replay   tab focus   q quit`)
}

func (g *ChessBoardUI) squareColor(sq types.Square, hover, origin types.Square) tcell.Color {
	switch {
	case sq == g.cursor:
		return g.styles[styleCursor]
	case sq == hover:
		return g.styles[styleHover]
	case sq == origin:
		return g.styles[styleSelected]
	case sq == g.lastFrom || sq == g.lastTo:
		return g.styles[styleLastMove]
	case (sq.File()+sq.Rank())%2 == 1:
		return g.styles[styleLight]
	default:
		return g.styles[styleDark]
	}
}

func (g *ChessBoardUI) draw(screen tcell.Screen, x int, y int, width int, height int) (int, int, int, int) {
	g.Board.Resize(width-boardMargin, height-1)
	geom := g.Board.Geometry()
	boardW, boardH := geom.Size()
	g.left, g.top = x+boardMargin, y

	hover, _ := g.Board.Hovered()
	origin := types.NoSquare
	if d, ok := g.Board.Dragging(); ok {
		origin = d.From
	}
	for _, sq := range types.AllSquares() {
		c := geom.Coord(sq)
		style := tcell.StyleDefault.Background(g.squareColor(sq, hover, origin))
		for dy := 0; dy < geom.SquareH; dy++ {
			for dx := 0; dx < geom.SquareW; dx++ {
				screen.SetContent(g.left+c.X+dx, g.top+c.Y+dy, ' ', nil, style)
			}
		}
	}

	sprites := g.rend.Sprites()
	// Marks go under the pieces.
	for _, s := range sprites {
		if s.Item.Kind != items.KindPiece {
			g.drawMark(screen, geom, s)
		}
	}
	for _, s := range sprites {
		if s.Item.Kind == items.KindPiece {
			g.drawPiece(screen, geom, s)
		}
	}
	if g.cfg.Board.ShowNotation {
		g.drawCoordinates(screen, x, y, geom)
	}
	return x, y, boardW + boardMargin, boardH + 1
}

// center returns the screen cell in the middle of the square whose top left is at.
func (g *ChessBoardUI) center(geom types.Geometry, at types.Coord) (int, int) {
	return g.left + at.X + (geom.SquareW-1)/2, g.top + at.Y + (geom.SquareH-1)/2
}

// put draws r at a screen cell keeping the background already there.
func (g *ChessBoardUI) put(screen tcell.Screen, x, y int, r rune, fg tcell.Color, dim bool) {
	if !g.inBoard(x, y) {
		return
	}
	_, _, old, _ := screen.GetContent(x, y)
	_, bg, _ := old.Decompose()
	style := tcell.StyleDefault.Background(bg).Foreground(fg).Dim(dim)
	screen.SetContent(x, y, r, nil, style)
}

func (g *ChessBoardUI) drawPiece(screen tcell.Screen, geom types.Geometry, s Sprite) {
	p, ok := s.Item.Payload.(types.Piece)
	if !ok {
		return
	}
	fg := g.styles[styleWhitePiece]
	if p.Color == types.Black {
		fg = g.styles[styleBlackPiece]
	}
	r := g.cfg.Theme.Symbols.Symbol(p.Kind)
	if g.cfg.Theme.UseLetters {
		r = p.FENRune()
	}
	x, y := g.center(geom, s.At.At)
	g.put(screen, x, y, r, fg, s.Fading)
}

func (g *ChessBoardUI) drawMark(screen tcell.Screen, geom types.Geometry, s Sprite) {
	switch s.Item.Kind {
	case items.KindArrow:
		if s.At.Degenerate() {
			return
		}
		x0, y0 := g.center(geom, s.At.At)
		x1, y1 := g.center(geom, s.At.To)
		line(x0, y0, x1, y1, func(x, y int) {
			g.put(screen, x, y, g.cfg.Theme.Symbols.Arrow, g.styles[styleArrow], s.Fading)
		})
		g.put(screen, x1, y1, arrowHead(x1-x0, y1-y0), g.styles[styleArrow], s.Fading)
	case items.KindCircle:
		x, y := g.center(geom, s.At.At)
		g.put(screen, x, y, g.cfg.Theme.Symbols.Circle, g.styles[styleCircle], s.Fading)
	case items.KindCustom:
		var r rune
		switch v := s.Item.Payload.(type) {
		case rune:
			r = v
		case string:
			for _, c := range v {
				r = c
				break
			}
		}
		if r == 0 {
			return
		}
		x, y := g.center(geom, s.At.At)
		g.put(screen, x, y, r, g.styles[styleCircle], s.Fading)
	}
}

func sign(n int) int {
	switch {
	case n > 0:
		return 1
	case n < 0:
		return -1
	}
	return 0
}

func arrowHead(dx, dy int) rune {
	heads := [3][3]rune{
		{'↖', '↑', '↗'},
		{'←', '•', '→'},
		{'↙', '↓', '↘'},
	}
	return heads[sign(dy)+1][sign(dx)+1]
}

// line calls fn for every cell from x0, y0 to x1, y1, both ends included.
func line(x0, y0, x1, y1 int, fn func(x, y int)) {
	dx, dy := x1-x0, y1-y0
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	sx, sy := sign(x1-x0), sign(y1-y0)
	err := dx - dy
	for {
		fn(x0, y0)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (g *ChessBoardUI) drawCoordinates(s tcell.Screen, x, y int, geom types.Geometry) {
	style := tcell.StyleDefault.Foreground(g.styles[styleCoords])
	cursor := tcell.StyleDefault.Background(g.styles[styleCursor])
	_, boardH := geom.Size()

	for file := 0; file < 8; file++ {
		sq, _ := types.NewSquare(file, 0)
		c := geom.Coord(sq)
		_style := style
		if g.cursor.Valid() && g.cursor.File() == file {
			_style = cursor
		}
		for dx := 0; dx < geom.SquareW; dx++ {
			s.SetContent(g.left+c.X+dx, g.top+boardH, ' ', nil, _style)
		}
		s.SetContent(g.left+c.X+(geom.SquareW-1)/2, g.top+boardH, rune('a'+file), nil, _style)
	}

	for rank := 0; rank < 8; rank++ {
		sq, _ := types.NewSquare(0, rank)
		c := geom.Coord(sq)
		_style := style
		if g.cursor.Valid() && g.cursor.Rank() == rank {
			_style = cursor
		}
		row := y + c.Y + (geom.SquareH-1)/2
		s.SetContent(x, row, rune('1'+rank), nil, _style)
		s.SetContent(x+1, row, ' ', nil, _style)
	}
}
