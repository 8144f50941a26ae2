package types

// Geometry maps squares to board-relative cell coordinates. It is a pure
// transform: flipping or resizing never touches positions or item anchors.
type Geometry struct {
	Orientation Orientation
	SquareW     int
	SquareH     int
}

// DefaultGeometry is two cells per square horizontally so squares look square in a terminal.
var DefaultGeometry = Geometry{Orientation: OrientWhite, SquareW: 2, SquareH: 1}

func (g Geometry) normalized() Geometry {
	if g.SquareW < 1 {
		g.SquareW = 1
	}
	if g.SquareH < 1 {
		g.SquareH = 1
	}
	return g
}

// Size returns the board width and height in cells.
func (g Geometry) Size() (int, int) {
	g = g.normalized()
	return g.SquareW * 8, g.SquareH * 8
}

// Coord returns the top left cell of a square.
func (g Geometry) Coord(sq Square) Coord {
	g = g.normalized()
	col, row := sq.File(), 7-sq.Rank()
	if g.Orientation == OrientBlack {
		col, row = 7-col, 7-row
	}
	return Coord{X: col * g.SquareW, Y: row * g.SquareH}
}

// SquareAt returns the square under a cell, or false when the cell is off the board.
func (g Geometry) SquareAt(c Coord) (Square, bool) {
	g = g.normalized()
	if c.X < 0 || c.Y < 0 {
		return NoSquare, false
	}
	col, row := c.X/g.SquareW, c.Y/g.SquareH
	if col > 7 || row > 7 {
		return NoSquare, false
	}
	if g.Orientation == OrientBlack {
		col, row = 7-col, 7-row
	}
	return NewSquare(col, 7-row)
}

// Resized returns a geometry fitting a board of w x h cells, keeping the 2:1
// cell aspect of the default geometry where possible.
func (g Geometry) Resized(w, h int) Geometry {
	sw, sh := w/8, h/8
	if sw < 1 {
		sw = 1
	}
	if sh < 1 {
		sh = 1
	}
	if sw > sh*2 {
		sw = sh * 2
	} else if sh*2 > sw {
		sh = sw / 2
		if sh < 1 {
			sh = 1
		}
	}
	return Geometry{Orientation: g.Orientation, SquareW: sw, SquareH: sh}
}
