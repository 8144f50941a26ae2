package ui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termboard/config"
	"termboard/notation"
	"termboard/types"
)

// ColorConfigUI provides a square color configuration screen with live preview.
type ColorConfigUI struct {
	flex      *tview.Flex
	colorList *tview.List
	preview   *tview.Box
	cfg       *config.Config
	onDone    func()

	// Current selection
	selectedLight int
	selectedDark  int
	editingDark   bool // true = editing dark squares, false = editing light squares
}

// Light square colors (pale tones)
var lightColors = []struct {
	code int
	name string
}{
	{230, "Light Cream"},
	{229, "Pale Yellow"},
	{223, "Peach"},
	{222, "Gold"},
	{187, "Wheat"},
	{188, "Light Beige"},
	{180, "Tan"},
	{181, "Dusty Rose"},
	{194, "Mint"},
	{195, "Ice"},
	{252, "Light Gray"},
	{250, "Gray"},
	{255, "White"},
}

// Dark square colors (darker tones that contrast with the light squares)
var darkColors = []struct {
	code int
	name string
}{
	{137, "Walnut"},
	{136, "Dark Brown"},
	{130, "Dark Orange"},
	{94, "Saddle Brown"},
	{88, "Dark Red"},
	{65, "Olive Green"},
	{22, "Dark Green"},
	{23, "Teal"},
	{24, "Dark Cyan"},
	{60, "Slate Blue"},
	{17, "Navy Blue"},
	{54, "Purple"},
	{240, "Gray"},
	{244, "Medium Gray"},
}

// previewPosition is drawn in the preview board.
const previewPosition = "r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R"

// NewColorConfig creates a new color configuration screen.
func NewColorConfig(cfg *config.Config, onDone func()) *ColorConfigUI {
	cc := &ColorConfigUI{
		cfg:           cfg,
		onDone:        onDone,
		selectedLight: cfg.Theme.Colors.LightSquare,
		selectedDark:  cfg.Theme.Colors.DarkSquare,
	}

	// Create the color list
	cc.colorList = tview.NewList()
	cc.colorList.SetBorder(true)
	cc.colorList.ShowSecondaryText(false)
	cc.colorList.SetBorderColor(MenuColors.BorderFocus)
	cc.colorList.SetTitleColor(MenuColors.Title)
	cc.colorList.SetSelectedBackgroundColor(MenuColors.Selected)

	// Populate with light square colors initially
	cc.populateColorList()

	// Handle selection change (preview)
	cc.colorList.SetChangedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		cc.choose(index)
	})

	// Handle selection confirm (apply)
	cc.colorList.SetSelectedFunc(func(index int, mainText, secondaryText string, shortcut rune) {
		cc.choose(index)
		if !cc.editingDark {
			// Light squares first, then dark squares
			cc.editingDark = true
			cc.populateColorList()
			return
		}
		cc.Apply()
	})

	// Create preview box
	cc.preview = tview.NewBox()
	cc.preview.SetBorder(true)
	cc.preview.SetTitle(" Board Preview ")
	cc.preview.SetBorderColor(MenuColors.Border)
	cc.preview.SetDrawFunc(cc.drawPreview)

	// Layout: list on left, preview on right
	cc.flex = tview.NewFlex().
		AddItem(cc.colorList, 30, 0, true).
		AddItem(cc.preview, 0, 1, false)

	return cc
}

func (cc *ColorConfigUI) palette() []struct {
	code int
	name string
} {
	if cc.editingDark {
		return darkColors
	}
	return lightColors
}

// choose previews the color at index of the current list.
func (cc *ColorConfigUI) choose(index int) {
	colors := cc.palette()
	if index < 0 || index >= len(colors) {
		return
	}
	if cc.editingDark {
		cc.selectedDark = colors[index].code
	} else {
		cc.selectedLight = colors[index].code
	}
}

// Apply stores the chosen colors in the config, saves it and calls onDone.
func (cc *ColorConfigUI) Apply() error {
	cc.cfg.Theme.Colors.LightSquare = cc.selectedLight
	cc.cfg.Theme.Colors.DarkSquare = cc.selectedDark
	cc.editingDark = false
	cc.populateColorList()
	err := cc.cfg.Save()
	cc.onDone()
	return err
}

// populateColorList fills the list with appropriate colors based on editing mode.
func (cc *ColorConfigUI) populateColorList() {
	cc.colorList.Clear()

	selected := cc.selectedLight
	if cc.editingDark {
		cc.colorList.SetTitle(" Dark Squares (Tab: light) ")
		selected = cc.selectedDark
	} else {
		cc.colorList.SetTitle(" Light Squares (Tab: dark) ")
	}
	for i, c := range cc.palette() {
		cc.colorList.AddItem(fmt.Sprintf("[#%06x]████[-] %s (%d)",
			tcell.PaletteColor(c.code).Hex(), c.name, c.code),
			"", rune('a'+i), nil)
	}
	// Set current selection
	for i, c := range cc.palette() {
		if c.code == selected {
			cc.colorList.SetCurrentItem(i)
			break
		}
	}
}

func (cc *ColorConfigUI) drawPreview(screen tcell.Screen, x, y, width, height int) (int, int, int, int) {
	// Draw a mini chessboard preview with the selected colors
	light := tcell.PaletteColor(cc.selectedLight)
	dark := tcell.PaletteColor(cc.selectedDark)
	whiteColor := tcell.PaletteColor(cc.cfg.Theme.Colors.WhitePiece)
	blackColor := tcell.PaletteColor(cc.cfg.Theme.Colors.BlackPiece)

	startX := x + 2
	startY := y + 1

	if width < 20 || height < 11 {
		return x, y, width, height
	}

	pos, _ := notation.Parse(previewPosition)
	geom := types.DefaultGeometry
	for _, sq := range types.AllSquares() {
		c := geom.Coord(sq)
		bg := dark
		if (sq.File()+sq.Rank())%2 == 1 {
			bg = light
		}
		style := tcell.StyleDefault.Background(bg)
		r := ' '
		if p, ok := pos[sq]; ok {
			r = cc.cfg.Theme.Symbols.Symbol(p.Kind)
			if cc.cfg.Theme.UseLetters {
				r = p.FENRune()
			}
			if p.Color == types.White {
				style = style.Foreground(whiteColor)
			} else {
				style = style.Foreground(blackColor)
			}
		}
		screen.SetContent(startX+c.X, startY+c.Y, r, nil, style)
		screen.SetContent(startX+c.X+1, startY+c.Y, ' ', nil, style)
	}

	// Draw color info
	infoStyle := tcell.StyleDefault
	info := fmt.Sprintf("Light: %d  Dark: %d", cc.selectedLight, cc.selectedDark)
	for i, ch := range info {
		if startX+i < x+width-1 {
			screen.SetContent(startX+i, startY+9, ch, nil, infoStyle)
		}
	}

	return x, y, width, height
}

// Flex returns the flex container for this UI.
func (cc *ColorConfigUI) Flex() *tview.Flex {
	return cc.flex
}

// SetInputCapture sets the input capture for the color list.
func (cc *ColorConfigUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	cc.colorList.SetInputCapture(capture)
}

// ToggleMode switches between light and dark square editing.
func (cc *ColorConfigUI) ToggleMode() {
	cc.editingDark = !cc.editingDark
	cc.populateColorList()
}

// Selected returns the light and dark colors currently previewed.
func (cc *ColorConfigUI) Selected() (light, dark int) {
	return cc.selectedLight, cc.selectedDark
}
