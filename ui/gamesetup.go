package ui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"termboard/engine"
	"termboard/notation"
)

// GameSetupUI provides a form for configuring a new game.
type GameSetupUI struct {
	form     *tview.Form
	flex     *tview.Flex
	status   *tview.TextView
	onStart  func(engine.GameConfig)
	onCancel func()
	onColors func()

	game engine.GameConfig
}

// NewGameSetup creates a new game setup form.
func NewGameSetup(initial engine.GameConfig, onStart func(engine.GameConfig), onCancel func(), onColors func()) *GameSetupUI {
	setup := &GameSetupUI{
		onStart:  onStart,
		onCancel: onCancel,
		onColors: onColors,
		game:     initial,
	}

	orientations := []string{"White", "Black"}
	current := 0
	if initial.Orientation == "black" {
		current = 1
	}

	form := tview.NewForm()

	form.AddInputField("Position (FEN)", initial.FEN, 44, nil, func(text string) {
		setup.game.FEN = text
	})

	form.AddInputField("Replay PGN file", initial.PGNPath, 44, nil, func(text string) {
		setup.game.PGNPath = text
	})

	form.AddDropDown("Orientation", orientations, current, func(option string, index int) {
		setup.game.Orientation = "white"
		if index == 1 {
			setup.game.Orientation = "black"
		}
	})

	form.AddCheckbox("Free placement", initial.Free, func(checked bool) {
		setup.game.Free = checked
	})

	form.AddButton("Start Game", setup.Submit)

	form.AddButton("Board Color", func() {
		if onColors != nil {
			onColors()
		}
	})

	form.AddButton("Quit", func() {
		onCancel()
	})

	form.SetBorder(true)
	form.SetTitle(" New Board ")
	form.SetTitleAlign(tview.AlignCenter)
	form.SetBorderColor(MenuColors.BorderFocus)
	form.SetButtonBackgroundColor(tcell.ColorDarkCyan)
	form.SetButtonTextColor(tcell.ColorWhite)

	setup.status = tview.NewTextView().SetTextAlign(tview.AlignCenter)
	setup.status.SetTextColor(tcell.ColorRed)

	// Create help text
	helpText := tview.NewTextView().
		SetText("Tab/Shift+Tab: navigate fields  |  Empty position: standard start  |  Enter: confirm").
		SetTextAlign(tview.AlignCenter)
	helpText.SetTextColor(MenuColors.Hint)

	// Create flex layout with form and help text
	flex := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(form, 0, 1, true).
		AddItem(setup.status, 1, 0, false).
		AddItem(helpText, 1, 0, false)

	setup.form = form
	setup.flex = flex
	return setup
}

// Submit checks the position field and starts the game.
func (s *GameSetupUI) Submit() {
	if s.game.PGNPath == "" && s.game.FEN != "" && s.game.FEN != "start" {
		if _, err := notation.Parse(s.game.FEN); err != nil {
			s.status.SetText(err.Error())
			return
		}
	}
	s.status.SetText("")
	s.onStart(s.game)
}

// Config returns the game configuration as currently entered.
func (s *GameSetupUI) Config() engine.GameConfig {
	return s.game
}

// Form returns the flex container with form and help text.
func (s *GameSetupUI) Form() *tview.Flex {
	return s.flex
}

// SetInputCapture sets the input capture function for the form.
func (s *GameSetupUI) SetInputCapture(capture func(event *tcell.EventKey) *tcell.EventKey) {
	s.form.SetInputCapture(capture)
}

// CreateCenteredForm creates a centered form container for the setup screen.
func CreateCenteredForm(form *tview.Flex, maxWidth int) *tview.Flex {
	centered := tview.NewFlex().SetDirection(tview.FlexColumn)
	centered.AddItem(nil, 0, 1, false)        // Left spacer
	centered.AddItem(form, maxWidth, 0, true) // Form with max width
	centered.AddItem(nil, 0, 1, false)        // Right spacer

	return centered
}

// Status returns the validation message shown under the form.
func (s *GameSetupUI) Status() string {
	return s.status.GetText(true)
}
