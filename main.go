// termboard is a terminal chessboard with animated position changes and
// mouse or keyboard piece dragging.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/gliderlabs/ssh"
	"github.com/mattn/go-isatty"
	"github.com/rivo/tview"
	"github.com/rs/zerolog"

	"termboard/board"
	"termboard/config"
	"termboard/engine"
	"termboard/engine/rules"
	"termboard/logging"
	"termboard/serve"
	"termboard/types"
	"termboard/ui"
)

// Version is set at build time via ldflags
var Version = "dev"

// Command-line flags
var (
	flagFEN         = flag.String("fen", "", "Start from this FEN position")
	flagPGN         = flag.String("pgn", "", "Replay the game in this PGN file")
	flagOrientation = flag.String("orientation", "", "Side at the bottom (white or black)")
	flagFree        = flag.Bool("free", false, "Move pieces freely without checking legality")
	flagFocus       = flag.Bool("focus", false, "Start in focus mode (board only)")
	flagServe       = flag.String("serve", "", "Serve the board over SSH on this address, e.g. :2222")
	flagHostKey     = flag.String("hostkey", "", "SSH host key file for -serve")
	flagVersion     = flag.Bool("version", false, "Print version and exit")
)

// frameInterval paces renderer ticks while something animates.
const frameInterval = 16 * time.Millisecond

var app *tview.Application
var rootPage *tview.Pages
var gameBoard *ui.ChessBoardUI
var gameFrame *tview.Flex
var gameHint *tview.TextView
var cfg *config.Config
var boardCfg config.Config
var game *rules.Game
var logger zerolog.Logger
var stopRenderer context.CancelFunc

var errorLine = color.New(color.FgRed, color.Bold)

func fail(format string, a ...interface{}) {
	errorLine.Fprintf(os.Stderr, "error: ")
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Printf("termboard %s\n", Version)
		return
	}

	if *flagServe != "" {
		runServer(*flagServe, *flagHostKey)
		return
	}

	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		fail("termboard needs an interactive terminal")
	}

	var err error
	cfg, err = config.InitConfig()
	if err != nil {
		fail("%s", err)
	}

	var closer io.Closer
	logger, closer, err = logging.New(cfg.Log)
	if err != nil {
		color.Yellow("logging disabled: %s", err)
		logger = zerolog.Nop()
	} else {
		defer closer.Close()
	}
	logger.Info().Str("version", Version).Msg("starting")

	// Check if quick start requested
	quickStart := *flagFEN != "" || *flagPGN != "" || *flagOrientation != "" || *flagFree || *flagFocus

	app = tview.NewApplication()
	app.EnableMouse(true)
	rootPage = tview.NewPages()
	rootPage.SetBorder(true).SetTitle(" ♞ termboard ")
	rootPage.SetBorderColor(ui.MenuColors.Border)

	gameHint = ui.NewHint()
	gameFrame = tview.NewFlex()
	gameFrame.SetInputCapture(handleGameKey)

	app.SetMouseCapture(func(event *tcell.EventMouse, action tview.MouseAction) (*tcell.EventMouse, tview.MouseAction) {
		if gameBoard == nil {
			return event, action
		}
		if name, _ := rootPage.GetFrontPage(); name != "gameview" {
			return event, action
		}
		x, y := event.Position()
		if gameBoard.HandleMouse(action, x, y) {
			return nil, action
		}
		return event, action
	})

	// Game setup screen
	setupUI := ui.NewGameSetup(gameConfigFromFlags(),
		func(gameCfg engine.GameConfig) {
			startGame(gameCfg)
		},
		func() {
			app.Stop()
		},
		func() {
			rootPage.SwitchToPage("colors")
		},
	)

	// Color configuration screen
	colorConfig := ui.NewColorConfig(cfg, func() {
		// Refresh the game board with new colors
		boardCfg.Theme = cfg.Theme
		if gameBoard != nil {
			gameBoard.SetConfig(&boardCfg)
		}
		rootPage.SwitchToPage("setup")
	})
	colorConfig.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if event.Key() == tcell.KeyEsc || (event.Key() == tcell.KeyRune && event.Rune() == 'q') {
			rootPage.SwitchToPage("setup")
			return nil
		}
		if event.Key() == tcell.KeyTab {
			colorConfig.ToggleMode()
			return nil
		}
		return event
	})

	// Add pages - start on setup by default, or gameview if quick start
	rootPage.AddPage("setup", ui.CreateCenteredForm(setupUI.Form(), 72), true, !quickStart)
	rootPage.AddPage("gameview", gameFrame, true, false)
	rootPage.AddPage("colors", colorConfig.Flex(), true, false)

	if quickStart {
		if !startGame(setupUI.Config()) {
			rootPage.SwitchToPage("setup")
		} else if *flagFocus {
			gameBoard.ToggleFocusMode()
			ui.BuildFocusLayout(gameFrame, gameBoard)
		}
	}

	if err := app.SetRoot(rootPage, true).Run(); err != nil {
		logger.Error().Err(err).Msg("application stopped")
		fail("%s", err)
	}
	if stopRenderer != nil {
		stopRenderer()
	}
}

// gameConfigFromFlags creates a GameConfig from command-line flags.
func gameConfigFromFlags() engine.GameConfig {
	gameCfg := engine.GameConfig{
		FEN:         *flagFEN,
		PGNPath:     *flagPGN,
		Orientation: cfg.Board.Orientation,
		Free:        *flagFree,
	}
	if *flagOrientation != "" {
		o, err := types.ParseOrientation(*flagOrientation)
		if err != nil {
			fail("%s", err)
		}
		gameCfg.Orientation = o.String()
	}
	return gameCfg
}

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path)
}

// queue runs fn on the UI goroutine. Board callbacks fire on that goroutine
// already, so this must not block.
func queue(fn func()) {
	go app.QueueUpdateDraw(fn)
}

// startGame replaces the current board with one for gameCfg. It reports
// whether the game started; errors are shown in a modal.
func startGame(gameCfg engine.GameConfig) bool {
	g, err := rules.FromConfig(gameCfg, openFile)
	if err != nil {
		showError(fmt.Sprintf("Failed to start game:\n%s", err))
		return false
	}

	boardCfg = *cfg
	boardCfg.Board.Orientation = gameCfg.Orientation
	boardCfg.Board.Position = ""
	opts := []board.Option{board.WithLogger(logger)}
	if !gameCfg.Free {
		opts = append(opts, board.WithValidator(g))
	} else {
		boardCfg.Board.DropOffBoard = "remove"
	}

	b, err := ui.NewChessBoard(&boardCfg, gameHint, opts...)
	if err != nil {
		showError(fmt.Sprintf("Failed to start game:\n%s", err))
		return false
	}

	if gameBoard != nil {
		stopRenderer()
		gameBoard.Board.Destroy()
	}
	gameBoard, game = b, g

	var ctx context.Context
	ctx, stopRenderer = context.WithCancel(context.Background())
	go gameBoard.Renderer().Run(ctx, frameInterval, queue)

	ui.RebuildNormalLayout(gameFrame, gameBoard, gameHint)
	gameBoard.Board.SetPosition(game.Position(), false)
	wireGame(gameBoard, game, gameCfg.Free)
	refreshPanel()

	logger.Info().Str("board", b.Board.ID()).Str("fen", game.FEN()).Bool("free", gameCfg.Free).Msg("game started")
	rootPage.SwitchToPage("gameview")
	app.SetFocus(gameFrame)
	return true
}

// wireGame connects board drops to the rules engine and engine moves back to the board.
func wireGame(gb *ui.ChessBoardUI, g *rules.Game, free bool) {
	if free {
		return
	}
	gb.Board.OnDrop(func(ev board.DropEvent) bool {
		if err := g.PlayMove(ev.From, ev.To); err != nil {
			logger.Debug().Err(err).Msg("drop refused")
			return false
		}
		return true
	})
	g.OnMove(func(ev engine.MoveEvent) {
		// Castling, en passant and promotion change more than the drag showed.
		queue(func() {
			if gameBoard != gb {
				return
			}
			gb.Board.SetPosition(ev.Position, true)
			gb.SetLastMove(ev.From, ev.To)
			refreshPanel()
		})
	})
	g.OnGameEnd(func(outcome, method string) {
		logger.Info().Str("outcome", outcome).Str("method", method).Msg("game over")
		queue(func() {
			if p := gb.InfoPanel(); p != nil && gameBoard == gb {
				p.SetStatus(fmt.Sprintf("Game over: %s", strings.ToLower(method)))
			}
		})
	})
}

func refreshPanel() {
	if p := gameBoard.InfoPanel(); p != nil {
		p.SetGame(game.History(), game.Index(), game.Turn(), game.Outcome())
	}
}

// seek shows the position after n plies of the game.
func seek(n int) {
	pos, ok := game.Seek(n)
	if !ok {
		return
	}
	gameBoard.Board.SetPosition(pos, true)
	refreshPanel()
}

func showHistory() {
	browser := ui.NewHistoryBrowser(&boardCfg, game, func(ply int) {
		seek(ply)
		rootPage.SwitchToPage("gameview")
		rootPage.RemovePage("history")
	}, func() {
		rootPage.SwitchToPage("gameview")
		rootPage.RemovePage("history")
	})
	rootPage.AddAndSwitchToPage("history", browser.Flex(), true)
}

func handleGameKey(event *tcell.EventKey) *tcell.EventKey {
	if gameBoard == nil {
		return event
	}
	switch event.Key() {
	case tcell.KeyTab:
		if gameBoard.ToggleFocusMode() {
			ui.BuildFocusLayout(gameFrame, gameBoard)
		} else {
			ui.RebuildNormalLayout(gameFrame, gameBoard, gameHint)
		}
		return nil
	case tcell.KeyRune:
		switch event.Rune() {
		case 'q':
			if _, ok := gameBoard.Cursor(); ok {
				gameBoard.ResetSelection()
			} else {
				gameBoard.Board.CancelDrag()
				rootPage.SwitchToPage("setup")
			}
			return nil
		case '[':
			seek(game.Index() - 1)
			return nil
		case ']':
			seek(game.Index() + 1)
			return nil
		case 'H':
			showHistory()
			return nil
		}
	}
	return gameBoard.HandleKey(event)
}

func showError(text string) {
	logger.Error().Msg(text)
	modal := tview.NewModal().
		SetText(text).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(buttonIndex int, buttonLabel string) {
			rootPage.HidePage("error")
		})
	rootPage.AddPage("error", modal, true, true)
}

// runServer serves this binary over SSH, one process per session.
func runServer(addr, hostKey string) {
	log := logging.Console(os.Stderr, "info")
	exe, err := os.Executable()
	if err != nil {
		fail("%s", err)
	}
	args := sessionArgs(os.Args[1:])

	srv := &serve.Server{
		Addr:        addr,
		HostKeyFile: hostKey,
		Log:         log,
		Command: func(ctx context.Context, _ ssh.Session) *exec.Cmd {
			cmd := exec.CommandContext(ctx, exe, args...)
			cmd.Env = os.Environ()
			return cmd
		},
	}
	color.Green("termboard listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil {
		fail("%s", err)
	}
}

// sessionArgs drops the serving flags so sessions run the board itself.
func sessionArgs(args []string) []string {
	var out []string
	skip := false
	for _, a := range args {
		if skip {
			skip = false
			continue
		}
		name := strings.TrimLeft(a, "-")
		if i := strings.IndexByte(name, '='); i >= 0 {
			name = name[:i]
			if name == "serve" || name == "hostkey" {
				continue
			}
		} else if name == "serve" || name == "hostkey" {
			skip = true
			continue
		}
		out = append(out, a)
	}
	return out
}
