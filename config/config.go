package config

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/adrg/xdg"
	"github.com/rs/zerolog"

	"termboard/interact"
	"termboard/notation"
	"termboard/types"
)

var (
	cfgFile = "termboard/config.json"
)

type InvalidConfig struct {
	err string
}

func (e *InvalidConfig) Error() string {
	return fmt.Sprintf("Config error: %s", e.err)
}

type ConfigColors struct {
	LightSquare int `json:"light_square"`
	DarkSquare  int `json:"dark_square"`
	WhitePiece  int `json:"white_piece"`
	BlackPiece  int `json:"black_piece"`
	Coordinates int `json:"coordinates"`
	HoverBG     int `json:"hover_bg"`
	CursorBG    int `json:"cursor_bg"`
	SelectedBG  int `json:"selected_bg"`
	Arrow       int `json:"arrow"`
	Circle      int `json:"circle"`
	LastMoveBG  int `json:"last_move_bg"`
}

type ConfigSymbols struct {
	King   rune `json:"king"`
	Queen  rune `json:"queen"`
	Rook   rune `json:"rook"`
	Bishop rune `json:"bishop"`
	Knight rune `json:"knight"`
	Pawn   rune `json:"pawn"`
	Arrow  rune `json:"arrow"`
	Circle rune `json:"circle"`
}

// Symbol returns the glyph drawn for a piece kind.
func (s ConfigSymbols) Symbol(k types.Kind) rune {
	switch k {
	case types.King:
		return s.King
	case types.Queen:
		return s.Queen
	case types.Rook:
		return s.Rook
	case types.Bishop:
		return s.Bishop
	case types.Knight:
		return s.Knight
	default:
		return s.Pawn
	}
}

type Theme struct {
	// UseLetters draws FEN letters instead of the piece symbols.
	UseLetters bool          `json:"use_letters"`
	Colors     ConfigColors  `json:"colors"`
	Symbols    ConfigSymbols `json:"symbols"`
}

// BoardConfig is the option set the board reads on every relevant operation.
type BoardConfig struct {
	Draggable      bool   `json:"draggable"`
	DropOffBoard   string `json:"drop_off_board"`
	AnimationMs    int    `json:"animation_ms"`
	SnapbackMs     int    `json:"snapback_ms"`
	MaxAnimationMs int    `json:"max_animation_ms"`
	Orientation    string `json:"orientation"`
	SparePieces    bool   `json:"spare_pieces"`
	Position       string `json:"position"`
	DragThreshold  int    `json:"drag_threshold"`
	ShowNotation   bool   `json:"show_notation"`
}

func millis(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

// Animation is the duration of position changes.
func (b BoardConfig) Animation() time.Duration { return millis(b.AnimationMs) }

// Snapback is the duration of a piece returning to its square.
func (b BoardConfig) Snapback() time.Duration { return millis(b.SnapbackMs) }

// MaxAnimation caps every duration. Zero disables the cap.
func (b BoardConfig) MaxAnimation() time.Duration { return millis(b.MaxAnimationMs) }

// DropPolicy parses DropOffBoard, falling back to snapback.
func (b BoardConfig) DropPolicy() interact.DropPolicy {
	p, err := interact.ParseDropPolicy(b.DropOffBoard)
	if err != nil {
		return interact.Snapback
	}
	return p
}

// Orient parses Orientation, falling back to white.
func (b BoardConfig) Orient() types.Orientation {
	o, err := types.ParseOrientation(b.Orientation)
	if err != nil {
		return types.OrientWhite
	}
	return o
}

func (b BoardConfig) Validate() error {
	if _, err := interact.ParseDropPolicy(b.DropOffBoard); err != nil {
		return &InvalidConfig{err.Error()}
	}
	if _, err := types.ParseOrientation(b.Orientation); err != nil {
		return &InvalidConfig{err.Error()}
	}
	if b.AnimationMs < 0 || b.SnapbackMs < 0 || b.MaxAnimationMs < 0 {
		return &InvalidConfig{"Animation durations must not be negative"}
	}
	if b.DragThreshold < 0 {
		return &InvalidConfig{"Drag threshold must not be negative"}
	}
	if b.Position != "" {
		if _, err := notation.Parse(b.Position); err != nil {
			return &InvalidConfig{err.Error()}
		}
	}
	return nil
}

type LogConfig struct {
	Level string `json:"level"`
	// File is the debug log path. Empty logs to termboard/debug.log under the XDG cache dir.
	File string `json:"file"`
}

type Config struct {
	Theme Theme       `json:"theme"`
	Board BoardConfig `json:"board"`
	Log   LogConfig   `json:"log"`
}

func InitConfig() (*Config, error) {
	config := DefaultConfig
	absPath, err := xdg.SearchConfigFile(cfgFile)
	if err == nil {
		if err := readCfgFile(absPath, &config); err != nil {
			return nil, err
		}
	}
	if err = config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) Validate() error {
	s := c.Theme.Symbols
	for _, r := range []rune{s.King, s.Queen, s.Rook, s.Bishop, s.Knight, s.Pawn, s.Arrow, s.Circle} {
		if r < 32 || (r >= 127 && r <= 159) {
			return &InvalidConfig{"Unicode characters 1-31 and 127-159 are not allowed"}
		}
	}
	if _, err := zerolog.ParseLevel(c.Log.Level); err != nil {
		return &InvalidConfig{err.Error()}
	}
	return c.Board.Validate()
}

func (c *Config) Save() error {
	absPath, err := xdg.ConfigFile(cfgFile)
	if err != nil {
		return err
	}
	return saveCfgFile(absPath, c, 0664)
}

func saveCfgFile(filePath string, a interface{}, perm fs.FileMode) error {
	jsonData, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filePath, jsonData, perm)
}

func readCfgFile(filePath string, a interface{}) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil
	}
	if err := json.Unmarshal(data, a); err != nil {
		return &InvalidConfig{fmt.Sprintf("%s: %v", filePath, err)}
	}
	return nil
}
