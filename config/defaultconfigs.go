package config

var DefaultConfig Config
var DefaultTheme Theme
var DefaultBoard BoardConfig

func init() {
	DefaultTheme = Theme{
		UseLetters: false,
		Colors: ConfigColors{
			LightSquare: 180,
			DarkSquare:  137,
			WhitePiece:  255,
			BlackPiece:  232,
			Coordinates: 244,
			HoverBG:     108,
			CursorBG:    4,
			SelectedBG:  2,
			Arrow:       166,
			Circle:      28,
			LastMoveBG:  143,
		},
		Symbols: ConfigSymbols{
			King:   '♚',
			Queen:  '♛',
			Rook:   '♜',
			Bishop: '♝',
			Knight: '♞',
			Pawn:   '♟',
			Arrow:  '•',
			Circle: '○',
		},
	}

	DefaultBoard = BoardConfig{
		Draggable:      true,
		DropOffBoard:   "snapback",
		AnimationMs:    200,
		SnapbackMs:     60,
		MaxAnimationMs: 2000,
		Orientation:    "white",
		SparePieces:    false,
		Position:       "start",
		DragThreshold:  1,
		ShowNotation:   true,
	}

	DefaultConfig = Config{
		Theme: DefaultTheme,
		Board: DefaultBoard,
		Log: LogConfig{
			Level: "info",
		},
	}
}
