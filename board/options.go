package board

import (
	"github.com/rs/zerolog"

	"termboard/config"
	"termboard/notation"
	"termboard/types"
)

// Codec converts positions to and from text.
type Codec interface {
	Parse(text string) (types.Position, error)
	Serialize(pos types.Position) string
}

// Validator is the legality hook consulted before a drop is committed.
type Validator interface {
	ValidateMove(from, to types.Square, p types.Piece) bool
}

type settings struct {
	cfg       config.BoardConfig
	log       zerolog.Logger
	codec     Codec
	reg       *Registry
	validator Validator
	geom      *types.Geometry
}

// Option configures a Board.
type Option func(*settings)

func defaults() settings {
	return settings{
		cfg:   config.DefaultBoard,
		log:   zerolog.Nop(),
		codec: notation.FEN{},
	}
}

// WithConfig sets the board options. The config is validated by New.
func WithConfig(c config.BoardConfig) Option {
	return func(s *settings) { s.cfg = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

func WithCodec(c Codec) Option {
	return func(s *settings) { s.codec = c }
}

// WithRegistry issues the board id from r instead of the process-wide registry.
func WithRegistry(r *Registry) Option {
	return func(s *settings) { s.reg = r }
}

// WithValidator vetoes drops v rejects.
func WithValidator(v Validator) Option {
	return func(s *settings) { s.validator = v }
}

// WithGeometry overrides the cell geometry, including the orientation from the config.
func WithGeometry(g types.Geometry) Option {
	return func(s *settings) { s.geom = &g }
}
