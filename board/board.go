// Package board is the public face of a chessboard: it owns the position and
// the item set, and orchestrates diffing, animation and interaction.
//
// A Board is not safe for concurrent use. Drive it from the loop that
// delivers pointer events and renderer completions, and do not call back into
// it from inside an event handler; queue the call on that loop instead.
package board

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"termboard/anim"
	"termboard/config"
	"termboard/diff"
	"termboard/interact"
	"termboard/items"
	"termboard/notation"
	"termboard/types"
)

// Board is one interactive chessboard.
type Board struct {
	id        string
	reg       *Registry
	cfg       config.BoardConfig
	log       zerolog.Logger
	codec     Codec
	validator Validator
	geom      types.Geometry

	pos     types.Position
	sched   *anim.Scheduler
	layer   *items.Layer
	elems   map[string]anim.Handle
	machine *interact.Machine
	hover   types.Square

	on        handlers
	destroyed bool
}

// New creates a board drawing through r.
func New(r anim.Renderer, opts ...Option) (*Board, error) {
	if r == nil {
		return nil, types.ErrRendererMissing
	}
	s := defaults()
	for _, opt := range opts {
		opt(&s)
	}
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	if s.reg == nil {
		s.reg = Default()
	}
	geom := types.DefaultGeometry
	geom.Orientation = s.cfg.Orient()
	if s.geom != nil {
		geom = *s.geom
	}

	pos := make(types.Position)
	if s.cfg.Position != "" {
		p, err := s.codec.Parse(s.cfg.Position)
		if err != nil {
			return nil, fmt.Errorf("initial position: %w", err)
		}
		pos = p
	}

	b := &Board{
		reg:       s.reg,
		cfg:       s.cfg,
		codec:     s.codec,
		validator: s.validator,
		geom:      geom,
		pos:       pos,
		layer:     items.NewLayer(geom),
		elems:     make(map[string]anim.Handle),
		hover:     types.NoSquare,
	}
	b.id = s.reg.Issue()
	b.log = s.log.With().Str("board", b.id).Logger()
	b.sched = anim.NewScheduler(r, geom, b.log)
	b.sched.SetMaxDuration(s.cfg.MaxAnimation())
	b.machine = interact.New(host{b}, b.interactOptions())
	b.sched.Sync(pos)
	b.log.Debug().Str("position", notation.Describe(pos)).Msg("board created")
	return b, nil
}

func (b *Board) interactOptions() interact.Options {
	return interact.Options{Threshold: b.cfg.DragThreshold, OffBoard: b.cfg.DropPolicy()}
}

// ID returns the id issued by the board's registry.
func (b *Board) ID() string {
	return b.id
}

// Position returns a snapshot of the position.
func (b *Board) Position() types.Position {
	return b.pos.Clone()
}

// FEN serializes the position with the board's codec.
func (b *Board) FEN() string {
	return b.codec.Serialize(b.pos)
}

func (b *Board) duration(animate bool) time.Duration {
	if !animate {
		return 0
	}
	return b.cfg.Animation()
}

func (b *Board) watch(done *anim.Completion) {
	done.OnDone(func() {
		pos := b.pos.Clone()
		for _, fn := range b.on.settled {
			fn(pos)
		}
	})
}

// SetPosition replaces the position. Running animations are snapped and an
// active drag is cancelled before the difference is computed.
func (b *Board) SetPosition(pos types.Position, animate bool) *anim.Completion {
	return b.setPosition(pos.Clone(), animate)
}

func (b *Board) setPosition(after types.Position, animate bool) *anim.Completion {
	b.CancelDrag()
	b.sched.Settle()

	before := b.pos
	b.pos = after
	// The elements may lag the logical position if the renderer failed on
	// earlier operations; diffing against them repairs that.
	done := b.sched.Animate(diff.Diff(b.sched.Position(), after), b.duration(animate))
	b.emitChange(before, after, diff.Diff(before, after), SourceAPI)
	b.watch(done)
	return done
}

// SetFEN parses text with the board's codec and sets the result. On error
// nothing changes.
func (b *Board) SetFEN(text string, animate bool) (*anim.Completion, error) {
	pos, err := b.codec.Parse(text)
	if err != nil {
		return nil, err
	}
	return b.setPosition(pos, animate), nil
}

// Start sets the standard start position.
func (b *Board) Start(animate bool) *anim.Completion {
	return b.setPosition(notation.Start(), animate)
}

// Clear removes every piece.
func (b *Board) Clear(animate bool) *anim.Completion {
	return b.setPosition(make(types.Position), animate)
}

// Move applies moves such as "e2-e4" in order without checking legality.
// A move from an empty square fails the whole call.
func (b *Board) Move(animate bool, moves ...string) (*anim.Completion, error) {
	after := b.pos.Clone()
	for _, text := range moves {
		ms, err := notation.ParseMoves(text)
		if err != nil {
			return nil, err
		}
		for _, m := range ms {
			p, ok := after[m.From]
			if !ok {
				return nil, &types.NotationError{Text: m.String(), Reason: "no piece on " + m.From.String()}
			}
			delete(after, m.From)
			after[m.To] = p
		}
	}
	return b.setPosition(after, animate), nil
}

// Orientation returns which side is at the bottom.
func (b *Board) Orientation() types.Orientation {
	return b.geom.Orientation
}

// SetOrientation lays the board out for o. Ids, anchors and the position are
// unchanged.
func (b *Board) SetOrientation(o types.Orientation) {
	if o == b.geom.Orientation {
		return
	}
	g := b.geom
	g.Orientation = o
	b.relayout(g)
}

// Flip swaps the orientation.
func (b *Board) Flip() {
	b.SetOrientation(b.geom.Orientation.Flip())
}

// Resize fits the board into w x h cells.
func (b *Board) Resize(w, h int) {
	g := b.geom.Resized(w, h)
	if g == b.geom {
		return
	}
	b.relayout(g)
}

// Geometry returns the current cell geometry.
func (b *Board) Geometry() types.Geometry {
	return b.geom
}

func (b *Board) relayout(g types.Geometry) {
	b.CancelDrag()
	b.geom = g
	b.sched.Relayout(g)
	b.layer.Relayout(g, func(it items.Item, p items.Placement) {
		if h, ok := b.elems[it.ID]; ok {
			b.sched.Reposition(h, p)
		}
	})
	b.log.Debug().Str("orientation", g.Orientation.String()).Int("square_w", g.SquareW).Msg("relayout")
}

// Config returns the current options.
func (b *Board) Config() config.BoardConfig {
	return b.cfg
}

// SetConfig replaces the options. They apply from the next operation that
// reads them; running animations and the current orientation are untouched.
func (b *Board) SetConfig(c config.BoardConfig) error {
	if err := c.Validate(); err != nil {
		return err
	}
	b.cfg = c
	b.sched.SetMaxDuration(c.MaxAnimation())
	b.machine.SetOptions(b.interactOptions())
	return nil
}

// Destroy removes every element and releases the board id. The board must
// not be used afterwards.
func (b *Board) Destroy() {
	if b.destroyed {
		return
	}
	b.destroyed = true
	b.CancelDrag()
	b.sched.Reset()
	for id, h := range b.elems {
		b.sched.Unplace(h, 0)
		delete(b.elems, id)
	}
	b.layer.Clear(nil)
	b.reg.Release(b.id)
}
