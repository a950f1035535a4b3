package ecs

import (
	"fmt"
	"math"

	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
)

// PositionComponent places the entity on a scene and optionally moves it
// with a velocity in whole tiles per second. Sub-tile progress accumulates
// per axis; once at least one tile's worth of time has passed the
// component snaps the accumulated distance to whole tiles, emits ecs_move
// and starts accumulating from zero.
type PositionComponent struct {
	BaseComponent
	x, y     int
	vx, vy   float64
	xDelay   float64 // seconds per tile, 0 when the axis is still
	yDelay   float64
	xWaited  float64
	yWaited  float64
	lastMove grid.Point
	affectZ  bool
}

// NewPositionComponent builds a still position component at (x, y) and
// subscribes it to ticks.
func NewPositionComponent(dispatcher *event.Dispatcher, x, y int) (*PositionComponent, error) {
	p := &PositionComponent{
		BaseComponent: NewBaseComponent(dispatcher, SlotPosition),
		x:             x,
		y:             y,
	}
	if dispatcher != nil {
		if err := dispatcher.Register(p, event.TypeTick); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// X returns the horizontal position.
func (p *PositionComponent) X() int { return p.x }

// Y returns the vertical position.
func (p *PositionComponent) Y() int { return p.y }

// Pos returns the position as a point.
func (p *PositionComponent) Pos() grid.Point { return grid.Point{X: p.x, Y: p.y} }

// LastMove returns the offset of the most recent move.
func (p *PositionComponent) LastMove() grid.Point { return p.lastMove }

// Velocity returns the current velocity in tiles per second.
func (p *PositionComponent) Velocity() (vx, vy float64) { return p.vx, p.vy }

// SetVelocity changes the velocity. Fractional speeds work: one tile of
// movement is emitted every 1/|v| seconds. Accumulated sub-tile progress
// is kept.
func (p *PositionComponent) SetVelocity(vx, vy float64) {
	p.vx, p.vy = vx, vy
	p.xDelay, p.yDelay = 0, 0
	if vx != 0 {
		p.xDelay = 1 / math.Abs(vx)
	}
	if vy != 0 {
		p.yDelay = 1 / math.Abs(vy)
	}
}

// AffectZ reports whether the widget's z-level tracks the vertical
// position.
func (p *PositionComponent) AffectZ() bool { return p.affectZ }

// SetAffectZ ties the widget's z-level to the vertical position: lower on
// the screen means closer to the viewer. Pseudo-3D scenes use this.
func (p *PositionComponent) SetAffectZ(affect bool) { p.affectZ = affect }

// Place sets the position without announcing it, for initial placement
// before the entity is shown.
func (p *PositionComponent) Place(x, y int) {
	p.x, p.y = x, y
	p.syncZ()
}

// Move sets the position, records the move offset and announces it with
// an ecs_move event.
func (p *PositionComponent) Move(x, y int) error {
	if p.owner == nil {
		return fmt.Errorf("%w: moving a position component with no owner", ErrECS)
	}
	p.lastMove = grid.Point{X: x - p.x, Y: y - p.y}
	p.x, p.y = x, y
	p.syncZ()
	p.emit(event.Event{
		Type:  event.TypeECSMove,
		Value: PlacePayload{ID: p.owner.ID(), X: x, Y: y},
	})
	return nil
}

// RelativeMove moves by an offset.
func (p *PositionComponent) RelativeMove(dx, dy int) error {
	return p.Move(p.x+dx, p.y+dy)
}

// syncZ applies the affect-z rule to the owner's widget.
func (p *PositionComponent) syncZ() {
	if !p.affectZ || p.owner == nil {
		return
	}
	if wc := p.owner.Widget(); wc != nil {
		w := wc.Widget()
		w.SetZLevel(p.y + w.Size().Y)
	}
}

// OnEvent integrates the velocity over ticks. Each axis accumulates
// elapsed time; once it exceeds that axis' per-tile delay, the movement is
// rounded to whole tiles and the accumulator resets. A long frame can thus
// move several tiles at once.
func (p *PositionComponent) OnEvent(ev event.Event) []event.Event {
	if ev.Type != event.TypeTick || p.owner == nil {
		return nil
	}
	dt, ok := ev.Value.(float64)
	if !ok {
		return nil
	}
	newX, newY := p.x, p.y
	if p.xDelay > 0 {
		p.xWaited += dt
		if p.xWaited > p.xDelay {
			tiles := int(math.Round(p.xWaited / p.xDelay))
			if p.vx < 0 {
				tiles = -tiles
			}
			newX += tiles
			p.xWaited = 0
		}
	}
	if p.yDelay > 0 {
		p.yWaited += dt
		if p.yWaited > p.yDelay {
			tiles := int(math.Round(p.yWaited / p.yDelay))
			if p.vy < 0 {
				tiles = -tiles
			}
			newY += tiles
			p.yWaited = 0
		}
	}
	if newX != p.x || newY != p.y {
		p.Move(newX, newY)
	}
	return nil
}

// ComponentFields serializes position and velocity; accumulators restart
// from zero on load.
func (p *PositionComponent) ComponentFields() (string, map[string]any, error) {
	return "PositionComponent", map[string]any{
		"x":        p.x,
		"y":        p.y,
		"vx":       p.vx,
		"vy":       p.vy,
		"affect_z": p.affectZ,
	}, nil
}
