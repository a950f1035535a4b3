package ecs

import (
	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
)

// CollisionComponent reacts to ecs_collision events involving its owner.
// The reactions are hook functions rather than subclass methods so that
// variants stay ordinary values: a variant fills in its hooks and embeds
// the component.
type CollisionComponent struct {
	BaseComponent
	depth    int
	zShift   grid.Point
	face     grid.Point
	faceSize grid.Point
	passable bool

	// onInto fires when the owner bumps into other (empty = the scene
	// border); onBy fires when another entity bumps into the owner.
	onInto func(other string) []event.Event
	onBy   func(other string) []event.Event
}

// NewCollisionComponent builds a collision component and subscribes it to
// collision events.
func NewCollisionComponent(dispatcher *event.Dispatcher, passable bool) (*CollisionComponent, error) {
	c := &CollisionComponent{
		BaseComponent: NewBaseComponent(dispatcher, SlotCollision),
		passable:      passable,
	}
	if dispatcher != nil {
		if err := dispatcher.Register(c, event.TypeECSCollision); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *CollisionComponent) collisionComponent() *CollisionComponent { return c }

// Passable reports whether other entities may overlap this one freely.
func (c *CollisionComponent) Passable() bool { return c.passable }

// Depth returns how many z-levels below the widget's own this entity
// occupies.
func (c *CollisionComponent) Depth() int { return c.depth }

// ZShift returns the cell offset applied per z-level of depth.
func (c *CollisionComponent) ZShift() grid.Point { return c.zShift }

// Face returns the collidable sub-rectangle's offset within the widget.
func (c *CollisionComponent) Face() grid.Point { return c.face }

// FaceSize returns the collidable sub-rectangle's size; zero means the
// whole widget.
func (c *CollisionComponent) FaceSize() grid.Point { return c.faceSize }

// SetDepth makes the entity occupy z-levels [widget z - depth, widget z].
func (c *CollisionComponent) SetDepth(depth int) { c.depth = depth }

// SetZShift sets the per-z-level cell offset used when projecting the
// face onto other z-levels.
func (c *CollisionComponent) SetZShift(shift grid.Point) { c.zShift = shift }

// SetFace restricts collision to a sub-rectangle of the widget.
func (c *CollisionComponent) SetFace(pos, size grid.Point) {
	c.face = pos
	c.faceSize = size
}

// SetHooks installs the collision reactions.
func (c *CollisionComponent) SetHooks(onInto, onBy func(other string) []event.Event) {
	c.onInto = onInto
	c.onBy = onBy
}

// OnEvent routes collision events involving the owner to the hooks.
func (c *CollisionComponent) OnEvent(ev event.Event) []event.Event {
	if ev.Type != event.TypeECSCollision || c.owner == nil {
		return nil
	}
	payload, ok := ev.Value.(CollisionPayload)
	if !ok {
		return nil
	}
	switch {
	case payload.Mover == c.owner.ID() && c.onInto != nil:
		return c.onInto(payload.Other)
	case payload.Other == c.owner.ID() && c.onBy != nil:
		return c.onBy(payload.Mover)
	}
	return nil
}

// ComponentFields serializes the collision geometry.
func (c *CollisionComponent) ComponentFields() (string, map[string]any, error) {
	return "CollisionComponent", map[string]any{
		"depth":     c.depth,
		"z_shift":   []int{c.zShift.X, c.zShift.Y},
		"face":      []int{c.face.X, c.face.Y},
		"face_size": []int{c.faceSize.X, c.faceSize.Y},
		"passable":  c.passable,
	}, nil
}

// ===== WALKER COLLISION =====

// WalkerCollisionComponent makes an entity walk into things and bounce
// back: hitting the border or an impassable entity undoes the last move.
// A debounce flag swallows follow-up collisions until the next tick, so a
// single bad step reverses exactly once.
type WalkerCollisionComponent struct {
	CollisionComponent
	tracker *EntityTracker
	blocked bool
}

// NewWalkerCollisionComponent builds the walker variant. The tracker is
// consulted to decide whether the thing hit is passable. The walker
// subscribes itself for both collision and tick events; the embedded
// component must stay unsubscribed or dispatched collisions would reach
// its abandoned copy instead of the walker.
func NewWalkerCollisionComponent(dispatcher *event.Dispatcher, tracker *EntityTracker) (*WalkerCollisionComponent, error) {
	inner, err := NewCollisionComponent(nil, false)
	if err != nil {
		return nil, err
	}
	w := &WalkerCollisionComponent{CollisionComponent: *inner, tracker: tracker}
	w.dispatcher = dispatcher
	w.SetHooks(w.walkedInto, nil)
	if dispatcher != nil {
		if err := dispatcher.Register(w, event.TypeECSCollision, event.TypeTick); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// OnEvent resets the debounce on ticks, then behaves like a collision
// component.
func (w *WalkerCollisionComponent) OnEvent(ev event.Event) []event.Event {
	if ev.Type == event.TypeTick {
		w.blocked = false
		return nil
	}
	return w.CollisionComponent.OnEvent(ev)
}

func (w *WalkerCollisionComponent) walkedInto(other string) []event.Event {
	if w.blocked || w.owner == nil {
		return nil
	}
	pos := w.owner.Position()
	if pos == nil {
		return nil
	}
	impassable := other == "" // scene border
	if !impassable && w.tracker != nil {
		if e, ok := w.tracker.Entity(other); ok {
			if cc := e.Collision(); cc != nil && !cc.Passable() {
				impassable = true
			}
		}
	}
	if !impassable {
		return nil
	}
	last := pos.LastMove()
	w.blocked = true
	pos.RelativeMove(-last.X, -last.Y)
	return nil
}

// ComponentFields serializes the walker's geometry.
func (w *WalkerCollisionComponent) ComponentFields() (string, map[string]any, error) {
	_, fields, err := w.CollisionComponent.ComponentFields()
	if err != nil {
		return "", nil, err
	}
	return "WalkerCollisionComponent", fields, nil
}

// ===== COLLISION LISTENER =====

// CollisionListener is the depth-aware collision engine for layered
// scenes. It watches moves of shown entities and emits ecs_collision for
// every other shown entity whose projected face overlaps the mover's on
// some shared z-level. Border collisions are the scene layout's business,
// not this listener's.
//
// Two entities can collide only when their z-ranges [z - depth, z]
// intersect; within the shared range each z-level projects both faces by
// that entity's z-shift before the rectangle test. At most one collision
// per entity pair is emitted per move.
type CollisionListener struct {
	entities map[string]*Entity
	shown    map[string]bool
}

// NewCollisionListener builds the engine. Subscribe it to the ecs_*
// lifecycle and move events.
func NewCollisionListener() *CollisionListener {
	return &CollisionListener{
		entities: make(map[string]*Entity),
		shown:    make(map[string]bool),
	}
}

func faceGeometry(e *Entity) (pos, size grid.Point) {
	c := e.Collision()
	size = c.FaceSize()
	if size == (grid.Point{}) && e.Widget() != nil {
		size = e.Widget().Widget().Size()
	}
	return c.Face(), size
}

// OnEvent tracks lifecycle events and checks moves.
func (l *CollisionListener) OnEvent(ev event.Event) []event.Event {
	switch ev.Type {
	case event.TypeECSCreate:
		if e, ok := ev.Value.(*Entity); ok {
			l.entities[e.ID()] = e
		}
	case event.TypeECSDestroy:
		if id, ok := ev.Value.(string); ok {
			delete(l.entities, id)
			delete(l.shown, id)
		}
	case event.TypeECSRemove:
		if id, ok := ev.Value.(string); ok {
			delete(l.shown, id)
		}
	case event.TypeECSAdd:
		if p, ok := ev.Value.(PlacePayload); ok {
			if e, ok := l.entities[p.ID]; ok && e.Collision() != nil {
				l.shown[p.ID] = true
			}
		}
	case event.TypeECSMove:
		if p, ok := ev.Value.(PlacePayload); ok && l.shown[p.ID] {
			return l.checkMove(p)
		}
	}
	return nil
}

func (l *CollisionListener) checkMove(p PlacePayload) []event.Event {
	moved := l.entities[p.ID]
	if moved == nil || moved.Widget() == nil {
		return nil
	}
	movedZ := moved.Widget().Widget().ZLevel()
	movedColl := moved.Collision()
	movedFace, movedSize := faceGeometry(moved)
	var out []event.Event
	for otherID := range l.shown {
		other := l.entities[otherID]
		if otherID == p.ID || other == nil ||
			other.Position() == nil || other.Collision() == nil || other.Widget() == nil {
			continue
		}
		otherZ := other.Widget().Widget().ZLevel()
		otherColl := other.Collision()
		if movedZ-movedColl.Depth() > otherZ || otherZ-otherColl.Depth() > movedZ {
			continue
		}
		otherFace, otherSize := faceGeometry(other)
		low := max(movedZ-movedColl.Depth(), otherZ-otherColl.Depth())
		high := min(movedZ, otherZ)
		for z := low; z <= high; z++ {
			movedPos := grid.Point{
				X: p.X + movedFace.X + movedColl.ZShift().X*(movedZ-z),
				Y: p.Y + movedFace.Y + movedColl.ZShift().Y*(movedZ-z),
			}
			otherPos := grid.Point{
				X: other.Position().X() + otherFace.X + otherColl.ZShift().X*(otherZ-z),
				Y: other.Position().Y() + otherFace.Y + otherColl.ZShift().Y*(otherZ-z),
			}
			if grid.RectanglesCollide(movedPos, movedSize, otherPos, otherSize) {
				out = append(out, event.Event{
					Type:  event.TypeECSCollision,
					Value: CollisionPayload{Mover: p.ID, Other: otherID},
				})
				break
			}
		}
	}
	return out
}
