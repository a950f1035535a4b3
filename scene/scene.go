// Package scene provides the entity-aware layouts: layouts driven entirely
// by ecs_* events, with collision detection over the coverage stacks.
package scene

import (
	"fmt"

	"github.com/ursa-engine/ursa/ecs"
	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
	"github.com/ursa-engine/ursa/widget"
)

// ECSLayout is a layout of entities. Besides compositing it provides
// collision detection; it is controlled entirely by events:
//
//   - ecs_create registers an entity (which must already carry a widget
//     component) without showing it;
//   - ecs_add shows the entity's widget at a position;
//   - ecs_move relocates the widget and reports collisions;
//   - ecs_remove hides the widget, keeping the entity registered;
//   - ecs_destroy forgets the entity entirely;
//   - ecs_update requests a redraw for in-place widget changes.
//
// A move that would stick out of the layout is not applied; it yields a
// single border collision instead. An in-bounds move is applied and yields
// one collision per distinct other entity overlapping the destination.
// Collisions never block movement by themselves; blocking is a policy of
// listening components.
//
// Moves and removals of unregistered or hidden entities are ignored: an
// entity's events can still be in flight after its destruction was
// requested, and position components keep ticking while hidden.
type ECSLayout struct {
	widget.Layout
	entities map[string]*ecs.Entity
	widgets  map[string]widget.Widget
	owners   map[widget.Widget]string
}

// NewECSLayout builds an entity layout over a background. The whole
// backing grid is visible.
func NewECSLayout(chars [][]rune, colors [][]string) (*ECSLayout, error) {
	l := &ECSLayout{}
	l.initMaps()
	if err := l.Init(chars, colors, grid.Point{}, grid.Size(chars)); err != nil {
		return nil, err
	}
	return l, nil
}

func (l *ECSLayout) initMaps() {
	l.entities = make(map[string]*ecs.Entity)
	l.widgets = make(map[string]widget.Widget)
	l.owners = make(map[widget.Widget]string)
}

// AddEntity registers an entity for display. The entity must have a widget
// component; it is not shown until an ecs_add event places it.
func (l *ECSLayout) AddEntity(e *ecs.Entity) error {
	if e == nil {
		return fmt.Errorf("%w: adding a nil entity to a scene", ecs.ErrECS)
	}
	wc := e.Widget()
	if wc == nil {
		return fmt.Errorf("%w: entity %q has no widget to display", ecs.ErrECS, e.ID())
	}
	l.entities[e.ID()] = e
	l.widgets[e.ID()] = wc.Widget()
	l.owners[wc.Widget()] = e.ID()
	return nil
}

// RemoveEntity forgets an entity and hides its widget if shown. It does
// not destroy the entity; that is the destructor component's job.
func (l *ECSLayout) RemoveEntity(id string) error {
	w, ok := l.widgets[id]
	if !ok {
		return fmt.Errorf("%w: removing unknown entity %q from a scene", ecs.ErrECS, id)
	}
	l.RemoveChild(w) // not shown is fine
	delete(l.entities, id)
	delete(l.widgets, id)
	delete(l.owners, w)
	l.Invalidate()
	return nil
}

// Entity looks up a registered entity.
func (l *ECSLayout) Entity(id string) (*ecs.Entity, bool) {
	e, ok := l.entities[id]
	return e, ok
}

// OnEvent drives the scene; see the type documentation for the protocol.
func (l *ECSLayout) OnEvent(ev event.Event) []event.Event {
	return l.handle(ev, l)
}

// handle is OnEvent with the identity the surface knows about passed
// explicitly, so embedding variants repaint as themselves.
func (l *ECSLayout) handle(ev event.Event, outer widget.Widget) []event.Event {
	switch ev.Type {
	case event.TypeECSCreate:
		if e, ok := ev.Value.(*ecs.Entity); ok {
			l.AddEntity(e)
		}
	case event.TypeECSDestroy:
		if id, ok := ev.Value.(string); ok {
			l.RemoveEntity(id)
		}
	case event.TypeECSRemove:
		if id, ok := ev.Value.(string); ok {
			if w, ok := l.widgets[id]; ok {
				l.RemoveChild(w)
				l.Invalidate()
			}
		}
	case event.TypeECSAdd:
		if p, ok := ev.Value.(ecs.PlacePayload); ok {
			if w, ok := l.widgets[p.ID]; ok {
				l.AddChild(w, grid.Point{X: p.X, Y: p.Y})
			}
		}
	case event.TypeECSMove:
		if p, ok := ev.Value.(ecs.PlacePayload); ok {
			return l.moveEntity(p)
		}
	case event.TypeECSUpdate:
		l.Invalidate()
	case event.TypeService:
		if ev.Value == event.SignalTickOver {
			l.RefreshIfNeeded(outer)
		}
	}
	return nil
}

// moveEntity applies a move request and reports collisions.
func (l *ECSLayout) moveEntity(p ecs.PlacePayload) []event.Event {
	w, ok := l.widgets[p.ID]
	if !ok {
		return nil
	}
	s, b := w.Size(), l.BackingSize()
	if p.X < 0 || p.Y < 0 || p.X+s.X > b.X || p.Y+s.Y > b.Y {
		return []event.Event{{
			Type:  event.TypeECSCollision,
			Value: ecs.CollisionPayload{Mover: p.ID, Other: ""},
		}}
	}
	if err := l.MoveChild(w, grid.Point{X: p.X, Y: p.Y}); err != nil {
		// Hidden entities keep their position components ticking.
		return nil
	}
	var out []event.Event
	seen := map[string]bool{p.ID: true}
	for y := p.Y; y < p.Y+s.Y; y++ {
		for x := p.X; x < p.X+s.X; x++ {
			for _, other := range l.WidgetsAt(grid.Point{X: x, Y: y}) {
				id, ok := l.owners[other]
				if !ok || seen[id] {
					continue
				}
				seen[id] = true
				out = append(out, event.Event{
					Type:  event.TypeECSCollision,
					Value: ecs.CollisionPayload{Mover: p.ID, Other: id},
				})
			}
		}
	}
	return out
}
