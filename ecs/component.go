package ecs

import (
	"fmt"

	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/widget"
)

// Component is an event listener attached to an entity slot.
type Component interface {
	event.Listener
	// Name is the slot this component occupies on its entity.
	Name() string
	Owner() *Entity
	SetOwner(e *Entity)
}

// ===== EVENT PAYLOADS =====

// PlacePayload is the value of ecs_move and ecs_add events: where an
// entity's widget should go, in scene coordinates.
type PlacePayload struct {
	ID string
	X  int
	Y  int
}

// CollisionPayload is the value of ecs_collision events. Other is empty
// when the mover hit the scene border.
type CollisionPayload struct {
	Mover string
	Other string
}

// ===== BASE COMPONENT =====

// BaseComponent carries the fields every component shares. Concrete
// components embed it and override OnEvent.
type BaseComponent struct {
	name       string
	owner      *Entity
	dispatcher *event.Dispatcher
}

// NewBaseComponent builds the shared part of a component. It does not
// subscribe to anything; concrete constructors do.
func NewBaseComponent(dispatcher *event.Dispatcher, name string) BaseComponent {
	return BaseComponent{name: name, dispatcher: dispatcher}
}

func (b *BaseComponent) Name() string                  { return b.name }
func (b *BaseComponent) Owner() *Entity                { return b.owner }
func (b *BaseComponent) SetOwner(e *Entity)            { b.owner = e }
func (b *BaseComponent) Dispatcher() *event.Dispatcher { return b.dispatcher }

// OnEvent ignores everything by default.
func (b *BaseComponent) OnEvent(ev event.Event) []event.Event { return nil }

// emit enqueues an event, swallowing the impossible unregistered-type
// error for built-in types.
func (b *BaseComponent) emit(ev event.Event) {
	if b.dispatcher != nil {
		b.dispatcher.Add(ev)
	}
}

// ===== WIDGET COMPONENT =====

// WidgetComponent owns the entity's drawable widget and forwards events to
// it, so a single dispatcher subscription animates the widget.
type WidgetComponent struct {
	BaseComponent
	w widget.Widget
}

// NewWidgetComponent wraps a widget into the "widget" slot.
func NewWidgetComponent(dispatcher *event.Dispatcher, w widget.Widget) (*WidgetComponent, error) {
	if w == nil {
		return nil, fmt.Errorf("%w: widget component without a widget", ErrECS)
	}
	return &WidgetComponent{
		BaseComponent: NewBaseComponent(dispatcher, SlotWidget),
		w:             w,
	}, nil
}

func (c *WidgetComponent) widgetComponent() *WidgetComponent { return c }

// Widget returns the wrapped widget.
func (c *WidgetComponent) Widget() widget.Widget { return c.w }

// Size returns the widget's size.
func (c *WidgetComponent) Size() (int, int) {
	s := c.w.Size()
	return s.X, s.Y
}

// OnEvent forwards to the widget.
func (c *WidgetComponent) OnEvent(ev event.Event) []event.Event {
	return c.w.OnEvent(ev)
}

// ComponentFields serializes the component with its widget inline.
func (c *WidgetComponent) ComponentFields() (string, map[string]any, error) {
	data, err := widget.Serialize(c.w)
	if err != nil {
		return "", nil, err
	}
	return "WidgetComponent", map[string]any{"widget": rawRecord(data)}, nil
}

// SwitchWidgetComponent wraps a switching widget and announces image
// changes so scenes redraw.
type SwitchWidgetComponent struct {
	WidgetComponent
}

// NewSwitchWidgetComponent wraps a switching widget into the "widget"
// slot.
func NewSwitchWidgetComponent(dispatcher *event.Dispatcher, w *widget.SwitchingWidget) (*SwitchWidgetComponent, error) {
	inner, err := NewWidgetComponent(dispatcher, w)
	if err != nil {
		return nil, err
	}
	return &SwitchWidgetComponent{WidgetComponent: *inner}, nil
}

// SwitchTo changes the displayed image and requests a scene redraw.
func (c *SwitchWidgetComponent) SwitchTo(name string) error {
	sw := c.w.(*widget.SwitchingWidget)
	if err := sw.SwitchTo(name); err != nil {
		return err
	}
	c.emit(event.Event{Type: event.TypeECSUpdate})
	return nil
}

// ComponentFields serializes the component with its widget inline.
func (c *SwitchWidgetComponent) ComponentFields() (string, map[string]any, error) {
	data, err := widget.Serialize(c.w)
	if err != nil {
		return "", nil, err
	}
	return "SwitchWidgetComponent", map[string]any{"widget": rawRecord(data)}, nil
}

// ===== ENTITY TRACKER =====

// EntityTracker is the entity registry. It is plain state handed to
// whoever needs lookups (walkers, game systems); subscribe it to
// ecs_create and ecs_destroy and it stays current.
type EntityTracker struct {
	entities map[string]*Entity
}

// NewEntityTracker builds an empty registry.
func NewEntityTracker() *EntityTracker {
	return &EntityTracker{entities: make(map[string]*Entity)}
}

// Entity looks up a live entity by id.
func (t *EntityTracker) Entity(id string) (*Entity, bool) {
	e, ok := t.entities[id]
	return e, ok
}

// Filter returns every live entity matching the predicate.
func (t *EntityTracker) Filter(pred func(*Entity) bool) []*Entity {
	var out []*Entity
	for _, e := range t.entities {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of live entities.
func (t *EntityTracker) Len() int { return len(t.entities) }

// OnEvent maintains the registry from the lifecycle events.
func (t *EntityTracker) OnEvent(ev event.Event) []event.Event {
	switch ev.Type {
	case event.TypeECSCreate:
		if e, ok := ev.Value.(*Entity); ok {
			t.entities[e.ID()] = e
		}
	case event.TypeECSDestroy:
		if id, ok := ev.Value.(string); ok {
			delete(t.entities, id)
		}
	}
	return nil
}
