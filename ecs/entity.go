// Package ecs implements the entity-component system: entities as bags of
// named component slots, the component contract and the built-in
// components for placement, display, collision and teardown.
//
// Components talk to each other only through the event queue and through
// their owning entity's slots; the scene package turns the resulting
// ecs_* event stream into visible widget movement.
package ecs

import (
	"errors"
	"fmt"
)

// ErrECS is wrapped by every entity and component misuse error.
var ErrECS = errors.New("ecs: invalid operation")

// Slot names of the built-in components. An entity holds at most one
// component per slot; the typed accessors below look these up.
const (
	SlotWidget     = "widget"
	SlotPosition   = "position"
	SlotCollision  = "collision"
	SlotDestructor = "destructor"
	SlotDecay      = "decay"
)

// reservedSlots can never hold a component; they would shadow the
// entity's own state.
var reservedSlots = map[string]bool{
	"id":         true,
	"components": true,
}

// Entity is an identifier plus a set of named component slots. It has no
// behavior of its own: components subscribe to the dispatcher themselves
// and find their siblings through the owner.
type Entity struct {
	id    string
	slots map[string]Component
	order []string
}

// NewEntity builds an entity and attaches the given components.
func NewEntity(id string, components ...Component) (*Entity, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: entity with empty id", ErrECS)
	}
	e := &Entity{id: id, slots: make(map[string]Component)}
	for _, c := range components {
		if err := e.AddComponent(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ID returns the entity identifier.
func (e *Entity) ID() string { return e.id }

// AddComponent attaches a component under its slot name, replacing any
// component already in that slot. Reserved names are rejected.
func (e *Entity) AddComponent(c Component) error {
	if c == nil {
		return fmt.Errorf("%w: adding a nil component", ErrECS)
	}
	name := c.Name()
	if name == "" {
		return fmt.Errorf("%w: component with empty slot name", ErrECS)
	}
	if reservedSlots[name] {
		return fmt.Errorf("%w: slot name %q is reserved", ErrECS, name)
	}
	if _, ok := e.slots[name]; !ok {
		e.order = append(e.order, name)
	}
	e.slots[name] = c
	c.SetOwner(e)
	return nil
}

// RemoveComponent detaches the component in a slot. The component is not
// unsubscribed from any dispatcher; that is the caller's (usually the
// destructor's) job.
func (e *Entity) RemoveComponent(name string) error {
	if _, ok := e.slots[name]; !ok {
		return fmt.Errorf("%w: entity %q has no %q component", ErrECS, e.id, name)
	}
	e.slots[name].SetOwner(nil)
	delete(e.slots, name)
	for i, n := range e.order {
		if n == name {
			e.order = append(e.order[:i:i], e.order[i+1:]...)
			break
		}
	}
	return nil
}

// Component returns the component in a slot, or nil.
func (e *Entity) Component(name string) Component {
	return e.slots[name]
}

// HasComponent reports whether a slot is filled.
func (e *Entity) HasComponent(name string) bool {
	_, ok := e.slots[name]
	return ok
}

// Components returns the attached components in attachment order.
func (e *Entity) Components() []Component {
	out := make([]Component, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, e.slots[name])
	}
	return out
}

// ===== TYPED SLOT ACCESSORS =====

// Position returns the position component, or nil if the slot is empty or
// holds something else.
func (e *Entity) Position() *PositionComponent {
	c, _ := e.slots[SlotPosition].(*PositionComponent)
	return c
}

// Widget returns the widget component, or nil.
func (e *Entity) Widget() *WidgetComponent {
	if c, ok := e.slots[SlotWidget].(interface{ widgetComponent() *WidgetComponent }); ok {
		return c.widgetComponent()
	}
	return nil
}

// Collision returns the collision component, or nil. Variants embedding
// CollisionComponent (the walker) are unwrapped.
func (e *Entity) Collision() *CollisionComponent {
	if c, ok := e.slots[SlotCollision].(interface{ collisionComponent() *CollisionComponent }); ok {
		return c.collisionComponent()
	}
	return nil
}

// Destructor returns the destructor component, or nil.
func (e *Entity) Destructor() *DestructorComponent {
	c, _ := e.slots[SlotDestructor].(*DestructorComponent)
	return c
}

// Decay returns the decay component, or nil.
func (e *Entity) Decay() *DecayComponent {
	c, _ := e.slots[SlotDecay].(*DecayComponent)
	return c
}
