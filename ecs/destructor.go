package ecs

import (
	"fmt"

	"github.com/ursa-engine/ursa/event"
)

// DestructorComponent tears its entity down cleanly. Destroy announces
// ecs_destroy and immediately unsubscribes every sibling component, so the
// dying entity stops reacting at once; the components themselves are
// stripped only at the end of the tick, after every listener has seen the
// announcement and any already queued events touching the entity have
// drained.
type DestructorComponent struct {
	BaseComponent
	destroying bool
}

// NewDestructorComponent builds the destructor and subscribes it to the
// service channel it needs for deferred teardown.
func NewDestructorComponent(dispatcher *event.Dispatcher) (*DestructorComponent, error) {
	d := &DestructorComponent{
		BaseComponent: NewBaseComponent(dispatcher, SlotDestructor),
	}
	if dispatcher != nil {
		if err := dispatcher.Register(d, event.TypeService); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Destroying reports whether teardown has started.
func (d *DestructorComponent) Destroying() bool { return d.destroying }

// Destroy starts the teardown. Calling it again is a no-op.
func (d *DestructorComponent) Destroy() error {
	if d.destroying {
		return nil
	}
	if d.owner == nil {
		return fmt.Errorf("%w: destroying a component with no owner", ErrECS)
	}
	d.destroying = true
	d.emit(event.Event{Type: event.TypeECSDestroy, Value: d.owner.ID()})
	// Silence the siblings now; the slots are cleared at tick over.
	if d.dispatcher != nil {
		for _, c := range d.owner.Components() {
			if c == Component(d) {
				continue
			}
			d.dispatcher.Unregister(c)
		}
	}
	return nil
}

// OnEvent finishes the teardown at the end of the tick.
func (d *DestructorComponent) OnEvent(ev event.Event) []event.Event {
	if !d.destroying || ev.Type != event.TypeService || ev.Value != event.SignalTickOver {
		return nil
	}
	owner := d.owner
	for _, c := range owner.Components() {
		if c == Component(d) {
			continue
		}
		owner.RemoveComponent(c.Name())
	}
	if d.dispatcher != nil {
		d.dispatcher.Unregister(d)
	}
	owner.RemoveComponent(d.name)
	return nil
}

// ComponentFields serializes the destructor (it has no state worth
// keeping; a loaded entity is never mid-teardown).
func (d *DestructorComponent) ComponentFields() (string, map[string]any, error) {
	return "DestructorComponent", map[string]any{}, nil
}

// ===== DECAY =====

// DecayCondition selects what triggers a decay component.
type DecayCondition int

const (
	// DecayOnKeypress destroys the entity on any key press.
	DecayOnKeypress DecayCondition = iota
	// DecayAfterTimeout destroys the entity once its lifetime elapses.
	DecayAfterTimeout
)

func (c DecayCondition) String() string {
	switch c {
	case DecayOnKeypress:
		return "keypress"
	case DecayAfterTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

func decayConditionFromString(s string) (DecayCondition, error) {
	switch s {
	case "keypress":
		return DecayOnKeypress, nil
	case "timeout":
		return DecayAfterTimeout, nil
	default:
		return 0, fmt.Errorf("%w: unknown decay condition %q", ErrECS, s)
	}
}

// DecayComponent destroys its entity when a condition fires: either any
// key press, or an age limit. Splash screens and transient effects use it.
type DecayComponent struct {
	BaseComponent
	condition DecayCondition
	lifetime  float64
	age       float64
}

// NewDecayComponent builds the component and subscribes it to what its
// condition needs.
func NewDecayComponent(dispatcher *event.Dispatcher, condition DecayCondition, lifetime float64) (*DecayComponent, error) {
	if condition == DecayAfterTimeout && lifetime <= 0 {
		return nil, fmt.Errorf("%w: decay timeout %v", ErrECS, lifetime)
	}
	d := &DecayComponent{
		BaseComponent: NewBaseComponent(dispatcher, SlotDecay),
		condition:     condition,
		lifetime:      lifetime,
	}
	if dispatcher != nil {
		types := []string{event.TypeTick}
		if condition == DecayOnKeypress {
			types = append(types, event.TypeKeyDown)
		}
		if err := dispatcher.Register(d, types...); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Age returns the accumulated lifetime.
func (d *DecayComponent) Age() float64 { return d.age }

// OnEvent watches for the decay condition and pulls the owner's
// destructor when it fires.
func (d *DecayComponent) OnEvent(ev event.Event) []event.Event {
	if d.owner == nil {
		return nil
	}
	switch {
	case d.condition == DecayOnKeypress && ev.Type == event.TypeKeyDown:
		d.destroyOwner()
	case d.condition == DecayAfterTimeout && ev.Type == event.TypeTick:
		dt, ok := ev.Value.(float64)
		if !ok {
			return nil
		}
		d.age += dt
		if d.age >= d.lifetime {
			d.destroyOwner()
		}
	}
	return nil
}

func (d *DecayComponent) destroyOwner() {
	if dest := d.owner.Destructor(); dest != nil {
		dest.Destroy()
	}
}

// ComponentFields serializes the trigger and progress.
func (d *DecayComponent) ComponentFields() (string, map[string]any, error) {
	return "DecayComponent", map[string]any{
		"destroy_condition": d.condition.String(),
		"lifetime":          d.lifetime,
		"age":               d.age,
	}, nil
}
