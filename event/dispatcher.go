package event

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDispatch is wrapped by every dispatcher misuse error: enqueueing an
// unregistered type, subscribing to an unknown type, and so on.
var ErrDispatch = errors.New("event: dispatch error")

// SelectorAll subscribes a listener to every currently registered type.
const SelectorAll = "all"

// Dispatcher is the central FIFO event queue. It is single-threaded by
// design: events are enqueued with Add and delivered in order by Dispatch,
// and events emitted during delivery go to the back of the queue.
type Dispatcher struct {
	types     map[string]bool
	listeners map[string][]Listener
	queue     []Event
}

// NewDispatcher returns a dispatcher with the built-in event types
// registered.
func NewDispatcher() *Dispatcher {
	d := &Dispatcher{
		types:     make(map[string]bool),
		listeners: make(map[string][]Listener),
	}
	for _, t := range builtinTypes() {
		d.types[t] = true
	}
	return d
}

// RegisterType adds a custom event type. Registering an already known type
// is a no-op.
func (d *Dispatcher) RegisterType(name string) error {
	if name == "" || name == SelectorAll || strings.HasPrefix(name, "*") {
		return fmt.Errorf("%w: invalid event type %q", ErrDispatch, name)
	}
	d.types[name] = true
	return nil
}

// KnownType reports whether an event type has been registered.
func (d *Dispatcher) KnownType(name string) bool {
	return d.types[name]
}

// resolve expands one subscription selector into concrete event types.
func (d *Dispatcher) resolve(selector string) ([]string, error) {
	switch {
	case selector == SelectorAll:
		types := make([]string, 0, len(d.types))
		for t := range d.types {
			types = append(types, t)
		}
		return types, nil
	case strings.HasPrefix(selector, "*"):
		mask := selector[1:]
		var types []string
		for t := range d.types {
			if strings.Contains(t, mask) {
				types = append(types, t)
			}
		}
		if len(types) == 0 {
			return nil, fmt.Errorf("%w: no event types match %q", ErrDispatch, selector)
		}
		return types, nil
	default:
		if !d.types[selector] {
			return nil, fmt.Errorf("%w: subscribing to unregistered event type %q", ErrDispatch, selector)
		}
		return []string{selector}, nil
	}
}

// Register subscribes a listener. Each selector is either "all", a
// "*substring" wildcard over registered type names, or a single type name;
// passing several selectors subscribes to their union. With no selectors
// the listener gets everything. Wildcards are expanded against the types
// registered at call time.
func (d *Dispatcher) Register(l Listener, selectors ...string) error {
	if l == nil {
		return fmt.Errorf("%w: registering a nil listener", ErrDispatch)
	}
	if len(selectors) == 0 {
		selectors = []string{SelectorAll}
	}
	seen := make(map[string]bool)
	for _, sel := range selectors {
		types, err := d.resolve(sel)
		if err != nil {
			return err
		}
		for _, t := range types {
			if seen[t] || d.subscribed(l, t) {
				continue
			}
			seen[t] = true
			d.listeners[t] = append(d.listeners[t], l)
		}
	}
	return nil
}

func (d *Dispatcher) subscribed(l Listener, eventType string) bool {
	for _, reg := range d.listeners[eventType] {
		if reg == l {
			return true
		}
	}
	return false
}

// Unregister removes a listener's subscriptions for the given selectors
// ("all" or none removes every subscription). Unknown selectors error;
// selectors the listener was never subscribed to are ignored.
func (d *Dispatcher) Unregister(l Listener, selectors ...string) error {
	if len(selectors) == 0 {
		selectors = []string{SelectorAll}
	}
	for _, sel := range selectors {
		types, err := d.resolve(sel)
		if err != nil {
			return err
		}
		for _, t := range types {
			regs := d.listeners[t]
			for i, reg := range regs {
				if reg == l {
					d.listeners[t] = append(regs[:i:i], regs[i+1:]...)
					break
				}
			}
		}
	}
	return nil
}

// Add appends an event to the queue. The event's type must be registered.
func (d *Dispatcher) Add(ev Event) error {
	if !d.types[ev.Type] {
		return fmt.Errorf("%w: enqueueing unregistered event type %q", ErrDispatch, ev.Type)
	}
	d.queue = append(d.queue, ev)
	return nil
}

// Len returns the number of pending events.
func (d *Dispatcher) Len() int {
	return len(d.queue)
}

// Dispatch drains the queue, delivering each event to its type's listeners
// in subscription order. Events returned by listeners are appended to the
// queue and processed in the same drain, strictly after everything already
// pending. Returns on the first invalid emitted event.
func (d *Dispatcher) Dispatch() error {
	for len(d.queue) > 0 {
		ev := d.queue[0]
		d.queue = d.queue[1:]
		// Listeners may subscribe or unsubscribe (even themselves) while
		// handling an event, so deliver over a snapshot.
		regs := append([]Listener(nil), d.listeners[ev.Type]...)
		for _, l := range regs {
			for _, emitted := range l.OnEvent(ev) {
				if err := d.Add(emitted); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
