package ecs

import (
	"encoding/json"
	"fmt"

	"github.com/ursa-engine/ursa/codec"
	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
	"github.com/ursa-engine/ursa/widget"
)

// ComponentSerializer is implemented by components that can be stored.
type ComponentSerializer interface {
	ComponentFields() (class string, fields map[string]any, err error)
}

// ComponentFactory rebuilds a component from a decoded record. The
// dispatcher is for subscriptions; the atlas resolves widgets stored by
// frame ids.
type ComponentFactory func(args codec.Args, dispatcher *event.Dispatcher, atlas widget.Atlas) (Component, error)

var componentClasses = map[string]ComponentFactory{}

// RegisterComponentClass binds a class discriminator to its factory.
// Later registrations replace earlier ones; applications with injected
// state (for example an entity tracker for walkers) re-register the class
// with a closure over it.
func RegisterComponentClass(name string, f ComponentFactory) {
	componentClasses[name] = f
}

// rawRecord re-decodes serialized JSON for nesting inside a parent record.
func rawRecord(data []byte) map[string]any {
	var m map[string]any
	json.Unmarshal(data, &m)
	return m
}

// SerializeComponent stores a component as JSON.
func SerializeComponent(c Component) ([]byte, error) {
	s, ok := c.(ComponentSerializer)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not serializable", codec.ErrSerial, c)
	}
	class, fields, err := s.ComponentFields()
	if err != nil {
		return nil, err
	}
	return codec.Encode(class, fields)
}

// DeserializeComponent rebuilds a component from JSON. The component is
// not attached to any entity; DeserializeEntity does that.
func DeserializeComponent(data []byte, dispatcher *event.Dispatcher, atlas widget.Atlas) (Component, error) {
	args, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	return componentFromArgs(args, dispatcher, atlas)
}

func componentFromArgs(args codec.Args, dispatcher *event.Dispatcher, atlas widget.Atlas) (Component, error) {
	class, err := args.Class()
	if err != nil {
		return nil, err
	}
	factory, ok := componentClasses[class]
	if !ok {
		return nil, fmt.Errorf("%w: unknown component class %q", codec.ErrSerial, class)
	}
	return factory(args, dispatcher, atlas)
}

// ===== ENTITY WIRE FORMAT =====

// SerializeEntity stores an entity with all its components as JSON. Every
// component must be serializable.
func SerializeEntity(e *Entity) ([]byte, error) {
	comps := make([]any, 0, len(e.order))
	for _, c := range e.Components() {
		s, ok := c.(ComponentSerializer)
		if !ok {
			return nil, fmt.Errorf("%w: entity %q: component %q is not serializable",
				codec.ErrSerial, e.ID(), c.Name())
		}
		class, fields, err := s.ComponentFields()
		if err != nil {
			return nil, err
		}
		record, err := codec.Encode(class, fields)
		if err != nil {
			return nil, err
		}
		comps = append(comps, rawRecord(record))
	}
	return codec.Encode("Entity", map[string]any{
		"id":         e.ID(),
		"components": comps,
	})
}

// DeserializeEntity rebuilds an entity and its components from JSON. The
// caller announces it with ecs_create when ready.
func DeserializeEntity(data []byte, dispatcher *event.Dispatcher, atlas widget.Atlas) (*Entity, error) {
	args, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	class, err := args.Class()
	if err != nil {
		return nil, err
	}
	if class != "Entity" {
		return nil, fmt.Errorf("%w: expected Entity record, got %q", codec.ErrSerial, class)
	}
	id, err := args.String("id")
	if err != nil {
		return nil, err
	}
	records, err := args.Records("components")
	if err != nil {
		return nil, err
	}
	e, err := NewEntity(id)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		c, err := componentFromArgs(rec, dispatcher, atlas)
		if err != nil {
			return nil, err
		}
		if err := e.AddComponent(c); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// ===== BUILT-IN COMPONENT CLASSES =====

func pointField(args codec.Args, key string) (grid.Point, error) {
	v, ok := args[key]
	if !ok {
		return grid.Point{}, fmt.Errorf("%w: missing field %q", codec.ErrSerial, key)
	}
	list, ok := v.([]any)
	if !ok || len(list) != 2 {
		return grid.Point{}, fmt.Errorf("%w: field %q is not a 2-element list", codec.ErrSerial, key)
	}
	x, okX := list[0].(float64)
	y, okY := list[1].(float64)
	if !okX || !okY {
		return grid.Point{}, fmt.Errorf("%w: field %q holds non-numbers", codec.ErrSerial, key)
	}
	return grid.Point{X: int(x), Y: int(y)}, nil
}

func collisionGeometry(c *CollisionComponent, args codec.Args) error {
	depth, err := args.Int("depth")
	if err != nil {
		return err
	}
	c.SetDepth(depth)
	shift, err := pointField(args, "z_shift")
	if err != nil {
		return err
	}
	c.SetZShift(shift)
	face, err := pointField(args, "face")
	if err != nil {
		return err
	}
	size, err := pointField(args, "face_size")
	if err != nil {
		return err
	}
	c.SetFace(face, size)
	return nil
}

func init() {
	RegisterComponentClass("PositionComponent", func(args codec.Args, d *event.Dispatcher, _ widget.Atlas) (Component, error) {
		x, err := args.Int("x")
		if err != nil {
			return nil, err
		}
		y, err := args.Int("y")
		if err != nil {
			return nil, err
		}
		vx, err := args.Float("vx")
		if err != nil {
			return nil, err
		}
		vy, err := args.Float("vy")
		if err != nil {
			return nil, err
		}
		affectZ, err := args.Bool("affect_z")
		if err != nil {
			return nil, err
		}
		p, err := NewPositionComponent(d, x, y)
		if err != nil {
			return nil, err
		}
		p.SetVelocity(vx, vy)
		p.SetAffectZ(affectZ)
		return p, nil
	})

	RegisterComponentClass("WidgetComponent", func(args codec.Args, d *event.Dispatcher, atlas widget.Atlas) (Component, error) {
		w, err := widgetFromArgs(args, atlas)
		if err != nil {
			return nil, err
		}
		return NewWidgetComponent(d, w)
	})

	RegisterComponentClass("SwitchWidgetComponent", func(args codec.Args, d *event.Dispatcher, atlas widget.Atlas) (Component, error) {
		w, err := widgetFromArgs(args, atlas)
		if err != nil {
			return nil, err
		}
		sw, ok := w.(*widget.SwitchingWidget)
		if !ok {
			return nil, fmt.Errorf("%w: switch widget component stored a %T", codec.ErrSerial, w)
		}
		return NewSwitchWidgetComponent(d, sw)
	})

	RegisterComponentClass("CollisionComponent", func(args codec.Args, d *event.Dispatcher, _ widget.Atlas) (Component, error) {
		passable, err := args.Bool("passable")
		if err != nil {
			return nil, err
		}
		c, err := NewCollisionComponent(d, passable)
		if err != nil {
			return nil, err
		}
		return c, collisionGeometry(c, args)
	})

	// The default walker factory has no tracker, so a rebuilt walker only
	// bounces off borders. Applications re-register the class with their
	// tracker injected.
	RegisterComponentClass("WalkerCollisionComponent", func(args codec.Args, d *event.Dispatcher, _ widget.Atlas) (Component, error) {
		w, err := NewWalkerCollisionComponent(d, nil)
		if err != nil {
			return nil, err
		}
		return w, collisionGeometry(&w.CollisionComponent, args)
	})

	RegisterComponentClass("DestructorComponent", func(args codec.Args, d *event.Dispatcher, _ widget.Atlas) (Component, error) {
		return NewDestructorComponent(d)
	})

	RegisterComponentClass("DecayComponent", func(args codec.Args, d *event.Dispatcher, _ widget.Atlas) (Component, error) {
		condName, err := args.String("destroy_condition")
		if err != nil {
			return nil, err
		}
		cond, err := decayConditionFromString(condName)
		if err != nil {
			return nil, err
		}
		lifetime, err := args.Float("lifetime")
		if err != nil {
			return nil, err
		}
		dc, err := NewDecayComponent(d, cond, lifetime)
		if err != nil {
			return nil, err
		}
		if args.Has("age") {
			dc.age, err = args.Float("age")
			if err != nil {
				return nil, err
			}
		}
		return dc, nil
	})
}

// widgetFromArgs extracts a nested widget record and rebuilds it through
// the widget class registry.
func widgetFromArgs(args codec.Args, atlas widget.Atlas) (widget.Widget, error) {
	rec, err := args.Record("widget")
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(map[string]any(rec))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", codec.ErrSerial, err)
	}
	return widget.Deserialize(data, atlas)
}

var (
	_ ComponentSerializer = (*PositionComponent)(nil)
	_ ComponentSerializer = (*WidgetComponent)(nil)
	_ ComponentSerializer = (*SwitchWidgetComponent)(nil)
	_ ComponentSerializer = (*CollisionComponent)(nil)
	_ ComponentSerializer = (*WalkerCollisionComponent)(nil)
	_ ComponentSerializer = (*DestructorComponent)(nil)
	_ ComponentSerializer = (*DecayComponent)(nil)
)
