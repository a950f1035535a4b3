package scene

import (
	"errors"
	"testing"

	"github.com/ursa-engine/ursa/ecs"
	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
	"github.com/ursa-engine/ursa/widget"
)

func newScene(t *testing.T, w, h int) *ECSLayout {
	t.Helper()
	l, err := NewECSLayout(grid.Uniform(w, h, '.'), grid.Uniform(w, h, widget.DefaultColor))
	if err != nil {
		t.Fatalf("building scene: %v", err)
	}
	return l
}

// newActor assembles an entity with position, widget and collision, and
// registers and shows it on the scene.
func newActor(t *testing.T, d *event.Dispatcher, l *ECSLayout, id string, x, y, w, h int) *ecs.Entity {
	t.Helper()
	pos, _ := ecs.NewPositionComponent(d, x, y)
	b, err := widget.New(grid.Uniform(w, h, '#'), grid.Uniform(w, h, widget.DefaultColor))
	if err != nil {
		t.Fatalf("building widget: %v", err)
	}
	wc, _ := ecs.NewWidgetComponent(d, b)
	coll, _ := ecs.NewCollisionComponent(d, false)
	e, err := ecs.NewEntity(id, pos, wc, coll)
	if err != nil {
		t.Fatalf("building entity %s: %v", id, err)
	}
	l.OnEvent(event.Event{Type: event.TypeECSCreate, Value: e})
	l.OnEvent(event.Event{Type: event.TypeECSAdd, Value: ecs.PlacePayload{ID: id, X: x, Y: y}})
	return e
}

func tickOver() event.Event {
	return event.Event{Type: event.TypeService, Value: event.SignalTickOver}
}

func TestSceneShowsEntities(t *testing.T) {
	d := event.NewDispatcher()
	l := newScene(t, 10, 10)
	e := newActor(t, d, l, "crate", 3, 3, 2, 2)
	pos, ok := l.ChildPosition(e.Widget().Widget())
	if !ok || pos != (grid.Point{X: 3, Y: 3}) {
		t.Fatalf("widget not shown at (3,3): %v %v", pos, ok)
	}
	l.OnEvent(tickOver())
	if l.Chars()[3][3] != '#' {
		t.Errorf("cell (3,3): got %q, want '#'", l.Chars()[3][3])
	}
	if l.Chars()[0][0] != '.' {
		t.Errorf("cell (0,0): got %q, want background '.'", l.Chars()[0][0])
	}
}

func TestSceneMoveCollides(t *testing.T) {
	d := event.NewDispatcher()
	l := newScene(t, 20, 20)
	newActor(t, d, l, "a", 5, 5, 2, 2)
	newActor(t, d, l, "b", 6, 6, 2, 2)
	out := l.OnEvent(event.Event{Type: event.TypeECSMove, Value: ecs.PlacePayload{ID: "a", X: 6, Y: 6}})
	if len(out) != 1 {
		t.Fatalf("got %d collisions, want 1: %v", len(out), out)
	}
	payload := out[0].Value.(ecs.CollisionPayload)
	if payload != (ecs.CollisionPayload{Mover: "a", Other: "b"}) {
		t.Errorf("wrong payload: %+v", payload)
	}
	// The move itself is not blocked.
	w := l.widgets["a"]
	if pos, _ := l.ChildPosition(w); pos != (grid.Point{X: 6, Y: 6}) {
		t.Errorf("collision should not block the move: %v", pos)
	}
}

func TestSceneMoveCollisionsDeduplicated(t *testing.T) {
	d := event.NewDispatcher()
	l := newScene(t, 20, 20)
	newActor(t, d, l, "a", 0, 0, 4, 4)
	newActor(t, d, l, "b", 5, 5, 4, 4) // overlaps many destination cells
	out := l.OnEvent(event.Event{Type: event.TypeECSMove, Value: ecs.PlacePayload{ID: "a", X: 4, Y: 4}})
	if len(out) != 1 {
		t.Errorf("overlap over several cells should notify once per entity, got %d", len(out))
	}
}

func TestSceneBorderCollision(t *testing.T) {
	d := event.NewDispatcher()
	l := newScene(t, 20, 20)
	e := newActor(t, d, l, "a", 18, 18, 2, 2)
	out := l.OnEvent(event.Event{Type: event.TypeECSMove, Value: ecs.PlacePayload{ID: "a", X: 19, Y: 18}})
	if len(out) != 1 {
		t.Fatalf("got %d notifications, want exactly 1", len(out))
	}
	payload := out[0].Value.(ecs.CollisionPayload)
	if payload != (ecs.CollisionPayload{Mover: "a", Other: ""}) {
		t.Errorf("border collision payload: %+v", payload)
	}
	if pos, _ := l.ChildPosition(e.Widget().Widget()); pos != (grid.Point{X: 18, Y: 18}) {
		t.Errorf("border hit must not move the widget: %v", pos)
	}
}

func TestSceneIgnoresUnknownAndHiddenMovers(t *testing.T) {
	d := event.NewDispatcher()
	l := newScene(t, 10, 10)
	if out := l.OnEvent(event.Event{Type: event.TypeECSMove, Value: ecs.PlacePayload{ID: "nobody", X: 1, Y: 1}}); out != nil {
		t.Errorf("unknown mover should be ignored: %v", out)
	}
	e := newActor(t, d, l, "ghost", 2, 2, 2, 2)
	l.OnEvent(event.Event{Type: event.TypeECSRemove, Value: "ghost"})
	if out := l.OnEvent(event.Event{Type: event.TypeECSMove, Value: ecs.PlacePayload{ID: "ghost", X: 4, Y: 4}}); out != nil {
		t.Errorf("hidden mover should be ignored: %v", out)
	}
	if _, ok := l.Entity("ghost"); !ok {
		t.Errorf("hiding should not unregister the entity")
	}
	// Still registered, so it can be shown again.
	l.OnEvent(event.Event{Type: event.TypeECSAdd, Value: ecs.PlacePayload{ID: "ghost", X: 4, Y: 4}})
	if pos, ok := l.ChildPosition(e.Widget().Widget()); !ok || pos != (grid.Point{X: 4, Y: 4}) {
		t.Errorf("re-adding a hidden entity failed: %v %v", pos, ok)
	}
}

func TestSceneDestroyForgetsEntity(t *testing.T) {
	d := event.NewDispatcher()
	l := newScene(t, 10, 10)
	newActor(t, d, l, "crate", 2, 2, 2, 2)
	l.OnEvent(event.Event{Type: event.TypeECSDestroy, Value: "crate"})
	if _, ok := l.Entity("crate"); ok {
		t.Errorf("destroyed entity should be forgotten")
	}
	l.OnEvent(tickOver())
	if l.Chars()[2][2] != '.' {
		t.Errorf("destroyed entity should leave the composite")
	}
}

func TestSceneAddEntityValidation(t *testing.T) {
	l := newScene(t, 10, 10)
	if err := l.AddEntity(nil); !errors.Is(err, ecs.ErrECS) {
		t.Errorf("nil entity: %v", err)
	}
	bare, _ := ecs.NewEntity("widgetless")
	if err := l.AddEntity(bare); !errors.Is(err, ecs.ErrECS) {
		t.Errorf("widgetless entity: %v", err)
	}
	if err := l.RemoveEntity("absent"); !errors.Is(err, ecs.ErrECS) {
		t.Errorf("removing an unknown entity: %v", err)
	}
}

func TestSceneThroughDispatcher(t *testing.T) {
	d := event.NewDispatcher()
	l := newScene(t, 20, 20)
	if err := d.Register(l, "*ecs", event.TypeService); err != nil {
		t.Fatalf("register: %v", err)
	}
	a := newActor(t, d, l, "a", 5, 5, 2, 2)
	newActor(t, d, l, "b", 6, 6, 2, 2)
	var hits []string
	a.Collision().SetHooks(func(other string) []event.Event {
		hits = append(hits, other)
		return nil
	}, nil)
	a.Position().Move(6, 6)
	if err := d.Dispatch(); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if len(hits) != 1 || hits[0] != "b" {
		t.Errorf("collision should reach the mover's hook: %v", hits)
	}
}
