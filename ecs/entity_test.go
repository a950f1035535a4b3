package ecs

import (
	"errors"
	"testing"

	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
	"github.com/ursa-engine/ursa/widget"
)

func newWidget(t *testing.T, w, h int) widget.Widget {
	t.Helper()
	b, err := widget.New(grid.Uniform(w, h, '#'), grid.Uniform(w, h, "white"))
	if err != nil {
		t.Fatalf("building widget: %v", err)
	}
	return b
}

func TestNewEntityValidation(t *testing.T) {
	if _, err := NewEntity(""); !errors.Is(err, ErrECS) {
		t.Errorf("empty id should fail, got %v", err)
	}
}

func TestAddComponentReservedNames(t *testing.T) {
	e, _ := NewEntity("crate")
	for _, name := range []string{"id", "components"} {
		c := &BaseComponent{name: name}
		if err := e.AddComponent(c); !errors.Is(err, ErrECS) {
			t.Errorf("reserved slot %q should be rejected, got %v", name, err)
		}
	}
}

func TestAddComponentOverwritesSlot(t *testing.T) {
	d := event.NewDispatcher()
	e, _ := NewEntity("crate")
	first, _ := NewPositionComponent(d, 1, 1)
	second, _ := NewPositionComponent(d, 5, 5)
	e.AddComponent(first)
	e.AddComponent(second)
	if got := e.Position(); got != second {
		t.Errorf("slot should hold the newest component")
	}
	if len(e.Components()) != 1 {
		t.Errorf("overwriting should not grow the slot list: %d", len(e.Components()))
	}
	if first.Owner() != e || second.Owner() != e {
		t.Errorf("both components should have been owned")
	}
}

func TestRemoveComponent(t *testing.T) {
	d := event.NewDispatcher()
	e, _ := NewEntity("crate")
	pos, _ := NewPositionComponent(d, 0, 0)
	e.AddComponent(pos)
	if err := e.RemoveComponent(SlotPosition); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if e.Position() != nil {
		t.Errorf("slot should be empty after removal")
	}
	if pos.Owner() != nil {
		t.Errorf("removed component should be orphaned")
	}
	if err := e.RemoveComponent(SlotPosition); !errors.Is(err, ErrECS) {
		t.Errorf("removing an empty slot should fail, got %v", err)
	}
}

func TestTypedAccessors(t *testing.T) {
	d := event.NewDispatcher()
	tracker := NewEntityTracker()
	pos, _ := NewPositionComponent(d, 2, 3)
	wc, _ := NewWidgetComponent(d, newWidget(t, 2, 2))
	walker, _ := NewWalkerCollisionComponent(d, tracker)
	dest, _ := NewDestructorComponent(d)
	e, err := NewEntity("player", pos, wc, walker, dest)
	if err != nil {
		t.Fatalf("building entity: %v", err)
	}
	if e.Position() == nil || e.Widget() == nil || e.Destructor() == nil {
		t.Fatalf("typed accessors returned nil for filled slots")
	}
	// The walker fills the collision slot; the accessor unwraps it.
	if e.Collision() == nil || e.Collision().Passable() {
		t.Errorf("collision accessor should unwrap the walker variant")
	}
	if e.Decay() != nil {
		t.Errorf("empty slot should yield nil")
	}
}

func TestEntityTracker(t *testing.T) {
	d := event.NewDispatcher()
	tracker := NewEntityTracker()
	if err := d.Register(tracker, event.TypeECSCreate, event.TypeECSDestroy); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	e, _ := NewEntity("crate")
	d.Add(event.Event{Type: event.TypeECSCreate, Value: e})
	d.Dispatch()
	if got, ok := tracker.Entity("crate"); !ok || got != e {
		t.Fatalf("tracker should know the created entity")
	}
	if tracker.Len() != 1 {
		t.Errorf("tracker size: got %d, want 1", tracker.Len())
	}
	d.Add(event.Event{Type: event.TypeECSDestroy, Value: "crate"})
	d.Dispatch()
	if _, ok := tracker.Entity("crate"); ok {
		t.Errorf("tracker should forget destroyed entities")
	}
}

func TestTrackerFilter(t *testing.T) {
	tracker := NewEntityTracker()
	for _, id := range []string{"wall_1", "wall_2", "player"} {
		e, _ := NewEntity(id)
		tracker.OnEvent(event.Event{Type: event.TypeECSCreate, Value: e})
	}
	walls := tracker.Filter(func(e *Entity) bool {
		return len(e.ID()) > 5 && e.ID()[:5] == "wall_"
	})
	if len(walls) != 2 {
		t.Errorf("filter: got %d entities, want 2", len(walls))
	}
}
