// Package event implements the cooperative event system: typed events, the
// Listener contract and the Dispatcher, a FIFO publish/subscribe queue with
// re-entrant enqueue-and-defer delivery.
package event

// ===== BUILT-IN EVENT TYPES =====

// Built-in event types, pre-registered by every Dispatcher.
const (
	// TypeTick is emitted once per loop iteration. Value is the elapsed
	// time since the previous tick, in seconds (float64).
	TypeTick = "tick"
	// TypeKeyDown is emitted when a key or mouse button is pressed.
	// Value is a stable key identifier such as "TK_LEFT".
	TypeKeyDown = "key_down"
	// TypeKeyUp is emitted when a key or mouse button is released.
	TypeKeyUp = "key_up"
	// TypeMiscInput carries non-key input: "TK_MOUSE_MOVE", "TK_RESIZED",
	// "TK_CLOSE".
	TypeMiscInput = "misc_input"
	// TypeTextInput carries a completed line of text (string), typically
	// from an input field.
	TypeTextInput = "text_input"
	// TypePlaySound requests a one-shot sound. Value is a sound name.
	TypePlaySound = "play_sound"
	// TypeSetBGSound replaces the looping background sound. Value is a
	// sound name, or the empty string to stop.
	TypeSetBGSound = "set_bg_sound"
	// TypeService carries loop lifecycle signals. Value is a Signal.
	TypeService = "service"

	// TypeECSCreate announces a freshly assembled entity. Value is the
	// entity itself.
	TypeECSCreate = "ecs_create"
	// TypeECSMove requests moving an entity's widget. Value is a
	// placement payload (entity id plus target cell).
	TypeECSMove = "ecs_move"
	// TypeECSCollision reports an entity bumping into another entity or
	// the scene border.
	TypeECSCollision = "ecs_collision"
	// TypeECSAdd requests showing an entity's widget at a position.
	TypeECSAdd = "ecs_add"
	// TypeECSDestroy announces the beginning of an entity's teardown.
	// Value is the entity id.
	TypeECSDestroy = "ecs_destroy"
	// TypeECSRemove requests hiding an entity's widget without destroying
	// the entity. Value is the entity id.
	TypeECSRemove = "ecs_remove"
	// TypeECSScrollBy shifts a scrollable scene's viewport by an offset.
	TypeECSScrollBy = "ecs_scroll_by"
	// TypeECSScrollTo moves a scrollable scene's viewport to a position.
	TypeECSScrollTo = "ecs_scroll_to"
	// TypeECSUpdate tells scenes that some widget changed and a redraw is
	// due. Value is ignored.
	TypeECSUpdate = "ecs_update"
)

// builtinTypes returns the pre-registered event type set.
func builtinTypes() []string {
	return []string{
		TypeTick, TypeKeyDown, TypeKeyUp, TypeMiscInput, TypeTextInput,
		TypePlaySound, TypeSetBGSound, TypeService,
		TypeECSCreate, TypeECSMove, TypeECSCollision, TypeECSAdd,
		TypeECSDestroy, TypeECSRemove, TypeECSScrollBy, TypeECSScrollTo,
		TypeECSUpdate,
	}
}

// ===== SERVICE SIGNALS =====

// Signal is the value of a TypeService event.
type Signal int

const (
	// SignalQueueStarted is emitted once when the loop starts running.
	SignalQueueStarted Signal = iota
	// SignalTickOver marks the end of a tick, after the queue has been
	// drained. Deferred work (widget recomposite, entity teardown) runs
	// on this signal.
	SignalTickOver
	// SignalShutdownReady asks listeners to finish up; the loop will stop
	// soon.
	SignalShutdownReady
	// SignalShutdown stops the loop.
	SignalShutdown
)

// String returns the signal name for logging.
func (s Signal) String() string {
	switch s {
	case SignalQueueStarted:
		return "queue_started"
	case SignalTickOver:
		return "tick_over"
	case SignalShutdownReady:
		return "shutdown_ready"
	case SignalShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// ===== EVENT AND LISTENER =====

// Event is a typed message with an arbitrary payload.
type Event struct {
	Type  string
	Value any
}

// Listener receives events and may emit follow-up events. The returned
// slice may be nil or empty; returned events are appended to the queue and
// delivered after everything already pending, never recursively.
type Listener interface {
	OnEvent(ev Event) []Event
}
