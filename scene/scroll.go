package scene

import (
	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
	"github.com/ursa-engine/ursa/widget"
)

// ScrollableECSLayout is an entity layout showing only a viewport of its
// backing grid. On top of the ECSLayout event protocol it accepts
// ecs_scroll_to and ecs_scroll_by events carrying a grid.Point; scrolls
// past the backing grid's edge are silently ignored, so a camera chasing
// an entity may just keep emitting them.
type ScrollableECSLayout struct {
	ECSLayout
}

// NewScrollableECSLayout builds the layout. chars and colors describe the
// whole backing area, not just the visible part.
func NewScrollableECSLayout(chars [][]rune, colors [][]string, viewPos, viewSize grid.Point) (*ScrollableECSLayout, error) {
	l := &ScrollableECSLayout{}
	l.initMaps()
	if err := l.Init(chars, colors, viewPos, viewSize); err != nil {
		return nil, err
	}
	return l, nil
}

// OnEvent handles the scroll events and delegates the rest to the entity
// layout machinery.
func (l *ScrollableECSLayout) OnEvent(ev event.Event) []event.Event {
	switch ev.Type {
	case event.TypeECSScrollTo:
		if p, ok := ev.Value.(grid.Point); ok {
			l.ScrollTo(p)
		}
		return nil
	case event.TypeECSScrollBy:
		if p, ok := ev.Value.(grid.Point); ok {
			l.ScrollBy(p)
		}
		return nil
	}
	return l.handle(ev, l)
}

var (
	_ widget.Widget = (*ECSLayout)(nil)
	_ widget.Widget = (*ScrollableECSLayout)(nil)
)
