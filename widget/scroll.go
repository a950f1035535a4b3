package widget

import (
	"fmt"

	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
)

// ScrollableLayout is a layout whose widget shows only a viewport of its
// backing grid. chars and colors describe the full backing area.
type ScrollableLayout struct {
	Layout
}

// NewScrollableLayout builds a scrollable layout with the given initial
// viewport.
func NewScrollableLayout(chars [][]rune, colors [][]string, viewPos, viewSize grid.Point) (*ScrollableLayout, error) {
	l := &ScrollableLayout{}
	if err := l.Init(chars, colors, viewPos, viewSize); err != nil {
		return nil, err
	}
	return l, nil
}

// OnEvent recomposites on the end-of-tick signal.
func (l *ScrollableLayout) OnEvent(ev event.Event) []event.Event {
	if ev.Type == event.TypeService && ev.Value == event.SignalTickOver {
		l.RefreshIfNeeded(l)
	}
	return nil
}

// ===== SCROLL BAR =====

// ScrollBar is a one-cell-thick track showing which part of a scrollable
// area is visible.
type ScrollBar struct {
	Base
	horizontal bool
	color      string
}

const (
	scrollTrackChar = '░'
	scrollGripChar  = '█'
)

// NewScrollBar builds a vertical or horizontal bar of the given length.
func NewScrollBar(length int, horizontal bool, color string) (*ScrollBar, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: scroll bar length %d", ErrWidget, length)
	}
	w, h := 1, length
	if horizontal {
		w, h = length, 1
	}
	base, err := New(grid.Uniform(w, h, scrollTrackChar), grid.Uniform(w, h, color))
	if err != nil {
		return nil, err
	}
	bar := &ScrollBar{Base: *base, horizontal: horizontal, color: color}
	bar.ShowPos(0, 1)
	return bar, nil
}

// ShowPos draws the grip: offset and fraction are both in 0..1 terms of
// the scrolled content, so a viewport seeing the middle third of its
// backing grid calls ShowPos(1.0/3, 1.0/3).
func (s *ScrollBar) ShowPos(offset, fraction float64) {
	length := s.Size().Y
	if s.horizontal {
		length = s.Size().X
	}
	start := int(offset * float64(length))
	gripLen := int(fraction*float64(length) + 0.5)
	if gripLen < 1 {
		gripLen = 1
	}
	if start+gripLen > length {
		start = length - gripLen
	}
	if start < 0 {
		start = 0
	}
	for i := 0; i < length; i++ {
		ch := scrollTrackChar
		if i >= start && i < start+gripLen {
			ch = scrollGripChar
		}
		if s.horizontal {
			s.chars[0][i] = ch
		} else {
			s.chars[i][0] = ch
		}
	}
	s.Touch()
}

// ===== INPUT SCROLLABLE =====

// InputScrollable wraps a scrollable layout with scroll bars and arrow-key
// scrolling. The widget is viewSize sized; the rightmost column holds the
// vertical bar and the bottom row the horizontal one.
type InputScrollable struct {
	Layout
	view *ScrollableLayout
	vbar *ScrollBar
	hbar *ScrollBar
}

// NewInputScrollable builds the wrapper. chars and colors describe the full
// backing area of the inner scrollable layout.
func NewInputScrollable(chars [][]rune, colors [][]string, viewPos, viewSize grid.Point) (*InputScrollable, error) {
	if viewSize.X < 2 || viewSize.Y < 2 {
		return nil, fmt.Errorf("%w: view %v too small for scroll bars", ErrLayout, viewSize)
	}
	inner := viewSize.Add(grid.Point{X: -1, Y: -1})
	view, err := NewScrollableLayout(chars, colors, viewPos, inner)
	if err != nil {
		return nil, err
	}
	vbar, err := NewScrollBar(inner.Y, false, DefaultColor)
	if err != nil {
		return nil, err
	}
	hbar, err := NewScrollBar(inner.X, true, DefaultColor)
	if err != nil {
		return nil, err
	}
	s := &InputScrollable{view: view, vbar: vbar, hbar: hbar}
	bg := grid.Uniform(viewSize.X, viewSize.Y, ' ')
	if err := s.Init(bg, grid.CopyShape(bg, DefaultColor), grid.Point{}, viewSize); err != nil {
		return nil, err
	}
	if err := s.AddChild(view, grid.Point{}); err != nil {
		return nil, err
	}
	if err := s.AddChild(vbar, grid.Point{X: inner.X, Y: 0}); err != nil {
		return nil, err
	}
	if err := s.AddChild(hbar, grid.Point{X: 0, Y: inner.Y}); err != nil {
		return nil, err
	}
	s.updateBars()
	return s, nil
}

// View returns the inner scrollable layout, for adding content.
func (s *InputScrollable) View() *ScrollableLayout {
	return s.view
}

func (s *InputScrollable) updateBars() {
	backing := s.view.BackingSize()
	pos := s.view.ViewPos()
	size := s.view.ViewSize()
	s.vbar.ShowPos(float64(pos.Y)/float64(backing.Y), float64(size.Y)/float64(backing.Y))
	s.hbar.ShowPos(float64(pos.X)/float64(backing.X), float64(size.X)/float64(backing.X))
}

// OnEvent scrolls on arrow keys and recomposites on the end-of-tick
// signal. Out-of-range scrolls are ignored.
func (s *InputScrollable) OnEvent(ev event.Event) []event.Event {
	switch ev.Type {
	case event.TypeKeyDown:
		var shift grid.Point
		switch ev.Value {
		case "TK_UP":
			shift = grid.Point{X: 0, Y: -1}
		case "TK_DOWN":
			shift = grid.Point{X: 0, Y: 1}
		case "TK_LEFT":
			shift = grid.Point{X: -1, Y: 0}
		case "TK_RIGHT":
			shift = grid.Point{X: 1, Y: 0}
		default:
			return nil
		}
		if err := s.view.ScrollBy(shift); err == nil {
			s.updateBars()
			s.Invalidate()
		}
	case event.TypeService:
		if ev.Value == event.SignalTickOver {
			s.view.RefreshIfNeeded(s.view)
			s.RefreshIfNeeded(s)
		}
	}
	return nil
}
