package widget

import (
	"fmt"

	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
)

// Layout composites child widgets onto a backing grid. Per cell it keeps a
// stack of the widgets covering that cell, in addition order; compositing
// picks the highest-z non-transparent cell, ties going to the most
// recently added (or moved) child.
//
// The first child is the background: it always covers the whole backing
// grid, cannot be removed, and supplies the cell value where every other
// child is transparent. Compositing is lazy: mutations only mark the
// layout dirty, and the composite is rebuilt once per tick, on the
// tick-over service signal.
type Layout struct {
	Base
	children   []Widget
	positions  map[Widget]grid.Point
	coverage   [][][]Widget
	viewPos    grid.Point
	viewSize   grid.Point
	needRedraw bool
}

// NewLayout builds a layout whose visible area is the whole backing grid.
// chars and colors become the background widget.
func NewLayout(chars [][]rune, colors [][]string) (*Layout, error) {
	l := &Layout{}
	if err := l.Init(chars, colors, grid.Point{}, grid.Size(chars)); err != nil {
		return nil, err
	}
	return l, nil
}

// Init wires a layout over a backing grid with the given viewport.
// Embedding types call it from their constructors instead of NewLayout, so
// the layout machinery lands in the embedded field.
func (l *Layout) Init(chars [][]rune, colors [][]string, viewPos, viewSize grid.Point) error {
	bg, err := New(chars, colors)
	if err != nil {
		return err
	}
	backing := bg.Size()
	if viewSize.X <= 0 || viewSize.Y <= 0 ||
		viewSize.X > backing.X || viewSize.Y > backing.Y {
		return fmt.Errorf("%w: view size %v invalid for %v backing grid",
			ErrLayout, viewSize, backing)
	}
	if viewPos.X < 0 || viewPos.Y < 0 ||
		viewPos.X+viewSize.X > backing.X || viewPos.Y+viewSize.Y > backing.Y {
		return fmt.Errorf("%w: view position %v outside %v backing grid",
			ErrLayout, viewPos, backing)
	}
	l.Base = Base{
		chars:  grid.Uniform(viewSize.X, viewSize.Y, ' '),
		colors: grid.Uniform(viewSize.X, viewSize.Y, DefaultColor),
	}
	l.positions = make(map[Widget]grid.Point)
	l.coverage = make([][][]Widget, backing.Y)
	for y := range l.coverage {
		l.coverage[y] = make([][]Widget, backing.X)
	}
	l.viewPos = viewPos
	l.viewSize = viewSize
	if err := l.AddChild(bg, grid.Point{}); err != nil {
		return err
	}
	l.Rebuild()
	l.needRedraw = false
	return nil
}

// BackingSize returns the size of the full composited area, which for
// scrollable layouts is larger than the widget itself.
func (l *Layout) BackingSize() grid.Point {
	if len(l.coverage) == 0 {
		return grid.Point{}
	}
	return grid.Point{X: len(l.coverage[0]), Y: len(l.coverage)}
}

// Background returns the current background widget.
func (l *Layout) Background() Widget {
	return l.children[0]
}

// Children returns the child list, background first.
func (l *Layout) Children() []Widget {
	return append([]Widget(nil), l.children...)
}

// ChildPosition returns a child's top left corner in backing coordinates.
func (l *Layout) ChildPosition(child Widget) (grid.Point, bool) {
	pos, ok := l.positions[child]
	return pos, ok
}

// ChildAt returns the most recently added child covering a backing cell,
// or nil if the cell is outside the backing grid. The background counts.
func (l *Layout) ChildAt(pos grid.Point) Widget {
	stack := l.WidgetsAt(pos)
	if len(stack) == 0 {
		return nil
	}
	return stack[len(stack)-1]
}

// WidgetsAt returns every child covering a backing cell, in addition
// order with the background first, or nil outside the backing grid.
func (l *Layout) WidgetsAt(pos grid.Point) []Widget {
	b := l.BackingSize()
	if pos.X < 0 || pos.Y < 0 || pos.X >= b.X || pos.Y >= b.Y {
		return nil
	}
	return append([]Widget(nil), l.coverage[pos.Y][pos.X]...)
}

// Invalidate marks the layout for recompositing at the end of the tick.
func (l *Layout) Invalidate() {
	l.needRedraw = true
	l.Touch()
}

// AddChild places a child with its top left corner at pos, in backing
// coordinates. The child must fit entirely and must not already be there.
func (l *Layout) AddChild(child Widget, pos grid.Point) error {
	if child == nil {
		return fmt.Errorf("%w: adding a nil child", ErrLayout)
	}
	if inner, ok := child.(*Layout); ok && inner == l {
		return fmt.Errorf("%w: adding a layout to itself", ErrLayout)
	}
	if _, ok := l.positions[child]; ok {
		return fmt.Errorf("%w: adding the same widget twice", ErrLayout)
	}
	if err := l.checkFit(child, pos); err != nil {
		return err
	}
	l.children = append(l.children, child)
	l.place(child, pos)
	child.SetParent(l)
	l.Invalidate()
	return nil
}

func (l *Layout) checkFit(child Widget, pos grid.Point) error {
	b, s := l.BackingSize(), child.Size()
	if pos.X < 0 || pos.Y < 0 || pos.X+s.X > b.X || pos.Y+s.Y > b.Y {
		return fmt.Errorf("%w: %v child does not fit at %v in %v backing grid",
			ErrLayout, s, pos, b)
	}
	return nil
}

// place records a child's position and pushes it onto the coverage stacks.
func (l *Layout) place(child Widget, pos grid.Point) {
	l.positions[child] = pos
	s := child.Size()
	for y := 0; y < s.Y; y++ {
		for x := 0; x < s.X; x++ {
			l.coverage[pos.Y+y][pos.X+x] = append(l.coverage[pos.Y+y][pos.X+x], child)
		}
	}
}

// unplace removes a child from the coverage stacks and position map.
func (l *Layout) unplace(child Widget) {
	pos := l.positions[child]
	s := child.Size()
	for y := 0; y < s.Y; y++ {
		for x := 0; x < s.X; x++ {
			stack := l.coverage[pos.Y+y][pos.X+x]
			for i, w := range stack {
				if w == child {
					l.coverage[pos.Y+y][pos.X+x] = append(stack[:i:i], stack[i+1:]...)
					break
				}
			}
		}
	}
	delete(l.positions, child)
}

// RemoveChild detaches a child. The background cannot be removed, only
// replaced with SetBackground.
func (l *Layout) RemoveChild(child Widget) error {
	if _, ok := l.positions[child]; !ok {
		return fmt.Errorf("%w: removing a widget that is not a child", ErrLayout)
	}
	if child == l.children[0] {
		return fmt.Errorf("%w: the background cannot be removed", ErrLayout)
	}
	l.unplace(child)
	for i, w := range l.children {
		if w == child {
			l.children = append(l.children[:i:i], l.children[i+1:]...)
			break
		}
	}
	child.SetParent(nil)
	l.Invalidate()
	return nil
}

// MoveChild moves an existing child to a new position. The move puts the
// child on top of its new cells, so it wins z-level ties there.
func (l *Layout) MoveChild(child Widget, pos grid.Point) error {
	if _, ok := l.positions[child]; !ok {
		return fmt.Errorf("%w: moving a widget that is not a child", ErrLayout)
	}
	if child == l.children[0] {
		return fmt.Errorf("%w: the background cannot be moved", ErrLayout)
	}
	if err := l.checkFit(child, pos); err != nil {
		return err
	}
	l.unplace(child)
	l.place(child, pos)
	l.Invalidate()
	return nil
}

// SetBackground replaces the background widget. The replacement must match
// the backing grid size exactly.
func (l *Layout) SetBackground(w Widget) error {
	if w == nil {
		return fmt.Errorf("%w: nil background", ErrLayout)
	}
	if w.Size() != l.BackingSize() {
		return fmt.Errorf("%w: background size %v does not match backing grid %v",
			ErrLayout, w.Size(), l.BackingSize())
	}
	if _, ok := l.positions[w]; ok {
		return fmt.Errorf("%w: background is already a child", ErrLayout)
	}
	old := l.children[0]
	for y := range l.coverage {
		for x := range l.coverage[y] {
			if len(l.coverage[y][x]) > 0 && l.coverage[y][x][0] == old {
				l.coverage[y][x][0] = w
			}
		}
	}
	delete(l.positions, old)
	l.positions[w] = grid.Point{}
	old.SetParent(nil)
	w.SetParent(l)
	l.children[0] = w
	l.Invalidate()
	return nil
}

// Rebuild recomposites the visible area from the coverage stacks. For each
// cell the winning child is the one with the highest z-level among those
// whose cell there is not a space; on equal z-levels the most recently
// added wins. Cells where every child is transparent fall back to the
// background's value.
func (l *Layout) Rebuild() {
	for y := 0; y < l.viewSize.Y; y++ {
		for x := 0; x < l.viewSize.X; x++ {
			abs := grid.Point{X: l.viewPos.X + x, Y: l.viewPos.Y + y}
			var best Widget
			bestZ := 0
			for _, w := range l.coverage[abs.Y][abs.X] {
				rel := abs.Add(l.positions[w].Neg())
				if w.Chars()[rel.Y][rel.X] == ' ' {
					continue
				}
				if best == nil || w.ZLevel() >= bestZ {
					best = w
					bestZ = w.ZLevel()
				}
			}
			if best == nil {
				best = l.children[0]
			}
			rel := abs.Add(l.positions[best].Neg())
			l.chars[y][x] = best.Chars()[rel.Y][rel.X]
			l.colors[y][x] = best.Colors()[rel.Y][rel.X]
		}
	}
}

// RefreshIfNeeded recomposites and pushes the result to the surface if
// anything changed since the last tick. outer is the widget known to the
// surface, which for embedding types is the outermost value.
func (l *Layout) RefreshIfNeeded(outer Widget) {
	if !l.needRedraw {
		return
	}
	l.Rebuild()
	l.needRedraw = false
	if l.surface != nil {
		l.surface.UpdateWidget(outer)
	}
}

// OnEvent recomposites on the end-of-tick signal. Children are not fed
// events through the layout; they subscribe to the dispatcher themselves.
func (l *Layout) OnEvent(ev event.Event) []event.Event {
	if ev.Type == event.TypeService && ev.Value == event.SignalTickOver {
		l.RefreshIfNeeded(l)
	}
	return nil
}

// ScrollTo moves the viewport's top left corner to pos, in backing
// coordinates. A layout whose viewport covers the whole backing grid has
// nowhere to scroll.
func (l *Layout) ScrollTo(pos grid.Point) error {
	b := l.BackingSize()
	if pos.X < 0 || pos.Y < 0 ||
		pos.X+l.viewSize.X > b.X || pos.Y+l.viewSize.Y > b.Y {
		return fmt.Errorf("%w: scrolling view to %v outside %v backing grid",
			ErrLayout, pos, b)
	}
	l.viewPos = pos
	l.Invalidate()
	return nil
}

// ScrollBy shifts the viewport by a cell offset.
func (l *Layout) ScrollBy(shift grid.Point) error {
	return l.ScrollTo(l.viewPos.Add(shift))
}

// ViewPos returns the viewport's top left corner in backing coordinates.
func (l *Layout) ViewPos() grid.Point { return l.viewPos }

// ViewSize returns the viewport size.
func (l *Layout) ViewSize() grid.Point { return l.viewSize }

// WidgetFields rejects serialization: a layout is wiring between live
// widgets, not state.
func (l *Layout) WidgetFields() (string, map[string]any, error) {
	return "", nil, fmt.Errorf("%w: layouts are not serializable", ErrWidget)
}
