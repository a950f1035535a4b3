// Package widget implements the drawable surface tree: rectangular
// char/color grids, compositing layouts, text and animation widgets, and
// the listeners that bridge them to the event queue.
//
// Every widget is a rectangle of cells. A cell holds one printable rune
// and a color string ("#rrggbb" or a color name); the literal space rune
// is transparent when the widget sits inside a layout. A widget's shape is
// fixed at construction; only cell contents may change afterwards.
package widget

import (
	"errors"
	"fmt"

	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
)

var (
	// ErrWidget is wrapped by widget construction and mutation errors.
	ErrWidget = errors.New("widget: invalid widget")
	// ErrLayout is wrapped by structural layout errors: bad positions,
	// duplicate children, removing the background, and so on.
	ErrLayout = errors.New("widget: layout error")
)

// DefaultColor is used where no explicit color is given.
const DefaultColor = "white"

// Surface is the drawing target a top-level widget reports to, normally a
// terminal. CheckState answers backend state queries such as "TK_MOUSE_X".
type Surface interface {
	UpdateWidget(w Widget) error
	CheckState(query string) int
}

// Widget is a rectangle of cells that can react to events.
type Widget interface {
	event.Listener
	Chars() [][]rune
	Colors() [][]string
	Size() grid.Point
	ZLevel() int
	SetZLevel(z int)
	Parent() Widget
	SetParent(p Widget)
	Surface() Surface
	SetSurface(s Surface)
}

// Invalidator is implemented by widgets that composite children and need
// to know when a descendant's cells change.
type Invalidator interface {
	Invalidate()
}

// Atlas yields named char/color images; the resources package provides
// the file-backed implementation.
type Atlas interface {
	Element(name string) ([][]rune, [][]string, error)
}

// ===== BASE WIDGET =====

// Base is the plain drawable widget every other widget builds on.
type Base struct {
	chars   [][]rune
	colors  [][]string
	zLevel  int
	parent  Widget
	surface Surface
}

// New validates the grids and returns a widget over them. The widget takes
// ownership of both slices.
func New(chars [][]rune, colors [][]string) (*Base, error) {
	if !grid.Rectangular(chars) {
		return nil, fmt.Errorf("%w: chars grid is empty or ragged", ErrWidget)
	}
	if !grid.ShapesEqual(chars, colors) {
		return nil, fmt.Errorf("%w: chars %v and colors %v differ in shape",
			ErrWidget, grid.Size(chars), grid.Size(colors))
	}
	return &Base{chars: chars, colors: colors}, nil
}

// Monochrome builds a widget from char rows with a single color.
func Monochrome(chars [][]rune, color string) (*Base, error) {
	return New(chars, grid.CopyShape(chars, color))
}

// OnEvent ignores everything; concrete widgets override as needed.
func (b *Base) OnEvent(ev event.Event) []event.Event { return nil }

// Chars returns the live char grid. Callers must not reshape it.
func (b *Base) Chars() [][]rune { return b.chars }

// Colors returns the live color grid. Callers must not reshape it.
func (b *Base) Colors() [][]string { return b.colors }

// Size returns the widget's width and height.
func (b *Base) Size() grid.Point { return grid.Size(b.chars) }

func (b *Base) ZLevel() int          { return b.zLevel }
func (b *Base) SetZLevel(z int)      { b.zLevel = z }
func (b *Base) Parent() Widget       { return b.parent }
func (b *Base) SetParent(p Widget)   { b.parent = p }
func (b *Base) Surface() Surface     { return b.surface }
func (b *Base) SetSurface(s Surface) { b.surface = s }

// SetCell mutates a single cell.
func (b *Base) SetCell(x, y int, ch rune, color string) error {
	s := b.Size()
	if x < 0 || y < 0 || x >= s.X || y >= s.Y {
		return fmt.Errorf("%w: cell (%d, %d) outside %v widget", ErrWidget, x, y, s)
	}
	b.chars[y][x] = ch
	b.colors[y][x] = color
	b.Touch()
	return nil
}

// SetContent replaces every cell. The new grids must match the widget's
// shape; widgets never resize after construction.
func (b *Base) SetContent(chars [][]rune, colors [][]string) error {
	if !grid.ShapesEqual(chars, b.chars) || !grid.ShapesEqual(colors, b.colors) {
		return fmt.Errorf("%w: content %v does not match widget shape %v",
			ErrWidget, grid.Size(chars), b.Size())
	}
	for y := range chars {
		copy(b.chars[y], chars[y])
		copy(b.colors[y], colors[y])
	}
	b.Touch()
	return nil
}

// Axis selects a direction for Flip.
type Axis int

const (
	// AxisHorizontal mirrors left-right: every row is reversed.
	AxisHorizontal Axis = iota
	// AxisVertical mirrors top-bottom: the row order is reversed.
	AxisVertical
)

// Flip mirrors the current cells along an axis, in place. It only affects
// the cells as they are now; any later content update (animation frames,
// label text) draws unflipped. Most ASCII art does not mirror well, so
// this is mainly for noisy tiles.
func (b *Base) Flip(axis Axis) error {
	switch axis {
	case AxisHorizontal:
		for y := range b.chars {
			chars, colors := b.chars[y], b.colors[y]
			for i, j := 0, len(chars)-1; i < j; i, j = i+1, j-1 {
				chars[i], chars[j] = chars[j], chars[i]
				colors[i], colors[j] = colors[j], colors[i]
			}
		}
	case AxisVertical:
		for i, j := 0, len(b.chars)-1; i < j; i, j = i+1, j-1 {
			b.chars[i], b.chars[j] = b.chars[j], b.chars[i]
			b.colors[i], b.colors[j] = b.colors[j], b.colors[i]
		}
	default:
		return fmt.Errorf("%w: unknown flip axis %d", ErrWidget, axis)
	}
	b.Touch()
	return nil
}

// Touch tells the enclosing layout, if any, that this widget's cells
// changed and a recomposite is due.
func (b *Base) Touch() {
	if inv, ok := b.parent.(Invalidator); ok {
		inv.Invalidate()
	}
}

// WidgetFields makes a plain widget serializable under the "Widget" class.
func (b *Base) WidgetFields() (string, map[string]any, error) {
	return "Widget", map[string]any{
		"chars":   codecChars(b.chars),
		"colors":  codecColors(b.colors),
		"z_level": b.zLevel,
	}, nil
}
