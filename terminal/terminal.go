package terminal

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
	"github.com/ursa-engine/ursa/widget"
)

// numLayers is the number of drawing layers. Layer pointer grids are
// allocated when the first widget lands on them and never resized.
const numLayers = 256

type widgetLocation struct {
	pos   grid.Point
	layer int
}

// Terminal draws widgets on a tcell screen and translates its input into
// queue events. Widgets live on layers; within one layer widgets must not
// overlap, across layers the topmost non-space cell is what gets drawn.
//
// The terminal is the widget.Surface handed to top-level widgets: their
// UpdateWidget calls repaint the widget's cells with whatever is visible
// there across all layers.
type Terminal struct {
	cfg       Config
	screen    tcell.Screen
	events    chan tcell.Event
	locations map[widget.Widget]widgetLocation
	layers    [numLayers][][]widget.Widget
	styles    map[string]tcell.Style

	mouseX, mouseY int
	buttons        tcell.ButtonMask
}

// New builds a terminal; Start opens the window.
func New(cfg Config) (*Terminal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Terminal{
		cfg:       cfg,
		locations: make(map[widget.Widget]widgetLocation),
		styles:    make(map[string]tcell.Style),
	}, nil
}

// Start opens the real screen and begins reading input.
func (t *Terminal) Start() error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTerminal, err)
	}
	return t.StartWith(screen)
}

// StartWith starts the terminal on a caller-supplied screen. Tests hand in
// a tcell simulation screen here.
func (t *Terminal) StartWith(screen tcell.Screen) error {
	if t.screen != nil {
		return fmt.Errorf("%w: terminal already started", ErrTerminal)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrTerminal, err)
	}
	screen.SetStyle(t.style(t.cfg.DefaultColor))
	screen.SetTitle(t.cfg.Title)
	if t.cfg.Mouse {
		screen.EnableMouse()
	}
	screen.Clear()
	t.screen = screen
	t.events = make(chan tcell.Event, 64)
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(t.events)
				return
			}
			t.events <- ev
		}
	}()
	return nil
}

// Close shuts the screen down. Widgets are left in place; the window is
// simply gone.
func (t *Terminal) Close() {
	if t.screen != nil {
		t.screen.Fini()
	}
}

// Refresh presents everything drawn since the last refresh.
func (t *Terminal) Refresh() {
	t.screen.Show()
}

// Size returns the screen size in cells.
func (t *Terminal) Size() grid.Point {
	w, h := t.screen.Size()
	return grid.Point{X: w, Y: h}
}

// PollEvents drains and translates all pending input without blocking.
func (t *Terminal) PollEvents() []event.Event {
	var out []event.Event
	for {
		select {
		case ev, ok := <-t.events:
			if !ok {
				return out
			}
			out = append(out, t.translate(ev)...)
		default:
			return out
		}
	}
}

// style resolves a color name or #rrggbb spec to a tcell style, cached.
func (t *Terminal) style(color string) tcell.Style {
	if s, ok := t.styles[color]; ok {
		return s
	}
	s := tcell.StyleDefault.Foreground(tcell.GetColor(color))
	t.styles[color] = s
	return s
}

// ===== WIDGET PLACEMENT =====

// AddWidget places a widget on a layer. No widget may be added twice, and
// widgets must not overlap within a layer.
func (t *Terminal) AddWidget(w widget.Widget, pos grid.Point, layer int) error {
	if w == nil {
		return fmt.Errorf("%w: adding a nil widget", ErrTerminal)
	}
	if _, ok := t.locations[w]; ok {
		return fmt.Errorf("%w: adding the same widget twice", ErrTerminal)
	}
	if layer < 0 || layer >= numLayers {
		return fmt.Errorf("%w: layer %d out of range", ErrTerminal, layer)
	}
	size, screen := w.Size(), t.Size()
	if pos.X < 0 || pos.Y < 0 || pos.X+size.X > screen.X || pos.Y+size.Y > screen.Y {
		return fmt.Errorf("%w: %v widget does not fit at %v on %v screen",
			ErrTerminal, size, pos, screen)
	}
	if t.layers[layer] == nil {
		t.layers[layer] = make([][]widget.Widget, screen.Y)
		for y := range t.layers[layer] {
			t.layers[layer][y] = make([]widget.Widget, screen.X)
		}
	}
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			if t.layers[layer][pos.Y+y][pos.X+x] != nil {
				return fmt.Errorf("%w: widgets cannot collide within a layer", ErrTerminal)
			}
		}
	}
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			t.layers[layer][pos.Y+y][pos.X+x] = w
		}
	}
	t.locations[w] = widgetLocation{pos: pos, layer: layer}
	w.SetSurface(t)
	t.repaint(pos, size)
	return nil
}

// RemoveWidget takes a widget off the screen without destroying it.
func (t *Terminal) RemoveWidget(w widget.Widget) error {
	loc, ok := t.locations[w]
	if !ok {
		return fmt.Errorf("%w: removing a widget that was never added", ErrTerminal)
	}
	size := w.Size()
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			t.layers[loc.layer][loc.pos.Y+y][loc.pos.X+x] = nil
		}
	}
	delete(t.locations, w)
	w.SetSurface(nil)
	t.repaint(loc.pos, size)
	return nil
}

// MoveWidget relocates a widget within its layer.
func (t *Terminal) MoveWidget(w widget.Widget, pos grid.Point) error {
	loc, ok := t.locations[w]
	if !ok {
		return fmt.Errorf("%w: moving a widget that was never added", ErrTerminal)
	}
	if err := t.RemoveWidget(w); err != nil {
		return err
	}
	if err := t.AddWidget(w, pos, loc.layer); err != nil {
		// Put it back where it was; the old spot is known to be free.
		t.AddWidget(w, loc.pos, loc.layer)
		return err
	}
	return nil
}

// Clear removes every widget but keeps the window open.
func (t *Terminal) Clear() {
	widgets := make([]widget.Widget, 0, len(t.locations))
	for w := range t.locations {
		widgets = append(widgets, w)
	}
	for _, w := range widgets {
		t.RemoveWidget(w)
	}
	t.screen.Clear()
}

// WidgetAt returns the widget covering a cell on a layer, or with a
// negative layer the widget whose cell there is topmost.
func (t *Terminal) WidgetAt(pos grid.Point, layer int) widget.Widget {
	screen := t.Size()
	if pos.X < 0 || pos.Y < 0 || pos.X >= screen.X || pos.Y >= screen.Y {
		return nil
	}
	if layer >= 0 {
		if layer >= numLayers || t.layers[layer] == nil {
			return nil
		}
		return t.layers[layer][pos.Y][pos.X]
	}
	for l := numLayers - 1; l >= 0; l-- {
		if t.layers[l] == nil {
			continue
		}
		if w := t.layers[l][pos.Y][pos.X]; w != nil {
			return w
		}
	}
	return nil
}

// UpdateWidget redraws an added widget's cells. Widgets call this through
// their surface when their content changes.
func (t *Terminal) UpdateWidget(w widget.Widget) error {
	loc, ok := t.locations[w]
	if !ok {
		return fmt.Errorf("%w: updating a widget that was never added", ErrTerminal)
	}
	t.repaint(loc.pos, w.Size())
	return nil
}

// repaint redraws a screen rectangle from the layer stacks, topmost
// non-space cell winning.
func (t *Terminal) repaint(pos, size grid.Point) {
	for y := pos.Y; y < pos.Y+size.Y; y++ {
		for x := pos.X; x < pos.X+size.X; x++ {
			ch, style := ' ', t.style(t.cfg.DefaultColor)
			for l := numLayers - 1; l >= 0; l-- {
				if t.layers[l] == nil {
					continue
				}
				w := t.layers[l][y][x]
				if w == nil {
					continue
				}
				rel := grid.Point{X: x, Y: y}.Add(t.locations[w].pos.Neg())
				if w.Chars()[rel.Y][rel.X] == ' ' {
					continue
				}
				ch = w.Chars()[rel.Y][rel.X]
				style = t.style(w.Colors()[rel.Y][rel.X])
				break
			}
			t.screen.SetContent(x, y, ch, nil, style)
		}
	}
}

// ===== STATE QUERIES =====

// CheckState answers widget state queries by identifier: the mouse cell
// coordinates, held mouse buttons and the screen size. Unknown queries
// answer zero.
func (t *Terminal) CheckState(query string) int {
	switch query {
	case "TK_MOUSE_X":
		return t.mouseX
	case "TK_MOUSE_Y":
		return t.mouseY
	case "TK_WIDTH":
		return t.Size().X
	case "TK_HEIGHT":
		return t.Size().Y
	}
	for _, b := range mouseButtons {
		if query == b.code {
			if t.buttons&b.mask != 0 {
				return 1
			}
			return 0
		}
	}
	return 0
}

var _ widget.Surface = (*Terminal)(nil)
