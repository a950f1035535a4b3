package terminal

import (
	"errors"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
	"github.com/ursa-engine/ursa/widget"
)

// newTestTerminal starts a terminal on a tcell simulation screen (80x25).
func newTestTerminal(t *testing.T) (*Terminal, tcell.SimulationScreen) {
	t.Helper()
	term, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("new terminal: %v", err)
	}
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := term.StartWith(screen); err != nil {
		t.Fatalf("start: %v", err)
	}
	return term, screen
}

func newBlock(t *testing.T, rows ...string) *widget.Base {
	t.Helper()
	w, err := widget.Monochrome(grid.Rows(rows...), "red")
	if err != nil {
		t.Fatalf("block widget: %v", err)
	}
	return w
}

// cellRune presents the screen and returns the displayed rune at a cell.
func cellRune(t *testing.T, term *Terminal, screen tcell.SimulationScreen, x, y int) rune {
	t.Helper()
	term.Refresh()
	cells, width, _ := screen.GetContents()
	return cells[y*width+x].Runes[0]
}

func TestAddWidgetDraws(t *testing.T) {
	term, screen := newTestTerminal(t)
	defer term.Close()
	w := newBlock(t, "##", "##")
	if err := term.AddWidget(w, grid.Point{X: 3, Y: 3}, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := cellRune(t, term, screen, 3, 3); got != '#' {
		t.Errorf("cell (3, 3): %q", got)
	}
	if got := cellRune(t, term, screen, 5, 3); got != ' ' {
		t.Errorf("cell outside the widget: %q", got)
	}
	if w.Surface() != term {
		t.Error("added widget did not get the terminal as its surface")
	}
}

func TestAddWidgetValidation(t *testing.T) {
	term, _ := newTestTerminal(t)
	defer term.Close()
	w := newBlock(t, "##", "##")
	if err := term.AddWidget(w, grid.Point{X: 0, Y: 0}, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := term.AddWidget(w, grid.Point{X: 10, Y: 10}, 0); !errors.Is(err, ErrTerminal) {
		t.Errorf("double add: %v", err)
	}
	other := newBlock(t, "#")
	if err := term.AddWidget(other, grid.Point{X: 1, Y: 1}, 0); !errors.Is(err, ErrTerminal) {
		t.Errorf("overlap within a layer: %v", err)
	}
	if err := term.AddWidget(other, grid.Point{X: 79, Y: 23}, 300); !errors.Is(err, ErrTerminal) {
		t.Errorf("layer out of range: %v", err)
	}
	if err := term.AddWidget(other, grid.Point{X: 80, Y: 0}, 0); !errors.Is(err, ErrTerminal) {
		t.Errorf("widget outside the screen: %v", err)
	}
	// The same spot on another layer is fine.
	if err := term.AddWidget(other, grid.Point{X: 1, Y: 1}, 1); err != nil {
		t.Errorf("overlap across layers should work: %v", err)
	}
}

func TestLayersCompositeTopmostNonSpace(t *testing.T) {
	term, screen := newTestTerminal(t)
	defer term.Close()
	bottom := newBlock(t, "aa")
	top := newBlock(t, "b ")
	if err := term.AddWidget(bottom, grid.Point{X: 0, Y: 0}, 0); err != nil {
		t.Fatalf("add bottom: %v", err)
	}
	if err := term.AddWidget(top, grid.Point{X: 0, Y: 0}, 5); err != nil {
		t.Fatalf("add top: %v", err)
	}
	if got := cellRune(t, term, screen, 0, 0); got != 'b' {
		t.Errorf("covered cell: %q", got)
	}
	// Spaces are transparent: the lower layer shows through.
	if got := cellRune(t, term, screen, 1, 0); got != 'a' {
		t.Errorf("cell under a space: %q", got)
	}
	if err := term.RemoveWidget(top); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if got := cellRune(t, term, screen, 0, 0); got != 'a' {
		t.Errorf("cell after removing the top widget: %q", got)
	}
}

func TestRemoveAndMoveWidget(t *testing.T) {
	term, screen := newTestTerminal(t)
	defer term.Close()
	w := newBlock(t, "#")
	if err := term.RemoveWidget(w); !errors.Is(err, ErrTerminal) {
		t.Errorf("removing a never-added widget: %v", err)
	}
	if err := term.MoveWidget(w, grid.Point{X: 1, Y: 1}); !errors.Is(err, ErrTerminal) {
		t.Errorf("moving a never-added widget: %v", err)
	}
	if err := term.AddWidget(w, grid.Point{X: 2, Y: 2}, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := term.MoveWidget(w, grid.Point{X: 7, Y: 7}); err != nil {
		t.Fatalf("move: %v", err)
	}
	if got := cellRune(t, term, screen, 2, 2); got != ' ' {
		t.Errorf("old cell after move: %q", got)
	}
	if got := cellRune(t, term, screen, 7, 7); got != '#' {
		t.Errorf("new cell after move: %q", got)
	}
	// A move that does not fit leaves the widget where it was.
	if err := term.MoveWidget(w, grid.Point{X: -1, Y: 0}); !errors.Is(err, ErrTerminal) {
		t.Errorf("move off screen: %v", err)
	}
	if term.WidgetAt(grid.Point{X: 7, Y: 7}, 0) != w {
		t.Error("failed move should leave the widget in place")
	}
}

func TestUpdateWidgetRedraws(t *testing.T) {
	term, screen := newTestTerminal(t)
	defer term.Close()
	w := newBlock(t, "#")
	if err := term.UpdateWidget(w); !errors.Is(err, ErrTerminal) {
		t.Errorf("updating a never-added widget: %v", err)
	}
	if err := term.AddWidget(w, grid.Point{X: 4, Y: 4}, 0); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := w.SetCell(0, 0, 'z', "green"); err != nil {
		t.Fatalf("set cell: %v", err)
	}
	if err := term.UpdateWidget(w); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := cellRune(t, term, screen, 4, 4); got != 'z' {
		t.Errorf("cell after update: %q", got)
	}
}

func TestWidgetAt(t *testing.T) {
	term, _ := newTestTerminal(t)
	defer term.Close()
	low := newBlock(t, "#")
	high := newBlock(t, "#")
	term.AddWidget(low, grid.Point{X: 0, Y: 0}, 1)
	term.AddWidget(high, grid.Point{X: 0, Y: 0}, 8)
	if got := term.WidgetAt(grid.Point{X: 0, Y: 0}, 1); got != low {
		t.Error("layer query missed the lower widget")
	}
	if got := term.WidgetAt(grid.Point{X: 0, Y: 0}, -1); got != high {
		t.Error("topmost query should find the higher widget")
	}
	if got := term.WidgetAt(grid.Point{X: 0, Y: 0}, 3); got != nil {
		t.Errorf("empty layer: %v", got)
	}
	if got := term.WidgetAt(grid.Point{X: -1, Y: 0}, -1); got != nil {
		t.Errorf("off-screen cell: %v", got)
	}
}

func TestClearRemovesEverything(t *testing.T) {
	term, screen := newTestTerminal(t)
	defer term.Close()
	term.AddWidget(newBlock(t, "#"), grid.Point{X: 0, Y: 0}, 0)
	term.AddWidget(newBlock(t, "#"), grid.Point{X: 5, Y: 5}, 3)
	term.Clear()
	if got := term.WidgetAt(grid.Point{X: 0, Y: 0}, -1); got != nil {
		t.Errorf("widget left after clear: %v", got)
	}
	if got := cellRune(t, term, screen, 5, 5); got != ' ' {
		t.Errorf("cell after clear: %q", got)
	}
}

func TestCheckStateScreenSize(t *testing.T) {
	term, _ := newTestTerminal(t)
	defer term.Close()
	if w := term.CheckState("TK_WIDTH"); w != 80 {
		t.Errorf("width: %d", w)
	}
	if h := term.CheckState("TK_HEIGHT"); h != 25 {
		t.Errorf("height: %d", h)
	}
	if v := term.CheckState("TK_SOMETHING_ELSE"); v != 0 {
		t.Errorf("unknown query: %d", v)
	}
}

// The full pipeline: injected input comes out of PollEvents translated.
func TestPollEventsPipeline(t *testing.T) {
	term, screen := newTestTerminal(t)
	defer term.Close()
	screen.InjectKey(tcell.KeyRune, 'a', tcell.ModNone)
	var got []event.Event
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) && len(got) < 2 {
		got = append(got, term.PollEvents()...)
		time.Sleep(time.Millisecond)
	}
	if len(got) != 2 || got[0].Value != "TK_A" || got[0].Type != event.TypeKeyDown {
		t.Fatalf("pipeline events: %v", got)
	}
}

func TestStartWithTwiceFails(t *testing.T) {
	term, _ := newTestTerminal(t)
	defer term.Close()
	if err := term.StartWith(tcell.NewSimulationScreen("UTF-8")); !errors.Is(err, ErrTerminal) {
		t.Errorf("second start: %v", err)
	}
}
