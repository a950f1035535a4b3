package terminal

import (
	"github.com/gdamore/tcell/v2"

	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/widget"
)

// Input is translated to stable TK_* identifiers before it ever reaches a
// listener, so nothing downstream depends on tcell's numeric codes.
//
// Terminals report key presses but not releases, so every key_down is
// followed by a synthetic key_up for the same identifier in the same
// batch. Shifted runes additionally get TK_SHIFT press and release wrapped
// around them, which is how input fields learn the case of what was typed.

// specialKeys maps tcell's non-rune keys to their identifiers.
var specialKeys = map[tcell.Key]string{
	tcell.KeyUp:         "TK_UP",
	tcell.KeyDown:       "TK_DOWN",
	tcell.KeyLeft:       "TK_LEFT",
	tcell.KeyRight:      "TK_RIGHT",
	tcell.KeyEnter:      "TK_ENTER",
	tcell.KeyEscape:     "TK_ESCAPE",
	tcell.KeyBackspace:  "TK_BACKSPACE",
	tcell.KeyBackspace2: "TK_BACKSPACE",
	tcell.KeyTab:        "TK_TAB",
	tcell.KeyInsert:     "TK_INSERT",
	tcell.KeyDelete:     "TK_DELETE",
	tcell.KeyHome:       "TK_HOME",
	tcell.KeyEnd:        "TK_END",
	tcell.KeyPgUp:       "TK_PAGEUP",
	tcell.KeyPgDn:       "TK_PAGEDOWN",
	tcell.KeyF1:         "TK_F1",
	tcell.KeyF2:         "TK_F2",
	tcell.KeyF3:         "TK_F3",
	tcell.KeyF4:         "TK_F4",
	tcell.KeyF5:         "TK_F5",
	tcell.KeyF6:         "TK_F6",
	tcell.KeyF7:         "TK_F7",
	tcell.KeyF8:         "TK_F8",
	tcell.KeyF9:         "TK_F9",
	tcell.KeyF10:        "TK_F10",
	tcell.KeyF11:        "TK_F11",
	tcell.KeyF12:        "TK_F12",
}

type runeKey struct {
	code    string
	shifted bool
}

// runeKeys is widget.KeyRunes inverted: rune to identifier plus whether
// shift produces it.
var runeKeys = map[rune]runeKey{}

func init() {
	for code, pair := range widget.KeyRunes {
		runeKeys[pair[0]] = runeKey{code: code}
		if pair[1] != pair[0] {
			runeKeys[pair[1]] = runeKey{code: code, shifted: true}
		}
	}
}

func press(code string) []event.Event {
	return []event.Event{
		{Type: event.TypeKeyDown, Value: code},
		{Type: event.TypeKeyUp, Value: code},
	}
}

func shiftedPress(code string) []event.Event {
	out := []event.Event{{Type: event.TypeKeyDown, Value: "TK_SHIFT"}}
	out = append(out, press(code)...)
	out = append(out, event.Event{Type: event.TypeKeyUp, Value: "TK_SHIFT"})
	return out
}

// mouseButtons maps tcell button bits to identifiers.
var mouseButtons = []struct {
	mask tcell.ButtonMask
	code string
}{
	{tcell.Button1, "TK_MOUSE_LEFT"},
	{tcell.Button2, "TK_MOUSE_RIGHT"},
	{tcell.Button3, "TK_MOUSE_MIDDLE"},
}

// translate converts one tcell event into queue events, updating the
// terminal's input state (mouse position, held buttons) along the way.
func (t *Terminal) translate(ev tcell.Event) []event.Event {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		return t.translateKey(ev)
	case *tcell.EventMouse:
		return t.translateMouse(ev)
	case *tcell.EventResize:
		return []event.Event{{Type: event.TypeMiscInput, Value: "TK_RESIZED"}}
	}
	return nil
}

func (t *Terminal) translateKey(ev *tcell.EventKey) []event.Event {
	switch ev.Key() {
	case tcell.KeyRune:
		k, ok := runeKeys[ev.Rune()]
		if !ok {
			return nil
		}
		if k.shifted {
			return shiftedPress(k.code)
		}
		return press(k.code)
	case tcell.KeyCtrlC:
		// The closest a terminal has to a window close button.
		return []event.Event{{Type: event.TypeMiscInput, Value: "TK_CLOSE"}}
	default:
		code, ok := specialKeys[ev.Key()]
		if !ok {
			return nil
		}
		return press(code)
	}
}

func (t *Terminal) translateMouse(ev *tcell.EventMouse) []event.Event {
	var out []event.Event
	x, y := ev.Position()
	if x != t.mouseX || y != t.mouseY {
		t.mouseX, t.mouseY = x, y
		out = append(out, event.Event{Type: event.TypeMiscInput, Value: "TK_MOUSE_MOVE"})
	}
	buttons := ev.Buttons()
	for _, b := range mouseButtons {
		now := buttons&b.mask != 0
		was := t.buttons&b.mask != 0
		switch {
		case now && !was:
			out = append(out, event.Event{Type: event.TypeKeyDown, Value: b.code})
		case was && !now:
			out = append(out, event.Event{Type: event.TypeKeyUp, Value: b.code})
		}
	}
	t.buttons = buttons & (tcell.Button1 | tcell.Button2 | tcell.Button3)
	if buttons&(tcell.WheelUp|tcell.WheelDown) != 0 {
		out = append(out, event.Event{Type: event.TypeMiscInput, Value: "TK_MOUSE_SCROLL"})
	}
	return out
}
