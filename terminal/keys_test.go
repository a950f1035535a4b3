package terminal

import (
	"reflect"
	"testing"

	"github.com/gdamore/tcell/v2"

	"github.com/ursa-engine/ursa/event"
)

// Translation needs no screen, so these tests run on a bare Terminal.

func TestTranslatePlainRune(t *testing.T) {
	var term Terminal
	got := term.translate(tcell.NewEventKey(tcell.KeyRune, 'a', tcell.ModNone))
	want := []event.Event{
		{Type: event.TypeKeyDown, Value: "TK_A"},
		{Type: event.TypeKeyUp, Value: "TK_A"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("translate 'a': %v", got)
	}
}

func TestTranslateShiftedRune(t *testing.T) {
	var term Terminal
	got := term.translate(tcell.NewEventKey(tcell.KeyRune, 'A', tcell.ModNone))
	want := []event.Event{
		{Type: event.TypeKeyDown, Value: "TK_SHIFT"},
		{Type: event.TypeKeyDown, Value: "TK_A"},
		{Type: event.TypeKeyUp, Value: "TK_A"},
		{Type: event.TypeKeyUp, Value: "TK_SHIFT"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("translate 'A': %v", got)
	}
	got = term.translate(tcell.NewEventKey(tcell.KeyRune, '!', tcell.ModNone))
	if len(got) != 4 || got[1].Value != "TK_1" {
		t.Errorf("translate '!': %v", got)
	}
}

func TestTranslateSpecialKeys(t *testing.T) {
	var term Terminal
	got := term.translate(tcell.NewEventKey(tcell.KeyLeft, 0, tcell.ModNone))
	want := []event.Event{
		{Type: event.TypeKeyDown, Value: "TK_LEFT"},
		{Type: event.TypeKeyUp, Value: "TK_LEFT"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("translate left arrow: %v", got)
	}
	// Both backspace variants terminals send map to the same identifier.
	for _, key := range []tcell.Key{tcell.KeyBackspace, tcell.KeyBackspace2} {
		got = term.translate(tcell.NewEventKey(key, 0, tcell.ModNone))
		if len(got) != 2 || got[0].Value != "TK_BACKSPACE" {
			t.Errorf("translate backspace %v: %v", key, got)
		}
	}
}

func TestTranslateCtrlCAsClose(t *testing.T) {
	var term Terminal
	got := term.translate(tcell.NewEventKey(tcell.KeyCtrlC, 0, tcell.ModCtrl))
	want := []event.Event{{Type: event.TypeMiscInput, Value: "TK_CLOSE"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("translate ctrl-c: %v", got)
	}
}

func TestTranslateUnknownInputDropped(t *testing.T) {
	var term Terminal
	if got := term.translate(tcell.NewEventKey(tcell.KeyRune, '¢', tcell.ModNone)); got != nil {
		t.Errorf("unknown rune should be dropped: %v", got)
	}
	if got := term.translate(tcell.NewEventKey(tcell.KeyF64, 0, tcell.ModNone)); got != nil {
		t.Errorf("unmapped key should be dropped: %v", got)
	}
}

func TestTranslateResize(t *testing.T) {
	var term Terminal
	got := term.translate(tcell.NewEventResize(100, 40))
	want := []event.Event{{Type: event.TypeMiscInput, Value: "TK_RESIZED"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("translate resize: %v", got)
	}
}

func TestTranslateMouse(t *testing.T) {
	var term Terminal
	got := term.translate(tcell.NewEventMouse(3, 4, tcell.Button1, tcell.ModNone))
	want := []event.Event{
		{Type: event.TypeMiscInput, Value: "TK_MOUSE_MOVE"},
		{Type: event.TypeKeyDown, Value: "TK_MOUSE_LEFT"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("press at (3, 4): %v", got)
	}
	if term.CheckState("TK_MOUSE_X") != 3 || term.CheckState("TK_MOUSE_Y") != 4 {
		t.Errorf("mouse position not stored: (%d, %d)",
			term.CheckState("TK_MOUSE_X"), term.CheckState("TK_MOUSE_Y"))
	}
	if term.CheckState("TK_MOUSE_LEFT") != 1 || term.CheckState("TK_MOUSE_RIGHT") != 0 {
		t.Error("held button state not tracked")
	}

	// Held button, same position: nothing changed, nothing reported.
	if got := term.translate(tcell.NewEventMouse(3, 4, tcell.Button1, tcell.ModNone)); got != nil {
		t.Errorf("held button should not repeat: %v", got)
	}

	got = term.translate(tcell.NewEventMouse(3, 4, tcell.ButtonNone, tcell.ModNone))
	want = []event.Event{{Type: event.TypeKeyUp, Value: "TK_MOUSE_LEFT"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("release: %v", got)
	}

	got = term.translate(tcell.NewEventMouse(3, 4, tcell.WheelUp, tcell.ModNone))
	want = []event.Event{{Type: event.TypeMiscInput, Value: "TK_MOUSE_SCROLL"}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("wheel: %v", got)
	}
}

func TestRuneKeysCoverKeyTable(t *testing.T) {
	if _, ok := runeKeys['a']; !ok {
		t.Error("plain letter missing from rune table")
	}
	if k := runeKeys['Z']; k.code != "TK_Z" || !k.shifted {
		t.Errorf("shifted letter: %+v", k)
	}
	// Space is its own shifted form and must not be marked shifted.
	if k := runeKeys[' ']; k.code != "TK_SPACE" || k.shifted {
		t.Errorf("space: %+v", k)
	}
}
