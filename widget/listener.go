package widget

import (
	"fmt"
	"io"
	"log"

	"github.com/ursa-engine/ursa/event"
)

// ===== FPS COUNTER =====

const fpsWindow = 100

// FPSCounter is a label showing the average frame rate over the last
// hundred ticks.
type FPSCounter struct {
	Label
	samples [fpsWindow]float64
	next    int
	filled  int
}

// NewFPSCounter builds the counter label.
func NewFPSCounter(color string) (*FPSCounter, error) {
	label, err := NewLabel("0", 4, JustifyRight, color)
	if err != nil {
		return nil, err
	}
	return &FPSCounter{Label: *label}, nil
}

// OnEvent accumulates tick durations and refreshes the label.
func (f *FPSCounter) OnEvent(ev event.Event) []event.Event {
	if ev.Type != event.TypeTick {
		return nil
	}
	dt, ok := ev.Value.(float64)
	if !ok || dt <= 0 {
		return nil
	}
	f.samples[f.next] = dt
	f.next = (f.next + 1) % fpsWindow
	if f.filled < fpsWindow {
		f.filled++
	}
	var sum float64
	for i := 0; i < f.filled; i++ {
		sum += f.samples[i]
	}
	fps := int(float64(f.filled)/sum + 0.5)
	f.SetText(fmt.Sprintf("%d", fps))
	if f.Surface() != nil && f.Parent() == nil {
		f.Surface().UpdateWidget(f)
	}
	return nil
}

// ===== MOUSE POSITION WIDGET =====

// MousePosWidget is a label tracking the pointer's cell coordinates,
// queried from the surface on every mouse move.
type MousePosWidget struct {
	Label
}

// NewMousePosWidget builds the tracker label.
func NewMousePosWidget(color string) (*MousePosWidget, error) {
	label, err := NewLabel("0:0", 9, JustifyLeft, color)
	if err != nil {
		return nil, err
	}
	return &MousePosWidget{Label: *label}, nil
}

// OnEvent refreshes the label on mouse movement.
func (m *MousePosWidget) OnEvent(ev event.Event) []event.Event {
	if ev.Type != event.TypeMiscInput || ev.Value != "TK_MOUSE_MOVE" {
		return nil
	}
	s := m.Surface()
	if s == nil {
		return nil
	}
	m.SetText(fmt.Sprintf("%d:%d", s.CheckState("TK_MOUSE_X"), s.CheckState("TK_MOUSE_Y")))
	if m.Parent() == nil {
		s.UpdateWidget(m)
	}
	return nil
}

// ===== CLOSING LISTENER =====

// ClosingListener turns the backend's close request into the cooperative
// shutdown handshake: TK_CLOSE first emits shutdown-ready so listeners can
// finish up, then the actual shutdown on the following tick.
type ClosingListener struct {
	closing bool
}

// NewClosingListener builds the listener. Register it for misc_input and
// tick events.
func NewClosingListener() *ClosingListener {
	return &ClosingListener{}
}

// OnEvent implements the two-step shutdown.
func (c *ClosingListener) OnEvent(ev event.Event) []event.Event {
	switch ev.Type {
	case event.TypeMiscInput:
		if ev.Value == "TK_CLOSE" && !c.closing {
			c.closing = true
			return []event.Event{{Type: event.TypeService, Value: event.SignalShutdownReady}}
		}
	case event.TypeTick:
		if c.closing {
			c.closing = false
			return []event.Event{{Type: event.TypeService, Value: event.SignalShutdown}}
		}
	}
	return nil
}

// ===== LOGGING LISTENER =====

// LoggingListener writes every event it receives to a writer. Subscribe it
// to whatever subset needs tracing.
type LoggingListener struct {
	out *log.Logger
}

// NewLoggingListener builds a listener logging to w.
func NewLoggingListener(w io.Writer) *LoggingListener {
	return &LoggingListener{out: log.New(w, "", log.LstdFlags)}
}

// OnEvent logs the event and stays silent.
func (l *LoggingListener) OnEvent(ev event.Event) []event.Event {
	l.out.Printf("%s: %v", ev.Type, ev.Value)
	return nil
}
