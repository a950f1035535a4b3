package terminal

import (
	"fmt"
	"time"

	"github.com/ursa-engine/ursa/event"
)

// Loop ties the terminal and the queue together: every frame it feeds the
// pending input into the queue, ticks, drains, announces tick_over, drains
// again and refreshes the screen. Anything that should happen in the
// application happens from inside those two drains.
type Loop struct {
	terminal  *Terminal
	queue     *event.Dispatcher
	frameTime time.Duration
	stopped   bool
}

// NewLoop builds a loop over a started terminal. The loop subscribes
// itself to service events so that a shutdown signal stops it.
func NewLoop(t *Terminal, queue *event.Dispatcher, fps int) (*Loop, error) {
	if t == nil || queue == nil {
		return nil, fmt.Errorf("%w: loop needs a terminal and a queue", ErrTerminal)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("%w: fps must be positive, got %d", ErrTerminal, fps)
	}
	l := &Loop{
		terminal:  t,
		queue:     queue,
		frameTime: time.Second / time.Duration(fps),
	}
	if err := queue.Register(l, event.TypeService); err != nil {
		return nil, err
	}
	return l, nil
}

// Run drives the loop until a shutdown signal or Stop, then closes the
// terminal. Dispatch errors are fatal: an invalid event in the queue means
// a programming error somewhere in a listener.
func (l *Loop) Run() error {
	defer l.terminal.Close()
	if err := l.queue.Add(event.Event{Type: event.TypeService, Value: event.SignalQueueStarted}); err != nil {
		return err
	}
	// An imaginary zeroth tick so the first real tick gets sane timing.
	last := time.Now().Add(-l.frameTime)
	for !l.stopped {
		start := time.Now()
		dt := start.Sub(last).Seconds()
		last = start
		if err := l.runIteration(dt); err != nil {
			return err
		}
		// Sleep off the rest of the frame, but only when there is enough
		// left to be worth it on a laggy system.
		if remaining := l.frameTime - time.Since(start); remaining > l.frameTime/20 {
			time.Sleep(remaining)
		}
	}
	return nil
}

func (l *Loop) runIteration(dt float64) error {
	for _, ev := range l.terminal.PollEvents() {
		if err := l.queue.Add(ev); err != nil {
			return err
		}
	}
	if err := l.queue.Add(event.Event{Type: event.TypeTick, Value: dt}); err != nil {
		return err
	}
	if err := l.queue.Dispatch(); err != nil {
		return err
	}
	if err := l.queue.Add(event.Event{Type: event.TypeService, Value: event.SignalTickOver}); err != nil {
		return err
	}
	if err := l.queue.Dispatch(); err != nil {
		return err
	}
	l.terminal.Refresh()
	return nil
}

// Stop orders the loop to stop after the current tick.
func (l *Loop) Stop() {
	l.stopped = true
}

// OnEvent stops the loop on the shutdown signal.
func (l *Loop) OnEvent(ev event.Event) []event.Event {
	if ev.Type == event.TypeService && ev.Value == event.SignalShutdown {
		l.stopped = true
	}
	return nil
}

var _ event.Listener = (*Loop)(nil)
