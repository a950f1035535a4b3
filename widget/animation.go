package widget

import (
	"fmt"

	"github.com/lucasb-eyer/go-colorful"

	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
)

// Frame is one image of an animation or switching widget.
type Frame struct {
	Chars  [][]rune
	Colors [][]string
}

func validFrame(f Frame) error {
	if !grid.Rectangular(f.Chars) || !grid.ShapesEqual(f.Chars, f.Colors) {
		return fmt.Errorf("%w: frame grids empty, ragged or mismatched", ErrWidget)
	}
	return nil
}

// ===== ANIMATION =====

// Animation is an ordered list of equal-shaped frames played at a fixed
// rate. FrameIDs optionally records the atlas element each frame came
// from, which lets the animation serialize by reference instead of by
// pixel data.
type Animation struct {
	Frames   []Frame
	FrameIDs []string
	FPS      float64
}

// NewAnimation validates frame shapes and rate.
func NewAnimation(fps float64, frames ...Frame) (*Animation, error) {
	if fps <= 0 {
		return nil, fmt.Errorf("%w: animation rate %v", ErrWidget, fps)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: animation without frames", ErrWidget)
	}
	for i, f := range frames {
		if err := validFrame(f); err != nil {
			return nil, err
		}
		if !grid.ShapesEqual(f.Chars, frames[0].Chars) {
			return nil, fmt.Errorf("%w: frame %d shape differs from frame 0", ErrWidget, i)
		}
	}
	return &Animation{Frames: frames, FPS: fps}, nil
}

// AnimationFromAtlas assembles an animation from named atlas elements and
// remembers their names for serialization.
func AnimationFromAtlas(atlas Atlas, fps float64, ids ...string) (*Animation, error) {
	if atlas == nil {
		return nil, fmt.Errorf("%w: nil atlas", ErrWidget)
	}
	frames := make([]Frame, 0, len(ids))
	for _, id := range ids {
		chars, colors, err := atlas.Element(id)
		if err != nil {
			return nil, err
		}
		frames = append(frames, Frame{Chars: chars, Colors: colors})
	}
	a, err := NewAnimation(fps, frames...)
	if err != nil {
		return nil, err
	}
	a.FrameIDs = append([]string(nil), ids...)
	return a, nil
}

// Size returns the shape shared by all frames.
func (a *Animation) Size() grid.Point {
	return grid.Size(a.Frames[0].Chars)
}

// Fade generates an animation that blends every cell color of the last
// frame toward a target hex color ("#rrggbb") over the given number of
// steps. Chars are kept; only colors change. All cell colors must be hex.
func (a *Animation) Fade(target string, steps int) (*Animation, error) {
	if steps <= 0 {
		return nil, fmt.Errorf("%w: fade with %d steps", ErrWidget, steps)
	}
	to, err := colorful.Hex(target)
	if err != nil {
		return nil, fmt.Errorf("%w: fade target %q: %v", ErrWidget, target, err)
	}
	last := a.Frames[len(a.Frames)-1]
	frames := make([]Frame, steps)
	for i := 0; i < steps; i++ {
		t := float64(i+1) / float64(steps)
		colors := grid.CopyShape(last.Colors, "")
		for y := range last.Colors {
			for x, c := range last.Colors[y] {
				from, err := colorful.Hex(c)
				if err != nil {
					return nil, fmt.Errorf("%w: fading non-hex color %q", ErrWidget, c)
				}
				colors[y][x] = from.BlendLab(to, t).Hex()
			}
		}
		frames[i] = Frame{Chars: grid.Clone(last.Chars), Colors: colors}
	}
	return NewAnimation(a.FPS, frames...)
}

// ===== ANIMATION WIDGETS =====

// SimpleAnimationWidget cycles through a single animation forever. Each
// frame change emits ecs_update so a scene containing it redraws.
type SimpleAnimationWidget struct {
	Base
	anim    *Animation
	frame   int
	elapsed float64
	paused  bool
}

// NewSimpleAnimationWidget builds a widget showing the animation's first
// frame.
func NewSimpleAnimationWidget(anim *Animation) (*SimpleAnimationWidget, error) {
	if anim == nil {
		return nil, fmt.Errorf("%w: nil animation", ErrWidget)
	}
	base, err := New(grid.Clone(anim.Frames[0].Chars), grid.Clone(anim.Frames[0].Colors))
	if err != nil {
		return nil, err
	}
	return &SimpleAnimationWidget{Base: *base, anim: anim}, nil
}

// Pause freezes the animation on the current frame.
func (w *SimpleAnimationWidget) Pause() { w.paused = true }

// Resume continues a paused animation.
func (w *SimpleAnimationWidget) Resume() { w.paused = false }

// OnEvent advances the animation on ticks.
func (w *SimpleAnimationWidget) OnEvent(ev event.Event) []event.Event {
	if w.paused || ev.Type != event.TypeTick {
		return nil
	}
	dt, _ := ev.Value.(float64)
	w.elapsed += dt
	frameTime := 1 / w.anim.FPS
	if w.elapsed < frameTime {
		return nil
	}
	w.elapsed = 0
	w.frame = (w.frame + 1) % len(w.anim.Frames)
	f := w.anim.Frames[w.frame]
	w.SetContent(f.Chars, f.Colors)
	return []event.Event{{Type: event.TypeECSUpdate}}
}

// WidgetFields serializes the widget with its animation inline.
func (w *SimpleAnimationWidget) WidgetFields() (string, map[string]any, error) {
	anim, err := animationFields(w.anim)
	if err != nil {
		return "", nil, err
	}
	return "SimpleAnimationWidget", map[string]any{
		"animation": anim,
		"z_level":   w.ZLevel(),
	}, nil
}

// MultipleAnimationWidget holds several named animations and plays one at
// a time, either cycling or stopping on the last frame.
type MultipleAnimationWidget struct {
	Base
	anims   map[string]*Animation
	current string
	cycle   bool
	frame   int
	elapsed float64
	done    bool
}

// NewMultipleAnimationWidget builds a widget playing the initial
// animation. All animations must share one shape.
func NewMultipleAnimationWidget(anims map[string]*Animation, initial string, cycle bool) (*MultipleAnimationWidget, error) {
	first, ok := anims[initial]
	if !ok {
		return nil, fmt.Errorf("%w: unknown initial animation %q", ErrWidget, initial)
	}
	for name, a := range anims {
		if a.Size() != first.Size() {
			return nil, fmt.Errorf("%w: animation %q shape %v differs from %q",
				ErrWidget, name, a.Size(), initial)
		}
	}
	base, err := New(grid.Clone(first.Frames[0].Chars), grid.Clone(first.Frames[0].Colors))
	if err != nil {
		return nil, err
	}
	return &MultipleAnimationWidget{
		Base:    *base,
		anims:   anims,
		current: initial,
		cycle:   cycle,
	}, nil
}

// SetAnimation switches to another animation, restarting from its first
// frame.
func (w *MultipleAnimationWidget) SetAnimation(name string, cycle bool) error {
	a, ok := w.anims[name]
	if !ok {
		return fmt.Errorf("%w: unknown animation %q", ErrWidget, name)
	}
	w.current = name
	w.cycle = cycle
	w.frame = 0
	w.elapsed = 0
	w.done = false
	return w.SetContent(a.Frames[0].Chars, a.Frames[0].Colors)
}

// Animation returns the name of the animation being played.
func (w *MultipleAnimationWidget) Animation() string { return w.current }

// OnEvent advances the current animation on ticks.
func (w *MultipleAnimationWidget) OnEvent(ev event.Event) []event.Event {
	if w.done || ev.Type != event.TypeTick {
		return nil
	}
	a := w.anims[w.current]
	dt, _ := ev.Value.(float64)
	w.elapsed += dt
	if w.elapsed < 1/a.FPS {
		return nil
	}
	w.elapsed = 0
	if w.frame == len(a.Frames)-1 && !w.cycle {
		w.done = true
		return nil
	}
	w.frame = (w.frame + 1) % len(a.Frames)
	f := a.Frames[w.frame]
	w.SetContent(f.Chars, f.Colors)
	return []event.Event{{Type: event.TypeECSUpdate}}
}

// WidgetFields serializes all animations inline along with the playback
// state needed to resume.
func (w *MultipleAnimationWidget) WidgetFields() (string, map[string]any, error) {
	anims := make(map[string]any, len(w.anims))
	for name, a := range w.anims {
		fields, err := animationFields(a)
		if err != nil {
			return "", nil, err
		}
		anims[name] = fields
	}
	return "MultipleAnimationWidget", map[string]any{
		"animations": anims,
		"current":    w.current,
		"cycle":      w.cycle,
		"z_level":    w.ZLevel(),
	}, nil
}

// ===== SWITCHING WIDGET =====

// SwitchingWidget shows one of several equal-shaped named images and
// switches between them on request.
type SwitchingWidget struct {
	Base
	images  map[string]Frame
	current string
}

// NewSwitchingWidget builds a widget showing the initial image.
func NewSwitchingWidget(images map[string]Frame, initial string) (*SwitchingWidget, error) {
	first, ok := images[initial]
	if !ok {
		return nil, fmt.Errorf("%w: unknown initial image %q", ErrWidget, initial)
	}
	for name, f := range images {
		if err := validFrame(f); err != nil {
			return nil, err
		}
		if !grid.ShapesEqual(f.Chars, first.Chars) {
			return nil, fmt.Errorf("%w: image %q shape differs from %q", ErrWidget, name, initial)
		}
	}
	base, err := New(grid.Clone(first.Chars), grid.Clone(first.Colors))
	if err != nil {
		return nil, err
	}
	return &SwitchingWidget{Base: *base, images: images, current: initial}, nil
}

// SwitchTo displays another image.
func (w *SwitchingWidget) SwitchTo(name string) error {
	f, ok := w.images[name]
	if !ok {
		return fmt.Errorf("%w: unknown image %q", ErrWidget, name)
	}
	w.current = name
	return w.SetContent(f.Chars, f.Colors)
}

// Current returns the name of the displayed image.
func (w *SwitchingWidget) Current() string { return w.current }

// WidgetFields serializes every image inline.
func (w *SwitchingWidget) WidgetFields() (string, map[string]any, error) {
	images := make(map[string]any, len(w.images))
	for name, f := range w.images {
		images[name] = map[string]any{
			"chars":  codecChars(f.Chars),
			"colors": codecColors(f.Colors),
		}
	}
	return "SwitchingWidget", map[string]any{
		"images":  images,
		"current": w.current,
		"z_level": w.ZLevel(),
	}, nil
}
