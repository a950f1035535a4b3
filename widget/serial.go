package widget

import (
	"fmt"

	"github.com/ursa-engine/ursa/codec"
)

// Serializer is implemented by widgets that can be stored. It yields the
// class discriminator and the field record; the codec package handles the
// wire format.
type Serializer interface {
	WidgetFields() (class string, fields map[string]any, err error)
}

// Factory rebuilds a widget from a decoded record. Factories needing
// images by name receive the atlas the caller passed to Deserialize.
type Factory func(args codec.Args, atlas Atlas) (Widget, error)

var classes = map[string]Factory{}

// RegisterClass binds a class discriminator to its factory. Later
// registrations replace earlier ones, so applications can override the
// built-ins.
func RegisterClass(name string, f Factory) {
	classes[name] = f
}

// Serialize stores a widget as JSON. Widgets that do not implement
// Serializer, and those whose WidgetFields refuses (layouts, input
// fields), produce an error.
func Serialize(w Widget) ([]byte, error) {
	s, ok := w.(Serializer)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not serializable", codec.ErrSerial, w)
	}
	class, fields, err := s.WidgetFields()
	if err != nil {
		return nil, err
	}
	return codec.Encode(class, fields)
}

// Deserialize rebuilds a widget from JSON. atlas may be nil when no stored
// class resolves frames by name.
func Deserialize(data []byte, atlas Atlas) (Widget, error) {
	args, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	class, err := args.Class()
	if err != nil {
		return nil, err
	}
	factory, ok := classes[class]
	if !ok {
		return nil, fmt.Errorf("%w: unknown widget class %q", codec.ErrSerial, class)
	}
	return factory(args, atlas)
}

// codecChars and codecColors keep the widget serializers terse.
func codecChars(chars [][]rune) []string     { return codec.EncodeChars(chars) }
func codecColors(colors [][]string) []string { return codec.EncodeColors(colors) }

// frameFromArgs reads a {chars, colors} record into a validated frame.
func frameFromArgs(args codec.Args) (Frame, error) {
	charRows, err := args.Strings("chars")
	if err != nil {
		return Frame{}, err
	}
	colorRows, err := args.Strings("colors")
	if err != nil {
		return Frame{}, err
	}
	f := Frame{Chars: codec.DecodeChars(charRows), Colors: codec.DecodeColors(colorRows)}
	if err := validFrame(f); err != nil {
		return Frame{}, err
	}
	return f, nil
}

// ===== ANIMATION WIRE FORMAT =====

// animationFields encodes an animation. Atlas-born animations store frame
// ids only; others store frames inline.
func animationFields(a *Animation) (map[string]any, error) {
	fields := map[string]any{"fps": a.FPS}
	if len(a.FrameIDs) > 0 {
		fields["frame_ids"] = a.FrameIDs
		return fields, nil
	}
	frames := make([]any, len(a.Frames))
	for i, f := range a.Frames {
		frames[i] = map[string]any{
			"chars":  codecChars(f.Chars),
			"colors": codecColors(f.Colors),
		}
	}
	fields["frames"] = frames
	return fields, nil
}

// SerializeAnimation stores an animation as JSON.
func SerializeAnimation(a *Animation) ([]byte, error) {
	fields, err := animationFields(a)
	if err != nil {
		return nil, err
	}
	return codec.Encode("Animation", fields)
}

func animationFromArgs(args codec.Args, atlas Atlas) (*Animation, error) {
	fps, err := args.Float("fps")
	if err != nil {
		return nil, err
	}
	if args.Has("frame_ids") {
		ids, err := args.Strings("frame_ids")
		if err != nil {
			return nil, err
		}
		if atlas == nil {
			return nil, fmt.Errorf("%w: animation stored by frame ids needs an atlas", codec.ErrSerial)
		}
		return AnimationFromAtlas(atlas, fps, ids...)
	}
	records, err := args.Records("frames")
	if err != nil {
		return nil, err
	}
	frames := make([]Frame, len(records))
	for i, rec := range records {
		f, err := frameFromArgs(rec)
		if err != nil {
			return nil, err
		}
		frames[i] = f
	}
	return NewAnimation(fps, frames...)
}

// DeserializeAnimation rebuilds an animation from JSON. atlas may be nil
// for animations stored with inline frames.
func DeserializeAnimation(data []byte, atlas Atlas) (*Animation, error) {
	args, err := codec.Decode(data)
	if err != nil {
		return nil, err
	}
	class, err := args.Class()
	if err != nil {
		return nil, err
	}
	if class != "Animation" {
		return nil, fmt.Errorf("%w: expected Animation record, got %q", codec.ErrSerial, class)
	}
	return animationFromArgs(args, atlas)
}

// ===== BUILT-IN CLASSES =====

func init() {
	RegisterClass("Widget", func(args codec.Args, _ Atlas) (Widget, error) {
		charRows, err := args.Strings("chars")
		if err != nil {
			return nil, err
		}
		colorRows, err := args.Strings("colors")
		if err != nil {
			return nil, err
		}
		w, err := New(codec.DecodeChars(charRows), codec.DecodeColors(colorRows))
		if err != nil {
			return nil, err
		}
		return w, applyZLevel(w, args)
	})

	RegisterClass("Label", func(args codec.Args, _ Atlas) (Widget, error) {
		text, err := args.String("text")
		if err != nil {
			return nil, err
		}
		width, err := args.Int("width")
		if err != nil {
			return nil, err
		}
		justName, err := args.String("justify")
		if err != nil {
			return nil, err
		}
		just, err := justifyFromString(justName)
		if err != nil {
			return nil, err
		}
		color, err := args.String("color")
		if err != nil {
			return nil, err
		}
		l, err := NewLabel(text, width, just, color)
		if err != nil {
			return nil, err
		}
		return l, applyZLevel(l, args)
	})

	RegisterClass("SwitchingWidget", func(args codec.Args, _ Atlas) (Widget, error) {
		imageArgs, err := args.Record("images")
		if err != nil {
			return nil, err
		}
		images := make(map[string]Frame, len(imageArgs))
		for name := range imageArgs {
			rec, err := imageArgs.Record(name)
			if err != nil {
				return nil, err
			}
			f, err := frameFromArgs(rec)
			if err != nil {
				return nil, err
			}
			images[name] = f
		}
		current, err := args.String("current")
		if err != nil {
			return nil, err
		}
		w, err := NewSwitchingWidget(images, current)
		if err != nil {
			return nil, err
		}
		return w, applyZLevel(w, args)
	})

	RegisterClass("SimpleAnimationWidget", func(args codec.Args, atlas Atlas) (Widget, error) {
		rec, err := args.Record("animation")
		if err != nil {
			return nil, err
		}
		anim, err := animationFromArgs(rec, atlas)
		if err != nil {
			return nil, err
		}
		w, err := NewSimpleAnimationWidget(anim)
		if err != nil {
			return nil, err
		}
		return w, applyZLevel(w, args)
	})

	RegisterClass("MultipleAnimationWidget", func(args codec.Args, atlas Atlas) (Widget, error) {
		animArgs, err := args.Record("animations")
		if err != nil {
			return nil, err
		}
		anims := make(map[string]*Animation, len(animArgs))
		for name := range animArgs {
			rec, err := animArgs.Record(name)
			if err != nil {
				return nil, err
			}
			a, err := animationFromArgs(rec, atlas)
			if err != nil {
				return nil, err
			}
			anims[name] = a
		}
		current, err := args.String("current")
		if err != nil {
			return nil, err
		}
		cycle, err := args.Bool("cycle")
		if err != nil {
			return nil, err
		}
		w, err := NewMultipleAnimationWidget(anims, current, cycle)
		if err != nil {
			return nil, err
		}
		return w, applyZLevel(w, args)
	})
}

// applyZLevel restores the optional z_level field.
func applyZLevel(w Widget, args codec.Args) error {
	if !args.Has("z_level") {
		return nil
	}
	z, err := args.Int("z_level")
	if err != nil {
		return err
	}
	w.SetZLevel(z)
	return nil
}

// Ensure the serializable built-ins keep implementing Serializer.
var (
	_ Serializer  = (*Base)(nil)
	_ Serializer  = (*Label)(nil)
	_ Serializer  = (*SwitchingWidget)(nil)
	_ Serializer  = (*SimpleAnimationWidget)(nil)
	_ Serializer  = (*MultipleAnimationWidget)(nil)
	_ Invalidator = (*Layout)(nil)
	_ Widget      = (*Layout)(nil)
	_ Widget      = (*ScrollableLayout)(nil)
	_ Widget      = (*InputScrollable)(nil)
	_ Widget      = (*InputField)(nil)
	_ Widget      = (*FPSCounter)(nil)
	_ Widget      = (*MousePosWidget)(nil)
)
