package widget

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/ursa-engine/ursa/event"
	"github.com/ursa-engine/ursa/grid"
)

// Justify selects the horizontal text alignment inside a Label.
type Justify int

const (
	JustifyLeft Justify = iota
	JustifyCenter
	JustifyRight
)

func (j Justify) String() string {
	switch j {
	case JustifyLeft:
		return "left"
	case JustifyCenter:
		return "center"
	case JustifyRight:
		return "right"
	default:
		return "unknown"
	}
}

func justifyFromString(s string) (Justify, error) {
	switch s {
	case "left":
		return JustifyLeft, nil
	case "center":
		return JustifyCenter, nil
	case "right":
		return JustifyRight, nil
	default:
		return 0, fmt.Errorf("%w: unknown justification %q", ErrWidget, s)
	}
}

// ===== LABEL =====

// Label is a fixed-size single-color text widget. Lines are split on
// newlines; columns are counted with runewidth so wide runes take two
// cells and never overflow the frame.
type Label struct {
	Base
	text    string
	justify Justify
	color   string
	width   int
}

// NewLabel builds a label. width 0 sizes the frame to the widest line; an
// explicit width fixes the frame, and all future text must fit it. The
// label's height is the initial line count and never changes.
func NewLabel(text string, width int, justify Justify, color string) (*Label, error) {
	if color == "" {
		color = DefaultColor
	}
	lines := strings.Split(text, "\n")
	if width == 0 {
		for _, line := range lines {
			if w := runewidth.StringWidth(line); w > width {
				width = w
			}
		}
	}
	if width <= 0 {
		return nil, fmt.Errorf("%w: label with zero width", ErrWidget)
	}
	l := &Label{justify: justify, color: color, width: width}
	l.Base = Base{
		chars:  grid.Uniform(width, len(lines), ' '),
		colors: grid.Uniform(width, len(lines), color),
	}
	if err := l.SetText(text); err != nil {
		return nil, err
	}
	return l, nil
}

// Text returns the current text.
func (l *Label) Text() string { return l.text }

// Color returns the text color.
func (l *Label) Color() string { return l.color }

// SetText replaces the label's text. The new text must fit the frame both
// in line count and in line width.
func (l *Label) SetText(text string) error {
	lines := strings.Split(text, "\n")
	if len(lines) > l.Size().Y {
		return fmt.Errorf("%w: %d lines of text in a %d-line label",
			ErrWidget, len(lines), l.Size().Y)
	}
	rendered := make([][]rune, l.Size().Y)
	for y := range rendered {
		var line string
		if y < len(lines) {
			line = lines[y]
		}
		row, err := l.renderLine(line)
		if err != nil {
			return err
		}
		rendered[y] = row
	}
	for y := range rendered {
		copy(l.chars[y], rendered[y])
	}
	l.text = text
	l.Touch()
	return nil
}

// renderLine lays out one line into a width-sized rune row. A wide rune
// occupies its cell plus a space filler in the following cell.
func (l *Label) renderLine(line string) ([]rune, error) {
	w := runewidth.StringWidth(line)
	if w > l.width {
		return nil, fmt.Errorf("%w: line %q is %d cells wide in a %d-cell label",
			ErrWidget, line, w, l.width)
	}
	offset := 0
	switch l.justify {
	case JustifyCenter:
		offset = (l.width - w) / 2
	case JustifyRight:
		offset = l.width - w
	}
	row := make([]rune, l.width)
	for i := range row {
		row[i] = ' '
	}
	col := offset
	for _, r := range line {
		row[col] = r
		col += runewidth.RuneWidth(r)
	}
	return row, nil
}

// WidgetFields serializes the label under the "Label" class.
func (l *Label) WidgetFields() (string, map[string]any, error) {
	return "Label", map[string]any{
		"text":    l.text,
		"width":   l.width,
		"height":  l.Size().Y,
		"justify": l.justify.String(),
		"color":   l.color,
		"z_level": l.ZLevel(),
	}, nil
}

// ===== INPUT FIELD =====

// KeyRunes maps key identifiers to their plain and shifted runes, US
// layout. The terminal backend uses the same table in reverse to name
// incoming runes.
var KeyRunes = map[string][2]rune{
	"TK_A": {'a', 'A'}, "TK_B": {'b', 'B'}, "TK_C": {'c', 'C'},
	"TK_D": {'d', 'D'}, "TK_E": {'e', 'E'}, "TK_F": {'f', 'F'},
	"TK_G": {'g', 'G'}, "TK_H": {'h', 'H'}, "TK_I": {'i', 'I'},
	"TK_J": {'j', 'J'}, "TK_K": {'k', 'K'}, "TK_L": {'l', 'L'},
	"TK_M": {'m', 'M'}, "TK_N": {'n', 'N'}, "TK_O": {'o', 'O'},
	"TK_P": {'p', 'P'}, "TK_Q": {'q', 'Q'}, "TK_R": {'r', 'R'},
	"TK_S": {'s', 'S'}, "TK_T": {'t', 'T'}, "TK_U": {'u', 'U'},
	"TK_V": {'v', 'V'}, "TK_W": {'w', 'W'}, "TK_X": {'x', 'X'},
	"TK_Y": {'y', 'Y'}, "TK_Z": {'z', 'Z'},
	"TK_0": {'0', ')'}, "TK_1": {'1', '!'}, "TK_2": {'2', '@'},
	"TK_3": {'3', '#'}, "TK_4": {'4', '$'}, "TK_5": {'5', '%'},
	"TK_6": {'6', '^'}, "TK_7": {'7', '&'}, "TK_8": {'8', '*'},
	"TK_9": {'9', '('},
	"TK_SPACE":      {' ', ' '},
	"TK_MINUS":      {'-', '_'},
	"TK_EQUALS":     {'=', '+'},
	"TK_COMMA":      {',', '<'},
	"TK_PERIOD":     {'.', '>'},
	"TK_SLASH":      {'/', '?'},
	"TK_SEMICOLON":  {';', ':'},
	"TK_APOSTROPHE": {'\'', '"'},
	"TK_LBRACKET":   {'[', '{'},
	"TK_RBRACKET":   {']', '}'},
	"TK_BACKSLASH":  {'\\', '|'},
	"TK_GRAVE":      {'`', '~'},
}

// InputField is a single-line text entry widget. Key presses append to the
// buffer while it fits the frame; backspace deletes; enter emits the text
// as a text_input event and clears the buffer.
type InputField struct {
	Label
	buf   []rune
	shift bool
}

// NewInputField builds an empty single-line input field of a fixed width.
func NewInputField(width int, color string) (*InputField, error) {
	label, err := NewLabel("", width, JustifyLeft, color)
	if err != nil {
		return nil, err
	}
	return &InputField{Label: *label}, nil
}

// Value returns the currently typed text.
func (f *InputField) Value() string { return string(f.buf) }

// OnEvent implements the typing behavior.
func (f *InputField) OnEvent(ev event.Event) []event.Event {
	switch ev.Type {
	case event.TypeKeyUp:
		if ev.Value == "TK_SHIFT" {
			f.shift = false
		}
	case event.TypeKeyDown:
		code, _ := ev.Value.(string)
		switch code {
		case "TK_SHIFT":
			f.shift = true
		case "TK_BACKSPACE":
			if len(f.buf) > 0 {
				f.buf = f.buf[:len(f.buf)-1]
				f.SetText(string(f.buf))
			}
		case "TK_RETURN", "TK_ENTER":
			text := string(f.buf)
			f.buf = f.buf[:0]
			f.SetText("")
			return []event.Event{{Type: event.TypeTextInput, Value: text}}
		default:
			pair, ok := KeyRunes[code]
			if !ok {
				return nil
			}
			r := pair[0]
			if f.shift {
				r = pair[1]
			}
			if len(f.buf) >= f.width {
				return nil
			}
			f.buf = append(f.buf, r)
			f.SetText(string(f.buf))
		}
	}
	return nil
}

// WidgetFields rejects serialization: an input field is transient UI
// state.
func (f *InputField) WidgetFields() (string, map[string]any, error) {
	return "", nil, fmt.Errorf("%w: input fields are not serializable", ErrWidget)
}
