package resources

import (
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"golang.org/x/text/encoding/charmap"

	"github.com/ursa-engine/ursa/grid"
)

// REXPaint .xp wire format: a gzipped stream of little-endian integers.
// Header is version and layer count; each layer is width, height, then
// width*height cells in column-major order. A cell is a 4-byte character
// code (code page 437) followed by foreground and background RGB triplets.
const (
	xpHeaderLen = 8
	xpLayerLen  = 8
	xpCellLen   = 10
)

// cp437Fixups covers the code points that IBM437 redefined from ASCII
// control codes; the charmap table decodes those to the control codes
// themselves, which no art file means.
var cp437Fixups = map[byte]rune{
	0x01: '☺', 0x02: '☻', 0x03: '♥', 0x04: '♦', 0x05: '♣', 0x06: '♠',
	0x07: '•', 0x08: '◘', 0x09: '○', 0x0a: '◙', 0x0b: '♂', 0x0c: '♀',
	0x0d: '♪', 0x0e: '♫', 0x0f: '☼', 0x10: '►', 0x11: '◄', 0x12: '↕',
	0x13: '‼', 0x14: '¶', 0x15: '§', 0x16: '▬', 0x17: '↨', 0x18: '↑',
	0x19: '↓', 0x1a: '→', 0x1b: '←', 0x1c: '∟', 0x1d: '↔', 0x1e: '▲',
	0x1f: '▼', 0x7f: '⌂',
}

func cp437Rune(code byte) rune {
	if r, ok := cp437Fixups[code]; ok {
		return r
	}
	r := charmap.CodePage437.DecodeByte(code)
	if r == 0 {
		return ' '
	}
	return r
}

type xpLayer struct {
	chars  [][]rune
	colors [][]string
}

// XpLoader reads REXPaint *.xp files. The flattened image keeps, per cell,
// the character and foreground color of the highest non-empty layer;
// background colors are dropped. Individual layers stay available through
// Layer and LayerRegion.
type XpLoader struct {
	image
	path         string
	defaultColor string
	version      int32
	layers       []xpLayer
}

// NewXpLoader checks that the file exists; it is parsed on first use.
func NewXpLoader(path, defaultColor string) (*XpLoader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	return &XpLoader{path: path, defaultColor: defaultColor}, nil
}

func (l *XpLoader) parse() error {
	if l.layers != nil {
		return nil
	}
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResource, err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrResource, l.path, err)
	}
	defer gz.Close()
	raw, err := io.ReadAll(gz)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrResource, l.path, err)
	}
	return l.decode(raw)
}

func (l *XpLoader) decode(raw []byte) error {
	if len(raw) < xpHeaderLen {
		return fmt.Errorf("%w: %s: truncated header", ErrResource, l.path)
	}
	l.version = int32(binary.LittleEndian.Uint32(raw))
	layerCount := int(binary.LittleEndian.Uint32(raw[4:]))
	offset := xpHeaderLen
	for i := 0; i < layerCount; i++ {
		if len(raw) < offset+xpLayerLen {
			return fmt.Errorf("%w: %s: truncated layer %d", ErrResource, l.path, i)
		}
		width := int(binary.LittleEndian.Uint32(raw[offset:]))
		height := int(binary.LittleEndian.Uint32(raw[offset+4:]))
		offset += xpLayerLen
		if len(raw) < offset+width*height*xpCellLen {
			return fmt.Errorf("%w: %s: truncated layer %d cells", ErrResource, l.path, i)
		}
		layer := xpLayer{
			chars:  grid.Uniform(width, height, ' '),
			colors: grid.Uniform(width, height, l.defaultColor),
		}
		// Cells are stored column-major.
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				cell := raw[offset : offset+xpCellLen]
				layer.chars[y][x] = cp437Rune(byte(binary.LittleEndian.Uint32(cell)))
				layer.colors[y][x] = fmt.Sprintf("#%02x%02x%02x", cell[4], cell[5], cell[6])
				offset += xpCellLen
			}
		}
		l.layers = append(l.layers, layer)
	}
	l.flatten()
	return nil
}

// flatten builds the single-grid image from the layer stack, topmost
// non-space cell winning.
func (l *XpLoader) flatten() {
	if len(l.layers) == 0 {
		return
	}
	bottom := l.layers[0]
	size := grid.Size(bottom.chars)
	l.chars = grid.Uniform(size.X, size.Y, ' ')
	l.colors = grid.Uniform(size.X, size.Y, l.defaultColor)
	for y := 0; y < size.Y; y++ {
		for x := 0; x < size.X; x++ {
			for i := len(l.layers) - 1; i >= 0; i-- {
				layer := l.layers[i]
				if y >= len(layer.chars) || x >= len(layer.chars[0]) {
					continue
				}
				if layer.chars[y][x] != ' ' {
					l.chars[y][x] = layer.chars[y][x]
					l.colors[y][x] = layer.colors[y][x]
					break
				}
			}
		}
	}
}

// Version returns the format version recorded in the file.
func (l *XpLoader) Version() (int32, error) {
	if err := l.parse(); err != nil {
		return 0, err
	}
	return l.version, nil
}

// LayerCount returns the number of layers in the file.
func (l *XpLoader) LayerCount() (int, error) {
	if err := l.parse(); err != nil {
		return 0, err
	}
	return len(l.layers), nil
}

// Layer returns one layer's grids.
func (l *XpLoader) Layer(i int) ([][]rune, [][]string, error) {
	if err := l.parse(); err != nil {
		return nil, nil, err
	}
	if i < 0 || i >= len(l.layers) {
		return nil, nil, fmt.Errorf("%w: %s has no layer %d", ErrResource, l.path, i)
	}
	return grid.Clone(l.layers[i].chars), grid.Clone(l.layers[i].colors), nil
}

// LayerRegion returns a rectangle of one layer.
func (l *XpLoader) LayerRegion(i int, pos, size grid.Point) ([][]rune, [][]string, error) {
	chars, colors, err := l.Layer(i)
	if err != nil {
		return nil, nil, err
	}
	full := grid.Size(chars)
	if pos.X < 0 || pos.Y < 0 || size.X <= 0 || size.Y <= 0 ||
		pos.X+size.X > full.X || pos.Y+size.Y > full.Y {
		return nil, nil, fmt.Errorf("%w: region %v+%v outside %v layer",
			ErrResource, pos, size, full)
	}
	regionChars, err := grid.Slice(chars, pos, size)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	regionColors, err := grid.Slice(colors, pos, size)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	return regionChars, regionColors, nil
}

// Image returns the flattened image.
func (l *XpLoader) Image() ([][]rune, [][]string, error) {
	if err := l.parse(); err != nil {
		return nil, nil, err
	}
	return l.whole()
}

// ImageRegion returns a rectangle of the flattened image.
func (l *XpLoader) ImageRegion(pos, size grid.Point) ([][]rune, [][]string, error) {
	if err := l.parse(); err != nil {
		return nil, nil, err
	}
	return l.region(pos, size)
}
