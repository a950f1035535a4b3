package resources

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ursa-engine/ursa/grid"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

// ===== TXT =====

func TestTxtLoader(t *testing.T) {
	path := writeFile(t, "art.txt", []byte("abc\ndef\nghi\n"))
	l, err := NewTxtLoader(path, "red")
	if err != nil {
		t.Fatalf("building loader: %v", err)
	}
	chars, colors, err := l.Image()
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if grid.Size(chars) != (grid.Point{X: 3, Y: 3}) {
		t.Fatalf("size: %v", grid.Size(chars))
	}
	if chars[1][2] != 'f' || colors[1][2] != "red" {
		t.Errorf("cell (2,1): %q %q", chars[1][2], colors[1][2])
	}
	rc, _, err := l.ImageRegion(grid.Point{X: 1, Y: 1}, grid.Point{X: 2, Y: 2})
	if err != nil {
		t.Fatalf("region: %v", err)
	}
	if string(rc[0]) != "ef" || string(rc[1]) != "hi" {
		t.Errorf("region rows: %q %q", string(rc[0]), string(rc[1]))
	}
}

func TestTxtLoaderErrors(t *testing.T) {
	if _, err := NewTxtLoader("no/such/file.txt", "white"); !errors.Is(err, ErrResource) {
		t.Errorf("missing file: %v", err)
	}
	ragged := writeFile(t, "ragged.txt", []byte("abc\nde\n"))
	l, _ := NewTxtLoader(ragged, "white")
	if _, _, err := l.Image(); !errors.Is(err, ErrResource) {
		t.Errorf("ragged lines should fail: %v", err)
	}
	ok := writeFile(t, "ok.txt", []byte("ab\ncd\n"))
	l, _ = NewTxtLoader(ok, "white")
	if _, _, err := l.ImageRegion(grid.Point{X: 1, Y: 1}, grid.Point{X: 2, Y: 2}); !errors.Is(err, ErrResource) {
		t.Errorf("oversized region should fail: %v", err)
	}
}

// ===== XP =====

// xpTestLayer is written column-major with a uniform foreground color, the
// way REXPaint stores layers.
type xpTestLayer struct {
	rows []string
	rgb  [3]byte
}

func writeXpFile(t *testing.T, layers ...xpTestLayer) string {
	t.Helper()
	var payload bytes.Buffer
	le := binary.LittleEndian
	u32 := func(v uint32) {
		var b [4]byte
		le.PutUint32(b[:], v)
		payload.Write(b[:])
	}
	u32(1) // format version
	u32(uint32(len(layers)))
	for _, layer := range layers {
		height := len(layer.rows)
		width := len(layer.rows[0])
		u32(uint32(width))
		u32(uint32(height))
		for x := 0; x < width; x++ {
			for y := 0; y < height; y++ {
				u32(uint32(layer.rows[y][x]))
				payload.Write(layer.rgb[:])
				payload.Write([]byte{255, 0, 255}) // background, ignored
			}
		}
	}
	var gzipped bytes.Buffer
	zw := gzip.NewWriter(&gzipped)
	zw.Write(payload.Bytes())
	zw.Close()
	return writeFile(t, "art.xp", gzipped.Bytes())
}

func TestXpLoaderSingleLayer(t *testing.T) {
	path := writeXpFile(t, xpTestLayer{rows: []string{"ab", "cd"}, rgb: [3]byte{255, 0, 0}})
	l, err := NewXpLoader(path, "white")
	if err != nil {
		t.Fatalf("building loader: %v", err)
	}
	chars, colors, err := l.Image()
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if string(chars[0]) != "ab" || string(chars[1]) != "cd" {
		t.Errorf("rows: %q %q", string(chars[0]), string(chars[1]))
	}
	if colors[0][0] != "#ff0000" {
		t.Errorf("color: %q", colors[0][0])
	}
	if n, _ := l.LayerCount(); n != 1 {
		t.Errorf("layer count: %d", n)
	}
}

func TestXpLoaderFlattensTopmostLayer(t *testing.T) {
	path := writeXpFile(t,
		xpTestLayer{rows: []string{"ab", "cd"}, rgb: [3]byte{255, 0, 0}},
		xpTestLayer{rows: []string{" X", "  "}, rgb: [3]byte{0, 255, 0}},
	)
	l, _ := NewXpLoader(path, "white")
	chars, colors, err := l.Image()
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if chars[0][1] != 'X' || colors[0][1] != "#00ff00" {
		t.Errorf("top layer should win: %q %q", chars[0][1], colors[0][1])
	}
	if chars[0][0] != 'a' || colors[0][0] != "#ff0000" {
		t.Errorf("transparent top cells fall through: %q %q", chars[0][0], colors[0][0])
	}
	lc, _, err := l.Layer(0)
	if err != nil {
		t.Fatalf("layer: %v", err)
	}
	if lc[0][1] != 'b' {
		t.Errorf("bottom layer should stay intact: %q", lc[0][1])
	}
	if _, _, err := l.Layer(5); !errors.Is(err, ErrResource) {
		t.Errorf("missing layer: %v", err)
	}
	rc, _, err := l.LayerRegion(0, grid.Point{X: 1, Y: 0}, grid.Point{X: 1, Y: 2})
	if err != nil {
		t.Fatalf("layer region: %v", err)
	}
	if rc[0][0] != 'b' || rc[1][0] != 'd' {
		t.Errorf("layer region: %q %q", rc[0][0], rc[1][0])
	}
	if _, _, err := l.LayerRegion(0, grid.Point{X: 1, Y: 1}, grid.Point{X: 5, Y: 5}); !errors.Is(err, ErrResource) {
		t.Errorf("oversized layer region: %v", err)
	}
}

func TestXpLoaderDecodesCP437(t *testing.T) {
	path := writeXpFile(t, xpTestLayer{rows: []string{"\x03\x01"}, rgb: [3]byte{1, 2, 3}})
	l, _ := NewXpLoader(path, "white")
	chars, colors, err := l.Image()
	if err != nil {
		t.Fatalf("image: %v", err)
	}
	if chars[0][0] != '♥' || chars[0][1] != '☺' {
		t.Errorf("control-range art glyphs: %q %q", chars[0][0], chars[0][1])
	}
	if colors[0][0] != "#010203" {
		t.Errorf("channels should be zero-padded: %q", colors[0][0])
	}
}

func TestXpLoaderRejectsGarbage(t *testing.T) {
	path := writeFile(t, "bad.xp", []byte("not gzip at all"))
	l, _ := NewXpLoader(path, "white")
	if _, _, err := l.Image(); !errors.Is(err, ErrResource) {
		t.Errorf("plain text is not an xp file: %v", err)
	}
}

// ===== ATLAS =====

func TestAtlas(t *testing.T) {
	art := writeFile(t, "art.txt", []byte("abcd\nefgh\n"))
	index := writeFile(t, "atlas.json", []byte(
		`[{"name": "left", "x": 0, "y": 0, "xsize": 2, "ysize": 2},
		  {"name": "right", "x": 2, "y": 0, "xsize": 2, "ysize": 2}]`))
	loader, _ := NewTxtLoader(art, "white")
	atlas, err := NewAtlas(loader, index)
	if err != nil {
		t.Fatalf("building atlas: %v", err)
	}
	chars, colors, err := atlas.Element("right")
	if err != nil {
		t.Fatalf("element: %v", err)
	}
	if string(chars[0]) != "cd" || string(chars[1]) != "gh" {
		t.Errorf("element rows: %q %q", string(chars[0]), string(chars[1]))
	}
	if colors[0][0] != "white" {
		t.Errorf("element color: %q", colors[0][0])
	}
	if _, _, err := atlas.Element("middle"); !errors.Is(err, ErrResource) {
		t.Errorf("unknown element: %v", err)
	}
}

func TestAtlasRejectsBadIndex(t *testing.T) {
	art := writeFile(t, "art.txt", []byte("ab\n"))
	loader, _ := NewTxtLoader(art, "white")
	bad := writeFile(t, "bad.json", []byte(`{"name": "not-a-list"}`))
	if _, err := NewAtlas(loader, bad); !errors.Is(err, ErrResource) {
		t.Errorf("non-list index: %v", err)
	}
	anon := writeFile(t, "anon.json", []byte(`[{"x": 1}]`))
	if _, err := NewAtlas(loader, anon); !errors.Is(err, ErrResource) {
		t.Errorf("nameless element: %v", err)
	}
}
