// Package resources loads ASCII art from the supported file formats and
// slices it into named atlas elements.
package resources

import (
	"bufio"
	"errors"
	"fmt"
	"os"

	"github.com/ursa-engine/ursa/grid"
)

// ErrResource is wrapped by every error of this package.
var ErrResource = errors.New("resource error")

// Loader hands out a loaded image, whole or in regions. The widget and
// scene code is agnostic to the underlying file format.
type Loader interface {
	Image() (chars [][]rune, colors [][]string, err error)
	ImageRegion(pos, size grid.Point) (chars [][]rune, colors [][]string, err error)
}

// image is the loaded-grid half of a loader; the format-specific types do
// the parsing and leave their result here.
type image struct {
	chars  [][]rune
	colors [][]string
}

func (i *image) loaded() bool { return i.chars != nil }

func (i *image) whole() ([][]rune, [][]string, error) {
	if !i.loaded() {
		return nil, nil, fmt.Errorf("%w: loader is empty", ErrResource)
	}
	return grid.Clone(i.chars), grid.Clone(i.colors), nil
}

func (i *image) region(pos, size grid.Point) ([][]rune, [][]string, error) {
	if !i.loaded() {
		return nil, nil, fmt.Errorf("%w: loader is empty", ErrResource)
	}
	full := grid.Size(i.chars)
	if pos.X < 0 || pos.Y < 0 || size.X <= 0 || size.Y <= 0 ||
		pos.X+size.X > full.X || pos.Y+size.Y > full.Y {
		return nil, nil, fmt.Errorf("%w: region %v+%v outside %v image",
			ErrResource, pos, size, full)
	}
	chars, err := grid.Slice(i.chars, pos, size)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	colors, err := grid.Slice(i.colors, pos, size)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	return chars, colors, nil
}

// ===== TXT =====

// TxtLoader reads plain text files. The format stores no colors, so every
// cell gets the loader's default color.
type TxtLoader struct {
	image
	path         string
	defaultColor string
}

// NewTxtLoader checks that the file exists; it is read on first use.
func NewTxtLoader(path, defaultColor string) (*TxtLoader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	return &TxtLoader{path: path, defaultColor: defaultColor}, nil
}

func (l *TxtLoader) load() error {
	if l.loaded() {
		return nil
	}
	f, err := os.Open(l.path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrResource, err)
	}
	defer f.Close()
	var chars [][]rune
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		row := []rune(sc.Text())
		if len(chars) > 0 && len(row) != len(chars[0]) {
			return fmt.Errorf("%w: %s: lines differ in length", ErrResource, l.path)
		}
		chars = append(chars, row)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrResource, err)
	}
	if len(chars) == 0 {
		return fmt.Errorf("%w: %s is empty", ErrResource, l.path)
	}
	l.chars = chars
	l.colors = grid.CopyShape(chars, l.defaultColor)
	return nil
}

// Image returns the whole file as a grid.
func (l *TxtLoader) Image() ([][]rune, [][]string, error) {
	if err := l.load(); err != nil {
		return nil, nil, err
	}
	return l.whole()
}

// ImageRegion returns a rectangle of the file.
func (l *TxtLoader) ImageRegion(pos, size grid.Point) ([][]rune, [][]string, error) {
	if err := l.load(); err != nil {
		return nil, nil, err
	}
	return l.region(pos, size)
}
