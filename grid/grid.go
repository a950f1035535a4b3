// Package grid holds the small geometry and 2D-slice helpers shared by the
// widget, scene and resource packages. Grids are row-major: g[y][x].
package grid

import (
	"errors"
	"fmt"
)

// ErrBounds is wrapped by every out-of-range or shape-mismatch error
// returned from this package.
var ErrBounds = errors.New("grid: out of bounds")

// Point is a cell coordinate or a 2D size, in character cells.
type Point struct {
	X int
	Y int
}

// Add returns the element-wise sum of two points.
func (p Point) Add(q Point) Point {
	return Point{p.X + q.X, p.Y + q.Y}
}

// Neg returns the point with both coordinates negated.
func (p Point) Neg() Point {
	return Point{-p.X, -p.Y}
}

// ===== SHAPE HELPERS =====

// Rectangular reports whether every row of g has the same length and the
// grid is non-empty.
func Rectangular[T any](g [][]T) bool {
	if len(g) == 0 || len(g[0]) == 0 {
		return false
	}
	w := len(g[0])
	for _, row := range g {
		if len(row) != w {
			return false
		}
	}
	return true
}

// ShapesEqual reports whether two grids have identical row and column
// counts. Cell contents are not compared.
func ShapesEqual[T, U any](a [][]T, b [][]U) bool {
	if len(a) != len(b) {
		return false
	}
	for y := range a {
		if len(a[y]) != len(b[y]) {
			return false
		}
	}
	return true
}

// Size returns the width and height of a grid. An empty grid is (0, 0).
func Size[T any](g [][]T) Point {
	if len(g) == 0 {
		return Point{}
	}
	return Point{len(g[0]), len(g)}
}

// CopyShape returns a new grid with the same shape as src, every cell set
// to fill.
func CopyShape[T, U any](src [][]T, fill U) [][]U {
	out := make([][]U, len(src))
	for y := range src {
		out[y] = make([]U, len(src[y]))
		for x := range out[y] {
			out[y][x] = fill
		}
	}
	return out
}

// Clone returns a deep copy of src.
func Clone[T any](src [][]T) [][]T {
	out := make([][]T, len(src))
	for y := range src {
		out[y] = append([]T(nil), src[y]...)
	}
	return out
}

// Uniform returns a w by h grid with every cell set to fill.
func Uniform[T any](w, h int, fill T) [][]T {
	out := make([][]T, h)
	for y := range out {
		out[y] = make([]T, w)
		for x := range out[y] {
			out[y][x] = fill
		}
	}
	return out
}

// Slice returns a deep copy of the size-sized region of src whose top left
// corner is at pos.
func Slice[T any](src [][]T, pos, size Point) ([][]T, error) {
	if !Rectangular(src) {
		return nil, fmt.Errorf("%w: slicing a non-rectangular grid", ErrBounds)
	}
	s := Size(src)
	if pos.X < 0 || pos.Y < 0 || size.X <= 0 || size.Y <= 0 ||
		pos.X+size.X > s.X || pos.Y+size.Y > s.Y {
		return nil, fmt.Errorf("%w: slice %v+%v of %v grid", ErrBounds, pos, size, s)
	}
	out := make([][]T, size.Y)
	for y := range out {
		out[y] = append([]T(nil), src[pos.Y+y][pos.X:pos.X+size.X]...)
	}
	return out, nil
}

// Rotate transposes a rectangular grid: out[y][x] == src[x][y]. Useful for
// converting column-major image data to the row-major layout used here.
func Rotate[T any](src [][]T) ([][]T, error) {
	if !Rectangular(src) {
		return nil, fmt.Errorf("%w: rotating a non-rectangular grid", ErrBounds)
	}
	out := make([][]T, len(src[0]))
	for y := range out {
		out[y] = make([]T, len(src))
		for x := range out[y] {
			out[y][x] = src[x][y]
		}
	}
	return out, nil
}

// Blit copies src into dst with src's top left corner at pos. src must fit
// entirely inside dst.
func Blit[T any](dst, src [][]T, pos Point) error {
	ds, ss := Size(dst), Size(src)
	if pos.X < 0 || pos.Y < 0 || pos.X+ss.X > ds.X || pos.Y+ss.Y > ds.Y {
		return fmt.Errorf("%w: blitting %v grid at %v into %v grid", ErrBounds, ss, pos, ds)
	}
	for y := range src {
		copy(dst[pos.Y+y][pos.X:], src[y])
	}
	return nil
}

// Rows builds a rune grid from text lines, right-padding shorter lines
// with spaces so the result is rectangular.
func Rows(lines ...string) [][]rune {
	w := 0
	rows := make([][]rune, len(lines))
	for i, l := range lines {
		rows[i] = []rune(l)
		if len(rows[i]) > w {
			w = len(rows[i])
		}
	}
	for i := range rows {
		for len(rows[i]) < w {
			rows[i] = append(rows[i], ' ')
		}
	}
	return rows
}

// RectanglesCollide reports whether two axis-aligned rectangles overlap in
// at least one cell. Touching edges do not count as overlap.
func RectanglesCollide(pos1, size1, pos2, size2 Point) bool {
	if pos1.X+size1.X <= pos2.X || pos2.X+size2.X <= pos1.X {
		return false
	}
	if pos1.Y+size1.Y <= pos2.Y || pos2.Y+size2.Y <= pos1.Y {
		return false
	}
	return true
}
