package resources

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ursa-engine/ursa/grid"
	"github.com/ursa-engine/ursa/widget"
)

// Atlas names rectangular regions of a loader's image, as described by a
// JSON file of {name, x, y, xsize, ysize} records.
type Atlas struct {
	loader   Loader
	elements map[string]atlasElement
}

type atlasElement struct {
	Name  string `json:"name"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	XSize int    `json:"xsize"`
	YSize int    `json:"ysize"`
}

// NewAtlas parses the JSON index immediately; the image itself loads
// whenever the loader decides to.
func NewAtlas(loader Loader, indexPath string) (*Atlas, error) {
	data, err := os.ReadFile(indexPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResource, err)
	}
	var items []atlasElement
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrResource, indexPath, err)
	}
	a := &Atlas{loader: loader, elements: make(map[string]atlasElement, len(items))}
	for _, item := range items {
		if item.Name == "" {
			return nil, fmt.Errorf("%w: %s: element without a name", ErrResource, indexPath)
		}
		a.elements[item.Name] = item
	}
	return a, nil
}

// Element returns a named region's grids.
func (a *Atlas) Element(name string) ([][]rune, [][]string, error) {
	el, ok := a.elements[name]
	if !ok {
		return nil, nil, fmt.Errorf("%w: no atlas element %q", ErrResource, name)
	}
	return a.loader.ImageRegion(grid.Point{X: el.X, Y: el.Y}, grid.Point{X: el.XSize, Y: el.YSize})
}

var (
	_ widget.Atlas = (*Atlas)(nil)
	_ Loader       = (*TxtLoader)(nil)
	_ Loader       = (*XpLoader)(nil)
)
