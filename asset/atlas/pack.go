package atlas

import (
	"fmt"
	"image"
	"sort"
)

type packItem struct {
	name string
	size image.Point
}

// Pack places rectangles into a single width x height bin using a shelf
// strategy. Items are grouped by height (tallest first, ties broken by width
// then name) so the result only depends on the input set.
func Pack(width, height int, sizes map[string]image.Point) (map[string]image.Rectangle, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}

	items := make([]packItem, 0, len(sizes))
	for name, size := range sizes {
		if size.X <= 0 || size.Y <= 0 {
			return nil, fmt.Errorf("%w: texture %q is %dx%d", ErrInvalidSize, name, size.X, size.Y)
		}
		items = append(items, packItem{name: name, size: size})
	}
	sort.Slice(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.size.Y != b.size.Y {
			return a.size.Y > b.size.Y
		}
		if a.size.X != b.size.X {
			return a.size.X > b.size.X
		}
		return a.name < b.name
	})

	placements := make(map[string]image.Rectangle, len(items))
	var shelfY, shelfHeight, cursorX int
	for _, item := range items {
		if item.size.X > width {
			return nil, fmt.Errorf("%w: texture %q is wider than the atlas", ErrPackFailed, item.name)
		}

		if cursorX+item.size.X > width {
			shelfY += shelfHeight
			shelfHeight, cursorX = 0, 0
		}
		if shelfHeight == 0 {
			shelfHeight = item.size.Y
		}
		if shelfY+item.size.Y > height {
			return nil, fmt.Errorf("%w: no room for %q in a %dx%d atlas", ErrPackFailed, item.name, width, height)
		}

		placements[item.name] = image.Rectangle{
			Min: image.Pt(cursorX, shelfY),
			Max: image.Pt(cursorX+item.size.X, shelfY+item.size.Y),
		}
		cursorX += item.size.X
	}
	return placements, nil
}
