package montage

// RegionBounds describes an axis-aligned occupied rectangle in montage
// coordinates. Right and Bottom are exclusive.
type RegionBounds struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// Width returns Right-Left, which may be negative for a degenerate region.
func (b RegionBounds) Width() int { return b.Right - b.Left }

// Height returns Bottom-Top, which may be negative for a degenerate region.
func (b RegionBounds) Height() int { return b.Bottom - b.Top }

// Empty reports whether the region contains no pixels.
func (b RegionBounds) Empty() bool { return b.Width() <= 0 || b.Height() <= 0 }

// Contains reports whether the index lies inside the region.
func (b RegionBounds) Contains(idx PixelIndex) bool {
	return idx.X >= b.Left && idx.X < b.Right && idx.Y >= b.Top && idx.Y < b.Bottom
}

// BoundsCatalog records each tile's occupied region, derived once from the
// sampled image grid.
type BoundsCatalog map[GridKey]RegionBounds

// CatalogBounds derives the per-tile region bounds from a populated grid.
func CatalogBounds(grid ImageGrid) BoundsCatalog {
	catalog := make(BoundsCatalog, len(grid))
	for key, tile := range grid {
		catalog[key] = tile.Bounds()
	}
	return catalog
}

// OverlapPair is an ordered pair of axis-adjacent tiles together with the
// rectangle where their content is expected to coincide. First plays the
// left/top role, Second the right/bottom role.
type OverlapPair struct {
	First  GridKey
	Second GridKey
	Region RegionBounds
}

// BuildOverlapPairs emits one pair per right and bottom adjacency present in
// the catalog. Diagonal neighbors never pair, and boundary tiles simply have
// fewer pairs.
func BuildOverlapPairs(catalog BoundsCatalog) []OverlapPair {
	var pairs []OverlapPair
	for key, bounds := range catalog {
		if right, ok := catalog[key.Right()]; ok {
			pairs = append(pairs, OverlapPair{
				First:  key,
				Second: key.Right(),
				Region: rightOverlapRegion(bounds, right),
			})
		}
		if bottom, ok := catalog[key.Bottom()]; ok {
			pairs = append(pairs, OverlapPair{
				First:  key,
				Second: key.Bottom(),
				Region: bottomOverlapRegion(bounds, bottom),
			})
		}
	}
	return pairs
}

// rightOverlapRegion spans from the right tile's left edge to the left
// tile's right edge, intersecting the vertical extents.
func rightOverlapRegion(left, right RegionBounds) RegionBounds {
	return RegionBounds{
		Left:   right.Left,
		Top:    max(left.Top, right.Top),
		Right:  left.Right,
		Bottom: min(left.Bottom, right.Bottom),
	}
}

// bottomOverlapRegion spans from the bottom tile's top edge to the top
// tile's bottom edge, intersecting the horizontal extents.
func bottomOverlapRegion(top, bottom RegionBounds) RegionBounds {
	return RegionBounds{
		Left:   max(top.Left, bottom.Left),
		Top:    bottom.Top,
		Right:  min(top.Right, bottom.Right),
		Bottom: top.Bottom,
	}
}
