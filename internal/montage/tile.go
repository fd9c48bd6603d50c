package montage

// GridKey identifies one tile in the montage by column and row.
type GridKey struct {
	Col int
	Row int
}

// Right returns the key of the right-hand neighbor.
func (k GridKey) Right() GridKey {
	return GridKey{Col: k.Col + 1, Row: k.Row}
}

// Bottom returns the key of the bottom neighbor.
func (k GridKey) Bottom() GridKey {
	return GridKey{Col: k.Col, Row: k.Row + 1}
}

// PixelIndex is an integer pixel coordinate in montage space.
type PixelIndex struct {
	X int
	Y int
}

// TileImage is a single-channel intensity buffer positioned in montage
// coordinate space. Tiles are written once during sampling and read-only
// afterwards, so they are safe for concurrent reads.
type TileImage struct {
	Pix     []float64 // row-major, Width*Height samples
	OriginX int
	OriginY int
	Width   int
	Height  int
}

// NewTileImage allocates a zeroed tile of the given size at the given origin.
func NewTileImage(originX, originY, width, height int) *TileImage {
	return &TileImage{
		Pix:     make([]float64, width*height),
		OriginX: originX,
		OriginY: originY,
		Width:   width,
		Height:  height,
	}
}

// Contains reports whether the montage-space index falls inside the tile.
func (t *TileImage) Contains(idx PixelIndex) bool {
	return idx.X >= t.OriginX && idx.X < t.OriginX+t.Width &&
		idx.Y >= t.OriginY && idx.Y < t.OriginY+t.Height
}

// At returns the intensity at a montage-space index. The index must be
// inside the tile.
func (t *TileImage) At(idx PixelIndex) float64 {
	return t.Pix[(idx.Y-t.OriginY)*t.Width+(idx.X-t.OriginX)]
}

// Set writes the intensity at a montage-space index.
func (t *TileImage) Set(idx PixelIndex, v float64) {
	t.Pix[(idx.Y-t.OriginY)*t.Width+(idx.X-t.OriginX)] = v
}

// Bounds returns the tile's occupied rectangle in montage coordinates.
func (t *TileImage) Bounds() RegionBounds {
	return RegionBounds{
		Left:   t.OriginX,
		Top:    t.OriginY,
		Right:  t.OriginX + t.Width,
		Bottom: t.OriginY + t.Height,
	}
}

// ImageGrid maps grid keys to sampled tile images. Populated once under a
// mutex during sampling, then treated as read-only.
type ImageGrid map[GridKey]*TileImage
