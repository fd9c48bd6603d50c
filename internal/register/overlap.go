package register

import (
	"montagereg/internal/dewarp"
	"montagereg/internal/montage"
)

// resampleOverlap reconstructs the two same-shaped overlap images of a pair
// under a trial parameter vector. The second (right/bottom) tile is sampled
// directly in its own frame; the first (left/top) tile is reconstructed
// through the inverse dewarp mapping. Pixels whose mapped source coordinate
// falls outside the first tile stay zero and tighten the valid region, and
// both images are then cropped to the tightened rectangle so that only
// pixels present in both frames are scored.
func resampleOverlap(pair montage.OverlapPair, grid montage.ImageGrid, model dewarp.Model, params []float64, nominalWidth, nominalHeight int) (first, second *montage.TileImage) {
	region := pair.Region
	firstTile := grid[pair.First]
	secondTile := grid[pair.Second]

	offset := montage.PixelIndex{
		X: (nominalWidth-1)/2 - region.Left,
		Y: (nominalHeight-1)/2 - region.Top,
	}

	firstImg := montage.NewTileImage(region.Left, region.Top, region.Width(), region.Height())
	secondImg := montage.NewTileImage(region.Left, region.Top, region.Width(), region.Height())

	valid := region
	firstBounds := firstTile.Bounds()
	secondBounds := secondTile.Bounds()

	for y := region.Top; y < region.Bottom; y++ {
		for x := region.Left; x < region.Right; x++ {
			idx := montage.PixelIndex{X: x, Y: y}

			// Direct sample from the second tile's own frame. The region is
			// built from this tile's bounds, so the containment check only
			// guards against degenerate geometry.
			if secondBounds.Contains(idx) {
				secondImg.Set(idx, secondTile.At(idx))
			}

			old := model.OldIndex(idx, offset, params)
			if firstBounds.Contains(old) {
				firstImg.Set(idx, firstTile.At(old))
			} else {
				valid = contractBounds(valid, region, idx)
			}
		}
	}

	return cropOverlap(firstImg, valid), cropOverlap(secondImg, valid)
}

// contractBounds tightens whichever edge of the valid rectangle is nearest
// to an invalid pixel, pulling it toward the interior. Ties resolve in the
// order top, bottom, left, right.
func contractBounds(valid, region montage.RegionBounds, idx montage.PixelIndex) montage.RegionBounds {
	distTop := idx.Y - region.Top
	distBot := region.Bottom - idx.Y
	distLeft := idx.X - region.Left
	distRight := region.Right - idx.X

	switch {
	case distTop <= distBot && distTop <= distLeft && distTop <= distRight:
		valid.Top = max(valid.Top, idx.Y)
	case distBot <= distLeft && distBot <= distRight:
		valid.Bottom = min(valid.Bottom, idx.Y)
	case distLeft <= distRight:
		valid.Left = max(valid.Left, idx.X)
	default:
		valid.Right = min(valid.Right, idx.X)
	}
	return valid
}

// cropOverlap copies the window described by bounds out of an overlap image.
// An empty window yields a zero-size image.
func cropOverlap(img *montage.TileImage, bounds montage.RegionBounds) *montage.TileImage {
	if bounds.Empty() {
		return montage.NewTileImage(bounds.Left, bounds.Top, 0, 0)
	}
	out := montage.NewTileImage(bounds.Left, bounds.Top, bounds.Width(), bounds.Height())
	for y := bounds.Top; y < bounds.Bottom; y++ {
		for x := bounds.Left; x < bounds.Right; x++ {
			idx := montage.PixelIndex{X: x, Y: y}
			out.Set(idx, img.At(idx))
		}
	}
	return out
}
