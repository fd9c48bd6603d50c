package montage

import (
	"fmt"
	"math"
	"sync"
)

// NominalDims returns the per-tile width and height used across the whole
// montage. Tiles in the first row/column of montages wider or taller than
// two tiles may carry extra border material, so the reference tile is taken
// one step into the interior on that axis.
func NominalDims(m Montage) (width, height int, err error) {
	col := 0
	if m.ColumnCount() > 2 {
		col = 1
	}
	row := 0
	if m.RowCount() > 2 {
		row = 1
	}
	gx, err := m.Geometry(0, col)
	if err != nil {
		return 0, 0, fmt.Errorf("nominal width: %w", err)
	}
	gy, err := m.Geometry(row, 0)
	if err != nil {
		return 0, 0, fmt.Errorf("nominal height: %w", err)
	}
	return gx.Width, gy.Height, nil
}

// SampleGrid materializes one TileImage per montage tile, in parallel, and
// returns the populated image grid. Each tile's window is
// min(tile extent, nominal extent) per axis; first-row/first-column tiles in
// montages taller/wider than two anchor the window to the trailing edge so
// edge tiles expose overlap material toward their interior neighbor.
func SampleGrid(m Montage, name string, nominalWidth, nominalHeight int) (ImageGrid, error) {
	grid := make(ImageGrid, m.RowCount()*m.ColumnCount())

	var (
		mu        sync.Mutex
		wg        sync.WaitGroup
		errOnce   sync.Once
		sampleErr error
	)
	for row := 0; row < m.RowCount(); row++ {
		for col := 0; col < m.ColumnCount(); col++ {
			wg.Add(1)
			go func(row, col int) {
				defer wg.Done()
				key, tile, err := sampleTile(m, row, col, name, nominalWidth, nominalHeight)
				if err != nil {
					errOnce.Do(func() { sampleErr = err })
					return
				}
				mu.Lock()
				grid[key] = tile
				mu.Unlock()
			}(row, col)
		}
	}
	wg.Wait()

	if sampleErr != nil {
		return nil, sampleErr
	}
	return grid, nil
}

// sampleTile copies one tile's window out of its backing intensity array.
func sampleTile(m Montage, row, col int, name string, nominalWidth, nominalHeight int) (GridKey, *TileImage, error) {
	key := GridKey{Col: col, Row: row}

	geom, err := m.Geometry(row, col)
	if err != nil {
		return key, nil, fmt.Errorf("sample tile (%d,%d): %w", col, row, err)
	}
	data, err := m.Intensity(row, col, name)
	if err != nil {
		return key, nil, fmt.Errorf("sample tile (%d,%d): %w", col, row, err)
	}

	// Treat the montage as if it had spacing 1 so integer pixel indices line up.
	xOrigin := int(math.Round(geom.OriginX / geom.SpacingX))
	yOrigin := int(math.Round(geom.OriginY / geom.SpacingY))

	tileWidth := min(geom.Width, nominalWidth)
	tileHeight := min(geom.Height, nominalHeight)

	offsetX, offsetY := 0, 0
	if row == 0 && m.RowCount() > 2 {
		yOrigin = yOrigin + geom.Height - tileHeight
		offsetY = geom.Height - tileHeight
	}
	if col == 0 && m.ColumnCount() > 2 {
		xOrigin = xOrigin + geom.Width - tileWidth
		offsetX = geom.Width - tileWidth
	}

	tile := NewTileImage(xOrigin, yOrigin, tileWidth, tileHeight)
	for y := 0; y < tileHeight; y++ {
		srcRow := (y + offsetY) * geom.Width
		dstRow := y * tileWidth
		for x := 0; x < tileWidth; x++ {
			tile.Pix[dstRow+x] = data[srcRow+x+offsetX]
		}
	}
	return key, tile, nil
}
