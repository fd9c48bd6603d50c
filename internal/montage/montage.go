package montage

import "fmt"

// TileGeometry describes one tile's placement in the montage: pixel
// dimensions, physical origin and spacing. Origins are divided by spacing
// during sampling so the whole montage behaves as a spacing-1 index space.
type TileGeometry struct {
	Width    int
	Height   int
	OriginX  float64
	OriginY  float64
	SpacingX float64
	SpacingY float64
}

// Montage exposes the grid topology and per-tile intensity data consumed
// during cost-function initialization.
type Montage interface {
	RowCount() int
	ColumnCount() int
	Geometry(row, col int) (TileGeometry, error)
	// Intensity returns the named per-tile intensity array in row-major
	// order, one sample per pixel.
	Intensity(row, col int, name string) ([]float64, error)
}

// DataMontage is an in-memory Montage used by the CLI and tests.
type DataMontage struct {
	rows  int
	cols  int
	tiles map[GridKey]*dataTile
}

type dataTile struct {
	geom   TileGeometry
	arrays map[string][]float64
}

// NewDataMontage creates an empty rows x cols montage.
func NewDataMontage(rows, cols int) *DataMontage {
	return &DataMontage{
		rows:  rows,
		cols:  cols,
		tiles: make(map[GridKey]*dataTile),
	}
}

// SetTile registers a tile's geometry and intensity array under the given name.
func (m *DataMontage) SetTile(row, col int, geom TileGeometry, name string, data []float64) error {
	if row < 0 || row >= m.rows || col < 0 || col >= m.cols {
		return fmt.Errorf("tile (%d,%d) outside %dx%d montage", col, row, m.rows, m.cols)
	}
	if len(data) != geom.Width*geom.Height {
		return fmt.Errorf("tile (%d,%d): %d samples for %dx%d geometry", col, row, len(data), geom.Width, geom.Height)
	}
	if geom.SpacingX == 0 {
		geom.SpacingX = 1
	}
	if geom.SpacingY == 0 {
		geom.SpacingY = 1
	}
	key := GridKey{Col: col, Row: row}
	tile, ok := m.tiles[key]
	if !ok {
		tile = &dataTile{arrays: make(map[string][]float64)}
		m.tiles[key] = tile
	}
	tile.geom = geom
	tile.arrays[name] = data
	return nil
}

func (m *DataMontage) RowCount() int    { return m.rows }
func (m *DataMontage) ColumnCount() int { return m.cols }

func (m *DataMontage) Geometry(row, col int) (TileGeometry, error) {
	tile, ok := m.tiles[GridKey{Col: col, Row: row}]
	if !ok {
		return TileGeometry{}, fmt.Errorf("no tile at (%d,%d)", col, row)
	}
	return tile.geom, nil
}

func (m *DataMontage) Intensity(row, col int, name string) ([]float64, error) {
	tile, ok := m.tiles[GridKey{Col: col, Row: row}]
	if !ok {
		return nil, fmt.Errorf("no tile at (%d,%d)", col, row)
	}
	data, ok := tile.arrays[name]
	if !ok {
		return nil, fmt.Errorf("tile (%d,%d) has no intensity array %q", col, row, name)
	}
	return data, nil
}
