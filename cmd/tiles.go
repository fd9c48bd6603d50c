package main

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	_ "image/png"

	"montagereg/internal/montage"
)

// intensityName is the attribute under which tile intensities are stored in
// the montage.
const intensityName = "Gray"

var tileNamePattern = regexp.MustCompile(`^c(\d+)_r(\d+)\.png$`)

// loadTileMontage reads every c<col>_r<row>.png in dir into an in-memory
// montage. Tile origins are spaced so adjacent tiles share the given overlap
// fraction. Rows and cols may be zero to infer the montage shape from the
// filenames present.
func loadTileMontage(dir string, rows, cols int, overlap float64) (*montage.DataMontage, int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read tile directory: %w", err)
	}

	type tileFile struct {
		col, row int
		path     string
	}
	var files []tileFile
	maxCol, maxRow := -1, -1
	for _, entry := range entries {
		match := tileNamePattern.FindStringSubmatch(entry.Name())
		if match == nil {
			continue
		}
		col, _ := strconv.Atoi(match[1])
		row, _ := strconv.Atoi(match[2])
		files = append(files, tileFile{col: col, row: row, path: filepath.Join(dir, entry.Name())})
		maxCol = max(maxCol, col)
		maxRow = max(maxRow, row)
	}
	if len(files) == 0 {
		return nil, 0, 0, fmt.Errorf("no c<col>_r<row>.png tiles found in %s", dir)
	}

	if cols == 0 {
		cols = maxCol + 1
	}
	if rows == 0 {
		rows = maxRow + 1
	}
	if len(files) != rows*cols {
		return nil, 0, 0, fmt.Errorf("found %d tiles for a %dx%d montage", len(files), rows, cols)
	}

	m := montage.NewDataMontage(rows, cols)
	for _, file := range files {
		img, width, height, err := loadGray(file.path)
		if err != nil {
			return nil, 0, 0, err
		}

		// Adjacent tiles overlap by a fixed fraction of the tile extent.
		strideX := width - int(math.Round(overlap*float64(width)))
		strideY := height - int(math.Round(overlap*float64(height)))
		geom := montage.TileGeometry{
			Width:    width,
			Height:   height,
			OriginX:  float64(file.col * strideX),
			OriginY:  float64(file.row * strideY),
			SpacingX: 1,
			SpacingY: 1,
		}
		if err := m.SetTile(file.row, file.col, geom, intensityName, img); err != nil {
			return nil, 0, 0, err
		}
	}
	return m, rows, cols, nil
}

// loadGray decodes an image file into a row-major float64 intensity buffer.
func loadGray(path string) ([]float64, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to open tile: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("failed to decode tile %s: %w", path, err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	data := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			g := color.GrayModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray)
			data[y*width+x] = float64(g.Y)
		}
	}
	return data, width, height, nil
}
