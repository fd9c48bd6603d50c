package montage

import "testing"

// gridCatalog builds a rows x cols catalog of 100x100 tiles whose origins
// step by 90, giving a 10 pixel overlap between neighbors.
func gridCatalog(rows, cols int) BoundsCatalog {
	catalog := make(BoundsCatalog)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			catalog[GridKey{Col: col, Row: row}] = RegionBounds{
				Left:   col * 90,
				Top:    row * 90,
				Right:  col*90 + 100,
				Bottom: row*90 + 100,
			}
		}
	}
	return catalog
}

func TestOverlapPairCount(t *testing.T) {
	cases := []struct {
		rows, cols int
	}{
		{2, 2},
		{2, 3},
		{3, 3},
		{4, 2},
		{5, 7},
	}
	for _, tc := range cases {
		pairs := BuildOverlapPairs(gridCatalog(tc.rows, tc.cols))
		// Interior adjacencies only: no diagonals, no wraparound.
		want := tc.rows*(tc.cols-1) + tc.cols*(tc.rows-1)
		if len(pairs) != want {
			t.Errorf("%dx%d montage: got %d pairs, want %d", tc.rows, tc.cols, len(pairs), want)
		}
	}
}

func TestOverlapPairsAreAxisAdjacent(t *testing.T) {
	pairs := BuildOverlapPairs(gridCatalog(3, 3))
	for _, pair := range pairs {
		dc := pair.Second.Col - pair.First.Col
		dr := pair.Second.Row - pair.First.Row
		if !(dc == 1 && dr == 0) && !(dc == 0 && dr == 1) {
			t.Errorf("pair %v -> %v is not a right or bottom adjacency", pair.First, pair.Second)
		}
	}
}

func TestRightPairRegion(t *testing.T) {
	// Two 100x100 tiles side by side with a 10 pixel overlap.
	catalog := gridCatalog(1, 2)
	pairs := BuildOverlapPairs(catalog)
	if len(pairs) != 1 {
		t.Fatalf("1x2 montage: got %d pairs, want 1", len(pairs))
	}

	region := pairs[0].Region
	if region.Left != 90 || region.Right != 100 {
		t.Errorf("region spans x [%d,%d), want [90,100)", region.Left, region.Right)
	}
	if region.Width() != 10 {
		t.Errorf("region width = %d, want 10", region.Width())
	}
	if region.Height() != 100 {
		t.Errorf("region height = %d, want 100", region.Height())
	}
}

func TestBottomPairRegion(t *testing.T) {
	catalog := gridCatalog(2, 1)
	pairs := BuildOverlapPairs(catalog)
	if len(pairs) != 1 {
		t.Fatalf("2x1 montage: got %d pairs, want 1", len(pairs))
	}

	region := pairs[0].Region
	if region.Top != 90 || region.Bottom != 100 {
		t.Errorf("region spans y [%d,%d), want [90,100)", region.Top, region.Bottom)
	}
	if region.Width() != 100 {
		t.Errorf("region width = %d, want 100", region.Width())
	}
}

func TestRegionBoundsContains(t *testing.T) {
	bounds := RegionBounds{Left: 10, Top: 20, Right: 30, Bottom: 40}
	if !bounds.Contains(PixelIndex{X: 10, Y: 20}) {
		t.Error("top-left corner should be inside")
	}
	if bounds.Contains(PixelIndex{X: 30, Y: 20}) {
		t.Error("right edge is exclusive")
	}
	if bounds.Contains(PixelIndex{X: 10, Y: 40}) {
		t.Error("bottom edge is exclusive")
	}
	if bounds.Empty() {
		t.Error("20x20 region should not be empty")
	}
	if !(RegionBounds{Left: 5, Top: 5, Right: 5, Bottom: 10}).Empty() {
		t.Error("zero-width region should be empty")
	}
}
