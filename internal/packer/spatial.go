package packer

import "math"

// spatialGrid is a uniform cell grid over the bed used for neighbor radius
// queries during refinement and free-space probing. Cells hold arena indices.
type spatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int
}

func newSpatialGrid(width, height, cellSize float64) *spatialGrid {
	cols := int(width/cellSize) + 1
	rows := int(height/cellSize) + 1
	cells := make([][]int, cols*rows)
	return &spatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// rebuild indexes the currently placed circles.
func (g *spatialGrid) rebuild(circles []circle) {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	for i := range circles {
		if !circles[i].placed {
			continue
		}
		idx := g.cellIndex(circles[i].x, circles[i].y)
		g.cells[idx] = append(g.cells[idx], i)
	}
}

// queryRadius appends to dst the indices of circles whose centers lie within
// radius of (x, y), excluding the given index. Circles outside the grid
// bounds are clamped into the border cells, so drifted circles stay findable.
func (g *spatialGrid) queryRadius(dst []int, circles []circle, x, y, radius float64, exclude int) []int {
	cellRadius := int(radius/g.cellSize) + 1
	centerCol := g.clampCol(int(x / g.cellSize))
	centerRow := g.clampRow(int(y / g.cellSize))
	radiusSq := radius * radius

	for dc := -cellRadius; dc <= cellRadius; dc++ {
		col := centerCol + dc
		if col < 0 || col >= g.cols {
			continue
		}
		for dr := -cellRadius; dr <= cellRadius; dr++ {
			row := centerRow + dr
			if row < 0 || row >= g.rows {
				continue
			}
			for _, i := range g.cells[row*g.cols+col] {
				if i == exclude {
					continue
				}
				dx := circles[i].x - x
				dy := circles[i].y - y
				if dx*dx+dy*dy <= radiusSq {
					dst = append(dst, i)
				}
			}
		}
	}
	return dst
}

func (g *spatialGrid) cellIndex(x, y float64) int {
	col := g.clampCol(int(x / g.cellSize))
	row := g.clampRow(int(y / g.cellSize))
	return row*g.cols + col
}

func (g *spatialGrid) clampCol(col int) int {
	if col < 0 {
		return 0
	}
	if col >= g.cols {
		return g.cols - 1
	}
	return col
}

func (g *spatialGrid) clampRow(row int) int {
	if row < 0 {
		return 0
	}
	if row >= g.rows {
		return g.rows - 1
	}
	return row
}

// gridCellSize picks a cell size that keeps radius queries cheap for typical
// plant radii without exploding cell counts on large beds.
func gridCellSize(bedMin float64) float64 {
	return math.Max(bedMin/16, 4)
}
