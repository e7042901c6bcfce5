package track

import (
	"image"
	"image/color"
)

// CellType is the surface class of one raster cell.
type CellType int

const (
	CellWall      CellType = iota // dark pixels, never drivable
	CellTarmac                    // light pixels and anti-aliased track edges
	CellGravel                    // green run-off
	CellStart                     // red start marker, seeds the centerline walk
	CellDirection                 // yellow heading hint
)

// Cell represents a single pixel of a track image.
type Cell struct {
	Type CellType
}

// Drivable reports whether the centerline walker may pass through the cell.
func (c Cell) Drivable() bool {
	return c.Type != CellWall
}

// Grid is a rasterised track image.
type Grid struct {
	Width, Height int
	Cells         [][]Cell
}

// NewGrid creates a new grid of the specified size.
func NewGrid(width, height int) *Grid {
	cells := make([][]Cell, width)
	for i := range cells {
		cells[i] = make([]Cell, height)
	}
	return &Grid{
		Width:  width,
		Height: height,
		Cells:  cells,
	}
}

// Get returns the cell at (x, y). Returns Wall if out of bounds.
func (g *Grid) Get(x, y int) Cell {
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return Cell{Type: CellWall}
	}
	return g.Cells[x][y]
}

// ColorToCellType classifies a pixel by thresholding its 8-bit channels.
// Saturated colors are checked before the light/dark split so markers
// painted on the tarmac keep their meaning.
func ColorToCellType(c color.Color) CellType {
	r16, g16, b16, _ := c.RGBA()
	r, g, b := r16>>8, g16>>8, b16>>8

	const hi, lo, dark = 200, 100, 50
	switch {
	case r > hi && g > hi && b > hi:
		return CellTarmac
	case r > hi && g < lo && b < lo:
		return CellStart
	case r > hi && g > hi && b < lo:
		return CellDirection
	case g > r+dark && g > b+dark:
		return CellGravel
	case r < dark && g < dark && b < dark:
		return CellWall
	}
	return CellTarmac
}

// GridFromImage classifies every pixel of img and locates the start cell:
// the first red start marker, or the first tarmac cell when the image has
// none. ok is false when the image has no drivable tarmac at all.
func GridFromImage(img image.Image) (grid *Grid, startX, startY int, ok bool) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	grid = NewGrid(width, height)

	foundStart := false
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			cellType := ColorToCellType(img.At(bounds.Min.X+x, bounds.Min.Y+y))
			grid.Cells[x][y] = Cell{Type: cellType}

			if cellType == CellStart && !foundStart {
				startX, startY = x, y
				foundStart = true
			}
		}
	}
	if foundStart {
		return grid, startX, startY, true
	}

	// If no explicit start, find first tarmac
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			if grid.Cells[x][y].Type == CellTarmac {
				return grid, x, y, true
			}
		}
	}
	return grid, 0, 0, false
}

// SyntheticOval renders the reference oval test track: white tarmac ring on a
// black background with a red start marker across the top of the ring.
func SyntheticOval(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	black := color.RGBA{0, 0, 0, 255}
	white := color.RGBA{255, 255, 255, 255}
	red := color.RGBA{255, 0, 0, 255}

	centerX, centerY := width/2, height/2
	radiusX, radiusY := float64(width)*0.375, float64(height)/3

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := float64(x - centerX)
			dy := float64(y - centerY)

			// Ellipse equation: (x/a)^2 + (y/b)^2 = 1
			dist := (dx*dx)/(radiusX*radiusX) + (dy*dy)/(radiusY*radiusY)

			// Inside the outer edge and outside the inner edge
			if dist <= 1.0 && dist >= 0.6 {
				img.Set(x, y, white)
			} else {
				img.Set(x, y, black)
			}
		}
	}

	// Start line across the top of the ring
	for y := centerY - int(radiusY); y < centerY-int(radiusY*0.75); y++ {
		for x := centerX - 2; x <= centerX+2; x++ {
			if img.RGBAAt(x, y) == white {
				img.Set(x, y, red)
			}
		}
	}

	return img
}
