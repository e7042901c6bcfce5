package track

import (
	"math"

	"flatlands/internal/common"
)

// Walker tuning, in pixels.
const (
	DefaultStepSize = 20.0
	maxWalkSteps    = 2000
	maxBeam         = 150.0
	maxWallSearch   = 80.0
	relaxIterations = 10
	smoothWindow    = 5
	smoothPasses    = 2
)

// CenterPoint is one extracted centerline sample in image coordinates.
type CenterPoint struct {
	Position common.Vec2
	Width    float64
}

// ExtractCenterline walks the drivable band of grid from (startX, startY)
// and returns an ordered, closed loop of centerline samples spaced roughly
// step pixels apart. A step <= 0 uses DefaultStepSize.
func ExtractCenterline(grid *Grid, startX, startY int, step float64) []CenterPoint {
	if step <= 0 {
		step = DefaultStepSize
	}

	// 1. Find Center of Track at Start
	leftX := startX
	for leftX > 0 && grid.Get(leftX, startY).Drivable() {
		leftX--
	}
	rightX := startX
	for rightX < grid.Width-1 && grid.Get(rightX, startY).Drivable() {
		rightX++
	}

	centerX := float64(leftX+rightX) / 2.0
	centerY := float64(startY)
	trackWidth := float64(rightX - leftX)

	raw := walk(grid, common.Vec2{X: centerX, Y: centerY}, trackWidth, step)
	refined := recenter(grid, raw)
	return smooth(refined)
}

// walk follows the deepest open direction from start until it comes back
// around. The initial heading is east.
func walk(grid *Grid, start common.Vec2, width, step float64) []CenterPoint {
	var points []CenterPoint

	curr := start
	dir := common.Vec2{X: 1, Y: 0}

	for i := 0; i < maxWalkSteps; i++ {
		// Raycast in an arc to find the "deepest" path
		bestAngle := 0.0
		maxDepth := 0.0
		baseAngle := math.Atan2(dir.Y, dir.X)

		// Scan a wide arc to handle sharp turns
		for angle := -math.Pi / 2; angle <= math.Pi/2; angle += math.Pi / 32 {
			checkAngle := baseAngle + angle
			dx, dy := math.Cos(checkAngle), math.Sin(checkAngle)

			depth := 0.0
			for d := 5.0; d < maxBeam; d += 5.0 {
				if !grid.Get(int(curr.X+dx*d), int(curr.Y+dy*d)).Drivable() {
					break
				}
				depth = d
			}

			if depth > maxDepth {
				maxDepth = depth
				bestAngle = checkAngle
			}
		}

		newDir := common.Vec2{X: math.Cos(bestAngle), Y: math.Sin(bestAngle)}
		curr = curr.Add(newDir.Scale(step))

		// Exponential moving average keeps the heading smooth
		dir = dir.Scale(0.2).Add(newDir.Scale(0.8))

		points = append(points, CenterPoint{Position: curr, Width: width})

		// Loop closure, only once we have travelled a bit
		if i > 50 && common.Distance(curr, start) < step*2 {
			break
		}
	}

	return points
}

// recenter pulls every point towards the middle of the band ("elastic
// band" relaxation) and re-measures the width.
func recenter(grid *Grid, raw []CenterPoint) []CenterPoint {
	pts := make([]CenterPoint, len(raw))
	copy(pts, raw)
	n := len(pts)
	if n < 3 {
		return pts
	}

	for iter := 0; iter < relaxIterations; iter++ {
		for i := range pts {
			prev := pts[(i-1+n)%n].Position
			next := pts[(i+1)%n].Position

			// Normal to the local tangent
			t := next.Sub(prev)
			normal := common.Vec2{X: -t.Y, Y: t.X}.Normalize()
			if normal == (common.Vec2{}) {
				continue
			}

			dLeft, foundLeft := wallDistance(grid, pts[i].Position, normal)
			dRight, foundRight := wallDistance(grid, pts[i].Position, normal.Scale(-1))

			if foundLeft && foundRight {
				// Alpha blend half of the error for stability
				correction := (dLeft - dRight) / 2.0
				pts[i].Position = pts[i].Position.Add(normal.Scale(correction * 0.5))
				pts[i].Width = dLeft + dRight
			}
		}
	}

	return pts
}

// wallDistance raycasts from p along dir and returns the distance to the
// first non-drivable cell.
func wallDistance(grid *Grid, p, dir common.Vec2) (float64, bool) {
	for d := 1.0; d < maxWallSearch; d += 1.0 {
		q := p.Add(dir.Scale(d))
		if !grid.Get(int(q.X), int(q.Y)).Drivable() {
			return d, true
		}
	}
	return 0, false
}

// smooth applies a circular moving average to the positions.
func smooth(pts []CenterPoint) []CenterPoint {
	out := make([]CenterPoint, len(pts))
	copy(out, pts)
	n := len(out)
	if n < smoothWindow {
		return out
	}

	for pass := 0; pass < smoothPasses; pass++ {
		temp := make([]CenterPoint, n)
		copy(temp, out)

		for i := range out {
			var sum common.Vec2
			for j := -smoothWindow / 2; j <= smoothWindow/2; j++ {
				sum = sum.Add(temp[(i+j+n)%n].Position)
			}
			out[i].Position = sum.Scale(1 / float64(smoothWindow))
		}
	}

	return out
}

// TableRows converts centerline samples into track table rows.
func TableRows(points []CenterPoint) []Row {
	rows := make([]Row, len(points))
	for i, p := range points {
		rows[i] = Row{X: p.Position.X, Y: p.Position.Y, Width: p.Width}
	}
	return rows
}
