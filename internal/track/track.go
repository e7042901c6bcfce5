package track

import (
	"errors"
	"fmt"
	"math"

	"flatlands/internal/common"
	"flatlands/internal/logging"

	"github.com/samber/lo"
)

// MinPoints is the smallest number of waypoints that forms a closed track.
const MinPoints = 3

// DefaultUpcoming is the number of upcoming points observed when the caller
// does not ask for a specific count.
const DefaultUpcoming = 5

var (
	ErrTooFewPoints    = errors.New("track: too few points")
	ErrNegativeSegment = errors.New("track: negative segment length")
	ErrNonFinite       = errors.New("track: non-finite value")
)

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

// Waypoint represents a point on the track centerline.
type Waypoint struct {
	Position      common.Vec2 // Local projected coordinates
	Width         float64     // Track width at this point, as recorded in the source
	Direction     float64     // Heading of the segment leaving this point
	SegmentLength float64     // Length of the segment to the next point
	Distance      float64     // Path distance from the first point (s-coordinate)
}

// Bounds is the axis aligned extent of the projected path.
type Bounds struct {
	MinX, MinY, MaxX, MaxY float64
}

// Track is a closed loop of waypoints with a spatial index over their
// positions. A Track is immutable once built and may be shared by any number
// of vehicles.
type Track struct {
	points []Waypoint
	path   []common.Vec2
	length float64
	scale  float64
	index  *index
	log    *logging.Logger
}

// New builds a track from waypoints already in the local projection. The last
// waypoint's direction and segment length are recomputed towards the first so
// the loop closes. The input slice is not modified.
func New(points []Waypoint, opts ...Option) (*Track, error) {
	o := newOptions(opts)

	if len(points) < MinPoints {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrTooFewPoints, len(points), MinPoints)
	}

	pts := make([]Waypoint, len(points))
	copy(pts, points)

	// Close the loop: the last segment runs back to the start.
	last, first := pts[len(pts)-1], pts[0]
	pts[len(pts)-1].Direction = common.Bearing(last.Position, first.Position)
	pts[len(pts)-1].SegmentLength = common.Distance(last.Position, first.Position)

	s := 0.0
	for i := range pts {
		p := pts[i]
		if !finite(p.Position.X) || !finite(p.Position.Y) || !finite(p.SegmentLength) {
			return nil, fmt.Errorf("%w: point %d at (%g, %g) with segment %g", ErrNonFinite, i, p.Position.X, p.Position.Y, p.SegmentLength)
		}
		if !(p.SegmentLength >= 0) {
			return nil, fmt.Errorf("%w: point %d has %g", ErrNegativeSegment, i, p.SegmentLength)
		}
		pts[i].Distance = s
		s += pts[i].SegmentLength
	}

	path := lo.Map(pts, func(wp Waypoint, _ int) common.Vec2 { return wp.Position })

	t := &Track{
		points: pts,
		path:   path,
		length: s,
		scale:  o.scale,
		index:  newIndex(path),
		log:    o.log.Component("track"),
	}
	t.log.Debug("track built", "points", len(pts), "path_length", s)

	return t, nil
}

// Len returns the number of waypoints.
func (t *Track) Len() int { return len(t.points) }

// Point returns waypoint i.
func (t *Track) Point(i int) Waypoint { return t.points[i] }

// Path returns a copy of the projected path.
func (t *Track) Path() []common.Vec2 {
	out := make([]common.Vec2, len(t.path))
	copy(out, t.path)
	return out
}

// Widths returns the recorded width of every waypoint.
func (t *Track) Widths() []float64 {
	return lo.Map(t.points, func(wp Waypoint, _ int) float64 { return wp.Width })
}

// Directions returns the heading leaving every waypoint.
func (t *Track) Directions() []float64 {
	return lo.Map(t.points, func(wp Waypoint, _ int) float64 { return wp.Direction })
}

// SegmentLengths returns the length of the segment leaving every waypoint.
func (t *Track) SegmentLengths() []float64 {
	return lo.Map(t.points, func(wp Waypoint, _ int) float64 { return wp.SegmentLength })
}

// PathLength returns the total length of the loop.
func (t *Track) PathLength() float64 { return t.length }

// Scale returns the source units per local unit, 1 for in-memory tracks.
func (t *Track) Scale() float64 { return t.scale }

// Start returns the first point of the path.
func (t *Track) Start() common.Vec2 { return t.path[0] }

// Goal returns the last point of the path.
func (t *Track) Goal() common.Vec2 { return t.path[len(t.path)-1] }

// Bounds returns the extent of the path.
func (t *Track) Bounds() Bounds {
	b := Bounds{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, p := range t.path {
		b.MinX = math.Min(b.MinX, p.X)
		b.MinY = math.Min(b.MinY, p.Y)
		b.MaxX = math.Max(b.MaxX, p.X)
		b.MaxY = math.Max(b.MaxY, p.Y)
	}
	return b
}

// next returns the index after i, wrapping to 0.
func (t *Track) next(i int) int { return (i + 1) % len(t.path) }

// prev returns the index before i, wrapping to the last point.
func (t *Track) prev(i int) int { return (i - 1 + len(t.path)) % len(t.path) }

// NearestPoint returns the index of the waypoint closest to pos.
func (t *Track) NearestPoint(pos common.Vec2) int {
	return t.index.nearest(pos)
}

// NearestPair returns the index of the closest waypoint and the one after
// it. The successor of the last waypoint is 0.
func (t *Track) NearestPair(pos common.Vec2) (int, int) {
	i := t.NearestPoint(pos)
	if i == len(t.path)-1 {
		t.log.Debug("closest point is the last in the track, pairing with the first")
	}
	return i, t.next(i)
}

// ClosestWaypoint finds the waypoint closest to the given position.
// Returns the waypoint and its index.
func (t *Track) ClosestWaypoint(pos common.Vec2) (Waypoint, int) {
	i := t.NearestPoint(pos)
	return t.points[i], i
}

// DistanceFromTrack returns the distance from pos to the centerline, taken
// over the two segments meeting at the nearest waypoint.
func (t *Track) DistanceFromTrack(pos common.Vec2) float64 {
	i := t.NearestPoint(pos)
	p1, p2, p3 := t.path[t.prev(i)], t.path[i], t.path[t.next(i)]

	d1 := t.segmentDistance(pos, p1, p2)
	d2 := t.segmentDistance(pos, p2, p3)
	d := math.Min(d1, d2)

	t.log.Debug("distance from track", "nearest", i, "distance", d)
	return d
}

// segmentDistance measures pos against ab, substituting the segment between
// the first two track points when ab has no length.
func (t *Track) segmentDistance(pos, a, b common.Vec2) float64 {
	if a == b {
		a, b = t.path[0], t.path[1]
	}
	return common.DistanceToSegment(pos, a, b)
}

// DistanceToGoal returns the path distance from pos to the end of the track:
// the remaining segment lengths from the nearest waypoint plus the distance
// from pos to the centerline.
func (t *Track) DistanceToGoal(pos common.Vec2) float64 {
	i := t.NearestPoint(pos)
	remaining := t.length - t.points[i].Distance
	return remaining + t.DistanceFromTrack(pos)
}

// UpcomingIndices returns the track indices of the next n waypoints ahead
// of pos facing heading. n <= 0 means DefaultUpcoming.
//
// The window starts at the nearest waypoint and wraps past the end of the
// loop. When the nearest waypoint is behind the vehicle it has already been
// passed and the window starts one later.
func (t *Track) UpcomingIndices(pos common.Vec2, heading float64, n int) []int {
	if n <= 0 {
		n = DefaultUpcoming
	}

	i := t.NearestPoint(pos)
	if common.RelativeDistance(pos, t.path[i], heading).Forward < 0 {
		t.log.Debug("nearest point is behind, skipping it", "nearest", i)
		i = t.next(i)
	}

	idx := make([]int, n)
	for k := range idx {
		idx[k] = (i + k) % len(t.path)
	}
	return idx
}

// UpcomingPoints returns the ego-frame position of the waypoints chosen by
// UpcomingIndices. Exactly n points are returned (DefaultUpcoming for
// n <= 0).
func (t *Track) UpcomingPoints(pos common.Vec2, heading float64, n int) []common.Relative {
	return lo.Map(t.UpcomingIndices(pos, heading, n), func(i int, _ int) common.Relative {
		return common.RelativeDistance(pos, t.path[i], heading)
	})
}

// Frenet converts pos to track coordinates relative to whichever of the
// two segments meeting at the nearest waypoint is closer: s is the path
// distance along the loop and d the signed offset from that segment's line,
// right of travel positive.
func (t *Track) Frenet(pos common.Vec2) (s, d float64) {
	i := t.NearestPoint(pos)

	start := i
	if t.segmentDistance(pos, t.path[t.prev(i)], t.path[i]) < t.segmentDistance(pos, t.path[i], t.path[t.next(i)]) {
		start = t.prev(i)
	}
	a, b := t.path[start], t.path[t.next(start)]

	dir := b.Sub(a).Normalize()
	rel := pos.Sub(a)

	s = t.points[start].Distance + rel.Dot(dir)
	// Cross is positive to the left of travel.
	d = -dir.Cross(rel)
	return s, d
}
