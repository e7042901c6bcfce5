package track

import (
	"math"

	"flatlands/internal/common"

	"github.com/golang/geo/s2"
)

// earthRadius is the mean Earth radius in metres.
const earthRadius = 6371008.8

// projectLocal reprojects waypoints whose positions hold (longitude,
// latitude) in degrees onto a local metric plane. The plane is a Mercator
// projection in metres, shifted so the first waypoint is the origin and
// scaled by the cosine of its latitude, which keeps distances near the track
// true to within the track's own latitude span.
//
// Source segment lengths and directions are in degrees and meaningless after
// projection, so both are recomputed from the projected positions.
func projectLocal(points []Waypoint) {
	if len(points) == 0 {
		return
	}

	// A Mercator projection whose x range is ±πR maps radians to metres.
	proj := s2.NewMercatorProjection(math.Pi * earthRadius)

	origin := points[0].Position
	o := proj.FromLatLng(s2.LatLngFromDegrees(origin.Y, origin.X))
	k := math.Cos(origin.Y * math.Pi / 180)

	for i := range points {
		p := points[i].Position
		q := proj.FromLatLng(s2.LatLngFromDegrees(p.Y, p.X))
		points[i].Position = common.Vec2{
			X: (q.X - o.X) * k,
			Y: (q.Y - o.Y) * k,
		}
	}

	for i := 0; i < len(points)-1; i++ {
		a, b := points[i].Position, points[i+1].Position
		points[i].SegmentLength = common.Distance(a, b)
		points[i].Direction = common.Bearing(a, b)
	}
}
