package common

import "math"

// TwoPi is a full turn in radians.
const TwoPi = 2 * math.Pi

// Headings in this package are measured from the positive y axis, clockwise,
// so a heading of π/2 points along +x.

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Vec2) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// Bearing returns the heading needed to travel from a to b.
func Bearing(a, b Vec2) float64 {
	return math.Pi/2 - math.Atan2(b.Y-a.Y, b.X-a.X)
}

// Offset returns the point reached by moving dist along heading from p.
func Offset(p Vec2, dist, heading float64) Vec2 {
	return Vec2{
		X: p.X + dist*math.Sin(heading),
		Y: p.Y + dist*math.Cos(heading),
	}
}

// NormalizeAngle maps a onto [0, 2π).
func NormalizeAngle(a float64) float64 {
	a = math.Mod(a, TwoPi)
	if a < 0 {
		a += TwoPi
	}
	// Mod of a tiny negative value can round back up to exactly 2π.
	if a >= TwoPi {
		a = 0
	}
	return a
}

// Relative is a target position expressed in the frame of a body.
type Relative struct {
	Lateral float64 `json:"lateral"` // right positive
	Forward float64 `json:"forward"` // front positive
	Heading float64 `json:"heading"` // effective heading used for the decomposition
}

// RelativeDistance decomposes the position of target into lateral and
// forward components for a body at origin facing the given heading.
//
// The effective heading is min(Δ, 2π−Δ) where Δ is the raw bearing
// difference, taken without an absolute value. For some targets behind the
// body this yields a negative heading; the lateral sign follows it while the
// forward component uses its absolute value.
func RelativeDistance(origin, target Vec2, facing float64) Relative {
	direct := Bearing(origin, target) - facing
	heading := math.Min(direct, TwoPi-direct)
	d := Distance(origin, target)

	return Relative{
		Lateral: d * math.Sin(heading),
		Forward: d * math.Cos(math.Abs(heading)),
		Heading: heading,
	}
}

// DistanceToSegment returns the distance from p to the closed segment ab.
// A zero-length segment degrades to the distance from p to a.
func DistanceToSegment(p, a, b Vec2) float64 {
	pp, pa, pb := p.R2(), a.R2(), b.R2()
	ab := pb.Sub(pa)
	l2 := ab.Dot(ab)
	if l2 == 0 {
		return pp.Sub(pa).Norm()
	}

	t := pp.Sub(pa).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	closest := pa.Add(ab.Mul(t))

	return pp.Sub(closest).Norm()
}
