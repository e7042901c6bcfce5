package common

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(Vec2{0, 0}, Vec2{3, 4}), eps)
	assert.InDelta(t, 0.0, Distance(Vec2{1, 1}, Vec2{1, 1}), eps)
}

func TestBearing(t *testing.T) {
	origin := Vec2{0, 0}
	tests := []struct {
		name   string
		target Vec2
		want   float64
	}{
		{"north", Vec2{0, 1}, 0},
		{"east", Vec2{1, 0}, math.Pi / 2},
		{"south", Vec2{0, -1}, math.Pi},
		{"west", Vec2{-1, 0}, -math.Pi / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Bearing(origin, tt.target), eps)
		})
	}
}

func TestOffsetFollowsBearing(t *testing.T) {
	start := Vec2{2, -3}
	for _, h := range []float64{0, 0.3, math.Pi / 2, 2.5, math.Pi, 4, 5.9} {
		p := Offset(start, 7, h)
		assert.InDelta(t, 7.0, Distance(start, p), eps)
		assert.InDelta(t, NormalizeAngle(h), NormalizeAngle(Bearing(start, p)), 1e-9)
	}
}

func TestNormalizeAngle(t *testing.T) {
	assert.InDelta(t, 0.0, NormalizeAngle(0), eps)
	assert.InDelta(t, math.Pi, NormalizeAngle(-math.Pi), eps)
	assert.InDelta(t, 1.0, NormalizeAngle(1+2*TwoPi), eps)
	assert.InDelta(t, TwoPi-1, NormalizeAngle(-1), eps)

	a := NormalizeAngle(-1e-18)
	assert.GreaterOrEqual(t, a, 0.0)
	assert.Less(t, a, TwoPi)
}

func TestRelativeDistance(t *testing.T) {
	origin := Vec2{0, 0}
	tests := []struct {
		name    string
		target  Vec2
		facing  float64
		lateral float64
		forward float64
	}{
		{"straight ahead", Vec2{0, 10}, 0, 0, 10},
		{"to the right", Vec2{10, 0}, 0, 10, 0},
		{"to the left", Vec2{-10, 0}, 0, -10, 0},
		{"directly behind", Vec2{0, -10}, 0, 0, -10},
		{"facing west, target north", Vec2{0, 10}, 3 * math.Pi / 2, 10, 0},
		{"facing east, target ahead", Vec2{5, 0}, math.Pi / 2, 0, 5},
		// Behind and to the left is reported on the right: the effective
		// heading wraps through 2π−Δ rather than the signed difference.
		{"behind left flips lateral sign", Vec2{-1, -10}, 0, 1, -10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel := RelativeDistance(origin, tt.target, tt.facing)
			assert.InDelta(t, tt.lateral, rel.Lateral, 1e-9)
			assert.InDelta(t, tt.forward, rel.Forward, 1e-9)
		})
	}
}

func TestRelativeDistanceKeepsNegativeHeading(t *testing.T) {
	rel := RelativeDistance(Vec2{0, 0}, Vec2{-10, 0}, 0)
	assert.InDelta(t, -math.Pi/2, rel.Heading, eps)

	rel = RelativeDistance(Vec2{0, 0}, Vec2{0, 10}, 3*math.Pi/2)
	assert.InDelta(t, -3*math.Pi/2, rel.Heading, eps)
}

func TestDistanceToSegment(t *testing.T) {
	a, b := Vec2{0, 0}, Vec2{10, 0}
	tests := []struct {
		name string
		p    Vec2
		want float64
	}{
		{"on segment", Vec2{4, 0}, 0},
		{"above middle", Vec2{5, 3}, 3},
		{"below middle", Vec2{5, -2}, 2},
		{"past end clamps", Vec2{13, 4}, 5},
		{"before start clamps", Vec2{-3, -4}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DistanceToSegment(tt.p, a, b), eps)
		})
	}

	t.Run("degenerate segment", func(t *testing.T) {
		assert.InDelta(t, 5.0, DistanceToSegment(Vec2{3, 4}, a, a), eps)
	})
}

func TestVec2(t *testing.T) {
	v := Vec2{3, 4}
	assert.InDelta(t, 5.0, v.Len(), eps)
	assert.Equal(t, Vec2{4, 6}, v.Add(Vec2{1, 2}))
	assert.Equal(t, Vec2{2, 2}, v.Sub(Vec2{1, 2}))
	assert.Equal(t, Vec2{6, 8}, v.Scale(2))
	assert.InDelta(t, 11.0, v.Dot(Vec2{1, 2}), eps)
	assert.InDelta(t, 2.0, v.Cross(Vec2{1, 2}), eps)
	assert.InDelta(t, 1.0, v.Normalize().Len(), eps)
	assert.Equal(t, Vec2{}, Vec2{}.Normalize())
	assert.Equal(t, v, FromR2(v.R2()))
}
