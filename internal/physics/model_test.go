package physics

import (
	"errors"
	"math"
	"testing"

	"flatlands/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func newBicycle(t *testing.T, mutate func(*Params)) *BicycleModel {
	t.Helper()
	p := DefaultParams()
	if mutate != nil {
		mutate(&p)
	}
	m, err := NewBicycle(p)
	require.NoError(t, err)
	return m
}

func TestNewModel(t *testing.T) {
	p := DefaultParams()

	m, err := NewModel(p)
	require.NoError(t, err)
	assert.IsType(t, &BicycleModel{}, m)

	p.Kind = ""
	m, err = NewModel(p)
	require.NoError(t, err)
	assert.IsType(t, &BicycleModel{}, m)

	p.Kind = KindPoint
	m, err = NewModel(p)
	require.NoError(t, err)
	assert.IsType(t, &PointModel{}, m)

	p.Kind = "hovercraft"
	_, err = NewModel(p)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "model", ce.Field)
}

func TestNewBicycleValidation(t *testing.T) {
	tests := []struct {
		field  string
		mutate func(*Params)
	}{
		{"wheelbase", func(p *Params) { p.Wheelbase = 0 }},
		{"wheelbase", func(p *Params) { p.Wheelbase = math.NaN() }},
		{"track_width", func(p *Params) { p.TrackWidth = -1 }},
		{"max_wheel_angle", func(p *Params) { p.MaxWheelAngle = 0 }},
		{"max_wheel_angle", func(p *Params) { p.MaxWheelAngle = math.Pi / 2 }},
		{"max_velocity", func(p *Params) { p.MaxVelocity = 0 }},
		{"max_accel", func(p *Params) { p.MaxAccel = -0.1 }},
		{"noise", func(p *Params) { p.Noise = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			p := DefaultParams()
			tt.mutate(&p)

			_, err := NewBicycle(p)
			var ce *ConfigError
			require.True(t, errors.As(err, &ce), "want *ConfigError, got %v", err)
			assert.Equal(t, tt.field, ce.Field)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestNewNormalisesHeading(t *testing.T) {
	m := newBicycle(t, func(p *Params) { p.Heading = -math.Pi / 2 })
	assert.InDelta(t, 3*math.Pi/2, m.Pose().Heading, eps)
}

func TestSetRoundTrip(t *testing.T) {
	m := newBicycle(t, nil)
	m.Step(Drive(0.1, 0.3))
	m.Step(Drive(0.1, 0.3))
	require.NotZero(t, m.Velocity())

	m.Set(12.5, -3, 7, 0)

	pose := m.Pose()
	assert.Equal(t, 12.5, pose.X)
	assert.Equal(t, -3.0, pose.Y)
	assert.InDelta(t, math.Mod(7, common.TwoPi), pose.Heading, eps)
	assert.Zero(t, m.Velocity())
	assert.Zero(t, m.Acceleration())
}

func TestResetRestoresInitialPose(t *testing.T) {
	m := newBicycle(t, func(p *Params) {
		p.X, p.Y, p.Heading = 5, 6, 1
	})
	for i := 0; i < 20; i++ {
		m.Step(Drive(0.1, 0.2))
	}

	m.Reset(0)
	assert.Equal(t, Pose{X: 5, Y: 6, Heading: 1}, m.Pose())
	assert.Zero(t, m.Velocity())
	assert.Zero(t, m.Acceleration())
}

func TestResetJitter(t *testing.T) {
	m := newBicycle(t, func(p *Params) {
		p.X, p.Y, p.Heading, p.Seed = 5, 6, 1, 42
	})

	moved := false
	for i := 0; i < 100; i++ {
		m.Reset(2)
		pose := m.Pose()
		assert.LessOrEqual(t, math.Abs(pose.X-5), 2.0)
		assert.LessOrEqual(t, math.Abs(pose.Y-6), 2.0)
		assert.Equal(t, 1.0, pose.Heading, "heading is never jittered")
		if pose.X != 5 || pose.Y != 6 {
			moved = true
		}
	}
	assert.True(t, moved)
}

func TestCoastRepeatsPreviousControl(t *testing.T) {
	m := newBicycle(t, nil)

	m.Step(Drive(0.1, 0.2))
	assert.InDelta(t, 0.1, m.Velocity(), eps)
	assert.InDelta(t, 0.1, m.Acceleration(), eps)

	m.Step(Coast())
	assert.InDelta(t, 0.2, m.Velocity(), eps)
	assert.InDelta(t, 0.1, m.Acceleration(), eps)
	assert.Equal(t, 0.2, m.Steering())
	assert.Zero(t, m.WheelAngleChange())

	// Once capped the recorded acceleration drops to 0 and coasting holds
	// the velocity.
	for i := 0; i < 10; i++ {
		m.Step(Coast())
	}
	assert.InDelta(t, DefaultParams().MaxVelocity, m.Velocity(), eps)
	assert.InDelta(t, 0.0, m.Acceleration(), eps)
	m.Step(Coast())
	assert.InDelta(t, DefaultParams().MaxVelocity, m.Velocity(), eps)
	assert.Equal(t, 0.2, m.Steering())
}

func TestCoastFromRestStaysPut(t *testing.T) {
	m := newBicycle(t, func(p *Params) { p.X, p.Y = 3, 4 })
	m.Step(Coast())
	assert.Equal(t, Pose{X: 3, Y: 4}, m.Pose())
	assert.Zero(t, m.Velocity())
}

func TestStepClampsControls(t *testing.T) {
	m := newBicycle(t, nil)

	m.Step(Drive(5, 5))
	assert.InDelta(t, 0.1, m.Velocity(), eps)
	assert.InDelta(t, math.Pi/3, m.Steering(), eps)

	// No reverse: braking past zero stops the vehicle and the recorded
	// acceleration reflects the clamp.
	m.Step(Drive(-5, 0))
	assert.Zero(t, m.Velocity())
	assert.InDelta(t, -0.1, m.Acceleration(), eps)
}

func TestStraightLineOnSquareTrack(t *testing.T) {
	// Point 0 of the 100x100 square, facing along +x towards point 1.
	m := newBicycle(t, func(p *Params) { p.Heading = math.Pi / 2 })

	prev := 0.0
	x := 0.0
	for i := 0; i < 10; i++ {
		m.Step(Drive(0.1, 0))

		v := m.Velocity()
		assert.GreaterOrEqual(t, v, prev)
		assert.LessOrEqual(t, v, m.Info().MaxVelocity)
		prev = v
		x += v

		pose := m.Pose()
		assert.InDelta(t, x, pose.X, 1e-9)
		assert.InDelta(t, 0.0, pose.Y, 1e-9)
		assert.InDelta(t, math.Pi/2, pose.Heading, eps)
	}
	assert.InDelta(t, 0.5, m.Velocity(), eps)
	assert.InDelta(t, 4.0, m.Pose().X, 1e-9)

	_, ok := m.TurnRadius()
	assert.False(t, ok)
	_, ok = m.CenterOfTurn()
	assert.False(t, ok)
}

func TestFullLockDrivesACircle(t *testing.T) {
	m := newBicycle(t, nil)
	p := DefaultParams()
	wantR := p.Wheelbase / math.Tan(p.MaxWheelAngle)

	m.Step(Drive(0.1, 10))
	r, ok := m.TurnRadius()
	require.True(t, ok)
	assert.InDelta(t, wantR, r, eps)

	center, ok := m.CenterOfTurn()
	require.True(t, ok)

	for i := 0; i < 500; i++ {
		before := m.Pose().Heading
		m.Step(Drive(0, p.MaxWheelAngle))

		assert.InDelta(t, wantR, common.Distance(center, m.Pose().Position()), 1e-6)
		c, _ := m.CenterOfTurn()
		assert.InDelta(t, center.X, c.X, 1e-6)
		assert.InDelta(t, center.Y, c.Y, 1e-6)

		turned := common.NormalizeAngle(m.Pose().Heading - before)
		assert.InDelta(t, m.Velocity()/wantR, turned, 1e-9)
		assert.GreaterOrEqual(t, m.Pose().Heading, 0.0)
		assert.Less(t, m.Pose().Heading, common.TwoPi)
	}
}

func TestPositiveWheelAngleTurnsRight(t *testing.T) {
	m := newBicycle(t, nil)
	m.Step(Drive(0.1, 0.3))

	pose := m.Pose()
	assert.Greater(t, pose.X, 0.0, "drifts towards +x while heading +y")
	assert.Greater(t, pose.Y, 0.0)
	assert.Greater(t, pose.Heading, 0.0)
	assert.Greater(t, m.AngularVelocity(), 0.0)
}

func TestNoise(t *testing.T) {
	mk := func() *BicycleModel {
		return newBicycle(t, func(p *Params) { p.Noise = 10; p.Seed = 7 })
	}
	a, b := mk(), mk()

	for i := 0; i < 50; i++ {
		a.Step(Drive(0.05, 0.5))
		b.Step(Drive(0.05, 0.5))

		assert.InDelta(t, 0.5, a.Steering(), 0.05+eps)
		assert.LessOrEqual(t, a.Velocity(), a.Info().MaxVelocity)
		assert.GreaterOrEqual(t, a.Velocity(), 0.0)
	}
	assert.Equal(t, a.Pose(), b.Pose(), "same seed gives the same trajectory")
	assert.NotEqual(t, 0.5, a.Steering())
}

func TestWithRandSharesSource(t *testing.T) {
	p := DefaultParams()
	p.Noise = 10

	m1, err := NewBicycle(p, WithRand(common.NewRand(99)))
	require.NoError(t, err)
	m2, err := NewBicycle(p, WithRand(common.NewRand(99)))
	require.NoError(t, err)

	m1.Step(Drive(0.1, 0.4))
	m2.Step(Drive(0.1, 0.4))
	assert.Equal(t, m1.Info(), m2.Info())
}

func TestStepVelocity(t *testing.T) {
	m := newBicycle(t, nil)

	m.StepVelocity(0.05, nil)
	assert.InDelta(t, 0.05, m.Velocity(), eps)

	// The request is still bounded by max acceleration.
	m.StepVelocity(0.5, nil)
	assert.InDelta(t, 0.15, m.Velocity(), eps)
}

func TestDerivedSpeeds(t *testing.T) {
	m := newBicycle(t, func(p *Params) { p.Heading = math.Pi / 2 })
	m.Step(Drive(0.1, 0))

	assert.InDelta(t, 0.1, m.RadialSpeed(), eps)
	assert.InDelta(t, 0.0, m.CrossRadialSpeed(), eps)
}

func TestBicycleInfo(t *testing.T) {
	m := newBicycle(t, nil)
	m.Step(Drive(0.1, 0.2))

	info := m.Info()
	assert.Equal(t, "Bicycle", info.Model)
	assert.Equal(t, m.Pose().X, info.X)
	assert.Equal(t, 0.2, info.Steering)
	assert.Equal(t, 2.6, info.Wheelbase)
	assert.Equal(t, 1.2, info.TrackWidth)
	assert.InDelta(t, math.Pi/3, info.MaxWheelAngle, eps)
}

func TestBounds(t *testing.T) {
	m := newBicycle(t, nil)

	ab := m.ActionBounds()
	assert.Equal(t, []float64{-0.1, -math.Pi / 3}, ab.Low)
	assert.Equal(t, []float64{0.1, math.Pi / 3}, ab.High)

	ob := m.ObservationBounds(5)
	require.Len(t, ob.Low, 14)
	require.Len(t, ob.High, 14)
	for i := 0; i < 10; i++ {
		assert.Equal(t, -MaxObservedDistance, ob.Low[i])
		assert.Equal(t, MaxObservedDistance, ob.High[i])
	}
	assert.Equal(t, []float64{0, -0.1, -math.Pi / 3, 0}, ob.Low[10:])
	assert.Equal(t, []float64{0.5, 0.1, math.Pi / 3, MaxDistanceFromPath}, ob.High[10:])
}

func TestPointModel(t *testing.T) {
	p := DefaultParams()
	p.Kind = KindPoint
	m, err := NewPoint(p)
	require.NoError(t, err)

	m.Step(Drive(0.1, math.Pi/2))
	assert.InDelta(t, 0.1, m.Pose().X, eps)
	assert.InDelta(t, 0.0, m.Pose().Y, eps)
	assert.InDelta(t, math.Pi/2, m.Steering(), eps)

	// Coasting keeps heading and acceleration.
	m.Step(Coast())
	assert.InDelta(t, 0.3, m.Pose().X, eps)
	assert.InDelta(t, 0.2, m.Velocity(), eps)

	// Steering is absolute; negative headings are normalised.
	m.Step(Drive(0, -math.Pi/2))
	assert.InDelta(t, 3*math.Pi/2, m.Pose().Heading, eps)
	assert.InDelta(t, 0.1, m.Pose().X, eps)

	info := m.Info()
	assert.Equal(t, "Point", info.Model)
	assert.Zero(t, info.Wheelbase)

	ab := m.ActionBounds()
	assert.Equal(t, []float64{0.1, common.TwoPi}, ab.High)
	assert.Len(t, m.ObservationBounds(3).Low, 10)
}

func TestNewPointValidation(t *testing.T) {
	p := DefaultParams()
	p.Kind = KindPoint
	p.Wheelbase = 0 // ignored

	_, err := NewPoint(p)
	require.NoError(t, err)

	p.MaxVelocity = 0
	_, err = NewPoint(p)
	var ce *ConfigError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "max_velocity", ce.Field)
}

func TestAngularVelocityAcrossNorth(t *testing.T) {
	m := newBicycle(t, nil)
	m.Step(Drive(0.1, -0.3))

	assert.Greater(t, m.Pose().Heading, math.Pi, "left of north wraps below 2π")
	assert.Less(t, m.AngularVelocity(), 0.0)
	assert.Greater(t, m.AngularVelocity(), -0.1)
}
