package physics

import (
	"math"

	"flatlands/internal/common"

	"github.com/samber/lo"
)

// BicycleModel is a single-track kinematic model. The pose is the rear
// axle; the front wheel sits wheelbase ahead and steers. With a non-zero
// wheel angle the rear axle follows a circle of radius
// wheelbase/tan(wheel angle) around the center of turn.
//
// A positive wheel angle turns right (heading increases).
type BicycleModel struct {
	vehicle

	wheelbase     float64
	trackWidth    float64
	maxWheelAngle float64

	wheelAngle     float64
	prevWheelAngle float64
}

// NewBicycle validates p and builds a bicycle model at p's pose.
func NewBicycle(p Params, opts ...Option) (*BicycleModel, error) {
	switch {
	case !(p.Wheelbase > 0):
		return nil, &ConfigError{Field: "wheelbase", Value: p.Wheelbase, Reason: "must be positive"}
	case !(p.TrackWidth > 0):
		return nil, &ConfigError{Field: "track_width", Value: p.TrackWidth, Reason: "must be positive"}
	case !(p.MaxWheelAngle > 0 && p.MaxWheelAngle < math.Pi/2):
		return nil, &ConfigError{Field: "max_wheel_angle", Value: p.MaxWheelAngle, Reason: "must be in (0, π/2)"}
	}
	if err := validateLimits(p); err != nil {
		return nil, err
	}

	m := &BicycleModel{
		vehicle:       newVehicle("bicycle", p, opts),
		wheelbase:     p.Wheelbase,
		trackWidth:    p.TrackWidth,
		maxWheelAngle: p.MaxWheelAngle,
	}
	m.log.Info("bicycle model initialized",
		"wheelbase", m.wheelbase,
		"track_width", m.trackWidth,
		"max_wheel_angle", m.maxWheelAngle,
		"max_velocity", m.maxVelocity,
		"max_accel", m.maxAccel,
		"noise", m.noise,
	)
	return m, nil
}

// Step applies one control tick. Omitted values repeat the previous step's
// acceleration and wheel angle; given values are clamped to the limits and
// then perturbed by up to noise percent. The resulting velocity is clamped
// to [0, max velocity] and the rear axle travels that far, straight ahead
// or along the turning circle.
func (m *BicycleModel) Step(c Control) {
	a := m.accel
	if c.Accel == nil {
		m.log.Debug("no acceleration provided, keeping previous value", "accel", a)
	} else {
		a = lo.Clamp(*c.Accel, -m.maxAccel, m.maxAccel)
	}

	wheel := m.wheelAngle
	if c.Steering == nil {
		m.log.Debug("no steer angle provided, keeping previous value", "wheel_angle", wheel)
	} else {
		wheel = lo.Clamp(*c.Steering, -m.maxWheelAngle, m.maxWheelAngle)
	}

	a += m.jitter(a, m.noise/100)
	wheel += m.jitter(wheel, m.noise/100)

	m.prevWheelAngle = m.wheelAngle
	m.wheelAngle = wheel

	v := lo.Clamp(m.velocity+a, 0, m.maxVelocity)

	x, y, heading := m.pose.X, m.pose.Y, m.pose.Heading
	if r, ok := m.TurnRadius(); ok {
		center, _ := m.CenterOfTurn()
		heading += v / r
		x = center.X - r*math.Cos(heading)
		y = center.Y + r*math.Sin(heading)
	} else {
		next := common.Offset(m.pose.Position(), v, heading)
		x, y = next.X, next.Y
	}

	m.setPose(x, y, heading)
	m.advance(v)
}

func (m *BicycleModel) StepVelocity(v float64, wheelAngle *float64) {
	a := v - m.velocity
	m.Step(Control{Accel: &a, Steering: wheelAngle})
}

// Steering returns the current wheel angle.
func (m *BicycleModel) Steering() float64 { return m.wheelAngle }

// Wheelbase returns the axle separation.
func (m *BicycleModel) Wheelbase() float64 { return m.wheelbase }

// TrackWidth returns the wheel separation on an axle.
func (m *BicycleModel) TrackWidth() float64 { return m.trackWidth }

// MaxWheelAngle returns the steering lock; the minimum is its negation.
func (m *BicycleModel) MaxWheelAngle() float64 { return m.maxWheelAngle }

// TurnRadius returns the signed radius of the rear axle's circle. ok is
// false when the wheels are straight.
func (m *BicycleModel) TurnRadius() (r float64, ok bool) {
	if m.wheelAngle == 0 {
		return 0, false
	}
	return m.wheelbase / math.Tan(m.wheelAngle), true
}

// CenterOfTurn returns the point the rear axle circles. ok is false when
// the wheels are straight.
func (m *BicycleModel) CenterOfTurn() (common.Vec2, bool) {
	r, ok := m.TurnRadius()
	if !ok {
		return common.Vec2{}, false
	}
	return common.Vec2{
		X: m.pose.X + r*math.Cos(m.pose.Heading),
		Y: m.pose.Y - r*math.Sin(m.pose.Heading),
	}, true
}

// WheelAngleChange returns the signed difference between the current and
// previous wheel angles.
func (m *BicycleModel) WheelAngleChange() float64 {
	return m.wheelAngle - m.prevWheelAngle
}

// RadialSpeed returns the velocity component along the x axis.
func (m *BicycleModel) RadialSpeed() float64 {
	return m.velocity * math.Sin(m.pose.Heading)
}

// CrossRadialSpeed returns the velocity component along the y axis.
func (m *BicycleModel) CrossRadialSpeed() float64 {
	return m.velocity * math.Cos(m.pose.Heading)
}

func (m *BicycleModel) Info() Info {
	return Info{
		Model:         "Bicycle",
		X:             m.pose.X,
		Y:             m.pose.Y,
		Heading:       m.pose.Heading,
		Velocity:      m.velocity,
		Acceleration:  m.accel,
		Steering:      m.wheelAngle,
		MaxWheelAngle: m.maxWheelAngle,
		MaxVelocity:   m.maxVelocity,
		MaxAccel:      m.maxAccel,
		Wheelbase:     m.wheelbase,
		TrackWidth:    m.trackWidth,
	}
}

func (m *BicycleModel) ActionBounds() Bounds {
	return Bounds{
		Low:  []float64{-m.maxAccel, -m.maxWheelAngle},
		High: []float64{m.maxAccel, m.maxWheelAngle},
	}
}

func (m *BicycleModel) ObservationBounds(n int) Bounds {
	return observationBounds(n, m.maxVelocity, m.maxAccel, -m.maxWheelAngle, m.maxWheelAngle)
}
