package physics

import (
	"flatlands/internal/common"

	"github.com/samber/lo"
)

// PointModel moves a single point in the commanded direction. Steering is
// an absolute heading rather than a wheel angle.
type PointModel struct {
	vehicle
}

// NewPoint builds a point model from p. Wheelbase, track width and steering
// lock are ignored.
func NewPoint(p Params, opts ...Option) (*PointModel, error) {
	if err := validateLimits(p); err != nil {
		return nil, err
	}
	m := &PointModel{vehicle: newVehicle("point", p, opts)}
	m.log.Debug("point model initialized", "max_velocity", p.MaxVelocity, "max_accel", p.MaxAccel, "noise", p.Noise)
	return m, nil
}

// Step moves the point along its (possibly new) heading. Noise perturbs the
// velocity by up to noise/100 and the heading by up to noise/10000 of
// their values.
func (m *PointModel) Step(c Control) {
	a := m.accel
	if c.Accel == nil {
		m.log.Debug("no acceleration provided, keeping previous value", "accel", a)
	} else {
		a = lo.Clamp(*c.Accel, -m.maxAccel, m.maxAccel)
	}

	heading := m.pose.Heading
	if c.Steering == nil {
		m.log.Debug("no heading provided, keeping previous value", "heading", heading)
	} else {
		heading = *c.Steering
	}

	v := m.velocity + a
	v += m.jitter(v, m.noise/100)
	heading += m.jitter(heading, m.noise/10000)
	v = lo.Clamp(v, 0, m.maxVelocity)

	next := common.Offset(m.pose.Position(), v, heading)
	m.setPose(next.X, next.Y, heading)
	m.advance(v)
}

func (m *PointModel) StepVelocity(v float64, heading *float64) {
	a := v - m.velocity
	m.Step(Control{Accel: &a, Steering: heading})
}

// Steering returns the current heading.
func (m *PointModel) Steering() float64 { return m.pose.Heading }

func (m *PointModel) Info() Info {
	return Info{
		Model:        "Point",
		X:            m.pose.X,
		Y:            m.pose.Y,
		Heading:      m.pose.Heading,
		Velocity:     m.velocity,
		Acceleration: m.accel,
		Steering:     m.pose.Heading,
		MaxVelocity:  m.maxVelocity,
		MaxAccel:     m.maxAccel,
	}
}

func (m *PointModel) ActionBounds() Bounds {
	return Bounds{
		Low:  []float64{-m.maxAccel, 0},
		High: []float64{m.maxAccel, common.TwoPi},
	}
}

func (m *PointModel) ObservationBounds(n int) Bounds {
	return observationBounds(n, m.maxVelocity, m.maxAccel, 0, common.TwoPi)
}
