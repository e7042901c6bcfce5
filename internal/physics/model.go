// Package physics implements the vehicle kinematic models.
//
// Positions are in local track units, headings are measured clockwise from
// +y and kept in [0, 2π). A step is one fixed tick: velocities are distance
// per step and accelerations are velocity change per step.
//
// There is no inertia, slip or mass. Each step is a closed-form update of
// the rear axle pose.
package physics

import (
	"fmt"
	"math"

	"flatlands/internal/common"
	"flatlands/internal/logging"
)

// Kind selects a vehicle model.
type Kind string

const (
	KindBicycle Kind = "bicycle"
	KindPoint   Kind = "point"
)

// Bounds of the flattened observation that are not tied to the vehicle.
const (
	MaxObservedDistance = 100.0
	MaxDistanceFromPath = 2000.0
)

// Pose is the rear axle reference point and heading.
type Pose struct {
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Heading float64 `json:"heading"`
}

// Position returns the pose's location.
func (p Pose) Position() common.Vec2 { return common.Vec2{X: p.X, Y: p.Y} }

// Control is one step's input. A nil field keeps the value used in the
// previous step.
type Control struct {
	Accel    *float64
	Steering *float64
}

// Drive returns a control with both values set.
func Drive(accel, steering float64) Control {
	return Control{Accel: &accel, Steering: &steering}
}

// Coast returns a control that repeats the previous step's inputs.
func Coast() Control { return Control{} }

// Params configures a vehicle. Zero limits are invalid; start from
// DefaultParams.
type Params struct {
	Kind          Kind    `json:"model"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Heading       float64 `json:"heading"`
	Wheelbase     float64 `json:"wheelbase"`
	TrackWidth    float64 `json:"track_width"`
	MaxWheelAngle float64 `json:"max_wheel_angle"`
	MaxVelocity   float64 `json:"max_velocity"`
	MaxAccel      float64 `json:"max_accel"`
	Noise         float64 `json:"noise"` // percent of each control value
	Seed          int64   `json:"seed"`
}

// DefaultParams returns a compact car: 2.6 m wheelbase, 1.2 m track, 60°
// steering lock.
func DefaultParams() Params {
	return Params{
		Kind:          KindBicycle,
		Wheelbase:     2.6,
		TrackWidth:    1.2,
		MaxWheelAngle: math.Pi / 3,
		MaxVelocity:   0.5,
		MaxAccel:      0.1,
	}
}

// ConfigError reports an invalid vehicle parameter.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("physics: invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Info is a read-only snapshot of a vehicle for rendering and telemetry.
type Info struct {
	Model         string  `json:"model"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	Heading       float64 `json:"heading"`
	Velocity      float64 `json:"velocity"`
	Acceleration  float64 `json:"acceleration"`
	Steering      float64 `json:"steering"`
	MaxWheelAngle float64 `json:"max_wheel_angle,omitempty"`
	MaxVelocity   float64 `json:"max_velocity"`
	MaxAccel      float64 `json:"max_accel"`
	Wheelbase     float64 `json:"wheelbase,omitempty"`
	TrackWidth    float64 `json:"track_width,omitempty"`
}

// Bounds holds per-dimension lower and upper limits.
type Bounds struct {
	Low  []float64
	High []float64
}

// Model is a vehicle kinematic model. Implementations are *BicycleModel and
// *PointModel. A Model is owned by one caller and is not safe for
// concurrent use.
type Model interface {
	// Step advances the vehicle by one tick.
	Step(c Control)
	// StepVelocity steps towards velocity v by requesting the matching
	// acceleration, subject to the usual limits.
	StepVelocity(v float64, steering *float64)
	// Reset restores the initial pose, jittering x and y uniformly within
	// ±randomize when randomize > 0. Velocity and acceleration are zeroed.
	Reset(randomize float64)
	// Set places the vehicle like Reset but at an arbitrary pose.
	Set(x, y, heading, randomize float64)

	Pose() Pose
	Velocity() float64
	Acceleration() float64
	// Steering returns the current steering input: the wheel angle for the
	// bicycle model, the absolute heading for the point model.
	Steering() float64
	Info() Info

	// ActionBounds returns the limits of (accel, steering).
	ActionBounds() Bounds
	// ObservationBounds returns the limits of a flattened observation over
	// n upcoming points.
	ObservationBounds(n int) Bounds
}

var (
	_ Model = (*BicycleModel)(nil)
	_ Model = (*PointModel)(nil)
)

// Option customises model construction.
type Option func(*vehicle)

// WithLogger routes model debug output to l.
func WithLogger(l *logging.Logger) Option {
	return func(v *vehicle) { v.log = l.Component("physics") }
}

// WithRand replaces the noise and jitter source, which is otherwise seeded
// from Params.Seed.
func WithRand(r *common.Rand) Option {
	return func(v *vehicle) { v.rng = r }
}

// NewModel builds the model selected by p.Kind. An empty kind is a bicycle.
func NewModel(p Params, opts ...Option) (Model, error) {
	switch p.Kind {
	case KindBicycle, "":
		return NewBicycle(p, opts...)
	case KindPoint:
		return NewPoint(p, opts...)
	default:
		return nil, &ConfigError{Field: "model", Value: p.Kind, Reason: `must be "bicycle" or "point"`}
	}
}

// observationBounds lays out 2n ego-frame distances, then velocity,
// acceleration, steering and distance from the path.
func observationBounds(n int, maxVelocity, maxAccel, steerLow, steerHigh float64) Bounds {
	b := Bounds{
		Low:  make([]float64, 0, 2*n+4),
		High: make([]float64, 0, 2*n+4),
	}
	for i := 0; i < 2*n; i++ {
		b.Low = append(b.Low, -MaxObservedDistance)
		b.High = append(b.High, MaxObservedDistance)
	}
	b.Low = append(b.Low, 0, -maxAccel, steerLow, 0)
	b.High = append(b.High, maxVelocity, maxAccel, steerHigh, MaxDistanceFromPath)
	return b
}
