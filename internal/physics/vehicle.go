package physics

import (
	"math"

	"flatlands/internal/common"
	"flatlands/internal/logging"
)

// vehicle holds the state shared by every model.
type vehicle struct {
	name        string
	initial     Pose
	pose        Pose
	prevHeading float64

	velocity float64
	accel    float64

	maxVelocity float64
	maxAccel    float64
	noise       float64

	rng *common.Rand
	log *logging.Logger
}

func newVehicle(name string, p Params, opts []Option) vehicle {
	start := Pose{X: p.X, Y: p.Y, Heading: common.NormalizeAngle(p.Heading)}
	v := vehicle{
		name:        name,
		initial:     start,
		pose:        start,
		prevHeading: start.Heading,
		maxVelocity: p.MaxVelocity,
		maxAccel:    p.MaxAccel,
		noise:       p.Noise,
		log:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(&v)
	}
	if v.rng == nil {
		v.rng = common.NewRand(p.Seed)
	}
	return v
}

// validateLimits checks the parameters common to both models.
func validateLimits(p Params) error {
	switch {
	case !(p.MaxVelocity > 0):
		return &ConfigError{Field: "max_velocity", Value: p.MaxVelocity, Reason: "must be positive"}
	case !(p.MaxAccel > 0):
		return &ConfigError{Field: "max_accel", Value: p.MaxAccel, Reason: "must be positive"}
	case !(p.Noise >= 0):
		return &ConfigError{Field: "noise", Value: p.Noise, Reason: "must not be negative"}
	}
	return nil
}

func (v *vehicle) Pose() Pose            { return v.pose }
func (v *vehicle) Velocity() float64     { return v.velocity }
func (v *vehicle) Acceleration() float64 { return v.accel }

// AngularVelocity returns the heading change of the last step in
// [-π, π], right turns positive.
func (v *vehicle) AngularVelocity() float64 {
	return math.Remainder(v.pose.Heading-v.prevHeading, common.TwoPi)
}

func (v *vehicle) Reset(randomize float64) {
	v.place(v.initial, randomize)
}

func (v *vehicle) Set(x, y, heading, randomize float64) {
	v.place(Pose{X: x, Y: y, Heading: common.NormalizeAngle(heading)}, randomize)
}

func (v *vehicle) place(p Pose, randomize float64) {
	if randomize > 0 {
		p.X += v.rng.Uniform(-randomize, randomize)
		p.Y += v.rng.Uniform(-randomize, randomize)
	}
	v.pose = p
	v.prevHeading = p.Heading
	v.velocity = 0
	v.accel = 0
	v.log.Debug("vehicle placed", "model", v.name, "x", p.X, "y", p.Y, "heading", p.Heading)
}

// jitter returns a uniform perturbation of at most frac·|x|, or 0 when the
// model has no noise.
func (v *vehicle) jitter(x, frac float64) float64 {
	if v.noise == 0 || x == 0 {
		return 0
	}
	r := math.Abs(x) * frac
	return v.rng.Uniform(-r, r)
}

// setPose stores the new pose with the heading normalised.
func (v *vehicle) setPose(x, y, heading float64) {
	v.prevHeading = v.pose.Heading
	v.pose = Pose{X: x, Y: y, Heading: common.NormalizeAngle(heading)}
}

// advance records the step's velocity change as the acceleration.
func (v *vehicle) advance(newVelocity float64) {
	v.accel = newVelocity - v.velocity
	v.velocity = newVelocity
}
