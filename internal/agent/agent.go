// Package agent provides simple drivers that turn observations into
// controls. They stand in for a trained policy when running or viewing the
// simulator.
package agent

import (
	"fmt"
	"math"

	"flatlands/internal/common"
	"flatlands/internal/physics"
	"flatlands/internal/sim"
)

// Agent chooses the control for the next step.
type Agent interface {
	Act(obs sim.Observation) physics.Control
	String() string
}

// Kinds accepted by New.
const (
	KindPursuit = "pursuit"
	KindRandom  = "random"
)

// DefaultLookahead selects the third upcoming point.
const DefaultLookahead = 2

// New builds the agent named kind for a vehicle with the given action
// bounds. absolute reports whether the vehicle steers by absolute heading.
func New(kind string, bounds physics.Bounds, absolute bool, seed int64) (Agent, error) {
	switch kind {
	case KindPursuit, "":
		p := NewPursuit(bounds.High[0] / 2)
		p.Absolute = absolute
		return p, nil
	case KindRandom:
		return NewRandom(bounds, seed), nil
	default:
		return nil, fmt.Errorf("agent: unknown kind %q", kind)
	}
}

// Pursuit steers straight at one of the upcoming track points with a
// constant throttle.
type Pursuit struct {
	Throttle  float64
	Lookahead int  // index into the upcoming points
	Absolute  bool // emit a heading instead of a wheel angle
}

// NewPursuit returns a pursuit driver aiming at the third upcoming point.
func NewPursuit(throttle float64) *Pursuit {
	return &Pursuit{Throttle: throttle, Lookahead: DefaultLookahead}
}

func (p *Pursuit) Act(obs sim.Observation) physics.Control {
	steer := 0.0
	if n := len(obs.Upcoming); n > 0 {
		k := min(max(p.Lookahead, 0), n-1)
		steer = aim(obs.Upcoming[k])
	}
	if p.Absolute {
		steer = common.NormalizeAngle(obs.Heading + steer)
	}
	return physics.Drive(p.Throttle, steer)
}

// aim returns the steering angle towards r, right positive.
func aim(r common.Relative) float64 {
	if r.Forward == 0 {
		switch {
		case r.Lateral > 0:
			return math.Pi / 2
		case r.Lateral < 0:
			return -math.Pi / 2
		}
		return 0
	}
	return math.Atan(r.Lateral / r.Forward)
}

func (p *Pursuit) String() string {
	return fmt.Sprintf("pursuit(throttle=%g, lookahead=%d)", p.Throttle, p.Lookahead)
}

// Random samples every action uniformly within its bounds.
type Random struct {
	bounds physics.Bounds
	rng    *common.Rand
}

// NewRandom returns a seeded random driver.
func NewRandom(bounds physics.Bounds, seed int64) *Random {
	return &Random{bounds: bounds, rng: common.NewRand(seed)}
}

func (r *Random) Act(sim.Observation) physics.Control {
	return physics.Drive(
		r.rng.Uniform(r.bounds.Low[0], r.bounds.High[0]),
		r.rng.Uniform(r.bounds.Low[1], r.bounds.High[1]),
	)
}

func (r *Random) String() string {
	return fmt.Sprintf("random(accel=[%g, %g], steering=[%g, %g])",
		r.bounds.Low[0], r.bounds.High[0], r.bounds.Low[1], r.bounds.High[1])
}
