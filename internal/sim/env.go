// Package sim couples a vehicle model with a track and produces one
// observation per control step.
package sim

import (
	"fmt"

	"flatlands/internal/common"
	"flatlands/internal/logging"
	"flatlands/internal/physics"
	"flatlands/internal/track"
)

// Options configures an Env.
type Options struct {
	// Upcoming is the number of track points observed ahead of the vehicle.
	Upcoming int
	// ResetJitter is the uniform x/y placement noise applied on reset.
	ResetJitter float64
	// MaxSteps ends an episode after this many steps; 0 never does.
	MaxSteps int
	// OffTrackDistance ends an episode once the vehicle is further than
	// this from the centerline; 0 never does.
	OffTrackDistance float64
	// OffTrackPenalty is the reward lost per unit beyond OffTrackDistance.
	OffTrackPenalty float64
	// Seed drives the random reset index.
	Seed   int64
	Logger *logging.Logger
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		Upcoming:         track.DefaultUpcoming,
		MaxSteps:         1000,
		OffTrackDistance: 10,
		OffTrackPenalty:  1,
	}
}

// Observation is everything the controller sees after a step.
type Observation struct {
	Step              int               `json:"step"`
	Upcoming          []common.Relative `json:"upcoming"`
	DistanceFromTrack float64           `json:"distance_from_track"`
	DistanceToGoal    float64           `json:"distance_to_goal"`
	Heading           float64           `json:"heading"`
	Progress          float64           `json:"progress"` // path distance along the loop
	Offset            float64           `json:"offset"`   // signed lateral offset, right positive
	Velocity          float64           `json:"velocity"`
	Acceleration      float64           `json:"acceleration"`
	Steering          float64           `json:"steering"`
	Lap               int               `json:"lap"`
	Reward            float64           `json:"reward"`
	Done              bool              `json:"done"`
}

// Vector flattens the observation as lateral/forward pairs followed by
// velocity, acceleration, steering and distance from the track, matching
// physics.Model.ObservationBounds.
func (o Observation) Vector() []float64 {
	v := make([]float64, 0, 2*len(o.Upcoming)+4)
	for _, r := range o.Upcoming {
		v = append(v, r.Lateral, r.Forward)
	}
	return append(v, o.Velocity, o.Acceleration, o.Steering, o.DistanceFromTrack)
}

// LapStats counts completed laps in steps.
type LapStats struct {
	Laps    int `json:"laps"`
	Current int `json:"current"`
	Last    int `json:"last"`
	Best    int `json:"best"`
}

// Env runs one vehicle on a shared track. The track is only read; the Env
// owns the model and is not safe for concurrent use.
type Env struct {
	track *track.Track
	model physics.Model
	opts  Options
	rng   *common.Rand
	base  *logging.Logger
	log   *logging.Logger

	steps    int
	nearest  int
	prevGoal float64
	laps     LapStats
}

// NewEnv wires model to t. Zero-valued Upcoming falls back to the track
// default.
func NewEnv(t *track.Track, model physics.Model, opts Options) (*Env, error) {
	if t == nil {
		return nil, fmt.Errorf("sim: nil track")
	}
	if model == nil {
		return nil, fmt.Errorf("sim: nil model")
	}
	if opts.Upcoming <= 0 {
		opts.Upcoming = track.DefaultUpcoming
	}
	if opts.MaxSteps < 0 || opts.OffTrackDistance < 0 || opts.ResetJitter < 0 {
		return nil, fmt.Errorf("sim: negative limits in options")
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	return &Env{
		track: t,
		model: model,
		opts:  opts,
		rng:   common.NewRand(opts.Seed),
		base:  log.Component("sim"),
		log:   log.Component("sim"),
	}, nil
}

// Track returns the shared track.
func (e *Env) Track() *track.Track { return e.track }

// Model returns the vehicle model.
func (e *Env) Model() physics.Model { return e.model }

// Options returns the options in effect.
func (e *Env) Options() Options { return e.opts }

// Laps returns the lap counters.
func (e *Env) Laps() LapStats { return e.laps }

// Info returns the vehicle snapshot for rendering.
func (e *Env) Info() physics.Info { return e.model.Info() }

// Reset starts a new episode at track point idx, facing that point's
// direction.
func (e *Env) Reset(idx int) (Observation, error) {
	if idx < 0 || idx >= e.track.Len() {
		return Observation{}, fmt.Errorf("sim: reset index %d out of range [0, %d)", idx, e.track.Len())
	}

	wp := e.track.Point(idx)
	e.model.Set(wp.Position.X, wp.Position.Y, wp.Direction, e.opts.ResetJitter)

	e.steps = 0
	e.laps = LapStats{}
	e.log = e.base.WithEpisode("")
	e.log.Debug("episode reset", "index", idx, "x", wp.Position.X, "y", wp.Position.Y)

	pos := e.model.Pose().Position()
	e.nearest = e.track.NearestPoint(pos)
	e.prevGoal = e.track.DistanceToGoal(pos)
	return e.observe(0), nil
}

// ResetRandom resets at a uniformly chosen track point.
func (e *Env) ResetRandom() Observation {
	obs, _ := e.Reset(e.rng.Intn(e.track.Len()))
	return obs
}

// Step applies c to the vehicle and observes the result.
//
// The reward is the progress made towards the goal, with a lap completion
// counting as a full track length rather than a jump back, minus the
// off-track penalty.
func (e *Env) Step(c physics.Control) Observation {
	e.model.Step(c)
	e.steps++
	e.laps.Current++

	pos := e.model.Pose().Position()
	nearest := e.track.NearestPoint(pos)
	goal := e.track.DistanceToGoal(pos)

	progress := e.prevGoal - goal
	switch e.crossing(e.nearest, nearest) {
	case 1:
		progress += e.track.PathLength()
		e.completeLap()
	case -1:
		progress -= e.track.PathLength()
	}
	e.nearest = nearest
	e.prevGoal = goal

	return e.observe(progress)
}

// crossing reports +1 when the nearest point wrapped forwards over the start,
// -1 when it wrapped backwards and 0 otherwise.
func (e *Env) crossing(prev, cur int) int {
	n := e.track.Len()
	near := max(1, n/4)
	switch {
	case prev >= n-near && cur < near:
		return 1
	case prev < near && cur >= n-near:
		return -1
	}
	return 0
}

func (e *Env) completeLap() {
	e.laps.Laps++
	e.laps.Last = e.laps.Current
	if e.laps.Best == 0 || e.laps.Last < e.laps.Best {
		e.laps.Best = e.laps.Last
	}
	e.laps.Current = 0
	e.log.Info("lap completed", "lap", e.laps.Laps, "steps", e.laps.Last, "best", e.laps.Best)
}

func (e *Env) observe(progress float64) Observation {
	pose := e.model.Pose()
	pos := pose.Position()

	obs := Observation{
		Step:              e.steps,
		Upcoming:          e.track.UpcomingPoints(pos, pose.Heading, e.opts.Upcoming),
		DistanceFromTrack: e.track.DistanceFromTrack(pos),
		DistanceToGoal:    e.prevGoal,
		Heading:           pose.Heading,
		Velocity:          e.model.Velocity(),
		Acceleration:      e.model.Acceleration(),
		Steering:          e.model.Steering(),
		Lap:               e.laps.Laps,
	}
	obs.Progress, obs.Offset = e.track.Frenet(pos)

	obs.Reward = progress
	offTrack := false
	if limit := e.opts.OffTrackDistance; limit > 0 && obs.DistanceFromTrack > limit {
		obs.Reward -= e.opts.OffTrackPenalty * (obs.DistanceFromTrack - limit)
		offTrack = true
	}
	maxed := e.opts.MaxSteps > 0 && e.steps >= e.opts.MaxSteps
	obs.Done = offTrack || maxed

	if obs.Done {
		e.log.Info("episode done",
			"steps", e.steps,
			"off_track", offTrack,
			"distance_from_track", obs.DistanceFromTrack,
			"distance_to_goal", obs.DistanceToGoal,
			"laps", e.laps.Laps,
		)
	}
	return obs
}
