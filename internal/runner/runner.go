// Package runner assembles an environment and a driver from configuration
// and runs episodes.
package runner

import (
	"encoding/json"
	"fmt"
	"io"

	"flatlands/internal/agent"
	"flatlands/internal/config"
	"flatlands/internal/logging"
	"flatlands/internal/physics"
	"flatlands/internal/sim"
	"flatlands/internal/track"
)

// LoadTrack loads the configured track table, or the built-in oval when no
// path is set.
func LoadTrack(cfg config.TrackConfig, log *logging.Logger) (*track.Track, error) {
	opts := []track.Option{track.WithLogger(log)}
	if cfg.Geodetic {
		opts = append(opts, track.WithGeodetic())
	}

	if cfg.Path == "" {
		log.Info("no track configured, using the built-in oval")
		t, err := track.BuiltinOval(opts...)
		if err != nil {
			return nil, logging.WrapError(err, "build oval")
		}
		return t, nil
	}
	return track.LoadFile(cfg.Path, opts...)
}

// Setup builds the environment and driver described by cfg on t.
func Setup(cfg *config.Config, t *track.Track, log *logging.Logger) (*sim.Env, agent.Agent, error) {
	model, err := physics.NewModel(cfg.Params(), physics.WithLogger(log))
	if err != nil {
		return nil, nil, logging.WrapError(err, "create %s model", cfg.Vehicle.Model)
	}

	opts := cfg.Options()
	opts.Logger = log
	env, err := sim.NewEnv(t, model, opts)
	if err != nil {
		return nil, nil, err
	}

	absolute := physics.Kind(cfg.Vehicle.Model) == physics.KindPoint
	driver, err := agent.New(cfg.Env.Agent, model.ActionBounds(), absolute, cfg.Env.Seed)
	if err != nil {
		return nil, nil, err
	}
	return env, driver, nil
}

// Record is one line of run output.
type Record struct {
	Episode     int             `json:"episode"`
	Observation sim.Observation `json:"observation"`
	Vehicle     physics.Info    `json:"vehicle"`
}

// Summary describes a finished episode.
type Summary struct {
	Episode int          `json:"episode"`
	Steps   int          `json:"steps"`
	Reward  float64      `json:"reward"`
	Laps    sim.LapStats `json:"laps"`
}

// Run drives episodes with driver, writing one JSON record per step to w.
// Each episode starts at a random track point and lasts until the
// environment reports done or maxSteps is reached; maxSteps <= 0 relies on
// the environment alone.
func Run(env *sim.Env, driver agent.Agent, episodes, maxSteps int, w io.Writer) ([]Summary, error) {
	if episodes < 0 {
		return nil, fmt.Errorf("runner: negative episode count %d", episodes)
	}
	if maxSteps <= 0 && env.Options().MaxSteps <= 0 {
		return nil, fmt.Errorf("runner: episodes have no step limit")
	}

	enc := json.NewEncoder(w)
	summaries := make([]Summary, 0, episodes)

	for ep := 0; ep < episodes; ep++ {
		obs := env.ResetRandom()
		s := Summary{Episode: ep}

		for !obs.Done && (maxSteps <= 0 || s.Steps < maxSteps) {
			obs = env.Step(driver.Act(obs))
			s.Steps++
			s.Reward += obs.Reward

			rec := Record{Episode: ep, Observation: obs, Vehicle: env.Info()}
			if err := enc.Encode(rec); err != nil {
				return summaries, logging.WrapError(err, "write step %d of episode %d", s.Steps, ep)
			}
		}

		s.Laps = env.Laps()
		summaries = append(summaries, s)
	}

	return summaries, nil
}
