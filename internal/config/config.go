// Package config loads simulator settings from JSON files and environment
// variables.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"flatlands/internal/physics"
	"flatlands/internal/sim"
)

// Config is the complete simulator configuration.
type Config struct {
	Track   TrackConfig   `json:"track"`
	Vehicle VehicleConfig `json:"vehicle"`
	Env     EnvConfig     `json:"env"`
	Viewer  ViewerConfig  `json:"viewer"`
}

// TrackConfig selects the track table. An empty path uses the built-in
// oval.
type TrackConfig struct {
	Path     string `json:"path"`
	Geodetic bool   `json:"geodetic"`
}

// VehicleConfig contains the kinematic model and its limits.
type VehicleConfig struct {
	Model         string  `json:"model"`
	Wheelbase     float64 `json:"wheelbase"`
	TrackWidth    float64 `json:"trackWidth"`
	MaxWheelAngle float64 `json:"maxWheelAngle"`
	MaxVelocity   float64 `json:"maxVelocity"`
	MaxAccel      float64 `json:"maxAccel"`
	Noise         float64 `json:"noise"`
}

// EnvConfig contains episode settings.
type EnvConfig struct {
	Upcoming         int     `json:"upcoming"`
	ResetJitter      float64 `json:"resetJitter"`
	MaxSteps         int     `json:"maxSteps"`
	OffTrackDistance float64 `json:"offTrackDistance"`
	OffTrackPenalty  float64 `json:"offTrackPenalty"`
	Seed             int64   `json:"seed"`
	Agent            string  `json:"agent"`
}

// ViewerConfig contains window settings for the viewer.
type ViewerConfig struct {
	Width         int    `json:"width"`
	Height        int    `json:"height"`
	TicksPerFrame int    `json:"ticksPerFrame"`
	Title         string `json:"title"`
}

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// LoadConfig loads a configuration from a file. Fields missing from the
// file keep their default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *Config, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	p := physics.DefaultParams()
	o := sim.DefaultOptions()

	return &Config{
		Vehicle: VehicleConfig{
			Model:         string(p.Kind),
			Wheelbase:     p.Wheelbase,
			TrackWidth:    p.TrackWidth,
			MaxWheelAngle: p.MaxWheelAngle,
			MaxVelocity:   p.MaxVelocity,
			MaxAccel:      p.MaxAccel,
			Noise:         p.Noise,
		},
		Env: EnvConfig{
			Upcoming:         o.Upcoming,
			ResetJitter:      o.ResetJitter,
			MaxSteps:         o.MaxSteps,
			OffTrackDistance: o.OffTrackDistance,
			OffTrackPenalty:  o.OffTrackPenalty,
			Agent:            "pursuit",
		},
		Viewer: ViewerConfig{
			Width:         1200,
			Height:        800,
			TicksPerFrame: 1,
			Title:         "Flatlands",
		},
	}
}

// Validate checks the settings that are not validated by the packages that
// consume them.
func (c *Config) Validate() error {
	switch c.Vehicle.Model {
	case string(physics.KindBicycle), string(physics.KindPoint):
	default:
		return &ValidationError{Field: "vehicle.model", Message: fmt.Sprintf("unknown model %q", c.Vehicle.Model)}
	}
	if c.Vehicle.Noise < 0 || math.IsNaN(c.Vehicle.Noise) {
		return &ValidationError{Field: "vehicle.noise", Message: "must not be negative"}
	}
	if c.Env.Upcoming <= 0 {
		return &ValidationError{Field: "env.upcoming", Message: "must be positive"}
	}
	if c.Env.MaxSteps < 0 {
		return &ValidationError{Field: "env.maxSteps", Message: "must not be negative"}
	}
	if c.Env.OffTrackDistance < 0 {
		return &ValidationError{Field: "env.offTrackDistance", Message: "must not be negative"}
	}
	if c.Env.ResetJitter < 0 {
		return &ValidationError{Field: "env.resetJitter", Message: "must not be negative"}
	}
	switch c.Env.Agent {
	case "pursuit", "random":
	default:
		return &ValidationError{Field: "env.agent", Message: fmt.Sprintf("unknown agent %q", c.Env.Agent)}
	}
	if c.Viewer.Width <= 0 || c.Viewer.Height <= 0 {
		return &ValidationError{Field: "viewer", Message: "window size must be positive"}
	}
	if c.Viewer.TicksPerFrame <= 0 {
		return &ValidationError{Field: "viewer.ticksPerFrame", Message: "must be positive"}
	}
	return nil
}

// Params maps the vehicle settings onto model parameters. The seed is
// shared with the environment.
func (c *Config) Params() physics.Params {
	return physics.Params{
		Kind:          physics.Kind(c.Vehicle.Model),
		Wheelbase:     c.Vehicle.Wheelbase,
		TrackWidth:    c.Vehicle.TrackWidth,
		MaxWheelAngle: c.Vehicle.MaxWheelAngle,
		MaxVelocity:   c.Vehicle.MaxVelocity,
		MaxAccel:      c.Vehicle.MaxAccel,
		Noise:         c.Vehicle.Noise,
		Seed:          c.Env.Seed,
	}
}

// Options maps the episode settings onto environment options.
func (c *Config) Options() sim.Options {
	return sim.Options{
		Upcoming:         c.Env.Upcoming,
		ResetJitter:      c.Env.ResetJitter,
		MaxSteps:         c.Env.MaxSteps,
		OffTrackDistance: c.Env.OffTrackDistance,
		OffTrackPenalty:  c.Env.OffTrackPenalty,
		Seed:             c.Env.Seed,
	}
}
