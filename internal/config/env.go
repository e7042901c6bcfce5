package config

import (
	"os"
	"strconv"
)

// Environment variables read by ApplyEnvironmentOverrides.
const (
	EnvTrack    = "FLATLANDS_TRACK"
	EnvGeodetic = "FLATLANDS_GEODETIC"
	EnvModel    = "FLATLANDS_MODEL"
	EnvNoise    = "FLATLANDS_NOISE"
	EnvSeed     = "FLATLANDS_SEED"
	EnvMaxSteps = "FLATLANDS_MAX_STEPS"
)

// ApplyEnvironmentOverrides replaces settings with any FLATLANDS_*
// environment variables that are set, then validates the result. Values
// that do not parse are ignored.
func ApplyEnvironmentOverrides(config *Config) error {
	config.Track.Path = getEnvOrDefault(EnvTrack, config.Track.Path)
	config.Track.Geodetic = getEnvAsBoolOrDefault(EnvGeodetic, config.Track.Geodetic)
	config.Vehicle.Model = getEnvOrDefault(EnvModel, config.Vehicle.Model)
	config.Vehicle.Noise = getEnvAsFloatOrDefault(EnvNoise, config.Vehicle.Noise)
	config.Env.Seed = int64(getEnvAsIntOrDefault(EnvSeed, int(config.Env.Seed)))
	config.Env.MaxSteps = getEnvAsIntOrDefault(EnvMaxSteps, config.Env.MaxSteps)

	return config.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
