// cmd/flatlands runs driving episodes headless and streams every step as a
// JSON line on stdout.
package main

import (
	"flag"
	"os"

	"flatlands/internal/config"
	"flatlands/internal/logging"
	"flatlands/internal/runner"
)

func main() {
	logger := logging.NewLoggerTo(os.Stderr, "flatlands")

	configPath := flag.String("config", "config.json", "Path to configuration file")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	trackPath := flag.String("track", "", "Track table to drive on (overrides the configuration)")
	episodes := flag.Int("episodes", 1, "Number of episodes to run")
	steps := flag.Int("steps", 0, "Maximum steps per episode, 0 uses the configured limit")
	agentKind := flag.String("agent", "", "Driver: pursuit or random (overrides the configuration)")
	flag.Parse()

	// Create default configuration file if requested
	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Failure("Failed to create default configuration", err, "config_path", *configPath)
			os.Exit(1)
		}
		logger.Info("Created default configuration file", "config_path", *configPath)
		return
	}

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Failure("Failed to load configuration", err, "config_path", *configPath)
		os.Exit(1)
	}
	if *trackPath != "" {
		cfg.Track.Path = *trackPath
	}
	if *agentKind != "" {
		cfg.Env.Agent = *agentKind
	}

	// Apply environment variable overrides
	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		logger.Failure("Invalid configuration", err)
		os.Exit(1)
	}

	tr, err := runner.LoadTrack(cfg.Track, logger)
	if err != nil {
		logger.Failure("Failed to load track", err, "track", cfg.Track.Path)
		os.Exit(1)
	}

	env, driver, err := runner.Setup(cfg, tr, logger)
	if err != nil {
		logger.Failure("Failed to set up simulation", err)
		os.Exit(1)
	}

	logger.Info("Starting run",
		"track_points", tr.Len(),
		"path_length", tr.PathLength(),
		"model", cfg.Vehicle.Model,
		"agent", driver.String(),
		"episodes", *episodes,
	)

	summaries, err := runner.Run(env, driver, *episodes, *steps, os.Stdout)
	if err != nil {
		logger.Failure("Run failed", err)
		os.Exit(1)
	}

	for _, s := range summaries {
		logger.Info("Episode finished",
			"episode", s.Episode,
			"steps", s.Steps,
			"reward", s.Reward,
			"laps", s.Laps.Laps,
			"best_lap_steps", s.Laps.Best,
		)
	}
}

// loadConfig reads the configuration file, falling back to the defaults when
// it does not exist.
func loadConfig(path string, logger *logging.Logger) (*config.Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info("Configuration file not found, using default configuration", "config_path", path)
		return config.DefaultConfig(), nil
	}
	return config.LoadConfig(path)
}
