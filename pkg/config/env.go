// pkg/config/env.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// EnvironmentConfig holds the settings read from BETA_* environment
// variables.
type EnvironmentConfig struct {
	FixedStep        time.Duration
	MaxStepsPerFrame int
	UseQuadtree      bool
	QuadtreeDepth    int
	QuadtreeCapacity int
	WorldSize        float64
	GravityY         float64
	HealthAddr       string
	StallTimeout     time.Duration
	MaxMemoryMB      int
}

// LoadConfigFromEnv reads BETA_* variables over the defaults and validates
// the result.
func LoadConfigFromEnv() (*EnvironmentConfig, error) {
	defaults := DefaultConfig()

	config := &EnvironmentConfig{
		FixedStep:        getEnvAsDurationOrDefault("BETA_FIXED_STEP", defaults.Step()),
		MaxStepsPerFrame: getEnvAsIntOrDefault("BETA_MAX_STEPS", defaults.Physics.MaxStepsPerFrame),
		UseQuadtree:      getEnvAsBoolOrDefault("BETA_USE_QUADTREE", defaults.Quadtree.Enabled),
		QuadtreeDepth:    getEnvAsIntOrDefault("BETA_QUADTREE_DEPTH", defaults.Quadtree.MaxDepth),
		QuadtreeCapacity: getEnvAsIntOrDefault("BETA_QUADTREE_CAPACITY", defaults.Quadtree.Capacity),
		WorldSize:        getEnvAsFloatOrDefault("BETA_WORLD_SIZE", defaults.Quadtree.Extents.X),
		GravityY:         getEnvAsFloatOrDefault("BETA_GRAVITY_Y", defaults.Physics.Gravity.Y),
		HealthAddr:       getEnvOrDefault("BETA_HEALTH_ADDR", defaults.Health.Addr),
		StallTimeout:     getEnvAsDurationOrDefault("BETA_STALL_TIMEOUT", defaults.Health.StallTimeout),
		MaxMemoryMB:      getEnvAsIntOrDefault("BETA_MAX_MEMORY_MB", defaults.Health.MaxMemoryMB),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("environment configuration: %w", err)
	}
	return config, nil
}

// Validate checks the environment settings
func (c *EnvironmentConfig) Validate() error {
	switch {
	case c.FixedStep <= 0:
		return fmt.Errorf("%w: FixedStep must be positive, got %v", ErrInvalidConfig, c.FixedStep)
	case c.MaxStepsPerFrame < 1 || c.MaxStepsPerFrame > 1000:
		return fmt.Errorf("%w: MaxStepsPerFrame must be between 1 and 1000, got %d", ErrInvalidConfig, c.MaxStepsPerFrame)
	case c.QuadtreeDepth < 0 || c.QuadtreeDepth > 16:
		return fmt.Errorf("%w: QuadtreeDepth must be between 0 and 16, got %d", ErrInvalidConfig, c.QuadtreeDepth)
	case c.QuadtreeCapacity < 1:
		return fmt.Errorf("%w: QuadtreeCapacity must be at least 1, got %d", ErrInvalidConfig, c.QuadtreeCapacity)
	case c.WorldSize <= 0:
		return fmt.Errorf("%w: WorldSize must be positive, got %v", ErrInvalidConfig, c.WorldSize)
	case c.HealthAddr == "":
		return fmt.Errorf("%w: HealthAddr cannot be empty", ErrInvalidConfig)
	case c.StallTimeout <= 0:
		return fmt.Errorf("%w: StallTimeout must be positive, got %v", ErrInvalidConfig, c.StallTimeout)
	case c.MaxMemoryMB < 1:
		return fmt.Errorf("%w: MaxMemoryMB must be at least 1, got %d", ErrInvalidConfig, c.MaxMemoryMB)
	}
	return nil
}

// ApplyEnvironmentOverrides copies the BETA_* variables that are set onto
// config and validates the result.
func ApplyEnvironmentOverrides(config *WorldConfig) error {
	if v, ok := os.LookupEnv("BETA_FIXED_STEP"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%w: BETA_FIXED_STEP: %v", ErrInvalidConfig, err)
		}
		config.Physics.FixedStep = d.Seconds()
	}
	if _, ok := os.LookupEnv("BETA_MAX_STEPS"); ok {
		config.Physics.MaxStepsPerFrame = getEnvAsIntOrDefault("BETA_MAX_STEPS", config.Physics.MaxStepsPerFrame)
	}
	if _, ok := os.LookupEnv("BETA_USE_QUADTREE"); ok {
		config.Quadtree.Enabled = getEnvAsBoolOrDefault("BETA_USE_QUADTREE", config.Quadtree.Enabled)
	}
	if _, ok := os.LookupEnv("BETA_QUADTREE_DEPTH"); ok {
		config.Quadtree.MaxDepth = getEnvAsIntOrDefault("BETA_QUADTREE_DEPTH", config.Quadtree.MaxDepth)
	}
	if _, ok := os.LookupEnv("BETA_QUADTREE_CAPACITY"); ok {
		config.Quadtree.Capacity = getEnvAsIntOrDefault("BETA_QUADTREE_CAPACITY", config.Quadtree.Capacity)
	}
	if _, ok := os.LookupEnv("BETA_WORLD_SIZE"); ok {
		size := getEnvAsFloatOrDefault("BETA_WORLD_SIZE", config.Quadtree.Extents.X)
		config.Quadtree.Extents.X, config.Quadtree.Extents.Y = size, size
	}
	if _, ok := os.LookupEnv("BETA_GRAVITY_Y"); ok {
		config.Physics.Gravity.Y = getEnvAsFloatOrDefault("BETA_GRAVITY_Y", config.Physics.Gravity.Y)
	}
	config.Health.Addr = getEnvOrDefault("BETA_HEALTH_ADDR", config.Health.Addr)
	config.Health.StallTimeout = getEnvAsDurationOrDefault("BETA_STALL_TIMEOUT", config.Health.StallTimeout)
	config.Health.MaxMemoryMB = getEnvAsIntOrDefault("BETA_MAX_MEMORY_MB", config.Health.MaxMemoryMB)

	return config.Validate()
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloatOrDefault(key string, defaultValue float64) float64 {
	if value, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}
