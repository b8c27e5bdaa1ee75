// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/opd-ai/betaframework/pkg/physics"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// WorldConfig contains configuration for a simulation world
type WorldConfig struct {
	Name     string          `json:"name"`
	Physics  PhysicsConfig   `json:"physics"`
	Quadtree QuadtreeConfig  `json:"quadtree"`
	Ray      RayConfig       `json:"ray"`
	Debug    DebugConfig     `json:"debug"`
	Health   HealthConfig    `json:"health"`
	Grids    []GridReference `json:"grids,omitempty"`
}

// PhysicsConfig controls the fixed-step loop
type PhysicsConfig struct {
	// FixedStep is the simulation step in seconds.
	FixedStep        float64          `json:"fixedStep"`
	MaxStepsPerFrame int              `json:"maxStepsPerFrame"`
	Gravity          physics.Vector2D `json:"gravity"`
}

// QuadtreeConfig controls the broad phase
type QuadtreeConfig struct {
	Enabled  bool             `json:"enabled"`
	Center   physics.Vector2D `json:"center"`
	Extents  physics.Vector2D `json:"extents"`
	MaxDepth int              `json:"maxDepth"`
	Capacity int              `json:"capacity"`
}

// RayConfig holds ray cast defaults
type RayConfig struct {
	DefaultExclude  string  `json:"defaultExclude"`
	DefaultDistance float64 `json:"defaultDistance"`
}

// DebugConfig toggles debug drawing
type DebugConfig struct {
	DrawColliders bool `json:"drawColliders"`
	DrawQuadtree  bool `json:"drawQuadtree"`
}

// HealthConfig configures the health endpoints
type HealthConfig struct {
	Addr         string        `json:"addr"`
	StallTimeout time.Duration `json:"stallTimeout"`
	MaxMemoryMB  int           `json:"maxMemoryMB"`
}

// GridReference names a tile grid file to load into the resource manager
type GridReference struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Step returns the fixed step as a duration
func (c *WorldConfig) Step() time.Duration {
	return time.Duration(math.Round(c.Physics.FixedStep * float64(time.Second)))
}

// QuadtreeBounds returns the region covered by the root quadtree node
func (c *WorldConfig) QuadtreeBounds() physics.BoundingRectangle {
	return physics.NewBoundingRectangle(c.Quadtree.Center, c.Quadtree.Extents)
}

// Validate checks the configuration for values the simulation cannot run
// with.
func (c *WorldConfig) Validate() error {
	switch {
	case c.Physics.FixedStep <= 0:
		return fmt.Errorf("%w: physics.fixedStep must be positive, got %v", ErrInvalidConfig, c.Physics.FixedStep)
	case c.Physics.MaxStepsPerFrame < 1:
		return fmt.Errorf("%w: physics.maxStepsPerFrame must be at least 1, got %d", ErrInvalidConfig, c.Physics.MaxStepsPerFrame)
	case c.Quadtree.Extents.X <= 0 || c.Quadtree.Extents.Y <= 0:
		return fmt.Errorf("%w: quadtree.extents must be positive, got %v", ErrInvalidConfig, c.Quadtree.Extents)
	case c.Quadtree.MaxDepth < 0:
		return fmt.Errorf("%w: quadtree.maxDepth must not be negative, got %d", ErrInvalidConfig, c.Quadtree.MaxDepth)
	case c.Quadtree.Capacity < 1:
		return fmt.Errorf("%w: quadtree.capacity must be at least 1, got %d", ErrInvalidConfig, c.Quadtree.Capacity)
	case c.Ray.DefaultDistance < 0:
		return fmt.Errorf("%w: ray.defaultDistance must not be negative, got %v", ErrInvalidConfig, c.Ray.DefaultDistance)
	case c.Health.StallTimeout < 0:
		return fmt.Errorf("%w: health.stallTimeout must not be negative, got %v", ErrInvalidConfig, c.Health.StallTimeout)
	}
	for i, grid := range c.Grids {
		if grid.Name == "" || grid.Path == "" {
			return fmt.Errorf("%w: grids[%d] needs a name and a path", ErrInvalidConfig, i)
		}
	}
	return nil
}

// LoadConfig loads and validates a configuration from a file. Fields
// missing from the file keep their default values.
func LoadConfig(path string) (*WorldConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return config, nil
}

// SaveConfig saves a configuration to a file
func SaveConfig(config *WorldConfig, path string) error {
	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfig returns a default world configuration
func DefaultConfig() *WorldConfig {
	return &WorldConfig{
		Name: "sandbox",
		Physics: PhysicsConfig{
			FixedStep:        1.0 / 60.0,
			MaxStepsPerFrame: 8,
			Gravity:          physics.Vector2D{X: 0, Y: -9.81},
		},
		Quadtree: QuadtreeConfig{
			Enabled:  true,
			Center:   physics.Vector2D{},
			Extents:  physics.Vector2D{X: 100, Y: 100},
			MaxDepth: 5,
			Capacity: 4,
		},
		Ray: RayConfig{
			DefaultDistance: 100,
		},
		Debug: DebugConfig{
			DrawColliders: true,
		},
		Health: HealthConfig{
			Addr:         ":8081",
			StallTimeout: 5 * time.Second,
			MaxMemoryMB:  512,
		},
	}
}
