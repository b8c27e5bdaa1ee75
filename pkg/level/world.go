// pkg/level/world.go
package level

import (
	"context"
	"fmt"

	"github.com/opd-ai/betaframework/pkg/config"
	"github.com/opd-ai/betaframework/pkg/engine"
	"github.com/opd-ai/betaframework/pkg/logging"
	"github.com/opd-ai/betaframework/pkg/resource"
)

// World bundles a built level with the managers it runs in.
type World struct {
	Manager   *engine.Manager
	Resources *resource.Manager
	Level     *Level
}

// NewWorld creates a manager for cfg, loads the tile grids cfg references
// relative to baseDir and builds the level called name.
func NewWorld(cfg *config.WorldConfig, name, baseDir string, logger *logging.Logger) (*World, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	m, err := engine.NewManager(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("create world: %w", err)
	}
	res, err := resource.NewManagerFromConfig(m.Config(), baseDir, logger)
	if err != nil {
		return nil, fmt.Errorf("load resources: %w", err)
	}
	l, err := Load(name, m, res)
	if err != nil {
		return nil, err
	}

	logger.Component("level").Info(context.Background(), "Level loaded",
		"level", l.Name,
		"entities", len(l.Entities),
		"grids", res.GridNames(),
	)
	return &World{Manager: m, Resources: res, Level: l}, nil
}
