// cmd/viewer/main.go
package main

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/opd-ai/betaframework/pkg/config"
	"github.com/opd-ai/betaframework/pkg/level"
	"github.com/opd-ai/betaframework/pkg/logging"
	ebitenview "github.com/opd-ai/betaframework/pkg/render/ebiten"
	"github.com/opd-ai/betaframework/pkg/snapshot"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	configPath := flag.String("config", "", "Path to world configuration file")
	levelName := flag.String("level", "platformer", "Level to load: "+strings.Join(level.Names(), ", "))
	follow := flag.String("follow", "", "Name of the entity the view follows")
	replay := flag.String("snapshot", "", "Restore the last frame of this msgpack snapshot stream before starting")
	width := flag.Int("width", 960, "Window width in pixels")
	height := flag.Int("height", 720, "Window height in pixels")
	flag.Parse()

	cfg := config.DefaultConfig()
	if *configPath != "" {
		var err error
		if cfg, err = config.LoadConfig(*configPath); err != nil {
			logger.Error(ctx, "Failed to load configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
	}
	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		logger.Error(ctx, "Failed to apply environment configuration", err)
		os.Exit(1)
	}

	world, err := level.NewWorld(cfg, *levelName, ".", logger)
	if err != nil {
		logger.Error(ctx, "Failed to build world", err,
			"level", *levelName,
		)
		os.Exit(1)
	}

	if *replay != "" {
		if err := restore(world, *replay, logger); err != nil {
			logger.Error(ctx, "Failed to restore snapshot", err,
				"path", *replay,
			)
			os.Exit(1)
		}
	}

	game := ebitenview.NewGame(world.Manager, logger, *width, *height, *follow)
	if err := game.Run("betaframework: " + world.Level.Name); err != nil {
		logger.Error(ctx, "Viewer failed", err)
		os.Exit(1)
	}
}

func restore(world *level.World, path string, logger *logging.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	frames, err := snapshot.ReadAll(f)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return nil
	}
	last := frames[len(frames)-1]
	restored := snapshot.Apply(world.Manager, last)
	logger.Info(context.Background(), "Snapshot restored",
		"step", last.Step,
		"bodies", restored,
	)
	return nil
}
