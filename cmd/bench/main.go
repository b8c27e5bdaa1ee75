// cmd/bench/main.go
//
// Profiling:
//
//	go build ./cmd/bench
//	./bench -level asteroids -steps 6000 -profile cpu
//	go tool pprof -http=":8000" ./bench cpu.pprof
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/pkg/profile"

	"github.com/opd-ai/betaframework/pkg/config"
	"github.com/opd-ai/betaframework/pkg/level"
	"github.com/opd-ai/betaframework/pkg/logging"
	"github.com/opd-ai/betaframework/pkg/render"
	"github.com/opd-ai/betaframework/pkg/snapshot"
)

func main() {
	logger := logging.NewLogger()
	ctx := context.Background()

	levelName := flag.String("level", "asteroids", "Level to run")
	steps := flag.Int("steps", 3600, "Number of fixed steps to run")
	bruteForce := flag.Bool("brute", false, "Use the brute force broad phase")
	mode := flag.String("profile", "", "Profile to write: cpu, mem or trace")
	profileDir := flag.String("profile-dir", ".", "Directory for profile output")
	record := flag.String("record", "", "Write a msgpack snapshot stream to this file")
	every := flag.Int("every", 60, "Record one snapshot every n steps")
	draw := flag.Bool("draw", false, "Run the debug drawer after every step")
	flag.Parse()

	cfg := config.DefaultConfig()
	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		logger.Error(ctx, "Failed to apply environment configuration", err)
		os.Exit(1)
	}
	cfg.Quadtree.Enabled = !*bruteForce

	world, err := level.NewWorld(cfg, *levelName, ".", logger)
	if err != nil {
		logger.Error(ctx, "Failed to build world", err,
			"level", *levelName,
		)
		os.Exit(1)
	}

	var recorder *snapshot.Recorder
	if *record != "" {
		f, err := os.Create(*record)
		if err != nil {
			logger.Error(ctx, "Failed to create snapshot file", err,
				"path", *record,
			)
			os.Exit(1)
		}
		defer f.Close()
		recorder = snapshot.NewRecorder(f)
	}

	var drawer *render.NullRenderer
	if *draw {
		drawer = render.NewNullRenderer(logger)
	}

	if p := startProfile(*mode, *profileDir); p != nil {
		defer p.Stop()
	}

	m := world.Manager
	start := time.Now()
	shapes := 0
	for i := 1; i <= *steps; i++ {
		m.Step()
		if drawer != nil {
			drawer.Reset()
			m.DebugDraw(drawer)
			shapes += drawer.Counts().Total()
		}
		if recorder != nil && *every > 0 && i%*every == 0 {
			if err := recorder.Record(snapshot.Capture(m)); err != nil {
				logger.Error(ctx, "Failed to record snapshot", err)
				os.Exit(1)
			}
		}
	}
	elapsed := time.Since(start)

	args := []any{
		"level", world.Level.Name,
		"entities", len(m.Entities()),
		"steps", *steps,
		"quadtree", m.UsesQuadtree(),
		"elapsed", elapsed,
		"per_step", elapsed / time.Duration(max(*steps, 1)),
	}
	if drawer != nil {
		args = append(args, "shapes_drawn", shapes)
	}
	if recorder != nil {
		args = append(args, "snapshots", recorder.Frames(), "snapshot_path", *record)
	}
	logger.Info(ctx, "Benchmark finished", args...)
}

func startProfile(mode, dir string) interface{ Stop() } {
	switch mode {
	case "cpu":
		return profile.Start(profile.CPUProfile, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet)
	case "mem":
		return profile.Start(profile.MemProfileAllocs, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet)
	case "trace":
		return profile.Start(profile.TraceProfile, profile.ProfilePath(dir), profile.NoShutdownHook, profile.Quiet)
	}
	return nil
}
