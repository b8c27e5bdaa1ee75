// cmd/sandbox/main.go
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/opd-ai/betaframework/pkg/config"
	"github.com/opd-ai/betaframework/pkg/health"
	"github.com/opd-ai/betaframework/pkg/level"
	"github.com/opd-ai/betaframework/pkg/logging"
	"github.com/opd-ai/betaframework/pkg/render"
	engoview "github.com/opd-ai/betaframework/pkg/render/engo"
	"github.com/opd-ai/betaframework/pkg/resource"
)

func main() {
	ctx := context.Background()

	configPath := flag.String("config", "world.json", "Path to world configuration file")
	createDefault := flag.Bool("default", false, "Create default configuration file")
	levelName := flag.String("level", "pinball", "Level to load: "+strings.Join(level.Names(), ", "))
	renderer := flag.String("renderer", "terminal", "Renderer: terminal or engo")
	follow := flag.String("follow", "", "Name of the entity the view follows")
	scale := flag.Float64("scale", 1, "World units per terminal cell")
	serveHealth := flag.Bool("health", false, "Serve /healthz and /readyz on the configured address")
	logPath := flag.String("log", "", "Write logs to this file instead of stdout")
	flag.Parse()

	logger, closeLog, err := newLogger(*logPath, *renderer == "terminal" && !*createDefault)
	if err != nil {
		logging.NewLogger().Error(ctx, "Failed to open log file", err,
			"log_path", *logPath,
		)
		os.Exit(1)
	}
	defer closeLog()

	if *renderer != "terminal" && *renderer != "engo" {
		logger.Error(ctx, "Unknown renderer", nil,
			"renderer", *renderer,
		)
		os.Exit(1)
	}

	if *createDefault {
		if err := config.SaveConfig(config.DefaultConfig(), *configPath); err != nil {
			logger.Error(ctx, "Failed to create default configuration", err,
				"config_path", *configPath,
			)
			os.Exit(1)
		}
		logger.Info(ctx, "Created default configuration file",
			"config_path", *configPath,
		)
		return
	}

	cfg, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Error(ctx, "Failed to load configuration", err,
			"config_path", *configPath,
		)
		os.Exit(1)
	}

	world, err := level.NewWorld(cfg, *levelName, filepath.Dir(*configPath), logger)
	if err != nil {
		logger.Error(ctx, "Failed to build world", err,
			"level", *levelName,
		)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := world.Resources.Start(ctx); err != nil {
		logger.Error(ctx, "Failed to start resource monitoring", err)
		os.Exit(1)
	}

	var healthServer *http.Server
	if *serveHealth {
		healthServer = startHealthServer(ctx, cfg, world, logger)
	}

	switch *renderer {
	case "terminal":
		err = runTerminal(ctx, world, logger, *scale, *follow)
	case "engo":
		scene := engoview.NewDebugScene(world.Manager, logger, 960, 720, *follow)
		engoview.Run(scene, "betaframework: "+world.Level.Name)
	}
	if err != nil && ctx.Err() == nil {
		logger.Error(ctx, "Renderer failed", err,
			"renderer", *renderer,
		)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if healthServer != nil {
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Health check server shutdown failed", err)
		}
	}
	if err := world.Resources.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "Resource manager shutdown failed", err)
	}

	stats := world.Manager.GetStats()
	logger.Info(shutdownCtx, "Sandbox stopped",
		"frames", stats.Frames,
		"steps", stats.Steps,
		"clamped_frames", stats.Clamped,
	)
}

// newLogger logs to path when set. Without a path the terminal renderer
// gets a silent logger since stdout belongs to the screen.
func newLogger(path string, terminal bool) (*logging.Logger, func(), error) {
	if path == "" {
		if terminal {
			return logging.NewNopLogger(), func() {}, nil
		}
		return logging.NewLogger(), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	lvl := logging.ParseLevel(os.Getenv(logging.LevelEnv))
	return logging.NewLoggerWithWriter(f, lvl), func() { f.Close() }, nil
}

// loadConfig reads path when it exists, falls back to the defaults
// otherwise and applies environment overrides.
func loadConfig(path string, logger *logging.Logger) (*config.WorldConfig, error) {
	var cfg *config.WorldConfig
	if _, err := os.Stat(path); os.IsNotExist(err) {
		logger.Info(context.Background(), "Configuration file not found, using default configuration",
			"config_path", path,
		)
		cfg = config.DefaultConfig()
	} else {
		cfg, err = config.LoadConfig(path)
		if err != nil {
			return nil, err
		}
	}
	if err := config.ApplyEnvironmentOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func startHealthServer(ctx context.Context, cfg *config.WorldConfig, world *level.World, logger *logging.Logger) *http.Server {
	checker := health.NewHealthChecker()
	checker.AddCheck(health.NewSimulationHealthCheck(world.Manager, cfg.Health.StallTimeout, 0.5))
	checker.AddCheck(resource.NewHealthCheck(world.Resources, world.Resources.GridNames()...))

	server := checker.NewServer(cfg.Health.Addr)
	go func() {
		logger.Info(ctx, "Starting health check server",
			"addr", cfg.Health.Addr,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()
	return server
}

func runTerminal(ctx context.Context, world *level.World, logger *logging.Logger, scale float64, follow string) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	session := render.NewTerminalSession(screen, world.Manager, logger, scale, follow)
	return session.Run(ctx, 60)
}
