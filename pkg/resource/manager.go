// pkg/resource/manager.go
package resource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opd-ai/betaframework/pkg/config"
	"github.com/opd-ai/betaframework/pkg/logging"
)

// ErrGridNotFound is returned when a named grid is not registered.
var ErrGridNotFound = errors.New("tile grid not found")

// Manager is the explicit resource context passed to levels and binaries:
// it owns the named tile grids and watches process memory.
type Manager struct {
	grids map[string]*TileGrid
	mu    sync.RWMutex

	maxMemoryMB   int64
	memoryUsageMB int64
	checkInterval time.Duration
	lastCheck     atomic.Int64

	cancel  context.CancelFunc
	done    chan struct{}
	running bool
	logger  *logging.Logger
}

// NewManager creates an empty manager. maxMemoryMB of zero disables the
// memory limit.
func NewManager(maxMemoryMB int, checkInterval time.Duration, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if checkInterval <= 0 {
		checkInterval = 10 * time.Second
	}
	return &Manager{
		grids:         make(map[string]*TileGrid),
		maxMemoryMB:   int64(maxMemoryMB),
		checkInterval: checkInterval,
		logger:        logger.Component("resource"),
	}
}

// NewManagerFromConfig creates a manager and loads the grids the world
// configuration references. Relative paths are resolved against baseDir.
func NewManagerFromConfig(cfg *config.WorldConfig, baseDir string, logger *logging.Logger) (*Manager, error) {
	m := NewManager(cfg.Health.MaxMemoryMB, 0, logger)
	for _, ref := range cfg.Grids {
		path := ref.Path
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		if _, err := m.LoadGrid(ref.Name, path); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// AddGrid registers g under its name, replacing any grid of that name.
func (m *Manager) AddGrid(g *TileGrid) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.grids[g.Name()] = g
}

// LoadGrid reads a JSON grid file and registers it under name.
func (m *Manager) LoadGrid(name, path string) (*TileGrid, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tile grid %s: %w", name, err)
	}
	defer file.Close()

	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	g, err := ReadTileGrid(file, fallback)
	if err != nil {
		return nil, logging.WrapError(err, "loading %s", path)
	}
	if name != "" {
		g.name = name
	}

	m.AddGrid(g)
	m.logger.Info(context.Background(), "Tile grid loaded",
		"grid", g.Name(),
		"width", g.Width(),
		"height", g.Height(),
		"solid", g.Solid(),
	)
	return g, nil
}

// Grid returns the grid registered under name
func (m *Manager) Grid(name string) (*TileGrid, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.grids[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGridNotFound, name)
	}
	return g, nil
}

// GridNames returns the registered grid names in order
func (m *Manager) GridNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.grids))
	for name := range m.grids {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Start begins periodic memory checks.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return fmt.Errorf("resource manager already running")
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	m.running = true
	m.mu.Unlock()

	go m.monitoringLoop(ctx)

	m.logger.Info(ctx, "Resource manager started",
		"max_memory_mb", m.maxMemoryMB,
		"check_interval", m.checkInterval,
	)
	return nil
}

// Shutdown stops the monitoring loop, waiting until ctx is done at most.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}
	m.running = false
	cancel, done := m.cancel, m.done
	m.mu.Unlock()

	cancel()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		m.logger.Warn(ctx, "Resource monitoring loop did not stop gracefully")
		return fmt.Errorf("resource manager shutdown: %w", ctx.Err())
	}
}

// CheckMemoryUsage samples heap usage and compares it with the limit.
func (m *Manager) CheckMemoryUsage() error {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)

	currentMB := int64(stats.Alloc / 1024 / 1024)
	atomic.StoreInt64(&m.memoryUsageMB, currentMB)
	m.lastCheck.Store(time.Now().UnixNano())

	if m.maxMemoryMB > 0 && currentMB > m.maxMemoryMB {
		return fmt.Errorf("memory usage %dMB exceeds limit %dMB", currentMB, m.maxMemoryMB)
	}
	return nil
}

// Stats contains resource usage statistics.
type Stats struct {
	Grids         int       `json:"grids"`
	MemoryUsageMB int64     `json:"memory_usage_mb"`
	MaxMemoryMB   int64     `json:"max_memory_mb"`
	LastCheck     time.Time `json:"last_check"`
}

// GetStats returns current resource statistics.
func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	grids := len(m.grids)
	m.mu.RUnlock()

	var last time.Time
	if ns := m.lastCheck.Load(); ns != 0 {
		last = time.Unix(0, ns)
	}
	return Stats{
		Grids:         grids,
		MemoryUsageMB: atomic.LoadInt64(&m.memoryUsageMB),
		MaxMemoryMB:   m.maxMemoryMB,
		LastCheck:     last,
	}
}

func (m *Manager) monitoringLoop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := m.CheckMemoryUsage(); err != nil {
				m.logger.Error(ctx, "Memory limit exceeded", err,
					"current_mb", atomic.LoadInt64(&m.memoryUsageMB),
					"limit_mb", m.maxMemoryMB,
				)
			}
		case <-ctx.Done():
			return
		}
	}
}
