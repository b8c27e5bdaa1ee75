// pkg/resource/health.go
package resource

import (
	"context"
	"fmt"
)

// HealthCheck reports memory pressure and missing grids.
type HealthCheck struct {
	manager  *Manager
	required []string
}

// NewHealthCheck creates a health check for the manager. The named grids
// must be registered for the check to pass.
func NewHealthCheck(manager *Manager, required ...string) *HealthCheck {
	return &HealthCheck{
		manager:  manager,
		required: required,
	}
}

// Name returns the name of this health check.
func (h *HealthCheck) Name() string {
	return "resource"
}

// Check verifies memory usage and grid availability.
func (h *HealthCheck) Check(ctx context.Context) error {
	if err := h.manager.CheckMemoryUsage(); err != nil {
		return err
	}
	for _, name := range h.required {
		if _, err := h.manager.Grid(name); err != nil {
			return fmt.Errorf("required grid missing: %w", err)
		}
	}
	return nil
}
