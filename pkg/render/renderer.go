// pkg/render/renderer.go
package render

import (
	"context"

	"github.com/opd-ai/betaframework/pkg/collider"
	"github.com/opd-ai/betaframework/pkg/logging"
	"github.com/opd-ai/betaframework/pkg/physics"
)

var (
	_ collider.DebugDrawer = (*NullRenderer)(nil)
	_ collider.DebugDrawer = (*TerminalRenderer)(nil)
)

// ShapeCounts is the number of primitives drawn since the last Reset
type ShapeCounts struct {
	Circles    int
	Rectangles int
	Lines      int
}

// Total returns the number of primitives of every kind
func (c ShapeCounts) Total() int {
	return c.Circles + c.Rectangles + c.Lines
}

// NullRenderer is a headless collider.DebugDrawer. It counts primitives and
// logs each one at debug level.
type NullRenderer struct {
	logger *logging.Logger
	counts ShapeCounts
}

// NewNullRenderer creates a new NullRenderer. A nil logger discards output.
func NewNullRenderer(logger *logging.Logger) *NullRenderer {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &NullRenderer{
		logger: logger.Component("render"),
	}
}

// DrawCircle implements collider.DebugDrawer.
func (d *NullRenderer) DrawCircle(center physics.Vector2D, radius float64) {
	d.counts.Circles++
	d.logger.Debug(context.Background(), "DrawCircle called",
		"x", center.X,
		"y", center.Y,
		"radius", radius,
	)
}

// DrawRectangle implements collider.DebugDrawer.
func (d *NullRenderer) DrawRectangle(rect physics.BoundingRectangle) {
	d.counts.Rectangles++
	d.logger.Debug(context.Background(), "DrawRectangle called",
		"x", rect.Center.X,
		"y", rect.Center.Y,
		"width", rect.Width(),
		"height", rect.Height(),
	)
}

// DrawLine implements collider.DebugDrawer.
func (d *NullRenderer) DrawLine(start, end physics.Vector2D) {
	d.counts.Lines++
	d.logger.Debug(context.Background(), "DrawLine called",
		"x0", start.X,
		"y0", start.Y,
		"x1", end.X,
		"y1", end.Y,
	)
}

// Counts returns the primitives drawn since the last Reset
func (d *NullRenderer) Counts() ShapeCounts {
	return d.counts
}

// Reset zeroes the counters, typically at the start of a frame
func (d *NullRenderer) Reset() {
	d.counts = ShapeCounts{}
}
