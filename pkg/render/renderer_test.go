// pkg/render/renderer_test.go
package render

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/opd-ai/betaframework/pkg/collider"
	"github.com/opd-ai/betaframework/pkg/entity"
	"github.com/opd-ai/betaframework/pkg/logging"
	"github.com/opd-ai/betaframework/pkg/physics"
)

func TestNullRenderer_Counts(t *testing.T) {
	tests := []struct {
		name string
		c    *collider.Collider
		want ShapeCounts
	}{
		{"circle", collider.NewCircle(1), ShapeCounts{Circles: 1}},
		{"rectangle", collider.NewRectangle(physics.Vector2D{X: 1, Y: 1}), ShapeCounts{Rectangles: 1}},
		{
			name: "line with normal ticks",
			c:    collider.NewLine(false, physics.NewLineSegment(physics.Vector2D{}, physics.Vector2D{X: 4})),
			want: ShapeCounts{Lines: 2},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := entity.NewEntity(tt.name, physics.Vector2D{})
			e.SetCollider(tt.c)

			d := NewNullRenderer(nil)
			tt.c.DebugDraw(d)
			if got := d.Counts(); got != tt.want {
				t.Errorf("Counts() = %+v, want %+v", got, tt.want)
			}
			d.Reset()
			if d.Counts().Total() != 0 {
				t.Error("Reset did not zero the counters")
			}
		})
	}
}

func TestNullRenderer_LogsPrimitives(t *testing.T) {
	var buf bytes.Buffer
	d := NewNullRenderer(logging.NewLoggerWithWriter(&buf, slog.LevelDebug))

	d.DrawCircle(physics.Vector2D{X: 1, Y: 2}, 3)
	d.DrawRectangle(physics.NewBoundingRectangle(physics.Vector2D{}, physics.Vector2D{X: 1, Y: 1}))
	d.DrawLine(physics.Vector2D{}, physics.Vector2D{X: 1})

	out := buf.String()
	for _, want := range []string{"DrawCircle called", "DrawRectangle called", "DrawLine called", `"component":"render"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s: %s", want, out)
		}
	}
	if got := d.Counts().Total(); got != 3 {
		t.Errorf("Total() = %d, want 3", got)
	}
}
