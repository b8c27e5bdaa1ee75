// pkg/physics/intersection_test.go
package physics

import (
	"math"
	"testing"
)

func rect(cx, cy, ex, ey float64) BoundingRectangle {
	return BoundingRectangle{Center: Vector2D{X: cx, Y: cy}, Extents: Vector2D{X: ex, Y: ey}}
}

func TestRectangleRectangleIntersection(t *testing.T) {
	tests := []struct {
		name     string
		a, b     BoundingRectangle
		expected bool
	}{
		{"overlapping", rect(0, 0, 1, 1), rect(1, 1, 1, 1), true},
		{"touching_edges", rect(0, 0, 1, 1), rect(2, 0, 1, 1), true},
		{"touching_corner", rect(0, 0, 1, 1), rect(2, 2, 1, 1), true},
		{"separated_x", rect(0, 0, 1, 1), rect(2.1, 0, 1, 1), false},
		{"separated_y", rect(0, 0, 1, 1), rect(0, -3, 1, 1), false},
		{"contained", rect(0, 0, 5, 5), rect(1, 1, 1, 1), true},
		{"degenerate_points", rect(1, 1, 0, 0), rect(1, 1, 0, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RectangleRectangleIntersection(tt.a, tt.b); got != tt.expected {
				t.Errorf("RectangleRectangleIntersection() = %v, expected %v", got, tt.expected)
			}
			if got := RectangleRectangleIntersection(tt.b, tt.a); got != tt.expected {
				t.Errorf("RectangleRectangleIntersection() reversed = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestCircleCircleIntersection(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Circle
		expected bool
	}{
		{"apart", Circle{Vector2D{X: 0, Y: 0}, 1}, Circle{Vector2D{X: 3, Y: 0}, 1}, false},
		{"overlapping", Circle{Vector2D{X: 0, Y: 0}, 1}, Circle{Vector2D{X: 1.5, Y: 0}, 1}, true},
		{"touching", Circle{Vector2D{X: 0, Y: 0}, 1}, Circle{Vector2D{X: 2, Y: 0}, 1}, true},
		{"zero_radius_inside", Circle{Vector2D{X: 0, Y: 0}, 0}, Circle{Vector2D{X: 0.5, Y: 0}, 1}, true},
		{"zero_radius_both_same_point", Circle{Vector2D{X: 2, Y: 2}, 0}, Circle{Vector2D{X: 2, Y: 2}, 0}, true},
		{"zero_radius_outside", Circle{Vector2D{X: 0, Y: 0}, 0}, Circle{Vector2D{X: 2, Y: 0}, 1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CircleCircleIntersection(tt.a, tt.b); got != tt.expected {
				t.Errorf("CircleCircleIntersection() = %v, expected %v", got, tt.expected)
			}
			if got := tt.a.Collides(tt.b); got != tt.expected {
				t.Errorf("Circle.Collides() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestRectangleCircleIntersection(t *testing.T) {
	tests := []struct {
		name     string
		r        BoundingRectangle
		c        Circle
		expected bool
	}{
		{"center_inside", rect(0, 0, 1, 1), Circle{Vector2D{X: 0.5, Y: 0.5}, 0.1}, true},
		{"edge_overlap", rect(0, 0, 1, 1), Circle{Vector2D{X: 1.5, Y: 0}, 0.6}, true},
		{"corner_miss", rect(0, 0, 1, 1), Circle{Vector2D{X: 2, Y: 2}, 1}, false},
		{"corner_hit", rect(0, 0, 1, 1), Circle{Vector2D{X: 1.5, Y: 1.5}, 0.8}, true},
		{"point_circle_inside", rect(0, 0, 1, 1), Circle{Vector2D{X: 0, Y: 0}, 0}, true},
		{"point_rectangle", rect(0, 0, 0, 0), Circle{Vector2D{X: 0.5, Y: 0}, 0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RectangleCircleIntersection(tt.r, tt.c); got != tt.expected {
				t.Errorf("RectangleCircleIntersection() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestLineLineIntersection(t *testing.T) {
	t.Run("crossing", func(t *testing.T) {
		ray := NewLineSegment(Vector2D{X: -1, Y: 0}, Vector2D{X: 1, Y: 0})
		seg := NewLineSegment(Vector2D{X: 0, Y: -1}, Vector2D{X: 0, Y: 1})
		tVal, point, ok := LineLineIntersection(ray, seg)
		if !ok {
			t.Fatal("expected intersection")
		}
		if math.Abs(tVal-0.5) > tolerance {
			t.Errorf("t = %v, expected 0.5", tVal)
		}
		if !point.ApproxEqual(Vector2D{}, tolerance) {
			t.Errorf("point = %v, expected origin", point)
		}
	})

	t.Run("parallel", func(t *testing.T) {
		ray := NewLineSegment(Vector2D{X: 0, Y: 0}, Vector2D{X: 1, Y: 0})
		seg := NewLineSegment(Vector2D{X: 0, Y: 1}, Vector2D{X: 1, Y: 1})
		if _, _, ok := LineLineIntersection(ray, seg); ok {
			t.Error("parallel segments must not intersect")
		}
	})

	t.Run("collinear", func(t *testing.T) {
		ray := NewLineSegment(Vector2D{X: 0, Y: 0}, Vector2D{X: 2, Y: 0})
		seg := NewLineSegment(Vector2D{X: 1, Y: 0}, Vector2D{X: 3, Y: 0})
		if _, _, ok := LineLineIntersection(ray, seg); ok {
			t.Error("collinear segments are parallel and must not intersect")
		}
	})

	t.Run("too_short", func(t *testing.T) {
		ray := NewLineSegment(Vector2D{X: -1, Y: 0}, Vector2D{X: -0.5, Y: 0})
		seg := NewLineSegment(Vector2D{X: 0, Y: -1}, Vector2D{X: 0, Y: 1})
		if _, _, ok := LineLineIntersection(ray, seg); ok {
			t.Error("expected no intersection when the ray stops short")
		}
	})
}

func TestNewLineSegment_Normal(t *testing.T) {
	seg := NewLineSegment(Vector2D{X: 0, Y: 0}, Vector2D{X: 4, Y: 0})
	if !seg.Normal.ApproxEqual(Vector2D{X: 0, Y: -1}, tolerance) {
		t.Errorf("Normal = %v, expected (0,-1)", seg.Normal)
	}
	if seg.Length() != 4 {
		t.Errorf("Length() = %v, expected 4", seg.Length())
	}
}

func TestMovingCircleLineIntersection(t *testing.T) {
	floor := NewLineSegment(Vector2D{X: -10, Y: 0}, Vector2D{X: 10, Y: 0})

	t.Run("falling_onto_line", func(t *testing.T) {
		sweep := NewLineSegment(Vector2D{X: 0, Y: 3}, Vector2D{X: 0, Y: -1})
		tVal, point, ok := MovingCircleLineIntersection(floor, sweep, 1)
		if !ok {
			t.Fatal("expected swept hit")
		}
		// Circle touches the floor when its center reaches y = 1
		if math.Abs(tVal-0.5) > tolerance {
			t.Errorf("t = %v, expected 0.5", tVal)
		}
		if !point.ApproxEqual(Vector2D{X: 0, Y: 1}, tolerance) {
			t.Errorf("point = %v, expected (0,1)", point)
		}
	})

	t.Run("moving_away", func(t *testing.T) {
		sweep := NewLineSegment(Vector2D{X: 0, Y: 2}, Vector2D{X: 0, Y: 5})
		if _, _, ok := MovingCircleLineIntersection(floor, sweep, 1); ok {
			t.Error("expected no hit when moving away")
		}
	})

	t.Run("parallel_motion", func(t *testing.T) {
		sweep := NewLineSegment(Vector2D{X: -5, Y: 2}, Vector2D{X: 5, Y: 2})
		if _, _, ok := MovingCircleLineIntersection(floor, sweep, 1); ok {
			t.Error("expected no hit when moving parallel")
		}
	})

	t.Run("passes_beside_segment", func(t *testing.T) {
		sweep := NewLineSegment(Vector2D{X: 20, Y: 3}, Vector2D{X: 20, Y: -3})
		if _, _, ok := MovingCircleLineIntersection(floor, sweep, 1); ok {
			t.Error("expected no hit beyond the segment end")
		}
	})
}

func TestMovingCircleLineReflection(t *testing.T) {
	floor := NewLineSegment(Vector2D{X: -10, Y: 0}, Vector2D{X: 10, Y: 0})
	sweep := NewLineSegment(Vector2D{X: 0, Y: 3}, Vector2D{X: 2, Y: -1})
	tVal, point, ok := MovingCircleLineIntersection(floor, sweep, 1)
	if !ok {
		t.Fatal("expected swept hit")
	}
	if math.Abs(tVal-0.5) > tolerance {
		t.Fatalf("t = %v, expected 0.5", tVal)
	}

	velocity := Vector2D{X: 2, Y: -4}
	position, reflected := MovingCircleLineReflection(floor, sweep, point, velocity)
	if !position.ApproxEqual(Vector2D{X: 2, Y: 3}, tolerance) {
		t.Errorf("position = %v, expected (2,3)", position)
	}
	if math.Abs(reflected.Length()-velocity.Length()) > tolerance {
		t.Errorf("speed changed: %v -> %v", velocity.Length(), reflected.Length())
	}
	if reflected.Y <= 0 {
		t.Errorf("reflected velocity %v should point away from the floor", reflected)
	}
}

func TestRayCircleIntersection(t *testing.T) {
	tests := []struct {
		name     string
		ray      LineSegment
		circle   Circle
		hit      bool
		expected float64
	}{
		{
			name:     "entry_point",
			ray:      NewLineSegment(Vector2D{X: -10, Y: 0}, Vector2D{X: 10, Y: 0}),
			circle:   Circle{Center: Vector2D{}, Radius: 1},
			hit:      true,
			expected: 0.45,
		},
		{
			name:   "miss",
			ray:    NewLineSegment(Vector2D{X: -10, Y: 5}, Vector2D{X: 10, Y: 5}),
			circle: Circle{Center: Vector2D{}, Radius: 1},
		},
		{
			name:     "starts_inside",
			ray:      NewLineSegment(Vector2D{X: 0.5, Y: 0}, Vector2D{X: 10, Y: 0}),
			circle:   Circle{Center: Vector2D{}, Radius: 1},
			hit:      true,
			expected: 0,
		},
		{
			name:   "behind_ray",
			ray:    NewLineSegment(Vector2D{X: 5, Y: 0}, Vector2D{X: 10, Y: 0}),
			circle: Circle{Center: Vector2D{}, Radius: 1},
		},
		{
			name:   "too_short",
			ray:    NewLineSegment(Vector2D{X: -10, Y: 0}, Vector2D{X: -5, Y: 0}),
			circle: Circle{Center: Vector2D{}, Radius: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RayCircleIntersection(tt.ray, tt.circle)
			if ok != tt.hit {
				t.Fatalf("hit = %v, expected %v", ok, tt.hit)
			}
			if ok && math.Abs(got-tt.expected) > tolerance {
				t.Errorf("t = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestRayRectangleIntersection(t *testing.T) {
	box := rect(0, 0, 1, 1)
	tests := []struct {
		name     string
		ray      LineSegment
		hit      bool
		expected float64
	}{
		{"horizontal", NewLineSegment(Vector2D{X: -5, Y: 0}, Vector2D{X: 5, Y: 0}), true, 0.4},
		{"vertical", NewLineSegment(Vector2D{X: 0, Y: 5}, Vector2D{X: 0, Y: -5}), true, 0.4},
		{"inside", NewLineSegment(Vector2D{X: 0, Y: 0}, Vector2D{X: 5, Y: 0}), true, 0},
		{"axis_parallel_miss", NewLineSegment(Vector2D{X: -5, Y: 2}, Vector2D{X: 5, Y: 2}), false, 0},
		{"diagonal_miss", NewLineSegment(Vector2D{X: 2, Y: 0}, Vector2D{X: 0, Y: 3}), false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RayRectangleIntersection(tt.ray, box)
			if ok != tt.hit {
				t.Fatalf("hit = %v, expected %v", ok, tt.hit)
			}
			if ok && math.Abs(got-tt.expected) > tolerance {
				t.Errorf("t = %v, expected %v", got, tt.expected)
			}
			if RectangleLineIntersection(box, tt.ray) != tt.hit {
				t.Errorf("RectangleLineIntersection disagrees with ray test")
			}
		})
	}
}

func TestCircleLineIntersection(t *testing.T) {
	seg := NewLineSegment(Vector2D{X: -1, Y: 0}, Vector2D{X: 1, Y: 0})
	if !CircleLineIntersection(Circle{Center: Vector2D{X: 0, Y: 0.5}, Radius: 0.5}, seg) {
		t.Error("expected touching circle to intersect")
	}
	if CircleLineIntersection(Circle{Center: Vector2D{X: 3, Y: 0}, Radius: 1}, seg) {
		t.Error("expected circle beyond the end to miss")
	}
}
