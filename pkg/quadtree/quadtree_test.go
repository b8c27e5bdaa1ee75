// pkg/quadtree/quadtree_test.go
package quadtree

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/opd-ai/betaframework/pkg/collider"
	"github.com/opd-ai/betaframework/pkg/entity"
	"github.com/opd-ai/betaframework/pkg/physics"
)

var world = physics.NewBoundingRectangle(physics.Vector2D{}, physics.Vector2D{X: 100, Y: 100})

func newBox(name string, x, y, w, h float64) *entity.Entity {
	e := entity.NewEntity(name, physics.Vector2D{X: x, Y: y})
	e.SetCollider(collider.NewRectangle(physics.Vector2D{X: w, Y: h}))
	return e
}

func TestGetIndex(t *testing.T) {
	n := New(world, 4, 2)

	tests := []struct {
		name     string
		rect     physics.BoundingRectangle
		expected Index
	}{
		{"top_left", physics.NewBoundingRectangle(physics.Vector2D{X: -50, Y: 50}, physics.Vector2D{X: 5, Y: 5}), TopLeft},
		{"top_right", physics.NewBoundingRectangle(physics.Vector2D{X: 50, Y: 50}, physics.Vector2D{X: 5, Y: 5}), TopRight},
		{"bottom_left", physics.NewBoundingRectangle(physics.Vector2D{X: -50, Y: -50}, physics.Vector2D{X: 5, Y: 5}), BottomLeft},
		{"bottom_right", physics.NewBoundingRectangle(physics.Vector2D{X: 50, Y: -50}, physics.Vector2D{X: 5, Y: 5}), BottomRight},
		{"straddles_x", physics.NewBoundingRectangle(physics.Vector2D{X: 0, Y: 50}, physics.Vector2D{X: 5, Y: 5}), PartialFit},
		{"straddles_y", physics.NewBoundingRectangle(physics.Vector2D{X: 50, Y: 0}, physics.Vector2D{X: 5, Y: 5}), PartialFit},
		{"touches_center", physics.NewBoundingRectangle(physics.Vector2D{X: 5, Y: 5}, physics.Vector2D{X: 5, Y: 5}), PartialFit},
		{"center_point", physics.NewBoundingRectangle(physics.Vector2D{}, physics.Vector2D{}), PartialFit},
		{"crosses_edge", physics.NewBoundingRectangle(physics.Vector2D{X: 100, Y: 50}, physics.Vector2D{X: 5, Y: 5}), PartialFit},
		{"outside", physics.NewBoundingRectangle(physics.Vector2D{X: 200, Y: 0}, physics.Vector2D{X: 5, Y: 5}), NoFit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.GetIndex(tt.rect); got != tt.expected {
				t.Errorf("GetIndex() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestGetIndex_Partition(t *testing.T) {
	n := New(world, 1, 1)
	n.Split()
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 2000; i++ {
		rect := physics.NewBoundingRectangle(
			physics.Vector2D{X: rng.Float64()*300 - 150, Y: rng.Float64()*300 - 150},
			physics.Vector2D{X: rng.Float64() * 30, Y: rng.Float64() * 30},
		)

		switch index := n.GetIndex(rect); index {
		case NoFit:
			if physics.RectangleRectangleIntersection(world, rect) {
				t.Fatalf("NoFit for %+v which intersects the node", rect)
			}
		case PartialFit:
			if !physics.RectangleRectangleIntersection(world, rect) {
				t.Fatalf("PartialFit for %+v which misses the node", rect)
			}
			for _, child := range n.Children() {
				if child.Bounds().ContainsRectangle(rect) && !touchesCenter(rect) {
					t.Fatalf("PartialFit for %+v contained in quadrant %+v", rect, child.Bounds())
				}
			}
		default:
			if !n.child(index).Bounds().ContainsRectangle(rect) {
				t.Fatalf("%v for %+v not contained in %+v", index, rect, n.child(index).Bounds())
			}
		}
	}
}

// touchesCenter reports whether rect reaches a center line of world, where
// closed quadrant bounds overlap.
func touchesCenter(rect physics.BoundingRectangle) bool {
	return rect.Left() <= 0 && rect.Right() >= 0 || rect.Bottom() <= 0 && rect.Top() >= 0
}

func TestInsert_SplitsOnOverflow(t *testing.T) {
	n := New(world, 4, 2)
	n.Insert(newBox("a", -50, 50, 1, 1))
	n.Insert(newBox("b", 50, 50, 1, 1))
	if !n.IsLeaf() {
		t.Fatal("node under capacity must stay a leaf")
	}

	n.Insert(newBox("c", -50, -50, 1, 1))
	if n.IsLeaf() {
		t.Fatal("node over capacity must split")
	}
	if len(n.Objects()) != 0 {
		t.Errorf("internal node holds %d objects, expected none", len(n.Objects()))
	}

	expected := map[Index]string{TopLeft: "a", TopRight: "b", BottomLeft: "c"}
	for index, name := range expected {
		objects := n.child(index).Objects()
		if len(objects) != 1 || objects[0].Name() != name {
			t.Errorf("quadrant %v holds %v, expected %s", index, objects, name)
		}
	}
	if len(n.child(BottomRight).Objects()) != 0 {
		t.Error("bottom right quadrant must be empty")
	}
}

func TestInsert_PartialFitGoesToAllChildren(t *testing.T) {
	n := New(world, 4, 1)
	n.Insert(newBox("corner", -50, 50, 1, 1))
	n.Insert(newBox("middle", 0, 0, 10, 10))

	for i, child := range n.Children() {
		found := false
		child.Walk(func(node *Node, level int) bool {
			for _, e := range node.Objects() {
				if e.Name() == "middle" {
					found = true
				}
			}
			return true
		})
		if !found {
			t.Errorf("child %d does not hold the straddling entity", i)
		}
	}
}

func TestInsert_NoFitDropped(t *testing.T) {
	n := New(world, 4, 2)
	n.Insert(newBox("far", 500, 500, 1, 1))
	if n.Count() != 0 {
		t.Errorf("Count() = %d, expected 0", n.Count())
	}
}

func TestInsert_DegeneratePointsTerminate(t *testing.T) {
	n := New(world, 4, 2)
	for i := 0; i < 3; i++ {
		e := entity.NewEntity(fmt.Sprintf("point%d", i), physics.Vector2D{})
		e.SetCollider(collider.NewRectangle(physics.Vector2D{}))
		n.Insert(e)
	}

	if d := n.Depth(); d > 4 {
		t.Errorf("Depth() = %d, expected at most 4", d)
	}
	if n.IsLeaf() {
		t.Error("expected the root to split")
	}

	nearby := n.RetrieveNearby(entity.NewEntity("probe", physics.Vector2D{}))
	if len(unique(nearby)) != 3 {
		t.Errorf("RetrieveNearby() found %d distinct entities, expected 3", len(unique(nearby)))
	}
}

func TestRetrieveNearby(t *testing.T) {
	n := New(world, 4, 1)
	a := newBox("a", -50, 50, 1, 1)
	b := newBox("b", 50, 50, 1, 1)
	c := newBox("c", -50, -50, 1, 1)
	for _, e := range []*entity.Entity{a, b, c} {
		n.Insert(e)
	}

	got := n.RetrieveNearby(a)
	if len(got) != 1 || got[0] != a {
		t.Errorf("RetrieveNearby(a) = %v, expected only a", names(got))
	}

	wide := newBox("wide", 0, 50, 80, 1)
	got = unique(n.RetrieveNearby(wide))
	if len(got) != 2 {
		t.Errorf("RetrieveNearby(wide) = %v, expected a and b", names(got))
	}
}

func TestInsertRect_KeptAcrossSplit(t *testing.T) {
	n := New(world, 4, 1)
	mover := newBox("mover", -50, -50, 1, 1)
	swept := physics.NewBoundingRectangle(physics.Vector2D{X: -50, Y: 0}, physics.Vector2D{X: 1, Y: 51})
	n.InsertRect(mover, swept)
	n.Insert(newBox("other", 50, 50, 1, 1))

	if n.IsLeaf() {
		t.Fatal("expected the second insert to split the root")
	}
	probe := physics.NewBoundingRectangle(physics.Vector2D{X: -50, Y: 40}, physics.Vector2D{X: 1, Y: 1})
	got := unique(n.Retrieve(probe))
	if len(got) != 1 || got[0] != mover {
		t.Errorf("Retrieve(top left) = %v, expected the swept mover", names(got))
	}
}

func TestRebuildIdempotence(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	var entities []*entity.Entity
	for i := 0; i < 200; i++ {
		entities = append(entities, newBox(fmt.Sprintf("e%d", i),
			rng.Float64()*180-90, rng.Float64()*180-90, rng.Float64()*4, rng.Float64()*4))
	}

	build := func() *Node {
		n := New(world, 6, 4)
		for _, e := range entities {
			n.Insert(e)
		}
		return n
	}
	first, second := build(), build()

	for _, e := range entities {
		a := names(unique(first.RetrieveNearby(e)))
		b := names(unique(second.RetrieveNearby(e)))
		if fmt.Sprint(a) != fmt.Sprint(b) {
			t.Fatalf("RetrieveNearby(%s) differs between rebuilds: %v vs %v", e.Name(), a, b)
		}
	}

	first.Clear()
	if !first.IsLeaf() || first.Count() != 0 {
		t.Error("Clear() must leave an empty leaf")
	}
}

func TestRetrieveNearby_NoFalseNegatives(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	n := New(world, 5, 2)
	var entities []*entity.Entity
	for i := 0; i < 150; i++ {
		e := newBox(fmt.Sprintf("e%d", i), rng.Float64()*180-90, rng.Float64()*180-90, 1+rng.Float64()*5, 1+rng.Float64()*5)
		entities = append(entities, e)
		n.Insert(e)
	}

	for _, a := range entities {
		nearby := make(map[uint64]bool)
		for _, c := range n.RetrieveNearby(a) {
			nearby[c.ID()] = true
		}
		for _, b := range entities {
			if a != b && a.Collider().IsCollidingWith(b.Collider()) && !nearby[b.ID()] {
				t.Fatalf("%s overlaps %s but was not retrieved", a.Name(), b.Name())
			}
		}
	}
}

func TestCastRay(t *testing.T) {
	ball := entity.NewEntity("ball", physics.Vector2D{})
	ball.SetCollider(collider.NewCircle(1))

	n := New(world, 4, 2)
	n.Insert(ball)
	n.Insert(newBox("far", 60, 60, 2, 2))

	ray := physics.NewLineSegment(physics.Vector2D{X: -10}, physics.Vector2D{X: 10})
	hits := n.CastRay(ray, "")
	if len(hits) != 1 {
		t.Fatalf("CastRay() returned %d hits, expected 1", len(hits))
	}
	if hits[0].Entity != ball || math.Abs(hits[0].T-0.45) > 1e-9 {
		t.Errorf("hit = %s at t=%v, expected ball at 0.45", hits[0].Entity.Name(), hits[0].T)
	}

	if hits := n.CastRay(ray, "ball"); len(hits) != 0 {
		t.Errorf("excluded entity was hit: %d hits", len(hits))
	}
}

func TestCastRay_SplitTree(t *testing.T) {
	n := New(world, 4, 1)
	targets := []*entity.Entity{
		newBox("left", -40, 10, 2, 2),
		newBox("right", 40, 10, 2, 2),
		newBox("below", 40, -40, 2, 2),
	}
	for _, e := range targets {
		n.Insert(e)
	}

	ray := physics.NewLineSegment(physics.Vector2D{X: -90, Y: 10}, physics.Vector2D{X: 90, Y: 10})
	hits := n.CastRay(ray, "")
	seen := make(map[string]float64)
	for _, h := range hits {
		seen[h.Entity.Name()] = h.T
	}
	if len(seen) != 2 {
		t.Fatalf("hit %v, expected left and right", seen)
	}
	if seen["left"] >= seen["right"] {
		t.Errorf("left t=%v must be before right t=%v", seen["left"], seen["right"])
	}
}

func TestWalk(t *testing.T) {
	n := New(world, 2, 1)
	n.Insert(newBox("a", -50, 50, 1, 1))
	n.Insert(newBox("b", -60, 60, 1, 1))

	visited, deepest := 0, 0
	n.Walk(func(node *Node, level int) bool {
		visited++
		if level > deepest {
			deepest = level
		}
		return true
	})
	if visited != 9 {
		t.Errorf("visited %d nodes, expected 9", visited)
	}
	if deepest != n.Depth() {
		t.Errorf("deepest level %d, expected %d", deepest, n.Depth())
	}

	visited = 0
	n.Walk(func(node *Node, level int) bool {
		visited++
		return false
	})
	if visited != 1 {
		t.Errorf("visited %d nodes when pruning, expected 1", visited)
	}
}

func unique(entities []*entity.Entity) []*entity.Entity {
	seen := make(map[uint64]bool)
	var out []*entity.Entity
	for _, e := range entities {
		if !seen[e.ID()] {
			seen[e.ID()] = true
			out = append(out, e)
		}
	}
	return out
}

func names(entities []*entity.Entity) []string {
	var out []string
	for _, e := range entities {
		out = append(out, e.Name())
	}
	sort.Strings(out)
	return out
}

func BenchmarkInsert(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	entities := make([]*entity.Entity, 1000)
	for i := range entities {
		entities[i] = newBox("e", rng.Float64()*180-90, rng.Float64()*180-90, 1, 1)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n := New(world, 6, 8)
		for _, e := range entities {
			n.Insert(e)
		}
	}
}

func BenchmarkRetrieveNearby(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	n := New(world, 6, 8)
	entities := make([]*entity.Entity, 1000)
	for i := range entities {
		entities[i] = newBox("e", rng.Float64()*180-90, rng.Float64()*180-90, 1, 1)
		n.Insert(entities[i])
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		n.RetrieveNearby(entities[i%len(entities)])
	}
}
