// pkg/engine/manager_test.go
package engine

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/opd-ai/betaframework/pkg/collider"
	"github.com/opd-ai/betaframework/pkg/config"
	"github.com/opd-ai/betaframework/pkg/entity"
	"github.com/opd-ai/betaframework/pkg/event"
	"github.com/opd-ai/betaframework/pkg/health"
	"github.com/opd-ai/betaframework/pkg/physics"
	"github.com/opd-ai/betaframework/pkg/resource"
)

var _ health.SimulationProbe = (*Manager)(nil)

func testConfig(useQuadtree bool) *config.WorldConfig {
	cfg := config.DefaultConfig()
	cfg.Name = "test"
	cfg.Physics.FixedStep = 0.25
	cfg.Physics.MaxStepsPerFrame = 4
	cfg.Physics.Gravity = physics.Vector2D{}
	cfg.Quadtree.Enabled = useQuadtree
	cfg.Quadtree.Capacity = 2
	return cfg
}

func newTestManager(t testing.TB, useQuadtree bool) *Manager {
	t.Helper()
	m, err := NewManager(testConfig(useQuadtree), nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func circle(name string, x, y, radius float64) *entity.Entity {
	e := entity.NewEntity(name, physics.Vector2D{X: x, Y: y})
	e.SetRigidBody(physics.NewRigidBody(1))
	e.SetCollider(collider.NewCircle(radius))
	return e
}

// recorder collects collision events as "type target other" lines.
type recorder struct {
	lines []string
}

func record(bus *event.Bus) *recorder {
	r := &recorder{}
	for _, typ := range []event.Type{event.CollisionStarted, event.CollisionPersisted, event.CollisionEnded} {
		bus.Subscribe(typ, func(ev event.Event) {
			c := ev.(*event.CollisionEvent)
			r.lines = append(r.lines, fmt.Sprintf("%s %s %s", c.GetType(), c.Target.Name(), c.Other.Name()))
		})
	}
	return r
}

func (r *recorder) take() []string {
	out := r.lines
	r.lines = nil
	sort.Strings(out)
	return out
}

var modes = []struct {
	name     string
	quadtree bool
}{
	{"brute force", false},
	{"quadtree", true},
}

func TestNewManager_InvalidConfig(t *testing.T) {
	cfg := testConfig(false)
	cfg.Physics.FixedStep = 0

	if _, err := NewManager(cfg, nil); !errors.Is(err, config.ErrInvalidConfig) {
		t.Errorf("NewManager() error = %v, want ErrInvalidConfig", err)
	}
}

func TestManager_EachEntityGetsOneStarted(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			m := newTestManager(t, mode.quadtree)
			a := circle("a", 0, 0, 1)
			b := circle("b", 3, 0, 1)
			m.Add(a)
			m.Add(b)

			got := make(map[string][]string)
			for _, e := range []*entity.Entity{a, b} {
				name := e.Name()
				m.Bus().SubscribeEntity(e.ID(), event.CollisionStarted, func(ev event.Event) {
					got[name] = append(got[name], ev.(*event.CollisionEvent).Other.Name())
				})
			}

			m.Step()
			if len(got) != 0 {
				t.Fatalf("apart circles produced events: %v", got)
			}

			b.SetTranslation(physics.Vector2D{X: 1.5})
			m.Step()
			if len(got["a"]) != 1 || got["a"][0] != "b" {
				t.Errorf("a received %v, want exactly [b]", got["a"])
			}
			if len(got["b"]) != 1 || got["b"][0] != "a" {
				t.Errorf("b received %v, want exactly [a]", got["b"])
			}
		})
	}
}

func TestManager_ContactLifecycle(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			m := newTestManager(t, mode.quadtree)
			rec := record(m.Bus())
			a := circle("a", 0, 0, 1)
			b := circle("b", 1.5, 0, 1)
			m.Add(a)
			m.Add(b)

			steps := []struct {
				before func()
				want   []string
			}{
				{nil, []string{"collision_started a b", "collision_started b a"}},
				{nil, []string{"collision_persisted a b", "collision_persisted b a"}},
				{func() { b.SetTranslation(physics.Vector2D{X: 10}) }, []string{"collision_ended a b", "collision_ended b a"}},
				{nil, nil},
			}

			for i, step := range steps {
				if step.before != nil {
					step.before()
				}
				m.Step()
				got := rec.take()
				if fmt.Sprint(got) != fmt.Sprint(step.want) {
					t.Errorf("step %d: events %v, want %v", i, got, step.want)
				}
			}
		})
	}
}

func TestManager_BroadPhasesAgree(t *testing.T) {
	build := func(useQuadtree bool) (*Manager, *recorder) {
		m := newTestManager(t, useQuadtree)
		rng := rand.New(rand.NewSource(7))
		for i := 0; i < 60; i++ {
			x, y := rng.Float64()*120-60, rng.Float64()*120-60
			var e *entity.Entity
			if i%3 == 0 {
				e = entity.NewEntity(fmt.Sprintf("box%d", i), physics.Vector2D{X: x, Y: y})
				e.SetRigidBody(physics.NewRigidBody(1))
				e.SetCollider(collider.NewRectangle(physics.Vector2D{X: 2 + rng.Float64()*4, Y: 2 + rng.Float64()*4}))
			} else {
				e = circle(fmt.Sprintf("ball%d", i), x, y, 1+rng.Float64()*4)
			}
			e.SetVelocity(physics.Vector2D{X: rng.Float64()*16 - 8, Y: rng.Float64()*16 - 8})
			m.Add(e)
		}
		// The tree covers [-100, 100]; rim and the far pair lie wholly outside.
		m.Add(circle("edge", 99.5, 0, 1))
		m.Add(circle("rim", 101.2, 0, 1))
		m.Add(circle("far1", 110, 0, 1))
		m.Add(circle("far2", 111.5, 0, 1))
		return m, record(m.Bus())
	}

	brute, bruteEvents := build(false)
	tree, treeEvents := build(true)

	total := 0
	for step := 0; step < 12; step++ {
		brute.Step()
		tree.Step()
		want, got := bruteEvents.take(), treeEvents.take()
		total += len(want)
		if fmt.Sprint(got) != fmt.Sprint(want) {
			t.Fatalf("step %d: quadtree events %v\nbrute force events %v", step, got, want)
		}
	}
	if total == 0 {
		t.Fatal("scene produced no collisions; the comparison is vacuous")
	}
}

func TestManager_OutsideTreeBounds(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			m := newTestManager(t, mode.quadtree)
			m.Add(circle("a", 110, 0, 1))
			m.Add(circle("b", 111, 0, 1))
			m.Add(circle("inside", 0, 0, 1))

			rec := record(m.Bus())
			m.Step()
			want := []string{"collision_started a b", "collision_started b a"}
			if got := rec.take(); fmt.Sprint(got) != fmt.Sprint(want) {
				t.Errorf("events %v, want %v", got, want)
			}

			hits := m.CastRay(physics.Vector2D{X: 130}, physics.Vector2D{X: -1}, 40, "")
			if len(hits) != 2 || hits[0].Entity.Name() != "b" {
				t.Errorf("ray hits = %v, want b then a", hits)
			}
		})
	}
}

func TestManager_DestroyedDuringStep(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			m := newTestManager(t, mode.quadtree)
			rec := record(m.Bus())
			a := circle("a", 0, 0, 1)
			m.Add(a)
			m.Add(circle("b", 1, 0, 1))
			m.Add(circle("c", 0.5, 1, 1))
			m.Bus().SubscribeEntity(a.ID(), event.CollisionStarted, func(event.Event) {
				a.Destroy()
			})

			m.Step()
			got := rec.take()

			withA := 0
			for _, line := range got {
				fields := strings.Fields(line)
				if fields[1] == "a" || fields[2] == "a" {
					withA++
				}
			}
			if withA != 2 {
				t.Errorf("a took part in %d events after being destroyed: %v", withA, got)
			}
			joined := strings.Join(got, ",")
			for _, want := range []string{"collision_started b c", "collision_started c b"} {
				if !strings.Contains(joined, want) {
					t.Errorf("missing %q in %v", want, got)
				}
			}
		})
	}
}

func TestManager_SweptLineInQuadtree(t *testing.T) {
	m := newTestManager(t, true)

	wall := entity.NewEntity("wall", physics.Vector2D{})
	wall.SetCollider(collider.NewLine(false, physics.NewLineSegment(physics.Vector2D{X: -1, Y: -40}, physics.Vector2D{X: -1, Y: 40})))
	m.Add(wall)
	bullet := circle("bullet", 20, 0, 0.5)
	bullet.SetVelocity(physics.Vector2D{X: -100})
	m.Add(bullet)
	m.Add(circle("far", 80, 80, 1))

	rec := record(m.Bus())
	m.Step()
	got := rec.take()
	want := []string{"collision_started bullet wall", "collision_started wall bullet"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("events %v, want %v", got, want)
	}
}

func TestManager_UpdateAccumulator(t *testing.T) {
	m := newTestManager(t, false)

	var clamps []*event.StepClampedEvent
	m.Bus().Subscribe(event.StepClamped, func(ev event.Event) {
		clamps = append(clamps, ev.(*event.StepClampedEvent))
	})

	tests := []struct {
		dt        float64
		wantSteps uint64
	}{
		{0.125, 0},
		{0.125, 1},
		{0.75, 4},
		{-1, 4},
		{2.0, 8},
	}

	for i, tt := range tests {
		m.Update(tt.dt)
		if got := m.GetStats().Steps; got != tt.wantSteps {
			t.Errorf("update %d: steps = %d, want %d", i, got, tt.wantSteps)
		}
	}

	if len(clamps) != 1 {
		t.Fatalf("got %d clamp events, want 1", len(clamps))
	}
	if clamps[0].Steps != 4 || clamps[0].Dropped != time.Second {
		t.Errorf("clamp = %d steps, %v dropped; want 4 steps, 1s", clamps[0].Steps, clamps[0].Dropped)
	}

	frames, clamped := m.FrameStats()
	if frames != 5 || clamped != 1 {
		t.Errorf("FrameStats() = %d, %d; want 5, 1", frames, clamped)
	}
	if m.LastStep().IsZero() {
		t.Error("LastStep() is zero after stepping")
	}
	if stats := m.GetStats(); stats.Dropped != time.Second {
		t.Errorf("Dropped = %v, want 1s", stats.Dropped)
	}
}

func TestManager_UpdateIgnoresNonFiniteDt(t *testing.T) {
	m := newTestManager(t, false)

	for _, dt := range []float64{math.Inf(1), math.NaN(), math.Inf(-1)} {
		m.Update(dt)
	}
	if got := m.GetStats().Steps; got != 0 {
		t.Fatalf("steps = %d after non-finite updates, want 0", got)
	}

	m.Update(0.25)
	m.Update(0.25)
	stats := m.GetStats()
	if stats.Steps != 2 {
		t.Errorf("steps = %d, want 2", stats.Steps)
	}
	if stats.Dropped != 0 {
		t.Errorf("Dropped = %v, want 0", stats.Dropped)
	}
}

func TestManager_Integration(t *testing.T) {
	m := newTestManager(t, false)
	m.SetGravity(physics.Vector2D{Y: -10})

	ball := circle("ball", 0, 0, 1)
	static := entity.NewEntity("static", physics.Vector2D{X: 50})
	m.Add(ball)
	m.Add(static)

	m.Update(0.25)

	if got := ball.Velocity(); !got.ApproxEqual(physics.Vector2D{Y: -2.5}, 1e-9) {
		t.Errorf("velocity = %v, want (0,-2.5)", got)
	}
	if got := ball.Translation(); !got.ApproxEqual(physics.Vector2D{Y: -0.625}, 1e-9) {
		t.Errorf("translation = %v, want (0,-0.625)", got)
	}
	if got := ball.RigidBody().OldTranslation; got != (physics.Vector2D{}) {
		t.Errorf("OldTranslation = %v, want origin", got)
	}
	if got := static.Translation(); got != (physics.Vector2D{X: 50}) {
		t.Errorf("static entity moved to %v", got)
	}
}

func TestManager_MoversRunBeforeCollision(t *testing.T) {
	m := newTestManager(t, false)
	m.SetGravity(physics.Vector2D{Y: -10})

	platform := entity.NewEntity("platform", physics.Vector2D{})
	platform.SetRigidBody(physics.NewRigidBody(0))
	platform.SetCollider(collider.NewRectangle(physics.Vector2D{X: 1, Y: 0.25}))
	platform.SetMover(entity.NewMover(entity.MoverOnce, 1, nil, physics.Vector2D{}, physics.Vector2D{X: 4}))
	m.Add(platform)

	target := entity.NewEntity("target", physics.Vector2D{X: 2})
	target.SetCollider(collider.NewRectangle(physics.Vector2D{X: 0.5, Y: 0.5}))
	m.Add(target)

	rec := record(m.Bus())
	m.Step()

	if got := platform.Translation(); !got.ApproxEqual(physics.Vector2D{X: 1}, 1e-9) {
		t.Errorf("platform at %v, want (1,0)", got)
	}
	if got := platform.Velocity(); !got.ApproxEqual(physics.Vector2D{X: 4}, 1e-9) {
		t.Errorf("platform velocity %v, want (4,0) from mover, not gravity", got)
	}
	if got := rec.take(); len(got) != 2 {
		t.Errorf("events %v, want the platform and target to start touching", got)
	}
}

func TestManager_MapCollision(t *testing.T) {
	m := newTestManager(t, true)

	grid := resource.ParseTileGrid("floor", "....", "....", "####")
	level := entity.NewEntity("level", physics.Vector2D{})
	level.SetCollider(collider.NewTilemap(grid))
	m.Add(level)

	crate := entity.NewEntity("crate", physics.Vector2D{X: 1.5, Y: -1.1})
	crate.SetRigidBody(physics.NewRigidBody(1))
	crate.SetCollider(collider.NewRectangle(physics.Vector2D{X: 0.5, Y: 0.5}))
	m.Add(crate)

	var hits []*event.MapCollisionEvent
	m.Bus().SubscribeEntity(crate.ID(), event.MapCollision, func(ev event.Event) {
		hits = append(hits, ev.(*event.MapCollisionEvent))
	})

	m.Step()

	if len(hits) != 1 {
		t.Fatalf("got %d map collisions, want 1", len(hits))
	}
	hit := hits[0]
	if hit.Target != crate || hit.Map != level {
		t.Errorf("event target %s map %s, want crate and level", hit.Target.Name(), hit.Map.Name())
	}
	if !hit.Bottom || hit.Top || hit.Left || hit.Right {
		t.Errorf("sides = %+v, want bottom only", hit)
	}
	if got := crate.Translation(); math.Abs(got.Y+1) > 1e-9 {
		t.Errorf("crate at %v, want resting at y=-1", got)
	}
}

func TestManager_DeferredDestroy(t *testing.T) {
	m := newTestManager(t, false)
	a := circle("a", 0, 0, 1)
	b := circle("b", 1, 0, 1)
	m.Add(a)
	m.Add(b)

	var destroyed []string
	m.Bus().Subscribe(event.EntityDestroyed, func(ev event.Event) {
		destroyed = append(destroyed, ev.(*event.EntityEvent).Entity.Name())
	})
	m.Bus().SubscribeEntity(a.ID(), event.CollisionStarted, func(ev event.Event) {
		if err := m.Destroy(ev.(*event.CollisionEvent).Other.ID()); err != nil {
			t.Errorf("Destroy: %v", err)
		}
	})

	m.Update(0.25)

	if len(destroyed) != 1 || destroyed[0] != "b" {
		t.Errorf("destroyed = %v, want [b]", destroyed)
	}
	if m.Lookup(b.ID()) != nil || m.FindByName("b") != nil {
		t.Error("destroyed entity is still reachable")
	}
	if got := len(m.Entities()); got != 1 {
		t.Errorf("Entities() has %d entries, want 1", got)
	}
	if got := m.GetStats().Entities; got != 1 {
		t.Errorf("Stats.Entities = %d, want 1", got)
	}
	if err := m.Destroy(b.ID()); !errors.Is(err, ErrEntityNotFound) {
		t.Errorf("Destroy(pruned) error = %v, want ErrEntityNotFound", err)
	}

	rec := record(m.Bus())
	m.Update(0.25)
	if got := rec.take(); len(got) != 0 {
		t.Errorf("contact with a destroyed entity produced %v", got)
	}
}

func TestManager_QueryInterface(t *testing.T) {
	m := newTestManager(t, false)
	ghost := entity.NewEntity("ghost", physics.Vector2D{})
	ball := circle("ball", 0, 0, 1)
	sleeping := circle("sleeping", 5, 0, 1)
	sleeping.SetActive(false)

	var added int
	m.Bus().Subscribe(event.EntityAdded, func(event.Event) { added++ })
	for _, e := range []*entity.Entity{ghost, ball, sleeping, ball, nil} {
		m.Add(e)
	}

	if added != 3 {
		t.Errorf("EntityAdded published %d times, want 3", added)
	}
	if got := len(m.Entities()); got != 3 {
		t.Errorf("Entities() = %d, want 3", got)
	}
	if got := m.Collidables(); len(got) != 1 || got[0] != ball {
		t.Errorf("Collidables() = %d entities, want only ball", len(got))
	}
	if m.Lookup(ball.ID()) != ball {
		t.Error("Lookup(ball) failed")
	}
	if m.Lookup(math.MaxUint64) != nil {
		t.Error("Lookup(unknown) returned an entity")
	}
	if m.FindByName("sleeping") != sleeping {
		t.Error("FindByName(sleeping) failed")
	}
}

func TestManager_CastRay(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			m := newTestManager(t, mode.quadtree)
			m.Add(circle("target", 0, 0, 1))

			hits := m.CastRay(physics.Vector2D{X: -10}, physics.Vector2D{X: 1}, 20, "")
			if len(hits) != 1 {
				t.Fatalf("got %d hits, want 1", len(hits))
			}
			if math.Abs(hits[0].T-0.45) > 1e-9 {
				t.Errorf("t = %v, want 0.45", hits[0].T)
			}

			if hits := m.CastRay(physics.Vector2D{X: -10}, physics.Vector2D{X: 1}, 20, "target"); len(hits) != 0 {
				t.Errorf("excluded target still hit: %d", len(hits))
			}
			if hits := m.CastRay(physics.Vector2D{X: -10}, physics.Vector2D{}, 20, ""); hits != nil {
				t.Error("zero direction must not hit")
			}

			m.Config().Ray.DefaultExclude = "target"
			if hits := m.CastRay(physics.Vector2D{X: -10}, physics.Vector2D{X: 1}, 20, ""); len(hits) != 0 {
				t.Errorf("default exclusion ignored: %d hits", len(hits))
			}
		})
	}
}

func TestManager_CastRaySortedAndUnique(t *testing.T) {
	for _, mode := range modes {
		t.Run(mode.name, func(t *testing.T) {
			m := newTestManager(t, mode.quadtree)
			for i := 0; i < 8; i++ {
				m.Add(circle(fmt.Sprintf("c%d", i), float64(80-i*20), 0, 2))
			}
			long := entity.NewEntity("long", physics.Vector2D{})
			long.SetCollider(collider.NewRectangle(physics.Vector2D{X: 90, Y: 1}))
			m.Add(long)

			hits := m.CastRay(physics.Vector2D{X: -95}, physics.Vector2D{X: 1}, 200, "")
			seen := make(map[uint64]bool)
			for i, h := range hits {
				if seen[h.Entity.ID()] {
					t.Errorf("%s reported twice", h.Entity.Name())
				}
				seen[h.Entity.ID()] = true
				if i > 0 && hits[i-1].T > h.T {
					t.Errorf("hits not sorted at %d: %v > %v", i, hits[i-1].T, h.T)
				}
			}
			if len(hits) != 9 {
				t.Errorf("got %d hits, want 9", len(hits))
			}
			if hits[0].Entity != long {
				t.Errorf("nearest hit = %s, want long", hits[0].Entity.Name())
			}
		})
	}
}

type countingDrawer struct {
	circles, rects, lines int
}

func (d *countingDrawer) DrawCircle(physics.Vector2D, float64)        { d.circles++ }
func (d *countingDrawer) DrawRectangle(physics.BoundingRectangle)     { d.rects++ }
func (d *countingDrawer) DrawLine(physics.Vector2D, physics.Vector2D) { d.lines++ }

func TestManager_DebugDraw(t *testing.T) {
	m := newTestManager(t, true)
	m.Config().Debug.DrawQuadtree = true
	m.Add(circle("a", 10, 10, 1))
	m.Add(circle("b", -10, -10, 1))
	m.Add(circle("c", 10, -10, 1))
	m.Step()

	var d countingDrawer
	m.DebugDraw(&d)
	if d.circles != 3 {
		t.Errorf("drew %d circles, want 3", d.circles)
	}
	if d.rects < 5 {
		t.Errorf("drew %d quadtree nodes, want the split root and its children", d.rects)
	}
}

func BenchmarkStep(b *testing.B) {
	for _, mode := range modes {
		b.Run(mode.name, func(b *testing.B) {
			m := newTestManager(b, mode.quadtree)
			rng := rand.New(rand.NewSource(3))
			for i := 0; i < 400; i++ {
				e := circle(fmt.Sprintf("e%d", i), rng.Float64()*180-90, rng.Float64()*180-90, 1)
				e.SetVelocity(physics.Vector2D{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1})
				m.Add(e)
			}
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				m.Step()
			}
		})
	}
}
