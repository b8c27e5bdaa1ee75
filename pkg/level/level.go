// Package level builds sample worlds that exercise every collider kind:
// a pinball table of reflecting lines, a tilemap platformer and an
// asteroid field.
package level

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/tanema/gween/ease"

	"github.com/opd-ai/betaframework/pkg/collider"
	"github.com/opd-ai/betaframework/pkg/engine"
	"github.com/opd-ai/betaframework/pkg/entity"
	"github.com/opd-ai/betaframework/pkg/physics"
	"github.com/opd-ai/betaframework/pkg/resource"
)

// ErrUnknownLevel is returned by Load for names without a builder.
var ErrUnknownLevel = errors.New("unknown level")

// PlatformerGrid is the resource name of the platformer tile grid.
const PlatformerGrid = "platformer"

// Level describes what a builder added to the world.
type Level struct {
	Name     string
	Spawn    physics.Vector2D
	Entities []*entity.Entity
}

func (l *Level) add(m *engine.Manager, e *entity.Entity) *entity.Entity {
	m.Add(e)
	l.Entities = append(l.Entities, e)
	return e
}

// Builder populates m. res may be nil when the level needs no resources.
type Builder func(m *engine.Manager, res *resource.Manager) (*Level, error)

var builders = map[string]Builder{
	"pinball":    Pinball,
	"platformer": Platformer,
	"asteroids":  Asteroids,
}

// Names returns the registered level names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load builds the level called name into m.
func Load(name string, m *engine.Manager, res *resource.Manager) (*Level, error) {
	build, ok := builders[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLevel, name)
	}
	return build(m, res)
}

// chain returns the segments of a closed polygon through points.
func chain(points ...physics.Vector2D) []physics.LineSegment {
	segments := make([]physics.LineSegment, len(points))
	for i, p := range points {
		segments[i] = physics.NewLineSegment(p, points[(i+1)%len(points)])
	}
	return segments
}

func box(halfWidth, halfHeight float64) []physics.LineSegment {
	return chain(
		physics.Vector2D{X: -halfWidth, Y: -halfHeight},
		physics.Vector2D{X: halfWidth, Y: -halfHeight},
		physics.Vector2D{X: halfWidth, Y: halfHeight},
		physics.Vector2D{X: -halfWidth, Y: halfHeight},
	)
}

func dynamicCircle(name string, position physics.Vector2D, radius float64) *entity.Entity {
	e := entity.NewEntity(name, position)
	e.SetRigidBody(physics.NewRigidBody(1))
	e.SetCollider(collider.NewCircle(radius))
	return e
}

// Pinball builds a walled table with reflecting walls, static bumpers, a
// paddle sliding on a ping-pong mover and one ball.
func Pinball(m *engine.Manager, _ *resource.Manager) (*Level, error) {
	l := &Level{Name: "pinball", Spawn: physics.Vector2D{X: 0, Y: 20}}
	m.SetGravity(physics.Vector2D{Y: -9.81})

	table := entity.NewEntity("table", physics.Vector2D{})
	table.SetCollider(collider.NewLine(true, box(20, 30)...))
	l.add(m, table)

	for i, p := range []physics.Vector2D{{X: -8, Y: 10}, {X: 8, Y: 10}, {X: 0, Y: 2}} {
		bumper := entity.NewEntity(fmt.Sprintf("bumper-%d", i+1), p)
		bumper.SetCollider(collider.NewCircle(2))
		l.add(m, bumper)
	}

	paddle := entity.NewEntity("paddle", physics.Vector2D{X: -10, Y: -25})
	paddle.SetRigidBody(physics.NewRigidBody(0))
	paddle.SetCollider(collider.NewRectangle(physics.Vector2D{X: 3, Y: 0.5}))
	paddle.SetMover(entity.NewMover(entity.MoverPingPong, 2, ease.InOutQuad,
		physics.Vector2D{X: -10, Y: -25}, physics.Vector2D{X: 10, Y: -25}))
	l.add(m, paddle)

	ball := dynamicCircle("ball", l.Spawn, 1)
	ball.SetVelocity(physics.Vector2D{X: 3})
	l.add(m, ball)
	return l, nil
}

var platformerRows = []string{
	"################",
	"#..............#",
	"#..............#",
	"#.....###......#",
	"#..............#",
	"#..............#",
	"#..............#",
	"################",
}

// Platformer builds a tilemap room with a player, a moving platform and
// two coins. The room comes from the PlatformerGrid resource when res has
// one; otherwise the built-in room is registered with res.
func Platformer(m *engine.Manager, res *resource.Manager) (*Level, error) {
	grid, err := platformerGrid(res)
	if err != nil {
		return nil, err
	}
	if grid.Width() < 3 || grid.Height() < 3 {
		return nil, fmt.Errorf("platformer grid %q is too small: %dx%d", grid.Name(), grid.Width(), grid.Height())
	}

	l := &Level{Name: "platformer"}
	m.SetGravity(physics.Vector2D{Y: -9.81})

	room := entity.NewEntity("map", physics.Vector2D{})
	tiles := collider.NewTilemap(grid)
	room.SetCollider(tiles)
	l.add(m, room)

	// Cell (col, row) is centered on (col, -row) with the room at the origin.
	l.Spawn = tiles.CellBounds(3, grid.Height()-3).Center
	player := entity.NewEntity("player", l.Spawn)
	player.SetRigidBody(physics.NewRigidBody(1))
	player.SetCollider(collider.NewRectangle(physics.Vector2D{X: 0.4, Y: 0.45}))
	l.add(m, player)

	right := float64(grid.Width() - 3)
	platform := entity.NewEntity("platform", physics.Vector2D{X: right - 4, Y: -4})
	platform.SetRigidBody(physics.NewRigidBody(0))
	platform.SetCollider(collider.NewRectangle(physics.Vector2D{X: 1.5, Y: 0.25}))
	platform.SetMover(entity.NewMover(entity.MoverPingPong, 1.5, ease.InOutSine,
		physics.Vector2D{X: right - 4, Y: -4}, physics.Vector2D{X: right - 1, Y: -4}))
	l.add(m, platform)

	for i, p := range []physics.Vector2D{{X: 7, Y: -2}, {X: right, Y: -2}} {
		coin := entity.NewEntity(fmt.Sprintf("coin-%d", i+1), p)
		coin.SetCollider(collider.NewCircle(0.3))
		l.add(m, coin)
	}
	return l, nil
}

func platformerGrid(res *resource.Manager) (*resource.TileGrid, error) {
	if res == nil {
		return resource.ParseTileGrid(PlatformerGrid, platformerRows...), nil
	}
	grid, err := res.Grid(PlatformerGrid)
	if err == nil {
		return grid, nil
	}
	if !errors.Is(err, resource.ErrGridNotFound) {
		return nil, err
	}
	grid = resource.ParseTileGrid(PlatformerGrid, platformerRows...)
	res.AddGrid(grid)
	return grid, nil
}

// AsteroidSeed seeds the asteroid field so every build is identical.
const AsteroidSeed = 1

// Asteroids builds a gravity-free arena with reflecting walls, a ship and
// a field of drifting rocks.
func Asteroids(m *engine.Manager, _ *resource.Manager) (*Level, error) {
	l := &Level{Name: "asteroids"}
	m.SetGravity(physics.Vector2D{})

	arena := entity.NewEntity("arena", physics.Vector2D{})
	arena.SetCollider(collider.NewLine(true, box(50, 50)...))
	l.add(m, arena)

	ship := entity.NewEntity("ship", l.Spawn)
	ship.SetRigidBody(physics.NewRigidBody(1))
	ship.SetCollider(collider.NewRectangle(physics.Vector2D{X: 1, Y: 1.5}))
	l.add(m, ship)

	rng := rand.New(rand.NewSource(AsteroidSeed))
	for i := 0; i < 16; i++ {
		position := physics.Vector2D{X: rng.Float64()*80 - 40, Y: rng.Float64()*80 - 40}
		if position.Length() < 8 {
			position = position.Normalize().Scale(8)
		}
		rock := dynamicCircle(fmt.Sprintf("rock-%d", i+1), position, 1.5+rng.Float64()*1.5)
		rock.SetVelocity(physics.FromAngle(rng.Float64()*2*math.Pi, 2+rng.Float64()*4))
		l.add(m, rock)
	}
	return l, nil
}
