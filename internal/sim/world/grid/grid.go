// Package grid holds the world query/mutate contract the boom log machinery runs
// against, plus the small vector and direction types it needs.
package grid

import "math"

type Vec3i struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

func (v Vec3i) Add(o Vec3i) Vec3i { return Vec3i{X: v.X + o.X, Y: v.Y + o.Y, Z: v.Z + o.Z} }

func (v Vec3i) Array() [3]int { return [3]int{v.X, v.Y, v.Z} }

// Center returns the world-space center of the cell at v.
func (v Vec3i) Center() Vec3 {
	return Vec3{X: float64(v.X) + 0.5, Y: float64(v.Y) + 0.5, Z: float64(v.Z) + 0.5}
}

type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{X: v.X - o.X, Y: v.Y - o.Y, Z: v.Z - o.Z} }

func (v Vec3) Dist(o Vec3) float64 {
	d := v.Sub(o)
	return math.Sqrt(d.X*d.X + d.Y*d.Y + d.Z*d.Z)
}

type Axis uint8

const (
	AxisY Axis = iota // default for freshly placed logs
	AxisX
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisZ:
		return "z"
	default:
		return "y"
	}
}

type Direction uint8

const (
	Down Direction = iota
	Up
	North
	South
	West
	East
)

// Directions lists the six axis-aligned neighbor directions. Ties in Nearest
// resolve to the earlier entry.
var Directions = [6]Direction{Down, Up, North, South, West, East}

var offsets = [6]Vec3i{
	Down:  {Y: -1},
	Up:    {Y: 1},
	North: {Z: -1},
	South: {Z: 1},
	West:  {X: -1},
	East:  {X: 1},
}

func (d Direction) Offset() Vec3i { return offsets[d] }

func (d Direction) String() string {
	switch d {
	case Down:
		return "down"
	case Up:
		return "up"
	case North:
		return "north"
	case South:
		return "south"
	case West:
		return "west"
	case East:
		return "east"
	}
	return "unknown"
}

// Nearest returns the direction whose unit vector has the largest dot
// product with (x, y, z). The zero vector maps to North.
func Nearest(x, y, z float64) Direction {
	best := North
	bestDot := 0.0
	for _, d := range Directions {
		o := d.Offset()
		dot := x*float64(o.X) + y*float64(o.Y) + z*float64(o.Z)
		if dot > bestDot {
			best = d
			bestDot = dot
		}
	}
	return best
}

// Cell is the content of one grid position. Axis only matters for pillar
// blocks and Age only for stripped logs.
type Cell struct {
	Block string `json:"block"`
	Axis  Axis   `json:"axis"`
	Age   int    `json:"age,omitempty"`
}

type ItemStack struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

// Tool is the held item used on a block.
type Tool struct {
	Item    string   `json:"item"`
	Actions []string `json:"actions,omitempty"`
}

const ActionAxeStrip = "axe_strip"

func (t Tool) CanPerform(action string) bool {
	for _, a := range t.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Actor is an entity taking part in an event (player, igniter).
type Actor struct {
	ID  string `json:"id"`
	Pos Vec3   `json:"pos"`
}

// Grid is the world surface the core reads and mutates. Implementations own
// all state; callers must not cache cells across calls.
type Grid interface {
	Cell(pos Vec3i) Cell
	SetCell(pos Vec3i, c Cell)
	TriggerAreaEffect(center Vec3, radius float64, destructive bool)
	IsServerAuthoritative() bool
}

// Dropper spawns item entities popped out of a block face.
type Dropper interface {
	EjectDrop(pos Vec3i, face Direction, stack ItemStack)
}
