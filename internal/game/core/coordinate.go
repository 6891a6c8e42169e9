package core

import (
	"fmt"
	"strings"
)

// Coordinate is a cell position on the grid. X grows east, Y grows south.
type Coordinate struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// NewCoordinate creates a new coordinate with the given x and y values
func NewCoordinate(x, y int) Coordinate {
	return Coordinate{X: x, Y: y}
}

// FromIndex creates a coordinate from a row-major grid index
func FromIndex(idx, width int) Coordinate {
	return Coordinate{
		X: idx % width,
		Y: idx / width,
	}
}

// IsValid checks if the coordinate is within the given bounds
func (c Coordinate) IsValid(width, height int) bool {
	return c.X >= 0 && c.X < width && c.Y >= 0 && c.Y < height
}

// ToIndex converts the coordinate to a row-major grid index
func (c Coordinate) ToIndex(width int) int {
	return c.Y*width + c.X
}

// DistanceTo calculates the Manhattan distance to another coordinate
func (c Coordinate) DistanceTo(other Coordinate) int {
	return abs(c.X-other.X) + abs(c.Y-other.Y)
}

// IsAdjacentTo checks if this coordinate is orthogonally adjacent to another
func (c Coordinate) IsAdjacentTo(other Coordinate) bool {
	return c.DistanceTo(other) == 1
}

// Neighbors returns the four orthogonal neighbors in North, East, South, West order
func (c Coordinate) Neighbors() []Coordinate {
	out := make([]Coordinate, 0, 4)
	for _, d := range Directions {
		out = append(out, c.Move(d))
	}
	return out
}

// ValidNeighbors returns only the neighbors that are within the given bounds
func (c Coordinate) ValidNeighbors(width, height int) []Coordinate {
	valid := make([]Coordinate, 0, 4)
	for _, n := range c.Neighbors() {
		if n.IsValid(width, height) {
			valid = append(valid, n)
		}
	}
	return valid
}

// Add returns the component-wise sum of two coordinates
func (c Coordinate) Add(other Coordinate) Coordinate {
	return Coordinate{X: c.X + other.X, Y: c.Y + other.Y}
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.X, c.Y)
}

// Direction is one of the four orthogonal movement directions.
type Direction int

const (
	North Direction = iota
	East
	South
	West
)

// Directions lists every valid direction in a stable order
var Directions = [...]Direction{North, East, South, West}

var directionVectors = [...]Coordinate{
	North: {X: 0, Y: -1},
	East:  {X: 1, Y: 0},
	South: {X: 0, Y: 1},
	West:  {X: -1, Y: 0},
}

// Valid reports whether d is one of the four known directions
func (d Direction) Valid() bool {
	return d >= North && d <= West
}

// Vector returns the unit offset for the direction
func (d Direction) Vector() Coordinate {
	if !d.Valid() {
		return Coordinate{}
	}
	return directionVectors[d]
}

func (d Direction) String() string {
	switch d {
	case North:
		return "up"
	case East:
		return "right"
	case South:
		return "down"
	case West:
		return "left"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts screen names (up/down/left/right), compass names
// and their first letters, case-insensitively.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "north", "n", "u":
		return North, nil
	case "right", "east", "e", "r":
		return East, nil
	case "down", "south", "s", "d":
		return South, nil
	case "left", "west", "w", "l":
		return West, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidDirection, s)
}

// Move returns the coordinate one step away in the given direction
func (c Coordinate) Move(direction Direction) Coordinate {
	return c.Add(direction.Vector())
}

// DirectionTo returns the direction from c to an adjacent coordinate.
// ok is false when the coordinates are not adjacent.
func (c Coordinate) DirectionTo(other Coordinate) (dir Direction, ok bool) {
	if !c.IsAdjacentTo(other) {
		return 0, false
	}
	for _, d := range Directions {
		if c.Move(d) == other {
			return d, true
		}
	}
	return 0, false
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
