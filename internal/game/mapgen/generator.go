package mapgen

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
)

// ErrGenerationFailed is returned when the requested layout cannot be built.
// Match creation must not proceed after it.
var ErrGenerationFailed = errors.New("map generation failed")

// MapConfig holds configuration for map generation
type MapConfig struct {
	Width     int
	Height    int
	BaseSlots int // number of bases to reserve, one per possible player

	Towers    int
	Walls     int
	Mountains int
	Swamps    int

	MinBaseSpacing int // Manhattan distance between any two bases
	EdgeMargin     int // preferred distance of bases from the grid edge

	WallThreshold     int
	TowerThresholdMin int
	TowerThresholdMax int

	// PlacementAttempts bounds the random draws per feature kind.
	PlacementAttempts int
}

// DefaultMapConfig returns the standard 5/10/8/6 feature layout for a w×h grid
func DefaultMapConfig(w, h, baseSlots int) MapConfig {
	return MapConfig{
		Width:             w,
		Height:            h,
		BaseSlots:         baseSlots,
		Towers:            5,
		Walls:             10,
		Mountains:         8,
		Swamps:            6,
		MinBaseSpacing:    5,
		EdgeMargin:        2,
		WallThreshold:     3,
		TowerThresholdMin: 5,
		TowerThresholdMax: 20,
		PlacementAttempts: 1000,
	}
}

// Layout is a freshly generated grid plus its reserved base slots.
type Layout struct {
	Grid  *core.Grid
	Bases []core.Coordinate
}

// Generator handles map generation with deterministic RNG
type Generator struct {
	config MapConfig
	rng    *rand.Rand
}

// NewGenerator creates a new map generator
func NewGenerator(config MapConfig, rng *rand.Rand) *Generator {
	return &Generator{
		config: config,
		rng:    rng,
	}
}

// baseRestarts is how many different first picks are tried before giving up on base spacing.
const baseRestarts = 8

// Generate builds a grid with bases reserved first and features scattered on
// the remaining free cells. Base cells and their orthogonal neighbours never
// receive a feature, so every base keeps its passable exits.
func (g *Generator) Generate() (*Layout, error) {
	if err := g.checkConfig(); err != nil {
		return nil, err
	}

	grid := core.NewGrid(g.config.Width, g.config.Height)
	bases, err := g.placeBases(grid)
	if err != nil {
		return nil, err
	}

	reserved := make([]bool, len(grid.T))
	for _, b := range bases {
		reserved[b.ToIndex(grid.W)] = true
		for _, n := range b.ValidNeighbors(grid.W, grid.H) {
			reserved[n.ToIndex(grid.W)] = true
		}
	}

	features := []struct {
		kind  core.Kind
		count int
	}{
		{core.KindMountain, g.config.Mountains},
		{core.KindWall, g.config.Walls},
		{core.KindTower, g.config.Towers},
		{core.KindSwamp, g.config.Swamps},
	}
	for _, f := range features {
		if err := g.placeFeature(grid, reserved, f.kind, f.count); err != nil {
			return nil, err
		}
	}

	return &Layout{Grid: grid, Bases: bases}, nil
}

func (g *Generator) checkConfig() error {
	c := g.config
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("%w: grid dimensions %dx%d must be positive", ErrGenerationFailed, c.Width, c.Height)
	}
	if c.BaseSlots < 1 {
		return fmt.Errorf("%w: at least one base slot is required", ErrGenerationFailed)
	}
	if c.Towers < 0 || c.Walls < 0 || c.Mountains < 0 || c.Swamps < 0 {
		return fmt.Errorf("%w: feature counts must not be negative", ErrGenerationFailed)
	}
	if c.TowerThresholdMin < 1 || c.TowerThresholdMax < c.TowerThresholdMin || c.WallThreshold < 1 {
		return fmt.Errorf("%w: capture thresholds must be positive and min <= max", ErrGenerationFailed)
	}
	cells := c.Width * c.Height
	if need := c.BaseSlots + c.Towers + c.Walls + c.Mountains + c.Swamps; need > cells {
		return fmt.Errorf("%w: %d bases and features do not fit in %d cells", ErrGenerationFailed, need, cells)
	}
	return nil
}

// placeBases picks base slots by farthest-point selection over the cells
// that respect the edge margin. The first slot comes from a random corner of
// that region on the first try and from a random cell on later restarts.
func (g *Generator) placeBases(grid *core.Grid) ([]core.Coordinate, error) {
	candidates := g.baseCandidates(grid)
	if len(candidates) < g.config.BaseSlots {
		return nil, fmt.Errorf("%w: only %d cells can hold %d bases", ErrGenerationFailed, len(candidates), g.config.BaseSlots)
	}

	var best []core.Coordinate
	bestSpacing := -1
	for restart := 0; restart < baseRestarts; restart++ {
		g.rng.Shuffle(len(candidates), func(i, j int) {
			candidates[i], candidates[j] = candidates[j], candidates[i]
		})

		first := candidates[0]
		if restart == 0 {
			first = g.cornerCandidate(candidates)
		}
		bases, spacing := farthestPoints(candidates, first, g.config.BaseSlots)
		if spacing > bestSpacing {
			best, bestSpacing = bases, spacing
		}
		if g.config.BaseSlots == 1 || spacing >= g.config.MinBaseSpacing {
			break
		}
	}

	if g.config.BaseSlots > 1 && bestSpacing < g.config.MinBaseSpacing {
		return nil, fmt.Errorf("%w: best base spacing %d is below minimum %d", ErrGenerationFailed, bestSpacing, g.config.MinBaseSpacing)
	}

	for _, b := range best {
		*grid.At(b) = core.Tile{Kind: core.KindBase, Owner: core.NeutralID}
	}
	return best, nil
}

// baseCandidates returns cells at least EdgeMargin from every edge, relaxing
// the margin on grids too small to honour it.
func (g *Generator) baseCandidates(grid *core.Grid) []core.Coordinate {
	for margin := g.config.EdgeMargin; margin >= 0; margin-- {
		var out []core.Coordinate
		for y := margin; y < grid.H-margin; y++ {
			for x := margin; x < grid.W-margin; x++ {
				out = append(out, core.Coordinate{X: x, Y: y})
			}
		}
		if len(out) >= g.config.BaseSlots {
			return out
		}
	}
	return nil
}

func (g *Generator) cornerCandidate(candidates []core.Coordinate) core.Coordinate {
	minX, minY := candidates[0].X, candidates[0].Y
	maxX, maxY := minX, minY
	for _, c := range candidates {
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minY, maxY = min(minY, c.Y), max(maxY, c.Y)
	}
	corners := []core.Coordinate{{X: minX, Y: minY}, {X: maxX, Y: minY}, {X: minX, Y: maxY}, {X: maxX, Y: maxY}}
	return corners[g.rng.Intn(len(corners))]
}

// farthestPoints greedily adds the candidate whose nearest chosen point is
// farthest away. It returns the chosen points and their minimum pairwise distance.
func farthestPoints(candidates []core.Coordinate, first core.Coordinate, n int) ([]core.Coordinate, int) {
	chosen := []core.Coordinate{first}
	nearest := make([]int, len(candidates))
	for i, c := range candidates {
		nearest[i] = c.DistanceTo(first)
	}

	spacing := -1
	for len(chosen) < n {
		pick := -1
		for i := range candidates {
			if nearest[i] == 0 {
				continue
			}
			if pick == -1 || nearest[i] > nearest[pick] {
				pick = i
			}
		}
		if pick == -1 {
			break
		}
		if spacing == -1 || nearest[pick] < spacing {
			spacing = nearest[pick]
		}
		next := candidates[pick]
		chosen = append(chosen, next)
		for i, c := range candidates {
			if d := c.DistanceTo(next); d < nearest[i] {
				nearest[i] = d
			}
		}
	}
	if len(chosen) < n {
		return chosen, -1
	}
	return chosen, spacing
}

func (g *Generator) placeFeature(grid *core.Grid, reserved []bool, kind core.Kind, want int) error {
	placed := 0
	for attempts := 0; placed < want; attempts++ {
		if attempts >= g.config.PlacementAttempts {
			return fmt.Errorf("%w: placed %d of %d %s tiles in %d attempts",
				ErrGenerationFailed, placed, want, kind, g.config.PlacementAttempts)
		}

		idx := g.rng.Intn(len(grid.T))
		t := &grid.T[idx]
		if reserved[idx] || t.Kind != core.KindPlain {
			continue
		}

		switch kind {
		case core.KindWall:
			grid.SetFortified(grid.Coord(idx), kind, g.config.WallThreshold)
		case core.KindTower:
			threshold := g.config.TowerThresholdMin + g.rng.Intn(g.config.TowerThresholdMax-g.config.TowerThresholdMin+1)
			grid.SetFortified(grid.Coord(idx), kind, threshold)
		default:
			*t = core.Tile{Kind: kind, Owner: core.NeutralID}
		}
		placed++
	}
	return nil
}
