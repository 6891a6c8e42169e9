package core

// NeutralID marks a tile without an owner.
const NeutralID = -1

// Tile is a single cell of the grid.
//
// A fortified tile (Tower or Wall with CaptureRemaining > 0) is always
// ownerless with zero soldiers; arrivals wear the threshold down instead of
// occupying it. Once CaptureRemaining reaches 0 the tile is an ordinary
// ownable cell for the rest of the match.
type Tile struct {
	Kind             Kind `json:"kind"`
	Owner            int  `json:"owner"`
	Soldiers         int  `json:"soldiers"`
	CaptureRemaining int  `json:"capture_remaining,omitempty"`
}

func (t *Tile) IsNeutral() bool   { return t.Owner == NeutralID }
func (t *Tile) IsBase() bool      { return t.Kind == KindBase }
func (t *Tile) IsMountain() bool  { return t.Kind == KindMountain }
func (t *Tile) IsFortified() bool { return t.CaptureRemaining > 0 }

// Behavior returns the rules currently in force for the tile. A breached
// Wall plays as Plain.
func (t *Tile) Behavior() Behavior {
	if t.Kind == KindWall && t.CaptureRemaining == 0 {
		return KindPlain.Behavior()
	}
	return t.Kind.Behavior()
}

// Grid is the match's tile matrix, stored row-major.
type Grid struct {
	W, H int
	T    []Tile // length = W*H
}

// NewGrid returns a w×h grid of ownerless Plain tiles
func NewGrid(w, h int) *Grid {
	g := &Grid{W: w, H: h, T: make([]Tile, w*h)}
	for i := range g.T {
		g.T[i] = Tile{Kind: KindPlain, Owner: NeutralID}
	}
	return g
}

func (g *Grid) Idx(x, y int) int      { return y*g.W + x }
func (g *Grid) XY(idx int) (int, int) { return idx % g.W, idx / g.W }

// Coord converts a tile index back into a coordinate
func (g *Grid) Coord(idx int) Coordinate { return FromIndex(idx, g.W) }

// InBounds checks if coordinates are within grid boundaries
func (g *Grid) InBounds(c Coordinate) bool {
	return c.IsValid(g.W, g.H)
}

// At returns the tile at c, or nil when c is out of bounds
func (g *Grid) At(c Coordinate) *Tile {
	if !g.InBounds(c) {
		return nil
	}
	return &g.T[c.ToIndex(g.W)]
}

// Clone returns a deep copy of the grid
func (g *Grid) Clone() *Grid {
	out := &Grid{W: g.W, H: g.H, T: make([]Tile, len(g.T))}
	copy(out.T, g.T)
	return out
}

// OwnedBy returns the indices of every tile owned by playerID
func (g *Grid) OwnedBy(playerID int) []int {
	var out []int
	for i := range g.T {
		if g.T[i].Owner == playerID {
			out = append(out, i)
		}
	}
	return out
}

// SetFortified places a Tower or Wall with the given capture threshold at c.
func (g *Grid) SetFortified(c Coordinate, kind Kind, threshold int) {
	t := g.At(c)
	if t == nil {
		return
	}
	*t = Tile{Kind: kind, Owner: NeutralID, CaptureRemaining: threshold}
}
