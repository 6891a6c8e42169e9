package core

import (
	"fmt"
	"strings"
)

// Kind classifies a tile's terrain. It never changes after generation.
type Kind uint8

const (
	KindPlain Kind = iota
	KindBase
	KindTower
	KindWall
	KindMountain
	KindSwamp
)

// Yield describes when a tile produces soldiers for its owner.
type Yield uint8

const (
	YieldNone     Yield = iota
	YieldEveryTick      // +1 each tick
	YieldPeriodic       // +1 when tick % plain period == 0
)

// Behavior is the per-kind rule row consulted by the tick engine.
type Behavior struct {
	Yield Yield
	// Drain is subtracted from the tile every tick after generation, floored at 0.
	Drain int
	// Passable is false for terrain soldiers can never enter.
	Passable bool
	// Fortified kinds start with a capture threshold that must be worn down
	// before the tile can be owned.
	Fortified bool
}

var behaviors = [...]Behavior{
	KindPlain:    {Yield: YieldPeriodic, Passable: true},
	KindBase:     {Yield: YieldEveryTick, Passable: true},
	KindTower:    {Yield: YieldEveryTick, Passable: true, Fortified: true},
	KindWall:     {Yield: YieldNone, Passable: true, Fortified: true},
	KindMountain: {Yield: YieldNone, Passable: false},
	KindSwamp:    {Yield: YieldNone, Drain: 1, Passable: true},
}

var kindNames = [...]string{
	KindPlain:    "plain",
	KindBase:     "base",
	KindTower:    "tower",
	KindWall:     "wall",
	KindMountain: "mountain",
	KindSwamp:    "swamp",
}

// Behavior returns the rule row for k; unknown kinds behave as Mountain.
func (k Kind) Behavior() Behavior {
	if int(k) >= len(behaviors) {
		return behaviors[KindMountain]
	}
	return behaviors[k]
}

func (k Kind) String() string {
	if int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
	return kindNames[k]
}

// ParseKind converts a terrain name back into a Kind
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range kindNames {
		if name == s {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("unknown terrain kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
