package main

import (
	"math/rand"

	"github.com/mitchelldurbincs/FlagWars/internal/game"
	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/game/rules"
)

// bots picks one random legal order per living player each tick, preferring
// moves onto tiles the player does not own.
type bots struct {
	rng   *rand.Rand
	legal *rules.LegalMoveCalculator
}

func newBots(rng *rand.Rand) *bots {
	return &bots{rng: rng, legal: rules.NewLegalMoveCalculator()}
}

func (b *bots) orders(e *game.Engine) []core.Order {
	g := e.Grid()
	var out []core.Order
	for _, p := range e.Players() {
		legal := b.legal.LegalOrders(g, p)
		if len(legal) == 0 {
			continue
		}
		var expand []core.Order
		for _, o := range legal {
			if g.At(o.Destination()).Owner != p.ID {
				expand = append(expand, o)
			}
		}
		pool := legal
		if len(expand) > 0 && b.rng.Intn(4) > 0 {
			pool = expand
		}
		o := pool[b.rng.Intn(len(pool))]
		// Leave a garrison behind half the time.
		if n := g.At(o.Origin).Soldiers; n > 1 && b.rng.Intn(2) == 0 {
			o.Amount = n / 2
		}
		out = append(out, o)
	}
	return out
}
