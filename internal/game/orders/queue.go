package orders

import (
	"sync"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
)

// Roster answers liveness questions about a match's players.
type Roster interface {
	IsAlive(playerID int) bool
}

type slot struct {
	mu    sync.Mutex
	order core.Order
	set   bool
}

// Queue buffers at most one pending order per origin tile.
//
// Submissions from many goroutines only contend when they target the same
// origin slot. Drain excludes all submitters, so a tick sees either the
// whole of a submission or none of it.
//
// Submit reads the grid to validate; the caller must keep the grid stable
// for the duration of the call (the match holds its read lock).
type Queue struct {
	gate  sync.RWMutex
	width int
	slots []slot
}

// NewQueue creates a queue for a width×height grid
func NewQueue(width, height int) *Queue {
	return &Queue{
		width: width,
		slots: make([]slot, width*height),
	}
}

// Submit validates o and stores it in its origin slot, replacing any
// earlier order for the same origin. Rejected orders are never stored.
func (q *Queue) Submit(g *core.Grid, roster Roster, o core.Order) error {
	if !roster.IsAlive(o.PlayerID) {
		return &core.OrderError{Order: o, Err: core.ErrPlayerEliminated}
	}
	if err := o.Validate(g); err != nil {
		return &core.OrderError{Order: o, Err: err}
	}

	q.gate.RLock()
	defer q.gate.RUnlock()

	s := &q.slots[o.Origin.ToIndex(q.width)]
	s.mu.Lock()
	s.order = o
	s.set = true
	s.mu.Unlock()
	return nil
}

// Drain removes and returns every pending order in origin index order.
func (q *Queue) Drain() []core.Order {
	q.gate.Lock()
	defer q.gate.Unlock()

	var out []core.Order
	for i := range q.slots {
		s := &q.slots[i]
		if s.set {
			out = append(out, s.order)
			s.set = false
		}
	}
	return out
}

// DiscardPlayer drops every pending order from playerID and reports how many were removed.
func (q *Queue) DiscardPlayer(playerID int) int {
	q.gate.Lock()
	defer q.gate.Unlock()

	removed := 0
	for i := range q.slots {
		s := &q.slots[i]
		if s.set && s.order.PlayerID == playerID {
			s.set = false
			removed++
		}
	}
	return removed
}

// Len returns the number of pending orders
func (q *Queue) Len() int {
	q.gate.Lock()
	defer q.gate.Unlock()

	n := 0
	for i := range q.slots {
		if q.slots[i].set {
			n++
		}
	}
	return n
}
