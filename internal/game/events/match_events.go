package events

import (
	"time"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
)

// Event type constants
const (
	TypeMatchStarted         = "match.started"
	TypeMatchEnded           = "match.ended"
	TypeTickStarted          = "tick.started"
	TypeTickEnded            = "tick.ended"
	TypePlayerJoined         = "player.joined"
	TypePlayerLeft           = "player.left"
	TypePlayerEliminated     = "player.eliminated"
	TypeOrderAccepted        = "order.accepted"
	TypeOrderRejected        = "order.rejected"
	TypeOrderApplied         = "order.applied"
	TypeCombatResolved       = "combat.resolved"
	TypeFortificationDamaged = "fortification.damaged"
	TypeTileCaptured         = "tile.captured"
	TypeGenerationApplied    = "generation.applied"
	TypeStateTransition      = "state.transition"
)

// MatchStartedEvent is published when a match leaves the lobby
type MatchStartedEvent struct {
	BaseEvent
	NumPlayers int `json:"num_players"`
	Width      int `json:"width"`
	Height     int `json:"height"`
}

func NewMatchStartedEvent(matchID string, numPlayers, width, height int) *MatchStartedEvent {
	return &MatchStartedEvent{
		BaseEvent:  newBase(TypeMatchStarted, matchID),
		NumPlayers: numPlayers,
		Width:      width,
		Height:     height,
	}
}

// MatchEndedEvent is published exactly once, when the match becomes terminal.
// Winner is -1 for a draw.
type MatchEndedEvent struct {
	BaseEvent
	Winner    int           `json:"winner"`
	Draw      bool          `json:"draw"`
	FinalTick int           `json:"final_tick"`
	Duration  time.Duration `json:"duration"`
}

func NewMatchEndedEvent(matchID string, winner int, draw bool, finalTick int, duration time.Duration) *MatchEndedEvent {
	return &MatchEndedEvent{
		BaseEvent: newBase(TypeMatchEnded, matchID),
		Winner:    winner,
		Draw:      draw,
		FinalTick: finalTick,
		Duration:  duration,
	}
}

// TickStartedEvent is published at the beginning of each tick
type TickStartedEvent struct {
	BaseEvent
	Tick int `json:"tick"`
}

func NewTickStartedEvent(matchID string, tick int) *TickStartedEvent {
	return &TickStartedEvent{BaseEvent: newBase(TypeTickStarted, matchID), Tick: tick}
}

// TickEndedEvent is published after every phase of a tick has run
type TickEndedEvent struct {
	BaseEvent
	Tick          int           `json:"tick"`
	OrdersApplied int           `json:"orders_applied"`
	ChangedTiles  int           `json:"changed_tiles"`
	ProcessedTime time.Duration `json:"processed_time"`
}

func NewTickEndedEvent(matchID string, tick, ordersApplied, changedTiles int, processedTime time.Duration) *TickEndedEvent {
	return &TickEndedEvent{
		BaseEvent:     newBase(TypeTickEnded, matchID),
		Tick:          tick,
		OrdersApplied: ordersApplied,
		ChangedTiles:  changedTiles,
		ProcessedTime: processedTime,
	}
}

// PlayerJoinedEvent is published when a player claims a base slot
type PlayerJoinedEvent struct {
	BaseEvent
	PlayerID int             `json:"player_id"`
	Name     string          `json:"name"`
	Base     core.Coordinate `json:"base"`
}

func NewPlayerJoinedEvent(matchID string, playerID int, name string, base core.Coordinate) *PlayerJoinedEvent {
	return &PlayerJoinedEvent{
		BaseEvent: newBase(TypePlayerJoined, matchID),
		PlayerID:  playerID,
		Name:      name,
		Base:      base,
	}
}

// PlayerLeftEvent is published when a player leaves the match
type PlayerLeftEvent struct {
	BaseEvent
	PlayerID int `json:"player_id"`
}

func NewPlayerLeftEvent(matchID string, playerID int) *PlayerLeftEvent {
	return &PlayerLeftEvent{BaseEvent: newBase(TypePlayerLeft, matchID), PlayerID: playerID}
}

// PlayerEliminatedEvent is published once per player. EliminatedBy is the
// player now holding the base, or -1 when the base fell ownerless or the
// player left.
type PlayerEliminatedEvent struct {
	BaseEvent
	PlayerID     int    `json:"player_id"`
	EliminatedBy int    `json:"eliminated_by"`
	Reason       string `json:"reason"`
	Tick         int    `json:"tick"`
}

func NewPlayerEliminatedEvent(matchID string, playerID, eliminatedBy int, reason string, tick int) *PlayerEliminatedEvent {
	return &PlayerEliminatedEvent{
		BaseEvent:    newBase(TypePlayerEliminated, matchID),
		PlayerID:     playerID,
		EliminatedBy: eliminatedBy,
		Reason:       reason,
		Tick:         tick,
	}
}

// OrderAcceptedEvent is published when an order enters the queue
type OrderAcceptedEvent struct {
	BaseEvent
	Order core.Order `json:"order"`
	Tick  int        `json:"tick"`
}

func NewOrderAcceptedEvent(matchID string, order core.Order, tick int) *OrderAcceptedEvent {
	return &OrderAcceptedEvent{BaseEvent: newBase(TypeOrderAccepted, matchID), Order: order, Tick: tick}
}

// OrderRejectedEvent is published when validation refuses an order
type OrderRejectedEvent struct {
	BaseEvent
	Order  core.Order `json:"order"`
	Reason string     `json:"reason"`
	Tick   int        `json:"tick"`
}

func NewOrderRejectedEvent(matchID string, order core.Order, reason string, tick int) *OrderRejectedEvent {
	return &OrderRejectedEvent{BaseEvent: newBase(TypeOrderRejected, matchID), Order: order, Reason: reason, Tick: tick}
}

// OrderAppliedEvent is published when soldiers leave their origin
type OrderAppliedEvent struct {
	BaseEvent
	PlayerID int             `json:"player_id"`
	From     core.Coordinate `json:"from"`
	To       core.Coordinate `json:"to"`
	Soldiers int             `json:"soldiers"`
	Tick     int             `json:"tick"`
}

func NewOrderAppliedEvent(matchID string, playerID int, from, to core.Coordinate, soldiers, tick int) *OrderAppliedEvent {
	return &OrderAppliedEvent{
		BaseEvent: newBase(TypeOrderApplied, matchID),
		PlayerID:  playerID,
		From:      from,
		To:        to,
		Soldiers:  soldiers,
		Tick:      tick,
	}
}

// Contender is one side's total strength on a contested tile.
type Contender struct {
	PlayerID int `json:"player_id"`
	Soldiers int `json:"soldiers"`
}

// CombatResolvedEvent is published for every tile where two or more sides met
type CombatResolvedEvent struct {
	BaseEvent
	Location      core.Coordinate `json:"location"`
	Contenders    []Contender     `json:"contenders"`
	PreviousOwner int             `json:"previous_owner"`
	Owner         int             `json:"owner"`
	Soldiers      int             `json:"soldiers"`
	Tick          int             `json:"tick"`
}

func NewCombatResolvedEvent(matchID string, location core.Coordinate, contenders []Contender, previousOwner, owner, soldiers, tick int) *CombatResolvedEvent {
	return &CombatResolvedEvent{
		BaseEvent:     newBase(TypeCombatResolved, matchID),
		Location:      location,
		Contenders:    contenders,
		PreviousOwner: previousOwner,
		Owner:         owner,
		Soldiers:      soldiers,
		Tick:          tick,
	}
}

// FortificationDamagedEvent is published when attackers wear down a Tower or Wall
type FortificationDamagedEvent struct {
	BaseEvent
	Location   core.Coordinate `json:"location"`
	Kind       core.Kind       `json:"kind"`
	AttackerID int             `json:"attacker_id"`
	Damage     int             `json:"damage"`
	Remaining  int             `json:"remaining"`
	Tick       int             `json:"tick"`
}

func NewFortificationDamagedEvent(matchID string, location core.Coordinate, kind core.Kind, attacker, damage, remaining, tick int) *FortificationDamagedEvent {
	return &FortificationDamagedEvent{
		BaseEvent:  newBase(TypeFortificationDamaged, matchID),
		Location:   location,
		Kind:       kind,
		AttackerID: attacker,
		Damage:     damage,
		Remaining:  remaining,
		Tick:       tick,
	}
}

// TileCapturedEvent is published when a tile changes to a new owner
type TileCapturedEvent struct {
	BaseEvent
	Location      core.Coordinate `json:"location"`
	Kind          core.Kind       `json:"kind"`
	PlayerID      int             `json:"player_id"`
	PreviousOwner int             `json:"previous_owner"`
	Tick          int             `json:"tick"`
}

func NewTileCapturedEvent(matchID string, location core.Coordinate, kind core.Kind, playerID, previousOwner, tick int) *TileCapturedEvent {
	return &TileCapturedEvent{
		BaseEvent:     newBase(TypeTileCaptured, matchID),
		Location:      location,
		Kind:          kind,
		PlayerID:      playerID,
		PreviousOwner: previousOwner,
		Tick:          tick,
	}
}

// GenerationAppliedEvent summarises the generation phase of a tick
type GenerationAppliedEvent struct {
	BaseEvent
	Tick              int `json:"tick"`
	TilesGenerated    int `json:"tiles_generated"`
	SoldiersGenerated int `json:"soldiers_generated"`
	SoldiersDrained   int `json:"soldiers_drained"`
}

func NewGenerationAppliedEvent(matchID string, tick, tiles, generated, drained int) *GenerationAppliedEvent {
	return &GenerationAppliedEvent{
		BaseEvent:         newBase(TypeGenerationApplied, matchID),
		Tick:              tick,
		TilesGenerated:    tiles,
		SoldiersGenerated: generated,
		SoldiersDrained:   drained,
	}
}

// StateTransitionEvent is published when the match state machine transitions between phases
type StateTransitionEvent struct {
	BaseEvent
	FromPhase string `json:"from_phase"`
	ToPhase   string `json:"to_phase"`
	Reason    string `json:"reason"`
}

func NewStateTransitionEvent(matchID, fromPhase, toPhase, reason string) *StateTransitionEvent {
	return &StateTransitionEvent{
		BaseEvent: newBase(TypeStateTransition, matchID),
		FromPhase: fromPhase,
		ToPhase:   toPhase,
		Reason:    reason,
	}
}
