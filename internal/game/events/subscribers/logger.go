package subscribers

import (
	"encoding/json"

	"github.com/rs/zerolog"

	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
)

// LoggerSubscriber logs events to structured logs
type LoggerSubscriber struct {
	id              string
	logger          zerolog.Logger
	logLevel        zerolog.Level
	eventTypeFilter map[string]bool // If non-nil, only log these event types
	devMode         bool            // If true, log full event details
}

// NewLoggerSubscriber creates a new logger subscriber
func NewLoggerSubscriber(id string, logger zerolog.Logger, logLevel zerolog.Level) *LoggerSubscriber {
	return &LoggerSubscriber{
		id:       id,
		logger:   logger.With().Str("subscriber", "event_logger").Logger(),
		logLevel: logLevel,
	}
}

// ID returns the subscriber's unique identifier
func (ls *LoggerSubscriber) ID() string {
	return ls.id
}

// SetEventFilter sets which event types to log (nil means log all)
func (ls *LoggerSubscriber) SetEventFilter(eventTypes []string) {
	if len(eventTypes) == 0 {
		ls.eventTypeFilter = nil
		return
	}

	ls.eventTypeFilter = make(map[string]bool)
	for _, eventType := range eventTypes {
		ls.eventTypeFilter[eventType] = true
	}
}

// SetDevMode enables or disables development mode logging
func (ls *LoggerSubscriber) SetDevMode(enabled bool) {
	ls.devMode = enabled
}

// InterestedIn returns true if the subscriber wants to receive this event type
func (ls *LoggerSubscriber) InterestedIn(eventType string) bool {
	if ls.eventTypeFilter == nil {
		return true
	}
	return ls.eventTypeFilter[eventType]
}

// HandleEvent processes an event by logging it
func (ls *LoggerSubscriber) HandleEvent(event events.Event) {
	logEvent := ls.logger.WithLevel(ls.logLevel)
	if logEvent == nil {
		return
	}
	logEvent.
		Str("event_type", event.Type()).
		Str("match_id", event.MatchID()).
		Time("timestamp", event.Timestamp())

	switch e := event.(type) {
	case *events.MatchStartedEvent:
		logEvent.
			Int("num_players", e.NumPlayers).
			Int("width", e.Width).
			Int("height", e.Height)

	case *events.MatchEndedEvent:
		logEvent.
			Int("winner", e.Winner).
			Bool("draw", e.Draw).
			Int("final_tick", e.FinalTick).
			Dur("duration", e.Duration)

	case *events.TickStartedEvent:
		logEvent.Int("tick", e.Tick)

	case *events.TickEndedEvent:
		logEvent.
			Int("tick", e.Tick).
			Int("orders_applied", e.OrdersApplied).
			Int("changed_tiles", e.ChangedTiles).
			Dur("process_time", e.ProcessedTime)

	case *events.PlayerJoinedEvent:
		logEvent.
			Int("player_id", e.PlayerID).
			Str("name", e.Name).
			Stringer("base", e.Base)

	case *events.PlayerLeftEvent:
		logEvent.Int("player_id", e.PlayerID)

	case *events.PlayerEliminatedEvent:
		logEvent.
			Int("player_id", e.PlayerID).
			Int("eliminated_by", e.EliminatedBy).
			Str("reason", e.Reason).
			Int("tick", e.Tick)

	case *events.OrderAcceptedEvent:
		logEvent.
			Int("player_id", e.Order.PlayerID).
			Stringer("origin", e.Order.Origin).
			Stringer("direction", e.Order.Direction).
			Int("amount", e.Order.Amount)

	case *events.OrderRejectedEvent:
		logEvent.
			Int("player_id", e.Order.PlayerID).
			Stringer("origin", e.Order.Origin).
			Str("reason", e.Reason)

	case *events.OrderAppliedEvent:
		logEvent.
			Int("player_id", e.PlayerID).
			Stringer("from", e.From).
			Stringer("to", e.To).
			Int("soldiers", e.Soldiers)

	case *events.CombatResolvedEvent:
		logEvent.
			Stringer("location", e.Location).
			Int("contenders", len(e.Contenders)).
			Int("previous_owner", e.PreviousOwner).
			Int("owner", e.Owner).
			Int("soldiers", e.Soldiers)

	case *events.FortificationDamagedEvent:
		logEvent.
			Stringer("location", e.Location).
			Stringer("kind", e.Kind).
			Int("attacker_id", e.AttackerID).
			Int("damage", e.Damage).
			Int("remaining", e.Remaining)

	case *events.TileCapturedEvent:
		logEvent.
			Stringer("location", e.Location).
			Stringer("kind", e.Kind).
			Int("player_id", e.PlayerID).
			Int("previous_owner", e.PreviousOwner)

	case *events.GenerationAppliedEvent:
		logEvent.
			Int("tick", e.Tick).
			Int("tiles_generated", e.TilesGenerated).
			Int("soldiers_generated", e.SoldiersGenerated).
			Int("soldiers_drained", e.SoldiersDrained)

	case *events.StateTransitionEvent:
		logEvent.
			Str("from_phase", e.FromPhase).
			Str("to_phase", e.ToPhase).
			Str("reason", e.Reason)
	}

	if ls.devMode {
		if jsonData, err := json.Marshal(event); err == nil {
			logEvent.RawJSON("event_data", jsonData)
		}
	}

	logEvent.Msg("Match event")
}
