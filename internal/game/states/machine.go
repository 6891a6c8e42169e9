package states

import (
	"fmt"
	"sync"
	"time"

	"github.com/mitchelldurbincs/FlagWars/internal/game/events"
)

// State represents a match phase with lifecycle callbacks
type State interface {
	Phase() MatchPhase
	Enter(ctx *MatchContext) error
	Exit(ctx *MatchContext) error
	Validate(ctx *MatchContext) error
}

// Transition represents a state transition in the history
type Transition struct {
	From      MatchPhase
	To        MatchPhase
	Timestamp time.Time
	Reason    string
}

// StateMachine manages match phase transitions and history
type StateMachine struct {
	mu             sync.RWMutex
	currentPhase   MatchPhase
	states         map[MatchPhase]State
	context        *MatchContext
	history        []Transition
	maxHistorySize int
	eventBus       *events.EventBus
}

// NewStateMachine creates a new state machine in PhaseInitializing
func NewStateMachine(ctx *MatchContext, eventBus *events.EventBus) *StateMachine {
	sm := &StateMachine{
		currentPhase:   PhaseInitializing,
		states:         make(map[MatchPhase]State),
		context:        ctx,
		history:        make([]Transition, 0, 8),
		maxHistorySize: 64,
		eventBus:       eventBus,
	}

	for _, s := range []State{initializingState{}, lobbyState{}, countdownState{}, runningState{}, endedState{}, errorState{}} {
		sm.states[s.Phase()] = s
	}
	return sm
}

// RegisterState replaces the implementation of a phase
func (sm *StateMachine) RegisterState(state State) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	sm.states[state.Phase()] = state
}

// CurrentPhase returns the current match phase
func (sm *StateMachine) CurrentPhase() MatchPhase {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.currentPhase
}

// TransitionTo attempts to transition to the specified phase
func (sm *StateMachine) TransitionTo(targetPhase MatchPhase, reason string) error {
	sm.mu.Lock()

	if !sm.currentPhase.CanTransitionTo(targetPhase) {
		from := sm.currentPhase
		sm.mu.Unlock()
		return fmt.Errorf("invalid transition from %s to %s", from, targetPhase)
	}

	targetState, ok := sm.states[targetPhase]
	if !ok {
		sm.mu.Unlock()
		return fmt.Errorf("no state implementation for phase %s", targetPhase)
	}
	if err := targetState.Validate(sm.context); err != nil {
		sm.mu.Unlock()
		return fmt.Errorf("target state validation failed: %w", err)
	}

	if current, ok := sm.states[sm.currentPhase]; ok {
		if err := current.Exit(sm.context); err != nil {
			sm.context.Logger.Error().
				Err(err).
				Str("from_phase", sm.currentPhase.String()).
				Str("to_phase", targetPhase.String()).
				Msg("Error exiting state")
		}
	}

	previousPhase := sm.currentPhase
	sm.currentPhase = targetPhase
	if err := targetState.Enter(sm.context); err != nil {
		sm.currentPhase = previousPhase
		sm.mu.Unlock()
		return fmt.Errorf("failed to enter state %s: %w", targetPhase, err)
	}

	sm.history = append(sm.history, Transition{
		From:      previousPhase,
		To:        targetPhase,
		Timestamp: time.Now(),
		Reason:    reason,
	})
	if len(sm.history) > sm.maxHistorySize {
		sm.history = sm.history[len(sm.history)-sm.maxHistorySize:]
	}
	sm.mu.Unlock()

	// Published outside the lock so handlers may query the machine.
	if sm.eventBus != nil {
		sm.eventBus.Publish(events.NewStateTransitionEvent(
			sm.context.MatchID,
			previousPhase.String(),
			targetPhase.String(),
			reason,
		))
	}

	sm.context.Logger.Debug().
		Str("from_phase", previousPhase.String()).
		Str("to_phase", targetPhase.String()).
		Str("reason", reason).
		Msg("State transition completed")

	return nil
}

// GetHistory returns a copy of the transition history
func (sm *StateMachine) GetHistory() []Transition {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	history := make([]Transition, len(sm.history))
	copy(history, sm.history)
	return history
}

// Context returns the match context
func (sm *StateMachine) Context() *MatchContext {
	return sm.context
}

// CanTransitionTo checks if a transition to the target phase is allowed
func (sm *StateMachine) CanTransitionTo(targetPhase MatchPhase) bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.currentPhase.CanTransitionTo(targetPhase)
}
