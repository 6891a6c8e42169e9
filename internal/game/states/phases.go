package states

import "fmt"

// MatchPhase represents the current phase of a match
type MatchPhase int

const (
	// PhaseInitializing - match object and terrain being created
	PhaseInitializing MatchPhase = iota

	// PhaseLobby - players joining and readying up
	PhaseLobby

	// PhaseCountdown - everyone is ready, start is pending
	PhaseCountdown

	// PhaseRunning - ticks are being processed
	PhaseRunning

	// PhaseEnded - a winner or draw was recorded, or the lobby was abandoned
	PhaseEnded

	// PhaseError - an engine invariant failed; the match is frozen
	PhaseError
)

var phaseNames = map[MatchPhase]string{
	PhaseInitializing: "Initializing",
	PhaseLobby:        "Lobby",
	PhaseCountdown:    "Countdown",
	PhaseRunning:      "Running",
	PhaseEnded:        "Ended",
	PhaseError:        "Error",
}

// String returns the string representation of a MatchPhase
func (p MatchPhase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int(p))
}

// IsTerminal returns true if no further transitions can happen
func (p MatchPhase) IsTerminal() bool {
	return p == PhaseEnded || p == PhaseError
}

// CanReceiveOrders returns true if orders may be queued in this phase
func (p MatchPhase) CanReceiveOrders() bool {
	return p == PhaseRunning
}

// CanAddPlayers returns true if players can join in this phase
func (p MatchPhase) CanAddPlayers() bool {
	return p == PhaseLobby
}

// AllowedTransitions returns the valid phases this phase can transition to
func (p MatchPhase) AllowedTransitions() []MatchPhase {
	switch p {
	case PhaseInitializing:
		return []MatchPhase{PhaseLobby, PhaseError}
	case PhaseLobby:
		return []MatchPhase{PhaseCountdown, PhaseRunning, PhaseEnded, PhaseError}
	case PhaseCountdown:
		return []MatchPhase{PhaseLobby, PhaseRunning, PhaseEnded, PhaseError}
	case PhaseRunning:
		return []MatchPhase{PhaseEnded, PhaseError}
	default:
		return nil
	}
}

// CanTransitionTo checks if a transition from this phase to the target phase is allowed
func (p MatchPhase) CanTransitionTo(target MatchPhase) bool {
	for _, phase := range p.AllowedTransitions() {
		if phase == target {
			return true
		}
	}
	return false
}

// ParsePhase converts a string to a MatchPhase
func ParsePhase(s string) (MatchPhase, error) {
	for phase, name := range phaseNames {
		if name == s {
			return phase, nil
		}
	}
	return PhaseInitializing, fmt.Errorf("unknown match phase %q", s)
}

func (p MatchPhase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *MatchPhase) UnmarshalText(b []byte) error {
	parsed, err := ParsePhase(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
