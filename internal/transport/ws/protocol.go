// Package ws carries the match protocol over websocket connections. Every
// frame is a JSON object with a "type"; requests may carry an "id" that is
// echoed on the direct reply. Match updates (snapshot, delta, lobby,
// match_ended, match_error) arrive unsolicited and are sent as-is.
package ws

import (
	"encoding/json"
	"errors"

	"github.com/mitchelldurbincs/FlagWars/internal/game/core"
	"github.com/mitchelldurbincs/FlagWars/internal/match"
)

// Inbound message types
const (
	MsgJoinMatch   = "join_match"
	MsgSpectate    = "spectate"
	MsgSubmitOrder = "submit_order"
	MsgLeaveMatch  = "leave_match"
	MsgReady       = "ready"
	MsgStartMatch  = "start_match"
	MsgGetState    = "get_state"
	MsgListMatches = "list_matches"
)

// Direct reply types
const (
	MsgJoined  = "joined"
	MsgOrderOK = "order_accepted"
	MsgLeft    = "left"
	MsgOK      = "ok"
	MsgMatches = "matches"
	MsgError   = "error"
)

// ClientMessage is one inbound frame
type ClientMessage struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// ServerMessage is a direct reply to a ClientMessage
type ServerMessage struct {
	Type  string     `json:"type"`
	ID    string     `json:"id,omitempty"`
	Data  any        `json:"data,omitempty"`
	Error *ErrorBody `json:"error,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// JoinRequest joins MatchID, or the first open lobby when it is empty.
// Sending the token from an earlier join reclaims that seat.
type JoinRequest struct {
	MatchID string `json:"match_id,omitempty"`
	Name    string `json:"name,omitempty"`
	Token   string `json:"token,omitempty"`
}

type SpectateRequest struct {
	MatchID string `json:"match_id"`
}

// OrderRequest moves Amount soldiers (0 for all) from (X, Y)
type OrderRequest struct {
	X         int    `json:"x"`
	Y         int    `json:"y"`
	Direction string `json:"direction"`
	Amount    int    `json:"amount,omitempty"`
}

type ReadyRequest struct {
	Ready bool `json:"ready"`
}

// Joined tells the client its seat. Token is only set for players.
type Joined struct {
	MatchID   string `json:"match_id"`
	PlayerID  int    `json:"player_id"`
	Token     string `json:"token,omitempty"`
	Spectator bool   `json:"spectator,omitempty"`
}

var (
	errBadRequest     = errors.New("malformed request")
	errNotInMatch     = errors.New("not in a match")
	errAlreadyInMatch = errors.New("already in a match")
	errRateLimited    = errors.New("too many orders")
	errUnknownType    = errors.New("unknown message type")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{errBadRequest, "bad_request"},
	{errNotInMatch, "not_in_match"},
	{errAlreadyInMatch, "already_in_match"},
	{errRateLimited, "rate_limited"},
	{errUnknownType, "unknown_type"},
	{match.ErrMatchFull, "match_full"},
	{match.ErrMatchNotFound, "match_not_found"},
	{match.ErrServerAtCapacity, "server_at_capacity"},
	{match.ErrNotAcceptingOrders, "not_accepting_orders"},
	{match.ErrMatchStarted, "match_started"},
	{match.ErrUnknownSession, "unknown_session"},
	{match.ErrSpectator, "spectator"},
	{match.ErrMatchClosed, "match_closed"},
	{core.ErrOutOfBounds, "out_of_bounds"},
	{core.ErrNotAdjacent, "not_adjacent"},
	{core.ErrNotOwned, "not_owned"},
	{core.ErrInsufficientSoldiers, "insufficient_soldiers"},
	{core.ErrImpassable, "impassable"},
	{core.ErrPlayerEliminated, "player_eliminated"},
	{core.ErrInvalidDirection, "invalid_direction"},
	{core.ErrInvalidAmount, "invalid_amount"},
	{core.ErrMatchOver, "match_over"},
}

// errorCode maps an error to its stable wire code
func errorCode(err error) string {
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return "internal"
}
