package ws

import (
	"encoding/json"
	"errors"

	"molehunt/internal/game"
)

// MessageType discriminates the WebSocket envelope.
type MessageType string

// Inbound message types.
const (
	MsgJoin      MessageType = "join"
	MsgHeartbeat MessageType = "heartbeat"
	MsgAdmin     MessageType = "admin"
	MsgConfigure MessageType = "configure"
	MsgCallVote  MessageType = "call_vote"
	MsgVote      MessageType = "vote"
	MsgSpyGuess  MessageType = "spy_guess"
)

// Outbound message types.
const (
	MsgState  MessageType = "state"
	MsgJoined MessageType = "joined"
	MsgKicked MessageType = "kicked"
	MsgError  MessageType = "error"
)

// Message is the WebSocket envelope format.
type Message struct {
	Type    MessageType     `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type joinPayload struct {
	Name      string `json:"name"`
	IsHost    bool   `json:"is_host"`
	HostToken string `json:"host_token,omitempty"`
}

type joinedPayload struct {
	Name   string `json:"name"`
	Token  string `json:"token"`
	IsHost bool   `json:"is_host"`
}

type adminPayload struct {
	Action string `json:"action"`
	Target string `json:"target,omitempty"`
}

type configurePayload struct {
	Field string `json:"field"`
	Value any    `json:"value"`
}

type votePayload struct {
	Target     string `json:"target"`
	Confidence int    `json:"confidence"`
}

type spyGuessPayload struct {
	LocationID string `json:"location_id"`
}

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// errorCode maps engine errors to wire codes. Unknown errors collapse to a
// generic internal code so engine internals never leak to clients.
func errorCode(err error) string {
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return m.code
		}
	}
	return "internal_error"
}

var errorCodes = []struct {
	err  error
	code string
}{
	{game.ErrInvalidMessage, "invalid_message"},
	{game.ErrInvalidPhase, "invalid_phase"},
	{game.ErrInvalidPhaseTransition, "invalid_phase_transition"},
	{game.ErrNotHost, "not_host"},
	{game.ErrNotInGame, "not_in_game"},
	{game.ErrPlayerNotFound, "player_not_found"},
	{game.ErrCannotRemoveConnected, "cannot_remove_connected"},
	{game.ErrNameInvalid, "name_invalid"},
	{game.ErrGameFull, "game_full"},
	{game.ErrGameAlreadyStarted, "game_already_started"},
	{game.ErrGameEnded, "game_ended"},
	{game.ErrInvalidToken, "invalid_token"},
	{game.ErrSessionExpired, "session_expired"},
	{game.ErrInsufficientPlayers, "insufficient_players"},
	{game.ErrRoleAssignmentFailed, "role_assignment_failed"},
	{game.ErrAlreadyVoted, "already_voted"},
	{game.ErrInvalidTarget, "invalid_target"},
	{game.ErrNotSpy, "not_spy"},
	{game.ErrSpyAlreadyActed, "spy_already_acted"},
	{game.ErrInvalidLocation, "invalid_location"},
	{game.ErrConfigInvalidDuration, "config_invalid_duration"},
	{game.ErrConfigInvalidRounds, "config_invalid_rounds"},
	{game.ErrConfigInvalidPack, "config_invalid_pack"},
	{game.ErrConfigLocked, "config_locked"},
}
