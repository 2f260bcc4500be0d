package game

import "errors"

// Engine errors. These are returned as values across the engine boundary; the
// transport maps them to wire error codes and user-facing messages.
var (
	ErrInvalidMessage         = errors.New("invalid message")
	ErrInvalidPhase           = errors.New("action not allowed in current phase")
	ErrInvalidPhaseTransition = errors.New("invalid phase transition")
	ErrNotHost                = errors.New("requester is not the host")
	ErrNotInGame              = errors.New("player is not in the game")
	ErrPlayerNotFound         = errors.New("player not found")
	ErrCannotRemoveConnected  = errors.New("cannot remove player")

	ErrNameInvalid        = errors.New("invalid player name")
	ErrGameFull           = errors.New("game is full")
	ErrGameAlreadyStarted = errors.New("game already started")
	ErrGameEnded          = errors.New("game has ended")

	ErrInvalidToken   = errors.New("invalid session token")
	ErrSessionExpired = errors.New("session expired")

	ErrInsufficientPlayers  = errors.New("not enough players")
	ErrRoleAssignmentFailed = errors.New("role assignment failed")

	ErrAlreadyVoted    = errors.New("already voted this round")
	ErrInvalidTarget   = errors.New("invalid vote target")
	ErrNotSpy          = errors.New("only the spy can guess the location")
	ErrSpyAlreadyActed = errors.New("spy already acted this round")
	ErrInvalidLocation = errors.New("invalid location")

	ErrConfigInvalidDuration = errors.New("round duration out of range")
	ErrConfigInvalidRounds   = errors.New("round count out of range")
	ErrConfigInvalidPack     = errors.New("location pack not found")
	ErrConfigLocked          = errors.New("configuration locked after game start")
)
