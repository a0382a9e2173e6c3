package model

import "errors"

// Common errors used across the application
var (
	// Identity errors
	ErrProfileNotFound    = errors.New("profile not found")
	ErrUsernameTaken      = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTokenNotFound      = errors.New("session token not found")

	// Room / registry errors
	ErrRoomNotFound     = errors.New("room not found")
	ErrRoomExpired      = errors.New("room has expired")
	ErrUnknownGameKind  = errors.New("unknown game kind")
	ErrInvalidRoomCode  = errors.New("invalid room code")
	ErrHistoryNotFound  = errors.New("match record not found")

	// Session / protocol errors
	ErrInsufficientPeers = errors.New("not enough peers to start game")
	ErrGameInProgress    = errors.New("game is in progress")
	ErrNoGameInProgress  = errors.New("no game in progress")
	ErrNotYourTurn       = errors.New("not this peer's turn")
	ErrNotAuthoritative  = errors.New("peer is not authoritative for this action")
	ErrGameFinished      = errors.New("game is already finished")
	ErrUnknownEvent      = errors.New("unknown broadcast event")

	// Engine errors
	ErrInvalidMove     = errors.New("invalid move")
	ErrOutOfBounds     = errors.New("position is out of bounds")
	ErrCellOccupied    = errors.New("cell is already occupied")
	ErrNotInGame       = errors.New("actor is not a player in this game")
	ErrWrongPhase      = errors.New("action not valid in current phase")
	ErrColorRequired   = errors.New("wild card requires a chosen color")
	ErrCardNotPlayable = errors.New("card cannot be played on current discard")
	ErrFleetInvalid    = errors.New("fleet placement is invalid")
)
