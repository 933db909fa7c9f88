package session

import "errors"

// Client-side validation failures. These are raised locally, without
// contacting the server, and land in the store's current-error slot.
var (
	ErrNotConnected     = errors.New("not connected")
	ErrNoRoom           = errors.New("no active room")
	ErrAlreadyInRoom    = errors.New("already in a room")
	ErrNotHost          = errors.New("only the host can do that")
	ErrNeedMorePlayers  = errors.New("need at least 2 players")
	ErrBadJoinCode      = errors.New("join code must be 6 characters")
	ErrUsernameRequired = errors.New("username is required")
	ErrWrongPhase       = errors.New("action not allowed in the current phase")
	ErrTooFewCategories = errors.New("config needs at least 3 categories")
	ErrEmptyMessage     = errors.New("message is empty")
	ErrMessageTooLong   = errors.New("message too long")
)

const (
	// MinPlayers is the roster size required to start a game.
	MinPlayers = 2
	// MinCategories is the smallest category set the server accepts.
	MinCategories = 3
	// JoinCodeLength is the fixed length of human-readable join codes.
	JoinCodeLength = 6
	// MaxChatLength bounds a single chat message.
	MaxChatLength = 500
	// MaxChatHistory bounds the locally retained chat log.
	MaxChatHistory = 200
)
