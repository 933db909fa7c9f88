package protocol

import "time"

// Outbound payloads (client -> server).

// CreateRoomPayload asks the server for a new room; the caller becomes host.
type CreateRoomPayload struct {
	Username string     `json:"username"`
	Avatar   string     `json:"avatar"`
	Config   GameConfig `json:"config"`
}

// JoinRoomPayload joins an existing room by its human-readable code.
type JoinRoomPayload struct {
	JoinCode string `json:"join_code"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// LeaveRoomPayload announces a voluntary exit.
type LeaveRoomPayload struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

// ConfigUpdatePayload carries a host edit of the room configuration.
type ConfigUpdatePayload struct {
	RoomID   string     `json:"room_id"`
	Username string     `json:"username"`
	Config   GameConfig `json:"config"`
}

// StartGamePayload begins the game. Host only.
type StartGamePayload struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

// SubmitAnswersPayload carries one player's answers for the current round,
// keyed by category name.
type SubmitAnswersPayload struct {
	RoomID   string            `json:"room_id"`
	Username string            `json:"username"`
	Answers  map[string]string `json:"answers"`
}

// RoundResultsRequest asks for the aggregated breakdown of a finished round.
type RoundResultsRequest struct {
	RoomID string `json:"room_id"`
	Round  int    `json:"round"`
}

// NextRoundPayload advances to the next round. Host only.
type NextRoundPayload struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
}

// SummaryRequest asks for the full-game breakdown after the final round.
type SummaryRequest struct {
	RoomID string `json:"room_id"`
}

// ChatSendPayload sends one chat line to the room.
type ChatSendPayload struct {
	RoomID   string `json:"room_id"`
	Username string `json:"username"`
	Message  string `json:"message"`
}

// Inbound payloads (server -> client). Room itself doubles as the payload of
// room:created and room:joined.

// PlayerJoinedPayload is the roster delta for a new arrival.
type PlayerJoinedPayload struct {
	Player      Player `json:"player"`
	PlayerCount int    `json:"player_count"`
}

// PlayerLeftPayload is the roster delta for a departure. NewHostID is set
// when the departing player was host; the reassignment lands in the same
// broadcast as the removal.
type PlayerLeftPayload struct {
	Username  string `json:"username"`
	NewHostID string `json:"new_host_id,omitempty"`
}

// ConfigUpdatedPayload is the server echo of an accepted config edit.
type ConfigUpdatedPayload struct {
	Config GameConfig `json:"config"`
}

// RoundStartedPayload opens a round. Round content is server-authoritative;
// StartedAt inside RoundData anchors the local countdown.
type RoundStartedPayload struct {
	Round       int       `json:"round"`
	TotalRounds int       `json:"total_rounds"`
	RoundData   RoundData `json:"round_data"`
}

// RoundEndedPayload closes a round. Phase is round_end, or finished when no
// rounds remain.
type RoundEndedPayload struct {
	Phase Phase `json:"phase"`
	Round int   `json:"round"`
}

// AnswerSubmittedPayload is the progress indicator broadcast when any player
// submits. It never mutates roster records.
type AnswerSubmittedPayload struct {
	Username       string `json:"username"`
	SubmittedCount int    `json:"submitted_count"`
	TotalPlayers   int    `json:"total_players"`
}

// CategoryResult is one player's scored answer for one category.
type CategoryResult struct {
	Category string `json:"category"`
	Answer   string `json:"answer"`
	Valid    bool   `json:"valid"`
	Points   int    `json:"points"`
}

// PlayerRoundResult is one player's breakdown for a round.
type PlayerRoundResult struct {
	Username   string           `json:"username"`
	RoundScore int              `json:"round_score"`
	TotalScore int              `json:"total_score"`
	Answers    []CategoryResult `json:"answers"`
}

// RoundResultsPayload is the aggregated per-player breakdown of a round.
type RoundResultsPayload struct {
	Round   int                 `json:"round"`
	Results []PlayerRoundResult `json:"results"`
}

// LeaderboardEntry is one row of the final standings.
type LeaderboardEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// GameSummaryPayload is the full-game breakdown sent once the game finishes.
type GameSummaryPayload struct {
	Winner      string                `json:"winner"`
	Leaderboard []LeaderboardEntry    `json:"leaderboard"`
	Rounds      []RoundResultsPayload `json:"rounds"`
	FinishedAt  time.Time             `json:"finished_at"`
}

// ErrorPayload reports any rejected action.
type ErrorPayload struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
