package protocol

import "time"

// Role identifies a player's authority inside a room. Exactly one player
// holds RoleHost at any time.
type Role string

const (
	RoleHost   Role = "host"
	RolePlayer Role = "player"
)

// PlayerStatus tracks a roster entry's connection state.
type PlayerStatus string

const (
	StatusActive       PlayerStatus = "active"
	StatusDisconnected PlayerStatus = "disconnected"
	StatusLeft         PlayerStatus = "left"
)

// Player is one roster entry. Username is the identity key: the server
// enforces uniqueness within a room and there is no stable numeric id.
type Player struct {
	Username string       `json:"username"`
	Avatar   string       `json:"avatar"`
	Role     Role         `json:"role"`
	Status   PlayerStatus `json:"status"`
	Score    int          `json:"score"`
}

// GameConfig is the host-owned room configuration. The server echoes every
// accepted edit back to all clients, including the host.
type GameConfig struct {
	RoundsCount     int      `json:"rounds_count"`
	Categories      []string `json:"categories"`
	ExcludedLetters []string `json:"excluded_letters"`
}

// RoundCategory is one category to answer during a round, with its own
// time allowance.
type RoundCategory struct {
	Name         string `json:"name"`
	TimeLimitSec int    `json:"time_limit_sec"`
}

// RoundData is the server-authoritative content of the current round.
// StartedAt is the anchor timestamp for locally ticking countdowns.
type RoundData struct {
	Round        int             `json:"round"`
	Letter       string          `json:"letter"`
	Categories   []RoundCategory `json:"categories"`
	TimeLimitSec int             `json:"time_limit_sec"`
	StartedAt    time.Time       `json:"started_at"`
}

// ChatMessage is one chat entry. Ordering is receipt order.
type ChatMessage struct {
	ID       string    `json:"id"`
	Username string    `json:"username"`
	Message  string    `json:"message"`
	SentAt   time.Time `json:"sent_at"`
}

// Room is the full state of one game session as the server last reported it.
type Room struct {
	RoomID       string        `json:"room_id"`
	JoinCode     string        `json:"join_code"`
	HostID       string        `json:"host_id"`
	Phase        Phase         `json:"phase"`
	Players      []Player      `json:"players"`
	Config       GameConfig    `json:"config"`
	Chat         []ChatMessage `json:"chat"`
	CurrentRound int           `json:"current_round,omitempty"`
	TotalRounds  int           `json:"total_rounds,omitempty"`
	Round        *RoundData    `json:"round_data,omitempty"`
}

// Host returns the roster entry currently holding RoleHost, if any.
func (r *Room) Host() (Player, bool) {
	for _, p := range r.Players {
		if p.Role == RoleHost {
			return p, true
		}
	}
	return Player{}, false
}

// FindPlayer returns the index of the player with the given username,
// or -1 if absent.
func (r *Room) FindPlayer(username string) int {
	for i, p := range r.Players {
		if p.Username == username {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so callers can hand snapshots across goroutine
// boundaries without sharing slices.
func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	out.Players = append([]Player(nil), r.Players...)
	out.Chat = append([]ChatMessage(nil), r.Chat...)
	out.Config = r.Config.Clone()
	if r.Round != nil {
		rd := *r.Round
		rd.Categories = append([]RoundCategory(nil), r.Round.Categories...)
		out.Round = &rd
	}
	return &out
}

// Clone returns a deep copy of the config.
func (c GameConfig) Clone() GameConfig {
	out := c
	out.Categories = append([]string(nil), c.Categories...)
	out.ExcludedLetters = append([]string(nil), c.ExcludedLetters...)
	return out
}

// RoundDuration is the total playing time of a round. Servers that omit the
// aggregate limit get it derived from the per-category allowances.
func (rd *RoundData) RoundDuration() time.Duration {
	if rd.TimeLimitSec > 0 {
		return time.Duration(rd.TimeLimitSec) * time.Second
	}
	total := 0
	for _, c := range rd.Categories {
		total += c.TimeLimitSec
	}
	return time.Duration(total) * time.Second
}
