package session

import (
	"sync"

	"github.com/wordrush/wordrush-go/internal/protocol"
)

// SessionError is the single current-error slot. Last error wins; the UI
// clears it explicitly, it never auto-expires.
type SessionError struct {
	Code    string
	Message string
}

// SubmitProgress mirrors the server's answer:submitted indicator.
type SubmitProgress struct {
	SubmittedCount int
	TotalPlayers   int
}

// Store is the single in-memory source of truth for the active session.
// Mutations happen only through the reconciler and dispatcher; everything
// else reads snapshots.
type Store struct {
	mu sync.RWMutex

	room *protocol.Room

	// Remembered identity, used for outbound payloads and reconnect resync.
	username string
	avatar   string
	joinCode string

	creating bool
	joining  bool
	lastErr  *SessionError

	// Host-side optimistic config edit awaiting the server echo. The echo
	// always wins, never a merge.
	pendingConfig *protocol.GameConfig

	progress     SubmitProgress
	draftAnswers map[string]string

	roundResults map[int]protocol.RoundResultsPayload
	summary      *protocol.GameSummaryPayload
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		draftAnswers: make(map[string]string),
		roundResults: make(map[int]protocol.RoundResultsPayload),
	}
}

// Snapshot returns a deep copy of the current room, or nil when no session
// is active.
func (s *Store) Snapshot() *protocol.Room {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room.Clone()
}

// InRoom reports whether a room is currently held.
func (s *Store) InRoom() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.room != nil
}

// Phase returns the current phase, or waiting when no room is held.
func (s *Store) Phase() protocol.Phase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.room == nil {
		return protocol.PhaseWaiting
	}
	return s.room.Phase
}

// Username returns the locally remembered identity.
func (s *Store) Username() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username
}

// JoinCode returns the remembered join code for the held room.
func (s *Store) JoinCode() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.joinCode
}

// IsHost reports whether the local player currently holds the host role.
func (s *Store) IsHost() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.room == nil {
		return false
	}
	i := s.room.FindPlayer(s.username)
	return i >= 0 && s.room.Players[i].Role == protocol.RoleHost
}

// Err returns the current error slot.
func (s *Store) Err() (SessionError, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastErr == nil {
		return SessionError{}, false
	}
	return *s.lastErr, true
}

// ClearErr empties the error slot. Called by the consumer, never internally.
func (s *Store) ClearErr() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = nil
}

// Loading reports the in-flight creating/joining flags.
func (s *Store) Loading() (creating, joining bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creating, s.joining
}

// Progress returns the submitted-answers indicator for the current round.
func (s *Store) Progress() SubmitProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.progress
}

// PendingConfig returns the host's optimistic config edit, if one is
// awaiting the server echo.
func (s *Store) PendingConfig() (protocol.GameConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.pendingConfig == nil {
		return protocol.GameConfig{}, false
	}
	return s.pendingConfig.Clone(), true
}

// RoundResults returns the stored breakdown for a round, if received.
func (s *Store) RoundResults(round int) (protocol.RoundResultsPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res, ok := s.roundResults[round]
	return res, ok
}

// Summary returns the final game summary, if received.
func (s *Store) Summary() (protocol.GameSummaryPayload, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.summary == nil {
		return protocol.GameSummaryPayload{}, false
	}
	return *s.summary, true
}

// SetDraftAnswers replaces the local answer draft for the current round.
func (s *Store) SetDraftAnswers(answers map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftAnswers = make(map[string]string, len(answers))
	for k, v := range answers {
		s.draftAnswers[k] = v
	}
}

// DraftAnswers returns a copy of the local answer draft.
func (s *Store) DraftAnswers() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.draftAnswers))
	for k, v := range s.draftAnswers {
		out[k] = v
	}
	return out
}

// --- mutations below run only from the dispatcher and reconciler ---

func (s *Store) setIdentity(username, avatar string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.username = username
	s.avatar = avatar
}

func (s *Store) identity() (username, avatar string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.username, s.avatar
}

func (s *Store) setCreating(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creating = v
}

func (s *Store) setJoining(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joining = v
}

// fail records a local or server rejection into the error slot.
func (s *Store) fail(code, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = &SessionError{Code: code, Message: message}
}

// setRoom replaces the entire room wholesale. Only room:created and
// room:joined snapshots are trusted this way.
func (s *Store) setRoom(room *protocol.Room) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = room
	s.joinCode = room.JoinCode
	s.creating = false
	s.joining = false
	s.pendingConfig = nil
	s.progress = SubmitProgress{}
}

// reset discards all per-session state, returning to pre-session.
func (s *Store) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.room = nil
	s.joinCode = ""
	s.creating = false
	s.joining = false
	s.pendingConfig = nil
	s.progress = SubmitProgress{}
	s.draftAnswers = make(map[string]string)
	s.roundResults = make(map[int]protocol.RoundResultsPayload)
	s.summary = nil
}

// mutateRoom runs fn against the held room under the write lock. A missing
// room makes the call a no-op: broadcasts for rooms we no longer hold are
// tolerated, not fatal.
func (s *Store) mutateRoom(fn func(room *protocol.Room)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return false
	}
	fn(s.room)
	return true
}

func (s *Store) setPendingConfig(config protocol.GameConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := config.Clone()
	s.pendingConfig = &c
}

func (s *Store) confirmConfig(config protocol.GameConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room != nil {
		s.room.Config = config.Clone()
	}
	s.pendingConfig = nil
}

func (s *Store) setProgress(p SubmitProgress) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.progress = p
}

func (s *Store) setRoundResults(res protocol.RoundResultsPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roundResults[res.Round] = res
}

func (s *Store) setSummary(sum protocol.GameSummaryPayload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.summary = &sum
}

func (s *Store) appendChat(msg protocol.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.room == nil {
		return
	}
	s.room.Chat = append(s.room.Chat, msg)
	if len(s.room.Chat) > MaxChatHistory {
		s.room.Chat = s.room.Chat[len(s.room.Chat)-MaxChatHistory:]
	}
}
