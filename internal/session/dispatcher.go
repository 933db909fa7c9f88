package session

import (
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/wordrush/wordrush-go/internal/protocol"
)

// Sender is the transport surface the dispatcher needs.
type Sender interface {
	IsConnected() bool
	Send(eventType protocol.EventType, payload any) error
}

// Dispatcher validates every outbound action client-side before touching the
// network. Local rejections populate the store's error slot and cost no
// round-trip.
type Dispatcher struct {
	store *Store
	tp    Sender

	// stopTimers tears down round countdowns when the session ends a room
	// locally (leave). Wired by the owning session.
	stopTimers func()
}

func newDispatcher(store *Store, tp Sender) *Dispatcher {
	return &Dispatcher{store: store, tp: tp, stopTimers: func() {}}
}

// CreateRoom asks the server for a new room with the caller as host.
func (d *Dispatcher) CreateRoom(username, avatar string, config protocol.GameConfig) error {
	if !d.tp.IsConnected() {
		return d.reject("not_connected", ErrNotConnected)
	}
	if strings.TrimSpace(username) == "" {
		return d.reject("validation", ErrUsernameRequired)
	}
	if d.store.InRoom() {
		return d.reject("validation", ErrAlreadyInRoom)
	}
	if len(config.Categories) < MinCategories {
		return d.reject("validation", ErrTooFewCategories)
	}

	d.store.setIdentity(username, avatar)
	d.store.setCreating(true)
	return d.send(protocol.EventRoomCreate, protocol.CreateRoomPayload{
		Username: username,
		Avatar:   avatar,
		Config:   config,
	})
}

// JoinRoom joins an existing room by its 6-character code.
func (d *Dispatcher) JoinRoom(joinCode, username, avatar string) error {
	if !d.tp.IsConnected() {
		return d.reject("not_connected", ErrNotConnected)
	}
	if len(joinCode) != JoinCodeLength {
		return d.reject("validation", ErrBadJoinCode)
	}
	if strings.TrimSpace(username) == "" {
		return d.reject("validation", ErrUsernameRequired)
	}
	if d.store.InRoom() {
		return d.reject("validation", ErrAlreadyInRoom)
	}

	d.store.setIdentity(username, avatar)
	d.store.setJoining(true)
	return d.send(protocol.EventRoomJoin, protocol.JoinRoomPayload{
		JoinCode: strings.ToUpper(joinCode),
		Username: username,
		Avatar:   avatar,
	})
}

// LeaveRoom sends the leave and clears local state immediately, without
// waiting for an ack. Pending timers die with the room.
func (d *Dispatcher) LeaveRoom() error {
	room := d.store.Snapshot()
	if room == nil {
		return d.reject("validation", ErrNoRoom)
	}
	username, _ := d.store.identity()

	err := d.send(protocol.EventRoomLeave, protocol.LeaveRoomPayload{
		RoomID:   room.RoomID,
		Username: username,
	})

	d.stopTimers()
	d.store.reset()
	log.Info().Str("room_id", room.RoomID).Msg("left room")
	return err
}

// UpdateConfig sends a host config edit and records it as the pending local
// value until the server echoes the accepted config back.
func (d *Dispatcher) UpdateConfig(config protocol.GameConfig) error {
	room := d.store.Snapshot()
	if room == nil {
		return d.reject("validation", ErrNoRoom)
	}
	if !d.store.IsHost() {
		return d.reject("validation", ErrNotHost)
	}
	if len(config.Categories) < MinCategories {
		return d.reject("validation", ErrTooFewCategories)
	}
	if room.Phase != protocol.PhaseWaiting {
		return d.reject("validation", ErrWrongPhase)
	}

	username, _ := d.store.identity()
	d.store.setPendingConfig(config)
	return d.send(protocol.EventConfigUpdate, protocol.ConfigUpdatePayload{
		RoomID:   room.RoomID,
		Username: username,
		Config:   config,
	})
}

// StartGame begins the game. Host only, and only with enough players.
func (d *Dispatcher) StartGame() error {
	room := d.store.Snapshot()
	if room == nil {
		return d.reject("validation", ErrNoRoom)
	}
	if !d.store.IsHost() {
		return d.reject("validation", ErrNotHost)
	}
	if len(room.Players) < MinPlayers {
		return d.reject("validation", ErrNeedMorePlayers)
	}
	if room.Phase != protocol.PhaseWaiting {
		return d.reject("validation", ErrWrongPhase)
	}

	username, _ := d.store.identity()
	return d.send(protocol.EventGameStart, protocol.StartGamePayload{
		RoomID:   room.RoomID,
		Username: username,
	})
}

// SubmitAnswers sends this player's answers for the current round. Only
// meaningful while playing.
func (d *Dispatcher) SubmitAnswers(answers map[string]string) error {
	room := d.store.Snapshot()
	if room == nil {
		return d.reject("validation", ErrNoRoom)
	}
	if room.Phase != protocol.PhasePlaying {
		return d.reject("validation", ErrWrongPhase)
	}

	username, _ := d.store.identity()
	return d.send(protocol.EventAnswerSubmit, protocol.SubmitAnswersPayload{
		RoomID:   room.RoomID,
		Username: username,
		Answers:  answers,
	})
}

// RequestRoundResults asks for the breakdown of the round that just ended.
func (d *Dispatcher) RequestRoundResults() error {
	room := d.store.Snapshot()
	if room == nil {
		return d.reject("validation", ErrNoRoom)
	}
	return d.send(protocol.EventRoundResults, protocol.RoundResultsRequest{
		RoomID: room.RoomID,
		Round:  room.CurrentRound,
	})
}

// NextRound advances to the next round. Host only, from round_end.
func (d *Dispatcher) NextRound() error {
	room := d.store.Snapshot()
	if room == nil {
		return d.reject("validation", ErrNoRoom)
	}
	if !d.store.IsHost() {
		return d.reject("validation", ErrNotHost)
	}
	if room.Phase != protocol.PhaseRoundEnd {
		return d.reject("validation", ErrWrongPhase)
	}

	username, _ := d.store.identity()
	return d.send(protocol.EventRoundNext, protocol.NextRoundPayload{
		RoomID:   room.RoomID,
		Username: username,
	})
}

// RequestSummary asks for the full-game breakdown.
func (d *Dispatcher) RequestSummary() error {
	room := d.store.Snapshot()
	if room == nil {
		return d.reject("validation", ErrNoRoom)
	}
	return d.send(protocol.EventGameSummary, protocol.SummaryRequest{
		RoomID: room.RoomID,
	})
}

// SendChatMessage sends one bounded chat line.
func (d *Dispatcher) SendChatMessage(text string) error {
	room := d.store.Snapshot()
	if room == nil {
		return d.reject("validation", ErrNoRoom)
	}
	if strings.TrimSpace(text) == "" {
		return d.reject("validation", ErrEmptyMessage)
	}
	if len(text) > MaxChatLength {
		return d.reject("validation", ErrMessageTooLong)
	}

	username, _ := d.store.identity()
	return d.send(protocol.EventChatMessage, protocol.ChatSendPayload{
		RoomID:   room.RoomID,
		Username: username,
		Message:  text,
	})
}

func (d *Dispatcher) reject(code string, err error) error {
	d.store.fail(code, err.Error())
	log.Debug().Str("code", code).Str("reason", err.Error()).Msg("action rejected locally")
	return err
}

func (d *Dispatcher) send(eventType protocol.EventType, payload any) error {
	if err := d.tp.Send(eventType, payload); err != nil {
		d.store.fail("not_connected", err.Error())
		return err
	}
	return nil
}
