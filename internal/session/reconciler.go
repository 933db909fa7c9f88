package session

import (
	"github.com/rs/zerolog/log"

	"github.com/wordrush/wordrush-go/internal/countdown"
	"github.com/wordrush/wordrush-go/internal/protocol"
)

// reconciler maps every inbound broadcast to a deterministic state
// transition. Broadcasts are applied strictly in receipt order; the channel's
// own ordering guarantee replaces sequence numbers. Only the server advances
// the phase - the reconciler never infers transitions from timers.
type reconciler struct {
	store *Store
	cd    *countdown.Coordinator
}

func newReconciler(store *Store, cd *countdown.Coordinator) *reconciler {
	return &reconciler{store: store, cd: cd}
}

func (r *reconciler) apply(env protocol.Envelope) {
	switch env.Type {
	case protocol.EventRoomCreated, protocol.EventRoomJoined:
		r.applyRoomSnapshot(env)
	case protocol.EventPlayerJoined:
		r.applyPlayerJoined(env)
	case protocol.EventPlayerLeft:
		r.applyPlayerLeft(env)
	case protocol.EventConfigUpdated:
		r.applyConfigUpdated(env)
	case protocol.EventGameStarted, protocol.EventRoundStarted:
		r.applyRoundStarted(env)
	case protocol.EventRoundEnded:
		r.applyRoundEnded(env)
	case protocol.EventAnswerSubmitted:
		r.applyAnswerSubmitted(env)
	case protocol.EventRoundResultsOK:
		r.applyRoundResults(env)
	case protocol.EventGameSummaryOK:
		r.applyGameSummary(env)
	case protocol.EventMessageSent:
		r.applyChatMessage(env)
	case protocol.EventError:
		r.applyServerError(env)
	default:
		log.Debug().Str("event_type", string(env.Type)).Msg("ignoring unknown broadcast")
	}
}

// applyRoomSnapshot replaces the local room wholesale. This is the only
// point where a full snapshot is trusted unconditionally.
func (r *reconciler) applyRoomSnapshot(env protocol.Envelope) {
	var room protocol.Room
	if err := env.Decode(&room); err != nil {
		log.Warn().Err(err).Msg("dropping undecodable room snapshot")
		return
	}
	if room.Phase == "" {
		room.Phase = protocol.PhaseWaiting
	}
	r.store.setRoom(&room)
	log.Info().
		Str("room_id", room.RoomID).
		Str("join_code", room.JoinCode).
		Int("players", len(room.Players)).
		Msg("room snapshot applied")
}

// applyPlayerJoined appends a roster entry. Delivery may repeat, so a
// username already present makes this a no-op rather than a duplicate row.
func (r *reconciler) applyPlayerJoined(env protocol.Envelope) {
	var payload protocol.PlayerJoinedPayload
	if err := env.Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("dropping undecodable player:joined")
		return
	}
	r.store.mutateRoom(func(room *protocol.Room) {
		if room.FindPlayer(payload.Player.Username) >= 0 {
			log.Debug().Str("username", payload.Player.Username).Msg("duplicate player:joined ignored")
			return
		}
		p := payload.Player
		if p.Role == "" {
			p.Role = protocol.RolePlayer
		}
		if p.Status == "" {
			p.Status = protocol.StatusActive
		}
		room.Players = append(room.Players, p)
		log.Info().Str("username", p.Username).Int("players", len(room.Players)).Msg("player joined")
	})
}

// applyPlayerLeft removes a roster entry and, when the broadcast carries a
// replacement host, reassigns the role in the same state update. The UI must
// never observe a zero-host or multi-host roster.
func (r *reconciler) applyPlayerLeft(env protocol.Envelope) {
	var payload protocol.PlayerLeftPayload
	if err := env.Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("dropping undecodable player:left")
		return
	}
	r.store.mutateRoom(func(room *protocol.Room) {
		i := room.FindPlayer(payload.Username)
		if i < 0 {
			log.Debug().Str("username", payload.Username).Msg("player:left for unknown player ignored")
			return
		}
		room.Players = append(room.Players[:i], room.Players[i+1:]...)

		if payload.NewHostID != "" {
			room.HostID = payload.NewHostID
			for j := range room.Players {
				if room.Players[j].Username == payload.NewHostID {
					room.Players[j].Role = protocol.RoleHost
				} else {
					room.Players[j].Role = protocol.RolePlayer
				}
			}
		}
		log.Info().
			Str("username", payload.Username).
			Str("new_host", payload.NewHostID).
			Int("players", len(room.Players)).
			Msg("player left")
	})
}

// applyConfigUpdated overwrites the local config with the server echo. The
// host's optimistic edit always loses to the server's accepted value.
func (r *reconciler) applyConfigUpdated(env protocol.Envelope) {
	var payload protocol.ConfigUpdatedPayload
	if err := env.Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("dropping undecodable config update")
		return
	}
	r.store.confirmConfig(payload.Config)
	log.Info().Int("rounds", payload.Config.RoundsCount).Msg("config confirmed by server")
}

// applyRoundStarted trusts the payload fully - round content is
// server-authoritative - and re-anchors the countdown.
func (r *reconciler) applyRoundStarted(env protocol.Envelope) {
	var payload protocol.RoundStartedPayload
	if err := env.Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("dropping undecodable round start")
		return
	}
	applied := r.store.mutateRoom(func(room *protocol.Room) {
		if room.Phase.Terminal() {
			log.Warn().Str("phase", room.Phase.String()).Msg("round start after game finished ignored")
			return
		}
		rd := payload.RoundData
		room.Phase = protocol.PhasePlaying
		room.Round = &rd
		room.CurrentRound = payload.Round
		room.TotalRounds = payload.TotalRounds
	})
	if !applied || r.store.Phase() != protocol.PhasePlaying {
		return
	}

	r.store.setProgress(SubmitProgress{})
	rd := payload.RoundData
	r.cd.Start(rd.StartedAt, rd.RoundDuration())
	log.Info().
		Int("round", payload.Round).
		Int("total_rounds", payload.TotalRounds).
		Str("letter", rd.Letter).
		Msg("round started")
}

// applyRoundEnded sets the phase to the broadcast value; timers never decide
// this locally.
func (r *reconciler) applyRoundEnded(env protocol.Envelope) {
	var payload protocol.RoundEndedPayload
	if err := env.Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("dropping undecodable round end")
		return
	}
	if payload.Phase != protocol.PhaseRoundEnd && payload.Phase != protocol.PhaseFinished {
		log.Warn().Str("phase", payload.Phase.String()).Msg("round:ended with unexpected phase ignored")
		return
	}
	r.store.mutateRoom(func(room *protocol.Room) {
		room.Phase = payload.Phase
	})
	r.cd.Stop()
	log.Info().Str("phase", payload.Phase.String()).Int("round", payload.Round).Msg("round ended")
}

// applyAnswerSubmitted only moves the progress indicator. It must not touch
// player records or the phase: a late answer broadcast never regresses state.
func (r *reconciler) applyAnswerSubmitted(env protocol.Envelope) {
	var payload protocol.AnswerSubmittedPayload
	if err := env.Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("dropping undecodable answer:submitted")
		return
	}
	if !r.store.InRoom() {
		return
	}
	r.store.setProgress(SubmitProgress{
		SubmittedCount: payload.SubmittedCount,
		TotalPlayers:   payload.TotalPlayers,
	})
	log.Debug().
		Str("username", payload.Username).
		Int("submitted", payload.SubmittedCount).
		Int("total", payload.TotalPlayers).
		Msg("answer submitted")
}

func (r *reconciler) applyRoundResults(env protocol.Envelope) {
	var payload protocol.RoundResultsPayload
	if err := env.Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("dropping undecodable round results")
		return
	}
	if !r.store.InRoom() {
		return
	}
	r.store.setRoundResults(payload)

	// Cumulative scores ride along with the breakdown.
	r.store.mutateRoom(func(room *protocol.Room) {
		for _, res := range payload.Results {
			if i := room.FindPlayer(res.Username); i >= 0 {
				room.Players[i].Score = res.TotalScore
			}
		}
	})
	log.Info().Int("round", payload.Round).Msg("round results applied")
}

func (r *reconciler) applyGameSummary(env protocol.Envelope) {
	var payload protocol.GameSummaryPayload
	if err := env.Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("dropping undecodable game summary")
		return
	}
	if !r.store.InRoom() {
		return
	}
	r.store.setSummary(payload)
	log.Info().Str("winner", payload.Winner).Msg("game summary applied")
}

func (r *reconciler) applyChatMessage(env protocol.Envelope) {
	var msg protocol.ChatMessage
	if err := env.Decode(&msg); err != nil {
		log.Warn().Err(err).Msg("dropping undecodable chat message")
		return
	}
	r.store.appendChat(msg)
}

// applyServerError fills the error slot and clears the in-flight loading
// flags so the consumer never hangs in a permanent spinner state.
func (r *reconciler) applyServerError(env protocol.Envelope) {
	var payload protocol.ErrorPayload
	if err := env.Decode(&payload); err != nil {
		log.Warn().Err(err).Msg("dropping undecodable error event")
		return
	}
	r.store.fail(payload.Error, payload.Message)
	r.store.setCreating(false)
	r.store.setJoining(false)
	log.Warn().Str("code", payload.Error).Str("message", payload.Message).Msg("server rejected action")
}
