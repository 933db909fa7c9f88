package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wordrush/wordrush-go/internal/protocol"
	"github.com/wordrush/wordrush-go/internal/session"
	"github.com/wordrush/wordrush-go/internal/transport"
	"github.com/wordrush/wordrush-go/internal/wstest"
)

func startedOverWire(t *testing.T, server *wstest.Server) *session.Session {
	t.Helper()
	cfg := transport.DefaultConfig(server.URL())
	cfg.ReconnectBase = 20 * time.Millisecond
	cfg.ReconnectCap = 100 * time.Millisecond

	sess := session.New(transport.New(cfg, nil), session.Options{AutoRejoin: true})
	require.NoError(t, sess.Start(context.Background()))
	t.Cleanup(func() { sess.Close() })

	select {
	case <-server.Connected():
	case <-time.After(2 * time.Second):
		t.Fatal("client never connected")
	}
	return sess
}

func awaitEnvelope(t *testing.T, server *wstest.Server, eventType protocol.EventType) protocol.Envelope {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case env := <-server.Received():
			if env.Type == eventType {
				return env
			}
		case <-deadline:
			t.Fatalf("envelope %q never arrived at the server", eventType)
		}
	}
}

func TestSession_CreateRoomOverWire(t *testing.T) {
	server := wstest.NewServer()
	defer server.Close()
	sess := startedOverWire(t, server)

	require.NoError(t, sess.CreateRoom("naruto", "fox", protocol.GameConfig{
		RoundsCount: 3,
		Categories:  []string{"animal", "city", "food"},
	}))
	creating, _ := sess.Store().Loading()
	assert.True(t, creating)

	env := awaitEnvelope(t, server, protocol.EventRoomCreate)
	var req protocol.CreateRoomPayload
	require.NoError(t, env.Decode(&req))
	assert.Equal(t, "naruto", req.Username)

	require.NoError(t, server.Broadcast(protocol.EventRoomCreated, protocol.Room{
		RoomID:   "r1",
		JoinCode: "QWERTY",
		HostID:   "naruto",
		Phase:    protocol.PhaseWaiting,
		Players: []protocol.Player{
			{Username: "naruto", Avatar: "fox", Role: protocol.RoleHost, Status: protocol.StatusActive},
		},
		Config: req.Config,
	}))

	require.Eventually(t, sess.Store().InRoom, 2*time.Second, 10*time.Millisecond)
	creating, joining := sess.Store().Loading()
	assert.False(t, creating)
	assert.False(t, joining)
	assert.Equal(t, "QWERTY", sess.Store().JoinCode())
	assert.True(t, sess.Store().IsHost())
}

// A full round trip: lobby, round, results, finish. The server scripts every
// broadcast and the session must follow the phases it announces.
func TestSession_RoundLifecycleOverWire(t *testing.T) {
	server := wstest.NewServer()
	defer server.Close()
	sess := startedOverWire(t, server)

	require.NoError(t, sess.JoinRoom("qwerty", "sasuke", "cat"))
	join := awaitEnvelope(t, server, protocol.EventRoomJoin)
	var joinReq protocol.JoinRoomPayload
	require.NoError(t, join.Decode(&joinReq))
	assert.Equal(t, "QWERTY", joinReq.JoinCode)

	require.NoError(t, server.Broadcast(protocol.EventRoomJoined, protocol.Room{
		RoomID:   "r1",
		JoinCode: "QWERTY",
		HostID:   "naruto",
		Phase:    protocol.PhaseWaiting,
		Players: []protocol.Player{
			{Username: "naruto", Role: protocol.RoleHost, Status: protocol.StatusActive},
			{Username: "sasuke", Role: protocol.RolePlayer, Status: protocol.StatusActive},
		},
		Config: protocol.GameConfig{RoundsCount: 1, Categories: []string{"animal", "city", "food"}},
	}))
	require.Eventually(t, sess.Store().InRoom, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, server.Broadcast(protocol.EventRoundStarted, protocol.RoundStartedPayload{
		Round: 1, TotalRounds: 1,
		RoundData: protocol.RoundData{
			Round:        1,
			Letter:       "S",
			TimeLimitSec: 60,
			StartedAt:    time.Now(),
		},
	}))
	require.Eventually(t, func() bool {
		return sess.Store().Phase() == protocol.PhasePlaying
	}, 2*time.Second, 10*time.Millisecond)
	assert.Positive(t, sess.Countdown().Remaining())

	require.NoError(t, sess.SubmitAnswers(map[string]string{"animal": "snake"}))
	submit := awaitEnvelope(t, server, protocol.EventAnswerSubmit)
	var submitReq protocol.SubmitAnswersPayload
	require.NoError(t, submit.Decode(&submitReq))
	assert.Equal(t, "snake", submitReq.Answers["animal"])

	require.NoError(t, server.Broadcast(protocol.EventRoundEnded, protocol.RoundEndedPayload{
		Phase: protocol.PhaseFinished,
		Round: 1,
	}))
	require.Eventually(t, func() bool {
		return sess.Store().Phase() == protocol.PhaseFinished
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, sess.Countdown().Remaining())
}

// After a mid-game connection drop the session must reconnect and request a
// resync by re-joining with the remembered code.
func TestSession_ResyncAfterDropOverWire(t *testing.T) {
	server := wstest.NewServer()
	defer server.Close()
	sess := startedOverWire(t, server)

	require.NoError(t, sess.JoinRoom("QWERTY", "sasuke", "cat"))
	awaitEnvelope(t, server, protocol.EventRoomJoin)
	require.NoError(t, server.Broadcast(protocol.EventRoomJoined, protocol.Room{
		RoomID:   "r1",
		JoinCode: "QWERTY",
		HostID:   "naruto",
		Phase:    protocol.PhaseWaiting,
		Players: []protocol.Player{
			{Username: "naruto", Role: protocol.RoleHost, Status: protocol.StatusActive},
			{Username: "sasuke", Role: protocol.RolePlayer, Status: protocol.StatusActive},
		},
	}))
	require.Eventually(t, sess.Store().InRoom, 2*time.Second, 10*time.Millisecond)

	server.Drop()
	select {
	case <-server.Connected():
	case <-time.After(5 * time.Second):
		t.Fatal("client never reconnected")
	}

	rejoin := awaitEnvelope(t, server, protocol.EventRoomJoin)
	var req protocol.JoinRoomPayload
	require.NoError(t, rejoin.Decode(&req))
	assert.Equal(t, "QWERTY", req.JoinCode)
	assert.Equal(t, "sasuke", req.Username)
}
