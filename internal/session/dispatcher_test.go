package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/wordrush/wordrush-go/internal/protocol"
)

// MockSender records outbound traffic so tests can assert that local
// validation failures never reach the network.
type MockSender struct {
	mock.Mock
}

func (m *MockSender) IsConnected() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockSender) Send(eventType protocol.EventType, payload any) error {
	args := m.Called(eventType, payload)
	return args.Error(0)
}

func newTestDispatcher(connected bool) (*Dispatcher, *Store, *MockSender) {
	tp := &MockSender{}
	tp.On("IsConnected").Return(connected).Maybe()
	store := NewStore()
	return newDispatcher(store, tp), store, tp
}

// seedRoom installs a two-player room with "naruto" as host and sets the
// local identity.
func seedRoom(store *Store, localUser string, phase protocol.Phase) {
	store.setIdentity(localUser, "fox")
	store.setRoom(&protocol.Room{
		RoomID:   "r1",
		JoinCode: "ABC123",
		HostID:   "naruto",
		Phase:    phase,
		Players: []protocol.Player{
			{Username: "naruto", Role: protocol.RoleHost, Status: protocol.StatusActive},
			{Username: "sasuke", Role: protocol.RolePlayer, Status: protocol.StatusActive},
		},
	})
}

func validConfig() protocol.GameConfig {
	return protocol.GameConfig{
		RoundsCount: 4,
		Categories:  []string{"animal", "city", "food"},
	}
}

func TestCreateRoom_RequiresConnection(t *testing.T) {
	d, store, tp := newTestDispatcher(false)

	err := d.CreateRoom("naruto", "fox", validConfig())

	assert.ErrorIs(t, err, ErrNotConnected)
	tp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

	serr, ok := store.Err()
	require.True(t, ok)
	assert.Equal(t, "not_connected", serr.Code)
}

func TestCreateRoom_RejectsThinCategorySet(t *testing.T) {
	d, _, tp := newTestDispatcher(true)

	err := d.CreateRoom("naruto", "fox", protocol.GameConfig{
		RoundsCount: 4,
		Categories:  []string{"animal", "city"},
	})

	assert.ErrorIs(t, err, ErrTooFewCategories)
	tp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestCreateRoom_SendsAndMarksCreating(t *testing.T) {
	d, store, tp := newTestDispatcher(true)
	tp.On("Send", protocol.EventRoomCreate, mock.Anything).Return(nil).Once()

	require.NoError(t, d.CreateRoom("naruto", "fox", validConfig()))

	creating, _ := store.Loading()
	assert.True(t, creating)
	tp.AssertExpectations(t)
}

func TestJoinRoom_ValidatesCodeAndUsername(t *testing.T) {
	testCases := []struct {
		name     string
		code     string
		username string
		wantErr  error
	}{
		{"short code", "ABC", "naruto", ErrBadJoinCode},
		{"empty code", "", "naruto", ErrBadJoinCode},
		{"long code", "ABC1234", "naruto", ErrBadJoinCode},
		{"empty username", "ABC123", "", ErrUsernameRequired},
		{"blank username", "ABC123", "   ", ErrUsernameRequired},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			d, _, tp := newTestDispatcher(true)
			err := d.JoinRoom(tc.code, tc.username, "fox")
			assert.ErrorIs(t, err, tc.wantErr)
			tp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		})
	}
}

func TestJoinRoom_UppercasesCode(t *testing.T) {
	d, _, tp := newTestDispatcher(true)
	tp.On("Send", protocol.EventRoomJoin, mock.MatchedBy(func(p any) bool {
		payload, ok := p.(protocol.JoinRoomPayload)
		return ok && payload.JoinCode == "ABC123"
	})).Return(nil).Once()

	require.NoError(t, d.JoinRoom("abc123", "naruto", "fox"))
	tp.AssertExpectations(t)
}

func TestStartGame_NeedsMinimumPlayers(t *testing.T) {
	d, store, tp := newTestDispatcher(true)
	store.setIdentity("naruto", "fox")
	store.setRoom(&protocol.Room{
		RoomID: "r1",
		Phase:  protocol.PhaseWaiting,
		Players: []protocol.Player{
			{Username: "naruto", Role: protocol.RoleHost},
		},
	})

	err := d.StartGame()

	assert.ErrorIs(t, err, ErrNeedMorePlayers)
	tp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestStartGame_HostOnly(t *testing.T) {
	d, store, tp := newTestDispatcher(true)
	seedRoom(store, "sasuke", protocol.PhaseWaiting)

	err := d.StartGame()

	assert.ErrorIs(t, err, ErrNotHost)
	tp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestStartGame_HappyPath(t *testing.T) {
	d, store, tp := newTestDispatcher(true)
	seedRoom(store, "naruto", protocol.PhaseWaiting)
	tp.On("Send", protocol.EventGameStart, protocol.StartGamePayload{
		RoomID: "r1", Username: "naruto",
	}).Return(nil).Once()

	require.NoError(t, d.StartGame())
	tp.AssertExpectations(t)
}

func TestSubmitAnswers_OnlyWhilePlaying(t *testing.T) {
	d, store, tp := newTestDispatcher(true)
	seedRoom(store, "sasuke", protocol.PhaseRoundEnd)

	err := d.SubmitAnswers(map[string]string{"animal": "moose"})

	assert.ErrorIs(t, err, ErrWrongPhase)
	tp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestSubmitAnswers_SendsDuringPlaying(t *testing.T) {
	d, store, tp := newTestDispatcher(true)
	seedRoom(store, "sasuke", protocol.PhasePlaying)
	tp.On("Send", protocol.EventAnswerSubmit, mock.MatchedBy(func(p any) bool {
		payload, ok := p.(protocol.SubmitAnswersPayload)
		return ok && payload.Answers["animal"] == "moose" && payload.Username == "sasuke"
	})).Return(nil).Once()

	require.NoError(t, d.SubmitAnswers(map[string]string{"animal": "moose"}))
	tp.AssertExpectations(t)
}

// Config edits from a non-host must be rejected locally with no outbound
// message at all.
func TestUpdateConfig_NonHostRejectedWithoutNetwork(t *testing.T) {
	d, store, tp := newTestDispatcher(true)
	seedRoom(store, "sasuke", protocol.PhaseWaiting)

	err := d.UpdateConfig(validConfig())

	assert.ErrorIs(t, err, ErrNotHost)
	tp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestUpdateConfig_HostEditGoesPending(t *testing.T) {
	d, store, tp := newTestDispatcher(true)
	seedRoom(store, "naruto", protocol.PhaseWaiting)
	tp.On("Send", protocol.EventConfigUpdate, mock.Anything).Return(nil).Once()

	cfg := validConfig()
	cfg.RoundsCount = 7
	require.NoError(t, d.UpdateConfig(cfg))

	pending, ok := store.PendingConfig()
	require.True(t, ok)
	assert.Equal(t, 7, pending.RoundsCount)
	tp.AssertExpectations(t)
}

func TestLeaveRoom_ClearsStateOptimistically(t *testing.T) {
	d, store, tp := newTestDispatcher(true)
	seedRoom(store, "sasuke", protocol.PhaseWaiting)

	stopped := false
	d.stopTimers = func() { stopped = true }
	tp.On("Send", protocol.EventRoomLeave, protocol.LeaveRoomPayload{
		RoomID: "r1", Username: "sasuke",
	}).Return(nil).Once()

	require.NoError(t, d.LeaveRoom())

	assert.False(t, store.InRoom(), "room must be cleared without waiting for an ack")
	assert.True(t, stopped, "pending timers must die with the room")
	tp.AssertExpectations(t)
}

func TestLeaveRoom_WithoutRoomFails(t *testing.T) {
	d, _, tp := newTestDispatcher(true)

	err := d.LeaveRoom()

	assert.ErrorIs(t, err, ErrNoRoom)
	tp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestNextRound_GatedOnPhaseAndRole(t *testing.T) {
	d, store, tp := newTestDispatcher(true)
	seedRoom(store, "naruto", protocol.PhasePlaying)

	assert.ErrorIs(t, d.NextRound(), ErrWrongPhase)
	tp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

	store.mutateRoom(func(room *protocol.Room) { room.Phase = protocol.PhaseRoundEnd })
	tp.On("Send", protocol.EventRoundNext, mock.Anything).Return(nil).Once()
	require.NoError(t, d.NextRound())
	tp.AssertExpectations(t)
}

func TestSendChatMessage_Validation(t *testing.T) {
	d, store, tp := newTestDispatcher(true)
	seedRoom(store, "sasuke", protocol.PhaseWaiting)

	assert.ErrorIs(t, d.SendChatMessage("  "), ErrEmptyMessage)

	long := make([]byte, MaxChatLength+1)
	for i := range long {
		long[i] = 'x'
	}
	assert.ErrorIs(t, d.SendChatMessage(string(long)), ErrMessageTooLong)
	tp.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)

	tp.On("Send", protocol.EventChatMessage, mock.Anything).Return(nil).Once()
	require.NoError(t, d.SendChatMessage("gg"))
	tp.AssertExpectations(t)
}

func TestErrorSlot_LastErrorWins(t *testing.T) {
	d, store, _ := newTestDispatcher(false)

	_ = d.CreateRoom("naruto", "fox", validConfig())
	_ = d.LeaveRoom()

	serr, ok := store.Err()
	require.True(t, ok)
	assert.Equal(t, ErrNoRoom.Error(), serr.Message)
}
