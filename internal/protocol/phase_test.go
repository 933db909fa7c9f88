package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhase_CanTransitionTo(t *testing.T) {
	testCases := []struct {
		from    Phase
		to      Phase
		allowed bool
	}{
		{PhaseWaiting, PhaseStarting, true},
		{PhaseWaiting, PhasePlaying, true},
		{PhaseWaiting, PhaseFinished, false},
		{PhaseStarting, PhasePlaying, true},
		{PhaseStarting, PhaseRoundEnd, false},
		{PhasePlaying, PhaseRoundEnd, true},
		{PhasePlaying, PhaseFinished, true},
		{PhasePlaying, PhaseWaiting, false},
		{PhaseRoundEnd, PhasePlaying, true},
		{PhaseRoundEnd, PhaseFinished, true},
		{PhaseRoundEnd, PhaseWaiting, false},
		{PhaseFinished, PhasePlaying, false},
		{PhaseFinished, PhaseWaiting, false},
		{Phase("bogus"), PhasePlaying, false},
	}

	for _, tc := range testCases {
		t.Run(string(tc.from)+"->"+string(tc.to), func(t *testing.T) {
			assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to))
		})
	}
}

func TestPhase_Terminal(t *testing.T) {
	assert.True(t, PhaseFinished.Terminal())
	assert.False(t, PhasePlaying.Terminal())
	assert.False(t, PhaseRoundEnd.Terminal())
}
