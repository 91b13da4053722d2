package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		want     bool
	}{
		{StateIdle, StatePreparing, true},
		{StatePreparing, StateExecuting, true},
		{StatePreparing, StateError, true},
		{StateExecuting, StateLive, true},
		{StateExecuting, StateError, true},
		{StateLive, StateTornDown, true},
		{StateError, StateTornDown, true},
		{StateTornDown, StatePreparing, true},
		{StateIdle, StateLive, false},
		{StateLive, StateExecuting, false},
		{StateError, StateLive, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, CanTransition(tt.from, tt.to))
		})
	}
}

func TestLifecycle(t *testing.T) {
	var l Lifecycle
	assert.Equal(t, StateIdle, l.State())
	assert.NoError(t, l.To(StatePreparing))
	assert.NoError(t, l.To(StateExecuting))
	assert.NoError(t, l.To(StateLive))
	assert.Error(t, l.To(StateExecuting))
	assert.Equal(t, StateLive, l.State())
	assert.Equal(t, "state(42)", State(42).String())
}
