package upload

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_Transitions(t *testing.T) {
	allowed := map[State][]State{
		StateStarting:   {StateUploading, StateCancelling, StateError},
		StateUploading:  {StateCompleted, StateError, StateCancelling, StateCancelled},
		StateCancelling: {StateCancelled},
	}
	all := []State{StateStarting, StateUploading, StateCompleted, StateError, StateCancelling, StateCancelled}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, a := range allowed[from] {
				if a == to {
					want = true
				}
			}
			assert.Equal(t, want, from.canMove(to), "%s -> %s", from, to)
		}
	}

	for _, s := range []State{StateCompleted, StateError, StateCancelled} {
		assert.True(t, s.Terminal(), s)
	}
	for _, s := range []State{StateStarting, StateUploading, StateCancelling} {
		assert.False(t, s.Terminal(), s)
	}
}

func TestPercent(t *testing.T) {
	tests := []struct {
		sent, total int64
		want        int
	}{
		{0, 100, 0},
		{1, 3, 33},
		{2, 3, 66},
		{3, 3, 100},
		{5, 3, 100},
		{-1, 3, 0},
		{0, 0, 100},
		{10 << 20, 10 << 20, 100},
		{(10 << 20) - 1, 10 << 20, 99},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Percent(tt.sent, tt.total), "%d/%d", tt.sent, tt.total)
	}
}

func TestResult_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(Result{StatusCode: 201, Body: []byte(`{"ok":true}`)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status_code":201,"body":{"ok":true}}`, string(b))

	b, err = json.Marshal(Result{StatusCode: 200, Body: []byte("stored")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status_code":200,"body":"stored"}`, string(b))

	b, err = json.Marshal(Result{StatusCode: 204})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status_code":204}`, string(b))
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	s := Snapshot{ID: "x", Result: &Result{StatusCode: 200, Body: []byte("abc")}}
	c := s.clone()
	c.Result.Body[0] = 'z'
	c.Result.StatusCode = 500
	assert.Equal(t, "abc", string(s.Result.Body))
	assert.Equal(t, 200, s.Result.StatusCode)
}
