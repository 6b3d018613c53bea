package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanTransition(t *testing.T) {
	allowed := [][2]ServiceState{
		{StateStopped, StateStarting},
		{StateStarting, StateRunning},
		{StateRunning, StateSleeping},
		{StateSleeping, StateWaking},
		{StateWaking, StateRunning},
		{StateRunning, StateStopping},
		{StateSleeping, StateStopping},
		{StateStarting, StateStopping},
		{StateWaking, StateStopping},
		{StateStopping, StateStopped},
		{StateError, StateStarting},
		{StateError, StateStopping},
	}
	for _, e := range allowed {
		assert.True(t, CanTransition(e[0], e[1]), "%s -> %s should be allowed", e[0], e[1])
	}

	forbidden := [][2]ServiceState{
		{StateStopped, StateRunning},
		{StateStopped, StateSleeping},
		{StateRunning, StateWaking},
		{StateSleeping, StateRunning},
		{StateStopped, StateError},
		{StateError, StateRunning},
		{StateStopping, StateRunning},
	}
	for _, e := range forbidden {
		assert.False(t, CanTransition(e[0], e[1]), "%s -> %s should be rejected", e[0], e[1])
	}
}

func TestEveryActiveStateCanFail(t *testing.T) {
	for _, s := range []ServiceState{StateStarting, StateRunning, StateSleeping, StateWaking, StateStopping} {
		assert.True(t, CanTransition(s, StateError), "%s -> error", s)
	}
}

func TestServiceState_IsValid(t *testing.T) {
	for _, s := range AllStates {
		assert.True(t, s.IsValid())
	}
	assert.False(t, ServiceState("paused").IsValid())
}

func TestPriority(t *testing.T) {
	p, err := ParsePriority(" High ")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	_, err = ParsePriority("urgent")
	assert.Error(t, err)

	assert.True(t, PriorityHigh < PriorityNormal && PriorityNormal < PriorityLow)

	b, err := json.Marshal(struct {
		P Priority `json:"p"`
	}{PriorityNormal})
	require.NoError(t, err)
	assert.JSONEq(t, `{"p":"normal"}`, string(b))

	var out struct {
		P Priority `json:"p"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"p":"low"}`), &out))
	assert.Equal(t, PriorityLow, out.P)
}

func TestErrorHelpers(t *testing.T) {
	notFound := fmt.Errorf("lookup: %w", NewServiceNotFoundError("translate"))
	assert.True(t, IsNotFound(notFound))
	assert.Equal(t, "lookup: service translate not found", notFound.Error())
	assert.Equal(t, CodeNotFound, ErrorCode(notFound))

	cause := errors.New("409 conflict")
	adapter := &AdapterError{Service: "translate", Operation: "pause", Err: cause}
	assert.True(t, IsAdapterFailure(adapter))
	assert.ErrorIs(t, adapter, cause)
	assert.Equal(t, CodeAdapterFailure, ErrorCode(adapter))

	timeout := &TimeoutError{Service: "translate", Deadline: time.Now()}
	assert.True(t, IsTimeout(timeout))
	assert.False(t, IsAdapterFailure(timeout))
	assert.Equal(t, CodeWakeTimeout, ErrorCode(timeout))

	assert.Equal(t, CodeNotInitialized, ErrorCode(fmt.Errorf("x: %w", ErrNotInitialized)))
	assert.True(t, IsCancelled(ErrWakeCancelled))
	assert.Equal(t, CodeInternal, ErrorCode(errors.New("boom")))
}
