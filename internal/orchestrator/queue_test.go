package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drowse/internal/api"
)

func ticket(service string, p api.Priority) *wakeRequest {
	return newWakeRequest(api.WakeTicket{ID: service, Service: service, Priority: p})
}

func TestWakeQueue_PriorityThenFIFO(t *testing.T) {
	q := newWakeQueue()
	for _, r := range []*wakeRequest{
		ticket("low-1", api.PriorityLow),
		ticket("normal-1", api.PriorityNormal),
		ticket("high-1", api.PriorityHigh),
		ticket("low-2", api.PriorityLow),
		ticket("high-2", api.PriorityHigh),
		ticket("normal-2", api.PriorityNormal),
	} {
		_, added, err := q.push(r)
		require.NoError(t, err)
		require.True(t, added)
	}
	assert.Equal(t, 6, q.len())

	var order []string
	for q.len() > 0 {
		r, ok := q.pop(context.Background())
		require.True(t, ok)
		order = append(order, r.ticket.Service)
	}
	assert.Equal(t, []string{"high-1", "high-2", "normal-1", "normal-2", "low-1", "low-2"}, order)
}

func TestWakeQueue_OnePendingRequestPerService(t *testing.T) {
	q := newWakeQueue()
	first := ticket("translate", api.PriorityNormal)
	_, added, err := q.push(first)
	require.NoError(t, err)
	require.True(t, added)

	got, added, err := q.push(ticket("translate", api.PriorityNormal))
	require.NoError(t, err)
	assert.False(t, added)
	assert.Same(t, first, got)
	assert.Equal(t, 1, q.len())

	_, ok := q.pop(context.Background())
	require.True(t, ok)

	_, added, err = q.push(ticket("translate", api.PriorityNormal))
	require.NoError(t, err)
	assert.True(t, added, "service can be queued again once popped")
}

func TestWakeQueue_PopBlocksUntilPush(t *testing.T) {
	q := newWakeQueue()
	got := make(chan string, 1)
	go func() {
		r, ok := q.pop(context.Background())
		if ok {
			got <- r.ticket.Service
		}
	}()

	time.Sleep(20 * time.Millisecond)
	_, _, err := q.push(ticket("search", api.PriorityLow))
	require.NoError(t, err)

	select {
	case name := <-got:
		assert.Equal(t, "search", name)
	case <-time.After(2 * time.Second):
		t.Fatal("pop did not return after push")
	}
}

func TestWakeQueue_PopHonoursContext(t *testing.T) {
	q := newWakeQueue()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, ok := q.pop(ctx)
	assert.False(t, ok)
}

func TestWakeQueue_ShutdownCancelsPending(t *testing.T) {
	q := newWakeQueue()
	a := ticket("a", api.PriorityHigh)
	b := ticket("b", api.PriorityLow)
	_, _, _ = q.push(a)
	_, _, _ = q.push(b)

	assert.Equal(t, 2, q.shutdown())

	for _, r := range []*wakeRequest{a, b} {
		err := r.Wait(context.Background())
		assert.True(t, api.IsCancelled(err))
	}

	_, ok := q.pop(context.Background())
	assert.False(t, ok)

	_, _, err := q.push(ticket("c", api.PriorityHigh))
	assert.ErrorIs(t, err, api.ErrQueueClosed)
}

func TestWakeRequest_ResolvesOnce(t *testing.T) {
	r := ticket("a", api.PriorityLow)
	r.resolve(nil)
	r.resolve(api.ErrWakeCancelled)
	assert.NoError(t, r.Wait(context.Background()))
}
