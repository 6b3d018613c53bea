package orchestrator

import (
	"container/heap"
	"context"
	"sync"

	"drowse/internal/api"
)

// wakeRequest is a queued wake. It is resolved exactly once.
type wakeRequest struct {
	ticket api.WakeTicket
	seq    uint64
	index  int

	once sync.Once
	done chan struct{}
	err  error
}

func newWakeRequest(ticket api.WakeTicket) *wakeRequest {
	return &wakeRequest{ticket: ticket, done: make(chan struct{})}
}

func (r *wakeRequest) resolve(err error) {
	r.once.Do(func() {
		r.err = err
		close(r.done)
	})
}

// Wait blocks until the request is resolved or ctx is done.
func (r *wakeRequest) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wakeHeap orders requests by priority, then by arrival.
type wakeHeap []*wakeRequest

func (h wakeHeap) Len() int { return len(h) }

func (h wakeHeap) Less(i, j int) bool {
	if h[i].ticket.Priority != h[j].ticket.Priority {
		return h[i].ticket.Priority < h[j].ticket.Priority
	}
	return h[i].seq < h[j].seq
}

func (h wakeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *wakeHeap) Push(x interface{}) {
	r := x.(*wakeRequest)
	r.index = len(*h)
	*h = append(*h, r)
}

func (h *wakeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	r := old[n-1]
	old[n-1] = nil
	r.index = -1
	*h = old[:n-1]
	return r
}

// wakeQueue is a blocking priority queue with one pending request per service.
type wakeQueue struct {
	mu sync.Mutex

	items wakeHeap

	// pending maps service name to its queued request
	pending map[string]*wakeRequest

	seq  uint64
	cond *sync.Cond

	shuttingDown bool
}

func newWakeQueue() *wakeQueue {
	q := &wakeQueue{pending: make(map[string]*wakeRequest)}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// push queues req. If the service already has a queued request, that request
// is returned instead and added is false.
func (q *wakeQueue) push(req *wakeRequest) (queued *wakeRequest, added bool, err error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.shuttingDown {
		return nil, false, api.ErrQueueClosed
	}
	if existing, ok := q.pending[req.ticket.Service]; ok {
		return existing, false, nil
	}

	q.seq++
	req.seq = q.seq
	heap.Push(&q.items, req)
	q.pending[req.ticket.Service] = req
	q.cond.Signal()
	return req, true, nil
}

// pop removes the highest-priority request, blocking until one is available,
// the queue shuts down or ctx is done.
func (q *wakeQueue) pop(ctx context.Context) (*wakeRequest, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.items) == 0 && !q.shuttingDown {
		select {
		case <-ctx.Done():
			return nil, false
		default:
		}

		// Wake the cond when ctx is cancelled; done releases the goroutine
		// after a normal wakeup.
		done := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				q.mu.Lock()
				q.cond.Broadcast()
				q.mu.Unlock()
			case <-done:
			}
		}()

		q.cond.Wait()
		close(done)

		select {
		case <-ctx.Done():
			return nil, false
		default:
		}
	}

	if q.shuttingDown {
		return nil, false
	}

	req := heap.Pop(&q.items).(*wakeRequest)
	delete(q.pending, req.ticket.Service)
	return req, true
}

func (q *wakeQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// shutdown stops the queue and resolves every pending request as cancelled.
func (q *wakeQueue) shutdown() int {
	q.mu.Lock()
	items := q.items
	q.items = nil
	q.pending = make(map[string]*wakeRequest)
	q.shuttingDown = true
	q.cond.Broadcast()
	q.mu.Unlock()

	for _, req := range items {
		req.resolve(api.ErrWakeCancelled)
	}
	return len(items)
}
