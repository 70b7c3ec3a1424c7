package bancho

import (
	"errors"
	"sync"
)

// ErrQueueClosed is returned when a command is issued after the connection
// loop consuming the queue has exited.
var ErrQueueClosed = errors.New("bancho: command queue closed")

// commandQueue is an unbounded multi-producer single-consumer queue.
//
// Go channels are bounded, and the command surface must never block or fail a
// caller due to backpressure, so the queue is an explicit slice guarded by a
// mutex. The 1-buffered ready channel lets the connection loop select between
// "a command is available" and "an inbound frame is available" fairly.
type commandQueue struct {
	mu     sync.Mutex
	items  []command
	ready  chan struct{}
	closed bool
}

func newCommandQueue() *commandQueue {
	return &commandQueue{ready: make(chan struct{}, 1)}
}

// push appends cmd to the queue. It never blocks; the only failure mode is a
// closed queue.
func (q *commandQueue) push(cmd command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	q.items = append(q.items, cmd)
	q.signal()
	return nil
}

// pop removes and returns the oldest queued command.
func (q *commandQueue) pop() (command, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil, false
	}
	cmd := q.items[0]
	q.items = q.items[1:]
	if len(q.items) > 0 {
		// keep the consumer's select armed for the remaining commands
		q.signal()
	}
	return cmd, true
}

// close marks the queue closed and drops any commands still in flight.
func (q *commandQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.items = nil
}

func (q *commandQueue) signal() {
	select {
	case q.ready <- struct{}{}:
	default:
	}
}
