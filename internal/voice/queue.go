package voice

import "sync"

// queue is an unbounded FIFO of functions. Pushing never blocks, so host
// callbacks may fire from inside calls made by the loop itself.
type queue struct {
	mu     sync.Mutex
	items  []func()
	notify chan struct{}
}

func newQueue() *queue {
	return &queue{notify: make(chan struct{}, 1)}
}

func (q *queue) push(fn func()) {
	q.mu.Lock()
	q.items = append(q.items, fn)
	q.mu.Unlock()

	select {
	case q.notify <- struct{}{}:
	default:
	}
}

// drain removes and returns everything queued so far
func (q *queue) drain() []func() {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.items
	q.items = nil
	return items
}

// run executes queued functions in order until done is closed
func (q *queue) run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case <-q.notify:
			for _, fn := range q.drain() {
				fn()
			}
		}
	}
}
