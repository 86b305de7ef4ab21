package action

// Queue is a single-producer, single-consumer FIFO mailbox. Script builtins
// send into it and the player actor receives at most one action per tick.
// It never blocks; it is not safe for concurrent use.
type Queue struct {
	pending []Action
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{pending: make([]Action, 0, 1)}
}

// Send appends an action.
func (q *Queue) Send(a Action) {
	q.pending = append(q.pending, a)
}

// TryReceive pops the oldest action. It returns false when the queue is empty.
func (q *Queue) TryReceive() (Action, bool) {
	if len(q.pending) == 0 {
		return Action{}, false
	}
	a := q.pending[0]
	q.pending = q.pending[1:]
	return a, true
}

// Len returns the number of undelivered actions.
func (q *Queue) Len() int {
	return len(q.pending)
}

// Drain discards every pending action and returns how many were dropped.
func (q *Queue) Drain() int {
	n := len(q.pending)
	q.pending = q.pending[:0]
	return n
}
