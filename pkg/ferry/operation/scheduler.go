package operation

import "context"

// Scheduler hands out a single turn to the operations that share it. An
// operation holds the turn for one slice of work and then queues again, so
// operations on one scheduler interleave but never run at the same time.
// Operations on different schedulers are independent.
type Scheduler struct {
	turn chan struct{}
}

// NewScheduler returns an idle scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{turn: make(chan struct{}, 1)}
}

// acquire blocks until the caller owns the turn. Waiters are served in
// arrival order.
func (s *Scheduler) acquire(ctx context.Context) error {
	select {
	case s.turn <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// release gives the turn back. It must only be called by the owner.
func (s *Scheduler) release() {
	<-s.turn
}
