// Package retry runs an operation under a bounded attempt budget with an
// explicit delay schedule.
package retry

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Policy configures Do.
type Policy struct {
	// Attempts is the total number of calls, including the first.
	Attempts int
	// Delays[i] is the wait after failed attempt i+1. The last entry is
	// reused when the schedule is shorter than Attempts-1.
	Delays []time.Duration
	// Retryable decides whether an error is worth another attempt. Nil
	// retries everything.
	Retryable func(error) bool
	// OnRetry is called before each wait.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Exponential builds a schedule of n delays doubling from base.
func Exponential(base time.Duration, n int) []time.Duration {
	out := make([]time.Duration, n)
	d := base
	for i := range out {
		out[i] = d
		d *= 2
	}
	return out
}

// Fixed builds a schedule of n equal delays.
func Fixed(d time.Duration, n int) []time.Duration {
	out := make([]time.Duration, n)
	for i := range out {
		out[i] = d
	}
	return out
}

// Do calls op until it succeeds, returns a non-retryable error, the attempt
// budget runs out or ctx is done. The last error is returned unwrapped.
func Do(ctx context.Context, p Policy, op func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	sched := &schedule{delays: p.Delays}
	b := backoff.WithContext(backoff.WithMaxRetries(sched, uint64(attempts-1)), ctx)

	attempt := 0
	operation := func() error {
		attempt++
		err := op(ctx)
		if err == nil {
			return nil
		}
		if p.Retryable != nil && !p.Retryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}

	var notify backoff.Notify
	if p.OnRetry != nil {
		notify = func(err error, wait time.Duration) {
			p.OnRetry(attempt, err, wait)
		}
	}

	return backoff.RetryNotify(operation, b, notify)
}

// schedule is a backoff.BackOff that walks an explicit delay list.
type schedule struct {
	delays []time.Duration
	next   int
}

func (s *schedule) NextBackOff() time.Duration {
	if len(s.delays) == 0 {
		return 0
	}
	i := s.next
	if i >= len(s.delays) {
		i = len(s.delays) - 1
	}
	s.next++
	return s.delays[i]
}

func (s *schedule) Reset() {
	s.next = 0
}
