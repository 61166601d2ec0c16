package notifier

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tasktrack-dev/tasktrack/internal/logging"
)

// Breaker bounds every send with a timeout and stops calling a notifier that keeps
// failing until the cooldown passes.
type Breaker struct {
	next    Notifier
	timeout time.Duration
	cb      *gobreaker.CircuitBreaker
}

func NewBreaker(next Notifier, timeout time.Duration, failures uint32, cooldown time.Duration) *Breaker {
	if failures == 0 {
		failures = 3
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notifier",
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Logger.Infof("circuit breaker '%s' changed from '%s' to '%s'", name, from.String(), to.String())
		},
	})

	return &Breaker{next: next, timeout: timeout, cb: cb}
}

func (b *Breaker) Send(ctx context.Context, to, subject, body string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		if b.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, b.timeout)
			defer cancel()
		}
		return nil, b.next.Send(ctx, to, subject, body)
	})
	return err
}

func (b *Breaker) State() gobreaker.State {
	return b.cb.State()
}
