package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/sony/gobreaker/v2"
)

// Verdict classifies one failed attempt: Retry says another attempt may
// help, Record says the circuit breaker should count the failure.
type Verdict struct {
	Retry  bool
	Record bool
}

// Classifier maps an error to its Verdict. Passing nil treats every failure
// as final and countable.
type Classifier func(err error) Verdict

// Executor runs outbound calls under a retry/breaker Policy. Breakers are
// tracked per call name, so an embedding outage cannot trip the tags probe.
type Executor struct {
	policy Policy

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker[struct{}]
}

func NewExecutor(policy Policy) *Executor {
	return &Executor{
		policy:   policy.withDefaults(),
		breakers: make(map[string]*gobreaker.CircuitBreaker[struct{}]),
	}
}

// Run invokes call, retrying while classify deems failures transient and the
// attempt budget lasts. The last attempt's error comes back unwrapped so the
// caller can translate it.
func (e *Executor) Run(ctx context.Context, name string, classify Classifier, call func(context.Context) error) error {
	if call == nil {
		return errors.New("resilience: nil call")
	}
	if name == "" {
		name = "call"
	}
	if classify == nil {
		classify = func(error) Verdict { return Verdict{Record: true} }
	}

	if !e.policy.BreakerEnabled {
		return e.attempt(ctx, name, classify, call)
	}
	_, err := e.breaker(name, classify).Execute(func() (struct{}, error) {
		return struct{}{}, e.attempt(ctx, name, classify, call)
	})
	return err
}

func (e *Executor) attempt(ctx context.Context, name string, classify Classifier, call func(context.Context) error) error {
	delay := e.policy.InitialBackoff
	for tries := 1; ; tries++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := call(ctx)
		if err == nil {
			return nil
		}
		if v := classify(err); !v.Retry || tries >= e.policy.MaxAttempts {
			return err
		}

		slog.Warn("retrying_call",
			"call", name,
			"attempt", tries,
			"of", e.policy.MaxAttempts,
			"backoff", delay,
			"error", err,
		)
		if !sleep(ctx, delay) {
			return err
		}
		delay = time.Duration(float64(delay) * e.policy.BackoffFactor)
		if delay > e.policy.MaxBackoff {
			delay = e.policy.MaxBackoff
		}
	}
}

// sleep waits out one backoff, reporting false when the context ends first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func (e *Executor) breaker(name string, classify Classifier) *gobreaker.CircuitBreaker[struct{}] {
	e.mu.Lock()
	defer e.mu.Unlock()

	if b, ok := e.breakers[name]; ok {
		return b
	}
	b := gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: e.policy.BreakerProbeCalls,
		Timeout:     e.policy.BreakerCooldown,
		ReadyToTrip: func(c gobreaker.Counts) bool {
			return c.Requests >= e.policy.BreakerMinRequests &&
				float64(c.TotalFailures)/float64(c.Requests) >= e.policy.BreakerFailureRatio
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !classify(err).Record
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("breaker_state_changed", "call", name, "from", from.String(), "to", to.String())
		},
	})
	e.breakers[name] = b
	return b
}

// Tripped reports whether err came from an open breaker rather than from the
// service itself.
func Tripped(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
