package resilience

import "time"

// Policy bounds how hard the engine leans on a struggling service: how many
// attempts one call gets, how the pause between attempts grows, and when the
// breaker stops sending calls at all.
type Policy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	BackoffFactor  float64

	BreakerEnabled      bool
	BreakerMinRequests  uint32
	BreakerFailureRatio float64
	BreakerCooldown     time.Duration
	BreakerProbeCalls   uint32
}

// LocalServicePolicy fits a single-machine inference service: short backoffs
// and a short cooldown, since a restarted service is back within seconds.
func LocalServicePolicy() Policy {
	return Policy{
		MaxAttempts:    3,
		InitialBackoff: 100 * time.Millisecond,
		MaxBackoff:     400 * time.Millisecond,
		BackoffFactor:  2.0,

		BreakerEnabled:      true,
		BreakerMinRequests:  5,
		BreakerFailureRatio: 0.5,
		BreakerCooldown:     10 * time.Second,
		BreakerProbeCalls:   2,
	}
}

func (p Policy) withDefaults() Policy {
	base := LocalServicePolicy()
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = base.MaxAttempts
	}
	if p.InitialBackoff <= 0 {
		p.InitialBackoff = base.InitialBackoff
	}
	if p.MaxBackoff < p.InitialBackoff {
		p.MaxBackoff = p.InitialBackoff
	}
	if p.BackoffFactor < 1 {
		p.BackoffFactor = base.BackoffFactor
	}
	if p.BreakerMinRequests == 0 {
		p.BreakerMinRequests = base.BreakerMinRequests
	}
	if p.BreakerFailureRatio <= 0 || p.BreakerFailureRatio > 1 {
		p.BreakerFailureRatio = base.BreakerFailureRatio
	}
	if p.BreakerCooldown <= 0 {
		p.BreakerCooldown = base.BreakerCooldown
	}
	if p.BreakerProbeCalls == 0 {
		p.BreakerProbeCalls = base.BreakerProbeCalls
	}
	return p
}
