package health

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// PingChecker monitors a component through periodic HealthPing calls.
type PingChecker struct {
	name         string
	target       HealthPinger
	healthy      atomic.Int32
	log          zerolog.Logger
	pingTimeout time.Duration
}

// NewPingChecker creates a checker named name probing target.
func NewPingChecker(name string, target HealthPinger, log zerolog.Logger, pingTimeout time.Duration) *PingChecker {
	pc := &PingChecker{name: name, target: target, log: log, pingTimeout: pingTimeout}
	pc.healthy.Store(0) // start unhealthy until first successful ping
	return pc
}

func (pc *PingChecker) Name() string { return pc.name }

// IsHealthy returns the cached health status (non-blocking).
func (pc *PingChecker) IsHealthy() bool { return pc.healthy.Load() == 1 }

// Start begins periodic health checking.
func (pc *PingChecker) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	check := func() {
		to := pc.pingTimeout
		if to <= 0 {
			to = 2 * time.Second
		}
		checkCtx, cancel := context.WithTimeout(ctx, to)
		defer cancel()

		if err := pc.target.HealthPing(checkCtx); err != nil {
			pc.log.Error().Stack().
				Str("checker", pc.name).
				Err(err).
				Msg("health check failed")
			pc.healthy.Store(0)
			return
		}
		pc.healthy.Store(1)
	}

	check()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			check()
		}
	}
}
