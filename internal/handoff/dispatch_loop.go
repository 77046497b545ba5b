package handoff

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DispatchLoop periodically drains the waiting queue into available staff.
// It is the retry path for entries that could not be assigned at enqueue
// time because nobody was free.
type DispatchLoop struct {
	manager  *Manager
	interval time.Duration
	logger   zerolog.Logger
}

// NewDispatchLoop creates a dispatch loop
func NewDispatchLoop(manager *Manager, interval time.Duration, logger zerolog.Logger) *DispatchLoop {
	return &DispatchLoop{
		manager:  manager,
		interval: interval,
		logger:   logger.With().Str("component", "dispatch_loop").Logger(),
	}
}

// Run ticks until the context is cancelled
func (l *DispatchLoop) Run(ctx context.Context) {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.logger.Info().Dur("interval", l.interval).Msg("dispatch loop started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info().Msg("dispatch loop stopped")
			return
		case <-ticker.C:
			if assigned := l.manager.DispatchWaiting(); assigned > 0 {
				l.logger.Info().Int("assigned", assigned).Msg("dispatched waiting handoffs")
			}
		}
	}
}
