package presence

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Sweeper periodically marks staff without recent heartbeats as away
type Sweeper struct {
	tracker   *Tracker
	interval  time.Duration
	threshold time.Duration
	logger    zerolog.Logger
}

// NewSweeper creates a new Sweeper
func NewSweeper(tracker *Tracker, interval, threshold time.Duration, logger zerolog.Logger) *Sweeper {
	return &Sweeper{
		tracker:   tracker,
		interval:  interval,
		threshold: threshold,
		logger:    logger,
	}
}

// Start runs the sweep loop until the context is cancelled
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("presence sweeper started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("presence sweeper stopped")
			return

		case <-ticker.C:
			if changed := s.tracker.MarkStaleAway(s.threshold); changed > 0 {
				s.logger.Debug().
					Int("marked_away", changed).
					Dur("threshold", s.threshold).
					Msg("stale staff marked away")
			}
		}
	}
}
