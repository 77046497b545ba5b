package aggregator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/starshop/chatdesk/internal/alerts"
	"github.com/starshop/chatdesk/internal/handoff"
	"github.com/starshop/chatdesk/internal/metrics"
	"github.com/starshop/chatdesk/internal/presence"
	"github.com/starshop/chatdesk/internal/types"
	"github.com/starshop/chatdesk/internal/websocket"
)

// Aggregator broadcasts a periodic dashboard snapshot: queue state plus
// the staff roster with alert annotations.
type Aggregator struct {
	manager *handoff.Manager
	tracker *presence.Tracker
	hub     *websocket.Hub
	logger  zerolog.Logger
}

// NewAggregator creates a new aggregator
func NewAggregator(manager *handoff.Manager, tracker *presence.Tracker, hub *websocket.Hub, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		manager: manager,
		tracker: tracker,
		hub:     hub,
		logger:  logger,
	}
}

// Start begins broadcasting snapshots until the context is cancelled
func (a *Aggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	m := metrics.Get()
	a.logger.Info().Msg("aggregator started")

	for {
		select {
		case <-ctx.Done():
			a.logger.Info().Msg("aggregator stopped")
			return

		case <-ticker.C:
			if a.hub.ClientCount() == 0 {
				continue
			}

			staff := a.tracker.All()
			alerts.CheckStaffAlerts(staff)
			m.UpdateStaffStats(staff)

			online, available := a.tracker.Counts()
			snapshot := types.DashboardSnapshot{
				Type:           "dashboard_snapshot",
				Timestamp:      time.Now(),
				QueueStats:     a.manager.Stats(),
				Waiting:        a.manager.Waiting(),
				Staff:          staff,
				OnlineCount:    online,
				AvailableCount: available,
			}

			data, err := json.Marshal(snapshot)
			if err != nil {
				a.logger.Error().Err(err).Msg("failed to marshal snapshot")
				continue
			}

			a.hub.Broadcast(data)

			a.logger.Debug().
				Int("waiting", snapshot.QueueStats.WaitingCount).
				Int("staff", len(staff)).
				Int("clients", a.hub.ClientCount()).
				Msg("snapshot broadcasted")
		}
	}
}
