package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/starshop/chatdesk/internal/types"
)

// Metrics holds all application metrics
type Metrics struct {
	mu sync.RWMutex

	// Message metrics
	MessagesReceivedTotal       int64
	ClassificationsTotal        int64
	ClassificationTimeoutsTotal int64

	// Handoff metrics
	HandoffsQueuedTotal   int64
	AssignmentsTotal      int64
	ClaimConflictsTotal   int64
	ResolutionsTotal      int64
	ReturnsScheduledTotal int64
	ReturnsCompletedTotal int64
	ReturnsCancelledTotal int64

	// WebSocket metrics
	WebSocketConnectionsTotal    int64
	WebSocketDisconnectionsTotal int64
	WebSocketMessagesTotal       int64
	WebSocketErrorsTotal         int64
	activeConnections            int64

	// Staff metrics
	staffByStatus map[types.StaffStatus]int
	totalStaff    int

	// HTTP metrics
	httpRequestsTotal    map[string]map[int]int64 // endpoint -> status -> count
	httpRequestDurations map[string][]float64     // endpoint -> durations

	// Timing
	startTime time.Time
}

// Global metrics instance
var instance *Metrics
var once sync.Once

// Get returns the singleton metrics instance
func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			staffByStatus:        make(map[types.StaffStatus]int),
			httpRequestsTotal:    make(map[string]map[int]int64),
			httpRequestDurations: make(map[string][]float64),
			startTime:            time.Now(),
		}
	})
	return instance
}

// RecordMessageReceived increments the inbound customer message counter
func (m *Metrics) RecordMessageReceived() {
	m.mu.Lock()
	m.MessagesReceivedTotal++
	m.mu.Unlock()
}

// RecordClassification increments the completed classification counter
func (m *Metrics) RecordClassification() {
	m.mu.Lock()
	m.ClassificationsTotal++
	m.mu.Unlock()
}

// RecordClassificationTimeout increments the fallback counter
func (m *Metrics) RecordClassificationTimeout() {
	m.mu.Lock()
	m.ClassificationTimeoutsTotal++
	m.mu.Unlock()
}

// RecordHandoffQueued increments the queued handoff counter
func (m *Metrics) RecordHandoffQueued() {
	m.mu.Lock()
	m.HandoffsQueuedTotal++
	m.mu.Unlock()
}

// RecordAssignment increments the assignment counter
func (m *Metrics) RecordAssignment() {
	m.mu.Lock()
	m.AssignmentsTotal++
	m.mu.Unlock()
}

// RecordClaimConflict increments the lost-claim counter
func (m *Metrics) RecordClaimConflict() {
	m.mu.Lock()
	m.ClaimConflictsTotal++
	m.mu.Unlock()
}

// RecordResolution increments the resolved handoff counter
func (m *Metrics) RecordResolution() {
	m.mu.Lock()
	m.ResolutionsTotal++
	m.mu.Unlock()
}

// RecordReturnScheduled increments the return-to-AI scheduled counter
func (m *Metrics) RecordReturnScheduled() {
	m.mu.Lock()
	m.ReturnsScheduledTotal++
	m.mu.Unlock()
}

// RecordReturnCompleted increments the return-to-AI completed counter
func (m *Metrics) RecordReturnCompleted() {
	m.mu.Lock()
	m.ReturnsCompletedTotal++
	m.mu.Unlock()
}

// RecordReturnCancelled increments the return-to-AI cancelled counter
func (m *Metrics) RecordReturnCancelled() {
	m.mu.Lock()
	m.ReturnsCancelledTotal++
	m.mu.Unlock()
}

// RecordWebSocketConnect increments connection counters
func (m *Metrics) RecordWebSocketConnect() {
	m.mu.Lock()
	m.WebSocketConnectionsTotal++
	m.activeConnections++
	m.mu.Unlock()
}

// RecordWebSocketDisconnect increments disconnection counter
func (m *Metrics) RecordWebSocketDisconnect() {
	m.mu.Lock()
	m.WebSocketDisconnectionsTotal++
	m.activeConnections--
	m.mu.Unlock()
}

// RecordWebSocketMessage increments message counter
func (m *Metrics) RecordWebSocketMessage() {
	m.mu.Lock()
	m.WebSocketMessagesTotal++
	m.mu.Unlock()
}

// RecordWebSocketError increments WebSocket error counter
func (m *Metrics) RecordWebSocketError() {
	m.mu.Lock()
	m.WebSocketErrorsTotal++
	m.mu.Unlock()
}

// UpdateStaffStats updates staff distribution metrics
func (m *Metrics) UpdateStaffStats(staff []types.StaffPresence) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.staffByStatus = make(map[types.StaffStatus]int)
	m.totalStaff = len(staff)

	for _, row := range staff {
		m.staffByStatus[row.Status]++
	}
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(endpoint string, statusCode int, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpRequestsTotal[endpoint] == nil {
		m.httpRequestsTotal[endpoint] = make(map[int]int64)
	}
	m.httpRequestsTotal[endpoint][statusCode]++

	// Keep last 100 durations for percentile calculation
	if len(m.httpRequestDurations[endpoint]) >= 100 {
		m.httpRequestDurations[endpoint] = m.httpRequestDurations[endpoint][1:]
	}
	m.httpRequestDurations[endpoint] = append(m.httpRequestDurations[endpoint], duration.Seconds())
}

// GetActiveConnections returns current WebSocket connections
func (m *Metrics) GetActiveConnections() int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeConnections
}

// Handler returns an HTTP handler for the /metrics endpoint
func (m *Metrics) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		// Helper to write metric
		write := func(name string, value interface{}, labels ...string) {
			labelStr := ""
			if len(labels) > 0 {
				labelStr = "{"
				for i := 0; i < len(labels); i += 2 {
					if i > 0 {
						labelStr += ","
					}
					labelStr += labels[i] + "=\"" + labels[i+1] + "\""
				}
				labelStr += "}"
			}

			switch v := value.(type) {
			case int:
				w.Write([]byte(name + labelStr + " " + strconv.Itoa(v) + "\n"))
			case int64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatInt(v, 10) + "\n"))
			case float64:
				w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(v, 'f', 6, 64) + "\n"))
			}
		}

		// System metrics
		write("chatdesk_uptime_seconds", time.Since(m.startTime).Seconds())

		// Message metrics
		write("chatdesk_messages_received_total", m.MessagesReceivedTotal)
		write("chatdesk_classifications_total", m.ClassificationsTotal)
		write("chatdesk_classification_timeouts_total", m.ClassificationTimeoutsTotal)

		// Calculate messages per second
		uptimeSeconds := time.Since(m.startTime).Seconds()
		if uptimeSeconds > 0 {
			write("chatdesk_messages_per_second", float64(m.MessagesReceivedTotal)/uptimeSeconds)
		}

		// Handoff metrics
		write("chatdesk_handoffs_queued_total", m.HandoffsQueuedTotal)
		write("chatdesk_assignments_total", m.AssignmentsTotal)
		write("chatdesk_claim_conflicts_total", m.ClaimConflictsTotal)
		write("chatdesk_resolutions_total", m.ResolutionsTotal)
		write("chatdesk_returns_scheduled_total", m.ReturnsScheduledTotal)
		write("chatdesk_returns_completed_total", m.ReturnsCompletedTotal)
		write("chatdesk_returns_cancelled_total", m.ReturnsCancelledTotal)

		// WebSocket metrics
		write("chatdesk_websocket_connections_total", m.WebSocketConnectionsTotal)
		write("chatdesk_websocket_disconnections_total", m.WebSocketDisconnectionsTotal)
		write("chatdesk_websocket_active_connections", m.activeConnections)
		write("chatdesk_websocket_messages_total", m.WebSocketMessagesTotal)
		write("chatdesk_websocket_errors_total", m.WebSocketErrorsTotal)

		// Staff metrics
		write("chatdesk_staff_total", m.totalStaff)

		// Staff by status
		for status, count := range m.staffByStatus {
			write("chatdesk_staff_by_status", count, "status", string(status))
		}

		// HTTP metrics
		for endpoint, statusCodes := range m.httpRequestsTotal {
			for status, count := range statusCodes {
				write("chatdesk_http_requests_total", count, "endpoint", endpoint, "status", strconv.Itoa(status))
			}
		}
	}
}
