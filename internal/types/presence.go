package types

import "time"

// StaffStatus represents the presence state of a staff member
type StaffStatus string

const (
	StaffAvailable StaffStatus = "available"
	StaffBusy      StaffStatus = "busy"
	StaffAway      StaffStatus = "away"
	StaffOffline   StaffStatus = "offline"
)

// ParseStaffStatus maps a string to a StaffStatus, defaulting to offline
func ParseStaffStatus(value string) StaffStatus {
	switch StaffStatus(value) {
	case StaffAvailable, StaffBusy, StaffAway, StaffOffline:
		return StaffStatus(value)
	default:
		return StaffOffline
	}
}

// DefaultMaxWorkload is the conversation capacity assigned to new staff rows
const DefaultMaxWorkload = 5

// StaffPresence tracks one staff member's online state and workload.
// Used for auto-assignment and load balancing.
type StaffPresence struct {
	StaffID        string      `json:"staffId"`
	Online         bool        `json:"online"`
	Workload       int         `json:"workload"` // current assigned-conversation count
	MaxWorkload    int         `json:"maxWorkload"`
	LastSeenAt     time.Time   `json:"lastSeenAt"`
	LastActivityAt time.Time   `json:"lastActivityAt"`
	Status         StaffStatus `json:"status"`
	StatusMessage  string      `json:"statusMessage,omitempty"`
	Alerts         []StaffAlert `json:"alerts,omitempty"`
}

// IsAvailable reports whether the staff member can take another conversation
func (p *StaffPresence) IsAvailable() bool {
	return p.Online && p.Status == StaffAvailable && p.Workload < p.MaxWorkload
}

// AvailabilityScore ranks staff by remaining capacity: (1 - workload/max) * 100.
// Unavailable staff score zero.
func (p *StaffPresence) AvailabilityScore() float64 {
	if !p.IsAvailable() || p.MaxWorkload <= 0 {
		return 0
	}
	return (1 - float64(p.Workload)/float64(p.MaxWorkload)) * 100
}

// AlertSeverity represents the severity of a staff alert
type AlertSeverity string

const (
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// StaffAlert represents an alert condition for a staff member
type StaffAlert struct {
	Rule     string        `json:"rule"`
	Severity AlertSeverity `json:"severity"`
	Message  string        `json:"message"`
}
