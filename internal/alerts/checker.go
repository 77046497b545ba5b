package alerts

import (
	"fmt"
	"time"

	"github.com/starshop/chatdesk/internal/types"
)

// Thresholds for staff alert rules
const (
	awayLongThreshold = 10 * time.Minute
)

// CheckStaffAlerts evaluates alert rules for a slice of staff rows,
// mutating each row's Alerts field in place.
func CheckStaffAlerts(staff []types.StaffPresence) {
	now := time.Now()
	for i := range staff {
		staff[i].Alerts = nil

		if staff[i].Status == types.StaffAway {
			dur := now.Sub(staff[i].LastSeenAt)
			if dur > awayLongThreshold {
				staff[i].Alerts = append(staff[i].Alerts, types.StaffAlert{
					Rule:     "away_long",
					Severity: types.SeverityWarning,
					Message:  fmt.Sprintf("Away for %s", formatDuration(dur)),
				})
			}
		}

		if staff[i].Online && staff[i].Workload >= staff[i].MaxWorkload {
			staff[i].Alerts = append(staff[i].Alerts, types.StaffAlert{
				Rule:     "at_capacity",
				Severity: types.SeverityCritical,
				Message:  fmt.Sprintf("At max workload (%d/%d)", staff[i].Workload, staff[i].MaxWorkload),
			})
		}
	}
}

func formatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if mins >= 60 {
		hours := mins / 60
		mins = mins % 60
		return fmt.Sprintf("%dh%dm", hours, mins)
	}
	return fmt.Sprintf("%dm%ds", mins, secs)
}
