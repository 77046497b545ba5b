package handoff

import (
	"github.com/starshop/chatdesk/internal/types"
)

// SelectionStrategy picks the staff member a waiting entry should go to.
// Implementations receive only eligible staff (online, available status,
// spare workload capacity) and must return "" when the slice is empty.
type SelectionStrategy interface {
	SelectStaff(entry types.HandoffEntry, candidates []types.StaffPresence) string
	Name() string
}

// BestAvailable picks the candidate with the highest availability score.
// Ties go to whoever has been idle longest, so work spreads across the
// team instead of piling on one person.
type BestAvailable struct{}

func (s *BestAvailable) Name() string {
	return "best_available"
}

func (s *BestAvailable) SelectStaff(entry types.HandoffEntry, candidates []types.StaffPresence) string {
	if len(candidates) == 0 {
		return ""
	}

	best := candidates[0]
	for _, c := range candidates[1:] {
		cScore, bestScore := c.AvailabilityScore(), best.AvailabilityScore()
		if cScore > bestScore {
			best = c
			continue
		}
		if cScore == bestScore && c.LastActivityAt.Before(best.LastActivityAt) {
			best = c
		}
	}
	return best.StaffID
}
