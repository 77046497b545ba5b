package storage

import "github.com/starshop/chatdesk/internal/types"

// Store defines the storage interface
type Store interface {
	SaveRoutingDecision(record types.RoutingDecisionRecord) error
	SaveHandoffRecord(record types.HandoffRecord) error
	GetRoutingDecisions(conversationID string) ([]types.RoutingDecisionRecord, error)
	GetHandoffRecords(dateKey string) ([]types.HandoffRecord, error)
	GetStaffHandoffsByDate(staffID, dateKey string) ([]types.HandoffRecord, error)
	TruncateAll() error
}

// NoopStore is a no-op implementation when DynamoDB is disabled
type NoopStore struct{}

func NewNoopStore() *NoopStore { return &NoopStore{} }

func (s *NoopStore) SaveRoutingDecision(_ types.RoutingDecisionRecord) error { return nil }
func (s *NoopStore) SaveHandoffRecord(_ types.HandoffRecord) error           { return nil }
func (s *NoopStore) GetRoutingDecisions(_ string) ([]types.RoutingDecisionRecord, error) {
	return nil, nil
}
func (s *NoopStore) GetHandoffRecords(_ string) ([]types.HandoffRecord, error) { return nil, nil }
func (s *NoopStore) GetStaffHandoffsByDate(_, _ string) ([]types.HandoffRecord, error) {
	return nil, nil
}
func (s *NoopStore) TruncateAll() error { return nil }
