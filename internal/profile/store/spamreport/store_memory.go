package spamreport

import (
	"context"
	"sync"
	"time"

	"calldex/internal/profile/models"
	id "calldex/pkg/domain"
	"calldex/pkg/phone"
)

// MemoryStore implements store.SpamReportStore in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	byPhone map[phone.Number][]models.SpamReport
}

func NewMemory() *MemoryStore {
	return &MemoryStore{byPhone: make(map[phone.Number][]models.SpamReport)}
}

func (s *MemoryStore) Add(ctx context.Context, report models.SpamReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byPhone[report.Phone] = append(s.byPhone[report.Phone], report)
	return nil
}

// Remove marks the reporter's active reports as removed. The rows stay, so
// report history is preserved.
func (s *MemoryStore) Remove(ctx context.Context, number phone.Number, reporterID id.ContributorID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	reports := s.byPhone[number]
	for i := range reports {
		if reports[i].ReporterID == reporterID && reports[i].Active() {
			removedAt := at
			reports[i].RemovedAt = &removedAt
		}
	}
	return nil
}

func (s *MemoryStore) ListActiveByPhone(ctx context.Context, number phone.Number) ([]models.SpamReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.SpamReport
	for _, r := range s.byPhone[number] {
		if r.Active() {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *MemoryStore) HasActiveReport(ctx context.Context, number phone.Number, reporterID id.ContributorID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, r := range s.byPhone[number] {
		if r.ReporterID == reporterID && r.Active() {
			return true, nil
		}
	}
	return false, nil
}
