package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps reports in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	reports map[uuid.UUID]*StoredReport
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{reports: make(map[uuid.UUID]*StoredReport)}
}

// SaveReport implements ReportStore.
func (m *MemoryStore) SaveReport(_ context.Context, r *StoredReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reports[r.ID] = r
	return nil
}

// GetReport implements ReportStore.
func (m *MemoryStore) GetReport(_ context.Context, id uuid.UUID) (*StoredReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, ErrReportNotFound
	}
	return r, nil
}

// ListReports implements ReportStore.
func (m *MemoryStore) ListReports(_ context.Context, limit int) ([]Summary, error) {
	m.mu.RLock()
	out := make([]Summary, 0, len(m.reports))
	for _, r := range m.reports {
		out = append(out, r.Summarize())
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// DeleteReportsBefore implements ReportStore.
func (m *MemoryStore) DeleteReportsBefore(_ context.Context, t time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var n int64
	for id, r := range m.reports {
		if r.CreatedAt.Before(t) {
			delete(m.reports, id)
			n++
		}
	}
	return n, nil
}
