package store

import (
	"context"
	"sync"

	"github.com/otron-io/bug-report-autopilot/internal/report"
)

// Memory is the in-process store. Requests may run on concurrent
// goroutines, so the map is mutex-guarded.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*report.ReportRecord
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{records: make(map[string]*report.ReportRecord)}
}

// Create stores a new record under a freshly generated identity.
func (m *Memory) Create(ctx context.Context, params CreateParams) (*report.ReportRecord, error) {
	rec := newRecord(NewID(), params)

	m.mu.Lock()
	m.records[rec.ID] = rec
	m.mu.Unlock()

	return cloneRecord(rec), nil
}

// Get returns a copy of the record, or ErrNotFound.
func (m *Memory) Get(ctx context.Context, id string) (*report.ReportRecord, error) {
	m.mu.RLock()
	rec, ok := m.records[id]
	m.mu.RUnlock()

	if !ok {
		return nil, ErrNotFound
	}
	return cloneRecord(rec), nil
}

// Update applies a partial update and returns the updated record, or
// ErrNotFound.
func (m *Memory) Update(ctx context.Context, id string, params UpdateParams) (*report.ReportRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	applyUpdate(rec, params)
	return cloneRecord(rec), nil
}

// Put stores a pre-built record under its existing identity. The fallback
// chain uses it to persist last-resort records.
func (m *Memory) Put(rec *report.ReportRecord) {
	m.mu.Lock()
	m.records[rec.ID] = cloneRecord(rec)
	m.mu.Unlock()
}
