package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/otron-io/bug-report-autopilot/internal/report"
)

// Fallback composes the remote store and the in-process store into an
// ordered strategy chain: remote first, memory on any remote failure, and
// a minimal synthetic record as the last resort for creates. Once a record
// only lives in memory it stays there; there is no re-sync to the remote
// store. That weak consistency is acceptable for low-stakes, single-instance
// operation.
type Fallback struct {
	remote Storage // nil when the remote store is not configured
	memory *Memory
}

// NewFallback builds the store chain. remote may be nil.
func NewFallback(remote Storage, memory *Memory) *Fallback {
	return &Fallback{remote: remote, memory: memory}
}

// Create persists a new record. It always returns a persisted record: a
// remote failure degrades to memory, and an unexpected memory failure
// degrades to a minimal record with a "fallback-" prefixed identity.
func (f *Fallback) Create(ctx context.Context, params CreateParams) (*report.ReportRecord, error) {
	if f.remote != nil {
		rec, err := f.remote.Create(ctx, params)
		if err == nil {
			return rec, nil
		}
		log.Warn().Err(err).Msg("Remote store create failed, using in-memory store")
	}

	rec, err := f.memory.Create(ctx, params)
	if err == nil {
		return rec, nil
	}
	log.Error().Err(err).Msg("In-memory store create failed, returning minimal record")

	minimal := newRecord(fmt.Sprintf("fallback-%d", time.Now().UnixNano()), params)
	f.memory.Put(minimal)
	return minimal, nil
}

// Get fetches a record, checking the remote store first and the in-memory
// store for anything the remote does not know about.
func (f *Fallback) Get(ctx context.Context, id string) (*report.ReportRecord, error) {
	if f.remote != nil {
		rec, err := f.remote.Get(ctx, id)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Str("id", id).Msg("Remote store get failed, checking in-memory store")
		}
	}
	return f.memory.Get(ctx, id)
}

// Update applies a partial update wherever the record lives.
func (f *Fallback) Update(ctx context.Context, id string, params UpdateParams) (*report.ReportRecord, error) {
	if f.remote != nil {
		rec, err := f.remote.Update(ctx, id, params)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, ErrNotFound) {
			log.Warn().Err(err).Str("id", id).Msg("Remote store update failed, checking in-memory store")
		}
	}
	return f.memory.Update(ctx, id, params)
}
