// Package source exposes the externally-owned programming collection
// to the alert engine.
package source

import (
	"context"

	"github.com/harborops/opsdash/internal/model"
	"github.com/harborops/opsdash/internal/store"
)

// ProgrammingSource is the boundary the scheduler pulls scheduled
// items through. The scheduler only processes once Loading reports
// false and List returns a non-empty slice.
type ProgrammingSource interface {
	// List returns the current programming records.
	List(ctx context.Context) ([]model.ProgrammingRecord, error)

	// Loading reports whether the underlying collection is still being
	// fetched.
	Loading() bool
}

// StoreSource serves programming records from the local store, where
// the planning module writes them.
type StoreSource struct {
	store store.ProgrammingStore
}

// NewStoreSource creates a source backed by the given store.
func NewStoreSource(s store.ProgrammingStore) *StoreSource {
	return &StoreSource{store: s}
}

// List returns every programming record in the store.
func (s *StoreSource) List(ctx context.Context) ([]model.ProgrammingRecord, error) {
	return s.store.GetProgramming(ctx, store.ProgrammingFilter{})
}

// Loading always reports false: the local store is available as soon
// as the process starts.
func (s *StoreSource) Loading() bool {
	return false
}

// StaticSource serves a fixed record slice; used in tests and by hosts
// that fetch programming themselves.
type StaticSource struct {
	Records   []model.ProgrammingRecord
	IsLoading bool
}

// List returns the fixed record slice.
func (s *StaticSource) List(_ context.Context) ([]model.ProgrammingRecord, error) {
	return s.Records, nil
}

// Loading reports the configured loading flag.
func (s *StaticSource) Loading() bool {
	return s.IsLoading
}
