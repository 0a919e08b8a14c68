package store

import (
	"context"

	"github.com/harborops/opsdash/internal/model"
)

// KV is the durable string key-value interface the notification engine
// persists through. Implementations must treat missing keys as
// (found=false, err=nil); a corrupt backing store should surface an
// error so callers can degrade to an empty default.
type KV interface {
	// Get returns the value stored under key. found is false when the
	// key has never been set or was removed.
	Get(ctx context.Context, key string) (value string, found bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes the key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// ProgrammingFilter controls filtering for programming record queries.
type ProgrammingFilter struct {
	Status *string
	Limit  int
}

// ProgrammingStore is the read/write surface for the externally-owned
// programming table. The alert engine only reads it; the upsert path
// exists for the planning module and for tests.
type ProgrammingStore interface {
	UpsertProgramming(ctx context.Context, records []model.ProgrammingRecord) error
	GetProgramming(ctx context.Context, filter ProgrammingFilter) ([]model.ProgrammingRecord, error)
}
