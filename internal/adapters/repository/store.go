// Package repository stores tally records by election id.
package repository

import (
	"context"

	"github.com/okian/consensus/internal/domain/model"
)

// Store provides read/write access to tally records.
type Store interface {
	// Save inserts or replaces the record for t.ElectionID. A pending record
	// never replaces a settled (completed or failed) one.
	Save(ctx context.Context, t model.Tally) error

	// Get returns the record for id, or ErrNotFound.
	Get(ctx context.Context, id string) (model.Tally, error)

	// Delete removes the record for id. Unknown ids are not an error.
	Delete(ctx context.Context, id string) error

	// Count returns the number of records held.
	Count(ctx context.Context) int

	// CountByStatus returns the number of records per status.
	CountByStatus(ctx context.Context) map[model.Status]int
}
