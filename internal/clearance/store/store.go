// Package store persists clearance records. Implementations must provide
// whole-document atomicity: Update replaces the full record only when the
// stored version still matches, so two concurrent section updates can never
// derive the overall status from stale sibling values.
package store

import (
	"context"

	"cleargate/internal/clearance/models"
)

// RecordStore is the persistence contract for clearance records.
type RecordStore interface {
	// Create inserts a new record. Returns CodeConflict when the student
	// already has one.
	Create(ctx context.Context, rec *models.ClearanceRecord) error

	// FindByStudent returns the record for a student, CodeNotFound when
	// absent.
	FindByStudent(ctx context.Context, studentID string) (*models.ClearanceRecord, error)

	// Update replaces the whole document if the stored version equals
	// rec.Version, then increments the version. Returns CodeConflict when
	// another writer got there first; callers re-read and retry.
	Update(ctx context.Context, rec *models.ClearanceRecord) error
}
