// Package store persists certificate records. The storage layer owns the
// certificateId uniqueness constraint and the passive TTL removal of
// long-expired documents.
package store

import (
	"context"
	"time"

	"cleargate/internal/certificate/models"
)

// CertificateStore is the persistence contract for certificates.
type CertificateStore interface {
	// Create inserts a new certificate. Returns CodeConflict when the ID is
	// already taken; the issuer re-mints and retries.
	Create(ctx context.Context, cert *models.Certificate) error

	// FindByCode matches on the exact (certificateId, securityHash) pair.
	// A mismatch on either half is the same CodeNotFound, so callers learn
	// nothing about which half failed.
	FindByCode(ctx context.Context, certificateID, securityHash string) (*models.Certificate, error)

	// FindActiveByStudent returns the student's newest active certificate,
	// CodeNotFound when there is none. Supports re-rendering without
	// re-minting.
	FindActiveByStudent(ctx context.Context, studentID string) (*models.Certificate, error)

	// RecordVerification increments the verification counter and stamps
	// lastVerified for the matching certificate, returning the updated
	// document. CodeNotFound when the pair does not match.
	RecordVerification(ctx context.Context, certificateID, securityHash string, now time.Time) (*models.Certificate, error)

	// MarkExpired persists the lazy active->expired transition and schedules
	// retention cleanup.
	MarkExpired(ctx context.Context, certificateID string, retainUntil time.Time) error
}
