// Package models defines the certificate record and the public code format
// printed on issued documents.
package models

import (
	"time"
)

// Status is the certificate lifecycle state. Expiry is applied lazily: a
// verification past the expiry date persists the transition to expired.
type Status string

const (
	StatusActive  Status = "active"
	StatusExpired Status = "expired"
	StatusRevoked Status = "revoked"
)

// Certificate is one issued clearance certificate. A student accumulates a
// new record per issuance; records are never deleted, though storage may
// passively drop them long after expiry.
type Certificate struct {
	// CertificateID doubles as the storage key; uniqueness is the storage
	// layer's constraint and collisions are handled by re-minting.
	CertificateID string `bson:"_id" json:"certificate_id"`
	StudentID     string `bson:"studentId" json:"student_id"`

	// SecurityHash binds student, certificate ID, and the server secret.
	// Without the secret a valid-looking code cannot be fabricated.
	SecurityHash string `bson:"securityHash" json:"-"`

	IssuedAt   time.Time `bson:"issuedAt" json:"issued_at"`
	ExpiryDate time.Time `bson:"expiryDate" json:"expiry_date"`
	Status     Status    `bson:"status" json:"status"`

	VerificationCount int        `bson:"verificationCount" json:"verification_count"`
	LastVerified      *time.Time `bson:"lastVerified,omitempty" json:"last_verified,omitempty"`

	// RetainUntil drives passive TTL removal of long-expired documents.
	RetainUntil time.Time `bson:"retainUntil" json:"-"`
}

// Code is the public verification code: "<certificateId>-<securityHash>".
func (c *Certificate) Code() string {
	return c.CertificateID + "-" + c.SecurityHash
}

// DaysUntilExpiry is the remaining validity in whole days, rounded up.
// Negative or zero once the certificate has expired.
func (c *Certificate) DaysUntilExpiry(now time.Time) int {
	remaining := c.ExpiryDate.Sub(now)
	days := int(remaining / (24 * time.Hour))
	if remaining%(24*time.Hour) > 0 {
		days++
	}
	return days
}
