package store

import (
	"context"
	"sync"
	"time"

	"cleargate/internal/certificate/models"
	dErrors "cleargate/pkg/domain-errors"
)

// InMemoryCertificateStore mirrors the Mongo store's semantics for unit
// tests and dev mode.
type InMemoryCertificateStore struct {
	mu    sync.RWMutex
	certs map[string]*models.Certificate
}

func NewInMemory() *InMemoryCertificateStore {
	return &InMemoryCertificateStore{certs: make(map[string]*models.Certificate)}
}

func (s *InMemoryCertificateStore) Create(_ context.Context, cert *models.Certificate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.certs[cert.CertificateID]; exists {
		return dErrors.New(dErrors.CodeConflict, "certificate id already exists")
	}
	cp := *cert
	s.certs[cert.CertificateID] = &cp
	return nil
}

func (s *InMemoryCertificateStore) FindByCode(_ context.Context, certificateID, securityHash string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cert, exists := s.certs[certificateID]
	if !exists || cert.SecurityHash != securityHash {
		return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found or invalid")
	}
	cp := *cert
	return &cp, nil
}

func (s *InMemoryCertificateStore) FindActiveByStudent(_ context.Context, studentID string) (*models.Certificate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var newest *models.Certificate
	for _, cert := range s.certs {
		if cert.StudentID != studentID || cert.Status != models.StatusActive {
			continue
		}
		if newest == nil || cert.IssuedAt.After(newest.IssuedAt) {
			newest = cert
		}
	}
	if newest == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "no active certificate for student")
	}
	cp := *newest
	return &cp, nil
}

func (s *InMemoryCertificateStore) RecordVerification(_ context.Context, certificateID, securityHash string, now time.Time) (*models.Certificate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cert, exists := s.certs[certificateID]
	if !exists || cert.SecurityHash != securityHash {
		return nil, dErrors.New(dErrors.CodeNotFound, "certificate not found or invalid")
	}
	cert.VerificationCount++
	ts := now
	cert.LastVerified = &ts
	cp := *cert
	return &cp, nil
}

func (s *InMemoryCertificateStore) MarkExpired(_ context.Context, certificateID string, retainUntil time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cert, exists := s.certs[certificateID]
	if !exists {
		return dErrors.New(dErrors.CodeNotFound, "certificate not found or invalid")
	}
	// Another verifier may have flipped it already; only active moves.
	if cert.Status == models.StatusActive {
		cert.Status = models.StatusExpired
		cert.RetainUntil = retainUntil
	}
	return nil
}
