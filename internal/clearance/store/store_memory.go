package store

import (
	"context"
	"sync"

	"cleargate/internal/clearance/models"
	dErrors "cleargate/pkg/domain-errors"
)

// InMemoryRecordStore keeps records in a map with the same compare-and-set
// semantics as the Mongo store. Used by unit tests and dev mode.
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records map[string]*models.ClearanceRecord
}

func NewInMemory() *InMemoryRecordStore {
	return &InMemoryRecordStore{records: make(map[string]*models.ClearanceRecord)}
}

func (s *InMemoryRecordStore) Create(_ context.Context, rec *models.ClearanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.StudentID]; exists {
		return dErrors.New(dErrors.CodeConflict, "clearance record already exists for student")
	}
	cp := rec.Clone()
	cp.Version = 1
	s.records[rec.StudentID] = cp
	rec.Version = 1
	return nil
}

func (s *InMemoryRecordStore) FindByStudent(_ context.Context, studentID string) (*models.ClearanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[studentID]
	if !exists {
		return nil, dErrors.New(dErrors.CodeNotFound, "no clearance record for student")
	}
	return rec.Clone(), nil
}

func (s *InMemoryRecordStore) Update(_ context.Context, rec *models.ClearanceRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.records[rec.StudentID]
	if !exists {
		return dErrors.New(dErrors.CodeNotFound, "no clearance record for student")
	}
	if current.Version != rec.Version {
		return dErrors.New(dErrors.CodeConflict, "clearance record modified concurrently")
	}
	cp := rec.Clone()
	cp.Version = rec.Version + 1
	s.records[rec.StudentID] = cp
	rec.Version = cp.Version
	return nil
}
