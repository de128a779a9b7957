package store

import (
	"context"
	"sync"

	"cleargate/internal/window"
	dErrors "cleargate/pkg/domain-errors"
)

// InMemorySettingsStore holds the singleton in memory for tests and dev mode.
type InMemorySettingsStore struct {
	mu       sync.RWMutex
	settings *window.Settings
}

func NewInMemory() *InMemorySettingsStore {
	return &InMemorySettingsStore{}
}

func (s *InMemorySettingsStore) Get(_ context.Context) (*window.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, dErrors.New(dErrors.CodeNotFound, "window settings not initialized")
	}
	cp := *s.settings
	return &cp, nil
}

func (s *InMemorySettingsStore) Put(_ context.Context, settings *window.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *settings
	s.settings = &cp
	return nil
}
