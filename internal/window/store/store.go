// Package store persists the singleton clearance-window settings document.
package store

import (
	"context"

	"cleargate/internal/window"
)

// SettingsStore is the persistence contract for the settings singleton.
type SettingsStore interface {
	// Get returns the settings, CodeNotFound when none exist yet.
	Get(ctx context.Context) (*window.Settings, error)

	// Put creates or replaces the singleton.
	Put(ctx context.Context, s *window.Settings) error
}
