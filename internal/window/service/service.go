// Package service owns the window settings lifecycle: lazy creation of the
// singleton with its default schedule, cached reads, and admin updates that
// invalidate the cache.
package service

import (
	"context"
	"log/slog"
	"time"

	"cleargate/internal/window"
	"cleargate/internal/window/cache"
	"cleargate/internal/window/store"
	dErrors "cleargate/pkg/domain-errors"
)

// Service mediates all access to the settings singleton.
type Service struct {
	store  store.SettingsStore
	cache  cache.Cache
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithCache(c cache.Cache) Option {
	return func(s *Service) { s.cache = c }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(settings store.SettingsStore, opts ...Option) *Service {
	s := &Service{
		store:  settings,
		cache:  cache.Noop{},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Current returns the settings, creating the default five-day window when the
// singleton does not exist yet. Cache failures degrade to store reads.
func (s *Service) Current(ctx context.Context) (window.Settings, error) {
	if cached, err := s.cache.Get(ctx); err != nil {
		s.logger.WarnContext(ctx, "window settings cache read failed", "error", err)
	} else if cached != nil {
		return *cached, nil
	}

	settings, err := s.store.Get(ctx)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeNotFound) {
			return window.Settings{}, err
		}
		created := window.DefaultSettings(s.now())
		if err := s.store.Put(ctx, &created); err != nil {
			return window.Settings{}, err
		}
		s.logger.InfoContext(ctx, "window settings initialized with default schedule",
			"start_date", created.StartDate,
			"end_date", created.EndDate,
		)
		settings = &created
	}

	if err := s.cache.Set(ctx, settings); err != nil {
		s.logger.WarnContext(ctx, "window settings cache write failed", "error", err)
	}
	return *settings, nil
}

// Evaluate resolves the current settings and applies the window policy.
func (s *Service) Evaluate(ctx context.Context) (window.Decision, error) {
	settings, err := s.Current(ctx)
	if err != nil {
		return window.Decision{}, err
	}
	return window.Evaluate(settings, s.now()), nil
}

// UpdateRequest carries an admin settings change. Nil fields keep the stored
// value.
type UpdateRequest struct {
	StartDate       *time.Time
	EndDate         *time.Time
	IsActive        *bool
	ManuallyOpened  *bool
	EmergencyClosed *bool
}

// Update applies an admin change and invalidates the cache so the next read
// sees it immediately.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (window.Settings, error) {
	settings, err := s.Current(ctx)
	if err != nil {
		return window.Settings{}, err
	}

	if req.StartDate != nil {
		settings.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		settings.EndDate = *req.EndDate
	}
	if req.IsActive != nil {
		settings.IsActive = *req.IsActive
	}
	if req.ManuallyOpened != nil {
		settings.ManuallyOpened = *req.ManuallyOpened
	}
	if req.EmergencyClosed != nil {
		settings.EmergencyClosed = *req.EmergencyClosed
	}
	if settings.EndDate.Before(settings.StartDate) {
		return window.Settings{}, dErrors.New(dErrors.CodeValidation, "end date must not precede start date")
	}
	settings.UpdatedAt = s.now()

	if err := s.store.Put(ctx, &settings); err != nil {
		return window.Settings{}, err
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.logger.WarnContext(ctx, "window settings cache invalidation failed", "error", err)
	}
	return settings, nil
}
