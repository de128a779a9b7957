// Package service is the aggregation engine: it applies staff section
// decisions to clearance records, keeps the derived overall status consistent
// with every write, and dispatches notifications on terminal transitions.
package service

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"cleargate/internal/clearance/metrics"
	"cleargate/internal/clearance/models"
	"cleargate/internal/clearance/store"
	"cleargate/internal/window"
	dErrors "cleargate/pkg/domain-errors"
	pstrings "cleargate/pkg/platform/strings"
)

// casRetries bounds the re-read/retry loop when concurrent writers race on
// the same record.
const casRetries = 5

// bulkConcurrency bounds how many records a bulk update touches at once.
const bulkConcurrency = 8

// WindowGate decides whether new clearance processes may start. Implemented
// by the window service; the policy itself stays a pure function.
type WindowGate interface {
	Evaluate(ctx context.Context) (window.Decision, error)
}

// Notifier receives terminal overall-status transitions. Implementations
// must be cheap to call; the service invokes them asynchronously and only
// logs their failures.
type Notifier interface {
	StatusChanged(ctx context.Context, studentID, newStatus string) error
}

// Service coordinates clearance record lifecycle and section updates.
type Service struct {
	records  store.RecordStore
	gate     WindowGate
	notifier Notifier
	logger   *slog.Logger
	metrics  *metrics.Metrics
	now      func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New constructs a Service.
func New(records store.RecordStore, gate WindowGate, opts ...Option) *Service {
	s := &Service{
		records: records,
		gate:    gate,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins a clearance process for a student. The window policy gates
// creation; a closed window fails with the reason and relevant dates so the
// caller can tell the student when to retry.
func (s *Service) Start(ctx context.Context, studentID string) (*models.ClearanceRecord, error) {
	if studentID == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "student id is required")
	}

	decision, err := s.gate.Evaluate(ctx)
	if err != nil {
		return nil, err
	}
	if !decision.Open {
		err := dErrors.New(dErrors.CodePreconditionFailed, decision.Reason).
			With("kind", string(decision.Kind))
		if decision.OpensIn > 0 {
			err = err.With("opens_at", s.now().Add(decision.OpensIn))
		}
		return nil, err
	}

	rec := models.NewClearanceRecord(studentID, s.now())
	if err := s.records.Create(ctx, rec); err != nil {
		return nil, err
	}
	s.metrics.IncrementClearancesStarted()
	s.logger.InfoContext(ctx, "clearance started", "student_id", studentID)
	return rec, nil
}

// Get returns a student's clearance record.
func (s *Service) Get(ctx context.Context, studentID string) (*models.ClearanceRecord, error) {
	return s.records.FindByStudent(ctx, studentID)
}

// UpdateSection applies one staff decision. The record is read once, mutated
// in memory (section state, history entry, recomputed overall status), and
// persisted as a single compare-and-set write; the before/after comparison
// that drives notification happens on the in-memory states, never via a
// second read.
func (s *Service) UpdateSection(ctx context.Context, studentID string, section models.Section, status models.SectionStatus, approver, reason string) (*models.ClearanceRecord, error) {
	if _, err := models.ParseSection(string(section)); err != nil {
		return nil, err
	}
	if _, err := models.ParseSectionStatus(string(status)); err != nil {
		return nil, err
	}
	if approver == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "approver identity is required")
	}

	var rec *models.ClearanceRecord
	var before, after models.OverallStatus

	for attempt := 0; ; attempt++ {
		var err error
		rec, err = s.records.FindByStudent(ctx, studentID)
		if err != nil {
			return nil, err
		}

		before, after = rec.ApplySection(section, status, approver, reason, uuid.NewString(), s.now())

		err = s.records.Update(ctx, rec)
		if err == nil {
			break
		}
		if !dErrors.HasCode(err, dErrors.CodeConflict) || attempt+1 >= casRetries {
			return nil, err
		}
		// Lost the race; re-read and reapply against fresh sibling values.
	}

	s.metrics.ObserveSectionUpdate(string(section), string(status))
	s.logger.InfoContext(ctx, "section updated",
		"student_id", studentID,
		"section", section,
		"status", status,
		"approver", approver,
		"overall", after,
	)

	if before != after && after.IsTerminal() {
		s.metrics.ObserveTerminalTransition(string(after))
		s.dispatchNotice(ctx, studentID, after)
	}
	return rec, nil
}

// dispatchNotice hands the transition to the notifier without letting
// delivery block or fail the update that caused it.
func (s *Service) dispatchNotice(ctx context.Context, studentID string, status models.OverallStatus) {
	if s.notifier == nil {
		return
	}
	// Detached from the request context: the update already succeeded, and a
	// cancelled request must not cancel the notice.
	noticeCtx := context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(noticeCtx, 10*time.Second)
		defer cancel()
		if err := s.notifier.StatusChanged(ctx, studentID, string(status)); err != nil {
			s.logger.ErrorContext(ctx, "status change notification failed",
				"student_id", studentID,
				"status", status,
				"error", err,
			)
		}
	}()
}

// BulkResult reports the per-record outcome of a bulk section update.
type BulkResult struct {
	Updated  int               `json:"updated"`
	Failed   int               `json:"failed"`
	Failures map[string]string `json:"failures,omitempty"`
}

// BulkUpdateSection applies the same decision across many students. Every
// record goes through the normal atomic update path independently; one
// failure never aborts the rest.
func (s *Service) BulkUpdateSection(ctx context.Context, studentIDs []string, section models.Section, status models.SectionStatus, approver, reason string) (*BulkResult, error) {
	studentIDs = pstrings.DedupeAndTrim(studentIDs)
	if len(studentIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "student ids must not be empty")
	}
	if _, err := models.ParseSection(string(section)); err != nil {
		return nil, err
	}
	if _, err := models.ParseSectionStatus(string(status)); err != nil {
		return nil, err
	}

	var mu sync.Mutex
	result := &BulkResult{Failures: make(map[string]string)}

	g := &errgroup.Group{}
	g.SetLimit(bulkConcurrency)
	for _, studentID := range studentIDs {
		g.Go(func() error {
			_, err := s.UpdateSection(ctx, studentID, section, status, approver, reason)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				result.Failures[studentID] = err.Error()
				s.metrics.ObserveBulkRecord("failure")
				return nil
			}
			result.Updated++
			s.metrics.ObserveBulkRecord("success")
			return nil
		})
	}
	_ = g.Wait()

	if result.Failed > 0 {
		failed := make([]string, 0, len(result.Failures))
		for id := range result.Failures {
			failed = append(failed, id)
		}
		sort.Strings(failed)
		s.logger.WarnContext(ctx, "bulk section update completed with failures",
			"section", section,
			"updated", result.Updated,
			"failed", failed,
		)
	}
	return result, nil
}
