// Package service issues and verifies clearance certificates. Issuance is
// gated on a fully approved clearance record; verification is public and
// anchored on the keyed security hash rather than access control.
package service

import (
	"context"
	"log/slog"
	"time"

	"cleargate/internal/certificate/metrics"
	"cleargate/internal/certificate/models"
	"cleargate/internal/certificate/store"
	clearancemodels "cleargate/internal/clearance/models"
	"cleargate/internal/student"
	dErrors "cleargate/pkg/domain-errors"
)

// mintRetries bounds the re-mint loop on certificate ID collisions.
const mintRetries = 5

// validity is the fixed certificate lifetime: one calendar month.
const validityMonths = 1

// ClearanceReader is the slice of the aggregation engine the issuer and
// verifier need.
type ClearanceReader interface {
	Get(ctx context.Context, studentID string) (*clearancemodels.ClearanceRecord, error)
}

// Renderer produces the downloadable certificate document.
type Renderer interface {
	Render(cert *models.Certificate, st *student.Student) ([]byte, error)
}

// Service implements certificate issuance and verification.
type Service struct {
	certs     store.CertificateStore
	clearance ClearanceReader
	directory student.Directory
	renderer  Renderer
	secret    string
	retention time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRetention overrides how long expired certificate documents are kept
// before passive removal.
func WithRetention(d time.Duration) Option {
	return func(s *Service) { s.retention = d }
}

// New constructs a Service. The secret keys every security hash; rotating it
// invalidates all outstanding codes.
func New(certs store.CertificateStore, clearance ClearanceReader, directory student.Directory, renderer Renderer, secret string, opts ...Option) *Service {
	s := &Service{
		certs:     certs,
		clearance: clearance,
		directory: directory,
		renderer:  renderer,
		secret:    secret,
		retention: 365 * 24 * time.Hour,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssueResult is the outcome of a successful issuance.
type IssueResult struct {
	Certificate *models.Certificate
	Document    []byte
}

// Issue generates (or re-renders) the certificate for a fully approved
// student. If rendering fails after the record is persisted, the record
// survives and a retry re-renders it without minting a new ID.
func (s *Service) Issue(ctx context.Context, studentID string) (*IssueResult, error) {
	rec, err := s.clearance.Get(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if rec.Overall != clearancemodels.OverallApproved {
		return nil, dErrors.New(dErrors.CodePreconditionFailed, "clearance is not fully approved").
			With("overall_status", string(rec.Overall)).
			With("pending_sections", pendingSections(rec))
	}

	st, err := s.directory.FindByID(ctx, studentID)
	if err != nil {
		return nil, err
	}

	cert, err := s.certs.FindActiveByStudent(ctx, studentID)
	switch {
	case err == nil && s.now().Before(cert.ExpiryDate):
		// An unexpired certificate exists; re-render instead of re-minting.
	case err != nil && !dErrors.HasCode(err, dErrors.CodeNotFound):
		return nil, err
	default:
		cert, err = s.mint(ctx, st)
		if err != nil {
			return nil, err
		}
		s.metrics.IncrementIssued()
		s.logger.InfoContext(ctx, "certificate issued",
			"student_id", studentID,
			"certificate_id", cert.CertificateID,
			"expiry_date", cert.ExpiryDate,
		)
	}

	doc, err := s.renderer.Render(cert, st)
	if err != nil {
		// The certificate record is already persisted; the caller retries
		// rendering with the same ID.
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "certificate stored but rendering failed").
			With("certificate_id", cert.CertificateID)
	}
	return &IssueResult{Certificate: cert, Document: doc}, nil
}

// mint creates and persists a fresh certificate, regenerating the ID when
// storage reports a collision.
func (s *Service) mint(ctx context.Context, st *student.Student) (*models.Certificate, error) {
	now := s.now()
	for attempt := 0; attempt < mintRetries; attempt++ {
		id, err := models.NewCertificateID(now)
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "mint certificate id")
		}
		cert := &models.Certificate{
			CertificateID: id,
			StudentID:     st.StudentID,
			SecurityHash:  models.SecurityHash(st.InternalID.Hex(), id, s.secret),
			IssuedAt:      now,
			ExpiryDate:    now.AddDate(0, validityMonths, 0),
			Status:        models.StatusActive,
			RetainUntil:   now.AddDate(0, validityMonths, 0).Add(s.retention),
		}
		err = s.certs.Create(ctx, cert)
		if err == nil {
			return cert, nil
		}
		if !dErrors.HasCode(err, dErrors.CodeConflict) {
			return nil, err
		}
		s.metrics.IncrementIDCollisions()
	}
	return nil, dErrors.New(dErrors.CodeInternal, "exhausted certificate id attempts")
}

func pendingSections(rec *clearancemodels.ClearanceRecord) []string {
	var out []string
	for _, sec := range clearancemodels.Sections() {
		if rec.Sections[sec].Status != clearancemodels.StatusCleared {
			out = append(out, string(sec))
		}
	}
	return out
}
