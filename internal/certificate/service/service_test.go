package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cleargate/internal/certificate/models"
	"cleargate/internal/certificate/store"
	clearancemodels "cleargate/internal/clearance/models"
	"cleargate/internal/student"
	dErrors "cleargate/pkg/domain-errors"
)

// fakeClearance serves canned clearance records.
type fakeClearance struct {
	records map[string]*clearancemodels.ClearanceRecord
}

func (f *fakeClearance) Get(_ context.Context, studentID string) (*clearancemodels.ClearanceRecord, error) {
	rec, ok := f.records[studentID]
	if !ok {
		return nil, dErrors.New(dErrors.CodeNotFound, "no clearance record for student")
	}
	return rec, nil
}

// fakeRenderer returns fixed bytes, or fails on demand to exercise the
// persisted-but-unrendered path.
type fakeRenderer struct {
	fail     bool
	rendered int
}

func (f *fakeRenderer) Render(*models.Certificate, *student.Student) ([]byte, error) {
	if f.fail {
		return nil, dErrors.New(dErrors.CodeInternal, "renderer exploded")
	}
	f.rendered++
	return []byte("%PDF-fake"), nil
}

type CertificateServiceSuite struct {
	suite.Suite
	certs     *store.InMemoryCertificateStore
	clearance *fakeClearance
	directory *student.InMemoryDirectory
	renderer  *fakeRenderer
	service   *Service
	now       time.Time
}

func TestCertificateServiceSuite(t *testing.T) {
	suite.Run(t, new(CertificateServiceSuite))
}

func (s *CertificateServiceSuite) SetupTest() {
	s.certs = store.NewInMemory()
	s.clearance = &fakeClearance{records: make(map[string]*clearancemodels.ClearanceRecord)}
	s.directory = student.NewInMemoryDirectory()
	s.renderer = &fakeRenderer{}
	s.now = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	s.service = New(s.certs, s.clearance, s.directory, s.renderer, "server-secret",
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithClock(func() time.Time { return s.now }),
	)

	s.directory.Add(student.Student{
		InternalID:  primitive.NewObjectID(),
		StudentID:   "ETS0042/14",
		DisplayName: "Abel Kebede",
		Email:       "abel@example.edu",
		Department:  "Software Engineering",
		Year:        5,
	})
	s.addRecord("ETS0042/14", true)
}

func (s *CertificateServiceSuite) addRecord(studentID string, approved bool) {
	rec := clearancemodels.NewClearanceRecord(studentID, s.now.Add(-48*time.Hour))
	if approved {
		for _, sec := range clearancemodels.Sections() {
			rec.ApplySection(sec, clearancemodels.StatusCleared, "staff-1", "", "e-"+string(sec), s.now.Add(-24*time.Hour))
		}
	}
	s.clearance.records[studentID] = rec
}

// =============================================================================
// Issue
// =============================================================================

func (s *CertificateServiceSuite) TestIssue() {
	ctx := context.Background()

	s.Run("approved student gets a rendered certificate", func() {
		res, err := s.service.Issue(ctx, "ETS0042/14")
		s.Require().NoError(err)
		s.NotEmpty(res.Document)

		cert := res.Certificate
		s.Regexp(`^MAU-CERT-20260310-[A-Z0-9]{6}$`, cert.CertificateID)
		s.Regexp(`^[A-F0-9]{8}$`, cert.SecurityHash)
		s.Equal(models.StatusActive, cert.Status)
		s.Equal(s.now.AddDate(0, 1, 0), cert.ExpiryDate)
	})

	s.Run("second issue re-renders the same certificate", func() {
		first, err := s.service.Issue(ctx, "ETS0042/14")
		s.Require().NoError(err)
		second, err := s.service.Issue(ctx, "ETS0042/14")
		s.Require().NoError(err)
		s.Equal(first.Certificate.CertificateID, second.Certificate.CertificateID)
	})
}

func (s *CertificateServiceSuite) TestIssuePreconditions() {
	ctx := context.Background()

	s.Run("unapproved clearance fails with pending sections", func() {
		s.addRecord("ETS0100/14", false)
		_, err := s.service.Issue(ctx, "ETS0100/14")
		s.Require().True(dErrors.HasCode(err, dErrors.CodePreconditionFailed))

		var de *dErrors.Error
		s.Require().ErrorAs(err, &de)
		s.Equal("pending", de.Details["overall_status"])
		s.Len(de.Details["pending_sections"], 6)

		// Precondition failures must not persist anything.
		_, err = s.certs.FindActiveByStudent(ctx, "ETS0100/14")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("missing clearance record fails", func() {
		_, err := s.service.Issue(ctx, "ETS0999/14")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CertificateServiceSuite) TestIssueRenderFailureKeepsRecord() {
	ctx := context.Background()
	s.renderer.fail = true

	_, err := s.service.Issue(ctx, "ETS0042/14")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeInternal))

	// The record survived; a retry re-renders it without a new ID.
	persisted, err := s.certs.FindActiveByStudent(ctx, "ETS0042/14")
	s.Require().NoError(err)

	s.renderer.fail = false
	res, err := s.service.Issue(ctx, "ETS0042/14")
	s.Require().NoError(err)
	s.Equal(persisted.CertificateID, res.Certificate.CertificateID)
}

// =============================================================================
// Verify
// =============================================================================

func (s *CertificateServiceSuite) TestVerify() {
	ctx := context.Background()
	res, err := s.service.Issue(ctx, "ETS0042/14")
	s.Require().NoError(err)
	code := res.Certificate.Code()

	s.Run("fresh certificate verifies valid with about a month left", func() {
		v, err := s.service.Verify(ctx, code)
		s.Require().NoError(err)
		s.True(v.Valid)
		s.InDelta(30, v.DaysUntilExpiry, 2)
		s.Equal("Abel Kebede", v.Student.DisplayName)
		s.Len(v.ApprovalHistory, 6)
		s.Equal(1, v.Certificate.VerificationCount)
	})

	s.Run("history is newest-first and placeholder-free", func() {
		rec := s.clearance.records["ETS0042/14"]
		rec.History = append([]clearancemodels.HistoryEntry{
			{ID: "ph", Section: clearancemodels.SectionLibrary, Approver: "System", Status: clearancemodels.StatusPending},
		}, rec.History...)

		v, err := s.service.Verify(ctx, code)
		s.Require().NoError(err)
		s.Len(v.ApprovalHistory, 6)
		s.Equal("e-cafeteria", v.ApprovalHistory[0].ID)
	})

	s.Run("wrong hash is indistinguishable from unknown id", func() {
		v, err := s.service.Verify(ctx, res.Certificate.CertificateID+"-FFFFFFFF")
		s.Require().NoError(err)
		s.False(v.Valid)
		s.Equal("certificate not found or invalid", v.Message)
		s.Nil(v.Certificate)

		v2, err := s.service.Verify(ctx, "MAU-CERT-20260310-ZZZZZZ-"+res.Certificate.SecurityHash)
		s.Require().NoError(err)
		s.Equal(v.Message, v2.Message)
	})

	s.Run("malformed code is a validation error", func() {
		_, err := s.service.Verify(ctx, "garbage")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("counter climbs on every successful lookup", func() {
		before, err := s.certs.FindByCode(ctx, res.Certificate.CertificateID, res.Certificate.SecurityHash)
		s.Require().NoError(err)

		v, err := s.service.Verify(ctx, code)
		s.Require().NoError(err)
		s.Equal(before.VerificationCount+1, v.Certificate.VerificationCount)
		s.NotNil(v.Certificate.LastVerified)
	})
}

func (s *CertificateServiceSuite) TestVerifyLazyExpiry() {
	ctx := context.Background()
	res, err := s.service.Issue(ctx, "ETS0042/14")
	s.Require().NoError(err)
	code := res.Certificate.Code()

	// Jump past the expiry date.
	s.now = s.now.AddDate(0, 1, 0).Add(time.Hour)

	v, err := s.service.Verify(ctx, code)
	s.Require().NoError(err)
	s.False(v.Valid)
	s.Equal(models.StatusExpired, v.Certificate.Status)
	s.LessOrEqual(v.DaysUntilExpiry, 0)

	// The transition is persisted, and a second verification neither fails
	// nor re-flips anything.
	stored, err := s.certs.FindByCode(ctx, res.Certificate.CertificateID, res.Certificate.SecurityHash)
	s.Require().NoError(err)
	s.Equal(models.StatusExpired, stored.Status)

	v2, err := s.service.Verify(ctx, code)
	s.Require().NoError(err)
	s.False(v2.Valid)
	s.Equal(2, v2.Certificate.VerificationCount)
}
