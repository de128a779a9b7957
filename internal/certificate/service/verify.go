package service

import (
	"context"

	"cleargate/internal/certificate/models"
	clearancemodels "cleargate/internal/clearance/models"
	"cleargate/internal/student"
	dErrors "cleargate/pkg/domain-errors"
)

// VerifyResult is the public verification response. Valid is true only for
// an active, unexpired certificate; NotFound covers both unknown IDs and
// tampered hashes so the response never reveals which half failed.
type VerifyResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`

	Certificate     *models.Certificate            `json:"certificate,omitempty"`
	Student         *student.Student               `json:"student,omitempty"`
	DaysUntilExpiry int                            `json:"days_until_expiry,omitempty"`
	ApprovalHistory []clearancemodels.HistoryEntry `json:"approval_history,omitempty"`
}

// Verify checks a public certificate code. Every successful lookup, valid or
// expired, bumps the verification counter; expiry is applied lazily and
// persisted on first observation.
func (s *Service) Verify(ctx context.Context, code string) (*VerifyResult, error) {
	certificateID, securityHash, err := models.ParseCode(code)
	if err != nil {
		s.metrics.ObserveVerification("malformed")
		return nil, err
	}

	now := s.now()
	cert, err := s.certs.RecordVerification(ctx, certificateID, securityHash, now)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			s.metrics.ObserveVerification("not_found")
			return &VerifyResult{Valid: false, Message: "certificate not found or invalid"}, nil
		}
		return nil, err
	}

	if cert.Status == models.StatusActive && now.After(cert.ExpiryDate) {
		if err := s.certs.MarkExpired(ctx, cert.CertificateID, now.Add(s.retention)); err != nil {
			s.logger.WarnContext(ctx, "persisting lazy expiry failed",
				"certificate_id", cert.CertificateID,
				"error", err,
			)
		}
		cert.Status = models.StatusExpired
	}

	result := &VerifyResult{
		Valid:           cert.Status == models.StatusActive,
		Certificate:     cert,
		DaysUntilExpiry: cert.DaysUntilExpiry(now),
	}
	switch cert.Status {
	case models.StatusActive:
		result.Message = "certificate is valid"
		s.metrics.ObserveVerification("valid")
	case models.StatusExpired:
		result.Message = "certificate has expired"
		s.metrics.ObserveVerification("expired")
	default:
		result.Message = "certificate has been revoked"
		s.metrics.ObserveVerification("revoked")
	}

	// Student snapshot and audit trail are best effort; the certificate
	// itself has already been judged.
	if st, err := s.directory.FindByID(ctx, cert.StudentID); err == nil {
		result.Student = st
	} else {
		s.logger.WarnContext(ctx, "student lookup during verification failed",
			"student_id", cert.StudentID,
			"error", err,
		)
	}
	if rec, err := s.clearance.Get(ctx, cert.StudentID); err == nil {
		result.ApprovalHistory = rec.FilteredHistory()
	} else {
		s.logger.WarnContext(ctx, "clearance history lookup during verification failed",
			"student_id", cert.StudentID,
			"error", err,
		)
	}
	return result, nil
}
