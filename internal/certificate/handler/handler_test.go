package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"cleargate/internal/certificate/pdf"
	certservice "cleargate/internal/certificate/service"
	certstore "cleargate/internal/certificate/store"
	clearancemodels "cleargate/internal/clearance/models"
	clearanceservice "cleargate/internal/clearance/service"
	clearancestore "cleargate/internal/clearance/store"
	"cleargate/internal/student"
	"cleargate/internal/window"
)

type openGate struct{}

func (openGate) Evaluate(context.Context) (window.Decision, error) {
	return window.Decision{Open: true, Kind: window.KindScheduled}, nil
}

// CertificateHandlerSuite drives issuance and verification through the router
// with real in-memory stores and the real PDF renderer.
type CertificateHandlerSuite struct {
	suite.Suite
	router    chi.Router
	clearance *clearanceservice.Service
}

func (s *CertificateHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	s.clearance = clearanceservice.New(clearancestore.NewInMemory(), openGate{},
		clearanceservice.WithLogger(logger))

	directory := student.NewInMemoryDirectory()
	directory.Add(student.Student{
		InternalID:  primitive.NewObjectID(),
		StudentID:   "ETS0101/14",
		DisplayName: "Almaz Tesfaye",
		Email:       "almaz@example.edu",
		Department:  "Software Engineering",
		Year:        5,
	})

	certs := certservice.New(
		certstore.NewInMemory(),
		s.clearance,
		directory,
		pdf.NewRenderer("Mekdela Amba University", "https://clearance.example.edu"),
		"handler-test-secret",
		certservice.WithLogger(logger),
	)

	s.router = chi.NewRouter()
	New(certs, logger).Register(s.router)
}

func TestCertificateHandlerSuite(t *testing.T) {
	suite.Run(t, new(CertificateHandlerSuite))
}

func (s *CertificateHandlerSuite) approveAll(studentID string) {
	ctx := context.Background()
	_, err := s.clearance.Start(ctx, studentID)
	s.Require().NoError(err)
	for _, section := range clearancemodels.Sections() {
		_, err := s.clearance.UpdateSection(ctx, studentID,
			section, clearancemodels.StatusCleared, "Officer", "")
		s.Require().NoError(err)
	}
}

func (s *CertificateHandlerSuite) issue(studentID string) *httptest.ResponseRecorder {
	body, err := json.Marshal(map[string]string{"student_id": studentID})
	s.Require().NoError(err)
	req := httptest.NewRequest(http.MethodPost, "/certificates/issue", bytes.NewReader(body))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// =========================================================================
// Issuance
// =========================================================================

func (s *CertificateHandlerSuite) TestIssue() {
	s.Run("approved student downloads a pdf", func() {
		s.approveAll("ETS0101/14")

		w := s.issue("ETS0101/14")
		s.Equal(http.StatusOK, w.Code)
		s.Equal("application/pdf", w.Header().Get("Content-Type"))
		s.True(bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))
		s.Regexp(`^MAU-CERT-\d{8}-[A-Z0-9]{6}-[A-F0-9]{8}$`, w.Header().Get("X-Certificate-Code"))
	})

	s.Run("pending clearance is refused", func() {
		ctx := context.Background()
		_, err := s.clearance.Start(ctx, "ETS0202/14")
		s.Require().NoError(err)

		w := s.issue("ETS0202/14")
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("unknown student is not found", func() {
		w := s.issue("ETS9999/99")
		s.Equal(http.StatusNotFound, w.Code)
	})
}

// =========================================================================
// Verification
// =========================================================================

func (s *CertificateHandlerSuite) TestVerify() {
	s.approveAll("ETS0101/14")
	code := s.issue("ETS0101/14").Header().Get("X-Certificate-Code")
	s.Require().NotEmpty(code)

	s.Run("issued certificate verifies", func() {
		req := httptest.NewRequest(http.MethodGet, "/verify/"+code, nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusOK, w.Code)

		var resp map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(true, resp["valid"])
		st := resp["student"].(map[string]any)
		s.Equal("Almaz Tesfaye", st["display_name"])
	})

	s.Run("unknown code reports invalid without leaking details", func() {
		req := httptest.NewRequest(http.MethodGet, "/verify/MAU-CERT-20260101-ABCDEF-DEADBEEF", nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusOK, w.Code)

		var resp map[string]any
		s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
		s.Equal(false, resp["valid"])
	})

	s.Run("malformed code is a validation error", func() {
		req := httptest.NewRequest(http.MethodGet, "/verify/garbage", nil)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}
