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

	"cleargate/internal/clearance/service"
	"cleargate/internal/clearance/store"
	"cleargate/internal/window"
)

type openGate struct {
	decision window.Decision
}

func (g openGate) Evaluate(context.Context) (window.Decision, error) {
	return g.decision, nil
}

type ClearanceHandlerSuite struct {
	suite.Suite
	router chi.Router
	gate   *openGate
}

func (s *ClearanceHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.gate = &openGate{decision: window.Decision{Open: true, Kind: window.KindScheduled}}
	svc := service.New(store.NewInMemory(), s.gate, service.WithLogger(logger))

	s.router = chi.NewRouter()
	New(svc, logger).Register(s.router)
}

func TestClearanceHandlerSuite(t *testing.T) {
	suite.Run(t, new(ClearanceHandlerSuite))
}

func (s *ClearanceHandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *ClearanceHandlerSuite) decode(w *httptest.ResponseRecorder) map[string]any {
	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

// =========================================================================
// Starting clearance
// =========================================================================

func (s *ClearanceHandlerSuite) TestStart() {
	s.Run("creates a pending record", func() {
		w := s.do(http.MethodPost, "/clearance/start", map[string]string{"student_id": "ETS0001/14"})
		s.Equal(http.StatusCreated, w.Code)

		resp := s.decode(w)
		s.Equal("ETS0001/14", resp["student_id"])
		s.Equal("pending", resp["overall_status"])
		sections := resp["sections"].(map[string]any)
		s.Len(sections, 6)
		for _, state := range sections {
			s.Equal("pending", state.(map[string]any)["status"])
		}
	})

	s.Run("duplicate start conflicts", func() {
		w := s.do(http.MethodPost, "/clearance/start", map[string]string{"student_id": "ETS0001/14"})
		s.Equal(http.StatusConflict, w.Code)
	})

	s.Run("closed window is a precondition failure", func() {
		s.gate.decision = window.Decision{Open: false, Kind: window.KindEmergency, Reason: "clearance system closed by emergency action"}
		w := s.do(http.MethodPost, "/clearance/start", map[string]string{"student_id": "ETS0999/14"})
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})

	s.Run("malformed body is a bad request", func() {
		req := httptest.NewRequest(http.MethodPost, "/clearance/start", bytes.NewReader([]byte("{")))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})

	s.Run("non-json content type is rejected", func() {
		req := httptest.NewRequest(http.MethodPost, "/clearance/start", bytes.NewReader([]byte("student")))
		req.Header.Set("Content-Type", "text/plain")
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusUnsupportedMediaType, w.Code)
	})
}

// =========================================================================
// Reading and updating sections
// =========================================================================

func (s *ClearanceHandlerSuite) TestGet() {
	s.do(http.MethodPost, "/clearance/start", map[string]string{"student_id": "ETS2000/15"})

	s.Run("returns the record", func() {
		w := s.do(http.MethodGet, "/clearance/ETS2000%2F15", nil)
		s.Equal(http.StatusOK, w.Code)
		s.Equal("ETS2000/15", s.decode(w)["student_id"])
	})

	s.Run("unknown student is not found", func() {
		w := s.do(http.MethodGet, "/clearance/ETS0000%2F00", nil)
		s.Equal(http.StatusNotFound, w.Code)
	})
}

func (s *ClearanceHandlerSuite) TestUpdateSection() {
	s.do(http.MethodPost, "/clearance/start", map[string]string{"student_id": "ETS3000/15"})

	s.Run("clears a section", func() {
		w := s.do(http.MethodPost, "/clearance/ETS3000%2F15/sections/library",
			map[string]string{"status": "cleared", "approver": "Head Librarian"})
		s.Equal(http.StatusOK, w.Code)

		resp := s.decode(w)
		sections := resp["sections"].(map[string]any)
		s.Equal("cleared", sections["library"].(map[string]any)["status"])
		history := resp["approval_history"].([]any)
		s.Require().Len(history, 1)
		s.Equal("Head Librarian", history[0].(map[string]any)["approver"])
	})

	s.Run("rejection stores the reason and rejects overall", func() {
		w := s.do(http.MethodPost, "/clearance/ETS3000%2F15/sections/finance",
			map[string]string{"status": "rejected", "approver": "Finance Officer", "reason": "unpaid dormitory fees"})
		s.Equal(http.StatusOK, w.Code)

		resp := s.decode(w)
		s.Equal("rejected", resp["overall_status"])
		sections := resp["sections"].(map[string]any)
		s.Equal("unpaid dormitory fees", sections["finance"].(map[string]any)["reason"])
	})

	s.Run("unknown section is a validation error", func() {
		w := s.do(http.MethodPost, "/clearance/ETS3000%2F15/sections/gymnasium",
			map[string]string{"status": "cleared", "approver": "Coach"})
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *ClearanceHandlerSuite) TestBulkUpdate() {
	s.do(http.MethodPost, "/clearance/start", map[string]string{"student_id": "ETS4000/15"})
	s.do(http.MethodPost, "/clearance/start", map[string]string{"student_id": "ETS4001/15"})

	w := s.do(http.MethodPost, "/clearance/sections/cafeteria/bulk", map[string]any{
		"student_ids": []string{"ETS4000/15", "ETS4001/15", "ETS0000/00"},
		"status":      "cleared",
		"approver":    "Cafeteria Head",
	})
	s.Equal(http.StatusOK, w.Code)

	resp := s.decode(w)
	s.Equal(float64(2), resp["updated"])
	s.Equal(float64(1), resp["failed"])
}
