// Package handler is the thin HTTP layer over the aggregation engine. Staff
// authorization is the caller's concern; this service trusts the approver
// identity it is handed.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"cleargate/internal/clearance/models"
	"cleargate/internal/clearance/service"
	"cleargate/internal/platform/middleware"
	"cleargate/internal/transport/http/shared"
	dErrors "cleargate/pkg/domain-errors"
)

// Service defines the clearance operations the handler exposes.
type Service interface {
	Start(ctx context.Context, studentID string) (*models.ClearanceRecord, error)
	Get(ctx context.Context, studentID string) (*models.ClearanceRecord, error)
	UpdateSection(ctx context.Context, studentID string, section models.Section, status models.SectionStatus, approver, reason string) (*models.ClearanceRecord, error)
	BulkUpdateSection(ctx context.Context, studentIDs []string, section models.Section, status models.SectionStatus, approver, reason string) (*service.BulkResult, error)
}

// Handler handles clearance endpoints.
type Handler struct {
	clearance Service
	logger    *slog.Logger
}

// New creates a clearance Handler.
func New(clearance Service, logger *slog.Logger) *Handler {
	return &Handler{clearance: clearance, logger: logger}
}

// Register registers the clearance routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(30 * time.Second))
		router.Use(middleware.ContentTypeJSON)
		router.Post("/clearance/start", h.handleStart)
		router.Get("/clearance/{studentID}", h.handleGet)
		router.Post("/clearance/{studentID}/sections/{section}", h.handleUpdateSection)
		router.Post("/clearance/sections/{section}/bulk", h.handleBulkUpdate)
	})
}

type startRequest struct {
	StudentID string `json:"student_id"`
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.clearance.Start(r.Context(), req.StudentID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, recordResponse(rec))
}

// studentIDParam extracts the studentID route parameter. Student IDs contain
// slashes (e.g. ETS0123/14) so callers percent-encode them and we decode here.
func studentIDParam(r *http.Request) string {
	raw := chi.URLParam(r, "studentID")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := h.clearance.Get(r.Context(), studentIDParam(r))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, recordResponse(rec))
}

type updateSectionRequest struct {
	Status   string `json:"status"`
	Approver string `json:"approver"`
	Reason   string `json:"reason"`
}

func (h *Handler) handleUpdateSection(w http.ResponseWriter, r *http.Request) {
	var req updateSectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	rec, err := h.clearance.UpdateSection(r.Context(),
		studentIDParam(r),
		models.Section(chi.URLParam(r, "section")),
		models.SectionStatus(req.Status),
		req.Approver,
		req.Reason,
	)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, recordResponse(rec))
}

type bulkUpdateRequest struct {
	StudentIDs []string `json:"student_ids"`
	Status     string   `json:"status"`
	Approver   string   `json:"approver"`
	Reason     string   `json:"reason"`
}

func (h *Handler) handleBulkUpdate(w http.ResponseWriter, r *http.Request) {
	var req bulkUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.clearance.BulkUpdateSection(r.Context(),
		req.StudentIDs,
		models.Section(chi.URLParam(r, "section")),
		models.SectionStatus(req.Status),
		req.Approver,
		req.Reason,
	)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}

// recordView is the wire shape of a clearance record. History is exposed
// already filtered and newest-first.
type recordView struct {
	StudentID string                                 `json:"student_id"`
	Sections  map[models.Section]models.SectionState `json:"sections"`
	Overall   models.OverallStatus                   `json:"overall_status"`
	History   []models.HistoryEntry                  `json:"approval_history"`
	CreatedAt time.Time                              `json:"created_at"`
	UpdatedAt time.Time                              `json:"updated_at"`
}

func recordResponse(rec *models.ClearanceRecord) recordView {
	return recordView{
		StudentID: rec.StudentID,
		Sections:  rec.Sections,
		Overall:   rec.Overall,
		History:   rec.FilteredHistory(),
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}
}
