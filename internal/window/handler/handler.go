// Package handler exposes the admin endpoints for the clearance window, plus
// a public status probe students can poll before attempting to start.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"cleargate/internal/platform/middleware"
	"cleargate/internal/transport/http/shared"
	"cleargate/internal/window"
	"cleargate/internal/window/service"
	dErrors "cleargate/pkg/domain-errors"
)

// Service defines the window operations the handler exposes.
type Service interface {
	Current(ctx context.Context) (window.Settings, error)
	Evaluate(ctx context.Context) (window.Decision, error)
	Update(ctx context.Context, req service.UpdateRequest) (window.Settings, error)
}

// Handler handles window endpoints.
type Handler struct {
	window Service
	logger *slog.Logger
}

// New creates a window Handler.
func New(windowSvc Service, logger *slog.Logger) *Handler {
	return &Handler{window: windowSvc, logger: logger}
}

// Register registers the window routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(15 * time.Second))
		router.Use(middleware.ContentTypeJSON)
		router.Get("/window/status", h.handleStatus)
		router.Get("/admin/window", h.handleGet)
		router.Put("/admin/window", h.handleUpdate)
	})
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	decision, err := h.window.Evaluate(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, decision)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	settings, err := h.window.Current(r.Context())
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, settings)
}

type updateRequest struct {
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	IsActive        *bool      `json:"is_active"`
	ManuallyOpened  *bool      `json:"manually_opened"`
	EmergencyClosed *bool      `json:"emergency_closed"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	settings, err := h.window.Update(r.Context(), service.UpdateRequest{
		StartDate:       req.StartDate,
		EndDate:         req.EndDate,
		IsActive:        req.IsActive,
		ManuallyOpened:  req.ManuallyOpened,
		EmergencyClosed: req.EmergencyClosed,
	})
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, settings)
}
