// Package handler exposes certificate issuance and public verification over
// HTTP. Issuance returns the rendered PDF; verification is an unauthenticated
// JSON endpoint backing the QR code on the certificate.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"cleargate/internal/certificate/service"
	"cleargate/internal/platform/middleware"
	"cleargate/internal/transport/http/shared"
	dErrors "cleargate/pkg/domain-errors"
)

// Service defines the certificate operations the handler exposes.
type Service interface {
	Issue(ctx context.Context, studentID string) (*service.IssueResult, error)
	Verify(ctx context.Context, code string) (*service.VerifyResult, error)
}

// Handler handles certificate endpoints.
type Handler struct {
	certs  Service
	logger *slog.Logger
}

// New creates a certificate Handler.
func New(certs Service, logger *slog.Logger) *Handler {
	return &Handler{certs: certs, logger: logger}
}

// Register registers the certificate routes with the chi router. Verification
// stays outside the JSON content-type middleware because issuance streams a
// PDF body.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(router chi.Router) {
		router.Use(middleware.Recovery(h.logger))
		router.Use(middleware.RequestID)
		router.Use(middleware.Logger(h.logger))
		router.Use(middleware.Timeout(30 * time.Second))
		router.Post("/certificates/issue", h.handleIssue)
		router.Get("/verify/{code}", h.handleVerify)
	})
}

type issueRequest struct {
	StudentID string `json:"student_id"`
}

func (h *Handler) handleIssue(w http.ResponseWriter, r *http.Request) {
	var req issueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	result, err := h.certs.Issue(r.Context(), req.StudentID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", result.Certificate.CertificateID+".pdf"))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Document)))
	w.Header().Set("X-Certificate-Code", result.Certificate.Code())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Document); err != nil {
		h.logger.Error("writing certificate pdf", "error", err)
	}
}

func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	result, err := h.certs.Verify(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, result)
}
