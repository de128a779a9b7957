// Package notify carries terminal clearance transitions to students. Dispatch
// is fire-and-forget: the record update that triggered a notice never waits
// on, or fails because of, delivery.
package notify

import (
	"context"
	"log/slog"
	"time"
)

// Notice is one queued status-change notification.
type Notice struct {
	StudentID string    `json:"student_id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	QueuedAt  time.Time `json:"queued_at"`
}

// Sender delivers a notice to the student. Delivery mechanics (SMTP, push)
// live behind this interface.
type Sender interface {
	SendStatusChangeNotice(ctx context.Context, n Notice) error
}

// LogSender writes notices to the log. The dev default, and the fallback
// when no mail transport is configured.
type LogSender struct {
	Logger *slog.Logger
}

func (s LogSender) SendStatusChangeNotice(ctx context.Context, n Notice) error {
	s.Logger.InfoContext(ctx, "status change notice",
		"student_id", n.StudentID,
		"email", n.Email,
		"status", n.Status,
	)
	return nil
}
