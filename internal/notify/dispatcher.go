package notify

import (
	"context"
	"log/slog"
	"time"

	"cleargate/internal/student"
	"cleargate/pkg/email"
)

// Dispatcher resolves the student's contact details and enqueues the notice.
// It sits between the aggregation engine and the queue so the engine never
// learns about directories or transports.
type Dispatcher struct {
	directory student.Directory
	queue     Queue
	logger    *slog.Logger
	now       func() time.Time
}

func NewDispatcher(directory student.Directory, queue Queue, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		directory: directory,
		queue:     queue,
		logger:    logger,
		now:       time.Now,
	}
}

// StatusChanged queues a notice for a terminal overall-status transition.
// Errors are returned for the caller to log; they must never propagate into
// the record update.
func (d *Dispatcher) StatusChanged(ctx context.Context, studentID, newStatus string) error {
	st, err := d.directory.FindByID(ctx, studentID)
	if err != nil {
		return err
	}
	name := st.DisplayName
	if name == "" {
		// Registrar imports occasionally lack a display name.
		name = email.DeriveName(st.Email)
	}
	return d.queue.Publish(ctx, Notice{
		StudentID: studentID,
		Email:     st.Email,
		Name:      name,
		Status:    newStatus,
		QueuedAt:  d.now(),
	})
}
