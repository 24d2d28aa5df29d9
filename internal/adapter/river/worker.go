package river

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// AuditWorker persists audit jobs into the activity log.
type AuditWorker struct {
	river.WorkerDefaults[AuditJobArgs]
	repo domain.ActivityLogRepository
}

// NewAuditWorker creates a worker writing to repo.
func NewAuditWorker(repo domain.ActivityLogRepository) *AuditWorker {
	return &AuditWorker{repo: repo}
}

// Work appends a single audit entry. A failed append is retried by River.
func (w *AuditWorker) Work(ctx context.Context, job *river.Job[AuditJobArgs]) error {
	log, err := w.repo.Append(ctx, job.Args.entry())
	if err != nil {
		return fmt.Errorf("appending activity log: %w", err)
	}

	slog.InfoContext(ctx, "recorded activity",
		"activity_id", log.ID,
		"tenant_id", job.Args.TenantID,
		"subject_type", job.Args.SubjectType,
		"subject_id", job.Args.SubjectID,
		"action", job.Args.Action,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)
	return nil
}
