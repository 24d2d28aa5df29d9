package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riversqlite"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// Migrate runs River's internal migrations (river_job, river_leader, etc.).
// These are separate from the app's goose migrations.
func Migrate(ctx context.Context, db *sql.DB) error {
	migrator, err := rivermigrate.New(riversqlite.New(db), nil)
	if err != nil {
		return fmt.Errorf("creating river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return fmt.Errorf("running river migrations: %w", err)
	}
	return nil
}

// Setup runs River's migrations and returns a client whose audit queue is
// served by auditWorkers goroutines writing into repo. The caller owns the
// Start/Stop lifecycle.
func Setup(ctx context.Context, db *sql.DB, repo domain.ActivityLogRepository, auditWorkers int) (*Client, error) {
	if err := Migrate(ctx, db); err != nil {
		return nil, err
	}

	if auditWorkers < 1 {
		auditWorkers = 1
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewAuditWorker(repo))

	client, err := river.NewClient(riversqlite.New(db), &river.Config{
		Queues: map[string]river.QueueConfig{
			QueueAudit: {MaxWorkers: auditWorkers},
		},
		Workers: workers,
	})
	if err != nil {
		return nil, fmt.Errorf("creating river client: %w", err)
	}

	return client, nil
}
