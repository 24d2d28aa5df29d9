package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// Compile-time check: Recorder implements domain.AuditRecorder.
var _ domain.AuditRecorder = (*Recorder)(nil)

// AuditJobArgs carries one committed mutation to the audit worker.
// River serializes this as JSON into its job queue table, so the entry is
// complete and the worker never needs to read the audited entity.
type AuditJobArgs struct {
	TenantID    string         `json:"tenant_id"`
	UserID      string         `json:"user_id"`
	SubjectType string         `json:"subject_type"`
	SubjectID   string         `json:"subject_id"`
	Action      string         `json:"action"`
	OldValues   map[string]any `json:"old_values,omitempty"`
	NewValues   map[string]any `json:"new_values,omitempty"`
	Description string         `json:"description"`
	IPAddress   string         `json:"ip_address"`
}

// QueueAudit is the River queue audit jobs run on.
const QueueAudit = "audit"

// Kind returns the unique job type identifier used by River's job routing.
func (AuditJobArgs) Kind() string { return "audit.record" }

// InsertOpts routes audit jobs to their own queue. An entry that still fails
// after maxAuditAttempts is discarded by River and stays visible in river_job.
func (AuditJobArgs) InsertOpts() river.InsertOpts {
	return river.InsertOpts{Queue: QueueAudit, MaxAttempts: maxAuditAttempts}
}

const maxAuditAttempts = 10

func (a AuditJobArgs) entry() domain.AuditEntry {
	return domain.AuditEntry{
		TenantID:    a.TenantID,
		UserID:      a.UserID,
		SubjectType: a.SubjectType,
		SubjectID:   a.SubjectID,
		Action:      a.Action,
		OldValues:   a.OldValues,
		NewValues:   a.NewValues,
		Description: a.Description,
		IPAddress:   a.IPAddress,
	}
}

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Recorder implements domain.AuditRecorder by enqueuing River jobs.
type Recorder struct {
	client *Client
}

// NewRecorder creates a recorder backed by the given River client.
func NewRecorder(client *Client) *Recorder {
	return &Recorder{client: client}
}

// Record enqueues an audit entry as an async job in River.
func (r *Recorder) Record(ctx context.Context, e domain.AuditEntry) error {
	_, err := r.client.Insert(ctx, AuditJobArgs{
		TenantID:    e.TenantID,
		UserID:      e.UserID,
		SubjectType: e.SubjectType,
		SubjectID:   e.SubjectID,
		Action:      e.Action,
		OldValues:   e.OldValues,
		NewValues:   e.NewValues,
		Description: e.Description,
		IPAddress:   e.IPAddress,
	}, nil)
	if err != nil {
		return fmt.Errorf("enqueuing audit job: %w", err)
	}
	return nil
}
