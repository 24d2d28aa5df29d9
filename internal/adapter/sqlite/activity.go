package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// Compile-time check: Recorder implements domain.AuditRecorder.
var _ domain.AuditRecorder = (*Recorder)(nil)

// ActivityLogRepository implements domain.ActivityLogRepository using SQLite.
// Entries are append-only.
type ActivityLogRepository struct {
	q querier
}

const activityColumns = `id, tenant_id, user_id, subject_type, subject_id, action, old_values, new_values,
	description, ip_address, created_at`

func (r *ActivityLogRepository) Append(ctx context.Context, e domain.AuditEntry) (domain.ActivityLog, error) {
	log := domain.ActivityLog{ID: uuid.NewString(), AuditEntry: e, CreatedAt: now()}

	oldValues, err := marshalValues(e.OldValues)
	if err != nil {
		return domain.ActivityLog{}, err
	}
	newValues, err := marshalValues(e.NewValues)
	if err != nil {
		return domain.ActivityLog{}, err
	}

	_, err = r.q.ExecContext(ctx,
		`INSERT INTO activity_logs (`+activityColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ID, e.TenantID, e.UserID, e.SubjectType, e.SubjectID, e.Action, oldValues, newValues,
		e.Description, e.IPAddress, formatTime(log.CreatedAt),
	)
	if err != nil {
		return domain.ActivityLog{}, fmt.Errorf("inserting activity log: %w", err)
	}
	return log, nil
}

func (r *ActivityLogRepository) List(ctx context.Context, tenant domain.TenantID, filter domain.ActivityFilter) ([]domain.ActivityLog, error) {
	query := `SELECT ` + activityColumns + ` FROM activity_logs WHERE tenant_id = ?`
	args := []any{string(tenant)}

	for _, eq := range []struct {
		column, value string
	}{
		{"subject_type", filter.SubjectType},
		{"subject_id", filter.SubjectID},
		{"action", filter.Action},
		{"user_id", filter.UserID},
	} {
		if eq.value != "" {
			query += ` AND ` + eq.column + ` = ?`
			args = append(args, eq.value)
		}
	}
	if filter.From != nil {
		query += ` AND created_at >= ?`
		args = append(args, formatTime(*filter.From))
	}
	if filter.To != nil {
		query += ` AND created_at <= ?`
		args = append(args, formatTime(*filter.To))
	}

	query += ` ORDER BY created_at DESC, rowid DESC`
	query, args = page(query, args, filter.Limit, filter.Offset)

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing activity logs: %w", err)
	}
	defer rows.Close()

	var logs []domain.ActivityLog
	for rows.Next() {
		var l domain.ActivityLog
		var oldValues, newValues sql.NullString
		var createdAt string

		err := rows.Scan(&l.ID, &l.TenantID, &l.UserID, &l.SubjectType, &l.SubjectID, &l.Action,
			&oldValues, &newValues, &l.Description, &l.IPAddress, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scanning activity log: %w", err)
		}
		if l.OldValues, err = unmarshalValues(oldValues); err != nil {
			return nil, err
		}
		if l.NewValues, err = unmarshalValues(newValues); err != nil {
			return nil, err
		}
		l.CreatedAt = parseTime(createdAt)
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

func marshalValues(values map[string]any) (any, error) {
	if values == nil {
		return nil, nil
	}
	b, err := json.Marshal(values)
	if err != nil {
		return nil, fmt.Errorf("encoding audit values: %w", err)
	}
	return string(b), nil
}

func unmarshalValues(s sql.NullString) (map[string]any, error) {
	if !s.Valid {
		return nil, nil
	}
	var values map[string]any
	if err := json.Unmarshal([]byte(s.String), &values); err != nil {
		return nil, fmt.Errorf("decoding audit values: %w", err)
	}
	return values, nil
}

// Recorder writes audit entries straight into the activity log.
type Recorder struct {
	repo domain.ActivityLogRepository
}

// NewRecorder creates a synchronous audit recorder backed by repo.
func NewRecorder(repo domain.ActivityLogRepository) *Recorder {
	return &Recorder{repo: repo}
}

func (r *Recorder) Record(ctx context.Context, entry domain.AuditEntry) error {
	_, err := r.repo.Append(ctx, entry)
	return err
}
