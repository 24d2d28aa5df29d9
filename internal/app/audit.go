package app

import (
	"context"
	"log/slog"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// auditor hands committed mutations to the audit recorder. A failure to
// record never undoes or fails the mutation that was already committed.
type auditor struct {
	recorder domain.AuditRecorder
	logger   *slog.Logger
}

func newAuditor(recorder domain.AuditRecorder, logger *slog.Logger) auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return auditor{recorder: recorder, logger: logger}
}

func (a auditor) record(ctx context.Context, entry domain.AuditEntry) {
	if err := a.recorder.Record(ctx, entry); err != nil {
		a.logger.ErrorContext(ctx, "recording audit entry failed",
			"tenant_id", entry.TenantID,
			"subject_type", entry.SubjectType,
			"subject_id", entry.SubjectID,
			"action", entry.Action,
			"error", err,
		)
	}
}

// authorize checks that the actor acts inside tenant and that the policy
// allows the action. order is only consulted for ownership grants.
func authorize(tenant domain.TenantID, actor domain.Actor, action domain.Action, resource domain.Resource, order *domain.Order) error {
	if actor.TenantID != string(tenant) {
		return &domain.AuthorizationError{Role: actor.Role, Action: action, Resource: resource}
	}
	return domain.Authorize(actor, action, resource, order)
}
