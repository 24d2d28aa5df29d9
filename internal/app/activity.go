package app

import (
	"context"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// ActivityService reads the audit trail. Only administrators may read it.
type ActivityService struct {
	repo domain.ActivityLogRepository
}

// NewActivityService creates a service reading from repo.
func NewActivityService(repo domain.ActivityLogRepository) *ActivityService {
	return &ActivityService{repo: repo}
}

// List returns activity entries of tenant matching filter, newest first.
func (s *ActivityService) List(ctx context.Context, tenant domain.TenantID, actor domain.Actor, filter domain.ActivityFilter) ([]domain.ActivityLog, error) {
	if err := authorize(tenant, actor, domain.ActionList, domain.ResourceActivityLog, nil); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tenant, filter)
}

// ForSubject returns the history of one entity.
func (s *ActivityService) ForSubject(ctx context.Context, tenant domain.TenantID, actor domain.Actor, subjectType, subjectID string) ([]domain.ActivityLog, error) {
	if err := authorize(tenant, actor, domain.ActionView, domain.ResourceActivityLog, nil); err != nil {
		return nil, err
	}
	return s.repo.List(ctx, tenant, domain.ActivityFilter{SubjectType: subjectType, SubjectID: subjectID})
}
