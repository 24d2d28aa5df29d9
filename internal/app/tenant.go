package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// TenantService provisions tenants and their users and resolves the tenant of
// an inbound request.
type TenantService struct {
	store domain.Store
}

// NewTenantService creates a service with the given store.
func NewTenantService(store domain.Store) *TenantService {
	return &TenantService{store: store}
}

// CreateTenantInput holds the fields of a new tenant.
type CreateTenantInput struct {
	Name string `json:"name" validate:"required,max=255"`
	Slug string `json:"slug" validate:"required,max=63,hostname_rfc1123"`
}

// Create persists a new tenant. Slugs are globally unique.
func (s *TenantService) Create(ctx context.Context, in CreateTenantInput) (domain.Tenant, error) {
	in.Slug = strings.ToLower(strings.TrimSpace(in.Slug))
	if err := validateStruct(in); err != nil {
		return domain.Tenant{}, err
	}

	// Check slug uniqueness before creating.
	if _, err := s.store.Tenants().GetBySlug(ctx, in.Slug); err == nil {
		return domain.Tenant{}, &domain.ConflictError{Resource: "tenant", Field: "slug", Value: in.Slug}
	} else if !errors.Is(err, domain.ErrTenantNotFound) {
		return domain.Tenant{}, fmt.Errorf("checking slug: %w", err)
	}

	id, err := generateID()
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("generating tenant id: %w", err)
	}

	tenant := domain.NewTenant(id, in.Name, in.Slug)

	if err := s.store.Tenants().Create(ctx, tenant); err != nil {
		return domain.Tenant{}, fmt.Errorf("creating tenant: %w", err)
	}

	return tenant, nil
}

// Resolve returns the tenant identified by slug, or domain.ErrTenantNotFound.
func (s *TenantService) Resolve(ctx context.Context, slug string) (domain.Tenant, error) {
	return s.store.Tenants().GetBySlug(ctx, slug)
}

// List returns tenants matching the given filter.
func (s *TenantService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Tenant, error) {
	return s.store.Tenants().List(ctx, filter)
}

// CreateUserInput holds the fields of a new user.
type CreateUserInput struct {
	Name  string      `json:"name" validate:"required,max=255"`
	Email string      `json:"email" validate:"required,email"`
	Role  domain.Role `json:"role" validate:"required,oneof=ADMIN DISPATCHER DRIVER CLIENT_REP"`
}

// CreateUser adds a user to tenant. Emails are unique within a tenant.
func (s *TenantService) CreateUser(ctx context.Context, tenant domain.TenantID, in CreateUserInput) (domain.User, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateStruct(in); err != nil {
		return domain.User{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.User{}, fmt.Errorf("generating user id: %w", err)
	}

	return s.store.Users().Create(ctx, tenant, domain.User{
		ID:    id,
		Name:  in.Name,
		Email: in.Email,
		Role:  in.Role,
	})
}

// User returns a user of tenant.
func (s *TenantService) User(ctx context.Context, tenant domain.TenantID, id string) (domain.User, error) {
	return s.store.Users().Get(ctx, tenant, id)
}

// UserByEmail returns the user of tenant with the given email.
func (s *TenantService) UserByEmail(ctx context.Context, tenant domain.TenantID, email string) (domain.User, error) {
	return s.store.Users().GetByEmail(ctx, tenant, strings.ToLower(strings.TrimSpace(email)))
}
