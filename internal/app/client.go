package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/neomorfeo/fuelops/internal/domain"
)

// ClientService manages a tenant's clients.
type ClientService struct {
	store domain.TxStore
	auditor
}

// NewClientService creates a service with the given adapters.
func NewClientService(store domain.TxStore, recorder domain.AuditRecorder, logger *slog.Logger) *ClientService {
	return &ClientService{store: store, auditor: newAuditor(recorder, logger)}
}

// CreateClientInput holds the fields of a new client.
type CreateClientInput struct {
	Name          string `json:"name" validate:"required,max=255"`
	ContactPerson string `json:"contact_person" validate:"max=255"`
	ContactPhone  string `json:"contact_phone" validate:"max=50"`
	ContactEmail  string `json:"contact_email" validate:"omitempty,email"`
}

func (s *ClientService) Create(ctx context.Context, tenant domain.TenantID, actor domain.Actor, in CreateClientInput) (domain.Client, error) {
	if err := authorize(tenant, actor, domain.ActionCreate, domain.ResourceClient, nil); err != nil {
		return domain.Client{}, err
	}
	if err := validateStruct(in); err != nil {
		return domain.Client{}, err
	}

	id, err := generateID()
	if err != nil {
		return domain.Client{}, fmt.Errorf("generating client id: %w", err)
	}

	client, err := s.store.Clients().Create(ctx, tenant, domain.Client{
		ID:            id,
		Name:          in.Name,
		ContactPerson: in.ContactPerson,
		ContactPhone:  in.ContactPhone,
		ContactEmail:  in.ContactEmail,
	})
	if err != nil {
		return domain.Client{}, err
	}

	entry := domain.NewAuditEntry(tenant, actor, domain.SubjectClient, client.ID, domain.ActionCreated)
	entry.NewValues = client.Snapshot()
	entry.Description = fmt.Sprintf("Client %s created", client.Name)
	s.record(ctx, entry)

	return client, nil
}

func (s *ClientService) Get(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string) (domain.Client, error) {
	client, err := s.store.Clients().Get(ctx, tenant, id)
	if err != nil {
		return domain.Client{}, err
	}
	if err := authorize(tenant, actor, domain.ActionView, domain.ResourceClient, nil); err != nil {
		return domain.Client{}, err
	}
	return client, nil
}

func (s *ClientService) List(ctx context.Context, tenant domain.TenantID, actor domain.Actor, filter domain.ClientFilter) ([]domain.Client, error) {
	if err := authorize(tenant, actor, domain.ActionList, domain.ResourceClient, nil); err != nil {
		return nil, err
	}
	return s.store.Clients().List(ctx, tenant, filter)
}

func (s *ClientService) Update(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string, patch domain.ClientPatch) (domain.Client, error) {
	var before, after domain.Client
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		before, err = tx.Clients().Get(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := authorize(tenant, actor, domain.ActionUpdate, domain.ResourceClient, nil); err != nil {
			return err
		}

		after = before
		if patch.Name != nil {
			after.Name = *patch.Name
		}
		if patch.ContactPerson != nil {
			after.ContactPerson = *patch.ContactPerson
		}
		if patch.ContactPhone != nil {
			after.ContactPhone = *patch.ContactPhone
		}
		if patch.ContactEmail != nil {
			after.ContactEmail = *patch.ContactEmail
		}
		if err := validateStruct(CreateClientInput{
			Name:          after.Name,
			ContactPerson: after.ContactPerson,
			ContactPhone:  after.ContactPhone,
			ContactEmail:  after.ContactEmail,
		}); err != nil {
			return err
		}

		return tx.Clients().Update(ctx, tenant, after)
	})
	if err != nil {
		return domain.Client{}, err
	}

	oldValues, newValues := domain.ChangedValues(before.Snapshot(), after.Snapshot())
	if len(newValues) > 0 {
		entry := domain.NewAuditEntry(tenant, actor, domain.SubjectClient, after.ID, domain.ActionUpdated)
		entry.OldValues = oldValues
		entry.NewValues = newValues
		entry.Description = fmt.Sprintf("Client %s updated", after.Name)
		s.record(ctx, entry)
	}

	return after, nil
}

// Delete removes a client that owns no locations.
func (s *ClientService) Delete(ctx context.Context, tenant domain.TenantID, actor domain.Actor, id string) error {
	var client domain.Client
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx domain.Store) error {
		var err error
		client, err = tx.Clients().Get(ctx, tenant, id)
		if err != nil {
			return err
		}
		if err := authorize(tenant, actor, domain.ActionDelete, domain.ResourceClient, nil); err != nil {
			return err
		}
		n, err := tx.Clients().CountLocations(ctx, tenant, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return &domain.DomainError{Reason: fmt.Sprintf("client %s still has %d location(s)", client.Name, n)}
		}
		return tx.Clients().Delete(ctx, tenant, id)
	})
	if err != nil {
		return err
	}

	entry := domain.NewAuditEntry(tenant, actor, domain.SubjectClient, client.ID, domain.ActionDeleted)
	entry.OldValues = client.Snapshot()
	entry.Description = fmt.Sprintf("Client %s deleted", client.Name)
	s.record(ctx, entry)

	return nil
}
