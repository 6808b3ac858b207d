package inventory

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service implements the domain operations on top of Store. All multi-step
// guard-then-mutate sequences run inside a single transaction via Store.WithTx;
// the storage-level unique indexes remain the backstop for races that slip
// past the in-transaction checks.
type Service struct {
	store  *Store
	logger *slog.Logger
	events *EventPublisher
}

// NewService creates a Service. events may be nil when the lifecycle event
// feed is not configured.
func NewService(store *Store, logger *slog.Logger, events *EventPublisher) (*Service, error) {
	if store == nil {
		return nil, errors.New("store cannot be nil")
	}
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	return &Service{store: store, logger: logger, events: events}, nil
}

// orNotFound converts a gorm record-not-found into a domain NotFoundError
// naming the entity; other errors pass through untouched.
func orNotFound(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(entity)
	}
	return err
}

// --- Tenants ---

// CreateTenantInput carries the fields accepted on tenant creation.
type CreateTenantInput struct {
	Name         string
	ContactEmail string
}

// UpdateTenantInput carries the optional fields of a tenant update.
// Nil pointers mean "leave untouched".
type UpdateTenantInput struct {
	Name         *string
	ContactEmail *string
}

func (s *Service) CreateTenant(ctx context.Context, in CreateTenantInput) (*Tenant, error) {
	tenant := &Tenant{
		Name:         in.Name,
		ContactEmail: in.ContactEmail,
	}
	if err := s.store.CreateTenant(ctx, tenant); err != nil {
		return nil, err
	}
	s.logger.Info("tenant created", "tenant_id", tenant.ID, "name", tenant.Name)
	return tenant, nil
}

func (s *Service) ListTenants(ctx context.Context) ([]Tenant, error) {
	return s.store.ListTenants(ctx)
}

func (s *Service) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	tenant, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Tenant")
	}
	return tenant, nil
}

func (s *Service) UpdateTenant(ctx context.Context, id uuid.UUID, in UpdateTenantInput) (*Tenant, error) {
	var updated *Tenant
	err := s.store.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.GetTenant(ctx, id); err != nil {
			return orNotFound(err, "Tenant")
		}
		fields := map[string]any{}
		if in.Name != nil {
			fields["name"] = *in.Name
		}
		if in.ContactEmail != nil {
			fields["contact_email"] = *in.ContactEmail
		}
		var err error
		updated, err = tx.UpdateTenant(ctx, id, fields)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteTenant removes a tenant. Deletion is restricted: a tenant that still
// owns gateways cannot be deleted.
func (s *Service) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.GetTenant(ctx, id); err != nil {
			return orNotFound(err, "Tenant")
		}
		n, err := tx.CountGatewaysForTenant(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return conflict("Tenant still owns gateways")
		}
		return tx.DeleteTenant(ctx, id)
	})
}

// --- Device types ---

// CreateDeviceTypeInput carries the fields accepted on device type creation.
type CreateDeviceTypeInput struct {
	Name        string
	Description string
}

// UpdateDeviceTypeInput carries the optional fields of a device type update.
type UpdateDeviceTypeInput struct {
	Name        *string
	Description *string
}

func (s *Service) CreateDeviceType(ctx context.Context, in CreateDeviceTypeInput) (*DeviceType, error) {
	dt := &DeviceType{
		Name:        in.Name,
		Description: in.Description,
	}
	if err := s.store.CreateDeviceType(ctx, dt); err != nil {
		return nil, err
	}
	return dt, nil
}

func (s *Service) ListDeviceTypes(ctx context.Context) ([]DeviceType, error) {
	return s.store.ListDeviceTypes(ctx)
}

func (s *Service) GetDeviceType(ctx context.Context, id int) (*DeviceType, error) {
	dt, err := s.store.GetDeviceType(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Device type")
	}
	return dt, nil
}

func (s *Service) UpdateDeviceType(ctx context.Context, id int, in UpdateDeviceTypeInput) (*DeviceType, error) {
	var updated *DeviceType
	err := s.store.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.GetDeviceType(ctx, id); err != nil {
			return orNotFound(err, "Device type")
		}
		fields := map[string]any{}
		if in.Name != nil {
			fields["name"] = *in.Name
		}
		if in.Description != nil {
			fields["description"] = *in.Description
		}
		var err error
		updated, err = tx.UpdateDeviceType(ctx, id, fields)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDeviceType removes a device type. Deletion is restricted while any
// device still references the type.
func (s *Service) DeleteDeviceType(ctx context.Context, id int) error {
	return s.store.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.GetDeviceType(ctx, id); err != nil {
			return orNotFound(err, "Device type")
		}
		n, err := tx.CountDevicesOfType(ctx, id)
		if err != nil {
			return err
		}
		if n > 0 {
			return conflict("Device type is still referenced by devices")
		}
		return tx.DeleteDeviceType(ctx, id)
	})
}
