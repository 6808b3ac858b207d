package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateGatewayInput carries the fields accepted on gateway creation.
type CreateGatewayInput struct {
	SerialNumber string
	Name         string
	IPv4Address  string
	Status       GatewayStatus
	Location     *string
	TenantID     uuid.UUID
}

// UpdateGatewayInput carries the optional fields of a gateway update.
// SerialNumber and TenantID are immutable and deliberately absent.
type UpdateGatewayInput struct {
	Name        *string
	Status      *GatewayStatus
	IPv4Address *string
	Location    *string
}

// CreateGateway creates a gateway owned by an existing tenant, after checking
// serial number uniqueness first and IPv4 uniqueness second. A CREATED audit
// entry is appended in the same transaction.
func (s *Service) CreateGateway(ctx context.Context, in CreateGatewayInput) (*Gateway, error) {
	var (
		created *Gateway
		entry   *GatewayLog
	)
	err := s.store.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.GetTenant(ctx, in.TenantID); err != nil {
			return orNotFound(err, "Tenant")
		}

		exists, err := tx.SerialNumberExists(ctx, in.SerialNumber)
		if err != nil {
			return err
		}
		if exists {
			return conflict("Gateway serial number already exists")
		}

		exists, err = tx.IPv4AddressExists(ctx, in.IPv4Address)
		if err != nil {
			return err
		}
		if exists {
			return conflict("Gateway IPv4 address already exists")
		}

		gw := &Gateway{
			SerialNumber: in.SerialNumber,
			Name:         in.Name,
			IPv4Address:  in.IPv4Address,
			Status:       in.Status,
			Location:     in.Location,
			TenantID:     in.TenantID,
		}
		if err := tx.CreateGateway(ctx, gw); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("Gateway serial number or IPv4 address already exists")
			}
			return err
		}

		entry, err = tx.AppendLog(ctx, gw.ID, ActionCreated, map[string]any{
			"name":          gw.Name,
			"serial_number": gw.SerialNumber,
			"ipv4_address":  gw.IPv4Address,
		})
		if err != nil {
			return err
		}

		created, err = tx.GetGateway(ctx, gw.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("gateway created",
		"gateway_id", created.ID,
		"serial_number", created.SerialNumber,
		"tenant_id", created.TenantID,
	)
	s.events.PublishLog(ctx, entry)
	return created, nil
}

// UpdateGateway applies the explicitly present fields of in. A changed IPv4
// address is re-checked for uniqueness; an UPDATED audit entry carrying the
// exact change set is appended in the same transaction.
func (s *Service) UpdateGateway(ctx context.Context, id uuid.UUID, in UpdateGatewayInput) (*Gateway, error) {
	var (
		updated *Gateway
		entry   *GatewayLog
	)
	err := s.store.WithTx(ctx, func(tx *Store) error {
		current, err := tx.GetGateway(ctx, id)
		if err != nil {
			return orNotFound(err, "Gateway")
		}

		if in.IPv4Address != nil && *in.IPv4Address != current.IPv4Address {
			exists, err := tx.IPv4AddressExists(ctx, *in.IPv4Address)
			if err != nil {
				return err
			}
			if exists {
				return conflict("Gateway IPv4 address already exists")
			}
		}

		changes := map[string]any{}
		if in.Name != nil {
			changes["name"] = *in.Name
		}
		if in.Status != nil {
			changes["status"] = *in.Status
		}
		if in.IPv4Address != nil {
			changes["ipv4_address"] = *in.IPv4Address
		}
		if in.Location != nil {
			changes["location"] = *in.Location
		}

		updated, err = tx.UpdateGateway(ctx, id, changes)
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("Gateway IPv4 address already exists")
			}
			return err
		}

		entry, err = tx.AppendLog(ctx, id, ActionUpdated, map[string]any{
			"changes": changes,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.events.PublishLog(ctx, entry)
	return updated, nil
}

// DeleteGateway removes a gateway after appending a DELETED audit entry
// holding a snapshot of its final state. Attached devices are detached, not
// deleted; log entries are never cascade-deleted and outlive the gateway.
func (s *Service) DeleteGateway(ctx context.Context, id uuid.UUID) error {
	var entry *GatewayLog
	err := s.store.WithTx(ctx, func(tx *Store) error {
		gw, err := tx.GetGateway(ctx, id)
		if err != nil {
			return orNotFound(err, "Gateway")
		}

		entry, err = tx.AppendLog(ctx, id, ActionDeleted, map[string]any{
			"user":         "system",
			"gateway_data": gw,
		})
		if err != nil {
			return err
		}

		if err := tx.DetachAllDevices(ctx, id); err != nil {
			return err
		}
		return tx.DeleteGateway(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.Info("gateway deleted", "gateway_id", id)
	s.events.PublishLog(ctx, entry)
	return nil
}

func (s *Service) ListGateways(ctx context.Context) ([]Gateway, error) {
	return s.store.ListGateways(ctx)
}

func (s *Service) GetGateway(ctx context.Context, id uuid.UUID) (*Gateway, error) {
	gw, err := s.store.GetGateway(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Gateway")
	}
	return gw, nil
}

// ListGatewayLogs returns one gateway's audit entries, newest first. The
// gateway itself is not required to still exist: logs outlive deletion.
func (s *Service) ListGatewayLogs(ctx context.Context, gatewayID uuid.UUID) ([]GatewayLog, error) {
	return s.store.ListLogsForGateway(ctx, gatewayID)
}

// ListAllLogs returns every audit entry across all gateways, newest first,
// annotated with each gateway's current identity or nil if it was deleted.
func (s *Service) ListAllLogs(ctx context.Context) ([]GatewayLogEntry, error) {
	return s.store.ListAllLogs(ctx)
}
