package inventory

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateDeviceInput carries the fields accepted on device creation.
// A non-nil GatewayID pre-attaches the device, subject to the same capacity
// guard as the dedicated attach operation.
type CreateDeviceInput struct {
	UID          UID
	Vendor       string
	Status       DeviceStatus
	DeviceTypeID int
	GatewayID    *uuid.UUID
}

// UpdateDeviceInput carries the optional fields of a device update.
// UID is immutable; gateway membership changes only through attach/detach.
type UpdateDeviceInput struct {
	Vendor       *string
	Status       *DeviceStatus
	LastSeenAt   *time.Time
	DeviceTypeID *int
}

// CreateDevice creates a device after checking UID uniqueness. Creation-time
// attachment enforces the same gateway capacity limit as AttachDevice.
func (s *Service) CreateDevice(ctx context.Context, in CreateDeviceInput) (*PeripheralDevice, error) {
	var created *PeripheralDevice
	err := s.store.WithTx(ctx, func(tx *Store) error {
		exists, err := tx.UIDExists(ctx, in.UID)
		if err != nil {
			return err
		}
		if exists {
			return conflict("Device UID already exists")
		}

		if _, err := tx.GetDeviceType(ctx, in.DeviceTypeID); err != nil {
			return orNotFound(err, "Device type")
		}

		if in.GatewayID != nil {
			if _, err := tx.GetGateway(ctx, *in.GatewayID); err != nil {
				return orNotFound(err, "Gateway")
			}
			n, err := tx.CountDevicesInGateway(ctx, *in.GatewayID)
			if err != nil {
				return err
			}
			if n >= MaxDevicesPerGateway {
				return businessRule("Gateway already has the maximum number of devices (%d)", MaxDevicesPerGateway)
			}
		}

		dev := &PeripheralDevice{
			UID:          in.UID,
			Vendor:       in.Vendor,
			Status:       in.Status,
			DeviceTypeID: in.DeviceTypeID,
			GatewayID:    in.GatewayID,
		}
		if err := tx.CreateDevice(ctx, dev); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return conflict("Device UID already exists")
			}
			return err
		}

		created, err = tx.GetDevice(ctx, dev.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("device created", "device_id", created.ID, "uid", created.UID.String())
	return created, nil
}

func (s *Service) ListDevices(ctx context.Context) ([]PeripheralDevice, error) {
	return s.store.ListDevices(ctx)
}

func (s *Service) GetDevice(ctx context.Context, id uuid.UUID) (*PeripheralDevice, error) {
	dev, err := s.store.GetDevice(ctx, id)
	if err != nil {
		return nil, orNotFound(err, "Device")
	}
	return dev, nil
}

// ListOrphanDevices returns every device not attached to any gateway.
func (s *Service) ListOrphanDevices(ctx context.Context) ([]PeripheralDevice, error) {
	return s.store.ListOrphanDevices(ctx)
}

// UpdateDevice applies the explicitly present fields among vendor, status,
// last_seen_at, and device_type_id.
func (s *Service) UpdateDevice(ctx context.Context, id uuid.UUID, in UpdateDeviceInput) (*PeripheralDevice, error) {
	var updated *PeripheralDevice
	err := s.store.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.GetDevice(ctx, id); err != nil {
			return orNotFound(err, "Device")
		}

		fields := map[string]any{}
		if in.Vendor != nil {
			fields["vendor"] = *in.Vendor
		}
		if in.Status != nil {
			fields["status"] = *in.Status
		}
		if in.LastSeenAt != nil {
			fields["last_seen_at"] = *in.LastSeenAt
		}
		if in.DeviceTypeID != nil {
			if _, err := tx.GetDeviceType(ctx, *in.DeviceTypeID); err != nil {
				return orNotFound(err, "Device type")
			}
			fields["device_type_id"] = *in.DeviceTypeID
		}

		var err error
		updated, err = tx.UpdateDevice(ctx, id, fields)
		return err
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) DeleteDevice(ctx context.Context, id uuid.UUID) error {
	return s.store.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.GetDevice(ctx, id); err != nil {
			return orNotFound(err, "Device")
		}
		return tx.DeleteDevice(ctx, id)
	})
}

// AttachDevice links a device to a gateway. Guards run in a fixed order and
// the first failure wins: gateway existence, device existence, gateway
// capacity, then attachment exclusivity. Re-attaching a device to its current
// gateway passes the exclusivity guard and is a no-op re-assignment.
// The whole sequence runs in one transaction so a concurrent attach cannot
// race past the capacity check.
func (s *Service) AttachDevice(ctx context.Context, gatewayID, deviceID uuid.UUID) (*PeripheralDevice, error) {
	var (
		attached *PeripheralDevice
		entry    *GatewayLog
	)
	err := s.store.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.GetGateway(ctx, gatewayID); err != nil {
			return orNotFound(err, "Gateway")
		}

		dev, err := tx.GetDevice(ctx, deviceID)
		if err != nil {
			return orNotFound(err, "Device")
		}

		n, err := tx.CountDevicesInGateway(ctx, gatewayID)
		if err != nil {
			return err
		}
		if n >= MaxDevicesPerGateway {
			return businessRule("Gateway already has the maximum number of devices (%d)", MaxDevicesPerGateway)
		}

		if dev.GatewayID != nil && *dev.GatewayID != gatewayID {
			return businessRule("Device is already attached to another gateway")
		}

		attached, err = tx.SetDeviceGateway(ctx, deviceID, &gatewayID)
		if err != nil {
			return err
		}

		entry, err = tx.AppendLog(ctx, gatewayID, ActionDeviceAttached, map[string]any{
			"user":       "system",
			"device_id":  deviceID,
			"device_uid": dev.UID.String(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("device attached",
		"gateway_id", gatewayID,
		"device_id", deviceID,
	)
	s.events.PublishLog(ctx, entry)
	return attached, nil
}

// DetachDevice unlinks a device from the gateway it is attached to. A device
// attached to a different gateway, or to none, fails the membership guard.
func (s *Service) DetachDevice(ctx context.Context, gatewayID, deviceID uuid.UUID) (*PeripheralDevice, error) {
	var (
		detached *PeripheralDevice
		entry    *GatewayLog
	)
	err := s.store.WithTx(ctx, func(tx *Store) error {
		if _, err := tx.GetGateway(ctx, gatewayID); err != nil {
			return orNotFound(err, "Gateway")
		}

		dev, err := tx.GetDevice(ctx, deviceID)
		if err != nil {
			return orNotFound(err, "Device")
		}

		if dev.GatewayID == nil || *dev.GatewayID != gatewayID {
			return businessRule("Device is not attached to this gateway")
		}

		detached, err = tx.SetDeviceGateway(ctx, deviceID, nil)
		if err != nil {
			return err
		}

		entry, err = tx.AppendLog(ctx, gatewayID, ActionDeviceDetached, map[string]any{
			"user":       "system",
			"device_id":  deviceID,
			"device_uid": dev.UID.String(),
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("device detached",
		"gateway_id", gatewayID,
		"device_id", deviceID,
	)
	s.events.PublishLog(ctx, entry)
	return detached, nil
}
