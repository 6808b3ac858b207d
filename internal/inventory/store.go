package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Store provides the persistence primitives for the inventory models.
// It is a thin layer over GORM; business rules live in Service.
type Store struct {
	db *gorm.DB
}

// NewStore creates a Store on top of an already-migrated database handle.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx runs fn inside a single database transaction. The Store passed to fn
// shares the transaction handle, so every guard-then-mutate sequence observes
// a consistent snapshot and commits atomically.
func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// --- Tenants ---

func (s *Store) CreateTenant(ctx context.Context, tenant *Tenant) error {
	if tenant.ID == uuid.Nil {
		tenant.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(tenant).Error
}

func (s *Store) ListTenants(ctx context.Context) ([]Tenant, error) {
	var rows []Tenant
	err := s.db.WithContext(ctx).
		Preload("Gateways").
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) GetTenant(ctx context.Context, id uuid.UUID) (*Tenant, error) {
	var row Tenant
	err := s.db.WithContext(ctx).
		Preload("Gateways").
		First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) UpdateTenant(ctx context.Context, id uuid.UUID, fields map[string]any) (*Tenant, error) {
	if len(fields) > 0 {
		err := s.db.WithContext(ctx).
			Model(&Tenant{}).
			Where("id = ?", id).
			Updates(fields).Error
		if err != nil {
			return nil, err
		}
	}
	return s.GetTenant(ctx, id)
}

func (s *Store) DeleteTenant(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&Tenant{}, "id = ?", id).Error
}

func (s *Store) CountGatewaysForTenant(ctx context.Context, id uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&Gateway{}).
		Where("tenant_id = ?", id).
		Count(&n).Error
	return n, err
}

// --- Device types ---

func (s *Store) CreateDeviceType(ctx context.Context, dt *DeviceType) error {
	return s.db.WithContext(ctx).Create(dt).Error
}

func (s *Store) ListDeviceTypes(ctx context.Context) ([]DeviceType, error) {
	var rows []DeviceType
	if err := s.db.WithContext(ctx).Order("id asc").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) GetDeviceType(ctx context.Context, id int) (*DeviceType, error) {
	var row DeviceType
	if err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) UpdateDeviceType(ctx context.Context, id int, fields map[string]any) (*DeviceType, error) {
	if len(fields) > 0 {
		err := s.db.WithContext(ctx).
			Model(&DeviceType{}).
			Where("id = ?", id).
			Updates(fields).Error
		if err != nil {
			return nil, err
		}
	}
	return s.GetDeviceType(ctx, id)
}

func (s *Store) DeleteDeviceType(ctx context.Context, id int) error {
	return s.db.WithContext(ctx).Delete(&DeviceType{}, "id = ?", id).Error
}

func (s *Store) CountDevicesOfType(ctx context.Context, id int) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&PeripheralDevice{}).
		Where("device_type_id = ?", id).
		Count(&n).Error
	return n, err
}

// --- Gateways ---

func (s *Store) CreateGateway(ctx context.Context, gw *Gateway) error {
	if gw.ID == uuid.Nil {
		gw.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(gw).Error
}

func (s *Store) ListGateways(ctx context.Context) ([]Gateway, error) {
	var rows []Gateway
	err := s.db.WithContext(ctx).
		Preload("Devices.DeviceType").
		Preload("Tenant").
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) GetGateway(ctx context.Context, id uuid.UUID) (*Gateway, error) {
	var row Gateway
	err := s.db.WithContext(ctx).
		Preload("Devices.DeviceType").
		Preload("Tenant").
		First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) UpdateGateway(ctx context.Context, id uuid.UUID, fields map[string]any) (*Gateway, error) {
	if len(fields) > 0 {
		err := s.db.WithContext(ctx).
			Model(&Gateway{}).
			Where("id = ?", id).
			Updates(fields).Error
		if err != nil {
			return nil, err
		}
	}
	return s.GetGateway(ctx, id)
}

func (s *Store) DeleteGateway(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&Gateway{}, "id = ?", id).Error
}

// DetachAllDevices clears gateway_id on every device attached to the gateway.
// Used when a gateway is removed so its devices become orphans.
func (s *Store) DetachAllDevices(ctx context.Context, gatewayID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Model(&PeripheralDevice{}).
		Where("gateway_id = ?", gatewayID).
		Update("gateway_id", nil).Error
}

func (s *Store) SerialNumberExists(ctx context.Context, serialNumber string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&Gateway{}).
		Where("serial_number = ?", serialNumber).
		Count(&n).Error
	return n > 0, err
}

func (s *Store) IPv4AddressExists(ctx context.Context, ipv4Address string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&Gateway{}).
		Where("ipv4_address = ?", ipv4Address).
		Count(&n).Error
	return n > 0, err
}

// --- Peripheral devices ---

func (s *Store) CreateDevice(ctx context.Context, dev *PeripheralDevice) error {
	if dev.ID == uuid.Nil {
		dev.ID = uuid.New()
	}
	return s.db.WithContext(ctx).Create(dev).Error
}

func (s *Store) ListDevices(ctx context.Context) ([]PeripheralDevice, error) {
	var rows []PeripheralDevice
	err := s.db.WithContext(ctx).
		Preload("DeviceType").
		Preload("Gateway").
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) GetDevice(ctx context.Context, id uuid.UUID) (*PeripheralDevice, error) {
	var row PeripheralDevice
	err := s.db.WithContext(ctx).
		Preload("DeviceType").
		Preload("Gateway").
		First(&row, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (s *Store) UpdateDevice(ctx context.Context, id uuid.UUID, fields map[string]any) (*PeripheralDevice, error) {
	if len(fields) > 0 {
		err := s.db.WithContext(ctx).
			Model(&PeripheralDevice{}).
			Where("id = ?", id).
			Updates(fields).Error
		if err != nil {
			return nil, err
		}
	}
	return s.GetDevice(ctx, id)
}

func (s *Store) DeleteDevice(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Delete(&PeripheralDevice{}, "id = ?", id).Error
}

// ListOrphanDevices returns devices with no gateway, device type populated.
func (s *Store) ListOrphanDevices(ctx context.Context) ([]PeripheralDevice, error) {
	var rows []PeripheralDevice
	err := s.db.WithContext(ctx).
		Preload("DeviceType").
		Where("gateway_id IS NULL").
		Order("created_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *Store) CountDevicesInGateway(ctx context.Context, gatewayID uuid.UUID) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&PeripheralDevice{}).
		Where("gateway_id = ?", gatewayID).
		Count(&n).Error
	return n, err
}

func (s *Store) UIDExists(ctx context.Context, uid UID) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).
		Model(&PeripheralDevice{}).
		Where("uid = ?", int64(uid)).
		Count(&n).Error
	return n > 0, err
}

// SetDeviceGateway persists an attachment (non-nil gatewayID) or a detachment
// (nil) and returns the reloaded device with its relations.
func (s *Store) SetDeviceGateway(ctx context.Context, deviceID uuid.UUID, gatewayID *uuid.UUID) (*PeripheralDevice, error) {
	err := s.db.WithContext(ctx).
		Model(&PeripheralDevice{}).
		Where("id = ?", deviceID).
		Update("gateway_id", gatewayID).Error
	if err != nil {
		return nil, err
	}
	return s.GetDevice(ctx, deviceID)
}

// --- Gateway logs ---

// AppendLog writes one immutable audit record for a gateway.
func (s *Store) AppendLog(ctx context.Context, gatewayID uuid.UUID, action LogAction, details map[string]any) (*GatewayLog, error) {
	entry := &GatewayLog{
		GatewayID: gatewayID,
		Action:    action,
		Details:   logDetails(details),
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// ListLogsForGateway returns a gateway's log entries, newest first.
func (s *Store) ListLogsForGateway(ctx context.Context, gatewayID uuid.UUID) ([]GatewayLog, error) {
	var rows []GatewayLog
	err := s.db.WithContext(ctx).
		Where("gateway_id = ?", gatewayID).
		Order("created_at desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// ListAllLogs returns every log entry, newest first, annotated with a
// snapshot of its gateway and owning tenant. The annotation is nil for logs
// whose gateway has since been deleted. Gateways and tenants are loaded in
// bulk so the listing stays at a constant number of queries.
func (s *Store) ListAllLogs(ctx context.Context) ([]GatewayLogEntry, error) {
	var logs []GatewayLog
	err := s.db.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&logs).Error
	if err != nil {
		return nil, err
	}
	if len(logs) == 0 {
		return []GatewayLogEntry{}, nil
	}

	seen := map[uuid.UUID]struct{}{}
	gatewayIDs := make([]uuid.UUID, 0, len(logs))
	for _, entry := range logs {
		if _, ok := seen[entry.GatewayID]; ok {
			continue
		}
		seen[entry.GatewayID] = struct{}{}
		gatewayIDs = append(gatewayIDs, entry.GatewayID)
	}

	var gateways []Gateway
	err = s.db.WithContext(ctx).
		Preload("Tenant").
		Where("id IN ?", gatewayIDs).
		Find(&gateways).Error
	if err != nil {
		return nil, err
	}

	infoByID := make(map[uuid.UUID]*LogGatewayInfo, len(gateways))
	for _, gw := range gateways {
		info := &LogGatewayInfo{
			ID:           gw.ID,
			Name:         gw.Name,
			SerialNumber: gw.SerialNumber,
		}
		if gw.Tenant != nil {
			info.Tenant = &LogTenantInfo{ID: gw.Tenant.ID, Name: gw.Tenant.Name}
		}
		infoByID[gw.ID] = info
	}

	out := make([]GatewayLogEntry, 0, len(logs))
	for _, entry := range logs {
		out = append(out, GatewayLogEntry{
			GatewayLog: entry,
			Gateway:    infoByID[entry.GatewayID],
		})
	}
	return out, nil
}
