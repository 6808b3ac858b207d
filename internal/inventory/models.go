// Package inventory implements the fleet inventory domain: tenants, gateways,
// peripheral devices, device types, and the append-only gateway audit log.
package inventory

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// MaxDevicesPerGateway is the hard ceiling on concurrently attached devices.
const MaxDevicesPerGateway = 10

// GatewayStatus is the lifecycle state of a gateway.
type GatewayStatus string

const (
	GatewayActive         GatewayStatus = "ACTIVE"
	GatewayInactive       GatewayStatus = "INACTIVE"
	GatewayDecommissioned GatewayStatus = "DECOMMISSIONED"
)

// DeviceStatus is the reported state of a peripheral device.
type DeviceStatus string

const (
	DeviceOnline      DeviceStatus = "ONLINE"
	DeviceOffline     DeviceStatus = "OFFLINE"
	DeviceMaintenance DeviceStatus = "MAINTENANCE"
)

// LogAction identifies the gateway lifecycle event recorded by a log entry.
type LogAction string

const (
	ActionCreated        LogAction = "CREATED"
	ActionUpdated        LogAction = "UPDATED"
	ActionDeleted        LogAction = "DELETED"
	ActionDeviceAttached LogAction = "DEVICE_ATTACHED"
	ActionDeviceDetached LogAction = "DEVICE_DETACHED"
)

// UID is a device hardware identifier, up to 19 decimal digits.
// It is stored as a 64-bit integer but always serialized as a JSON string,
// since plain JSON has no safe 64-bit integer representation.
type UID int64

// String returns the decimal representation.
func (u UID) String() string {
	return strconv.FormatInt(int64(u), 10)
}

// MarshalJSON encodes the UID as a quoted decimal string.
func (u UID) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(u.String())), nil
}

// UnmarshalJSON accepts either a quoted decimal string or a bare number.
func (u *UID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid device uid %q: %w", s, err)
	}
	*u = UID(v)
	return nil
}

// ParseUID parses a decimal string of up to 19 digits.
func ParseUID(s string) (UID, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid device uid %q: %w", s, err)
	}
	return UID(v), nil
}

// Tenant is an owning organization for one or more gateways.
type Tenant struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	ContactEmail string    `json:"contact_email" gorm:"not null"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime"`
	Gateways     []Gateway `json:"gateways,omitempty" gorm:"foreignKey:TenantID"`
}

// TableName specifies the table name for Tenant model.
func (Tenant) TableName() string { return "tenants" }

// Gateway is a network-attached hub hosting up to MaxDevicesPerGateway devices.
// SerialNumber and IPv4Address each carry a storage-level unique index; the
// application-level existence checks are a fast path for better error messages,
// the indexes are the authoritative guarantee.
type Gateway struct {
	ID           uuid.UUID          `json:"id" gorm:"type:uuid;primaryKey"`
	SerialNumber string             `json:"serial_number" gorm:"uniqueIndex;not null"`
	Name         string             `json:"name" gorm:"not null"`
	IPv4Address  string             `json:"ipv4_address" gorm:"uniqueIndex;not null"`
	Location     *string            `json:"location"`
	Status       GatewayStatus      `json:"status" gorm:"not null"`
	TenantID     uuid.UUID          `json:"tenant_id" gorm:"type:uuid;index;not null"`
	Tenant       *Tenant            `json:"tenant,omitempty" gorm:"foreignKey:TenantID"`
	Devices      []PeripheralDevice `json:"devices,omitempty" gorm:"foreignKey:GatewayID"`
	CreatedAt    time.Time          `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time          `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for Gateway model.
func (Gateway) TableName() string { return "gateways" }

// PeripheralDevice is a sensor or actuator, optionally attached to one gateway.
// A nil GatewayID means the device is an orphan.
type PeripheralDevice struct {
	ID           uuid.UUID    `json:"id" gorm:"type:uuid;primaryKey"`
	UID          UID          `json:"uid" gorm:"column:uid;uniqueIndex;not null"`
	Vendor       string       `json:"vendor" gorm:"not null"`
	Status       DeviceStatus `json:"status" gorm:"not null"`
	DeviceTypeID int          `json:"device_type_id" gorm:"index;not null"`
	DeviceType   *DeviceType  `json:"device_type,omitempty" gorm:"foreignKey:DeviceTypeID"`
	GatewayID    *uuid.UUID   `json:"gateway_id" gorm:"type:uuid;index"`
	Gateway      *Gateway     `json:"gateway,omitempty" gorm:"foreignKey:GatewayID"`
	CreatedAt    time.Time    `json:"created_at" gorm:"autoCreateTime"`
	LastSeenAt   *time.Time   `json:"last_seen_at"`
}

// TableName specifies the table name for PeripheralDevice model.
func (PeripheralDevice) TableName() string { return "peripheral_devices" }

// DeviceType is a category describing a kind of peripheral device.
type DeviceType struct {
	ID          int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description" gorm:"not null"`
}

// TableName specifies the table name for DeviceType model.
func (DeviceType) TableName() string { return "device_types" }

// GatewayLog is an append-only audit record of a gateway lifecycle event.
// GatewayID deliberately has no foreign key: log entries must outlive the
// gateway they describe.
type GatewayLog struct {
	ID        uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	GatewayID uuid.UUID      `json:"gateway_id" gorm:"type:uuid;index;not null"`
	Action    LogAction      `json:"action" gorm:"not null"`
	Details   datatypes.JSON `json:"details"`
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
}

// TableName specifies the table name for GatewayLog model.
func (GatewayLog) TableName() string { return "gateway_logs" }

// logDetails marshals a details payload for a log entry. Marshaling a
// map[string]any cannot fail in practice, so errors are collapsed to "{}".
func logDetails(payload map[string]any) datatypes.JSON {
	buf, err := json.Marshal(payload)
	if err != nil {
		return datatypes.JSON([]byte("{}"))
	}
	return datatypes.JSON(buf)
}

// LogTenantInfo is the denormalized tenant snapshot attached to a log listing.
type LogTenantInfo struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// LogGatewayInfo is the denormalized gateway snapshot attached to a log
// listing. Nil in a GatewayLogEntry when the gateway has since been deleted.
type LogGatewayInfo struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	SerialNumber string         `json:"serial_number"`
	Tenant       *LogTenantInfo `json:"tenant,omitempty"`
}

// GatewayLogEntry is a log record annotated with its gateway at query time.
type GatewayLogEntry struct {
	GatewayLog
	Gateway *LogGatewayInfo `json:"gateway"`
}
