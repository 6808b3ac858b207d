package httpapi

import (
	"time"

	"github.com/google/uuid"

	"procodus.dev/fleet-inventory/internal/inventory"
)

// Request bodies for the create and update operations. Every schema is
// strict: fields not declared here are rejected with unrecognized_keys.
// Update bodies use pointers so "absent" and "zero value" stay distinct.

type createTenantRequest struct {
	Name         string `json:"name" validate:"required,min=1,max=100"`
	ContactEmail string `json:"contact_email" validate:"required,email"`
}

type updateTenantRequest struct {
	Name         *string `json:"name" validate:"omitempty,min=1,max=100"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email"`
}

type createGatewayRequest struct {
	SerialNumber string  `json:"serial_number" validate:"required,min=1"`
	Name         string  `json:"name" validate:"required,min=1"`
	IPv4Address  string  `json:"ipv4_address" validate:"required,ipv4_dotted"`
	Status       string  `json:"status" validate:"required,oneof=ACTIVE INACTIVE DECOMMISSIONED"`
	Location     *string `json:"location" validate:"omitempty,min=1"`
	TenantID     string  `json:"tenant_id" validate:"required,uuid"`
}

type updateGatewayRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1"`
	Status      *string `json:"status" validate:"omitempty,oneof=ACTIVE INACTIVE DECOMMISSIONED"`
	IPv4Address *string `json:"ipv4_address" validate:"omitempty,ipv4_dotted"`
	Location    *string `json:"location" validate:"omitempty,min=1"`
}

type createDeviceRequest struct {
	UID          string  `json:"uid" validate:"required,uid_digits"`
	Vendor       string  `json:"vendor" validate:"required,min=1"`
	Status       string  `json:"status" validate:"required,oneof=ONLINE OFFLINE MAINTENANCE"`
	DeviceTypeID int     `json:"device_type_id" validate:"required,gt=0"`
	GatewayID    *string `json:"gateway_id" validate:"omitempty,uuid"`
}

type updateDeviceRequest struct {
	Vendor       *string    `json:"vendor" validate:"omitempty,min=1"`
	Status       *string    `json:"status" validate:"omitempty,oneof=ONLINE OFFLINE MAINTENANCE"`
	LastSeenAt   *time.Time `json:"last_seen_at"`
	DeviceTypeID *int       `json:"device_type_id" validate:"omitempty,gt=0"`
}

type createDeviceTypeRequest struct {
	Name        string `json:"name" validate:"required,min=1,max=50"`
	Description string `json:"description" validate:"required,min=1,max=255"`
}

type updateDeviceTypeRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=50"`
	Description *string `json:"description" validate:"omitempty,min=1,max=255"`
}

type attachDeviceRequest struct {
	DeviceID string `json:"deviceId" validate:"required,uuid"`
}

func (r createGatewayRequest) toInput() (inventory.CreateGatewayInput, error) {
	tenantID, err := uuid.Parse(r.TenantID)
	if err != nil {
		return inventory.CreateGatewayInput{}, singleIssue("body.tenant_id", "Invalid UUID", codeInvalidFormat)
	}
	return inventory.CreateGatewayInput{
		SerialNumber: r.SerialNumber,
		Name:         r.Name,
		IPv4Address:  r.IPv4Address,
		Status:       inventory.GatewayStatus(r.Status),
		Location:     r.Location,
		TenantID:     tenantID,
	}, nil
}

func (r createDeviceRequest) toInput() (inventory.CreateDeviceInput, error) {
	uid, err := inventory.ParseUID(r.UID)
	if err != nil {
		return inventory.CreateDeviceInput{}, singleIssue("body.uid", "UID must be a numeric string of up to 19 digits", codeInvalidFormat)
	}
	in := inventory.CreateDeviceInput{
		UID:          uid,
		Vendor:       r.Vendor,
		Status:       inventory.DeviceStatus(r.Status),
		DeviceTypeID: r.DeviceTypeID,
	}
	if r.GatewayID != nil {
		gwID, err := uuid.Parse(*r.GatewayID)
		if err != nil {
			return inventory.CreateDeviceInput{}, singleIssue("body.gateway_id", "Invalid UUID", codeInvalidFormat)
		}
		in.GatewayID = &gwID
	}
	return in, nil
}
