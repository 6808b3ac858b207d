package inventory_test

import (
	"context"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"procodus.dev/fleet-inventory/internal/inventory"
)

var _ = Describe("Devices", func() {
	var (
		ctx    context.Context
		svc    *inventory.Service
		tenant *inventory.Tenant
		dt     *inventory.DeviceType
	)

	BeforeEach(func() {
		ctx = context.Background()
		svc = newTestService()
		tenant = createTenant(ctx, svc)
		dt = createDeviceType(ctx, svc)
	})

	Describe("CreateDevice", func() {
		It("creates an orphan device", func() {
			dev := createDevice(ctx, svc, dt.ID)
			Expect(dev.ID).NotTo(Equal(uuid.Nil))
			Expect(dev.GatewayID).To(BeNil())
			Expect(dev.DeviceType).NotTo(BeNil())
		})

		It("rejects a duplicate UID", func() {
			dev := createDevice(ctx, svc, dt.ID)

			_, err := svc.CreateDevice(ctx, inventory.CreateDeviceInput{
				UID:          dev.UID,
				Vendor:       "acme",
				Status:       inventory.DeviceOnline,
				DeviceTypeID: dt.ID,
			})
			Expect(inventory.IsConflict(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Device UID already exists"))
		})

		It("fails not found for an unknown device type", func() {
			_, err := svc.CreateDevice(ctx, inventory.CreateDeviceInput{
				UID:          nextUID(),
				Vendor:       "acme",
				Status:       inventory.DeviceOnline,
				DeviceTypeID: 99999,
			})
			Expect(inventory.IsNotFound(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Device type not found"))
		})

		It("pre-attaches to a gateway when gateway_id is given", func() {
			gw := createGateway(ctx, svc, tenant.ID)

			dev, err := svc.CreateDevice(ctx, inventory.CreateDeviceInput{
				UID:          nextUID(),
				Vendor:       "acme",
				Status:       inventory.DeviceOnline,
				DeviceTypeID: dt.ID,
				GatewayID:    &gw.ID,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(dev.GatewayID).NotTo(BeNil())
			Expect(*dev.GatewayID).To(Equal(gw.ID))
		})

		It("enforces gateway capacity on creation-time attachment", func() {
			gw := createGateway(ctx, svc, tenant.ID)
			for i := 0; i < inventory.MaxDevicesPerGateway; i++ {
				dev := createDevice(ctx, svc, dt.ID)
				_, err := svc.AttachDevice(ctx, gw.ID, dev.ID)
				Expect(err).NotTo(HaveOccurred())
			}

			_, err := svc.CreateDevice(ctx, inventory.CreateDeviceInput{
				UID:          nextUID(),
				Vendor:       "acme",
				Status:       inventory.DeviceOnline,
				DeviceTypeID: dt.ID,
				GatewayID:    &gw.ID,
			})
			Expect(inventory.IsBusinessRule(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Gateway already has the maximum number of devices (10)"))
		})

		It("fails not found for an unknown pre-attach gateway", func() {
			ghost := uuid.New()
			_, err := svc.CreateDevice(ctx, inventory.CreateDeviceInput{
				UID:          nextUID(),
				Vendor:       "acme",
				Status:       inventory.DeviceOnline,
				DeviceTypeID: dt.ID,
				GatewayID:    &ghost,
			})
			Expect(inventory.IsNotFound(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Gateway not found"))
		})
	})

	Describe("UpdateDevice", func() {
		It("applies partial updates and leaves the UID untouched", func() {
			dev := createDevice(ctx, svc, dt.ID)
			vendor := "updated-vendor"
			seen := time.Now().UTC().Truncate(time.Second)

			updated, err := svc.UpdateDevice(ctx, dev.ID, inventory.UpdateDeviceInput{
				Vendor:     &vendor,
				LastSeenAt: &seen,
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Vendor).To(Equal("updated-vendor"))
			Expect(updated.LastSeenAt).NotTo(BeNil())
			Expect(updated.UID).To(Equal(dev.UID))
		})

		It("fails not found for an unknown replacement device type", func() {
			dev := createDevice(ctx, svc, dt.ID)
			badType := 99999

			_, err := svc.UpdateDevice(ctx, dev.ID, inventory.UpdateDeviceInput{DeviceTypeID: &badType})
			Expect(inventory.IsNotFound(err)).To(BeTrue())
		})
	})

	Describe("AttachDevice", func() {
		It("attaches a device and logs DEVICE_ATTACHED", func() {
			gw := createGateway(ctx, svc, tenant.ID)
			dev := createDevice(ctx, svc, dt.ID)

			attached, err := svc.AttachDevice(ctx, gw.ID, dev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(attached.GatewayID).NotTo(BeNil())
			Expect(*attached.GatewayID).To(Equal(gw.ID))

			logs, err := svc.ListGatewayLogs(ctx, gw.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs[0].Action).To(Equal(inventory.ActionDeviceAttached))

			payload := logPayload(logs[0])
			Expect(payload).To(HaveKeyWithValue("user", "system"))
			Expect(payload).To(HaveKeyWithValue("device_id", dev.ID.String()))
			Expect(payload).To(HaveKeyWithValue("device_uid", dev.UID.String()))
		})

		It("checks gateway existence before device existence", func() {
			_, err := svc.AttachDevice(ctx, uuid.New(), uuid.New())
			Expect(inventory.IsNotFound(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Gateway not found"))
		})

		It("fails not found for an unknown device", func() {
			gw := createGateway(ctx, svc, tenant.ID)

			_, err := svc.AttachDevice(ctx, gw.ID, uuid.New())
			Expect(inventory.IsNotFound(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Device not found"))
		})

		It("enforces the capacity ceiling at exactly 10 devices", func() {
			gw := createGateway(ctx, svc, tenant.ID)
			for i := 0; i < inventory.MaxDevicesPerGateway; i++ {
				dev := createDevice(ctx, svc, dt.ID)
				_, err := svc.AttachDevice(ctx, gw.ID, dev.ID)
				Expect(err).NotTo(HaveOccurred())
			}

			extra := createDevice(ctx, svc, dt.ID)
			_, err := svc.AttachDevice(ctx, gw.ID, extra.ID)
			Expect(inventory.IsBusinessRule(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Gateway already has the maximum number of devices (10)"))
		})

		It("rejects attaching a device held by another gateway", func() {
			gw1 := createGateway(ctx, svc, tenant.ID)
			gw2 := createGateway(ctx, svc, tenant.ID)
			dev := createDevice(ctx, svc, dt.ID)

			_, err := svc.AttachDevice(ctx, gw1.ID, dev.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.AttachDevice(ctx, gw2.ID, dev.ID)
			Expect(inventory.IsBusinessRule(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Device is already attached to another gateway"))
		})

		It("treats re-attaching to the same gateway as a no-op success", func() {
			gw := createGateway(ctx, svc, tenant.ID)
			dev := createDevice(ctx, svc, dt.ID)

			_, err := svc.AttachDevice(ctx, gw.ID, dev.ID)
			Expect(err).NotTo(HaveOccurred())

			again, err := svc.AttachDevice(ctx, gw.ID, dev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(*again.GatewayID).To(Equal(gw.ID))
		})
	})

	Describe("DetachDevice", func() {
		It("detaches and logs DEVICE_DETACHED", func() {
			gw := createGateway(ctx, svc, tenant.ID)
			dev := createDevice(ctx, svc, dt.ID)
			_, err := svc.AttachDevice(ctx, gw.ID, dev.ID)
			Expect(err).NotTo(HaveOccurred())

			detached, err := svc.DetachDevice(ctx, gw.ID, dev.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(detached.GatewayID).To(BeNil())

			logs, err := svc.ListGatewayLogs(ctx, gw.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(logs[0].Action).To(Equal(inventory.ActionDeviceDetached))
		})

		It("rejects detaching a device that is not attached to the gateway", func() {
			gw := createGateway(ctx, svc, tenant.ID)
			dev := createDevice(ctx, svc, dt.ID)

			_, err := svc.DetachDevice(ctx, gw.ID, dev.ID)
			Expect(inventory.IsBusinessRule(err)).To(BeTrue())
			Expect(err.Error()).To(Equal("Device is not attached to this gateway"))
		})

		It("rejects detaching through a different gateway", func() {
			gw1 := createGateway(ctx, svc, tenant.ID)
			gw2 := createGateway(ctx, svc, tenant.ID)
			dev := createDevice(ctx, svc, dt.ID)
			_, err := svc.AttachDevice(ctx, gw1.ID, dev.ID)
			Expect(err).NotTo(HaveOccurred())

			_, err = svc.DetachDevice(ctx, gw2.ID, dev.ID)
			Expect(inventory.IsBusinessRule(err)).To(BeTrue())
		})

		It("frees capacity so another device can attach", func() {
			gw := createGateway(ctx, svc, tenant.ID)
			devices := make([]*inventory.PeripheralDevice, 0, inventory.MaxDevicesPerGateway)
			for i := 0; i < inventory.MaxDevicesPerGateway; i++ {
				dev := createDevice(ctx, svc, dt.ID)
				_, err := svc.AttachDevice(ctx, gw.ID, dev.ID)
				Expect(err).NotTo(HaveOccurred())
				devices = append(devices, dev)
			}

			_, err := svc.DetachDevice(ctx, gw.ID, devices[0].ID)
			Expect(err).NotTo(HaveOccurred())

			newcomer := createDevice(ctx, svc, dt.ID)
			_, err = svc.AttachDevice(ctx, gw.ID, newcomer.ID)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("ListOrphanDevices", func() {
		It("returns only devices without a gateway", func() {
			gw := createGateway(ctx, svc, tenant.ID)
			orphan := createDevice(ctx, svc, dt.ID)
			attached := createDevice(ctx, svc, dt.ID)
			_, err := svc.AttachDevice(ctx, gw.ID, attached.ID)
			Expect(err).NotTo(HaveOccurred())

			orphans, err := svc.ListOrphanDevices(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(orphans).To(HaveLen(1))
			Expect(orphans[0].ID).To(Equal(orphan.ID))
		})
	})

	Describe("DeleteDevice", func() {
		It("deletes a device", func() {
			dev := createDevice(ctx, svc, dt.ID)
			Expect(svc.DeleteDevice(ctx, dev.ID)).To(Succeed())

			_, err := svc.GetDevice(ctx, dev.ID)
			Expect(inventory.IsNotFound(err)).To(BeTrue())
		})

		It("fails not found for an unknown device", func() {
			Expect(inventory.IsNotFound(svc.DeleteDevice(ctx, uuid.New()))).To(BeTrue())
		})
	})
})
