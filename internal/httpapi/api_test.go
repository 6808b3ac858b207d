package httpapi_test

import (
	"encoding/json"
	"fmt"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Inventory API", func() {
	var router http.Handler

	BeforeEach(func() {
		router = newTestRouter()
	})

	It("serves the health endpoint", func() {
		rec := doJSON(router, http.MethodGet, "/healthz", nil, nil)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	Describe("tenants", func() {
		It("creates, reads, updates, and deletes a tenant", func() {
			created := mustCreate(router, "/api/tenants", tenantBody())
			id := created["id"].(string)

			var fetched map[string]any
			rec := doJSON(router, http.MethodGet, "/api/tenants/"+id, nil, &fetched)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(fetched["name"]).To(Equal(created["name"]))

			var updated map[string]any
			rec = doJSON(router, http.MethodPut, "/api/tenants/"+id, map[string]any{
				"name": "Renamed Corp",
			}, &updated)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(updated["name"]).To(Equal("Renamed Corp"))

			rec = doJSON(router, http.MethodDelete, "/api/tenants/"+id, nil, nil)
			Expect(rec.Code).To(Equal(http.StatusNoContent))
			Expect(rec.Body.Len()).To(BeZero())

			rec = doJSON(router, http.MethodGet, "/api/tenants/"+id, nil, nil)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
		})

		It("returns 404 with the entity name for an unknown tenant", func() {
			var out map[string]any
			rec := doJSON(router, http.MethodGet, "/api/tenants/7b68574b-bc5c-4c34-a85b-8a05ec2b55e0", nil, &out)
			Expect(rec.Code).To(Equal(http.StatusNotFound))
			Expect(out["error"]).To(Equal("Tenant not found"))
		})
	})

	Describe("gateways", func() {
		var tenantID string

		BeforeEach(func() {
			tenantID = mustCreate(router, "/api/tenants", tenantBody())["id"].(string)
		})

		It("creates a gateway owned by the tenant", func() {
			created := mustCreate(router, "/api/gateways", gatewayBody(tenantID))
			Expect(created["tenant_id"]).To(Equal(tenantID))
			Expect(created["status"]).To(Equal("ACTIVE"))
		})

		It("returns 409 for a duplicate serial number", func() {
			first := mustCreate(router, "/api/gateways", gatewayBody(tenantID))

			body := gatewayBody(tenantID)
			body["serial_number"] = first["serial_number"]

			var out map[string]any
			rec := doJSON(router, http.MethodPost, "/api/gateways", body, &out)
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(out["error"]).To(Equal("Gateway serial number already exists"))
		})

		It("returns 409 when a patch steals another gateway's IP", func() {
			first := mustCreate(router, "/api/gateways", gatewayBody(tenantID))
			second := mustCreate(router, "/api/gateways", gatewayBody(tenantID))

			var out map[string]any
			rec := doJSON(router, http.MethodPatch, "/api/gateways/"+second["id"].(string), map[string]any{
				"ipv4_address": first["ipv4_address"],
			}, &out)
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(out["error"]).To(Equal("Gateway IPv4 address already exists"))
		})

		It("patches mutable fields and records the change in the log", func() {
			gw := mustCreate(router, "/api/gateways", gatewayBody(tenantID))
			id := gw["id"].(string)

			var updated map[string]any
			rec := doJSON(router, http.MethodPatch, "/api/gateways/"+id, map[string]any{
				"status": "DECOMMISSIONED",
			}, &updated)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(updated["status"]).To(Equal("DECOMMISSIONED"))

			var logs []map[string]any
			rec = doJSON(router, http.MethodGet, "/api/gateways/"+id+"/logs", nil, &logs)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(logs).To(HaveLen(2))
			Expect(logs[0]["action"]).To(Equal("UPDATED"))
			Expect(logs[1]["action"]).To(Equal("CREATED"))
		})

		It("rejects a patch touching the serial number as an unknown field", func() {
			gw := mustCreate(router, "/api/gateways", gatewayBody(tenantID))

			rec := doJSON(router, http.MethodPatch, "/api/gateways/"+gw["id"].(string), map[string]any{
				"serial_number": "SN-HACKED",
			}, nil)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
		})

		It("deletes a gateway and keeps its log history", func() {
			gw := mustCreate(router, "/api/gateways", gatewayBody(tenantID))
			id := gw["id"].(string)

			rec := doJSON(router, http.MethodDelete, "/api/gateways/"+id, nil, nil)
			Expect(rec.Code).To(Equal(http.StatusNoContent))

			var logs []map[string]any
			rec = doJSON(router, http.MethodGet, "/api/gateways/"+id+"/logs", nil, &logs)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(logs).To(HaveLen(2))
			Expect(logs[0]["action"]).To(Equal("DELETED"))
		})

		It("lists all logs with a null gateway annotation after deletion", func() {
			gw := mustCreate(router, "/api/gateways", gatewayBody(tenantID))
			id := gw["id"].(string)
			rec := doJSON(router, http.MethodDelete, "/api/gateways/"+id, nil, nil)
			Expect(rec.Code).To(Equal(http.StatusNoContent))

			var entries []map[string]any
			rec = doJSON(router, http.MethodGet, "/api/gateways/logs", nil, &entries)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(entries).To(HaveLen(2))
			for _, e := range entries {
				Expect(e).To(HaveKey("gateway"))
				Expect(e["gateway"]).To(BeNil())
			}
		})
	})

	Describe("devices", func() {
		var (
			tenantID  string
			gatewayID string
			typeID    float64
		)

		BeforeEach(func() {
			tenantID = mustCreate(router, "/api/tenants", tenantBody())["id"].(string)
			gatewayID = mustCreate(router, "/api/gateways", gatewayBody(tenantID))["id"].(string)
			typeID = mustCreate(router, "/api/device-types", deviceTypeBody())["id"].(float64)
		})

		It("serializes the device uid as a JSON string", func() {
			body := deviceBody(typeID)
			created := mustCreate(router, "/api/devices", body)

			uid, ok := created["uid"].(string)
			Expect(ok).To(BeTrue(), "uid should be a string, got %T", created["uid"])
			Expect(uid).To(Equal(body["uid"]))
		})

		It("returns 409 for a duplicate uid", func() {
			body := deviceBody(typeID)
			mustCreate(router, "/api/devices", body)

			dup := deviceBody(typeID)
			dup["uid"] = body["uid"]

			var out map[string]any
			rec := doJSON(router, http.MethodPost, "/api/devices", dup, &out)
			Expect(rec.Code).To(Equal(http.StatusConflict))
			Expect(out["error"]).To(Equal("Device UID already exists"))
		})

		It("attaches and detaches a device through the gateway routes", func() {
			dev := mustCreate(router, "/api/devices", deviceBody(typeID))
			devID := dev["id"].(string)

			var attached map[string]any
			rec := doJSON(router, http.MethodPost, "/api/gateways/"+gatewayID+"/devices", map[string]any{
				"deviceId": devID,
			}, &attached)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(attached["gateway_id"]).To(Equal(gatewayID))

			var detached map[string]any
			rec = doJSON(router, http.MethodDelete, "/api/gateways/"+gatewayID+"/devices/"+devID, nil, &detached)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(detached["gateway_id"]).To(BeNil())
		})

		It("returns 400 when the capacity ceiling is reached", func() {
			for i := 0; i < 10; i++ {
				dev := mustCreate(router, "/api/devices", deviceBody(typeID))
				rec := doJSON(router, http.MethodPost, "/api/gateways/"+gatewayID+"/devices", map[string]any{
					"deviceId": dev["id"],
				}, nil)
				Expect(rec.Code).To(Equal(http.StatusOK), "attach %d failed: %s", i, rec.Body.String())
			}

			extra := mustCreate(router, "/api/devices", deviceBody(typeID))
			var out map[string]any
			rec := doJSON(router, http.MethodPost, "/api/gateways/"+gatewayID+"/devices", map[string]any{
				"deviceId": extra["id"],
			}, &out)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(out["error"]).To(Equal("Gateway already has the maximum number of devices (10)"))
		})

		It("returns 400 for detaching an unattached device", func() {
			dev := mustCreate(router, "/api/devices", deviceBody(typeID))

			var out map[string]any
			rec := doJSON(router, http.MethodDelete, "/api/gateways/"+gatewayID+"/devices/"+dev["id"].(string), nil, &out)
			Expect(rec.Code).To(Equal(http.StatusBadRequest))
			Expect(out["error"]).To(Equal("Device is not attached to this gateway"))
		})

		It("lists orphans separately from attached devices", func() {
			orphan := mustCreate(router, "/api/devices", deviceBody(typeID))
			attached := mustCreate(router, "/api/devices", deviceBody(typeID))
			rec := doJSON(router, http.MethodPost, "/api/gateways/"+gatewayID+"/devices", map[string]any{
				"deviceId": attached["id"],
			}, nil)
			Expect(rec.Code).To(Equal(http.StatusOK))

			var orphans []map[string]any
			rec = doJSON(router, http.MethodGet, "/api/devices/orphans", nil, &orphans)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(orphans).To(HaveLen(1))
			Expect(orphans[0]["id"]).To(Equal(orphan["id"]))
		})

		It("patches a device without touching its uid", func() {
			dev := mustCreate(router, "/api/devices", deviceBody(typeID))

			var updated map[string]any
			rec := doJSON(router, http.MethodPatch, "/api/devices/"+dev["id"].(string), map[string]any{
				"status": "MAINTENANCE",
			}, &updated)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(updated["status"]).To(Equal("MAINTENANCE"))
			Expect(updated["uid"]).To(Equal(dev["uid"]))
		})
	})

	Describe("device types", func() {
		It("creates and lists device types", func() {
			mustCreate(router, "/api/device-types", deviceTypeBody())
			mustCreate(router, "/api/device-types", deviceTypeBody())

			var types []map[string]any
			rec := doJSON(router, http.MethodGet, "/api/device-types", nil, &types)
			Expect(rec.Code).To(Equal(http.StatusOK))
			Expect(types).To(HaveLen(2))
		})

		It("returns 409 when deleting a type still in use", func() {
			typeID := mustCreate(router, "/api/device-types", deviceTypeBody())["id"].(float64)
			mustCreate(router, "/api/devices", deviceBody(typeID))

			rec := doJSON(router, http.MethodDelete, fmt.Sprintf("/api/device-types/%d", int(typeID)), nil, nil)
			Expect(rec.Code).To(Equal(http.StatusConflict))
		})
	})

	It("keeps list responses valid JSON arrays when empty", func() {
		var tenants []json.RawMessage
		rec := doJSON(router, http.MethodGet, "/api/tenants", nil, &tenants)
		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(tenants).To(BeEmpty())
	})
})
